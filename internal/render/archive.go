package render

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/eventops/crewbadge/internal/credential"
	"github.com/eventops/crewbadge/internal/crew"
	"github.com/eventops/crewbadge/internal/metrics"
)

// BatchRenderer fans badge rendering out over a bounded worker pool and
// packages the results as a single ZIP. Each badge render is
// independent; one member's failure does not sink the archive.
type BatchRenderer struct {
	renderer *Renderer
	signer   *credential.Signer
	pool     *workerPool[*archiveJob]
}

type archiveJob struct {
	member  *crew.Member
	event   *crew.Event
	resultC chan<- archiveResult
}

type archiveResult struct {
	member *crew.Member
	pdf    []byte
	err    error
}

// NewBatchRenderer starts a long-lived pool with the given worker count
// and queue depth.
func NewBatchRenderer(ctx context.Context, r *Renderer, signer *credential.Signer, workers, queueDepth int) *BatchRenderer {
	b := &BatchRenderer{renderer: r, signer: signer}
	b.pool = newWorkerPool(ctx, workers, queueDepth, func(ctx context.Context, j *archiveJob) {
		pdf, err := b.renderOne(ctx, j.member, j.event)
		j.resultC <- archiveResult{member: j.member, pdf: pdf, err: err}
	})
	return b
}

func (b *BatchRenderer) renderOne(ctx context.Context, m *crew.Member, ev *crew.Event) ([]byte, error) {
	badge := &Badge{Member: m, Event: ev}
	// Only approved members carry a scannable credential; the rest get
	// a proof badge without a QR payload.
	if m.Status == crew.StatusApproved {
		p, err := b.signer.Issue(m, ev, time.Now())
		if err != nil {
			return nil, err
		}
		if badge.QRText, err = p.Encode(); err != nil {
			return nil, err
		}
	}
	return b.renderer.Render(ctx, badge)
}

// Archive renders one badge PDF per member and returns a ZIP of the
// results. Returns an error only when nothing could be queued or
// rendered at all.
func (b *BatchRenderer) Archive(ctx context.Context, members []*crew.Member, ev *crew.Event) ([]byte, int, error) {
	if len(members) == 0 {
		return nil, 0, fmt.Errorf("archive: no crew members to render")
	}

	resultC := make(chan archiveResult, len(members))
	queued := 0
	for _, m := range members {
		if b.pool.Submit(&archiveJob{member: m, event: ev, resultC: resultC}) {
			queued++
		}
	}
	if queued == 0 {
		return nil, 0, fmt.Errorf("archive: render queue full")
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	rendered := 0
	for i := 0; i < queued; i++ {
		select {
		case res := <-resultC:
			if res.err != nil {
				continue
			}
			f, err := zw.Create(badgeFileName(res.member))
			if err != nil {
				continue
			}
			if _, err := f.Write(res.pdf); err != nil {
				continue
			}
			rendered++
		case <-ctx.Done():
			zw.Close()
			return nil, rendered, ctx.Err()
		}
	}
	if err := zw.Close(); err != nil {
		return nil, rendered, fmt.Errorf("archive: %w", err)
	}
	if rendered == 0 {
		return nil, 0, fmt.Errorf("archive: no badges rendered")
	}
	return buf.Bytes(), rendered, nil
}

// QueueUtilization returns queue used / capacity (0–1) and refreshes
// the gauge backing readyz.
func (b *BatchRenderer) QueueUtilization() float64 {
	if b.pool.QueueCap() == 0 {
		return 0
	}
	util := float64(b.pool.QueueLen()) / float64(b.pool.QueueCap())
	metrics.ArchiveQueueUtilization.Set(util)
	return util
}

// Shutdown drains the pool gracefully.
func (b *BatchRenderer) Shutdown() {
	b.pool.Drain()
}

func badgeFileName(m *crew.Member) string {
	name := strings.ToLower(m.FullName())
	name = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			return r
		case r == ' ', r == '-', r == '_':
			return '-'
		default:
			return -1
		}
	}, name)
	return fmt.Sprintf("%s_%s.pdf", m.BadgeNumber, name)
}
