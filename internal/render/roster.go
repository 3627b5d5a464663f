package render

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/jung-kurt/gofpdf"

	"github.com/eventops/crewbadge/internal/crew"
	"github.com/eventops/crewbadge/internal/metrics"
)

// Roster page geometry (A4, millimeters).
const (
	rosterRowStep   = 8.0
	rosterBreakAt   = 270.0
	rosterLeft      = 10.0
	rosterHeaderTop = 14.0
)

// Roster table column widths, fixed so pages line up.
var rosterCols = []struct {
	title string
	width float64
}{
	{"Badge #", 24},
	{"Name", 52},
	{"Role", 34},
	{"Company", 40},
	{"Zones", 25},
	{"Status", 15},
}

// RosterOptions tunes the listing. Company scopes the roster to one
// company and inserts a banner.
type RosterOptions struct {
	Company string
}

// RenderRoster draws a paginated tabular listing of crew credentials
// with a summary line and a header repeated on every page.
func (r *Renderer) RenderRoster(members []*crew.Member, event *crew.Event, opts RosterOptions) ([]byte, error) {
	st := r.style.Load()
	if opts.Company != "" {
		members = filterByCompany(members, opts.Company)
	}

	doc := gofpdf.New("P", "mm", "A4", "")
	doc.SetAutoPageBreak(false, 0)
	doc.AddPage()
	tr := doc.UnicodeTranslatorFromDescriptor("")

	accent := eventColor(event.AccentColor, st.Accent)
	text := eventColor(event.TextColor, st.Text)
	y := rosterHeaderTop

	// Title and event line.
	doc.SetTextColor(text.R, text.G, text.B)
	doc.SetFont("Helvetica", "B", 16)
	doc.SetXY(rosterLeft, y)
	doc.CellFormat(190, 8, tr("Crew Roster - "+event.Name), "", 0, "LM", false, 0, "")
	y += 9
	doc.SetFont("Helvetica", "", 10)
	doc.SetXY(rosterLeft, y)
	dates := event.StartDate.Format("Jan 2") + " - " + event.EndDate.Format("Jan 2, 2006")
	doc.CellFormat(190, 6, tr(event.Location+"  |  "+dates), "", 0, "LM", false, 0, "")
	y += 8

	// Company banner shifts everything below it.
	if opts.Company != "" {
		doc.SetFillColor(accent.R, accent.G, accent.B)
		doc.Rect(rosterLeft, y, 190, 9, "F")
		doc.SetTextColor(255, 255, 255)
		doc.SetFont("Helvetica", "B", 11)
		doc.SetXY(rosterLeft+3, y)
		doc.CellFormat(184, 9, tr(opts.Company), "", 0, "LM", false, 0, "")
		doc.SetTextColor(text.R, text.G, text.B)
		y += 12
	}

	// Summary counts.
	total, approved, pending, rejected := summarize(members)
	doc.SetFont("Helvetica", "", 9)
	doc.SetXY(rosterLeft, y)
	summary := fmt.Sprintf("Total: %d    Approved: %d    Pending: %d    Rejected: %d",
		total, approved, pending, rejected)
	doc.CellFormat(190, 6, summary, "", 0, "LM", false, 0, "")
	y += 9

	y = drawRosterHeader(doc, accent, y)
	doc.SetTextColor(text.R, text.G, text.B)
	doc.SetFont("Helvetica", "", 9)

	for _, m := range members {
		if y > rosterBreakAt {
			doc.AddPage()
			y = drawRosterHeader(doc, accent, rosterHeaderTop)
			doc.SetTextColor(text.R, text.G, text.B)
			doc.SetFont("Helvetica", "", 9)
		}
		x := rosterLeft
		cells := []string{
			m.BadgeNumber,
			m.FullName(),
			m.Role,
			m.Company,
			zonesCell(m.AccessZones),
			shortStatus(m.Status),
		}
		for i, col := range rosterCols {
			doc.SetXY(x, y)
			doc.CellFormat(col.width, rosterRowStep, tr(cells[i]), "B", 0, "LM", false, 0, "")
			x += col.width
		}
		y += rosterRowStep
	}

	var buf bytes.Buffer
	if err := doc.Output(&buf); err != nil {
		return nil, fmt.Errorf("roster output: %w", err)
	}
	metrics.RostersRendered.Inc()
	return buf.Bytes(), nil
}

// drawRosterHeader paints the column header row and returns the y
// cursor below it.
func drawRosterHeader(doc *gofpdf.Fpdf, accent RGB, y float64) float64 {
	doc.SetFillColor(accent.R, accent.G, accent.B)
	doc.SetTextColor(255, 255, 255)
	doc.SetFont("Helvetica", "B", 9)
	x := rosterLeft
	for _, col := range rosterCols {
		doc.SetXY(x, y)
		doc.CellFormat(col.width, rosterRowStep, col.title, "", 0, "LM", true, 0, "")
		x += col.width
	}
	return y + rosterRowStep
}

func filterByCompany(members []*crew.Member, company string) []*crew.Member {
	out := make([]*crew.Member, 0, len(members))
	for _, m := range members {
		if strings.EqualFold(m.Company, company) {
			out = append(out, m)
		}
	}
	return out
}

func summarize(members []*crew.Member) (total, approved, pending, rejected int) {
	total = len(members)
	for _, m := range members {
		switch m.Status {
		case crew.StatusApproved:
			approved++
		case crew.StatusRejected:
			rejected++
		default:
			pending++
		}
	}
	return
}

func zonesCell(zones []int) string {
	if len(zones) == 0 {
		return "-"
	}
	parts := make([]string, len(zones))
	for i, z := range zones {
		parts[i] = fmt.Sprintf("%d", z)
	}
	return strings.Join(parts, ",")
}

func shortStatus(s crew.Status) string {
	switch s {
	case crew.StatusApproved:
		return "APPR"
	case crew.StatusRejected:
		return "REJ"
	default:
		return "PEND"
	}
}
