// Package render projects crew and event data onto printable documents:
// single badges, multi-page rosters, and batch archives. Rendering
// degrades, never aborts: a badge must always be producible from valid
// crew/event data, whatever the state of template assets.
package render

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync/atomic"
	"time"

	"github.com/jung-kurt/gofpdf"
	qrcode "github.com/skip2/go-qrcode"

	"github.com/eventops/crewbadge/internal/access"
	"github.com/eventops/crewbadge/internal/assets"
	"github.com/eventops/crewbadge/internal/crew"
	"github.com/eventops/crewbadge/internal/layout"
	"github.com/eventops/crewbadge/internal/metrics"
)

// Badge canvas: A5 in points.
const (
	badgeWidth  = 420.0
	badgeHeight = 595.0
)

// Badge bundles everything one credential render needs. QRText is the
// encoded signed payload; empty means "render without a QR code".
type Badge struct {
	Member *crew.Member
	Event  *crew.Event
	QRText string
}

// Renderer draws badge documents. Safe for concurrent use; the style
// pointer is swapped atomically on config hot reload.
type Renderer struct {
	loader *assets.Loader
	style  atomic.Pointer[Style]
}

// New creates a Renderer with the given image loader and initial style.
func New(loader *assets.Loader, style *Style) *Renderer {
	r := &Renderer{loader: loader}
	r.style.Store(style)
	return r
}

// SwapStyle atomically replaces the appearance defaults (hot reload).
func (r *Renderer) SwapStyle(style *Style) {
	r.style.Store(style)
}

// Style returns the current appearance defaults.
func (r *Renderer) Style() *Style {
	return r.style.Load()
}

// strategy is one rung of the degradation ladder: a uniform failure
// signal instead of nested recovery, so the policy stays testable.
type strategy struct {
	name string
	fn   func(ctx context.Context, doc *gofpdf.Fpdf, b *Badge, st *Style) error
}

// strategies returns the ordered chain for this event:
// custom-template → styled-fallback → default, or just default when no
// template is configured.
func (r *Renderer) strategies(ev *crew.Event) []strategy {
	if ev.UseCustomBadge && ev.Template != nil && len(ev.Template.Positions) > 0 {
		return []strategy{
			{"custom", r.renderCustom},
			{"fallback", r.renderFallback},
			{"default", r.renderDefault},
		}
	}
	return []strategy{{"default", r.renderDefault}}
}

// Render produces a single-credential PDF. Strategies are tried in
// order; the first to complete wins. Only valid input data can make
// every rung fail.
func (r *Renderer) Render(ctx context.Context, b *Badge) ([]byte, error) {
	start := time.Now()
	defer func() {
		metrics.RenderDuration.Observe(float64(time.Since(start).Milliseconds()))
	}()

	st := r.style.Load()
	for _, s := range r.strategies(b.Event) {
		doc := newBadgeDoc()
		if err := s.fn(ctx, doc, b, st); err != nil {
			slog.Warn("badge render strategy failed",
				"strategy", s.name, "crew_member", b.Member.ID, "err", err)
			continue
		}
		var buf bytes.Buffer
		if err := doc.Output(&buf); err != nil {
			slog.Warn("badge document output failed",
				"strategy", s.name, "crew_member", b.Member.ID, "err", err)
			continue
		}
		metrics.BadgesRendered.WithLabelValues(s.name).Inc()
		return buf.Bytes(), nil
	}
	return nil, fmt.Errorf("render badge %s: all strategies failed", b.Member.BadgeNumber)
}

func newBadgeDoc() *gofpdf.Fpdf {
	doc := gofpdf.NewCustom(&gofpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "pt",
		Size:           gofpdf.SizeType{Wd: badgeWidth, Ht: badgeHeight},
	})
	doc.SetAutoPageBreak(false, 0)
	doc.SetMargins(0, 0, 0)
	doc.AddPage()
	return doc
}

// renderCustom draws the operator-defined template. Background load
// failure degrades to a flat accent fill; any single field failure is
// skipped. Only a template with no renderable fields, or a document in
// an error state, fails the whole strategy.
func (r *Renderer) renderCustom(ctx context.Context, doc *gofpdf.Fpdf, b *Badge, st *Style) error {
	boxes := layout.Resolve(b.Event.Template.Positions, badgeWidth, badgeHeight)
	if len(boxes) == 0 {
		return fmt.Errorf("template for event %s has no renderable fields", b.Event.ID)
	}

	r.drawBackground(ctx, doc, b.Event, st)

	// Sorted iteration keeps output deterministic across renders.
	fields := make([]layout.FieldType, 0, len(boxes))
	for ft := range boxes {
		fields = append(fields, ft)
	}
	sort.Slice(fields, func(i, j int) bool { return fields[i] < fields[j] })

	for _, ft := range fields {
		if err := r.renderField(ctx, doc, b, st, ft, boxes[ft]); err != nil {
			slog.Warn("skipping badge field", "field", string(ft), "crew_member", b.Member.ID, "err", err)
			metrics.FieldRenderSkips.WithLabelValues(string(ft)).Inc()
		}
	}
	return doc.Error()
}

func (r *Renderer) drawBackground(ctx context.Context, doc *gofpdf.Fpdf, ev *crew.Event, st *Style) {
	if ev.Template.ImageRef != "" {
		if img, err := r.loader.Load(ctx, ev.Template.ImageRef); err == nil {
			if r.placeImage(doc, "bg", img, 0, 0, badgeWidth, badgeHeight) {
				return
			}
		} else {
			slog.Warn("template background unavailable", "event", ev.ID, "err", err)
		}
	}
	accent := eventColor(ev.AccentColor, st.Accent)
	doc.SetFillColor(accent.R, accent.G, accent.B)
	doc.Rect(0, 0, badgeWidth, badgeHeight, "F")
}

// renderField dispatches one template field by type.
func (r *Renderer) renderField(ctx context.Context, doc *gofpdf.Fpdf, b *Badge, st *Style, ft layout.FieldType, box layout.Box) error {
	switch {
	case ft == layout.FieldPhoto:
		r.drawPhoto(ctx, doc, b.Member.PhotoRef, st, box.X, box.Y, box.Width, box.Height)
	case ft == layout.FieldName:
		drawText(doc, box, b.Member.FullName(), st, 16, "B")
	case ft == layout.FieldRole:
		drawText(doc, box, b.Member.Role, st, 12, "")
	case ft == layout.FieldCompany:
		drawText(doc, box, b.Member.Company, st, 12, "")
	case ft == layout.FieldBadgeNumber:
		drawText(doc, box, b.Member.BadgeNumber, st, 12, "B")
	case ft == layout.FieldQRCode:
		return r.drawQR(doc, b.QRText, st, box)
	case ft == layout.FieldAccessZones:
		drawText(doc, box, zonesLine(b.Member.AccessZones), st, 10, "")
	case ft.IsZone():
		drawZoneChip(doc, b.Member, st, ft.ZoneIndex(), box)
	default:
		return fmt.Errorf("no renderer for field type %q", ft)
	}
	return nil
}

// drawQR rasterizes the signed payload into the box. An empty payload
// gets a placeholder so template proofs still show the QR position.
func (r *Renderer) drawQR(doc *gofpdf.Fpdf, qrText string, st *Style, box layout.Box) error {
	if qrText == "" {
		drawPlaceholder(doc, st, "QR", box.X, box.Y, box.Width, box.Height)
		return nil
	}
	side := box.Width
	if box.Height < side {
		side = box.Height
	}
	png, err := qrcode.Encode(qrText, qrcode.Medium, 256)
	if err != nil {
		return fmt.Errorf("encode qr: %w", err)
	}
	if !r.placeImage(doc, "qr", &assets.Image{Data: png, Format: "PNG"}, box.X, box.Y, side, side) {
		return fmt.Errorf("embed qr in badge document")
	}
	return nil
}

// drawPhoto loads the member photo into a box, degrading to a labeled
// placeholder on any loader failure.
func (r *Renderer) drawPhoto(ctx context.Context, doc *gofpdf.Fpdf, ref string, st *Style, x, y, w, h float64) {
	if ref != "" {
		img, err := r.loader.Load(ctx, ref)
		if err == nil && r.placeImage(doc, "photo", img, x, y, w, h) {
			return
		}
		if err != nil {
			slog.Warn("crew photo unavailable", "ref", ref, "err", err)
		}
	}
	drawPlaceholder(doc, st, st.PlaceholderLabel, x, y, w, h)
}

// placeImage registers and draws image data, reporting success. A
// failed registration is wiped from the document's error state so the
// caller can draw a substitute instead.
func (r *Renderer) placeImage(doc *gofpdf.Fpdf, name string, img *assets.Image, x, y, w, h float64) bool {
	opts := gofpdf.ImageOptions{ImageType: img.Format}
	doc.RegisterImageOptionsReader(name, opts, bytes.NewReader(img.Data))
	if doc.Err() {
		slog.Warn("image rejected by pdf layer", "name", name, "err", doc.Error())
		doc.ClearError()
		return false
	}
	doc.ImageOptions(name, x, y, w, h, false, opts, 0, "")
	if doc.Err() {
		doc.ClearError()
		return false
	}
	return true
}

func drawPlaceholder(doc *gofpdf.Fpdf, st *Style, label string, x, y, w, h float64) {
	doc.SetFillColor(placeholderBox.R, placeholderBox.G, placeholderBox.B)
	doc.Rect(x, y, w, h, "F")
	doc.SetTextColor(90, 96, 102)
	doc.SetFont("Helvetica", "", 8)
	doc.SetXY(x, y)
	doc.CellFormat(w, h, label, "", 0, "CM", false, 0, "")
}

// drawText renders one template text field, honoring per-field style
// overrides for color, size and family.
func drawText(doc *gofpdf.Fpdf, box layout.Box, text string, st *Style, defaultSize float64, weight string) {
	size := defaultSize
	family := "Helvetica"
	color := st.Text
	if fs := box.Style; fs != nil {
		if fs.FontSize > 0 {
			size = fs.FontSize
		}
		family = fontFamily(fs.FontFamily)
		if c, ok := parseHexColor(fs.Color); ok {
			color = c
		}
	}
	doc.SetFont(family, weight, size)
	doc.SetTextColor(color.R, color.G, color.B)
	doc.SetXY(box.X, box.Y)
	tr := doc.UnicodeTranslatorFromDescriptor("")
	doc.CellFormat(box.Width, box.Height, tr(text), "", 0, "LM", false, 0, "")
}

// drawZoneChip marks a single access zone: filled when the member holds
// the zone, outlined when not.
func drawZoneChip(doc *gofpdf.Fpdf, m *crew.Member, st *Style, zone int, box layout.Box) {
	held := false
	for _, z := range m.AccessZones {
		if z == zone {
			held = true
			break
		}
	}
	if held {
		doc.SetFillColor(st.Accent.R, st.Accent.G, st.Accent.B)
		doc.Rect(box.X, box.Y, box.Width, box.Height, "F")
		doc.SetTextColor(255, 255, 255)
	} else {
		doc.SetDrawColor(placeholderBox.R, placeholderBox.G, placeholderBox.B)
		doc.Rect(box.X, box.Y, box.Width, box.Height, "D")
		doc.SetTextColor(140, 146, 152)
	}
	doc.SetFont("Helvetica", "B", 11)
	doc.SetXY(box.X, box.Y)
	doc.CellFormat(box.Width, box.Height, fmt.Sprintf("%d", zone), "", 0, "CM", false, 0, "")
}

func zonesLine(zones []int) string {
	if len(zones) == 0 {
		return "Zones: none"
	}
	line := "Zones:"
	for i, z := range zones {
		if i > 0 {
			line += ","
		}
		line += fmt.Sprintf(" %d", z)
	}
	return line
}

// renderFallback is the styled middle rung: flat background with the
// identity essentials stacked centrally. It uses no external assets, so
// it cannot fail the way the custom strategy can.
func (r *Renderer) renderFallback(_ context.Context, doc *gofpdf.Fpdf, b *Badge, st *Style) error {
	bg := eventColor(b.Event.BackgroundColor, st.Background)
	accent := eventColor(b.Event.AccentColor, st.Accent)
	text := eventColor(b.Event.TextColor, st.Text)

	doc.SetFillColor(bg.R, bg.G, bg.B)
	doc.Rect(0, 0, badgeWidth, badgeHeight, "F")
	doc.SetFillColor(accent.R, accent.G, accent.B)
	doc.Rect(0, 0, badgeWidth, 8, "F")
	doc.Rect(0, badgeHeight-8, badgeWidth, 8, "F")

	tr := doc.UnicodeTranslatorFromDescriptor("")
	doc.SetTextColor(text.R, text.G, text.B)

	doc.SetFont("Helvetica", "B", 22)
	doc.SetXY(20, 220)
	doc.CellFormat(badgeWidth-40, 30, tr(b.Member.FullName()), "", 0, "CM", false, 0, "")

	doc.SetFont("Helvetica", "", 14)
	doc.SetXY(20, 260)
	doc.CellFormat(badgeWidth-40, 20, tr(b.Member.Role), "", 0, "CM", false, 0, "")

	doc.SetFont("Helvetica", "B", 13)
	doc.SetXY(20, 290)
	doc.CellFormat(badgeWidth-40, 20, b.Member.BadgeNumber, "", 0, "CM", false, 0, "")

	doc.SetFont("Helvetica", "", 11)
	doc.SetXY(20, 330)
	doc.CellFormat(badgeWidth-40, 16, tr(b.Event.Name), "", 0, "CM", false, 0, "")

	return doc.Error()
}

// renderDefault is the fixed A5 layout used when no custom template is
// configured: header, circular photo, identity block, event block,
// color-coded status block, security footer.
func (r *Renderer) renderDefault(ctx context.Context, doc *gofpdf.Fpdf, b *Badge, st *Style) error {
	m, ev := b.Member, b.Event
	accent := eventColor(ev.AccentColor, st.Accent)
	text := eventColor(ev.TextColor, st.Text)
	bg := eventColor(ev.BackgroundColor, st.Background)
	tr := doc.UnicodeTranslatorFromDescriptor("")

	doc.SetFillColor(bg.R, bg.G, bg.B)
	doc.Rect(0, 0, badgeWidth, badgeHeight, "F")

	// Header band.
	doc.SetFillColor(accent.R, accent.G, accent.B)
	doc.Rect(0, 0, badgeWidth, 90, "F")
	doc.SetTextColor(255, 255, 255)
	doc.SetFont("Helvetica", "B", 18)
	doc.SetXY(20, 18)
	doc.CellFormat(badgeWidth-40, 30, tr(ev.Name), "", 0, "CM", false, 0, "")
	doc.SetFont("Helvetica", "", 10)
	doc.SetXY(20, 52)
	doc.CellFormat(badgeWidth-40, 16, "CREW CREDENTIAL", "", 0, "CM", false, 0, "")

	// Circular photo, or a circular placeholder.
	const (
		photoCX = badgeWidth / 2
		photoCY = 165.0
		photoR  = 55.0
	)
	photoDrawn := false
	if m.PhotoRef != "" {
		if img, err := r.loader.Load(ctx, m.PhotoRef); err == nil {
			doc.ClipCircle(photoCX, photoCY, photoR, false)
			photoDrawn = r.placeImage(doc, "photo", img, photoCX-photoR, photoCY-photoR, 2*photoR, 2*photoR)
			doc.ClipEnd()
		} else {
			slog.Warn("crew photo unavailable", "ref", m.PhotoRef, "err", err)
		}
	}
	if !photoDrawn {
		doc.SetFillColor(placeholderBox.R, placeholderBox.G, placeholderBox.B)
		doc.Circle(photoCX, photoCY, photoR, "F")
		doc.SetTextColor(90, 96, 102)
		doc.SetFont("Helvetica", "", 9)
		doc.SetXY(photoCX-photoR, photoCY-8)
		doc.CellFormat(2*photoR, 16, st.PlaceholderLabel, "", 0, "CM", false, 0, "")
	}

	// Identity block.
	doc.SetTextColor(text.R, text.G, text.B)
	doc.SetFont("Helvetica", "B", 20)
	doc.SetXY(20, 240)
	doc.CellFormat(badgeWidth-40, 26, tr(m.FullName()), "", 0, "CM", false, 0, "")
	doc.SetFont("Helvetica", "", 13)
	doc.SetXY(20, 268)
	doc.CellFormat(badgeWidth-40, 18, tr(m.Role), "", 0, "CM", false, 0, "")
	doc.SetFont("Courier", "B", 12)
	doc.SetXY(20, 288)
	doc.CellFormat(badgeWidth-40, 18, m.BadgeNumber, "", 0, "CM", false, 0, "")
	doc.SetTextColor(accent.R, accent.G, accent.B)
	doc.SetFont("Helvetica", "B", 11)
	doc.SetXY(20, 308)
	doc.CellFormat(badgeWidth-40, 16, access.LevelForRole(m.Role).Label(), "", 0, "CM", false, 0, "")
	doc.SetTextColor(text.R, text.G, text.B)
	doc.SetFont("Helvetica", "", 10)
	doc.SetXY(20, 326)
	doc.CellFormat(badgeWidth-40, 14, zonesLine(m.AccessZones), "", 0, "CM", false, 0, "")

	// Event block.
	doc.SetFillColor(244, 246, 248)
	doc.Rect(30, 360, badgeWidth-60, 84, "F")
	doc.SetFont("Helvetica", "B", 12)
	doc.SetXY(40, 368)
	doc.CellFormat(badgeWidth-80, 18, tr(ev.Name), "", 0, "LM", false, 0, "")
	doc.SetFont("Helvetica", "", 10)
	doc.SetXY(40, 388)
	doc.CellFormat(badgeWidth-80, 16, tr(ev.Location), "", 0, "LM", false, 0, "")
	doc.SetXY(40, 406)
	dates := ev.StartDate.Format("Jan 2") + " - " + ev.EndDate.Format("Jan 2, 2006")
	doc.CellFormat(badgeWidth-80, 16, dates, "", 0, "LM", false, 0, "")

	// Status block, color-coded by lifecycle state.
	sc := statusColor(m.Status)
	doc.SetFillColor(sc.R, sc.G, sc.B)
	doc.Rect(30, 462, badgeWidth-60, 36, "F")
	doc.SetTextColor(255, 255, 255)
	doc.SetFont("Helvetica", "B", 13)
	doc.SetXY(30, 462)
	doc.CellFormat(badgeWidth-60, 36, statusLabel(m.Status), "", 0, "CM", false, 0, "")

	// QR code, centered under the status block when a payload exists.
	if b.QRText != "" {
		if err := r.drawQR(doc, b.QRText, st, layout.Box{X: badgeWidth/2 - 32, Y: 504, Width: 64, Height: 64}); err != nil {
			slog.Warn("badge qr unavailable", "crew_member", m.ID, "err", err)
		}
	}

	// Security footer.
	doc.SetTextColor(110, 116, 122)
	doc.SetFont("Helvetica", "", 7)
	doc.SetXY(30, badgeHeight-24)
	doc.CellFormat(badgeWidth-60, 12, tr(st.SecurityNotice), "", 0, "CM", false, 0, "")

	return doc.Error()
}

func statusLabel(s crew.Status) string {
	switch s {
	case crew.StatusApproved:
		return "APPROVED"
	case crew.StatusRejected:
		return "REJECTED"
	default:
		return "PENDING APPROVAL"
	}
}
