package render

import (
	"strconv"

	"github.com/eventops/crewbadge/internal/config"
	"github.com/eventops/crewbadge/internal/crew"
)

// RGB is a color triple in 0–255 channels.
type RGB struct {
	R, G, B int
}

// Style holds the appearance defaults applied when an event carries no
// overrides. It is swapped atomically on config hot reload; renders in
// flight keep the style they started with.
type Style struct {
	Background       RGB
	Accent           RGB
	Text             RGB
	PlaceholderLabel string
	SecurityNotice   string
}

// Status block colors for the default layout.
var (
	statusApproved = RGB{46, 160, 67}  // green
	statusPending  = RGB{210, 153, 34} // amber
	statusRejected = RGB{207, 34, 46}  // red
	placeholderBox = RGB{208, 215, 222}
)

func statusColor(s crew.Status) RGB {
	switch s {
	case crew.StatusApproved:
		return statusApproved
	case crew.StatusRejected:
		return statusRejected
	default:
		return statusPending
	}
}

// StyleFromConfig builds a Style from render config, falling back to
// built-in defaults on unparseable colors.
func StyleFromConfig(rc config.RenderConf) *Style {
	s := &Style{
		Background:       RGB{255, 255, 255},
		Accent:           RGB{31, 111, 235},
		Text:             RGB{27, 31, 36},
		PlaceholderLabel: rc.PlaceholderLabel,
		SecurityNotice:   rc.SecurityNotice,
	}
	if c, ok := parseHexColor(rc.BackgroundColor); ok {
		s.Background = c
	}
	if c, ok := parseHexColor(rc.AccentColor); ok {
		s.Accent = c
	}
	if c, ok := parseHexColor(rc.TextColor); ok {
		s.Text = c
	}
	if s.PlaceholderLabel == "" {
		s.PlaceholderLabel = "NO PHOTO"
	}
	return s
}

// parseHexColor parses "#rrggbb".
func parseHexColor(s string) (RGB, bool) {
	if len(s) != 7 || s[0] != '#' {
		return RGB{}, false
	}
	r, err1 := strconv.ParseUint(s[1:3], 16, 8)
	g, err2 := strconv.ParseUint(s[3:5], 16, 8)
	b, err3 := strconv.ParseUint(s[5:7], 16, 8)
	if err1 != nil || err2 != nil || err3 != nil {
		return RGB{}, false
	}
	return RGB{int(r), int(g), int(b)}, true
}

// eventColor returns the event's override when parseable, else fallback.
func eventColor(override string, fallback RGB) RGB {
	if c, ok := parseHexColor(override); ok {
		return c
	}
	return fallback
}

// fontFamily restricts template font overrides to the PDF core fonts.
func fontFamily(requested string) string {
	switch requested {
	case "Courier", "courier":
		return "Courier"
	case "Times", "times":
		return "Times"
	default:
		return "Helvetica"
	}
}
