// Package layout converts operator-authored relative field positions
// into absolute pixel boxes for a concrete canvas size. One template
// definition scales to any physical badge size this way.
package layout

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/eventops/crewbadge/internal/crew"
)

// FieldType is the closed set of badge fields a template may place.
type FieldType string

const (
	FieldPhoto       FieldType = "photo"
	FieldName        FieldType = "name"
	FieldRole        FieldType = "role"
	FieldCompany     FieldType = "company"
	FieldBadgeNumber FieldType = "badge_number"
	FieldQRCode      FieldType = "qr_code"
	FieldAccessZones FieldType = "access_zones"
	fieldZonePrefix            = "zone_"
)

// Default box dimensions applied when a position omits width/height.
const (
	DefaultFieldWidth  = 80.0
	DefaultFieldHeight = 35.0
)

// ParseFieldType resolves a template tag. Per-zone tags take the form
// "zone_<n>"; the zone index is returned alongside. ok is false for
// tags outside the closed set.
func ParseFieldType(tag string) (ft FieldType, zone int, ok bool) {
	switch FieldType(tag) {
	case FieldPhoto, FieldName, FieldRole, FieldCompany, FieldBadgeNumber, FieldQRCode, FieldAccessZones:
		return FieldType(tag), 0, true
	}
	if n, found := strings.CutPrefix(tag, fieldZonePrefix); found {
		z, err := strconv.Atoi(n)
		if err == nil && z >= 0 {
			return FieldType(tag), z, true
		}
	}
	return "", 0, false
}

// IsZone reports whether ft is a per-zone tag.
func (ft FieldType) IsZone() bool {
	return strings.HasPrefix(string(ft), fieldZonePrefix)
}

// ZoneIndex returns the zone number of a per-zone tag, or -1.
func (ft FieldType) ZoneIndex() int {
	n, found := strings.CutPrefix(string(ft), fieldZonePrefix)
	if !found {
		return -1
	}
	z, err := strconv.Atoi(n)
	if err != nil {
		return -1
	}
	return z
}

// Box is an absolute field placement on a canvas.
type Box struct {
	X      float64
	Y      float64
	Width  float64
	Height float64
	Style  *crew.FieldStyle
}

// Resolve maps every recognized field position onto the canvas.
// Unrecognized tags are skipped with a warning; a bad tag never aborts
// a render. Relative values outside [0,1] are clamped.
func Resolve(positions map[string]crew.FieldPosition, canvasWidth, canvasHeight float64) map[FieldType]Box {
	out := make(map[FieldType]Box, len(positions))
	for tag, pos := range positions {
		ft, _, ok := ParseFieldType(tag)
		if !ok {
			slog.Warn("skipping unknown badge field type", "tag", tag)
			continue
		}
		w := pos.Width
		if w <= 0 {
			w = DefaultFieldWidth / canvasWidth
		}
		h := pos.Height
		if h <= 0 {
			h = DefaultFieldHeight / canvasHeight
		}
		out[ft] = Box{
			X:      clamp01(pos.X) * canvasWidth,
			Y:      clamp01(pos.Y) * canvasHeight,
			Width:  clamp01(w) * canvasWidth,
			Height: clamp01(h) * canvasHeight,
			Style:  pos.Style,
		}
	}
	return out
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// String implements fmt.Stringer for log output.
func (b Box) String() string {
	return fmt.Sprintf("(%.1f,%.1f %gx%g)", b.X, b.Y, b.Width, b.Height)
}
