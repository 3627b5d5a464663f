package layout

import (
	"testing"

	"github.com/eventops/crewbadge/internal/crew"
)

func TestResolveCoordinateMapping(t *testing.T) {
	positions := map[string]crew.FieldPosition{
		"name": {X: 0.5, Y: 0.5},
	}
	boxes := Resolve(positions, 420, 595)
	box, ok := boxes[FieldName]
	if !ok {
		t.Fatal("name field missing from resolved map")
	}
	if box.X != 210 || box.Y != 297.5 {
		t.Errorf("position = (%g,%g), want (210,297.5)", box.X, box.Y)
	}
	if box.Width != 80 || box.Height != 35 {
		t.Errorf("default box = %gx%g, want 80x35", box.Width, box.Height)
	}
}

func TestResolveExplicitDimensions(t *testing.T) {
	positions := map[string]crew.FieldPosition{
		"photo": {X: 0.1, Y: 0.2, Width: 0.25, Height: 0.25},
	}
	boxes := Resolve(positions, 400, 600)
	box := boxes[FieldPhoto]
	if box.X != 40 || box.Y != 120 || box.Width != 100 || box.Height != 150 {
		t.Errorf("box = %s, want (40,120 100x150)", box)
	}
}

func TestResolveSkipsUnknownTags(t *testing.T) {
	positions := map[string]crew.FieldPosition{
		"name":      {X: 0.1, Y: 0.1},
		"hologram":  {X: 0.2, Y: 0.2},
		"zone_oops": {X: 0.3, Y: 0.3},
	}
	boxes := Resolve(positions, 420, 595)
	if len(boxes) != 1 {
		t.Fatalf("resolved %d boxes, want 1 (unknown tags skipped)", len(boxes))
	}
	if _, ok := boxes[FieldName]; !ok {
		t.Error("known tag dropped alongside unknown ones")
	}
}

func TestResolveClampsOutOfRange(t *testing.T) {
	positions := map[string]crew.FieldPosition{
		"qr_code": {X: 1.5, Y: -0.2, Width: 0.5, Height: 0.5},
	}
	boxes := Resolve(positions, 100, 100)
	box := boxes[FieldQRCode]
	if box.X != 100 || box.Y != 0 {
		t.Errorf("clamped position = (%g,%g), want (100,0)", box.X, box.Y)
	}
}

func TestParseFieldType(t *testing.T) {
	cases := []struct {
		tag  string
		ok   bool
		zone int
	}{
		{"photo", true, 0},
		{"name", true, 0},
		{"role", true, 0},
		{"company", true, 0},
		{"badge_number", true, 0},
		{"qr_code", true, 0},
		{"access_zones", true, 0},
		{"zone_3", true, 3},
		{"zone_12", true, 12},
		{"zone_-1", false, 0},
		{"zone_", false, 0},
		{"watermark", false, 0},
		{"", false, 0},
	}
	for _, tc := range cases {
		t.Run(tc.tag, func(t *testing.T) {
			ft, zone, ok := ParseFieldType(tc.tag)
			if ok != tc.ok {
				t.Fatalf("ok = %v, want %v", ok, tc.ok)
			}
			if ok && tc.zone != zone {
				t.Errorf("zone = %d, want %d", zone, tc.zone)
			}
			if ok && ft.IsZone() && ft.ZoneIndex() != tc.zone {
				t.Errorf("ZoneIndex = %d, want %d", ft.ZoneIndex(), tc.zone)
			}
		})
	}
}
