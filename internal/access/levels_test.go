package access

import "testing"

func TestLevelForRole(t *testing.T) {
	cases := []struct {
		role string
		want Level
	}{
		{"production_manager", LevelAllAreas},
		{"Event_Director", LevelAllAreas},
		{"stage_manager", LevelElevated},
		{"SECURITY", LevelElevated},
		{"vendor", LevelRestricted},
		{"rigger", LevelStandard},
		{"", LevelStandard},
		{"  supervisor  ", LevelElevated},
		{"never-heard-of-it", LevelStandard},
	}
	for _, tc := range cases {
		t.Run(tc.role, func(t *testing.T) {
			if got := LevelForRole(tc.role); got != tc.want {
				t.Errorf("LevelForRole(%q) = %s, want %s", tc.role, got, tc.want)
			}
		})
	}
}

func TestLevelLabels(t *testing.T) {
	for _, l := range []Level{LevelStandard, LevelElevated, LevelAllAreas, LevelRestricted} {
		if l.Label() == "" {
			t.Errorf("level %s has no label", l)
		}
	}
}
