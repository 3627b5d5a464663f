// Package access maps crew roles to access tiers. The table is consumed
// as a pure total function: every role resolves to a level, unknown
// roles fall back to the standard tier.
package access

import "strings"

// Level is a closed set of access tiers printed on badges.
type Level string

const (
	LevelStandard   Level = "standard"
	LevelElevated   Level = "elevated"
	LevelAllAreas   Level = "all_areas"
	LevelRestricted Level = "restricted"
)

// Label returns the human-readable form used on rendered badges.
func (l Level) Label() string {
	switch l {
	case LevelAllAreas:
		return "ALL AREAS"
	case LevelElevated:
		return "ELEVATED"
	case LevelRestricted:
		return "RESTRICTED"
	default:
		return "STANDARD"
	}
}

// LevelForRole resolves a role tag to its access tier. Matching is
// case-insensitive; unknown roles get LevelStandard.
func LevelForRole(role string) Level {
	switch strings.ToLower(strings.TrimSpace(role)) {
	case "production_manager", "event_director", "site_manager":
		return LevelAllAreas
	case "stage_manager", "supervisor", "security", "medic":
		return LevelElevated
	case "vendor", "press", "guest":
		return LevelRestricted
	default:
		return LevelStandard
	}
}
