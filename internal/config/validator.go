package config

import (
	"fmt"
	"strings"
)

// Validate checks the config for:
//   - A resolvable secret key (startup-time configuration error, §7-style)
//   - Parseable hex color overrides
//   - Sane grace/concurrency values
func Validate(cfg *EngineConfig) error {
	var errs []string

	if cfg.Version == "" {
		errs = append(errs, "version is required")
	}
	if _, err := cfg.Credential.Secret(); err != nil {
		errs = append(errs, err.Error())
	}
	if cfg.Credential.GraceHours < 0 {
		errs = append(errs, "credential.grace_hours must not be negative")
	}

	for name, val := range map[string]string{
		"render.background_color": cfg.Render.BackgroundColor,
		"render.accent_color":     cfg.Render.AccentColor,
		"render.text_color":       cfg.Render.TextColor,
	} {
		if val != "" && !validHexColor(val) {
			errs = append(errs, fmt.Sprintf("%s: %q is not a #rrggbb color", name, val))
		}
	}

	if cfg.Archive.Workers < 0 {
		errs = append(errs, "archive.workers must not be negative")
	}
	if cfg.Archive.QueueDepth < 0 {
		errs = append(errs, "archive.queue_depth must not be negative")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation errors:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

func validHexColor(s string) bool {
	if len(s) != 7 || s[0] != '#' {
		return false
	}
	for _, c := range s[1:] {
		switch {
		case c >= '0' && c <= '9':
		case c >= 'a' && c <= 'f':
		case c >= 'A' && c <= 'F':
		default:
			return false
		}
	}
	return true
}
