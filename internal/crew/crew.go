package crew

import "time"

// Status is the lifecycle state of a crew member's application.
type Status string

const (
	StatusPending  Status = "pending_approval"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

// Valid reports whether s is one of the known lifecycle states.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected:
		return true
	}
	return false
}

// Member is an immutable snapshot of a crew member. The engine never
// mutates it; the directory hands out a fresh copy per operation.
type Member struct {
	ID          string     `json:"id"`
	FirstName   string     `json:"first_name"`
	LastName    string     `json:"last_name"`
	Role        string     `json:"role"`
	BadgeNumber string     `json:"badge_number"`
	Company     string     `json:"company,omitempty"`
	PhotoRef    string     `json:"photo_ref,omitempty"`
	AccessZones []int      `json:"access_zones"`
	Status      Status     `json:"status"`
	ApprovedAt  *time.Time `json:"approved_at,omitempty"`
}

// FullName returns "First Last" for display.
func (m *Member) FullName() string {
	if m.FirstName == "" {
		return m.LastName
	}
	if m.LastName == "" {
		return m.FirstName
	}
	return m.FirstName + " " + m.LastName
}

// FieldStyle is an optional per-field override inside a template.
type FieldStyle struct {
	Color      string  `json:"color,omitempty" yaml:"color,omitempty"`
	FontSize   float64 `json:"font_size,omitempty" yaml:"font_size,omitempty"`
	FontFamily string  `json:"font_family,omitempty" yaml:"font_family,omitempty"`
}

// FieldPosition places one badge field in relative (0..1) canvas coordinates.
// Width/Height of zero mean "use the renderer default".
type FieldPosition struct {
	X      float64     `json:"x" yaml:"x"`
	Y      float64     `json:"y" yaml:"y"`
	Width  float64     `json:"width,omitempty" yaml:"width,omitempty"`
	Height float64     `json:"height,omitempty" yaml:"height,omitempty"`
	Style  *FieldStyle `json:"style,omitempty" yaml:"style,omitempty"`
}

// Template is an operator-authored badge layout: a background image
// reference plus a map of field-type tag → position.
type Template struct {
	ImageRef  string                   `json:"image_ref,omitempty" yaml:"image_ref,omitempty"`
	Positions map[string]FieldPosition `json:"positions" yaml:"positions"`
}

// Event is an immutable snapshot of the event a badge is issued for.
type Event struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	Location        string    `json:"location"`
	StartDate       time.Time `json:"start_date"`
	EndDate         time.Time `json:"end_date"`
	UseCustomBadge  bool      `json:"use_custom_badge"`
	Template        *Template `json:"template,omitempty"`
	BackgroundColor string    `json:"background_color,omitempty"`
	AccentColor     string    `json:"accent_color,omitempty"`
	TextColor       string    `json:"text_color,omitempty"`
}
