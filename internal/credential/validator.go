package credential

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/eventops/crewbadge/internal/crew"
)

// Outcome is the closed set of validation results. Expected failure
// modes are returned as tags, never as errors: field staff need a
// specific, displayable reason.
type Outcome string

const (
	OutcomeValid            Outcome = "valid"
	OutcomeInvalid          Outcome = "invalid"
	OutcomeExpired          Outcome = "expired"
	OutcomeNotFound         Outcome = "not_found"
	OutcomeNotApproved      Outcome = "not_approved"
	OutcomeInvalidSignature Outcome = "invalid_signature"
	OutcomeInvalidFormat    Outcome = "invalid_format"
)

// Result is what a scan resolves to. Member and Event are live
// snapshots, populated only when the lookup succeeded.
type Result struct {
	Outcome Outcome      `json:"outcome"`
	Member  *crew.Member `json:"crew_member,omitempty"`
	Event   *crew.Event  `json:"event,omitempty"`
	Payload *Payload     `json:"payload,omitempty"`
}

// Directory is the persistence collaborator consulted during
// validation. Lookups are authoritative and performed fresh on every
// call; approval state is never trusted from the embedded payload.
type Directory interface {
	CrewMember(id string) (*crew.Member, bool)
	CrewMemberByBadge(badgeNumber string) (*crew.Member, bool)
	Event(id string) (*crew.Event, bool)
}

// Validator turns untrusted scanned text into a definitive Result.
type Validator struct {
	key []byte
	dir Directory
	now func() time.Time
}

// NewValidator creates a Validator sharing the Signer's secret key.
func NewValidator(key []byte, dir Directory) (*Validator, error) {
	if len(key) == 0 {
		return nil, fmt.Errorf("credential validator: secret key is required")
	}
	if dir == nil {
		return nil, fmt.Errorf("credential validator: directory is required")
	}
	return &Validator{key: key, dir: dir, now: time.Now}, nil
}

// WithClock overrides the time source. Used by tests to pin the
// expiration boundary.
func (v *Validator) WithClock(now func() time.Time) *Validator {
	v.now = now
	return v
}

// Validate runs the decision procedure in strict order, short-circuiting
// on the first failing check:
//
//	parse → signature → expiry → lookup → live status → valid
//
// It never returns an error for expected failure modes; the Outcome tag
// carries the reason.
func (v *Validator) Validate(raw string) *Result {
	var p Payload
	if err := json.Unmarshal([]byte(raw), &p); err != nil || !p.wellFormed() {
		return &Result{Outcome: OutcomeInvalidFormat}
	}

	if !p.verifySignature(v.key) {
		return &Result{Outcome: OutcomeInvalidSignature, Payload: &p}
	}

	if v.now().Unix() > p.ExpiresAt {
		return &Result{Outcome: OutcomeExpired, Payload: &p}
	}

	member, ok := v.dir.CrewMember(p.CrewMemberID)
	if !ok {
		member, ok = v.dir.CrewMemberByBadge(p.BadgeNumber)
	}
	if !ok {
		return &Result{Outcome: OutcomeNotFound, Payload: &p}
	}

	// A signed payload naming an event that no longer exists, or a badge
	// number that no longer matches the live record, is structurally
	// sound but semantically dead.
	event, ok := v.dir.Event(p.EventID)
	if !ok || member.BadgeNumber != p.BadgeNumber {
		return &Result{Outcome: OutcomeInvalid, Member: member, Payload: &p}
	}

	// Live status, re-checked on every scan. The payload is a
	// point-in-time snapshot; approval can be revoked after issuance.
	if member.Status != crew.StatusApproved {
		return &Result{Outcome: OutcomeNotApproved, Member: member, Event: event, Payload: &p}
	}

	return &Result{Outcome: OutcomeValid, Member: member, Event: event, Payload: &p}
}
