// Package credential issues and verifies the signed QR payloads that
// represent a crew member's access rights for one event.
package credential

import (
	"fmt"
	"time"

	"github.com/eventops/crewbadge/internal/crew"
)

// DefaultGrace keeps a badge scannable through event teardown.
const DefaultGrace = 48 * time.Hour

// Signer builds signed credential payloads. The key is injected at
// construction so tests can use deterministic fixed keys; it must match
// the Validator's key or every signature fails verification.
type Signer struct {
	key   []byte
	grace time.Duration
}

// NewSigner creates a Signer. An empty key is a configuration error
// caught at startup, not per call.
func NewSigner(key []byte, grace time.Duration) (*Signer, error) {
	if len(key) == 0 {
		return nil, fmt.Errorf("credential signer: secret key is required")
	}
	if grace <= 0 {
		grace = DefaultGrace
	}
	return &Signer{key: key, grace: grace}, nil
}

// Issue builds a signed payload for member at event. Pure construction:
// no side effects, no I/O. Reissuing produces a fresh payload with new
// issued_at/expires_at/signature; existing payloads are never edited.
func (s *Signer) Issue(member *crew.Member, event *crew.Event, now time.Time) (*Payload, error) {
	p := &Payload{
		BadgeNumber:  member.BadgeNumber,
		EventID:      event.ID,
		CrewMemberID: member.ID,
		FirstName:    member.FirstName,
		LastName:     member.LastName,
		CompanyName:  member.Company,
		Role:         member.Role,
		AccessZones:  append([]int(nil), member.AccessZones...),
		IssuedAt:     now.Unix(),
		ExpiresAt:    event.EndDate.Add(s.grace).Unix(),
		Version:      Version,
	}
	sig, err := p.sign(s.key)
	if err != nil {
		return nil, fmt.Errorf("issue credential: %w", err)
	}
	p.Signature = sig
	return p, nil
}
