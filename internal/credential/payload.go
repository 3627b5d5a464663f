package credential

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// Version tags the payload wire format. Bump only on incompatible changes.
const Version = "1"

// Payload is the signed unit embedded in a badge QR code. Field order
// matters: the canonical serialization signed by the issuer is the JSON
// encoding of these fields, in this order, with Signature excluded.
// A payload is never mutated after creation; reissue builds a new one.
type Payload struct {
	BadgeNumber  string `json:"badge_number"`
	EventID      string `json:"event_id"`
	CrewMemberID string `json:"crew_member_id"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	CompanyName  string `json:"company_name"`
	Role         string `json:"role"`
	AccessZones  []int  `json:"access_zones"`
	IssuedAt     int64  `json:"issued_at"`
	ExpiresAt    int64  `json:"expires_at"`
	Version      string `json:"version"`
	Signature    string `json:"signature"`
}

// signingView mirrors Payload minus the signature. Keeping it as a
// separate struct pins the canonical field order independently of how
// Payload itself evolves.
type signingView struct {
	BadgeNumber  string `json:"badge_number"`
	EventID      string `json:"event_id"`
	CrewMemberID string `json:"crew_member_id"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	CompanyName  string `json:"company_name"`
	Role         string `json:"role"`
	AccessZones  []int  `json:"access_zones"`
	IssuedAt     int64  `json:"issued_at"`
	ExpiresAt    int64  `json:"expires_at"`
	Version      string `json:"version"`
}

// canonicalBytes returns the deterministic serialization that the
// signature covers.
func (p *Payload) canonicalBytes() ([]byte, error) {
	v := signingView{
		BadgeNumber:  p.BadgeNumber,
		EventID:      p.EventID,
		CrewMemberID: p.CrewMemberID,
		FirstName:    p.FirstName,
		LastName:     p.LastName,
		CompanyName:  p.CompanyName,
		Role:         p.Role,
		AccessZones:  p.AccessZones,
		IssuedAt:     p.IssuedAt,
		ExpiresAt:    p.ExpiresAt,
		Version:      p.Version,
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("canonical serialization: %w", err)
	}
	return b, nil
}

// sign computes the hex-encoded keyed hash over the canonical bytes.
func (p *Payload) sign(key []byte) (string, error) {
	canonical, err := p.canonicalBytes()
	if err != nil {
		return "", err
	}
	mac := hmac.New(sha256.New, key)
	mac.Write(canonical)
	return hex.EncodeToString(mac.Sum(nil)), nil
}

// verifySignature recomputes the signature and compares it to the
// embedded one in constant time.
func (p *Payload) verifySignature(key []byte) bool {
	want, err := p.sign(key)
	if err != nil {
		return false
	}
	got, err := hex.DecodeString(p.Signature)
	if err != nil {
		return false
	}
	wantRaw, _ := hex.DecodeString(want)
	return hmac.Equal(got, wantRaw)
}

// Encode returns the QR-ready JSON form of the payload.
func (p *Payload) Encode() (string, error) {
	b, err := json.Marshal(p)
	if err != nil {
		return "", fmt.Errorf("encode payload: %w", err)
	}
	return string(b), nil
}

// wellFormed checks the structural shape of a decoded payload: the
// fields a verifier cannot proceed without.
func (p *Payload) wellFormed() bool {
	if p.BadgeNumber == "" || p.EventID == "" || p.CrewMemberID == "" {
		return false
	}
	if p.IssuedAt == 0 || p.ExpiresAt == 0 || p.Signature == "" {
		return false
	}
	return p.Version == Version
}
