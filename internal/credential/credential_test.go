package credential

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/eventops/crewbadge/internal/crew"
)

var testKey = []byte("test-secret-key-0123456789abcdef")

type memDir struct {
	members map[string]*crew.Member
	events  map[string]*crew.Event
}

func (d *memDir) CrewMember(id string) (*crew.Member, bool) {
	m, ok := d.members[id]
	return m, ok
}

func (d *memDir) CrewMemberByBadge(n string) (*crew.Member, bool) {
	for _, m := range d.members {
		if m.BadgeNumber == n {
			return m, true
		}
	}
	return nil, false
}

func (d *memDir) Event(id string) (*crew.Event, bool) {
	ev, ok := d.events[id]
	return ev, ok
}

func fixtureMember() *crew.Member {
	return &crew.Member{
		ID:          "cm_1",
		FirstName:   "Dana",
		LastName:    "Reyes",
		Role:        "stage_manager",
		BadgeNumber: "BDG-0042",
		Company:     "Soundline BV",
		AccessZones: []int{1, 2, 4},
		Status:      crew.StatusApproved,
	}
}

func fixtureEvent() *crew.Event {
	return &crew.Event{
		ID:        "ev_1",
		Name:      "Harbor Fest",
		Location:  "Pier 9",
		StartDate: time.Date(2026, 6, 1, 8, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2026, 6, 3, 23, 0, 0, 0, time.UTC),
	}
}

func fixtureDir(m *crew.Member, ev *crew.Event) *memDir {
	return &memDir{
		members: map[string]*crew.Member{m.ID: m},
		events:  map[string]*crew.Event{ev.ID: ev},
	}
}

func issueRaw(t *testing.T, m *crew.Member, ev *crew.Event, now time.Time) string {
	t.Helper()
	s, err := NewSigner(testKey, 0)
	if err != nil {
		t.Fatalf("NewSigner: %v", err)
	}
	p, err := s.Issue(m, ev, now)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	raw, err := p.Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	return raw
}

func validatorAt(t *testing.T, dir Directory, now time.Time) *Validator {
	t.Helper()
	v, err := NewValidator(testKey, dir)
	if err != nil {
		t.Fatalf("NewValidator: %v", err)
	}
	return v.WithClock(func() time.Time { return now })
}

func TestRoundTrip(t *testing.T) {
	m := fixtureMember()
	ev := fixtureEvent()
	now := ev.StartDate
	raw := issueRaw(t, m, ev, now)

	res := validatorAt(t, fixtureDir(m, ev), now).Validate(raw)
	if res.Outcome != OutcomeValid {
		t.Fatalf("outcome = %s, want valid", res.Outcome)
	}
	if res.Payload.BadgeNumber != m.BadgeNumber {
		t.Errorf("badge number = %s, want %s", res.Payload.BadgeNumber, m.BadgeNumber)
	}
	if res.Payload.CrewMemberID != m.ID {
		t.Errorf("crew member id = %s, want %s", res.Payload.CrewMemberID, m.ID)
	}
	if res.Member == nil || res.Member.ID != m.ID {
		t.Errorf("result member = %+v, want live snapshot of %s", res.Member, m.ID)
	}
	if res.Event == nil || res.Event.ID != ev.ID {
		t.Errorf("result event = %+v, want live snapshot of %s", res.Event, ev.ID)
	}
}

func TestIssueGraceWindow(t *testing.T) {
	m := fixtureMember()
	ev := fixtureEvent()
	s, err := NewSigner(testKey, 0)
	if err != nil {
		t.Fatalf("NewSigner: %v", err)
	}
	p, err := s.Issue(m, ev, ev.StartDate)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	want := ev.EndDate.Add(48 * time.Hour).Unix()
	if p.ExpiresAt != want {
		t.Errorf("expires_at = %d, want end_date+48h = %d", p.ExpiresAt, want)
	}
}

func TestNewSignerRequiresKey(t *testing.T) {
	if _, err := NewSigner(nil, 0); err == nil {
		t.Fatal("NewSigner(nil) should fail")
	}
	if _, err := NewValidator(nil, &memDir{}); err == nil {
		t.Fatal("NewValidator(nil key) should fail")
	}
}

// Flipping any single character in the signed portion must yield
// invalid_signature, never valid.
func TestTamperDetection(t *testing.T) {
	m := fixtureMember()
	ev := fixtureEvent()
	now := ev.StartDate
	raw := issueRaw(t, m, ev, now)
	v := validatorAt(t, fixtureDir(m, ev), now)

	sigStart := strings.Index(raw, `"signature"`)
	for i := 0; i < sigStart; i++ {
		c := raw[i]
		// Stay inside JSON string/number values so the payload still parses.
		var flipped byte
		switch {
		case c >= 'a' && c < 'z':
			flipped = c + 1
		case c >= '1' && c < '9':
			flipped = c + 1
		default:
			continue
		}
		tampered := raw[:i] + string(flipped) + raw[i+1:]
		var p Payload
		if err := json.Unmarshal([]byte(tampered), &p); err != nil || !p.wellFormed() {
			continue // structural damage, invalid_format territory
		}
		res := v.Validate(tampered)
		if res.Outcome == OutcomeValid {
			t.Fatalf("flip at %d (%q→%q) still validated", i, c, flipped)
		}
		if res.Outcome != OutcomeInvalidSignature {
			t.Fatalf("flip at %d: outcome = %s, want invalid_signature", i, res.Outcome)
		}
	}
}

func TestExpirationBoundary(t *testing.T) {
	m := fixtureMember()
	ev := fixtureEvent()
	raw := issueRaw(t, m, ev, ev.StartDate)
	expiry := ev.EndDate.Add(48 * time.Hour)
	dir := fixtureDir(m, ev)

	cases := []struct {
		name string
		at   time.Time
		want Outcome
	}{
		{"one second before expiry", expiry.Add(-time.Second), OutcomeValid},
		{"exactly at expiry", expiry, OutcomeValid},
		{"one second past expiry", expiry.Add(time.Second), OutcomeExpired},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res := validatorAt(t, dir, tc.at).Validate(raw)
			if res.Outcome != tc.want {
				t.Errorf("outcome = %s, want %s", res.Outcome, tc.want)
			}
		})
	}
}

// A previously valid badge must flip to not_approved once the live
// status changes, even though the embedded payload is untouched.
func TestLiveStatusRecheck(t *testing.T) {
	m := fixtureMember()
	ev := fixtureEvent()
	now := ev.StartDate
	raw := issueRaw(t, m, ev, now)
	dir := fixtureDir(m, ev)
	v := validatorAt(t, dir, now)

	if res := v.Validate(raw); res.Outcome != OutcomeValid {
		t.Fatalf("pre-revocation outcome = %s, want valid", res.Outcome)
	}
	m.Status = crew.StatusRejected
	if res := v.Validate(raw); res.Outcome != OutcomeNotApproved {
		t.Fatalf("post-revocation outcome = %s, want not_approved", res.Outcome)
	}
}

func TestValidateOutcomes(t *testing.T) {
	m := fixtureMember()
	ev := fixtureEvent()
	now := ev.StartDate
	raw := issueRaw(t, m, ev, now)

	otherKeyRaw := func() string {
		s, _ := NewSigner([]byte("a-different-secret-key-entirely!"), 0)
		p, _ := s.Issue(m, ev, now)
		enc, _ := p.Encode()
		return enc
	}()

	cases := []struct {
		name string
		raw  string
		dir  *memDir
		want Outcome
	}{
		{"garbage text", "not json at all", fixtureDir(m, ev), OutcomeInvalidFormat},
		{"empty object", "{}", fixtureDir(m, ev), OutcomeInvalidFormat},
		{"wrong version", strings.Replace(raw, `"version":"1"`, `"version":"9"`, 1), fixtureDir(m, ev), OutcomeInvalidFormat},
		{"foreign key signature", otherKeyRaw, fixtureDir(m, ev), OutcomeInvalidSignature},
		{"unknown crew member", raw, fixtureDir(&crew.Member{ID: "cm_other", BadgeNumber: "BDG-9999", Status: crew.StatusApproved}, ev), OutcomeNotFound},
		{"event deleted", raw, &memDir{members: map[string]*crew.Member{m.ID: m}, events: map[string]*crew.Event{}}, OutcomeInvalid},
		{"pending holder", raw, fixtureDir(&crew.Member{ID: m.ID, BadgeNumber: m.BadgeNumber, Status: crew.StatusPending}, ev), OutcomeNotApproved},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res := validatorAt(t, tc.dir, now).Validate(tc.raw)
			if res.Outcome != tc.want {
				t.Errorf("outcome = %s, want %s", res.Outcome, tc.want)
			}
		})
	}
}

// Lookup falls back to badge number when the crew member ID is stale.
func TestLookupByBadgeFallback(t *testing.T) {
	m := fixtureMember()
	ev := fixtureEvent()
	now := ev.StartDate
	raw := issueRaw(t, m, ev, now)

	relabeled := *m
	relabeled.ID = "cm_migrated"
	dir := fixtureDir(&relabeled, ev)

	res := validatorAt(t, dir, now).Validate(raw)
	if res.Outcome != OutcomeValid {
		t.Fatalf("outcome = %s, want valid via badge-number fallback", res.Outcome)
	}
}

func TestCanonicalBytesExcludeSignature(t *testing.T) {
	m := fixtureMember()
	ev := fixtureEvent()
	s, _ := NewSigner(testKey, 0)
	p, _ := s.Issue(m, ev, ev.StartDate)

	withSig, err := p.canonicalBytes()
	if err != nil {
		t.Fatalf("canonicalBytes: %v", err)
	}
	p.Signature = "totally-different"
	withOtherSig, _ := p.canonicalBytes()
	if string(withSig) != string(withOtherSig) {
		t.Error("canonical bytes must not depend on the signature field")
	}
	if strings.Contains(string(withSig), "signature") {
		t.Error("canonical bytes must not contain the signature key")
	}
}
