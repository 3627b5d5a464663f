// Package store provides an in-memory crew/event directory backing the
// HTTP surface. The engine itself only sees the credential.Directory
// interface; a relational implementation can replace this one without
// touching the engine.
package store

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/eventops/crewbadge/internal/crew"
)

// Memory is a concurrency-safe directory. Reads hand out copies so
// callers hold immutable snapshots.
type Memory struct {
	mu       sync.RWMutex
	members  map[string]*crew.Member
	byBadge  map[string]string // badge number → member ID
	events   map[string]*crew.Event
	badgeSeq int
}

// NewMemory creates an empty directory.
func NewMemory() *Memory {
	return &Memory{
		members: make(map[string]*crew.Member),
		byBadge: make(map[string]string),
		events:  make(map[string]*crew.Event),
	}
}

// CreateMember registers a crew member, assigning an ID and a unique
// operator-facing badge number. New members start pending approval.
func (s *Memory) CreateMember(m crew.Member) *crew.Member {
	s.mu.Lock()
	defer s.mu.Unlock()
	m.ID = "cm_" + uuid.New().String()[:8]
	s.badgeSeq++
	m.BadgeNumber = fmt.Sprintf("BDG-%05d", s.badgeSeq)
	if !m.Status.Valid() {
		m.Status = crew.StatusPending
	}
	s.members[m.ID] = &m
	s.byBadge[m.BadgeNumber] = m.ID
	out := m
	return &out
}

// CreateEvent registers an event and assigns it an ID.
func (s *Memory) CreateEvent(ev crew.Event) *crew.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	ev.ID = "ev_" + uuid.New().String()[:8]
	s.events[ev.ID] = &ev
	out := ev
	return &out
}

// CrewMember returns a snapshot of the member with the given ID.
func (s *Memory) CrewMember(id string) (*crew.Member, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.members[id]
	if !ok {
		return nil, false
	}
	out := *m
	return &out, true
}

// CrewMemberByBadge returns a snapshot by operator-facing badge number.
func (s *Memory) CrewMemberByBadge(badgeNumber string) (*crew.Member, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byBadge[badgeNumber]
	if !ok {
		return nil, false
	}
	out := *s.members[id]
	return &out, true
}

// Event returns a snapshot of the event with the given ID.
func (s *Memory) Event(id string) (*crew.Event, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ev, ok := s.events[id]
	if !ok {
		return nil, false
	}
	out := *ev
	return &out, true
}

// Members lists all members, ordered by badge number. The in-memory
// directory has no per-event membership; event scoping is an external
// persistence concern.
func (s *Memory) Members() []*crew.Member {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*crew.Member, 0, len(s.members))
	for i := 1; i <= s.badgeSeq; i++ {
		id, ok := s.byBadge[fmt.Sprintf("BDG-%05d", i)]
		if !ok {
			continue
		}
		m := *s.members[id]
		out = append(out, &m)
	}
	return out
}

// SetStatus updates a member's lifecycle status. Approval stamps
// ApprovedAt; any other transition clears it.
func (s *Memory) SetStatus(id string, status crew.Status, now time.Time) (*crew.Member, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("unknown status %q", status)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.members[id]
	if !ok {
		return nil, fmt.Errorf("crew member %s not found", id)
	}
	m.Status = status
	if status == crew.StatusApproved {
		t := now
		m.ApprovedAt = &t
	} else {
		m.ApprovedAt = nil
	}
	out := *m
	return &out, nil
}
