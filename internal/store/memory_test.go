package store

import (
	"testing"
	"time"

	"github.com/eventops/crewbadge/internal/crew"
)

func TestCreateMemberAssignsIdentity(t *testing.T) {
	s := NewMemory()
	a := s.CreateMember(crew.Member{FirstName: "Dana", LastName: "Reyes", Role: "rigger"})
	b := s.CreateMember(crew.Member{FirstName: "Femke", LastName: "Bos", Role: "medic"})

	if a.ID == "" || b.ID == "" || a.ID == b.ID {
		t.Errorf("member IDs not unique: %q vs %q", a.ID, b.ID)
	}
	if a.BadgeNumber != "BDG-00001" || b.BadgeNumber != "BDG-00002" {
		t.Errorf("badge numbers = %s, %s", a.BadgeNumber, b.BadgeNumber)
	}
	if a.Status != crew.StatusPending {
		t.Errorf("new member status = %s, want pending_approval", a.Status)
	}
}

func TestLookupsReturnSnapshots(t *testing.T) {
	s := NewMemory()
	created := s.CreateMember(crew.Member{FirstName: "Dana", Role: "rigger"})

	got, ok := s.CrewMember(created.ID)
	if !ok {
		t.Fatal("CrewMember lookup failed")
	}
	got.FirstName = "Mutated"
	again, _ := s.CrewMember(created.ID)
	if again.FirstName != "Dana" {
		t.Error("lookup handed out shared state, want a copy")
	}

	byBadge, ok := s.CrewMemberByBadge(created.BadgeNumber)
	if !ok || byBadge.ID != created.ID {
		t.Errorf("badge lookup = %+v", byBadge)
	}
	if _, ok := s.CrewMemberByBadge("BDG-99999"); ok {
		t.Error("unknown badge number should miss")
	}
}

func TestSetStatus(t *testing.T) {
	s := NewMemory()
	m := s.CreateMember(crew.Member{FirstName: "Dana", Role: "rigger"})
	now := time.Now()

	approved, err := s.SetStatus(m.ID, crew.StatusApproved, now)
	if err != nil {
		t.Fatalf("SetStatus: %v", err)
	}
	if approved.Status != crew.StatusApproved || approved.ApprovedAt == nil {
		t.Errorf("approved member = %+v", approved)
	}

	rejected, err := s.SetStatus(m.ID, crew.StatusRejected, now)
	if err != nil {
		t.Fatalf("SetStatus: %v", err)
	}
	if rejected.ApprovedAt != nil {
		t.Error("rejection should clear ApprovedAt")
	}

	if _, err := s.SetStatus(m.ID, "vaporized", now); err == nil {
		t.Error("unknown status should be rejected")
	}
	if _, err := s.SetStatus("cm_ghost", crew.StatusApproved, now); err == nil {
		t.Error("unknown member should be rejected")
	}
}

func TestMembersOrderedByBadge(t *testing.T) {
	s := NewMemory()
	for i := 0; i < 5; i++ {
		s.CreateMember(crew.Member{FirstName: "M", Role: "rigger"})
	}
	members := s.Members()
	if len(members) != 5 {
		t.Fatalf("Members() = %d entries, want 5", len(members))
	}
	for i := 1; i < len(members); i++ {
		if members[i-1].BadgeNumber >= members[i].BadgeNumber {
			t.Errorf("members out of badge order at %d", i)
		}
	}
}
