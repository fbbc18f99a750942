package ws

import (
	"testing"

	"github.com/aryaduta/workhub-realtime/internal/domain"
)

func TestGroupIndex_JoinAndMembersOf(t *testing.T) {
	gi := NewGroupIndex()
	g := domain.PersonalGroup("u1")

	gi.Join("c1", g)

	members := gi.MembersOf(g)
	if len(members) != 1 || members[0] != "c1" {
		t.Errorf("Expected [c1], got %v", members)
	}
}

func TestGroupIndex_JoinIdempotent(t *testing.T) {
	gi := NewGroupIndex()
	g, err := domain.TopicGroup("job:42")
	if err != nil {
		t.Fatalf("Unexpected topic error: %v", err)
	}

	gi.Join("c1", g)
	gi.Join("c1", g)

	if got := len(gi.MembersOf(g)); got != 1 {
		t.Errorf("Expected 1 member after duplicate join, got %d", got)
	}
}

func TestGroupIndex_LeaveNotJoined(t *testing.T) {
	gi := NewGroupIndex()
	g := domain.RoleGroup(domain.RoleStudent)

	// Leaving a group never joined is a no-op, not an error
	gi.Leave("c1", g)

	if got := len(gi.MembersOf(g)); got != 0 {
		t.Errorf("Expected 0 members, got %d", got)
	}
}

func TestGroupIndex_LeaveIdempotent(t *testing.T) {
	gi := NewGroupIndex()
	g, _ := domain.TopicGroup("job:7")

	gi.Join("c1", g)
	gi.Leave("c1", g)
	gi.Leave("c1", g)

	if got := len(gi.MembersOf(g)); got != 0 {
		t.Errorf("Expected 0 members after leave, got %d", got)
	}
}

func TestGroupIndex_OverlappingGroups(t *testing.T) {
	gi := NewGroupIndex()
	personal := domain.PersonalGroup("u1")
	role := domain.RoleGroup(domain.RoleEmployer)
	topic, _ := domain.TopicGroup("job:42")

	gi.Join("c1", personal)
	gi.Join("c1", role)
	gi.Join("c1", topic)
	gi.Join("c2", role)

	if got := len(gi.GroupsFor("c1")); got != 3 {
		t.Errorf("Expected c1 in 3 groups, got %d", got)
	}
	if got := len(gi.MembersOf(role)); got != 2 {
		t.Errorf("Expected 2 members in role group, got %d", got)
	}

	topics := gi.TopicsFor("c1")
	if len(topics) != 1 || topics[0].Key != topic.Key {
		t.Errorf("Expected only the topic group in TopicsFor, got %v", topics)
	}
}

func TestGroupIndex_DropConnection(t *testing.T) {
	gi := NewGroupIndex()
	personal := domain.PersonalGroup("u1")
	role := domain.RoleGroup(domain.RoleStudent)
	topic, _ := domain.TopicGroup("job:9")

	gi.Join("c1", personal)
	gi.Join("c1", role)
	gi.Join("c1", topic)
	gi.Join("c2", role)

	gi.DropConnection("c1")

	for _, g := range []domain.Group{personal, topic} {
		if got := len(gi.MembersOf(g)); got != 0 {
			t.Errorf("Expected %s empty after drop, got %d members", g.Key, got)
		}
	}
	if got := len(gi.MembersOf(role)); got != 1 {
		t.Errorf("Expected role group to keep c2, got %d members", got)
	}
	if got := len(gi.GroupsFor("c1")); got != 0 {
		t.Errorf("Expected no memberships for dropped connection, got %d", got)
	}
}

func TestGroupIndex_DropUnknownConnection(t *testing.T) {
	gi := NewGroupIndex()

	// Must not panic
	gi.DropConnection("ghost")

	if gi.GroupCount() != 0 {
		t.Errorf("Expected 0 groups, got %d", gi.GroupCount())
	}
}

func TestGroupIndex_EmptyGroupsRemoved(t *testing.T) {
	gi := NewGroupIndex()
	g, _ := domain.TopicGroup("job:1")

	gi.Join("c1", g)
	gi.Leave("c1", g)

	if gi.GroupCount() != 0 {
		t.Errorf("Expected empty group to be removed, got %d groups", gi.GroupCount())
	}
}
