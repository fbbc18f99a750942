package domain

import (
	"errors"
	"strings"
)

// GroupKind distinguishes how a broadcast group came to exist and whether
// clients may mutate their membership in it
type GroupKind int

const (
	// GroupPersonal is the single-user group auto-joined at authentication
	GroupPersonal GroupKind = iota
	// GroupRole is the per-role group auto-joined at authentication
	GroupRole
	// GroupAdmin is the elevated-privilege group, auto-joined for admins
	GroupAdmin
	// GroupTopic is an ad-hoc group joined and left at client request
	GroupTopic
)

// Group is a named broadcast target. Keys are namespaced by kind so a
// client-supplied topic id can never collide with the reserved personal,
// role, or admin keyspaces.
type Group struct {
	Kind GroupKind
	Key  string
}

var (
	ErrEmptyTopic    = errors.New("topic id is empty")
	ErrReservedTopic = errors.New("topic id uses a reserved prefix")
	ErrTopicTooLong  = errors.New("topic id too long")
)

// MaxTopicIDLength caps client-supplied topic identifiers
const MaxTopicIDLength = 128

// reservedTopicPrefixes are namespaces a client may not claim via join_topic
var reservedTopicPrefixes = []string{"user:", "role:", "admin", "topic:"}

// PersonalGroup returns the per-user group for userID
func PersonalGroup(userID string) Group {
	return Group{Kind: GroupPersonal, Key: "user:" + userID}
}

// RoleGroup returns the group holding every connection of the given role
func RoleGroup(role Role) Group {
	return Group{Kind: GroupRole, Key: "role:" + string(role)}
}

// AdminGroup returns the elevated-privilege group
func AdminGroup() Group {
	return Group{Kind: GroupAdmin, Key: "admin"}
}

// TopicGroup builds a topic group from a client-supplied identifier,
// rejecting empty, oversized, and reserved-prefix ids
func TopicGroup(topicID string) (Group, error) {
	topicID = strings.TrimSpace(topicID)
	if topicID == "" {
		return Group{}, ErrEmptyTopic
	}
	if len(topicID) > MaxTopicIDLength {
		return Group{}, ErrTopicTooLong
	}
	for _, prefix := range reservedTopicPrefixes {
		if strings.HasPrefix(topicID, prefix) {
			return Group{}, ErrReservedTopic
		}
	}
	return Group{Kind: GroupTopic, Key: "topic:" + topicID}, nil
}

// JobTopic returns the conventional topic group for one job posting.
// Server-built, so it bypasses the reserved-prefix check clients go through.
func JobTopic(jobID string) Group {
	return Group{Kind: GroupTopic, Key: "topic:job:" + jobID}
}

// TopicID returns the client-facing topic identifier for a topic group
func (g Group) TopicID() string {
	if g.Kind != GroupTopic {
		return ""
	}
	return strings.TrimPrefix(g.Key, "topic:")
}
