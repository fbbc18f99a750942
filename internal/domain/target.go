package domain

// TargetKind is the addressing mode of a dispatched event
type TargetKind int

const (
	// TargetUser addresses every open connection of one user
	TargetUser TargetKind = iota
	// TargetGroup addresses the current members of one group
	TargetGroup
	// TargetBroadcast addresses every open connection
	TargetBroadcast
)

// Target selects the connections a dispatched event is delivered to
type Target struct {
	Kind   TargetKind
	UserID string
	Group  Group
}

// UserTarget addresses a single user across all their connections
func UserTarget(userID string) Target {
	return Target{Kind: TargetUser, UserID: userID}
}

// GroupTarget addresses one broadcast group
func GroupTarget(g Group) Target {
	return Target{Kind: TargetGroup, Group: g}
}

// BroadcastTarget addresses every currently open connection
func BroadcastTarget() Target {
	return Target{Kind: TargetBroadcast}
}

// Label returns a short description used for logging and metrics
func (t Target) Label() string {
	switch t.Kind {
	case TargetUser:
		return "user"
	case TargetGroup:
		return "group"
	default:
		return "broadcast"
	}
}
