package models

import "time"

// SpendingGroup is an ordered set of members who share expenses.
type SpendingGroup struct {
	// ID is the unique identifier for the group (UUID format).
	ID string

	// Name is the display name of the group (e.g. "Roommates", "Lisbon Trip").
	Name string

	// Members is the ordered member list. Order is preserved as created or
	// imported so iteration is deterministic.
	Members []GroupMember

	// CreatedAt is when the group was created.
	CreatedAt time.Time

	// IsDirect marks a 1:1 pairing: a running balance with exactly one
	// other person rather than a multi-party group. Direct groups
	// contribute to balance math exactly like ordinary groups.
	IsDirect bool

	// IsDebug marks synthetic data. Debug groups are hidden from some
	// displays but are never excluded from balance computation; filtering
	// is a presentation concern.
	IsDebug bool
}

// HasMember reports whether the given member ID belongs to this group,
// matching either the group-local ID or the linked friend ID.
func (g SpendingGroup) HasMember(memberID string) bool {
	for _, m := range g.Members {
		if m.ID == memberID || m.FriendLookupKey() == memberID {
			return true
		}
	}
	return false
}
