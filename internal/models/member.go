package models

// Member is the basic identity unit: one person as far as the ledger is
// concerned. Two Members are the same person exactly when their IDs are
// equal; Name is display data only.
type Member struct {
	// ID is the unique identifier for the member (UUID format).
	ID string

	// Name is the display name of the member.
	Name string
}

// GroupMember is a Member placed into one SpendingGroup.
//
// A group-local member ID and the corresponding account-level friend ID may
// diverge (imported groups keep their own member IDs). LinkedFriendID is the
// optional back-reference into the account friend roster; it is used only
// for lookup, never for ownership.
type GroupMember struct {
	// ID is the group-local identifier for this member (UUID format).
	ID string

	// Name is the display name of the member within the group.
	Name string

	// LinkedFriendID points at the matching AccountFriend's MemberID when
	// the two ID spaces diverge. Nil means the member's own ID is the
	// roster key.
	LinkedFriendID *string
}

// FriendLookupKey returns the key under which this member appears in the
// account friend roster: LinkedFriendID when set, otherwise the member's
// own ID. A key that matches nothing is not an error; lookups simply miss.
func (m GroupMember) FriendLookupKey() string {
	if m.LinkedFriendID != nil {
		return *m.LinkedFriendID
	}
	return m.ID
}
