package models

import "time"

// FriendStatus describes where a friend stands in the invite/link flow.
type FriendStatus string

const (
	// StatusFriend is a plain, fully established friend.
	StatusFriend FriendStatus = "friend"

	// StatusInvited marks a friend we invited who has not accepted yet.
	StatusInvited FriendStatus = "invited"

	// StatusPeer is a legacy value from older exports meaning "pending
	// peer invitation". It is recognized on import so old payloads still
	// parse, but it is never written to local state; NormalizeFriendStatus
	// collapses it to StatusFriend.
	StatusPeer FriendStatus = "peer"
)

// NormalizeFriendStatus maps any status vocabulary found in the wild onto
// the current one. Unrecognized and legacy values become StatusFriend, so a
// locally stored friend can only ever be "friend" or "invited".
func NormalizeFriendStatus(raw string) FriendStatus {
	switch FriendStatus(raw) {
	case StatusInvited:
		return StatusInvited
	default:
		return StatusFriend
	}
}

// AccountFriend is one entry in the account-level friend roster.
//
// MemberID is the identity: it is what GroupMember.FriendLookupKey resolves
// against. LinkedAccountID and LinkedAccountEmail are meaningful only when
// HasLinkedAccount is true.
type AccountFriend struct {
	// MemberID is the unique identifier for the friend (UUID format).
	MemberID string

	// Name is the display name of the friend.
	Name string

	// Nickname is an optional user-chosen alias, empty when unset.
	Nickname string

	// HasLinkedAccount reports whether this friend is linked to a real
	// account on the backend.
	HasLinkedAccount bool

	// LinkedAccountID is the backend account ID, set only when linked.
	LinkedAccountID string

	// LinkedAccountEmail is the backend account email, set only when linked.
	LinkedAccountEmail string

	// Status is the friend's invite/link status. Local state never holds
	// StatusPeer.
	Status FriendStatus
}

// LinkFailureRecord tracks one member whose account-link operation failed.
// There is at most one record per member; repeated failures update the
// record in place rather than appending.
type LinkFailureRecord struct {
	// MemberID identifies the member whose link attempt failed.
	MemberID string

	// AccountID and AccountEmail are the target account of the most
	// recent attempt. Latest failure context wins.
	AccountID    string
	AccountEmail string

	// Reason is a free-text description of the most recent failure.
	Reason string

	// RetryCount starts at 1 on the first failure and increments on each
	// repeated failure for the same member.
	RetryCount int

	// FirstFailedAt is when the first failure was recorded.
	FirstFailedAt time.Time

	// LastFailedAt is refreshed on every repeated failure.
	LastFailedAt time.Time
}
