// Package store holds the authoritative in-memory collections of groups,
// expenses, and friends that the ledger, importer, and friends components
// read from and write to.
package store

import "github.com/paybackapp/payback/internal/models"

// Store is the aggregate root the core components work against.
//
// Mutators are synchronous with respect to reads: a caller that adds a
// group and immediately queries Groups observes the addition. Accessors
// return copies; callers never share backing slices with the store.
// Iteration order is insertion order, so output is deterministic.
type Store interface {
	// Groups returns every spending group in insertion order.
	Groups() []models.SpendingGroup

	// GroupByID looks up one group. The second result is false when the
	// ID is unknown.
	GroupByID(id string) (models.SpendingGroup, bool)

	// Expenses returns every expense in insertion order.
	Expenses() []models.Expense

	// ExpensesForGroup returns the expenses owned by one group.
	ExpensesForGroup(groupID string) []models.Expense

	// ExpenseByID looks up one expense. The second result is false when
	// the ID is unknown.
	ExpenseByID(id string) (models.Expense, bool)

	// Friends returns the account friend roster in insertion order.
	Friends() []models.AccountFriend

	// AddGroup creates a new group from a name and member display names,
	// generating IDs, and returns the stored group.
	AddGroup(name string, memberNames []string) models.SpendingGroup

	// AddExistingGroup inserts a fully formed group (import path), keeping
	// its IDs. Adding an ID that already exists is a no-op.
	AddExistingGroup(g models.SpendingGroup)

	// AddExpense inserts an expense. Adding an ID that already exists is
	// a no-op.
	AddExpense(e models.Expense)

	// AddImportedFriend inserts a friend into the roster, keeping its
	// member ID. Adding a member ID that already exists is a no-op.
	AddImportedFriend(f models.AccountFriend)

	// ReplaceFriends swaps the whole roster for a reconciled list.
	ReplaceFriends(friends []models.AccountFriend)

	// AttachGroupMember appends a member to an existing group. False when
	// the group is unknown; duplicate member IDs are a no-op.
	AttachGroupMember(groupID string, m models.GroupMember) bool

	// AttachSplit appends a split to an existing expense. False when the
	// expense is unknown; duplicate split IDs are a no-op.
	AttachSplit(expenseID string, split models.ExpenseSplit) bool

	// AttachInvolvedMember records a member as involved in an expense,
	// deduplicating on member ID. False when the expense is unknown.
	AttachInvolvedMember(expenseID, memberID string) bool

	// AttachSubexpense appends an itemized line to an existing expense.
	// False when the expense is unknown; duplicate IDs are a no-op.
	AttachSubexpense(expenseID string, sub models.Subexpense) bool

	// SetParticipantName caches a display name on an expense. False when
	// the expense is unknown.
	SetParticipantName(expenseID, memberID, name string) bool
}
