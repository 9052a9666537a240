package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Expense is one shared cost inside a group.
//
// The sum of split amounts should equal Amount, but this is not enforced at
// construction; balance computation works split by split and never assumes
// the totals line up.
type Expense struct {
	// ID is the unique identifier for the expense (UUID format).
	ID string

	// GroupID is the owning group.
	GroupID string

	// Description is the human-readable label (e.g. "Groceries").
	Description string

	// Date is when the expense occurred.
	Date time.Time

	// Amount is the signed total. Negative totals represent refunds.
	Amount decimal.Decimal

	// PayerID is the member who paid the total up front.
	PayerID string

	// InvolvedMemberIDs lists every member participating in the expense.
	InvolvedMemberIDs []string

	// Splits is the ordered per-member breakdown of Amount.
	Splits []ExpenseSplit

	// IsSettled is an informational rollup. A true value should mean every
	// split is settled, but consumers must check each split's own flag.
	IsSettled bool

	// Subexpenses itemizes parts of the total (e.g. line items on a
	// receipt). Informational; balance math reads Splits only.
	Subexpenses []Subexpense

	// ParticipantNames caches member ID to display name for rendering.
	// It is denormalized and never authoritative.
	ParticipantNames map[string]string
}

// Subexpense is one itemized part of an expense's total.
type Subexpense struct {
	// ID is the unique identifier for the subexpense (UUID format).
	ID string

	// Description is the line-item label.
	Description string

	// Amount is the line-item total.
	Amount decimal.Decimal
}

// ExpenseSplit is one member's share of an expense. A split belongs to
// exactly one expense.
type ExpenseSplit struct {
	// ID is the unique identifier for the split (UUID format).
	ID string

	// MemberID is the member this share belongs to.
	MemberID string

	// Amount is this member's share. It may be negative for a refund or
	// reversal.
	Amount decimal.Decimal

	// IsSettled marks the share as paid back. Settled splits contribute
	// nothing to outstanding balances.
	IsSettled bool
}

// SplitFor returns the split belonging to memberID, or nil when the member
// has no share in this expense.
func (e *Expense) SplitFor(memberID string) *ExpenseSplit {
	for i := range e.Splits {
		if e.Splits[i].MemberID == memberID {
			return &e.Splits[i]
		}
	}
	return nil
}
