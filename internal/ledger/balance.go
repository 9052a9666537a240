// Package ledger computes outstanding balances over groups and expenses.
//
// All functions here are pure: they read the models they are handed, mutate
// nothing, and are safe to call concurrently. Amounts are decimal so results
// are exact at the cent level. There are no error conditions; inconsistent
// input (dangling member IDs, settled-flag mismatches) still produces a
// defined numeric answer.
package ledger

import (
	"github.com/shopspring/decimal"

	"github.com/paybackapp/payback/internal/models"
)

// NetBalance returns the current user's outstanding balance within one
// group. Positive means the user is net owed money, negative means the user
// net owes.
//
// Per expense:
//   - user is the payer: every other member's unsettled split is money owed
//     to the user and is added.
//   - user is not the payer but holds an unsettled split: that split's
//     amount is money the user owes and is subtracted.
//
// Settlement is decided per split. The expense-level IsSettled flag is an
// informational rollup and is deliberately ignored here: an unsettled split
// inside a "settled" expense still counts.
func NetBalance(currentUserID string, group *models.SpendingGroup, expenses []models.Expense) decimal.Decimal {
	total := decimal.Zero
	for i := range expenses {
		e := &expenses[i]
		if e.GroupID != group.ID {
			continue
		}
		if e.PayerID == currentUserID {
			for _, s := range e.Splits {
				if s.MemberID == currentUserID || s.IsSettled {
					continue
				}
				total = total.Add(s.Amount)
			}
			continue
		}
		if s := e.SplitFor(currentUserID); s != nil && !s.IsSettled {
			total = total.Sub(s.Amount)
		}
	}
	return total
}

// OverallNetBalance sums NetBalance over every group the current user
// belongs to. Direct (1:1) groups and debug groups contribute exactly like
// ordinary groups; filtering debug data is a display concern.
//
// expensesByGroup supplies each group's expenses, so the caller decides
// where they come from (usually the store facade).
func OverallNetBalance(currentUserID string, groups []models.SpendingGroup, expensesByGroup func(groupID string) []models.Expense) decimal.Decimal {
	total := decimal.Zero
	for i := range groups {
		g := &groups[i]
		if !g.HasMember(currentUserID) {
			continue
		}
		total = total.Add(NetBalance(currentUserID, g, expensesByGroup(g.ID)))
	}
	return total
}
