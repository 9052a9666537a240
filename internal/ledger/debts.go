package ledger

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/paybackapp/payback/internal/models"
)

// MemberBalance is one group member's aggregate position.
type MemberBalance struct {
	MemberID   string
	Name       string
	NetBalance decimal.Decimal // positive = owed money, negative = owes money
	TotalPaid  decimal.Decimal // total fronted across all expenses
	TotalOwed  decimal.Decimal // total of this member's unsettled shares
}

// DebtEdge is a suggested repayment from one member to another.
type DebtEdge struct {
	FromID string
	ToID   string
	Amount decimal.Decimal
}

// GroupBalances aggregates every member's position within one group.
// The result is sorted by member ID for deterministic output.
//
// A payer is credited with the unsettled shares of the other participants;
// each non-payer is debited their own unsettled share. Settled splits drop
// out entirely, so a fully settled group nets to zero for everyone.
func GroupBalances(group *models.SpendingGroup, expenses []models.Expense) []MemberBalance {
	byID := make(map[string]*MemberBalance)
	ensure := func(memberID string) *MemberBalance {
		if b, ok := byID[memberID]; ok {
			return b
		}
		b := &MemberBalance{
			MemberID:   memberID,
			NetBalance: decimal.Zero,
			TotalPaid:  decimal.Zero,
			TotalOwed:  decimal.Zero,
		}
		byID[memberID] = b
		return b
	}

	for i := range expenses {
		e := &expenses[i]
		if e.GroupID != group.ID {
			continue
		}
		payer := ensure(e.PayerID)
		for _, s := range e.Splits {
			if s.IsSettled {
				continue
			}
			if s.MemberID == e.PayerID {
				continue
			}
			payer.TotalPaid = payer.TotalPaid.Add(s.Amount)
			debtor := ensure(s.MemberID)
			debtor.TotalOwed = debtor.TotalOwed.Add(s.Amount)
		}
	}

	out := make([]MemberBalance, 0, len(byID))
	for _, b := range byID {
		b.NetBalance = b.TotalPaid.Sub(b.TotalOwed)
		for _, m := range group.Members {
			if m.ID == b.MemberID || m.FriendLookupKey() == b.MemberID {
				b.Name = m.Name
				break
			}
		}
		out = append(out, *b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].MemberID < out[j].MemberID })
	return out
}

// SimplifyDebts turns a set of member balances into a small list of
// repayments that would settle the group. Greedy matching: walk debtors and
// creditors in ID order, settling the smaller of the two outstanding
// amounts each step. Balances must come from GroupBalances so they sum to
// zero; leftovers below a cent are dropped.
func SimplifyDebts(balances []MemberBalance) []DebtEdge {
	cent := decimal.New(1, -2)

	var debtors, creditors []MemberBalance
	for _, b := range balances {
		switch {
		case b.NetBalance.IsNegative():
			debtors = append(debtors, b)
		case b.NetBalance.IsPositive():
			creditors = append(creditors, b)
		}
	}

	remaining := make(map[string]decimal.Decimal, len(balances))
	for _, d := range debtors {
		remaining[d.MemberID] = d.NetBalance.Neg()
	}
	for _, c := range creditors {
		remaining[c.MemberID] = c.NetBalance
	}

	var edges []DebtEdge
	i, j := 0, 0
	for i < len(debtors) && j < len(creditors) {
		debtor, creditor := debtors[i].MemberID, creditors[j].MemberID

		amount := remaining[debtor]
		if remaining[creditor].LessThan(amount) {
			amount = remaining[creditor]
		}
		if amount.GreaterThanOrEqual(cent) {
			edges = append(edges, DebtEdge{FromID: debtor, ToID: creditor, Amount: amount})
		}

		remaining[debtor] = remaining[debtor].Sub(amount)
		remaining[creditor] = remaining[creditor].Sub(amount)

		if remaining[debtor].LessThan(cent) {
			i++
		}
		if remaining[creditor].LessThan(cent) {
			j++
		}
	}
	return edges
}
