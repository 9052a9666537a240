package ledger

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/paybackapp/payback/internal/models"
)

func TestGroupBalances(t *testing.T) {
	group := testGroup("g1", "a", "b", "c")
	expenses := []models.Expense{
		{
			ID: "e1", GroupID: "g1", Amount: dec("90.00"), PayerID: "a",
			Splits: []models.ExpenseSplit{
				{MemberID: "a", Amount: dec("30.00")},
				{MemberID: "b", Amount: dec("30.00")},
				{MemberID: "c", Amount: dec("30.00")},
			},
		},
		{
			ID: "e2", GroupID: "g1", Amount: dec("30.00"), PayerID: "b",
			Splits: []models.ExpenseSplit{
				{MemberID: "a", Amount: dec("15.00")},
				{MemberID: "b", Amount: dec("15.00")},
			},
		},
	}

	balances := GroupBalances(group, expenses)
	if len(balances) != 3 {
		t.Fatalf("expected 3 balances, got %d", len(balances))
	}

	want := map[string]string{
		"a": "45.00",  // fronted 60, owes 15
		"b": "-15.00", // fronted 15, owes 30
		"c": "-30.00",
	}
	sum := decimal.Zero
	for _, b := range balances {
		if !b.NetBalance.Equal(dec(want[b.MemberID])) {
			t.Errorf("member %s net = %s, want %s", b.MemberID, b.NetBalance, want[b.MemberID])
		}
		sum = sum.Add(b.NetBalance)
	}
	if !sum.IsZero() {
		t.Errorf("balances sum to %s, want 0", sum)
	}
}

func TestGroupBalancesSettledGroupNetsToZero(t *testing.T) {
	group := testGroup("g1", "a", "b")
	expenses := []models.Expense{
		{
			ID: "e1", GroupID: "g1", Amount: dec("50.00"), PayerID: "a",
			Splits: []models.ExpenseSplit{
				{MemberID: "a", Amount: dec("25.00"), IsSettled: true},
				{MemberID: "b", Amount: dec("25.00"), IsSettled: true},
			},
		},
	}

	for _, b := range GroupBalances(group, expenses) {
		if !b.NetBalance.IsZero() {
			t.Errorf("member %s net = %s, want 0", b.MemberID, b.NetBalance)
		}
	}
}

func TestSimplifyDebts(t *testing.T) {
	balances := []MemberBalance{
		{MemberID: "a", NetBalance: dec("45.00")},
		{MemberID: "b", NetBalance: dec("-15.00")},
		{MemberID: "c", NetBalance: dec("-30.00")},
	}

	edges := SimplifyDebts(balances)
	if len(edges) != 2 {
		t.Fatalf("expected 2 edges, got %d", len(edges))
	}

	total := decimal.Zero
	for _, e := range edges {
		if e.ToID != "a" {
			t.Errorf("edge %s -> %s: everything is owed to a", e.FromID, e.ToID)
		}
		total = total.Add(e.Amount)
	}
	if !total.Equal(dec("45.00")) {
		t.Errorf("edges total %s, want 45.00", total)
	}
}

func TestSimplifyDebtsDropsSubCentNoise(t *testing.T) {
	balances := []MemberBalance{
		{MemberID: "a", NetBalance: dec("0.005")},
		{MemberID: "b", NetBalance: dec("-0.005")},
	}

	if edges := SimplifyDebts(balances); len(edges) != 0 {
		t.Errorf("expected no edges for sub-cent balances, got %d", len(edges))
	}
}
