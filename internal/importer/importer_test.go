package importer

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paybackapp/payback/internal/ledger"
	"github.com/paybackapp/payback/internal/models"
	"github.com/paybackapp/payback/internal/store"
)

func decimalFromString(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	require.NoError(t, err)
	return d
}

const friendOnlyExport = `===PAYBACK_EXPORT===
EXPORTED_AT: 2026-03-01T10:00:00Z
ACCOUNT_EMAIL: me@example.com
CURRENT_USER_ID: u1
CURRENT_USER_NAME: Me

[FRIENDS]
f1,Alice,Al,true,acct-1,alice@example.com

===END_PAYBACK_EXPORT===
`

func TestImportRejectsUnrecognizedText(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{"empty input", ""},
		{"plain prose", "hello, this is not an export"},
		{"start marker only", "===PAYBACK_EXPORT===\n[FRIENDS]\nf1,Alice,,false,,"},
		{"end marker only", "===END_PAYBACK_EXPORT==="},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Import(tt.text, store.NewMemoryStore())
			incompatible, ok := result.(IncompatibleFormat)
			require.True(t, ok, "want IncompatibleFormat, got %T", result)
			assert.NotEmpty(t, incompatible.Message)
		})
	}
}

func TestImportFriendIsIdempotentOnName(t *testing.T) {
	st := store.NewMemoryStore()

	result := Import(friendOnlyExport, st)
	success, ok := result.(Success)
	require.True(t, ok, "want Success, got %T", result)
	assert.Equal(t, 1, success.Summary.FriendsAdded)

	friends := st.Friends()
	require.Len(t, friends, 1)
	assert.Equal(t, "Alice", friends[0].Name)
	assert.Equal(t, "f1", friends[0].MemberID)
	assert.True(t, friends[0].HasLinkedAccount)

	// Same payload against the now-populated store adds nothing.
	again, ok := Import(friendOnlyExport, st).(Success)
	require.True(t, ok)
	assert.Equal(t, 0, again.Summary.FriendsAdded)
	assert.Len(t, st.Friends(), 1)
}

func TestImportMatchesFriendNamesCaseInsensitively(t *testing.T) {
	st := store.NewMemoryStore()
	st.AddImportedFriend(models.AccountFriend{MemberID: "old", Name: "ALICE", Status: models.StatusFriend})

	result, ok := Import(friendOnlyExport, st).(Success)
	require.True(t, ok)
	assert.Equal(t, 0, result.Summary.FriendsAdded)
	assert.Len(t, st.Friends(), 1)
}

func TestImportNeverStoresPeerStatus(t *testing.T) {
	legacyExport := `===PAYBACK_EXPORT===
[FRIENDS]
f1,Alice,,false,,,peer
f2,Bob,,false,,,pending_peer
f3,Cara,,false,,,invited
f4,Dan,,false,,,friend
===END_PAYBACK_EXPORT===
`

	st := store.NewMemoryStore()
	result, ok := Import(legacyExport, st).(Success)
	require.True(t, ok)
	assert.Equal(t, 4, result.Summary.FriendsAdded)

	for _, f := range st.Friends() {
		assert.NotEqual(t, models.StatusPeer, f.Status, "friend %s", f.Name)
	}

	byName := make(map[string]models.AccountFriend)
	for _, f := range st.Friends() {
		byName[f.Name] = f
	}
	assert.Equal(t, models.StatusFriend, byName["Alice"].Status, "legacy peer collapses to friend")
	assert.Equal(t, models.StatusFriend, byName["Bob"].Status, "unknown vocabulary collapses to friend")
	assert.Equal(t, models.StatusInvited, byName["Cara"].Status)
	assert.Equal(t, models.StatusFriend, byName["Dan"].Status)
}

func TestImportPartialSuccessKeepsCleanRows(t *testing.T) {
	text := `===PAYBACK_EXPORT===
[FRIENDS]
f1,Alice,,false,,
,Broken,,false,,
f2,Bob,,not-a-bool,,
f3,Cara,,false,,
===END_PAYBACK_EXPORT===
`

	st := store.NewMemoryStore()
	result := Import(text, st)
	partial, ok := result.(PartialSuccess)
	require.True(t, ok, "want PartialSuccess, got %T", result)

	assert.Equal(t, 2, partial.Summary.FriendsAdded)
	require.Len(t, partial.Errors, 2)
	assert.Contains(t, partial.Errors[0], "empty member id")
	assert.Contains(t, partial.Errors[1], "hasLinkedAccount")
}

func TestImportNeedsResolutionAppliesNothing(t *testing.T) {
	st := store.NewMemoryStore()
	st.AddImportedFriend(models.AccountFriend{
		MemberID:         "local-1",
		Name:             "Alice",
		HasLinkedAccount: true,
		LinkedAccountID:  "acct-local",
		Status:           models.StatusFriend,
	})

	text := `===PAYBACK_EXPORT===
[FRIENDS]
imported-1,Alice,,true,acct-other,alice@example.com
f2,Bob,,false,,
[GROUPS]
g1,Trip,2026-01-01T00:00:00Z,false,false
===END_PAYBACK_EXPORT===
`

	result := Import(text, st)
	needs, ok := result.(NeedsResolution)
	require.True(t, ok, "want NeedsResolution, got %T", result)
	require.Len(t, needs.Conflicts, 1)
	assert.Equal(t, "imported-1", needs.Conflicts[0].IncomingMemberID)
	assert.Equal(t, "local-1", needs.Conflicts[0].ExistingMemberID)

	// Nothing was applied, not even the non-conflicting records.
	assert.Len(t, st.Friends(), 1)
	assert.Empty(t, st.Groups())
}

func TestImportSameLinkedAccountIsNotAConflict(t *testing.T) {
	st := store.NewMemoryStore()
	st.AddImportedFriend(models.AccountFriend{
		MemberID:         "local-1",
		Name:             "Alice",
		HasLinkedAccount: true,
		LinkedAccountID:  "acct-1",
		Status:           models.StatusFriend,
	})

	// Same name, different member ID, but the same linked account: that is
	// the same person after an import ID drift, so it deduplicates.
	result, ok := Import(friendOnlyExport, st).(Success)
	require.True(t, ok)
	assert.Equal(t, 0, result.Summary.FriendsAdded)
}

const fullExport = `Some mail preamble the app ignores.

===PAYBACK_EXPORT===
EXPORTED_AT: 2026-02-15T08:30:00Z
CURRENT_USER_ID: u1

[FRIENDS]
f-bob,Bob,,false,,

[GROUPS]
g1,Ski Trip,2026-01-10T00:00:00Z,false,false
g2,Bob,2026-01-11T00:00:00Z,true,false

[GROUP_MEMBERS]
g1,u1,Me,
g1,m-bob,Bob,f-bob
g2,u1,Me,
g2,m-bob2,Bob,f-bob

[EXPENSES]
e1,g1,"Lift tickets, two days",2026-01-12T18:00:00Z,100.00,u1,false
e2,g2,Dinner,2026-01-13T20:00:00Z,60.00,m-bob2,false

[EXPENSE_INVOLVED]
e1,u1
e1,m-bob
e2,u1
e2,m-bob2

[EXPENSE_SPLITS]
s1,e1,u1,50.00,false
s2,e1,m-bob,50.00,false
s3,e2,u1,30.00,false
s4,e2,m-bob2,30.00,false

[EXPENSE_SUBEXPENSES]
x1,e1,Day one,55.00
x2,e1,Day two,45.00

[PARTICIPANT_NAMES]
e1,m-bob,Bob

[FUTURE_SECTION]
whatever,this,is,ignored

===END_PAYBACK_EXPORT===

Trailing signature, also ignored.
`

func TestImportFullExport(t *testing.T) {
	st := store.NewMemoryStore()
	result := Import(fullExport, st)
	success, ok := result.(Success)
	require.True(t, ok, "want Success, got %T: %+v", result, result)

	assert.Equal(t, 1, success.Summary.FriendsAdded)
	assert.Equal(t, 2, success.Summary.GroupsAdded)
	assert.Equal(t, 2, success.Summary.ExpensesAdded)
	assert.Equal(t, 5, success.Summary.TotalItems())

	group, ok := st.GroupByID("g1")
	require.True(t, ok)
	assert.Equal(t, "Ski Trip", group.Name)
	require.Len(t, group.Members, 2)
	assert.Equal(t, "f-bob", group.Members[1].FriendLookupKey(), "linked friend id wins the lookup")

	direct, ok := st.GroupByID("g2")
	require.True(t, ok)
	assert.True(t, direct.IsDirect)

	expense, ok := st.ExpenseByID("e1")
	require.True(t, ok)
	assert.Equal(t, "Lift tickets, two days", expense.Description, "quoted comma survives")
	assert.Len(t, expense.Splits, 2)
	assert.Len(t, expense.Subexpenses, 2)
	assert.Equal(t, []string{"u1", "m-bob"}, expense.InvolvedMemberIDs)
	assert.Equal(t, "Bob", expense.ParticipantNames["m-bob"])

	// The imported data feeds straight into balance math: +50 from the ski
	// group, -30 from the direct group.
	groups := st.Groups()
	overall := ledger.OverallNetBalance("u1", groups, st.ExpensesForGroup)
	assert.True(t, overall.Equal(decimalFromString(t, "20.00")), "overall = %s", overall)

	// Importing the whole thing again adds nothing.
	again, ok := Import(fullExport, st).(Success)
	require.True(t, ok)
	assert.Equal(t, 0, again.Summary.TotalItems())
	assert.Len(t, st.Expenses(), 2)
	e1, _ := st.ExpenseByID("e1")
	assert.Len(t, e1.Splits, 2, "splits deduplicate on re-import")
}

func TestImportReportsDanglingReferences(t *testing.T) {
	text := `===PAYBACK_EXPORT===
[EXPENSE_SPLITS]
s1,nope,u1,10.00,false
===END_PAYBACK_EXPORT===
`

	result := Import(text, store.NewMemoryStore())
	partial, ok := result.(PartialSuccess)
	require.True(t, ok, "want PartialSuccess, got %T", result)
	assert.Equal(t, 0, partial.Summary.TotalItems())
	require.Len(t, partial.Errors, 1)
	assert.Contains(t, partial.Errors[0], "unknown expense")
}

func TestParseExportHeaders(t *testing.T) {
	data, errs := parseExport(friendOnlyExport)
	require.Empty(t, errs)

	require.NotNil(t, data.ExportedAt)
	assert.Equal(t, "2026-03-01T10:00:00Z", data.ExportedAt.Format("2006-01-02T15:04:05Z07:00"))
	assert.Equal(t, "me@example.com", data.AccountEmail)
	assert.Equal(t, "u1", data.CurrentUserID)
	assert.Equal(t, "Me", data.CurrentUserName)
	require.Len(t, data.Friends, 1)
}

func TestSummaryDescription(t *testing.T) {
	tests := []struct {
		name    string
		summary Summary
		want    string
	}{
		{"nothing", Summary{}, "No new data imported"},
		{"one friend", Summary{FriendsAdded: 1}, "Imported 1 friend"},
		{"plural groups", Summary{GroupsAdded: 3}, "Imported 3 groups"},
		{"two categories", Summary{FriendsAdded: 2, ExpensesAdded: 1}, "Imported 2 friends and 1 expense"},
		{"all three", Summary{FriendsAdded: 1, GroupsAdded: 2, ExpensesAdded: 5}, "Imported 1 friend, 2 groups and 5 expenses"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.summary.Description())
		})
	}

	t.Run("single friend omits other categories", func(t *testing.T) {
		desc := Summary{FriendsAdded: 1}.Description()
		assert.Contains(t, desc, "1 friend")
		assert.NotContains(t, desc, "group")
		assert.NotContains(t, desc, "expense")
	})
}
