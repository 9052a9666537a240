// Package importer parses the legacy Payback text export format and merges
// its records into the store.
//
// The format is a plain-text envelope with optional header lines and
// labeled, comma-delimited sections (see parse.go). The parser is tolerant:
// unknown sections are skipped, bad rows are reported but never abort the
// import, and every failure mode is a Result variant rather than an error.
package importer

import (
	"fmt"
	"strings"

	"github.com/paybackapp/payback/internal/models"
	"github.com/paybackapp/payback/internal/store"
)

// Import parses text and applies whatever parsed cleanly to st.
//
// Apply order follows the dependency chain: friends, groups, group members,
// expenses, involved members, splits, subexpenses, participant names. Each
// step is an idempotent upsert, so re-running the same payload adds
// nothing. Friends deduplicate by case-insensitive name; groups and
// expenses deduplicate by ID.
//
// When applying a friend row would collide with a different existing
// identity in a way the importer cannot decide (both sides linked to
// different accounts), nothing at all is applied and the conflicts are
// returned for the caller to resolve.
func Import(text string, st store.Store) Result {
	if !hasEnvelope(text) {
		return IncompatibleFormat{Message: "text does not contain a recognized Payback export"}
	}

	data, errs := parseExport(text)

	if conflicts := findConflicts(data.Friends, st.Friends()); len(conflicts) > 0 {
		return NeedsResolution{Conflicts: conflicts}
	}

	var summary Summary
	applyFriends(data, st, &summary)
	applyGroups(data, st, &summary)
	applyGroupMembers(data, st, &errs)
	applyExpenses(data, st, &summary)
	applyExpenseDetails(data, st, &errs)

	if len(errs) > 0 {
		return PartialSuccess{Summary: summary, Errors: errs}
	}
	return Success{Summary: summary}
}

// findConflicts scans incoming friends against the existing roster before
// anything is applied. A collision is ambiguous when the same display name
// maps to two different identities that are each linked to a different
// account: picking a winner silently would corrupt link state.
func findConflicts(incoming []ParsedFriend, existing []models.AccountFriend) []Conflict {
	byName := make(map[string]models.AccountFriend, len(existing))
	for _, f := range existing {
		byName[strings.ToLower(f.Name)] = f
	}

	var conflicts []Conflict
	for _, in := range incoming {
		have, ok := byName[strings.ToLower(in.Name)]
		if !ok || have.MemberID == in.MemberID {
			continue
		}
		if in.HasLinkedAccount && have.HasLinkedAccount && in.LinkedAccountID != have.LinkedAccountID {
			conflicts = append(conflicts, Conflict{
				IncomingMemberID: in.MemberID,
				ExistingMemberID: have.MemberID,
				Name:             in.Name,
				Reason: fmt.Sprintf("name %q maps to linked account %s locally and %s in the import",
					in.Name, have.LinkedAccountID, in.LinkedAccountID),
			})
		}
	}
	return conflicts
}

// applyFriends inserts friends that match nothing in the roster by name.
// The status column, whatever vocabulary the export used, is normalized so
// local state never carries a legacy "peer" marker.
func applyFriends(data *ParsedExportData, st store.Store, summary *Summary) {
	seen := make(map[string]bool)
	for _, f := range st.Friends() {
		seen[strings.ToLower(f.Name)] = true
	}

	for _, in := range data.Friends {
		key := strings.ToLower(in.Name)
		if seen[key] {
			continue
		}
		st.AddImportedFriend(models.AccountFriend{
			MemberID:           in.MemberID,
			Name:               in.Name,
			Nickname:           in.Nickname,
			HasLinkedAccount:   in.HasLinkedAccount,
			LinkedAccountID:    in.LinkedAccountID,
			LinkedAccountEmail: in.LinkedAccountEmail,
			Status:             models.NormalizeFriendStatus(in.RawStatus),
		})
		seen[key] = true
		summary.FriendsAdded++
	}
}

func applyGroups(data *ParsedExportData, st store.Store, summary *Summary) {
	for _, in := range data.Groups {
		if _, exists := st.GroupByID(in.ID); exists {
			continue
		}
		st.AddExistingGroup(models.SpendingGroup{
			ID:        in.ID,
			Name:      in.Name,
			CreatedAt: in.CreatedAt,
			IsDirect:  in.IsDirect,
			IsDebug:   in.IsDebug,
		})
		summary.GroupsAdded++
	}
}

func applyGroupMembers(data *ParsedExportData, st store.Store, errs *[]string) {
	for _, in := range data.GroupMembers {
		m := models.GroupMember{ID: in.MemberID, Name: in.Name}
		if in.LinkedFriendID != "" {
			linked := in.LinkedFriendID
			m.LinkedFriendID = &linked
		}
		if !st.AttachGroupMember(in.GroupID, m) {
			*errs = append(*errs, fmt.Sprintf("group member %s references unknown group %s", in.MemberID, in.GroupID))
		}
	}
}

func applyExpenses(data *ParsedExportData, st store.Store, summary *Summary) {
	for _, in := range data.Expenses {
		if _, exists := st.ExpenseByID(in.ID); exists {
			continue
		}
		st.AddExpense(models.Expense{
			ID:          in.ID,
			GroupID:     in.GroupID,
			Description: in.Description,
			Date:        in.Date,
			Amount:      in.Amount,
			PayerID:     in.PayerID,
			IsSettled:   in.IsSettled,
		})
		summary.ExpensesAdded++
	}
}

// applyExpenseDetails attaches involved members, splits, subexpenses, and
// cached participant names. These may target expenses created by this
// import or ones already in the store; a reference to an expense nobody
// knows is reported but does not fail the import.
func applyExpenseDetails(data *ParsedExportData, st store.Store, errs *[]string) {
	for _, in := range data.InvolvedMembers {
		if !st.AttachInvolvedMember(in.ExpenseID, in.MemberID) {
			*errs = append(*errs, fmt.Sprintf("involved member %s references unknown expense %s", in.MemberID, in.ExpenseID))
		}
	}
	for _, in := range data.Splits {
		ok := st.AttachSplit(in.ExpenseID, models.ExpenseSplit{
			ID:        in.ID,
			MemberID:  in.MemberID,
			Amount:    in.Amount,
			IsSettled: in.IsSettled,
		})
		if !ok {
			*errs = append(*errs, fmt.Sprintf("split %s references unknown expense %s", in.ID, in.ExpenseID))
		}
	}
	for _, in := range data.Subexpenses {
		ok := st.AttachSubexpense(in.ExpenseID, models.Subexpense{
			ID:          in.ID,
			Description: in.Description,
			Amount:      in.Amount,
		})
		if !ok {
			*errs = append(*errs, fmt.Sprintf("subexpense %s references unknown expense %s", in.ID, in.ExpenseID))
		}
	}
	for _, in := range data.ParticipantNames {
		if !st.SetParticipantName(in.ExpenseID, in.MemberID, in.Name) {
			*errs = append(*errs, fmt.Sprintf("participant name for %s references unknown expense %s", in.MemberID, in.ExpenseID))
		}
	}
}
