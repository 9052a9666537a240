package importer

import (
	"fmt"
	"strings"
)

// Result is the outcome of one import. It is a closed set of variants;
// callers switch on the concrete type and are forced to handle every case.
// Malformed input never surfaces as an error value, only as a Result.
type Result interface {
	isResult()
}

// Success: every row parsed and applied.
type Success struct {
	Summary Summary
}

// PartialSuccess: the envelope was valid and the clean rows were applied,
// but some rows failed to parse. Errors describes each skipped row.
type PartialSuccess struct {
	Summary Summary
	Errors  []string
}

// IncompatibleFormat: the text is not a recognized export at all. Nothing
// was applied.
type IncompatibleFormat struct {
	Message string
}

// NeedsResolution: applying would collide with existing state in a way the
// importer cannot decide alone. Nothing was applied; the caller must
// resolve the conflicts and re-invoke.
type NeedsResolution struct {
	Conflicts []Conflict
}

func (Success) isResult()            {}
func (PartialSuccess) isResult()     {}
func (IncompatibleFormat) isResult() {}
func (NeedsResolution) isResult()    {}

// Conflict describes one ambiguous identity collision between an incoming
// friend row and an existing roster entry.
type Conflict struct {
	IncomingMemberID string
	ExistingMemberID string
	Name             string
	Reason           string
}

// Summary counts what one import added to the store.
type Summary struct {
	FriendsAdded  int
	GroupsAdded   int
	ExpensesAdded int
}

// TotalItems is the sum over all categories.
func (s Summary) TotalItems() int {
	return s.FriendsAdded + s.GroupsAdded + s.ExpensesAdded
}

// Description renders a human sentence enumerating the non-zero categories
// with singular/plural noun forms, or exactly "No new data imported" when
// nothing was added.
func (s Summary) Description() string {
	var parts []string
	if s.FriendsAdded > 0 {
		parts = append(parts, countNoun(s.FriendsAdded, "friend"))
	}
	if s.GroupsAdded > 0 {
		parts = append(parts, countNoun(s.GroupsAdded, "group"))
	}
	if s.ExpensesAdded > 0 {
		parts = append(parts, countNoun(s.ExpensesAdded, "expense"))
	}
	if len(parts) == 0 {
		return "No new data imported"
	}
	return "Imported " + joinNatural(parts)
}

func countNoun(n int, noun string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", noun)
	}
	return fmt.Sprintf("%d %ss", n, noun)
}

// joinNatural joins parts as prose: "a", "a and b", "a, b and c".
func joinNatural(parts []string) string {
	switch len(parts) {
	case 1:
		return parts[0]
	case 2:
		return parts[0] + " and " + parts[1]
	default:
		return strings.Join(parts[:len(parts)-1], ", ") + " and " + parts[len(parts)-1]
	}
}
