// Package friends reconciles the local friend roster against the backend's
// view and tracks failed account-link attempts for later retry.
package friends

import (
	"sort"
	"sync"
	"time"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/paybackapp/payback/internal/models"
)

// DefaultCooldown is how long Reconcile output is considered fresh before
// ShouldReconcile reports true again.
const DefaultCooldown = 5 * time.Minute

// Reconciler merges local and remote friend lists into one authoritative
// view and throttles how often that merge should run.
//
// All methods serialize on a single mutex: the cool-down state is the only
// cross-call mutable state and concurrent callers observe one shared
// cool-down per instance.
type Reconciler struct {
	mu       sync.Mutex
	cooldown time.Duration
	lastRun  time.Time

	now func() time.Time // stubbed in tests
}

// NewReconciler returns a Reconciler with the given cool-down window.
// A non-positive cooldown falls back to DefaultCooldown.
func NewReconciler(cooldown time.Duration) *Reconciler {
	if cooldown <= 0 {
		cooldown = DefaultCooldown
	}
	return &Reconciler{cooldown: cooldown, now: time.Now}
}

// Reconcile merges two friend lists keyed by member ID.
//
// A key present on only one side passes through unchanged. When both sides
// hold the same key the remote record wins entirely, nickname included: the
// backend is the source of truth for cross-device link state.
//
// Output is sorted ascending by display name under the Unicode collation
// of the und (locale-neutral) locale, so ordering is stable regardless of
// the host locale. Completing a merge arms the cool-down.
func (r *Reconciler) Reconcile(local, remote []models.AccountFriend) []models.AccountFriend {
	r.mu.Lock()
	defer r.mu.Unlock()

	merged := make(map[string]models.AccountFriend, len(local)+len(remote))
	order := make([]string, 0, len(local)+len(remote))

	for _, f := range local {
		if _, seen := merged[f.MemberID]; !seen {
			order = append(order, f.MemberID)
		}
		merged[f.MemberID] = f
	}
	for _, f := range remote {
		if _, seen := merged[f.MemberID]; !seen {
			order = append(order, f.MemberID)
		}
		merged[f.MemberID] = f
	}

	out := make([]models.AccountFriend, 0, len(merged))
	for _, id := range order {
		out = append(out, merged[id])
	}

	c := collate.New(language.Und)
	sort.SliceStable(out, func(i, j int) bool {
		return c.CompareString(out[i].Name, out[j].Name) < 0
	})

	r.lastRun = r.now()
	return out
}

// ShouldReconcile reports whether enough time has passed since the last
// merge for another one to be worthwhile. True initially, false for the
// cool-down window after a Reconcile, true again after Invalidate or once
// the window elapses.
func (r *Reconciler) ShouldReconcile() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.lastRun.IsZero() {
		return true
	}
	return r.now().Sub(r.lastRun) >= r.cooldown
}

// Invalidate clears the cool-down so the next ShouldReconcile reports true.
func (r *Reconciler) Invalidate() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lastRun = time.Time{}
}

// ValidateLinkCompletion reports whether an asynchronous account-link
// operation actually took effect: the member must exist in the roster, be
// flagged as linked, and point at exactly the expected account ID. Any
// mismatch returns false; nothing here can fail.
func ValidateLinkCompletion(memberID, accountID string, roster []models.AccountFriend) bool {
	for _, f := range roster {
		if f.MemberID != memberID {
			continue
		}
		return f.HasLinkedAccount && f.LinkedAccountID == accountID
	}
	return false
}
