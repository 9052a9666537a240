package friends

import (
	"sort"
	"sync"
	"time"

	"github.com/paybackapp/payback/internal/models"
)

// LinkFailureTracker is a keyed registry of failed account-link attempts,
// one entry per member. It does no retry scheduling itself; a sync
// orchestrator drains it periodically.
//
// Every operation takes the tracker's lock for its full duration, so
// concurrent in-flight link attempts can record failures safely.
type LinkFailureTracker struct {
	mu      sync.Mutex
	entries map[string]*models.LinkFailureRecord

	now func() time.Time // stubbed in tests
}

// NewLinkFailureTracker returns an empty tracker.
func NewLinkFailureTracker() *LinkFailureTracker {
	return &LinkFailureTracker{
		entries: make(map[string]*models.LinkFailureRecord),
		now:     time.Now,
	}
}

// RecordFailure notes that linking memberID to the given account failed.
// The first failure for a member creates an entry with RetryCount 1; later
// failures for the same member increment the count and overwrite the
// account/reason context, so the latest failure context wins.
func (t *LinkFailureTracker) RecordFailure(memberID, accountID, accountEmail, reason string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	if rec, ok := t.entries[memberID]; ok {
		rec.RetryCount++
		rec.AccountID = accountID
		rec.AccountEmail = accountEmail
		rec.Reason = reason
		rec.LastFailedAt = now
		return
	}
	t.entries[memberID] = &models.LinkFailureRecord{
		MemberID:      memberID,
		AccountID:     accountID,
		AccountEmail:  accountEmail,
		Reason:        reason,
		RetryCount:    1,
		FirstFailedAt: now,
		LastFailedAt:  now,
	}
}

// PendingFailures returns a copy of every current entry, sorted by member
// ID for deterministic output.
func (t *LinkFailureTracker) PendingFailures() []models.LinkFailureRecord {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]models.LinkFailureRecord, 0, len(t.entries))
	for _, rec := range t.entries {
		out = append(out, *rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].MemberID < out[j].MemberID })
	return out
}

// MarkResolved drops the entry for memberID. Resolving a member with no
// entry is a no-op, not an error.
func (t *LinkFailureTracker) MarkResolved(memberID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.entries, memberID)
}

// ClearAll empties the registry.
func (t *LinkFailureTracker) ClearAll() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.entries = make(map[string]*models.LinkFailureRecord)
}
