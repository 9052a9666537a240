package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/paybackapp/payback/internal/friends"
	"github.com/paybackapp/payback/internal/metrics"
	"github.com/paybackapp/payback/internal/models"
	"github.com/paybackapp/payback/internal/store"
)

// FriendService owns the friend roster: one reconciler (one shared
// cool-down) and one link-failure tracker per service instance.
type FriendService struct {
	store      *store.MemoryStore
	persister  Persister
	reconciler *friends.Reconciler
	tracker    *friends.LinkFailureTracker
	metrics    *metrics.Metrics
}

// NewFriendService creates a FriendService. persister may be nil.
func NewFriendService(st *store.MemoryStore, persister Persister, cooldown time.Duration, m *metrics.Metrics) *FriendService {
	return &FriendService{
		store:      st,
		persister:  persister,
		reconciler: friends.NewReconciler(cooldown),
		tracker:    friends.NewLinkFailureTracker(),
		metrics:    m,
	}
}

// SyncFriends reconciles the local roster against the backend's view. The
// cool-down gate decides whether the merge actually runs; the second
// return reports that decision. When it runs, the merged roster replaces
// the store's and is persisted.
func (s *FriendService) SyncFriends(ctx context.Context, remote []models.AccountFriend) ([]models.AccountFriend, bool) {
	if !s.reconciler.ShouldReconcile() {
		slog.Debug("Friend sync skipped, cool-down active")
		s.metrics.ReconcilesTotal.WithLabelValues("false").Inc()
		return s.store.Friends(), false
	}

	merged := s.reconciler.Reconcile(s.store.Friends(), remote)
	s.store.ReplaceFriends(merged)
	s.metrics.ReconcilesTotal.WithLabelValues("true").Inc()
	slog.Info("Friend roster reconciled", "local_and_remote", len(merged))

	if s.persister != nil {
		if err := s.persister.Save(ctx, s.store.Snapshot()); err != nil {
			slog.Error("Failed to persist store after friend sync", "error", err)
		}
	}
	return merged, true
}

// InvalidateRoster clears the reconciliation cool-down, forcing the next
// SyncFriends to run. Called when the app learns the backend changed
// (push, own mutation).
func (s *FriendService) InvalidateRoster() {
	s.reconciler.Invalidate()
}

// ConfirmLink checks whether an account-link operation took effect. On
// success any pending failure entry for the member is cleared; on failure
// the attempt is recorded for the retry scheduler.
func (s *FriendService) ConfirmLink(memberID, accountID, accountEmail string) bool {
	if friends.ValidateLinkCompletion(memberID, accountID, s.store.Friends()) {
		s.tracker.MarkResolved(memberID)
		return true
	}

	s.tracker.RecordFailure(memberID, accountID, accountEmail, "link not reflected in roster")
	s.metrics.LinkFailuresTotal.Inc()
	slog.Warn("Account link did not take effect", "member_id", memberID, "account_id", accountID)
	return false
}

// PendingLinkFailures returns the current retry backlog.
func (s *FriendService) PendingLinkFailures() []models.LinkFailureRecord {
	return s.tracker.PendingFailures()
}

// ClearLinkFailures drops the whole retry backlog.
func (s *FriendService) ClearLinkFailures() {
	s.tracker.ClearAll()
}
