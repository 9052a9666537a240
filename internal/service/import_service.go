// Package service wires the core components to the store, persistence,
// logging, and metrics. Handlers talk to services; services own the
// orchestration the core packages deliberately leave out.
package service

import (
	"context"
	"log/slog"

	"github.com/paybackapp/payback/internal/importer"
	"github.com/paybackapp/payback/internal/metrics"
	"github.com/paybackapp/payback/internal/store"
)

// Persister saves store snapshots. The sqlite package provides the
// production implementation; tests pass nil to skip persistence.
type Persister interface {
	Save(ctx context.Context, snap store.Snapshot) error
}

// ImportService runs legacy imports against the store and persists the
// outcome.
type ImportService struct {
	store     *store.MemoryStore
	persister Persister
	metrics   *metrics.Metrics
}

// NewImportService creates an ImportService. persister may be nil.
func NewImportService(st *store.MemoryStore, persister Persister, m *metrics.Metrics) *ImportService {
	return &ImportService{store: st, persister: persister, metrics: m}
}

// Import parses and applies a legacy export. The importer's Result is
// passed through untouched; this layer only adds logging, metrics, and
// persistence of whatever was applied.
func (s *ImportService) Import(ctx context.Context, text string) importer.Result {
	slog.Info("Import requested", "bytes", len(text))

	result := importer.Import(text, s.store)

	switch r := result.(type) {
	case importer.Success:
		slog.Info("Import succeeded", "summary", r.Summary.Description())
		s.record("success", r.Summary)
		s.persist(ctx)
	case importer.PartialSuccess:
		slog.Warn("Import partially succeeded",
			"summary", r.Summary.Description(),
			"errors", len(r.Errors),
		)
		s.record("partial", r.Summary)
		s.persist(ctx)
	case importer.IncompatibleFormat:
		slog.Warn("Import rejected", "reason", r.Message)
		s.metrics.ImportsTotal.WithLabelValues("incompatible").Inc()
	case importer.NeedsResolution:
		slog.Warn("Import needs conflict resolution", "conflicts", len(r.Conflicts))
		s.metrics.ImportsTotal.WithLabelValues("needs_resolution").Inc()
	}

	return result
}

func (s *ImportService) record(outcome string, summary importer.Summary) {
	s.metrics.ImportsTotal.WithLabelValues(outcome).Inc()
	s.metrics.ImportedItemsTotal.WithLabelValues("friends").Add(float64(summary.FriendsAdded))
	s.metrics.ImportedItemsTotal.WithLabelValues("groups").Add(float64(summary.GroupsAdded))
	s.metrics.ImportedItemsTotal.WithLabelValues("expenses").Add(float64(summary.ExpensesAdded))
}

func (s *ImportService) persist(ctx context.Context) {
	if s.persister == nil {
		return
	}
	if err := s.persister.Save(ctx, s.store.Snapshot()); err != nil {
		// The in-memory state is already updated; losing the save only
		// costs durability until the next successful one.
		slog.Error("Failed to persist store after import", "error", err)
	}
}
