package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paybackapp/payback/internal/importer"
	"github.com/paybackapp/payback/internal/metrics"
	"github.com/paybackapp/payback/internal/models"
	"github.com/paybackapp/payback/internal/store"
)

type recordingPersister struct {
	saves int
	last  store.Snapshot
	err   error
}

func (p *recordingPersister) Save(_ context.Context, snap store.Snapshot) error {
	if p.err != nil {
		return p.err
	}
	p.saves++
	p.last = snap
	return nil
}

const validExport = `===PAYBACK_EXPORT===
[FRIENDS]
f1,Alice,,false,,
===END_PAYBACK_EXPORT===
`

func TestImportServicePersistsOnSuccess(t *testing.T) {
	st := store.NewMemoryStore()
	persister := &recordingPersister{}
	svc := NewImportService(st, persister, metrics.New())

	result := svc.Import(context.Background(), validExport)
	_, ok := result.(importer.Success)
	require.True(t, ok, "want Success, got %T", result)

	assert.Equal(t, 1, persister.saves)
	require.Len(t, persister.last.Friends, 1)
	assert.Equal(t, "Alice", persister.last.Friends[0].Name)
}

func TestImportServiceSkipsPersistOnRejection(t *testing.T) {
	persister := &recordingPersister{}
	svc := NewImportService(store.NewMemoryStore(), persister, metrics.New())

	result := svc.Import(context.Background(), "not an export")
	_, ok := result.(importer.IncompatibleFormat)
	require.True(t, ok)
	assert.Zero(t, persister.saves)
}

func TestImportServiceWithoutPersister(t *testing.T) {
	svc := NewImportService(store.NewMemoryStore(), nil, metrics.New())

	result := svc.Import(context.Background(), validExport)
	_, ok := result.(importer.Success)
	assert.True(t, ok)
}

func TestSyncFriendsGate(t *testing.T) {
	st := store.NewMemoryStore()
	svc := NewFriendService(st, nil, time.Hour, metrics.New())

	remote := []models.AccountFriend{
		{MemberID: "f1", Name: "Zoe", Status: models.StatusFriend},
		{MemberID: "f2", Name: "Alice", Status: models.StatusFriend},
	}

	merged, ran := svc.SyncFriends(context.Background(), remote)
	require.True(t, ran, "first sync should run")
	require.Len(t, merged, 2)
	assert.Equal(t, "Alice", merged[0].Name, "merged roster is name-sorted")
	assert.Len(t, st.Friends(), 2)

	// Cool-down active: the gate refuses and the roster stays put.
	_, ran = svc.SyncFriends(context.Background(), nil)
	assert.False(t, ran)
	assert.Len(t, st.Friends(), 2)

	svc.InvalidateRoster()
	merged, ran = svc.SyncFriends(context.Background(), remote)
	assert.True(t, ran, "invalidation reopens the gate")
	assert.Len(t, merged, 2)
}

func TestConfirmLink(t *testing.T) {
	st := store.NewMemoryStore()
	st.AddImportedFriend(models.AccountFriend{
		MemberID:         "m1",
		Name:             "Alice",
		HasLinkedAccount: true,
		LinkedAccountID:  "acct-1",
		Status:           models.StatusFriend,
	})
	svc := NewFriendService(st, nil, time.Hour, metrics.New())

	assert.True(t, svc.ConfirmLink("m1", "acct-1", "alice@example.com"))
	assert.Empty(t, svc.PendingLinkFailures())

	// Wrong account: recorded for retry.
	assert.False(t, svc.ConfirmLink("m1", "acct-9", "alice@example.com"))
	assert.False(t, svc.ConfirmLink("m1", "acct-9", "alice@example.com"))

	pending := svc.PendingLinkFailures()
	require.Len(t, pending, 1)
	assert.Equal(t, 2, pending[0].RetryCount)

	// A later successful confirmation clears the backlog entry.
	assert.True(t, svc.ConfirmLink("m1", "acct-1", "alice@example.com"))
	assert.Empty(t, svc.PendingLinkFailures())

	svc.ConfirmLink("m2", "acct-2", "")
	svc.ClearLinkFailures()
	assert.Empty(t, svc.PendingLinkFailures())
}
