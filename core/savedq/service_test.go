package savedq

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/examprep/portal/core"
	"github.com/examprep/portal/core/session"
	logsvc "github.com/examprep/portal/services/logger"
	"github.com/examprep/portal/tests/fakes"
)

var student = session.New("student-token")

func newTestService(b *backendStub) Service {
	return NewServiceMock(b, b, nil, logsvc.NewNopLogger())
}

func TestService_List(t *testing.T) {
	t.Run("errored when storage is unavailable", func(t *testing.T) {
		store := fakes.NewStorage(nil)
		store.GetErr = errors.New("storage disabled")

		view, err := newTestService(newBackendStub()).List(context.Background(), store, student)
		assert.Error(t, err)
		assert.Equal(t, Errored, view.State)
	})

	t.Run("empty", func(t *testing.T) {
		b := newBackendStub("q1")
		view, err := newTestService(b).List(context.Background(), fakes.NewStorage(nil), student)
		require.NoError(t, err)
		assert.Equal(t, Empty, view.State)
		assert.Empty(t, view.Questions)
		assert.Empty(t, b.fetched)
	})

	t.Run("corrupt data is empty", func(t *testing.T) {
		store := fakes.NewStorage(map[string]string{StorageKey: "{not json"})
		view, err := newTestService(newBackendStub()).List(context.Background(), store, student)
		require.NoError(t, err)
		assert.Equal(t, Empty, view.State)
	})

	t.Run("populated with fewer questions on fetch failures", func(t *testing.T) {
		b := newBackendStub("A", "B", "C")
		b.failing["B"] = errBackendDown
		store := fakes.NewStorage(map[string]string{StorageKey: `["A","B","C"]`})

		view, err := newTestService(b).List(context.Background(), store, student)
		require.NoError(t, err)
		assert.Equal(t, Populated, view.State)
		assert.Equal(t, []string{"A", "B", "C"}, view.IDs)
		assert.Equal(t, []string{"A", "C"}, recordIDs(view.Questions))
		for _, q := range view.Questions {
			assert.True(t, q.Saved)
		}
		assert.Equal(t, 0, store.Writes, "transient failures keep the id")
	})

	t.Run("stale ids are pruned", func(t *testing.T) {
		b := newBackendStub("A", "C")
		store := fakes.NewStorage(map[string]string{StorageKey: `["A","gone","C"]`})

		view, err := newTestService(b).List(context.Background(), store, student)
		require.NoError(t, err)
		assert.Equal(t, Populated, view.State)
		assert.Equal(t, []string{"A", "C"}, view.IDs)
		assert.JSONEq(t, `{"version":1,"ids":["A","C"]}`, store.Value(StorageKey))
		_, _, removed := b.calls()
		assert.Empty(t, removed, "pruning is local only")
	})

	t.Run("only stale ids", func(t *testing.T) {
		store := fakes.NewStorage(map[string]string{StorageKey: `["gone"]`})
		view, err := newTestService(newBackendStub()).List(context.Background(), store, student)
		require.NoError(t, err)
		assert.Equal(t, Populated, view.State)
		assert.Empty(t, view.Questions)
		assert.Empty(t, view.IDs)
	})
}

func TestService_Remove(t *testing.T) {
	ctx := context.Background()

	t.Run("removes locally then remotely once", func(t *testing.T) {
		b := newBackendStub("q1", "q2")
		store := fakes.NewStorage(map[string]string{StorageKey: `["q1","q2"]`})

		set, err := newTestService(b).Remove(ctx, store, student, "q1")
		require.NoError(t, err)
		assert.Equal(t, []string{"q2"}, set.IDs())
		assert.JSONEq(t, `{"version":1,"ids":["q2"]}`, store.Value(StorageKey))
		_, _, removed := b.calls()
		assert.Equal(t, []string{"q1"}, removed)
	})

	t.Run("absent id is a no-op", func(t *testing.T) {
		b := newBackendStub()
		store := fakes.NewStorage(map[string]string{StorageKey: `["q2"]`})

		set, err := newTestService(b).Remove(ctx, store, student, "q1")
		require.NoError(t, err)
		assert.Equal(t, []string{"q2"}, set.IDs())
		assert.Equal(t, 0, store.Writes)
		profileCalls, _, removed := b.calls()
		assert.Equal(t, 0, profileCalls)
		assert.Empty(t, removed)
	})

	t.Run("remote failure keeps local removal", func(t *testing.T) {
		b := newBackendStub()
		b.syncErr = errBackendDown
		store := fakes.NewStorage(map[string]string{StorageKey: `["q1"]`})

		set, err := newTestService(b).Remove(ctx, store, student, "q1")
		require.NoError(t, err)
		assert.Equal(t, 0, set.Len())
		assert.JSONEq(t, `{"version":1,"ids":[]}`, store.Value(StorageKey))
		_, _, removed := b.calls()
		assert.Len(t, removed, 1)
	})

	t.Run("anonymous stays local", func(t *testing.T) {
		b := newBackendStub()
		store := fakes.NewStorage(map[string]string{StorageKey: `["q1"]`})

		_, err := newTestService(b).Remove(ctx, store, session.Anonymous(), "q1")
		require.NoError(t, err)
		profileCalls, _, removed := b.calls()
		assert.Equal(t, 0, profileCalls)
		assert.Empty(t, removed)
	})

	t.Run("save failure skips remote", func(t *testing.T) {
		b := newBackendStub()
		store := fakes.NewStorage(map[string]string{StorageKey: `["q1"]`})
		store.SetErr = errors.New("disk full")

		_, err := newTestService(b).Remove(ctx, store, student, "q1")
		assert.Error(t, err)
		_, _, removed := b.calls()
		assert.Empty(t, removed)
	})
}

func TestService_Add(t *testing.T) {
	ctx := context.Background()
	b := newBackendStub()
	store := fakes.NewStorage(nil)
	svc := newTestService(b)

	set, err := svc.Add(ctx, store, student, "q1")
	require.NoError(t, err)
	assert.Equal(t, []string{"q1"}, set.IDs())

	set, err = svc.Add(ctx, store, student, "q1")
	require.NoError(t, err)
	assert.Equal(t, []string{"q1"}, set.IDs())

	_, err = svc.Add(ctx, store, student, "  ")
	assert.True(t, core.IsValidation(err))

	has, err := svc.Has(ctx, store, "q1")
	require.NoError(t, err)
	assert.True(t, has)

	_, saved, _ := b.calls()
	assert.Equal(t, []string{"q1"}, saved, "re-adding an id is not synced again")
}

func TestService_AsyncRemoteSync(t *testing.T) {
	b := newBackendStub()
	b.synced = make(chan string, 1)
	svc := NewService(b, b, nil, logsvc.NewNopLogger(), Options{SyncTimeout: time.Second})
	store := fakes.NewStorage(map[string]string{StorageKey: `["q1"]`})

	ctx, cancel := context.WithCancel(context.Background())
	_, err := svc.Remove(ctx, store, student, "q1")
	require.NoError(t, err)
	cancel() // the request is over, the sync must still go through

	select {
	case ev := <-b.synced:
		assert.Equal(t, "remove:q1", ev)
	case <-time.After(2 * time.Second):
		t.Fatal("remote removal was not dispatched")
	}
}

func TestService_OperationsReplayLikeAPlainSet(t *testing.T) {
	ctx := context.Background()
	store := fakes.NewStorage(nil)
	svc := newTestService(newBackendStub())
	plain := make(map[string]bool)

	ops := []struct {
		add bool
		id  string
	}{
		{true, "a"}, {true, "b"}, {false, "a"}, {true, "c"}, {true, "b"},
		{false, "z"}, {true, "a"}, {false, "c"}, {true, "d"},
	}
	for _, op := range ops {
		var err error
		if op.add {
			_, err = svc.Add(ctx, store, student, op.id)
			plain[op.id] = true
		} else {
			_, err = svc.Remove(ctx, store, student, op.id)
			delete(plain, op.id)
		}
		require.NoError(t, err)
	}

	set, err := svc.IDs(ctx, store)
	require.NoError(t, err)
	assert.Equal(t, len(plain), set.Len())
	for id := range plain {
		assert.True(t, set.Has(id), id)
	}
	assert.Equal(t, []string{"b", "a", "d"}, set.IDs())
}
