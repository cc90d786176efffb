package savedq

import (
	"context"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/examprep/portal/core"
	"github.com/examprep/portal/core/session"
	logsvc "github.com/examprep/portal/services/logger"
	"github.com/examprep/portal/tests/fakes"
)

// visitorStore is a fresh per-request handle on a visitor's shared storage.
type visitorStore struct {
	*fakes.Storage
	id string
}

func (s visitorStore) VisitorID() string { return s.id }

var _ core.VisitorStorage = visitorStore{}

// stalledStorage holds every GetItem until released.
type stalledStorage struct {
	*fakes.Storage
	once    sync.Once
	reading chan struct{}
	release chan struct{}
}

func (s *stalledStorage) GetItem(ctx context.Context, key string) (string, bool, error) {
	s.once.Do(func() { close(s.reading) })
	<-s.release
	return s.Storage.GetItem(ctx, key)
}

func (l *visitorLocks) held() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}

func TestService_VisitorsDoNotBlockEachOther(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(newBackendStub())

	slow := &stalledStorage{Storage: fakes.NewStorage(nil), reading: make(chan struct{}), release: make(chan struct{})}
	done := make(chan error, 1)
	go func() {
		_, err := svc.Add(ctx, slow, student, "q1")
		done <- err
	}()
	<-slow.reading

	other := make(chan error, 1)
	go func() {
		_, err := svc.Add(ctx, fakes.NewStorage(nil), student, "q2")
		other <- err
	}()
	select {
	case err := <-other:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("a stalled visitor blocked another one")
	}

	close(slow.release)
	require.NoError(t, <-done)
	assert.Equal(t, 0, svc.(*service).locks.held())
}

func TestService_SameVisitorIsSerialized(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(newBackendStub())
	shared := fakes.NewStorage(nil)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			_, err := svc.Add(ctx, visitorStore{Storage: shared, id: "v1"}, session.Anonymous(), id)
			assert.NoError(t, err)
		}("q" + strconv.Itoa(i))
	}
	wg.Wait()

	set, err := svc.IDs(ctx, visitorStore{Storage: shared, id: "v1"})
	require.NoError(t, err)
	assert.Equal(t, 20, set.Len(), "no add is lost across request handles")
	assert.Equal(t, 0, svc.(*service).locks.held())
}

func TestLockKey(t *testing.T) {
	shared := fakes.NewStorage(nil)
	assert.Equal(t, lockKey(visitorStore{Storage: shared, id: "v1"}), lockKey(visitorStore{Storage: fakes.NewStorage(nil), id: "v1"}))
	assert.NotEqual(t, lockKey(visitorStore{Storage: shared, id: "v1"}), lockKey(visitorStore{Storage: shared, id: "v2"}))
	assert.NotEqual(t, lockKey(fakes.NewStorage(nil)), lockKey(fakes.NewStorage(nil)))
}

func TestNewSyncService(t *testing.T) {
	ids := make([]string, 12)
	for i := range ids {
		ids[i] = "q" + strconv.Itoa(i)
	}
	b := newBackendStub(ids...)
	b.delay = func(string) time.Duration { return 2 * time.Millisecond }
	svc := NewSyncService(b, b, nil, logsvc.NewNopLogger(), Options{Concurrency: 2})

	store := fakes.NewStorage(nil)
	for _, id := range ids {
		_, err := svc.Add(context.Background(), store, student, id)
		require.NoError(t, err)
	}
	_, saved, _ := b.calls()
	assert.Equal(t, ids, saved, "synced before Add returns")

	view, err := svc.List(context.Background(), store, student)
	require.NoError(t, err)
	assert.Len(t, view.Questions, len(ids))
	assert.LessOrEqual(t, b.maxInflight, 2, "hydration honours Options.Concurrency")
}
