package savedq

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/examprep/portal/core"
	"github.com/examprep/portal/core/question"
	"github.com/examprep/portal/core/session"
)

var errBackendDown = errors.New("backend: 503 Service Unavailable")

// backendStub serves questions and records the saved-question calls it receives.
type backendStub struct {
	mu        sync.Mutex
	questions map[string]question.Record
	failing   map[string]error
	delay     func(id string) time.Duration

	profileErr error
	syncErr    error

	fetched      []string
	inflight     int
	maxInflight  int
	profileCalls int
	saved        []string
	removed      []string
	synced       chan string
}

func newBackendStub(ids ...string) *backendStub {
	b := &backendStub{
		questions: make(map[string]question.Record),
		failing:   make(map[string]error),
	}
	for _, id := range ids {
		b.questions[id] = question.Record{ID: id, QuestionHTML: "<p>" + id + "</p>", Options: []question.Option{}}
	}
	return b
}

func (b *backendStub) Question(ctx context.Context, _, id string) (question.Record, error) {
	b.mu.Lock()
	b.fetched = append(b.fetched, id)
	b.inflight++
	if b.inflight > b.maxInflight {
		b.maxInflight = b.inflight
	}
	var d time.Duration
	if b.delay != nil {
		d = b.delay(id)
	}
	b.mu.Unlock()

	defer func() {
		b.mu.Lock()
		b.inflight--
		b.mu.Unlock()
	}()
	if d > 0 {
		time.Sleep(d)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.failing[id]; err != nil {
		return question.Record{}, err
	}
	rec, ok := b.questions[id]
	if !ok {
		return question.Record{}, errors.Wrapf(core.ErrNotFound, "question %s", id)
	}
	return rec, nil
}

func (b *backendStub) Profile(_ context.Context, token string) (session.Profile, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.profileCalls++
	if b.profileErr != nil {
		return session.Profile{}, b.profileErr
	}
	return session.Profile{ID: "stu1", Email: "stu@example.com"}, nil
}

func (b *backendStub) SaveQuestion(_ context.Context, _, id string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.saved = append(b.saved, id)
	b.notify("add:" + id)
	return b.syncErr
}

func (b *backendStub) RemoveSavedQuestion(_ context.Context, _, id string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.removed = append(b.removed, id)
	b.notify("remove:" + id)
	return b.syncErr
}

func (b *backendStub) notify(event string) {
	if b.synced != nil {
		b.synced <- event
	}
}

func (b *backendStub) calls() (profileCalls int, saved, removed []string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.profileCalls, append([]string(nil), b.saved...), append([]string(nil), b.removed...)
}
