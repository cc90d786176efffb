package savedq

import (
	"context"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/examprep/portal/core"
	"github.com/examprep/portal/core/question"
	"github.com/examprep/portal/core/session"
)

// State of a saved question list: Idle -> Loading -> {Populated | Empty | Errored}.
type State string

const (
	Idle      State = "idle"
	Loading   State = "loading"
	Populated State = "populated"
	Empty     State = "empty"
	Errored   State = "errored"
)

var ErrInvalidID = core.NewFieldError("id", "this field is required")

const defaultSyncTimeout = 10 * time.Second

type (
	// View is a rendered saved question list.
	// Questions may hold fewer entries than IDs when some fetches failed.
	View struct {
		State     State             `json:"state"`
		IDs       []string          `json:"ids"`
		Questions []question.Record `json:"questions"`
	}

	Options struct {
		// Concurrency bounds the hydration fan-out (DefaultConcurrency if 0).
		Concurrency int
		// SyncTimeout bounds a background remote sync, which outlives the request that triggered it.
		SyncTimeout time.Duration
	}

	Service interface {
		// List loads the visitor's ids and hydrates them. An error means the ids could not be read
		// at all; the returned View is then Errored.
		List(ctx context.Context, store core.Storage, sess session.Session) (View, error)
		// IDs returns the visitor's saved ids without hydrating them.
		IDs(ctx context.Context, store core.Storage) (*IDSet, error)
		Has(ctx context.Context, store core.Storage, id string) (bool, error)
		// Add saves id locally, then mirrors it to the backend, best effort.
		Add(ctx context.Context, store core.Storage, sess session.Session, id string) (*IDSet, error)
		// Remove drops id locally, then mirrors the removal to the backend once, best effort.
		// Removing an absent id changes nothing.
		Remove(ctx context.Context, store core.Storage, sess session.Session, id string) (*IDSet, error)
	}

	service struct {
		hydrator *Hydrator
		remote   *RemoteSync
		media    core.MediaResolver
		logger   core.Logger
		timeout  time.Duration

		locks visitorLocks
		// dispatch runs a remote sync; asynchronous unless mocked
		dispatch func(ctx context.Context, sess session.Session, op Op, id string)
	}
)

var _ Service = (*service)(nil)

func NewService(fetcher Fetcher, remote Remote, media core.MediaResolver, logger core.Logger, opts Options) Service {
	svc := newService(fetcher, remote, media, logger, opts)
	svc.dispatch = svc.syncInBackground
	return svc
}

// NewSyncService returns a Service running remote syncs synchronously, before Add and Remove return.
// Suited to short-lived processes that would exit before a background sync completes.
func NewSyncService(fetcher Fetcher, remote Remote, media core.MediaResolver, logger core.Logger, opts Options) Service {
	svc := newService(fetcher, remote, media, logger, opts)
	svc.dispatch = svc.remote.TrySync
	return svc
}

func NewServiceMock(fetcher Fetcher, remote Remote, media core.MediaResolver, logger core.Logger) Service {
	return NewSyncService(fetcher, remote, media, logger, Options{})
}

func newService(fetcher Fetcher, remote Remote, media core.MediaResolver, logger core.Logger, opts Options) *service {
	if media == nil {
		media = core.PassthroughMedia{}
	}
	if opts.SyncTimeout <= 0 {
		opts.SyncTimeout = defaultSyncTimeout
	}
	return &service{
		hydrator: NewHydrator(fetcher, opts.Concurrency, logger),
		remote:   NewRemoteSync(remote, logger),
		media:    media,
		logger:   logger,
		timeout:  opts.SyncTimeout,
	}
}

func (svc *service) syncInBackground(ctx context.Context, sess session.Session, op Op, id string) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), svc.timeout)
	go func() {
		defer cancel()
		svc.remote.TrySync(ctx, sess, op, id)
	}()
}

func (svc *service) local(store core.Storage) *LocalStore {
	return NewLocalStore(store, svc.logger)
}

func (svc *service) IDs(ctx context.Context, store core.Storage) (*IDSet, error) {
	return svc.local(store).Load(ctx)
}

func (svc *service) Has(ctx context.Context, store core.Storage, id string) (bool, error) {
	set, err := svc.IDs(ctx, store)
	if err != nil {
		return false, err
	}
	return set.Has(id), nil
}

func (svc *service) List(ctx context.Context, store core.Storage, sess session.Session) (View, error) {
	view := View{State: Loading}

	set, err := svc.IDs(ctx, store)
	if err != nil {
		view.State = Errored
		return view, err
	}
	view.IDs = set.IDs()
	if set.Len() == 0 {
		view.State = Empty
		view.Questions = []question.Record{}
		return view, nil
	}

	hyd := svc.hydrator.Hydrate(ctx, sess, view.IDs)
	for i := range hyd.Records {
		hyd.Records[i].Saved = true
	}
	question.ResolveImages(ctx, svc.media, svc.logger, hyd.Records)
	view.Questions = hyd.Records

	if len(hyd.Stale) > 0 {
		if pruned, err := svc.prune(ctx, store, hyd.Stale); err != nil {
			svc.logger.Warn("pruning stale saved questions", err, sess)
		} else {
			view.IDs = pruned.IDs()
		}
	}

	view.State = Populated
	return view, nil
}

// prune drops ids the backend no longer knows about.
func (svc *service) prune(ctx context.Context, store core.Storage, stale []string) (*IDSet, error) {
	defer svc.locks.lock(store)()

	ls := svc.local(store)
	set, err := ls.Load(ctx)
	if err != nil {
		return nil, err
	}
	changed := false
	for _, id := range stale {
		changed = set.Remove(id) || changed
	}
	if changed {
		if err := ls.Save(ctx, set); err != nil {
			return nil, err
		}
	}
	return set, nil
}

func (svc *service) Add(ctx context.Context, store core.Storage, sess session.Session, id string) (*IDSet, error) {
	return svc.mutate(ctx, store, sess, OpAdd, id)
}

func (svc *service) Remove(ctx context.Context, store core.Storage, sess session.Session, id string) (*IDSet, error) {
	return svc.mutate(ctx, store, sess, OpRemove, id)
}

// mutate applies op to the stored set, persists it, then dispatches the remote sync.
// Nothing is persisted nor synced when op does not change the set.
func (svc *service) mutate(ctx context.Context, store core.Storage, sess session.Session, op Op, id string) (*IDSet, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, ErrInvalidID
	}

	unlock := svc.locks.lock(store)
	ls := svc.local(store)
	set, err := ls.Load(ctx)
	if err != nil {
		unlock()
		return nil, err
	}

	var changed bool
	if op == OpAdd {
		changed = set.Add(id)
	} else {
		changed = set.Remove(id)
	}
	if changed {
		err = ls.Save(ctx, set)
	}
	unlock()

	if err != nil {
		return nil, errors.Wrapf(err, "saving after %s", op)
	}
	if changed {
		svc.dispatch(ctx, sess, op, id)
	}
	return set, nil
}
