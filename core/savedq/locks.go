package savedq

import (
	"sync"

	"github.com/examprep/portal/core"
)

// visitorLocks serializes read-modify-write cycles per visitor.
// Entries live only while someone holds or waits on them.
type visitorLocks struct {
	mu    sync.Mutex
	locks map[interface{}]*visitorLock
}

type visitorLock struct {
	sync.Mutex
	refs int
}

// lockKey identifies the visitor behind store. Storages that don't know their
// visitor are locked by identity.
func lockKey(store core.Storage) interface{} {
	if vs, ok := store.(core.VisitorStorage); ok {
		return vs.VisitorID()
	}
	return store
}

// lock blocks until store's visitor is free and returns the matching unlock.
func (l *visitorLocks) lock(store core.Storage) (unlock func()) {
	key := lockKey(store)

	l.mu.Lock()
	if l.locks == nil {
		l.locks = make(map[interface{}]*visitorLock)
	}
	vl, ok := l.locks[key]
	if !ok {
		vl = &visitorLock{}
		l.locks[key] = vl
	}
	vl.refs++
	l.mu.Unlock()

	vl.Lock()
	return func() {
		vl.Unlock()
		l.mu.Lock()
		vl.refs--
		if vl.refs == 0 {
			delete(l.locks, key)
		}
		l.mu.Unlock()
	}
}
