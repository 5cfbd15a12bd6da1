package fakesessionstore

import (
	"sync"

	"github.com/jrsteele09/go-shop-client/session"
)

var _ session.Store = (*FakeSessionStore)(nil)

// FakeSessionStore is an in-memory session.Store for tests. It records call
// counts and can be primed with a snapshot or forced to fail.
type FakeSessionStore struct {
	snapshot *session.Snapshot
	lock     sync.RWMutex

	LoadErr  error
	SaveErr  error
	ClearErr error

	LoadCalls  int
	SaveCalls  int
	ClearCalls int
}

func NewFakeSessionStore() *FakeSessionStore {
	return &FakeSessionStore{}
}

// Prime seeds the store with a snapshot, as if a previous process persisted it.
func (fs *FakeSessionStore) Prime(snapshot *session.Snapshot) {
	fs.lock.Lock()
	defer fs.lock.Unlock()
	fs.snapshot = snapshot
}

func (fs *FakeSessionStore) Load() (*session.Snapshot, error) {
	fs.lock.Lock()
	defer fs.lock.Unlock()

	fs.LoadCalls++
	if fs.LoadErr != nil {
		return nil, fs.LoadErr
	}
	return fs.snapshot, nil
}

func (fs *FakeSessionStore) Save(snapshot *session.Snapshot) error {
	fs.lock.Lock()
	defer fs.lock.Unlock()

	fs.SaveCalls++
	if fs.SaveErr != nil {
		return fs.SaveErr
	}
	fs.snapshot = snapshot
	return nil
}

func (fs *FakeSessionStore) Clear() error {
	fs.lock.Lock()
	defer fs.lock.Unlock()

	fs.ClearCalls++
	if fs.ClearErr != nil {
		return fs.ClearErr
	}
	fs.snapshot = nil
	return nil
}

// Persisted returns the currently persisted snapshot.
func (fs *FakeSessionStore) Persisted() *session.Snapshot {
	fs.lock.RLock()
	defer fs.lock.RUnlock()
	return fs.snapshot
}
