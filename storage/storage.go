package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/jrsteele09/go-shop-client/cart"
	"github.com/jrsteele09/go-shop-client/session"
	"github.com/pkg/errors"
	bolt "go.etcd.io/bbolt"
)

var (
	bktSession = []byte("session")
	bktCart    = []byte("cart")
)

var (
	snapshotKey = []byte("snapshot")
	contentsKey = []byte("contents")
)

var (
	_ session.Store = (*Storage)(nil)
	_ cart.Storage  = (*Storage)(nil)
)

// Storage is a wrapper around bolt.DB. One file backs both persisted blobs:
// the session snapshot and the cart contents.
type Storage struct {
	db        *bolt.DB
	closeFunc func() error
}

// NewStorage creates a new storage
func NewStorage(path string) (*Storage, error) {
	db, err := bolt.Open(path, 0600, nil)
	if err != nil {
		return nil, err
	}
	return &Storage{
		db:        db,
		closeFunc: db.Close,
	}, nil
}

// NewTempStorage creates a storage backed by a throwaway file, removed on Close.
func NewTempStorage() (*Storage, error) {
	path := filepath.Join(os.TempDir(), fmt.Sprintf("shop-client-%s.db", uuid.New().String()))
	storage, err := NewStorage(path)
	if err != nil {
		return nil, err
	}
	originalCloseFunc := storage.closeFunc
	storage.closeFunc = func() error {
		if err := originalCloseFunc(); err != nil {
			return err
		}
		return os.Remove(path)
	}
	return storage, nil
}

// Close closes the storage
func (s *Storage) Close() error {
	return s.closeFunc()
}

// Load returns the persisted session snapshot, or (nil, nil) when absent.
func (s *Storage) Load() (*session.Snapshot, error) {
	var snapshot *session.Snapshot
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bktSession)
		if b == nil {
			return nil
		}
		raw := b.Get(snapshotKey)
		if raw == nil {
			return nil
		}
		snapshot = &session.Snapshot{}
		if err := json.Unmarshal(raw, snapshot); err != nil {
			return errors.Wrap(err, "[storage.Load] unmarshal snapshot")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return snapshot, nil
}

// Save persists the session snapshot, replacing any existing one.
func (s *Storage) Save(snapshot *session.Snapshot) error {
	raw, err := json.Marshal(snapshot)
	if err != nil {
		return errors.Wrap(err, "[storage.Save] marshal snapshot")
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists(bktSession)
		if err != nil {
			return err
		}
		return b.Put(snapshotKey, raw)
	})
}

// Clear removes the persisted session snapshot.
func (s *Storage) Clear() error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bktSession)
		if b == nil {
			return nil
		}
		return b.Delete(snapshotKey)
	})
}

// LoadCart returns the persisted cart contents, or nil when absent.
func (s *Storage) LoadCart() ([]cart.Item, error) {
	var items []cart.Item
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bktCart)
		if b == nil {
			return nil
		}
		raw := b.Get(contentsKey)
		if raw == nil {
			return nil
		}
		if err := json.Unmarshal(raw, &items); err != nil {
			return errors.Wrap(err, "[storage.LoadCart] unmarshal contents")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return items, nil
}

// SaveCart persists the cart contents, replacing any existing ones.
func (s *Storage) SaveCart(items []cart.Item) error {
	raw, err := json.Marshal(items)
	if err != nil {
		return errors.Wrap(err, "[storage.SaveCart] marshal contents")
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists(bktCart)
		if err != nil {
			return err
		}
		return b.Put(contentsKey, raw)
	})
}

// ClearCart removes the persisted cart contents.
func (s *Storage) ClearCart() error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bktCart)
		if b == nil {
			return nil
		}
		return b.Delete(contentsKey)
	})
}
