package cart

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jrsteele09/go-shop-client/identity"
	interrors "github.com/jrsteele09/go-shop-client/internal/errors"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// syncTimeout bounds the server cart pull triggered by a session start.
const syncTimeout = 10 * time.Second

// Item is one line of the shopping cart. Prices are in minor currency units.
type Item struct {
	ID        string `json:"id"`
	ProductID string `json:"productId"`
	Name      string `json:"name"`
	UnitPrice int64  `json:"unitPrice"`
	Quantity  int    `json:"quantity"`
}

// Storage persists cart contents across process restarts.
type Storage interface {
	LoadCart() ([]Item, error)
	SaveCart(items []Item) error
	ClearCart() error
}

// Fetcher pulls the server-side cart for the authenticated user. The api
// package provides the HTTP-backed implementation.
type Fetcher interface {
	FetchCart(ctx context.Context) ([]Item, error)
}

// Store is the persisted cart state container. It is not part of the auth
// core, but it subscribes to the session manager's lifecycle: a session start
// resynchronizes from the server, a session end discards local contents.
type Store struct {
	mu      sync.Mutex
	items   []Item
	storage Storage
	fetcher Fetcher
	log     zerolog.Logger
}

// StoreOption defines a function type to modify the Store instance.
type StoreOption func(*Store)

// WithFetcher sets the server-side cart source used on session start.
func WithFetcher(fetcher Fetcher) StoreOption {
	return func(s *Store) {
		s.fetcher = fetcher
	}
}

// WithLogger sets the logger used for persistence and sync diagnostics.
func WithLogger(log zerolog.Logger) StoreOption {
	return func(s *Store) {
		s.log = log
	}
}

// NewStore initializes a cart store and hydrates it from storage. A failed
// load is logged and the cart starts empty.
func NewStore(storage Storage, options ...StoreOption) (*Store, error) {
	if storage == nil {
		return nil, errors.New("[cart.NewStore] storage is required")
	}

	s := &Store{
		storage: storage,
		log:     zerolog.Nop(),
	}
	for _, opt := range options {
		opt(s)
	}

	items, err := storage.LoadCart()
	if err != nil {
		s.log.Warn().Err(err).Msg("cart: failed to load persisted contents")
		return s, nil
	}
	s.items = items
	return s, nil
}

// SetFetcher wires the server-side cart source after construction.
func (s *Store) SetFetcher(fetcher Fetcher) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fetcher = fetcher
}

// Items returns a copy of the current cart contents.
func (s *Store) Items() []Item {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Item(nil), s.items...)
}

// AddItem puts a product into the cart, merging quantities when the product
// is already present. Returns the resulting line.
func (s *Store) AddItem(productID, name string, unitPrice int64, quantity int) Item {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.items {
		if s.items[i].ProductID == productID {
			s.items[i].Quantity += quantity
			s.persistLocked()
			return s.items[i]
		}
	}

	item := Item{
		ID:        uuid.New().String(),
		ProductID: productID,
		Name:      name,
		UnitPrice: unitPrice,
		Quantity:  quantity,
	}
	s.items = append(s.items, item)
	s.persistLocked()
	return item
}

// UpdateQuantity sets the quantity of a cart line. Zero or negative removes it.
func (s *Store) UpdateQuantity(itemID string, quantity int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.items {
		if s.items[i].ID != itemID {
			continue
		}
		if quantity <= 0 {
			s.items = append(s.items[:i], s.items[i+1:]...)
		} else {
			s.items[i].Quantity = quantity
		}
		s.persistLocked()
		return nil
	}
	return errors.Wrapf(interrors.ErrNotFound, "[cart.UpdateQuantity] no item %q", itemID)
}

// RemoveItem deletes a cart line. Removing an absent line is not an error.
func (s *Store) RemoveItem(itemID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.items {
		if s.items[i].ID == itemID {
			s.items = append(s.items[:i], s.items[i+1:]...)
			s.persistLocked()
			return
		}
	}
}

// Subtotal returns the cart total in minor currency units.
func (s *Store) Subtotal() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	var total int64
	for _, item := range s.items {
		total += item.UnitPrice * int64(item.Quantity)
	}
	return total
}

// Replace swaps the whole cart contents and persists them.
func (s *Store) Replace(items []Item) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = append([]Item(nil), items...)
	s.persistLocked()
}

// Clear empties the cart and removes the persisted contents.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = nil
	if err := s.storage.ClearCart(); err != nil {
		s.log.Warn().Err(err).Msg("cart: failed to clear persisted contents")
	}
}

// SessionStarted implements session.Listener: pull fresh server-side cart
// contents for the new identity. A failed pull keeps the local cart.
func (s *Store) SessionStarted(id *identity.Identity) {
	s.mu.Lock()
	fetcher := s.fetcher
	s.mu.Unlock()
	if fetcher == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), syncTimeout)
	defer cancel()

	items, err := fetcher.FetchCart(ctx)
	if err != nil {
		s.log.Warn().Err(err).Str("sub", id.Sub).Msg("cart: failed to sync from server")
		return
	}
	s.Replace(items)
}

// SessionEnded implements session.Listener: discard locally persisted contents.
func (s *Store) SessionEnded() {
	s.Clear()
}

func (s *Store) persistLocked() {
	if err := s.storage.SaveCart(append([]Item(nil), s.items...)); err != nil {
		s.log.Warn().Err(err).Msg("cart: failed to persist contents")
	}
}
