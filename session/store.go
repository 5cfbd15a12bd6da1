package session

import "github.com/jrsteele09/go-shop-client/identity"

// Snapshot is the persisted projection of a session. It is written on every
// token change and read once at process start to hydrate the Manager before
// anything renders session-dependent state. The refreshing flag is transient
// and deliberately absent.
type Snapshot struct {
	AccessToken  string             `json:"accessToken"`
	RefreshToken string             `json:"refreshToken"`
	Identity     *identity.Identity `json:"identity,omitempty"`
}

// Store is the persistence port for the session snapshot. Implementations may
// keep the snapshot in a bbolt file, the OS keychain, or plain memory.
type Store interface {
	// Load returns the persisted snapshot, or (nil, nil) if nothing is persisted.
	Load() (*Snapshot, error)
	// Save persists the snapshot, replacing any existing one.
	Save(snapshot *Snapshot) error
	// Clear removes the persisted snapshot. Clearing an empty store is not an error.
	Clear() error
}
