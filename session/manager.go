package session

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/jrsteele09/go-shop-client/identity"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// expiryWindow is how long before the exp claim a token counts as expiring soon.
const expiryWindow = 5 * time.Minute

// RefreshFunc exchanges a refresh token for a new access token. The api
// package provides the HTTP-backed implementation; tests stub it.
type RefreshFunc func(ctx context.Context, refreshToken string) (string, error)

// Manager is the single source of truth for authentication credentials and the
// identity derived from them. It owns the persistence lifecycle: the snapshot
// is hydrated once at construction and rewritten on every token change.
//
// All mutators hold the Manager's lock for the whole tri-field update, so no
// reader can observe an access token, refresh token and identity that are
// inconsistent with each other.
type Manager struct {
	mu           sync.Mutex
	accessToken  string
	refreshToken string
	identity     *identity.Identity
	refreshing   bool

	store     Store
	refresh   RefreshFunc
	listeners []Listener
	nowTime   func() time.Time
	log       zerolog.Logger
}

// ManagerOption defines a function type to modify the Manager instance.
type ManagerOption func(*Manager)

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime(nowFunc func() time.Time) ManagerOption {
	return func(m *Manager) {
		m.nowTime = nowFunc
	}
}

// WithLogger sets the logger used for decode and persistence diagnostics.
func WithLogger(log zerolog.Logger) ManagerOption {
	return func(m *Manager) {
		m.log = log
	}
}

// WithRefreshFunc sets the function used to rotate the access token.
func WithRefreshFunc(refresh RefreshFunc) ManagerOption {
	return func(m *Manager) {
		m.refresh = refresh
	}
}

// NewManager initializes a Manager and hydrates it from the store. A failed
// load is logged and the session starts anonymous; it never fails construction.
func NewManager(store Store, options ...ManagerOption) (*Manager, error) {
	if store == nil {
		return nil, errors.New("[NewManager] store is required")
	}

	m := &Manager{
		store:   store,
		nowTime: time.Now,
		log:     zerolog.Nop(),
	}

	for _, opt := range options {
		opt(m)
	}

	snapshot, err := store.Load()
	if err != nil {
		m.log.Warn().Err(err).Msg("session: failed to load persisted snapshot")
		return m, nil
	}
	if snapshot != nil {
		m.accessToken = snapshot.AccessToken
		m.refreshToken = snapshot.RefreshToken
		m.identity = snapshot.Identity
	}
	return m, nil
}

// SetRefreshFunc wires the refresh call after construction. The api client
// needs the Manager to build its transport, so the refresh function is
// attached once the client exists.
func (m *Manager) SetRefreshFunc(refresh RefreshFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.refresh = refresh
}

// AddListener registers a session lifecycle listener.
func (m *Manager) AddListener(l Listener) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listeners = append(m.listeners, l)
}

// SetTokens stores both tokens and the identity decoded from the access token,
// then persists the snapshot. It never fails the caller: a decode failure
// leaves the identity absent and is logged, the raw token is still stored.
// Callers that require an identity must check Identity() separately.
func (m *Manager) SetTokens(accessToken, refreshToken string) {
	id, err := identity.Decode(accessToken)
	if err != nil {
		m.log.Warn().Err(err).Msg("session: access token decode failed")
		id = nil
	}

	m.mu.Lock()
	previousSub := ""
	if m.identity != nil {
		previousSub = m.identity.Sub
	}
	m.accessToken = accessToken
	m.refreshToken = refreshToken
	m.identity = id
	if err := m.store.Save(&Snapshot{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		Identity:     id,
	}); err != nil {
		m.log.Warn().Err(err).Msg("session: failed to persist snapshot")
	}
	listeners := append([]Listener(nil), m.listeners...)
	m.mu.Unlock()

	if id != nil && id.Sub != previousSub {
		for _, l := range listeners {
			l.SessionStarted(id)
		}
	}
}

// ClearTokens sets both tokens and the identity to absent and removes the
// persisted snapshot. Idempotent: listeners fire only when there was a
// session to clear.
func (m *Manager) ClearTokens() {
	m.mu.Lock()
	hadSession := m.accessToken != "" || m.refreshToken != ""
	m.accessToken = ""
	m.refreshToken = ""
	m.identity = nil
	if err := m.store.Clear(); err != nil {
		m.log.Warn().Err(err).Msg("session: failed to clear persisted snapshot")
	}
	listeners := append([]Listener(nil), m.listeners...)
	m.mu.Unlock()

	if hadSession {
		for _, l := range listeners {
			l.SessionEnded()
		}
	}
}

// AccessToken returns the current access token, or "" when anonymous.
func (m *Manager) AccessToken() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.accessToken
}

// RefreshToken returns the current refresh token, or "" when anonymous.
func (m *Manager) RefreshToken() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.refreshToken
}

// Identity returns the identity decoded from the current access token, or nil.
func (m *Manager) Identity() *identity.Identity {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.identity
}

// IsAuthenticated reports whether both tokens and an identity are present.
func (m *Manager) IsAuthenticated() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.accessToken != "" && m.refreshToken != "" && m.identity != nil
}

// IsTokenExpired returns true if the identity is absent or the current time is
// at or past the exp claim. Pure read, no side effects.
func (m *Manager) IsTokenExpired() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.identity == nil {
		return true
	}
	return m.nowTime().UnixMilli() >= m.identity.Exp*1000
}

// IsTokenExpiringSoon returns true if the identity is absent or the current
// time is within the expiry window before the exp claim. Proactive-refresh
// callers use it to rotate tokens before a 401 ever happens.
func (m *Manager) IsTokenExpiringSoon() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.identity == nil {
		return true
	}
	return m.nowTime().UnixMilli() >= m.identity.Exp*1000-expiryWindow.Milliseconds()
}

// RefreshAccessToken rotates the access token using the stored refresh token.
// It returns true only when a new access token was obtained and stored.
//
// Failure is terminal for the session: the store is fully cleared. A missing
// refresh token fails immediately without a network call. The refreshing flag
// is a defensive short-circuit against same-process reentry; request-level
// de-duplication lives in the transport's coordinator.
func (m *Manager) RefreshAccessToken(ctx context.Context) bool {
	m.mu.Lock()
	if m.refreshing {
		m.mu.Unlock()
		m.log.Warn().Msg("session: refresh already in flight")
		return false
	}
	refreshToken := m.refreshToken
	refresh := m.refresh
	if refreshToken == "" || refresh == nil {
		m.mu.Unlock()
		m.ClearTokens()
		return false
	}
	m.refreshing = true
	m.mu.Unlock()

	accessToken, err := refresh(ctx, refreshToken)

	m.mu.Lock()
	m.refreshing = false
	m.mu.Unlock()

	if err != nil || strings.TrimSpace(accessToken) == "" {
		m.log.Warn().Err(err).Msg("session: refresh failed, clearing session")
		m.ClearTokens()
		return false
	}

	m.SetTokens(accessToken, refreshToken)
	return true
}
