package session_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/jrsteele09/go-shop-client/identity"
	"github.com/jrsteele09/go-shop-client/session"
	fakesessionstore "github.com/jrsteele09/go-shop-client/session/storefakes"
	"github.com/stretchr/testify/require"
)

const (
	testSigningKey   = "test-signing-key"
	testSubject      = "user-1"
	testRefreshToken = "refresh-token-1"
)

// testFixture holds all test dependencies
type testFixture struct {
	store   *fakesessionstore.FakeSessionStore
	manager *session.Manager
	now     time.Time
}

// setupTestFixture creates a manager backed by a fake store with a
// controllable clock.
func setupTestFixture(t *testing.T, options ...session.ManagerOption) *testFixture {
	t.Helper()

	f := &testFixture{
		store: fakesessionstore.NewFakeSessionStore(),
		now:   time.Now(),
	}

	options = append([]session.ManagerOption{
		session.WithNowTime(func() time.Time { return f.now }),
	}, options...)

	manager, err := session.NewManager(f.store, options...)
	require.NoError(t, err)
	f.manager = manager
	return f
}

func mintToken(t *testing.T, sub string, exp time.Time) string {
	t.Helper()
	token := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, jwtlib.MapClaims{
		"sub": sub,
		"exp": float64(exp.Unix()),
		"iat": float64(exp.Add(-time.Hour).Unix()),
	})
	signed, err := token.SignedString([]byte(testSigningKey))
	require.NoError(t, err)
	return signed
}

// recordingListener counts session lifecycle transitions.
type recordingListener struct {
	started int32
	ended   int32
	lastSub string
}

func (l *recordingListener) SessionStarted(id *identity.Identity) {
	atomic.AddInt32(&l.started, 1)
	l.lastSub = id.Sub
}

func (l *recordingListener) SessionEnded() {
	atomic.AddInt32(&l.ended, 1)
}

func TestSetTokensStoresConsistentTriple(t *testing.T) {
	f := setupTestFixture(t)
	access := mintToken(t, testSubject, f.now.Add(time.Hour))

	f.manager.SetTokens(access, testRefreshToken)

	require.Equal(t, access, f.manager.AccessToken())
	require.Equal(t, testRefreshToken, f.manager.RefreshToken())
	id := f.manager.Identity()
	require.NotNil(t, id)
	require.Equal(t, testSubject, id.Sub)
	require.True(t, f.manager.IsAuthenticated())

	persisted := f.store.Persisted()
	require.NotNil(t, persisted)
	require.Equal(t, access, persisted.AccessToken)
	require.Equal(t, testRefreshToken, persisted.RefreshToken)
	require.Equal(t, testSubject, persisted.Identity.Sub)
}

func TestClearTokensEmptiesEverything(t *testing.T) {
	f := setupTestFixture(t)
	f.manager.SetTokens(mintToken(t, testSubject, f.now.Add(time.Hour)), testRefreshToken)

	f.manager.ClearTokens()

	require.Empty(t, f.manager.AccessToken())
	require.Empty(t, f.manager.RefreshToken())
	require.Nil(t, f.manager.Identity())
	require.False(t, f.manager.IsAuthenticated())
	require.Nil(t, f.store.Persisted())

	// Idempotent
	f.manager.ClearTokens()
	require.False(t, f.manager.IsAuthenticated())
}

func TestSetTokensWithInvalidTokenKeepsRawString(t *testing.T) {
	f := setupTestFixture(t)

	require.NotPanics(t, func() {
		f.manager.SetTokens("not-a-jwt", testRefreshToken)
	})

	require.Equal(t, "not-a-jwt", f.manager.AccessToken())
	require.Equal(t, testRefreshToken, f.manager.RefreshToken())
	require.Nil(t, f.manager.Identity())
	require.False(t, f.manager.IsAuthenticated())

	persisted := f.store.Persisted()
	require.NotNil(t, persisted)
	require.Equal(t, "not-a-jwt", persisted.AccessToken)
	require.Nil(t, persisted.Identity)
}

func TestExpiryArithmetic(t *testing.T) {
	f := setupTestFixture(t)
	exp := f.now.Add(time.Hour).Truncate(time.Second)
	f.manager.SetTokens(mintToken(t, testSubject, exp), testRefreshToken)

	f.now = exp.Add(-time.Millisecond)
	require.False(t, f.manager.IsTokenExpired())

	f.now = exp
	require.True(t, f.manager.IsTokenExpired())

	f.now = exp.Add(10 * time.Second)
	require.True(t, f.manager.IsTokenExpired())
}

func TestExpiringSoonWindow(t *testing.T) {
	f := setupTestFixture(t)
	exp := f.now.Add(time.Hour).Truncate(time.Second)
	f.manager.SetTokens(mintToken(t, testSubject, exp), testRefreshToken)

	f.now = exp.Add(-5*time.Minute - time.Millisecond)
	require.False(t, f.manager.IsTokenExpiringSoon())

	f.now = exp.Add(-5 * time.Minute)
	require.True(t, f.manager.IsTokenExpiringSoon())
	require.False(t, f.manager.IsTokenExpired())
}

func TestFreshTokenIsNeitherExpiredNorExpiringSoon(t *testing.T) {
	f := setupTestFixture(t)
	f.manager.SetTokens(mintToken(t, testSubject, f.now.Add(time.Hour)), testRefreshToken)

	require.False(t, f.manager.IsTokenExpired())
	require.False(t, f.manager.IsTokenExpiringSoon())
}

func TestPastExpiryTokenIsExpired(t *testing.T) {
	f := setupTestFixture(t)
	f.manager.SetTokens(mintToken(t, testSubject, f.now.Add(-10*time.Second)), testRefreshToken)

	require.True(t, f.manager.IsTokenExpired())
}

func TestAbsentIdentityCountsAsExpired(t *testing.T) {
	f := setupTestFixture(t)

	require.True(t, f.manager.IsTokenExpired())
	require.True(t, f.manager.IsTokenExpiringSoon())
}

func TestManagerHydratesFromStore(t *testing.T) {
	store := fakesessionstore.NewFakeSessionStore()
	access := "persisted-access-token"
	store.Prime(&session.Snapshot{
		AccessToken:  access,
		RefreshToken: testRefreshToken,
		Identity:     &identity.Identity{Sub: testSubject, Exp: time.Now().Add(time.Hour).Unix()},
	})

	manager, err := session.NewManager(store)
	require.NoError(t, err)
	require.Equal(t, access, manager.AccessToken())
	require.Equal(t, testRefreshToken, manager.RefreshToken())
	require.Equal(t, testSubject, manager.Identity().Sub)
}

func TestManagerSurvivesStoreLoadFailure(t *testing.T) {
	store := fakesessionstore.NewFakeSessionStore()
	store.LoadErr = context.DeadlineExceeded

	manager, err := session.NewManager(store)
	require.NoError(t, err)
	require.False(t, manager.IsAuthenticated())
}

func TestRefreshWithoutRefreshTokenFailsImmediately(t *testing.T) {
	var refreshCalls int32
	f := setupTestFixture(t, session.WithRefreshFunc(func(ctx context.Context, refreshToken string) (string, error) {
		atomic.AddInt32(&refreshCalls, 1)
		return "", nil
	}))

	ok := f.manager.RefreshAccessToken(context.Background())

	require.False(t, ok)
	require.Zero(t, atomic.LoadInt32(&refreshCalls))
}

func TestRefreshSuccessRotatesAccessToken(t *testing.T) {
	f := setupTestFixture(t)
	oldAccess := mintToken(t, testSubject, f.now.Add(-time.Minute))
	newAccess := mintToken(t, testSubject, f.now.Add(time.Hour))

	f.manager.SetRefreshFunc(func(ctx context.Context, refreshToken string) (string, error) {
		require.Equal(t, testRefreshToken, refreshToken)
		return newAccess, nil
	})
	f.manager.SetTokens(oldAccess, testRefreshToken)

	ok := f.manager.RefreshAccessToken(context.Background())

	require.True(t, ok)
	require.Equal(t, newAccess, f.manager.AccessToken())
	require.Equal(t, testRefreshToken, f.manager.RefreshToken())
	require.False(t, f.manager.IsTokenExpired())
}

func TestRefreshFailureClearsSession(t *testing.T) {
	f := setupTestFixture(t, session.WithRefreshFunc(func(ctx context.Context, refreshToken string) (string, error) {
		return "", context.DeadlineExceeded
	}))
	f.manager.SetTokens(mintToken(t, testSubject, f.now.Add(-time.Minute)), testRefreshToken)

	ok := f.manager.RefreshAccessToken(context.Background())

	require.False(t, ok)
	require.Empty(t, f.manager.AccessToken())
	require.Empty(t, f.manager.RefreshToken())
	require.Nil(t, f.manager.Identity())
	require.Nil(t, f.store.Persisted())
}

func TestRefreshReentryShortCircuits(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})

	f := setupTestFixture(t)
	newAccess := mintToken(t, testSubject, f.now.Add(time.Hour))
	f.manager.SetRefreshFunc(func(ctx context.Context, refreshToken string) (string, error) {
		close(entered)
		<-release
		return newAccess, nil
	})
	f.manager.SetTokens(mintToken(t, testSubject, f.now.Add(-time.Minute)), testRefreshToken)

	first := make(chan bool, 1)
	go func() {
		first <- f.manager.RefreshAccessToken(context.Background())
	}()

	<-entered
	require.False(t, f.manager.RefreshAccessToken(context.Background()))

	close(release)
	require.True(t, <-first)
	require.Equal(t, newAccess, f.manager.AccessToken())
}

func TestListenersFireOnLoginAndLogout(t *testing.T) {
	f := setupTestFixture(t)
	listener := &recordingListener{}
	f.manager.AddListener(listener)

	f.manager.SetTokens(mintToken(t, testSubject, f.now.Add(time.Hour)), testRefreshToken)
	require.Equal(t, int32(1), atomic.LoadInt32(&listener.started))
	require.Equal(t, testSubject, listener.lastSub)

	f.manager.ClearTokens()
	require.Equal(t, int32(1), atomic.LoadInt32(&listener.ended))

	// Clearing an already anonymous session does not fire again
	f.manager.ClearTokens()
	require.Equal(t, int32(1), atomic.LoadInt32(&listener.ended))
}

func TestSameSubjectRefreshDoesNotRestartSession(t *testing.T) {
	f := setupTestFixture(t)
	listener := &recordingListener{}
	f.manager.AddListener(listener)

	f.manager.SetTokens(mintToken(t, testSubject, f.now.Add(time.Minute)), testRefreshToken)
	f.manager.SetRefreshFunc(func(ctx context.Context, refreshToken string) (string, error) {
		return mintToken(t, testSubject, f.now.Add(time.Hour)), nil
	})

	require.True(t, f.manager.RefreshAccessToken(context.Background()))
	require.Equal(t, int32(1), atomic.LoadInt32(&listener.started))
}

func TestRefreshChangingSubjectRestartsSession(t *testing.T) {
	f := setupTestFixture(t)
	listener := &recordingListener{}
	f.manager.AddListener(listener)

	f.manager.SetTokens(mintToken(t, testSubject, f.now.Add(time.Minute)), testRefreshToken)
	f.manager.SetRefreshFunc(func(ctx context.Context, refreshToken string) (string, error) {
		return mintToken(t, "user-2", f.now.Add(time.Hour)), nil
	})

	require.True(t, f.manager.RefreshAccessToken(context.Background()))
	require.Equal(t, int32(2), atomic.LoadInt32(&listener.started))
	require.Equal(t, "user-2", listener.lastSub)
}
