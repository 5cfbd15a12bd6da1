package api_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/jrsteele09/go-shop-client/api"
	"github.com/jrsteele09/go-shop-client/cart"
	"github.com/jrsteele09/go-shop-client/session"
	fakesessionstore "github.com/jrsteele09/go-shop-client/session/storefakes"
	"github.com/jrsteele09/go-shop-client/transport"
	"github.com/stretchr/testify/require"
)

const (
	testEmail    = "john.doe@example.com"
	testPassword = "password123"
)

func mintToken(t *testing.T, sub string) string {
	t.Helper()
	token := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, jwtlib.MapClaims{
		"sub": sub,
		"exp": float64(time.Now().Add(time.Hour).Unix()),
		"iat": float64(time.Now().Unix()),
	})
	signed, err := token.SignedString([]byte("test-signing-key"))
	require.NoError(t, err)
	return signed
}

func newTestManager(t *testing.T) *session.Manager {
	t.Helper()
	manager, err := session.NewManager(fakesessionstore.NewFakeSessionStore())
	require.NoError(t, err)
	return manager
}

func TestLoginStoresSessionAndSyncsCart(t *testing.T) {
	accessToken := mintToken(t, "user-1")

	mux := http.NewServeMux()
	mux.HandleFunc(api.RouteAuthLogin, func(w http.ResponseWriter, r *http.Request) {
		var req api.LoginRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Equal(t, testEmail, req.Email)
		require.Equal(t, testPassword, req.Password)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"accessToken":  accessToken,
			"refreshToken": "refresh-1",
			"permissions":  []string{"order:read"},
		})
	})
	mux.HandleFunc(api.RouteCart, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "Bearer "+accessToken, r.Header.Get("Authorization"))
		_ = json.NewEncoder(w).Encode(map[string]any{
			"items": []cart.Item{{ID: "line-1", ProductID: "p1", Name: "Keyboard", UnitPrice: 4999, Quantity: 1}},
		})
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	manager := newTestManager(t)
	client, err := api.New(server.URL, manager, nil)
	require.NoError(t, err)

	cartStore, err := cart.NewStore(&fakeCartStorage{}, cart.WithFetcher(client.Cart))
	require.NoError(t, err)
	manager.AddListener(cartStore)

	resp, err := client.Auth.Login(context.Background(), testEmail, testPassword)
	require.NoError(t, err)
	require.Equal(t, []string{"order:read"}, resp.Permissions)

	require.True(t, manager.IsAuthenticated())
	require.Equal(t, "user-1", manager.Identity().Sub)

	items := cartStore.Items()
	require.Len(t, items, 1)
	require.Equal(t, "p1", items[0].ProductID)
}

func TestExpiredTokenIsRefreshedTransparently(t *testing.T) {
	const (
		staleToken = "stale-access-token"
		freshToken = "fresh-access-token"
	)

	var refreshCalls int32
	mux := http.NewServeMux()
	mux.HandleFunc(api.RouteAuthRefresh, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&refreshCalls, 1)
		require.Equal(t, "refresh-1", r.Header.Get(transport.HeaderRefreshToken))
		_ = json.NewEncoder(w).Encode(map[string]string{"accessToken": freshToken})
	})
	mux.HandleFunc(api.RouteProducts, func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer "+freshToken {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_ = json.NewEncoder(w).Encode([]api.Product{{ID: "p1", Name: "Keyboard", Price: 4999}})
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	manager := newTestManager(t)
	client, err := api.New(server.URL, manager, nil)
	require.NoError(t, err)
	manager.SetTokens(staleToken, "refresh-1")

	products, err := client.Products.List(context.Background(), api.ListProductsParams{})
	require.NoError(t, err)
	require.Len(t, products, 1)
	require.Equal(t, "Keyboard", products[0].Name)

	require.Equal(t, int32(1), atomic.LoadInt32(&refreshCalls))
	require.Equal(t, freshToken, manager.AccessToken())
	require.Equal(t, "refresh-1", manager.RefreshToken())
}

func TestRejectedRefreshForcesSignIn(t *testing.T) {
	var redirects int32
	mux := http.NewServeMux()
	mux.HandleFunc(api.RouteAuthRefresh, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(map[string]any{"error": "unauthorized", "message": "invalid refresh token", "statusCode": 401})
	})
	mux.HandleFunc(api.RouteOrders, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	manager := newTestManager(t)
	client, err := api.New(server.URL, manager, func() { atomic.AddInt32(&redirects, 1) })
	require.NoError(t, err)
	manager.SetTokens("stale-access-token", "refresh-1")

	_, err = client.Orders.List(context.Background())
	require.Error(t, err)
	require.True(t, transport.IsUnauthorized(err))

	require.Equal(t, int32(1), atomic.LoadInt32(&redirects))
	require.False(t, manager.IsAuthenticated())
	require.Empty(t, manager.AccessToken())
	require.Empty(t, manager.RefreshToken())
}

func TestServerErrorPayloadIsUnwrapped(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc(api.RouteProducts+"/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"error":      "not_found",
			"message":    "product not found",
			"statusCode": 404,
		})
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	manager := newTestManager(t)
	client, err := api.New(server.URL, manager, nil)
	require.NoError(t, err)

	_, err = client.Products.Get(context.Background(), "missing")
	require.Error(t, err)

	var apiErr *transport.APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, http.StatusNotFound, apiErr.StatusCode)
	require.Equal(t, "not_found", apiErr.Code)
	require.Equal(t, "product not found", apiErr.Message)
}

func TestLogoutClearsSessionAndCart(t *testing.T) {
	accessToken := mintToken(t, "user-1")

	mux := http.NewServeMux()
	mux.HandleFunc(api.RouteAuthLogout, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	manager := newTestManager(t)
	client, err := api.New(server.URL, manager, nil)
	require.NoError(t, err)

	cartStore, err := cart.NewStore(&fakeCartStorage{})
	require.NoError(t, err)
	manager.AddListener(cartStore)

	manager.SetTokens(accessToken, "refresh-1")
	cartStore.AddItem("p1", "Keyboard", 4999, 1)

	require.NoError(t, client.Auth.Logout(context.Background()))

	require.False(t, manager.IsAuthenticated())
	require.Empty(t, cartStore.Items())
}

// fakeCartStorage is an in-memory cart.Storage.
type fakeCartStorage struct {
	items []cart.Item
}

func (fs *fakeCartStorage) LoadCart() ([]cart.Item, error)   { return fs.items, nil }
func (fs *fakeCartStorage) SaveCart(items []cart.Item) error { fs.items = items; return nil }
func (fs *fakeCartStorage) ClearCart() error                 { fs.items = nil; return nil }
