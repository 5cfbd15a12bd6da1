package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/jrsteele09/go-shop-client/session"
	"github.com/jrsteele09/go-shop-client/transport"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

const defaultTimeout = 30 * time.Second

// Client is the typed storefront API client. Every request goes through the
// auth transport, so credential attachment and 401 refresh-and-retry are
// transparent to the service methods.
type Client struct {
	httpClient *http.Client
	baseURL    string
	session    *session.Manager
	log        zerolog.Logger

	Auth           *AuthService
	Products       *ProductsService
	Categories     *CategoriesService
	Orders         *OrdersService
	PaymentMethods *PaymentMethodsService
	Roles          *RolesService
	Users          *UsersService
	Cart           *CartService
}

// ClientOption defines a function type to modify the Client instance.
type ClientOption func(*Client)

// WithTimeout sets the HTTP client timeout. Applies to the original request,
// the refresh call and the retry individually.
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// WithLogger sets the client logger.
func WithLogger(log zerolog.Logger) ClientOption {
	return func(c *Client) {
		c.log = log
	}
}

// WithHTTPClient replaces the underlying HTTP client. The caller is
// responsible for wiring an auth transport into it.
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// New creates a storefront API client bound to the given session manager.
// The manager's refresh function is wired to this client's refresh endpoint,
// and onAuthFailure (optional) fires once per terminally failed refresh so
// the application can navigate to sign-in.
func New(baseURL string, sessionManager *session.Manager, onAuthFailure func(), options ...ClientOption) (*Client, error) {
	if baseURL == "" {
		return nil, errors.New("[api.New] baseURL is required")
	}
	if sessionManager == nil {
		return nil, errors.New("[api.New] session manager is required")
	}

	c := &Client{
		baseURL: baseURL,
		session: sessionManager,
		log:     zerolog.Nop(),
	}
	c.httpClient = &http.Client{
		Timeout: defaultTimeout,
		Transport: transport.New(sessionManager,
			transport.WithAuthFailureHandler(onAuthFailure),
		),
	}

	for _, opt := range options {
		opt(c)
	}

	c.Auth = &AuthService{client: c}
	c.Products = &ProductsService{client: c}
	c.Categories = &CategoriesService{client: c}
	c.Orders = &OrdersService{client: c}
	c.PaymentMethods = &PaymentMethodsService{client: c}
	c.Roles = &RolesService{client: c}
	c.Users = &UsersService{client: c}
	c.Cart = &CartService{client: c}

	sessionManager.SetRefreshFunc(c.Auth.RefreshAccessToken)

	return c, nil
}

// do issues a JSON request and decodes the response into out (when non-nil).
// Non-2xx responses come back as *transport.APIError carrying the server's
// structured payload.
func (c *Client) do(ctx context.Context, method, path string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return errors.Wrap(err, "[api.do] marshal request body")
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return errors.Wrap(err, "[api.do] build request")
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.Wrapf(err, "[api.do] %s %s", method, path)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return transport.ErrorFromResponse(resp)
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<20))
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.Wrapf(err, "[api.do] decode %s %s response", method, path)
	}
	return nil
}
