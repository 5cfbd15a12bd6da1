package transport

import (
	"context"
	"io"
	"net/http"
	"strings"

	interrors "github.com/jrsteele09/go-shop-client/internal/errors"
	"github.com/rs/zerolog"
)

// RefreshTokenPath is the fixed path substring identifying the refresh
// endpoint. Requests to it are excluded from refresh-and-retry so a rejected
// refresh can never trigger another refresh.
const RefreshTokenPath = "/auth/refresh-token"

// HeaderRefreshToken carries the refresh token on the refresh call, and is
// mirrored onto ordinary requests for server-side observability.
const HeaderRefreshToken = "x-refresh-token"

// TokenSource is the view of the session manager the transport needs: read
// the credentials current at send time and rotate them on demand.
type TokenSource interface {
	AccessToken() string
	RefreshToken() string
	RefreshAccessToken(ctx context.Context) bool
}

// AuthTransport decorates an http.RoundTripper with credential attachment and
// transparent recovery from a single failure class: an authenticated request
// rejected with 401. Recovery is one refresh (deduplicated across concurrent
// requests by the coordinator) followed by at most one retry per request.
type AuthTransport struct {
	base          http.RoundTripper
	session       TokenSource
	coord         coordinator
	onAuthFailure func()
	log           zerolog.Logger
}

// Option defines a function type to modify the AuthTransport instance.
type Option func(*AuthTransport)

// WithBase sets the underlying round tripper. Defaults to http.DefaultTransport.
func WithBase(base http.RoundTripper) Option {
	return func(t *AuthTransport) {
		t.base = base
	}
}

// WithLogger sets the logger used for retry diagnostics.
func WithLogger(log zerolog.Logger) Option {
	return func(t *AuthTransport) {
		t.log = log
	}
}

// WithAuthFailureHandler sets the callback fired when a refresh fails
// terminally. The application uses it to force navigation to sign-in. It
// fires exactly once per failed refresh, however many requests were waiting.
func WithAuthFailureHandler(onAuthFailure func()) Option {
	return func(t *AuthTransport) {
		t.onAuthFailure = onAuthFailure
	}
}

// New creates an AuthTransport over the given token source.
func New(session TokenSource, options ...Option) *AuthTransport {
	t := &AuthTransport{
		base:    http.DefaultTransport,
		session: session,
		log:     zerolog.Nop(),
	}
	for _, opt := range options {
		opt(t)
	}
	return t
}

// RoundTrip implements http.RoundTripper.
func (t *AuthTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	resp, err := t.base.RoundTrip(t.authorized(req, req.Body))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusUnauthorized {
		return resp, nil
	}

	// Refreshing the refresher is never attempted.
	if strings.Contains(req.URL.Path, RefreshTokenPath) {
		return resp, nil
	}

	// A request whose body cannot be replayed cannot be retried.
	retryBody, err := replayableBody(req)
	if err != nil {
		t.log.Warn().Err(err).Str("path", req.URL.Path).Msg("transport: 401 without retry")
		return resp, nil
	}

	if !t.coord.refresh(req.Context(), t.session, t.onAuthFailure) {
		// Session is cleared and the redirect fired; the caller still
		// observes the original rejection.
		return resp, nil
	}

	t.log.Debug().Str("path", req.URL.Path).Msg("transport: retrying request with refreshed token")
	drain(resp)
	return t.base.RoundTrip(t.authorized(req, retryBody))
}

// authorized clones the request and attaches the credentials current at send
// time. The token store is read here, not at call-setup time, so a request
// constructed long before it fires still carries fresh tokens.
func (t *AuthTransport) authorized(req *http.Request, body io.ReadCloser) *http.Request {
	clone := req.Clone(req.Context())
	clone.Body = body
	if accessToken := t.session.AccessToken(); accessToken != "" {
		clone.Header.Set("Authorization", "Bearer "+accessToken)
	}
	if refreshToken := t.session.RefreshToken(); refreshToken != "" && clone.Header.Get(HeaderRefreshToken) == "" {
		clone.Header.Set(HeaderRefreshToken, refreshToken)
	}
	return clone
}

// replayableBody produces a fresh body reader for the retry attempt.
func replayableBody(req *http.Request) (io.ReadCloser, error) {
	if req.Body == nil || req.Body == http.NoBody {
		return req.Body, nil
	}
	if req.GetBody == nil {
		return nil, interrors.ErrBodyNotReplayable
	}
	body, err := req.GetBody()
	if err != nil {
		return nil, interrors.Wrapf(err, "transport: rewinding request body")
	}
	return body, nil
}

func drain(resp *http.Response) {
	if resp.Body == nil {
		return
	}
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<20))
	_ = resp.Body.Close()
}
