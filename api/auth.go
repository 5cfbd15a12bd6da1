package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	interrors "github.com/jrsteele09/go-shop-client/internal/errors"
	"github.com/jrsteele09/go-shop-client/internal/utils"
	"github.com/jrsteele09/go-shop-client/transport"
	"github.com/pkg/errors"
)

// AuthService wraps the authentication endpoints and keeps the session
// manager in step with their outcomes.
type AuthService struct {
	client *Client
}

// LoginRequest is the credential payload for the login endpoint.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse is the token pair returned by a successful login.
type LoginResponse struct {
	// AccessToken is the JWT used to access protected resources.
	// Usage: attached as "Authorization: Bearer <access_token>"
	AccessToken *string `json:"accessToken,omitempty"`

	// RefreshToken is an opaque token used to obtain new access tokens.
	// Sent to the refresh endpoint in the x-refresh-token header.
	RefreshToken *string `json:"refreshToken,omitempty"`

	// Permissions lists the permission entries granted to the user.
	Permissions []string `json:"permissions,omitempty"`
}

// RefreshResponse carries the rotated access token.
type RefreshResponse struct {
	AccessToken *string `json:"accessToken,omitempty"`
}

// Login authenticates with email and password and stores the resulting token
// pair in the session manager. Session listeners (cart sync) fire as a side
// effect of the store update.
func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResponse, error) {
	out := &LoginResponse{}
	if err := s.client.do(ctx, http.MethodPost, RouteAuthLogin, &LoginRequest{Email: email, Password: password}, out); err != nil {
		return nil, errors.Wrap(err, "[AuthService.Login]")
	}

	accessToken := utils.Value(out.AccessToken)
	refreshToken := utils.Value(out.RefreshToken)
	if accessToken == "" || refreshToken == "" {
		return nil, errors.Wrap(interrors.ErrInvalidToken, "[AuthService.Login] response missing token pair")
	}

	s.client.session.SetTokens(accessToken, refreshToken)
	return out, nil
}

// Logout invalidates the refresh token server-side (best effort) and clears
// the local session either way.
func (s *AuthService) Logout(ctx context.Context) error {
	err := s.client.do(ctx, http.MethodPost, RouteAuthLogout, nil, nil)
	s.client.session.ClearTokens()
	if err != nil {
		return errors.Wrap(err, "[AuthService.Logout]")
	}
	return nil
}

// RefreshAccessToken exchanges the refresh token for a new access token. It
// is the session manager's RefreshFunc: the manager owns storing the result
// and clearing the session on failure.
//
// The request is built directly rather than through do() because the refresh
// token travels in its own header, and the path is the transport's exclusion
// marker so a 401 here never triggers another refresh.
func (s *AuthService) RefreshAccessToken(ctx context.Context, refreshToken string) (string, error) {
	if refreshToken == "" {
		return "", interrors.ErrNoRefreshToken
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.client.baseURL+RouteAuthRefresh, nil)
	if err != nil {
		return "", errors.Wrap(err, "[AuthService.RefreshAccessToken] build request")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set(transport.HeaderRefreshToken, refreshToken)

	resp, err := s.client.httpClient.Do(req)
	if err != nil {
		return "", errors.Wrap(err, "[AuthService.RefreshAccessToken]")
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return "", transport.ErrorFromResponse(resp)
	}

	out := &RefreshResponse{}
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(out); err != nil {
		return "", errors.Wrap(err, "[AuthService.RefreshAccessToken] decode response")
	}

	accessToken := utils.Value(out.AccessToken)
	if accessToken == "" {
		return "", errors.Wrap(interrors.ErrInvalidToken, "[AuthService.RefreshAccessToken] response missing access token")
	}
	return accessToken, nil
}
