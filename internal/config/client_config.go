package config

import (
	"strconv"
	"time"
)

const (
	apiBaseURLVar  = "API_BASE_URL"
	signInURLVar   = "SIGNIN_URL"
	httpTimeoutVar = "HTTP_TIMEOUT_SECONDS"
)

type Client struct{}

var _ ClientConfig = Client{}

// GetAPIBaseURL returns the base URL of the storefront API
// (e.g. "https://api.shop.example.com")
func (Client) GetAPIBaseURL() string {
	return GetEnv(apiBaseURLVar, "http://localhost:3000")
}

// GetSignInURL returns where the user is sent when the session is
// terminally lost (refresh rejected or no refresh token).
func (Client) GetSignInURL() string {
	return GetEnv(signInURLVar, "/auth/login")
}

// GetHTTPTimeout returns the per-request HTTP timeout. It applies to the
// original request, the refresh call and the retry individually.
func (Client) GetHTTPTimeout() time.Duration {
	seconds, err := strconv.Atoi(GetEnv(httpTimeoutVar, "30"))
	if err != nil || seconds <= 0 {
		seconds = 30
	}
	return time.Duration(seconds) * time.Second
}
