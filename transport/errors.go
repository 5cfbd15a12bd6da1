package transport

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/pkg/errors"
)

// APIError is the structured error payload the storefront API returns on
// non-2xx responses. Callers receive it instead of a bare transport error so
// UI code can show the server's message directly.
type APIError struct {
	Code       string `json:"error,omitempty"`
	Message    string `json:"message,omitempty"`
	StatusCode int    `json:"statusCode,omitempty"`
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("api error %d: %s", e.StatusCode, e.Message)
	}
	if e.Code != "" {
		return fmt.Sprintf("api error %d: %s", e.StatusCode, e.Code)
	}
	return fmt.Sprintf("api error %d", e.StatusCode)
}

// ErrorFromResponse unwraps a non-2xx response to the server's structured
// error payload. Bodies that do not decode fall back to the HTTP status.
func ErrorFromResponse(resp *http.Response) error {
	apiErr := &APIError{StatusCode: resp.StatusCode}
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return errors.Wrap(err, "[transport.ErrorFromResponse] reading body")
	}
	if len(body) > 0 {
		if err := json.Unmarshal(body, apiErr); err != nil {
			apiErr.Message = http.StatusText(resp.StatusCode)
		}
	}
	if apiErr.StatusCode == 0 {
		apiErr.StatusCode = resp.StatusCode
	}
	return apiErr
}

// IsUnauthorized reports whether err is an APIError with a 401 status.
func IsUnauthorized(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusUnauthorized
}
