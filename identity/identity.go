package identity

import (
	"strings"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/jrsteele09/go-shop-client/internal/utils"
	"github.com/pkg/errors"
)

// Identity represents the claims decoded from an access token.
// The client never verifies the token signature - the server is the only
// verifier. Decoding exists purely so the UI layer can read the subject,
// expiry and authorization claims without a network round trip.
type Identity struct {
	Sub         string           `json:"sub"`                   // Subject - the user's unique ID
	Exp         int64            `json:"exp"`                   // Expiration (seconds since epoch)
	Iat         int64            `json:"iat"`                   // Issued at (seconds since epoch)
	Email       string           `json:"email,omitempty"`       // User email, if the issuer includes it
	RoleID      string           `json:"roleId,omitempty"`      // Role assigned to the user
	Permissions []string         `json:"permissions,omitempty"` // Permission entries for authorization guards
	Claims      jwtlib.MapClaims `json:"claims,omitempty"`      // Full claim bag for downstream consumers
}

// Decode extracts the claims from a raw JWT without verifying its signature.
// Returns an error for empty, malformed or unparsable tokens.
func Decode(rawToken string) (*Identity, error) {
	if strings.TrimSpace(rawToken) == "" {
		return nil, errors.New("[identity.Decode] empty token")
	}

	token, _, err := jwtlib.NewParser().ParseUnverified(rawToken, jwtlib.MapClaims{})
	if err != nil {
		return nil, errors.Wrap(err, "[identity.Decode] ParseUnverified")
	}

	claims, ok := token.Claims.(jwtlib.MapClaims)
	if !ok {
		return nil, errors.New("[identity.Decode] error extracting claims")
	}

	sub, _ := claims["sub"].(string)
	email, _ := claims["email"].(string)
	roleID, _ := claims["roleId"].(string)
	exp, _ := claims["exp"].(float64)
	iat, _ := claims["iat"].(float64)

	var permissions []string
	if claimPermissions, ok := claims["permissions"].([]any); ok {
		permissions = utils.ToStringSlice(claimPermissions)
	}

	return &Identity{
		Sub:         sub,
		Exp:         int64(exp),
		Iat:         int64(iat),
		Email:       email,
		RoleID:      roleID,
		Permissions: permissions,
		Claims:      claims,
	}, nil
}

// ExpiresAt returns the expiry claim as a time.Time.
func (id *Identity) ExpiresAt() time.Time {
	return time.Unix(id.Exp, 0)
}

// HasPermission reports whether the identity carries the given permission entry.
func (id *Identity) HasPermission(permission string) bool {
	for _, p := range id.Permissions {
		if p == permission {
			return true
		}
	}
	return false
}
