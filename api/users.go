package api

import (
	"context"
	"net/http"

	"github.com/pkg/errors"
)

// UsersService wraps the profile endpoints.
type UsersService struct {
	client *Client
}

// Profile is the current user's account data.
type Profile struct {
	ID        string  `json:"id"`
	Email     string  `json:"email"`
	FirstName *string `json:"firstName,omitempty"`
	LastName  *string `json:"lastName,omitempty"`
	RoleID    *string `json:"roleId,omitempty"`
}

// ProfileInput is the update payload for the current user's profile.
type ProfileInput struct {
	FirstName *string `json:"firstName,omitempty"`
	LastName  *string `json:"lastName,omitempty"`
	Email     *string `json:"email,omitempty"`
}

// Me returns the current user's profile.
func (s *UsersService) Me(ctx context.Context) (*Profile, error) {
	out := &Profile{}
	if err := s.client.do(ctx, http.MethodGet, RouteProfile, nil, out); err != nil {
		return nil, errors.Wrap(err, "[UsersService.Me]")
	}
	return out, nil
}

// Update changes the current user's profile fields.
func (s *UsersService) Update(ctx context.Context, input ProfileInput) (*Profile, error) {
	out := &Profile{}
	if err := s.client.do(ctx, http.MethodPut, RouteProfile, input, out); err != nil {
		return nil, errors.Wrap(err, "[UsersService.Update]")
	}
	return out, nil
}
