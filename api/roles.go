package api

import (
	"context"
	"net/http"
	"net/url"

	"github.com/pkg/errors"
)

// RolesService wraps the role and permission admin endpoints.
type RolesService struct {
	client *Client
}

// Permission is one grantable capability, e.g. "product:write".
type Permission struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Role groups permissions under a name users can be assigned to.
type Role struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	Permissions []Permission `json:"permissions,omitempty"`
}

// RoleInput is the create/update payload for a role.
type RoleInput struct {
	Name          string   `json:"name"`
	PermissionIDs []string `json:"permissionIds,omitempty"`
}

// List returns all roles.
func (s *RolesService) List(ctx context.Context) ([]Role, error) {
	var out []Role
	if err := s.client.do(ctx, http.MethodGet, RouteRoles, nil, &out); err != nil {
		return nil, errors.Wrap(err, "[RolesService.List]")
	}
	return out, nil
}

// Get returns a role with its permissions.
func (s *RolesService) Get(ctx context.Context, id string) (*Role, error) {
	out := &Role{}
	if err := s.client.do(ctx, http.MethodGet, RouteRoles+"/"+url.PathEscape(id), nil, out); err != nil {
		return nil, errors.Wrap(err, "[RolesService.Get]")
	}
	return out, nil
}

// Create adds a role (admin).
func (s *RolesService) Create(ctx context.Context, input RoleInput) (*Role, error) {
	out := &Role{}
	if err := s.client.do(ctx, http.MethodPost, RouteRoles, input, out); err != nil {
		return nil, errors.Wrap(err, "[RolesService.Create]")
	}
	return out, nil
}

// Update replaces a role's name and permission set (admin).
func (s *RolesService) Update(ctx context.Context, id string, input RoleInput) (*Role, error) {
	out := &Role{}
	if err := s.client.do(ctx, http.MethodPut, RouteRoles+"/"+url.PathEscape(id), input, out); err != nil {
		return nil, errors.Wrap(err, "[RolesService.Update]")
	}
	return out, nil
}

// ListPermissions returns every grantable permission.
func (s *RolesService) ListPermissions(ctx context.Context) ([]Permission, error) {
	var out []Permission
	if err := s.client.do(ctx, http.MethodGet, RoutePermissions, nil, &out); err != nil {
		return nil, errors.Wrap(err, "[RolesService.ListPermissions]")
	}
	return out, nil
}
