package api

import (
	"context"
	"net/http"
	"net/url"

	"github.com/pkg/errors"
)

// CategoriesService wraps the category endpoints.
type CategoriesService struct {
	client *Client
}

// Category is one node of the catalog taxonomy.
type Category struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	ParentID *string `json:"parentId,omitempty"`
}

// CategoryInput is the create/update payload for a category.
type CategoryInput struct {
	Name     string  `json:"name"`
	ParentID *string `json:"parentId,omitempty"`
}

// List returns all categories.
func (s *CategoriesService) List(ctx context.Context) ([]Category, error) {
	var out []Category
	if err := s.client.do(ctx, http.MethodGet, RouteCategories, nil, &out); err != nil {
		return nil, errors.Wrap(err, "[CategoriesService.List]")
	}
	return out, nil
}

// Get returns a single category by ID.
func (s *CategoriesService) Get(ctx context.Context, id string) (*Category, error) {
	out := &Category{}
	if err := s.client.do(ctx, http.MethodGet, RouteCategories+"/"+url.PathEscape(id), nil, out); err != nil {
		return nil, errors.Wrap(err, "[CategoriesService.Get]")
	}
	return out, nil
}

// Create adds a category (admin).
func (s *CategoriesService) Create(ctx context.Context, input CategoryInput) (*Category, error) {
	out := &Category{}
	if err := s.client.do(ctx, http.MethodPost, RouteCategories, input, out); err != nil {
		return nil, errors.Wrap(err, "[CategoriesService.Create]")
	}
	return out, nil
}

// Update replaces a category's fields (admin).
func (s *CategoriesService) Update(ctx context.Context, id string, input CategoryInput) (*Category, error) {
	out := &Category{}
	if err := s.client.do(ctx, http.MethodPut, RouteCategories+"/"+url.PathEscape(id), input, out); err != nil {
		return nil, errors.Wrap(err, "[CategoriesService.Update]")
	}
	return out, nil
}

// Delete removes a category (admin).
func (s *CategoriesService) Delete(ctx context.Context, id string) error {
	if err := s.client.do(ctx, http.MethodDelete, RouteCategories+"/"+url.PathEscape(id), nil, nil); err != nil {
		return errors.Wrap(err, "[CategoriesService.Delete]")
	}
	return nil
}
