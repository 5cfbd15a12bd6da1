package api

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/pkg/errors"
)

// ProductsService wraps the product catalog endpoints.
type ProductsService struct {
	client *Client
}

// Product is one catalog entry. Prices are in minor currency units.
type Product struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Description *string    `json:"description,omitempty"`
	Price       int64      `json:"price"`
	CategoryID  *string    `json:"categoryId,omitempty"`
	ImageURL    *string    `json:"imageUrl,omitempty"`
	Stock       *int       `json:"stock,omitempty"`
	CreatedAt   *time.Time `json:"createdAt,omitempty"`
	UpdatedAt   *time.Time `json:"updatedAt,omitempty"`
}

// ProductInput is the create/update payload for a product.
type ProductInput struct {
	Name        string  `json:"name"`
	Description *string `json:"description,omitempty"`
	Price       int64   `json:"price"`
	CategoryID  *string `json:"categoryId,omitempty"`
	ImageURL    *string `json:"imageUrl,omitempty"`
	Stock       *int    `json:"stock,omitempty"`
}

// ListProductsParams filters and pages the product listing.
type ListProductsParams struct {
	CategoryID string
	Search     string
	Page       int
	Limit      int
}

func (p ListProductsParams) query() string {
	values := url.Values{}
	if p.CategoryID != "" {
		values.Set("categoryId", p.CategoryID)
	}
	if p.Search != "" {
		values.Set("search", p.Search)
	}
	if p.Page > 0 {
		values.Set("page", strconv.Itoa(p.Page))
	}
	if p.Limit > 0 {
		values.Set("limit", strconv.Itoa(p.Limit))
	}
	if len(values) == 0 {
		return ""
	}
	return "?" + values.Encode()
}

// List returns the products matching the given params.
func (s *ProductsService) List(ctx context.Context, params ListProductsParams) ([]Product, error) {
	var out []Product
	if err := s.client.do(ctx, http.MethodGet, RouteProducts+params.query(), nil, &out); err != nil {
		return nil, errors.Wrap(err, "[ProductsService.List]")
	}
	return out, nil
}

// Get returns a single product by ID.
func (s *ProductsService) Get(ctx context.Context, id string) (*Product, error) {
	out := &Product{}
	if err := s.client.do(ctx, http.MethodGet, RouteProducts+"/"+url.PathEscape(id), nil, out); err != nil {
		return nil, errors.Wrap(err, "[ProductsService.Get]")
	}
	return out, nil
}

// Create adds a product to the catalog (admin).
func (s *ProductsService) Create(ctx context.Context, input ProductInput) (*Product, error) {
	out := &Product{}
	if err := s.client.do(ctx, http.MethodPost, RouteProducts, input, out); err != nil {
		return nil, errors.Wrap(err, "[ProductsService.Create]")
	}
	return out, nil
}

// Update replaces a product's fields (admin).
func (s *ProductsService) Update(ctx context.Context, id string, input ProductInput) (*Product, error) {
	out := &Product{}
	if err := s.client.do(ctx, http.MethodPut, RouteProducts+"/"+url.PathEscape(id), input, out); err != nil {
		return nil, errors.Wrap(err, "[ProductsService.Update]")
	}
	return out, nil
}

// Delete removes a product from the catalog (admin).
func (s *ProductsService) Delete(ctx context.Context, id string) error {
	if err := s.client.do(ctx, http.MethodDelete, RouteProducts+"/"+url.PathEscape(id), nil, nil); err != nil {
		return errors.Wrap(err, "[ProductsService.Delete]")
	}
	return nil
}
