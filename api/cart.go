package api

import (
	"context"
	"net/http"

	"github.com/jrsteele09/go-shop-client/cart"
	"github.com/pkg/errors"
)

var _ cart.Fetcher = (*CartService)(nil)

// CartService wraps the server-side cart endpoints. It implements
// cart.Fetcher so the cart store can resynchronize on session start.
type CartService struct {
	client *Client
}

// cartResponse is the wire shape of the server-side cart.
type cartResponse struct {
	Items []cart.Item `json:"items"`
}

// FetchCart pulls the authenticated user's cart from the server.
func (s *CartService) FetchCart(ctx context.Context) ([]cart.Item, error) {
	out := &cartResponse{}
	if err := s.client.do(ctx, http.MethodGet, RouteCart, nil, out); err != nil {
		return nil, errors.Wrap(err, "[CartService.FetchCart]")
	}
	return out.Items, nil
}

// PushCart replaces the server-side cart with the given contents.
func (s *CartService) PushCart(ctx context.Context, items []cart.Item) error {
	if err := s.client.do(ctx, http.MethodPut, RouteCart, &cartResponse{Items: items}, nil); err != nil {
		return errors.Wrap(err, "[CartService.PushCart]")
	}
	return nil
}
