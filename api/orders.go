package api

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/pkg/errors"
)

// OrdersService wraps the order endpoints.
type OrdersService struct {
	client *Client
}

// OrderStatus is the lifecycle state of an order.
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusPaid      OrderStatus = "paid"
	OrderStatusShipped   OrderStatus = "shipped"
	OrderStatusDelivered OrderStatus = "delivered"
	OrderStatusCancelled OrderStatus = "cancelled"
)

// OrderItem is one line of an order.
type OrderItem struct {
	ProductID string `json:"productId"`
	Name      string `json:"name,omitempty"`
	UnitPrice int64  `json:"unitPrice"`
	Quantity  int    `json:"quantity"`
}

// Order is a placed order as the server reports it.
type Order struct {
	ID              string      `json:"id"`
	UserID          string      `json:"userId,omitempty"`
	Status          OrderStatus `json:"status"`
	Items           []OrderItem `json:"items"`
	Total           int64       `json:"total"`
	PaymentMethodID *string     `json:"paymentMethodId,omitempty"`
	ShippingAddress *string     `json:"shippingAddress,omitempty"`
	CreatedAt       *time.Time  `json:"createdAt,omitempty"`
}

// CreateOrderRequest places an order for the current cart contents.
type CreateOrderRequest struct {
	Items           []OrderItem `json:"items"`
	PaymentMethodID string      `json:"paymentMethodId"`
	ShippingAddress string      `json:"shippingAddress"`
}

// List returns the current user's orders (all orders for admins).
func (s *OrdersService) List(ctx context.Context) ([]Order, error) {
	var out []Order
	if err := s.client.do(ctx, http.MethodGet, RouteOrders, nil, &out); err != nil {
		return nil, errors.Wrap(err, "[OrdersService.List]")
	}
	return out, nil
}

// Get returns a single order by ID.
func (s *OrdersService) Get(ctx context.Context, id string) (*Order, error) {
	out := &Order{}
	if err := s.client.do(ctx, http.MethodGet, RouteOrders+"/"+url.PathEscape(id), nil, out); err != nil {
		return nil, errors.Wrap(err, "[OrdersService.Get]")
	}
	return out, nil
}

// Create places a new order.
func (s *OrdersService) Create(ctx context.Context, req CreateOrderRequest) (*Order, error) {
	out := &Order{}
	if err := s.client.do(ctx, http.MethodPost, RouteOrders, req, out); err != nil {
		return nil, errors.Wrap(err, "[OrdersService.Create]")
	}
	return out, nil
}

// UpdateStatus moves an order to a new lifecycle state (admin).
func (s *OrdersService) UpdateStatus(ctx context.Context, id string, status OrderStatus) (*Order, error) {
	out := &Order{}
	body := map[string]OrderStatus{"status": status}
	if err := s.client.do(ctx, http.MethodPut, RouteOrders+"/"+url.PathEscape(id)+"/status", body, out); err != nil {
		return nil, errors.Wrap(err, "[OrdersService.UpdateStatus]")
	}
	return out, nil
}
