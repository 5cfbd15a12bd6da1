package api

import (
	"context"
	"net/http"
	"net/url"

	"github.com/pkg/errors"
)

// PaymentMethodsService wraps the payment method endpoints.
type PaymentMethodsService struct {
	client *Client
}

// PaymentMethod is a stored way to pay. The server never returns full card
// numbers; Last4 is the only pan-derived field.
type PaymentMethod struct {
	ID    string `json:"id"`
	Type  string `json:"type"` // e.g. "card", "paypal"
	Label string `json:"label,omitempty"`
	Last4 string `json:"last4,omitempty"`
}

// PaymentMethodInput registers a new payment method via a provider token.
type PaymentMethodInput struct {
	Type          string `json:"type"`
	Label         string `json:"label,omitempty"`
	ProviderToken string `json:"providerToken"`
}

// List returns the current user's payment methods.
func (s *PaymentMethodsService) List(ctx context.Context) ([]PaymentMethod, error) {
	var out []PaymentMethod
	if err := s.client.do(ctx, http.MethodGet, RoutePaymentMethods, nil, &out); err != nil {
		return nil, errors.Wrap(err, "[PaymentMethodsService.List]")
	}
	return out, nil
}

// Create registers a payment method.
func (s *PaymentMethodsService) Create(ctx context.Context, input PaymentMethodInput) (*PaymentMethod, error) {
	out := &PaymentMethod{}
	if err := s.client.do(ctx, http.MethodPost, RoutePaymentMethods, input, out); err != nil {
		return nil, errors.Wrap(err, "[PaymentMethodsService.Create]")
	}
	return out, nil
}

// Delete removes a payment method.
func (s *PaymentMethodsService) Delete(ctx context.Context, id string) error {
	if err := s.client.do(ctx, http.MethodDelete, RoutePaymentMethods+"/"+url.PathEscape(id), nil, nil); err != nil {
		return errors.Wrap(err, "[PaymentMethodsService.Delete]")
	}
	return nil
}
