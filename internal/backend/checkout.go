package backend

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/shopspring/decimal"
)

func (c *Client) ListAddresses(ctx context.Context) ([]Address, error) {
	var out struct {
		Addresses []Address `json:"addresses"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/addresses", nil, &out); err != nil {
		return nil, err
	}
	return out.Addresses, nil
}

func (c *Client) CreateAddress(ctx context.Context, in AddressInput) (*Address, error) {
	var out struct {
		Address *Address `json:"address"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/addresses", in, &out); err != nil {
		return nil, err
	}
	if out.Address == nil {
		return nil, &Error{Kind: KindHTTP, Status: http.StatusOK}
	}
	return out.Address, nil
}

// CreatePaymentOrder asks the backend for a payment-provider order handle for amount.
func (c *Client) CreatePaymentOrder(ctx context.Context, amount decimal.Decimal) (*PaymentOrder, error) {
	req := struct {
		Amount json.Number `json:"amount"`
	}{Amount: json.Number(amount.String())}

	var out PaymentOrder
	if err := c.do(ctx, http.MethodPost, "/api/create-order", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// PlaceOrder forwards the provider's payment identifiers. idempotencyKey is sent as
// the Idempotency-Key header so a replayed callback can be recognised server-side.
func (c *Client) PlaceOrder(ctx context.Context, in PlaceOrderRequest, idempotencyKey string) error {
	return c.do(ctx, http.MethodPost, "/api/place-order", in, nil, withHeader("Idempotency-Key", idempotencyKey))
}

func (c *Client) MyOrders(ctx context.Context) ([]Order, error) {
	var out struct {
		Orders []Order `json:"orders"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/my-orders", nil, &out); err != nil {
		return nil, err
	}
	return out.Orders, nil
}
