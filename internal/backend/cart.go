package backend

import (
	"context"
	"fmt"
	"net/http"
)

func (c *Client) GetCart(ctx context.Context) ([]CartItem, error) {
	var out struct {
		CartItems []CartItem `json:"cartItems"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/cart", nil, &out); err != nil {
		return nil, err
	}
	return out.CartItems, nil
}

func (c *Client) AddToCart(ctx context.Context, productID int64, quantity int) error {
	req := struct {
		ProductID int64 `json:"product_id"`
		Quantity  int   `json:"quantity"`
	}{ProductID: productID, Quantity: quantity}
	return c.do(ctx, http.MethodPost, "/api/cart", req, nil)
}

func (c *Client) UpdateCartItem(ctx context.Context, itemID int64, quantity int) error {
	req := struct {
		Quantity int `json:"quantity"`
	}{Quantity: quantity}
	return c.do(ctx, http.MethodPut, fmt.Sprintf("/api/cart/%d", itemID), req, nil)
}

func (c *Client) RemoveCartItem(ctx context.Context, itemID int64) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/api/cart/%d", itemID), nil, nil)
}
