package backend

import (
	"context"
	"net/http"
)

func (c *Client) SalesTrend(ctx context.Context) ([]SalesPoint, error) {
	var out struct {
		Data []SalesPoint `json:"data"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/dashboard/sales-trend", nil, &out); err != nil {
		return nil, err
	}
	return out.Data, nil
}

func (c *Client) TopProducts(ctx context.Context) ([]TopProduct, error) {
	var out struct {
		Data []TopProduct `json:"data"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/dashboard/top-products", nil, &out); err != nil {
		return nil, err
	}
	return out.Data, nil
}

func (c *Client) CategorySales(ctx context.Context) ([]CategorySales, error) {
	var out struct {
		Data []CategorySales `json:"data"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/dashboard/category-sales", nil, &out); err != nil {
		return nil, err
	}
	return out.Data, nil
}
