package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/storefront/pkg/logging"
)

func (h *Handlers) Orders(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "orders.get")

	if err := h.d.Orders.Load(ctx); err != nil {
		return fail(c, l, "get_orders_error", err)
	}
	return c.JSON(http.StatusOK, h.d.Orders.View())
}

func (h *Handlers) FilterOrders(c echo.Context) error {
	l := logging.FromContext(c.Request().Context()).With("handler", "orders.filter")

	var req struct {
		Start string `json:"start"`
		End   string `json:"end"`
	}
	if err := c.Bind(&req); err != nil {
		return badRequest(c, l, "filter_orders_error", err)
	}
	if err := h.d.Orders.ApplyFilter(req.Start, req.End); err != nil {
		return fail(c, l, "filter_orders_error", err)
	}
	return c.JSON(http.StatusOK, h.d.Orders.View())
}

func (h *Handlers) ClearOrderFilter(c echo.Context) error {
	h.d.Orders.ClearFilter()
	return c.JSON(http.StatusOK, h.d.Orders.View())
}

func (h *Handlers) ToggleOrder(c echo.Context) error {
	l := logging.FromContext(c.Request().Context()).With("handler", "orders.toggle")

	id, err := pathID(c, "id")
	if err != nil {
		return badRequest(c, l, "toggle_order_error", err)
	}
	h.d.Orders.Toggle(id)
	return c.JSON(http.StatusOK, h.d.Orders.View())
}
