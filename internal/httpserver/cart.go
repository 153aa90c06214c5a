package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/storefront/pkg/logging"
)

func (h *Handlers) GetCart(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.get")

	if err := h.d.Cart.Fetch(ctx); err != nil {
		return fail(c, l, "get_cart_error", err)
	}
	return c.JSON(http.StatusOK, h.d.Cart.View())
}

func (h *Handlers) UpdateQuantity(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.update_quantity")

	id, err := pathID(c, "id")
	if err != nil {
		return badRequest(c, l, "update_quantity_error", err)
	}
	var req struct {
		Delta int `json:"delta"`
	}
	if err := c.Bind(&req); err != nil {
		return badRequest(c, l, "update_quantity_error", err)
	}

	if _, err := h.d.Cart.UpdateQuantity(ctx, id, req.Delta); err != nil {
		return fail(c, l, "update_quantity_error", err)
	}
	return c.JSON(http.StatusOK, h.d.Cart.View())
}

func (h *Handlers) RemoveFromCart(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.remove")

	id, err := pathID(c, "id")
	if err != nil {
		return badRequest(c, l, "remove_from_cart_error", err)
	}
	if err := h.d.Cart.Remove(ctx, id); err != nil {
		return fail(c, l, "remove_from_cart_error", err)
	}
	l.Info("item removed from cart", "item_id", id)
	return c.JSON(http.StatusOK, h.d.Cart.View())
}
