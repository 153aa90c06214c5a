package httpserver

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/storefront/internal/shop"
	"github.com/Skotchmaster/storefront/pkg/logging"
)

func (h *Handlers) Shop(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "shop.get")

	if err := h.d.Shop.Load(ctx); err != nil {
		return fail(c, l, "get_shop_error", err)
	}
	return c.JSON(http.StatusOK, h.d.Shop.View())
}

func (h *Handlers) ShopMore(c echo.Context) error {
	l := logging.FromContext(c.Request().Context()).With("handler", "shop.more")

	if _, err := h.d.Shop.ViewMore(c.Param("state")); err != nil {
		return fail(c, l, "view_more_error", err)
	}
	return c.JSON(http.StatusOK, h.d.Shop.View())
}

func (h *Handlers) ShopSelect(c echo.Context) error {
	l := logging.FromContext(c.Request().Context()).With("handler", "shop.select")

	id, err := pathID(c, "id")
	if err != nil {
		return badRequest(c, l, "select_product_error", err)
	}
	if err := h.d.Shop.Select(id); err != nil {
		return fail(c, l, "select_product_error", err)
	}
	return c.JSON(http.StatusOK, h.d.Shop.View())
}

func (h *Handlers) ShopRequestDelete(c echo.Context) error {
	l := logging.FromContext(c.Request().Context()).With("handler", "shop.request_delete")

	id, err := pathID(c, "id")
	if err != nil {
		return badRequest(c, l, "request_delete_error", err)
	}
	a, err := h.d.Shop.RequestDelete(id)
	if err != nil {
		return fail(c, l, "request_delete_error", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"pending": a, "confirm_message": a.Message()})
}

func (h *Handlers) ShopConfirmDelete(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "shop.confirm_delete")

	if err := h.d.Shop.ConfirmDelete(ctx); err != nil {
		return fail(c, l, "confirm_delete_error", err)
	}
	l.Info("product deleted")
	return c.JSON(http.StatusOK, h.d.Shop.View())
}

func (h *Handlers) ShopCancelDelete(c echo.Context) error {
	h.d.Shop.CancelDelete()
	return c.JSON(http.StatusOK, h.d.Shop.View())
}

func (h *Handlers) Search(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "shop.search")

	page, _ := strconv.Atoi(c.QueryParam("page"))
	size, _ := strconv.Atoi(c.QueryParam("size"))

	res, err := h.d.Search.Search(ctx, c.QueryParam("q"), page, size)
	if err != nil {
		return fail(c, l, "search_error", err)
	}
	return c.JSON(http.StatusOK, res)
}

// AddToCart adds through the shop so the outcome flashes on the shop page.
func (h *Handlers) AddToCart(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.add")

	var req struct {
		ProductID int64 `json:"product_id"`
	}
	if err := c.Bind(&req); err != nil {
		return badRequest(c, l, "add_to_cart_error", err)
	}
	if req.ProductID <= 0 {
		l.Warn("add_to_cart_error", "status", http.StatusBadRequest)
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "product_id required"})
	}

	if err := h.d.Shop.AddToCart(ctx, req.ProductID); err != nil {
		return fail(c, l, "add_to_cart_error", err)
	}
	l.Info("item added to cart", "product_id", req.ProductID)
	return c.JSON(http.StatusCreated, echo.Map{"message": shop.MsgAdded})
}
