package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/storefront/internal/admin"
	"github.com/Skotchmaster/storefront/internal/backend"
	"github.com/Skotchmaster/storefront/pkg/logging"
)

// Dashboard loads the management lists and the sales aggregates.
func (h *Handlers) Dashboard(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.dashboard")

	if err := h.d.Admin.Load(ctx); err != nil {
		return fail(c, l, "admin_load_error", err)
	}
	out := echo.Map{"panel": h.d.Admin.View()}

	stats, err := h.d.Admin.Dashboard(ctx)
	if err != nil {
		l.Warn("dashboard_error", "error", err)
		out["dashboard_error"] = backend.UserMessage(err)
	} else {
		out["dashboard"] = stats
	}
	return c.JSON(http.StatusOK, out)
}

func pendingReply(c echo.Context, a admin.PendingAction) error {
	return c.JSON(http.StatusOK, echo.Map{"pending": a, "confirm_message": a.Message()})
}

func (h *Handlers) RequestCreateCategory(c echo.Context) error {
	l := logging.FromContext(c.Request().Context()).With("handler", "admin.request_create_category")

	var req admin.CategoryInput
	if err := c.Bind(&req); err != nil {
		return badRequest(c, l, "request_create_category_error", err)
	}
	a, err := h.d.Admin.RequestCreateCategory(req.Name, req.State)
	if err != nil {
		return fail(c, l, "request_create_category_error", err)
	}
	return pendingReply(c, a)
}

func (h *Handlers) RequestDeleteCategory(c echo.Context) error {
	l := logging.FromContext(c.Request().Context()).With("handler", "admin.request_delete_category")

	id, err := pathID(c, "id")
	if err != nil {
		return badRequest(c, l, "request_delete_category_error", err)
	}
	return pendingReply(c, h.d.Admin.RequestDeleteCategory(id))
}

func (h *Handlers) RequestCreateProduct(c echo.Context) error {
	l := logging.FromContext(c.Request().Context()).With("handler", "admin.request_create_product")

	var req backend.ProductInput
	if err := c.Bind(&req); err != nil {
		return badRequest(c, l, "request_create_product_error", err)
	}
	a, err := h.d.Admin.RequestCreateProduct(req)
	if err != nil {
		return fail(c, l, "request_create_product_error", err)
	}
	return pendingReply(c, a)
}

func (h *Handlers) RequestDeleteProduct(c echo.Context) error {
	l := logging.FromContext(c.Request().Context()).With("handler", "admin.request_delete_product")

	id, err := pathID(c, "id")
	if err != nil {
		return badRequest(c, l, "request_delete_product_error", err)
	}
	return pendingReply(c, h.d.Admin.RequestDeleteProduct(id))
}

func (h *Handlers) Pending(c echo.Context) error {
	a, ok := h.d.Admin.Pending()
	if !ok {
		return c.JSON(http.StatusOK, echo.Map{"pending": nil})
	}
	return pendingReply(c, a)
}

func (h *Handlers) Confirm(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.confirm")

	if err := h.d.Admin.Confirm(ctx); err != nil {
		return fail(c, l, "admin_confirm_error", err)
	}
	return c.JSON(http.StatusOK, h.d.Admin.View())
}

func (h *Handlers) Cancel(c echo.Context) error {
	h.d.Admin.Cancel()
	return c.JSON(http.StatusOK, h.d.Admin.View())
}
