package httpserver

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/storefront/internal/admin"
	"github.com/Skotchmaster/storefront/internal/backend"
	"github.com/Skotchmaster/storefront/internal/cart"
	"github.com/Skotchmaster/storefront/internal/checkout"
	"github.com/Skotchmaster/storefront/internal/orders"
	"github.com/Skotchmaster/storefront/internal/search"
	"github.com/Skotchmaster/storefront/internal/session"
	"github.com/Skotchmaster/storefront/internal/shop"
)

const loginRoute = "/login"

type Handlers struct {
	d *Deps
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, session.ErrLoginRequired):
		return http.StatusUnauthorized
	case errors.Is(err, shop.ErrNotAdmin):
		return http.StatusForbidden
	case errors.Is(err, search.ErrDisabled):
		return http.StatusServiceUnavailable
	case errors.Is(err, cart.ErrItemNotFound),
		errors.Is(err, shop.ErrUnknownState),
		errors.Is(err, shop.ErrUnknownProduct):
		return http.StatusNotFound
	case errors.Is(err, admin.ErrValidation),
		errors.Is(err, orders.ErrDateRequired),
		errors.Is(err, orders.ErrBadDate),
		errors.Is(err, checkout.ErrNoAddress),
		errors.Is(err, checkout.ErrEmptyCart),
		errors.Is(err, checkout.ErrUnknownAddress),
		errors.Is(err, checkout.ErrOrderMismatch),
		errors.Is(err, search.ErrEmptyQuery):
		return http.StatusBadRequest
	case errors.Is(err, cart.ErrMutationInFlight),
		errors.Is(err, checkout.ErrBusy),
		errors.Is(err, checkout.ErrInvalidTransition),
		errors.Is(err, checkout.ErrAlreadyPlaced),
		errors.Is(err, checkout.ErrNoPayment),
		errors.Is(err, admin.ErrNothingPending):
		return http.StatusConflict
	case errors.Is(err, checkout.ErrCartUnavailable):
		return http.StatusBadGateway
	}

	var apiErr *backend.Error
	if errors.As(err, &apiErr) {
		if apiErr.Kind != backend.KindNetwork && apiErr.Status >= 400 && apiErr.Status < 500 {
			return apiErr.Status
		}
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

// fail logs err under event and writes it as {"error": "..."}.
func fail(c echo.Context, l *slog.Logger, event string, err error) error {
	status := statusFor(err)
	if errors.Is(err, session.ErrLoginRequired) {
		l.Info(event, "status", status)
		return c.JSON(status, echo.Map{"login_required": true, "login_route": loginRoute})
	}
	if status >= http.StatusInternalServerError {
		l.Error(event, "status", status, "error", err)
	} else {
		l.Warn(event, "status", status, "error", err)
	}
	return c.JSON(status, echo.Map{"error": backend.UserMessage(err)})
}

func badRequest(c echo.Context, l *slog.Logger, event string, err error) error {
	l.Warn(event, "status", http.StatusBadRequest, "error", err)
	return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
}

func pathID(c echo.Context, name string) (int64, error) {
	return strconv.ParseInt(c.Param(name), 10, 64)
}
