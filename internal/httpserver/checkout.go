package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/storefront/internal/backend"
	"github.com/Skotchmaster/storefront/internal/checkout"
	"github.com/Skotchmaster/storefront/pkg/logging"
)

// Checkout returns the current flow without touching it.
func (h *Handlers) Checkout(c echo.Context) error {
	return c.JSON(http.StatusOK, h.d.Checkout.View())
}

// EnterCheckout starts a flow, or keeps the one whose payment is still open.
func (h *Handlers) EnterCheckout(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "checkout.enter")

	if err := h.d.Checkout.Enter(ctx); err != nil {
		return fail(c, l, "checkout_enter_error", err)
	}
	return c.JSON(http.StatusOK, h.d.Checkout.View())
}

func (h *Handlers) SelectAddress(c echo.Context) error {
	l := logging.FromContext(c.Request().Context()).With("handler", "checkout.select_address")

	var req struct {
		AddressID int64 `json:"address_id"`
	}
	if err := c.Bind(&req); err != nil {
		return badRequest(c, l, "select_address_error", err)
	}
	if err := h.d.Checkout.Select(req.AddressID); err != nil {
		return fail(c, l, "select_address_error", err)
	}
	return c.JSON(http.StatusOK, h.d.Checkout.View())
}

func (h *Handlers) OpenAddressForm(c echo.Context) error {
	l := logging.FromContext(c.Request().Context()).With("handler", "checkout.open_address_form")

	if err := h.d.Checkout.BeginAddAddress(); err != nil {
		return fail(c, l, "open_address_form_error", err)
	}
	return c.JSON(http.StatusOK, h.d.Checkout.View())
}

func (h *Handlers) CloseAddressForm(c echo.Context) error {
	l := logging.FromContext(c.Request().Context()).With("handler", "checkout.close_address_form")

	if err := h.d.Checkout.CancelAddAddress(); err != nil {
		return fail(c, l, "close_address_form_error", err)
	}
	return c.JSON(http.StatusOK, h.d.Checkout.View())
}

func (h *Handlers) AddAddress(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "checkout.add_address")

	var req backend.AddressInput
	if err := c.Bind(&req); err != nil {
		return badRequest(c, l, "add_address_error", err)
	}
	addr, err := h.d.Checkout.SubmitAddress(ctx, req)
	if err != nil {
		return fail(c, l, "add_address_error", err)
	}
	l.Info("address added", "address_id", addr.ID)
	return c.JSON(http.StatusCreated, h.d.Checkout.View())
}

func (h *Handlers) StartPayment(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "checkout.start_payment")

	handle, err := h.d.Checkout.StartPayment(ctx)
	if err != nil {
		return fail(c, l, "start_payment_error", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"payment": handle, "state": h.d.Checkout.State()})
}

func (h *Handlers) CancelPayment(c echo.Context) error {
	l := logging.FromContext(c.Request().Context()).With("handler", "checkout.cancel_payment")
	if err := h.d.Checkout.CancelPayment(); err != nil {
		return fail(c, l, "cancel_payment_error", err)
	}
	return c.JSON(http.StatusOK, h.d.Checkout.View())
}

// PaymentCallback receives the payment widget's completion result.
func (h *Handlers) PaymentCallback(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "checkout.payment_callback")

	var req checkout.PaymentResult
	if err := c.Bind(&req); err != nil {
		return badRequest(c, l, "payment_callback_error", err)
	}
	if err := h.d.Checkout.CompletePayment(ctx, req); err != nil {
		return fail(c, l, "payment_callback_error", err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"message":    checkout.MsgOrderPlaced,
		"next_route": h.d.Checkout.NextRoute(),
	})
}
