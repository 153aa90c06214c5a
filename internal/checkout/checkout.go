package checkout

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/Skotchmaster/storefront/internal/backend"
	"github.com/Skotchmaster/storefront/internal/cart"
	"github.com/Skotchmaster/storefront/internal/events"
	"github.com/Skotchmaster/storefront/internal/session"
	"github.com/Skotchmaster/storefront/pkg/logging"
)

const (
	MsgSelectAddress    = "Please select a delivery address."
	MsgEmptyCart        = "Your cart is empty."
	MsgAddressesFailed  = "Failed to load addresses."
	MsgCartFailed       = "Failed to load cart."
	MsgAddAddressFailed = "Failed to add address."
	MsgFormNetwork      = "Network error."
	MsgPaymentFailed    = "Failed to initiate payment."
	MsgPaymentNetwork   = "Network error. Please try again."
	MsgPlacementFailed  = "Order placement failed."
	MsgPlacementNetwork = "Order placement failed. Please contact support."
	MsgOrderPlaced      = "Order placed successfully!"
	LoginPrompt         = "Please log in to checkout."
	DefaultCountry      = "India"
	OrdersRoute         = "/orders"
	MerchantName        = "SareeSutra"
	PaymentDescription  = "Order Payment"
	MerchantLogo        = "https://static.vecteezy.com/system/resources/previews/052/945/491/non_2x/elegant-modern-saree-silhouette-logo-design-in-golden-gradient-for-fashion-branding-vector.jpg"
	ThemeColor          = "#f59e42"
)

var (
	ErrLoginRequired     = session.ErrLoginRequired
	ErrNoAddress         = errors.New(MsgSelectAddress)
	ErrUnknownAddress    = errors.New("address not in list")
	ErrEmptyCart         = errors.New(MsgEmptyCart)
	ErrNoPayment         = errors.New("no payment in progress")
	ErrOrderMismatch     = errors.New("payment callback is for a different order")
	ErrAlreadyPlaced     = errors.New("order already placed")
	ErrBusy              = errors.New("checkout step already in progress")
	ErrCartUnavailable   = errors.New(MsgCartFailed)
	ErrInvalidTransition = errors.New("invalid checkout transition")
)

type API interface {
	ListAddresses(ctx context.Context) ([]backend.Address, error)
	CreateAddress(ctx context.Context, in backend.AddressInput) (*backend.Address, error)
	GetCart(ctx context.Context) ([]backend.CartItem, error)
	CreatePaymentOrder(ctx context.Context, amount decimal.Decimal) (*backend.PaymentOrder, error)
	PlaceOrder(ctx context.Context, in backend.PlaceOrderRequest, idempotencyKey string) error
}

type Prefill struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

type Theme struct {
	Color string `json:"color"`
}

// PaymentHandle is everything the payment widget needs to open.
type PaymentHandle struct {
	Key         string          `json:"key"`
	Amount      decimal.Decimal `json:"amount"`
	Currency    string          `json:"currency"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Image       string          `json:"image"`
	OrderID     string          `json:"order_id"`
	Prefill     Prefill         `json:"prefill"`
	Theme       Theme           `json:"theme"`

	addressID      int64
	idempotencyKey string
}

// PaymentResult is what the widget hands back once the customer has paid.
type PaymentResult struct {
	PaymentID string `json:"provider_payment_id"`
	OrderID   string `json:"provider_order_id"`
	Signature string `json:"provider_signature"`
}

type View struct {
	State             State              `json:"state"`
	Addresses         []backend.Address  `json:"addresses"`
	SelectedAddressID int64              `json:"selected_address_id,omitempty"`
	ShowAddressForm   bool               `json:"show_address_form"`
	FormError         string             `json:"form_error,omitempty"`
	Items             []backend.CartItem `json:"items"`
	Subtotal          decimal.Decimal    `json:"subtotal"`
	Shipping          string             `json:"shipping"`
	Total             decimal.Decimal    `json:"total"`
	Payment           *PaymentHandle     `json:"payment,omitempty"`
	Error             string             `json:"error,omitempty"`
	Message           string             `json:"message,omitempty"`
	NextRoute         string             `json:"next_route,omitempty"`
}

// Orchestrator drives one checkout from address selection to a placed order.
// Every step is a transition of an explicit state machine; steps that talk to
// the backend hold the flow busy so a double submit is rejected, not raced.
type Orchestrator struct {
	api    API
	sess   session.Reader
	events events.Publisher
	newKey func() string

	mu        sync.Mutex
	state     State
	busy      bool
	addresses []backend.Address
	selected  int64
	items     []backend.CartItem
	handle    *PaymentHandle
	placed    string
	cartErr   bool
	errMsg    string
	formErr   string
	message   string
}

func New(api API, sess session.Reader, pub events.Publisher) *Orchestrator {
	if pub == nil {
		pub = events.Nop{}
	}
	return &Orchestrator{
		api:    api,
		sess:   sess,
		events: pub,
		newKey: uuid.NewString,
	}
}

func (o *Orchestrator) moveLocked(to State) error {
	if !canTransition(o.state, to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, o.state, to)
	}
	o.state = to
	return nil
}

// acquire marks the flow busy after checking the current state allows to.
func (o *Orchestrator) acquire(to State) error {
	if o.busy {
		return ErrBusy
	}
	if !canTransition(o.state, to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, o.state, to)
	}
	o.busy = true
	return nil
}

// paymentOpenLocked reports whether a provider order handle is live: the
// widget may still call back with it, so the flow must not drop it.
func (o *Orchestrator) paymentOpenLocked() bool {
	return o.handle != nil && o.state.InPayment()
}

// Enter starts a fresh flow: addresses and cart are fetched in parallel and
// the default address, else the first one, is preselected. While a payment
// handle is live the current flow is kept as is.
func (o *Orchestrator) Enter(ctx context.Context) error {
	if _, ok := o.sess.Current(); !ok {
		return ErrLoginRequired
	}
	l := logging.FromContext(ctx).With("svc", "checkout.enter")

	o.mu.Lock()
	if o.busy {
		o.mu.Unlock()
		return ErrBusy
	}
	if o.paymentOpenLocked() {
		l.Info("checkout_kept", "state", o.state.String(), "order_id", o.handle.OrderID)
		o.mu.Unlock()
		return nil
	}
	o.busy = true
	o.mu.Unlock()

	var (
		g         errgroup.Group
		addresses []backend.Address
		items     []backend.CartItem
		addrErr   error
		cartErr   error
	)
	// Neither fetch cancels the other; each failure only empties its own list.
	g.Go(func() error {
		addresses, addrErr = o.api.ListAddresses(ctx)
		return nil
	})
	g.Go(func() error {
		items, cartErr = o.api.GetCart(ctx)
		return nil
	})
	_ = g.Wait()

	if addrErr != nil {
		l.Warn("fetch_addresses_failed", "error", addrErr)
	}
	if cartErr != nil {
		l.Warn("fetch_cart_failed", "error", cartErr)
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	o.busy = false
	o.addresses = addresses
	o.items = items
	o.selected = pickDefault(addresses)
	o.handle = nil
	o.placed = ""
	o.cartErr = cartErr != nil
	o.formErr = ""
	o.message = ""
	o.errMsg = ""
	switch {
	case addrErr != nil:
		o.errMsg = backend.Message(addrErr, MsgAddressesFailed, MsgFormNetwork)
	case cartErr != nil:
		o.errMsg = backend.Message(cartErr, MsgCartFailed, MsgFormNetwork)
	}
	o.state = StateSelectingAddress

	l.Info("checkout_entered", "addresses", len(addresses), "items", len(items), "selected", o.selected)
	return nil
}

func pickDefault(addrs []backend.Address) int64 {
	for _, a := range addrs {
		if a.IsDefault {
			return a.ID
		}
	}
	if len(addrs) > 0 {
		return addrs[0].ID
	}
	return 0
}

func (o *Orchestrator) Select(addressID int64) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.busy {
		return ErrBusy
	}
	if o.paymentOpenLocked() {
		return fmt.Errorf("%w: payment %s is open", ErrBusy, o.handle.OrderID)
	}
	if !o.hasAddressLocked(addressID) {
		return fmt.Errorf("%w: %d", ErrUnknownAddress, addressID)
	}
	if err := o.moveLocked(StateSelectingAddress); err != nil {
		return err
	}
	o.selected = addressID
	o.handle = nil
	o.errMsg = ""
	return nil
}

func (o *Orchestrator) hasAddressLocked(id int64) bool {
	for _, a := range o.addresses {
		if a.ID == id {
			return true
		}
	}
	return false
}

func (o *Orchestrator) BeginAddAddress() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.busy {
		return ErrBusy
	}
	if o.paymentOpenLocked() {
		return fmt.Errorf("%w: payment %s is open", ErrBusy, o.handle.OrderID)
	}
	if o.state == StateAddingAddress {
		return nil
	}
	if err := o.moveLocked(StateAddingAddress); err != nil {
		return err
	}
	o.formErr = ""
	return nil
}

func (o *Orchestrator) CancelAddAddress() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.state != StateAddingAddress {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, o.state, StateSelectingAddress)
	}
	if o.busy {
		return ErrBusy
	}
	o.formErr = ""
	return o.moveLocked(StateSelectingAddress)
}

// SubmitAddress creates an address and selects it. On failure the form stays
// open with its error until the next attempt.
func (o *Orchestrator) SubmitAddress(ctx context.Context, in backend.AddressInput) (*backend.Address, error) {
	o.mu.Lock()
	if o.state != StateAddingAddress {
		o.mu.Unlock()
		return nil, fmt.Errorf("%w: %s is not adding_address", ErrInvalidTransition, o.state)
	}
	if err := o.acquire(StateSelectingAddress); err != nil {
		o.mu.Unlock()
		return nil, err
	}
	o.formErr = ""
	o.mu.Unlock()

	if strings.TrimSpace(in.Country) == "" {
		in.Country = DefaultCountry
	}
	l := logging.FromContext(ctx).With("svc", "checkout.add_address")

	addr, err := o.api.CreateAddress(ctx, in)

	o.mu.Lock()
	defer o.mu.Unlock()
	o.busy = false
	if err != nil {
		fail := backend.Fail(err, MsgAddAddressFailed, MsgFormNetwork)
		o.formErr = backend.UserMessage(fail)
		l.Warn("add_address_failed", "error", err)
		return nil, fail
	}

	o.addresses = append([]backend.Address{*addr}, o.addresses...)
	o.selected = addr.ID
	o.state = StateSelectingAddress
	l.Info("address_added", "address_id", addr.ID)
	return addr, nil
}

// StartPayment asks the backend for a payment order covering the cart
// subtotal. Without a selected address nothing is sent.
func (o *Orchestrator) StartPayment(ctx context.Context) (*PaymentHandle, error) {
	id, ok := o.sess.Current()
	if !ok {
		return nil, ErrLoginRequired
	}

	o.mu.Lock()
	if o.busy {
		o.mu.Unlock()
		return nil, ErrBusy
	}
	if o.paymentOpenLocked() {
		o.mu.Unlock()
		return nil, fmt.Errorf("%w: payment %s is open", ErrBusy, o.handle.OrderID)
	}
	if o.state != StateSelectingAddress && o.state != StateFailed {
		o.mu.Unlock()
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, o.state, StateAwaitingPayment)
	}
	if o.selected == 0 {
		o.errMsg = MsgSelectAddress
		o.mu.Unlock()
		return nil, ErrNoAddress
	}
	if len(o.items) == 0 {
		if o.cartErr {
			o.errMsg = MsgCartFailed
			o.mu.Unlock()
			return nil, ErrCartUnavailable
		}
		o.errMsg = MsgEmptyCart
		o.mu.Unlock()
		return nil, ErrEmptyCart
	}
	o.busy = true
	o.errMsg = ""
	addressID := o.selected
	amount := cart.Subtotal(o.items)
	o.mu.Unlock()

	l := logging.FromContext(ctx).With("svc", "checkout.start_payment", "address_id", addressID)

	order, err := o.api.CreatePaymentOrder(ctx, amount)

	o.mu.Lock()
	defer o.mu.Unlock()
	o.busy = false
	if err != nil {
		fail := backend.Fail(err, MsgPaymentFailed, MsgPaymentNetwork)
		o.errMsg = backend.UserMessage(fail)
		o.handle = nil
		o.state = StateFailed
		l.Warn("create_payment_order_failed", "amount", amount.String(), "error", err)
		return nil, fail
	}

	h := &PaymentHandle{
		Key:            order.Key,
		Amount:         order.Amount,
		Currency:       order.Currency,
		Name:           MerchantName,
		Description:    PaymentDescription,
		Image:          MerchantLogo,
		OrderID:        order.OrderID,
		Prefill:        Prefill{Name: id.Name, Email: id.Email},
		Theme:          Theme{Color: ThemeColor},
		addressID:      addressID,
		idempotencyKey: o.newKey(),
	}
	o.handle = h
	o.state = StateAwaitingPayment

	events.Emit(ctx, o.events, events.TopicOrder, strconv.FormatInt(id.ID, 10), events.Event{
		"type":      "checkout_started",
		"userID":    id.ID,
		"addressID": addressID,
		"orderID":   order.OrderID,
		"amount":    amount.String(),
	})
	l.Info("payment_started", "order_id", order.OrderID, "amount", amount.String())

	out := *h
	return &out, nil
}

// CompletePayment is the widget callback. It forwards the provider's ids with
// the address chosen when payment started. The same idempotency key is sent
// for every attempt against one payment handle.
func (o *Orchestrator) CompletePayment(ctx context.Context, res PaymentResult) error {
	id, ok := o.sess.Current()
	if !ok {
		return ErrLoginRequired
	}

	o.mu.Lock()
	if o.state == StateDone && o.placed != "" && res.OrderID == o.placed {
		o.mu.Unlock()
		return ErrAlreadyPlaced
	}
	if o.busy {
		o.mu.Unlock()
		return ErrBusy
	}
	if o.handle == nil {
		o.mu.Unlock()
		return ErrNoPayment
	}
	if res.OrderID != o.handle.OrderID {
		o.mu.Unlock()
		return fmt.Errorf("%w: got %q, want %q", ErrOrderMismatch, res.OrderID, o.handle.OrderID)
	}
	if err := o.moveLocked(StatePlacingOrder); err != nil {
		o.mu.Unlock()
		return err
	}
	o.busy = true
	o.errMsg = ""
	h := *o.handle
	o.mu.Unlock()

	l := logging.FromContext(ctx).With("svc", "checkout.place_order", "order_id", h.OrderID)

	err := o.api.PlaceOrder(ctx, backend.PlaceOrderRequest{
		AddressID:         h.addressID,
		ProviderPaymentID: res.PaymentID,
		ProviderOrderID:   res.OrderID,
		ProviderSignature: res.Signature,
	}, h.idempotencyKey)

	o.mu.Lock()
	defer o.mu.Unlock()
	o.busy = false
	if err != nil {
		fail := backend.Fail(err, MsgPlacementFailed, MsgPlacementNetwork)
		o.errMsg = backend.UserMessage(fail)
		o.state = StateFailed
		l.Error("place_order_failed", "error", err)
		return fail
	}

	o.state = StateDone
	o.placed = h.OrderID
	o.message = MsgOrderPlaced

	events.Emit(ctx, o.events, events.TopicOrder, strconv.FormatInt(id.ID, 10), events.Event{
		"type":      "order_placed",
		"userID":    id.ID,
		"addressID": h.addressID,
		"orderID":   h.OrderID,
		"paymentID": res.PaymentID,
	})
	l.Info("order_placed", "payment_id", res.PaymentID)
	return nil
}

// CancelPayment closes a widget the customer dismissed without paying and
// returns to address selection. A handle whose placement already failed was
// paid for and is kept for the retry.
func (o *Orchestrator) CancelPayment() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.busy {
		return ErrBusy
	}
	if o.state != StateAwaitingPayment {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, o.state, StateSelectingAddress)
	}
	o.handle = nil
	o.errMsg = ""
	return o.moveLocked(StateSelectingAddress)
}

func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// NextRoute is where the client navigates once the order is placed.
func (o *Orchestrator) NextRoute() string {
	if o.State() == StateDone {
		return OrdersRoute
	}
	return ""
}

func (o *Orchestrator) View() View {
	o.mu.Lock()
	defer o.mu.Unlock()

	addrs := append([]backend.Address{}, o.addresses...)
	items := append([]backend.CartItem{}, o.items...)
	sub := cart.Subtotal(items)

	v := View{
		State:             o.state,
		Addresses:         addrs,
		SelectedAddressID: o.selected,
		ShowAddressForm:   o.state == StateAddingAddress,
		FormError:         o.formErr,
		Items:             items,
		Subtotal:          sub,
		Shipping:          cart.ShippingLabel,
		Total:             sub,
		Error:             o.errMsg,
		Message:           o.message,
	}
	if o.handle != nil && o.state == StateAwaitingPayment {
		h := *o.handle
		v.Payment = &h
	}
	if o.state == StateDone {
		v.NextRoute = OrdersRoute
	}
	return v
}

// Reset drops the flow, e.g. after logout.
func (o *Orchestrator) Reset() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.state = StateNew
	o.addresses = nil
	o.selected = 0
	o.items = nil
	o.handle = nil
	o.placed = ""
	o.cartErr = false
	o.errMsg = ""
	o.formErr = ""
	o.message = ""
}
