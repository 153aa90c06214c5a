package cart

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/Skotchmaster/storefront/internal/backend"
	"github.com/Skotchmaster/storefront/internal/events"
	"github.com/Skotchmaster/storefront/internal/session"
	"github.com/Skotchmaster/storefront/pkg/logging"
)

const (
	MsgLoadFailed    = "Failed to load cart."
	MsgLoadNetwork   = "Network error."
	MsgUpdateFailed  = "Failed to update quantity"
	MsgUpdateNetwork = "Network error updating quantity"
	MsgRemoveFailed  = "Failed to remove item from cart."
	MsgRemoveNetwork = "Network error. Please try again."
	MsgAddFailed     = "Could not add to cart."
	MsgAddNetwork    = "Network error."
	ShippingLabel    = "Free"
	LoginPrompt      = "Please log in to view your cart."
)

var (
	ErrLoginRequired    = session.ErrLoginRequired
	ErrItemNotFound     = errors.New("cart item not found")
	ErrMutationInFlight = errors.New("an update for this item is still in progress")
)

type API interface {
	GetCart(ctx context.Context) ([]backend.CartItem, error)
	AddToCart(ctx context.Context, productID int64, quantity int) error
	UpdateCartItem(ctx context.Context, itemID int64, quantity int) error
	RemoveCartItem(ctx context.Context, itemID int64) error
}

type View struct {
	Items    []backend.CartItem `json:"items"`
	Subtotal decimal.Decimal    `json:"subtotal"`
	Shipping string             `json:"shipping"`
	Total    decimal.Decimal    `json:"total"`
	Error    string             `json:"error,omitempty"`
}

// Manager keeps the local copy of the cart in step with the server. Local
// state only changes after the server has accepted a mutation.
type Manager struct {
	api    API
	sess   session.Reader
	events events.Publisher

	mu       sync.Mutex
	items    []backend.CartItem
	errMsg   string
	inflight map[int64]struct{}
}

func NewManager(api API, sess session.Reader, pub events.Publisher) *Manager {
	if pub == nil {
		pub = events.Nop{}
	}
	return &Manager{
		api:      api,
		sess:     sess,
		events:   pub,
		inflight: make(map[int64]struct{}),
	}
}

func (m *Manager) identity() (session.Identity, error) {
	id, ok := m.sess.Current()
	if !ok {
		return session.Identity{}, ErrLoginRequired
	}
	return id, nil
}

// Fetch replaces the local list with the server's.
func (m *Manager) Fetch(ctx context.Context) error {
	if _, err := m.identity(); err != nil {
		return err
	}
	l := logging.FromContext(ctx).With("svc", "cart.fetch")

	items, err := m.api.GetCart(ctx)
	if err != nil {
		fail := backend.Fail(err, MsgLoadFailed, MsgLoadNetwork)
		m.mu.Lock()
		m.errMsg = backend.UserMessage(fail)
		m.mu.Unlock()
		l.Warn("fetch_cart_failed", "error", err)
		return fail
	}

	m.mu.Lock()
	m.items = append([]backend.CartItem(nil), items...)
	m.errMsg = ""
	m.mu.Unlock()
	l.Debug("cart loaded", "items", len(items))
	return nil
}

// begin marks itemID busy and returns a copy of it.
func (m *Manager) begin(itemID int64) (backend.CartItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	idx := m.indexOf(itemID)
	if idx < 0 {
		return backend.CartItem{}, fmt.Errorf("%w: %d", ErrItemNotFound, itemID)
	}
	if _, busy := m.inflight[itemID]; busy {
		return backend.CartItem{}, ErrMutationInFlight
	}
	m.inflight[itemID] = struct{}{}
	m.errMsg = ""
	return m.items[idx], nil
}

func (m *Manager) end(itemID int64) {
	m.mu.Lock()
	delete(m.inflight, itemID)
	m.mu.Unlock()
}

func (m *Manager) indexOf(itemID int64) int {
	for i := range m.items {
		if m.items[i].ID == itemID {
			return i
		}
	}
	return -1
}

// UpdateQuantity moves an item's quantity by delta, never below 1.
func (m *Manager) UpdateQuantity(ctx context.Context, itemID int64, delta int) (int, error) {
	id, err := m.identity()
	if err != nil {
		return 0, err
	}
	item, err := m.begin(itemID)
	if err != nil {
		return 0, err
	}
	defer m.end(itemID)

	l := logging.FromContext(ctx).With("svc", "cart.update_quantity", "item_id", itemID)
	qty := max(1, item.Quantity+delta)

	if err := m.api.UpdateCartItem(ctx, itemID, qty); err != nil {
		fail := backend.Fail(err, MsgUpdateFailed, MsgUpdateNetwork)
		m.mu.Lock()
		m.errMsg = backend.UserMessage(fail)
		m.mu.Unlock()
		l.Warn("update_quantity_failed", "quantity", qty, "error", err)
		return item.Quantity, fail
	}

	m.mu.Lock()
	if idx := m.indexOf(itemID); idx >= 0 {
		m.items[idx].Quantity = qty
	}
	m.mu.Unlock()

	events.Emit(ctx, m.events, events.TopicCart, strconv.FormatInt(id.ID, 10), events.Event{
		"type":     "cart_quantity_updated",
		"userID":   id.ID,
		"itemID":   itemID,
		"quantity": qty,
	})
	l.Info("quantity_updated", "quantity", qty)
	return qty, nil
}

// Remove deletes an item on the server and then drops it locally.
func (m *Manager) Remove(ctx context.Context, itemID int64) error {
	id, err := m.identity()
	if err != nil {
		return err
	}
	if _, err := m.begin(itemID); err != nil {
		return err
	}
	defer m.end(itemID)

	l := logging.FromContext(ctx).With("svc", "cart.remove", "item_id", itemID)

	if err := m.api.RemoveCartItem(ctx, itemID); err != nil {
		fail := backend.Fail(err, MsgRemoveFailed, MsgRemoveNetwork)
		m.mu.Lock()
		m.errMsg = backend.UserMessage(fail)
		m.mu.Unlock()
		l.Warn("remove_item_failed", "error", err)
		return fail
	}

	m.mu.Lock()
	if idx := m.indexOf(itemID); idx >= 0 {
		m.items = append(m.items[:idx:idx], m.items[idx+1:]...)
	}
	m.mu.Unlock()

	events.Emit(ctx, m.events, events.TopicCart, strconv.FormatInt(id.ID, 10), events.Event{
		"type":   "cart_item_removed",
		"userID": id.ID,
		"itemID": itemID,
	})
	l.Info("item_removed")
	return nil
}

// Add puts one unit of a product into the server cart. The local list is
// left alone; the next Fetch picks the new line up.
func (m *Manager) Add(ctx context.Context, productID int64) error {
	id, err := m.identity()
	if err != nil {
		return err
	}
	l := logging.FromContext(ctx).With("svc", "cart.add", "product_id", productID)

	if err := m.api.AddToCart(ctx, productID, 1); err != nil {
		l.Warn("add_to_cart_failed", "error", err)
		return backend.Fail(err, MsgAddFailed, MsgAddNetwork)
	}

	events.Emit(ctx, m.events, events.TopicCart, strconv.FormatInt(id.ID, 10), events.Event{
		"type":      "cart_item_added",
		"userID":    id.ID,
		"productID": productID,
		"quantity":  1,
	})
	l.Info("item_added")
	return nil
}

func (m *Manager) Items() []backend.CartItem {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]backend.CartItem(nil), m.items...)
}

// Subtotal is recomputed from the current list on every call.
func (m *Manager) Subtotal() decimal.Decimal {
	return Subtotal(m.Items())
}

func Subtotal(items []backend.CartItem) decimal.Decimal {
	sum := decimal.Zero
	for _, it := range items {
		sum = sum.Add(it.Price.Mul(decimal.NewFromInt(int64(it.Quantity))))
	}
	return sum
}

func (m *Manager) View() View {
	m.mu.Lock()
	items := append([]backend.CartItem(nil), m.items...)
	errMsg := m.errMsg
	m.mu.Unlock()

	sub := Subtotal(items)
	if items == nil {
		items = []backend.CartItem{}
	}
	return View{
		Items:    items,
		Subtotal: sub,
		Shipping: ShippingLabel,
		Total:    sub,
		Error:    errMsg,
	}
}

// Reset forgets the local cart, e.g. after logout.
func (m *Manager) Reset() {
	m.mu.Lock()
	m.items = nil
	m.errMsg = ""
	m.mu.Unlock()
}
