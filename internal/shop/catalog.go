package shop

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Skotchmaster/storefront/internal/admin"
	"github.com/Skotchmaster/storefront/internal/backend"
	"github.com/Skotchmaster/storefront/internal/guard"
	"github.com/Skotchmaster/storefront/internal/notice"
	"github.com/Skotchmaster/storefront/internal/session"
	"github.com/Skotchmaster/storefront/pkg/logging"
)

const (
	ShowLimit    = 6
	UnknownState = "Unknown"

	MsgAdded         = "Added to cart!"
	MsgAddFailed     = "Could not add to cart."
	MsgDeleted       = "Product deleted!"
	MsgDeleteFailed  = "Could not delete product."
	MsgNetwork       = "Network error."
	MsgCatalogFailed = "Failed to load products."
	MsgRefreshFailed = "The catalog could not be refreshed."
	LoginRoute       = "/login"
)

var (
	ErrUnknownState   = errors.New("no products for state")
	ErrUnknownProduct = errors.New("product not found")
	ErrNotAdmin       = errors.New("admin only")
	ErrNothingPending = admin.ErrNothingPending
)

type API interface {
	ListProductsWithCategory(ctx context.Context) ([]backend.Product, error)
	DeleteProduct(ctx context.Context, id int64) error
}

// CartAdder is the part of the cart manager the shop needs.
type CartAdder interface {
	Add(ctx context.Context, productID int64) error
}

type Section struct {
	State    string            `json:"state"`
	Products []backend.Product `json:"products"`
	Total    int               `json:"total"`
	HasMore  bool              `json:"has_more"`
}

type View struct {
	Sections       []Section            `json:"sections"`
	Selected       *backend.Product     `json:"selected,omitempty"`
	CartNotice     *notice.Notice       `json:"cart_notice,omitempty"`
	DeleteNotice   *notice.Notice       `json:"delete_notice,omitempty"`
	PendingDelete  *admin.PendingAction `json:"pending_delete,omitempty"`
	ConfirmMessage string               `json:"confirm_message,omitempty"`
	Error          string               `json:"error,omitempty"`
}

// Catalog is the shop page: active products grouped by category state, a few
// per state at a time.
type Catalog struct {
	api  API
	cart CartAdder
	sess session.Reader

	mu       sync.Mutex
	order    []string
	byState  map[string][]backend.Product
	shown    map[string]int
	selected int64
	pending  admin.PendingAction
	errMsg   string

	cartBoard   *notice.Board
	deleteBoard *notice.Board
}

func NewCatalog(api API, cart CartAdder, sess session.Reader, now func() time.Time) *Catalog {
	return &Catalog{
		api:         api,
		cart:        cart,
		sess:        sess,
		byState:     map[string][]backend.Product{},
		shown:       map[string]int{},
		cartBoard:   notice.NewBoard(now),
		deleteBoard: notice.NewBoard(now),
	}
}

// Load refetches the catalog and resets how many products each state shows.
func (c *Catalog) Load(ctx context.Context) error {
	l := logging.FromContext(ctx).With("svc", "shop.load")

	products, err := c.api.ListProductsWithCategory(ctx)
	if err != nil {
		fail := backend.Fail(err, MsgCatalogFailed, MsgNetwork)
		c.mu.Lock()
		c.errMsg = backend.UserMessage(fail)
		c.mu.Unlock()
		l.Warn("fetch_products_failed", "error", err)
		return fail
	}

	order, byState := group(products)
	shown := make(map[string]int, len(byState))
	for st, list := range byState {
		shown[st] = min(ShowLimit, len(list))
	}

	c.mu.Lock()
	c.order, c.byState, c.shown = order, byState, shown
	c.errMsg = ""
	c.mu.Unlock()
	l.Debug("catalog loaded", "products", len(products), "states", len(order))
	return nil
}

// group buckets products by state in order of first appearance.
func group(products []backend.Product) ([]string, map[string][]backend.Product) {
	var order []string
	byState := map[string][]backend.Product{}
	for _, p := range products {
		st := p.State
		if st == "" {
			st = UnknownState
		}
		if _, seen := byState[st]; !seen {
			order = append(order, st)
		}
		byState[st] = append(byState[st], p)
	}
	return order, byState
}

// ViewMore reveals the next ShowLimit products of a state.
func (c *Catalog) ViewMore(state string) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	list, ok := c.byState[state]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownState, state)
	}
	c.shown[state] = min(c.shown[state]+ShowLimit, len(list))
	return c.shown[state], nil
}

// Select opens a product's details; 0 closes them.
func (c *Catalog) Select(productID int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if productID != 0 && c.findLocked(productID) == nil {
		return fmt.Errorf("%w: %d", ErrUnknownProduct, productID)
	}
	c.selected = productID
	return nil
}

func (c *Catalog) findLocked(id int64) *backend.Product {
	for _, list := range c.byState {
		for i := range list {
			if list[i].ID == id {
				return &list[i]
			}
		}
	}
	return nil
}

// AddToCart adds one unit and flashes the outcome. Without a session the
// caller is sent to the login route instead.
func (c *Catalog) AddToCart(ctx context.Context, productID int64) error {
	c.cartBoard.Clear()
	if _, ok := c.sess.Current(); !ok {
		return session.ErrLoginRequired
	}
	if err := c.cart.Add(ctx, productID); err != nil {
		c.cartBoard.Error(backend.UserMessage(err))
		return err
	}
	c.cartBoard.Success(MsgAdded)
	return nil
}

func (c *Catalog) RequestDelete(productID int64) (admin.PendingAction, error) {
	if err := c.requireAdmin(); err != nil {
		return admin.PendingAction{}, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pending = admin.PendingAction{Kind: admin.ActionDeleteProduct, ID: productID}
	return c.pending, nil
}

func (c *Catalog) CancelDelete() {
	c.mu.Lock()
	c.pending = admin.PendingAction{}
	c.mu.Unlock()
}

// ConfirmDelete deletes the pending product once and refetches the catalog.
func (c *Catalog) ConfirmDelete(ctx context.Context) error {
	if err := c.requireAdmin(); err != nil {
		return err
	}
	c.mu.Lock()
	a := c.pending
	c.pending = admin.PendingAction{}
	c.mu.Unlock()
	if a.IsZero() {
		return ErrNothingPending
	}

	c.deleteBoard.Clear()
	l := logging.FromContext(ctx).With("svc", "shop.delete_product", "product_id", a.ID)

	if err := c.api.DeleteProduct(ctx, a.ID); err != nil {
		fail := backend.Fail(err, MsgDeleteFailed, MsgNetwork)
		c.deleteBoard.Error(backend.UserMessage(fail))
		l.Warn("delete_product_failed", "error", err)
		return fail
	}
	l.Info("product_deleted")

	c.mu.Lock()
	if c.selected == a.ID {
		c.selected = 0
	}
	c.mu.Unlock()

	if err := c.Load(ctx); err != nil {
		c.deleteBoard.Error(MsgDeleted + " " + MsgRefreshFailed)
		return nil
	}
	c.deleteBoard.Success(MsgDeleted)
	return nil
}

func (c *Catalog) requireAdmin() error {
	id, ok := c.sess.Current()
	if guard.Evaluate(id, ok) != guard.Allow {
		return ErrNotAdmin
	}
	return nil
}

func (c *Catalog) View() View {
	c.mu.Lock()
	v := View{Sections: make([]Section, 0, len(c.order)), Error: c.errMsg}
	for _, st := range c.order {
		list := c.byState[st]
		n := c.shown[st]
		v.Sections = append(v.Sections, Section{
			State:    st,
			Products: append([]backend.Product{}, list[:n]...),
			Total:    len(list),
			HasMore:  n < len(list),
		})
	}
	if c.selected != 0 {
		if p := c.findLocked(c.selected); p != nil {
			cp := *p
			v.Selected = &cp
		}
	}
	if !c.pending.IsZero() {
		a := c.pending
		v.PendingDelete = &a
		v.ConfirmMessage = a.Message()
	}
	c.mu.Unlock()

	if n, ok := c.cartBoard.Current(); ok {
		v.CartNotice = &n
	}
	if n, ok := c.deleteBoard.Current(); ok {
		v.DeleteNotice = &n
	}
	return v
}
