package admin

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Skotchmaster/storefront/internal/backend"
	"github.com/Skotchmaster/storefront/internal/notice"
	"github.com/Skotchmaster/storefront/pkg/logging"
)

const (
	MsgProductAdded      = "Product added successfully!"
	MsgCategoryAdded     = "Category added!"
	MsgCategoryDeleted   = "Category deleted!"
	MsgProductDeleted    = "Product deleted!"
	MsgAddProductFailed  = "Failed to add product."
	MsgAddCategoryFailed = "Failed to add category."
	MsgDelCategoryFailed = "Failed to delete category."
	MsgDelProductFailed  = "Failed to delete product."
	MsgNetwork           = "Network error. Please try again."
	MsgEmptyCategoryName = "Category name cannot be empty."
	MsgEmptyStateName    = "State name cannot be empty."
	MsgEmptyProductName  = "Product name cannot be empty."
	MsgInvalidPrice      = "Price must be greater than zero."
	MsgDashboardFailed   = "Failed to load dashboard."
	MsgRefreshFailed     = "The list could not be refreshed."
)

var (
	ErrValidation     = errors.New("validation failed")
	ErrNothingPending = errors.New("no action awaiting confirmation")
)

type API interface {
	ListCategories(ctx context.Context) ([]backend.Category, error)
	CreateCategory(ctx context.Context, name, state string) error
	DeleteCategory(ctx context.Context, id int64) error
	ListProducts(ctx context.Context) ([]backend.Product, error)
	CreateProduct(ctx context.Context, in backend.ProductInput) error
	DeleteProduct(ctx context.Context, id int64) error
	SalesTrend(ctx context.Context) ([]backend.SalesPoint, error)
	TopProducts(ctx context.Context) ([]backend.TopProduct, error)
	CategorySales(ctx context.Context) ([]backend.CategorySales, error)
}

type Dashboard struct {
	SalesTrend    []backend.SalesPoint    `json:"sales_trend"`
	TopProducts   []backend.TopProduct    `json:"top_products"`
	CategorySales []backend.CategorySales `json:"category_sales"`
}

type View struct {
	Categories     []backend.Category `json:"categories"`
	Products       []backend.Product  `json:"products"`
	Pending        *PendingAction     `json:"pending,omitempty"`
	ConfirmMessage string             `json:"confirm_message,omitempty"`
	ProductNotice  *notice.Notice     `json:"product_notice,omitempty"`
	CategoryNotice *notice.Notice     `json:"category_notice,omitempty"`
}

// Panel is the admin management view. Every create and delete is first
// captured as a PendingAction and only runs on Confirm.
type Panel struct {
	api API

	mu         sync.Mutex
	categories []backend.Category
	products   []backend.Product
	pending    PendingAction

	productBoard  *notice.Board
	categoryBoard *notice.Board
}

func NewPanel(api API, now func() time.Time) *Panel {
	return &Panel{
		api:           api,
		productBoard:  notice.NewBoard(now),
		categoryBoard: notice.NewBoard(now),
	}
}

// Load fetches categories and products together.
func (p *Panel) Load(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return p.refreshCategories(gctx) })
	g.Go(func() error { return p.refreshProducts(gctx) })
	return g.Wait()
}

func (p *Panel) refreshCategories(ctx context.Context) error {
	cats, err := p.api.ListCategories(ctx)
	if err != nil {
		logging.FromContext(ctx).Warn("fetch_categories_failed", "error", err)
		return fmt.Errorf("list categories: %w", err)
	}
	p.mu.Lock()
	p.categories = cats
	p.mu.Unlock()
	return nil
}

func (p *Panel) refreshProducts(ctx context.Context) error {
	prods, err := p.api.ListProducts(ctx)
	if err != nil {
		logging.FromContext(ctx).Warn("fetch_products_failed", "error", err)
		return fmt.Errorf("list products: %w", err)
	}
	p.mu.Lock()
	p.products = prods
	p.mu.Unlock()
	return nil
}

func invalid(msg string) error {
	return &backend.Failure{Message: msg, Err: ErrValidation}
}

func (p *Panel) stage(a PendingAction) PendingAction {
	p.mu.Lock()
	p.pending = a
	p.mu.Unlock()
	return a
}

func (p *Panel) RequestCreateProduct(in backend.ProductInput) (PendingAction, error) {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		p.productBoard.Show(notice.LevelError, MsgEmptyProductName, 0)
		return PendingAction{}, invalid(MsgEmptyProductName)
	}
	if !in.Price.IsPositive() {
		p.productBoard.Show(notice.LevelError, MsgInvalidPrice, 0)
		return PendingAction{}, invalid(MsgInvalidPrice)
	}
	p.productBoard.Clear()
	return p.stage(PendingAction{Kind: ActionCreateProduct, Product: &in}), nil
}

func (p *Panel) RequestCreateCategory(name, state string) (PendingAction, error) {
	name, state = strings.TrimSpace(name), strings.TrimSpace(state)
	if name == "" {
		p.categoryBoard.Show(notice.LevelError, MsgEmptyCategoryName, 0)
		return PendingAction{}, invalid(MsgEmptyCategoryName)
	}
	if state == "" {
		p.categoryBoard.Show(notice.LevelError, MsgEmptyStateName, 0)
		return PendingAction{}, invalid(MsgEmptyStateName)
	}
	p.categoryBoard.Clear()
	return p.stage(PendingAction{Kind: ActionCreateCategory, Category: &CategoryInput{Name: name, State: state}}), nil
}

func (p *Panel) RequestDeleteCategory(id int64) PendingAction {
	return p.stage(PendingAction{Kind: ActionDeleteCategory, ID: id})
}

func (p *Panel) RequestDeleteProduct(id int64) PendingAction {
	return p.stage(PendingAction{Kind: ActionDeleteProduct, ID: id})
}

func (p *Panel) Pending() (PendingAction, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.pending, !p.pending.IsZero()
}

// Cancel discards the pending action. Nothing is sent.
func (p *Panel) Cancel() {
	p.mu.Lock()
	p.pending = PendingAction{}
	p.mu.Unlock()
}

// Confirm runs the pending action once and then refetches the list it
// touched. The action is taken before it runs, so a second Confirm finds
// nothing to do.
func (p *Panel) Confirm(ctx context.Context) error {
	p.mu.Lock()
	a := p.pending
	p.pending = PendingAction{}
	p.mu.Unlock()

	if a.IsZero() {
		return ErrNothingPending
	}

	l := logging.FromContext(ctx).With("svc", "admin.confirm", "action", a.Kind.String())

	var (
		err      error
		board    *notice.Board
		fallback string
		success  string
		refresh  func(context.Context) error
	)
	switch a.Kind {
	case ActionCreateProduct:
		err = p.api.CreateProduct(ctx, *a.Product)
		board, fallback, success, refresh = p.productBoard, MsgAddProductFailed, MsgProductAdded, p.refreshProducts
	case ActionCreateCategory:
		err = p.api.CreateCategory(ctx, a.Category.Name, a.Category.State)
		board, fallback, success, refresh = p.categoryBoard, MsgAddCategoryFailed, MsgCategoryAdded, p.refreshCategories
	case ActionDeleteCategory:
		err = p.api.DeleteCategory(ctx, a.ID)
		board, fallback, success, refresh = p.categoryBoard, MsgDelCategoryFailed, MsgCategoryDeleted, p.refreshCategories
	case ActionDeleteProduct:
		err = p.api.DeleteProduct(ctx, a.ID)
		board, fallback, success, refresh = p.productBoard, MsgDelProductFailed, MsgProductDeleted, p.refreshProducts
	default:
		return fmt.Errorf("unknown pending action %d", a.Kind)
	}

	if err != nil {
		fail := backend.Fail(err, fallback, MsgNetwork)
		board.Show(notice.LevelError, backend.UserMessage(fail), 0)
		l.Warn("admin_action_failed", "id", a.ID, "error", err)
		return fail
	}

	l.Info("admin_action_done", "id", a.ID)

	// The mutation went through either way; a failed refetch only leaves the list stale.
	if err := refresh(ctx); err != nil {
		board.Show(notice.LevelError, success+" "+MsgRefreshFailed, 0)
		return nil
	}
	board.Show(notice.LevelSuccess, success, notice.AdminTTL)
	return nil
}

// Dashboard reads the three sales aggregates in parallel.
func (p *Panel) Dashboard(ctx context.Context) (*Dashboard, error) {
	var d Dashboard
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		d.SalesTrend, err = p.api.SalesTrend(gctx)
		return err
	})
	g.Go(func() (err error) {
		d.TopProducts, err = p.api.TopProducts(gctx)
		return err
	})
	g.Go(func() (err error) {
		d.CategorySales, err = p.api.CategorySales(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		logging.FromContext(ctx).Warn("fetch_dashboard_failed", "error", err)
		return nil, backend.Fail(err, MsgDashboardFailed, MsgNetwork)
	}
	return &d, nil
}

func (p *Panel) View() View {
	p.mu.Lock()
	v := View{
		Categories: append([]backend.Category{}, p.categories...),
		Products:   append([]backend.Product{}, p.products...),
	}
	if !p.pending.IsZero() {
		a := p.pending
		v.Pending = &a
		v.ConfirmMessage = a.Message()
	}
	p.mu.Unlock()

	if n, ok := p.productBoard.Current(); ok {
		v.ProductNotice = &n
	}
	if n, ok := p.categoryBoard.Current(); ok {
		v.CategoryNotice = &n
	}
	return v
}
