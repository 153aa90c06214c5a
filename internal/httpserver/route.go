package httpserver

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/storefront/internal/admin"
	"github.com/Skotchmaster/storefront/internal/backend"
	"github.com/Skotchmaster/storefront/internal/cart"
	"github.com/Skotchmaster/storefront/internal/checkout"
	"github.com/Skotchmaster/storefront/internal/events"
	"github.com/Skotchmaster/storefront/internal/guard"
	"github.com/Skotchmaster/storefront/internal/orders"
	"github.com/Skotchmaster/storefront/internal/search"
	"github.com/Skotchmaster/storefront/internal/session"
	"github.com/Skotchmaster/storefront/internal/shop"
)

type Deps struct {
	Session  *session.Store
	Cart     *cart.Manager
	Checkout *checkout.Orchestrator
	Orders   *orders.History
	Shop     *shop.Catalog
	Admin    *admin.Panel
	Search   *search.Searcher

	// Ready reports whether durable storage is reachable.
	Ready func(ctx context.Context) error
}

// NewDeps builds every view on top of one API client and one session.
func NewDeps(api *backend.Client, sess *session.Store, pub events.Publisher, searcher *search.Searcher, loc *time.Location, now func() time.Time) *Deps {
	cm := cart.NewManager(api, sess, pub)
	return &Deps{
		Session:  sess,
		Cart:     cm,
		Checkout: checkout.New(api, sess, pub),
		Orders:   orders.NewHistory(api, sess, loc),
		Shop:     shop.NewCatalog(api, cm, sess, now),
		Admin:    admin.NewPanel(api, now),
		Search:   searcher,
	}
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error {
		if d.Ready != nil {
			if err := d.Ready(c.Request().Context()); err != nil {
				return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": err.Error()})
			}
		}
		return c.NoContent(http.StatusOK)
	})

	h := &Handlers{d: d}

	auth := e.Group("/auth")
	auth.POST("/login", h.Login)
	auth.POST("/signup", h.Signup)
	auth.POST("/logout", h.Logout)
	auth.GET("/me", h.Me)

	sh := e.Group("/shop")
	sh.GET("", h.Shop)
	sh.POST("/more/:state", h.ShopMore)
	sh.GET("/search", h.Search)
	sh.GET("/products/:id", h.ShopSelect)
	sh.DELETE("/products/:id", h.ShopRequestDelete, guard.AdminOnly(d.Session))
	sh.POST("/confirm-delete", h.ShopConfirmDelete, guard.AdminOnly(d.Session))
	sh.POST("/cancel-delete", h.ShopCancelDelete, guard.AdminOnly(d.Session))

	ct := e.Group("/cart", guard.RequireLogin(d.Session, cart.LoginPrompt))
	ct.GET("", h.GetCart)
	ct.POST("/items", h.AddToCart)
	ct.PATCH("/items/:id/quantity", h.UpdateQuantity)
	ct.DELETE("/items/:id", h.RemoveFromCart)

	co := e.Group("/checkout", guard.RequireLogin(d.Session, checkout.LoginPrompt))
	co.GET("", h.Checkout)
	co.POST("", h.EnterCheckout)
	co.POST("/address", h.SelectAddress)
	co.POST("/address-form", h.OpenAddressForm)
	co.DELETE("/address-form", h.CloseAddressForm)
	co.POST("/addresses", h.AddAddress)
	co.POST("/payment", h.StartPayment)
	co.DELETE("/payment", h.CancelPayment)
	co.POST("/payment/callback", h.PaymentCallback)

	ord := e.Group("/orders", guard.RequireLogin(d.Session, orders.LoginPrompt))
	ord.GET("", h.Orders)
	ord.POST("/filter", h.FilterOrders)
	ord.DELETE("/filter", h.ClearOrderFilter)
	ord.POST("/:id/toggle", h.ToggleOrder)

	ad := e.Group("/admin", guard.AdminOnly(d.Session))
	ad.GET("", h.Dashboard)
	ad.POST("/categories", h.RequestCreateCategory)
	ad.DELETE("/categories/:id", h.RequestDeleteCategory)
	ad.POST("/products", h.RequestCreateProduct)
	ad.DELETE("/products/:id", h.RequestDeleteProduct)
	ad.GET("/pending", h.Pending)
	ad.POST("/confirm", h.Confirm)
	ad.POST("/cancel", h.Cancel)
}
