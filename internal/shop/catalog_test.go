package shop

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/storefront/internal/backend"
	"github.com/Skotchmaster/storefront/internal/backend/backendtest"
	"github.com/Skotchmaster/storefront/internal/cart"
	"github.com/Skotchmaster/storefront/internal/notice"
	"github.com/Skotchmaster/storefront/internal/session"
)

type fakeSession struct {
	id session.Identity
	ok bool
}

func (f *fakeSession) Current() (session.Identity, bool) { return f.id, f.ok }

var (
	shopper = &fakeSession{id: session.Identity{ID: 2}, ok: true}
	owner   = &fakeSession{id: session.Identity{ID: 1, IsAdmin: true}, ok: true}
)

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

func products(state string, n int, firstID int64) []backend.Product {
	out := make([]backend.Product, n)
	for i := range out {
		out[i] = backend.Product{ID: firstID + int64(i), Name: fmt.Sprintf("%s %d", state, i), State: state}
	}
	return out
}

func catalogServer(t *testing.T, list []backend.Product) *backendtest.Server {
	t.Helper()
	srv := backendtest.New(t)
	srv.JSON(http.MethodGet, "/api/products-with-category", http.StatusOK, echo.Map{"products": list})
	return srv
}

func TestCatalog_GroupsByStateAndPages(t *testing.T) {
	list := append(products("Kerala", 14, 100), products("", 2, 200)...)
	srv := catalogServer(t, list)
	c := NewCatalog(srv.Client(), nil, shopper, nil)
	require.NoError(t, c.Load(context.Background()))

	v := c.View()
	require.Len(t, v.Sections, 2)
	assert.Equal(t, "Kerala", v.Sections[0].State)
	assert.Len(t, v.Sections[0].Products, 6)
	assert.Equal(t, 14, v.Sections[0].Total)
	assert.True(t, v.Sections[0].HasMore)
	assert.Equal(t, UnknownState, v.Sections[1].State)
	assert.Len(t, v.Sections[1].Products, 2)
	assert.False(t, v.Sections[1].HasMore)

	n, err := c.ViewMore("Kerala")
	require.NoError(t, err)
	assert.Equal(t, 12, n)
	n, err = c.ViewMore("Kerala")
	require.NoError(t, err)
	assert.Equal(t, 14, n)
	assert.False(t, c.View().Sections[0].HasMore)

	_, err = c.ViewMore("Goa")
	require.ErrorIs(t, err, ErrUnknownState)
}

func TestCatalog_SelectProduct(t *testing.T) {
	srv := catalogServer(t, products("Assam", 2, 1))
	c := NewCatalog(srv.Client(), nil, shopper, nil)
	require.NoError(t, c.Load(context.Background()))

	require.NoError(t, c.Select(2))
	require.NotNil(t, c.View().Selected)
	assert.Equal(t, int64(2), c.View().Selected.ID)

	require.ErrorIs(t, c.Select(99), ErrUnknownProduct)
	require.NoError(t, c.Select(0))
	assert.Nil(t, c.View().Selected)
}

type stubCart struct {
	err   error
	added []int64
}

func (s *stubCart) Add(_ context.Context, productID int64) error {
	if s.err != nil {
		return s.err
	}
	s.added = append(s.added, productID)
	return nil
}

func TestCatalog_AddToCartFlashesNotice(t *testing.T) {
	clk := &clock{t: time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)}
	sc := &stubCart{}
	c := NewCatalog(nil, sc, shopper, clk.now)

	require.NoError(t, c.AddToCart(context.Background(), 5))
	assert.Equal(t, []int64{5}, sc.added)
	require.NotNil(t, c.View().CartNotice)
	assert.Equal(t, MsgAdded, c.View().CartNotice.Text)

	clk.t = clk.t.Add(notice.SuccessTTL)
	assert.Nil(t, c.View().CartNotice)

	sc.err = &backend.Failure{Message: "Out of stock", Err: errors.New("status 400")}
	require.Error(t, c.AddToCart(context.Background(), 5))
	assert.Equal(t, "Out of stock", c.View().CartNotice.Text)
	assert.Equal(t, notice.LevelError, c.View().CartNotice.Level)
}

func TestCatalog_AddToCartNeedsLogin(t *testing.T) {
	sc := &stubCart{}
	c := NewCatalog(nil, sc, &fakeSession{}, nil)

	require.ErrorIs(t, c.AddToCart(context.Background(), 5), session.ErrLoginRequired)
	assert.Empty(t, sc.added)
}

func TestCatalog_AddToCartThroughCartManager(t *testing.T) {
	srv := backendtest.New(t)
	srv.JSON(http.MethodPost, "/api/cart", http.StatusBadRequest, echo.Map{})
	c := NewCatalog(nil, cart.NewManager(srv.Client(), shopper, nil), shopper, nil)

	require.Error(t, c.AddToCart(context.Background(), 5))
	assert.Equal(t, MsgAddFailed, c.View().CartNotice.Text)
}

func TestCatalog_DeleteNeedsAdmin(t *testing.T) {
	srv := catalogServer(t, products("Goa", 1, 1))
	c := NewCatalog(srv.Client(), nil, shopper, nil)

	_, err := c.RequestDelete(1)
	require.ErrorIs(t, err, ErrNotAdmin)
	require.ErrorIs(t, c.ConfirmDelete(context.Background()), ErrNotAdmin)
	assert.Empty(t, srv.Calls())
}

func TestCatalog_ConfirmDeleteRefetches(t *testing.T) {
	srv := catalogServer(t, products("Goa", 3, 1))
	srv.JSON(http.MethodDelete, "/api/products/:id", http.StatusOK, echo.Map{"message": "deleted"})
	c := NewCatalog(srv.Client(), nil, owner, nil)
	ctx := context.Background()
	require.NoError(t, c.Load(ctx))

	a, err := c.RequestDelete(2)
	require.NoError(t, err)
	assert.Equal(t, "Are you sure you want to delete this product?", c.View().ConfirmMessage)
	assert.Equal(t, int64(2), a.ID)

	require.NoError(t, c.ConfirmDelete(ctx))
	assert.Equal(t, 1, srv.Count(http.MethodDelete, "/api/products/2"))
	assert.Equal(t, 2, srv.Count(http.MethodGet, "/api/products-with-category"))
	assert.Equal(t, MsgDeleted, c.View().DeleteNotice.Text)
	assert.Nil(t, c.View().PendingDelete)

	require.ErrorIs(t, c.ConfirmDelete(ctx), ErrNothingPending)
}

func TestCatalog_ConfirmDeleteShowsFailedRefetch(t *testing.T) {
	srv := catalogServer(t, products("Goa", 3, 1))
	srv.JSON(http.MethodDelete, "/api/products/:id", http.StatusOK, echo.Map{"message": "deleted"})
	c := NewCatalog(srv.Client(), nil, owner, nil)
	ctx := context.Background()
	require.NoError(t, c.Load(ctx))

	srv.Handle(http.MethodGet, "/api/products-with-category", func(ec echo.Context) error {
		return ec.NoContent(http.StatusBadGateway)
	})
	_, err := c.RequestDelete(2)
	require.NoError(t, err)
	require.NoError(t, c.ConfirmDelete(ctx))

	v := c.View()
	require.NotNil(t, v.DeleteNotice)
	assert.Equal(t, notice.LevelError, v.DeleteNotice.Level)
	assert.Equal(t, MsgDeleted+" "+MsgRefreshFailed, v.DeleteNotice.Text)
	assert.Equal(t, MsgCatalogFailed, v.Error)
	assert.Equal(t, 1, srv.Count(http.MethodDelete, "/api/products/2"))
}

func TestCatalog_CancelDelete(t *testing.T) {
	srv := catalogServer(t, products("Goa", 3, 1))
	c := NewCatalog(srv.Client(), nil, owner, nil)

	_, err := c.RequestDelete(2)
	require.NoError(t, err)
	c.CancelDelete()

	require.ErrorIs(t, c.ConfirmDelete(context.Background()), ErrNothingPending)
	assert.Empty(t, srv.Calls())
}
