package orders

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/storefront/internal/backend"
	"github.com/Skotchmaster/storefront/internal/backend/backendtest"
	"github.com/Skotchmaster/storefront/internal/session"
)

type fakeSession struct{ ok bool }

func (f fakeSession) Current() (session.Identity, bool) { return session.Identity{ID: 1}, f.ok }

func order(id int64, ts string) backend.Order {
	at, err := time.Parse(time.RFC3339, ts)
	if err != nil {
		panic(err)
	}
	return backend.Order{ID: id, OrderDate: at, Status: "pending", TotalAmount: decimal.NewFromInt(id * 100)}
}

func TestHistory_ShowsTenMostRecent(t *testing.T) {
	var list []backend.Order
	for i := int64(1); i <= 12; i++ {
		list = append(list, order(i, time.Date(2025, 1, int(i), 12, 0, 0, 0, time.UTC).Format(time.RFC3339)))
	}
	srv := backendtest.New(t)
	srv.JSON(http.MethodGet, "/api/my-orders", http.StatusOK, echo.Map{"orders": list})

	h := NewHistory(srv.Client(), fakeSession{ok: true}, time.UTC)
	require.NoError(t, h.Load(context.Background()))

	v := h.View()
	require.Len(t, v.Orders, 10)
	assert.Equal(t, int64(12), v.Orders[0].ID)
	assert.Equal(t, int64(3), v.Orders[9].ID)
	assert.Equal(t, MsgRecent, v.FilterMessage)
}

func TestHistory_FilterIncludesWholeEndDay(t *testing.T) {
	srv := backendtest.New(t)
	srv.JSON(http.MethodGet, "/api/my-orders", http.StatusOK, echo.Map{"orders": []backend.Order{
		order(1, "2025-03-01T00:00:00Z"),
		order(2, "2025-03-05T23:59:59Z"),
		order(3, "2025-03-06T00:00:00Z"),
		order(4, "2025-02-28T23:59:59Z"),
	}})

	h := NewHistory(srv.Client(), fakeSession{ok: true}, time.UTC)
	require.NoError(t, h.Load(context.Background()))

	require.NoError(t, h.ApplyFilter("2025-03-01", "2025-03-05"))
	v := h.View()
	require.Len(t, v.Orders, 2)
	assert.ElementsMatch(t, []int64{1, 2}, []int64{v.Orders[0].ID, v.Orders[1].ID})
	assert.Equal(t, "Showing 2 orders from March 1, 2025 to March 5, 2025.", v.FilterMessage)

	require.NoError(t, h.Load(context.Background()))
	assert.Len(t, h.View().Orders, 2, "reload keeps the active filter")

	h.ClearFilter()
	assert.Len(t, h.View().Orders, 4)
	assert.Equal(t, MsgRecent, h.View().FilterMessage)
}

func TestHistory_FilterNeedsBothDates(t *testing.T) {
	h := NewHistory(nil, fakeSession{ok: true}, time.UTC)

	err := h.ApplyFilter("2025-03-01", "")
	require.ErrorIs(t, err, ErrDateRequired)
	assert.Equal(t, "Please select both a start and end date.", err.Error())
	require.ErrorIs(t, h.ApplyFilter("03/01/2025", "2025-03-05"), ErrBadDate)
}

func TestHistory_LoadFailure(t *testing.T) {
	srv := backendtest.New(t)
	srv.JSON(http.MethodGet, "/api/my-orders", http.StatusInternalServerError, echo.Map{"error": "db down"})

	h := NewHistory(srv.Client(), fakeSession{ok: true}, time.UTC)
	err := h.Load(context.Background())
	require.Error(t, err)
	assert.Equal(t, MsgLoadFailed, backend.UserMessage(err))
	assert.Equal(t, MsgLoadFailed, h.View().Error)
}

func TestHistory_RequiresLogin(t *testing.T) {
	srv := backendtest.New(t)
	h := NewHistory(srv.Client(), fakeSession{}, time.UTC)

	require.ErrorIs(t, h.Load(context.Background()), ErrLoginRequired)
	assert.Empty(t, srv.Calls())
}

func TestHistory_Toggle(t *testing.T) {
	h := NewHistory(nil, fakeSession{ok: true}, time.UTC)

	assert.Equal(t, int64(5), h.Toggle(5))
	assert.Equal(t, int64(6), h.Toggle(6))
	assert.Equal(t, int64(0), h.Toggle(6))
	assert.Zero(t, h.View().ExpandedID)
}
