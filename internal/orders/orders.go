package orders

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/Skotchmaster/storefront/internal/backend"
	"github.com/Skotchmaster/storefront/internal/session"
	"github.com/Skotchmaster/storefront/pkg/logging"
)

const (
	RecentLimit = 10

	MsgRecent       = "Showing the 10 most recent orders."
	MsgLoadFailed   = "Failed to fetch orders. Please try again."
	MsgNeedBothDate = "Please select both a start and end date."
	LoginPrompt     = "Please log in to view your orders."

	dateLayout    = "2006-01-02"
	displayLayout = "January 2, 2006"
)

var (
	ErrLoginRequired = session.ErrLoginRequired
	ErrDateRequired  = errors.New(MsgNeedBothDate)
	ErrBadDate       = errors.New("invalid date")
)

type API interface {
	MyOrders(ctx context.Context) ([]backend.Order, error)
}

type View struct {
	Orders        []backend.Order `json:"orders"`
	FilterMessage string          `json:"filter_message"`
	ExpandedID    int64           `json:"expanded_id,omitempty"`
	Start         string          `json:"start,omitempty"`
	End           string          `json:"end,omitempty"`
	Error         string          `json:"error,omitempty"`
}

// History is the order history view: the full list as fetched, and the
// subset currently shown.
type History struct {
	api  API
	sess session.Reader
	loc  *time.Location

	mu       sync.Mutex
	all      []backend.Order
	shown    []backend.Order
	message  string
	expanded int64
	start    string
	end      string
	errMsg   string
}

func NewHistory(api API, sess session.Reader, loc *time.Location) *History {
	if loc == nil {
		loc = time.Local
	}
	return &History{api: api, sess: sess, loc: loc, message: MsgRecent}
}

// Load fetches every order, newest first. An active date filter is kept.
func (h *History) Load(ctx context.Context) error {
	if _, ok := h.sess.Current(); !ok {
		return ErrLoginRequired
	}
	l := logging.FromContext(ctx).With("svc", "orders.load")

	list, err := h.api.MyOrders(ctx)
	if err != nil {
		h.mu.Lock()
		h.errMsg = MsgLoadFailed
		h.mu.Unlock()
		l.Warn("fetch_orders_failed", "error", err)
		return &backend.Failure{Message: MsgLoadFailed, Err: err}
	}

	slices.SortStableFunc(list, func(a, b backend.Order) int {
		return cmp.Compare(b.OrderDate.UnixNano(), a.OrderDate.UnixNano())
	})

	h.mu.Lock()
	defer h.mu.Unlock()
	h.all = list
	h.errMsg = ""
	if h.start == "" && h.end == "" {
		h.shown = recent(list)
		h.message = MsgRecent
	}
	l.Debug("orders loaded", "count", len(list))
	return nil
}

func recent(list []backend.Order) []backend.Order {
	return slices.Clone(list[:min(RecentLimit, len(list))])
}

// ApplyFilter shows orders placed between start and end, both given as
// YYYY-MM-DD and both inclusive of the whole day.
func (h *History) ApplyFilter(start, end string) error {
	start, end = strings.TrimSpace(start), strings.TrimSpace(end)
	if start == "" || end == "" {
		return ErrDateRequired
	}
	from, err := time.ParseInLocation(dateLayout, start, h.loc)
	if err != nil {
		return fmt.Errorf("%w: start %q", ErrBadDate, start)
	}
	to, err := time.ParseInLocation(dateLayout, end, h.loc)
	if err != nil {
		return fmt.Errorf("%w: end %q", ErrBadDate, end)
	}
	until := to.AddDate(0, 0, 1)

	h.mu.Lock()
	defer h.mu.Unlock()

	var out []backend.Order
	for _, o := range h.all {
		if !o.OrderDate.Before(from) && o.OrderDate.Before(until) {
			out = append(out, o)
		}
	}
	h.shown = out
	h.start, h.end = start, end
	h.message = fmt.Sprintf("Showing %d orders from %s to %s.", len(out), from.Format(displayLayout), to.Format(displayLayout))
	return nil
}

func (h *History) ClearFilter() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.start, h.end = "", ""
	h.shown = recent(h.all)
	h.message = MsgRecent
}

// Toggle expands orderID, or collapses it when it is already expanded.
func (h *History) Toggle(orderID int64) int64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.expanded == orderID {
		h.expanded = 0
	} else {
		h.expanded = orderID
	}
	return h.expanded
}

func (h *History) View() View {
	h.mu.Lock()
	defer h.mu.Unlock()
	shown := h.shown
	if shown == nil {
		shown = []backend.Order{}
	}
	return View{
		Orders:        slices.Clone(shown),
		FilterMessage: h.message,
		ExpandedID:    h.expanded,
		Start:         h.start,
		End:           h.end,
		Error:         h.errMsg,
	}
}

func (h *History) Reset() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.all, h.shown = nil, nil
	h.message = MsgRecent
	h.expanded = 0
	h.start, h.end = "", ""
	h.errMsg = ""
}
