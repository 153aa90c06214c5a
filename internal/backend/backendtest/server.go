// Package backendtest runs an in-process fake of the shop backend for tests.
package backendtest

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/storefront/internal/backend"
)

type Call struct {
	Method        string
	Path          string
	Authorization string
	Headers       map[string]string
	Body          []byte
}

type route struct {
	method, path string
	h            echo.HandlerFunc
}

// Server answers from a router rebuilt on every Handle. echo pools request
// contexts sized for the routes known when they were made, so adding a route
// with path params to a router that already served requests is not safe.
type Server struct {
	*httptest.Server

	e atomic.Pointer[echo.Echo]

	mu     sync.Mutex
	routes []route
	calls  []Call
}

func New(t *testing.T) *Server {
	t.Helper()

	s := &Server{}
	s.e.Store(s.build(nil))
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.e.Load().ServeHTTP(w, r)
	}))
	t.Cleanup(s.Close)
	return s
}

func (s *Server) build(routes []route) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Pre(s.record)
	for _, r := range routes {
		e.Add(r.method, r.path, r.h)
	}
	return e
}

func (s *Server) record(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		req := c.Request()
		var body []byte
		if req.Body != nil {
			body, _ = io.ReadAll(req.Body)
			req.Body = io.NopCloser(bytes.NewReader(body))
		}

		s.mu.Lock()
		s.calls = append(s.calls, Call{
			Method:        req.Method,
			Path:          req.URL.Path,
			Authorization: req.Header.Get(echo.HeaderAuthorization),
			Headers: map[string]string{
				"Idempotency-Key":     req.Header.Get("Idempotency-Key"),
				echo.HeaderXRequestID: req.Header.Get(echo.HeaderXRequestID),
			},
			Body: body,
		})
		s.mu.Unlock()
		return next(c)
	}
}

// Handle registers h, replacing any earlier handler for method and path.
// Routes may be added at any point, including after requests were served.
func (s *Server) Handle(method, path string, h echo.HandlerFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.routes = append(s.routes, route{method: method, path: path, h: h})
	s.e.Store(s.build(s.routes))
}

// JSON registers a handler that always answers with status and body.
func (s *Server) JSON(method, path string, status int, body any) {
	s.Handle(method, path, func(c echo.Context) error {
		return c.JSON(status, body)
	})
}

func (s *Server) Calls() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Call, len(s.calls))
	copy(out, s.calls)
	return out
}

func (s *Server) Count(method, path string) int {
	n := 0
	for _, c := range s.Calls() {
		if c.Method == method && c.Path == path {
			n++
		}
	}
	return n
}

func (s *Server) Last(method, path string) (Call, bool) {
	calls := s.Calls()
	for i := len(calls) - 1; i >= 0; i-- {
		if calls[i].Method == method && calls[i].Path == path {
			return calls[i], true
		}
	}
	return Call{}, false
}

func (s *Server) Client() *backend.Client {
	return backend.NewClient(s.URL, 5*time.Second)
}

// StaticToken is a fixed credential source.
type StaticToken string

func (t StaticToken) Credential() string { return string(t) }
