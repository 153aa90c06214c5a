package search

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/elastic/go-elasticsearch/v9"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalculate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		page, size  int
		from, limit int
	}{
		{0, 0, 0, 10},
		{1, 20, 0, 20},
		{3, 20, 40, 20},
		{2, 500, 10, 10},
		{-4, 5, 0, 5},
	}
	for _, tt := range tests {
		from, limit := Calculate(tt.page, tt.size)
		assert.Equal(t, tt.from, from, "page=%d size=%d", tt.page, tt.size)
		assert.Equal(t, tt.limit, limit, "page=%d size=%d", tt.page, tt.size)
	}
}

// fakeES answers like an Elasticsearch node and keeps the last search body.
func fakeES(t *testing.T, status int, reply string) (*httptest.Server, *map[string]any) {
	t.Helper()
	var last map[string]any

	e := echo.New()
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			c.Response().Header().Set("X-Elastic-Product", "Elasticsearch")
			return next(c)
		}
	})
	e.GET("/", func(c echo.Context) error {
		return c.JSON(http.StatusOK, echo.Map{"version": echo.Map{"number": "9.0.0"}})
	})
	search := func(c echo.Context) error {
		raw, _ := io.ReadAll(c.Request().Body)
		_ = json.Unmarshal(raw, &last)
		return c.JSONBlob(status, []byte(reply))
	}
	e.POST("/product/_search", search)
	e.GET("/product/_search", search)

	srv := httptest.NewServer(e)
	t.Cleanup(srv.Close)
	return srv, &last
}

func newSearcher(t *testing.T, url string) *Searcher {
	t.Helper()
	es, err := NewClient(context.Background(), url, "", "")
	require.NoError(t, err)
	return New(es, "product")
}

func TestSearcher_Search(t *testing.T) {
	srv, last := fakeES(t, http.StatusOK, `{
		"hits": {
			"total": {"value": 23},
			"hits": [
				{"_source": {"id": 4, "name": "Banarasi silk", "price": 5400, "state": "Uttar Pradesh"}},
				{"_source": {"id": 9, "name": "Silk cotton", "price": "1250.50"}}
			]
		}
	}`)
	s := newSearcher(t, srv.URL)

	res, err := s.Search(context.Background(), "  silk ", 2, 5)
	require.NoError(t, err)
	assert.Equal(t, int64(23), res.Total)
	assert.Equal(t, 2, res.Page)
	assert.Equal(t, 5, res.Size)
	require.Len(t, res.Products, 2)
	assert.Equal(t, "Banarasi silk", res.Products[0].Name)
	assert.Equal(t, "1250.5", res.Products[1].Price.String())

	body := *last
	assert.EqualValues(t, 5, body["from"])
	assert.EqualValues(t, 5, body["size"])
	mm := body["query"].(map[string]any)["multi_match"].(map[string]any)
	assert.Equal(t, "silk", mm["query"])
	assert.Equal(t, "AUTO", mm["fuzziness"])
	assert.Equal(t, []any{"name^2", "description"}, mm["fields"])
}

func TestSearcher_ErrorStatus(t *testing.T) {
	srv, _ := fakeES(t, http.StatusBadRequest, `{"error":{"type":"parsing_exception"}}`)
	s := newSearcher(t, srv.URL)

	_, err := s.Search(context.Background(), "silk", 1, 10)
	require.Error(t, err)
}

func TestSearcher_Disabled(t *testing.T) {
	t.Parallel()

	var s *Searcher
	assert.False(t, s.Enabled())
	_, err := s.Search(context.Background(), "silk", 1, 10)
	require.ErrorIs(t, err, ErrDisabled)

	assert.Nil(t, New((*elasticsearch.Client)(nil), "product"))
}

func TestSearcher_EmptyQuery(t *testing.T) {
	srv, _ := fakeES(t, http.StatusOK, `{}`)
	s := newSearcher(t, srv.URL)

	_, err := s.Search(context.Background(), "   ", 1, 10)
	require.ErrorIs(t, err, ErrEmptyQuery)
}
