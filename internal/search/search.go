package search

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/elastic/go-elasticsearch/v9"

	"github.com/Skotchmaster/storefront/internal/backend"
	"github.com/Skotchmaster/storefront/pkg/logging"
)

var (
	ErrDisabled   = errors.New("search is not configured")
	ErrEmptyQuery = errors.New("query is empty")
)

type Results struct {
	Total    int64             `json:"total"`
	Page     int               `json:"page"`
	Size     int               `json:"size"`
	Products []backend.Product `json:"products"`
}

// Searcher runs full-text product queries against one Elasticsearch index.
// A nil *Searcher is valid and answers every query with ErrDisabled.
type Searcher struct {
	es    *elasticsearch.Client
	index string
}

func NewClient(ctx context.Context, url, user, password string) (*elasticsearch.Client, error) {
	l := logging.FromContext(ctx).With("svc", "search.connect")
	l.Info("connecting to elasticsearch", "url", url, "user", user)

	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: []string{url},
		Username:  user,
		Password:  password,
	})
	if err != nil {
		return nil, fmt.Errorf("create elasticsearch client: %w", err)
	}

	res, err := client.Info(client.Info.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("elasticsearch info: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		body, _ := io.ReadAll(io.LimitReader(res.Body, 4096))
		return nil, fmt.Errorf("elasticsearch info: %s: %s", res.Status(), bytes.TrimSpace(body))
	}

	l.Info("connected to elasticsearch")
	return client, nil
}

func New(es *elasticsearch.Client, index string) *Searcher {
	if es == nil {
		return nil
	}
	return &Searcher{es: es, index: index}
}

func (s *Searcher) Enabled() bool {
	return s != nil && s.es != nil
}

// Search matches query against product names and descriptions, names
// weighted double, with fuzzy matching.
func (s *Searcher) Search(ctx context.Context, query string, page, size int) (*Results, error) {
	if !s.Enabled() {
		return nil, ErrDisabled
	}
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrEmptyQuery
	}
	from, size := Calculate(page, size)
	if page < 1 {
		page = 1
	}

	body := map[string]any{
		"query": map[string]any{
			"multi_match": map[string]any{
				"query":     query,
				"fields":    []string{"name^2", "description"},
				"fuzziness": "AUTO",
			},
		},
		"from": from,
		"size": size,
	}
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return nil, fmt.Errorf("encode search body: %w", err)
	}

	res, err := s.es.Search(
		s.es.Search.WithContext(ctx),
		s.es.Search.WithIndex(s.index),
		s.es.Search.WithBody(&buf),
	)
	if err != nil {
		return nil, fmt.Errorf("search %s: %w", s.index, err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return nil, fmt.Errorf("search %s: %s", s.index, res.Status())
	}

	var r struct {
		Hits struct {
			Total struct {
				Value int64 `json:"value"`
			} `json:"total"`
			Hits []struct {
				Source backend.Product `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&r); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}

	out := &Results{
		Total:    r.Hits.Total.Value,
		Page:     page,
		Size:     size,
		Products: make([]backend.Product, len(r.Hits.Hits)),
	}
	for i, hit := range r.Hits.Hits {
		out.Products[i] = hit.Source
	}
	logging.FromContext(ctx).Debug("search done", "query", query, "total", out.Total)
	return out, nil
}
