// Package elastic talks to an Elasticsearch cluster through go-elasticsearch.
package elastic

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	"github.com/davidschrooten/esmapper/config"
	"github.com/davidschrooten/esmapper/internal/indexer"
	"github.com/davidschrooten/esmapper/internal/schema"
)

// Client creates indexes and writes documents on a remote cluster
type Client struct {
	es      *elasticsearch.Client
	refresh string
}

// NewClient creates a client from configuration
func NewClient(cfg config.ElasticsearchConfig) (*Client, error) {
	esCfg := elasticsearch.Config{
		Addresses: cfg.Addresses,
		Username:  cfg.Username,
		Password:  cfg.Password,
	}
	if cfg.Timeout > 0 {
		esCfg.Transport = &http.Transport{
			ResponseHeaderTimeout: time.Duration(cfg.Timeout) * time.Second,
		}
	}

	es, err := elasticsearch.NewClient(esCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create elasticsearch client: %w", err)
	}
	return &Client{es: es, refresh: cfg.Refresh}, nil
}

// IndexExists reports whether the named index exists
func (c *Client) IndexExists(ctx context.Context, name string) (bool, error) {
	res, err := c.es.Indices.Exists(
		[]string{name},
		c.es.Indices.Exists.WithContext(ctx),
	)
	if err != nil {
		return false, fmt.Errorf("failed to check index %s: %w", name, err)
	}
	defer res.Body.Close()

	switch res.StatusCode {
	case http.StatusOK:
		return true, nil
	case http.StatusNotFound:
		return false, nil
	default:
		return false, responseError(res)
	}
}

// CreateIndex creates the index described by s with its settings and mapping.
// The body is always typeless; the v8 client only targets typeless clusters.
func (c *Client) CreateIndex(ctx context.Context, s *schema.Schema) error {
	body, err := json.Marshal(s.Body(false))
	if err != nil {
		return fmt.Errorf("failed to encode index body: %w", err)
	}

	res, err := c.es.Indices.Create(
		s.IndexName,
		c.es.Indices.Create.WithBody(bytes.NewReader(body)),
		c.es.Indices.Create.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("failed to create index %s: %w", s.IndexName, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return responseError(res)
	}
	return nil
}

// Error is a non-2xx answer from the cluster
type Error struct {
	Status int
	Type   string
	Reason string
}

func (e *Error) Error() string {
	if e.Type == "" {
		return fmt.Sprintf("elasticsearch: status %d", e.Status)
	}
	return fmt.Sprintf("elasticsearch: status %d: %s: %s", e.Status, e.Type, e.Reason)
}

// Is reports a missing index as indexer.ErrIndexNotFound
func (e *Error) Is(target error) bool {
	return target == indexer.ErrIndexNotFound && e.Type == "index_not_found_exception"
}

func responseError(res *esapi.Response) error {
	e := &Error{Status: res.StatusCode}
	var payload struct {
		Error struct {
			Type   string `json:"type"`
			Reason string `json:"reason"`
		} `json:"error"`
	}
	if data, err := io.ReadAll(res.Body); err == nil && json.Unmarshal(data, &payload) == nil {
		e.Type = payload.Error.Type
		e.Reason = payload.Error.Reason
	}
	return e
}
