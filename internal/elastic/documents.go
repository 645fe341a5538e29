package elastic

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/elastic/go-elasticsearch/v8/esapi"

	"github.com/davidschrooten/esmapper/internal/indexer"
)

type bulkAction struct {
	Index string `json:"_index"`
	ID    string `json:"_id"`
}

type bulkResponse struct {
	Errors bool `json:"errors"`
	Items  []map[string]struct {
		ID     string `json:"_id"`
		Status int    `json:"status"`
		Error  struct {
			Type   string `json:"type"`
			Reason string `json:"reason"`
		} `json:"error"`
	} `json:"items"`
}

// Bulk indexes docs in one request. Per-document rejections are reported in
// the result; only transport and request-level failures return an error.
// Documents are written typeless, so typeName is not sent.
func (c *Client) Bulk(ctx context.Context, index, typeName string, docs []indexer.Document) (indexer.BulkResult, error) {
	var result indexer.BulkResult
	if len(docs) == 0 {
		return result, nil
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for _, doc := range indexer.AssignIDs(docs) {
		if err := enc.Encode(map[string]bulkAction{"index": bulkAction{Index: index, ID: doc.ID}}); err != nil {
			return result, fmt.Errorf("failed to encode bulk action: %w", err)
		}
		if err := enc.Encode(doc.Source); err != nil {
			return result, fmt.Errorf("failed to encode document %s: %w", doc.ID, err)
		}
	}

	items, err := c.bulk(ctx, &buf)
	if err != nil {
		return result, err
	}
	for _, item := range items.Items {
		for _, r := range item {
			if r.Status >= 300 {
				result.Failed = append(result.Failed, indexer.BulkFailure{
					ID:     r.ID,
					Reason: r.Error.Type + ": " + r.Error.Reason,
				})
				continue
			}
			result.Indexed++
		}
	}
	return result, nil
}

// Delete removes documents by ID and returns how many existed
func (c *Client) Delete(ctx context.Context, index, typeName string, ids []string) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for _, id := range ids {
		if err := enc.Encode(map[string]bulkAction{"delete": bulkAction{Index: index, ID: id}}); err != nil {
			return 0, fmt.Errorf("failed to encode bulk action: %w", err)
		}
	}

	items, err := c.bulk(ctx, &buf)
	if err != nil {
		return 0, err
	}
	deleted := 0
	for _, item := range items.Items {
		for _, r := range item {
			if r.Status == http.StatusOK {
				deleted++
			}
		}
	}
	return deleted, nil
}

// DeleteOlderThan deletes every document whose field is below cutoff
func (c *Client) DeleteOlderThan(ctx context.Context, index, typeName, field string, cutoff int64) (int, error) {
	query := map[string]any{
		"query": map[string]any{
			"range": map[string]any{
				field: map[string]any{"lt": cutoff},
			},
		},
	}
	body, err := json.Marshal(query)
	if err != nil {
		return 0, fmt.Errorf("failed to encode query: %w", err)
	}

	res, err := c.es.DeleteByQuery(
		[]string{index},
		bytes.NewReader(body),
		c.es.DeleteByQuery.WithContext(ctx),
		c.es.DeleteByQuery.WithRefresh(c.refresh != "false"),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to delete by query on %s: %w", index, err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return 0, responseError(res)
	}

	var out struct {
		Deleted int `json:"deleted"`
	}
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return 0, fmt.Errorf("failed to decode delete-by-query response: %w", err)
	}
	return out.Deleted, nil
}

func (c *Client) bulk(ctx context.Context, body io.Reader) (*bulkResponse, error) {
	opts := []func(*esapi.BulkRequest){c.es.Bulk.WithContext(ctx)}
	if c.refresh != "" {
		opts = append(opts, c.es.Bulk.WithRefresh(c.refresh))
	}

	res, err := c.es.Bulk(body, opts...)
	if err != nil {
		return nil, fmt.Errorf("bulk request failed: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return nil, responseError(res)
	}

	var out bulkResponse
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode bulk response: %w", err)
	}
	return &out, nil
}
