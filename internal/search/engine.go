// Package search is a local index backend built on bleve. It accepts the
// same compiled schemas as a remote cluster so models can be indexed and
// checked without one.
package search

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/blevesearch/bleve/v2"

	"github.com/davidschrooten/esmapper/config"
	"github.com/davidschrooten/esmapper/internal/indexer"
	"github.com/davidschrooten/esmapper/internal/schema"
)

// ErrIndexNotFound is returned for operations on an index that was never created
var ErrIndexNotFound = indexer.ErrIndexNotFound

// purgePageSize bounds how many matches DeleteOlderThan removes per pass
const purgePageSize = 1000

// Engine manages multiple Bleve indexes, one directory per index
type Engine struct {
	indexes   map[string]bleve.Index
	indexPath string
	mutex     sync.RWMutex
	logger    *slog.Logger
}

// IndexInfo represents information about an index
type IndexInfo struct {
	Name     string `json:"name"`
	DocCount uint64 `json:"docCount"`
	Status   string `json:"status"`
}

// NewEngine creates a new search engine rooted at cfg.IndexPath
func NewEngine(cfg config.SearchConfig, logger *slog.Logger) (*Engine, error) {
	if err := os.MkdirAll(cfg.IndexPath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create index directory: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Engine{
		indexes:   make(map[string]bleve.Index),
		indexPath: cfg.IndexPath,
		logger:    logger.With("component", "bleve"),
	}, nil
}

// IndexExists reports whether the index is open or present on disk
func (e *Engine) IndexExists(ctx context.Context, name string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	e.mutex.RLock()
	_, open := e.indexes[name]
	e.mutex.RUnlock()
	if open {
		return true, nil
	}

	_, err := os.Stat(filepath.Join(e.indexPath, name))
	switch {
	case err == nil:
		return true, nil
	case os.IsNotExist(err):
		return false, nil
	default:
		return false, fmt.Errorf("failed to stat index %s: %w", name, err)
	}
}

// CreateIndex creates a Bleve index from the compiled schema. An index that
// already exists on disk is opened instead.
func (e *Engine) CreateIndex(ctx context.Context, s *schema.Schema) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	e.mutex.Lock()
	defer e.mutex.Unlock()

	indexName := s.IndexName
	if _, exists := e.indexes[indexName]; exists {
		return nil
	}

	indexMapping, err := buildIndexMapping(s)
	if err != nil {
		return err
	}

	indexPath := filepath.Join(e.indexPath, indexName)
	index, err := bleve.Open(indexPath)
	if err != nil {
		index, err = bleve.New(indexPath, indexMapping)
		if err != nil {
			return fmt.Errorf("failed to create index %s: %w", indexName, err)
		}
		e.logger.Info("created index", "index", indexName, "path", indexPath)
	}

	e.indexes[indexName] = index
	return nil
}

// GetIndex returns an open index by name, opening it from disk if needed
func (e *Engine) GetIndex(indexName string) (bleve.Index, error) {
	e.mutex.RLock()
	index, exists := e.indexes[indexName]
	e.mutex.RUnlock()
	if exists {
		return index, nil
	}

	e.mutex.Lock()
	defer e.mutex.Unlock()
	if index, exists := e.indexes[indexName]; exists {
		return index, nil
	}
	indexPath := filepath.Join(e.indexPath, indexName)
	if _, err := os.Stat(indexPath); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrIndexNotFound, indexName)
	}
	index, err := bleve.Open(indexPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open index %s: %w", indexName, err)
	}
	e.indexes[indexName] = index
	return index, nil
}

// ListIndexes returns every index under the index path, sorted by name.
// Indexes not yet open are opened to read their document count.
func (e *Engine) ListIndexes() ([]IndexInfo, error) {
	entries, err := os.ReadDir(e.indexPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read index directory: %w", err)
	}

	indexes := make([]IndexInfo, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		info := IndexInfo{Name: entry.Name(), Status: "active"}
		index, err := e.GetIndex(entry.Name())
		if err != nil {
			e.logger.Warn("failed to open index", "index", entry.Name(), "error", err)
			info.Status = "unreadable"
			indexes = append(indexes, info)
			continue
		}
		if info.DocCount, err = index.DocCount(); err != nil {
			info.Status = "unreadable"
		}
		indexes = append(indexes, info)
	}
	sort.Slice(indexes, func(i, j int) bool { return indexes[i].Name < indexes[j].Name })
	return indexes, nil
}

// RemoveIndex closes an index if open and deletes it from disk
func (e *Engine) RemoveIndex(indexName string) error {
	e.mutex.Lock()
	defer e.mutex.Unlock()

	indexPath := filepath.Join(e.indexPath, indexName)
	if index, open := e.indexes[indexName]; open {
		if err := index.Close(); err != nil {
			return fmt.Errorf("failed to close index %s: %w", indexName, err)
		}
		delete(e.indexes, indexName)
	} else if _, err := os.Stat(indexPath); err != nil {
		return fmt.Errorf("%w: %s", ErrIndexNotFound, indexName)
	}

	if err := os.RemoveAll(indexPath); err != nil {
		return fmt.Errorf("failed to remove index directory %s: %w", indexPath, err)
	}
	e.logger.Info("removed index", "index", indexName, "path", indexPath)
	return nil
}

// Bulk indexes docs in a single batch. typeName is unused: a bleve index
// holds one document mapping.
func (e *Engine) Bulk(ctx context.Context, index, typeName string, docs []indexer.Document) (indexer.BulkResult, error) {
	var result indexer.BulkResult
	if err := ctx.Err(); err != nil {
		return result, err
	}
	idx, err := e.GetIndex(index)
	if err != nil {
		return result, err
	}

	batch := idx.NewBatch()
	for _, doc := range indexer.AssignIDs(docs) {
		source, err := toMap(doc.Source)
		if err == nil {
			err = batch.Index(doc.ID, source)
		}
		if err != nil {
			result.Failed = append(result.Failed, indexer.BulkFailure{ID: doc.ID, Reason: err.Error()})
			continue
		}
		result.Indexed++
	}

	if err := idx.Batch(batch); err != nil {
		return indexer.BulkResult{}, fmt.Errorf("failed to execute batch on %s: %w", index, err)
	}
	return result, nil
}

// Delete removes documents by ID and returns how many existed
func (e *Engine) Delete(ctx context.Context, index, typeName string, ids []string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	idx, err := e.GetIndex(index)
	if err != nil {
		return 0, err
	}

	batch := idx.NewBatch()
	deleted := 0
	for _, id := range ids {
		doc, err := idx.Document(id)
		if err != nil {
			return 0, fmt.Errorf("failed to load document %s: %w", id, err)
		}
		if doc == nil {
			continue
		}
		batch.Delete(id)
		deleted++
	}
	if err := idx.Batch(batch); err != nil {
		return 0, fmt.Errorf("failed to delete from %s: %w", index, err)
	}
	return deleted, nil
}

// DeleteOlderThan removes every document whose numeric field is below cutoff
func (e *Engine) DeleteOlderThan(ctx context.Context, index, typeName, field string, cutoff int64) (int, error) {
	idx, err := e.GetIndex(index)
	if err != nil {
		return 0, err
	}

	upper := float64(cutoff)
	exclusive := false
	q := bleve.NewNumericRangeInclusiveQuery(nil, &upper, nil, &exclusive)
	q.SetField(field)

	deleted := 0
	for {
		req := bleve.NewSearchRequestOptions(q, purgePageSize, 0, false)
		res, err := idx.SearchInContext(ctx, req)
		if err != nil {
			return deleted, fmt.Errorf("failed to search %s: %w", index, err)
		}
		if len(res.Hits) == 0 {
			return deleted, nil
		}

		batch := idx.NewBatch()
		for _, hit := range res.Hits {
			batch.Delete(hit.ID)
		}
		if err := idx.Batch(batch); err != nil {
			return deleted, fmt.Errorf("failed to delete from %s: %w", index, err)
		}
		deleted += len(res.Hits)
	}
}

// Close closes all indexes
func (e *Engine) Close() error {
	e.mutex.Lock()
	defer e.mutex.Unlock()

	var errs []error
	for name, index := range e.indexes {
		if err := index.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close index %s: %w", name, err))
		}
	}
	e.indexes = make(map[string]bleve.Index)
	return errors.Join(errs...)
}

// toMap normalizes a document through its JSON form so json tags decide
// field names the same way they do for a remote cluster. Decoded maps go
// through it too: json.Number values must reach bleve as float64.
func toMap(src any) (map[string]any, error) {
	data, err := json.Marshal(src)
	if err != nil {
		return nil, fmt.Errorf("failed to encode document: %w", err)
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("document is not an object: %w", err)
	}
	return m, nil
}
