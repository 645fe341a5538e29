package indexer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/davidschrooten/esmapper/config"
	"github.com/davidschrooten/esmapper/internal/schema"
)

// ErrUnknownModel is returned for model names missing from the registry
var ErrUnknownModel = errors.New("unknown model")

// ErrNoDocumentClient is returned by document operations when the service
// was built without a document client
var ErrNoDocumentClient = errors.New("no document client configured")

// Service ensures registered models have their indexes and writes documents to them
type Service struct {
	registry    *schema.Registry
	admin       AdminClient
	docs        DocumentClient
	logger      *slog.Logger
	concurrency int
	batchSize   int
}

// EnsureResult reports what EnsureIndexes did for one model
type EnsureResult struct {
	Model   string `json:"model"`
	Index   string `json:"index"`
	Created bool   `json:"created"`
}

// NewService creates a new indexer service. docs may be nil when only index
// bootstrap is needed.
func NewService(registry *schema.Registry, admin AdminClient, docs DocumentClient, cfg *config.Config, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	concurrency, batchSize := 1, 1000
	if cfg != nil {
		if cfg.Bootstrap.Concurrency > 0 {
			concurrency = cfg.Bootstrap.Concurrency
		}
		if cfg.Search.BatchSize > 0 {
			batchSize = cfg.Search.BatchSize
		}
	}
	return &Service{
		registry:    registry,
		admin:       admin,
		docs:        docs,
		logger:      logger.With("component", "indexer"),
		concurrency: concurrency,
		batchSize:   batchSize,
	}
}

// Registry returns the models the service works on
func (s *Service) Registry() *schema.Registry {
	return s.registry
}

// Schema compiles the named model
func (s *Service) Schema(name string) (*schema.Schema, error) {
	m, ok := s.registry.Lookup(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownModel, name)
	}
	return schema.CompileSchema(m)
}

// EnsureIndex creates the index of the named model unless it exists.
// It reports whether the index was created.
func (s *Service) EnsureIndex(ctx context.Context, name string) (EnsureResult, error) {
	sch, err := s.Schema(name)
	if err != nil {
		return EnsureResult{Model: name}, err
	}
	result := EnsureResult{Model: name, Index: sch.IndexName}

	exists, err := s.admin.IndexExists(ctx, sch.IndexName)
	if err != nil {
		return result, fmt.Errorf("failed to check index %s: %w", sch.IndexName, err)
	}
	if exists {
		s.logger.DebugContext(ctx, "index already exists", "model", name, "index", sch.IndexName)
		return result, nil
	}

	if err := s.admin.CreateIndex(ctx, sch); err != nil {
		return result, fmt.Errorf("failed to create index %s: %w", sch.IndexName, err)
	}
	result.Created = true
	s.logger.InfoContext(ctx, "created index", "model", name, "index", sch.IndexName, "type", sch.TypeName)
	return result, nil
}

// EnsureIndexes runs EnsureIndex for the named models, or for every
// registered model when names is empty. Models are handled concurrently;
// every failure is logged and the first one is returned. Repeated names
// are ensured once, in order of first appearance.
func (s *Service) EnsureIndexes(ctx context.Context, names ...string) ([]EnsureResult, error) {
	if len(names) == 0 {
		names = s.registry.Names()
	}
	unique := make([]string, 0, len(names))
	seen := make(map[string]bool, len(names))
	for _, name := range names {
		if _, ok := s.registry.Lookup(name); !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownModel, name)
		}
		if !seen[name] {
			seen[name] = true
			unique = append(unique, name)
		}
	}
	names = unique

	start := time.Now()
	results := make([]EnsureResult, len(names))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i, name := range names {
		i, name := i, name
		g.Go(func() error {
			res, err := s.EnsureIndex(gctx, name)
			results[i] = res
			if err != nil {
				s.logger.ErrorContext(gctx, "failed to ensure index", "model", name, "error", err)
			}
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return results, err
	}

	s.logger.InfoContext(ctx, "indexes ready", "models", len(names), "duration", time.Since(start))
	return results, nil
}

// IndexDocuments writes docs to the named model's index in batches of the
// configured size. Documents without an ID get a generated one.
func (s *Service) IndexDocuments(ctx context.Context, name string, docs []Document) (BulkResult, error) {
	var total BulkResult
	if s.docs == nil {
		return total, ErrNoDocumentClient
	}
	sch, err := s.Schema(name)
	if err != nil {
		return total, err
	}

	docs = AssignIDs(docs)
	for start := 0; start < len(docs); start += s.batchSize {
		end := min(start+s.batchSize, len(docs))
		res, err := s.docs.Bulk(ctx, sch.IndexName, sch.TypeName, docs[start:end])
		total.Merge(res)
		if err != nil {
			return total, fmt.Errorf("failed to bulk index %d documents into %s: %w", end-start, sch.IndexName, err)
		}
	}

	if len(total.Failed) > 0 {
		s.logger.WarnContext(ctx, "bulk index had failures", "index", sch.IndexName, "failed", len(total.Failed))
	}
	s.logger.DebugContext(ctx, "indexed documents", "index", sch.IndexName, "count", total.Indexed)
	return total, nil
}

// DeleteDocuments removes documents by ID from the named model's index
func (s *Service) DeleteDocuments(ctx context.Context, name string, ids []string) (int, error) {
	if s.docs == nil {
		return 0, ErrNoDocumentClient
	}
	sch, err := s.Schema(name)
	if err != nil {
		return 0, err
	}
	if len(ids) == 0 {
		return 0, nil
	}
	n, err := s.docs.Delete(ctx, sch.IndexName, sch.TypeName, ids)
	if err != nil {
		return n, fmt.Errorf("failed to delete documents from %s: %w", sch.IndexName, err)
	}
	return n, nil
}

// PurgeOlderThan removes documents whose epoch-millisecond field is older
// than maxAge
func (s *Service) PurgeOlderThan(ctx context.Context, name, field string, maxAge time.Duration) (int, error) {
	if s.docs == nil {
		return 0, ErrNoDocumentClient
	}
	sch, err := s.Schema(name)
	if err != nil {
		return 0, err
	}
	cutoff := time.Now().Add(-maxAge).UnixMilli()
	n, err := s.docs.DeleteOlderThan(ctx, sch.IndexName, sch.TypeName, field, cutoff)
	if err != nil {
		return n, fmt.Errorf("failed to purge %s: %w", sch.IndexName, err)
	}
	s.logger.InfoContext(ctx, "purged expired documents", "index", sch.IndexName, "field", field, "deleted", n)
	return n, nil
}
