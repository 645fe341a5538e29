package indexer

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/davidschrooten/esmapper/internal/schema"
)

// ErrIndexNotFound is returned by backends asked to work on an index that does not exist
var ErrIndexNotFound = errors.New("index not found")

// AdminClient creates indexes from compiled schemas
type AdminClient interface {
	IndexExists(ctx context.Context, name string) (bool, error)
	CreateIndex(ctx context.Context, s *schema.Schema) error
}

// DocumentClient writes and removes documents of an existing index.
// typeName is only sent to engines that still use mapping types.
type DocumentClient interface {
	Bulk(ctx context.Context, index, typeName string, docs []Document) (BulkResult, error)
	Delete(ctx context.Context, index, typeName string, ids []string) (int, error)
	// DeleteOlderThan removes documents whose numeric field is below cutoff
	DeleteOlderThan(ctx context.Context, index, typeName, field string, cutoff int64) (int, error)
}

// Document is one record to index. Source must marshal to a JSON object.
type Document struct {
	ID     string
	Source any
}

// BulkResult summarizes a bulk write
type BulkResult struct {
	Indexed int           `json:"indexed"`
	Failed  []BulkFailure `json:"failed,omitempty"`
}

// BulkFailure is a document the backend rejected
type BulkFailure struct {
	ID     string `json:"id"`
	Reason string `json:"reason"`
}

// Merge adds other's counts to r
func (r *BulkResult) Merge(other BulkResult) {
	r.Indexed += other.Indexed
	r.Failed = append(r.Failed, other.Failed...)
}

// AssignIDs gives every document without an ID a random UUID
func AssignIDs(docs []Document) []Document {
	out := make([]Document, len(docs))
	for i, d := range docs {
		if d.ID == "" {
			d.ID = uuid.NewString()
		}
		out[i] = d
	}
	return out
}
