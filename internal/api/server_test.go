package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/davidschrooten/esmapper/config"
	"github.com/davidschrooten/esmapper/internal/indexer"
	"github.com/davidschrooten/esmapper/internal/models"
	"github.com/davidschrooten/esmapper/internal/schema"
)

// mockBackend implements both client interfaces in memory
type mockBackend struct {
	existing  map[string]bool
	createErr error
	bulkErr   error
	docs      []indexer.Document
	purged    string
}

func (m *mockBackend) IndexExists(_ context.Context, name string) (bool, error) {
	return m.existing[name], nil
}

func (m *mockBackend) CreateIndex(_ context.Context, s *schema.Schema) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.existing[s.IndexName] = true
	return nil
}

func (m *mockBackend) Bulk(_ context.Context, _, _ string, docs []indexer.Document) (indexer.BulkResult, error) {
	if m.bulkErr != nil {
		return indexer.BulkResult{}, m.bulkErr
	}
	m.docs = append(m.docs, docs...)
	return indexer.BulkResult{Indexed: len(docs)}, nil
}

func (m *mockBackend) Delete(_ context.Context, _, _ string, ids []string) (int, error) {
	return len(ids), nil
}

func (m *mockBackend) DeleteOlderThan(_ context.Context, _, _, field string, _ int64) (int, error) {
	m.purged = field
	return 7, nil
}

func newTestServer(t *testing.T, backend *mockBackend, withDocs bool) *Server {
	t.Helper()
	registry, err := models.Registry()
	require.NoError(t, err)

	// Identified is a second model with an identifier field
	require.NoError(t, registry.Register(&schema.Model{
		Name:     "Identified",
		Document: &schema.Document{IndexName: "identified_index", TypeName: "identified"},
		Fields: []schema.Field{
			{Name: "code", Spec: schema.Simple{Property: schema.Property{Type: schema.Keyword}}, ID: true},
		},
	}))

	var docs indexer.DocumentClient
	if withDocs {
		docs = backend
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	cfg := &config.Config{Server: config.ServerConfig{CacheSize: 8}}
	svc := indexer.NewService(registry, backend, docs, cfg, logger)

	server, err := NewServer(svc, cfg, logger)
	require.NoError(t, err)
	return server
}

func newMockBackend() *mockBackend {
	return &mockBackend{existing: make(map[string]bool)}
}

func do(t *testing.T, s *Server, method, target string, body []byte) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func TestServer_handleHealth(t *testing.T) {
	server := newTestServer(t, newMockBackend(), false)

	w := do(t, server, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.Equal(t, "healthy", decode(t, w)["status"])
}

func TestServer_handleReady(t *testing.T) {
	server := newTestServer(t, newMockBackend(), false)

	w := do(t, server, http.MethodGet, "/ready", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 2, decode(t, w)["models"])
}

func TestServer_handleReady_MissingIndexer(t *testing.T) {
	server, err := NewServer(nil, nil, nil)
	require.NoError(t, err)

	w := do(t, server, http.MethodGet, "/ready", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestServer_handleListModels(t *testing.T) {
	server := newTestServer(t, newMockBackend(), false)

	w := do(t, server, http.MethodGet, "/models", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var out struct {
		Models []ModelInfo `json:"models"`
		Total  int         `json:"total"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	assert.Equal(t, 2, out.Total)
	assert.Equal(t, ModelInfo{Name: "TrafficInfo", Index: models.TrafficIndexName, Type: models.TrafficTypeName}, out.Models[0])
	assert.Equal(t, "Identified", out.Models[1].Name)
}

func TestServer_handleView(t *testing.T) {
	server := newTestServer(t, newMockBackend(), false)
	sch, err := server.service.Schema("TrafficInfo")
	require.NoError(t, err)

	tests := []struct {
		path string
		want any
	}{
		{"/models/TrafficInfo/schema", sch},
		{"/models/TrafficInfo/mapping", sch.Mapping},
		{"/models/TrafficInfo/settings", sch.Settings},
		{"/models/TrafficInfo/body", sch.Body(false)},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			want, err := json.Marshal(tt.want)
			require.NoError(t, err)

			w := do(t, server, http.MethodGet, tt.path, nil)
			require.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, string(want), w.Body.String())

			// Served again from the cache
			w = do(t, server, http.MethodGet, tt.path, nil)
			assert.Equal(t, string(want), w.Body.String())
		})
	}
	assert.Equal(t, 4, server.cache.Len())
}

func TestServer_handleView_UnknownModel(t *testing.T) {
	server := newTestServer(t, newMockBackend(), false)

	w := do(t, server, http.MethodGet, "/models/Nope/schema", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, decode(t, w)["error"], "Nope")
	assert.Zero(t, server.cache.Len())
}

func TestServer_handleEnsureIndex(t *testing.T) {
	backend := newMockBackend()
	server := newTestServer(t, backend, false)

	w := do(t, server, http.MethodPost, "/models/TrafficInfo/index", nil)
	require.Equal(t, http.StatusCreated, w.Code)
	body := decode(t, w)
	assert.Equal(t, models.TrafficIndexName, body["index"])
	assert.Equal(t, true, body["created"])
	assert.True(t, backend.existing[models.TrafficIndexName])

	w = do(t, server, http.MethodPost, "/models/TrafficInfo/index", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, false, decode(t, w)["created"])
}

func TestServer_handleEnsureIndex_BackendFailure(t *testing.T) {
	backend := newMockBackend()
	backend.createErr = errors.New("cluster unavailable")
	server := newTestServer(t, backend, false)

	w := do(t, server, http.MethodPost, "/models/TrafficInfo/index", nil)
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Contains(t, decode(t, w)["error"], "cluster unavailable")
}

func TestServer_handleIndexDocuments(t *testing.T) {
	backend := newMockBackend()
	server := newTestServer(t, backend, true)

	payload := []byte(`[{"code":"A1","name":"first"},{"name":"second"}]`)
	w := do(t, server, http.MethodPost, "/models/Identified/documents", payload)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 2, decode(t, w)["indexed"])

	require.Len(t, backend.docs, 2)
	assert.Equal(t, "A1", backend.docs[0].ID)
	assert.NotEmpty(t, backend.docs[1].ID)
	assert.NotEqual(t, "A1", backend.docs[1].ID)
}

func TestServer_handleIndexDocuments_NumericIDs(t *testing.T) {
	backend := newMockBackend()
	server := newTestServer(t, backend, true)

	payload := []byte(`[{"code":12345678},{"code":9007199254740993},{"code":true}]`)
	w := do(t, server, http.MethodPost, "/models/Identified/documents", payload)
	require.Equal(t, http.StatusOK, w.Code)

	require.Len(t, backend.docs, 3)
	assert.Equal(t, "12345678", backend.docs[0].ID)
	assert.Equal(t, "9007199254740993", backend.docs[1].ID)
	assert.Equal(t, "true", backend.docs[2].ID)

	source, err := json.Marshal(backend.docs[1].Source)
	require.NoError(t, err)
	assert.JSONEq(t, `{"code":9007199254740993}`, string(source))
}

func TestServer_handleIndexDocuments_MissingIndex(t *testing.T) {
	backend := newMockBackend()
	backend.bulkErr = fmt.Errorf("bulk on identified_index: %w", indexer.ErrIndexNotFound)
	server := newTestServer(t, backend, true)

	w := do(t, server, http.MethodPost, "/models/Identified/documents", []byte(`[{"code":"A1"}]`))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, decode(t, w)["error"], "index not found")
}

func TestServer_handleIndexDocuments_Errors(t *testing.T) {
	server := newTestServer(t, newMockBackend(), true)

	w := do(t, server, http.MethodPost, "/models/Identified/documents", []byte(`{"not":"an array"}`))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, server, http.MethodPost, "/models/Nope/documents", []byte(`[]`))
	assert.Equal(t, http.StatusNotFound, w.Code)

	readOnly := newTestServer(t, newMockBackend(), false)
	w = do(t, readOnly, http.MethodPost, "/models/Identified/documents", []byte(`[{"code":"A1"}]`))
	assert.Equal(t, http.StatusNotImplemented, w.Code)
}

func TestServer_handlePurgeDocuments(t *testing.T) {
	backend := newMockBackend()
	server := newTestServer(t, backend, true)

	w := do(t, server, http.MethodDelete, "/models/TrafficInfo/documents?field=createTime&older_than=24h", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 7, decode(t, w)["deleted"])
	assert.Equal(t, "createTime", backend.purged)

	for _, target := range []string{
		"/models/TrafficInfo/documents?older_than=24h",
		"/models/TrafficInfo/documents?field=createTime",
		"/models/TrafficInfo/documents?field=createTime&older_than=-1h",
	} {
		w = do(t, server, http.MethodDelete, target, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code, target)
	}
}

func TestServer_failSchemaError(t *testing.T) {
	server := newTestServer(t, newMockBackend(), false)
	m := &schema.Model{Name: "Broken"}
	_, err := schema.CompileSchema(m)
	require.ErrorIs(t, err, schema.ErrSchema)

	w := httptest.NewRecorder()
	server.fail(w, httptest.NewRequest(http.MethodGet, "/models/Broken/schema", nil), err)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}
