package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/davidschrooten/esmapper/config"
	"github.com/davidschrooten/esmapper/internal/indexer"
	"github.com/davidschrooten/esmapper/internal/schema"
)

// Rendered views of a compiled schema
const (
	viewSchema   = "schema"
	viewMapping  = "mapping"
	viewSettings = "settings"
	viewBody     = "body"
)

// Server represents the API server
type Server struct {
	service     *indexer.Service
	cache       *lru.Cache[string, []byte]
	legacyTypes bool
	logger      *slog.Logger
}

// ModelInfo describes one registered model
type ModelInfo struct {
	Name  string `json:"name"`
	Index string `json:"index"`
	Type  string `json:"type"`
}

// NewServer creates a new API server
func NewServer(service *indexer.Service, cfg *config.Config, logger *slog.Logger) (*Server, error) {
	if logger == nil {
		logger = slog.Default()
	}
	size := 64
	legacy := false
	if cfg != nil {
		if cfg.Server.CacheSize > 0 {
			size = cfg.Server.CacheSize
		}
		legacy = cfg.Elasticsearch.LegacyTypes
	}
	cache, err := lru.New[string, []byte](size)
	if err != nil {
		return nil, fmt.Errorf("failed to create schema cache: %w", err)
	}
	return &Server{
		service:     service,
		cache:       cache,
		legacyTypes: legacy,
		logger:      logger.With("component", "api"),
	}, nil
}

// Router setups the API routes
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/health", s.handleHealth)
	r.Get("/ready", s.handleReady)
	r.Get("/models", s.handleListModels)
	r.Route("/models/{model}", func(r chi.Router) {
		r.Get("/schema", s.handleView(viewSchema))
		r.Get("/mapping", s.handleView(viewMapping))
		r.Get("/settings", s.handleView(viewSettings))
		r.Get("/body", s.handleView(viewBody))
		r.Post("/index", s.handleEnsureIndex)
		r.Post("/documents", s.handleIndexDocuments)
		r.Delete("/documents", s.handlePurgeDocuments)
	})

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	response(w, http.StatusOK, map[string]interface{}{
		"status": "healthy",
	})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.service == nil {
		http.Error(w, "indexer service not initialized", http.StatusServiceUnavailable)
		return
	}
	if len(s.service.Registry().Names()) == 0 {
		http.Error(w, "no models registered", http.StatusServiceUnavailable)
		return
	}
	response(w, http.StatusOK, map[string]interface{}{
		"status": "ready",
		"models": len(s.service.Registry().Names()),
	})
}

func (s *Server) handleListModels(w http.ResponseWriter, r *http.Request) {
	names := s.service.Registry().Names()
	models := make([]ModelInfo, 0, len(names))
	for _, name := range names {
		sch, err := s.service.Schema(name)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		models = append(models, ModelInfo{Name: name, Index: sch.IndexName, Type: sch.TypeName})
	}

	response(w, http.StatusOK, map[string]interface{}{
		"models": models,
		"total":  len(models),
	})
}

// handleView serves one rendering of a model's compiled schema. Registered
// models never change, so renderings are cached by model and view.
func (s *Server) handleView(view string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := chi.URLParam(r, "model")
		key := name + "/" + view
		if data, ok := s.cache.Get(key); ok {
			rawResponse(w, http.StatusOK, data)
			return
		}

		sch, err := s.service.Schema(name)
		if err != nil {
			s.fail(w, r, err)
			return
		}

		var v any
		switch view {
		case viewMapping:
			v = sch.Mapping
		case viewSettings:
			v = sch.Settings
		case viewBody:
			v = sch.Body(s.legacyTypes)
		default:
			v = sch
		}
		data, err := json.Marshal(v)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		s.cache.Add(key, data)
		rawResponse(w, http.StatusOK, data)
	}
}

func (s *Server) handleEnsureIndex(w http.ResponseWriter, r *http.Request) {
	result, err := s.service.EnsureIndex(r.Context(), chi.URLParam(r, "model"))
	if err != nil {
		s.fail(w, r, err)
		return
	}

	status := http.StatusOK
	if result.Created {
		status = http.StatusCreated
	}
	response(w, status, result)
}

// handleIndexDocuments takes a JSON array of objects. The model's identifier
// field, when present in an object, becomes its document ID.
func (s *Server) handleIndexDocuments(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "model")
	model, ok := s.service.Registry().Lookup(name)
	if !ok {
		s.fail(w, r, fmt.Errorf("%w: %s", indexer.ErrUnknownModel, name))
		return
	}

	var sources []map[string]interface{}
	dec := json.NewDecoder(r.Body)
	dec.UseNumber()
	if err := dec.Decode(&sources); err != nil {
		http.Error(w, "invalid request payload", http.StatusBadRequest)
		return
	}

	idField := schema.IdentifierField(model)
	docs := make([]indexer.Document, len(sources))
	for i, src := range sources {
		docs[i] = indexer.Document{Source: src}
		if id, ok := src[idField]; ok && idField != "" && id != nil {
			docs[i].ID = documentID(id)
		}
	}

	result, err := s.service.IndexDocuments(r.Context(), name, docs)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	response(w, http.StatusOK, result)
}

// documentID renders a decoded identifier value. Numbers keep their literal text.
func documentID(v interface{}) string {
	switch id := v.(type) {
	case string:
		return id
	case json.Number:
		return id.String()
	default:
		return fmt.Sprint(id)
	}
}

// handlePurgeDocuments deletes documents whose epoch-millisecond field is
// older than the older_than duration
func (s *Server) handlePurgeDocuments(w http.ResponseWriter, r *http.Request) {
	field := r.URL.Query().Get("field")
	maxAge, err := time.ParseDuration(r.URL.Query().Get("older_than"))
	if field == "" || err != nil || maxAge <= 0 {
		http.Error(w, "field and a positive older_than duration are required", http.StatusBadRequest)
		return
	}

	deleted, err := s.service.PurgeOlderThan(r.Context(), chi.URLParam(r, "model"), field, maxAge)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	response(w, http.StatusOK, map[string]interface{}{
		"deleted": deleted,
	})
}

// fail maps service errors to status codes
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	var status int
	switch {
	case errors.Is(err, indexer.ErrUnknownModel), errors.Is(err, indexer.ErrIndexNotFound):
		status = http.StatusNotFound
	case errors.Is(err, schema.ErrSchema):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, indexer.ErrNoDocumentClient):
		status = http.StatusNotImplemented
	default:
		status = http.StatusBadGateway
		s.logger.ErrorContext(r.Context(), "backend request failed", "path", r.URL.Path, "error", err)
	}
	response(w, status, map[string]interface{}{
		"error": err.Error(),
	})
}

func response(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("unable to encode response", "error", err)
	}
}

func rawResponse(w http.ResponseWriter, status int, data []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(data)
}
