// Package server provides the HTTP API for async image uploads.
//
// Endpoints:
//
//	GET  /providers      — list upload providers and their settings
//	POST /uploads        — enqueue a batch; returns operation ID immediately
//	GET  /uploads/{id}   — poll operation status and retrieve image URLs
//	GET  /metrics        — Prometheus metrics
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tomasbasham/imgup/internal/config"
	"github.com/tomasbasham/imgup/internal/image"
	"github.com/tomasbasham/imgup/internal/metrics"
	"github.com/tomasbasham/imgup/internal/operation"
	"github.com/tomasbasham/imgup/internal/plugin"
)

// maxBodyBytes bounds a POST /uploads body.
const maxBodyBytes = 64 << 20

// Options holds the optional collaborators of a Server.
type Options struct {
	// Config is the persisted provider configuration, read per batch.
	Config config.Source

	Logger   *slog.Logger
	Metrics  *metrics.Recorder
	Gatherer prometheus.Gatherer
}

// Server holds the dependencies shared across HTTP handlers.
type Server struct {
	store    operation.Store
	registry *plugin.Registry
	opts     Options
	log      *slog.Logger
	mux      *http.ServeMux
}

// New creates a Server wired to the given store and provider registry.
func New(store operation.Store, registry *plugin.Registry, opts Options) *Server {
	log := opts.Logger
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}

	s := &Server{
		store:    store,
		registry: registry,
		opts:     opts,
		log:      log,
	}

	s.mux = http.NewServeMux()
	s.mux.HandleFunc("GET /providers", s.handleListProviders)
	s.mux.HandleFunc("POST /uploads", s.handleCreateUpload)
	s.mux.HandleFunc("GET /uploads/{id}", s.handleGetUpload)
	if opts.Gatherer != nil {
		s.mux.Handle("GET /metrics", promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{}))
	}

	return s
}

// Handler returns the routed handler, for embedding or tests.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// ListenAndServe starts the HTTP server on the given address.
func (s *Server) ListenAndServe(addr string) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.mux,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return srv.ListenAndServe()
}

type providerResponse struct {
	ID     string         `json:"id"`
	Name   string         `json:"name"`
	Config []config.Field `json:"config"`
}

func (s *Server) handleListProviders(w http.ResponseWriter, _ *http.Request) {
	providers := s.registry.List()

	resp := make([]providerResponse, 0, len(providers))
	for _, p := range providers {
		pr := providerResponse{ID: p.ID, Name: p.Name}
		if p.Config != nil {
			pr.Config = config.Redact(p.Config(s.opts.Config))
		}
		resp = append(resp, pr)
	}

	writeJSON(w, http.StatusOK, resp)
}

// uploadItem is one image in a POST /uploads body.
type uploadItem struct {
	FileName        string `json:"fileName"`
	ExtName         string `json:"extName"`
	Base64Image     string `json:"base64Image"`
	ContentEncoding string `json:"contentEncoding,omitempty"`
}

// createUploadRequest is the JSON body for POST /uploads.
type createUploadRequest struct {
	Provider string       `json:"provider"`
	Items    []uploadItem `json:"items"`
}

// createUploadResponse is returned immediately from POST /uploads.
type createUploadResponse struct {
	OperationID string `json:"operation_id"`
	Status      string `json:"status"`
}

func (s *Server) handleCreateUpload(w http.ResponseWriter, r *http.Request) {
	var req createUploadRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.Provider == "" {
		req.Provider = plugin.S3ProviderID
	}
	if _, ok := s.registry.Get(req.Provider); !ok {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown provider %q", req.Provider))
		return
	}
	if len(req.Items) == 0 {
		writeError(w, http.StatusBadRequest, "items are required")
		return
	}

	items := make([]*image.Item, len(req.Items))
	for i, it := range req.Items {
		items[i] = &image.Item{
			FileName:        it.FileName,
			ExtName:         it.ExtName,
			Base64Image:     it.Base64Image,
			ContentEncoding: it.ContentEncoding,
		}
	}

	op, err := s.store.Create(req.Provider, len(items))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to create operation: "+err.Error())
		return
	}

	log := s.log.With("operation", op.ID)
	batch := &plugin.Context{
		Output:  items,
		Config:  s.opts.Config,
		Logger:  log,
		Metrics: s.opts.Metrics,
		Notifier: plugin.NotifierFunc(func(n plugin.Notification) {
			log.Warn(n.Title, "body", n.Body)
		}),
	}

	// The upload must outlive the request, so it keeps the request's values
	// but not its cancellation.
	go operation.Run(context.WithoutCancel(r.Context()), operation.WorkerOptions{
		OperationID: op.ID,
		Provider:    req.Provider,
		Store:       s.store,
		Registry:    s.registry,
		Batch:       batch,
	})

	writeJSON(w, http.StatusAccepted, createUploadResponse{
		OperationID: op.ID,
		Status:      string(operation.StatusPending),
	})
}

func (s *Server) handleGetUpload(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "operation id is required")
		return
	}

	op, err := s.store.Get(id)
	if err != nil {
		writeError(w, http.StatusNotFound, fmt.Sprintf("operation %q not found", id))
		return
	}

	writeJSON(w, http.StatusOK, op)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
