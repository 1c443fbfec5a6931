// Package webui serves the interactive size chart over HTTP.
//
// Each browser tab holds a session on the server. The session owns a navigation
// controller, so every click is sent as an activation and answered with the
// freshly laid-out view.
package webui

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/webpack-chart/internal/source"
	apperrors "github.com/webpack-chart/pkg/errors"
	"github.com/webpack-chart/pkg/utils"
)

// ServerOptions configures the HTTP listener.
type ServerOptions struct {
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	MaxBodySize  int64
}

// DefaultServerOptions returns port 8080, 30s timeouts and a 64MiB body limit.
func DefaultServerOptions() *ServerOptions {
	return &ServerOptions{
		Port:         8080,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		MaxBodySize:  64 << 20,
	}
}

// Server represents the web viewer server
type Server struct {
	opts    *ServerOptions
	service *ChartService
	metrics *Metrics
	logger  utils.Logger
	handler http.Handler
	server  *http.Server
}

// NewServer creates a new web viewer server
func NewServer(opts *ServerOptions, service *ChartService, metrics *Metrics, logger utils.Logger) *Server {
	if opts == nil {
		opts = DefaultServerOptions()
	}
	if opts.MaxBodySize <= 0 {
		opts.MaxBodySize = DefaultServerOptions().MaxBodySize
	}
	if logger == nil {
		logger = utils.NewDefaultLogger(utils.LevelInfo, nil)
	}
	if metrics == nil {
		metrics = service.metrics
	}

	s := &Server{
		opts:    opts,
		service: service,
		metrics: metrics,
		logger:  logger,
	}
	s.handler = s.routes()
	return s
}

// Handler returns the router, for embedding or tests.
func (s *Server) Handler() http.Handler {
	return s.handler
}

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()

	handle := func(pattern, route string, h http.HandlerFunc) {
		mux.HandleFunc(pattern, s.metrics.instrument(route, h))
	}

	handle("POST /api/sessions", "/api/sessions", s.handleCreateSession)
	handle("GET /api/sessions/{id}", "/api/sessions/{id}", s.handleGetSession)
	handle("DELETE /api/sessions/{id}", "/api/sessions/{id}", s.handleDeleteSession)
	handle("POST /api/sessions/{id}/report", "/api/sessions/{id}/report", s.handleUploadReport)
	handle("POST /api/sessions/{id}/load", "/api/sessions/{id}/load", s.handleLoadReport)
	handle("POST /api/sessions/{id}/activate", "/api/sessions/{id}/activate", s.handleActivate)
	handle("GET /api/reports", "/api/reports", s.handleListReports)
	handle("GET /healthz", "/healthz", s.handleHealth)

	mux.Handle("GET /metrics", s.metrics.Handler())
	return mux
}

// Start starts the web server
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", s.opts.Port),
		Handler:      s.handler,
		ReadTimeout:  s.opts.ReadTimeout,
		WriteTimeout: s.opts.WriteTimeout,
	}

	s.logger.Info("Starting web viewer at http://localhost:%d", s.opts.Port)
	s.logger.Info("Press Ctrl+C to stop")

	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusCreated, s.service.NewSession())
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	state, err := s.service.Session(r.PathValue("id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, state)
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := s.service.DeleteSession(r.PathValue("id")); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleUploadReport takes a stats report as the raw request body.
func (s *Server) handleUploadReport(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.opts.MaxBodySize))
	if err != nil {
		s.writeError(w, err)
		return
	}

	name := r.URL.Query().Get("name")
	if name == "" {
		name = "upload"
	}

	state, err := s.service.LoadBytes(r.Context(), r.PathValue("id"), body, name)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, state)
}

// handleLoadReport fetches the report named by the statsJson query parameter.
func (s *Server) handleLoadReport(w http.ResponseWriter, r *http.Request) {
	location := r.URL.Query().Get("statsJson")
	if location == "" {
		s.writeError(w, apperrors.New(apperrors.CodeInvalidInput, "missing statsJson parameter"))
		return
	}
	if source.TypeOf(location) == source.SourceTypeFile {
		// Local paths would expose the server's filesystem.
		s.writeError(w, apperrors.New(apperrors.CodeInvalidInput, "only http(s) and store:// locations can be loaded"))
		return
	}

	state, err := s.service.LoadLocation(r.Context(), r.PathValue("id"), location)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, state)
}

type activateRequest struct {
	Path []string `json:"path"`
}

func (s *Server) handleActivate(w http.ResponseWriter, r *http.Request) {
	var req activateRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	if err := dec.Decode(&req); err != nil {
		s.writeError(w, apperrors.Wrap(apperrors.CodeInvalidInput, "invalid activate request", err))
		return
	}

	state, err := s.service.Activate(r.Context(), r.PathValue("id"), req.Path)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, state)
}

func (s *Server) handleListReports(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			s.writeError(w, apperrors.New(apperrors.CodeInvalidInput, "invalid limit: "+v))
			return
		}
		limit = n
	}

	records, err := s.service.Reports(r.Context(), limit)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"reports": records,
		"count":   len(records),
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":   "ok",
		"sessions": s.service.SessionCount(),
	})
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		s.writeJSON(w, http.StatusRequestEntityTooLarge, errorResponse{
			Code:    apperrors.CodeInvalidInput,
			Message: fmt.Sprintf("request body exceeds %d bytes", tooLarge.Limit),
		})
		return
	}

	code := apperrors.GetErrorCode(err)
	status := statusFor(code)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed: %v", err)
	}
	s.writeJSON(w, status, errorResponse{Code: code, Message: err.Error()})
}

func statusFor(code string) int {
	switch code {
	case apperrors.CodeMalformedReport, apperrors.CodeMalformedRecord, apperrors.CodeInvalidInput:
		return http.StatusBadRequest
	case apperrors.CodeNotFound:
		return http.StatusNotFound
	case apperrors.CodeFetchError:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("Failed to encode response: %v", err)
	}
}
