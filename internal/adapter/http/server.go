package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/couchcryptid/windrose-service/internal/domain"
	"github.com/couchcryptid/windrose-service/internal/render"
)

// Response headers set alongside a rendered diagram.
const (
	HeaderCaption     = "X-Diagram-Caption"
	HeaderCalmPercent = "X-Calm-Percent"
)

// ReadinessChecker reports whether the service is ready to serve traffic.
type ReadinessChecker interface {
	CheckReadiness(ctx context.Context) error
}

// Diagrams parses uploads and renders them.
type Diagrams interface {
	Ingest(r io.Reader) (*domain.RecordSet, error)
	Render(set *domain.RecordSet) (*render.Diagram, error)
}

// Server exposes health, readiness, metrics, and diagram HTTP endpoints.
type Server struct {
	httpServer *http.Server
	diagrams   Diagrams
	maxUpload  int64
	logger     *slog.Logger
}

// NewServer creates an HTTP server with /healthz, /readyz, /metrics, and
// POST /v1/windrose routes. Uploads larger than maxUpload bytes are rejected.
func NewServer(addr string, ready ReadinessChecker, diagrams Diagrams, maxUpload int64, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		diagrams:  diagrams,
		maxUpload: maxUpload,
		logger:    logger,
	}

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", handleReady(ready))
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("POST /v1/windrose", s.handleWindrose)

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func handleReady(checker ReadinessChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := checker.CheckReadiness(ctx); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "not ready",
				"error":  err.Error(),
			})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}

// handleWindrose renders the export carried in the request body, either raw
// or as the multipart field "file".
func (s *Server) handleWindrose(w http.ResponseWriter, r *http.Request) {
	if s.maxUpload > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, s.maxUpload)
	}

	body, closeBody, err := uploadBody(r)
	if err != nil {
		s.writeUploadError(w, err)
		return
	}
	defer closeBody()

	set, err := s.diagrams.Ingest(body)
	if err != nil {
		s.writeUploadError(w, err)
		return
	}

	d, err := s.diagrams.Render(set)
	if err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, errorBody{Error: err.Error()})
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set(HeaderCaption, d.Caption)
	w.Header().Set(HeaderCalmPercent, d.CalmPercent())
	w.WriteHeader(http.StatusOK)
	if _, err := d.Reader().WriteTo(w); err != nil {
		s.logger.Warn("write diagram failed", "error", err)
	}
}

func uploadBody(r *http.Request) (io.Reader, func(), error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "multipart/form-data" {
		return r.Body, func() {}, nil
	}
	f, _, err := r.FormFile("file")
	if err != nil {
		return nil, nil, err
	}
	return f, func() { _ = f.Close() }, nil
}

type errorBody struct {
	Error          string   `json:"error"`
	MissingColumns []string `json:"missing_columns,omitempty"`
}

func (s *Server) writeUploadError(w http.ResponseWriter, err error) {
	var (
		verr   *domain.ValidationError
		tooBig *http.MaxBytesError
	)
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusUnprocessableEntity, errorBody{Error: err.Error(), MissingColumns: verr.Missing})
	case errors.As(err, &tooBig):
		writeJSON(w, http.StatusRequestEntityTooLarge, errorBody{Error: err.Error()})
	default:
		writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort JSON response
}
