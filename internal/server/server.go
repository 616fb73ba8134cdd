// Package server exposes the daemon's HTTP control API. Hosts that cannot
// embed the library (shell scripts, player hooks) drive the tracker through
// it: session signals go in, resume positions and stored records come out.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/tapeworks/watchlater/internal/domain"
	"github.com/tapeworks/watchlater/internal/ports"
)

// Service is the tracker surface the API exposes. *watchlater.Watchlater
// satisfies it.
type Service interface {
	FileOpened(ctx context.Context, path string, duration time.Duration) (time.Duration, bool, error)
	Progress(position time.Duration) error
	FileClosed(ctx context.Context, position *time.Duration) error
	CurrentSession() (id string, path string, ok bool)
	Positions(ctx context.Context) ([]domain.PositionRecord, error)
	Latest(ctx context.Context) (domain.PositionRecord, bool, error)
	Forget(ctx context.Context, path string) error
}

// Server is the HTTP control API server.
type Server struct {
	svc     Service
	metrics *Metrics
	logger  ports.Logger
	http    *http.Server
}

// New creates a server listening on addr. metrics may be nil.
func New(addr string, svc Service, metrics *Metrics, logger ports.Logger) *Server {
	s := &Server{svc: svc, metrics: metrics, logger: logger}

	r := mux.NewRouter()
	r.HandleFunc("/v1/sessions/opened", s.instrument("sessions_opened", s.handleOpened)).Methods(http.MethodPost)
	r.HandleFunc("/v1/sessions/progress", s.instrument("sessions_progress", s.handleProgress)).Methods(http.MethodPost)
	r.HandleFunc("/v1/sessions/closed", s.instrument("sessions_closed", s.handleClosed)).Methods(http.MethodPost)
	r.HandleFunc("/v1/sessions/current", s.instrument("sessions_current", s.handleCurrent)).Methods(http.MethodGet)
	r.HandleFunc("/v1/positions", s.instrument("positions_list", s.handleList)).Methods(http.MethodGet)
	r.HandleFunc("/v1/positions", s.instrument("positions_delete", s.handleDelete)).Methods(http.MethodDelete)
	r.HandleFunc("/v1/positions/latest", s.instrument("positions_latest", s.handleLatest)).Methods(http.MethodGet)
	r.HandleFunc("/healthz", s.handleHealthz).Methods(http.MethodGet)
	if metrics != nil {
		r.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet)
	}

	s.http = &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	return s
}

// Start binds the listen address and serves in the background. Bind errors
// are returned synchronously; serve errors are logged.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.http.Addr)
	if err != nil {
		return err
	}
	s.logger.Info("control api listening", ports.String("addr", s.http.Addr))

	go func() {
		if err := s.http.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("control api serve failed", ports.Err(err))
		}
	}()
	return nil
}

// Shutdown stops the server, waiting for in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

// Handler returns the router, for tests.
func (s *Server) Handler() http.Handler {
	return s.http.Handler
}

type openedRequest struct {
	Path            string `json:"path"`
	DurationSeconds int64  `json:"duration_seconds"`
}

type openedResponse struct {
	SessionID     string `json:"session_id"`
	Path          string `json:"path"`
	Resume        bool   `json:"resume"`
	ResumeSeconds int64  `json:"resume_seconds,omitempty"`
}

type progressRequest struct {
	PositionSeconds int64 `json:"position_seconds"`
}

type closedRequest struct {
	PositionSeconds *int64 `json:"position_seconds"`
}

type currentResponse struct {
	SessionID string `json:"session_id"`
	Path      string `json:"path"`
}

type positionJSON struct {
	Path            string    `json:"path"`
	PositionSeconds int64     `json:"position_seconds"`
	DurationSeconds int64     `json:"duration_seconds"`
	UpdatedAt       time.Time `json:"updated_at"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func toPositionJSON(r domain.PositionRecord) positionJSON {
	return positionJSON{
		Path:            r.Path,
		PositionSeconds: int64(r.Position / time.Second),
		DurationSeconds: int64(r.Duration / time.Second),
		UpdatedAt:       r.UpdatedAt,
	}
}

func (s *Server) handleOpened(w http.ResponseWriter, r *http.Request) {
	var req openedRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}
	if req.Path == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "path is required"})
		return
	}
	if req.DurationSeconds < 0 {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "duration_seconds must not be negative"})
		return
	}

	resume, ok, err := s.svc.FileOpened(r.Context(), req.Path, time.Duration(req.DurationSeconds)*time.Second)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}
	if s.metrics != nil {
		s.metrics.sessionsOpened.Inc()
	}
	id, _, _ := s.svc.CurrentSession()
	writeJSON(w, http.StatusOK, openedResponse{
		SessionID:     id,
		Path:          req.Path,
		Resume:        ok,
		ResumeSeconds: int64(resume / time.Second),
	})
}

func (s *Server) handleProgress(w http.ResponseWriter, r *http.Request) {
	var req progressRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}
	if req.PositionSeconds < 0 {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "position_seconds must not be negative"})
		return
	}

	if err := s.svc.Progress(time.Duration(req.PositionSeconds) * time.Second); err != nil {
		if errors.Is(err, domain.ErrNoSession) {
			writeJSON(w, http.StatusConflict, errorResponse{Error: "no open session"})
			return
		}
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleClosed(w http.ResponseWriter, r *http.Request) {
	var req closedRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	var position *time.Duration
	if req.PositionSeconds != nil {
		if *req.PositionSeconds < 0 {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "position_seconds must not be negative"})
			return
		}
		d := time.Duration(*req.PositionSeconds) * time.Second
		position = &d
	}

	if err := s.svc.FileClosed(r.Context(), position); err != nil {
		if errors.Is(err, domain.ErrNoSession) {
			writeJSON(w, http.StatusConflict, errorResponse{Error: "no open session"})
			return
		}
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}
	if s.metrics != nil {
		s.metrics.sessionsClosed.Inc()
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleCurrent(w http.ResponseWriter, r *http.Request) {
	id, path, ok := s.svc.CurrentSession()
	if !ok {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "no open session"})
		return
	}
	writeJSON(w, http.StatusOK, currentResponse{SessionID: id, Path: path})
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	records, err := s.svc.Positions(r.Context())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}
	out := make([]positionJSON, len(records))
	for i, record := range records {
		out[i] = toPositionJSON(record)
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleLatest(w http.ResponseWriter, r *http.Request) {
	record, ok, err := s.svc.Latest(r.Context())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}
	if !ok {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "no stored positions"})
		return
	}
	writeJSON(w, http.StatusOK, toPositionJSON(record))
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Query().Get("path")
	if path == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "path query parameter is required"})
		return
	}
	if err := s.svc.Forget(r.Context(), path); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// instrument counts requests per route and status.
func (s *Server) instrument(route string, next http.HandlerFunc) http.HandlerFunc {
	if s.metrics == nil {
		return next
	}
	return func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next(rec, r)
		s.metrics.httpRequests.WithLabelValues(route, strconv.Itoa(rec.status)).Inc()
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
