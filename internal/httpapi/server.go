// Package httpapi serves stored snapshots read-only. All scoring happens
// in the pipeline; this surface only reports what was last computed.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/garplab/garpscan/internal/snapshot"
	"github.com/garplab/garpscan/internal/telemetry"
)

// Server exposes the snapshot store over HTTP.
type Server struct {
	store   snapshot.Store
	metrics *telemetry.Metrics
	http    *http.Server
}

// New builds the server with its routes mounted.
func New(listen string, store snapshot.Store, metrics *telemetry.Metrics) *Server {
	s := &Server{store: store, metrics: metrics}

	r := mux.NewRouter()
	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/api/v1/snapshots/{symbol}", s.handleLatest).Methods(http.MethodGet)
	r.HandleFunc("/api/v1/snapshots/{symbol}/history", s.handleHistory).Methods(http.MethodGet)
	if metrics != nil {
		r.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))
	}

	s.http = &http.Server{
		Addr:         listen,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Second,
	}
	return s
}

// Handler returns the mounted router, used by tests.
func (s *Server) Handler() http.Handler {
	return s.http.Handler
}

// ListenAndServe blocks until the server stops.
func (s *Server) ListenAndServe() error {
	log.Info().Str("listen", s.http.Addr).Msg("snapshot API listening")
	return s.http.ListenAndServe()
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleLatest(w http.ResponseWriter, r *http.Request) {
	symbol := mux.Vars(r)["symbol"]

	card, err := s.store.Latest(r.Context(), symbol)
	if errors.Is(err, snapshot.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "no snapshot for " + symbol})
		return
	}
	if err != nil {
		log.Error().Err(err).Str("symbol", symbol).Msg("snapshot lookup failed")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "snapshot store unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, card)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	symbol := mux.Vars(r)["symbol"]
	limit := 30
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 || n > 365 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "limit must be 1-365"})
			return
		}
		limit = n
	}

	cards, err := s.store.History(r.Context(), symbol, limit)
	if err != nil {
		log.Error().Err(err).Str("symbol", symbol).Msg("snapshot history lookup failed")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "snapshot store unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"symbol": symbol, "snapshots": cards})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("encode response")
	}
}
