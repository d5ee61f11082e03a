package status

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"browser-bench/internal/application/port/output"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httplog"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const shutdownTimeout = 5 * time.Second

type SnapshotFunc func() output.StatsSnapshot

// Server exposes the live run state over HTTP while a run is in progress.
type Server struct {
	addr     string
	runID    string
	snapshot SnapshotFunc
	gatherer prometheus.Gatherer
	logger   output.LoggerPort
	started  time.Time
}

func New(addr, runID string, snapshot SnapshotFunc, gatherer prometheus.Gatherer, logger output.LoggerPort) *Server {
	return &Server{
		addr:     addr,
		runID:    runID,
		snapshot: snapshot,
		gatherer: gatherer,
		logger:   logger,
		started:  time.Now(),
	}
}

func (s *Server) Handler() http.Handler {
	reqLogger := httplog.NewLogger("browser-bench", httplog.Options{
		JSON:     true,
		Concise:  true,
		LogLevel: "warn",
	})

	r := chi.NewRouter()
	r.Use(httplog.RequestLogger(reqLogger))
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"status": "ok",
			"run_id": s.runID,
			"uptime": time.Since(s.started).Round(time.Second).String(),
		})
	})
	r.Get("/stats", func(w http.ResponseWriter, r *http.Request) {
		snap := s.snapshot()
		writeJSON(w, http.StatusOK, struct {
			RunID string `json:"run_id"`
			output.StatsSnapshot
			SuccessRate string `json:"success_rate"`
		}{s.runID, snap, snap.SuccessRate()})
	})
	if s.gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}
	return r
}

// Serve blocks until ctx ends, then shuts the listener down.
func (s *Server) Serve(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("status server listen: %w", err)
	}
	return s.serve(ctx, ln)
}

func (s *Server) serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()
	s.logger.Info("Status server listening", "addr", ln.Addr().String())

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("status server shutdown: %w", err)
		}
		return nil
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
