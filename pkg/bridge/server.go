// Package bridge serves the companion surfaces over HTTP: the popup talks
// to the core over a WebSocket, the content script posts single-action
// requests, and the selectable date window is available as JSON.
//
// One run executes at a time; requests arriving while a run is in progress
// are refused.
package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/gobwas/glob"
	"golang.org/x/sync/errgroup"

	"github.com/entrhq/punch/pkg/attendance"
	"github.com/entrhq/punch/pkg/config"
	"github.com/entrhq/punch/pkg/logging"
	"github.com/entrhq/punch/pkg/orchestrator"
)

// ErrBusy is returned when a run is already in progress.
var ErrBusy = errors.New("a run is already in progress")

const shutdownTimeout = 10 * time.Second

// Runner executes runs. *orchestrator.Orchestrator satisfies it.
type Runner interface {
	RunBatch(ctx context.Context, records []attendance.DateRecord, reply orchestrator.ReplyFunc) (*orchestrator.Report, error)
	RunPunch(ctx context.Context, p attendance.Punch, links []string, reply orchestrator.ReplyFunc) (*orchestrator.Report, error)
}

// Server is the bridge HTTP server.
type Server struct {
	runner  Runner
	origins []glob.Glob
	now     func() time.Time
	logger  *logging.Logger

	runCtx    context.Context
	runCancel context.CancelFunc
	mu        sync.Mutex
	busy      bool
	runs      sync.WaitGroup
}

// Option configures a Server.
type Option func(*Server)

// WithClock sets the clock used for the date window.
func WithClock(now func() time.Time) Option {
	return func(s *Server) {
		s.now = now
	}
}

// WithLogger sets the logger.
func WithLogger(l *logging.Logger) Option {
	return func(s *Server) {
		s.logger = l
	}
}

// New creates a server dispatching to runner. Requests carrying an Origin
// header are accepted only when its host matches one of cfg.AllowedOrigins.
func New(runner Runner, cfg config.ServerConfig, opts ...Option) (*Server, error) {
	s := &Server{
		runner: runner,
		now:    time.Now,
	}
	for _, pattern := range cfg.AllowedOrigins {
		g, err := glob.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid allowed origin '%s': %w", pattern, err)
		}
		s.origins = append(s.origins, g)
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("bridge")
	s.runCtx, s.runCancel = context.WithCancel(context.Background())
	return s, nil
}

// Handler returns the routes of the server.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/health"))
	r.Use(s.checkOrigin)

	r.Get("/ws", s.serveWebSocket)
	r.Route("/api", func(r chi.Router) {
		r.Get("/dates", s.handleDates)
		r.Get("/status", s.handleStatus)
		r.Post("/remote", s.handleRemote)
	})
	return r
}

// ListenAndServe serves on addr until ctx ends, then stops accepting
// requests, cancels the run in progress and waits for it to report.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.logger.Infof("bridge listening on %s", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("bridge server failed: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		s.Close()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("bridge shutdown failed: %w", err)
		}
		return nil
	})
	return g.Wait()
}

// Close cancels the run in progress and waits for it to finish.
func (s *Server) Close() {
	s.mu.Lock()
	s.runCancel()
	s.mu.Unlock()
	s.runs.Wait()
}

// Busy reports whether a run is in progress.
func (s *Server) Busy() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.busy
}

// start launches fn as the single run in progress.
func (s *Server) start(name string, fn func(ctx context.Context)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.busy {
		return ErrBusy
	}
	if err := s.runCtx.Err(); err != nil {
		return fmt.Errorf("bridge is shutting down: %w", err)
	}

	s.busy = true
	s.runs.Add(1)
	go func() {
		defer s.runs.Done()
		defer func() {
			s.mu.Lock()
			s.busy = false
			s.mu.Unlock()
		}()
		s.logger.Infof("%s run started", name)
		fn(s.runCtx)
		s.logger.Infof("%s run finished", name)
	}()
	return nil
}

func (s *Server) checkOrigin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.originAllowed(r.Header.Get("Origin")) {
			s.logger.Warnf("rejected request from origin %q", r.Header.Get("Origin"))
			http.Error(w, "origin not allowed", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// originAllowed accepts requests without an Origin (non-browser clients)
// and those whose origin host matches an allowed pattern.
func (s *Server) originAllowed(origin string) bool {
	if origin == "" {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil || u.Host == "" {
		return false
	}
	for _, g := range s.origins {
		if g.Match(u.Host) {
			return true
		}
	}
	return false
}

type datesResponse struct {
	Dates    []attendance.DateRecord `json:"dates"`
	Weekdays []bool                  `json:"weekdays"`
}

func (s *Server) handleDates(w http.ResponseWriter, r *http.Request) {
	days := attendance.SelectableDates(s.now())
	records := make([]attendance.DateRecord, len(days))
	for i, d := range days {
		records[i] = attendance.Pending(d, i)
	}
	writeJSON(w, http.StatusOK, datesResponse{Dates: records, Weekdays: attendance.Weekdays(days)})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]bool{"busy": s.Busy()})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
