// Package server exposes the question-answering pipeline over HTTP.
//
// Routes:
//
//	POST /api/v1/run  →  answer questions about a document (bearer auth)
//	GET  /health      →  liveness probe
//	GET  /ready       →  readiness probe
package server

import (
	"context"
	"net/http"
	"time"

	"docqa/internal/log"
)

const (
	// ShutdownTimeout is the maximum time to wait for graceful shutdown.
	ShutdownTimeout = 10 * time.Second

	// ReadHeaderTimeout bounds header reads to keep slow clients from
	// pinning connections.
	ReadHeaderTimeout = 10 * time.Second

	// ReadTimeout is the maximum duration for reading the entire request.
	ReadTimeout = 30 * time.Second

	// WriteTimeout is generous because one request may fan out to many
	// chat-completion calls.
	WriteTimeout = 5 * time.Minute

	// IdleTimeout applies to keep-alive connections.
	IdleTimeout = 120 * time.Second
)

// Runner is the pipeline surface the server needs.
type Runner interface {
	Run(ctx context.Context, doc string, questions []string) ([]string, error)
}

// Server is the HTTP server for the document Q&A API.
type Server struct {
	mux       *http.ServeMux
	runner    Runner
	authToken string
	logger    log.Logger
}

// NewServer registers all routes. An empty authToken disables auth,
// which is only acceptable for local runs.
func NewServer(runner Runner, authToken string, logger log.Logger) *Server {
	s := &Server{
		mux:       http.NewServeMux(),
		runner:    runner,
		authToken: authToken,
		logger:    logger,
	}
	s.mux.HandleFunc("GET /health", s.liveness)
	s.mux.HandleFunc("GET /ready", s.readiness)
	s.mux.Handle("POST /api/v1/run", s.requireAuth(http.HandlerFunc(s.run)))
	return s
}

// Handler returns the HTTP handler with middleware applied.
// Middleware order: recovery → logging → handler.
func (s *Server) Handler() http.Handler {
	return chain(s.mux, s.recoveryMiddleware, s.loggingMiddleware)
}

// Run starts the HTTP server and blocks until the context is cancelled,
// then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: ReadHeaderTimeout,
		ReadTimeout:       ReadTimeout,
		WriteTimeout:      WriteTimeout,
		IdleTimeout:       IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting HTTP server", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("shutting down HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	}
}

func (s *Server) liveness(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) readiness(w http.ResponseWriter, _ *http.Request) {
	if s.runner == nil {
		http.Error(w, "pipeline not configured", http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
