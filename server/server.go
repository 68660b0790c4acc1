package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"

	"github.com/poiesic/fixit"
)

const shutdownTimeout = 10 * time.Second

// Server exposes the retrieval engine over HTTP.
type Server struct {
	engine   *fixit.Engine
	sessions *SessionStore
	watcher  *Watcher
	logger   *slog.Logger

	http *http.Server
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithSessionStore replaces the default session store, e.g. to tune the
// turn window or session TTL.
func WithSessionStore(store *SessionStore) Option {
	return func(s *Server) {
		if store != nil {
			s.sessions = store
		}
	}
}

// WithWatcher attaches a corpus watcher that is started and stopped with
// the server.
func WithWatcher(w *Watcher) Option {
	return func(s *Server) {
		s.watcher = w
	}
}

// NewServer creates an API server over the engine, listening on addr once
// Run is called.
func NewServer(engine *fixit.Engine, addr string, opts ...Option) (*Server, error) {
	if engine == nil {
		return nil, ErrEngineRequired
	}

	s := &Server{
		engine:   engine,
		sessions: NewSessionStore(0, 0, 0),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("component", "server")

	s.http = &http.Server{
		Addr:              addr,
		Handler:           s.router(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s, nil
}

func (s *Server) router() *gin.Engine {
	router := gin.New()
	router.Use(
		recovery(s.logger),
		requestId(),
		requestLogger(s.logger),
		gzip.Gzip(gzip.DefaultCompression),
	)

	router.GET("/healthz", s.health)

	v1 := router.Group("/v1")
	v1.POST("/query", s.query)
	v1.POST("/search", s.search)
	v1.POST("/parts/search", s.partsSearch)
	v1.POST("/compatibility", s.compatibility)
	v1.POST("/troubleshoot", s.troubleshoot)
	v1.POST("/installation", s.installation)
	v1.GET("/collections", s.collections)

	return router
}

// Handler returns the HTTP handler, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.http.Handler
}

// Run serves until ctx is canceled, then drains in-flight requests. The
// corpus watcher, when attached, runs for the same span.
func (s *Server) Run(ctx context.Context) error {
	if s.watcher != nil {
		if err := s.watcher.Start(ctx); err != nil {
			return err
		}
		defer s.watcher.Stop()
	}

	errCh := make(chan error, 1)
	go func() {
		if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	s.logger.Info("http server listening", "addr", s.http.Addr)

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("server stopping")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return s.http.Shutdown(shutdownCtx)
}
