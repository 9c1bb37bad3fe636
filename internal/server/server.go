package server

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/gilestrolab/ethosensor/internal/config"
	"github.com/gilestrolab/ethosensor/internal/logging"
	"github.com/gilestrolab/ethosensor/internal/sensor"
	"github.com/gilestrolab/ethosensor/internal/storage"
)

const shutdownTimeout = 5 * time.Second

// Config holds the HTTP server configuration
type Config struct {
	// Addr is the listen address (e.g. ":80")
	Addr string

	// ID is the node identifier reported on / and /id (the MAC address)
	ID string

	// IP is the node's own address, reported on /
	IP string

	// StreamInterval is the push period for /live subscribers
	StreamInterval time.Duration
}

// Server exposes the last sensor reading and the device configuration over
// HTTP. It owns the in-memory configuration mirror: the mirror is only
// mutated after the storage façade reports a successful write.
type Server struct {
	config  *Config
	store   *storage.Store
	poller  *sensor.Poller
	restart func()

	mu  sync.RWMutex
	cfg config.Configuration

	httpServer *http.Server
}

// New creates a Server. cfg is the boot-time configuration mirror; restart
// is invoked (on a fresh goroutine) when /reset is requested and may be nil.
func New(serverConfig *Config, store *storage.Store, poller *sensor.Poller, cfg config.Configuration, restart func()) *Server {
	if serverConfig.StreamInterval <= 0 {
		serverConfig.StreamInterval = sensor.DefaultPollInterval
	}

	s := &Server{
		config:  serverConfig,
		store:   store,
		poller:  poller,
		cfg:     cfg,
		restart: restart,
	}
	s.httpServer = &http.Server{
		Addr:         serverConfig.Addr,
		Handler:      s.router(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 0, // /live streams indefinitely
	}
	return s
}

// router wires the HTTP routes.
func (s *Server) router() *mux.Router {
	r := mux.NewRouter()
	r.Use(s.logRequests)

	r.HandleFunc("/", s.handleStatus).Methods(http.MethodGet)
	r.HandleFunc("/id", s.handleID).Methods(http.MethodGet)
	r.HandleFunc("/set", s.handleSet).Methods(http.MethodPost)
	r.HandleFunc("/reset", s.handleReset).Methods(http.MethodGet)
	r.HandleFunc("/live", s.handleLive).Methods(http.MethodGet)
	r.NotFoundHandler = http.HandlerFunc(s.handleNotFound)

	return r
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logging.LogHTTPRequest(r.RemoteAddr, r.Method, r.URL.Path)
		next.ServeHTTP(w, r)
	})
}

// Run serves until the context is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errChan := make(chan error, 1)
	go func() {
		logging.Info("HTTP server listening", zap.String("addr", s.config.Addr))
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	select {
	case err := <-errChan:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http server shutdown: %w", err)
	}
	logging.Info("HTTP server stopped")
	return nil
}

// Configuration returns a copy of the in-memory mirror.
func (s *Server) Configuration() config.Configuration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg
}
