// Package relay exposes a client to browsers and other processes: subscribe
// over WebSocket, publish over HTTP POST, here-now and status over HTTP GET.
package relay

import (
	"context"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/DeBrosOfficial/pubsub-client/pkg/client"
	"github.com/DeBrosOfficial/pubsub-client/pkg/config"
	"github.com/DeBrosOfficial/pubsub-client/pkg/logging"
	"github.com/DeBrosOfficial/pubsub-client/pkg/timetoken"
	"github.com/DeBrosOfficial/pubsub-client/pkg/wire"
)

const (
	maxPublishBody  = 32 << 10
	requestTimeout  = 30 * time.Second
	shutdownTimeout = 10 * time.Second
)

// Backend is the subset of *client.Client the relay drives.
type Backend interface {
	Subscribe(ctx context.Context, in client.SubscribeInput) (*client.Subscription, error)
	Unsubscribe(sub *client.Subscription) error
	Publish(ctx context.Context, channel string, message any, opts client.PublishOptions) (timetoken.Timetoken, error)
	Signal(ctx context.Context, channel string, message any) (timetoken.Timetoken, error)
	HereNow(ctx context.Context, channel string, opts client.HereNowOptions) (*wire.HereNow, error)
	Status() client.Status
	Health() *client.HealthStatus
}

// Server is the relay HTTP server.
type Server struct {
	backend Backend
	cfg     config.RelayConfig
	logger  *logging.ColoredLogger
	router  chi.Router

	connections atomic.Int64
}

// New creates a relay for backend.
func New(backend Backend, cfg config.RelayConfig, logger *logging.ColoredLogger) *Server {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	s := &Server{
		backend: backend,
		cfg:     cfg,
		logger:  logger,
		router:  chi.NewRouter(),
	}

	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(middleware.Recoverer)
	s.router.Use(s.corsMiddleware)

	s.router.Get("/health", s.healthHandler)
	s.router.Route("/v1", func(r chi.Router) {
		// The websocket route streams for as long as the peer stays connected.
		r.Get("/subscribe/ws", s.websocketHandler)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(requestTimeout))
			r.Post("/publish", s.publishHandler)
			r.Get("/presence/here-now", s.hereNowHandler)
			r.Get("/status", s.statusHandler)
		})
	})
	return s
}

// Handler returns the router.
func (s *Server) Handler() http.Handler { return s.router }

// Connections returns the number of open WebSocket subscribers.
func (s *Server) Connections() int64 { return s.connections.Load() }

// ListenAndServe serves on cfg.ListenAddr until ctx is cancelled, then shuts
// down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.ListenAddr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.logger.ComponentInfo(logging.ComponentRelay, "Relay listening",
			zap.String("addr", s.cfg.ListenAddr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("relay listen: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		s.logger.ComponentInfo(logging.ComponentRelay, "Relay shutting down",
			zap.Int64("connections", s.connections.Load()))
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if origin := r.Header.Get("Origin"); origin != "" && s.originAllowed(origin) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
			w.Header().Add("Vary", "Origin")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// originAllowed reports whether a browser origin may use the relay. An empty
// allow list accepts every origin.
func (s *Server) originAllowed(origin string) bool {
	if len(s.cfg.AllowedOrigins) == 0 {
		return true
	}
	for _, o := range s.cfg.AllowedOrigins {
		if o == "*" || o == origin {
			return true
		}
	}
	return false
}
