package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/bz888/scribe/internal/api/server/handlers"
	"github.com/bz888/scribe/internal/config"
	"github.com/bz888/scribe/internal/gateway"
	"github.com/bz888/scribe/internal/logger"
	"github.com/bz888/scribe/internal/session"
	"github.com/bz888/scribe/internal/templates"
)

var LocalLogger = logger.NewLogger("Server")

const shutdownTimeout = 5 * time.Second

type Server struct {
	http    *http.Server
	Gateway *gateway.Gateway
}

// New wires the catalog, gateway, session registry and handlers together.
// Backend credentials are checked here, once.
func New(ctx context.Context, cfg *config.Config) (*Server, error) {
	catalog, err := templates.Load()
	if err != nil {
		return nil, fmt.Errorf("loading templates: %w", err)
	}

	gw := NewGateway(ctx, cfg)
	handler := handlers.NewHandler(
		session.NewRegistry(),
		session.NewController(gw, catalog),
		catalog,
		gw,
	)

	return &Server{
		http: &http.Server{
			Addr:              cfg.ServerAddr(),
			Handler:           NewRouter(handler),
			ReadHeaderTimeout: 10 * time.Second,
		},
		Gateway: gw,
	}, nil
}

func (s *Server) Handler() http.Handler {
	return s.http.Handler
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.http.Addr)
	if err != nil {
		return fmt.Errorf("error starting server: %w", err)
	}
	return s.Serve(ctx, ln)
}

func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	LocalLogger.Info("Server started on http://" + ln.Addr().String() + "/")

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.http.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		LocalLogger.Info("Server shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return s.http.Shutdown(shutdownCtx)
	}
}
