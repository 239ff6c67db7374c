package trigger

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/atroinina/sales-pipeline/pkg/logging"
)

// ShutdownTimeout bounds how long in-flight runs get to finish on shutdown.
const ShutdownTimeout = 30 * time.Second

// NewServer wraps handler in an http.Server listening on addr.
// No write timeout is set: a request lasts as long as its run.
func NewServer(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
}

// Serve runs every server until ctx is cancelled or one of them fails, then
// shuts all of them down gracefully.
func Serve(ctx context.Context, servers ...*http.Server) error {
	logger := logging.NewLogger("trigger")

	listeners := make([]net.Listener, 0, len(servers))
	for _, srv := range servers {
		ln, err := net.Listen("tcp", srv.Addr)
		if err != nil {
			for _, open := range listeners {
				open.Close()
			}
			return fmt.Errorf("listen on %s: %w", srv.Addr, err)
		}
		listeners = append(listeners, ln)
	}

	errCh := make(chan error, len(servers))
	for i, srv := range servers {
		srv, ln := srv, listeners[i]
		logger.Info().Str("addr", ln.Addr().String()).Msg("Server listening")
		go func() {
			if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- fmt.Errorf("serve %s: %w", srv.Addr, err)
				return
			}
			errCh <- nil
		}()
	}

	var serveErr error
	select {
	case <-ctx.Done():
		logger.Info().Msg("Shutting down servers")
	case serveErr = <-errCh:
		logger.Error().Err(serveErr).Msg("Server stopped unexpectedly")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()

	for _, srv := range servers {
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Str("addr", srv.Addr).Msg("Server shutdown failed")
			if serveErr == nil {
				serveErr = err
			}
		}
	}

	return serveErr
}
