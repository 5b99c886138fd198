package httpserver

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"
)

const shutdownTimeout = 5 * time.Second

// New builds an HTTP server with sane defaults for this project.
func New(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}
}

// Listen binds srv's address without serving, so an occupied port is
// reported before any work starts.
func Listen(srv *http.Server) (net.Listener, error) {
	return net.Listen("tcp", srv.Addr)
}

// Serve binds srv's address and runs it until ctx is done.
func Serve(ctx context.Context, srv *http.Server) error {
	ln, err := Listen(srv)
	if err != nil {
		return err
	}
	return ServeListener(ctx, srv, ln)
}

// ServeListener runs srv on ln until ctx is done, then shuts it down
// gracefully. ln is closed on return.
func ServeListener(ctx context.Context, srv *http.Server, ln net.Listener) error {
	errCh := make(chan error, 1)
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
