package faceflow

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"
)

// ShutdownTimeout bounds how long in-flight requests may take once Serve's
// context is cancelled.
const ShutdownTimeout = 10 * time.Second

// Serve listens on addr and serves the console until ctx is cancelled. The
// stored session is read back only after the listener is up, so requests
// arriving first see the loading page.
func (ff *FaceFlow) Serve(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", addr, err)
	}
	return ff.ServeListener(ctx, ln)
}

// ServeListener is Serve on an existing listener.
func (ff *FaceFlow) ServeListener(ctx context.Context, ln net.Listener) error {
	handler := ff.Handler()
	if handler == nil {
		ln.Close()
		return errors.New("router does not implement http.Handler")
	}

	srv := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()
	ff.logger.Info("faceflow listening", "addr", ln.Addr().String())

	go ff.Rehydrate(ctx)

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http server failed: %w", err)
	case <-ctx.Done():
	}

	ff.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
