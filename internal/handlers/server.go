package handlers

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"
)

// NewServer returns an HTTP server with the timeouts every service uses
func NewServer(port string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:         ":" + port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

// Serve runs server until ctx is cancelled, then shuts it down gracefully
func Serve(ctx context.Context, name string, server *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		log.Printf("%s listening on %s", name, server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Printf("%s shutting down...", name)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
