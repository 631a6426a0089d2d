package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// healthHandler reports liveness.
func (a *App) healthHandler(w http.ResponseWriter, r *http.Request) {
	a.logger.Debug("Health check endpoint hit.", "remote_addr", r.RemoteAddr, "path", r.URL.Path)
	w.WriteHeader(http.StatusOK)
	fmt.Fprintln(w, "OK")
}

// observabilityMux serves /health and /metrics.
func (a *App) observabilityMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", a.healthHandler)
	mux.Handle("GET /metrics", promhttp.Handler())
	return mux
}

// startHTTPServer runs handler on the configured port without blocking.
func (a *App) startHTTPServer(handler http.Handler) {
	if a.config.HTTPPort <= 0 {
		a.logger.Debug("HTTP server not started: disabled")
		return
	}

	addr := fmt.Sprintf(":%d", a.config.HTTPPort)
	a.httpServer = &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	srv := a.httpServer
	go func() {
		a.logger.Info("HTTP server starting", "address", fmt.Sprintf("http://localhost%s", addr))
		// ListenAndServe returns ErrServerClosed on graceful shutdown.
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error("HTTP server failed unexpectedly", "error", err)
		}
	}()
}

func (a *App) closeHTTPServer() error {
	if a.httpServer == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	a.logger.Info("Shutting down HTTP server...")
	if err := a.httpServer.Shutdown(ctx); err != nil {
		a.logger.Error("HTTP server shutdown failed", "error", err)
		return err
	}
	a.httpServer = nil
	a.logger.Debug("HTTP server shut down gracefully.")
	return nil
}
