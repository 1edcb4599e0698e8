// Package server provides HTTP server setup for the streamhub service.
package server

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/streamhub-systems/streamhub/common/middleware"
	"github.com/streamhub-systems/streamhub/internal/handlers"
)

// NewRouter constructs a ServeMux with streamhub API routes registered.
func NewRouter(h *handlers.Handler) http.Handler {
	mux := http.NewServeMux()

	// Health check endpoints
	mux.HandleFunc("/healthz", h.HealthCheck)
	mux.HandleFunc("/readyz", h.ReadyCheck)

	// Prometheus metrics
	mux.Handle("/metrics", promhttp.Handler())

	// Stream routes
	mux.HandleFunc("/v1/streams/events", h.SubmitEventHandler)
	mux.HandleFunc("/v1/streams/query", h.QueryHandler)
	mux.HandleFunc("/v1/streams/", h.StreamHandler)

	// Dapp registry routes
	mux.HandleFunc("/v1/dapps", h.DappsHandler)
	mux.HandleFunc("/v1/dapps/", h.DappHandler)

	return middleware.RequestID(mux)
}
