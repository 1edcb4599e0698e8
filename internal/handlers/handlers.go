// Package handlers provides HTTP request handlers for the streamhub service.
package handlers

import (
	"net/http"
	"strings"

	"github.com/streamhub-systems/streamhub/common/httputil"
	"github.com/streamhub-systems/streamhub/common/logging"
	"github.com/streamhub-systems/streamhub/internal/dapps"
	"github.com/streamhub-systems/streamhub/internal/engine"
)

// Handler provides HTTP handlers for the streamhub service.
type Handler struct {
	resolver *engine.Resolver
	dapps    *dapps.Service
	logger   *logging.Logger
}

// NewHandler creates a new Handler instance.
func NewHandler(resolver *engine.Resolver, dappSvc *dapps.Service, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{resolver: resolver, dapps: dappSvc, logger: logger}
}

// extractIDFromPath extracts an ID from a URL path like /v1/streams/{id}.
func extractIDFromPath(path, prefix string) string {
	remaining := strings.TrimPrefix(path, prefix)
	remaining = strings.TrimPrefix(remaining, "/")

	parts := strings.Split(remaining, "/")
	if len(parts) > 0 {
		return parts[0]
	}
	return ""
}

// HealthCheck handles GET /healthz.
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"service": "streamhub",
	})
}

// ReadyCheck handles GET /readyz.
func (h *Handler) ReadyCheck(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, map[string]string{
		"status":  "ready",
		"service": "streamhub",
	})
}

func methodNotAllowed(w http.ResponseWriter) {
	httputil.WriteError(w, http.StatusMethodNotAllowed, "method not allowed", "")
}
