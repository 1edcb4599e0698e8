package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/streamhub-systems/streamhub/common/httputil"
	"github.com/streamhub-systems/streamhub/internal/models"
)

// QueryRequest is the body of POST /v1/streams/query.
type QueryRequest struct {
	Predicate json.RawMessage `json:"predicate"`
	Limit     int             `json:"limit,omitempty"`
}

// QueryResponse lists the stream ids matching a signal predicate.
type QueryResponse struct {
	StreamIDs []string `json:"streamIds"`
}

// SubmitEventHandler handles POST /v1/streams/events.
func (h *Handler) SubmitEventHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}

	var event models.Event
	if err := httputil.DecodeJSON(r, &event); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	result, err := h.resolver.SubmitEvent(r.Context(), &event)
	if err != nil {
		h.writeSubmitError(w, r, err)
		return
	}

	status := http.StatusOK
	if result.Applied && event.IsGenesis() {
		status = http.StatusCreated
	}
	httputil.WriteJSON(w, status, result)
}

func (h *Handler) writeSubmitError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, models.ErrMalformedEvent):
		httputil.WriteError(w, http.StatusBadRequest, "malformed event", err.Error())
	case errors.Is(err, models.ErrChainIntegrity):
		httputil.WriteError(w, http.StatusUnprocessableEntity, "chain integrity violation", err.Error())
	case errors.Is(err, models.ErrUnknownStream):
		httputil.WriteError(w, http.StatusNotFound, "unknown stream", err.Error())
	default:
		h.logger.ErrorContext(r.Context(), "submit failed", "error", err)
		httputil.WriteError(w, http.StatusInternalServerError, "internal error", "")
	}
}

// StreamHandler handles GET /v1/streams/{id}.
func (h *Handler) StreamHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}

	id := extractIDFromPath(r.URL.Path, "/v1/streams")
	if id == "" {
		httputil.WriteError(w, http.StatusBadRequest, "stream id required", "")
		return
	}

	stream, err := h.resolver.GetStream(r.Context(), id)
	if err != nil {
		if errors.Is(err, models.ErrUnknownStream) {
			httputil.WriteError(w, http.StatusNotFound, "unknown stream", id)
			return
		}
		h.logger.ErrorContext(r.Context(), "get stream failed", "stream_id", id, "error", err)
		httputil.WriteError(w, http.StatusInternalServerError, "internal error", "")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, stream)
}

// QueryHandler handles POST /v1/streams/query.
func (h *Handler) QueryHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}

	var req QueryRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	if len(req.Predicate) == 0 {
		httputil.WriteError(w, http.StatusBadRequest, "predicate required", "")
		return
	}

	ids, err := h.resolver.QueryBySignal(r.Context(), req.Predicate, req.Limit)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "signal query failed", "error", err)
		httputil.WriteError(w, http.StatusInternalServerError, "internal error", "")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, QueryResponse{StreamIDs: ids})
}
