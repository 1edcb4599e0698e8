package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/streamhub-systems/streamhub/common/httputil"
	"github.com/streamhub-systems/streamhub/internal/dapps"
)

// DappsHandler handles /v1/dapps routes.
func (h *Handler) DappsHandler(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.ListDapps(w, r)
	case http.MethodPost:
		h.DeployDapp(w, r)
	default:
		methodNotAllowed(w)
	}
}

// DappHandler handles /v1/dapps/{id} and /v1/dapps/{id}/models routes.
func (h *Handler) DappHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}

	raw := extractIDFromPath(r.URL.Path, "/v1/dapps")
	id, err := uuid.Parse(raw)
	if err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "invalid dapp id", raw)
		return
	}

	if strings.HasSuffix(r.URL.Path, "/models") {
		h.getFileSystemModels(w, r, id)
		return
	}
	h.getDapp(w, r, id)
}

// DeployDapp handles POST /v1/dapps.
func (h *Handler) DeployDapp(w http.ResponseWriter, r *http.Request) {
	var req dapps.DeployRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	dapp, err := h.dapps.DeployDapp(r.Context(), req)
	if err != nil {
		if errors.Is(err, dapps.ErrDappExists) {
			httputil.WriteError(w, http.StatusConflict, "dapp already exists", "")
			return
		}
		httputil.WriteError(w, http.StatusBadRequest, "deploy failed", err.Error())
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, dapp)
}

// ListDapps handles GET /v1/dapps.
func (h *Handler) ListDapps(w http.ResponseWriter, r *http.Request) {
	limit, err := httputil.ParseIntParam(r, "limit", 100)
	if err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "invalid limit", err.Error())
		return
	}

	list, err := h.dapps.GetDapps(r.Context(), limit)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "list dapps failed", "error", err)
		httputil.WriteError(w, http.StatusInternalServerError, "internal error", "")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]interface{}{"dapps": list})
}

func (h *Handler) getDapp(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	dapp, err := h.dapps.GetDapp(r.Context(), id)
	if err != nil {
		if errors.Is(err, dapps.ErrDappNotFound) {
			httputil.WriteError(w, http.StatusNotFound, "dapp not found", id.String())
			return
		}
		h.logger.ErrorContext(r.Context(), "get dapp failed", "dapp_id", id, "error", err)
		httputil.WriteError(w, http.StatusInternalServerError, "internal error", "")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, dapp)
}

func (h *Handler) getFileSystemModels(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	models, err := h.dapps.GetFileSystemModels(r.Context(), id)
	if err != nil {
		if errors.Is(err, dapps.ErrDappNotFound) {
			httputil.WriteError(w, http.StatusNotFound, "dapp not found", id.String())
			return
		}
		h.logger.ErrorContext(r.Context(), "list models failed", "dapp_id", id, "error", err)
		httputil.WriteError(w, http.StatusInternalServerError, "internal error", "")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]interface{}{"models": models})
}
