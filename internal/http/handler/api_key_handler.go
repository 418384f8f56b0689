package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/lmring/lmring/internal/http/response"
	"github.com/lmring/lmring/internal/observability"
	"github.com/lmring/lmring/internal/service"
)

// APIKeyHandler manages per-user provider keys. Plaintext keys are accepted
// on write and never returned.
type APIKeyHandler struct {
	keys service.APIKeyServiceInterface
}

func NewAPIKeyHandler(keys service.APIKeyServiceInterface) *APIKeyHandler {
	return &APIKeyHandler{keys: keys}
}

func (h *APIKeyHandler) List(w http.ResponseWriter, r *http.Request) {
	u, ok := currentUser(w, r)
	if !ok {
		return
	}
	keys, err := h.keys.List(r.Context(), u.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, map[string]any{"items": keys})
}

type putAPIKeyRequest struct {
	APIKey string `json:"api_key"`
}

func (h *APIKeyHandler) Put(w http.ResponseWriter, r *http.Request) {
	u, ok := currentUser(w, r)
	if !ok {
		return
	}
	var body putAPIKeyRequest
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, r, err)
		return
	}
	provider := chi.URLParam(r, "provider")
	masked, err := h.keys.Put(r.Context(), u.ID, provider, body.APIKey)
	if err != nil {
		writeError(w, r, err)
		return
	}
	observability.Audit(r, observability.AuditInput{EventName: "api_key.put", ActorUserID: u.ID.String(), TargetType: "api_key", TargetID: masked.ProviderName, Action: "upsert", Outcome: "success"})
	response.JSON(w, r, http.StatusOK, masked)
}

func (h *APIKeyHandler) Delete(w http.ResponseWriter, r *http.Request) {
	u, ok := currentUser(w, r)
	if !ok {
		return
	}
	provider := chi.URLParam(r, "provider")
	if err := h.keys.Delete(r.Context(), u.ID, provider); err != nil {
		writeError(w, r, err)
		return
	}
	observability.Audit(r, observability.AuditInput{EventName: "api_key.delete", ActorUserID: u.ID.String(), TargetType: "api_key", TargetID: provider, Action: "delete", Outcome: "success"})
	response.NoContent(w)
}
