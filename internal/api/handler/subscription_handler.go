package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/petflix/notifier/internal/domain"
	"github.com/petflix/notifier/internal/service"
)

// SubscriptionHandler manages browser push subscription registration.
type SubscriptionHandler struct {
	svc    *service.EventService
	logger *zap.Logger
}

func NewSubscriptionHandler(svc *service.EventService, logger *zap.Logger) *SubscriptionHandler {
	return &SubscriptionHandler{svc: svc, logger: logger}
}

// Create handles POST /internal/v1/subscriptions
func (h *SubscriptionHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateSubscriptionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	sub, err := h.svc.RegisterSubscription(r.Context(), req)
	if err != nil {
		h.logger.Warn("subscription registration failed", zap.Error(err))
		mapError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, sub)
}

// Delete handles DELETE /internal/v1/subscriptions/{id}
func (h *SubscriptionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.svc.RevokeSubscription(r.Context(), id); err != nil {
		mapError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
