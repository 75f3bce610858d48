package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	apimw "github.com/petflix/notifier/internal/api/middleware"
	"github.com/petflix/notifier/internal/domain"
	"github.com/petflix/notifier/internal/service"
)

// EventHandler handles the internal event-enqueue and inspection endpoints.
// These are service-to-service routes called by the Petflix backend after a
// follow/comment/like/video-upload action commits, never by end users.
type EventHandler struct {
	svc    *service.EventService
	logger *zap.Logger
}

func NewEventHandler(svc *service.EventService, logger *zap.Logger) *EventHandler {
	return &EventHandler{svc: svc, logger: logger}
}

// Create handles POST /internal/v1/events
//
// Answers 202 Accepted: the event is buffered for asynchronous persistence
// and delivery, and the caller must not wait on either.
func (h *EventHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.EnqueueRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	e, err := h.svc.Enqueue(r.Context(), req)
	if err != nil {
		h.logger.Warn("enqueue rejected",
			zap.String("correlation_id", apimw.GetCorrelationID(r.Context())),
			zap.Error(err),
		)
		mapError(w, err)
		return
	}

	respondJSON(w, http.StatusAccepted, e)
}

// GetByID handles GET /internal/v1/events/{id}
func (h *EventHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	e, err := h.svc.GetByID(r.Context(), id)
	if err != nil {
		mapError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, e)
}

// List handles GET /internal/v1/events with filtering and pagination.
func (h *EventHandler) List(w http.ResponseWriter, r *http.Request) {
	filter := parseListFilter(r)
	events, total, err := h.svc.List(r.Context(), filter)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to list events")
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"data":  events,
		"total": total,
		"page":  filter.Page,
		"limit": filter.Limit,
	})
}

func parseListFilter(r *http.Request) domain.ListFilter {
	q := r.URL.Query()
	filter := domain.ListFilter{Page: 1, Limit: 20}

	if p, err := strconv.Atoi(q.Get("page")); err == nil && p > 0 {
		filter.Page = p
	}
	if l, err := strconv.Atoi(q.Get("limit")); err == nil && l > 0 && l <= 100 {
		filter.Limit = l
	}
	if s := q.Get("status"); s != "" {
		st := domain.EventStatus(s)
		if st.IsValid() {
			filter.Status = &st
		}
	}
	if t := q.Get("type"); t != "" {
		et := domain.EventType(t)
		if et.IsValid() {
			filter.Type = &et
		}
	}
	if u := q.Get("user_id"); u != "" {
		filter.UserID = &u
	}
	if f := q.Get("from"); f != "" {
		if t, err := time.Parse(time.RFC3339, f); err == nil {
			filter.From = &t
		}
	}
	if to := q.Get("to"); to != "" {
		if t, err := time.Parse(time.RFC3339, to); err == nil {
			filter.To = &t
		}
	}
	return filter
}
