package handler

import (
	"net/http"

	"github.com/petflix/notifier/internal/domain"
	"github.com/petflix/notifier/internal/queue"
	"github.com/petflix/notifier/internal/service"
)

// StatsHandler serves a human-readable JSON snapshot of the pipeline.
// Raw Prometheus metrics (counters, histograms) are available at /metrics
// via promhttp.Handler and are separate from this endpoint.
type StatsHandler struct {
	svc    *service.EventService
	intake *queue.Intake
}

func NewStatsHandler(svc *service.EventService, intake *queue.Intake) *StatsHandler {
	return &StatsHandler{svc: svc, intake: intake}
}

// GetStats handles GET /internal/v1/stats
func (h *StatsHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	counts, err := h.svc.PendingCounts(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to count pending events")
		return
	}

	pending := make(map[string]int, len(domain.EventTypes))
	total := 0
	for _, t := range domain.EventTypes {
		pending[string(t)] = counts[t]
		total += counts[t]
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"pending_events": pending,
		"pending_total":  total,
		"intake_depth":   h.intake.Depth(),
	})
}
