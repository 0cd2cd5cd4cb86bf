package handlers

import (
	"fmt"
	"log"
	"net/http"

	"github.com/jkoufopoulos/shopq-prototype-sub002/internal/storage"
)

// StatsHandler reports aggregate order counts for dashboard views.
type StatsHandler struct {
	store storage.Store
}

// NewStatsHandler creates a new stats handler
func NewStatsHandler(store storage.Store) *StatsHandler {
	return &StatsHandler{store: store}
}

// StatsResponse summarizes the order book.
type StatsResponse struct {
	TotalOrders  int            `json:"total_orders"`
	ByStatus     map[string]int `json:"by_status"`
	ByConfidence map[string]int `json:"by_confidence"`
	WithDeadline int            `json:"with_deadline"`
}

// GetStats handles GET /api/stats
func (h *StatsHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	all, err := h.store.GetAllOrders()
	if err != nil {
		log.Printf("ERROR: Failed to get orders for stats: %v", err)
		http.Error(w, fmt.Sprintf("Failed to get stats: %v", err), http.StatusInternalServerError)
		return
	}

	stats := StatsResponse{
		TotalOrders:  len(all),
		ByStatus:     make(map[string]int),
		ByConfidence: make(map[string]int),
	}
	for _, o := range all {
		stats.ByStatus[string(o.Status)]++
		stats.ByConfidence[string(o.DeadlineConfidence)]++
		if o.ReturnByDate != nil {
			stats.WithDeadline++
		}
	}

	writeJSON(w, http.StatusOK, stats)
}
