package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/jkoufopoulos/shopq-prototype-sub002/internal/ratelimit"
	"github.com/jkoufopoulos/shopq-prototype-sub002/internal/workers"
)

// ScanHandler exposes control over the background inbox scanner.
type ScanHandler struct {
	processor *workers.ScanProcessor
}

// NewScanHandler creates a new scan handler
func NewScanHandler(processor *workers.ScanProcessor) *ScanHandler {
	return &ScanHandler{processor: processor}
}

// ScanStatusResponse is the scanner state plus its run metrics.
type ScanStatusResponse struct {
	Running bool                    `json:"running"`
	Paused  bool                    `json:"paused"`
	Metrics workers.MetricsSnapshot `json:"metrics"`
}

func (h *ScanHandler) status() ScanStatusResponse {
	return ScanStatusResponse{
		Running: h.processor.IsRunning(),
		Paused:  h.processor.IsPaused(),
		Metrics: h.processor.Metrics().Snapshot(),
	}
}

// GetStatus handles GET /api/scan/status
func (h *ScanHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.status())
}

// RunNow handles POST /api/scan/run. The scan runs synchronously so the
// response reflects its outcome. Manual runs are rate limited unless the
// caller passes ?force=true.
func (h *ScanHandler) RunNow(w http.ResponseWriter, r *http.Request) {
	if h.processor.IsPaused() {
		http.Error(w, "Scanner is paused", http.StatusConflict)
		return
	}

	forced := r.URL.Query().Get("force") == "true"
	lastRun := h.processor.Metrics().Snapshot().LastRun
	check := ratelimit.CheckScanRateLimit(&lastRun, ratelimit.DefaultManualScanInterval, forced)
	if check.ShouldBlock {
		http.Error(w, fmt.Sprintf("Scan was run recently, retry in %s or use force=true", check.RemainingTime.Round(time.Second)), http.StatusTooManyRequests)
		return
	}

	h.processor.RunScan()
	writeJSON(w, http.StatusOK, h.status())
}

// Pause handles POST /api/scan/pause
func (h *ScanHandler) Pause(w http.ResponseWriter, r *http.Request) {
	h.processor.Pause()
	writeJSON(w, http.StatusOK, h.status())
}

// Resume handles POST /api/scan/resume
func (h *ScanHandler) Resume(w http.ResponseWriter, r *http.Request) {
	h.processor.Resume()
	writeJSON(w, http.StatusOK, h.status())
}
