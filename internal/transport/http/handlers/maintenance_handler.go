package handlers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/GratiaManullang03/hris-attandance/internal/jobs/cleanup"
	httperrors "github.com/GratiaManullang03/hris-attandance/internal/transport/http/errors"
)

// MaintenanceHandler triggers the cleanup pass on demand, outside its
// background schedule.
type MaintenanceHandler struct {
	job *cleanup.Job
}

func NewMaintenanceHandler(job *cleanup.Job) *MaintenanceHandler {
	return &MaintenanceHandler{job: job}
}

func (h *MaintenanceHandler) CleanupTokens(w http.ResponseWriter, r *http.Request) {
	if h.job == nil {
		writeInternal(w, "MAINTENANCE_UNAVAILABLE", "maintenance job is unavailable")
		return
	}

	var retention time.Duration
	if v := strings.TrimSpace(r.URL.Query().Get("days_old")); v != "" {
		days, err := strconv.Atoi(v)
		if err != nil || days <= 0 {
			writeBadRequest(w, "VALIDATION_ERROR", "days_old must be a positive integer")
			return
		}
		retention = time.Duration(days) * 24 * time.Hour
	}

	stats, err := h.job.RunOnceWithRetention(r.Context(), retention)
	if err != nil {
		writeInternal(w, "INTERNAL_ERROR", "cleanup pass failed")
		return
	}

	httperrors.Write(w, http.StatusOK, map[string]any{
		"ok":                   true,
		"purged_tokens":        stats.PurgedTokens,
		"auto_closed_sessions": stats.AutoClosed,
	})
}
