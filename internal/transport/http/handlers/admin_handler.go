package handlers

import (
	"net/http"
	"strconv"
	"strings"

	pgrepo "github.com/GratiaManullang03/hris-attandance/internal/repo/postgres"
	attsvc "github.com/GratiaManullang03/hris-attandance/internal/services/attendance"
	"github.com/GratiaManullang03/hris-attandance/internal/transport/http/dto"
	httperrors "github.com/GratiaManullang03/hris-attandance/internal/transport/http/errors"
)

type AdminHandler struct {
	service *attsvc.Service
}

func NewAdminHandler(service *attsvc.Service) *AdminHandler {
	return &AdminHandler{service: service}
}

// Sessions lists attendance sessions across users for back-office review.
// Filters: user_id, site_id, date_from, date_to, status, sort=asc|desc.
func (h *AdminHandler) Sessions(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		writeInternal(w, "ATTENDANCE_SERVICE_UNAVAILABLE", "attendance service is unavailable")
		return
	}

	filter := pgrepo.SessionFilter{
		SiteID: strings.TrimSpace(r.URL.Query().Get("site_id")),
		Status: strings.TrimSpace(r.URL.Query().Get("status")),
	}
	if v := strings.TrimSpace(r.URL.Query().Get("user_id")); v != "" {
		userID, err := strconv.ParseInt(v, 10, 64)
		if err != nil || userID <= 0 {
			writeBadRequest(w, "VALIDATION_ERROR", "user_id must be a positive integer")
			return
		}
		filter.UserID = userID
	}
	if from, ok := parseDateParam(r, "date_from"); !ok {
		writeBadRequest(w, "VALIDATION_ERROR", "date_from must be formatted YYYY-MM-DD")
		return
	} else if !from.IsZero() {
		filter.DateFrom = &from
	}
	if to, ok := parseDateParam(r, "date_to"); !ok {
		writeBadRequest(w, "VALIDATION_ERROR", "date_to must be formatted YYYY-MM-DD")
		return
	} else if !to.IsZero() {
		filter.DateTo = &to
	}

	limit, offset := parsePagination(r, 100, 500)
	sortAsc := strings.EqualFold(strings.TrimSpace(r.URL.Query().Get("sort")), "asc")

	page, err := h.service.AdminSessions(r.Context(), filter, limit, offset, sortAsc)
	if err != nil {
		writeInternal(w, "INTERNAL_ERROR", "failed to list sessions")
		return
	}

	payload := dto.SessionListResponse{
		Sessions: make([]dto.SessionResponse, 0, len(page.Sessions)),
		Total:    page.Total,
		Limit:    limit,
		Offset:   offset,
	}
	for _, s := range page.Sessions {
		payload.Sessions = append(payload.Sessions, dto.MapSession(s))
	}

	httperrors.Write(w, http.StatusOK, payload)
}
