package handlers

import (
	"errors"
	"net/http"
	"strings"

	attsvc "github.com/GratiaManullang03/hris-attandance/internal/services/attendance"
	authsvc "github.com/GratiaManullang03/hris-attandance/internal/services/auth"
	tokensvc "github.com/GratiaManullang03/hris-attandance/internal/services/token"
	"github.com/GratiaManullang03/hris-attandance/internal/transport/http/dto"
	httperrors "github.com/GratiaManullang03/hris-attandance/internal/transport/http/errors"
)

type AttendanceHandler struct {
	service *attsvc.Service
}

func NewAttendanceHandler(service *attsvc.Service) *AttendanceHandler {
	return &AttendanceHandler{service: service}
}

// Scan accepts one QR scan submission and records the check-in or check-out.
func (h *AttendanceHandler) Scan(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.service == nil {
		writeInternal(w, "ATTENDANCE_SERVICE_UNAVAILABLE", "attendance service is unavailable")
		return
	}

	var req dto.ScanRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid request body")
		return
	}
	if strings.TrimSpace(req.Token) == "" {
		writeBadRequest(w, "VALIDATION_ERROR", "token is required")
		return
	}

	result, err := h.service.ProcessScan(r.Context(), attsvc.ScanInput{
		UserID:   identity.UserID,
		Token:    req.Token,
		Lat:      req.Lat,
		Lon:      req.Lon,
		DeviceID: req.DeviceID,
	})
	if err != nil {
		handleScanError(w, err)
		return
	}

	httperrors.Write(w, http.StatusOK, dto.ScanResponse{
		OK:        true,
		SessionID: result.Session.ID,
		SiteID:    result.Session.SiteID,
		Status:    result.Session.Status,
		EventType: result.Event.EventType,
		Timestamp: result.Event.OccurredAt,
		Message:   result.Message,
	})
}

func handleScanError(w http.ResponseWriter, err error) {
	var (
		outErr  *attsvc.OutOfGeofenceError
		rateErr *attsvc.RateLimitedError
	)
	switch {
	case errors.Is(err, tokensvc.ErrTokenInvalid):
		writeBadRequest(w, "TOKEN_INVALID", "qr token is invalid or expired")
	case errors.Is(err, attsvc.ErrLocationRequired):
		writeBadRequest(w, "LOCATION_REQUIRED", "location is required for this site")
	case errors.Is(err, attsvc.ErrSiteNotFound):
		writeNotFound(w, "SITE_NOT_FOUND", "site not found")
	case errors.Is(err, attsvc.ErrGeofenceMisconfigured):
		httperrors.Write(w, http.StatusUnprocessableEntity, httperrors.APIError{
			Code:    "GEOFENCE_MISCONFIGURED",
			Message: "site geofence is misconfigured, contact an administrator",
		})
	case errors.As(err, &outErr):
		httperrors.Write(w, http.StatusForbidden, httperrors.GeofenceError{
			Code:      "OUT_OF_GEOFENCE",
			Message:   "you are outside the site boundary",
			DistanceM: outErr.DistanceM,
			RadiusM:   outErr.RadiusM,
		})
	case errors.Is(err, attsvc.ErrReplayDetected):
		httperrors.Write(w, http.StatusConflict, httperrors.APIError{
			Code:    "TOKEN_REPLAYED",
			Message: "qr token was already used, wait for the next one",
		})
	case errors.Is(err, attsvc.ErrSessionConflict):
		httperrors.Write(w, http.StatusConflict, httperrors.APIError{
			Code:    "ALREADY_RECORDED",
			Message: "attendance was already recorded",
		})
	case errors.As(err, &rateErr):
		httperrors.Write(w, http.StatusTooManyRequests, httperrors.RateLimitError{
			Code:          "RATE_LIMITED",
			Message:       "too many scan attempts, slow down",
			RetryAfterSec: rateErr.RetryAfterSec,
		})
	default:
		writeInternal(w, "INTERNAL_ERROR", "failed to process scan")
	}
}

// SessionToday returns the caller's most recent session for the current day.
func (h *AttendanceHandler) SessionToday(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.service == nil {
		writeInternal(w, "ATTENDANCE_SERVICE_UNAVAILABLE", "attendance service is unavailable")
		return
	}

	session, err := h.service.SessionToday(r.Context(), identity.UserID)
	if err != nil {
		if errors.Is(err, attsvc.ErrSessionNotFound) {
			httperrors.Write(w, http.StatusOK, map[string]any{"session": nil})
			return
		}
		writeInternal(w, "INTERNAL_ERROR", "failed to load session")
		return
	}

	httperrors.Write(w, http.StatusOK, map[string]any{
		"session": dto.MapSession(session),
	})
}

// MyEvents returns the caller's audit trail for one day, newest first.
func (h *AttendanceHandler) MyEvents(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.service == nil {
		writeInternal(w, "ATTENDANCE_SERVICE_UNAVAILABLE", "attendance service is unavailable")
		return
	}

	day, ok := parseDateParam(r, "date")
	if !ok {
		writeBadRequest(w, "VALIDATION_ERROR", "date must be formatted YYYY-MM-DD")
		return
	}
	limit, offset := parsePagination(r, 50, 200)

	events, err := h.service.UserEvents(r.Context(), identity.UserID, day, limit, offset)
	if err != nil {
		writeInternal(w, "INTERNAL_ERROR", "failed to load events")
		return
	}

	payload := dto.EventListResponse{
		Events: make([]dto.EventResponse, 0, len(events)),
		Limit:  limit,
		Offset: offset,
	}
	for _, e := range events {
		payload.Events = append(payload.Events, dto.MapEvent(e))
	}

	httperrors.Write(w, http.StatusOK, payload)
}
