package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	attsvc "github.com/GratiaManullang03/hris-attandance/internal/services/attendance"
	"github.com/GratiaManullang03/hris-attandance/internal/transport/http/dto"
	httperrors "github.com/GratiaManullang03/hris-attandance/internal/transport/http/errors"
)

// DisplayHandler serves rolling tokens to site kiosks. Kiosks authenticate
// with a shared display key, not a user token.
type DisplayHandler struct {
	service *attsvc.Service
}

func NewDisplayHandler(service *attsvc.Service) *DisplayHandler {
	return &DisplayHandler{service: service}
}

func (h *DisplayHandler) RollingToken(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		writeInternal(w, "ATTENDANCE_SERVICE_UNAVAILABLE", "attendance service is unavailable")
		return
	}

	siteID := strings.TrimSpace(chi.URLParam(r, "siteID"))
	if siteID == "" {
		writeBadRequest(w, "VALIDATION_ERROR", "site id is required")
		return
	}

	display, err := h.service.GenerateDisplayToken(r.Context(), siteID)
	if err != nil {
		if errors.Is(err, attsvc.ErrSiteNotFound) {
			writeNotFound(w, "SITE_NOT_FOUND", "site not found")
			return
		}
		writeInternal(w, "INTERNAL_ERROR", "failed to issue rolling token")
		return
	}

	httperrors.Write(w, http.StatusOK, dto.RollingTokenResponse{
		Token:     display.Token,
		SiteID:    display.SiteID,
		Slot:      display.Slot,
		Mode:      display.Mode,
		ExpiresIn: int64(display.ExpiresIn.Seconds()),
	})
}
