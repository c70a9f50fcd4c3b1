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

type SitesHandler struct {
	service *attsvc.Service
}

func NewSitesHandler(service *attsvc.Service) *SitesHandler {
	return &SitesHandler{service: service}
}

func (h *SitesHandler) List(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		writeInternal(w, "ATTENDANCE_SERVICE_UNAVAILABLE", "attendance service is unavailable")
		return
	}

	limit, offset := parsePagination(r, 50, 200)

	sites, err := h.service.Sites(r.Context(), limit, offset)
	if err != nil {
		writeInternal(w, "INTERNAL_ERROR", "failed to list sites")
		return
	}

	payload := dto.SiteListResponse{
		Sites:  make([]dto.SiteResponse, 0, len(sites)),
		Limit:  limit,
		Offset: offset,
	}
	for _, s := range sites {
		payload.Sites = append(payload.Sites, dto.MapSite(s))
	}

	httperrors.Write(w, http.StatusOK, payload)
}

func (h *SitesHandler) Get(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		writeInternal(w, "ATTENDANCE_SERVICE_UNAVAILABLE", "attendance service is unavailable")
		return
	}

	siteID := strings.TrimSpace(chi.URLParam(r, "siteID"))
	if siteID == "" {
		writeBadRequest(w, "VALIDATION_ERROR", "site id is required")
		return
	}

	site, err := h.service.Site(r.Context(), siteID)
	if err != nil {
		if errors.Is(err, attsvc.ErrSiteNotFound) {
			writeNotFound(w, "SITE_NOT_FOUND", "site not found")
			return
		}
		writeInternal(w, "INTERNAL_ERROR", "failed to load site")
		return
	}

	httperrors.Write(w, http.StatusOK, dto.MapSite(site))
}
