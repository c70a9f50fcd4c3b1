package dto

import (
	"github.com/GratiaManullang03/hris-attandance/internal/domain/model"
)

type SiteResponse struct {
	ID       string          `json:"si_id"`
	Name     string          `json:"si_name"`
	Geofence *model.Geofence `json:"si_geo_fence,omitempty"`
}

type SiteListResponse struct {
	Sites  []SiteResponse `json:"sites"`
	Limit  int            `json:"limit"`
	Offset int            `json:"offset"`
}

func MapSite(s model.Site) SiteResponse {
	return SiteResponse{
		ID:       s.ID,
		Name:     s.Name,
		Geofence: s.Geofence,
	}
}
