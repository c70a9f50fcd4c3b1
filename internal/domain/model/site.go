package model

import "time"

const GeofenceShapeCircle = "circle"

// Geofence mirrors the JSON stored in sites.si_geo_fence:
// {"type":"circle","center":[-6.2,106.8],"radius_m":150}
type Geofence struct {
	Type    string     `json:"type"`
	Center  [2]float64 `json:"center"`
	RadiusM float64    `json:"radius_m"`
}

type Site struct {
	ID        string     `json:"si_id"`
	Name      string     `json:"si_name"`
	Geofence  *Geofence  `json:"si_geo_fence,omitempty"`
	CreatedAt time.Time  `json:"si_created_at"`
	UpdatedAt *time.Time `json:"si_updated_at,omitempty"`
}
