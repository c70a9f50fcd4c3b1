package dto

import (
	"time"

	"github.com/GratiaManullang03/hris-attandance/internal/domain/model"
)

type ScanRequest struct {
	Token    string   `json:"token"`
	Lat      *float64 `json:"ae_lat"`
	Lon      *float64 `json:"ae_lon"`
	DeviceID *string  `json:"ae_device_id,omitempty"`
}

type ScanResponse struct {
	OK        bool      `json:"ok"`
	SessionID int64     `json:"as_id"`
	SiteID    string    `json:"si_id"`
	Status    string    `json:"as_status"`
	EventType string    `json:"ae_event_type"`
	Timestamp time.Time `json:"timestamp"`
	Message   string    `json:"message"`
}

type SessionResponse struct {
	ID         int64      `json:"as_id"`
	UserID     int64      `json:"as_user_id"`
	SiteID     string     `json:"as_site_id"`
	CheckinAt  time.Time  `json:"as_checkin_at"`
	CheckoutAt *time.Time `json:"as_checkout_at,omitempty"`
	Status     string     `json:"as_status"`
}

type SessionListResponse struct {
	Sessions []SessionResponse `json:"sessions"`
	Total    int64             `json:"total"`
	Limit    int               `json:"limit"`
	Offset   int               `json:"offset"`
}

type EventResponse struct {
	ID         int64     `json:"ae_id"`
	SessionID  int64     `json:"ae_session_id"`
	SiteID     string    `json:"ae_site_id"`
	EventType  string    `json:"ae_event_type"`
	OccurredAt time.Time `json:"ae_occurred_at"`
	Lat        *float64  `json:"ae_lat,omitempty"`
	Lon        *float64  `json:"ae_lon,omitempty"`
	DeviceID   *string   `json:"ae_device_id,omitempty"`
}

type EventListResponse struct {
	Events []EventResponse `json:"events"`
	Limit  int             `json:"limit"`
	Offset int             `json:"offset"`
}

func MapSession(s model.AttendanceSession) SessionResponse {
	return SessionResponse{
		ID:         s.ID,
		UserID:     s.UserID,
		SiteID:     s.SiteID,
		CheckinAt:  s.CheckinAt,
		CheckoutAt: s.CheckoutAt,
		Status:     s.Status,
	}
}

func MapEvent(e model.AttendanceEvent) EventResponse {
	return EventResponse{
		ID:         e.ID,
		SessionID:  e.SessionID,
		SiteID:     e.SiteID,
		EventType:  e.EventType,
		OccurredAt: e.OccurredAt,
		Lat:        e.Lat,
		Lon:        e.Lon,
		DeviceID:   e.DeviceID,
	}
}
