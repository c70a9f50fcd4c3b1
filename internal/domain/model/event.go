package model

import "time"

const (
	EventTypeCheckin  = "checkin"
	EventTypeCheckout = "checkout"
)

// AttendanceEvent is the append-only audit trail behind every accepted scan.
type AttendanceEvent struct {
	ID         int64     `json:"ae_id"`
	SessionID  int64     `json:"ae_session_id"`
	UserID     int64     `json:"ae_user_id"`
	SiteID     string    `json:"ae_site_id"`
	EventType  string    `json:"ae_event_type"`
	OccurredAt time.Time `json:"ae_occurred_at"`
	TokenJTI   string    `json:"ae_token_jti"`
	Lat        *float64  `json:"ae_lat,omitempty"`
	Lon        *float64  `json:"ae_lon,omitempty"`
	DeviceID   *string   `json:"ae_device_id,omitempty"`
	CreatedAt  time.Time `json:"ae_created_at"`
}
