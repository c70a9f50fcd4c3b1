package model

import "time"

const (
	SessionStatusOpen   = "open"
	SessionStatusClosed = "closed"
)

// AttendanceSession is one continuous presence interval for one user at one
// site. At most one session per user may be open on a given calendar day.
type AttendanceSession struct {
	ID         int64      `json:"as_id"`
	UserID     int64      `json:"as_user_id"`
	SiteID     string     `json:"as_site_id"`
	CheckinAt  time.Time  `json:"as_checkin_at"`
	CheckoutAt *time.Time `json:"as_checkout_at,omitempty"`
	Status     string     `json:"as_status"`
	CreatedAt  time.Time  `json:"as_created_at"`
	UpdatedAt  *time.Time `json:"as_updated_at,omitempty"`
}

func (s AttendanceSession) IsOpen() bool {
	return s.Status == SessionStatusOpen
}
