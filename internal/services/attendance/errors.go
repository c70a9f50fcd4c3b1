package attendance

import (
	"errors"
	"fmt"
)

var (
	ErrLocationRequired = errors.New("location is required")

	ErrSiteNotFound = errors.New("site not found")

	ErrSessionNotFound = errors.New("no attendance session recorded")

	// ErrGeofenceMisconfigured means the site cannot be scanned at all until an
	// operator fixes its fence. Deliberately distinct from a user being outside.
	ErrGeofenceMisconfigured = errors.New("site geofence is misconfigured")

	ErrReplayDetected = errors.New("token already used")

	// ErrSessionConflict is the benign double-scan outcome: another request
	// already recorded this transition.
	ErrSessionConflict = errors.New("attendance already recorded")
)

// OutOfGeofenceError carries the numbers the client shows the user.
type OutOfGeofenceError struct {
	DistanceM float64
	RadiusM   float64
}

func (e *OutOfGeofenceError) Error() string {
	return fmt.Sprintf("outside geofence: %.1f m from center, allowed %.1f m", e.DistanceM, e.RadiusM)
}

type RateLimitedError struct {
	RetryAfterSec int64
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("too many scan attempts, retry in %d s", e.RetryAfterSec)
}
