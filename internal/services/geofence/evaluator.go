package geofence

import (
	"errors"
	"fmt"
	"math"

	"github.com/GratiaManullang03/hris-attandance/internal/domain/model"
)

var (
	ErrValidation       = errors.New("validation error")
	ErrUnsupportedShape = errors.New("unsupported geofence shape")
)

// Result reports a containment decision together with the numbers the mobile
// client shows the user when a scan lands outside the boundary.
type Result struct {
	Within    bool
	DistanceM float64
	RadiusM   float64
}

// Evaluate decides whether a point falls inside a configured geofence. Only
// circle fences exist; any other shape is a configuration error, not a pass.
func Evaluate(fence model.Geofence, lat, lon float64) (Result, error) {
	if fence.Type != model.GeofenceShapeCircle {
		return Result{}, fmt.Errorf("geofence type %q: %w", fence.Type, ErrUnsupportedShape)
	}
	if fence.RadiusM <= 0 {
		return Result{}, fmt.Errorf("geofence radius %f: %w", fence.RadiusM, ErrValidation)
	}
	if err := validateCoordinates(fence.Center[0], fence.Center[1]); err != nil {
		return Result{}, err
	}
	if err := validateCoordinates(lat, lon); err != nil {
		return Result{}, err
	}

	distance := DistanceMeters(fence.Center[0], fence.Center[1], lat, lon)
	return Result{
		Within:    distance <= fence.RadiusM,
		DistanceM: distance,
		RadiusM:   fence.RadiusM,
	}, nil
}

func validateCoordinates(lat, lon float64) error {
	if math.IsNaN(lat) || math.IsNaN(lon) || math.IsInf(lat, 0) || math.IsInf(lon, 0) {
		return fmt.Errorf("invalid coordinates: %w", ErrValidation)
	}
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return fmt.Errorf("coordinates out of range: %w", ErrValidation)
	}
	return nil
}

// DistanceMeters is the haversine great-circle distance on a spherical Earth.
func DistanceMeters(lat1, lon1, lat2, lon2 float64) float64 {
	const earthRadiusM = 6371000.0

	toRad := func(v float64) float64 { return v * math.Pi / 180 }
	dLat := toRad(lat2 - lat1)
	dLon := toRad(lon2 - lon1)
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(lat1))*math.Cos(toRad(lat2))*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusM * c
}
