package store

import (
	"time"

	"github.com/google/uuid"
)

// DefaultGeofenceRadiusM applies when a store has no radius configured.
const DefaultGeofenceRadiusM = 500.0

// Store is the anchor location a trolley is expected to stay near.
type Store struct {
	ID              uuid.UUID
	Name            string
	Lat             float64
	Lon             float64
	GeofenceRadiusM float64
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// EffectiveRadius returns the configured geofence radius, falling back to
// the default when unset.
func (s *Store) EffectiveRadius() float64 {
	if s.GeofenceRadiusM <= 0 {
		return DefaultGeofenceRadiusM
	}
	return s.GeofenceRadiusM
}
