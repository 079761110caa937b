package trolley

import (
	"time"

	"github.com/google/uuid"
)

// Trolley represents a physical trolley tracked by the system.
type Trolley struct {
	ID          uuid.UUID
	HardwareUID string
	StoreID     *uuid.UUID
	Status      TrolleyStatus

	// Cached telemetry state. IsContained is meaningful only once a
	// position has been recorded.
	CurrentLat   *float64
	CurrentLon   *float64
	IsContained  *bool
	BatteryLevel *int
	LastSeenAt   *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// TrolleyStatus is owned by the administrative status-history subsystem;
// this core only reads it.
type TrolleyStatus string

const (
	StatusActive         TrolleyStatus = "active"
	StatusMaintenance    TrolleyStatus = "maintenance"
	StatusStolen         TrolleyStatus = "stolen"
	StatusDecommissioned TrolleyStatus = "decommissioned"
	StatusRecovered      TrolleyStatus = "recovered"
)

// HasPosition reports whether a position sample has ever been recorded.
func (t *Trolley) HasPosition() bool {
	return t.CurrentLat != nil && t.CurrentLon != nil && t.LastSeenAt != nil
}

// Trackable reports whether the trolley participates in telemetry simulation.
func (t *Trolley) Trackable() bool {
	return t.Status == StatusActive || t.Status == StatusRecovered
}
