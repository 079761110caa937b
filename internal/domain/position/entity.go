package position

import (
	"time"

	"github.com/google/uuid"
)

// Sample is one immutable position history row. Samples are append-only:
// nothing in this core updates or deletes them.
type Sample struct {
	ID                 uuid.UUID
	TrolleyID          uuid.UUID
	Lat                float64
	Lon                float64
	IsContained        bool
	DistanceFromStoreM float64
	SpeedKmh           *float64
	BatteryLevel       *int
	SignalStrength     *int
	RecordedAt         time.Time
}
