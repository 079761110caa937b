package trolley

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// TelemetryUpdate carries the cached state written back after each
// position sample.
type TelemetryUpdate struct {
	Lat          float64
	Lon          float64
	IsContained  bool
	BatteryLevel *int
	SeenAt       time.Time
}

// Repository defines the trolley store operations this core consumes.
type Repository interface {
	GetByID(ctx context.Context, trolleyID uuid.UUID) (*Trolley, error)
	GetByHardwareUID(ctx context.Context, hardwareUID string) (*Trolley, error)
	// GetByRef resolves either a UUID string or a hardware UID.
	GetByRef(ctx context.Context, ref string) (*Trolley, error)
	UpdateTelemetry(ctx context.Context, trolleyID uuid.UUID, update TelemetryUpdate) error
	// ListTrackable returns active/recovered trolleys, optionally scoped
	// to a store, capped at limit.
	ListTrackable(ctx context.Context, storeID *uuid.UUID, limit int) ([]*Trolley, error)
}
