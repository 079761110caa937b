package models

import (
	"time"

	"github.com/google/uuid"
)

// PositionSampleModel represents one append-only position history row.
type PositionSampleModel struct {
	ID                 uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	TrolleyID          uuid.UUID `gorm:"type:uuid;not null;index:idx_positions_trolley_recorded"`
	Lat                float64   `gorm:"type:double precision;not null"`
	Lon                float64   `gorm:"type:double precision;not null"`
	IsContained        bool      `gorm:"type:boolean;not null"`
	DistanceFromStoreM float64   `gorm:"type:double precision;not null"`
	SpeedKmh           *float64  `gorm:"type:double precision"`
	BatteryLevel       *int      `gorm:"type:integer"`
	SignalStrength     *int      `gorm:"type:integer"`
	RecordedAt         time.Time `gorm:"not null;index:idx_positions_trolley_recorded"`
}

func (PositionSampleModel) TableName() string {
	return "trolley_positions"
}
