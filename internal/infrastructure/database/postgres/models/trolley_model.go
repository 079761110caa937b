package models

import (
	"time"

	"github.com/google/uuid"
)

// TrolleyModel represents the database model for trolleys.
type TrolleyModel struct {
	ID           uuid.UUID  `gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	HardwareUID  string     `gorm:"type:varchar(255);not null;uniqueIndex"`
	StoreID      *uuid.UUID `gorm:"type:uuid;index"`
	Status       string     `gorm:"type:varchar(50);not null;default:'active'"`
	CurrentLat   *float64   `gorm:"type:double precision"`
	CurrentLon   *float64   `gorm:"type:double precision"`
	IsContained  *bool      `gorm:"type:boolean"`
	BatteryLevel *int       `gorm:"type:integer"`
	LastSeenAt   *time.Time `gorm:"type:timestamp"`
	CreatedAt    time.Time  `gorm:"not null"`
	UpdatedAt    time.Time  `gorm:"not null"`
}

func (TrolleyModel) TableName() string {
	return "trolleys"
}
