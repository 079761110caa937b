package models

import (
	"time"

	"github.com/google/uuid"
)

// StoreModel represents the database model for store anchor locations.
type StoreModel struct {
	ID              uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	Name            string    `gorm:"type:varchar(255);not null"`
	Lat             float64   `gorm:"type:double precision;not null"`
	Lon             float64   `gorm:"type:double precision;not null"`
	GeofenceRadiusM float64   `gorm:"type:double precision;not null;default:500"`
	CreatedAt       time.Time `gorm:"not null"`
	UpdatedAt       time.Time `gorm:"not null"`
}

func (StoreModel) TableName() string {
	return "stores"
}
