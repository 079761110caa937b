package models

import (
	"time"

	"github.com/google/uuid"
)

// AlertModel represents the database model for alerts. The partial unique
// index on (trolley_id, kind) WHERE resolved = FALSE backs the one-open-
// alert-per-trolley-and-kind constraint.
type AlertModel struct {
	ID         uuid.UUID  `gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	StoreID    uuid.UUID  `gorm:"type:uuid;not null;index"`
	TrolleyID  *uuid.UUID `gorm:"type:uuid;index"`
	Kind       string     `gorm:"type:varchar(50);not null"`
	Severity   string     `gorm:"type:varchar(50);not null"`
	Message    string     `gorm:"type:text;not null"`
	Resolved   bool       `gorm:"type:boolean;not null;default:false"`
	ResolvedBy *string    `gorm:"type:varchar(255)"`
	ResolvedAt *time.Time `gorm:"type:timestamp"`
	CreatedAt  time.Time  `gorm:"not null"`
}

func (AlertModel) TableName() string {
	return "alerts"
}
