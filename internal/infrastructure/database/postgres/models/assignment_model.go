package models

import (
	"time"

	"github.com/google/uuid"
)

// AssignmentModel represents one checkout-to-return record. The partial
// unique index on trolley_id WHERE status IN ('checked_out', 'overdue')
// backs the single-active-assignment constraint.
type AssignmentModel struct {
	ID                 uuid.UUID  `gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	TrolleyID          uuid.UUID  `gorm:"type:uuid;not null;index"`
	StoreID            uuid.UUID  `gorm:"type:uuid;not null;index"`
	CustomerIdentifier string     `gorm:"type:varchar(255);not null;index"`
	IdentifierType     string     `gorm:"type:varchar(20);not null"`
	LoyaltyCardNumber  *string    `gorm:"type:varchar(255);index"`
	CheckedOutAt       time.Time  `gorm:"not null"`
	ExpectedReturnAt   time.Time  `gorm:"not null;index"`
	ReturnedAt         *time.Time `gorm:"type:timestamp"`
	Status             string     `gorm:"type:varchar(50);not null;default:'checked_out';index"`
	AwardedPoints      int        `gorm:"type:integer;not null;default:0"`
	DurationMinutes    *int       `gorm:"type:integer"`
	CheckoutLat        *float64   `gorm:"type:double precision"`
	CheckoutLon        *float64   `gorm:"type:double precision"`
	CreatedAt          time.Time  `gorm:"not null"`
	UpdatedAt          time.Time  `gorm:"not null"`
}

func (AssignmentModel) TableName() string {
	return "trolley_assignments"
}
