package assignment

import (
	"time"

	"github.com/google/uuid"
)

// GracePeriod is the fixed interval after checkout before a trolley is
// considered overdue.
const GracePeriod = 4 * time.Hour

type Status string

const (
	StatusCheckedOut Status = "checked_out"
	StatusReturned   Status = "returned"
	StatusOverdue    Status = "overdue"
	StatusUnreturned Status = "unreturned"
)

type IdentifierType string

const (
	IdentifierCard  IdentifierType = "card"
	IdentifierPhone IdentifierType = "phone"
)

// Assignment is one customer's checkout-to-return usage record for a single
// trolley. Per trolley at most one assignment may be in {checked_out, overdue}
// at a time.
type Assignment struct {
	ID                 uuid.UUID
	TrolleyID          uuid.UUID
	StoreID            uuid.UUID
	CustomerIdentifier string
	IdentifierType     IdentifierType
	LoyaltyCardNumber  *string

	CheckedOutAt     time.Time
	ExpectedReturnAt time.Time
	ReturnedAt       *time.Time

	Status          Status
	AwardedPoints   int
	DurationMinutes *int

	// GPS snapshot at checkout time, when the trolley had one.
	CheckoutLat *float64
	CheckoutLon *float64

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Active reports whether the assignment still holds the trolley.
func (a *Assignment) Active() bool {
	return a.Status == StatusCheckedOut || a.Status == StatusOverdue
}

// HoursOverdue returns how many hours past the expected return the
// assignment is at the given instant, never negative.
func (a *Assignment) HoursOverdue(now time.Time) int {
	if !now.After(a.ExpectedReturnAt) {
		return 0
	}
	return int(now.Sub(a.ExpectedReturnAt).Hours())
}
