package rental

import (
	"github.com/google/uuid"

	"trolley-monitor/internal/domain/assignment"
	"trolley-monitor/internal/rewards"
)

type CheckoutRequest struct {
	TrolleyRef         string `validate:"required"`
	CustomerIdentifier string `validate:"required"`
	IdentifierType     string `validate:"required,oneof=card phone"`
	StoreID            uuid.UUID
}

type ReturnRequest struct {
	TrolleyRef         string `validate:"required"`
	CustomerIdentifier string `validate:"required"`
}

// ReturnResponse reports the completed cycle, including the itemized reward
// breakdown when a loyalty account was linked.
type ReturnResponse struct {
	Assignment      *assignment.Assignment
	DurationMinutes int
	OnTime          bool
	Rewards         *rewards.PointsBreakdown
}

// SweepResult summarizes one escalation sweep.
type SweepResult struct {
	Skipped             bool
	OverduePromoted     int
	UnreturnedEscalated int
	PenaltiesApplied    int
	AccountsBlocked     int
}
