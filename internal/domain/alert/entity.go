package alert

import (
	"time"

	"github.com/google/uuid"
)

type Kind string

const (
	KindGeofenceBreach  Kind = "geofence_breach"
	KindLowBattery      Kind = "low_battery"
	KindCustomerBlocked Kind = "customer_blocked"
)

type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityWarning  Severity = "warning"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Alert is raised against a store, optionally about a specific trolley.
// For the kinds this core manages, at most one unresolved alert may exist
// per (trolley, kind). The storage boundary enforces that, not
// read-then-write sequencing.
type Alert struct {
	ID         uuid.UUID
	StoreID    uuid.UUID
	TrolleyID  *uuid.UUID
	Kind       Kind
	Severity   Severity
	Message    string
	Resolved   bool
	ResolvedBy *string
	ResolvedAt *time.Time
	CreatedAt  time.Time
}
