package alert

import (
	"context"

	"github.com/google/uuid"
)

// Sink is the alert store this core writes to. Create must be conditional
// at the storage layer: if an unresolved alert already exists for the same
// (trolley, kind) the insert is suppressed and Create reports created=false.
type Sink interface {
	Create(ctx context.Context, a *Alert) (created bool, err error)
	FindUnresolved(ctx context.Context, trolleyID uuid.UUID, kind Kind) ([]*Alert, error)
	// BulkResolve resolves every unresolved alert of the kind for the
	// trolley and returns how many were closed.
	BulkResolve(ctx context.Context, trolleyID uuid.UUID, kind Kind, resolvedBy string) (int, error)
}
