package assignment

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Repository defines assignment store operations. Implementations must make
// CreateActive and the status promotions conditional writes so that two
// concurrent callers cannot both succeed.
type Repository interface {
	// CreateActive inserts the assignment only if the trolley has no
	// assignment in {checked_out, overdue}; returns ErrTrolleyCheckedOut
	// otherwise.
	CreateActive(ctx context.Context, a *Assignment) error

	GetByID(ctx context.Context, id uuid.UUID) (*Assignment, error)

	// FindActive returns the unique active assignment for the trolley and
	// exact customer identifier, or ErrAssignmentNotFound.
	FindActive(ctx context.Context, trolleyID uuid.UUID, customerIdentifier string) (*Assignment, error)

	// MarkReturned finalizes an active assignment; the guard fails with
	// ErrAssignmentNotFound when the row is no longer active.
	MarkReturned(ctx context.Context, id uuid.UUID, returnedAt time.Time, durationMinutes, awardedPoints int) error

	// ListExpired returns checked_out assignments whose expected return
	// has passed.
	ListExpired(ctx context.Context, now time.Time) ([]*Assignment, error)

	// PromoteOverdue flips checked_out to overdue; a no-op returning
	// ErrAssignmentNotFound when another sweep got there first.
	PromoteOverdue(ctx context.Context, id uuid.UUID) error

	// ListOverdueBefore returns overdue assignments whose expected return
	// is older than the cutoff.
	ListOverdueBefore(ctx context.Context, cutoff time.Time) ([]*Assignment, error)

	// MarkUnreturned flips overdue to the terminal unreturned status.
	MarkUnreturned(ctx context.Context, id uuid.UUID) error

	// CountDelinquent counts the customer's assignments currently in
	// {overdue, unreturned}.
	CountDelinquent(ctx context.Context, customerIdentifier string) (int, error)
}
