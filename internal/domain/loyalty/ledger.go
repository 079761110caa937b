package loyalty

import "context"

// StatsUpdate adjusts an account's return counters after a checkout/return
// cycle. Nil fields are left untouched.
type StatsUpdate struct {
	IncrementReturns bool
	Streak           *int
}

// Ledger is the external loyalty ledger this core invokes. Implementations
// own tier recomputation (upgrade-only) and balance clamping.
type Ledger interface {
	// Validate resolves an account by card number. Inactive accounts come
	// back with Active=false and their stored block reason intact.
	Validate(ctx context.Context, cardNumber string) (*Account, error)

	Allocate(ctx context.Context, cardNumber string, points int, reason string) error

	// Deduct removes up to points from the balance, clamping at zero, and
	// returns how much was actually deducted.
	Deduct(ctx context.Context, cardNumber string, points int, reason string) (int, error)

	// Block marks the account inactive with the given reason. Idempotent:
	// blocking an already-blocked account is a no-op.
	Block(ctx context.Context, cardNumber string, reason string) error

	// UpdateStats applies counter changes and recomputes the tier from
	// lifetime returns, never downgrading. Returns the updated account.
	UpdateStats(ctx context.Context, cardNumber string, update StatsUpdate) (*Account, error)
}
