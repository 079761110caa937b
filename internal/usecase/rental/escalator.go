package rental

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"trolley-monitor/internal/domain/assignment"
	"trolley-monitor/internal/domain/loyalty"
	"trolley-monitor/internal/rewards"
	"trolley-monitor/internal/telemetry"
)

// SweepLocker guards against two escalation sweeps running concurrently,
// which would double-apply penalties. A held lock means skip, not queue.
type SweepLocker interface {
	TryAcquire(ctx context.Context) (release func(), acquired bool, err error)
}

// LocalSweepLocker is the in-process fallback used when no shared lock
// (redis) is configured.
type LocalSweepLocker struct {
	mu sync.Mutex
}

func NewLocalSweepLocker() *LocalSweepLocker {
	return &LocalSweepLocker{}
}

func (l *LocalSweepLocker) TryAcquire(_ context.Context) (func(), bool, error) {
	if !l.mu.TryLock() {
		return nil, false, nil
	}
	return l.mu.Unlock, true, nil
}

// EscalatorOptions carries the sweep thresholds.
type EscalatorOptions struct {
	UnreturnedAfter time.Duration // overdue age before write-off, default 7 days
	BlockAtOverdue  int           // concurrent delinquent assignments before blocking
	CriticalAtHours int           // hours overdue before the block alert is critical
}

// Escalator runs the scheduled overdue/unreturned sweep.
type Escalator struct {
	assignments assignment.Repository
	ledger      loyalty.Ledger
	alerts      *telemetry.AlertManager
	locker      SweepLocker
	opts        EscalatorOptions
	log         *zap.Logger

	now func() time.Time
}

func NewEscalator(
	assignments assignment.Repository,
	ledger loyalty.Ledger,
	alerts *telemetry.AlertManager,
	locker SweepLocker,
	opts EscalatorOptions,
	log *zap.Logger,
) *Escalator {
	if opts.UnreturnedAfter <= 0 {
		opts.UnreturnedAfter = 7 * 24 * time.Hour
	}
	if opts.BlockAtOverdue <= 0 {
		opts.BlockAtOverdue = 3
	}
	if opts.CriticalAtHours <= 0 {
		opts.CriticalAtHours = 48
	}
	if locker == nil {
		locker = NewLocalSweepLocker()
	}

	return &Escalator{
		assignments: assignments,
		ledger:      ledger,
		alerts:      alerts,
		locker:      locker,
		opts:        opts,
		log:         log,
		now:         time.Now,
	}
}

// Run executes sweeps on a fixed interval until the context is cancelled.
// A failed sweep waits for the next tick rather than retrying immediately.
func (e *Escalator) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	e.log.Info("escalation sweep job started", zap.Duration("interval", interval))

	e.sweepAndLog(ctx)

	for {
		select {
		case <-ctx.Done():
			e.log.Info("escalation sweep job stopped")
			return
		case <-ticker.C:
			e.sweepAndLog(ctx)
		}
	}
}

func (e *Escalator) sweepAndLog(ctx context.Context) {
	result, err := e.RunSweep(ctx)
	if err != nil {
		e.log.Error("escalation sweep failed", zap.Error(err))
		return
	}
	if result.Skipped {
		return
	}

	e.log.Info("escalation sweep complete",
		zap.Int("overdue_promoted", result.OverduePromoted),
		zap.Int("unreturned_escalated", result.UnreturnedEscalated),
		zap.Int("penalties_applied", result.PenaltiesApplied),
		zap.Int("accounts_blocked", result.AccountsBlocked),
	)
}

// RunSweep performs one sweep: overdue promotion with penalties and
// blocking, then unreturned write-off. Per-assignment errors are logged and
// never stop the rest of the sweep.
func (e *Escalator) RunSweep(ctx context.Context) (*SweepResult, error) {
	release, acquired, err := e.locker.TryAcquire(ctx)
	if err != nil {
		return nil, err
	}
	if !acquired {
		e.log.Warn("escalation sweep already running, skipping this tick")
		return &SweepResult{Skipped: true}, nil
	}
	defer release()

	result := &SweepResult{}
	now := e.now()

	expired, err := e.assignments.ListExpired(ctx, now)
	if err != nil {
		return nil, err
	}

	for _, a := range expired {
		if err := e.promote(ctx, a, now, result); err != nil {
			e.log.Error("failed to escalate assignment",
				zap.String("assignment_id", a.ID.String()),
				zap.String("trolley_id", a.TrolleyID.String()),
				zap.Error(err),
			)
		}
	}

	cutoff := now.Add(-e.opts.UnreturnedAfter)
	stale, err := e.assignments.ListOverdueBefore(ctx, cutoff)
	if err != nil {
		return result, err
	}

	for _, a := range stale {
		if err := e.assignments.MarkUnreturned(ctx, a.ID); err != nil {
			if errors.Is(err, assignment.ErrAssignmentNotFound) {
				continue
			}
			e.log.Error("failed to mark assignment unreturned",
				zap.String("assignment_id", a.ID.String()),
				zap.Error(err),
			)
			continue
		}
		result.UnreturnedEscalated++
	}

	return result, nil
}

func (e *Escalator) promote(ctx context.Context, a *assignment.Assignment, now time.Time, result *SweepResult) error {
	if err := e.assignments.PromoteOverdue(ctx, a.ID); err != nil {
		// Another writer already moved it on; nothing left to do here.
		if errors.Is(err, assignment.ErrAssignmentNotFound) {
			return nil
		}
		return err
	}
	result.OverduePromoted++

	if a.LoyaltyCardNumber == nil {
		return nil
	}
	cardNumber := *a.LoyaltyCardNumber

	account, err := e.ledger.Validate(ctx, cardNumber)
	if err != nil {
		return err
	}

	hoursOverdue := a.HoursOverdue(now)
	penalty := rewards.CalculatePenalty(rewards.PenaltyInput{
		HoursOverdue: hoursOverdue,
		Tier:         account.Tier,
	})

	actual, err := e.ledger.Deduct(ctx, cardNumber, penalty.Total, "overdue trolley penalty")
	if err != nil {
		return err
	}
	result.PenaltiesApplied++
	if actual < penalty.Total {
		e.log.Info("penalty clamped at zero balance",
			zap.String("card_number", cardNumber),
			zap.Int("requested", penalty.Total),
			zap.Int("deducted", actual),
		)
	}

	streak := 0
	if _, err := e.ledger.UpdateStats(ctx, cardNumber, loyalty.StatsUpdate{Streak: &streak}); err != nil {
		return err
	}

	delinquent, err := e.assignments.CountDelinquent(ctx, a.CustomerIdentifier)
	if err != nil {
		return err
	}
	if delinquent < e.opts.BlockAtOverdue {
		return nil
	}

	// Blocking is idempotent; only a transition from active counts.
	if account.Active {
		reason := blockReason(delinquent)
		if err := e.ledger.Block(ctx, cardNumber, reason); err != nil {
			return err
		}
		result.AccountsBlocked++

		e.log.Warn("loyalty account blocked",
			zap.String("card_number", cardNumber),
			zap.Int("delinquent_assignments", delinquent),
		)
	}

	if _, err := e.alerts.OnCustomerBlocked(ctx, a.StoreID, a.TrolleyID, a.CustomerIdentifier, hoursOverdue, e.opts.CriticalAtHours); err != nil {
		return err
	}

	return nil
}

func blockReason(delinquent int) string {
	return fmt.Sprintf("Blocked: %d trolleys overdue or unreturned", delinquent)
}
