package rental

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"trolley-monitor/internal/domain/alert"
	"trolley-monitor/internal/domain/assignment"
	"trolley-monitor/internal/domain/loyalty"
	"trolley-monitor/internal/telemetry"
)

type escalatorEnv struct {
	repo   *fakeAssignmentRepo
	ledger *fakeLedger
	sink   *fakeAlertSink
	esc    *Escalator
	now    time.Time
}

func newEscalatorEnv(t *testing.T, accounts ...*loyalty.Account) *escalatorEnv {
	t.Helper()

	env := &escalatorEnv{
		repo:   newFakeAssignmentRepo(),
		ledger: newFakeLedger(accounts...),
		sink:   &fakeAlertSink{},
		now:    time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC),
	}
	alerts := telemetry.NewAlertManager(env.sink, nil, zap.NewNop())
	env.esc = NewEscalator(env.repo, env.ledger, alerts, nil, EscalatorOptions{}, zap.NewNop())
	env.esc.now = func() time.Time { return env.now }
	return env
}

// checkedOut seeds an active assignment whose grace period expired the
// given number of hours ago.
func (env *escalatorEnv) checkedOut(t *testing.T, customer string, card *string, hoursExpired int) *assignment.Assignment {
	t.Helper()

	expected := env.now.Add(-time.Duration(hoursExpired) * time.Hour)
	a := &assignment.Assignment{
		TrolleyID:          uuid.New(),
		StoreID:            uuid.New(),
		CustomerIdentifier: customer,
		IdentifierType:     assignment.IdentifierPhone,
		LoyaltyCardNumber:  card,
		CheckedOutAt:       expected.Add(-assignment.GracePeriod),
		ExpectedReturnAt:   expected,
		Status:             assignment.StatusCheckedOut,
	}
	if card != nil {
		a.IdentifierType = assignment.IdentifierCard
	}
	if err := env.repo.CreateActive(context.Background(), a); err != nil {
		t.Fatalf("seed assignment: %v", err)
	}
	return a
}

func TestSweepPromotesAndPenalizes(t *testing.T) {
	card := "XS-123"
	account := activeAccount(card)
	account.Tier = loyalty.TierGold
	account.ConsecutiveReturns = 4
	env := newEscalatorEnv(t, account)

	// 30 hours past expected return, gold tier: 50 base * 2.0 = 100.
	seeded := env.checkedOut(t, card, &card, 30)

	result, err := env.esc.RunSweep(context.Background())
	if err != nil {
		t.Fatalf("RunSweep: %v", err)
	}

	if result.OverduePromoted != 1 || result.PenaltiesApplied != 1 {
		t.Errorf("result = %+v, want 1 promoted, 1 penalty", result)
	}

	promoted, _ := env.repo.GetByID(context.Background(), seeded.ID)
	if promoted.Status != assignment.StatusOverdue {
		t.Errorf("status = %s, want overdue", promoted.Status)
	}

	updated, _ := env.ledger.Validate(context.Background(), card)
	if updated.Points != 0 {
		t.Errorf("balance = %d, want 0 after a 100 point penalty on 100", updated.Points)
	}
	if updated.ConsecutiveReturns != 0 {
		t.Errorf("streak = %d, want reset to 0", updated.ConsecutiveReturns)
	}
}

func TestSweepClampsPenaltyAtZero(t *testing.T) {
	card := "XS-123"
	account := activeAccount(card)
	account.Points = 30
	env := newEscalatorEnv(t, account)

	// 100 hours overdue, bronze: 200 point penalty against a 30 point balance.
	env.checkedOut(t, card, &card, 100)

	if _, err := env.esc.RunSweep(context.Background()); err != nil {
		t.Fatalf("RunSweep: %v", err)
	}

	updated, _ := env.ledger.Validate(context.Background(), card)
	if updated.Points != 0 {
		t.Errorf("balance = %d, want clamped at 0, never negative", updated.Points)
	}
	if len(env.ledger.deductions) != 1 || env.ledger.deductions[0] != 30 {
		t.Errorf("deductions = %v, want a single clamped deduction of 30", env.ledger.deductions)
	}
}

func TestSweepBlocksOnceAtThreshold(t *testing.T) {
	card := "XS-123"
	env := newEscalatorEnv(t, activeAccount(card))

	for i := 0; i < 3; i++ {
		env.checkedOut(t, card, &card, 30)
	}

	result, err := env.esc.RunSweep(context.Background())
	if err != nil {
		t.Fatalf("RunSweep: %v", err)
	}

	if result.OverduePromoted != 3 {
		t.Errorf("promoted = %d, want 3", result.OverduePromoted)
	}
	if result.AccountsBlocked != 1 {
		t.Errorf("blocked = %d, want exactly 1", result.AccountsBlocked)
	}

	account, _ := env.ledger.Validate(context.Background(), card)
	if account.Active {
		t.Fatal("account should be blocked at 3 delinquent assignments")
	}
	if account.BlockReason == nil || *account.BlockReason != "Blocked: 3 trolleys overdue or unreturned" {
		t.Errorf("block reason = %v", account.BlockReason)
	}
	if env.ledger.blockCalls != 1 {
		t.Errorf("block calls = %d, want 1", env.ledger.blockCalls)
	}

	// Another expired assignment on a later sweep must not re-block.
	env.checkedOut(t, card, &card, 30)
	again, err := env.esc.RunSweep(context.Background())
	if err != nil {
		t.Fatalf("second RunSweep: %v", err)
	}
	if again.AccountsBlocked != 0 {
		t.Errorf("second sweep blocked = %d, want 0", again.AccountsBlocked)
	}
	if env.ledger.blockCalls != 1 {
		t.Errorf("block calls after second sweep = %d, want still 1", env.ledger.blockCalls)
	}
}

func TestSweepBlockAlertSeverity(t *testing.T) {
	card := "XS-123"
	env := newEscalatorEnv(t, activeAccount(card))

	for i := 0; i < 3; i++ {
		env.checkedOut(t, card, &card, 60) // past the 48h critical threshold
	}

	if _, err := env.esc.RunSweep(context.Background()); err != nil {
		t.Fatalf("RunSweep: %v", err)
	}

	if got := env.sink.countByKind(alert.KindCustomerBlocked); got == 0 {
		t.Fatal("expected a customer blocked alert")
	}
	for _, a := range env.sink.alerts {
		if a.Kind == alert.KindCustomerBlocked && a.Severity != alert.SeverityCritical {
			t.Errorf("severity = %s, want critical past 48h overdue", a.Severity)
		}
	}
}

func TestSweepWritesOffUnreturned(t *testing.T) {
	card := "XS-123"
	env := newEscalatorEnv(t, activeAccount(card))

	seeded := env.checkedOut(t, card, &card, 8*24) // eight days expired

	// One sweep promotes it to overdue and, because the expected return is
	// already more than seven days past, writes it off in the same pass.
	result, err := env.esc.RunSweep(context.Background())
	if err != nil {
		t.Fatalf("RunSweep: %v", err)
	}
	if result.OverduePromoted != 1 {
		t.Errorf("promoted = %d, want 1", result.OverduePromoted)
	}
	if result.UnreturnedEscalated != 1 {
		t.Errorf("escalated = %d, want 1", result.UnreturnedEscalated)
	}

	// A fresh overdue assignment stays overdue until it ages out.
	recent := env.checkedOut(t, card, &card, 30)
	if _, err := env.esc.RunSweep(context.Background()); err != nil {
		t.Fatalf("second RunSweep: %v", err)
	}
	r, _ := env.repo.GetByID(context.Background(), recent.ID)
	if r.Status != assignment.StatusOverdue {
		t.Errorf("recent assignment status = %s, want overdue", r.Status)
	}

	a, _ := env.repo.GetByID(context.Background(), seeded.ID)
	if a.Status != assignment.StatusUnreturned {
		t.Errorf("status = %s, want unreturned", a.Status)
	}
}

func TestSweepAnonymousCheckoutNoPenalty(t *testing.T) {
	env := newEscalatorEnv(t)

	seeded := env.checkedOut(t, "0821234567", nil, 30)

	result, err := env.esc.RunSweep(context.Background())
	if err != nil {
		t.Fatalf("RunSweep: %v", err)
	}

	if result.OverduePromoted != 1 {
		t.Errorf("promoted = %d, want 1", result.OverduePromoted)
	}
	if result.PenaltiesApplied != 0 {
		t.Errorf("penalties = %d, want 0 without a loyalty card", result.PenaltiesApplied)
	}

	a, _ := env.repo.GetByID(context.Background(), seeded.ID)
	if a.Status != assignment.StatusOverdue {
		t.Errorf("status = %s, want overdue even without a card", a.Status)
	}
}

func TestSweepContinuesPastFailures(t *testing.T) {
	goodCard := "XS-GOOD"
	badCard := "XS-MISSING" // no matching loyalty account
	env := newEscalatorEnv(t, activeAccount(goodCard))

	bad := env.checkedOut(t, badCard, &badCard, 30)
	good := env.checkedOut(t, goodCard, &goodCard, 30)

	result, err := env.esc.RunSweep(context.Background())
	if err != nil {
		t.Fatalf("RunSweep: %v", err)
	}

	// Both are promoted; only the resolvable account is penalized.
	if result.OverduePromoted != 2 {
		t.Errorf("promoted = %d, want 2", result.OverduePromoted)
	}
	if result.PenaltiesApplied != 1 {
		t.Errorf("penalties = %d, want 1", result.PenaltiesApplied)
	}

	for _, id := range []uuid.UUID{bad.ID, good.ID} {
		a, _ := env.repo.GetByID(context.Background(), id)
		if a.Status != assignment.StatusOverdue {
			t.Errorf("assignment %s status = %s, want overdue", id, a.Status)
		}
	}
}

func TestSweepSkipsWhenLockHeld(t *testing.T) {
	env := newEscalatorEnv(t)

	locker := NewLocalSweepLocker()
	env.esc.locker = locker

	release, acquired, err := locker.TryAcquire(context.Background())
	if err != nil || !acquired {
		t.Fatalf("TryAcquire: acquired=%v err=%v", acquired, err)
	}
	defer release()

	result, err := env.esc.RunSweep(context.Background())
	if err != nil {
		t.Fatalf("RunSweep: %v", err)
	}
	if !result.Skipped {
		t.Error("sweep should report skipped while the lock is held")
	}
}
