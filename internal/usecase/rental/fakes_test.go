package rental

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"trolley-monitor/internal/domain/alert"
	"trolley-monitor/internal/domain/assignment"
	"trolley-monitor/internal/domain/loyalty"
	"trolley-monitor/internal/domain/trolley"
)

type fakeTrolleyRepo struct {
	trolleys map[uuid.UUID]*trolley.Trolley
}

func newFakeTrolleyRepo(ts ...*trolley.Trolley) *fakeTrolleyRepo {
	r := &fakeTrolleyRepo{trolleys: make(map[uuid.UUID]*trolley.Trolley)}
	for _, t := range ts {
		r.trolleys[t.ID] = t
	}
	return r
}

func (r *fakeTrolleyRepo) GetByID(_ context.Context, id uuid.UUID) (*trolley.Trolley, error) {
	t, ok := r.trolleys[id]
	if !ok {
		return nil, trolley.ErrTrolleyNotFound
	}
	return t, nil
}

func (r *fakeTrolleyRepo) GetByHardwareUID(_ context.Context, uid string) (*trolley.Trolley, error) {
	for _, t := range r.trolleys {
		if t.HardwareUID == uid {
			return t, nil
		}
	}
	return nil, trolley.ErrTrolleyNotFound
}

func (r *fakeTrolleyRepo) GetByRef(ctx context.Context, ref string) (*trolley.Trolley, error) {
	if id, err := uuid.Parse(ref); err == nil {
		return r.GetByID(ctx, id)
	}
	return r.GetByHardwareUID(ctx, ref)
}

func (r *fakeTrolleyRepo) UpdateTelemetry(_ context.Context, _ uuid.UUID, _ trolley.TelemetryUpdate) error {
	return nil
}

func (r *fakeTrolleyRepo) ListTrackable(_ context.Context, _ *uuid.UUID, limit int) ([]*trolley.Trolley, error) {
	out := []*trolley.Trolley{}
	for _, t := range r.trolleys {
		out = append(out, t)
		if len(out) >= limit {
			break
		}
	}
	return out, nil
}

// fakeAssignmentRepo mirrors the postgres repository's conditional writes:
// CreateActive refuses a second active assignment per trolley, and the
// status promotions are guarded.
type fakeAssignmentRepo struct {
	mu          sync.Mutex
	assignments map[uuid.UUID]*assignment.Assignment
}

func newFakeAssignmentRepo() *fakeAssignmentRepo {
	return &fakeAssignmentRepo{assignments: make(map[uuid.UUID]*assignment.Assignment)}
}

func (r *fakeAssignmentRepo) CreateActive(_ context.Context, a *assignment.Assignment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.assignments {
		if existing.TrolleyID == a.TrolleyID && existing.Active() {
			return assignment.ErrTrolleyCheckedOut
		}
	}
	a.ID = uuid.New()
	a.CreatedAt = time.Now()
	a.UpdatedAt = a.CreatedAt
	copied := *a
	r.assignments[a.ID] = &copied
	return nil
}

func (r *fakeAssignmentRepo) GetByID(_ context.Context, id uuid.UUID) (*assignment.Assignment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.assignments[id]
	if !ok {
		return nil, assignment.ErrAssignmentNotFound
	}
	copied := *a
	return &copied, nil
}

func (r *fakeAssignmentRepo) FindActive(_ context.Context, trolleyID uuid.UUID, customerIdentifier string) (*assignment.Assignment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.assignments {
		if a.TrolleyID == trolleyID && a.CustomerIdentifier == customerIdentifier && a.Active() {
			copied := *a
			return &copied, nil
		}
	}
	return nil, assignment.ErrAssignmentNotFound
}

func (r *fakeAssignmentRepo) MarkReturned(_ context.Context, id uuid.UUID, returnedAt time.Time, durationMinutes, awardedPoints int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.assignments[id]
	if !ok || !a.Active() {
		return assignment.ErrAssignmentNotFound
	}
	a.Status = assignment.StatusReturned
	a.ReturnedAt = &returnedAt
	a.DurationMinutes = &durationMinutes
	a.AwardedPoints = awardedPoints
	return nil
}

func (r *fakeAssignmentRepo) ListExpired(_ context.Context, now time.Time) ([]*assignment.Assignment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []*assignment.Assignment{}
	for _, a := range r.assignments {
		if a.Status == assignment.StatusCheckedOut && a.ExpectedReturnAt.Before(now) {
			copied := *a
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (r *fakeAssignmentRepo) PromoteOverdue(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.assignments[id]
	if !ok || a.Status != assignment.StatusCheckedOut {
		return assignment.ErrAssignmentNotFound
	}
	a.Status = assignment.StatusOverdue
	return nil
}

func (r *fakeAssignmentRepo) ListOverdueBefore(_ context.Context, cutoff time.Time) ([]*assignment.Assignment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []*assignment.Assignment{}
	for _, a := range r.assignments {
		if a.Status == assignment.StatusOverdue && a.ExpectedReturnAt.Before(cutoff) {
			copied := *a
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (r *fakeAssignmentRepo) MarkUnreturned(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.assignments[id]
	if !ok || a.Status != assignment.StatusOverdue {
		return assignment.ErrAssignmentNotFound
	}
	a.Status = assignment.StatusUnreturned
	return nil
}

func (r *fakeAssignmentRepo) CountDelinquent(_ context.Context, customerIdentifier string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	count := 0
	for _, a := range r.assignments {
		if a.CustomerIdentifier == customerIdentifier &&
			(a.Status == assignment.StatusOverdue || a.Status == assignment.StatusUnreturned) {
			count++
		}
	}
	return count, nil
}

// fakeLedger implements loyalty.Ledger with the same clamping, tier and
// blocking semantics the postgres-backed ledger provides.
type fakeLedger struct {
	mu       sync.Mutex
	accounts map[string]*loyalty.Account

	allocations []int
	deductions  []int
	blockCalls  int
}

func newFakeLedger(accounts ...*loyalty.Account) *fakeLedger {
	l := &fakeLedger{accounts: make(map[string]*loyalty.Account)}
	for _, a := range accounts {
		l.accounts[a.CardNumber] = a
	}
	return l
}

func (l *fakeLedger) Validate(_ context.Context, cardNumber string) (*loyalty.Account, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	a, ok := l.accounts[cardNumber]
	if !ok {
		return nil, loyalty.ErrAccountNotFound
	}
	copied := *a
	return &copied, nil
}

func (l *fakeLedger) Allocate(_ context.Context, cardNumber string, points int, _ string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	a, ok := l.accounts[cardNumber]
	if !ok {
		return loyalty.ErrAccountNotFound
	}
	a.Points += points
	l.allocations = append(l.allocations, points)
	return nil
}

func (l *fakeLedger) Deduct(_ context.Context, cardNumber string, points int, _ string) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	a, ok := l.accounts[cardNumber]
	if !ok {
		return 0, loyalty.ErrAccountNotFound
	}
	actual := points
	if actual > a.Points {
		actual = a.Points
	}
	a.Points -= actual
	l.deductions = append(l.deductions, actual)
	return actual, nil
}

func (l *fakeLedger) Block(_ context.Context, cardNumber string, reason string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	a, ok := l.accounts[cardNumber]
	if !ok {
		return loyalty.ErrAccountNotFound
	}
	l.blockCalls++
	if !a.Active {
		return nil
	}
	a.Active = false
	a.BlockReason = &reason
	return nil
}

func (l *fakeLedger) UpdateStats(_ context.Context, cardNumber string, update loyalty.StatsUpdate) (*loyalty.Account, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	a, ok := l.accounts[cardNumber]
	if !ok {
		return nil, loyalty.ErrAccountNotFound
	}
	if update.IncrementReturns {
		a.TotalReturns++
	}
	if update.Streak != nil {
		a.ConsecutiveReturns = *update.Streak
	}
	a.Tier = loyalty.HigherTier(a.Tier, loyalty.TierForReturns(a.TotalReturns))
	copied := *a
	return &copied, nil
}

// fakeAlertSink matches the dedup behavior of the postgres sink.
type fakeAlertSink struct {
	mu     sync.Mutex
	alerts []*alert.Alert
}

func (s *fakeAlertSink) Create(_ context.Context, a *alert.Alert) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.alerts {
		if existing.TrolleyID != nil && a.TrolleyID != nil &&
			*existing.TrolleyID == *a.TrolleyID && existing.Kind == a.Kind && !existing.Resolved {
			return false, nil
		}
	}
	a.ID = uuid.New()
	copied := *a
	s.alerts = append(s.alerts, &copied)
	return true, nil
}

func (s *fakeAlertSink) FindUnresolved(_ context.Context, trolleyID uuid.UUID, kind alert.Kind) ([]*alert.Alert, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []*alert.Alert{}
	for _, a := range s.alerts {
		if a.TrolleyID != nil && *a.TrolleyID == trolleyID && a.Kind == kind && !a.Resolved {
			out = append(out, a)
		}
	}
	return out, nil
}

func (s *fakeAlertSink) BulkResolve(_ context.Context, trolleyID uuid.UUID, kind alert.Kind, resolvedBy string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	resolved := 0
	now := time.Now()
	for _, a := range s.alerts {
		if a.TrolleyID != nil && *a.TrolleyID == trolleyID && a.Kind == kind && !a.Resolved {
			a.Resolved = true
			a.ResolvedBy = &resolvedBy
			a.ResolvedAt = &now
			resolved++
		}
	}
	return resolved, nil
}

func (s *fakeAlertSink) countByKind(kind alert.Kind) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	count := 0
	for _, a := range s.alerts {
		if a.Kind == kind {
			count++
		}
	}
	return count
}
