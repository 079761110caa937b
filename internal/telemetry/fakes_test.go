package telemetry

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"trolley-monitor/internal/domain/alert"
	"trolley-monitor/internal/domain/position"
	"trolley-monitor/internal/domain/store"
	"trolley-monitor/internal/domain/trolley"
)

type fakeTrolleyRepo struct {
	mu       sync.Mutex
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
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.trolleys[id]
	if !ok {
		return nil, trolley.ErrTrolleyNotFound
	}
	copied := *t
	return &copied, nil
}

func (r *fakeTrolleyRepo) GetByHardwareUID(_ context.Context, uid string) (*trolley.Trolley, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.trolleys {
		if t.HardwareUID == uid {
			copied := *t
			return &copied, nil
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

func (r *fakeTrolleyRepo) UpdateTelemetry(_ context.Context, id uuid.UUID, update trolley.TelemetryUpdate) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.trolleys[id]
	if !ok {
		return trolley.ErrTrolleyNotFound
	}
	lat, lon, contained, seenAt := update.Lat, update.Lon, update.IsContained, update.SeenAt
	t.CurrentLat = &lat
	t.CurrentLon = &lon
	t.IsContained = &contained
	t.LastSeenAt = &seenAt
	if update.BatteryLevel != nil {
		t.BatteryLevel = update.BatteryLevel
	}
	return nil
}

func (r *fakeTrolleyRepo) ListTrackable(_ context.Context, storeID *uuid.UUID, limit int) ([]*trolley.Trolley, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []*trolley.Trolley{}
	for _, t := range r.trolleys {
		if !t.Trackable() {
			continue
		}
		if storeID != nil && (t.StoreID == nil || *t.StoreID != *storeID) {
			continue
		}
		copied := *t
		out = append(out, &copied)
		if len(out) >= limit {
			break
		}
	}
	return out, nil
}

type fakeStoreRepo struct {
	stores map[uuid.UUID]*store.Store
}

func newFakeStoreRepo(stores ...*store.Store) *fakeStoreRepo {
	r := &fakeStoreRepo{stores: make(map[uuid.UUID]*store.Store)}
	for _, s := range stores {
		r.stores[s.ID] = s
	}
	return r
}

func (r *fakeStoreRepo) GetByID(_ context.Context, id uuid.UUID) (*store.Store, error) {
	s, ok := r.stores[id]
	if !ok {
		return nil, store.ErrStoreNotFound
	}
	return s, nil
}

type fakeSampleRepo struct {
	mu      sync.Mutex
	samples []*position.Sample
}

func (r *fakeSampleRepo) Create(_ context.Context, s *position.Sample) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s.ID = uuid.New()
	copied := *s
	r.samples = append(r.samples, &copied)
	return nil
}

func (r *fakeSampleRepo) ListByTrolley(_ context.Context, trolleyID uuid.UUID, since time.Time, limit int) ([]*position.Sample, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []*position.Sample{}
	for _, s := range r.samples {
		if s.TrolleyID == trolleyID && !s.RecordedAt.Before(since) {
			out = append(out, s)
			if limit > 0 && len(out) >= limit {
				break
			}
		}
	}
	return out, nil
}

// fakeAlertSink enforces the same one-open-alert-per-(trolley, kind)
// constraint the postgres sink enforces with its partial unique index.
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
	a.CreatedAt = time.Now()
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
