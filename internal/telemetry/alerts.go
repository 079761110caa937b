package telemetry

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"trolley-monitor/internal/domain/alert"
	"trolley-monitor/internal/domain/trolley"
)

const systemResolver = "system"

// Deduper is an optional fast-path cache in front of the alert store's
// uniqueness constraint. The constraint remains the source of truth; the
// cache only saves round trips on repeated breach samples.
type Deduper interface {
	Seen(ctx context.Context, trolleyID uuid.UUID, kind alert.Kind) (bool, error)
	Mark(ctx context.Context, trolleyID uuid.UUID, kind alert.Kind) error
	Clear(ctx context.Context, trolleyID uuid.UUID, kind alert.Kind) error
}

// AlertManager maintains the "at most one open alert per (trolley, kind)"
// invariant for the alert kinds driven by telemetry.
type AlertManager struct {
	sink    alert.Sink
	deduper Deduper
	log     *zap.Logger
}

func NewAlertManager(sink alert.Sink, deduper Deduper, log *zap.Logger) *AlertManager {
	return &AlertManager{
		sink:    sink,
		deduper: deduper,
		log:     log,
	}
}

// OnBreach opens a geofence breach alert unless one is already open for the
// trolley. Idempotent under concurrent duplicates: the conditional insert in
// the sink suppresses the second writer.
func (m *AlertManager) OnBreach(ctx context.Context, t *trolley.Trolley, distance float64) (bool, error) {
	if t.StoreID == nil {
		return false, trolley.ErrNoStoreAssigned
	}

	if m.deduper != nil {
		seen, err := m.deduper.Seen(ctx, t.ID, alert.KindGeofenceBreach)
		if err != nil {
			m.log.Warn("alert dedup cache unavailable, falling through to store",
				zap.String("trolley_id", t.ID.String()), zap.Error(err))
		} else if seen {
			return false, nil
		}
	}

	trolleyID := t.ID
	created, err := m.sink.Create(ctx, &alert.Alert{
		StoreID:   *t.StoreID,
		TrolleyID: &trolleyID,
		Kind:      alert.KindGeofenceBreach,
		Severity:  alert.SeverityHigh,
		Message:   fmt.Sprintf("Trolley %s left the geofence: %.2fm from store", t.HardwareUID, distance),
	})
	if err != nil {
		return false, err
	}

	if created && m.deduper != nil {
		if err := m.deduper.Mark(ctx, t.ID, alert.KindGeofenceBreach); err != nil {
			m.log.Warn("failed to mark alert dedup cache", zap.Error(err))
		}
	}

	return created, nil
}

// OnReentry resolves every open breach alert for the trolley, not just the
// most recent one.
func (m *AlertManager) OnReentry(ctx context.Context, t *trolley.Trolley) (int, error) {
	resolved, err := m.sink.BulkResolve(ctx, t.ID, alert.KindGeofenceBreach, systemResolver)
	if err != nil {
		return 0, err
	}

	if m.deduper != nil {
		if err := m.deduper.Clear(ctx, t.ID, alert.KindGeofenceBreach); err != nil {
			m.log.Warn("failed to clear alert dedup cache", zap.Error(err))
		}
	}

	if resolved > 0 {
		m.log.Info("breach alerts resolved on reentry",
			zap.String("trolley_id", t.ID.String()),
			zap.Int("resolved", resolved),
		)
	}

	return resolved, nil
}

// OnLowBattery opens a low battery alert unless one is already open.
// Resolution is a manual administrative action, never automatic.
func (m *AlertManager) OnLowBattery(ctx context.Context, t *trolley.Trolley, level int) (bool, error) {
	if t.StoreID == nil {
		return false, trolley.ErrNoStoreAssigned
	}

	trolleyID := t.ID
	return m.sink.Create(ctx, &alert.Alert{
		StoreID:   *t.StoreID,
		TrolleyID: &trolleyID,
		Kind:      alert.KindLowBattery,
		Severity:  alert.SeverityMedium,
		Message:   fmt.Sprintf("Trolley %s battery at %d%%", t.HardwareUID, level),
	})
}

// OnCustomerBlocked raises the store alert that accompanies blocking a
// chronic non-returner. Severity escalates with how overdue the trolley is.
func (m *AlertManager) OnCustomerBlocked(ctx context.Context, storeID, trolleyID uuid.UUID, customerIdentifier string, hoursOverdue, critical int) (bool, error) {
	severity := alert.SeverityWarning
	if hoursOverdue > critical {
		severity = alert.SeverityCritical
	}

	return m.sink.Create(ctx, &alert.Alert{
		StoreID:   storeID,
		TrolleyID: &trolleyID,
		Kind:      alert.KindCustomerBlocked,
		Severity:  severity,
		Message:   fmt.Sprintf("Customer %s blocked: trolley %dh overdue", customerIdentifier, hoursOverdue),
	})
}
