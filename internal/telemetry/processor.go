package telemetry

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"trolley-monitor/internal/domain/position"
	"trolley-monitor/internal/domain/store"
	"trolley-monitor/internal/domain/trolley"
	"trolley-monitor/internal/geo"
	apperrors "trolley-monitor/pkg/errors"
)

// Processor ingests position samples, computes containment and speed,
// persists immutable history and drives the alert manager on containment
// transitions. All dependencies are injected; it owns no global state.
type Processor struct {
	trolleys trolley.Repository
	stores   store.Repository
	samples  position.Repository
	alerts   *AlertManager

	batchWorkers    int
	lowBatteryLevel int

	metrics *MetricsTracker
	log     *zap.Logger

	now func() time.Time
}

type ProcessorOptions struct {
	BatchWorkers    int
	LowBatteryLevel int
}

func NewProcessor(
	trolleys trolley.Repository,
	stores store.Repository,
	samples position.Repository,
	alerts *AlertManager,
	opts ProcessorOptions,
	log *zap.Logger,
) *Processor {
	workers := opts.BatchWorkers
	if workers <= 0 {
		workers = 8
	}
	lowBattery := opts.LowBatteryLevel
	if lowBattery <= 0 {
		lowBattery = 20
	}

	return &Processor{
		trolleys:        trolleys,
		stores:          stores,
		samples:         samples,
		alerts:          alerts,
		batchWorkers:    workers,
		lowBatteryLevel: lowBattery,
		metrics:         NewMetricsTracker(),
		log:             log,
		now:             time.Now,
	}
}

// UpdateLocation processes one position sample for a trolley.
func (p *Processor) UpdateLocation(ctx context.Context, trolleyID uuid.UUID, update PositionUpdate) (*UpdateResult, error) {
	result, err := p.updateLocation(ctx, trolleyID, update)

	p.metrics.Update(func(m *Metrics) {
		if err != nil {
			m.SamplesFailed++
			return
		}
		m.SamplesProcessed++
		m.LastProcessedAt = p.now()
		if result.BreachDetected {
			m.BreachesDetected++
		}
		if result.ReentryDetected {
			m.ReentriesDetected++
		}
	})

	return result, err
}

// UpdateLocationByRef resolves a UUID string or hardware UID first;
// trackers publish their hardware UID, not the database id.
func (p *Processor) UpdateLocationByRef(ctx context.Context, ref string, update PositionUpdate) (*UpdateResult, error) {
	t, err := p.trolleys.GetByRef(ctx, ref)
	if err != nil {
		if errors.Is(err, trolley.ErrTrolleyNotFound) {
			return nil, apperrors.NotFound(fmt.Sprintf("trolley %s not found", ref))
		}
		return nil, apperrors.Internal("failed to resolve trolley", err)
	}
	return p.UpdateLocation(ctx, t.ID, update)
}

func (p *Processor) updateLocation(ctx context.Context, trolleyID uuid.UUID, update PositionUpdate) (*UpdateResult, error) {
	if !geo.ValidCoordinates(update.Lat, update.Lon) {
		return nil, apperrors.Validation(
			fmt.Sprintf("invalid coordinates (%v, %v)", update.Lat, update.Lon), nil)
	}

	t, err := p.trolleys.GetByID(ctx, trolleyID)
	if err != nil {
		if errors.Is(err, trolley.ErrTrolleyNotFound) {
			return nil, apperrors.NotFound(fmt.Sprintf("trolley %s not found", trolleyID))
		}
		return nil, apperrors.Internal("failed to load trolley", err)
	}

	if t.StoreID == nil {
		return nil, apperrors.InvalidState(
			fmt.Sprintf("trolley %s has no store assigned", t.HardwareUID))
	}

	anchor, err := p.stores.GetByID(ctx, *t.StoreID)
	if err != nil {
		return nil, apperrors.Internal("failed to load store", err)
	}

	now := update.RecordedAt
	if now.IsZero() {
		now = p.now()
	}
	distance := geo.Distance(anchor.Lat, anchor.Lon, update.Lat, update.Lon)
	isContained := geo.Contained(distance, anchor.EffectiveRadius())

	// Speed needs a prior timestamped position; the first sample has none.
	var speed *float64
	if t.HasPosition() {
		s := geo.Speed(*t.CurrentLat, *t.CurrentLon, update.Lat, update.Lon, *t.LastSeenAt, now)
		speed = &s
	}

	sample := &position.Sample{
		TrolleyID:          t.ID,
		Lat:                update.Lat,
		Lon:                update.Lon,
		IsContained:        isContained,
		DistanceFromStoreM: distance,
		SpeedKmh:           speed,
		BatteryLevel:       update.BatteryLevel,
		SignalStrength:     update.SignalStrength,
		RecordedAt:         now,
	}
	if err := p.samples.Create(ctx, sample); err != nil {
		return nil, apperrors.Internal("failed to persist position sample", err)
	}

	// Containment transitions only exist relative to a known prior state.
	var breach, reentry bool
	if t.HasPosition() && t.IsContained != nil {
		breach = *t.IsContained && !isContained
		reentry = !*t.IsContained && isContained
	}

	if err := p.trolleys.UpdateTelemetry(ctx, t.ID, trolley.TelemetryUpdate{
		Lat:          update.Lat,
		Lon:          update.Lon,
		IsContained:  isContained,
		BatteryLevel: update.BatteryLevel,
		SeenAt:       now,
	}); err != nil {
		return nil, apperrors.Internal("failed to update trolley state", err)
	}

	// Alerting is a synchronous side effect of the transition, but an alert
	// store failure does not unwind the already-persisted sample.
	if breach {
		if created, err := p.alerts.OnBreach(ctx, t, distance); err != nil {
			p.log.Error("breach alert failed",
				zap.String("trolley_id", t.ID.String()), zap.Error(err))
		} else if created {
			p.metrics.Update(func(m *Metrics) { m.AlertsRaised++ })
		}
	}
	if reentry {
		if _, err := p.alerts.OnReentry(ctx, t); err != nil {
			p.log.Error("reentry resolution failed",
				zap.String("trolley_id", t.ID.String()), zap.Error(err))
		}
	}
	if update.BatteryLevel != nil && *update.BatteryLevel <= p.lowBatteryLevel {
		if created, err := p.alerts.OnLowBattery(ctx, t, *update.BatteryLevel); err != nil {
			p.log.Error("low battery alert failed",
				zap.String("trolley_id", t.ID.String()), zap.Error(err))
		} else if created {
			p.metrics.Update(func(m *Metrics) { m.AlertsRaised++ })
		}
	}

	snapshot := *t
	snapshot.CurrentLat = &update.Lat
	snapshot.CurrentLon = &update.Lon
	snapshot.IsContained = &isContained
	snapshot.LastSeenAt = &now
	if update.BatteryLevel != nil {
		snapshot.BatteryLevel = update.BatteryLevel
	}

	return &UpdateResult{
		Trolley:            &snapshot,
		Sample:             sample,
		IsContained:        isContained,
		DistanceFromStoreM: distance,
		SpeedKmh:           speed,
		BreachDetected:     breach,
		ReentryDetected:    reentry,
	}, nil
}

// BatchUpdateLocations applies each item independently and reports every
// outcome; one item's failure never aborts the batch. Items for distinct
// trolleys run concurrently; items for the same trolley stay in submission
// order on a single worker.
func (p *Processor) BatchUpdateLocations(ctx context.Context, items []BatchItem) *BatchResult {
	result := &BatchResult{}
	if len(items) == 0 {
		return result
	}

	groups := make(map[uuid.UUID][]BatchItem)
	order := make([]uuid.UUID, 0, len(items))
	for _, item := range items {
		if _, ok := groups[item.TrolleyID]; !ok {
			order = append(order, item.TrolleyID)
		}
		groups[item.TrolleyID] = append(groups[item.TrolleyID], item)
	}

	workers := p.batchWorkers
	if workers > len(order) {
		workers = len(order)
	}

	groupCh := make(chan []BatchItem)
	var mu sync.Mutex
	var wg sync.WaitGroup

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for group := range groupCh {
				for _, item := range group {
					res, err := p.UpdateLocation(ctx, item.TrolleyID, item.Update)
					mu.Lock()
					if err != nil {
						result.Failed = append(result.Failed, BatchFailure{
							TrolleyID: item.TrolleyID,
							Error:     err.Error(),
						})
					} else {
						result.Successful = append(result.Successful, res)
					}
					mu.Unlock()
				}
			}
		}()
	}

	for _, id := range order {
		groupCh <- groups[id]
	}
	close(groupCh)
	wg.Wait()

	return result
}

// LocationHistory returns a trolley's recorded samples since the given
// instant, newest first.
func (p *Processor) LocationHistory(ctx context.Context, ref string, since time.Time, limit int) ([]*position.Sample, error) {
	t, err := p.trolleys.GetByRef(ctx, ref)
	if err != nil {
		if errors.Is(err, trolley.ErrTrolleyNotFound) {
			return nil, apperrors.NotFound(fmt.Sprintf("trolley %s not found", ref))
		}
		return nil, apperrors.Internal("failed to resolve trolley", err)
	}

	samples, err := p.samples.ListByTrolley(ctx, t.ID, since, limit)
	if err != nil {
		return nil, apperrors.Internal("failed to load position history", err)
	}

	return samples, nil
}

// Metrics returns a snapshot of processing counters.
func (p *Processor) Metrics() Metrics {
	return p.metrics.Snapshot()
}
