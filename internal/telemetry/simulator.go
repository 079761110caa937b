package telemetry

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"trolley-monitor/internal/domain/store"
	"trolley-monitor/internal/domain/trolley"
	apperrors "trolley-monitor/pkg/errors"
)

// Meters per degree of latitude, and per degree of longitude at the
// equator; longitude shrinks with cos(lat).
const metersPerDegree = 111000.0

// breachRadiusFactor places forced breaches safely beyond the geofence.
const breachRadiusFactor = 1.5

// Simulator generates synthetic movement for demo and load testing. It
// shares the production input contract: every generated sample goes through
// the same Processor as real tracker data.
type Simulator struct {
	trolleys  trolley.Repository
	stores    store.Repository
	processor *Processor
	rng       *rand.Rand
	log       *zap.Logger
}

func NewSimulator(
	trolleys trolley.Repository,
	stores store.Repository,
	processor *Processor,
	rng *rand.Rand,
	log *zap.Logger,
) *Simulator {
	return &Simulator{
		trolleys:  trolleys,
		stores:    stores,
		processor: processor,
		rng:       rng,
		log:       log,
	}
}

// SimulateMovement produces the next position for a trolley. The default
// model jitters up to ±distanceMeters around the current position (or the
// anchor when no position exists). With moveOutside the point lands at
// 1.5x the geofence radius along the anchor-to-trolley direction, which
// guarantees a breach.
func (s *Simulator) SimulateMovement(t *trolley.Trolley, anchor *store.Store, distanceMeters float64, moveOutside bool) (float64, float64) {
	baseLat, baseLon := anchor.Lat, anchor.Lon
	if t.HasPosition() {
		baseLat, baseLon = *t.CurrentLat, *t.CurrentLon
	}

	if !moveOutside {
		return s.jitter(baseLat, baseLon, distanceMeters)
	}

	// Direction from the anchor to the current position, in meters.
	dy := (baseLat - anchor.Lat) * metersPerDegree
	dx := (baseLon - anchor.Lon) * metersPerDegree * math.Cos(anchor.Lat*math.Pi/180)

	norm := math.Hypot(dx, dy)
	if norm == 0 {
		angle := s.rng.Float64() * 2 * math.Pi
		dx, dy = math.Cos(angle), math.Sin(angle)
		norm = 1
	}

	target := anchor.EffectiveRadius() * breachRadiusFactor
	lat := anchor.Lat + (dy/norm)*target/metersPerDegree
	lon := anchor.Lon + (dx/norm)*target/(metersPerDegree*math.Cos(anchor.Lat*math.Pi/180))

	return lat, lon
}

func (s *Simulator) jitter(lat, lon, distanceMeters float64) (float64, float64) {
	dLat := (s.rng.Float64()*2 - 1) * distanceMeters / metersPerDegree
	dLon := (s.rng.Float64()*2 - 1) * distanceMeters / (metersPerDegree * math.Cos(lat*math.Pi/180))
	return lat + dLat, lon + dLon
}

// SimulationRequest drives one round of multi-trolley simulation.
type SimulationRequest struct {
	Count            int
	StoreID          *uuid.UUID
	BreachPercentage float64 // 0-100, chance each trolley is forced outside
	StepMeters       float64 // random-walk step, defaults to 50m
}

// SimulationOutcome is one trolley's simulated step.
type SimulationOutcome struct {
	TrolleyID    uuid.UUID
	HardwareUID  string
	ForcedBreach bool
	Result       *UpdateResult
}

// SimulationResult reports every trolley's outcome; the round never aborts
// on a single failure.
type SimulationResult struct {
	Simulated []SimulationOutcome
	Failed    []BatchFailure
}

// SimulateMultiple moves up to Count active/recovered trolleys one step,
// independently rolling each against BreachPercentage, and feeds every
// generated sample through the processor.
func (s *Simulator) SimulateMultiple(ctx context.Context, req SimulationRequest) (*SimulationResult, error) {
	count := req.Count
	if count <= 0 {
		count = 10
	}
	step := req.StepMeters
	if step <= 0 {
		step = 50
	}

	candidates, err := s.trolleys.ListTrackable(ctx, req.StoreID, count)
	if err != nil {
		return nil, apperrors.Internal("failed to list trolleys for simulation", err)
	}

	result := &SimulationResult{}
	for _, t := range candidates {
		if t.StoreID == nil {
			result.Failed = append(result.Failed, BatchFailure{
				TrolleyID: t.ID,
				Error:     trolley.ErrNoStoreAssigned.Error(),
			})
			continue
		}

		anchor, err := s.stores.GetByID(ctx, *t.StoreID)
		if err != nil {
			result.Failed = append(result.Failed, BatchFailure{
				TrolleyID: t.ID,
				Error:     fmt.Sprintf("failed to load store: %v", err),
			})
			continue
		}

		forceBreach := s.rng.Float64()*100 < req.BreachPercentage
		lat, lon := s.SimulateMovement(t, anchor, step, forceBreach)

		res, err := s.processor.UpdateLocation(ctx, t.ID, PositionUpdate{Lat: lat, Lon: lon})
		if err != nil {
			result.Failed = append(result.Failed, BatchFailure{
				TrolleyID: t.ID,
				Error:     err.Error(),
			})
			continue
		}

		result.Simulated = append(result.Simulated, SimulationOutcome{
			TrolleyID:    t.ID,
			HardwareUID:  t.HardwareUID,
			ForcedBreach: forceBreach,
			Result:       res,
		})
	}

	s.log.Info("simulation round complete",
		zap.Int("simulated", len(result.Simulated)),
		zap.Int("failed", len(result.Failed)),
		zap.Float64("breach_percentage", req.BreachPercentage),
	)

	return result, nil
}

// SimulateGeofenceBreach moves one trolley either safely inside (~50m of
// the anchor) or far enough out to guarantee a breach.
func (s *Simulator) SimulateGeofenceBreach(ctx context.Context, trolleyID uuid.UUID, forceInside bool) (*UpdateResult, error) {
	t, err := s.trolleys.GetByID(ctx, trolleyID)
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

	anchor, err := s.stores.GetByID(ctx, *t.StoreID)
	if err != nil {
		return nil, apperrors.Internal("failed to load store", err)
	}

	var lat, lon float64
	if forceInside {
		lat, lon = s.jitter(anchor.Lat, anchor.Lon, 50)
	} else {
		lat, lon = s.SimulateMovement(t, anchor, 200, true)
	}

	return s.processor.UpdateLocation(ctx, trolleyID, PositionUpdate{Lat: lat, Lon: lon})
}
