package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"trolley-monitor/internal/domain/position"
	"trolley-monitor/internal/infrastructure/database/postgres/models"
)

type PositionRepository struct {
	db *DB
}

func NewPositionRepository(db *DB) *PositionRepository {
	return &PositionRepository{db: db}
}

func (r *PositionRepository) Create(ctx context.Context, sample *position.Sample) error {
	sample.ID = uuid.New()

	dbModel := &models.PositionSampleModel{
		ID:                 sample.ID,
		TrolleyID:          sample.TrolleyID,
		Lat:                sample.Lat,
		Lon:                sample.Lon,
		IsContained:        sample.IsContained,
		DistanceFromStoreM: sample.DistanceFromStoreM,
		SpeedKmh:           sample.SpeedKmh,
		BatteryLevel:       sample.BatteryLevel,
		SignalStrength:     sample.SignalStrength,
		RecordedAt:         sample.RecordedAt,
	}
	if err := r.db.DB.WithContext(ctx).Create(dbModel).Error; err != nil {
		return fmt.Errorf("failed to create position sample: %w", err)
	}

	return nil
}

func (r *PositionRepository) ListByTrolley(ctx context.Context, trolleyID uuid.UUID, since time.Time, limit int) ([]*position.Sample, error) {
	var dbModels []models.PositionSampleModel

	db := r.db.DB.WithContext(ctx).
		Where("trolley_id = ? AND recorded_at >= ?", trolleyID, since).
		Order("recorded_at DESC")
	if limit > 0 {
		db = db.Limit(limit)
	}

	if err := db.Find(&dbModels).Error; err != nil {
		return nil, fmt.Errorf("failed to list position samples: %w", err)
	}

	samples := make([]*position.Sample, len(dbModels))
	for i, m := range dbModels {
		samples[i] = &position.Sample{
			ID:                 m.ID,
			TrolleyID:          m.TrolleyID,
			Lat:                m.Lat,
			Lon:                m.Lon,
			IsContained:        m.IsContained,
			DistanceFromStoreM: m.DistanceFromStoreM,
			SpeedKmh:           m.SpeedKmh,
			BatteryLevel:       m.BatteryLevel,
			SignalStrength:     m.SignalStrength,
			RecordedAt:         m.RecordedAt,
		}
	}

	return samples, nil
}
