package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"trolley-monitor/internal/domain/trolley"
	"trolley-monitor/internal/infrastructure/database/postgres/models"
)

type TrolleyRepository struct {
	db *DB
}

func NewTrolleyRepository(db *DB) *TrolleyRepository {
	return &TrolleyRepository{db: db}
}

func (r *TrolleyRepository) GetByID(ctx context.Context, trolleyID uuid.UUID) (*trolley.Trolley, error) {
	var dbModel models.TrolleyModel
	err := r.db.DB.WithContext(ctx).
		Where("id = ?", trolleyID).
		First(&dbModel).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, trolley.ErrTrolleyNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get trolley: %w", err)
	}

	return toTrolleyEntity(&dbModel), nil
}

func (r *TrolleyRepository) GetByHardwareUID(ctx context.Context, hardwareUID string) (*trolley.Trolley, error) {
	var dbModel models.TrolleyModel
	err := r.db.DB.WithContext(ctx).
		Where("hardware_uid = ?", hardwareUID).
		First(&dbModel).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, trolley.ErrTrolleyNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get trolley by hardware uid: %w", err)
	}

	return toTrolleyEntity(&dbModel), nil
}

func (r *TrolleyRepository) GetByRef(ctx context.Context, ref string) (*trolley.Trolley, error) {
	if id, err := uuid.Parse(ref); err == nil {
		return r.GetByID(ctx, id)
	}
	return r.GetByHardwareUID(ctx, ref)
}

// telemetryColumns builds the column set for a telemetry writeback. The
// cached battery level is only touched when the sample carried one;
// writing the nil pointer would NULL out the last known reading.
func telemetryColumns(update trolley.TelemetryUpdate) map[string]interface{} {
	columns := map[string]interface{}{
		"current_lat":  update.Lat,
		"current_lon":  update.Lon,
		"is_contained": update.IsContained,
		"last_seen_at": update.SeenAt,
		"updated_at":   time.Now(),
	}
	if update.BatteryLevel != nil {
		columns["battery_level"] = *update.BatteryLevel
	}
	return columns
}

func (r *TrolleyRepository) UpdateTelemetry(ctx context.Context, trolleyID uuid.UUID, update trolley.TelemetryUpdate) error {
	result := r.db.DB.WithContext(ctx).
		Model(&models.TrolleyModel{}).
		Where("id = ?", trolleyID).
		Updates(telemetryColumns(update))

	if result.Error != nil {
		return fmt.Errorf("failed to update trolley telemetry: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return trolley.ErrTrolleyNotFound
	}

	return nil
}

func (r *TrolleyRepository) ListTrackable(ctx context.Context, storeID *uuid.UUID, limit int) ([]*trolley.Trolley, error) {
	var dbModels []models.TrolleyModel

	db := r.db.DB.WithContext(ctx).
		Where("status IN ?", []string{string(trolley.StatusActive), string(trolley.StatusRecovered)})
	if storeID != nil {
		db = db.Where("store_id = ?", *storeID)
	}
	if limit > 0 {
		db = db.Limit(limit)
	}

	if err := db.Order("hardware_uid ASC").Find(&dbModels).Error; err != nil {
		return nil, fmt.Errorf("failed to list trackable trolleys: %w", err)
	}

	trolleys := make([]*trolley.Trolley, len(dbModels))
	for i := range dbModels {
		trolleys[i] = toTrolleyEntity(&dbModels[i])
	}

	return trolleys, nil
}

func toTrolleyEntity(m *models.TrolleyModel) *trolley.Trolley {
	return &trolley.Trolley{
		ID:           m.ID,
		HardwareUID:  m.HardwareUID,
		StoreID:      m.StoreID,
		Status:       trolley.TrolleyStatus(m.Status),
		CurrentLat:   m.CurrentLat,
		CurrentLon:   m.CurrentLon,
		IsContained:  m.IsContained,
		BatteryLevel: m.BatteryLevel,
		LastSeenAt:   m.LastSeenAt,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}
