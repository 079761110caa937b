package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"trolley-monitor/internal/domain/store"
	"trolley-monitor/internal/infrastructure/database/postgres/models"
)

type StoreRepository struct {
	db *DB
}

func NewStoreRepository(db *DB) *StoreRepository {
	return &StoreRepository{db: db}
}

func (r *StoreRepository) GetByID(ctx context.Context, storeID uuid.UUID) (*store.Store, error) {
	var dbModel models.StoreModel
	err := r.db.DB.WithContext(ctx).
		Where("id = ?", storeID).
		First(&dbModel).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, store.ErrStoreNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get store: %w", err)
	}

	return &store.Store{
		ID:              dbModel.ID,
		Name:            dbModel.Name,
		Lat:             dbModel.Lat,
		Lon:             dbModel.Lon,
		GeofenceRadiusM: dbModel.GeofenceRadiusM,
		CreatedAt:       dbModel.CreatedAt,
		UpdatedAt:       dbModel.UpdatedAt,
	}, nil
}
