package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"trolley-monitor/internal/domain/alert"
	"trolley-monitor/internal/infrastructure/database/postgres/models"
)

type AlertRepository struct {
	db *DB
}

func NewAlertRepository(db *DB) *AlertRepository {
	return &AlertRepository{db: db}
}

// Create inserts the alert unless an unresolved one already exists for the
// same (trolley, kind). The WHERE NOT EXISTS guard plus the partial unique
// index make concurrent duplicates lose cleanly instead of erroring.
func (r *AlertRepository) Create(ctx context.Context, a *alert.Alert) (bool, error) {
	a.ID = uuid.New()
	a.CreatedAt = time.Now()

	result := r.db.DB.WithContext(ctx).Exec(`
		INSERT INTO alerts (id, store_id, trolley_id, kind, severity, message, resolved, created_at)
		SELECT ?, ?, ?, ?, ?, ?, FALSE, ?
		WHERE NOT EXISTS (
			SELECT 1 FROM alerts
			WHERE trolley_id = ? AND kind = ? AND resolved = FALSE
		)`,
		a.ID, a.StoreID, a.TrolleyID, string(a.Kind), string(a.Severity), a.Message, a.CreatedAt,
		a.TrolleyID, string(a.Kind),
	)

	if result.Error != nil {
		// A concurrent insert can still hit the partial unique index.
		if strings.Contains(result.Error.Error(), "duplicate key") {
			return false, nil
		}
		return false, fmt.Errorf("failed to create alert: %w", result.Error)
	}

	return result.RowsAffected > 0, nil
}

func (r *AlertRepository) FindUnresolved(ctx context.Context, trolleyID uuid.UUID, kind alert.Kind) ([]*alert.Alert, error) {
	var dbModels []models.AlertModel
	err := r.db.DB.WithContext(ctx).
		Where("trolley_id = ? AND kind = ? AND resolved = FALSE", trolleyID, string(kind)).
		Order("created_at DESC").
		Find(&dbModels).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find unresolved alerts: %w", err)
	}

	alerts := make([]*alert.Alert, len(dbModels))
	for i := range dbModels {
		alerts[i] = toAlertEntity(&dbModels[i])
	}

	return alerts, nil
}

func (r *AlertRepository) BulkResolve(ctx context.Context, trolleyID uuid.UUID, kind alert.Kind, resolvedBy string) (int, error) {
	result := r.db.DB.WithContext(ctx).
		Model(&models.AlertModel{}).
		Where("trolley_id = ? AND kind = ? AND resolved = FALSE", trolleyID, string(kind)).
		Updates(map[string]interface{}{
			"resolved":    true,
			"resolved_by": resolvedBy,
			"resolved_at": time.Now(),
		})

	if result.Error != nil {
		return 0, fmt.Errorf("failed to resolve alerts: %w", result.Error)
	}

	return int(result.RowsAffected), nil
}

func toAlertEntity(m *models.AlertModel) *alert.Alert {
	return &alert.Alert{
		ID:         m.ID,
		StoreID:    m.StoreID,
		TrolleyID:  m.TrolleyID,
		Kind:       alert.Kind(m.Kind),
		Severity:   alert.Severity(m.Severity),
		Message:    m.Message,
		Resolved:   m.Resolved,
		ResolvedBy: m.ResolvedBy,
		ResolvedAt: m.ResolvedAt,
		CreatedAt:  m.CreatedAt,
	}
}
