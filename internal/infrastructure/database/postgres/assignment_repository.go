package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"trolley-monitor/internal/domain/assignment"
	"trolley-monitor/internal/infrastructure/database/postgres/models"
)

var activeStatuses = []string{
	string(assignment.StatusCheckedOut),
	string(assignment.StatusOverdue),
}

type AssignmentRepository struct {
	db *DB
}

func NewAssignmentRepository(db *DB) *AssignmentRepository {
	return &AssignmentRepository{db: db}
}

// CreateActive inserts only when the trolley has no assignment in
// {checked_out, overdue}. Two concurrent checkouts race on the WHERE NOT
// EXISTS guard and the partial unique index; exactly one wins.
func (r *AssignmentRepository) CreateActive(ctx context.Context, a *assignment.Assignment) error {
	a.ID = uuid.New()
	a.CreatedAt = time.Now()
	a.UpdatedAt = a.CreatedAt

	result := r.db.DB.WithContext(ctx).Exec(`
		INSERT INTO trolley_assignments (
			id, trolley_id, store_id, customer_identifier, identifier_type,
			loyalty_card_number, checked_out_at, expected_return_at, status,
			awarded_points, checkout_lat, checkout_lon, created_at, updated_at
		)
		SELECT ?, ?, ?, ?, ?, ?, ?, ?, ?, 0, ?, ?, ?, ?
		WHERE NOT EXISTS (
			SELECT 1 FROM trolley_assignments
			WHERE trolley_id = ? AND status IN ?
		)`,
		a.ID, a.TrolleyID, a.StoreID, a.CustomerIdentifier, string(a.IdentifierType),
		a.LoyaltyCardNumber, a.CheckedOutAt, a.ExpectedReturnAt, string(a.Status),
		a.CheckoutLat, a.CheckoutLon, a.CreatedAt, a.UpdatedAt,
		a.TrolleyID, activeStatuses,
	)

	if result.Error != nil {
		if strings.Contains(result.Error.Error(), "duplicate key") {
			return assignment.ErrTrolleyCheckedOut
		}
		return fmt.Errorf("failed to create assignment: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return assignment.ErrTrolleyCheckedOut
	}

	return nil
}

func (r *AssignmentRepository) GetByID(ctx context.Context, id uuid.UUID) (*assignment.Assignment, error) {
	var dbModel models.AssignmentModel
	err := r.db.DB.WithContext(ctx).
		Where("id = ?", id).
		First(&dbModel).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, assignment.ErrAssignmentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get assignment: %w", err)
	}

	return toAssignmentEntity(&dbModel), nil
}

func (r *AssignmentRepository) FindActive(ctx context.Context, trolleyID uuid.UUID, customerIdentifier string) (*assignment.Assignment, error) {
	var dbModel models.AssignmentModel
	err := r.db.DB.WithContext(ctx).
		Where("trolley_id = ? AND customer_identifier = ? AND status IN ?",
			trolleyID, customerIdentifier, activeStatuses).
		First(&dbModel).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, assignment.ErrAssignmentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find active assignment: %w", err)
	}

	return toAssignmentEntity(&dbModel), nil
}

// MarkReturned finalizes the assignment. The status guard in the WHERE
// clause means a second return, or a return racing the escalation sweep's
// write-off, affects zero rows.
func (r *AssignmentRepository) MarkReturned(ctx context.Context, id uuid.UUID, returnedAt time.Time, durationMinutes, awardedPoints int) error {
	result := r.db.DB.WithContext(ctx).
		Model(&models.AssignmentModel{}).
		Where("id = ? AND status IN ?", id, activeStatuses).
		Updates(map[string]interface{}{
			"status":           string(assignment.StatusReturned),
			"returned_at":      returnedAt,
			"duration_minutes": durationMinutes,
			"awarded_points":   awardedPoints,
			"updated_at":       time.Now(),
		})

	if result.Error != nil {
		return fmt.Errorf("failed to mark assignment returned: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return assignment.ErrAssignmentNotFound
	}

	return nil
}

func (r *AssignmentRepository) ListExpired(ctx context.Context, now time.Time) ([]*assignment.Assignment, error) {
	var dbModels []models.AssignmentModel
	err := r.db.DB.WithContext(ctx).
		Where("status = ? AND expected_return_at < ?", string(assignment.StatusCheckedOut), now).
		Order("expected_return_at ASC").
		Find(&dbModels).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list expired assignments: %w", err)
	}

	return toAssignmentEntities(dbModels), nil
}

func (r *AssignmentRepository) PromoteOverdue(ctx context.Context, id uuid.UUID) error {
	result := r.db.DB.WithContext(ctx).
		Model(&models.AssignmentModel{}).
		Where("id = ? AND status = ?", id, string(assignment.StatusCheckedOut)).
		Updates(map[string]interface{}{
			"status":     string(assignment.StatusOverdue),
			"updated_at": time.Now(),
		})

	if result.Error != nil {
		return fmt.Errorf("failed to promote assignment to overdue: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return assignment.ErrAssignmentNotFound
	}

	return nil
}

func (r *AssignmentRepository) ListOverdueBefore(ctx context.Context, cutoff time.Time) ([]*assignment.Assignment, error) {
	var dbModels []models.AssignmentModel
	err := r.db.DB.WithContext(ctx).
		Where("status = ? AND expected_return_at < ?", string(assignment.StatusOverdue), cutoff).
		Order("expected_return_at ASC").
		Find(&dbModels).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list overdue assignments: %w", err)
	}

	return toAssignmentEntities(dbModels), nil
}

func (r *AssignmentRepository) MarkUnreturned(ctx context.Context, id uuid.UUID) error {
	result := r.db.DB.WithContext(ctx).
		Model(&models.AssignmentModel{}).
		Where("id = ? AND status = ?", id, string(assignment.StatusOverdue)).
		Updates(map[string]interface{}{
			"status":     string(assignment.StatusUnreturned),
			"updated_at": time.Now(),
		})

	if result.Error != nil {
		return fmt.Errorf("failed to mark assignment unreturned: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return assignment.ErrAssignmentNotFound
	}

	return nil
}

func (r *AssignmentRepository) CountDelinquent(ctx context.Context, customerIdentifier string) (int, error) {
	var count int64
	err := r.db.DB.WithContext(ctx).
		Model(&models.AssignmentModel{}).
		Where("customer_identifier = ? AND status IN ?", customerIdentifier, []string{
			string(assignment.StatusOverdue),
			string(assignment.StatusUnreturned),
		}).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count delinquent assignments: %w", err)
	}

	return int(count), nil
}

func toAssignmentEntity(m *models.AssignmentModel) *assignment.Assignment {
	return &assignment.Assignment{
		ID:                 m.ID,
		TrolleyID:          m.TrolleyID,
		StoreID:            m.StoreID,
		CustomerIdentifier: m.CustomerIdentifier,
		IdentifierType:     assignment.IdentifierType(m.IdentifierType),
		LoyaltyCardNumber:  m.LoyaltyCardNumber,
		CheckedOutAt:       m.CheckedOutAt,
		ExpectedReturnAt:   m.ExpectedReturnAt,
		ReturnedAt:         m.ReturnedAt,
		Status:             assignment.Status(m.Status),
		AwardedPoints:      m.AwardedPoints,
		DurationMinutes:    m.DurationMinutes,
		CheckoutLat:        m.CheckoutLat,
		CheckoutLon:        m.CheckoutLon,
		CreatedAt:          m.CreatedAt,
		UpdatedAt:          m.UpdatedAt,
	}
}

func toAssignmentEntities(dbModels []models.AssignmentModel) []*assignment.Assignment {
	assignments := make([]*assignment.Assignment, len(dbModels))
	for i := range dbModels {
		assignments[i] = toAssignmentEntity(&dbModels[i])
	}
	return assignments
}
