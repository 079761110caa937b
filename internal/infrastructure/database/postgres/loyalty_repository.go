package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"trolley-monitor/internal/domain/loyalty"
	"trolley-monitor/internal/infrastructure/database/postgres/models"
)

// LoyaltyRepository is the postgres-backed loyalty ledger. It owns the
// balance clamp, idempotent blocking and upgrade-only tier recomputation.
type LoyaltyRepository struct {
	db *DB
}

func NewLoyaltyRepository(db *DB) *LoyaltyRepository {
	return &LoyaltyRepository{db: db}
}

func (r *LoyaltyRepository) Validate(ctx context.Context, cardNumber string) (*loyalty.Account, error) {
	var dbModel models.LoyaltyAccountModel
	err := r.db.DB.WithContext(ctx).
		Where("card_number = ?", cardNumber).
		First(&dbModel).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, loyalty.ErrAccountNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get loyalty account: %w", err)
	}

	return toAccountEntity(&dbModel), nil
}

func (r *LoyaltyRepository) Allocate(ctx context.Context, cardNumber string, points int, reason string) error {
	result := r.db.DB.WithContext(ctx).
		Model(&models.LoyaltyAccountModel{}).
		Where("card_number = ?", cardNumber).
		Updates(map[string]interface{}{
			"points":     gorm.Expr("points + ?", points),
			"updated_at": time.Now(),
		})

	if result.Error != nil {
		return fmt.Errorf("failed to allocate points: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return loyalty.ErrAccountNotFound
	}

	return nil
}

// Deduct removes up to points from the balance, clamping at zero. The CTE
// computes the clamped amount and applies it in one statement, so two
// concurrent deductions cannot drive the balance negative.
func (r *LoyaltyRepository) Deduct(ctx context.Context, cardNumber string, points int, reason string) (int, error) {
	var deducted struct {
		Amount int
	}

	result := r.db.DB.WithContext(ctx).Raw(`
		WITH target AS (
			SELECT card_number, LEAST(points, ?) AS amount
			FROM loyalty_accounts
			WHERE card_number = ?
			FOR UPDATE
		)
		UPDATE loyalty_accounts a
		SET points = a.points - t.amount, updated_at = ?
		FROM target t
		WHERE a.card_number = t.card_number
		RETURNING t.amount`,
		points, cardNumber, time.Now(),
	).Scan(&deducted)

	if result.Error != nil {
		return 0, fmt.Errorf("failed to deduct points: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return 0, loyalty.ErrAccountNotFound
	}

	return deducted.Amount, nil
}

// Block marks the account inactive. Re-blocking an already blocked account
// is a no-op that keeps the original reason.
func (r *LoyaltyRepository) Block(ctx context.Context, cardNumber string, reason string) error {
	result := r.db.DB.WithContext(ctx).
		Model(&models.LoyaltyAccountModel{}).
		Where("card_number = ? AND active = TRUE", cardNumber).
		Updates(map[string]interface{}{
			"active":       false,
			"block_reason": reason,
			"updated_at":   time.Now(),
		})

	if result.Error != nil {
		return fmt.Errorf("failed to block loyalty account: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		// Distinguish a missing account from an already blocked one.
		if _, err := r.Validate(ctx, cardNumber); err != nil {
			return err
		}
	}

	return nil
}

// UpdateStats applies counter changes under a row lock and recomputes the
// tier from lifetime returns. Tiers only ever move up.
func (r *LoyaltyRepository) UpdateStats(ctx context.Context, cardNumber string, update loyalty.StatsUpdate) (*loyalty.Account, error) {
	var updated *loyalty.Account

	err := r.db.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var dbModel models.LoyaltyAccountModel
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("card_number = ?", cardNumber).
			First(&dbModel).Error

		if errors.Is(err, gorm.ErrRecordNotFound) {
			return loyalty.ErrAccountNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to lock loyalty account: %w", err)
		}

		if update.IncrementReturns {
			dbModel.TotalReturns++
		}
		if update.Streak != nil {
			dbModel.ConsecutiveReturns = *update.Streak
		}

		tier := loyalty.HigherTier(loyalty.Tier(dbModel.Tier), loyalty.TierForReturns(dbModel.TotalReturns))
		dbModel.Tier = string(tier)
		dbModel.UpdatedAt = time.Now()

		if err := tx.Model(&models.LoyaltyAccountModel{}).
			Where("card_number = ?", cardNumber).
			Updates(map[string]interface{}{
				"total_returns":       dbModel.TotalReturns,
				"consecutive_returns": dbModel.ConsecutiveReturns,
				"tier":                dbModel.Tier,
				"updated_at":          dbModel.UpdatedAt,
			}).Error; err != nil {
			return fmt.Errorf("failed to update loyalty stats: %w", err)
		}

		updated = toAccountEntity(&dbModel)
		return nil
	})
	if err != nil {
		return nil, err
	}

	return updated, nil
}

func toAccountEntity(m *models.LoyaltyAccountModel) *loyalty.Account {
	return &loyalty.Account{
		CardNumber:         m.CardNumber,
		Tier:               loyalty.Tier(m.Tier),
		Points:             m.Points,
		ConsecutiveReturns: m.ConsecutiveReturns,
		TotalReturns:       m.TotalReturns,
		Active:             m.Active,
		BlockReason:        m.BlockReason,
		CreatedAt:          m.CreatedAt,
		UpdatedAt:          m.UpdatedAt,
	}
}
