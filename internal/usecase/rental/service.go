package rental

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"trolley-monitor/internal/domain/assignment"
	"trolley-monitor/internal/domain/loyalty"
	"trolley-monitor/internal/domain/trolley"
	"trolley-monitor/internal/rewards"
	apperrors "trolley-monitor/pkg/errors"
	"trolley-monitor/pkg/utils"
)

// Service implements the checkout/return usage ledger.
type Service struct {
	assignments assignment.Repository
	trolleys    trolley.Repository
	ledger      loyalty.Ledger
	log         *zap.Logger

	now func() time.Time
}

func NewService(
	assignments assignment.Repository,
	trolleys trolley.Repository,
	ledger loyalty.Ledger,
	log *zap.Logger,
) *Service {
	return &Service{
		assignments: assignments,
		trolleys:    trolleys,
		ledger:      ledger,
		log:         log,
		now:         time.Now,
	}
}

// Checkout opens an assignment for a trolley. The single-active-assignment
// invariant is enforced by the repository's conditional insert, not by a
// read-then-write check here.
func (s *Service) Checkout(ctx context.Context, req *CheckoutRequest) (*assignment.Assignment, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, apperrors.Validation("invalid checkout request", err)
	}

	t, err := s.trolleys.GetByRef(ctx, req.TrolleyRef)
	if err != nil {
		if errors.Is(err, trolley.ErrTrolleyNotFound) {
			return nil, apperrors.NotFound(fmt.Sprintf("trolley %s not found", req.TrolleyRef))
		}
		return nil, apperrors.Internal("failed to resolve trolley", err)
	}

	identifierType := assignment.IdentifierType(req.IdentifierType)

	var cardNumber *string
	if identifierType == assignment.IdentifierCard {
		account, err := s.ledger.Validate(ctx, req.CustomerIdentifier)
		if err != nil {
			if errors.Is(err, loyalty.ErrAccountNotFound) {
				return nil, apperrors.NotFound(fmt.Sprintf("loyalty account %s not found", req.CustomerIdentifier))
			}
			return nil, apperrors.Internal("failed to validate loyalty account", err)
		}
		if !account.Active {
			// The caller presents the account's stored reason verbatim.
			reason := "loyalty account is blocked"
			if account.BlockReason != nil && *account.BlockReason != "" {
				reason = *account.BlockReason
			}
			return nil, apperrors.InvalidState(reason)
		}
		cardNumber = &account.CardNumber
	}

	now := s.now()
	a := &assignment.Assignment{
		TrolleyID:          t.ID,
		StoreID:            req.StoreID,
		CustomerIdentifier: req.CustomerIdentifier,
		IdentifierType:     identifierType,
		LoyaltyCardNumber:  cardNumber,
		CheckedOutAt:       now,
		ExpectedReturnAt:   now.Add(assignment.GracePeriod),
		Status:             assignment.StatusCheckedOut,
		CheckoutLat:        t.CurrentLat,
		CheckoutLon:        t.CurrentLon,
	}

	if err := s.assignments.CreateActive(ctx, a); err != nil {
		if errors.Is(err, assignment.ErrTrolleyCheckedOut) {
			return nil, apperrors.Conflict(fmt.Sprintf("trolley %s is already checked out", t.HardwareUID))
		}
		return nil, apperrors.Internal("failed to create assignment", err)
	}

	s.log.Info("trolley checked out",
		zap.String("trolley_id", t.ID.String()),
		zap.String("hardware_uid", t.HardwareUID),
		zap.String("identifier_type", req.IdentifierType),
		zap.Time("expected_return", a.ExpectedReturnAt),
		zap.String("event", "trolley_checked_out"),
	)

	return a, nil
}

// Return closes the active assignment for the trolley and exact customer
// identifier, awarding points through the loyalty ledger when a card is
// linked.
func (s *Service) Return(ctx context.Context, req *ReturnRequest) (*ReturnResponse, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, apperrors.Validation("invalid return request", err)
	}

	t, err := s.trolleys.GetByRef(ctx, req.TrolleyRef)
	if err != nil {
		if errors.Is(err, trolley.ErrTrolleyNotFound) {
			return nil, apperrors.NotFound(fmt.Sprintf("trolley %s not found", req.TrolleyRef))
		}
		return nil, apperrors.Internal("failed to resolve trolley", err)
	}

	// A return by a different identifier than the one that checked out is
	// rejected: the lookup matches trolley AND identifier.
	a, err := s.assignments.FindActive(ctx, t.ID, req.CustomerIdentifier)
	if err != nil {
		if errors.Is(err, assignment.ErrAssignmentNotFound) {
			return nil, apperrors.NotFound(
				fmt.Sprintf("no active assignment for trolley %s and this customer", t.HardwareUID))
		}
		return nil, apperrors.Internal("failed to find assignment", err)
	}

	now := s.now()
	duration := int(now.Sub(a.CheckedOutAt).Minutes())
	onTime := !now.After(a.ExpectedReturnAt)

	var breakdown *rewards.PointsBreakdown
	awarded := 0
	if a.LoyaltyCardNumber != nil {
		b, err := s.award(ctx, *a.LoyaltyCardNumber, duration, onTime)
		if err != nil {
			// The return itself still completes; the ledger fault is logged.
			s.log.Error("reward allocation failed",
				zap.String("card_number", *a.LoyaltyCardNumber),
				zap.Error(err),
			)
		} else {
			breakdown = b
			awarded = b.Total
		}
	}

	if err := s.assignments.MarkReturned(ctx, a.ID, now, duration, awarded); err != nil {
		if errors.Is(err, assignment.ErrAssignmentNotFound) {
			return nil, apperrors.Conflict("assignment was already closed")
		}
		return nil, apperrors.Internal("failed to mark assignment returned", err)
	}

	a.Status = assignment.StatusReturned
	a.ReturnedAt = &now
	a.DurationMinutes = &duration
	a.AwardedPoints = awarded

	s.log.Info("trolley returned",
		zap.String("trolley_id", t.ID.String()),
		zap.Int("duration_minutes", duration),
		zap.Bool("on_time", onTime),
		zap.Int("points_awarded", awarded),
		zap.String("event", "trolley_returned"),
	)

	return &ReturnResponse{
		Assignment:      a,
		DurationMinutes: duration,
		OnTime:          onTime,
		Rewards:         breakdown,
	}, nil
}

func (s *Service) award(ctx context.Context, cardNumber string, durationMinutes int, onTime bool) (*rewards.PointsBreakdown, error) {
	account, err := s.ledger.Validate(ctx, cardNumber)
	if err != nil {
		return nil, err
	}

	breakdown := rewards.CalculatePoints(rewards.PointsInput{
		DurationMinutes:    durationMinutes,
		Tier:               account.Tier,
		ConsecutiveReturns: account.ConsecutiveReturns,
		OnTime:             onTime,
	})

	switch {
	case breakdown.Total > 0:
		if err := s.ledger.Allocate(ctx, cardNumber, breakdown.Total, "trolley return"); err != nil {
			return nil, err
		}
	case breakdown.Total < 0:
		if _, err := s.ledger.Deduct(ctx, cardNumber, -breakdown.Total, "late trolley return"); err != nil {
			return nil, err
		}
	}

	streak := 0
	if onTime {
		streak = account.ConsecutiveReturns + 1
	}
	if _, err := s.ledger.UpdateStats(ctx, cardNumber, loyalty.StatsUpdate{
		IncrementReturns: true,
		Streak:           &streak,
	}); err != nil {
		return nil, err
	}

	return &breakdown, nil
}
