package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/doublemoney-pro/doublemoney/internal/domain"
	"github.com/doublemoney-pro/doublemoney/internal/models"
	"github.com/doublemoney-pro/doublemoney/internal/observability"
	"github.com/doublemoney-pro/doublemoney/internal/repository"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

// MaturationConfig carries the payout and commission settings of the scanner.
type MaturationConfig struct {
	Multiplier  int64
	PayoutDelay time.Duration
	BatchSize   int32
}

// MaturationService completes investments whose maturation window has
// elapsed and emits the referral commission for each.
type MaturationService struct {
	store QueryStore
	cfg   MaturationConfig
}

func NewMaturationService(store QueryStore, cfg MaturationConfig) *MaturationService {
	return &MaturationService{store: store, cfg: cfg}
}

// RunPass processes one batch of due investments. Each investment is matured
// in its own transaction so a failure affects only that row; the failed row
// is retried naturally on the next pass because the guarded update never ran.
func (s *MaturationService) RunPass(ctx context.Context) error {
	now := time.Now()
	due, err := s.store.Queries().GetDueInvestments(ctx, now, s.cfg.BatchSize)
	if err != nil {
		return fmt.Errorf("get due investments: %w", err)
	}

	var failures int
	for _, investment := range due {
		if err := s.matureOne(ctx, investment, now); err != nil {
			failures++
			zap.L().Error("failed to mature investment",
				zap.String("investment_id", investment.ID.String()),
				zap.Error(err))
		}
	}

	if pending, err := s.store.Queries().CountEarnings(ctx, domain.EarningStatusPending); err == nil {
		observability.SetPendingApprovalQueueSize(pending)
	}

	if failures > 0 {
		return fmt.Errorf("maturation pass: %d of %d investments failed", failures, len(due))
	}
	return nil
}

// matureOne doubles a single due investment and emits the referral earning.
// The guarded update makes the whole operation idempotent: a concurrent or
// repeated pass finds zero rows and walks away without a commission.
func (s *MaturationService) matureOne(ctx context.Context, investment models.Investment, now time.Time) error {
	if investment.CompletionDate == nil {
		// Confirmed investments always carry a completion date; a missing one
		// means corrupt data and must never mature.
		zap.L().Error("confirmed investment has no completion date",
			zap.String("investment_id", investment.ID.String()))
		return nil
	}

	principal := domain.NewMoney(investment.AmountMicros)
	final := principal.MultiplyInt(s.cfg.Multiplier)

	return s.store.RunInTx(ctx, func(qtx *repository.Queries) error {
		rows, err := qtx.CompleteInvestment(ctx, investment.ID, final.Amount)
		if err != nil {
			return fmt.Errorf("complete investment: %w", err)
		}
		if rows == 0 {
			// Another pass got here first.
			return nil
		}

		observability.IncrementInvestmentMatured()
		zap.L().Info("investment matured",
			zap.String("investment_id", investment.ID.String()),
			zap.String("user_id", investment.UserID.String()),
			zap.String("amount", principal.String()),
			zap.String("final_amount", final.String()))

		return s.emitReferralEarning(ctx, qtx, investment, principal, now)
	})
}

// emitReferralEarning pays the investor's referrer their tier commission on
// the matured principal. Tier percentage is read at maturation time, not at
// deposit time.
func (s *MaturationService) emitReferralEarning(ctx context.Context, qtx *repository.Queries, investment models.Investment, principal domain.Money, now time.Time) error {
	owner, err := qtx.GetUser(ctx, investment.UserID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			zap.L().Error("matured investment has no owner",
				zap.String("investment_id", investment.ID.String()))
			return nil
		}
		return fmt.Errorf("get investment owner: %w", err)
	}
	if owner.ReferredBy == nil {
		return nil
	}

	activeCount, err := qtx.CountActiveReferrals(ctx, *owner.ReferredBy)
	if err != nil {
		return fmt.Errorf("count active referrals: %w", err)
	}
	pct := domain.CommissionPercentage(int(activeCount))
	if pct == 0 {
		return nil
	}

	earning := &models.ReferralEarning{
		ID:           uuid.New(),
		UserID:       *owner.ReferredBy,
		FromUserID:   owner.ID,
		InvestmentID: investment.ID,
		AmountMicros: principal.Percent(pct).Amount,
		Percentage:   pct,
		Status:       domain.EarningStatusPending,
		PayoutDate:   now.Add(s.cfg.PayoutDelay),
	}
	if err := qtx.CreateReferralEarning(ctx, earning); err != nil {
		return fmt.Errorf("create referral earning: %w", err)
	}

	observability.IncrementEarningEmitted(pct)
	zap.L().Info("referral earning emitted",
		zap.String("earning_id", earning.ID.String()),
		zap.String("referrer_id", earning.UserID.String()),
		zap.String("investment_id", investment.ID.String()),
		zap.Int("percentage", pct),
		zap.String("amount", domain.NewMoney(earning.AmountMicros).String()))
	return nil
}
