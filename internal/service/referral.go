package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/doublemoney-pro/doublemoney/internal/domain"
	"github.com/doublemoney-pro/doublemoney/internal/models"
	"github.com/doublemoney-pro/doublemoney/internal/repository"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const referralStatusKeyPrefix = "referral_status"

// ReferralService serves the referral program view and administers earning
// payouts.
type ReferralService struct {
	store    QueryStore
	redis    redis.Cmdable
	cacheTTL time.Duration
	linkBase string
}

func NewReferralService(store QueryStore, rdb redis.Cmdable, cacheTTL time.Duration, linkBase string) *ReferralService {
	return &ReferralService{
		store:    store,
		redis:    rdb,
		cacheTTL: cacheTTL,
		linkBase: linkBase,
	}
}

// ReferralStatus is the full referral program view for one user.
type ReferralStatus struct {
	ReferralCode    string  `json:"referral_code"`
	ReferralLink    string  `json:"referral_link"`
	TotalReferrals  int64   `json:"total_referrals"`
	ActiveReferrals int64   `json:"active_referrals"`
	Level           int     `json:"level"`
	LevelName       string  `json:"level_name"`
	Benefit         string  `json:"benefit"`
	Percentage      int     `json:"percentage"`
	NextRequired    int     `json:"next_required,omitempty"`
	NextPercentage  int     `json:"next_percentage"`
	Progress        float64 `json:"progress"`
	Remaining       int     `json:"remaining,omitempty"`
	IsMaxLevel      bool    `json:"is_max_level"`
	PendingEarnings string  `json:"pending_earnings"`
	PaidEarnings    string  `json:"paid_earnings"`
}

// Status returns the referral program view, cached for a short TTL. The
// cache is dropped whenever an investment confirmation changes the counts.
func (s *ReferralService) Status(ctx context.Context, userID uuid.UUID) (*ReferralStatus, error) {
	if cached := s.lookupCached(ctx, userID); cached != nil {
		return cached, nil
	}

	queries := s.store.Queries()
	user, err := queries.GetUser(ctx, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	total, err := queries.CountReferrals(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("count referrals: %w", err)
	}
	active, err := queries.CountActiveReferrals(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("count active referrals: %w", err)
	}
	pendingMicros, err := queries.SumEarningsByUserAndStatus(ctx, userID, domain.EarningStatusPending)
	if err != nil {
		return nil, fmt.Errorf("sum pending earnings: %w", err)
	}
	paidMicros, err := queries.SumEarningsByUserAndStatus(ctx, userID, domain.EarningStatusPaid)
	if err != nil {
		return nil, fmt.Errorf("sum paid earnings: %w", err)
	}

	progress := domain.ProgressFor(int(active))
	status := &ReferralStatus{
		ReferralCode:    user.ReferralCode,
		ReferralLink:    fmt.Sprintf("%s/register?ref=%s", s.linkBase, user.ReferralCode),
		TotalReferrals:  total,
		ActiveReferrals: active,
		Level:           int(progress.Tier),
		LevelName:       progress.Tier.Name(),
		Benefit:         progress.Tier.Benefit(),
		Percentage:      progress.Percentage,
		NextRequired:    progress.NextRequired,
		NextPercentage:  progress.NextPercentage,
		Progress:        progress.ProgressPercentage,
		Remaining:       progress.Remaining,
		IsMaxLevel:      progress.IsMaxTier,
		PendingEarnings: domain.NewMoney(pendingMicros).String(),
		PaidEarnings:    domain.NewMoney(paidMicros).String(),
	}
	s.cache(ctx, userID, status)
	return status, nil
}

func (s *ReferralService) lookupCached(ctx context.Context, userID uuid.UUID) *ReferralStatus {
	if s.redis == nil {
		return nil
	}
	val, err := s.redis.Get(ctx, referralStatusKey(userID)).Result()
	if err != nil {
		if err != redis.Nil {
			zap.L().Warn("redis referral status lookup failed", zap.Error(err))
		}
		return nil
	}
	var status ReferralStatus
	if json.Unmarshal([]byte(val), &status) != nil {
		return nil
	}
	return &status
}

func (s *ReferralService) cache(ctx context.Context, userID uuid.UUID, status *ReferralStatus) {
	if s.redis == nil || s.cacheTTL <= 0 {
		return
	}
	payload, err := json.Marshal(status)
	if err != nil {
		return
	}
	if err := s.redis.Set(ctx, referralStatusKey(userID), payload, s.cacheTTL).Err(); err != nil {
		zap.L().Warn("redis referral status cache failed", zap.Error(err))
	}
}

// InvalidateStatus drops the cached status for a user. Safe without redis.
func (s *ReferralService) InvalidateStatus(ctx context.Context, userID uuid.UUID) {
	if s.redis == nil {
		return
	}
	if err := s.redis.Del(ctx, referralStatusKey(userID)).Err(); err != nil {
		zap.L().Warn("redis referral status invalidation failed", zap.Error(err))
	}
}

func referralStatusKey(userID uuid.UUID) string {
	return fmt.Sprintf("%s:%s", referralStatusKeyPrefix, userID)
}

// ListEarningsForUser returns a user's referral earnings, newest first.
func (s *ReferralService) ListEarningsForUser(ctx context.Context, userID uuid.UUID) ([]models.ReferralEarning, error) {
	earnings, err := s.store.Queries().ListEarningsByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list earnings: %w", err)
	}
	return earnings, nil
}

// ListEarnings returns a paginated earning listing with an optional status
// filter. Admin view.
func (s *ReferralService) ListEarnings(ctx context.Context, status string, limit, offset int32) ([]models.ReferralEarning, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	earnings, err := s.store.Queries().ListEarnings(ctx, normalizeState(status), limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list earnings: %w", err)
	}
	return earnings, nil
}

// ApproveEarning moves a pending earning to approved once its payout date
// has arrived.
func (s *ReferralService) ApproveEarning(ctx context.Context, earningID uuid.UUID) (*models.ReferralEarning, error) {
	var approved *models.ReferralEarning
	err := s.store.RunInTx(ctx, func(qtx *repository.Queries) error {
		earning, err := qtx.GetEarningForUpdate(ctx, earningID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrEarningNotFound
			}
			return fmt.Errorf("lock earning: %w", err)
		}
		if !canTransition(earningTransitions, earning.Status, domain.EarningStatusApproved) {
			return invalidTransition("earning", earning.Status, domain.EarningStatusApproved)
		}
		if time.Now().Before(earning.PayoutDate) {
			return fmt.Errorf("%w: due %s", ErrPayoutDateNotDue, earning.PayoutDate.Format(time.RFC3339))
		}
		rows, err := qtx.ApproveEarning(ctx, earningID)
		if err != nil {
			return fmt.Errorf("approve earning: %w", err)
		}
		if err := requireExactlyOne(rows, "approve earning"); err != nil {
			return err
		}
		earning.Status = domain.EarningStatusApproved
		approved = earning
		return nil
	})
	if err != nil {
		return nil, err
	}
	return approved, nil
}

// PayEarning marks an approved earning as paid out.
func (s *ReferralService) PayEarning(ctx context.Context, earningID uuid.UUID) (*models.ReferralEarning, error) {
	var paid *models.ReferralEarning
	err := s.store.RunInTx(ctx, func(qtx *repository.Queries) error {
		earning, err := qtx.GetEarningForUpdate(ctx, earningID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrEarningNotFound
			}
			return fmt.Errorf("lock earning: %w", err)
		}
		if !canTransition(earningTransitions, earning.Status, domain.EarningStatusPaid) {
			return invalidTransition("earning", earning.Status, domain.EarningStatusPaid)
		}
		paidAt := time.Now()
		rows, err := qtx.MarkEarningPaid(ctx, earningID, paidAt)
		if err != nil {
			return fmt.Errorf("mark earning paid: %w", err)
		}
		if err := requireExactlyOne(rows, "mark earning paid"); err != nil {
			return err
		}
		earning.Status = domain.EarningStatusPaid
		earning.PaidAt = &paidAt
		paid = earning
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.InvalidateStatus(ctx, paid.UserID)
	return paid, nil
}
