package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/doublemoney-pro/doublemoney/internal/domain"
	"github.com/doublemoney-pro/doublemoney/internal/models"
	"github.com/doublemoney-pro/doublemoney/internal/repository"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// InvestmentConfig carries the deposit limits and maturation settings.
type InvestmentConfig struct {
	MinDepositMicros int64
	MaxDepositMicros int64
	Duration         time.Duration
	Multiplier       int64
}

// InvestmentService handles the deposit lifecycle from creation through
// admin confirmation and cancellation.
type InvestmentService struct {
	store     QueryStore
	cfg       InvestmentConfig
	referrals *ReferralService
}

func NewInvestmentService(store QueryStore, cfg InvestmentConfig, referrals *ReferralService) *InvestmentService {
	return &InvestmentService{
		store:     store,
		cfg:       cfg,
		referrals: referrals,
	}
}

// DepositRequest holds the parameters for opening an investment.
type DepositRequest struct {
	UserID           uuid.UUID
	AmountMicros     int64
	Currency         string
	WithdrawalWallet string
}

// Deposit validates the request, assigns a platform wallet by currency
// rotation and records a pending investment. The caller transfers funds to
// the assigned wallet address off-platform.
func (s *InvestmentService) Deposit(ctx context.Context, req DepositRequest) (*models.Investment, *models.Wallet, error) {
	if req.AmountMicros < s.cfg.MinDepositMicros || req.AmountMicros > s.cfg.MaxDepositMicros {
		return nil, nil, fmt.Errorf("%w: %s not in [%s, %s]", ErrAmountOutOfRange,
			domain.NewMoney(req.AmountMicros), domain.NewMoney(s.cfg.MinDepositMicros), domain.NewMoney(s.cfg.MaxDepositMicros))
	}
	currency := strings.ToUpper(strings.TrimSpace(req.Currency))
	network := domain.NetworkForCurrency(currency)
	if network == "" {
		return nil, nil, fmt.Errorf("%w: %s", ErrUnsupportedCurrency, req.Currency)
	}
	if strings.TrimSpace(req.WithdrawalWallet) == "" {
		return nil, nil, errors.New("withdrawal_wallet is required")
	}

	wallet, err := s.store.Queries().GetActiveWallet(ctx, currency, network)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil, fmt.Errorf("%w: %s/%s", ErrWalletNotFound, currency, network)
		}
		return nil, nil, fmt.Errorf("get active wallet: %w", err)
	}

	investment := &models.Investment{
		ID:           uuid.New(),
		UserID:       req.UserID,
		WalletID:     wallet.ID,
		AmountMicros: req.AmountMicros,
		Status:       domain.InvestmentStatusPending,
	}
	err = s.store.RunInTx(ctx, func(qtx *repository.Queries) error {
		rows, err := qtx.UpdateWithdrawalWallet(ctx, req.UserID, strings.TrimSpace(req.WithdrawalWallet))
		if err != nil {
			return fmt.Errorf("save withdrawal wallet: %w", err)
		}
		if rows == 0 {
			return ErrUserNotFound
		}
		if err := qtx.CreateInvestment(ctx, investment); err != nil {
			return fmt.Errorf("create investment: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return investment, wallet, nil
}

// MarkUserConfirmed records that the user reports the transfer sent,
// optionally with the on-chain transaction hash. Legal only while the
// investment is pending and not yet marked; the only transition a user can
// trigger. Runs under a row lock so a concurrent admin cancellation is
// reported as a rejected transition rather than a silent success.
func (s *InvestmentService) MarkUserConfirmed(ctx context.Context, userID, investmentID uuid.UUID, transactionHash string) error {
	var txHash *string
	if trimmed := strings.TrimSpace(transactionHash); trimmed != "" {
		txHash = &trimmed
	}
	return s.store.RunInTx(ctx, func(qtx *repository.Queries) error {
		investment, err := qtx.GetInvestmentForUpdate(ctx, investmentID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrInvestmentNotFound
			}
			return fmt.Errorf("lock investment: %w", err)
		}
		if investment.UserID != userID {
			return ErrInvestmentNotFound
		}
		if investment.Status != domain.InvestmentStatusPending || investment.UserConfirmed {
			return invalidTransition("investment", investment.Status, "user_confirmed")
		}
		rows, err := qtx.MarkUserConfirmed(ctx, investmentID, txHash)
		if err != nil {
			return fmt.Errorf("mark user confirmed: %w", err)
		}
		return requireExactlyOne(rows, "mark user confirmed")
	})
}

// Confirm activates a pending investment after the admin verified the
// on-chain transfer. Sets the maturation window and flips the owner's
// active-investment flag, which feeds the referrer's tier.
func (s *InvestmentService) Confirm(ctx context.Context, investmentID uuid.UUID) (*models.Investment, error) {
	var confirmed *models.Investment
	err := s.store.RunInTx(ctx, func(qtx *repository.Queries) error {
		investment, err := qtx.GetInvestmentForUpdate(ctx, investmentID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrInvestmentNotFound
			}
			return fmt.Errorf("lock investment: %w", err)
		}
		if !canTransition(investmentTransitions, investment.Status, domain.InvestmentStatusConfirmed) {
			return invalidTransition("investment", investment.Status, domain.InvestmentStatusConfirmed)
		}
		if !investment.UserConfirmed {
			return ErrNotUserConfirmed
		}

		start := time.Now()
		completion := start.Add(s.cfg.Duration)
		rows, err := qtx.ConfirmInvestment(ctx, investmentID, start, completion)
		if err != nil {
			return fmt.Errorf("confirm investment: %w", err)
		}
		if err := requireExactlyOne(rows, "confirm investment"); err != nil {
			return err
		}

		rows, err = qtx.SetHasActiveInvestment(ctx, investment.UserID, true)
		if err != nil {
			return fmt.Errorf("set active investment flag: %w", err)
		}
		if err := requireExactlyOne(rows, "set active investment flag"); err != nil {
			return err
		}

		investment.Status = domain.InvestmentStatusConfirmed
		investment.StartDate = &start
		investment.CompletionDate = &completion
		confirmed = investment
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.invalidateReferralStatus(ctx, confirmed.UserID)
	return confirmed, nil
}

// Cancel voids a pending or confirmed investment.
func (s *InvestmentService) Cancel(ctx context.Context, investmentID uuid.UUID) (*models.Investment, error) {
	var cancelled *models.Investment
	err := s.store.RunInTx(ctx, func(qtx *repository.Queries) error {
		investment, err := qtx.GetInvestmentForUpdate(ctx, investmentID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrInvestmentNotFound
			}
			return fmt.Errorf("lock investment: %w", err)
		}
		if !canTransition(investmentTransitions, investment.Status, domain.InvestmentStatusCancelled) {
			return invalidTransition("investment", investment.Status, domain.InvestmentStatusCancelled)
		}
		rows, err := qtx.CancelInvestment(ctx, investmentID)
		if err != nil {
			return fmt.Errorf("cancel investment: %w", err)
		}
		if err := requireExactlyOne(rows, "cancel investment"); err != nil {
			return err
		}
		investment.Status = domain.InvestmentStatusCancelled
		cancelled = investment
		return nil
	})
	if err != nil {
		return nil, err
	}
	return cancelled, nil
}

// TimeBreakdown is a countdown split for display.
type TimeBreakdown struct {
	Days    int `json:"days"`
	Hours   int `json:"hours"`
	Minutes int `json:"minutes"`
	Seconds int `json:"seconds"`
}

// InvestmentStatus is the per-investment progress view.
type InvestmentStatus struct {
	ID            uuid.UUID      `json:"id"`
	Status        string         `json:"status"`
	IsCompleted   bool           `json:"is_completed"`
	Amount        string         `json:"amount"`
	FinalAmount   *string        `json:"final_amount,omitempty"`
	TimeRemaining *TimeBreakdown `json:"time_remaining,omitempty"`
}

// Status reports an investment's progress toward maturation. The countdown
// is present only while the investment is confirmed and not yet due.
func (s *InvestmentService) Status(ctx context.Context, userID, investmentID uuid.UUID) (*InvestmentStatus, error) {
	investment, err := s.getForUser(ctx, investmentID, userID)
	if err != nil {
		return nil, err
	}

	status := &InvestmentStatus{
		ID:          investment.ID,
		Status:      investment.Status,
		IsCompleted: investment.IsCompleted,
		Amount:      domain.NewMoney(investment.AmountMicros).String(),
	}
	if investment.FinalAmountMicros != nil {
		final := domain.NewMoney(*investment.FinalAmountMicros).String()
		status.FinalAmount = &final
	}
	if remaining := investment.TimeRemaining(time.Now()); remaining > 0 {
		status.TimeRemaining = breakdownDuration(remaining)
	}
	return status, nil
}

func breakdownDuration(d time.Duration) *TimeBreakdown {
	total := int(d.Seconds())
	return &TimeBreakdown{
		Days:    total / 86400,
		Hours:   (total % 86400) / 3600,
		Minutes: (total % 3600) / 60,
		Seconds: total % 60,
	}
}

// ListByUser returns all investments owned by a user, newest first.
func (s *InvestmentService) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Investment, error) {
	investments, err := s.store.Queries().ListInvestmentsByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list investments: %w", err)
	}
	return investments, nil
}

// List returns a paginated investment listing with an optional status filter.
func (s *InvestmentService) List(ctx context.Context, status string, limit, offset int32) ([]models.Investment, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	investments, err := s.store.Queries().ListInvestments(ctx, normalizeState(status), limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list investments: %w", err)
	}
	return investments, nil
}

// DepositWallet returns the platform wallet assigned to an investment.
func (s *InvestmentService) DepositWallet(ctx context.Context, userID, investmentID uuid.UUID) (*models.Wallet, error) {
	investment, err := s.getForUser(ctx, investmentID, userID)
	if err != nil {
		return nil, err
	}
	wallet, err := s.store.Queries().GetWallet(ctx, investment.WalletID)
	if err != nil {
		return nil, fmt.Errorf("get deposit wallet: %w", err)
	}
	return wallet, nil
}

func (s *InvestmentService) getForUser(ctx context.Context, investmentID, userID uuid.UUID) (*models.Investment, error) {
	investment, err := s.store.Queries().GetInvestmentForUser(ctx, investmentID, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrInvestmentNotFound
		}
		return nil, fmt.Errorf("get investment: %w", err)
	}
	return investment, nil
}

// invalidateReferralStatus drops cached referral status for the investor and
// their referrer after a confirmation changed the active-referral count.
func (s *InvestmentService) invalidateReferralStatus(ctx context.Context, userID uuid.UUID) {
	if s.referrals == nil {
		return
	}
	s.referrals.InvalidateStatus(ctx, userID)
	user, err := s.store.Queries().GetUser(ctx, userID)
	if err == nil && user.ReferredBy != nil {
		s.referrals.InvalidateStatus(ctx, *user.ReferredBy)
	}
}
