package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/doublemoney-pro/doublemoney/internal/domain"
	"github.com/doublemoney-pro/doublemoney/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// AdminService serves the back-office dashboard and wallet management.
type AdminService struct {
	store QueryStore
}

func NewAdminService(store QueryStore) *AdminService {
	return &AdminService{store: store}
}

// DashboardStats is the platform-wide statistics view.
type DashboardStats struct {
	TotalUsers           int64  `json:"total_users"`
	ActiveUsers          int64  `json:"active_users"`
	TotalInvestments     int64  `json:"total_investments"`
	PendingInvestments   int64  `json:"pending_investments"`
	ConfirmedInvestments int64  `json:"confirmed_investments"`
	CompletedInvestments int64  `json:"completed_investments"`
	TotalInvested        string `json:"total_invested"`
	TotalPaidOut         string `json:"total_paid_out"`
	ActiveWallets        int64  `json:"active_wallets"`
	PendingEarnings      int64  `json:"pending_earnings"`
	ApprovedEarnings     int64  `json:"approved_earnings"`
	PaidEarnings         int64  `json:"paid_earnings"`
}

// Dashboard aggregates the platform statistics.
func (s *AdminService) Dashboard(ctx context.Context) (*DashboardStats, error) {
	queries := s.store.Queries()
	stats := &DashboardStats{}

	var err error
	if stats.TotalUsers, err = queries.CountUsers(ctx, false); err != nil {
		return nil, fmt.Errorf("count users: %w", err)
	}
	if stats.ActiveUsers, err = queries.CountUsers(ctx, true); err != nil {
		return nil, fmt.Errorf("count active users: %w", err)
	}
	if stats.TotalInvestments, err = queries.CountInvestments(ctx); err != nil {
		return nil, fmt.Errorf("count investments: %w", err)
	}
	if stats.PendingInvestments, err = queries.CountInvestmentsByStatus(ctx, domain.InvestmentStatusPending); err != nil {
		return nil, fmt.Errorf("count pending investments: %w", err)
	}
	if stats.ConfirmedInvestments, err = queries.CountInvestmentsByStatus(ctx, domain.InvestmentStatusConfirmed); err != nil {
		return nil, fmt.Errorf("count confirmed investments: %w", err)
	}
	if stats.CompletedInvestments, err = queries.CountCompletedInvestments(ctx); err != nil {
		return nil, fmt.Errorf("count completed investments: %w", err)
	}

	invested, err := queries.SumInvestedMicros(ctx)
	if err != nil {
		return nil, fmt.Errorf("sum invested: %w", err)
	}
	stats.TotalInvested = domain.NewMoney(invested).String()

	paidOut, err := queries.SumPaidOutMicros(ctx)
	if err != nil {
		return nil, fmt.Errorf("sum paid out: %w", err)
	}
	stats.TotalPaidOut = domain.NewMoney(paidOut).String()

	if stats.ActiveWallets, err = queries.CountActiveWallets(ctx); err != nil {
		return nil, fmt.Errorf("count active wallets: %w", err)
	}
	if stats.PendingEarnings, err = queries.CountEarnings(ctx, domain.EarningStatusPending); err != nil {
		return nil, fmt.Errorf("count pending earnings: %w", err)
	}
	if stats.ApprovedEarnings, err = queries.CountEarnings(ctx, domain.EarningStatusApproved); err != nil {
		return nil, fmt.Errorf("count approved earnings: %w", err)
	}
	if stats.PaidEarnings, err = queries.CountEarnings(ctx, domain.EarningStatusPaid); err != nil {
		return nil, fmt.Errorf("count paid earnings: %w", err)
	}
	return stats, nil
}

// UserDetail is the back-office view of one user.
type UserDetail struct {
	User        *models.User        `json:"user"`
	Investments []models.Investment `json:"investments"`
	Referrals   []models.User       `json:"referrals"`
}

// GetUserDetail loads a user together with their investments and referrals.
func (s *AdminService) GetUserDetail(ctx context.Context, userID uuid.UUID) (*UserDetail, error) {
	queries := s.store.Queries()
	user, err := queries.GetUser(ctx, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	investments, err := queries.ListInvestmentsByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list investments: %w", err)
	}
	referrals, err := queries.ListReferrals(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list referrals: %w", err)
	}
	return &UserDetail{User: user, Investments: investments, Referrals: referrals}, nil
}

// AddWalletRequest holds the parameters for registering a platform wallet.
type AddWalletRequest struct {
	Address  string
	Currency string
}

// AddWallet registers a platform deposit wallet. The network follows from
// the currency.
func (s *AdminService) AddWallet(ctx context.Context, req AddWalletRequest) (*models.Wallet, error) {
	address := strings.TrimSpace(req.Address)
	if address == "" {
		return nil, errors.New("address is required")
	}
	currency := strings.ToUpper(strings.TrimSpace(req.Currency))
	network := domain.NetworkForCurrency(currency)
	if network == "" {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedCurrency, req.Currency)
	}
	wallet := &models.Wallet{
		ID:       uuid.New(),
		Address:  address,
		Currency: currency,
		Network:  network,
		IsActive: true,
	}
	if err := s.store.Queries().CreateWallet(ctx, wallet); err != nil {
		return nil, fmt.Errorf("create wallet: %w", err)
	}
	return wallet, nil
}

// ListWallets returns all platform wallets.
func (s *AdminService) ListWallets(ctx context.Context) ([]models.Wallet, error) {
	wallets, err := s.store.Queries().ListWallets(ctx)
	if err != nil {
		return nil, fmt.Errorf("list wallets: %w", err)
	}
	return wallets, nil
}

// ToggleWalletActive flips a wallet's active flag and returns the new value.
// Inactive wallets drop out of the deposit rotation; existing investments
// keep their assignment.
func (s *AdminService) ToggleWalletActive(ctx context.Context, walletID uuid.UUID) (bool, error) {
	wallet, err := s.store.Queries().GetWallet(ctx, walletID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, ErrWalletNotFound
		}
		return false, fmt.Errorf("get wallet: %w", err)
	}
	rows, err := s.store.Queries().SetWalletActive(ctx, walletID, !wallet.IsActive)
	if err != nil {
		return false, fmt.Errorf("toggle wallet active: %w", err)
	}
	if err := requireExactlyOne(rows, "toggle wallet active"); err != nil {
		return false, err
	}
	return !wallet.IsActive, nil
}
