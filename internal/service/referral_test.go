package service

import (
	"context"
	"testing"
	"time"

	"github.com/doublemoney-pro/doublemoney/internal/domain"
	"github.com/doublemoney-pro/doublemoney/internal/models"
	"github.com/doublemoney-pro/doublemoney/internal/repository"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTestEarning(t *testing.T, pool *pgxpool.Pool, referrerID, investorID, investmentID uuid.UUID, payoutDate time.Time) *models.ReferralEarning {
	t.Helper()
	earning := &models.ReferralEarning{
		ID:           uuid.New(),
		UserID:       referrerID,
		FromUserID:   investorID,
		InvestmentID: investmentID,
		AmountMicros: 40_000_000,
		Percentage:   8,
		Status:       domain.EarningStatusPending,
		PayoutDate:   payoutDate,
	}
	require.NoError(t, repository.New(pool).CreateReferralEarning(context.Background(), earning))
	return earning
}

func TestApproveEarningBeforePayoutDate(t *testing.T) {
	pool := setupTestDB(t)
	store := repository.NewStore(pool)
	svc := NewReferralService(store, nil, 0, "https://doublemoney.pro")

	referrer := createTestUser(t, pool, "600", nil, false)
	investor := createTestUser(t, pool, "601", &referrer.ID, true)
	wallet := createTestWallet(t, pool, domain.CurrencyUSDC)
	investment := createConfirmedInvestment(t, pool, investor.ID, wallet.ID, 500_000_000)
	earning := createTestEarning(t, pool, referrer.ID, investor.ID, investment.ID, time.Now().Add(24*time.Hour))

	_, err := svc.ApproveEarning(context.Background(), earning.ID)
	require.ErrorIs(t, err, ErrPayoutDateNotDue)

	got, lookupErr := store.Queries().GetEarning(context.Background(), earning.ID)
	require.NoError(t, lookupErr)
	assert.Equal(t, domain.EarningStatusPending, got.Status)
}

func TestApproveAndPayEarning(t *testing.T) {
	pool := setupTestDB(t)
	store := repository.NewStore(pool)
	svc := NewReferralService(store, nil, 0, "https://doublemoney.pro")

	referrer := createTestUser(t, pool, "610", nil, false)
	investor := createTestUser(t, pool, "611", &referrer.ID, true)
	wallet := createTestWallet(t, pool, domain.CurrencyUSDC)
	investment := createConfirmedInvestment(t, pool, investor.ID, wallet.ID, 500_000_000)
	earning := createTestEarning(t, pool, referrer.ID, investor.ID, investment.ID, time.Now().Add(-time.Hour))

	// Paying before approval is an invalid transition.
	_, err := svc.PayEarning(context.Background(), earning.ID)
	require.ErrorIs(t, err, ErrInvalidTransition)

	approved, err := svc.ApproveEarning(context.Background(), earning.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.EarningStatusApproved, approved.Status)

	// Approving twice is an invalid transition.
	_, err = svc.ApproveEarning(context.Background(), earning.ID)
	require.ErrorIs(t, err, ErrInvalidTransition)

	paid, err := svc.PayEarning(context.Background(), earning.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.EarningStatusPaid, paid.Status)
	require.NotNil(t, paid.PaidAt)

	// Paid is terminal.
	_, err = svc.PayEarning(context.Background(), earning.ID)
	require.ErrorIs(t, err, ErrInvalidTransition)
}

func TestReferralStatusAggregates(t *testing.T) {
	pool := setupTestDB(t)
	store := repository.NewStore(pool)
	svc := NewReferralService(store, nil, 0, "https://doublemoney.pro")

	referrer := createTestUser(t, pool, "620", nil, false)
	active := createTestUser(t, pool, "621", &referrer.ID, true)
	createTestUser(t, pool, "622", &referrer.ID, false)
	wallet := createTestWallet(t, pool, domain.CurrencyUSDC)
	investment := createConfirmedInvestment(t, pool, active.ID, wallet.ID, 500_000_000)

	pendingEarning := createTestEarning(t, pool, referrer.ID, active.ID, investment.ID, time.Now().Add(-time.Hour))
	_, err := svc.ApproveEarning(context.Background(), pendingEarning.ID)
	require.NoError(t, err)
	_, err = svc.PayEarning(context.Background(), pendingEarning.ID)
	require.NoError(t, err)
	createTestEarning(t, pool, referrer.ID, active.ID, investment.ID, time.Now().Add(24*time.Hour))

	status, err := svc.Status(context.Background(), referrer.ID)
	require.NoError(t, err)
	assert.Equal(t, referrer.ReferralCode, status.ReferralCode)
	assert.Equal(t, "https://doublemoney.pro/register?ref="+referrer.ReferralCode, status.ReferralLink)
	assert.EqualValues(t, 2, status.TotalReferrals)
	assert.EqualValues(t, 1, status.ActiveReferrals)
	assert.Equal(t, "Bronze", status.LevelName)
	assert.Equal(t, 3, status.Percentage)
	assert.Equal(t, 5, status.NextRequired)
	assert.Equal(t, 3, status.NextPercentage)
	assert.Equal(t, 4, status.Remaining)
	assert.False(t, status.IsMaxLevel)
	assert.Equal(t, "40.00", status.PendingEarnings)
	assert.Equal(t, "40.00", status.PaidEarnings)
}

func TestReferralStatusUnknownUser(t *testing.T) {
	pool := setupTestDB(t)
	store := repository.NewStore(pool)
	svc := NewReferralService(store, nil, 0, "https://doublemoney.pro")

	_, err := svc.Status(context.Background(), uuid.New())
	require.ErrorIs(t, err, ErrUserNotFound)
}
