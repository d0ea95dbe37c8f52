package service

import (
	"context"
	"testing"
	"time"

	"github.com/doublemoney-pro/doublemoney/internal/domain"
	"github.com/doublemoney-pro/doublemoney/internal/repository"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newInvestmentService(pool *pgxpool.Pool) *InvestmentService {
	return NewInvestmentService(repository.NewStore(pool), InvestmentConfig{
		MinDepositMicros: 100_000_000,
		MaxDepositMicros: 1_000_000_000_000,
		Duration:         7 * 24 * time.Hour,
		Multiplier:       2,
	}, nil)
}

func TestDepositValidation(t *testing.T) {
	pool := setupTestDB(t)
	svc := newInvestmentService(pool)
	user := createTestUser(t, pool, "700", nil, false)

	_, _, err := svc.Deposit(context.Background(), DepositRequest{
		UserID:           user.ID,
		AmountMicros:     50_000_000,
		Currency:         domain.CurrencyUSDC,
		WithdrawalWallet: "0xabc",
	})
	require.ErrorIs(t, err, ErrAmountOutOfRange)

	_, _, err = svc.Deposit(context.Background(), DepositRequest{
		UserID:           user.ID,
		AmountMicros:     500_000_000,
		Currency:         "DOGE",
		WithdrawalWallet: "0xabc",
	})
	require.ErrorIs(t, err, ErrUnsupportedCurrency)

	_, _, err = svc.Deposit(context.Background(), DepositRequest{
		UserID:           user.ID,
		AmountMicros:     500_000_000,
		Currency:         domain.CurrencyUSDC,
		WithdrawalWallet: "  ",
	})
	require.Error(t, err)

	// No active platform wallet configured for the currency yet.
	_, _, err = svc.Deposit(context.Background(), DepositRequest{
		UserID:           user.ID,
		AmountMicros:     500_000_000,
		Currency:         domain.CurrencyUSDC,
		WithdrawalWallet: "0xabc",
	})
	require.ErrorIs(t, err, ErrWalletNotFound)
}

func TestDepositAssignsOldestActiveWallet(t *testing.T) {
	pool := setupTestDB(t)
	svc := newInvestmentService(pool)
	user := createTestUser(t, pool, "710", nil, false)

	newer := createTestWallet(t, pool, domain.CurrencyUSDC)
	older := createTestWallet(t, pool, domain.CurrencyUSDC)
	inactive := createTestWallet(t, pool, domain.CurrencyUSDC)

	_, err := pool.Exec(context.Background(),
		"UPDATE wallets SET created_at = NOW() - INTERVAL '1 day' WHERE id = $1", older.ID)
	require.NoError(t, err)
	_, err = pool.Exec(context.Background(),
		"UPDATE wallets SET created_at = NOW() - INTERVAL '2 days', is_active = FALSE WHERE id = $1", inactive.ID)
	require.NoError(t, err)

	investment, wallet, err := svc.Deposit(context.Background(), DepositRequest{
		UserID:           user.ID,
		AmountMicros:     500_000_000,
		Currency:         "usdc",
		WithdrawalWallet: " 0xwithdraw ",
	})
	require.NoError(t, err)
	assert.Equal(t, older.ID, wallet.ID)
	assert.NotEqual(t, newer.ID, wallet.ID)
	assert.Equal(t, older.ID, investment.WalletID)
	assert.Equal(t, domain.InvestmentStatusPending, investment.Status)

	stored, err := repository.New(pool).GetUser(context.Background(), user.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.WithdrawalWallet)
	assert.Equal(t, "0xwithdraw", *stored.WithdrawalWallet)
}

func TestDepositUnknownUser(t *testing.T) {
	pool := setupTestDB(t)
	svc := newInvestmentService(pool)
	createTestWallet(t, pool, domain.CurrencyUSDT)

	_, _, err := svc.Deposit(context.Background(), DepositRequest{
		UserID:           uuid.New(),
		AmountMicros:     500_000_000,
		Currency:         domain.CurrencyUSDT,
		WithdrawalWallet: "TWithdraw",
	})
	require.ErrorIs(t, err, ErrUserNotFound)
}

func TestConfirmRequiresUserConfirmation(t *testing.T) {
	pool := setupTestDB(t)
	svc := newInvestmentService(pool)
	user := createTestUser(t, pool, "720", nil, false)
	wallet := createTestWallet(t, pool, domain.CurrencyUSDC)
	investment := createPendingInvestment(t, pool, user.ID, wallet.ID, 500_000_000)

	_, err := svc.Confirm(context.Background(), investment.ID)
	require.ErrorIs(t, err, ErrNotUserConfirmed)

	// Other users cannot report a transfer on this investment.
	stranger := createTestUser(t, pool, "721", nil, false)
	err = svc.MarkUserConfirmed(context.Background(), stranger.ID, investment.ID, "")
	require.ErrorIs(t, err, ErrInvestmentNotFound)

	require.NoError(t, svc.MarkUserConfirmed(context.Background(), user.ID, investment.ID, "0xdeadbeef"))

	// Reporting twice is rejected.
	err = svc.MarkUserConfirmed(context.Background(), user.ID, investment.ID, "0xdeadbeef")
	require.ErrorIs(t, err, ErrInvalidTransition)

	confirmed, err := svc.Confirm(context.Background(), investment.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.InvestmentStatusConfirmed, confirmed.Status)
	require.NotNil(t, confirmed.TransactionHash)
	assert.Equal(t, "0xdeadbeef", *confirmed.TransactionHash)
	require.NotNil(t, confirmed.StartDate)
	require.NotNil(t, confirmed.CompletionDate)
	assert.WithinDuration(t, confirmed.StartDate.Add(7*24*time.Hour), *confirmed.CompletionDate, time.Second)

	owner, err := repository.New(pool).GetUser(context.Background(), user.ID)
	require.NoError(t, err)
	assert.True(t, owner.HasActiveInvestment)

	// Reconfirming an already confirmed investment is rejected.
	_, err = svc.Confirm(context.Background(), investment.ID)
	require.ErrorIs(t, err, ErrInvalidTransition)
}

func TestCancelIsTerminal(t *testing.T) {
	pool := setupTestDB(t)
	svc := newInvestmentService(pool)
	user := createTestUser(t, pool, "730", nil, false)
	wallet := createTestWallet(t, pool, domain.CurrencyUSDC)
	investment := createPendingInvestment(t, pool, user.ID, wallet.ID, 500_000_000)

	cancelled, err := svc.Cancel(context.Background(), investment.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.InvestmentStatusCancelled, cancelled.Status)

	_, err = svc.Cancel(context.Background(), investment.ID)
	require.ErrorIs(t, err, ErrInvalidTransition)
	_, err = svc.Confirm(context.Background(), investment.ID)
	require.ErrorIs(t, err, ErrInvalidTransition)
	err = svc.MarkUserConfirmed(context.Background(), user.ID, investment.ID, "")
	require.ErrorIs(t, err, ErrInvalidTransition)
}

func TestStatusCountdown(t *testing.T) {
	pool := setupTestDB(t)
	svc := newInvestmentService(pool)
	user := createTestUser(t, pool, "740", nil, false)
	wallet := createTestWallet(t, pool, domain.CurrencyUSDC)
	investment := createPendingInvestment(t, pool, user.ID, wallet.ID, 500_000_000)

	require.NoError(t, svc.MarkUserConfirmed(context.Background(), user.ID, investment.ID, ""))
	_, err := svc.Confirm(context.Background(), investment.ID)
	require.NoError(t, err)

	status, err := svc.Status(context.Background(), user.ID, investment.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.InvestmentStatusConfirmed, status.Status)
	assert.Equal(t, "500.00", status.Amount)
	require.NotNil(t, status.TimeRemaining)
	assert.Equal(t, 6, status.TimeRemaining.Days)

	// Other users cannot see the investment at all.
	stranger := createTestUser(t, pool, "741", nil, false)
	_, err = svc.Status(context.Background(), stranger.ID, investment.ID)
	require.ErrorIs(t, err, ErrInvestmentNotFound)
}
