package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/doublemoney-pro/doublemoney/internal/domain"
	"github.com/doublemoney-pro/doublemoney/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMaturationService(store QueryStore) *MaturationService {
	return NewMaturationService(store, MaturationConfig{
		Multiplier:  2,
		PayoutDelay: 240 * time.Hour,
		BatchSize:   100,
	})
}

func TestMaturationDoublesInvestmentWithoutReferrer(t *testing.T) {
	pool := setupTestDB(t)
	store := repository.NewStore(pool)
	svc := newMaturationService(store)

	user := createTestUser(t, pool, "100", nil, false)
	wallet := createTestWallet(t, pool, domain.CurrencyUSDC)
	investment := createConfirmedInvestment(t, pool, user.ID, wallet.ID, 500_000_000)

	require.NoError(t, svc.RunPass(context.Background()))

	got, err := store.Queries().GetInvestment(context.Background(), investment.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.InvestmentStatusCompleted, got.Status)
	assert.True(t, got.IsCompleted)
	require.NotNil(t, got.FinalAmountMicros)
	assert.EqualValues(t, 1_000_000_000, *got.FinalAmountMicros)

	earnings, err := store.Queries().ListEarningsByInvestment(context.Background(), investment.ID)
	require.NoError(t, err)
	assert.Empty(t, earnings)

	// Completed is terminal; the admin can no longer cancel it.
	_, err = newInvestmentService(pool).Cancel(context.Background(), investment.ID)
	require.ErrorIs(t, err, ErrInvalidTransition)
}

func TestMaturationEmitsTieredEarning(t *testing.T) {
	pool := setupTestDB(t)
	store := repository.NewStore(pool)
	svc := newMaturationService(store)

	referrer := createTestUser(t, pool, "200", nil, false)
	// Five active referrals put the referrer in the 8% band.
	for i := 0; i < 5; i++ {
		createTestUser(t, pool, fmt.Sprintf("20%d", i+1), &referrer.ID, true)
	}
	investor := createTestUser(t, pool, "299", &referrer.ID, true)
	wallet := createTestWallet(t, pool, domain.CurrencyUSDT)
	investment := createConfirmedInvestment(t, pool, investor.ID, wallet.ID, 1_000_000_000)

	before := time.Now()
	require.NoError(t, svc.RunPass(context.Background()))

	earnings, err := store.Queries().ListEarningsByInvestment(context.Background(), investment.ID)
	require.NoError(t, err)
	require.Len(t, earnings, 1)

	earning := earnings[0]
	assert.Equal(t, referrer.ID, earning.UserID)
	assert.Equal(t, investor.ID, earning.FromUserID)
	// Investor counts as an active referral too: 6 total, still the 8% band.
	assert.Equal(t, 8, earning.Percentage)
	assert.EqualValues(t, 80_000_000, earning.AmountMicros)
	assert.Equal(t, domain.EarningStatusPending, earning.Status)
	assert.WithinDuration(t, before.Add(240*time.Hour), earning.PayoutDate, time.Minute)
	assert.Nil(t, earning.PaidAt)
}

func TestMaturationStarterReferrerEarnsNothing(t *testing.T) {
	pool := setupTestDB(t)
	store := repository.NewStore(pool)
	svc := newMaturationService(store)

	referrer := createTestUser(t, pool, "300", nil, false)
	// Sole referral is the investor, whose own flag is not set: count 0.
	investor := createTestUser(t, pool, "301", &referrer.ID, false)
	wallet := createTestWallet(t, pool, domain.CurrencyUSDC)
	investment := createConfirmedInvestment(t, pool, investor.ID, wallet.ID, 500_000_000)

	require.NoError(t, svc.RunPass(context.Background()))

	got, err := store.Queries().GetInvestment(context.Background(), investment.ID)
	require.NoError(t, err)
	assert.True(t, got.IsCompleted)

	earnings, err := store.Queries().ListEarningsByInvestment(context.Background(), investment.ID)
	require.NoError(t, err)
	assert.Empty(t, earnings)
}

func TestMaturationIdempotentAcrossPasses(t *testing.T) {
	pool := setupTestDB(t)
	store := repository.NewStore(pool)
	svc := newMaturationService(store)

	referrer := createTestUser(t, pool, "400", nil, false)
	investor := createTestUser(t, pool, "401", &referrer.ID, true)
	wallet := createTestWallet(t, pool, domain.CurrencyUSDC)
	investment := createConfirmedInvestment(t, pool, investor.ID, wallet.ID, 500_000_000)

	require.NoError(t, svc.RunPass(context.Background()))
	require.NoError(t, svc.RunPass(context.Background()))

	got, err := store.Queries().GetInvestment(context.Background(), investment.ID)
	require.NoError(t, err)
	require.NotNil(t, got.FinalAmountMicros)
	assert.EqualValues(t, 1_000_000_000, *got.FinalAmountMicros)

	// The second pass found nothing to do; exactly one earning exists.
	earnings, err := store.Queries().ListEarningsByInvestment(context.Background(), investment.ID)
	require.NoError(t, err)
	assert.Len(t, earnings, 1)
}

func TestMaturationSkipsUndueInvestments(t *testing.T) {
	pool := setupTestDB(t)
	store := repository.NewStore(pool)
	svc := newMaturationService(store)

	user := createTestUser(t, pool, "500", nil, false)
	wallet := createTestWallet(t, pool, domain.CurrencyUSDC)
	queries := store.Queries()

	// Pending deposit: never scanned.
	pending := createPendingInvestment(t, pool, user.ID, wallet.ID, 200_000_000)

	// Confirmed but not yet due.
	notDue := createPendingInvestment(t, pool, user.ID, wallet.ID, 300_000_000)
	rows, err := queries.MarkUserConfirmed(context.Background(), notDue.ID, nil)
	require.NoError(t, err)
	require.EqualValues(t, 1, rows)
	start := time.Now()
	rows, err = queries.ConfirmInvestment(context.Background(), notDue.ID, start, start.Add(7*24*time.Hour))
	require.NoError(t, err)
	require.EqualValues(t, 1, rows)

	require.NoError(t, svc.RunPass(context.Background()))

	gotPending, err := queries.GetInvestment(context.Background(), pending.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.InvestmentStatusPending, gotPending.Status)
	assert.False(t, gotPending.IsCompleted)

	gotNotDue, err := queries.GetInvestment(context.Background(), notDue.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.InvestmentStatusConfirmed, gotNotDue.Status)
	assert.False(t, gotNotDue.IsCompleted)
}
