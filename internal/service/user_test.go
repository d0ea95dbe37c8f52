package service

import (
	"context"
	"strings"
	"testing"

	"github.com/doublemoney-pro/doublemoney/internal/repository"
	"github.com/golang-jwt/jwt/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newUserService(pool *pgxpool.Pool) *UserService {
	return NewUserService(repository.NewStore(pool), "test-secret-0123456789-test-secret", "doublemoney", "doublemoney-clients")
}

func TestRegisterValidation(t *testing.T) {
	pool := setupTestDB(t)
	svc := newUserService(pool)

	_, err := svc.Register(context.Background(), RegisterRequest{CountryCode: "+44", Phone: "800", Password: "short"})
	require.Error(t, err)
	_, err = svc.Register(context.Background(), RegisterRequest{CountryCode: "+44", Password: "secret123"})
	require.Error(t, err)
	_, err = svc.Register(context.Background(), RegisterRequest{Phone: "800", Password: "secret123"})
	require.Error(t, err)

	_, err = svc.Register(context.Background(), RegisterRequest{
		CountryCode:  "+44",
		Phone:        "800",
		Password:     "secret123",
		ReferralCode: "NOSUCH00",
	})
	require.ErrorIs(t, err, ErrInvalidReferral)
}

func TestRegisterBindsReferrer(t *testing.T) {
	pool := setupTestDB(t)
	svc := newUserService(pool)

	referrer, err := svc.Register(context.Background(), RegisterRequest{CountryCode: "+44", Phone: "810", Password: "secret123"})
	require.NoError(t, err)
	require.Len(t, referrer.ReferralCode, referralCodeLen)

	// Codes resolve case-insensitively and ignore surrounding whitespace.
	referred, err := svc.Register(context.Background(), RegisterRequest{
		CountryCode:  "+44",
		Phone:        "811",
		Password:     "secret123",
		ReferralCode: " " + strings.ToLower(referrer.ReferralCode) + " ",
	})
	require.NoError(t, err)
	require.NotNil(t, referred.ReferredBy)
	assert.Equal(t, referrer.ID, *referred.ReferredBy)
	assert.NotEqual(t, referrer.ReferralCode, referred.ReferralCode)

	_, err = svc.Register(context.Background(), RegisterRequest{CountryCode: "+44", Phone: "810", Password: "secret123"})
	require.ErrorIs(t, err, ErrPhoneTaken)
}

func TestLoginIssuesToken(t *testing.T) {
	pool := setupTestDB(t)
	svc := newUserService(pool)

	registered, err := svc.Register(context.Background(), RegisterRequest{CountryCode: "+44", Phone: "820", Password: "secret123"})
	require.NoError(t, err)

	_, _, err = svc.Login(context.Background(), "820", "wrongpass")
	require.ErrorIs(t, err, ErrInvalidCredentials)
	_, _, err = svc.Login(context.Background(), "999999", "secret123")
	require.ErrorIs(t, err, ErrInvalidCredentials)

	user, token, err := svc.Login(context.Background(), "820", "secret123")
	require.NoError(t, err)
	assert.Equal(t, registered.ID, user.ID)

	parsed, err := jwt.Parse(token, func(t *jwt.Token) (interface{}, error) {
		return []byte("test-secret-0123456789-test-secret"), nil
	})
	require.NoError(t, err)
	claims := parsed.Claims.(jwt.MapClaims)
	assert.Equal(t, registered.ID.String(), claims["user_id"])
	assert.Equal(t, "user", claims["role"])
	assert.Equal(t, "doublemoney", claims["iss"])

	// Disabled accounts cannot log in even with valid credentials.
	_, err = svc.ToggleUserActive(context.Background(), registered.ID)
	require.NoError(t, err)
	_, _, err = svc.Login(context.Background(), "820", "secret123")
	require.ErrorIs(t, err, ErrAccountDisabled)
}

func TestSeedAdminRunsOnce(t *testing.T) {
	pool := setupTestDB(t)
	svc := newUserService(pool)

	require.NoError(t, svc.SeedAdmin(context.Background(), "", "", ""))
	count, err := repository.New(pool).CountAdmins(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 0, count)

	require.NoError(t, svc.SeedAdmin(context.Background(), "root", "adminpass", "ops@doublemoney.pro"))
	require.NoError(t, svc.SeedAdmin(context.Background(), "root", "adminpass", "ops@doublemoney.pro"))

	count, err = repository.New(pool).CountAdmins(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)

	_, token, err := svc.AdminLogin(context.Background(), "root", "adminpass")
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	_, _, err = svc.AdminLogin(context.Background(), "root", "badpass")
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestResetPassword(t *testing.T) {
	pool := setupTestDB(t)
	svc := newUserService(pool)

	user, err := svc.Register(context.Background(), RegisterRequest{CountryCode: "+44", Phone: "830", Password: "secret123"})
	require.NoError(t, err)

	require.Error(t, svc.ResetPassword(context.Background(), user.ID, "tiny"))
	require.NoError(t, svc.ResetPassword(context.Background(), user.ID, "newsecret"))

	_, _, err = svc.Login(context.Background(), "830", "secret123")
	require.ErrorIs(t, err, ErrInvalidCredentials)
	_, _, err = svc.Login(context.Background(), "830", "newsecret")
	require.NoError(t, err)
}

func TestRandomReferralCodeUniform(t *testing.T) {
	const draws = 50_000
	counts := make(map[byte]int)
	for i := 0; i < draws; i++ {
		code, err := randomReferralCode()
		require.NoError(t, err)
		require.Len(t, code, referralCodeLen)
		for j := 0; j < len(code); j++ {
			require.True(t, strings.ContainsRune(referralCodeAlphabet, rune(code[j])))
			counts[code[j]]++
		}
	}

	// Each character should land within 8% of its expected share. A sampler
	// that maps bytes with a plain modulo overweights the first four alphabet
	// characters by 14% and fails this band.
	expected := draws * referralCodeLen / len(referralCodeAlphabet)
	require.Len(t, counts, len(referralCodeAlphabet))
	for ch, n := range counts {
		assert.InDelta(t, expected, n, float64(expected)*0.08, "character %c", ch)
	}
}
