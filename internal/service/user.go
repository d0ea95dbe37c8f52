package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/doublemoney-pro/doublemoney/internal/domain"
	"github.com/doublemoney-pro/doublemoney/internal/models"
	"github.com/doublemoney-pro/doublemoney/internal/repository"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"golang.org/x/crypto/bcrypt"
)

const (
	minPasswordLength = 6
	referralCodeLen   = 8
	referralCodeTries = 10
	tokenTTL          = 24 * time.Hour
)

const referralCodeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// UserService handles registration, authentication and account administration.
type UserService struct {
	store       QueryStore
	jwtSecret   []byte
	jwtIssuer   string
	jwtAudience string
}

func NewUserService(store QueryStore, jwtSecret, jwtIssuer, jwtAudience string) *UserService {
	return &UserService{
		store:       store,
		jwtSecret:   []byte(jwtSecret),
		jwtIssuer:   jwtIssuer,
		jwtAudience: jwtAudience,
	}
}

// RegisterRequest holds the parameters for creating a user account.
type RegisterRequest struct {
	CountryCode  string
	Phone        string
	Password     string
	ReferralCode string
}

func (r RegisterRequest) validate() error {
	if strings.TrimSpace(r.CountryCode) == "" {
		return errors.New("country_code is required")
	}
	if strings.TrimSpace(r.Phone) == "" {
		return errors.New("phone is required")
	}
	if len(r.Password) < minPasswordLength {
		return fmt.Errorf("password must be at least %d characters", minPasswordLength)
	}
	return nil
}

// Register creates a new user account. An optional referral code binds the
// account to its referrer permanently.
func (s *UserService) Register(ctx context.Context, req RegisterRequest) (*models.User, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}

	queries := s.store.Queries()

	phone := strings.TrimSpace(req.Phone)
	if _, err := queries.GetUserByPhone(ctx, phone); err == nil {
		return nil, ErrPhoneTaken
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("check phone uniqueness: %w", err)
	}

	var referredBy *uuid.UUID
	if code := strings.TrimSpace(req.ReferralCode); code != "" {
		referrer, err := queries.GetUserByReferralCode(ctx, strings.ToUpper(code))
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, ErrInvalidReferral
			}
			return nil, fmt.Errorf("resolve referral code: %w", err)
		}
		referredBy = &referrer.ID
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	code, err := s.generateReferralCode(ctx, queries)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		ID:           uuid.New(),
		Phone:        phone,
		CountryCode:  strings.TrimSpace(req.CountryCode),
		PasswordHash: string(hash),
		ReferralCode: code,
		ReferredBy:   referredBy,
		IsActive:     true,
	}
	if err := queries.CreateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	return user, nil
}

// generateReferralCode draws random codes until one is unused. The space is
// 36^8 so collisions are vanishingly rare; the retry cap guards against a
// broken random source.
func (s *UserService) generateReferralCode(ctx context.Context, queries *repository.Queries) (string, error) {
	for attempt := 0; attempt < referralCodeTries; attempt++ {
		code, err := randomReferralCode()
		if err != nil {
			return "", err
		}
		exists, err := queries.ReferralCodeExists(ctx, code)
		if err != nil {
			return "", fmt.Errorf("check referral code: %w", err)
		}
		if !exists {
			return code, nil
		}
	}
	return "", errors.New("could not generate a unique referral code")
}

// randomReferralCode builds one code with rejection sampling so every
// alphabet character is equally likely. 252 is the largest multiple of 36
// below 256; bytes at or above it are redrawn.
func randomReferralCode() (string, error) {
	const limit = 252
	code := make([]byte, referralCodeLen)
	buf := make([]byte, 1)
	for i := 0; i < referralCodeLen; {
		if _, err := rand.Read(buf); err != nil {
			return "", fmt.Errorf("read random bytes: %w", err)
		}
		if buf[0] >= limit {
			continue
		}
		code[i] = referralCodeAlphabet[int(buf[0])%len(referralCodeAlphabet)]
		i++
	}
	return string(code), nil
}

// Login verifies a user's credentials and issues a signed token.
func (s *UserService) Login(ctx context.Context, phone, password string) (*models.User, string, error) {
	user, err := s.store.Queries().GetUserByPhone(ctx, strings.TrimSpace(phone))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", fmt.Errorf("get user by phone: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, "", ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, "", ErrAccountDisabled
	}

	token, err := s.issueToken(user.ID.String(), domain.RoleUser)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

// AdminLogin verifies an admin's credentials and issues a signed token.
func (s *UserService) AdminLogin(ctx context.Context, username, password string) (*models.Admin, string, error) {
	admin, err := s.store.Queries().GetAdminByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", fmt.Errorf("get admin by username: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte(password)); err != nil {
		return nil, "", ErrInvalidCredentials
	}

	token, err := s.issueToken(admin.ID.String(), domain.RoleAdmin)
	if err != nil {
		return nil, "", err
	}
	return admin, token, nil
}

func (s *UserService) issueToken(subject, role string) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"user_id": subject,
		"role":    role,
		"sub":     subject,
		"iat":     now.Unix(),
		"exp":     now.Add(tokenTTL).Unix(),
	}
	if s.jwtIssuer != "" {
		claims["iss"] = s.jwtIssuer
	}
	if s.jwtAudience != "" {
		claims["aud"] = s.jwtAudience
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// GetUser loads a user by id.
func (s *UserService) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	user, err := s.store.Queries().GetUser(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return user, nil
}

// ToggleUserActive flips a user's active flag and returns the new value.
// Disabled users cannot log in; existing tokens expire on their own.
func (s *UserService) ToggleUserActive(ctx context.Context, id uuid.UUID) (bool, error) {
	user, err := s.GetUser(ctx, id)
	if err != nil {
		return false, err
	}
	rows, err := s.store.Queries().SetUserActive(ctx, id, !user.IsActive)
	if err != nil {
		return false, fmt.Errorf("toggle user active: %w", err)
	}
	if err := requireExactlyOne(rows, "toggle user active"); err != nil {
		return false, err
	}
	return !user.IsActive, nil
}

// ResetPassword sets a new password for a user. Admin-only.
func (s *UserService) ResetPassword(ctx context.Context, id uuid.UUID, newPassword string) error {
	if len(newPassword) < minPasswordLength {
		return fmt.Errorf("password must be at least %d characters", minPasswordLength)
	}
	if _, err := s.GetUser(ctx, id); err != nil {
		return err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	rows, err := s.store.Queries().UpdateUserPassword(ctx, id, string(hash))
	if err != nil {
		return fmt.Errorf("reset password: %w", err)
	}
	return requireExactlyOne(rows, "reset password")
}

// ListUsers returns a paginated user listing with an optional phone search.
func (s *UserService) ListUsers(ctx context.Context, search string, limit, offset int32) ([]models.User, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	users, err := s.store.Queries().ListUsers(ctx, strings.TrimSpace(search), limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

// SeedAdmin creates the initial admin account when none exists yet.
func (s *UserService) SeedAdmin(ctx context.Context, username, password, email string) error {
	if username == "" || password == "" {
		return nil
	}
	count, err := s.store.Queries().CountAdmins(ctx)
	if err != nil {
		return fmt.Errorf("count admins: %w", err)
	}
	if count > 0 {
		return nil
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}
	admin := &models.Admin{
		ID:           uuid.New(),
		Username:     username,
		PasswordHash: string(hash),
		Email:        email,
	}
	if err := s.store.Queries().CreateAdmin(ctx, admin); err != nil {
		return fmt.Errorf("create admin: %w", err)
	}
	return nil
}
