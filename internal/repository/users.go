package repository

import (
	"context"
	"fmt"

	"github.com/doublemoney-pro/doublemoney/internal/models"
	"github.com/google/uuid"
)

const userColumns = `id, phone, country_code, password_hash, withdrawal_wallet, referral_code, referred_by, is_active, has_active_investment, created_at`

func scanUser(row interface{ Scan(...any) error }) (*models.User, error) {
	u := &models.User{}
	err := row.Scan(&u.ID, &u.Phone, &u.CountryCode, &u.PasswordHash, &u.WithdrawalWallet,
		&u.ReferralCode, &u.ReferredBy, &u.IsActive, &u.HasActiveInvestment, &u.CreatedAt)
	if err != nil {
		return nil, err
	}
	return u, nil
}

func (q *Queries) CreateUser(ctx context.Context, user *models.User) error {
	query := `INSERT INTO users (id, phone, country_code, password_hash, referral_code, referred_by, is_active, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, TRUE, NOW()) RETURNING created_at`
	err := q.db.QueryRow(ctx, query, user.ID, user.Phone, user.CountryCode, user.PasswordHash,
		user.ReferralCode, user.ReferredBy).Scan(&user.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	user.IsActive = true
	return nil
}

func (q *Queries) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return scanUser(q.db.QueryRow(ctx, query, id))
}

func (q *Queries) GetUserByPhone(ctx context.Context, phone string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE phone = $1`
	return scanUser(q.db.QueryRow(ctx, query, phone))
}

func (q *Queries) GetUserByReferralCode(ctx context.Context, code string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE referral_code = $1`
	return scanUser(q.db.QueryRow(ctx, query, code))
}

func (q *Queries) ReferralCodeExists(ctx context.Context, code string) (bool, error) {
	var exists bool
	err := q.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE referral_code = $1)`, code).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check referral code: %w", err)
	}
	return exists, nil
}

// CountActiveReferrals counts users referred by the given user who currently
// hold an active investment. Single indexed count, no graph walk.
func (q *Queries) CountActiveReferrals(ctx context.Context, referrerID uuid.UUID) (int64, error) {
	var count int64
	query := `SELECT COUNT(*) FROM users WHERE referred_by = $1 AND has_active_investment`
	if err := q.db.QueryRow(ctx, query, referrerID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count active referrals: %w", err)
	}
	return count, nil
}

func (q *Queries) CountReferrals(ctx context.Context, referrerID uuid.UUID) (int64, error) {
	var count int64
	if err := q.db.QueryRow(ctx, `SELECT COUNT(*) FROM users WHERE referred_by = $1`, referrerID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count referrals: %w", err)
	}
	return count, nil
}

func (q *Queries) ListReferrals(ctx context.Context, referrerID uuid.UUID) ([]models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE referred_by = $1 ORDER BY created_at DESC`
	rows, err := q.db.Query(ctx, query, referrerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list referrals: %w", err)
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan referral: %w", err)
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

// SetHasActiveInvestment flips the fast-path active-investment flag.
func (q *Queries) SetHasActiveInvestment(ctx context.Context, userID uuid.UUID, active bool) (int64, error) {
	tag, err := q.db.Exec(ctx, `UPDATE users SET has_active_investment = $1 WHERE id = $2`, active, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to update active investment flag: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (q *Queries) SetUserActive(ctx context.Context, userID uuid.UUID, active bool) (int64, error) {
	tag, err := q.db.Exec(ctx, `UPDATE users SET is_active = $1 WHERE id = $2`, active, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to update user active flag: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (q *Queries) UpdateUserPassword(ctx context.Context, userID uuid.UUID, passwordHash string) (int64, error) {
	tag, err := q.db.Exec(ctx, `UPDATE users SET password_hash = $1 WHERE id = $2`, passwordHash, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to update password: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (q *Queries) UpdateWithdrawalWallet(ctx context.Context, userID uuid.UUID, wallet string) (int64, error) {
	tag, err := q.db.Exec(ctx, `UPDATE users SET withdrawal_wallet = $1 WHERE id = $2`, wallet, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to update withdrawal wallet: %w", err)
	}
	return tag.RowsAffected(), nil
}

// ListUsers returns users newest first, optionally filtered by a phone
// substring search.
func (q *Queries) ListUsers(ctx context.Context, search string, limit, offset int32) ([]models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users
		WHERE ($1 = '' OR phone LIKE '%' || $1 || '%')
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`
	rows, err := q.db.Query(ctx, query, search, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

func (q *Queries) CountUsers(ctx context.Context, activeOnly bool) (int64, error) {
	var count int64
	query := `SELECT COUNT(*) FROM users WHERE NOT $1 OR is_active`
	if err := q.db.QueryRow(ctx, query, activeOnly).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count users: %w", err)
	}
	return count, nil
}
