package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/doublemoney-pro/doublemoney/internal/models"
	"github.com/google/uuid"
)

const earningColumns = `id, user_id, from_user_id, investment_id, amount_micros, percentage, status, payout_date, created_at, paid_at`

func scanEarning(row interface{ Scan(...any) error }) (*models.ReferralEarning, error) {
	e := &models.ReferralEarning{}
	err := row.Scan(&e.ID, &e.UserID, &e.FromUserID, &e.InvestmentID, &e.AmountMicros,
		&e.Percentage, &e.Status, &e.PayoutDate, &e.CreatedAt, &e.PaidAt)
	if err != nil {
		return nil, err
	}
	return e, nil
}

func (q *Queries) CreateReferralEarning(ctx context.Context, earning *models.ReferralEarning) error {
	query := `INSERT INTO referral_earnings (id, user_id, from_user_id, investment_id, amount_micros, percentage, status, payout_date, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, 'pending', $7, NOW()) RETURNING created_at`
	err := q.db.QueryRow(ctx, query, earning.ID, earning.UserID, earning.FromUserID, earning.InvestmentID,
		earning.AmountMicros, earning.Percentage, earning.PayoutDate).Scan(&earning.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create referral earning: %w", err)
	}
	earning.Status = "pending"
	return nil
}

func (q *Queries) GetEarning(ctx context.Context, id uuid.UUID) (*models.ReferralEarning, error) {
	query := `SELECT ` + earningColumns + ` FROM referral_earnings WHERE id = $1`
	return scanEarning(q.db.QueryRow(ctx, query, id))
}

func (q *Queries) GetEarningForUpdate(ctx context.Context, id uuid.UUID) (*models.ReferralEarning, error) {
	query := `SELECT ` + earningColumns + ` FROM referral_earnings WHERE id = $1 FOR UPDATE`
	return scanEarning(q.db.QueryRow(ctx, query, id))
}

func (q *Queries) ListEarningsByUser(ctx context.Context, userID uuid.UUID) ([]models.ReferralEarning, error) {
	query := `SELECT ` + earningColumns + ` FROM referral_earnings WHERE user_id = $1 ORDER BY created_at DESC`
	rows, err := q.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list earnings: %w", err)
	}
	defer rows.Close()

	var earnings []models.ReferralEarning
	for rows.Next() {
		e, err := scanEarning(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan earning: %w", err)
		}
		earnings = append(earnings, *e)
	}
	return earnings, rows.Err()
}

// ListEarningsByInvestment returns commissions emitted for an investment.
// The scanner's idempotency test leans on this.
func (q *Queries) ListEarningsByInvestment(ctx context.Context, investmentID uuid.UUID) ([]models.ReferralEarning, error) {
	query := `SELECT ` + earningColumns + ` FROM referral_earnings WHERE investment_id = $1 ORDER BY created_at DESC`
	rows, err := q.db.Query(ctx, query, investmentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list earnings by investment: %w", err)
	}
	defer rows.Close()

	var earnings []models.ReferralEarning
	for rows.Next() {
		e, err := scanEarning(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan earning: %w", err)
		}
		earnings = append(earnings, *e)
	}
	return earnings, rows.Err()
}

func (q *Queries) ListEarnings(ctx context.Context, status string, limit, offset int32) ([]models.ReferralEarning, error) {
	query := `SELECT ` + earningColumns + ` FROM referral_earnings
		WHERE ($1 = '' OR status = $1)
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`
	rows, err := q.db.Query(ctx, query, status, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list earnings: %w", err)
	}
	defer rows.Close()

	var earnings []models.ReferralEarning
	for rows.Next() {
		e, err := scanEarning(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan earning: %w", err)
		}
		earnings = append(earnings, *e)
	}
	return earnings, rows.Err()
}

func (q *Queries) ApproveEarning(ctx context.Context, id uuid.UUID) (int64, error) {
	tag, err := q.db.Exec(ctx, `UPDATE referral_earnings SET status = 'approved' WHERE id = $1 AND status = 'pending'`, id)
	if err != nil {
		return 0, fmt.Errorf("failed to approve earning: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (q *Queries) MarkEarningPaid(ctx context.Context, id uuid.UUID, paidAt time.Time) (int64, error) {
	query := `UPDATE referral_earnings SET status = 'paid', paid_at = $2 WHERE id = $1 AND status = 'approved'`
	tag, err := q.db.Exec(ctx, query, id, paidAt)
	if err != nil {
		return 0, fmt.Errorf("failed to mark earning paid: %w", err)
	}
	return tag.RowsAffected(), nil
}

// SumEarningsByUserAndStatus totals a user's earnings in a given status.
func (q *Queries) SumEarningsByUserAndStatus(ctx context.Context, userID uuid.UUID, status string) (int64, error) {
	var sum int64
	query := `SELECT COALESCE(SUM(amount_micros), 0) FROM referral_earnings WHERE user_id = $1 AND status = $2`
	if err := q.db.QueryRow(ctx, query, userID, status).Scan(&sum); err != nil {
		return 0, fmt.Errorf("failed to sum earnings: %w", err)
	}
	return sum, nil
}

func (q *Queries) CountEarnings(ctx context.Context, status string) (int64, error) {
	var count int64
	query := `SELECT COUNT(*) FROM referral_earnings WHERE $1 = '' OR status = $1`
	if err := q.db.QueryRow(ctx, query, status).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count earnings: %w", err)
	}
	return count, nil
}
