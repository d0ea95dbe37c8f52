package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/doublemoney-pro/doublemoney/internal/models"
	"github.com/google/uuid"
)

const investmentColumns = `id, user_id, wallet_id, amount_micros, transaction_hash, status, user_confirmed, start_date, completion_date, final_amount_micros, is_completed, created_at`

func scanInvestment(row interface{ Scan(...any) error }) (*models.Investment, error) {
	inv := &models.Investment{}
	err := row.Scan(&inv.ID, &inv.UserID, &inv.WalletID, &inv.AmountMicros, &inv.TransactionHash,
		&inv.Status, &inv.UserConfirmed, &inv.StartDate, &inv.CompletionDate,
		&inv.FinalAmountMicros, &inv.IsCompleted, &inv.CreatedAt)
	if err != nil {
		return nil, err
	}
	return inv, nil
}

func (q *Queries) CreateInvestment(ctx context.Context, inv *models.Investment) error {
	query := `INSERT INTO investments (id, user_id, wallet_id, amount_micros, status, created_at)
		VALUES ($1, $2, $3, $4, 'pending', NOW()) RETURNING created_at`
	err := q.db.QueryRow(ctx, query, inv.ID, inv.UserID, inv.WalletID, inv.AmountMicros).Scan(&inv.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create investment: %w", err)
	}
	inv.Status = "pending"
	return nil
}

func (q *Queries) GetInvestment(ctx context.Context, id uuid.UUID) (*models.Investment, error) {
	query := `SELECT ` + investmentColumns + ` FROM investments WHERE id = $1`
	return scanInvestment(q.db.QueryRow(ctx, query, id))
}

func (q *Queries) GetInvestmentForUser(ctx context.Context, id, userID uuid.UUID) (*models.Investment, error) {
	query := `SELECT ` + investmentColumns + ` FROM investments WHERE id = $1 AND user_id = $2`
	return scanInvestment(q.db.QueryRow(ctx, query, id, userID))
}

func (q *Queries) GetInvestmentForUpdate(ctx context.Context, id uuid.UUID) (*models.Investment, error) {
	query := `SELECT ` + investmentColumns + ` FROM investments WHERE id = $1 FOR UPDATE`
	return scanInvestment(q.db.QueryRow(ctx, query, id))
}

func (q *Queries) ListInvestmentsByUser(ctx context.Context, userID uuid.UUID) ([]models.Investment, error) {
	query := `SELECT ` + investmentColumns + ` FROM investments WHERE user_id = $1 ORDER BY created_at DESC`
	rows, err := q.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list investments: %w", err)
	}
	defer rows.Close()

	var investments []models.Investment
	for rows.Next() {
		inv, err := scanInvestment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan investment: %w", err)
		}
		investments = append(investments, *inv)
	}
	return investments, rows.Err()
}

func (q *Queries) ListInvestments(ctx context.Context, status string, limit, offset int32) ([]models.Investment, error) {
	query := `SELECT ` + investmentColumns + ` FROM investments
		WHERE ($1 = '' OR status = $1)
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`
	rows, err := q.db.Query(ctx, query, status, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list investments: %w", err)
	}
	defer rows.Close()

	var investments []models.Investment
	for rows.Next() {
		inv, err := scanInvestment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan investment: %w", err)
		}
		investments = append(investments, *inv)
	}
	return investments, rows.Err()
}

// MarkUserConfirmed records the depositor's assertion that funds were sent,
// with the on-chain transaction hash when the depositor supplied one.
// Guarded so it only applies once, while the investment is still pending.
func (q *Queries) MarkUserConfirmed(ctx context.Context, id uuid.UUID, transactionHash *string) (int64, error) {
	query := `UPDATE investments
		SET user_confirmed = TRUE, transaction_hash = COALESCE($2, transaction_hash)
		WHERE id = $1 AND status = 'pending' AND NOT user_confirmed`
	tag, err := q.db.Exec(ctx, query, id, transactionHash)
	if err != nil {
		return 0, fmt.Errorf("failed to mark user confirmed: %w", err)
	}
	return tag.RowsAffected(), nil
}

// ConfirmInvestment moves a pending, user-confirmed investment to confirmed
// and stamps the maturation window.
func (q *Queries) ConfirmInvestment(ctx context.Context, id uuid.UUID, start, completion time.Time) (int64, error) {
	query := `UPDATE investments
		SET status = 'confirmed', start_date = $2, completion_date = $3
		WHERE id = $1 AND status = 'pending' AND user_confirmed`
	tag, err := q.db.Exec(ctx, query, id, start, completion)
	if err != nil {
		return 0, fmt.Errorf("failed to confirm investment: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (q *Queries) CancelInvestment(ctx context.Context, id uuid.UUID) (int64, error) {
	query := `UPDATE investments SET status = 'cancelled'
		WHERE id = $1 AND status IN ('pending', 'confirmed')`
	tag, err := q.db.Exec(ctx, query, id)
	if err != nil {
		return 0, fmt.Errorf("failed to cancel investment: %w", err)
	}
	return tag.RowsAffected(), nil
}

// GetDueInvestments returns confirmed investments whose maturation deadline
// has passed and that have not been finalized yet.
func (q *Queries) GetDueInvestments(ctx context.Context, now time.Time, limit int32) ([]models.Investment, error) {
	query := `SELECT ` + investmentColumns + ` FROM investments
		WHERE status = 'confirmed' AND completion_date <= $1 AND NOT is_completed
		ORDER BY completion_date ASC
		LIMIT $2`
	rows, err := q.db.Query(ctx, query, now, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch due investments: %w", err)
	}
	defer rows.Close()

	var investments []models.Investment
	for rows.Next() {
		inv, err := scanInvestment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan due investment: %w", err)
		}
		investments = append(investments, *inv)
	}
	return investments, rows.Err()
}

// CompleteInvestment finalizes a matured investment. The predicate repeats
// the scan filter so a second pass, or a concurrent scanner, updates zero
// rows instead of doubling the payout twice.
func (q *Queries) CompleteInvestment(ctx context.Context, id uuid.UUID, finalAmountMicros int64) (int64, error) {
	query := `UPDATE investments
		SET status = 'completed', is_completed = TRUE, final_amount_micros = $2
		WHERE id = $1 AND status = 'confirmed' AND NOT is_completed`
	tag, err := q.db.Exec(ctx, query, id, finalAmountMicros)
	if err != nil {
		return 0, fmt.Errorf("failed to complete investment: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (q *Queries) CountInvestments(ctx context.Context) (int64, error) {
	var count int64
	if err := q.db.QueryRow(ctx, `SELECT COUNT(*) FROM investments`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count investments: %w", err)
	}
	return count, nil
}

func (q *Queries) CountInvestmentsByStatus(ctx context.Context, status string) (int64, error) {
	var count int64
	if err := q.db.QueryRow(ctx, `SELECT COUNT(*) FROM investments WHERE status = $1`, status).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count investments by status: %w", err)
	}
	return count, nil
}

func (q *Queries) CountCompletedInvestments(ctx context.Context) (int64, error) {
	var count int64
	if err := q.db.QueryRow(ctx, `SELECT COUNT(*) FROM investments WHERE is_completed`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count completed investments: %w", err)
	}
	return count, nil
}

// SumInvestedMicros totals confirmed and completed principal.
func (q *Queries) SumInvestedMicros(ctx context.Context) (int64, error) {
	var sum int64
	query := `SELECT COALESCE(SUM(amount_micros), 0) FROM investments WHERE status IN ('confirmed', 'completed')`
	if err := q.db.QueryRow(ctx, query).Scan(&sum); err != nil {
		return 0, fmt.Errorf("failed to sum invested amounts: %w", err)
	}
	return sum, nil
}

// SumPaidOutMicros totals finalized payouts.
func (q *Queries) SumPaidOutMicros(ctx context.Context) (int64, error) {
	var sum int64
	query := `SELECT COALESCE(SUM(final_amount_micros), 0) FROM investments WHERE is_completed`
	if err := q.db.QueryRow(ctx, query).Scan(&sum); err != nil {
		return 0, fmt.Errorf("failed to sum paid out amounts: %w", err)
	}
	return sum, nil
}
