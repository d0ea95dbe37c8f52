package repository

import (
	"context"
	"fmt"

	"github.com/doublemoney-pro/doublemoney/internal/models"
	"github.com/google/uuid"
)

const walletColumns = `id, address, currency, network, is_active, created_at`

func scanWallet(row interface{ Scan(...any) error }) (*models.Wallet, error) {
	w := &models.Wallet{}
	err := row.Scan(&w.ID, &w.Address, &w.Currency, &w.Network, &w.IsActive, &w.CreatedAt)
	if err != nil {
		return nil, err
	}
	return w, nil
}

func (q *Queries) CreateWallet(ctx context.Context, wallet *models.Wallet) error {
	query := `INSERT INTO wallets (id, address, currency, network, is_active, created_at)
		VALUES ($1, $2, $3, $4, $5, NOW()) RETURNING created_at`
	err := q.db.QueryRow(ctx, query, wallet.ID, wallet.Address, wallet.Currency, wallet.Network, wallet.IsActive).Scan(&wallet.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create wallet: %w", err)
	}
	return nil
}

func (q *Queries) GetWallet(ctx context.Context, id uuid.UUID) (*models.Wallet, error) {
	query := `SELECT ` + walletColumns + ` FROM wallets WHERE id = $1`
	return scanWallet(q.db.QueryRow(ctx, query, id))
}

// GetActiveWallet returns a deposit wallet for the currency/network pair.
// Wallets stay in rotation indefinitely; the oldest active one is reused.
func (q *Queries) GetActiveWallet(ctx context.Context, currency, network string) (*models.Wallet, error) {
	query := `SELECT ` + walletColumns + ` FROM wallets
		WHERE currency = $1 AND network = $2 AND is_active
		ORDER BY created_at ASC
		LIMIT 1`
	return scanWallet(q.db.QueryRow(ctx, query, currency, network))
}

func (q *Queries) ListWallets(ctx context.Context) ([]models.Wallet, error) {
	query := `SELECT ` + walletColumns + ` FROM wallets ORDER BY created_at DESC`
	rows, err := q.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list wallets: %w", err)
	}
	defer rows.Close()

	var wallets []models.Wallet
	for rows.Next() {
		w, err := scanWallet(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan wallet: %w", err)
		}
		wallets = append(wallets, *w)
	}
	return wallets, rows.Err()
}

func (q *Queries) SetWalletActive(ctx context.Context, id uuid.UUID, active bool) (int64, error) {
	tag, err := q.db.Exec(ctx, `UPDATE wallets SET is_active = $1 WHERE id = $2`, active, id)
	if err != nil {
		return 0, fmt.Errorf("failed to update wallet active flag: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (q *Queries) CountActiveWallets(ctx context.Context) (int64, error) {
	var count int64
	if err := q.db.QueryRow(ctx, `SELECT COUNT(*) FROM wallets WHERE is_active`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count active wallets: %w", err)
	}
	return count, nil
}
