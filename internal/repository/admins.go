package repository

import (
	"context"
	"fmt"

	"github.com/doublemoney-pro/doublemoney/internal/models"
)

func (q *Queries) CreateAdmin(ctx context.Context, admin *models.Admin) error {
	query := `INSERT INTO admins (id, username, password_hash, email, created_at)
		VALUES ($1, $2, $3, $4, NOW()) RETURNING created_at`
	err := q.db.QueryRow(ctx, query, admin.ID, admin.Username, admin.PasswordHash, admin.Email).Scan(&admin.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create admin: %w", err)
	}
	return nil
}

func (q *Queries) GetAdminByUsername(ctx context.Context, username string) (*models.Admin, error) {
	a := &models.Admin{}
	query := `SELECT id, username, password_hash, email, created_at FROM admins WHERE username = $1`
	err := q.db.QueryRow(ctx, query, username).Scan(&a.ID, &a.Username, &a.PasswordHash, &a.Email, &a.CreatedAt)
	if err != nil {
		return nil, err
	}
	return a, nil
}

func (q *Queries) CountAdmins(ctx context.Context) (int64, error) {
	var count int64
	if err := q.db.QueryRow(ctx, `SELECT COUNT(*) FROM admins`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count admins: %w", err)
	}
	return count, nil
}
