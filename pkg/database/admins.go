package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"
)

// AdminRepository holds the allowlist of admin email addresses.
type AdminRepository struct {
	db *sql.DB
}

func NewAdminRepository(db *sql.DB) *AdminRepository {
	return &AdminRepository{db: db}
}

func (r *AdminRepository) Add(ctx context.Context, email string) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO admins (email, created_at) VALUES (?, ?) ON CONFLICT(email) DO NOTHING`,
		normalizeAdminEmail(email), formatTime(time.Now()),
	)
	if err != nil {
		return fmt.Errorf("failed to add admin: %w", err)
	}
	return nil
}

func (r *AdminRepository) IsAdmin(ctx context.Context, email string) (bool, error) {
	email = normalizeAdminEmail(email)
	if email == "" {
		return false, nil
	}
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM admins WHERE email = ?`, email).Scan(&n); err != nil {
		return false, fmt.Errorf("failed to check admin: %w", err)
	}
	return n > 0, nil
}

func (r *AdminRepository) List(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT email FROM admins ORDER BY email`)
	if err != nil {
		return nil, fmt.Errorf("failed to list admins: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var email string
		if err := rows.Scan(&email); err != nil {
			return nil, err
		}
		out = append(out, email)
	}
	return out, rows.Err()
}

func normalizeAdminEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
