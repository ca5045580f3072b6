package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"blogfolio/pkg/models"
)

// NotificationRepository is the ledger of dispatch runs per article.
type NotificationRepository struct {
	db *sql.DB
}

func NewNotificationRepository(db *sql.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

// LastNotified returns the latest run for slug, or nil when there is none.
func (r *NotificationRepository) LastNotified(ctx context.Context, slug string) (*models.NotificationRecord, error) {
	var rec models.NotificationRecord
	var notifiedAt string
	err := r.db.QueryRowContext(ctx, `
		SELECT slug, run_id, notified_at, sent, total
		FROM notifications
		WHERE slug = ?
		ORDER BY notified_at DESC, id DESC
		LIMIT 1
	`, slug).Scan(&rec.Slug, &rec.RunID, &notifiedAt, &rec.Sent, &rec.Total)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read notification ledger: %w", err)
	}
	rec.NotifiedAt = parseTime(notifiedAt)
	return &rec, nil
}

func (r *NotificationRepository) RecordNotification(ctx context.Context, rec models.NotificationRecord) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO notifications (slug, run_id, notified_at, sent, total) VALUES (?, ?, ?, ?, ?)`,
		rec.Slug, rec.RunID, formatTime(rec.NotifiedAt), rec.Sent, rec.Total,
	)
	if err != nil {
		return fmt.Errorf("failed to record notification: %w", err)
	}
	return nil
}
