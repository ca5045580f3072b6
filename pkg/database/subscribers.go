package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"blogfolio/pkg/models"

	"github.com/google/uuid"
)

// SubscriberRepository stores newsletter subscribers. Emails are expected
// to be normalised by the caller.
type SubscriberRepository struct {
	db *sql.DB
}

func NewSubscriberRepository(db *sql.DB) *SubscriberRepository {
	return &SubscriberRepository{db: db}
}

// FindByEmail returns nil, nil when no subscriber has the address.
func (r *SubscriberRepository) FindByEmail(ctx context.Context, email string) (*models.Subscriber, error) {
	var s models.Subscriber
	var active int
	var subscribedAt string
	err := r.db.QueryRowContext(ctx,
		`SELECT id, email, is_active, subscribed_at FROM subscribers WHERE email = ?`, email,
	).Scan(&s.ID, &s.Email, &active, &subscribedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up subscriber: %w", err)
	}
	s.IsActive = active == 1
	s.SubscribedAt = parseTime(subscribedAt)
	return &s, nil
}

// Insert adds an active subscriber. A second insert for the same address
// returns ErrDuplicateSubscriber.
func (r *SubscriberRepository) Insert(ctx context.Context, email string, subscribedAt time.Time) (*models.Subscriber, error) {
	s := models.Subscriber{
		ID:           uuid.NewString(),
		Email:        email,
		IsActive:     true,
		SubscribedAt: subscribedAt.UTC(),
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO subscribers (id, email, is_active, subscribed_at) VALUES (?, ?, 1, ?)`,
		s.ID, s.Email, formatTime(s.SubscribedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicateSubscriber
		}
		return nil, fmt.Errorf("failed to insert subscriber: %w", err)
	}
	return &s, nil
}

func (r *SubscriberRepository) ListActive(ctx context.Context) ([]models.Subscriber, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, email, subscribed_at FROM subscribers WHERE is_active = 1 ORDER BY subscribed_at, email`)
	if err != nil {
		return nil, fmt.Errorf("failed to list subscribers: %w", err)
	}
	defer rows.Close()

	var out []models.Subscriber
	for rows.Next() {
		var s models.Subscriber
		var subscribedAt string
		if err := rows.Scan(&s.ID, &s.Email, &subscribedAt); err != nil {
			return nil, err
		}
		s.IsActive = true
		s.SubscribedAt = parseTime(subscribedAt)
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *SubscriberRepository) CountActive(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM subscribers WHERE is_active = 1`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count subscribers: %w", err)
	}
	return n, nil
}
