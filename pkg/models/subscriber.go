package models

import "time"

type Subscriber struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	IsActive     bool      `json:"is_active"`
	SubscribedAt time.Time `json:"subscribed_at"`
}

// NotificationRecord marks that subscribers were emailed about an article.
type NotificationRecord struct {
	Slug       string    `json:"slug"`
	RunID      string    `json:"run_id"`
	NotifiedAt time.Time `json:"notified_at"`
	Sent       int       `json:"sent"`
	Total      int       `json:"total"`
}

// NotificationResult is the outcome of one dispatch run.
type NotificationResult struct {
	RunID   string `json:"run_id"`
	Slug    string `json:"slug"`
	Sent    int    `json:"count"`
	Total   int    `json:"total"`
	Failed  int    `json:"failed"`
	Batches int    `json:"batches"`
}
