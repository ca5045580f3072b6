package services

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"blogfolio/pkg/database"
	"blogfolio/pkg/logging"
	"blogfolio/pkg/models"
)

func newSubscriptionService(t *testing.T) *SubscriptionService {
	t.Helper()
	db, err := database.Open(filepath.Join(t.TempDir(), "subs.db"))
	if err != nil {
		t.Fatalf("database.Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewSubscriptionService(database.NewSubscriberRepository(db), logging.Discard())
}

func TestSubscribeIsIdempotentAndCaseInsensitive(t *testing.T) {
	s := newSubscriptionService(t)
	ctx := context.Background()

	first, err := s.Subscribe(ctx, "  Reader@Example.COM ")
	if err != nil {
		t.Fatalf("Subscribe error: %v", err)
	}
	if first.AlreadySubscribed {
		t.Error("First subscribe must create the subscriber")
	}
	if first.Subscriber.Email != "reader@example.com" {
		t.Errorf("Expected normalised email, got %q", first.Subscriber.Email)
	}

	for _, email := range []string{"reader@example.com", "READER@EXAMPLE.COM"} {
		again, err := s.Subscribe(ctx, email)
		if err != nil {
			t.Fatalf("Subscribe(%s) error: %v", email, err)
		}
		if !again.AlreadySubscribed {
			t.Errorf("Subscribe(%s) should report already subscribed", email)
		}
	}

	n, err := s.CountActive(ctx)
	if err != nil || n != 1 {
		t.Errorf("Expected exactly one subscriber, got %d (%v)", n, err)
	}
}

func TestSubscribeRejectsInvalidEmail(t *testing.T) {
	s := newSubscriptionService(t)
	for _, email := range []string{"", "   ", "not-an-email"} {
		if _, err := s.Subscribe(context.Background(), email); !errors.Is(err, ErrInvalidEmail) {
			t.Errorf("Subscribe(%q): expected ErrInvalidEmail, got %v", email, err)
		}
	}
}

// racingStore reports no subscriber on lookup but a duplicate on insert.
type racingStore struct{}

func (racingStore) FindByEmail(context.Context, string) (*models.Subscriber, error) { return nil, nil }
func (racingStore) Insert(context.Context, string, time.Time) (*models.Subscriber, error) {
	return nil, database.ErrDuplicateSubscriber
}
func (racingStore) CountActive(context.Context) (int, error) { return 0, errors.New("down") }

func TestSubscribeDuplicateOnInsert(t *testing.T) {
	s := NewSubscriptionService(racingStore{}, logging.Discard())
	res, err := s.Subscribe(context.Background(), "a@example.com")
	if err != nil {
		t.Fatalf("Subscribe error: %v", err)
	}
	if !res.AlreadySubscribed {
		t.Error("A uniqueness violation must read as already subscribed")
	}
	if _, err := s.CountActive(context.Background()); !errors.Is(err, ErrSubscriberStore) {
		t.Errorf("Expected ErrSubscriberStore, got %v", err)
	}
}
