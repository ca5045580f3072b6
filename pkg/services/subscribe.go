package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"blogfolio/pkg/database"
	"blogfolio/pkg/models"

	"github.com/sirupsen/logrus"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var ErrInvalidEmail = errors.New("valid email is required")

type SubscriberStore interface {
	FindByEmail(ctx context.Context, email string) (*models.Subscriber, error)
	Insert(ctx context.Context, email string, subscribedAt time.Time) (*models.Subscriber, error)
	CountActive(ctx context.Context) (int, error)
}

type SubscribeResult struct {
	Subscriber        *models.Subscriber
	AlreadySubscribed bool
}

type SubscriptionService struct {
	store SubscriberStore
	lower cases.Caser
	now   func() time.Time
	log   *logrus.Entry
}

func NewSubscriptionService(store SubscriberStore, logger *logrus.Logger) *SubscriptionService {
	return &SubscriptionService{
		store: store,
		lower: cases.Lower(language.Und),
		now:   time.Now,
		log:   logger.WithField("component", "subscribe"),
	}
}

// NormalizeEmail trims and lowercases an address.
func (s *SubscriptionService) NormalizeEmail(email string) string {
	return s.lower.String(strings.TrimSpace(email))
}

// Subscribe registers email once. Repeated calls, in any letter case, report
// AlreadySubscribed instead of failing.
func (s *SubscriptionService) Subscribe(ctx context.Context, email string) (*SubscribeResult, error) {
	email = s.NormalizeEmail(email)
	if email == "" || !strings.Contains(email, "@") {
		return nil, ErrInvalidEmail
	}

	existing, err := s.store.FindByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSubscriberStore, err)
	}
	if existing != nil {
		return &SubscribeResult{Subscriber: existing, AlreadySubscribed: true}, nil
	}

	sub, err := s.store.Insert(ctx, email, s.now())
	if errors.Is(err, database.ErrDuplicateSubscriber) {
		// lost a race with a concurrent subscribe
		return &SubscribeResult{AlreadySubscribed: true}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSubscriberStore, err)
	}

	s.log.WithField("email", email).Info("New subscriber")
	return &SubscribeResult{Subscriber: sub}, nil
}

func (s *SubscriptionService) CountActive(ctx context.Context) (int, error) {
	n, err := s.store.CountActive(ctx)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrSubscriberStore, err)
	}
	return n, nil
}
