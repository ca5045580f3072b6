package services

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	ContactRateLimit  = 3
	ContactRateWindow = time.Minute
)

var (
	ErrValidation  = errors.New("validation failed")
	ErrRateLimited = errors.New("too many requests, please try again later")
)

var contactEmailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

type ContactMessage struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Subject string `json:"subject"`
	Message string `json:"message"`
}

type ContactConfig struct {
	From       string
	OwnerEmail string
	OwnerName  string
}

type ContactService struct {
	mailer  Mailer
	limiter RateLimiter
	cfg     ContactConfig
	log     *logrus.Entry
}

func NewContactService(mailer Mailer, limiter RateLimiter, cfg ContactConfig, logger *logrus.Logger) *ContactService {
	return &ContactService{
		mailer:  mailer,
		limiter: limiter,
		cfg:     cfg,
		log:     logger.WithField("component", "contact"),
	}
}

func (s *ContactService) Validate(msg ContactMessage) error {
	if strings.TrimSpace(msg.Name) == "" || strings.TrimSpace(msg.Email) == "" ||
		strings.TrimSpace(msg.Subject) == "" || strings.TrimSpace(msg.Message) == "" {
		return fmt.Errorf("%w: all fields are required", ErrValidation)
	}
	if !contactEmailPattern.MatchString(strings.TrimSpace(msg.Email)) {
		return fmt.Errorf("%w: invalid email address", ErrValidation)
	}
	return nil
}

// Submit validates and rate limits a contact form, then emails a
// confirmation to the sender and the message to the site owner.
func (s *ContactService) Submit(ctx context.Context, msg ContactMessage) error {
	if s.mailer == nil {
		return ErrMailerNotConfigured
	}
	if err := s.Validate(msg); err != nil {
		return err
	}
	msg.Email = strings.ToLower(strings.TrimSpace(msg.Email))

	ok, err := s.limiter.Allow(ctx, "contact:"+msg.Email)
	if err != nil {
		return err
	}
	if !ok {
		return ErrRateLimited
	}

	confirmation, err := renderEmail("contact_confirmation.html", struct {
		ContactMessage
		OwnerName string
	}{msg, s.cfg.OwnerName})
	if err != nil {
		return err
	}
	if err := s.mailer.Send(ctx, Email{
		From:    s.cfg.From,
		To:      []string{msg.Email},
		Subject: "Thanks for reaching out! - " + msg.Subject,
		HTML:    confirmation,
	}); err != nil {
		return fmt.Errorf("send confirmation: %w", err)
	}

	if s.cfg.OwnerEmail == "" {
		s.log.Warn("Owner email not set, skipping contact notification")
		return nil
	}
	notice, err := renderEmail("contact_owner.html", msg)
	if err != nil {
		return err
	}
	if err := s.mailer.Send(ctx, Email{
		From:    s.cfg.From,
		To:      []string{s.cfg.OwnerEmail},
		Subject: "New Contact Form: " + msg.Subject,
		HTML:    notice,
		ReplyTo: msg.Email,
	}); err != nil {
		return fmt.Errorf("send owner notification: %w", err)
	}

	s.log.WithField("email", msg.Email).Info("Contact message delivered")
	return nil
}
