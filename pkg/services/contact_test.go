package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"blogfolio/pkg/logging"
)

func TestMemoryRateLimiterWindow(t *testing.T) {
	now := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)
	l := NewMemoryRateLimiter(3, time.Minute)
	l.now = func() time.Time { return now }
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if ok, _ := l.Allow(ctx, "a"); !ok {
			t.Fatalf("hit %d should be allowed", i+1)
		}
	}
	if ok, _ := l.Allow(ctx, "a"); ok {
		t.Error("4th hit in the window must be refused")
	}
	if ok, _ := l.Allow(ctx, "b"); !ok {
		t.Error("Keys must be limited independently")
	}

	now = now.Add(time.Minute)
	if ok, _ := l.Allow(ctx, "a"); !ok {
		t.Error("A new window must allow again")
	}
}

func newTestContactService(mailer Mailer) *ContactService {
	return NewContactService(mailer, NewMemoryRateLimiter(ContactRateLimit, ContactRateWindow), ContactConfig{
		From:       "Contact Form <contact@example.com>",
		OwnerEmail: "owner@example.com",
		OwnerName:  "Owner",
	}, logging.Discard())
}

func validContact() ContactMessage {
	return ContactMessage{Name: "Grace", Email: "Grace@Example.com", Subject: "Hi", Message: "Nice blog"}
}

func TestContactSubmitSendsTwoEmails(t *testing.T) {
	mailer := &fakeMailer{}
	s := newTestContactService(mailer)

	if err := s.Submit(context.Background(), validContact()); err != nil {
		t.Fatalf("Submit error: %v", err)
	}
	if len(mailer.sent) != 2 {
		t.Fatalf("Expected 2 emails, got %d", len(mailer.sent))
	}

	var confirmation, notice Email
	for _, e := range mailer.sent {
		switch e.To[0] {
		case "grace@example.com":
			confirmation = e
		case "owner@example.com":
			notice = e
		}
	}
	if !strings.Contains(confirmation.HTML, "Grace") || !strings.Contains(confirmation.HTML, "Owner") {
		t.Errorf("Unexpected confirmation body: %s", confirmation.HTML)
	}
	if notice.ReplyTo != "grace@example.com" {
		t.Errorf("Owner notification must reply to the sender, got %q", notice.ReplyTo)
	}
	if !strings.Contains(notice.HTML, "Nice blog") {
		t.Error("Owner notification must include the message")
	}
}

func TestContactValidation(t *testing.T) {
	s := newTestContactService(&fakeMailer{})
	cases := map[string]func(*ContactMessage){
		"missing name":    func(m *ContactMessage) { m.Name = "" },
		"missing message": func(m *ContactMessage) { m.Message = "  " },
		"bad email":       func(m *ContactMessage) { m.Email = "grace@example" },
		"email with space": func(m *ContactMessage) {
			m.Email = "gr ace@example.com"
		},
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			msg := validContact()
			mutate(&msg)
			if err := s.Submit(context.Background(), msg); !errors.Is(err, ErrValidation) {
				t.Errorf("Expected ErrValidation, got %v", err)
			}
		})
	}
}

func TestContactRateLimit(t *testing.T) {
	mailer := &fakeMailer{}
	s := newTestContactService(mailer)
	ctx := context.Background()

	for i := 0; i < ContactRateLimit; i++ {
		if err := s.Submit(ctx, validContact()); err != nil {
			t.Fatalf("submit %d: %v", i+1, err)
		}
	}
	if err := s.Submit(ctx, validContact()); !errors.Is(err, ErrRateLimited) {
		t.Errorf("Expected ErrRateLimited, got %v", err)
	}
	if len(mailer.sent) != 2*ContactRateLimit {
		t.Errorf("Refused submit must not send, got %d emails", len(mailer.sent))
	}
}

func TestContactNotConfigured(t *testing.T) {
	s := newTestContactService(nil)
	if err := s.Submit(context.Background(), validContact()); !errors.Is(err, ErrMailerNotConfigured) {
		t.Errorf("Expected ErrMailerNotConfigured, got %v", err)
	}
}

func TestContactGatewayError(t *testing.T) {
	msg := validContact()
	mailer := &fakeMailer{fail: map[string]bool{"grace@example.com": true}}
	s := newTestContactService(mailer)
	if err := s.Submit(context.Background(), msg); err == nil {
		t.Error("Expected gateway error to be returned")
	}
}
