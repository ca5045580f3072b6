package database

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"blogfolio/pkg/models"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Open error: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestOpenRunsMigrations(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")
	db, err := Open(path)
	if err != nil {
		t.Fatalf("Open error: %v", err)
	}
	db.Close()

	// Reopening an up-to-date database must not fail.
	db, err = Open(path)
	if err != nil {
		t.Fatalf("Reopen error: %v", err)
	}
	defer db.Close()

	for _, table := range []string{"subscribers", "admins", "photos", "notifications"} {
		var name string
		err := db.QueryRow(`SELECT name FROM sqlite_master WHERE type='table' AND name=?`, table).Scan(&name)
		if err != nil {
			t.Errorf("Expected table %s to exist: %v", table, err)
		}
	}
}

func TestSubscriberInsertAndDuplicate(t *testing.T) {
	ctx := context.Background()
	repo := NewSubscriberRepository(openTestDB(t))

	sub, err := repo.Insert(ctx, "reader@example.com", time.Now())
	if err != nil {
		t.Fatalf("Insert error: %v", err)
	}
	if sub.ID == "" || !sub.IsActive {
		t.Errorf("Unexpected subscriber: %+v", sub)
	}

	if _, err := repo.Insert(ctx, "reader@example.com", time.Now()); !errors.Is(err, ErrDuplicateSubscriber) {
		t.Errorf("Expected ErrDuplicateSubscriber, got %v", err)
	}

	found, err := repo.FindByEmail(ctx, "reader@example.com")
	if err != nil || found == nil {
		t.Fatalf("FindByEmail error: %v", err)
	}
	if found.ID != sub.ID {
		t.Errorf("Expected id %s, got %s", sub.ID, found.ID)
	}

	missing, err := repo.FindByEmail(ctx, "nobody@example.com")
	if err != nil || missing != nil {
		t.Errorf("Expected nil, nil for unknown email, got %+v, %v", missing, err)
	}
}

func TestSubscriberListActive(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	repo := NewSubscriberRepository(db)

	for _, email := range []string{"a@example.com", "b@example.com", "c@example.com"} {
		if _, err := repo.Insert(ctx, email, time.Now()); err != nil {
			t.Fatalf("Insert error: %v", err)
		}
	}
	if _, err := db.Exec(`UPDATE subscribers SET is_active = 0 WHERE email = 'b@example.com'`); err != nil {
		t.Fatal(err)
	}

	active, err := repo.ListActive(ctx)
	if err != nil {
		t.Fatalf("ListActive error: %v", err)
	}
	if len(active) != 2 {
		t.Fatalf("Expected 2 active subscribers, got %d", len(active))
	}
	for _, s := range active {
		if s.Email == "b@example.com" {
			t.Error("Inactive subscriber returned")
		}
	}

	count, err := repo.CountActive(ctx)
	if err != nil || count != 2 {
		t.Errorf("Expected count 2, got %d (%v)", count, err)
	}
}

func TestPhotoLifecycle(t *testing.T) {
	ctx := context.Background()
	repo := NewPhotoRepository(openTestDB(t))

	first, err := repo.Insert(ctx, models.Photo{ImageURL: "/uploads/photos/a.jpg", DisplayOrder: 2, IsVisible: true})
	if err != nil {
		t.Fatalf("Insert error: %v", err)
	}
	second, err := repo.Insert(ctx, models.Photo{ImageURL: "https://cdn.example.com/b.jpg", DisplayOrder: 1, IsVisible: false})
	if err != nil {
		t.Fatalf("Insert error: %v", err)
	}

	visible, err := repo.List(ctx, false)
	if err != nil {
		t.Fatalf("List error: %v", err)
	}
	if len(visible) != 1 || visible[0].ID != first.ID {
		t.Fatalf("Expected only the visible photo, got %+v", visible)
	}

	all, err := repo.List(ctx, true)
	if err != nil {
		t.Fatalf("List error: %v", err)
	}
	if len(all) != 2 || all[0].ID != second.ID {
		t.Fatalf("Expected display order to sort second first, got %+v", all)
	}

	second.AltText = "sunset"
	second.IsVisible = true
	if err := repo.Update(ctx, *second); err != nil {
		t.Fatalf("Update error: %v", err)
	}
	got, err := repo.Get(ctx, second.ID)
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if got.AltText != "sunset" || !got.IsVisible {
		t.Errorf("Update not applied: %+v", got)
	}

	if err := repo.SetVisibility(ctx, first.ID, false); err != nil {
		t.Fatalf("SetVisibility error: %v", err)
	}
	if err := repo.Delete(ctx, first.ID); err != nil {
		t.Fatalf("Delete error: %v", err)
	}
	if err := repo.Delete(ctx, first.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound on second delete, got %v", err)
	}
	if _, err := repo.Get(ctx, first.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestAdminAllowlist(t *testing.T) {
	ctx := context.Background()
	repo := NewAdminRepository(openTestDB(t))

	if err := repo.Add(ctx, " Owner@Example.com "); err != nil {
		t.Fatalf("Add error: %v", err)
	}
	if err := repo.Add(ctx, "owner@example.com"); err != nil {
		t.Fatalf("Second Add error: %v", err)
	}

	ok, err := repo.IsAdmin(ctx, "OWNER@example.com")
	if err != nil || !ok {
		t.Errorf("Expected admin match, got %v, %v", ok, err)
	}
	ok, err = repo.IsAdmin(ctx, "")
	if err != nil || ok {
		t.Errorf("Empty email must not be admin, got %v, %v", ok, err)
	}

	list, err := repo.List(ctx)
	if err != nil || len(list) != 1 {
		t.Errorf("Expected one admin, got %v (%v)", list, err)
	}
}

func TestNotificationLedger(t *testing.T) {
	ctx := context.Background()
	repo := NewNotificationRepository(openTestDB(t))

	rec, err := repo.LastNotified(ctx, "hello-world")
	if err != nil || rec != nil {
		t.Fatalf("Expected no record, got %+v, %v", rec, err)
	}

	base := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	for i, sent := range []int{3, 5} {
		err := repo.RecordNotification(ctx, models.NotificationRecord{
			Slug:       "hello-world",
			RunID:      []string{"run-1", "run-2"}[i],
			NotifiedAt: base.Add(time.Duration(i) * time.Hour),
			Sent:       sent,
			Total:      5,
		})
		if err != nil {
			t.Fatalf("RecordNotification error: %v", err)
		}
	}

	rec, err = repo.LastNotified(ctx, "hello-world")
	if err != nil || rec == nil {
		t.Fatalf("LastNotified error: %v", err)
	}
	if rec.RunID != "run-2" || rec.Sent != 5 {
		t.Errorf("Expected latest run, got %+v", rec)
	}
	if !rec.NotifiedAt.Equal(base.Add(time.Hour)) {
		t.Errorf("Unexpected notified_at %v", rec.NotifiedAt)
	}
}
