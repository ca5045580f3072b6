package config

import (
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("RESEND_API_KEY", "")
	t.Setenv("ADMIN_EMAILS", "")
	t.Setenv("GITHUB_CLIENT_ID", "")

	cfg, err := Load([]string{"--content-dir", "/srv/notes"})
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}

	if cfg.Port != "8080" {
		t.Errorf("Expected port '8080', got '%s'", cfg.Port)
	}
	if cfg.DraftDir != filepath.Join("/srv/notes", "draft_folder") {
		t.Errorf("Expected derived draft dir, got '%s'", cfg.DraftDir)
	}
	if cfg.NotifyBatchSize != 50 {
		t.Errorf("Expected batch size 50, got %d", cfg.NotifyBatchSize)
	}
	if cfg.GitHubRedirectURL != "http://localhost:8080/auth/callback" {
		t.Errorf("Unexpected redirect URL '%s'", cfg.GitHubRedirectURL)
	}
	if cfg.EmailConfigured() {
		t.Error("Expected email to be unconfigured without a key")
	}
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("SITE_URL", "https://blog.example.com/")
	t.Setenv("ADMIN_EMAILS", "Admin@Example.com, other@example.com ,")
	t.Setenv("RESEND_API_KEY", "re_live_key")
	t.Setenv("NOTIFY_BATCH_SIZE", "10")
	t.Setenv("GITHUB_CLIENT_ID", "")

	cfg, err := Load(nil)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}

	if cfg.SiteURL != "https://blog.example.com" {
		t.Errorf("Expected trailing slash trimmed, got '%s'", cfg.SiteURL)
	}
	if len(cfg.AdminEmails) != 2 || cfg.AdminEmails[0] != "admin@example.com" {
		t.Errorf("Unexpected admin emails: %v", cfg.AdminEmails)
	}
	if !cfg.EmailConfigured() {
		t.Error("Expected email to be configured")
	}
	if cfg.NotifyBatchSize != 10 {
		t.Errorf("Expected batch size 10, got %d", cfg.NotifyBatchSize)
	}
}

func TestPlaceholderKeyIsNotConfigured(t *testing.T) {
	cfg := &Config{ResendAPIKey: PlaceholderAPIKey}
	if cfg.EmailConfigured() {
		t.Error("Placeholder key must not count as configured")
	}
}

func TestFinalizeRejectsInvalidBatchSize(t *testing.T) {
	cfg := &Config{NotifyBatchSize: 0, NotifyConcurrency: 5}
	if err := cfg.Finalize(); err == nil {
		t.Error("Expected error for zero batch size")
	}
}

func TestFinalizeRequiresSessionSecretForLogin(t *testing.T) {
	cfg := &Config{GitHubClientID: "client", NotifyBatchSize: 50, NotifyConcurrency: 50}
	if err := cfg.Finalize(); err == nil {
		t.Error("Expected error for GitHub login without a session secret")
	}

	cfg.SessionSecret = "secret"
	if err := cfg.Finalize(); err != nil {
		t.Errorf("Unexpected error with session secret: %v", err)
	}

	noLogin := &Config{NotifyBatchSize: 50, NotifyConcurrency: 50}
	if err := noLogin.Finalize(); err != nil {
		t.Errorf("API-key-only setup should not need a session secret: %v", err)
	}
}
