package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/jessevdk/go-flags"
	"github.com/joho/godotenv"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/github"
)

// PlaceholderAPIKey is the value deploy pipelines put in RESEND_API_KEY
// when building without secrets. It counts as "not configured".
const PlaceholderAPIKey = "re_dummy_key_for_build"

type Config struct {
	// Server
	Port    string `long:"port" env:"PORT" default:"8080" description:"HTTP server port"`
	SiteURL string `long:"site-url" env:"SITE_URL" default:"http://localhost:8080" description:"Public base URL used in article links"`

	// Content
	ContentDir string `long:"content-dir" env:"CONTENT_DIR" default:"./content/notes" description:"Directory holding published articles"`
	DraftDir   string `long:"draft-dir" env:"DRAFT_DIR" description:"Directory holding draft articles (default: <content-dir>/draft_folder)"`
	PublicDir  string `long:"public-dir" env:"PUBLIC_DIR" default:"./public" description:"Directory served as static files"`
	DataDir    string `long:"data-dir" env:"DATA_DIR" default:"./data" description:"Directory holding featured.json"`
	ResumeFile string `long:"resume-file" env:"RESUME_FILE" default:"resume.pdf" description:"File name of the uploaded resume inside the public dir"`

	// Storage
	DBPath    string `long:"db-path" env:"DB_PATH" default:"./blogfolio.db" description:"SQLite database path"`
	RedisAddr string `long:"redis-addr" env:"REDIS_ADDR" description:"Redis address for contact rate limiting (optional)"`

	// Email
	ResendAPIKey      string `long:"resend-api-key" env:"RESEND_API_KEY" description:"Resend API key"`
	MailFrom          string `long:"mail-from" env:"MAIL_FROM" default:"Blog <onboarding@resend.dev>" description:"Sender for subscriber notifications"`
	ContactFrom       string `long:"contact-from" env:"CONTACT_FROM" default:"Contact Form <onboarding@resend.dev>" description:"Sender for contact form emails"`
	OwnerEmail        string `long:"owner-email" env:"OWNER_EMAIL" description:"Address receiving contact form submissions"`
	OwnerName         string `long:"owner-name" env:"OWNER_NAME" default:"Site Owner" description:"Name used to sign contact confirmations"`
	NotifyBatchSize   int    `long:"notify-batch-size" env:"NOTIFY_BATCH_SIZE" default:"50" description:"Subscribers per notification batch"`
	NotifyConcurrency int    `long:"notify-concurrency" env:"NOTIFY_CONCURRENCY" default:"50" description:"Concurrent sends inside a batch"`

	// Admin auth
	SessionSecret      string   `long:"session-secret" env:"SESSION_SECRET" description:"Cookie session secret"`
	GitHubClientID     string   `long:"github-client-id" env:"GITHUB_CLIENT_ID" description:"GitHub OAuth client id"`
	GitHubClientSecret string   `long:"github-client-secret" env:"GITHUB_CLIENT_SECRET" description:"GitHub OAuth client secret"`
	GitHubRedirectURL  string   `long:"github-redirect-url" env:"GITHUB_REDIRECT_URL" description:"OAuth callback URL (default: <site-url>/auth/callback)"`
	AdminEmails        []string `long:"admin-email" env:"ADMIN_EMAILS" env-delim:"," description:"Email allowed to use the admin API (repeatable)"`
	HookAPIKey         string   `long:"hook-api-key" env:"HOOK_API_KEY" description:"API key for push hooks and scripts"`

	// Git
	RepoPath     string `long:"repo-path" env:"REPO_PATH" default:"." description:"Git repository containing the content directory"`
	GitBranch    string `long:"git-branch" env:"GIT_BRANCH" default:"main" description:"Branch to sync and push"`
	GitRemote    string `long:"git-remote" env:"GIT_REMOTE" default:"origin" description:"Remote to sync and push"`
	GitUserName  string `long:"git-user-name" env:"GIT_USER_NAME" default:"Blogfolio Bot" description:"Commit author name"`
	GitUserEmail string `long:"git-user-email" env:"GIT_USER_EMAIL" default:"bot@blogfolio.local" description:"Commit author email"`

	// Logging
	LogLevel string `long:"log-level" env:"LOG_LEVEL" default:"info" description:"Log level (debug, info, warn, error)"`
	Debug    bool   `long:"debug" env:"DEBUG" description:"Enable debug logging and gin debug mode"`
}

// LoadDotEnv reads .env into the process environment. A missing file is fine.
func LoadDotEnv(files ...string) {
	if err := godotenv.Load(files...); err != nil {
		fmt.Println("No .env file found or error loading it.")
	}
}

// Load parses args (without the program name) on top of the environment.
// It returns nil, nil when help was requested.
func Load(args []string) (*Config, error) {
	LoadDotEnv()

	var cfg Config
	parser := flags.NewParser(&cfg, flags.Default)
	if _, err := parser.ParseArgs(args); err != nil {
		var flagsErr *flags.Error
		if errors.As(err, &flagsErr) && flagsErr.Type == flags.ErrHelp {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	if err := cfg.Finalize(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Finalize fills derived defaults and validates values that flags cannot.
func (c *Config) Finalize() error {
	c.SiteURL = strings.TrimRight(c.SiteURL, "/")
	if c.DraftDir == "" {
		c.DraftDir = filepath.Join(c.ContentDir, "draft_folder")
	}
	if c.GitHubRedirectURL == "" {
		c.GitHubRedirectURL = c.SiteURL + "/auth/callback"
	}

	emails := c.AdminEmails[:0]
	for _, e := range c.AdminEmails {
		if e = strings.TrimSpace(e); e != "" {
			emails = append(emails, strings.ToLower(e))
		}
	}
	c.AdminEmails = emails

	if c.GitHubClientID != "" && c.SessionSecret == "" {
		return errors.New("session secret is required when GitHub login is configured")
	}

	if c.NotifyBatchSize <= 0 {
		return fmt.Errorf("notify batch size must be positive, got %d", c.NotifyBatchSize)
	}
	if c.NotifyConcurrency <= 0 {
		return fmt.Errorf("notify concurrency must be positive, got %d", c.NotifyConcurrency)
	}
	return nil
}

// EmailConfigured reports whether a usable gateway key is present.
func (c *Config) EmailConfigured() bool {
	key := strings.TrimSpace(c.ResendAPIKey)
	return key != "" && key != PlaceholderAPIKey
}

func (c *Config) OAuthConfig() *oauth2.Config {
	return &oauth2.Config{
		ClientID:     c.GitHubClientID,
		ClientSecret: c.GitHubClientSecret,
		Scopes:       []string{"read:user", "user:email", "repo"},
		Endpoint:     github.Endpoint,
		RedirectURL:  c.GitHubRedirectURL,
	}
}
