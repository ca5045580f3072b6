// Package app builds the services shared by the HTTP server and the admin
// CLI from a loaded configuration.
package app

import (
	"context"
	"database/sql"
	"errors"

	"blogfolio/pkg/config"
	"blogfolio/pkg/database"
	"blogfolio/pkg/services"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

type App struct {
	Config *config.Config
	Log    *logrus.Logger
	DB     *sql.DB
	Redis  *redis.Client

	Subscribers   *database.SubscriberRepository
	Admins        *database.AdminRepository
	Notifications *database.NotificationRepository

	Content       *services.ContentManager
	Dispatcher    *services.Dispatcher
	Subscriptions *services.SubscriptionService
	Contact       *services.ContactService
	Media         *services.MediaStore
	Photos        *services.PhotoService
	Site          *services.SiteService
	Git           *services.GitService
}

// New opens the database, seeds the admin allowlist and wires every
// service. Callers must Close the returned App.
func New(ctx context.Context, cfg *config.Config, logger *logrus.Logger) (*App, error) {
	db, err := database.Open(cfg.DBPath)
	if err != nil {
		return nil, err
	}
	a := &App{
		Config:        cfg,
		Log:           logger,
		DB:            db,
		Subscribers:   database.NewSubscriberRepository(db),
		Admins:        database.NewAdminRepository(db),
		Notifications: database.NewNotificationRepository(db),
	}

	for _, email := range cfg.AdminEmails {
		if err := a.Admins.Add(ctx, email); err != nil {
			db.Close()
			return nil, err
		}
	}

	var mailer services.Mailer
	if cfg.EmailConfigured() {
		mailer = services.NewResendMailer(cfg.ResendAPIKey)
	} else {
		logger.Warn("RESEND_API_KEY not set, email features are disabled")
	}

	var limiter services.RateLimiter
	if cfg.RedisAddr != "" {
		client, err := services.NewRedisClient(ctx, cfg.RedisAddr)
		if err != nil {
			db.Close()
			return nil, err
		}
		a.Redis = client
		limiter = services.NewRedisRateLimiter(client, services.ContactRateLimit, services.ContactRateWindow)
		logger.WithField("addr", cfg.RedisAddr).Info("Connected to Redis")
	} else {
		limiter = services.NewMemoryRateLimiter(services.ContactRateLimit, services.ContactRateWindow)
	}

	a.Content = services.NewContentManager(services.NewFileRepository(cfg.ContentDir, cfg.DraftDir), logger)
	a.Dispatcher = services.NewDispatcher(a.Content, a.Subscribers, a.Notifications, mailer, services.DispatcherConfig{
		SiteURL:     cfg.SiteURL,
		From:        cfg.MailFrom,
		BatchSize:   cfg.NotifyBatchSize,
		Concurrency: cfg.NotifyConcurrency,
	}, logger)
	a.Subscriptions = services.NewSubscriptionService(a.Subscribers, logger)
	a.Contact = services.NewContactService(mailer, limiter, services.ContactConfig{
		From:       cfg.ContactFrom,
		OwnerEmail: cfg.OwnerEmail,
		OwnerName:  cfg.OwnerName,
	}, logger)
	a.Media = services.NewMediaStore(cfg.PublicDir, cfg.ResumeFile)
	a.Photos = services.NewPhotoService(database.NewPhotoRepository(db), a.Media, logger)
	a.Site = services.NewSiteService(cfg.DataDir, cfg.PublicDir, cfg.OwnerName, logger)
	a.Git = services.NewGitService(services.GitConfig{
		RepoPath:   cfg.RepoPath,
		ContentDir: cfg.ContentDir,
		Branch:     cfg.GitBranch,
		Remote:     cfg.GitRemote,
		UserName:   cfg.GitUserName,
		UserEmail:  cfg.GitUserEmail,
	}, logger)

	return a, nil
}

func (a *App) Close() error {
	var errs []error
	if a.Redis != nil {
		errs = append(errs, a.Redis.Close())
	}
	errs = append(errs, a.DB.Close())
	return errors.Join(errs...)
}
