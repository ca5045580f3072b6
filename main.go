package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"blogfolio/pkg/app"
	"blogfolio/pkg/config"
	"blogfolio/pkg/handlers"
	"blogfolio/pkg/logging"
)

func main() {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if cfg == nil {
		// Help was shown
		return
	}

	logger := logging.New(cfg.LogLevel, cfg.Debug)
	logger.Info("Starting blogfolio server...")

	a, err := app.New(context.Background(), cfg, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to initialize")
	}
	defer a.Close()

	if cfg.SessionSecret == "" {
		logger.Warn("SESSION_SECRET not set, GitHub login is disabled; admin routes accept the API key only")
	}
	if len(cfg.AdminEmails) == 0 {
		logger.Warn("ADMIN_EMAILS not set, GitHub logins will be refused")
	}

	h := handlers.NewHandler(handlers.Deps{
		Content:       a.Content,
		Dispatcher:    a.Dispatcher,
		Subscriptions: a.Subscriptions,
		Contact:       a.Contact,
		Media:         a.Media,
		Photos:        a.Photos,
		Site:          a.Site,
		Git:           a.Git,
		SiteURL:       cfg.SiteURL,
		SiteTitle:     cfg.OwnerName + "'s Blog",
		Log:           logger,
	})
	auth := handlers.NewAuth(cfg.OAuthConfig(), a.Admins, cfg.HookAPIKey, logger)
	engine := handlers.NewServer(h, auth, handlers.ServerOptions{
		SessionSecret: cfg.SessionSecret,
		PublicDir:     cfg.PublicDir,
		ResumeFile:    cfg.ResumeFile,
		HookEnabled:   cfg.HookAPIKey != "",
		Debug:         cfg.Debug,
	}, logger)

	// Notification runs answer only after every batch, so writes get a
	// longer deadline than reads.
	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      engine,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 5 * time.Minute,
		IdleTimeout:  120 * time.Second,
	}

	serverErrChan := make(chan error, 1)
	go func() {
		logger.Infof("Starting HTTP server on port %s", cfg.Port)
		if cfg.HookAPIKey == "" {
			logger.Info("Push hook: DISABLED (HOOK_API_KEY not set)")
		}
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		logger.Infof("Received signal: %v", sig)
	case err := <-serverErrChan:
		logger.WithError(err).Error("Server error")
	}

	logger.Info("Shutting down server gracefully...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("Server shutdown error")
	}
	logger.Info("Server stopped")
}
