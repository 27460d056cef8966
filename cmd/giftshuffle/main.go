// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package main is the entry point for the gift shuffle server.
// It loads configuration, connects to services, sets up routing, and starts
// the HTTP server with graceful shutdown support.
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"giftshuffle/internal/cache"
	"giftshuffle/internal/config"
	"giftshuffle/internal/database"
	"giftshuffle/internal/handlers"
	"giftshuffle/internal/middleware"
	"giftshuffle/internal/query"
	"giftshuffle/internal/render"
	"giftshuffle/internal/router"
	"giftshuffle/internal/session"
	"giftshuffle/internal/storage"
	"giftshuffle/internal/store"
	"giftshuffle/internal/theme"
)

func main() {
	// Structured logger: text in development, JSON otherwise.
	level := slog.LevelInfo
	if os.Getenv("APP_ENV") == "" || os.Getenv("APP_ENV") == "development" {
		level = slog.LevelDebug
	}
	var handler slog.Handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	if level == slog.LevelDebug {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	}
	slog.SetDefault(slog.New(handler))

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	slog.Info("configuration loaded",
		"env", cfg.Env,
		"addr", cfg.Addr(),
		"animation_unit", cfg.AnimationUnit,
	)

	db, err := database.Connect(cfg.DSN())
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		slog.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	// Seed the default admin and settings (no-op when present).
	if cfg.IsDev() {
		if err := database.Seed(db); err != nil {
			slog.Error("failed to seed database", "error", err)
			os.Exit(1)
		}
	}

	// Valkey backs sessions and the stage cache.
	valkeyClient, err := cache.ConnectValkey(cfg.ValkeyAddr(), cfg.ValkeyPassword)
	if err != nil {
		slog.Error("failed to connect to valkey", "error", err)
		os.Exit(1)
	}
	defer valkeyClient.Close()

	secureCookies := !cfg.IsDev()
	sessionStore := session.NewStore(valkeyClient, secureCookies)

	renderer, err := render.New(cfg.IsDev())
	if err != nil {
		slog.Error("failed to initialize template renderer", "error", err)
		os.Exit(1)
	}

	exec := query.NewExecutor(db)
	userStore := store.NewUserStore(exec)
	settingStore := store.NewSettingStore(exec)
	activityStore := store.NewActivityStore(exec)
	themeStore := store.NewThemeStore(exec)

	pageCache := cache.NewPageCache(valkeyClient, cache.DefaultPageTTL)

	// Themes: database rows, then the themes directory, then built-ins.
	dirProvider := theme.NewDirProvider(cfg.ThemesDir, cfg.ThemesURLPrefix)
	themes := theme.NewResolver(theme.NewDBProvider(themeStore), dirProvider)

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	if cfg.ThemesWatch {
		watcher, err := theme.NewWatcher(dirProvider)
		if err != nil {
			slog.Error("failed to create themes watcher", "error", err)
			os.Exit(1)
		}
		watcher.OnChange = func() {
			pageCache.InvalidateAll(context.Background())
		}
		if err := watcher.Start(ctx); err != nil {
			slog.Warn("themes directory not watched", "error", err)
		} else {
			themes = themes.WithScanner(watcher)
		}
		defer watcher.Stop()
	}

	// Object storage for theme previews is optional.
	var storageClient *storage.Client
	if cfg.S3Enabled() {
		storageClient, err = storage.New(
			cfg.S3Endpoint, cfg.S3Region, cfg.S3AccessKey, cfg.S3SecretKey,
			cfg.S3Bucket, cfg.S3PublicURL,
		)
		if err != nil {
			slog.Error("failed to initialize S3 storage", "error", err)
			os.Exit(1)
		}
		slog.Info("s3 storage connected", "endpoint", cfg.S3Endpoint, "bucket", cfg.S3Bucket)
	} else {
		slog.Warn("s3 storage not configured, theme preview uploads disabled")
	}

	loginLimiter := middleware.NewRateLimiter(cfg.LoginRateLimit, time.Minute)
	defer loginLimiter.Stop()

	adminHandlers := handlers.NewAdmin(renderer, settingStore, activityStore, themeStore, userStore, themes, storageClient, pageCache)
	authHandlers := handlers.NewAuth(renderer, sessionStore, userStore, activityStore, loginLimiter)
	publicHandlers := handlers.NewPublic(renderer, themes, settingStore, activityStore, pageCache, cfg.AnimationUnit)

	r := router.New(sessionStore, adminHandlers, authHandlers, publicHandlers, router.Options{
		ThemesDir:       cfg.ThemesDir,
		ThemesURLPrefix: cfg.ThemesURLPrefix,
		Secure:          secureCookies,
		TrustedProxies:  cfg.TrustedProxies,
	})

	// No WriteTimeout: the reveal websocket is long-lived and sets its own
	// write deadlines.
	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		slog.Info("server starting", "addr", cfg.Addr())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown: wait for SIGINT or SIGTERM, then drain connections.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	slog.Info("shutdown signal received", "signal", sig)
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("server stopped gracefully")
}
