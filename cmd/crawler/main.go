package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/use-agent/sitecrawl/api"
	"github.com/use-agent/sitecrawl/browser"
	"github.com/use-agent/sitecrawl/config"
	"github.com/use-agent/sitecrawl/crawler"
	"github.com/use-agent/sitecrawl/store"
)

func main() {
	// ── 1. Load configuration ───────────────────────────────────────
	cfg := config.Load()

	// ── 2. Initialise structured logging ────────────────────────────
	initLogger(cfg.Log)
	slog.Info("sitecrawl starting",
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
		"maxPages", cfg.Browser.MaxPages,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ── 3. Open the database and run migrations ─────────────────────
	db, err := store.Open(ctx, cfg.Database)
	if err != nil {
		slog.Error("failed to open database", "error", err)
		os.Exit(1)
	}

	siteStore := store.NewGormSiteStore(db)
	postStore := store.NewGormPostStore(db)
	userStore := store.NewGormUserStore(db)
	keyStore := store.NewGormAPIKeyStore(db)

	// ── 4. Launch the headless browser ──────────────────────────────
	br, err := browser.Launch(cfg.Browser)
	if err != nil {
		slog.Error("failed to launch browser", "error", err)
		os.Exit(1)
	}
	defer br.Close()

	// ── 5. Wire the crawl engine ─────────────────────────────────────
	open := func(openCtx context.Context, url string) (crawler.Driver, error) {
		return br.Open(openCtx, url, 0, 0)
	}

	tracker := crawler.NewSiteErrorTracker()

	discovery := crawler.NewDiscoveryJob(siteStore, postStore, tracker, open, crawler.DiscoveryConfig{
		InterSiteSleep:   cfg.Crawler.DiscoveryInterSiteSleep,
		SiteTimeout:      cfg.Crawler.DiscoverySiteTimeout,
		DisableThreshold: cfg.Crawler.SiteErrorDisableThreshold,
	})

	fetchPool := crawler.NewFetchPool(postStore, tracker, open, crawler.FetchConfig{
		Concurrency:    cfg.Crawler.PostConcurrency,
		MaxRetry:       cfg.Crawler.MaxRetryPost,
		PostTimeout:    cfg.Crawler.PostTimeout,
		BrowserTimeout: cfg.Crawler.BrowserStartTimeout,
	})

	retention := crawler.NewRetentionJob(postStore, cfg.Crawler.PostKeepLatest)

	scheduler, err := crawler.NewScheduler(ctx, []crawler.CronDefinition{
		{
			Name:     "fetch_new_posts",
			Schedule: fmt.Sprintf("@every %s", cfg.Crawler.PostCheckInterval),
			Tasks: []crawler.Task{
				discovery.Run,
				fetchPool.Run,
			},
		},
		{
			Name:     "cleanup_old_posts",
			Schedule: fmt.Sprintf("@every %s", cfg.Crawler.RetentionInterval),
			Tasks:    []crawler.Task{retention.Run},
		},
	})
	if err != nil {
		slog.Error("failed to build scheduler", "error", err)
		os.Exit(1)
	}
	scheduler.Start()
	defer scheduler.Stop()

	// ── 6. Setup router ─────────────────────────────────────────────
	startTime := time.Now()
	router := api.NewRouter(br, siteStore, postStore, userStore, keyStore, cfg, startTime)

	// ── 7. Start HTTP server ────────────────────────────────────────
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	go func() {
		slog.Info("HTTP server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("HTTP server error", "error", err)
			os.Exit(1)
		}
	}()

	// ── 8. Graceful shutdown ────────────────────────────────────────
	<-ctx.Done()
	slog.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server forced shutdown", "error", err)
	} else {
		slog.Info("HTTP server drained gracefully")
	}

	// scheduler.Stop() and br.Close() run via defer.
	slog.Info("sitecrawl stopped")
}

// initLogger configures slog based on the LogConfig.
func initLogger(cfg config.LogConfig) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if cfg.Format == "text" {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	slog.SetDefault(slog.New(handler))
}
