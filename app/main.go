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

	"github.com/Fredkai/kaitech-news-intelligence/app/aggregator"
	"github.com/Fredkai/kaitech-news-intelligence/app/api"
	"github.com/Fredkai/kaitech-news-intelligence/app/archive"
	"github.com/Fredkai/kaitech-news-intelligence/app/cache"
	"github.com/Fredkai/kaitech-news-intelligence/app/cfg"
	"github.com/Fredkai/kaitech-news-intelligence/app/enrich"
	"github.com/Fredkai/kaitech-news-intelligence/app/feed"
	"github.com/Fredkai/kaitech-news-intelligence/app/query"
	"github.com/Fredkai/kaitech-news-intelligence/app/sources"
)

func main() {
	appCfg, err := cfg.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}
	if appCfg == nil {
		// Help was shown, exit gracefully
		return
	}

	logLevel := slog.LevelInfo
	if appCfg.Debug {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	})))

	slog.Info("Starting KaiTech News Intelligence", "version", appCfg.Version)

	srcs, err := sources.Load(appCfg.SourcesFile)
	if err != nil {
		slog.Error("Failed to load news sources", "error", err)
		os.Exit(1)
	}
	slog.Info("Loaded news sources", "count", len(srcs))

	var store cache.Store
	if appCfg.RedisAddr != "" {
		store = cache.NewRedis(appCfg.RedisAddr)
	} else {
		slog.Info("No Redis address configured, using in-memory cache")
		store = cache.NewMemory()
	}
	defer store.Close()

	var arc *archive.Archive
	if appCfg.PostgresDSN != "" {
		arc, err = archive.Open(appCfg.PostgresDSN)
		if err != nil {
			slog.Warn("Article archive unavailable, continuing without it", "error", err)
			arc = nil
		} else {
			slog.Info("Article archive connected")
		}
	}

	var enricher enrich.Enricher
	if appCfg.EnrichProvider == "remote" && appCfg.EnrichURL != "" {
		slog.Info("Using remote enrichment provider", "url", appCfg.EnrichURL)
		enricher = enrich.NewRemote(appCfg.EnrichURL, store)
	} else {
		enricher = enrich.NewHeuristic()
	}
	runner := enrich.NewRunner(enricher)

	fetcher := feed.NewFetcher(appCfg.UserAgent)
	ttl := appCfg.CacheTTLDuration()

	agg := aggregator.New(fetcher, srcs, runner, store, arc, ttl)
	if err := agg.Start(); err != nil {
		slog.Error("Failed to start aggregator", "error", err)
		os.Exit(1)
	}
	defer agg.Stop()

	svc := query.NewService(store, agg, ttl)
	handler := api.NewHandler(svc, store, arc, agg, len(srcs), ttl, appCfg.Version)
	server := api.NewServer(handler, appCfg.APIAccessKey)

	httpServer := &http.Server{
		Addr:         ":" + appCfg.Port,
		Handler:      server,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	serverErrChan := make(chan error, 1)
	go func() {
		slog.Info("HTTP server listening", "port", appCfg.Port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		slog.Info("Received signal", "signal", sig.String())
	case err := <-serverErrChan:
		slog.Error("Server error", "error", err)
	}

	slog.Info("Shutting down gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	}

	// Aggregator and cache store are stopped via defer
	slog.Info("Shutdown complete")
}
