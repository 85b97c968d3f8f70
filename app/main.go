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

	"github.com/lexhub/news-pipeline/app/api"
	"github.com/lexhub/news-pipeline/app/cfg"
	"github.com/lexhub/news-pipeline/app/database"
	"github.com/lexhub/news-pipeline/app/news"
	"github.com/lexhub/news-pipeline/app/pipeline"
	"github.com/lexhub/news-pipeline/app/source"
)

func main() {
	appCfg, err := cfg.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if appCfg == nil {
		// Help was requested.
		return
	}

	logLevel := slog.LevelInfo
	if appCfg.Debug {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel})))

	slog.Info("Starting LexHub News server", "version", appCfg.Version)

	db, err := database.NewConnection(appCfg.DBPath)
	if err != nil {
		slog.Error("Failed to open database", "path", appCfg.DBPath, "error", err)
		os.Exit(1)
	}
	defer db.Close()

	version, dirty, err := database.RunMigrations(db)
	if err != nil {
		slog.Error("Failed to run database migrations", "error", err)
		os.Exit(1)
	}
	slog.Info("Database ready", "path", appCfg.DBPath, "schema_version", version, "dirty", dirty)

	configCache := news.NewConfigCache(appCfg.CategoriesDir)
	if err := configCache.Run(); err != nil {
		slog.Error("Failed to load category configurations", "dir", appCfg.CategoriesDir, "error", err)
		os.Exit(1)
	}
	slog.Info("Category configurations loaded", "count", configCache.GetConfigCount())

	articleRepo := database.NewArticleRepository(db)
	settingRepo := database.NewSettingRepository(db)

	httpClient := &http.Client{}

	var src source.Source
	switch appCfg.SourceMode {
	case "fixture":
		src = source.NewFixtureSource()
	default:
		src = source.NewFeedSource(httpClient, news.NewParser(), appCfg.UserAgent)
	}
	slog.Info("Source initialized", "source", src.Name())

	matcher := news.NewMatcher()
	indexer := pipeline.NewIndexer(articleRepo)
	trimmer := pipeline.NewTrimmer(articleRepo)
	runner := pipeline.NewRunner(configCache, src, matcher, indexer, trimmer, settingRepo)

	scheduler := pipeline.NewScheduler(runner, articleRepo, configCache, httpClient,
		news.NewContentExtractor(), appCfg.UserAgent,
		time.Duration(appCfg.RefreshInterval)*time.Second, appCfg.WorkerCount)
	scheduler.Start()
	defer scheduler.Stop()
	slog.Info("Scheduler started", "workers", appCfg.WorkerCount, "interval", (time.Duration(appCfg.RefreshInterval) * time.Second).String())

	handler := api.NewHandler(articleRepo, settingRepo, configCache, scheduler, appCfg.Version)
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
			serverErrChan <- err
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		slog.Info("Received signal", "signal", sig.String())
	case err := <-serverErrChan:
		slog.Error("HTTP server error", "error", err)
	}

	slog.Info("Shutting down gracefully")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	}

	// Scheduler is stopped via defer.
	slog.Info("Shutdown complete")
}
