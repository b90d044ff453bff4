package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/qscale/logstore/internal/catalog"
	"github.com/qscale/logstore/internal/config"
	"github.com/qscale/logstore/internal/logging"
	storemongo "github.com/qscale/logstore/internal/store/mongo"
)

func main() {
	configPath := flag.String("config", "config/config.yml", "Path to configuration file")
	once := flag.Bool("once", false, "Run a single sweep and exit")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Configuration error: %v", err)
	}

	if err := logging.Initialize(cfg.Logging); err != nil {
		log.Fatalf("Failed to initialize logging: %v", err)
	}
	defer logging.Shutdown()

	cat, err := catalog.Load(cfg.CatalogPath)
	if err != nil {
		slog.Error("Failed to load collection catalog", "error", err)
		os.Exit(1)
	}

	connectCtx, cancel := context.WithTimeout(context.Background(), cfg.Mongo.ConnectTimeout)
	defer cancel()

	provider, err := storemongo.NewProvider(connectCtx, cfg.Mongo.URI, cfg.Mongo.Database)
	if err != nil {
		slog.Error("Failed to connect to MongoDB", "error", err)
		os.Exit(1)
	}
	defer provider.Close(context.Background())

	reaper := storemongo.NewReaper(provider, cat, cfg.Reaper, slog.Default())

	if *once {
		reaper.Sweep(context.Background())
		return
	}

	bgCtx, bgCancel := context.WithCancel(context.Background())
	defer bgCancel()
	reaper.Start(bgCtx)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("Shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	bgCancel()
	if err := reaper.Stop(shutdownCtx); err != nil {
		slog.Warn("Reaper did not stop cleanly", "error", err)
	}
}
