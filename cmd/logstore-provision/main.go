package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/qscale/logstore/internal/catalog"
	"github.com/qscale/logstore/internal/config"
	"github.com/qscale/logstore/internal/logging"
	storemongo "github.com/qscale/logstore/internal/store/mongo"
)

func main() {
	configPath := flag.String("config", "config/config.yml", "Path to configuration file")
	flag.Parse()

	// .env is optional; real deployments set the environment directly.
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

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Mongo.ConnectTimeout)
	defer cancel()

	provider, err := storemongo.NewProvider(ctx, cfg.Mongo.URI, cfg.Mongo.Database)
	if err != nil {
		slog.Error("Failed to connect to MongoDB", "error", err)
		os.Exit(1)
	}
	defer provider.Close(context.Background())

	provisioner := storemongo.NewProvisioner(provider, cat, cfg.Provision, slog.Default())
	if err := provisioner.Run(context.Background()); err != nil {
		slog.Error("Provisioning failed", "error", err)
		os.Exit(1)
	}

	slog.Info("Provisioning finished", "database", cfg.Mongo.Database)
}
