package main

import (
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/launchdeck-lab/launchdeck-server/internal/api"
	"github.com/launchdeck-lab/launchdeck-server/internal/config"
	"github.com/launchdeck-lab/launchdeck-server/internal/database"
	"github.com/launchdeck-lab/launchdeck-server/internal/logging"
	"github.com/launchdeck-lab/launchdeck-server/internal/services/deployer"
	"github.com/launchdeck-lab/launchdeck-server/internal/services/inference"
	"github.com/launchdeck-lab/launchdeck-server/internal/services/registry"
	"go.uber.org/zap"
)

// Build information (set via ldflags)
var (
	Version    = "dev"
	CommitHash = "unknown"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration: ", err)
	}

	logger := logging.New(cfg.App.Environment, cfg.App.LogFilePath)
	defer logger.Sync()

	logger.Info("starting launchdeck server",
		zap.String("version", Version),
		zap.String("commit", CommitHash),
		zap.Bool("signer_configured", cfg.Signer.Configured()),
		zap.String("signer_address", cfg.Signer.Address()))

	db, err := database.New(cfg.Database.DSN)
	if err != nil {
		logger.Fatal("failed to initialize database", zap.Error(err))
	}
	defer db.Close()

	registryClient := registry.NewClient(cfg.Upstream.RegistryAPIURL, logger)
	deployerService := deployer.NewService(cfg, db, logger)
	inferenceClient := inference.NewClient(cfg, logger)

	server := api.NewAPIServer(cfg, db, registryClient, deployerService, inferenceClient, logger)

	port, err := strconv.Atoi(cfg.App.Port)
	if err != nil {
		logger.Fatal("invalid PORT", zap.String("port", cfg.App.Port))
	}
	boundPort, err := server.Start(port)
	if err != nil {
		logger.Fatal("failed to start API server", zap.Error(err))
	}
	logger.Info("API server listening", zap.Int("port", boundPort))

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	logger.Info("shutting down")
	if err := server.Shutdown(); err != nil {
		logger.Error("shutdown error", zap.Error(err))
	}
}
