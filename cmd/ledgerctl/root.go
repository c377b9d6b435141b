package main

import (
	"fmt"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/rkco/fuel-ledger/internal/config"
	"github.com/rkco/fuel-ledger/internal/database"
	"github.com/rkco/fuel-ledger/internal/jobs"
	"github.com/rkco/fuel-ledger/internal/repository"
	"github.com/rkco/fuel-ledger/internal/services"
	"github.com/rkco/fuel-ledger/internal/storage"
	"github.com/rkco/fuel-ledger/pkg/logger"
)

var envFile string

var rootCmd = &cobra.Command{
	Use:   "ledgerctl",
	Short: "Operator commands for the fuel ledger",
	Long: `ledgerctl runs maintenance tasks against the fuel ledger database
using the same configuration as the API server (DATABASE_URL and friends).`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "Environment file to load before reading configuration")
}

// app is the wired service layer for one command run
type app struct {
	cfg    *config.Config
	svcs   *services.Services
	worker *jobs.Worker
}

// Close waits for queued audit writes and alerts
func (a *app) Close() {
	a.worker.Shutdown()
}

func bootstrap() (*app, error) {
	if err := godotenv.Load(envFile); err != nil {
		logger.Debug("No env file loaded", "path", envFile)
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	logger.Setup(cfg.Environment)

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	if err := database.Migrate(db); err != nil {
		return nil, err
	}

	store, err := storage.NewLocalStorage(cfg.StoragePath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	worker := jobs.NewWorker(1)
	svcs := services.NewServices(repository.NewRepositories(db), worker, store, cfg)
	return &app{cfg: cfg, svcs: svcs, worker: worker}, nil
}
