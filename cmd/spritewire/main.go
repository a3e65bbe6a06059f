// Spritewire - webhook and cron automation dispatch
//
// Spritewire listens for signed webhooks and cron ticks, matches them
// against a catalog of automations, renders each automation's
// instruction and dispatches it to the target sprite over the gateway.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/nerrad567/spritewire/migrations"

	"github.com/nerrad567/spritewire/internal/api"
	"github.com/nerrad567/spritewire/internal/automation"
	"github.com/nerrad567/spritewire/internal/dispatch"
	"github.com/nerrad567/spritewire/internal/executor"
	"github.com/nerrad567/spritewire/internal/infrastructure/config"
	"github.com/nerrad567/spritewire/internal/infrastructure/database"
	"github.com/nerrad567/spritewire/internal/infrastructure/logging"
	"github.com/nerrad567/spritewire/internal/scheduler"
	"github.com/nerrad567/spritewire/internal/source"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"     // Semantic version (e.g., "1.0.0")
	commit  = "unknown" // Git commit hash
	date    = "unknown" // Build date
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the actual application logic, separated from main for
// testability. Returning an error allows main to handle exit codes
// consistently.
func run(ctx context.Context) error {
	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting spritewire",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log.Info("configuration loaded", "path", configPath)

	// Reinitialise logger with config settings
	log = logging.New(cfg.Logging, version)
	log.Info("logger initialised",
		"level", cfg.Logging.Level,
		"format", cfg.Logging.Format,
	)

	// Open the catalog store
	db, err := database.Open(ctx, database.Config{
		Path:        cfg.Database.Path,
		WALMode:     cfg.Database.WALMode,
		BusyTimeout: cfg.Database.BusyTimeout,
	})
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer func() {
		log.Info("closing database")
		if closeErr := db.Close(); closeErr != nil {
			log.Error("error closing database", "error", closeErr)
		}
	}()
	log.Info("database connected", "path", cfg.Database.Path)

	if migrateErr := db.Migrate(ctx); migrateErr != nil {
		return fmt.Errorf("running migrations: %w", migrateErr)
	}
	log.Info("database migrations complete")

	repo := automation.NewSQLiteRepository(db.DB)
	registry := source.NewRegistry()
	log.Info("source adapters registered", "sources", registry.Names())

	exec := executor.New(executor.Config{
		URL:     cfg.Gateway.URL,
		Token:   cfg.Gateway.Token,
		Timeout: cfg.GetGatewayTimeout(),
	}, log)
	if cfg.Gateway.Token == "" {
		log.Warn("no gateway token configured, executions will fail closed")
	}

	// Scheduler: load cron automations and start firing
	sched := scheduler.New(repo, exec, log)
	if reconcileErr := sched.Reconcile(ctx); reconcileErr != nil {
		return fmt.Errorf("initial schedule reconciliation: %w", reconcileErr)
	}
	sched.Start()
	defer sched.Stop()
	log.Info("scheduler started", "registered", len(sched.LiveIDs()))

	dispatcher := dispatch.New(registry, cfg, repo, exec, log)

	server, err := api.New(api.Deps{
		Config:     cfg.API,
		Logger:     log,
		Repo:       repo,
		Registry:   registry,
		Dispatcher: dispatcher,
		Scheduler:  sched,
		Database:   db,
		Version:    version,
	})
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}
	if startErr := server.Start(ctx); startErr != nil {
		return fmt.Errorf("starting API server: %w", startErr)
	}
	defer func() {
		if closeErr := server.Close(); closeErr != nil {
			log.Error("error closing API server", "error", closeErr)
		}
	}()

	log.Info("initialisation complete, waiting for shutdown signal")
	<-ctx.Done()

	log.Info("shutdown signal received, cleaning up")
	return nil
}

// getConfigPath returns the configuration file path.
// Uses SPRITEWIRE_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("SPRITEWIRE_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}
