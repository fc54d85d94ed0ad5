package cli

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/lmittmann/tint"
	"github.com/spf13/cobra"
	"github.com/vietddude/crmsync/internal/control"
	"github.com/vietddude/crmsync/internal/core/config"
	"github.com/vietddude/stylelog"
)

var (
	cfgPath string
	isDebug bool
)

var rootCmd = &cobra.Command{
	Use:   "crmsync",
	Short: "CRM sync delivery service",
	Long:  `crmsync consumes CRM change events from Kafka and delivers them to the downstream CRM with idempotent, retried HTTP calls.`,
	Run:   runSyncer,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "config.yaml", "config file (default is config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&isDebug, "debug", false, "enable debug logging")
}

func runSyncer(cmd *cobra.Command, args []string) {
	_ = godotenv.Load()

	// Load Configuration
	cfg, err := config.Load(cfgPath)
	if err != nil {
		stylelog.InitDefault()
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}

	// Setup logging
	slogLevel := slog.LevelInfo
	if isDebug || cfg.Logging.Level == "debug" {
		slogLevel = slog.LevelDebug
	}

	stylelog.InitDefault(&tint.Options{
		Level:      slogLevel,
		TimeFormat: time.RFC3339,
	})

	// Transform config
	controlCfg := control.Config{
		Port:        cfg.Server.Port,
		Broker:      cfg.Broker,
		Provider:    cfg.Provider,
		Retry:       cfg.Retry,
		Idempotency: cfg.Idempotency,
		Redis:       cfg.Redis,
		Database:    cfg.Database,
	}

	// Initialize Syncer
	app, err := control.NewSyncer(controlCfg)
	if err != nil {
		slog.Error("Failed to initialize Syncer", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	if err := app.Start(ctx); err != nil {
		slog.Error("Failed to start Syncer", "error", err)
		os.Exit(1)
	}

	slog.Info("Syncer started", "config", cfgPath)

	// Run until a signal arrives or the consumer loop dies on an
	// infrastructure failure.
	loopDone := make(chan error, 1)
	go func() { loopDone <- app.Wait() }()

	select {
	case sig := <-sigChan:
		slog.Info("Received signal, shutting down...", "signal", sig)
		cancel()
	case err := <-loopDone:
		if err != nil {
			slog.Error("Consumer loop failed, shutting down", "error", err)
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := app.Stop(shutdownCtx); err != nil {
		slog.Error("Error during shutdown", "error", err)
		os.Exit(1)
	}
}
