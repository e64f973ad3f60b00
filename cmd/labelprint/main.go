package main

import (
	"fmt"
	"os"

	"go-label-printer/internal/config"
	"go-label-printer/internal/logger"
	"go-label-printer/internal/repository"
	"go-label-printer/internal/services"

	"github.com/spf13/cobra"
)

var version = "dev"

// app holds what every subcommand shares once configuration is loaded.
type app struct {
	cfg           *config.Config
	logger        *logger.StructuredLogger
	db            *repository.Database
	restoreStdLog func()
}

func newRootCommand() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           "labelprint",
		Short:         "Product label printing service",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "config.json", "path to the JSON configuration file")

	load := func() (*app, error) {
		return newApp(configPath)
	}

	root.AddCommand(
		newServeCommand(load),
		newMigrateCommand(load),
		newPrintCommand(load),
	)
	return root
}

func newApp(configPath string) (*app, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, err
	}

	log, err := logger.NewStructuredLogger(logger.LoggerConfig{
		Level:       logger.ParseLevel(cfg.Logging.Level),
		Service:     cfg.Logging.Service,
		Version:     version,
		Environment: cfg.Logging.Environment,
		OutputPath:  cfg.Logging.File,
	})
	if err != nil {
		return nil, err
	}

	// gorm and the database setup write through the standard logger
	restore := log.RedirectStdLog()

	db, err := repository.NewDatabase(&cfg.Database)
	if err != nil {
		restore()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return &app{cfg: cfg, logger: log, db: db, restoreStdLog: restore}, nil
}

func (a *app) Close() {
	if err := a.db.Close(); err != nil {
		a.logger.Error("Failed to close database", err)
	}
	a.restoreStdLog()
	_ = a.logger.Sync()
}

func (a *app) barcodeService() *services.BarcodeService {
	return services.NewBarcodeServiceFromConfig(&a.cfg.Label)
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
