package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go-label-printer/internal/compliance"
	"go-label-printer/internal/handlers"
	"go-label-printer/internal/middleware"
	"go-label-printer/internal/monitoring"
	"go-label-printer/internal/repository"
	"go-label-printer/internal/routes"
	"go-label-printer/internal/services"

	"github.com/spf13/cobra"
)

func newServeCommand(load func() (*app, error)) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := load()
			if err != nil {
				return err
			}
			defer a.Close()
			return a.serve()
		},
	}
}

func (a *app) serve() error {
	sheets, err := services.NewLabelSheetService(a.cfg.PDF, a.cfg.Label)
	if err != nil {
		return err
	}
	barcodes := a.barcodeService()
	templateRepo := repository.NewLabelTemplateRepository(a.db)
	audit, err := compliance.NewAuditLogger(a.db.DB)
	if err != nil {
		return err
	}
	codecFailures := monitoring.NewCodecFailureTracker(1000, 7*24*time.Hour)
	perfMonitor := middleware.NewPerformanceMonitor(2*time.Second, a.logger)

	h := routes.Handlers{
		Labels: handlers.NewLabelHandler(
			services.NewLabelPrintService(a.db, barcodes, a.logger).WithFailureRecorder(codecFailures),
			services.NewLabelWizardService(a.db),
			sheets,
			barcodes,
			repository.NewProductRepository(a.db),
			a.logger,
		),
		Templates:  handlers.NewLabelTemplateHandler(templateRepo, a.logger).WithAuditLogger(audit),
		Monitoring: handlers.NewMonitoringHandler(codecFailures, perfMonitor),
		Monitor:    perfMonitor,
		Ping:       a.db.Ping,
	}
	engine := routes.NewEngine(a.cfg.Server.Mode, a.logger, h)

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", a.cfg.Server.Host, a.cfg.Server.Port),
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.LogSystemEvent("server_started", map[string]interface{}{"addr": srv.Addr})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case err := <-errCh:
		return err
	case <-quit:
	}

	a.logger.LogSystemEvent("server_stopping")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(ctx)
}
