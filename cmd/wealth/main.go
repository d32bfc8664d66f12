package main

import (
	"context"
	"embed"
	"errors"
	"io/fs"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/mtlprog/wealth/internal/api"
	"github.com/mtlprog/wealth/internal/config"
	"github.com/mtlprog/wealth/internal/database"
	"github.com/mtlprog/wealth/internal/export"
	"github.com/mtlprog/wealth/internal/fxrate"
	"github.com/mtlprog/wealth/internal/liquidity"
	"github.com/mtlprog/wealth/internal/snapshot"
	"github.com/mtlprog/wealth/internal/worker"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

func main() {
	app := &cli.App{
		Name:  "wealth",
		Usage: "value, classify and compare a multi-currency portfolio",
		Commands: []*cli.Command{
			serveCommand(),
			compareCommand(),
			liquidityCommand(),
			validateCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "run the HTTP API and background workers",
		Action: func(c *cli.Context) error {
			return serve(c.Context, config.Load())
		},
	}
}

func serve(parent context.Context, cfg config.Config) error {
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.DatabaseURL == "" {
		return errors.New("DATABASE_URL is required")
	}

	pool, err := database.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer pool.Close()

	migrationsSub, err := fs.Sub(migrationsFS, "migrations")
	if err != nil {
		return err
	}
	if err := database.RunMigrations(ctx, pool, migrationsSub); err != nil {
		return err
	}

	registry, err := cfg.Entities()
	if err != nil {
		return err
	}

	ratesSvc := fxrate.NewService(fxrate.NewPgRepository(pool))
	snapshotSvc := snapshot.NewService(snapshot.NewPgRepository(pool), ratesSvc, snapshot.Options{
		ViewCurrency: cfg.ViewCurrency,
		Registry:     registry,
		Classifier:   liquidity.NewClassifier(cfg.AlwaysFundsNames, cfg.LimitedLiquidityNames),
	})

	// Report writers: local workbooks always, Google Sheets when configured
	writers := export.MultiWriter{export.NewXLSXWriter(cfg.ReportDir)}
	if cfg.GoogleSheetsID != "" && cfg.GoogleCredentialsJSON != "" {
		sheetsWriter, err := export.NewSheetsWriter(ctx, cfg.GoogleSheetsID, cfg.GoogleCredentialsJSON)
		if err != nil {
			return err
		}
		writers = append(writers, sheetsWriter)
	}

	reportWorker := worker.NewReportWorker(snapshotSvc, cfg.ReportWorkerInterval, cfg.ReportTop, writers)
	go reportWorker.Run(ctx)

	auditWorker := worker.NewRateAuditWorker(ratesSvc, cfg.RateAuditInterval, cfg.RateStaleThreshold)
	go auditWorker.Run(ctx)

	if cfg.AdminAPIKey == "" {
		slog.Warn("ADMIN_API_KEY not set, mutating endpoints are unprotected")
	}

	srv := api.NewServer(cfg.HTTPPort, snapshotSvc, ratesSvc, cfg.AdminAPIKey)

	go func() {
		slog.Info("HTTP server listening", "port", cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("HTTP server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	}

	slog.Info("shutdown complete")
	return nil
}
