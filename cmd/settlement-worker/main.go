package main

import (
	"context"
	"errors"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"society/internal/amqp"
	"society/internal/cli"
	"society/internal/ledger"
	"society/internal/log"
	"society/internal/metrics"
	gsheet "society/internal/sheets/google"
	"society/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	cfg := cli.LoadAndValidateConfig()
	logger := cli.SetupLogger(cfg).WithComponent(log.ComponentWorker)

	logger.Info("Starting settlement-worker", "export_dir", cfg.ExportDir, "formats", cfg.ExportFormats)

	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required by the settlement worker")
		os.Exit(1)
	}

	// The sweep needs a shared store. The memory backend lives in the
	// server process, so the worker then relies on events alone.
	var (
		source     worker.BatchSource
		closeStore = func() error { return nil }
	)
	if cfg.DataBackend == "sqlite" {
		repo, err := cli.InitSQLite(logger, cfg.SQLiteDBPath)
		if err != nil {
			os.Exit(1)
		}
		source, closeStore = repo, repo.Close
	} else {
		logger.Info("Memory backend: periodic sweep disabled")
	}

	var batchLedger ledger.BatchLedgerWriter
	if cfg.GoogleSpreadsheetID != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		client, err := gsheet.New(ctx, cfg.GoogleSpreadsheetID, cfg.GoogleSheetName, cfg.PaymentMode, gsheet.Credentials{
			JSON: cfg.GoogleServiceAccountJSON,
			File: cfg.GoogleServiceAccountFile,
		})
		cancel()
		if err != nil {
			logger.Error("Failed to initialize Google Sheets ledger", "error", err)
			os.Exit(1)
		}
		batchLedger = client
		logger.Info("Google Sheets ledger enabled", "sheet", cfg.GoogleSheetName)
	} else {
		logger.Info("Google Sheets ledger disabled - no GOOGLE_SPREADSHEET_ID provided")
	}

	w, err := worker.NewExportWorker(worker.Config{
		Dir:         cfg.ExportDir,
		Formats:     cfg.Formats(),
		PaymentMode: cfg.PaymentMode,
		Ledger:      batchLedger,
		Source:      source,
		Metrics:     metrics.New(prometheus.NewRegistry()),
	})
	if err != nil {
		logger.Error("Failed to create export worker", "error", err)
		os.Exit(1)
	}

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", "error", err)
		os.Exit(1)
	}

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(context.Context) {
		if err := amqpClient.Close(); err != nil {
			logger.Warn("AMQP close error", "error", err)
		}
		if err := closeStore(); err != nil {
			logger.Warn("Store close error", "error", err)
		}
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		err := amqpClient.ConsumeEvents(gctx, w.HandleEvent)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})
	if source != nil {
		g.Go(func() error {
			// Catch batches whose event was lost before the worker started.
			if err := w.ProcessPendingBatches(gctx); err != nil {
				logger.Error("Startup batch sweep failed", "error", err)
			}
			w.RunPeriodicSweep(gctx, cfg.SweepInterval)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		logger.Error("Event consumption failed", "error", err)
		os.Exit(1)
	}
	<-done
	logger.Info("Worker stopped gracefully")
}
