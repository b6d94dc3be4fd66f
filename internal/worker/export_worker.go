package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/sync/errgroup"

	"society/internal/amqp"
	"society/internal/core"
	"society/internal/export"
	"society/internal/ledger"
	"society/internal/metrics"
)

// BatchSource lists stored batches for the backup sweep.
type BatchSource interface {
	Batches(ctx context.Context) ([]core.SettlementBatch, error)
}

// ExportWorker writes the bank upload files of generated batches and
// optionally appends them to an external ledger.
type ExportWorker struct {
	dir     string
	formats []export.Format
	opts    export.Options
	ledger  ledger.BatchLedgerWriter
	source  BatchSource
	metrics *metrics.Metrics
}

// Config for NewExportWorker. Ledger, Source and Metrics are optional.
type Config struct {
	Dir         string
	Formats     []export.Format
	PaymentMode string
	Ledger      ledger.BatchLedgerWriter
	Source      BatchSource
	Metrics     *metrics.Metrics
}

func NewExportWorker(cfg Config) (*ExportWorker, error) {
	if cfg.Dir == "" {
		return nil, errors.New("export directory is required")
	}
	if len(cfg.Formats) == 0 {
		cfg.Formats = []export.Format{export.FormatXLSX}
	}
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("create export directory: %w", err)
	}
	return &ExportWorker{
		dir:     cfg.Dir,
		formats: cfg.Formats,
		opts:    export.Options{PaymentMode: cfg.PaymentMode},
		ledger:  cfg.Ledger,
		source:  cfg.Source,
		metrics: cfg.Metrics,
	}, nil
}

// HandleEvent processes one message from the settlement queue.
func (w *ExportWorker) HandleEvent(ctx context.Context, e *amqp.Event) error {
	switch e.Kind {
	case amqp.KindBatchGenerated:
		return w.ExportBatch(ctx, *e.Batch)
	case amqp.KindTransitioned:
		t := e.Transition
		slog.InfoContext(ctx, "Settlement transition recorded",
			"component", "worker", "from", t.From, "to", t.To,
			"count", len(t.SettlementIDs), "total_paise", t.Total.Paise, "actor", t.Actor)
		return nil
	}
	slog.WarnContext(ctx, "Ignoring unknown event", "component", "worker", "kind", e.Kind)
	return nil
}

// ExportBatch writes every configured format of b concurrently, then appends
// b to the ledger. Files that already exist are rewritten.
func (w *ExportWorker) ExportBatch(ctx context.Context, b core.SettlementBatch) error {
	slog.InfoContext(ctx, "Exporting batch", "component", "worker",
		"batch_id", b.ID, "month", b.Month, "count", len(b.Settlements))

	g, gctx := errgroup.WithContext(ctx)
	for _, f := range w.formats {
		g.Go(func() error {
			return w.writeFile(gctx, b, f)
		})
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("export batch %s: %w", b.ID, err)
	}

	if w.ledger != nil {
		if err := w.ledger.AppendBatch(ctx, b); err != nil {
			return fmt.Errorf("append batch %s to ledger: %w", b.ID, err)
		}
	}
	return nil
}

func (w *ExportWorker) writeFile(ctx context.Context, b core.SettlementBatch, f export.Format) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	start := time.Now()
	data, err := export.Render(f, b, w.opts)
	if err == nil {
		err = writeAtomic(w.Path(b, f), data)
	}
	result := metrics.ResultSuccess
	if err != nil {
		result = metrics.ResultError
	}
	w.metrics.ObserveExport(string(f), result, time.Since(start))
	if err != nil {
		return fmt.Errorf("%s: %w", f, err)
	}
	slog.DebugContext(ctx, "Wrote export file", "component", "worker", "path", w.Path(b, f), "bytes", len(data))
	return nil
}

// Path is where the file of b in format f is written.
func (w *ExportWorker) Path(b core.SettlementBatch, f export.Format) string {
	return filepath.Join(w.dir, export.FileName(b, f))
}

// ProcessPendingBatches exports stored batches whose files are missing.
// This is a backup mechanism in case AMQP messages are lost.
func (w *ExportWorker) ProcessPendingBatches(ctx context.Context) error {
	if w.source == nil {
		return nil
	}
	batches, err := w.source.Batches(ctx)
	if err != nil {
		return fmt.Errorf("list batches: %w", err)
	}

	pending := 0
	for _, b := range batches {
		if w.exported(b) {
			continue
		}
		pending++
		if err := w.ExportBatch(ctx, b); err != nil {
			slog.ErrorContext(ctx, "Failed to export pending batch", "component", "worker", "batch_id", b.ID, "error", err)
			continue
		}
	}
	if pending > 0 {
		slog.InfoContext(ctx, "Processed pending batches", "component", "worker", "count", pending)
	}
	return nil
}

func (w *ExportWorker) exported(b core.SettlementBatch) bool {
	for _, f := range w.formats {
		if _, err := os.Stat(w.Path(b, f)); err != nil {
			return false
		}
	}
	return true
}

// RunPeriodicSweep calls ProcessPendingBatches every interval until ctx ends.
func (w *ExportWorker) RunPeriodicSweep(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := w.ProcessPendingBatches(ctx); err != nil {
				slog.ErrorContext(ctx, "Pending batch sweep failed", "component", "worker", "error", err)
			}
		}
	}
}

func writeAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".export-*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), path)
}
