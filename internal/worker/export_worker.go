// Package worker mirrors committed transactions to the configured export
// destination. Deliveries arrive over AMQP; a periodic scan of unexported
// rows covers lost messages.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/tommikimmel/gestorGastos/internal/amqp"
	"github.com/tommikimmel/gestorGastos/internal/core"
	"github.com/tommikimmel/gestorGastos/internal/export"
	"github.com/tommikimmel/gestorGastos/internal/ledger"
	"github.com/tommikimmel/gestorGastos/internal/store"
	"github.com/tommikimmel/gestorGastos/internal/storage"
)

type ExportWorker struct {
	storage   *storage.Repository
	appender  export.RowAppender
	batchSize int
}

func NewExportWorker(storage *storage.Repository, appender export.RowAppender, batchSize int) *ExportWorker {
	return &ExportWorker{
		storage:   storage,
		appender:  appender,
		batchSize: batchSize,
	}
}

// HandleEvent processes a single transaction event from AMQP.
func (w *ExportWorker) HandleEvent(ctx context.Context, msg *amqp.TransactionEventMessage) error {
	slog.InfoContext(ctx, "Processing transaction event",
		"op", msg.Op,
		"transaction_id", msg.ID)

	// Deleted transactions have no row to fetch; the spreadsheet is an
	// append-only journal, so there is nothing to do.
	if msg.Op == ledger.OpDeleted {
		return nil
	}

	t, err := w.storage.GetTransaction(ctx, msg.ID)
	if errors.Is(err, store.ErrNotFound) {
		// Deleted between the event and the fetch. Ack and move on.
		slog.WarnContext(ctx, "Transaction vanished before export", "transaction_id", msg.ID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("get transaction from storage: %w", err)
	}

	return w.exportTransaction(ctx, t.ID, t)
}

// ProcessPending exports transactions that were never mirrored.
// Backup mechanism in case AMQP messages are lost.
func (w *ExportWorker) ProcessPending(ctx context.Context) error {
	pending, err := w.storage.ListPendingExport(ctx, w.batchSize)
	if err != nil {
		return fmt.Errorf("get pending transactions: %w", err)
	}

	if len(pending) == 0 {
		return nil
	}

	slog.InfoContext(ctx, "Processing pending transactions", "count", len(pending))

	for _, t := range pending {
		if err := w.exportTransaction(ctx, t.ID, t); err != nil {
			slog.ErrorContext(ctx, "Failed to export transaction", "transaction_id", t.ID, "error", err)
			continue
		}
	}

	return nil
}

// StartupCheck drains a larger pending batch once at worker startup.
// Recovers from missed AMQP messages or worker downtime.
func (w *ExportWorker) StartupCheck(ctx context.Context) error {
	pending, err := w.storage.ListPendingExport(ctx, w.batchSize*5)
	if err != nil {
		return fmt.Errorf("get pending transactions for startup check: %w", err)
	}

	if len(pending) == 0 {
		slog.InfoContext(ctx, "No pending transactions found on startup")
		return nil
	}

	slog.InfoContext(ctx, "Found pending transactions on startup, processing...",
		"count", len(pending))

	successCount := 0
	errorCount := 0

	for _, t := range pending {
		if err := w.exportTransaction(ctx, t.ID, t); err != nil {
			slog.ErrorContext(ctx, "Failed to export transaction during startup",
				"transaction_id", t.ID, "error", err)
			errorCount++
			continue
		}
		successCount++
	}

	slog.InfoContext(ctx, "Startup export completed",
		"total", len(pending),
		"exported", successCount,
		"errors", errorCount)

	return nil
}

func (w *ExportWorker) exportTransaction(ctx context.Context, id string, t core.Transaction) error {
	ref, err := w.appender.Append(ctx, t)
	if err != nil {
		return fmt.Errorf("append to sheets: %w", err)
	}

	if err := w.storage.MarkExported(ctx, id); err != nil {
		// The row is already in the sheet; a retry produces a duplicate
		// line, which beats losing the record. Log and carry on.
		slog.ErrorContext(ctx, "Failed to mark as exported", "transaction_id", id, "error", err)
	}

	slog.InfoContext(ctx, "Exported transaction",
		"transaction_id", id,
		"sheets_ref", ref,
		"amount_cents", t.Amount.Cents)

	return nil
}
