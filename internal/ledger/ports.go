// Package ledger declares the storage ports of the society records.
package ledger

import (
	"context"
	"errors"

	"society/internal/core"
)

var ErrNotFound = errors.New("not found")

// Ports for record storage adapters.
type (
	// RecordReader serves the read-only record collections.
	RecordReader interface {
		Users(ctx context.Context) ([]core.User, error)
		User(ctx context.Context, id string) (core.User, error)
		Maintenance(ctx context.Context) ([]core.MaintenanceTransaction, error)
		VendorRevenue(ctx context.Context) ([]core.VendorRevenueTransaction, error)
		OtherRevenue(ctx context.Context) ([]core.OtherRevenueTransaction, error)
		MemberExpenses(ctx context.Context) ([]core.MemberExpense, error)
		VendorBills(ctx context.Context) ([]core.VendorBill, error)
		MonthlyStats(ctx context.Context) ([]core.MonthlyStats, error)
	}

	// SettlementStore holds the only mutable collections: settlements and batches.
	SettlementStore interface {
		Settlements(ctx context.Context) ([]core.Settlement, error)
		// UpdateSettlements runs fn on the current collection and stores its
		// result. Nothing is stored when fn fails. Calls are serialized.
		UpdateSettlements(ctx context.Context, fn func([]core.Settlement) ([]core.Settlement, error)) error
		// CommitBatch is UpdateSettlements that also stores the batch fn
		// returns. Either both are stored or neither is.
		CommitBatch(ctx context.Context, fn func([]core.Settlement) ([]core.Settlement, core.SettlementBatch, error)) error
		Batches(ctx context.Context) ([]core.SettlementBatch, error)
		Batch(ctx context.Context, id string) (core.SettlementBatch, error)
		SaveBatch(ctx context.Context, b core.SettlementBatch) error
	}

	Store interface {
		RecordReader
		SettlementStore
	}

	// BatchLedgerWriter appends generated batches to an external ledger.
	BatchLedgerWriter interface {
		AppendBatch(ctx context.Context, b core.SettlementBatch) error
	}
)

// Combined serves records from one adapter and settlement state from another.
type Combined struct {
	RecordReader
	SettlementStore
}

// Combine pairs a record reader with a settlement store.
func Combine(r RecordReader, s SettlementStore) Combined {
	return Combined{RecordReader: r, SettlementStore: s}
}
