package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"society/internal/core"
	"society/internal/ledger"

	_ "modernc.org/sqlite"
)

// SQLiteRepository persists settlements and batches. The read-only record
// collections stay with the seeded store.
type SQLiteRepository struct {
	db *sql.DB
	mu sync.Mutex // serializes read-modify-write of settlements
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping reports whether the database is reachable.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// SeedSettlements loads the initial settlements when the table is empty and
// returns how many rows were inserted.
func (r *SQLiteRepository) SeedSettlements(ctx context.Context, seed []core.Settlement) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM settlements`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count settlements: %w", err)
	}
	if n > 0 {
		return 0, nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()
	for _, s := range seed {
		if err := upsertSettlement(ctx, tx, s); err != nil {
			return 0, err
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit seed: %w", err)
	}
	slog.InfoContext(ctx, "Seeded settlements into SQLite", "count", len(seed))
	return len(seed), nil
}

const settlementColumns = `id, month, beneficiary_name, beneficiary_type, account_number, ifsc_code,
	amount_paise, status, generated_date, processed_date, reference_ids`

type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func listSettlements(ctx context.Context, q queryer) ([]core.Settlement, error) {
	rows, err := q.QueryContext(ctx, `SELECT `+settlementColumns+` FROM settlements ORDER BY month DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("query settlements: %w", err)
	}
	defer rows.Close()

	out := make([]core.Settlement, 0)
	for rows.Next() {
		var (
			s                    core.Settlement
			kind, status         string
			generated, processed string
			refs                 string
		)
		if err := rows.Scan(&s.ID, &s.Month, &s.BeneficiaryName, &kind, &s.AccountNumber, &s.IFSCCode,
			&s.Amount.Paise, &status, &generated, &processed, &refs); err != nil {
			return nil, fmt.Errorf("scan settlement: %w", err)
		}
		s.BeneficiaryType = core.BeneficiaryType(kind)
		s.Status = core.SettlementStatus(status)
		if s.GeneratedDate, err = core.ParseDate(generated); err != nil {
			return nil, fmt.Errorf("settlement %s: %w", s.ID, err)
		}
		if s.ProcessedDate, err = core.ParseDate(processed); err != nil {
			return nil, fmt.Errorf("settlement %s: %w", s.ID, err)
		}
		if refs != "" {
			s.ReferenceIDs = strings.Split(refs, ",")
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func upsertSettlement(ctx context.Context, tx *sql.Tx, s core.Settlement) error {
	if err := s.Validate(); err != nil {
		return fmt.Errorf("settlement %q: %w", s.ID, err)
	}
	_, err := tx.ExecContext(ctx, `INSERT INTO settlements (`+settlementColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			month = excluded.month,
			beneficiary_name = excluded.beneficiary_name,
			beneficiary_type = excluded.beneficiary_type,
			account_number = excluded.account_number,
			ifsc_code = excluded.ifsc_code,
			amount_paise = excluded.amount_paise,
			status = excluded.status,
			generated_date = excluded.generated_date,
			processed_date = excluded.processed_date,
			reference_ids = excluded.reference_ids,
			updated_at = strftime('%Y-%m-%dT%H:%M:%SZ', 'now')`,
		s.ID, s.Month, s.BeneficiaryName, string(s.BeneficiaryType), s.AccountNumber, s.IFSCCode,
		s.Amount.Paise, string(s.Status), s.GeneratedDate.String(), s.ProcessedDate.String(),
		strings.Join(s.ReferenceIDs, ","))
	if err != nil {
		return fmt.Errorf("upsert settlement %s: %w", s.ID, err)
	}
	return nil
}

// Settlements implements ledger.SettlementStore.
func (r *SQLiteRepository) Settlements(ctx context.Context) ([]core.Settlement, error) {
	return listSettlements(ctx, r.db)
}

// UpdateSettlements implements ledger.SettlementStore. Rows returned by fn are
// upserted in one transaction; rows are never deleted.
func (r *SQLiteRepository) UpdateSettlements(ctx context.Context, fn func([]core.Settlement) ([]core.Settlement, error)) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	current, err := listSettlements(ctx, tx)
	if err != nil {
		return err
	}
	next, err := fn(current)
	if err != nil {
		return err
	}
	for _, s := range next {
		if err := upsertSettlement(ctx, tx, s); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// CommitBatch implements ledger.SettlementStore. The settlement rows and the
// batch are written in one transaction.
func (r *SQLiteRepository) CommitBatch(ctx context.Context, fn func([]core.Settlement) ([]core.Settlement, core.SettlementBatch, error)) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	current, err := listSettlements(ctx, tx)
	if err != nil {
		return err
	}
	next, b, err := fn(current)
	if err != nil {
		return err
	}
	for _, s := range next {
		if err := upsertSettlement(ctx, tx, s); err != nil {
			return err
		}
	}
	if err := saveBatch(ctx, tx, b); err != nil {
		return err
	}
	return tx.Commit()
}

// SaveBatch implements ledger.SettlementStore.
func (r *SQLiteRepository) SaveBatch(ctx context.Context, b core.SettlementBatch) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if err := saveBatch(ctx, tx, b); err != nil {
		return err
	}
	return tx.Commit()
}

func saveBatch(ctx context.Context, tx *sql.Tx, b core.SettlementBatch) error {
	if b.ID == "" {
		return core.ErrEmptyID
	}
	_, err := tx.ExecContext(ctx, `INSERT INTO settlement_batches (id, month, total_paise, status, created_date, generated_by)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET status = excluded.status`,
		b.ID, b.Month, b.TotalAmount.Paise, string(b.Status), b.CreatedDate.String(), b.GeneratedBy)
	if err != nil {
		return fmt.Errorf("upsert batch %s: %w", b.ID, err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM batch_settlements WHERE batch_id = ?`, b.ID); err != nil {
		return fmt.Errorf("clear batch rows: %w", err)
	}
	for i, s := range b.Settlements {
		snap, err := json.Marshal(s)
		if err != nil {
			return fmt.Errorf("encode settlement %s: %w", s.ID, err)
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO batch_settlements (batch_id, position, settlement_id, snapshot)
			VALUES (?, ?, ?, ?)`, b.ID, i, s.ID, string(snap)); err != nil {
			return fmt.Errorf("insert batch row: %w", err)
		}
	}
	return nil
}

// Batches implements ledger.SettlementStore, newest first.
func (r *SQLiteRepository) Batches(ctx context.Context) ([]core.SettlementBatch, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id FROM settlement_batches ORDER BY created_at DESC, rowid DESC`)
	if err != nil {
		return nil, fmt.Errorf("query batches: %w", err)
	}
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, err
		}
		ids = append(ids, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	out := make([]core.SettlementBatch, 0, len(ids))
	for _, id := range ids {
		b, err := r.Batch(ctx, id)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, nil
}

// Batch implements ledger.SettlementStore.
func (r *SQLiteRepository) Batch(ctx context.Context, id string) (core.SettlementBatch, error) {
	var (
		b              core.SettlementBatch
		status, create string
	)
	err := r.db.QueryRowContext(ctx, `SELECT id, month, total_paise, status, created_date, generated_by
		FROM settlement_batches WHERE id = ?`, id).
		Scan(&b.ID, &b.Month, &b.TotalAmount.Paise, &status, &create, &b.GeneratedBy)
	if errors.Is(err, sql.ErrNoRows) {
		return core.SettlementBatch{}, fmt.Errorf("batch %q: %w", id, ledger.ErrNotFound)
	}
	if err != nil {
		return core.SettlementBatch{}, fmt.Errorf("query batch: %w", err)
	}
	b.Status = core.BatchStatus(status)
	if b.CreatedDate, err = core.ParseDate(create); err != nil {
		return core.SettlementBatch{}, err
	}

	rows, err := r.db.QueryContext(ctx, `SELECT snapshot FROM batch_settlements WHERE batch_id = ? ORDER BY position`, id)
	if err != nil {
		return core.SettlementBatch{}, fmt.Errorf("query batch rows: %w", err)
	}
	defer rows.Close()
	b.Settlements = make([]core.Settlement, 0)
	for rows.Next() {
		var snap string
		if err := rows.Scan(&snap); err != nil {
			return core.SettlementBatch{}, err
		}
		var s core.Settlement
		if err := json.Unmarshal([]byte(snap), &s); err != nil {
			return core.SettlementBatch{}, fmt.Errorf("decode batch row: %w", err)
		}
		b.Settlements = append(b.Settlements, s)
	}
	return b, rows.Err()
}

var _ ledger.SettlementStore = (*SQLiteRepository)(nil)
