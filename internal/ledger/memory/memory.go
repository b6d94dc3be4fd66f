package memory

import (
	"context"
	"fmt"
	"os"
	"slices"
	"sync"

	"society/internal/core"
	"society/internal/ledger"
)

// Store keeps the record set in memory. Record collections are read-only
// after construction; settlements and batches are guarded by mu.
type Store struct {
	records Records

	mu          sync.RWMutex
	settlements []core.Settlement
	batches     []core.SettlementBatch
}

func New(r Records) *Store {
	return &Store{records: r, settlements: slices.Clone(r.Settlements)}
}

// NewFromFile seeds the store from a YAML file, or from the built-in demo
// records when path is empty.
func NewFromFile(path string) (*Store, error) {
	if path == "" {
		r, err := DefaultRecords()
		if err != nil {
			return nil, err
		}
		return New(r), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	r, err := ParseSeed(data)
	if err != nil {
		return nil, fmt.Errorf("seed file %s: %w", path, err)
	}
	return New(r), nil
}

func (s *Store) Users(_ context.Context) ([]core.User, error) {
	return slices.Clone(s.records.Users), nil
}

func (s *Store) User(_ context.Context, id string) (core.User, error) {
	for _, u := range s.records.Users {
		if u.ID == id {
			return u, nil
		}
	}
	return core.User{}, fmt.Errorf("user %q: %w", id, ledger.ErrNotFound)
}

func (s *Store) Maintenance(_ context.Context) ([]core.MaintenanceTransaction, error) {
	return slices.Clone(s.records.Maintenance), nil
}

func (s *Store) VendorRevenue(_ context.Context) ([]core.VendorRevenueTransaction, error) {
	return slices.Clone(s.records.VendorRevenue), nil
}

func (s *Store) OtherRevenue(_ context.Context) ([]core.OtherRevenueTransaction, error) {
	return slices.Clone(s.records.OtherRevenue), nil
}

func (s *Store) MemberExpenses(_ context.Context) ([]core.MemberExpense, error) {
	return slices.Clone(s.records.MemberExpenses), nil
}

func (s *Store) VendorBills(_ context.Context) ([]core.VendorBill, error) {
	return slices.Clone(s.records.VendorBills), nil
}

func (s *Store) MonthlyStats(_ context.Context) ([]core.MonthlyStats, error) {
	return slices.Clone(s.records.MonthlyStats), nil
}

func (s *Store) Settlements(_ context.Context) ([]core.Settlement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.settlements), nil
}

func (s *Store) UpdateSettlements(_ context.Context, fn func([]core.Settlement) ([]core.Settlement, error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	next, err := fn(slices.Clone(s.settlements))
	if err != nil {
		return err
	}
	s.settlements = next
	return nil
}

func (s *Store) CommitBatch(_ context.Context, fn func([]core.Settlement) ([]core.Settlement, core.SettlementBatch, error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	next, b, err := fn(slices.Clone(s.settlements))
	if err != nil {
		return err
	}
	if b.ID == "" {
		return core.ErrEmptyID
	}
	s.settlements = next
	s.putBatch(b)
	return nil
}

// Batches returns the batch history, newest first.
func (s *Store) Batches(_ context.Context) ([]core.SettlementBatch, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := slices.Clone(s.batches)
	slices.Reverse(out)
	return out, nil
}

func (s *Store) Batch(_ context.Context, id string) (core.SettlementBatch, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, b := range s.batches {
		if b.ID == id {
			return b, nil
		}
	}
	return core.SettlementBatch{}, fmt.Errorf("batch %q: %w", id, ledger.ErrNotFound)
}

// SaveBatch inserts b or replaces the batch with the same id.
func (s *Store) SaveBatch(_ context.Context, b core.SettlementBatch) error {
	if b.ID == "" {
		return core.ErrEmptyID
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.putBatch(b)
	return nil
}

func (s *Store) putBatch(b core.SettlementBatch) {
	for i := range s.batches {
		if s.batches[i].ID == b.ID {
			s.batches[i] = b
			return
		}
	}
	s.batches = append(s.batches, b)
}

var _ ledger.Store = (*Store)(nil)
