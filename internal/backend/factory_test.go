package backend

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"society/internal/config"
	"society/internal/core"
	"society/internal/settlement"
)

func TestFromAppConfig(t *testing.T) {
	cfg, err := FromAppConfig(&config.Config{DataBackend: "sqlite", SQLiteDBPath: "x.db"})
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Type != SQLiteBackend || cfg.SQLiteDBPath != "x.db" {
		t.Errorf("FromAppConfig() = %+v", cfg)
	}

	if _, err := FromAppConfig(&config.Config{DataBackend: "sheets"}); err == nil {
		t.Error("expected error for unsupported backend")
	}
	if _, err := FromAppConfig(nil); err == nil {
		t.Error("expected error for nil config")
	}
}

func TestCreateMemoryBackend(t *testing.T) {
	res, err := NewFactory(nil).CreateBackend(context.Background(), Config{Type: MemoryBackend})
	if err != nil {
		t.Fatal(err)
	}
	defer res.Cleanup()

	users, err := res.Store.Users(context.Background())
	if err != nil || len(users) == 0 {
		t.Errorf("Users() = %d users, %v", len(users), err)
	}
}

func TestCreateSQLiteBackendPersistsSettlements(t *testing.T) {
	ctx := context.Background()
	cfg := Config{Type: SQLiteBackend, SQLiteDBPath: filepath.Join(t.TempDir(), "society.db")}

	res, err := NewFactory(nil).CreateBackend(ctx, cfg)
	if err != nil {
		t.Fatal(err)
	}
	v := settlement.View{Month: "2026-01", Tab: core.SettlementPending, Selected: []string{"SET002"}}
	err = res.Store.UpdateSettlements(ctx, func(all []core.Settlement) ([]core.Settlement, error) {
		r, err := settlement.Approve(all, v, time.Now())
		return r.Settlements, err
	})
	if err != nil {
		t.Fatalf("approve: %v", err)
	}
	if err := res.Cleanup(); err != nil {
		t.Fatal(err)
	}

	// Reopening must not reseed over the stored state.
	res, err = NewFactory(nil).CreateBackend(ctx, cfg)
	if err != nil {
		t.Fatal(err)
	}
	defer res.Cleanup()
	all, err := res.Store.Settlements(ctx)
	if err != nil {
		t.Fatal(err)
	}
	for _, s := range all {
		if s.ID == "SET002" && s.Status != core.SettlementApproved {
			t.Errorf("SET002 status = %s after reopen, want approved", s.Status)
		}
	}
}

func TestConfigValidate(t *testing.T) {
	if err := (Config{Type: SQLiteBackend}).Validate(); err == nil {
		t.Error("sqlite without path should fail")
	}
	if err := (Config{Type: "nope"}).Validate(); err == nil {
		t.Error("unknown type should fail")
	}
}
