package store_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/zofin/loanflow/pkg/store"
)

func runStoreContract(t *testing.T, s store.Store) {
	t.Helper()
	ctx := context.Background()

	if _, err := s.Load(ctx, "autokreditData"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("load missing key: err = %v, want ErrNotFound", err)
	}

	if err := s.Save(ctx, "autokreditData", []byte(`{"step":"form"}`)); err != nil {
		t.Fatalf("save: %v", err)
	}
	payload, err := s.Load(ctx, "autokreditData")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if string(payload) != `{"step":"form"}` {
		t.Fatalf("payload = %q", payload)
	}

	// Overwrite wins.
	if err := s.Save(ctx, "autokreditData", []byte(`{"step":"documents"}`)); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	payload, err = s.Load(ctx, "autokreditData")
	if err != nil {
		t.Fatalf("load after overwrite: %v", err)
	}
	if string(payload) != `{"step":"documents"}` {
		t.Fatalf("payload after overwrite = %q", payload)
	}

	// Per-product keys are independent.
	if err := s.Save(ctx, "privatkreditData", []byte(`{"step":"intro"}`)); err != nil {
		t.Fatalf("save second key: %v", err)
	}
	payload, err = s.Load(ctx, "autokreditData")
	if err != nil || string(payload) != `{"step":"documents"}` {
		t.Fatalf("first key disturbed: %q, %v", payload, err)
	}

	if err := s.Delete(ctx, "autokreditData"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := s.Load(ctx, "autokreditData"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("load after delete: err = %v, want ErrNotFound", err)
	}

	// Delete is idempotent.
	if err := s.Delete(ctx, "autokreditData"); err != nil {
		t.Fatalf("second delete: %v", err)
	}
}

func TestMemory(t *testing.T) {
	runStoreContract(t, store.NewMemory())
}

func TestSQLite(t *testing.T) {
	ctx := context.Background()
	s, err := store.OpenSQLite(ctx, filepath.Join(t.TempDir(), "sessions.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	runStoreContract(t, s)
}

func TestMemory_LoadReturnsCopy(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemory()
	if err := s.Save(ctx, "k", []byte("abc")); err != nil {
		t.Fatalf("save: %v", err)
	}
	payload, err := s.Load(ctx, "k")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	payload[0] = 'x'
	again, err := s.Load(ctx, "k")
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if string(again) != "abc" {
		t.Fatalf("stored payload mutated: %q", again)
	}
}
