package storage

import (
	"context"
	"path/filepath"
	"testing"

	logx "streamnotify/pkg/logx"
)

func openTestStore(t *testing.T) Store {
	t.Helper()
	st, err := Open(Config{Driver: "sqlite", Path: filepath.Join(t.TempDir(), "db.sqlite")}, logx.Nop())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func TestOpenDisabled(t *testing.T) {
	t.Parallel()
	st, err := Open(Config{Driver: "none"}, logx.Nop())
	if err != nil || st != nil {
		t.Fatalf("disabled storage = %v, %v", st, err)
	}
}

func TestSetGetHasDelete(t *testing.T) {
	t.Parallel()
	st := openTestStore(t)
	ctx := context.Background()

	if _, ok, err := st.Get(ctx, "missing"); err != nil || ok {
		t.Fatalf("Get(missing) = ok=%v err=%v", ok, err)
	}

	if err := st.Set(ctx, "k", "v1"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if v, ok, _ := st.Get(ctx, "k"); !ok || v != "v1" {
		t.Fatalf("Get = %q, %v", v, ok)
	}

	// Upsert semantics.
	if err := st.Set(ctx, "k", "v2"); err != nil {
		t.Fatalf("Set overwrite: %v", err)
	}
	if v, _, _ := st.Get(ctx, "k"); v != "v2" {
		t.Fatalf("Get after overwrite = %q", v)
	}

	if has, _ := st.Has(ctx, "k"); !has {
		t.Fatal("Has = false after Set")
	}

	if err := st.Delete(ctx, "k"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if has, _ := st.Has(ctx, "k"); has {
		t.Fatal("Has = true after Delete")
	}
}

func TestPinKey(t *testing.T) {
	t.Parallel()
	if got := PinKey(-100123); got != "chat_-100123" {
		t.Fatalf("PinKey = %q", got)
	}
}
