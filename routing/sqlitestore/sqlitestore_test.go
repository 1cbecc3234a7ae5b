package sqlitestore

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/neovate-digital/namesys/cidutil"
	"github.com/neovate-digital/namesys/name"
	"github.com/neovate-digital/namesys/record"
	"github.com/neovate-digital/namesys/routing"
	"github.com/neovate-digital/namesys/routing/testkit"
)

func openStore(t *testing.T, path string) *Store {
	t.Helper()
	store, err := Open(path, Options{})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestSqlite_Conformance(t *testing.T) {
	testkit.RunBackendConformance(t, func(t *testing.T) routing.Backend {
		return openStore(t, filepath.Join(t.TempDir(), "records.db"))
	})
}

func TestSqlite_SurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "records.db")

	kp, err := name.KeyPairFromSeed(bytes.Repeat([]byte{0x21}, 32))
	if err != nil {
		t.Fatalf("KeyPairFromSeed: %v", err)
	}
	key := kp.Name().RoutingKey()
	seq := uint64(3)
	rec, err := record.New(kp, cidutil.SumRawString([]byte("durable")), record.Options{Sequence: &seq})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	store, err := Open(path, Options{})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := store.Put(ctx, key, rec.Bytes()); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	reopened := openStore(t, path)
	got, err := reopened.Get(ctx, key)
	if err != nil {
		t.Fatalf("Get after reopen: %v", err)
	}
	if !bytes.Equal(got, rec.Bytes()) {
		t.Fatalf("record changed across reopen")
	}

	// The stored sequence still guards against stale publishes.
	stale := uint64(2)
	old, err := record.New(kp, cidutil.SumRawString([]byte("stale")), record.Options{Sequence: &stale})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := reopened.Put(ctx, key, old.Bytes()); !routing.IsRejected(err) {
		t.Fatalf("Put stale after reopen: got err=%v want ErrRejected", err)
	}
}

func TestSqlite_GetUnparsableKeyIsNotFound(t *testing.T) {
	ctx := context.Background()
	store := openStore(t, filepath.Join(t.TempDir(), "records.db"))

	if _, err := store.Get(ctx, []byte("not a routing key")); !routing.IsNotFound(err) {
		t.Fatalf("Get bad key: got err=%v want ErrNotFound", err)
	}
}

func TestSqlite_OpenRequiresPath(t *testing.T) {
	if _, err := Open("", Options{}); err == nil {
		t.Fatalf("Open with empty path should fail")
	}
}
