package memory

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/neovate-digital/namesys/cidutil"
	"github.com/neovate-digital/namesys/name"
	"github.com/neovate-digital/namesys/record"
	"github.com/neovate-digital/namesys/routing"
	"github.com/neovate-digital/namesys/routing/testkit"
)

func TestMemory_Conformance(t *testing.T) {
	testkit.RunBackendConformance(t, func(t *testing.T) routing.Backend {
		return New(Options{})
	})
}

func TestMemory_PrunesExpiredOnGet(t *testing.T) {
	ctx := context.Background()
	mock := clock.NewMock()
	mock.Set(time.Unix(1700000000, 0))
	store := New(Options{Clock: mock})

	kp, err := name.KeyPairFromSeed(bytes.Repeat([]byte{0x11}, 32))
	if err != nil {
		t.Fatalf("KeyPairFromSeed: %v", err)
	}
	key := kp.Name().RoutingKey()

	rec, err := record.New(kp, cidutil.SumRawString([]byte("short lived")), record.Options{
		Lifetime: time.Hour,
		Clock:    mock,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := store.Put(ctx, key, rec.Bytes()); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if _, err := store.Get(ctx, key); err != nil {
		t.Fatalf("Get before expiry: %v", err)
	}

	mock.Add(time.Hour + time.Second)

	if _, err := store.Get(ctx, key); !routing.IsNotFound(err) {
		t.Fatalf("Get after expiry: got err=%v want ErrNotFound", err)
	}
	if store.Len() != 0 {
		t.Fatalf("expired entry was not pruned, Len=%d", store.Len())
	}
}

func TestMemory_HonorsContext(t *testing.T) {
	store := New(Options{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	kp, err := name.KeyPairFromSeed(bytes.Repeat([]byte{0x12}, 32))
	if err != nil {
		t.Fatalf("KeyPairFromSeed: %v", err)
	}
	if err := store.Put(ctx, kp.Name().RoutingKey(), []byte("x")); err != context.Canceled {
		t.Fatalf("Put with canceled ctx: got err=%v want context.Canceled", err)
	}
	if _, err := store.Get(ctx, kp.Name().RoutingKey()); err != context.Canceled {
		t.Fatalf("Get with canceled ctx: got err=%v want context.Canceled", err)
	}
}
