package testkit

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
)

// NewBackend constructs a fresh, empty routing backend for a test.
// The returned backend MUST be isolated from other tests.
type NewBackend func(t *testing.T) routing.Backend

// RunBackendConformance exercises the validating-store contract every
// backend must honor: records verify for their key, sequences never move
// backwards, equal sequences never fork, and unknown keys report not found.
func RunBackendConformance(t *testing.T, newBackend NewBackend) {
	t.Helper()
	ctx := context.Background()

	t.Run("PutGetRoundTrip", func(t *testing.T) {
		b := newBackend(t)
		kp := keyPair(t, 0x01)
		raw := signedRecord(t, kp, "round trip", 10)

		if err := b.Put(ctx, kp.Name().RoutingKey(), raw); err != nil {
			t.Fatalf("Put failed: %v", err)
		}
		got, err := b.Get(ctx, kp.Name().RoutingKey())
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if !bytes.Equal(got, raw) {
			t.Fatalf("Get bytes mismatch")
		}
	})

	t.Run("PutIdempotent", func(t *testing.T) {
		b := newBackend(t)
		kp := keyPair(t, 0x02)
		raw := signedRecord(t, kp, "same bytes", 10)
		key := kp.Name().RoutingKey()

		if err := b.Put(ctx, key, raw); err != nil {
			t.Fatalf("Put(1) failed: %v", err)
		}
		if err := b.Put(ctx, key, raw); err != nil {
			t.Fatalf("Put(2) failed: %v", err)
		}
	})

	t.Run("NotFound", func(t *testing.T) {
		b := newBackend(t)
		kp := keyPair(t, 0x03)

		_, err := b.Get(ctx, kp.Name().RoutingKey())
		if !routing.IsNotFound(err) {
			t.Fatalf("Get missing: got err=%v want ErrNotFound", err)
		}
	})

	t.Run("HigherSequenceSupersedes", func(t *testing.T) {
		b := newBackend(t)
		kp := keyPair(t, 0x04)
		key := kp.Name().RoutingKey()
		first := signedRecord(t, kp, "first", 1)
		second := signedRecord(t, kp, "second", 2)

		if err := b.Put(ctx, key, first); err != nil {
			t.Fatalf("Put(first) failed: %v", err)
		}
		if err := b.Put(ctx, key, second); err != nil {
			t.Fatalf("Put(second) failed: %v", err)
		}
		got, err := b.Get(ctx, key)
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if !bytes.Equal(got, second) {
			t.Fatalf("Get returned superseded record")
		}
	})

	t.Run("RejectsStaleSequence", func(t *testing.T) {
		b := newBackend(t)
		kp := keyPair(t, 0x05)
		key := kp.Name().RoutingKey()

		if err := b.Put(ctx, key, signedRecord(t, kp, "newer", 5)); err != nil {
			t.Fatalf("Put(newer) failed: %v", err)
		}
		err := b.Put(ctx, key, signedRecord(t, kp, "older", 4))
		if !routing.IsRejected(err) {
			t.Fatalf("Put stale: got err=%v want ErrRejected", err)
		}
		got, err := b.Get(ctx, key)
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		rec, err := record.Decode(got)
		if err != nil {
			t.Fatalf("Decode failed: %v", err)
		}
		if rec.Sequence != 5 {
			t.Fatalf("stored sequence = %d, want 5", rec.Sequence)
		}
	})

	t.Run("RejectsEqualSequenceConflict", func(t *testing.T) {
		b := newBackend(t)
		kp := keyPair(t, 0x06)
		key := kp.Name().RoutingKey()

		if err := b.Put(ctx, key, signedRecord(t, kp, "one", 7)); err != nil {
			t.Fatalf("Put(one) failed: %v", err)
		}
		err := b.Put(ctx, key, signedRecord(t, kp, "two", 7))
		if !routing.IsRejected(err) {
			t.Fatalf("Put conflicting: got err=%v want ErrRejected", err)
		}
	})

	t.Run("RejectsForeignKey", func(t *testing.T) {
		b := newBackend(t)
		owner := keyPair(t, 0x07)
		other := keyPair(t, 0x08)
		raw := signedRecord(t, owner, "not yours", 1)

		err := b.Put(ctx, other.Name().RoutingKey(), raw)
		if !routing.IsRejected(err) {
			t.Fatalf("Put under foreign key: got err=%v want ErrRejected", err)
		}
	})

	t.Run("RejectsUndecodableBytes", func(t *testing.T) {
		b := newBackend(t)
		kp := keyPair(t, 0x09)

		err := b.Put(ctx, kp.Name().RoutingKey(), []byte("not a record"))
		if !routing.IsRejected(err) {
			t.Fatalf("Put garbage: got err=%v want ErrRejected", err)
		}
	})

	t.Run("RejectsExpiredRecord", func(t *testing.T) {
		b := newBackend(t)
		kp := keyPair(t, 0x0a)
		// Built against a clock frozen in the past, so the validity window
		// has long closed by the time the store checks it.
		past := clock.NewMock()
		past.Set(time.Unix(1700000000, 0))
		rec, err := record.New(kp, cidutil.SumRawString([]byte("expired")), record.Options{
			Lifetime: time.Hour,
			Clock:    past,
		})
		if err != nil {
			t.Fatalf("New failed: %v", err)
		}

		err = b.Put(ctx, kp.Name().RoutingKey(), rec.Bytes())
		if !routing.IsRejected(err) {
			t.Fatalf("Put expired: got err=%v want ErrRejected", err)
		}
	})
}

func keyPair(t *testing.T, seedByte byte) *name.KeyPair {
	t.Helper()
	seed := bytes.Repeat([]byte{seedByte}, 32)
	kp, err := name.KeyPairFromSeed(seed)
	if err != nil {
		t.Fatalf("KeyPairFromSeed failed: %v", err)
	}
	return kp
}

func signedRecord(t *testing.T, kp *name.KeyPair, payload string, seq uint64) []byte {
	t.Helper()
	rec, err := record.New(kp, cidutil.SumRawString([]byte(payload)), record.Options{Sequence: &seq})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return rec.Bytes()
}
