// Package testkit holds the conformance suite every content-store
// implementation is expected to pass.
package testkit

import (
	"bytes"
	"testing"

	"github.com/ipfs/go-cid"

	"github.com/neovate-digital/namesys/cidutil"
	"github.com/neovate-digital/namesys/storage"
)

// NewCAS constructs a fresh, empty CAS instance for a test.
// The returned CAS MUST be isolated from other tests.
type NewCAS func(t *testing.T) storage.CAS

// RunCASConformance exercises the content-store contract: Put returns the
// canonical CID of the bytes, Get hands back exactly the bytes that hash
// to the requested CID, re-puts of identical bytes succeed, and absent or
// undefined CIDs fail cleanly.
func RunCASConformance(t *testing.T, newCAS NewCAS) {
	t.Helper()

	t.Run("PutGetRoundTrip", func(t *testing.T) {
		cas := newCAS(t)
		want := []byte("hello, content store")

		id, err := cas.Put(want)
		if err != nil {
			t.Fatalf("Put failed: %v", err)
		}
		wantID, err := cidutil.SumRaw(want)
		if err != nil {
			t.Fatalf("SumRaw failed: %v", err)
		}
		if id != wantID {
			t.Fatalf("Put returned %s, canonical CID is %s", id, wantID)
		}

		got, err := cas.Get(id)
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if !bytes.Equal(got, want) {
			t.Fatalf("Get bytes mismatch")
		}

		gotID, err := cidutil.SumRaw(got)
		if err != nil {
			t.Fatalf("SumRaw(got) failed: %v", err)
		}
		if gotID != id {
			t.Fatalf("Get returned bytes that hash to %s, requested %s", gotID, id)
		}
	})

	t.Run("EmptyPayload", func(t *testing.T) {
		cas := newCAS(t)

		id, err := cas.Put([]byte{})
		if err != nil {
			t.Fatalf("Put(empty) failed: %v", err)
		}
		got, err := cas.Get(id)
		if err != nil {
			t.Fatalf("Get(empty) failed: %v", err)
		}
		if len(got) != 0 {
			t.Fatalf("Get(empty) returned %d bytes", len(got))
		}
	})

	t.Run("PutIdempotent", func(t *testing.T) {
		cas := newCAS(t)
		b := []byte("same bytes")

		id1, err := cas.Put(b)
		if err != nil {
			t.Fatalf("Put(1) failed: %v", err)
		}
		id2, err := cas.Put(b)
		if err != nil {
			t.Fatalf("Put(2) failed: %v", err)
		}
		if id1 != id2 {
			t.Fatalf("Put not idempotent: %s vs %s", id1, id2)
		}
	})

	t.Run("DistinctBlocksCoexist", func(t *testing.T) {
		cas := newCAS(t)
		one := []byte("block one")
		two := []byte("block two")

		id1, err := cas.Put(one)
		if err != nil {
			t.Fatalf("Put(one) failed: %v", err)
		}
		id2, err := cas.Put(two)
		if err != nil {
			t.Fatalf("Put(two) failed: %v", err)
		}
		if id1 == id2 {
			t.Fatalf("distinct bytes produced the same CID %s", id1)
		}
		got1, err := cas.Get(id1)
		if err != nil {
			t.Fatalf("Get(one) failed: %v", err)
		}
		got2, err := cas.Get(id2)
		if err != nil {
			t.Fatalf("Get(two) failed: %v", err)
		}
		if !bytes.Equal(got1, one) || !bytes.Equal(got2, two) {
			t.Fatalf("blocks crossed: got1=%q got2=%q", got1, got2)
		}
	})

	t.Run("HasAndNotFound", func(t *testing.T) {
		cas := newCAS(t)
		b := []byte("missing")
		id, err := cidutil.SumRaw(b)
		if err != nil {
			t.Fatalf("SumRaw failed: %v", err)
		}

		if cas.Has(id) {
			t.Fatalf("Has reported a block that was never put")
		}
		_, err = cas.Get(id)
		if !storage.IsNotFound(err) {
			t.Fatalf("Get missing: got err=%v want ErrNotFound", err)
		}

		if _, err := cas.Put(b); err != nil {
			t.Fatalf("Put failed: %v", err)
		}
		if !cas.Has(id) {
			t.Fatalf("Has reported false after Put")
		}
	})

	t.Run("RejectUndefCID", func(t *testing.T) {
		cas := newCAS(t)
		var undef cid.Cid
		if cas.Has(undef) {
			t.Fatalf("Has should be false for undefined CID")
		}
		if _, err := cas.Get(undef); err == nil {
			t.Fatalf("Get should fail for undefined CID")
		}
	})
}
