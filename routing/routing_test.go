package routing

import (
	"bytes"
	"testing"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/neovate-digital/namesys/cidutil"
	"github.com/neovate-digital/namesys/name"
	"github.com/neovate-digital/namesys/record"
)

func mustKeyPair(t *testing.T, seedByte byte) *name.KeyPair {
	t.Helper()
	kp, err := name.KeyPairFromSeed(bytes.Repeat([]byte{seedByte}, 32))
	if err != nil {
		t.Fatalf("KeyPairFromSeed: %v", err)
	}
	return kp
}

func mustRecord(t *testing.T, kp *name.KeyPair, payload string, seq uint64) *record.Record {
	t.Helper()
	rec, err := record.New(kp, cidutil.SumRawString([]byte(payload)), record.Options{Sequence: &seq})
	if err != nil {
		t.Fatalf("record.New: %v", err)
	}
	return rec
}

func TestValidate_AcceptsOwnRecord(t *testing.T) {
	kp := mustKeyPair(t, 0x31)
	rec := mustRecord(t, kp, "mine", 1)

	got, n, err := Validate(kp.Name().RoutingKey(), rec.Bytes(), time.Now())
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if got.Sequence != 1 {
		t.Fatalf("sequence = %d, want 1", got.Sequence)
	}
	if !n.Equal(kp.Name()) {
		t.Fatalf("name mismatch: %s vs %s", n, kp.Name())
	}
}

func TestValidate_RejectsBadKey(t *testing.T) {
	kp := mustKeyPair(t, 0x32)
	rec := mustRecord(t, kp, "mine", 1)

	_, _, err := Validate([]byte("bogus"), rec.Bytes(), time.Now())
	if !IsRejected(err) {
		t.Fatalf("bad key: got err=%v want ErrRejected", err)
	}
}

func TestValidate_RejectsUndecodableRecord(t *testing.T) {
	kp := mustKeyPair(t, 0x33)

	_, _, err := Validate(kp.Name().RoutingKey(), []byte("not a record"), time.Now())
	if !IsRejected(err) {
		t.Fatalf("garbage record: got err=%v want ErrRejected", err)
	}
}

func TestValidate_RejectsForeignRecord(t *testing.T) {
	owner := mustKeyPair(t, 0x34)
	other := mustKeyPair(t, 0x35)
	rec := mustRecord(t, owner, "mine", 1)

	_, _, err := Validate(other.Name().RoutingKey(), rec.Bytes(), time.Now())
	if !IsRejected(err) {
		t.Fatalf("foreign record: got err=%v want ErrRejected", err)
	}
}

func TestValidate_RejectsClosedValidityWindow(t *testing.T) {
	kp := mustKeyPair(t, 0x36)
	past := clock.NewMock()
	past.Set(time.Unix(1700000000, 0))
	rec, err := record.New(kp, cidutil.SumRawString([]byte("gone")), record.Options{
		Lifetime: time.Hour,
		Clock:    past,
	})
	if err != nil {
		t.Fatalf("record.New: %v", err)
	}

	_, _, err = Validate(kp.Name().RoutingKey(), rec.Bytes(), time.Now())
	if !IsRejected(err) {
		t.Fatalf("expired record: got err=%v want ErrRejected", err)
	}
	// The same record was fine while the window was open.
	if _, _, err := Validate(kp.Name().RoutingKey(), rec.Bytes(), past.Now()); err != nil {
		t.Fatalf("Validate at issue time: %v", err)
	}
}
