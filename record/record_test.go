package record

import (
	"crypto/ed25519"
	"testing"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/neovate-digital/namesys/cidutil"
	"github.com/neovate-digital/namesys/name"
)

func mustKeyPair(t *testing.T, seedByte byte) *name.KeyPair {
	t.Helper()
	seed := make([]byte, ed25519.SeedSize)
	for i := range seed {
		seed[i] = seedByte
	}
	kp, err := name.KeyPairFromSeed(seed)
	if err != nil {
		t.Fatalf("KeyPairFromSeed: %v", err)
	}
	return kp
}

func testValue(t *testing.T, payload string) string {
	t.Helper()
	s := cidutil.SumRawString([]byte(payload))
	if s == "" {
		t.Fatal("SumRawString returned empty cid")
	}
	return s
}

func mockClockAt(sec int64, nsec int64) *clock.Mock {
	mock := clock.NewMock()
	mock.Set(time.Unix(sec, nsec).UTC())
	return mock
}

func TestNew_Defaults(t *testing.T) {
	kp := mustKeyPair(t, 0xA1)
	mock := mockClockAt(1700000000, 0)
	rec, err := New(kp, testValue(t, "site root"), Options{Clock: mock})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if rec.Sequence != 1700000000000 {
		t.Errorf("sequence = %d, want wall clock millis 1700000000000", rec.Sequence)
	}
	if want := mock.Now().UTC().Add(DefaultLifetime); !rec.Validity.Equal(want) {
		t.Errorf("validity = %v, want %v", rec.Validity, want)
	}
	if rec.TTL != DefaultTTL {
		t.Errorf("ttl = %v, want %v", rec.TTL, DefaultTTL)
	}
	if err := rec.Verify(); err != nil {
		t.Fatalf("Verify: %v", err)
	}
	owner, err := rec.Owner()
	if err != nil {
		t.Fatalf("Owner: %v", err)
	}
	if !owner.Equal(kp.Name()) {
		t.Fatalf("owner = %s, want %s", owner, kp.Name())
	}
}

func TestNew_DeterministicBytes(t *testing.T) {
	kp := mustKeyPair(t, 0xA2)
	value := testValue(t, "pinned")
	a, err := New(kp, value, Options{Clock: mockClockAt(1700000000, 0)})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	b, err := New(kp, value, Options{Clock: mockClockAt(1700000000, 0)})
	if err != nil {
		t.Fatalf("New (second): %v", err)
	}
	if string(a.Bytes()) != string(b.Bytes()) {
		t.Fatal("same inputs produced different canonical bytes")
	}
}

func TestNew_ExplicitSequence(t *testing.T) {
	kp := mustKeyPair(t, 0xA3)
	seq := uint64(42)
	rec, err := New(kp, testValue(t, "x"), Options{Sequence: &seq, Clock: mockClockAt(1700000000, 0)})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if rec.Sequence != 42 {
		t.Fatalf("sequence = %d, want 42", rec.Sequence)
	}
}

func TestNew_SequenceAdvancesAcrossPublishes(t *testing.T) {
	kp := mustKeyPair(t, 0xA4)
	mock := mockClockAt(1700000000, 0)
	first, err := New(kp, testValue(t, "v1"), Options{Clock: mock})
	if err != nil {
		t.Fatalf("New (first): %v", err)
	}
	mock.Add(5 * time.Millisecond)
	second, err := New(kp, testValue(t, "v2"), Options{Clock: mock, PrevSequence: &first.Sequence})
	if err != nil {
		t.Fatalf("New (second): %v", err)
	}
	if second.Sequence <= first.Sequence {
		t.Fatalf("second sequence %d must exceed first %d", second.Sequence, first.Sequence)
	}
}

func TestNew_NonMonotonicSequenceRejected(t *testing.T) {
	kp := mustKeyPair(t, 0xA5)
	mock := mockClockAt(1700000000, 0)
	prev := uint64(1700000000000)
	_, err := New(kp, testValue(t, "v"), Options{Clock: mock, PrevSequence: &prev})
	if err == nil {
		t.Fatal("expected error: clock-derived sequence equals the previous one")
	}
	if !IsKind(err, KindSequence) {
		t.Fatalf("expected KindSequence, got %v", err)
	}

	// A skewed clock behind the previous publish must refuse too.
	behind := uint64(1700000001000)
	_, err = New(kp, testValue(t, "v"), Options{Clock: mock, PrevSequence: &behind})
	if err == nil {
		t.Fatal("expected error for clock behind previous publish")
	}
	if !IsKind(err, KindSequence) {
		t.Fatalf("expected KindSequence, got %v", err)
	}
}

func TestNew_RejectsInvalidValue(t *testing.T) {
	kp := mustKeyPair(t, 0xA6)
	for _, bad := range []string{"", "not-a-cid", "bagu-not-real"} {
		_, err := New(kp, bad, Options{})
		if err == nil {
			t.Errorf("%q: expected error", bad)
			continue
		}
		if !IsKind(err, KindValue) {
			t.Errorf("%q: expected KindValue, got %v", bad, err)
		}
	}
}

func TestNew_NothingSignedOnSequenceFailure(t *testing.T) {
	kp := mustKeyPair(t, 0xA7)
	prev := uint64(1)
	zero := uint64(0)
	rec, err := New(kp, testValue(t, "v"), Options{Sequence: &zero, PrevSequence: &prev})
	if err == nil {
		t.Fatal("expected sequence error")
	}
	if rec != nil {
		t.Fatal("failed build must not return a record")
	}
}

func TestRecord_Expired(t *testing.T) {
	kp := mustKeyPair(t, 0xA8)
	mock := mockClockAt(1700000000, 0)
	rec, err := New(kp, testValue(t, "v"), Options{Clock: mock, Lifetime: time.Hour})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if rec.Expired(mock.Now()) {
		t.Fatal("fresh record reported expired")
	}
	if rec.Expired(rec.Validity) {
		t.Fatal("record must remain valid exactly at its validity instant")
	}
	if !rec.Expired(rec.Validity.Add(time.Nanosecond)) {
		t.Fatal("record must expire after its validity instant")
	}
}

func TestVerifyOwner(t *testing.T) {
	kp := mustKeyPair(t, 0xB1)
	other := mustKeyPair(t, 0xB2)
	rec, err := New(kp, testValue(t, "v"), Options{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := rec.VerifyOwner(kp.Name()); err != nil {
		t.Fatalf("VerifyOwner (owner): %v", err)
	}
	err = rec.VerifyOwner(other.Name())
	if err == nil {
		t.Fatal("expected error for foreign identity")
	}
	if !IsKind(err, KindCrypto) {
		t.Fatalf("expected KindCrypto, got %v", err)
	}
}

func TestVerify_AnchoredToCanonicalBytes(t *testing.T) {
	kp := mustKeyPair(t, 0xB3)
	rec, err := New(kp, testValue(t, "v"), Options{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := rec.Verify(); err != nil {
		t.Fatalf("Verify (baseline): %v", err)
	}
	// Mutating the struct view must not move what the signature covers;
	// verification runs over the canonical bytes.
	rec.Sequence++
	if err := rec.Verify(); err != nil {
		t.Fatalf("Verify must stay anchored to canonical bytes: %v", err)
	}
}

func TestVerify_RequiresCanonicalBytes(t *testing.T) {
	rec := &Record{}
	if err := rec.Verify(); err == nil {
		t.Fatal("expected error for a hand-built record")
	}
}

func TestVerify_RejectsResignedScope(t *testing.T) {
	kp := mustKeyPair(t, 0xB4)
	rec, err := New(kp, testValue(t, "v"), Options{Clock: mockClockAt(1700000000, 0)})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	// Re-encode with a bumped sequence but the old signature: canonical
	// bytes, wrong scope.
	forged := &Record{
		Value:     rec.Value,
		Sequence:  rec.Sequence + 1,
		Validity:  rec.Validity,
		TTL:       rec.TTL,
		PublicKey: rec.PublicKey,
		Signature: rec.Signature,
	}
	wire, err := Encode(forged)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	dec, err := Decode(wire)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	err = dec.Verify()
	if err == nil {
		t.Fatal("expected signature failure for mutated scope")
	}
	if !IsKind(err, KindCrypto) {
		t.Fatalf("expected KindCrypto, got %v", err)
	}
}

func TestVerify_RefusesForeignKeyTypeInRecord(t *testing.T) {
	kp := mustKeyPair(t, 0xB5)
	rec, err := New(kp, testValue(t, "v"), Options{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	// Swap the embedded envelope for an RSA-tagged one. The envelope tag
	// changes 0x01 -> 0x00 in place, keeping the encoding canonical.
	forgedEnv := append([]byte(nil), rec.PublicKey...)
	forgedEnv[1] = 0x00
	forged := &Record{
		Value:     rec.Value,
		Sequence:  rec.Sequence,
		Validity:  rec.Validity,
		TTL:       rec.TTL,
		PublicKey: forgedEnv,
		Signature: rec.Signature,
	}
	wire, err := Encode(forged)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	dec, err := Decode(wire)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	err = dec.Verify()
	if err == nil {
		t.Fatal("expected error for non-ed25519 embedded key")
	}
	if !name.IsKind(err, name.KindUnsupported) {
		t.Fatalf("expected wrapped name.KindUnsupported, got %v", err)
	}
}
