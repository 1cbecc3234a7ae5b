package name

import (
	"bytes"
	"crypto/ed25519"
	"strings"
	"testing"

	"github.com/ipfs/go-cid"
	"github.com/multiformats/go-multihash"
)

func mustKeyPair(t *testing.T, seedByte byte) *KeyPair {
	t.Helper()
	seed := make([]byte, ed25519.SeedSize)
	for i := range seed {
		seed[i] = seedByte
	}
	kp, err := KeyPairFromSeed(seed)
	if err != nil {
		t.Fatalf("KeyPairFromSeed: %v", err)
	}
	return kp
}

func TestFromPublicKey_Deterministic(t *testing.T) {
	kp := mustKeyPair(t, 0xA1)
	a, err := FromPublicKey(kp.Public())
	if err != nil {
		t.Fatalf("FromPublicKey: %v", err)
	}
	b, err := FromPublicKey(kp.Public())
	if err != nil {
		t.Fatalf("FromPublicKey (second): %v", err)
	}
	if !a.Equal(b) {
		t.Fatalf("same key derived different names: %s vs %s", a, b)
	}
	if a.String() != b.String() {
		t.Fatalf("same name rendered differently: %s vs %s", a, b)
	}
}

func TestFromPublicKey_DistinctKeysDistinctNames(t *testing.T) {
	a := mustKeyPair(t, 0x01).Name()
	b := mustKeyPair(t, 0x02).Name()
	if a.Equal(b) {
		t.Fatalf("distinct keys derived the same name: %s", a)
	}
}

func TestFromPublicKey_RejectsBadLength(t *testing.T) {
	_, err := FromPublicKey(make([]byte, 16))
	if err == nil {
		t.Fatal("expected error for short public key")
	}
	if !IsKind(err, KindMalformed) {
		t.Fatalf("expected KindMalformed, got %v", err)
	}
}

func TestName_CanonicalFormIsBase36(t *testing.T) {
	n := mustKeyPair(t, 0xA1).Name()
	s := n.String()
	if !strings.HasPrefix(s, "k51") {
		t.Fatalf("canonical form should start with k51, got %q", s)
	}
	if s != strings.ToLower(s) {
		t.Fatalf("canonical form should be lowercase, got %q", s)
	}
	parsed, err := Parse(s)
	if err != nil {
		t.Fatalf("Parse canonical form: %v", err)
	}
	if !parsed.Equal(n) {
		t.Fatalf("canonical round-trip changed the name: %s vs %s", parsed, n)
	}
}

func TestName_PeerFormRoundTrip(t *testing.T) {
	n := mustKeyPair(t, 0xB2).Name()
	legacy := n.Peer()
	if !strings.HasPrefix(legacy, "12D3Koo") {
		t.Fatalf("legacy form should start with 12D3Koo, got %q", legacy)
	}
	parsed, err := Parse(legacy)
	if err != nil {
		t.Fatalf("Parse legacy form: %v", err)
	}
	if !parsed.Equal(n) {
		t.Fatalf("legacy round-trip changed the name: %s vs %s", parsed, n)
	}
	if parsed.String() != n.String() {
		t.Fatalf("both entry forms must converge on one canonical string")
	}
}

func TestParse_TrimsRoutingPrefix(t *testing.T) {
	n := mustKeyPair(t, 0xC3).Name()
	parsed, err := Parse(RoutingPrefix + n.String())
	if err != nil {
		t.Fatalf("Parse with prefix: %v", err)
	}
	if !parsed.Equal(n) {
		t.Fatalf("prefixed parse changed the name")
	}
}

func TestParse_RejectsEmpty(t *testing.T) {
	if _, err := Parse(""); err == nil {
		t.Fatal("expected error for empty name")
	}
	if _, err := Parse(RoutingPrefix); err == nil {
		t.Fatal("expected error for bare routing prefix")
	}
}

func TestParse_RejectsNonKeyCid(t *testing.T) {
	sum, err := multihash.Sum([]byte("payload"), multihash.SHA2_256, -1)
	if err != nil {
		t.Fatalf("multihash.Sum: %v", err)
	}
	raw := cid.NewCidV1(cid.Raw, sum)
	_, err = Parse(raw.String())
	if err == nil {
		t.Fatal("expected error for non libp2p-key cid")
	}
	if !IsKind(err, KindName) {
		t.Fatalf("expected KindName, got %v", err)
	}
	if RuleID(err) != "NS-NAME-215" {
		t.Fatalf("expected NS-NAME-215, got %q", RuleID(err))
	}
}

func TestParse_RejectsGarbage(t *testing.T) {
	for _, s := range []string{"not-a-name", "k51!!!", "1OIl"} {
		if _, err := Parse(s); err == nil {
			t.Errorf("expected error for %q", s)
		}
	}
}

func TestRoutingKey_Layout(t *testing.T) {
	n := mustKeyPair(t, 0xD4).Name()
	key := n.RoutingKey()
	if !bytes.HasPrefix(key, []byte(RoutingPrefix)) {
		t.Fatalf("routing key missing prefix: %x", key)
	}
	if !bytes.Equal(key[len(RoutingPrefix):], n.Multihash()) {
		t.Fatalf("routing key body is not the name multihash")
	}
	back, err := FromRoutingKey(key)
	if err != nil {
		t.Fatalf("FromRoutingKey: %v", err)
	}
	if !back.Equal(n) {
		t.Fatalf("routing key round-trip changed the name")
	}
}

func TestFromRoutingKey_RejectsForeignPrefix(t *testing.T) {
	n := mustKeyPair(t, 0xD5).Name()
	key := append([]byte("/ipfs/"), n.Multihash()...)
	if _, err := FromRoutingKey(key); err == nil {
		t.Fatal("expected error for foreign namespace prefix")
	}
}

func TestExtractPublicKey_RoundTrip(t *testing.T) {
	kp := mustKeyPair(t, 0xE5)
	pub, err := ExtractPublicKey(kp.Name())
	if err != nil {
		t.Fatalf("ExtractPublicKey: %v", err)
	}
	if !bytes.Equal(pub, kp.Public()) {
		t.Fatalf("extracted key differs from the original")
	}
}

func TestExtractPublicKey_NonIdentityHash(t *testing.T) {
	// Names hashed with sha2-256 are structurally valid but do not carry
	// their key material.
	sum, err := multihash.Sum([]byte("some large rsa envelope"), multihash.SHA2_256, -1)
	if err != nil {
		t.Fatalf("multihash.Sum: %v", err)
	}
	n, err := FromRoutingKey(append([]byte(RoutingPrefix), sum...))
	if err != nil {
		t.Fatalf("FromRoutingKey: %v", err)
	}
	_, err = ExtractPublicKey(n)
	if err == nil {
		t.Fatal("expected error for hashed name")
	}
	if !IsKind(err, KindUnsupported) {
		t.Fatalf("expected KindUnsupported, got %v", err)
	}
}
