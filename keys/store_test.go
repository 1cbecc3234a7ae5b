package keys

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/neovate-digital/namesys/name"
)

func TestStore_InitRootAndLoad(t *testing.T) {
	st, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	seed := testRootSeed()
	n, path, err := st.InitRoot("personal", seed, false)
	if err != nil {
		t.Fatalf("InitRoot: %v", err)
	}

	wantKP, err := name.KeyPairFromSeed(seed)
	if err != nil {
		t.Fatalf("KeyPairFromSeed: %v", err)
	}
	if !n.Equal(wantKP.Name()) {
		t.Fatalf("InitRoot name = %s, want %s", n, wantKP.Name())
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Stat(%s): %v", path, err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Fatalf("key file mode = %o, want 600", perm)
	}

	kp, err := st.KeyPair("personal", "")
	if err != nil {
		t.Fatalf("KeyPair: %v", err)
	}
	if !bytes.Equal(kp.Seed(), seed) {
		t.Fatalf("loaded seed differs from stored seed")
	}

	// Re-init without overwrite must refuse.
	if _, _, err := st.InitRoot("personal", seed, false); err == nil {
		t.Fatalf("expected second InitRoot to fail without overwrite")
	}
	if _, _, err := st.InitRoot("personal", seed, true); err != nil {
		t.Fatalf("InitRoot(overwrite): %v", err)
	}
}

func TestStore_DeriveLabelMatchesDirectDerivation(t *testing.T) {
	st, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	seed := testRootSeed()
	if _, _, err := st.InitRoot("personal", seed, false); err != nil {
		t.Fatalf("InitRoot: %v", err)
	}

	n, _, err := st.DeriveLabel("personal", "blog", false)
	if err != nil {
		t.Fatalf("DeriveLabel: %v", err)
	}

	labelSeed, err := DeriveLabelSeed(seed, "blog")
	if err != nil {
		t.Fatalf("DeriveLabelSeed: %v", err)
	}
	wantKP, err := name.KeyPairFromSeed(labelSeed)
	if err != nil {
		t.Fatalf("KeyPairFromSeed: %v", err)
	}
	if !n.Equal(wantKP.Name()) {
		t.Fatalf("DeriveLabel name = %s, want %s", n, wantKP.Name())
	}

	kp, err := st.KeyPair("personal", "blog")
	if err != nil {
		t.Fatalf("KeyPair(label): %v", err)
	}
	if !kp.Name().Equal(wantKP.Name()) {
		t.Fatalf("loaded label key differs from derived key")
	}
}

func TestStore_List(t *testing.T) {
	st, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	if entries, err := st.List(); err != nil || entries != nil {
		t.Fatalf("List on empty store: entries=%v err=%v", entries, err)
	}

	seed := testRootSeed()
	if _, _, err := st.InitRoot("work", seed, false); err != nil {
		t.Fatalf("InitRoot(work): %v", err)
	}
	if _, _, err := st.InitRoot("personal", seed, false); err != nil {
		t.Fatalf("InitRoot(personal): %v", err)
	}
	if _, _, err := st.DeriveLabel("personal", "docs", false); err != nil {
		t.Fatalf("DeriveLabel(docs): %v", err)
	}
	if _, _, err := st.DeriveLabel("personal", "blog", false); err != nil {
		t.Fatalf("DeriveLabel(blog): %v", err)
	}

	entries, err := st.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("List entries = %d, want 2", len(entries))
	}
	if entries[0].Name != "personal" || entries[1].Name != "work" {
		t.Fatalf("List order: %v", entries)
	}
	if len(entries[0].Labels) != 2 || entries[0].Labels[0] != "blog" || entries[0].Labels[1] != "docs" {
		t.Fatalf("personal labels: %v", entries[0].Labels)
	}
}

func TestStore_ResolveKeyPairPrecedence(t *testing.T) {
	st, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	storedSeed := testRootSeed()
	if _, _, err := st.InitRoot("personal", storedSeed, false); err != nil {
		t.Fatalf("InitRoot: %v", err)
	}

	inlineSeed := bytes.Repeat([]byte{0xAB}, 32)
	inlineHex := "abababababababababababababababababababababababababababababababab"

	// Inline seed wins over the stored key.
	kp, err := st.ResolveKeyPair(inlineHex, "personal", "", "")
	if err != nil {
		t.Fatalf("ResolveKeyPair(seed): %v", err)
	}
	if !bytes.Equal(kp.Seed(), inlineSeed) {
		t.Fatalf("inline seed not used")
	}

	// Key file wins over the stored key.
	fileSeed := bytes.Repeat([]byte{0xCD}, 32)
	keyFile := filepath.Join(t.TempDir(), "loose.key")
	if err := os.WriteFile(keyFile, []byte("cdcdcdcdcdcdcdcdcdcdcdcdcdcdcdcdcdcdcdcdcdcdcdcdcdcdcdcdcdcdcdcd\n"), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	kp, err = st.ResolveKeyPair("", "personal", "", keyFile)
	if err != nil {
		t.Fatalf("ResolveKeyPair(file): %v", err)
	}
	if !bytes.Equal(kp.Seed(), fileSeed) {
		t.Fatalf("key file not used")
	}

	// Stored key by name.
	kp, err = st.ResolveKeyPair("", "personal", "", "")
	if err != nil {
		t.Fatalf("ResolveKeyPair(name): %v", err)
	}
	if !bytes.Equal(kp.Seed(), storedSeed) {
		t.Fatalf("stored key not used")
	}

	if _, err := st.ResolveKeyPair("", "", "", ""); err == nil {
		t.Fatalf("expected error with no key source")
	}
}

func TestEnvelopeRoundTrip(t *testing.T) {
	seed := testRootSeed()

	env, err := EnvelopeFromSeed(seed)
	if err != nil {
		t.Fatalf("EnvelopeFromSeed: %v", err)
	}

	// The envelope is exactly what the decoder accepts.
	kp, err := name.DecodePrivateKey(env)
	if err != nil {
		t.Fatalf("DecodePrivateKey: %v", err)
	}
	if !bytes.Equal(kp.Seed(), seed) {
		t.Fatalf("envelope round trip lost the seed")
	}

	back, err := SeedFromEnvelope(env)
	if err != nil {
		t.Fatalf("SeedFromEnvelope: %v", err)
	}
	if !bytes.Equal(back, seed) {
		t.Fatalf("SeedFromEnvelope mismatch")
	}
}

func TestCheckNameAndLabel(t *testing.T) {
	for _, ok := range []string{"personal", "Work-2", "a_b"} {
		if err := CheckName(ok); err != nil {
			t.Fatalf("CheckName(%q): %v", ok, err)
		}
		if err := CheckLabel(ok); err != nil {
			t.Fatalf("CheckLabel(%q): %v", ok, err)
		}
	}
	for _, bad := range []string{"", "has space", "dot.dot", "slash/name", ".."} {
		if err := CheckName(bad); err == nil {
			t.Fatalf("CheckName(%q) should fail", bad)
		}
		if err := CheckLabel(bad); err == nil {
			t.Fatalf("CheckLabel(%q) should fail", bad)
		}
	}
}
