package keys

import (
	"crypto/ed25519"
	"crypto/sha256"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"
)

const (
	hkdfInfoLabel = "namesys/keys/label/v1:"
	hkdfInfoRoot  = "namesys/keys/root/v1"
)

// DeriveLabelSeed deterministically derives a label-specific Ed25519 seed
// from a root seed, so one backed-up root can publish under independent
// identities per site or application.
//
// Derivation is HKDF-SHA256 with a domain-separated info string; the label
// is part of the info, so distinct labels yield unrelated seeds.
func DeriveLabelSeed(rootSeed []byte, label string) ([]byte, error) {
	if len(rootSeed) != ed25519.SeedSize {
		return nil, fmt.Errorf("keys: root seed must be %d bytes", ed25519.SeedSize)
	}
	if err := CheckLabel(label); err != nil {
		return nil, err
	}
	return hkdfExpand(rootSeed, hkdfInfoLabel+label, ed25519.SeedSize)
}

func hkdfExpand(secret []byte, info string, outLen int) ([]byte, error) {
	r := hkdf.New(sha256.New, secret, nil, []byte(info))
	out := make([]byte, outLen)
	if _, err := io.ReadFull(r, out); err != nil {
		return nil, err
	}
	return out, nil
}
