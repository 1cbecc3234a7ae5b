package keys

import (
	"crypto/ed25519"
	"errors"
	"strings"

	"github.com/tyler-smith/go-bip39"
)

var ErrInvalidMnemonic = errors.New("keys: invalid mnemonic")

// NewMnemonic generates a fresh 24-word BIP-39 mnemonic for a root seed.
func NewMnemonic() (string, error) {
	entropy, err := bip39.NewEntropy(256)
	if err != nil {
		return "", err
	}
	return bip39.NewMnemonic(entropy)
}

// SeedFromMnemonic recovers the root seed for a mnemonic and optional
// passphrase. The BIP-39 seed is reduced to an Ed25519 seed through HKDF
// under a fixed info string, so the same mnemonic always recovers the same
// identity.
func SeedFromMnemonic(mnemonic, passphrase string) ([]byte, error) {
	mnemonic = strings.TrimSpace(mnemonic)
	if !bip39.IsMnemonicValid(mnemonic) {
		return nil, ErrInvalidMnemonic
	}
	return hkdfExpand(bip39.NewSeed(mnemonic, passphrase), hkdfInfoRoot, ed25519.SeedSize)
}

// ValidateMnemonic reports whether mnemonic is a well-formed BIP-39 phrase.
func ValidateMnemonic(mnemonic string) bool {
	return bip39.IsMnemonicValid(strings.TrimSpace(mnemonic))
}
