package name

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/base64"
	"io"
)

// KeyPair is an Ed25519 signing identity.
type KeyPair struct {
	priv ed25519.PrivateKey
}

// GenerateKeyPair creates a fresh key pair from rng (crypto/rand when nil).
func GenerateKeyPair(rng io.Reader) (*KeyPair, error) {
	if rng == nil {
		rng = rand.Reader
	}
	_, priv, err := ed25519.GenerateKey(rng)
	if err != nil {
		return nil, wrapError(KindInternal, "NS-KEY-141", "key generation", err)
	}
	return &KeyPair{priv: priv}, nil
}

// KeyPairFromSeed derives the key pair for a 32-byte seed. Deterministic:
// the same seed always yields the same identity.
func KeyPairFromSeed(seed []byte) (*KeyPair, error) {
	if len(seed) != ed25519.SeedSize {
		return nil, newError(KindMalformed, "NS-KEY-142", "ed25519 seed must be 32 bytes")
	}
	return &KeyPair{priv: ed25519.NewKeyFromSeed(seed)}, nil
}

// KeyPairFromPrivateKey wraps an existing 64-byte private key.
func KeyPairFromPrivateKey(priv ed25519.PrivateKey) (*KeyPair, error) {
	if len(priv) != ed25519.PrivateKeySize {
		return nil, newError(KindMalformed, "NS-KEY-143", "ed25519 private key must be 64 bytes")
	}
	return &KeyPair{priv: append(ed25519.PrivateKey(nil), priv...)}, nil
}

// Public returns the public half.
func (kp *KeyPair) Public() ed25519.PublicKey {
	return kp.priv.Public().(ed25519.PublicKey)
}

// Private returns a copy of the 64-byte private key.
func (kp *KeyPair) Private() ed25519.PrivateKey {
	return append(ed25519.PrivateKey(nil), kp.priv...)
}

// Seed returns a copy of the 32-byte seed.
func (kp *KeyPair) Seed() []byte {
	return kp.priv.Seed()
}

// Sign signs message with the private key.
func (kp *KeyPair) Sign(message []byte) []byte {
	return ed25519.Sign(kp.priv, message)
}

// PublicEnvelope returns the envelope encoding of the public key.
func (kp *KeyPair) PublicEnvelope() []byte {
	return MarshalPublicKeyEnvelope(kp.Public())
}

// Name returns the identity derived from the public key.
func (kp *KeyPair) Name() Name {
	n, err := FromPublicKey(kp.Public())
	if err != nil {
		// FromPublicKey only rejects bad key lengths; a KeyPair always
		// holds a well-formed key.
		return Name{}
	}
	return n
}

// DecodePublicKey decodes the base64 transport form of an enveloped public
// key.
func DecodePublicKey(s string) (ed25519.PublicKey, error) {
	raw, err := decodeBase64(s)
	if err != nil {
		return nil, wrapError(KindMalformed, "NS-KEY-111", "invalid key base64", err)
	}
	return UnmarshalPublicKeyEnvelope(raw)
}

// EncodePublicKey returns the base64 transport form of pub.
func EncodePublicKey(pub ed25519.PublicKey) (string, error) {
	if len(pub) != ed25519.PublicKeySize {
		return "", newError(KindMalformed, "NS-KEY-112", "invalid ed25519 public key length")
	}
	return base64.StdEncoding.EncodeToString(MarshalPublicKeyEnvelope(pub)), nil
}

// DecodePrivateKey decodes the base64 transport form of an enveloped
// private key into a KeyPair.
func DecodePrivateKey(s string) (*KeyPair, error) {
	raw, err := decodeBase64(s)
	if err != nil {
		return nil, wrapError(KindMalformed, "NS-KEY-113", "invalid key base64", err)
	}
	priv, err := UnmarshalPrivateKeyEnvelope(raw)
	if err != nil {
		return nil, err
	}
	return &KeyPair{priv: priv}, nil
}

// EncodePrivateKey returns the base64 transport form of the private key.
func (kp *KeyPair) EncodePrivateKey() string {
	return base64.StdEncoding.EncodeToString(MarshalPrivateKeyEnvelope(kp.priv))
}

func decodeBase64(s string) ([]byte, error) {
	// Prefer standard padded encoding, but accept raw encoding too.
	if b, err := base64.StdEncoding.DecodeString(s); err == nil {
		return b, nil
	}
	return base64.RawStdEncoding.DecodeString(s)
}
