package keys

import "github.com/neovate-digital/namesys/name"

// EnvelopeFromSeed returns the base64 transport envelope for a seed's
// private key, the form name.DecodePrivateKey accepts.
func EnvelopeFromSeed(seed []byte) (string, error) {
	kp, err := name.KeyPairFromSeed(seed)
	if err != nil {
		return "", err
	}
	return kp.EncodePrivateKey(), nil
}

// SeedFromEnvelope extracts the 32-byte seed from a base64 private-key
// envelope, so envelope-form keys can enter the keystore.
func SeedFromEnvelope(s string) ([]byte, error) {
	kp, err := name.DecodePrivateKey(s)
	if err != nil {
		return nil, err
	}
	return kp.Seed(), nil
}
