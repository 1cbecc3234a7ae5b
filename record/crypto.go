package record

import (
	"crypto/ed25519"
	"crypto/sha256"

	"github.com/neovate-digital/namesys/name"
)

// signatureDomain separates record signatures from any other use of the
// same Ed25519 key. The signed message is
//
//	sha256(signatureDomain || canonical fields 1-4)
//
// so mutating the value, sequence, validity, or ttl invalidates the
// signature, while the public_key and signature fields stay outside the
// scope.
const signatureDomain = "namesys/record-signature/v1\n"

func signingScope(r *Record) []byte {
	scope := append([]byte(nil), signatureDomain...)
	return appendDataFields(scope, r.Value, r.Sequence, r.Validity, r.TTL)
}

func signRecord(kp *name.KeyPair, r *Record) []byte {
	digest := sha256.Sum256(signingScope(r))
	return kp.Sign(digest[:])
}

// Verify checks the record signature against the embedded public key.
//
// Verification always runs over the canonical bytes captured by New or
// Decode; a record without canonical bytes fails. Embedded keys of any
// type other than Ed25519 are refused.
func (r *Record) Verify() error {
	if r == nil {
		return newError(KindValidation, "NS-SIG-401", "nil record")
	}
	if len(r.wire) == 0 {
		return newError(KindValidation, "NS-SIG-402", "record has no canonical bytes; build with New or Decode")
	}
	parsed, err := Decode(r.wire)
	if err != nil {
		return err
	}
	pub, err := name.UnmarshalPublicKeyEnvelope(parsed.PublicKey)
	if err != nil {
		return wrapError(KindCrypto, "NS-SIG-403", "record public key", err)
	}
	digest := sha256.Sum256(signingScope(parsed))
	if !ed25519.Verify(pub, digest[:], parsed.Signature) {
		return newError(KindCrypto, "NS-SIG-404", "record signature invalid")
	}
	return nil
}

// Owner returns the Name derived from the record's embedded public key.
func (r *Record) Owner() (name.Name, error) {
	pub, err := name.UnmarshalPublicKeyEnvelope(r.PublicKey)
	if err != nil {
		return name.Name{}, wrapError(KindCrypto, "NS-SIG-403", "record public key", err)
	}
	return name.FromPublicKey(pub)
}

// VerifyOwner verifies the signature and that the record belongs to n.
// This is the check resolvers apply before trusting a fetched record.
func (r *Record) VerifyOwner(n name.Name) error {
	if err := r.Verify(); err != nil {
		return err
	}
	owner, err := r.Owner()
	if err != nil {
		return err
	}
	if !owner.Equal(n) {
		return newError(KindCrypto, "NS-SIG-405", "record signed by a different identity")
	}
	return nil
}
