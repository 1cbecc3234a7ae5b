package name

import (
	"crypto/ed25519"
	"strconv"

	"google.golang.org/protobuf/encoding/protowire"
)

// KeyType tags the algorithm of an enveloped key. The numeric values are
// wire format and never change.
type KeyType uint64

const (
	KeyTypeRSA       KeyType = 0
	KeyTypeEd25519   KeyType = 1
	KeyTypeSecp256k1 KeyType = 2
	KeyTypeECDSA     KeyType = 3
)

func (t KeyType) String() string {
	switch t {
	case KeyTypeRSA:
		return "rsa"
	case KeyTypeEd25519:
		return "ed25519"
	case KeyTypeSecp256k1:
		return "secp256k1"
	case KeyTypeECDSA:
		return "ecdsa"
	default:
		return "keytype(" + strconv.FormatUint(uint64(t), 10) + ")"
	}
}

// Envelope field numbers. The envelope is a two-field protobuf message:
// field 1 the key type varint, field 2 the key bytes.
const (
	fieldKeyType protowire.Number = 1
	fieldKeyData protowire.Number = 2
)

// MarshalPublicKeyEnvelope wraps raw Ed25519 public key bytes in the
// transport envelope. For a 32-byte key the envelope is always 36 bytes.
func MarshalPublicKeyEnvelope(pub ed25519.PublicKey) []byte {
	return marshalEnvelope(KeyTypeEd25519, pub)
}

// MarshalPrivateKeyEnvelope wraps a 64-byte Ed25519 private key in the
// transport envelope.
func MarshalPrivateKeyEnvelope(priv ed25519.PrivateKey) []byte {
	return marshalEnvelope(KeyTypeEd25519, priv)
}

func marshalEnvelope(t KeyType, data []byte) []byte {
	b := protowire.AppendTag(nil, fieldKeyType, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(t))
	b = protowire.AppendTag(b, fieldKeyData, protowire.BytesType)
	b = protowire.AppendBytes(b, data)
	return b
}

// unmarshalEnvelope parses an envelope strictly: both fields exactly once,
// in field order, nothing else. Looser proto-legal encodings (reordered or
// repeated fields) are rejected so that envelope bytes are canonical.
func unmarshalEnvelope(b []byte) (KeyType, []byte, error) {
	if len(b) == 0 {
		return 0, nil, newError(KindMalformed, "NS-KEY-101", "empty key envelope")
	}
	num, typ, n := protowire.ConsumeTag(b)
	if n < 0 {
		return 0, nil, newError(KindMalformed, "NS-KEY-102", "invalid envelope tag")
	}
	if num != fieldKeyType || typ != protowire.VarintType {
		return 0, nil, newError(KindMalformed, "NS-KEY-103", "envelope must start with the key type field")
	}
	b = b[n:]
	v, n := protowire.ConsumeVarint(b)
	if n < 0 {
		return 0, nil, newError(KindMalformed, "NS-KEY-104", "invalid key type varint")
	}
	b = b[n:]
	num, typ, n = protowire.ConsumeTag(b)
	if n < 0 {
		return 0, nil, newError(KindMalformed, "NS-KEY-105", "missing key data field")
	}
	if num != fieldKeyData || typ != protowire.BytesType {
		return 0, nil, newError(KindMalformed, "NS-KEY-106", "envelope must carry key data after the key type")
	}
	b = b[n:]
	data, n := protowire.ConsumeBytes(b)
	if n < 0 {
		return 0, nil, newError(KindMalformed, "NS-KEY-107", "invalid key data field")
	}
	if len(b[n:]) != 0 {
		return 0, nil, newError(KindMalformed, "NS-KEY-108", "trailing bytes after key data")
	}
	return KeyType(v), data, nil
}

// UnmarshalPublicKeyEnvelope decodes an envelope and returns the Ed25519
// public key it carries. Envelopes carrying any other key type fail with
// KindUnsupported; envelopes that do not decode fail with KindMalformed.
func UnmarshalPublicKeyEnvelope(b []byte) (ed25519.PublicKey, error) {
	t, data, err := unmarshalEnvelope(b)
	if err != nil {
		return nil, err
	}
	if t != KeyTypeEd25519 {
		return nil, newError(KindUnsupported, "NS-KEY-121", "unsupported key type "+t.String())
	}
	if len(data) != ed25519.PublicKeySize {
		return nil, newError(KindMalformed, "NS-KEY-122", "invalid ed25519 public key length")
	}
	return ed25519.PublicKey(append([]byte(nil), data...)), nil
}

// UnmarshalPrivateKeyEnvelope decodes an envelope and returns the Ed25519
// private key it carries. The data field must be the full 64-byte private
// key (seed followed by public half).
func UnmarshalPrivateKeyEnvelope(b []byte) (ed25519.PrivateKey, error) {
	t, data, err := unmarshalEnvelope(b)
	if err != nil {
		return nil, err
	}
	if t != KeyTypeEd25519 {
		return nil, newError(KindUnsupported, "NS-KEY-123", "unsupported key type "+t.String())
	}
	if len(data) != ed25519.PrivateKeySize {
		return nil, newError(KindMalformed, "NS-KEY-124", "invalid ed25519 private key length")
	}
	return ed25519.PrivateKey(append([]byte(nil), data...)), nil
}
