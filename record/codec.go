package record

import (
	"bytes"
	"crypto/ed25519"
	"math"
	"time"

	"github.com/ipfs/go-cid"
	"google.golang.org/protobuf/encoding/protowire"
)

// Wire format (SNR v1).
//
// A record is a protobuf-framed message with six fields, each emitted
// exactly once, in ascending field order:
//
//	1 value      (bytes)  UTF-8 of the canonical CID string
//	2 sequence   (varint) version counter
//	3 validity   (bytes)  RFC 3339 instant, UTC, minimal nanoseconds
//	4 ttl        (varint) freshness hint in nanoseconds
//	5 public_key (bytes)  enveloped public key of the owner
//	6 signature  (bytes)  64-byte Ed25519 signature
//
// There is exactly one valid byte sequence for a given record: Decode
// parses strictly (no unknown, repeated, or reordered fields), re-encodes,
// and requires byte equality with the input. The signature covers fields
// 1-4 prefixed with a domain separator; see crypto.go.
const (
	fieldValue     protowire.Number = 1
	fieldSequence  protowire.Number = 2
	fieldValidity  protowire.Number = 3
	fieldTTL       protowire.Number = 4
	fieldPublicKey protowire.Number = 5
	fieldSignature protowire.Number = 6
)

// validityLayout is the canonical rendering of the validity instant.
// time.Parse + UTC + re-Format is idempotent under this layout, which the
// re-encode equality check relies on: a validity string carrying an offset
// or padded nanoseconds re-renders differently and is rejected.
const validityLayout = time.RFC3339Nano

// appendDataFields appends the canonical encoding of fields 1-4, the
// portion of the record covered by the signature.
func appendDataFields(b []byte, value cid.Cid, seq uint64, validity time.Time, ttl time.Duration) []byte {
	b = protowire.AppendTag(b, fieldValue, protowire.BytesType)
	b = protowire.AppendBytes(b, []byte(value.String()))
	b = protowire.AppendTag(b, fieldSequence, protowire.VarintType)
	b = protowire.AppendVarint(b, seq)
	b = protowire.AppendTag(b, fieldValidity, protowire.BytesType)
	b = protowire.AppendBytes(b, []byte(validity.UTC().Format(validityLayout)))
	b = protowire.AppendTag(b, fieldTTL, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(ttl))
	return b
}

// Encode renders the canonical byte encoding of r.
func Encode(r *Record) ([]byte, error) {
	if r == nil {
		return nil, newError(KindValidation, "NS-WIRE-301", "nil record")
	}
	if !r.Value.Defined() {
		return nil, newError(KindValidation, "NS-WIRE-302", "record value is not a cid")
	}
	if r.TTL < 0 {
		return nil, newError(KindValidation, "NS-WIRE-303", "negative ttl")
	}
	if len(r.PublicKey) == 0 {
		return nil, newError(KindValidation, "NS-WIRE-304", "record missing public key")
	}
	if len(r.Signature) != ed25519.SignatureSize {
		return nil, newError(KindValidation, "NS-WIRE-305", "record signature must be 64 bytes")
	}
	b := appendDataFields(nil, r.Value, r.Sequence, r.Validity, r.TTL)
	b = protowire.AppendTag(b, fieldPublicKey, protowire.BytesType)
	b = protowire.AppendBytes(b, r.PublicKey)
	b = protowire.AppendTag(b, fieldSignature, protowire.BytesType)
	b = protowire.AppendBytes(b, r.Signature)
	return b, nil
}

// Decode parses canonical record bytes.
//
// Decode accepts exactly the bytes Encode produces: six known fields, each
// once, in order, nothing trailing, and every field in its canonical
// rendering. Anything else fails with KindParse.
func Decode(b []byte) (*Record, error) {
	if len(b) == 0 {
		return nil, newError(KindParse, "NS-WIRE-311", "empty record")
	}
	rec := &Record{}
	rest := b
	for _, field := range []protowire.Number{
		fieldValue, fieldSequence, fieldValidity, fieldTTL, fieldPublicKey, fieldSignature,
	} {
		num, typ, n := protowire.ConsumeTag(rest)
		if n < 0 {
			return nil, newError(KindParse, "NS-WIRE-312", "invalid field tag")
		}
		if num != field {
			return nil, newError(KindParse, "NS-WIRE-313", "fields must appear exactly once in ascending order")
		}
		rest = rest[n:]
		switch field {
		case fieldSequence, fieldTTL:
			if typ != protowire.VarintType {
				return nil, newError(KindParse, "NS-WIRE-314", "wrong wire type for varint field")
			}
			v, n := protowire.ConsumeVarint(rest)
			if n < 0 {
				return nil, newError(KindParse, "NS-WIRE-315", "invalid varint")
			}
			rest = rest[n:]
			if field == fieldSequence {
				rec.Sequence = v
			} else {
				if v > uint64(math.MaxInt64) {
					return nil, newError(KindParse, "NS-WIRE-316", "ttl out of range")
				}
				rec.TTL = time.Duration(v)
			}
		default:
			if typ != protowire.BytesType {
				return nil, newError(KindParse, "NS-WIRE-317", "wrong wire type for bytes field")
			}
			raw, n := protowire.ConsumeBytes(rest)
			if n < 0 {
				return nil, newError(KindParse, "NS-WIRE-318", "invalid bytes field")
			}
			rest = rest[n:]
			switch field {
			case fieldValue:
				c, err := cid.Decode(string(raw))
				if err != nil {
					return nil, wrapError(KindParse, "NS-WIRE-319", "record value is not a cid", err)
				}
				rec.Value = c
			case fieldValidity:
				ts, err := time.Parse(validityLayout, string(raw))
				if err != nil {
					return nil, wrapError(KindParse, "NS-WIRE-320", "record validity is not an rfc3339 instant", err)
				}
				rec.Validity = ts.UTC()
			case fieldPublicKey:
				rec.PublicKey = append([]byte(nil), raw...)
			case fieldSignature:
				rec.Signature = append([]byte(nil), raw...)
			}
		}
	}
	if len(rest) != 0 {
		return nil, newError(KindParse, "NS-WIRE-321", "trailing bytes after signature")
	}

	// Re-encode and require byte equality so that non-canonical renderings
	// (offset timestamps, alternate cid strings) cannot share a signature
	// with the canonical form.
	enc, err := Encode(rec)
	if err != nil {
		return nil, err
	}
	if !bytes.Equal(enc, b) {
		return nil, newError(KindParse, "NS-WIRE-322", "record bytes are not canonical")
	}
	rec.wire = enc
	return rec, nil
}
