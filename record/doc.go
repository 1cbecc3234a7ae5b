// Package record implements the signed name record, SNR v1: the versioned,
// Ed25519-signed binding from an identity to a content hash.
//
// A record carries the target content hash, a monotonically increasing
// sequence number, an absolute validity instant, a TTL freshness hint, the
// owner's enveloped public key, and the signature. The wire encoding is
// canonical: one byte sequence per record, enforced on decode, so records
// can be compared, stored, and re-verified byte for byte. The encoding is
// documented in this package precisely enough for an independent
// implementation to reproduce it.
//
// Records are built with New and never mutated; every publish builds a
// fresh record.
package record
