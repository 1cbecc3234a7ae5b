// Package storage defines the content store that name records point into.
//
// Published names resolve to content hashes; the bytes behind those hashes
// live in a CAS. The naming layer treats the store as an opaque local
// collaborator: bytes in, content hash out, no network semantics implied.
package storage

import "github.com/ipfs/go-cid"

// CAS is a minimal content-addressable store.
//
// Contract:
// - Put MUST be idempotent: storing the same bytes twice returns the same CID.
// - Stored objects MUST be immutable.
// - CIDs MUST be derived from the bytes written (CIDv1 raw + sha2-256,
//   matching cidutil.SumRaw).
// - Get MUST return ErrNotFound when the CID is absent and MUST NOT return
//   bytes that do not hash to the requested CID.
type CAS interface {
	Put(bytes []byte) (cid.Cid, error)
	Get(id cid.Cid) ([]byte, error)
	Has(id cid.Cid) bool
}
