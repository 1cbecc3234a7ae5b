package storage

import "errors"

// ErrNotFound reports that no block lives under the requested CID.
var ErrNotFound = errors.New("storage: not found")

// ErrInvalidCID reports that the CID does not parse or is not the
// canonical form this store accepts.
var ErrInvalidCID = errors.New("storage: invalid cid")

// ErrCIDMismatch reports that stored or returned bytes do not hash to
// the CID they were addressed by.
var ErrCIDMismatch = errors.New("storage: cid mismatch")

// ErrImmutable reports a write that would change bytes already stored
// under a CID. Blocks are write-once; identical re-puts succeed.
var ErrImmutable = errors.New("storage: immutable object mismatch")

// IsNotFound reports whether err indicates an absent block.
func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }
