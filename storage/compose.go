package storage

import (
	"fmt"

	"github.com/ipfs/go-cid"

	"github.com/neovate-digital/namesys/cidutil"
)

// Named associates a CAS with a stable name.
//
// This is used for multi-store orchestration where callers need to retain
// per-store metadata (e.g., for reporting or auditing).
type Named struct {
	Name string
	CAS  CAS
}

// WritePolicy selects which stores a Fanout writes to.
type WritePolicy int

const (
	// WriteAll writes to every store and requires every returned CID to
	// match the canonical CID of the bytes.
	WriteAll WritePolicy = iota
	// WriteFirst writes only to the first store; reads still consult all.
	WriteFirst
)

// Fanout composes multiple content stores into one.
//
// Get falls back in slice order; callers MUST supply a fixed order to keep
// retrieval deterministic. Put writes per the WritePolicy. Content is
// immutable and self-addressed, so unlike a record fanout there is no
// best-answer selection: the first store holding the CID answers.
type Fanout struct {
	Backends []Named
	Write    WritePolicy
}

var _ CAS = (*Fanout)(nil)

// PutAll writes the same bytes to every store regardless of the
// WritePolicy and returns the canonical CID plus the per-store CIDs.
// A store returning a different CID fails the write with ErrCIDMismatch;
// the map then holds the answers seen so far.
func (f Fanout) PutAll(bytes []byte) (cid.Cid, map[string]cid.Cid, error) {
	if len(f.Backends) == 0 {
		return cid.Undef, nil, fmt.Errorf("storage: Fanout has no backends")
	}
	want, err := cidutil.SumRaw(bytes)
	if err != nil {
		return cid.Undef, nil, err
	}

	out := make(map[string]cid.Cid, len(f.Backends))
	for _, b := range f.Backends {
		if b.CAS == nil {
			return cid.Undef, nil, fmt.Errorf("storage: nil store %q", b.Name)
		}
		got, err := b.CAS.Put(bytes)
		if err != nil {
			return cid.Undef, out, fmt.Errorf("storage: store %q: %w", b.Name, err)
		}
		out[b.Name] = got
		if got != want {
			return cid.Undef, out, fmt.Errorf("storage: store %q returned %s, want %s: %w", b.Name, got, want, ErrCIDMismatch)
		}
	}
	return want, out, nil
}

func (f Fanout) Put(bytes []byte) (cid.Cid, error) {
	if len(f.Backends) == 0 {
		return cid.Undef, fmt.Errorf("storage: Fanout has no backends")
	}
	if f.Write == WriteFirst {
		if f.Backends[0].CAS == nil {
			return cid.Undef, fmt.Errorf("storage: nil store %q", f.Backends[0].Name)
		}
		return f.Backends[0].CAS.Put(bytes)
	}
	id, _, err := f.PutAll(bytes)
	return id, err
}

func (f Fanout) Get(id cid.Cid) ([]byte, error) {
	var lastErr error
	for _, b := range f.Backends {
		if b.CAS == nil {
			continue
		}
		out, err := b.CAS.Get(id)
		if err == nil {
			return out, nil
		}
		if IsNotFound(err) {
			continue
		}
		lastErr = fmt.Errorf("storage: store %q: %w", b.Name, err)
	}
	if lastErr != nil {
		return nil, lastErr
	}
	return nil, ErrNotFound
}

func (f Fanout) Has(id cid.Cid) bool {
	for _, b := range f.Backends {
		if b.CAS != nil && b.CAS.Has(id) {
			return true
		}
	}
	return false
}
