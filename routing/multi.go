package routing

import (
	"context"
	"fmt"

	"github.com/neovate-digital/namesys/record"
)

// Named associates a Backend with a stable name.
//
// This is used for multi-backend orchestration where callers need to retain
// per-backend metadata (e.g., for reporting or auditing).
type Named struct {
	Name    string
	Backend Backend
}

// WritePolicy selects which backends a Fanout publishes to.
type WritePolicy int

const (
	// WriteAll publishes to every backend.
	WriteAll WritePolicy = iota
	// WriteFirst publishes only to the first backend; reads still consult all.
	WriteFirst
)

// Fanout composes multiple backends into one.
//
// Put writes per the WritePolicy, in slice order, and stops at the first
// failure; backends earlier in the slice may already hold the record when
// Put returns an error. Callers MUST supply a fixed order to keep behavior
// deterministic.
//
// Get queries every backend and returns the best record among the answers,
// where best means highest sequence and, on ties, latest validity. Ties on
// both are broken by backend order. Bytes that do not decode as records are
// skipped.
type Fanout struct {
	Backends []Named
	Write    WritePolicy
}

var _ Backend = (*Fanout)(nil)

func (f Fanout) Put(ctx context.Context, key, rec []byte) error {
	if len(f.Backends) == 0 {
		return fmt.Errorf("routing: Fanout has no backends")
	}
	targets := f.Backends
	if f.Write == WriteFirst {
		targets = targets[:1]
	}
	for _, b := range targets {
		if b.Backend == nil {
			return fmt.Errorf("routing: nil backend %q", b.Name)
		}
		if err := b.Backend.Put(ctx, key, rec); err != nil {
			return fmt.Errorf("routing: backend %q: %w", b.Name, err)
		}
	}
	return nil
}

func (f Fanout) Get(ctx context.Context, key []byte) ([]byte, error) {
	var (
		bestRaw []byte
		bestRec *record.Record
		lastErr error
	)
	for _, b := range f.Backends {
		if b.Backend == nil {
			continue
		}
		raw, err := b.Backend.Get(ctx, key)
		if err != nil {
			if !IsNotFound(err) {
				lastErr = fmt.Errorf("routing: backend %q: %w", b.Name, err)
			}
			continue
		}
		rec, err := record.Decode(raw)
		if err != nil {
			continue
		}
		if bestRec == nil || record.Compare(rec, bestRec) > 0 {
			bestRaw, bestRec = raw, rec
		}
	}
	if bestRec != nil {
		return bestRaw, nil
	}
	if lastErr != nil {
		return nil, lastErr
	}
	return nil, ErrNotFound
}
