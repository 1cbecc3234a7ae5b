// Package memory provides an in-process validating record store.
//
// It is the reference backend for tests and single-node setups: records are
// checked the same way a remote routing system would check them, so code
// exercised against it sees the full acceptance behavior without a network.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/benbjohnson/clock"

	"github.com/neovate-digital/namesys/record"
	"github.com/neovate-digital/namesys/routing"
)

// Options controls store construction. The zero value uses the system clock.
type Options struct {
	// Clock supplies the current time for validity checks.
	Clock clock.Clock
}

func (o Options) withDefaults() Options {
	if o.Clock == nil {
		o.Clock = clock.New()
	}
	return o
}

type entry struct {
	raw []byte
	rec *record.Record
}

// Store is an in-memory validating routing backend.
//
// Put refuses records that do not verify for their key, records older than
// what the store already holds, and equal-sequence records with different
// bytes. Get never serves a record whose validity window has closed; the
// entry is pruned instead.
type Store struct {
	opts Options

	mu   sync.Mutex
	recs map[string]entry
}

var _ routing.Backend = (*Store)(nil)

// New constructs an empty store.
func New(opts Options) *Store {
	return &Store{opts: opts.withDefaults(), recs: map[string]entry{}}
}

func (s *Store) Put(ctx context.Context, key, raw []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	rec, _, err := routing.Validate(key, raw, s.opts.Clock.Now())
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	k := string(key)
	cur, ok := s.recs[k]
	if ok {
		switch cmp := record.Compare(rec, cur.rec); {
		case cmp < 0:
			return fmt.Errorf("%w: older than the stored record (sequence %d < %d)", routing.ErrRejected, rec.Sequence, cur.rec.Sequence)
		case cmp == 0 && string(raw) == string(cur.raw):
			return nil
		case cmp == 0:
			return fmt.Errorf("%w: conflicts with an equal-sequence record", routing.ErrRejected)
		}
	}
	s.recs[k] = entry{raw: append([]byte(nil), raw...), rec: rec}
	return nil
}

func (s *Store) Get(ctx context.Context, key []byte) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	now := s.opts.Clock.Now()

	s.mu.Lock()
	defer s.mu.Unlock()
	k := string(key)
	cur, ok := s.recs[k]
	if !ok {
		return nil, routing.ErrNotFound
	}
	if cur.rec.Expired(now) {
		delete(s.recs, k)
		return nil, routing.ErrNotFound
	}
	return append([]byte(nil), cur.raw...), nil
}

// Len reports how many records the store currently holds.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.recs)
}
