package resolve

import (
	"context"
	"fmt"

	"github.com/neovate-digital/namesys/name"
	"github.com/neovate-digital/namesys/record"
)

// Static resolves names from a fixed table, keyed by the canonical name
// string. It is meant for bootstrap pins and tests; entries are validated
// at construction so a chain never serves a malformed value.
type Static struct {
	entries map[string]string
}

var _ Strategy = (*Static)(nil)

// NewStatic builds the strategy from entries mapping name strings to
// content hash strings.
func NewStatic(entries map[string]string) (*Static, error) {
	table := make(map[string]string, len(entries))
	for k, v := range entries {
		n, err := name.Parse(k)
		if err != nil {
			return nil, fmt.Errorf("resolve: static entry %q: %w", k, err)
		}
		c, err := record.ParseValue(v)
		if err != nil {
			return nil, fmt.Errorf("resolve: static entry %q: %w", k, err)
		}
		table[n.String()] = c.String()
	}
	return &Static{entries: table}, nil
}

func (s *Static) Name() string { return "static" }

func (s *Static) Resolve(ctx context.Context, n name.Name) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	v, ok := s.entries[n.String()]
	if !ok {
		return nil, fmt.Errorf("no static entry for %s", n)
	}
	return &Result{Value: v}, nil
}
