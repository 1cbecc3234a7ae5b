package resolve

import (
	"context"
	"fmt"

	"github.com/benbjohnson/clock"

	"github.com/neovate-digital/namesys/name"
	"github.com/neovate-digital/namesys/record"
	"github.com/neovate-digital/namesys/routing"
)

// RoutingOptions controls the routing strategy. The zero value uses the
// system clock.
type RoutingOptions struct {
	// Clock supplies the current time for validity checks.
	Clock clock.Clock
}

// Routing resolves names by fetching the signed record from a routing
// backend. Fetched records are fully checked here: a backend answer that
// does not decode, does not verify for the name, or has expired counts as
// a strategy failure, never as an answer.
type Routing struct {
	backend routing.Backend
	clk     clock.Clock
}

var _ Strategy = (*Routing)(nil)

// NewRouting builds the strategy over backend.
func NewRouting(backend routing.Backend, opts RoutingOptions) *Routing {
	clk := opts.Clock
	if clk == nil {
		clk = clock.New()
	}
	return &Routing{backend: backend, clk: clk}
}

func (r *Routing) Name() string { return "routing" }

func (r *Routing) Resolve(ctx context.Context, n name.Name) (*Result, error) {
	raw, err := r.backend.Get(ctx, n.RoutingKey())
	if err != nil {
		return nil, err
	}
	rec, err := record.Decode(raw)
	if err != nil {
		return nil, fmt.Errorf("backend returned undecodable bytes: %w", err)
	}
	if err := rec.VerifyOwner(n); err != nil {
		return nil, fmt.Errorf("backend returned a record that does not verify: %w", err)
	}
	if rec.Expired(r.clk.Now()) {
		return nil, fmt.Errorf("record validity window has closed at %s", rec.Validity)
	}
	return &Result{Value: rec.Value.String(), Record: rec}, nil
}
