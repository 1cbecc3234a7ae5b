// Package resolve turns names back into content hashes by walking an
// ordered list of strategies.
//
// Strategies are probed in the order the chain was built with; the order is
// part of the caller-visible contract. A failing strategy never aborts the
// walk: its error is logged, recorded, and the next strategy is tried. Only
// when every strategy has failed does Resolve return an ExhaustedError
// carrying one attempt per strategy, in probe order.
package resolve

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/neovate-digital/namesys/name"
	"github.com/neovate-digital/namesys/record"
)

// Result is a successful resolution.
type Result struct {
	// Value is the canonical string form of the content hash the name
	// points to.
	Value string
	// Record is the signed record behind the answer, when the strategy
	// fetched one. Strategies that only learn the value (e.g. a gateway)
	// leave it nil.
	Record *record.Record
	// Source names the strategy that answered.
	Source string
}

// Strategy is one way of resolving a name.
//
// Contract:
// - Resolve MUST return a non-nil Result or an error, never both nil.
// - Resolve MUST honor ctx.
// - Name MUST be stable; it identifies the strategy in attempts and logs.
type Strategy interface {
	Name() string
	Resolve(ctx context.Context, n name.Name) (*Result, error)
}

// Options controls chain construction.
type Options struct {
	// Logger receives per-strategy failures at debug level; nil means no
	// logging.
	Logger *zap.Logger
}

func (o Options) withDefaults() Options {
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	return o
}

// Chain resolves names by ordered fallback across strategies.
type Chain struct {
	strategies []Strategy
	log        *zap.Logger
}

// NewChain builds a chain that probes strategies in the given order.
// At least one strategy is required and names must be unique.
func NewChain(opts Options, strategies ...Strategy) (*Chain, error) {
	if len(strategies) == 0 {
		return nil, errors.New("resolve: at least one strategy is required")
	}
	seen := make(map[string]struct{}, len(strategies))
	for _, s := range strategies {
		if s == nil {
			return nil, errors.New("resolve: nil strategy")
		}
		if _, ok := seen[s.Name()]; ok {
			return nil, fmt.Errorf("resolve: duplicate strategy %q", s.Name())
		}
		seen[s.Name()] = struct{}{}
	}
	opts = opts.withDefaults()
	return &Chain{strategies: strategies, log: opts.Logger}, nil
}

// Strategies returns the probe order.
func (c *Chain) Strategies() []string {
	out := make([]string, 0, len(c.strategies))
	for _, s := range c.strategies {
		out = append(out, s.Name())
	}
	return out
}

// Resolve walks the strategies in order and returns the first answer.
//
// Caller cancellation wins over fallback: once ctx is done, Resolve stops
// probing and returns the context error instead of an ExhaustedError.
func (c *Chain) Resolve(ctx context.Context, n name.Name) (*Result, error) {
	if !n.Defined() {
		return nil, errors.New("resolve: undefined name")
	}

	attempts := make([]Attempt, 0, len(c.strategies))
	for _, s := range c.strategies {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		res, err := s.Resolve(ctx, n)
		if err == nil {
			res.Source = s.Name()
			c.log.Debug("name resolved",
				zap.String("name", n.String()),
				zap.String("strategy", s.Name()),
				zap.String("value", res.Value),
			)
			return res, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		c.log.Debug("strategy failed",
			zap.String("name", n.String()),
			zap.String("strategy", s.Name()),
			zap.Error(err),
		)
		attempts = append(attempts, Attempt{Strategy: s.Name(), Err: err})
	}
	return nil, newExhausted(n, attempts)
}
