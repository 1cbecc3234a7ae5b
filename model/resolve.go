package model

import (
	"context"

	"github.com/neovate-digital/namesys/name"
	"github.com/neovate-digital/namesys/resolve"
)

// ResolveOptions carries the strategy chain a resolution runs against.
type ResolveOptions struct {
	Chain *resolve.Chain
}

// Resolve runs the strategy chain for the requested name and returns the
// outcome as a boundary result.
//
// The request may name the identity directly or carry the private key; both
// entry points converge on the same chain. The error return is reserved for
// requests that cannot start (bad request shape, undecodable key or name);
// once the chain has run, success and failure are both reported inside the
// ResolutionResult.
func Resolve(ctx context.Context, req ResolveRequest, opts ResolveOptions) (*ResolutionResult, error) {
	if opts.Chain == nil {
		return nil, NewError(ErrInvalidRequest, "missing strategy chain")
	}

	n, err := requestedName(req)
	if err != nil {
		return nil, err
	}

	res, err := opts.Chain.Resolve(ctx, n)
	if err != nil {
		return &ResolutionResult{Success: false, Name: n.String(), Err: asCoded(mapErr(err))}, nil
	}

	return &ResolutionResult{
		Success: true,
		Name:    n.String(),
		Value:   res.Value,
		Source:  res.Source,
	}, nil
}

// requestedName converges the two entry points onto one identity.
func requestedName(req ResolveRequest) (name.Name, error) {
	hasName := req.Name != ""
	hasKey := req.Key != ""
	switch {
	case hasName && hasKey:
		return name.Name{}, NewError(ErrInvalidRequest, "request has both name and key")
	case !hasName && !hasKey:
		return name.Name{}, NewError(ErrInvalidRequest, "request missing name or key")
	case hasKey:
		kp, err := name.DecodePrivateKey(req.Key)
		if err != nil {
			return name.Name{}, mapErr(err)
		}
		return kp.Name(), nil
	}

	n, err := name.Parse(req.Name)
	if err != nil {
		return name.Name{}, mapErr(err)
	}
	return n, nil
}
