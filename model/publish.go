package model

import (
	"context"
	"time"

	"github.com/benbjohnson/clock"
	"go.uber.org/zap"

	"github.com/neovate-digital/namesys/name"
	"github.com/neovate-digital/namesys/record"
	"github.com/neovate-digital/namesys/routing"
	"github.com/neovate-digital/namesys/storage"
)

// PublishOptions carries the collaborators a publish runs against.
type PublishOptions struct {
	// Routing is the backend the signed record is written to. When nil,
	// OpenRouting is consulted instead.
	Routing routing.Backend
	// OpenRouting opens a routing session for this one publish. The session
	// is closed before Publish returns, on success and on every failure
	// path alike.
	OpenRouting func() (routing.Backend, func() error, error)

	// Store receives raw content for requests that carry Bytes.
	Store storage.CAS

	// Lifetime and TTL override the record defaults when positive.
	Lifetime time.Duration
	TTL      time.Duration

	// Clock supplies record timestamps; nil means the system clock.
	Clock clock.Clock
	// Logger receives publish events; nil disables logging.
	Logger *zap.Logger
}

// Publish signs a fresh record binding the key's identity to the requested
// content and writes it to the routing backend.
//
// Publishing is all-or-nothing: any failure before the routing write means
// nothing was published, and a failed write reports ROUTING_REJECTED or
// ROUTING_UNAVAILABLE without a partial result.
func Publish(ctx context.Context, req PublishRequest, opts PublishOptions) (*PublishResult, error) {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}

	kp, err := name.DecodePrivateKey(req.Key)
	if err != nil {
		return nil, mapErr(err)
	}

	value, err := resolveContent(req, opts.Store)
	if err != nil {
		return nil, err
	}

	rec, err := record.New(kp, value, record.Options{
		Sequence:     req.Sequence,
		PrevSequence: req.PrevSequence,
		Lifetime:     opts.Lifetime,
		TTL:          opts.TTL,
		Clock:        opts.Clock,
	})
	if err != nil {
		return nil, mapErr(err)
	}

	backend := opts.Routing
	if backend == nil && opts.OpenRouting != nil {
		opened, closeFn, oerr := opts.OpenRouting()
		if oerr != nil {
			return nil, wrapError(ErrRoutingUnavailable, oerr)
		}
		if closeFn != nil {
			defer func() { _ = closeFn() }()
		}
		backend = opened
	}
	if backend == nil {
		return nil, NewError(ErrMissingRouting, "no routing backend configured")
	}

	n := kp.Name()
	if err := backend.Put(ctx, n.RoutingKey(), rec.Bytes()); err != nil {
		return nil, mapErr(err)
	}

	log.Debug("name published",
		zap.String("name", n.String()),
		zap.String("value", rec.Value.String()),
		zap.Uint64("sequence", rec.Sequence),
	)

	return &PublishResult{
		Name:       n.String(),
		Value:      rec.Value.String(),
		Sequence:   rec.Sequence,
		Validity:   rec.Validity,
		RoutingKey: n.RoutingKey(),
	}, nil
}

// resolveContent returns the content hash to publish: the requested value,
// or the hash of freshly stored bytes.
func resolveContent(req PublishRequest, store storage.CAS) (string, error) {
	hasValue := req.Value != ""
	hasBytes := len(req.Bytes) > 0
	switch {
	case hasValue && hasBytes:
		return "", NewError(ErrInvalidRequest, "request has both value and bytes")
	case !hasValue && !hasBytes:
		return "", NewError(ErrInvalidRequest, "request missing value or bytes")
	case hasValue:
		return req.Value, nil
	}

	if store == nil {
		return "", NewError(ErrMissingStore, "request carries bytes but no content store is configured")
	}
	id, err := store.Put(req.Bytes)
	if err != nil {
		return "", mapErr(err)
	}
	return id.String(), nil
}
