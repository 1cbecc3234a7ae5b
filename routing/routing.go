// Package routing defines the backend contract that signed name records
// are published through and fetched from, plus shared validation rules for
// stores that refuse bad records.
//
// A routing backend is a key-value view keyed by routing keys (see
// name.RoutingKey). The engine treats it as an injected collaborator: the
// record layer never knows whether the backend is an in-memory map, a
// sqlite file, or a remote service.
package routing

import (
	"context"
	"time"

	"github.com/neovate-digital/namesys/name"
	"github.com/neovate-digital/namesys/record"
)

// Backend is a minimal routing system interface.
//
// Contract:
// - Put MUST be all-or-nothing: any non-success outcome means the record
//   is not observable through this backend.
// - Put MUST be idempotent for identical bytes under the same key.
// - Get MUST return ErrNotFound when nothing lives under the key.
// - Both calls MUST honor ctx.
type Backend interface {
	Put(ctx context.Context, key, rec []byte) error
	Get(ctx context.Context, key []byte) ([]byte, error)
}

// Validate checks that raw is a record a validating store may hold under
// key: the key names an identity, the bytes decode canonically, the record
// verifies against that identity, and the validity window is still open at
// now. On success it returns the decoded record and the identity.
func Validate(key, raw []byte, now time.Time) (*record.Record, name.Name, error) {
	n, err := name.FromRoutingKey(key)
	if err != nil {
		return nil, name.Name{}, rejectedf("routing key does not name an identity: %v", err)
	}
	rec, err := record.Decode(raw)
	if err != nil {
		return nil, name.Name{}, rejectedf("record does not decode canonically: %v", err)
	}
	if err := rec.VerifyOwner(n); err != nil {
		return nil, name.Name{}, rejectedf("record does not verify for this key: %v", err)
	}
	if rec.Expired(now) {
		return nil, name.Name{}, rejectedf("record validity window has closed")
	}
	return rec, n, nil
}
