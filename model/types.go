package model

import "time"

// PublishRequest asks for a name to be pointed at new content.
//
// Key carries the publisher's private key in its base64 transport-envelope
// form. Exactly one of Value (a content hash already in a store) or Bytes
// (raw content, stored before publishing) MUST be set.
//
// JSON note: Bytes are encoded as base64 by encoding/json.
type PublishRequest struct {
	Key   string `json:"key"`
	Value string `json:"value,omitempty"`
	Bytes []byte `json:"bytes,omitempty"`

	// Sequence fixes the record sequence number; when nil the engine
	// derives one from the clock.
	Sequence *uint64 `json:"sequence,omitempty"`
	// PrevSequence, when set, is the highest sequence already published for
	// this identity; publishing refuses to go backwards past it.
	PrevSequence *uint64 `json:"prevSequence,omitempty"`
}

// PublishResult reports a completed publish.
type PublishResult struct {
	Name     string    `json:"name"`
	Value    string    `json:"value"`
	Sequence uint64    `json:"sequence"`
	Validity time.Time `json:"validity"`
	// RoutingKey is the opaque key the record was stored under.
	// JSON note: encoded as base64 by encoding/json.
	RoutingKey []byte `json:"routingKey"`
}

// ResolveRequest asks for a name to be resolved back to a content hash.
// Exactly one of Name (in either accepted encoding) or Key (a base64
// private-key envelope, resolved via the identity it derives) MUST be set;
// both entry points run the identical strategy chain.
type ResolveRequest struct {
	Name string `json:"name,omitempty"`
	Key  string `json:"key,omitempty"`
}

// ResolutionResult is the outcome of one resolution run. When Success is
// false, Err carries the boundary error; when true, Value holds the
// resolved content hash and Source names the strategy that answered.
type ResolutionResult struct {
	Success bool        `json:"success"`
	Name    string      `json:"name"`
	Value   string      `json:"value,omitempty"`
	Source  string      `json:"source,omitempty"`
	Err     *CodedError `json:"error,omitempty"`
}
