package record

import (
	"time"

	"github.com/benbjohnson/clock"
	"github.com/ipfs/go-cid"

	"github.com/neovate-digital/namesys/name"
)

// Defaults for the validity window and the freshness hint.
const (
	DefaultLifetime = 365 * 24 * time.Hour
	DefaultTTL      = time.Hour
)

// Record is a signed binding from an identity to a content hash.
//
// Fields are exported for inspection; the canonical bytes captured by New
// and Decode are what Verify operates on, so editing fields after the fact
// cannot widen what the signature covers.
type Record struct {
	// Value is the target content hash.
	Value cid.Cid
	// Sequence orders records for one identity; higher wins.
	Sequence uint64
	// Validity is the instant the record expires, UTC.
	Validity time.Time
	// TTL is a freshness hint for caches, not enforced by the engine.
	TTL time.Duration
	// PublicKey is the owner's enveloped public key.
	PublicKey []byte
	// Signature is the Ed25519 signature over the signing scope.
	Signature []byte

	wire []byte
}

// Options controls record construction. The zero value derives the
// sequence from the wall clock and applies DefaultLifetime and DefaultTTL.
type Options struct {
	// Sequence fixes the sequence number instead of deriving it from the
	// clock.
	Sequence *uint64
	// PrevSequence, when set, is the highest sequence already published
	// for this identity; a candidate sequence that does not exceed it
	// fails with KindSequence before anything is signed.
	PrevSequence *uint64
	// Lifetime sets the validity window from now; zero means
	// DefaultLifetime.
	Lifetime time.Duration
	// TTL sets the freshness hint; zero means DefaultTTL.
	TTL time.Duration
	// Clock supplies the current time; zero means the system clock.
	Clock clock.Clock
}

func (o Options) withDefaults() Options {
	if o.Lifetime <= 0 {
		o.Lifetime = DefaultLifetime
	}
	if o.TTL <= 0 {
		o.TTL = DefaultTTL
	}
	if o.Clock == nil {
		o.Clock = clock.New()
	}
	return o
}

// New builds and signs a record binding value to kp's identity.
//
// The reference sequence policy is the wall clock in Unix milliseconds:
// strictly increasing across publishes spaced more than a millisecond
// apart, meaningful to humans, and safe against losing a local counter.
// Two publishes inside one millisecond collide; callers needing a stronger
// guarantee pass Options.Sequence explicitly. When Options.PrevSequence is
// known, New refuses to go backwards instead of silently superseding
// nothing.
func New(kp *name.KeyPair, value string, opts Options) (*Record, error) {
	if kp == nil {
		return nil, newError(KindValidation, "NS-REC-501", "missing key pair")
	}
	opts = opts.withDefaults()

	c, err := ParseValue(value)
	if err != nil {
		return nil, err
	}

	now := opts.Clock.Now()
	seq := uint64(now.UnixMilli())
	if opts.Sequence != nil {
		seq = *opts.Sequence
	}
	if opts.PrevSequence != nil && seq <= *opts.PrevSequence {
		return nil, newError(KindSequence, "NS-SEQ-601", "sequence does not advance past the previously published record")
	}

	rec := &Record{
		Value:     c,
		Sequence:  seq,
		Validity:  now.UTC().Add(opts.Lifetime),
		TTL:       opts.TTL,
		PublicKey: kp.PublicEnvelope(),
	}
	rec.Signature = signRecord(kp, rec)

	wire, err := Encode(rec)
	if err != nil {
		return nil, err
	}
	rec.wire = wire
	return rec, nil
}

// ParseValue validates a target content hash and returns its parsed form.
// The canonical string rendering of the returned cid is what gets signed.
func ParseValue(s string) (cid.Cid, error) {
	if s == "" {
		return cid.Undef, newError(KindValue, "NS-REC-511", "empty content hash")
	}
	c, err := cid.Decode(s)
	if err != nil {
		return cid.Undef, wrapError(KindValue, "NS-REC-512", "invalid content hash", err)
	}
	return c, nil
}

// Bytes returns a copy of the canonical encoding, or nil for a record that
// was never encoded.
func (r *Record) Bytes() []byte {
	if r == nil || len(r.wire) == 0 {
		return nil
	}
	return append([]byte(nil), r.wire...)
}

// Expired reports whether the validity window has closed at now.
func (r *Record) Expired(now time.Time) bool {
	return now.After(r.Validity)
}

// Compare orders two records for the same identity: positive when a
// supersedes b, negative when b supersedes a, zero when neither does.
// Higher sequence wins; on equal sequences the later validity wins.
func Compare(a, b *Record) int {
	switch {
	case a.Sequence > b.Sequence:
		return 1
	case a.Sequence < b.Sequence:
		return -1
	}
	switch {
	case a.Validity.After(b.Validity):
		return 1
	case a.Validity.Before(b.Validity):
		return -1
	}
	return 0
}
