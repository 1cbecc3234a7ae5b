package model

import (
	"time"

	"github.com/neovate-digital/namesys/record"
)

// RecordView is a compact, Go-friendly view of a signed record, for
// inspection tooling.
//
// Notes:
// - Name is the identity that signed the record, derived from the embedded
//   public key after the signature has been verified.
// - TTL is the record's freshness hint in nanoseconds when serialized.
// - Expired is evaluated against the instant passed to ViewRecord.
//
// This type is public-facing but is not a resolution boundary DTO (see
// ResolutionResult).
type RecordView struct {
	Name     string        `json:"name"`
	Value    string        `json:"value"`
	Sequence uint64        `json:"sequence"`
	Validity time.Time     `json:"validity"`
	TTL      time.Duration `json:"ttl"`
	Expired  bool          `json:"expired"`
}

// ViewRecord decodes and verifies canonical record bytes and projects them
// into a RecordView. Bytes that do not decode, do not verify, or embed a
// key of an unsupported type report their boundary code.
func ViewRecord(raw []byte, now time.Time) (*RecordView, error) {
	rec, err := record.Decode(raw)
	if err != nil {
		return nil, mapErr(err)
	}
	if err := rec.Verify(); err != nil {
		return nil, mapErr(err)
	}
	owner, err := rec.Owner()
	if err != nil {
		return nil, mapErr(err)
	}
	return &RecordView{
		Name:     owner.String(),
		Value:    rec.Value.String(),
		Sequence: rec.Sequence,
		Validity: rec.Validity,
		TTL:      rec.TTL,
		Expired:  rec.Expired(now),
	}, nil
}
