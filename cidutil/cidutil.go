// Package cidutil holds the content-hash conventions shared across the
// module: stored bytes are addressed by CIDv1 with the raw multicodec and
// a sha2-256 multihash.
package cidutil

import (
	"fmt"

	"github.com/ipfs/go-cid"
	"github.com/multiformats/go-multihash"
)

// SumRaw returns the CIDv1 (raw + sha2-256) derived from data.
func SumRaw(data []byte) (cid.Cid, error) {
	sum, err := multihash.Sum(data, multihash.SHA2_256, -1)
	if err != nil {
		return cid.Undef, err
	}
	return cid.NewCidV1(cid.Raw, sum), nil
}

// SumRawString returns the canonical string form of SumRaw.
func SumRawString(data []byte) string {
	c, err := SumRaw(data)
	if err != nil {
		// multihash.Sum only errors for invalid inputs; with SHA2_256 and -1
		// length, this should be unreachable.
		return ""
	}
	return c.String()
}

// ParseCanonical parses s as a CID and additionally requires s to be the
// canonical rendering of the parsed CID, so that one content hash has one
// accepted spelling at the boundary.
func ParseCanonical(s string) (cid.Cid, error) {
	c, err := cid.Decode(s)
	if err != nil {
		return cid.Undef, err
	}
	if c.String() != s {
		return cid.Undef, fmt.Errorf("cid string is not canonical: %q", s)
	}
	return c, nil
}
