package name

import (
	"bytes"
	"crypto/ed25519"
	"strings"

	"github.com/ipfs/go-cid"
	"github.com/mr-tron/base58"
	"github.com/multiformats/go-multibase"
	"github.com/multiformats/go-multihash"
)

// RoutingPrefix is the namespace prefix of routing keys.
const RoutingPrefix = "/ipns/"

// identityHashLimit is the largest enveloped key carried verbatim inside
// the name via the identity multihash; larger envelopes are hashed with
// sha2-256 and the key can no longer be extracted from the name. Ed25519
// envelopes are 36 bytes and always stay below the limit.
const identityHashLimit = 42

// Name is the self-certifying identity derived from a public key.
//
// The zero Name is invalid; obtain one from FromPublicKey, Parse, or
// FromRoutingKey.
type Name struct {
	hash multihash.Multihash
}

// FromPublicKey derives the Name for an Ed25519 public key.
//
// Derivation is pure: identical key bytes always yield the identical Name,
// and nothing is touched outside the inputs.
func FromPublicKey(pub ed25519.PublicKey) (Name, error) {
	if len(pub) != ed25519.PublicKeySize {
		return Name{}, newError(KindMalformed, "NS-NAME-201", "invalid ed25519 public key length")
	}
	env := MarshalPublicKeyEnvelope(pub)
	var sum []byte
	var err error
	if len(env) <= identityHashLimit {
		sum, err = multihash.Encode(env, multihash.IDENTITY)
	} else {
		sum, err = multihash.Sum(env, multihash.SHA2_256, -1)
	}
	if err != nil {
		return Name{}, wrapError(KindInternal, "NS-NAME-202", "multihash envelope", err)
	}
	return Name{hash: multihash.Multihash(sum)}, nil
}

// Parse accepts both textual encodings of a name: the canonical base36
// CIDv1 form ("k51...") and the legacy base58btc bare-multihash form
// ("12D3Koo..."). A leading routing prefix is tolerated.
func Parse(s string) (Name, error) {
	s = strings.TrimPrefix(s, RoutingPrefix)
	if s == "" {
		return Name{}, newError(KindName, "NS-NAME-211", "empty name")
	}
	if strings.HasPrefix(s, "1") || strings.HasPrefix(s, "Qm") {
		raw, err := base58.Decode(s)
		if err != nil {
			return Name{}, wrapError(KindName, "NS-NAME-212", "invalid base58 name", err)
		}
		h, err := multihash.Cast(raw)
		if err != nil {
			return Name{}, wrapError(KindName, "NS-NAME-213", "name is not a multihash", err)
		}
		return Name{hash: h}, nil
	}
	c, err := cid.Decode(s)
	if err != nil {
		return Name{}, wrapError(KindName, "NS-NAME-214", "name is not a cid", err)
	}
	if c.Type() != cid.Libp2pKey {
		return Name{}, newError(KindName, "NS-NAME-215", "name cid codec is not libp2p-key")
	}
	return Name{hash: c.Hash()}, nil
}

// FromRoutingKey recovers the Name a routing key addresses.
func FromRoutingKey(key []byte) (Name, error) {
	if !bytes.HasPrefix(key, []byte(RoutingPrefix)) {
		return Name{}, newError(KindName, "NS-NAME-221", "routing key missing namespace prefix")
	}
	h, err := multihash.Cast(key[len(RoutingPrefix):])
	if err != nil {
		return Name{}, wrapError(KindName, "NS-NAME-222", "routing key is not a multihash", err)
	}
	return Name{hash: h}, nil
}

// Defined reports whether n holds an identity.
func (n Name) Defined() bool {
	return len(n.hash) > 0
}

// Equal reports whether two names address the same identity.
func (n Name) Equal(o Name) bool {
	return bytes.Equal(n.hash, o.hash)
}

// String renders the canonical form: CIDv1, libp2p-key codec, base36.
func (n Name) String() string {
	if !n.Defined() {
		return ""
	}
	s, err := n.Cid().StringOfBase(multibase.Base36)
	if err != nil {
		// Base36 is a valid multibase; unreachable for a defined name.
		return ""
	}
	return s
}

// Peer renders the legacy base58btc form of the bare multihash.
func (n Name) Peer() string {
	if !n.Defined() {
		return ""
	}
	return base58.Encode(n.hash)
}

// Cid returns the name as a CIDv1 with the libp2p-key codec.
func (n Name) Cid() cid.Cid {
	return cid.NewCidV1(cid.Libp2pKey, n.hash)
}

// Multihash returns a copy of the name's multihash bytes.
func (n Name) Multihash() multihash.Multihash {
	return multihash.Multihash(append([]byte(nil), n.hash...))
}

// RoutingKey returns the key this name lives under in a routing backend:
// the namespace prefix followed by the raw multihash bytes. Pure.
func (n Name) RoutingKey() []byte {
	key := make([]byte, 0, len(RoutingPrefix)+len(n.hash))
	key = append(key, RoutingPrefix...)
	return append(key, n.hash...)
}

// ExtractPublicKey recovers the public key embedded in a Name.
//
// Only names whose multihash uses the identity encoding carry the key
// material; names hashed with sha2-256 fail with KindUnsupported.
func ExtractPublicKey(n Name) (ed25519.PublicKey, error) {
	if !n.Defined() {
		return nil, newError(KindName, "NS-NAME-231", "undefined name")
	}
	dec, err := multihash.Decode(n.hash)
	if err != nil {
		return nil, wrapError(KindName, "NS-NAME-232", "invalid name multihash", err)
	}
	if dec.Code != multihash.IDENTITY {
		return nil, newError(KindUnsupported, "NS-NAME-233", "name does not embed its public key")
	}
	return UnmarshalPublicKeyEnvelope(dec.Digest)
}
