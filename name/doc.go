// Package name implements the self-certifying identity layer: Ed25519 key
// pairs, the transport envelope that carries keys across process boundaries,
// and the Name derived from a public key.
//
// A Name is the multihash of the envelope-encoded public key, wrapped as a
// CIDv1 with the libp2p-key multicodec and rendered in base36 ("k51...").
// Because the name is derived from the key itself, a record fetched for a
// name can be verified with no material beyond the name.
//
// API stability:
//
// Stable (SemVer-protected):
//   - The envelope wire format, the name derivation rule, and the routing
//     key layout. These are protocol surface; independent implementations
//     reproduce them byte for byte.
//
// Only Ed25519 keys are accepted. The envelope reserves type tags for other
// algorithms so that foreign keys are recognized and refused rather than
// misparsed.
package name
