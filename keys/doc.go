// Package keys holds caller-side key management for publishing names.
//
// The naming core treats private keys as caller-owned material; everything
// here is local-first convenience on top of it:
//
//   - a filesystem keystore (one directory per key, hex seeds, mode 0600),
//   - deterministic per-label subkeys derived from a root seed,
//   - BIP-39 mnemonics for root seed backup and recovery,
//   - import/export through the transport key envelope.
//
// The keystore layout is a local convention, not a protocol surface; it may
// change between minor releases.
package keys
