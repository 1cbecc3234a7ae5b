// Package ipfs adapts a local Kubo installation as a content store by
// shelling out to the "ipfs" CLI.
package ipfs

import (
	"bytes"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/ipfs/go-cid"

	"github.com/neovate-digital/namesys/cidutil"
	"github.com/neovate-digital/namesys/storage"
)

// CAS stores blocks in the local IPFS repo through the Kubo CLI.
//
// It is an optional adapter: the rest of the module never assumes it, and
// any external store integrates the same way, by implementing storage.CAS.
// Operations run against the local repo directly, so no daemon needs to be
// up. Blocks are written with explicit raw + sha2-256 + CIDv1 parameters
// and re-hashed on read, so the repo cannot hand back bytes that do not
// match the CID contract (cidutil.SumRaw).
//
// Reachability through this adapter says nothing about a block's validity;
// only the CID check does.
type CAS struct {
	bin string
	env []string
}

type Options struct {
	// Bin names the ipfs binary to invoke. Empty means "ipfs" from PATH.
	Bin string
	// Env replaces the command environment when non-nil, which is how a
	// test or a tool points the adapter at an alternate IPFS_PATH.
	Env []string
}

func New(opts Options) *CAS {
	bin := opts.Bin
	if bin == "" {
		bin = "ipfs"
	}
	return &CAS{bin: bin, env: opts.Env}
}

func (c *CAS) Put(data []byte) (cid.Cid, error) {
	want, err := cidutil.SumRaw(data)
	if err != nil {
		return cid.Undef, err
	}
	if !want.Defined() {
		return cid.Undef, storage.ErrInvalidCID
	}

	// Explicit parameters; Kubo's defaults would produce a different CID.
	out, err := c.run(data,
		"block", "put",
		"--quiet",
		"--format=raw",
		"--mhtype=sha2-256",
		"--mhlen=32",
		"--cid-version=1",
		"/dev/stdin",
	)
	if err != nil {
		return cid.Undef, err
	}

	got, err := cid.Decode(strings.TrimSpace(string(out)))
	if err != nil {
		return cid.Undef, fmt.Errorf("ipfs: unexpected block put output: %w", err)
	}
	if got != want {
		return cid.Undef, fmt.Errorf("ipfs: kubo stored %s, want %s: %w", got, want, storage.ErrCIDMismatch)
	}
	return want, nil
}

func (c *CAS) Get(id cid.Cid) ([]byte, error) {
	if !id.Defined() {
		return nil, storage.ErrInvalidCID
	}

	out, err := c.run(nil, "block", "get", id.String())
	if err != nil {
		if isNotFoundOutput(err) {
			return nil, storage.ErrNotFound
		}
		return nil, err
	}

	got, err := cidutil.SumRaw(out)
	if err != nil {
		return nil, err
	}
	if got != id {
		return nil, fmt.Errorf("ipfs: repo returned %s, want %s: %w", got, id, storage.ErrCIDMismatch)
	}
	return out, nil
}

func (c *CAS) Has(id cid.Cid) bool {
	if !id.Defined() {
		return false
	}
	_, err := c.run(nil, "block", "stat", id.String())
	return err == nil
}

// run invokes the binary and folds a non-zero exit into an error carrying
// whatever Kubo printed to stderr.
func (c *CAS) run(stdin []byte, args ...string) ([]byte, error) {
	cmd := exec.Command(c.bin, args...)
	if c.env != nil {
		cmd.Env = c.env
	}
	if stdin != nil {
		cmd.Stdin = bytes.NewReader(stdin)
	}

	out, err := cmd.Output()
	if err == nil {
		return out, nil
	}

	var ee *exec.ExitError
	if errors.As(err, &ee) {
		s := strings.TrimSpace(string(ee.Stderr))
		if s == "" {
			return nil, fmt.Errorf("ipfs: %v", err)
		}
		return nil, fmt.Errorf("ipfs: %s", s)
	}
	return nil, err
}

// isNotFoundOutput sniffs Kubo's stderr for an absent block. The wording
// has drifted across Kubo releases ("block not found", "could not find"),
// so match loosely.
func isNotFoundOutput(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "not found") || strings.Contains(msg, "could not find")
}
