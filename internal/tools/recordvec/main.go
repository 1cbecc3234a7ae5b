package main

import (
	"encoding/hex"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/neovate-digital/namesys/cidutil"
	"github.com/neovate-digital/namesys/name"
	"github.com/neovate-digital/namesys/record"
)

// Each vector is rebuildable from its files alone: seed.hex and clock.txt
// are the inputs, record.bin the expected canonical output. Regeneration
// must be byte-stable; change a vector only together with its consumers.
type vector struct {
	dir      string
	seedByte byte
	clockSec int64
	payload  string
	opts     record.Options
}

func main() {
	outDir := flag.String("out", "", "output directory")
	flag.Parse()
	if *outDir == "" {
		fmt.Fprintln(os.Stderr, "usage: recordvec -out <dir>")
		os.Exit(2)
	}

	seq := uint64(42)
	vectors := []vector{
		{
			dir:      "namesys-record-1",
			seedByte: 0xA1,
			clockSec: 1700000000,
			payload:  "namesys conformance payload 1",
		},
		{
			dir:      "namesys-record-2",
			seedByte: 0xB2,
			clockSec: 1700000000,
			payload:  "namesys conformance payload 2",
			opts:     record.Options{Sequence: &seq, Lifetime: 48 * time.Hour, TTL: 5 * time.Minute},
		},
	}

	for _, v := range vectors {
		if err := writeVector(*outDir, v); err != nil {
			fatalf("%s: %v", v.dir, err)
		}
		fmt.Printf("wrote %s\n", filepath.Join(*outDir, v.dir))
	}
}

func writeVector(outDir string, v vector) error {
	seed := make([]byte, 32)
	for i := range seed {
		seed[i] = v.seedByte
	}
	kp, err := name.KeyPairFromSeed(seed)
	if err != nil {
		return err
	}

	mock := clock.NewMock()
	mock.Set(time.Unix(v.clockSec, 0).UTC())
	opts := v.opts
	opts.Clock = mock

	value := cidutil.SumRawString([]byte(v.payload))
	rec, err := record.New(kp, value, opts)
	if err != nil {
		return err
	}

	dir := filepath.Join(outDir, v.dir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	files := map[string][]byte{
		"seed.hex":   []byte(hex.EncodeToString(seed) + "\n"),
		"clock.txt":  []byte(strconv.FormatInt(v.clockSec, 10) + "\n"),
		"name.txt":   []byte(kp.Name().String() + "\n"),
		"value.cid":  []byte(value + "\n"),
		"record.bin": rec.Bytes(),
	}
	for fname, b := range files {
		if err := os.WriteFile(filepath.Join(dir, fname), b, 0o644); err != nil {
			return err
		}
	}
	return nil
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
