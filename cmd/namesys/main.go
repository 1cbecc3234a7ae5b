package main

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/ipfs/go-cid"
	"go.uber.org/zap"

	"github.com/neovate-digital/namesys/keys"
	"github.com/neovate-digital/namesys/model"
	"github.com/neovate-digital/namesys/name"
	"github.com/neovate-digital/namesys/record"
	"github.com/neovate-digital/namesys/resolve"
	"github.com/neovate-digital/namesys/routing"
	"github.com/neovate-digital/namesys/routing/routecfg"
	"github.com/neovate-digital/namesys/routing/routeregistry"
	"github.com/neovate-digital/namesys/storage"
	"github.com/neovate-digital/namesys/storage/bundle"
	"github.com/neovate-digital/namesys/storage/casconfig"
	"github.com/neovate-digital/namesys/storage/casregistry"

	_ "github.com/neovate-digital/namesys/routing/memory"
	_ "github.com/neovate-digital/namesys/routing/routegrpc"
	_ "github.com/neovate-digital/namesys/routing/sqlitestore"
	_ "github.com/neovate-digital/namesys/storage/ipfs"
	_ "github.com/neovate-digital/namesys/storage/localfs"
	_ "github.com/neovate-digital/namesys/storage/memory"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, out io.Writer, errOut io.Writer) int {
	if len(args) == 0 {
		printUsage(errOut)
		return 2
	}

	switch args[0] {
	case "bundle":
		return cmdBundle(args[1:], out, errOut)
	case "key":
		return cmdKey(args[1:], out, errOut)
	case "name":
		return cmdName(args[1:], out, errOut)
	case "publish":
		return cmdPublish(args[1:], out, errOut)
	case "record":
		return cmdRecord(args[1:], out, errOut)
	case "resolve":
		return cmdResolve(args[1:], out, errOut)
	case "help", "-h", "--help":
		printUsage(out)
		return 0
	default:
		fmt.Fprintf(errOut, "unknown command: %s\n\n", args[0])
		printUsage(errOut)
		return 2
	}
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "namesys: publish and resolve signed name records")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  namesys key init --name <name> [--seed-hex <64hex> | --mnemonic <phrase> | --new-mnemonic] [--passphrase <p>] [--force]")
	fmt.Fprintln(w, "  namesys key derive --from <name> --label <label> [--force]")
	fmt.Fprintln(w, "  namesys key list")
	fmt.Fprintln(w, "  namesys key export --name <name> [--label <label>]")
	fmt.Fprintln(w, "  namesys key import --name <name> (--envelope <base64> | --envelope-file <path>) [--force]")
	fmt.Fprintln(w, "  namesys name derive (--signer <name> [--label <l>] | --key <envelope> | --key-file <path> | --seed-hex <64hex>)")
	fmt.Fprintln(w, "  namesys name inspect <name>")
	fmt.Fprintln(w, "  namesys record inspect [--at <rfc3339>] <file>")
	fmt.Fprintln(w, "  namesys publish (--value <cid> | --file <path> [--store <name> | --store-config <json>]) <signer> (--backend <name> | --routing-config <json>) [--sequence <n>] [--prev-sequence <n>] [--lifetime <d>] [--ttl <d>]")
	fmt.Fprintln(w, "  namesys resolve (--name <name> | <signer>) [--backend <name> | --routing-config <json>] [--gateway <url> ...]")
	fmt.Fprintln(w, "  namesys bundle export (--store <name> | --store-config <json>) [--out <file>] [--record <file> ...] <cid> ...")
	fmt.Fprintln(w, "  namesys bundle import (--store <name> | --store-config <json>) --in <file> [--ignore-unknown]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Notes:")
	fmt.Fprintln(w, "  - <signer> is one of: --signer <name> [--label <l>], --key <envelope>, --key-file <path>, --seed-hex <64hex>")
	fmt.Fprintln(w, "  - keys live under ~/.namesys/keys/<name> (0600 seed files); --key-dir overrides the location")
	fmt.Fprintln(w, "  - publish with --file stores the bytes in the content store first and publishes the returned CID")
	fmt.Fprintln(w, "  - resolve probes strategies in order: the routing backend first (when configured), then each --gateway")
	fmt.Fprintln(w, "  - routing backends: memory, sqlite (--sqlite-path), grpc (--grpc-target); content stores: localfs (--localfs-dir), memory, ipfs")
	fmt.Fprintln(w, "  - config files (--routing-config, --store-config) fan writes out to every listed backend; --backend/--store then pick the preferred entry")
	fmt.Fprintln(w, "  - exit status: 0 success, 1 operation failed, 2 usage error")
}

// stringList collects repeatable flags in order.
type stringList []string

func (s *stringList) String() string { return strings.Join(*s, ",") }
func (s *stringList) Set(v string) error {
	*s = append(*s, v)
	return nil
}

func printJSON(out io.Writer, errOut io.Writer, v any) int {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Fprintf(errOut, "encode result: %v\n", err)
		return 1
	}
	_, _ = fmt.Fprintln(out, string(b))
	return 0
}

// visited reports whether a flag was set on the command line, so zero is
// still a usable explicit value for numeric flags.
func visited(fs *flag.FlagSet, flagName string) bool {
	seen := false
	fs.Visit(func(f *flag.Flag) {
		if f.Name == flagName {
			seen = true
		}
	})
	return seen
}

func newLogger(verbose bool) *zap.Logger {
	if !verbose {
		return zap.NewNop()
	}
	cfg := zap.NewDevelopmentConfig()
	cfg.DisableStacktrace = true
	log, err := cfg.Build()
	if err != nil {
		return zap.NewNop()
	}
	return log
}

// signerFlags is the shared way of naming a private key on the command
// line: a stored key, an inline envelope, a seed file, or an inline seed.
type signerFlags struct {
	signer  string
	label   string
	key     string
	keyFile string
	seedHex string
	keyDir  string
}

func addSignerFlags(fs *flag.FlagSet, sf *signerFlags) {
	fs.StringVar(&sf.signer, "signer", "", "Stored key name (from 'namesys key init')")
	fs.StringVar(&sf.label, "label", "", "When using --signer, use the derived label key")
	fs.StringVar(&sf.key, "key", "", "Base64 key envelope (as printed by 'namesys key export')")
	fs.StringVar(&sf.keyFile, "key-file", "", "Path to a seed file created by 'namesys key init/derive'")
	fs.StringVar(&sf.seedHex, "seed-hex", "", "ed25519 seed as 64 hex chars")
	fs.StringVar(&sf.keyDir, "key-dir", "", "Keystore directory (default ~/.namesys/keys)")
}

func (sf signerFlags) provided() bool {
	return sf.signer != "" || sf.key != "" || sf.keyFile != "" || sf.seedHex != ""
}

func (sf signerFlags) check() error {
	if sf.key != "" && (sf.signer != "" || sf.keyFile != "" || sf.seedHex != "") {
		return fmt.Errorf("--key cannot be combined with --signer, --key-file, or --seed-hex")
	}
	if sf.seedHex != "" && (sf.signer != "" || sf.keyFile != "") {
		return fmt.Errorf("--seed-hex cannot be combined with --signer or --key-file")
	}
	if sf.signer != "" && sf.keyFile != "" {
		return fmt.Errorf("--signer cannot be combined with --key-file")
	}
	if sf.label != "" && sf.signer == "" {
		return fmt.Errorf("--label requires --signer")
	}
	return nil
}

func (sf signerFlags) keyPair() (*name.KeyPair, error) {
	if err := sf.check(); err != nil {
		return nil, err
	}
	if sf.key != "" {
		return name.DecodePrivateKey(sf.key)
	}
	ks, err := keys.Open(sf.keyDir)
	if err != nil {
		return nil, err
	}
	return ks.ResolveKeyPair(sf.seedHex, sf.signer, sf.label, sf.keyFile)
}

// openRouting opens the routing backend named by the flags: a single
// registry backend, or a config-driven set (with backendName as the
// preferred write target when both are given).
func openRouting(backendName, configPath string) (routing.Backend, func() error, error) {
	if configPath != "" {
		cfg, err := routecfg.LoadFile(configPath)
		if err != nil {
			return nil, nil, err
		}
		return cfg.Open(routeregistry.UsageCLI, backendName)
	}
	return routeregistry.Open(backendName, routeregistry.UsageCLI)
}

// openStore is openRouting's counterpart for content stores.
func openStore(storeName, configPath string) (storage.CAS, func() error, error) {
	if configPath != "" {
		cfg, err := casconfig.LoadFile(configPath)
		if err != nil {
			return nil, nil, err
		}
		return cfg.Open(casregistry.UsageCLI, storeName)
	}
	return casregistry.Open(storeName, casregistry.UsageCLI)
}

func cmdKey(args []string, out io.Writer, errOut io.Writer) int {
	if len(args) == 0 {
		printKeyUsage(errOut)
		return 2
	}
	switch args[0] {
	case "init":
		return cmdKeyInit(args[1:], out, errOut)
	case "derive":
		return cmdKeyDerive(args[1:], out, errOut)
	case "list":
		return cmdKeyList(args[1:], out, errOut)
	case "export":
		return cmdKeyExport(args[1:], out, errOut)
	case "import":
		return cmdKeyImport(args[1:], out, errOut)
	case "help", "-h", "--help":
		printKeyUsage(out)
		return 0
	default:
		fmt.Fprintf(errOut, "unknown key subcommand: %s\n\n", args[0])
		printKeyUsage(errOut)
		return 2
	}
}

func printKeyUsage(w io.Writer) {
	fmt.Fprintln(w, "namesys key: local key management")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  namesys key init --name <name> [--seed-hex <64hex> | --mnemonic <phrase> | --new-mnemonic] [--passphrase <p>] [--force]")
	fmt.Fprintln(w, "  namesys key derive --from <name> --label <label> [--force]")
	fmt.Fprintln(w, "  namesys key list")
	fmt.Fprintln(w, "  namesys key export --name <name> [--label <label>]")
	fmt.Fprintln(w, "  namesys key import --name <name> (--envelope <base64> | --envelope-file <path>) [--force]")
}

func cmdKeyInit(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("key init", flag.ContinueOnError)
	fs.SetOutput(errOut)

	var keyName string
	var seedHex string
	var mnemonic string
	var newMnemonic bool
	var passphrase string
	var keyDir string
	var force bool

	fs.StringVar(&keyName, "name", "", "Key name (directory under the keystore)")
	fs.StringVar(&seedHex, "seed-hex", "", "Optional ed25519 seed as 64 hex chars (for reproducible setups)")
	fs.StringVar(&mnemonic, "mnemonic", "", "Recover the seed from a BIP-39 phrase")
	fs.BoolVar(&newMnemonic, "new-mnemonic", false, "Generate a BIP-39 recovery phrase and derive the seed from it")
	fs.StringVar(&passphrase, "passphrase", "", "Optional BIP-39 passphrase (with --mnemonic or --new-mnemonic)")
	fs.StringVar(&keyDir, "key-dir", "", "Keystore directory (default ~/.namesys/keys)")
	fs.BoolVar(&force, "force", false, "Overwrite existing key files")

	if err := fs.Parse(args); err != nil {
		return 2
	}
	if keyName == "" {
		fmt.Fprintln(errOut, "missing --name")
		return 2
	}
	sources := 0
	for _, set := range []bool{seedHex != "", mnemonic != "", newMnemonic} {
		if set {
			sources++
		}
	}
	if sources > 1 {
		fmt.Fprintln(errOut, "conflicting seed flags: use at most one of --seed-hex, --mnemonic, --new-mnemonic")
		return 2
	}
	if passphrase != "" && mnemonic == "" && !newMnemonic {
		fmt.Fprintln(errOut, "--passphrase requires --mnemonic or --new-mnemonic")
		return 2
	}

	var seed []byte
	switch {
	case seedHex != "":
		var err error
		seed, err = keys.ParseSeedHex(seedHex)
		if err != nil {
			fmt.Fprintf(errOut, "invalid --seed-hex: %v\n", err)
			return 2
		}
	case mnemonic != "":
		var err error
		seed, err = keys.SeedFromMnemonic(mnemonic, passphrase)
		if err != nil {
			fmt.Fprintf(errOut, "invalid --mnemonic: %v\n", err)
			return 2
		}
	case newMnemonic:
		phrase, err := keys.NewMnemonic()
		if err != nil {
			fmt.Fprintf(errOut, "generate mnemonic: %v\n", err)
			return 1
		}
		seed, err = keys.SeedFromMnemonic(phrase, passphrase)
		if err != nil {
			fmt.Fprintf(errOut, "derive seed: %v\n", err)
			return 1
		}
		fmt.Fprintf(errOut, "Recovery phrase: %s\n", phrase)
	default:
		seed = make([]byte, ed25519.SeedSize)
		if _, err := rand.Read(seed); err != nil {
			fmt.Fprintf(errOut, "rand: %v\n", err)
			return 1
		}
	}

	ks, err := keys.Open(keyDir)
	if err != nil {
		fmt.Fprintf(errOut, "keystore: %v\n", err)
		return 1
	}
	n, path, err := ks.InitRoot(keyName, seed, force)
	if err != nil {
		fmt.Fprintf(errOut, "init key: %v\n", err)
		return 1
	}
	fmt.Fprintf(out, "Name: %s\n", n)
	fmt.Fprintf(out, "Stored at: %s\n", path)
	return 0
}

func cmdKeyDerive(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("key derive", flag.ContinueOnError)
	fs.SetOutput(errOut)

	var from string
	var label string
	var keyDir string
	var force bool

	fs.StringVar(&from, "from", "", "Root key name")
	fs.StringVar(&label, "label", "", "Label identifier (e.g. blog, docs)")
	fs.StringVar(&keyDir, "key-dir", "", "Keystore directory (default ~/.namesys/keys)")
	fs.BoolVar(&force, "force", false, "Overwrite existing key files")

	if err := fs.Parse(args); err != nil {
		return 2
	}
	if from == "" {
		fmt.Fprintln(errOut, "missing --from")
		return 2
	}
	if label == "" {
		fmt.Fprintln(errOut, "missing --label")
		return 2
	}

	ks, err := keys.Open(keyDir)
	if err != nil {
		fmt.Fprintf(errOut, "keystore: %v\n", err)
		return 1
	}
	n, path, err := ks.DeriveLabel(from, label, force)
	if err != nil {
		fmt.Fprintf(errOut, "derive label key: %v\n", err)
		return 1
	}
	fmt.Fprintf(out, "Name: %s\n", n)
	fmt.Fprintf(out, "Stored at: %s\n", path)
	return 0
}

func cmdKeyList(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("key list", flag.ContinueOnError)
	fs.SetOutput(errOut)

	var keyDir string
	fs.StringVar(&keyDir, "key-dir", "", "Keystore directory (default ~/.namesys/keys)")

	if err := fs.Parse(args); err != nil {
		return 2
	}
	ks, err := keys.Open(keyDir)
	if err != nil {
		fmt.Fprintf(errOut, "keystore: %v\n", err)
		return 1
	}
	entries, err := ks.List()
	if err != nil {
		fmt.Fprintf(errOut, "list keys: %v\n", err)
		return 1
	}
	for _, e := range entries {
		fmt.Fprintf(out, "%s\n", e.Name)
		for _, l := range e.Labels {
			fmt.Fprintf(out, "  - %s\n", l)
		}
	}
	return 0
}

func cmdKeyExport(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("key export", flag.ContinueOnError)
	fs.SetOutput(errOut)

	var keyName string
	var label string
	var keyDir string

	fs.StringVar(&keyName, "name", "", "Key name")
	fs.StringVar(&label, "label", "", "Optional label (exports the derived subkey)")
	fs.StringVar(&keyDir, "key-dir", "", "Keystore directory (default ~/.namesys/keys)")

	if err := fs.Parse(args); err != nil {
		return 2
	}
	if keyName == "" {
		fmt.Fprintln(errOut, "missing --name")
		return 2
	}
	ks, err := keys.Open(keyDir)
	if err != nil {
		fmt.Fprintf(errOut, "keystore: %v\n", err)
		return 1
	}
	kp, err := ks.KeyPair(keyName, label)
	if err != nil {
		fmt.Fprintf(errOut, "export key: %v\n", err)
		return 1
	}
	_, _ = fmt.Fprintln(out, kp.EncodePrivateKey())
	return 0
}

func cmdKeyImport(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("key import", flag.ContinueOnError)
	fs.SetOutput(errOut)

	var keyName string
	var envelope string
	var envelopeFile string
	var keyDir string
	var force bool

	fs.StringVar(&keyName, "name", "", "Key name to store the imported key under")
	fs.StringVar(&envelope, "envelope", "", "Base64 key envelope")
	fs.StringVar(&envelopeFile, "envelope-file", "", "File holding the base64 key envelope")
	fs.StringVar(&keyDir, "key-dir", "", "Keystore directory (default ~/.namesys/keys)")
	fs.BoolVar(&force, "force", false, "Overwrite existing key files")

	if err := fs.Parse(args); err != nil {
		return 2
	}
	if keyName == "" {
		fmt.Fprintln(errOut, "missing --name")
		return 2
	}
	if (envelope == "") == (envelopeFile == "") {
		fmt.Fprintln(errOut, "provide exactly one of --envelope or --envelope-file")
		return 2
	}
	if envelopeFile != "" {
		b, err := os.ReadFile(envelopeFile)
		if err != nil {
			fmt.Fprintf(errOut, "read --envelope-file: %v\n", err)
			return 1
		}
		envelope = strings.TrimSpace(string(b))
	}

	seed, err := keys.SeedFromEnvelope(envelope)
	if err != nil {
		fmt.Fprintf(errOut, "invalid envelope: %v\n", err)
		return 2
	}
	ks, err := keys.Open(keyDir)
	if err != nil {
		fmt.Fprintf(errOut, "keystore: %v\n", err)
		return 1
	}
	n, path, err := ks.InitRoot(keyName, seed, force)
	if err != nil {
		fmt.Fprintf(errOut, "import key: %v\n", err)
		return 1
	}
	fmt.Fprintf(out, "Name: %s\n", n)
	fmt.Fprintf(out, "Stored at: %s\n", path)
	return 0
}

func cmdName(args []string, out io.Writer, errOut io.Writer) int {
	if len(args) == 0 {
		fmt.Fprintln(errOut, "usage: namesys name <subcommand> ...")
		fmt.Fprintln(errOut, "subcommands: derive, inspect")
		return 2
	}
	switch args[0] {
	case "derive":
		return cmdNameDerive(args[1:], out, errOut)
	case "inspect":
		return cmdNameInspect(args[1:], out, errOut)
	default:
		fmt.Fprintf(errOut, "unknown name subcommand: %s\n", args[0])
		return 2
	}
}

func cmdNameDerive(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("name derive", flag.ContinueOnError)
	fs.SetOutput(errOut)

	var sf signerFlags
	addSignerFlags(fs, &sf)

	if err := fs.Parse(args); err != nil {
		return 2
	}
	if !sf.provided() {
		fmt.Fprintln(errOut, "missing signer: use --signer, --key, --key-file, or --seed-hex")
		return 2
	}
	kp, err := sf.keyPair()
	if err != nil {
		fmt.Fprintf(errOut, "invalid signer: %v\n", err)
		return 2
	}
	_, _ = fmt.Fprintln(out, kp.Name())
	return 0
}

func cmdNameInspect(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("name inspect", flag.ContinueOnError)
	fs.SetOutput(errOut)
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(errOut, "usage: namesys name inspect <name>")
		return 2
	}
	n, err := name.Parse(fs.Arg(0))
	if err != nil {
		fmt.Fprintf(errOut, "invalid name: %v\n", err)
		return 1
	}
	fmt.Fprintf(out, "Name:        %s\n", n)
	fmt.Fprintf(out, "Peer:        %s\n", n.Peer())
	fmt.Fprintf(out, "Routing key: %s\n", base64.StdEncoding.EncodeToString(n.RoutingKey()))
	return 0
}

func cmdRecord(args []string, out io.Writer, errOut io.Writer) int {
	if len(args) == 0 {
		fmt.Fprintln(errOut, "usage: namesys record <subcommand> ...")
		fmt.Fprintln(errOut, "subcommands: inspect")
		return 2
	}
	switch args[0] {
	case "inspect":
		return cmdRecordInspect(args[1:], out, errOut)
	default:
		fmt.Fprintf(errOut, "unknown record subcommand: %s\n", args[0])
		return 2
	}
}

func cmdRecordInspect(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("record inspect", flag.ContinueOnError)
	fs.SetOutput(errOut)

	var at string
	fs.StringVar(&at, "at", "", "Evaluate expiry at this RFC3339 instant instead of now")

	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(errOut, "usage: namesys record inspect [--at <rfc3339>] <file>")
		return 2
	}
	now := time.Now()
	if at != "" {
		t, err := time.Parse(time.RFC3339, at)
		if err != nil {
			fmt.Fprintf(errOut, "invalid --at (expected RFC3339): %v\n", err)
			return 2
		}
		now = t
	}

	raw, err := os.ReadFile(fs.Arg(0))
	if err != nil {
		fmt.Fprintf(errOut, "read record: %v\n", err)
		return 1
	}
	view, err := model.ViewRecord(raw, now)
	if err != nil {
		fmt.Fprintf(errOut, "inspect record: %v\n", err)
		return 1
	}
	return printJSON(out, errOut, view)
}

func cmdPublish(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("publish", flag.ContinueOnError)
	fs.SetOutput(errOut)

	var sf signerFlags
	addSignerFlags(fs, &sf)

	var value string
	var file string
	var storeName string
	var storeConfig string
	var backendName string
	var configPath string
	var lifetime time.Duration
	var ttl time.Duration
	var timeout time.Duration
	var verbose bool
	seqFlag := fs.Uint64("sequence", 0, "Explicit sequence number (default: wall clock in unix milliseconds)")
	prevFlag := fs.Uint64("prev-sequence", 0, "Highest sequence already published; refuses a non-advancing publish")

	fs.StringVar(&value, "value", "", "Content hash to publish")
	fs.StringVar(&file, "file", "", "File whose bytes are stored first; its content hash is published")
	fs.StringVar(&storeName, "store", "localfs", "Content store backend (with --file)")
	fs.StringVar(&storeConfig, "store-config", "", "Content store config file (JSON); --store then names the preferred entry")
	fs.StringVar(&backendName, "backend", "", "Routing backend name")
	fs.StringVar(&configPath, "routing-config", "", "Routing backend config file (JSON)")
	fs.DurationVar(&lifetime, "lifetime", 0, "Record validity window (default 1 year)")
	fs.DurationVar(&ttl, "ttl", 0, "Record freshness hint (default 1h)")
	fs.DurationVar(&timeout, "timeout", time.Minute, "Overall publish timeout")
	fs.BoolVar(&verbose, "verbose", false, "Log publish events")
	routeregistry.RegisterFlags(fs, routeregistry.UsageCLI)
	casregistry.RegisterFlags(fs, casregistry.UsageCLI)

	if err := fs.Parse(args); err != nil {
		return 2
	}
	if !sf.provided() {
		fmt.Fprintln(errOut, "missing signer: use --signer, --key, --key-file, or --seed-hex")
		return 2
	}
	if (value == "") == (file == "") {
		fmt.Fprintln(errOut, "provide exactly one of --value or --file")
		return 2
	}
	if backendName == "" && configPath == "" {
		fmt.Fprintln(errOut, "missing routing: use --backend or --routing-config")
		return 2
	}

	kp, err := sf.keyPair()
	if err != nil {
		fmt.Fprintf(errOut, "invalid signer: %v\n", err)
		return 2
	}

	log := newLogger(verbose)
	defer func() { _ = log.Sync() }()

	opts := model.PublishOptions{
		OpenRouting: func() (routing.Backend, func() error, error) {
			return openRouting(backendName, configPath)
		},
		Lifetime: lifetime,
		TTL:      ttl,
		Logger:   log,
	}
	req := model.PublishRequest{Key: kp.EncodePrivateKey(), Value: value}
	if visited(fs, "sequence") {
		req.Sequence = seqFlag
	}
	if visited(fs, "prev-sequence") {
		req.PrevSequence = prevFlag
	}

	if file != "" {
		raw, rerr := os.ReadFile(file)
		if rerr != nil {
			fmt.Fprintf(errOut, "read --file: %v\n", rerr)
			return 1
		}
		preferred := storeName
		if storeConfig != "" && !visited(fs, "store") {
			preferred = ""
		}
		cas, closeFn, oerr := openStore(preferred, storeConfig)
		if oerr != nil {
			fmt.Fprintf(errOut, "open store: %v\n", oerr)
			return 1
		}
		if closeFn != nil {
			defer func() { _ = closeFn() }()
		}
		req.Bytes = raw
		opts.Store = cas
	}

	ctx := context.Background()
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	res, err := model.Publish(ctx, req, opts)
	if err != nil {
		fmt.Fprintf(errOut, "publish: %v\n", err)
		return 1
	}
	return printJSON(out, errOut, res)
}

func cmdResolve(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("resolve", flag.ContinueOnError)
	fs.SetOutput(errOut)

	var sf signerFlags
	addSignerFlags(fs, &sf)

	var nameStr string
	var backendName string
	var configPath string
	var gateways stringList
	var timeout time.Duration
	var verbose bool

	fs.StringVar(&nameStr, "name", "", "Name to resolve")
	fs.StringVar(&backendName, "backend", "", "Routing backend name (probed before gateways)")
	fs.StringVar(&configPath, "routing-config", "", "Routing backend config file (JSON)")
	fs.Var(&gateways, "gateway", "Gateway base URL, probed in flag order (repeatable)")
	fs.DurationVar(&timeout, "timeout", 30*time.Second, "Overall resolve timeout")
	fs.BoolVar(&verbose, "verbose", false, "Log strategy attempts")
	routeregistry.RegisterFlags(fs, routeregistry.UsageCLI)

	if err := fs.Parse(args); err != nil {
		return 2
	}
	if nameStr == "" && !sf.provided() {
		fmt.Fprintln(errOut, "missing entry point: use --name or a signer flag")
		return 2
	}
	if nameStr != "" && sf.provided() {
		fmt.Fprintln(errOut, "conflicting entry points: --name cannot be combined with signer flags")
		return 2
	}
	if backendName == "" && configPath == "" && len(gateways) == 0 {
		fmt.Fprintln(errOut, "no strategies: use --backend, --routing-config, or --gateway")
		return 2
	}

	req := model.ResolveRequest{Name: nameStr}
	if sf.provided() {
		kp, kerr := sf.keyPair()
		if kerr != nil {
			fmt.Fprintf(errOut, "invalid signer: %v\n", kerr)
			return 2
		}
		req.Key = kp.EncodePrivateKey()
	}

	log := newLogger(verbose)
	defer func() { _ = log.Sync() }()

	var strategies []resolve.Strategy
	if backendName != "" || configPath != "" {
		backend, closeFn, oerr := openRouting(backendName, configPath)
		if oerr != nil {
			fmt.Fprintf(errOut, "open routing: %v\n", oerr)
			return 1
		}
		if closeFn != nil {
			defer func() { _ = closeFn() }()
		}
		strategies = append(strategies, resolve.NewRouting(backend, resolve.RoutingOptions{}))
	}
	taken := map[string]bool{}
	for _, gw := range gateways {
		g, gerr := resolve.NewGateway(gw, resolve.GatewayOptions{Name: gatewayStrategyName(gw, taken)})
		if gerr != nil {
			fmt.Fprintf(errOut, "invalid --gateway %q: %v\n", gw, gerr)
			return 2
		}
		strategies = append(strategies, g)
	}

	chain, err := resolve.NewChain(resolve.Options{Logger: log}, strategies...)
	if err != nil {
		fmt.Fprintf(errOut, "build chain: %v\n", err)
		return 1
	}

	ctx := context.Background()
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	res, err := model.Resolve(ctx, req, model.ResolveOptions{Chain: chain})
	if err != nil {
		fmt.Fprintf(errOut, "resolve: %v\n", err)
		return 1
	}
	if code := printJSON(out, errOut, res); code != 0 {
		return code
	}
	if !res.Success {
		return 1
	}
	return 0
}

// gatewayStrategyName derives a unique strategy name per gateway, so a
// multi-gateway chain keeps each probe distinguishable in attempts and logs.
func gatewayStrategyName(base string, taken map[string]bool) string {
	host := base
	if u, err := url.Parse(base); err == nil && u.Host != "" {
		host = u.Host
	}
	candidate := "gateway:" + host
	for i := 2; taken[candidate]; i++ {
		candidate = fmt.Sprintf("gateway:%s#%d", host, i)
	}
	taken[candidate] = true
	return candidate
}

func cmdBundle(args []string, out io.Writer, errOut io.Writer) int {
	if len(args) == 0 {
		fmt.Fprintln(errOut, "usage: namesys bundle <subcommand> ...")
		fmt.Fprintln(errOut, "subcommands: export, import")
		return 2
	}
	switch args[0] {
	case "export":
		return cmdBundleExport(args[1:], out, errOut)
	case "import":
		return cmdBundleImport(args[1:], out, errOut)
	default:
		fmt.Fprintf(errOut, "unknown bundle subcommand: %s\n", args[0])
		return 2
	}
}

func cmdBundleExport(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("bundle export", flag.ContinueOnError)
	fs.SetOutput(errOut)

	var storeName string
	var storeConfig string
	var outPath string
	var recordFiles stringList
	var withIndex bool

	fs.StringVar(&storeName, "store", "localfs", "Content store backend")
	fs.StringVar(&storeConfig, "store-config", "", "Content store config file (JSON)")
	fs.StringVar(&outPath, "out", "", "Output file (default: stdout)")
	fs.Var(&recordFiles, "record", "Signed record file to include (repeatable)")
	fs.BoolVar(&withIndex, "index", true, "Include the index.json entry")
	casregistry.RegisterFlags(fs, casregistry.UsageCLI)

	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() == 0 && len(recordFiles) == 0 {
		fmt.Fprintln(errOut, "usage: namesys bundle export --store <name> [--out <file>] [--record <file> ...] <cid> ...")
		return 2
	}

	ids := make([]cid.Cid, 0, fs.NArg())
	for _, arg := range fs.Args() {
		c, err := cid.Decode(arg)
		if err != nil {
			fmt.Fprintf(errOut, "invalid cid %q: %v\n", arg, err)
			return 2
		}
		ids = append(ids, c)
	}
	recs := make([]*record.Record, 0, len(recordFiles))
	for _, p := range recordFiles {
		raw, err := os.ReadFile(p)
		if err != nil {
			fmt.Fprintf(errOut, "read --record %s: %v\n", p, err)
			return 1
		}
		rec, err := record.Decode(raw)
		if err != nil {
			fmt.Fprintf(errOut, "invalid record %s: %v\n", p, err)
			return 1
		}
		recs = append(recs, rec)
	}

	preferred := storeName
	if storeConfig != "" && !visited(fs, "store") {
		preferred = ""
	}
	cas, closeFn, err := openStore(preferred, storeConfig)
	if err != nil {
		fmt.Fprintf(errOut, "open store: %v\n", err)
		return 1
	}
	if closeFn != nil {
		defer func() { _ = closeFn() }()
	}

	w := out
	if outPath != "" {
		f, ferr := os.Create(outPath)
		if ferr != nil {
			fmt.Fprintf(errOut, "create --out: %v\n", ferr)
			return 1
		}
		defer f.Close()
		w = f
	}
	if err := bundle.Export(w, cas, ids, bundle.ExportOptions{Records: recs, IncludeIndex: withIndex}); err != nil {
		fmt.Fprintf(errOut, "export: %v\n", err)
		return 1
	}
	return 0
}

func cmdBundleImport(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("bundle import", flag.ContinueOnError)
	fs.SetOutput(errOut)

	var storeName string
	var storeConfig string
	var inPath string
	var ignoreUnknown bool

	fs.StringVar(&storeName, "store", "localfs", "Content store backend")
	fs.StringVar(&storeConfig, "store-config", "", "Content store config file (JSON)")
	fs.StringVar(&inPath, "in", "", "Bundle file to import")
	fs.BoolVar(&ignoreUnknown, "ignore-unknown", false, "Skip unknown bundle entries instead of failing")
	casregistry.RegisterFlags(fs, casregistry.UsageCLI)

	if err := fs.Parse(args); err != nil {
		return 2
	}
	if inPath == "" {
		fmt.Fprintln(errOut, "missing --in")
		return 2
	}

	f, err := os.Open(inPath)
	if err != nil {
		fmt.Fprintf(errOut, "open --in: %v\n", err)
		return 1
	}
	defer f.Close()

	preferred := storeName
	if storeConfig != "" && !visited(fs, "store") {
		preferred = ""
	}
	cas, closeFn, err := openStore(preferred, storeConfig)
	if err != nil {
		fmt.Fprintf(errOut, "open store: %v\n", err)
		return 1
	}
	if closeFn != nil {
		defer func() { _ = closeFn() }()
	}

	snap, err := bundle.ImportWithOptions(f, cas, bundle.ImportOptions{IgnoreUnknown: ignoreUnknown})
	if err != nil {
		fmt.Fprintf(errOut, "import: %v\n", err)
		return 1
	}
	fmt.Fprintf(out, "Blocks: %d\n", len(snap.Blocks))
	for _, rec := range snap.Records {
		owner, oerr := rec.Owner()
		if oerr != nil {
			continue
		}
		fmt.Fprintf(out, "%s -> %s (sequence %d)\n", owner, rec.Value, rec.Sequence)
	}
	return 0
}
