package ipfs

import (
	"flag"

	"github.com/neovate-digital/namesys/storage"
	"github.com/neovate-digital/namesys/storage/casregistry"
)

var flagIPFSBin string

func init() {
	casregistry.MustRegister(casregistry.Backend{
		Name:        "ipfs",
		Description: "Local Kubo repo via the ipfs CLI",
		Usage:       casregistry.UsageCLI,
		RegisterFlags: func(fs *flag.FlagSet) {
			fs.StringVar(&flagIPFSBin, "ipfs-bin", "", "path to the ipfs binary (default: ipfs from PATH)")
		},
		Open: func() (storage.CAS, func() error, error) {
			return New(Options{Bin: flagIPFSBin}), nil, nil
		},
	})
}
