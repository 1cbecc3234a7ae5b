package memory

import (
	"flag"

	"github.com/neovate-digital/namesys/routing"
	"github.com/neovate-digital/namesys/routing/routeregistry"
)

func init() {
	routeregistry.MustRegister(routeregistry.Backend{
		Name:        "memory",
		Description: "In-process validating record store (testing, single node)",
		Usage:       routeregistry.UsageCLI | routeregistry.UsageDaemon,
		RegisterFlags: func(fs *flag.FlagSet) {},
		Open: func() (routing.Backend, func() error, error) {
			return New(Options{}), nil, nil
		},
	})
}
