package sqlitestore

import (
	"flag"
	"fmt"

	"github.com/neovate-digital/namesys/routing"
	"github.com/neovate-digital/namesys/routing/routeregistry"
)

var (
	flagSqlitePath string
)

func init() {
	routeregistry.MustRegister(routeregistry.Backend{
		Name:        "sqlite",
		Description: "Sqlite-backed validating record store (file)",
		Usage:       routeregistry.UsageCLI | routeregistry.UsageDaemon,
		RegisterFlags: func(fs *flag.FlagSet) {
			fs.StringVar(&flagSqlitePath, "sqlite-path", "", "Sqlite database path (for --backend=sqlite)")
		},
		Open: func() (routing.Backend, func() error, error) {
			if flagSqlitePath == "" {
				return nil, nil, fmt.Errorf("missing --sqlite-path")
			}
			st, err := Open(flagSqlitePath, Options{})
			if err != nil {
				return nil, nil, err
			}
			return st, st.Close, nil
		},
	})
}
