package main

import (
	"flag"
	"fmt"
	"net"
	"os"

	"google.golang.org/grpc"

	"github.com/neovate-digital/namesys/routing/routegrpc"
	"github.com/neovate-digital/namesys/routing/routeregistry"

	_ "github.com/neovate-digital/namesys/routing/memory"
	_ "github.com/neovate-digital/namesys/routing/sqlitestore"
)

func main() {
	fs := flag.NewFlagSet("namegrpcd", flag.ExitOnError)
	listen := fs.String("listen", "127.0.0.1:7411", "listen address")
	backend := fs.String("backend", "memory", "routing backend name")
	listBackends := fs.Bool("list-backends", false, "List supported backends and exit")

	routeregistry.RegisterFlags(fs, routeregistry.UsageDaemon)

	_ = fs.Parse(os.Args[1:])
	if *listBackends {
		for _, b := range routeregistry.List(routeregistry.UsageDaemon) {
			if b.Description == "" {
				_, _ = fmt.Fprintf(os.Stdout, "%s\n", b.Name)
				continue
			}
			_, _ = fmt.Fprintf(os.Stdout, "%s\t%s\n", b.Name, b.Description)
		}
		return
	}

	rt, closeFn, err := routeregistry.Open(*backend, routeregistry.UsageDaemon)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	if closeFn != nil {
		defer closeFn()
	}

	lis, err := net.Listen("tcp", *listen)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer lis.Close()

	s := grpc.NewServer()
	routegrpc.RegisterRoutingServer(s, &routegrpc.Server{Backend: rt})

	fmt.Fprintf(os.Stderr, "namegrpcd listening on %s (backend=%s)\n", lis.Addr().String(), *backend)
	if err := s.Serve(lis); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
