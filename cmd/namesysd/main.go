package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/neovate-digital/namesys/model"
	"github.com/neovate-digital/namesys/resolve"
	"github.com/neovate-digital/namesys/routing"
	"github.com/neovate-digital/namesys/routing/routecfg"
	"github.com/neovate-digital/namesys/routing/routeregistry"

	_ "github.com/neovate-digital/namesys/routing/memory"
	_ "github.com/neovate-digital/namesys/routing/routegrpc"
	_ "github.com/neovate-digital/namesys/routing/sqlitestore"
)

type stringList []string

func (s *stringList) String() string { return strings.Join(*s, ",") }
func (s *stringList) Set(v string) error {
	*s = append(*s, v)
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func main() {
	// Existing environment wins over .env values; a missing file is fine.
	_ = godotenv.Load()

	fs := flag.NewFlagSet("namesysd", flag.ExitOnError)
	listen := fs.String("listen", envOr("NAMESYSD_LISTEN", "127.0.0.1:8080"), "listen address")
	backend := fs.String("backend", envOr("NAMESYSD_BACKEND", ""), "routing backend name")
	configPath := fs.String("routing-config", envOr("NAMESYSD_ROUTING_CONFIG", ""), "routing backend config file (JSON)")
	var gateways stringList
	fs.Var(&gateways, "gateway", "upstream gateway base URL, probed after the backend (repeatable)")
	cacheSize := fs.Int("cache-size", 1024, "per-strategy answer cache entries (0 disables caching)")
	timeout := fs.Duration("timeout", 30*time.Second, "per-request resolve timeout")
	devLog := fs.Bool("dev-log", false, "human-readable logs instead of JSON")
	listBackends := fs.Bool("list-backends", false, "List supported backends and exit")

	routeregistry.RegisterFlags(fs, routeregistry.UsageCLI)

	_ = fs.Parse(os.Args[1:])
	if *listBackends {
		for _, b := range routeregistry.List(routeregistry.UsageCLI) {
			if b.Description == "" {
				_, _ = fmt.Fprintf(os.Stdout, "%s\n", b.Name)
				continue
			}
			_, _ = fmt.Fprintf(os.Stdout, "%s\t%s\n", b.Name, b.Description)
		}
		return
	}
	if len(gateways) == 0 {
		for _, gw := range strings.Split(os.Getenv("NAMESYSD_GATEWAYS"), ",") {
			if gw = strings.TrimSpace(gw); gw != "" {
				gateways = append(gateways, gw)
			}
		}
	}
	if *backend == "" && *configPath == "" && len(gateways) == 0 {
		fmt.Fprintln(os.Stderr, "no strategies: use -backend, -routing-config, or -gateway")
		os.Exit(2)
	}

	log, err := newLogger(*devLog)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	reg := prometheus.NewRegistry()
	metrics := resolve.NewMetrics(reg)

	var strategies []resolve.Strategy
	var closers []func() error
	if *backend != "" || *configPath != "" {
		rt, closeFn, oerr := openRouting(*backend, *configPath)
		if oerr != nil {
			log.Error("open routing backend", zap.Error(oerr))
			os.Exit(2)
		}
		if closeFn != nil {
			closers = append(closers, closeFn)
		}
		strategies = append(strategies, resolve.NewRouting(rt, resolve.RoutingOptions{}))
	}
	taken := map[string]bool{}
	for _, gw := range gateways {
		g, gerr := resolve.NewGateway(gw, resolve.GatewayOptions{Name: gatewayName(gw, taken)})
		if gerr != nil {
			log.Error("invalid gateway", zap.String("base", gw), zap.Error(gerr))
			os.Exit(2)
		}
		strategies = append(strategies, g)
	}
	for i, s := range strategies {
		if *cacheSize > 0 {
			s = resolve.NewCached(s, resolve.CacheOptions{Size: *cacheSize})
		}
		strategies[i] = metrics.Instrument(s)
	}

	chain, err := resolve.NewChain(resolve.Options{Logger: log}, strategies...)
	if err != nil {
		log.Error("build chain", zap.Error(err))
		os.Exit(2)
	}
	defer func() {
		for i := len(closers) - 1; i >= 0; i-- {
			_ = closers[i]()
		}
	}()

	h := &resolveHandler{chain: chain, timeout: *timeout, log: log}

	r := chi.NewRouter()
	r.Use(chimiddleware.Recoverer)
	r.Use(requestLogger(log))
	r.Get("/ipns/{name}", h.serve)
	r.Head("/ipns/{name}", h.serve)
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok\n"))
	})
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	server := &http.Server{Addr: *listen, Handler: r}

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)
		<-sigCh

		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Error("shutdown", zap.Error(err))
		}
	}()

	log.Info("namesysd listening",
		zap.String("addr", *listen),
		zap.Strings("strategies", chain.Strategies()))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error("serve", zap.Error(err))
		os.Exit(1)
	}
	log.Info("stopped")
}

func newLogger(dev bool) (*zap.Logger, error) {
	if dev {
		cfg := zap.NewDevelopmentConfig()
		cfg.DisableStacktrace = true
		return cfg.Build()
	}
	return zap.NewProduction()
}

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

// gatewayName derives a unique strategy name per upstream, so the chain and
// the metrics keep each gateway distinguishable.
func gatewayName(base string, taken map[string]bool) string {
	host := strings.TrimPrefix(strings.TrimPrefix(base, "https://"), "http://")
	if i := strings.IndexByte(host, '/'); i >= 0 {
		host = host[:i]
	}
	candidate := "gateway:" + host
	for i := 2; taken[candidate]; i++ {
		candidate = fmt.Sprintf("gateway:%s#%d", host, i)
	}
	taken[candidate] = true
	return candidate
}

type ctxKey int

const requestIDKey ctxKey = 0

func requestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// requestLogger assigns each request an ID and logs its outcome.
func requestLogger(log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := uuid.New().String()
			ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r.WithContext(context.WithValue(r.Context(), requestIDKey, id)))
			log.Info("request",
				zap.String("id", id),
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("duration", time.Since(start)))
		})
	}
}

type resolveHandler struct {
	chain   *resolve.Chain
	timeout time.Duration
	log     *zap.Logger
}

// serve answers GET and HEAD /ipns/{name}. Successful answers carry the
// resolved root in X-Ipfs-Roots, the header the gateway strategy reads, so
// one namesysd can serve as another resolver's upstream.
func (h *resolveHandler) serve(w http.ResponseWriter, r *http.Request) {
	raw := chi.URLParam(r, "name")

	ctx := r.Context()
	if h.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.timeout)
		defer cancel()
	}

	res, err := model.Resolve(ctx, model.ResolveRequest{Name: raw}, model.ResolveOptions{Chain: h.chain})
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if !res.Success {
		h.log.Debug("resolution failed",
			zap.String("id", requestID(r.Context())),
			zap.String("name", res.Name),
			zap.Error(res.Err))
		status := http.StatusNotFound
		if errors.Is(res.Err, context.Canceled) || errors.Is(res.Err, context.DeadlineExceeded) {
			status = http.StatusGatewayTimeout
		}
		http.Error(w, res.Err.Error(), status)
		return
	}

	w.Header().Set("X-Ipfs-Roots", res.Value)
	w.Header().Set("X-Ipfs-Path", "/ipns/"+res.Name)
	if r.Method == http.MethodHead {
		w.WriteHeader(http.StatusOK)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = fmt.Fprintln(w, res.Value)
}
