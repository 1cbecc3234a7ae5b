package resolve

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/hashicorp/go-cleanhttp"
	"github.com/ipfs/go-cid"

	"github.com/neovate-digital/namesys/name"
)

// rootsHeader carries the resolved content roots on gateway responses; the
// first entry is the root the name points to.
const rootsHeader = "X-Ipfs-Roots"

// GatewayOptions controls the gateway strategy.
type GatewayOptions struct {
	// Client issues the probes; nil means a pooled client with isolated
	// transport state.
	Client *http.Client
	// Name overrides the strategy name. Chains require unique names, so
	// setups probing several gateways name each one ("gateway:ipfs.io").
	Name string
}

// Gateway resolves names by asking a public HTTP gateway.
//
// The probe is a HEAD request for {base}/ipns/{name}; the answer is the
// first entry of the X-Ipfs-Roots response header. Gateway answers carry no
// record, so Result.Record stays nil and callers that need a verified
// answer must place this strategy after a verifying one.
type Gateway struct {
	base   string
	name   string
	client *http.Client
}

var _ Strategy = (*Gateway)(nil)

// NewGateway builds the strategy against the gateway at base,
// e.g. "https://ipfs.io".
func NewGateway(base string, opts GatewayOptions) (*Gateway, error) {
	base = strings.TrimRight(strings.TrimSpace(base), "/")
	if base == "" {
		return nil, errors.New("resolve: gateway base URL is required")
	}
	client := opts.Client
	if client == nil {
		client = cleanhttp.DefaultPooledClient()
	}
	strategyName := opts.Name
	if strategyName == "" {
		strategyName = "gateway"
	}
	return &Gateway{base: base, name: strategyName, client: client}, nil
}

func (g *Gateway) Name() string { return g.name }

func (g *Gateway) Resolve(ctx context.Context, n name.Name) (*Result, error) {
	url := g.base + "/ipns/" + n.String()
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := g.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("gateway returned status %d", resp.StatusCode)
	}
	roots := resp.Header.Get(rootsHeader)
	if roots == "" {
		return nil, fmt.Errorf("gateway response missing %s header", rootsHeader)
	}
	first := strings.TrimSpace(strings.SplitN(roots, ",", 2)[0])
	c, err := cid.Decode(first)
	if err != nil {
		return nil, fmt.Errorf("gateway returned invalid root %q: %v", first, err)
	}
	return &Result{Value: c.String()}, nil
}
