package routegrpc

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/neovate-digital/namesys/record"
	"github.com/neovate-digital/namesys/routing"
)

// Client implements routing.Backend over the Routing gRPC service.
type Client struct {
	cc     *grpc.ClientConn
	client RoutingClient

	// Timeout applies per RPC when non-zero.
	Timeout time.Duration
}

var _ routing.Backend = (*Client)(nil)

type DialOptions struct {
	// Timeout applies to the initial dial when non-zero.
	Timeout time.Duration

	// MaxMsgBytes sets both send/recv max sizes when non-zero.
	MaxMsgBytes int
}

func Dial(target string, opts DialOptions) (*Client, error) {
	dialOpts := []grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	}
	if opts.MaxMsgBytes > 0 {
		dialOpts = append(dialOpts,
			grpc.WithDefaultCallOptions(
				grpc.MaxCallRecvMsgSize(opts.MaxMsgBytes),
				grpc.MaxCallSendMsgSize(opts.MaxMsgBytes),
			),
		)
	}

	ctx := context.Background()
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	cc, err := grpc.DialContext(ctx, target, dialOpts...)
	if err != nil {
		return nil, err
	}
	return &Client{cc: cc, client: NewRoutingClient(cc), Timeout: 0}, nil
}

func (c *Client) Close() error {
	if c == nil || c.cc == nil {
		return nil
	}
	return c.cc.Close()
}

func (c *Client) Put(ctx context.Context, key, raw []byte) error {
	if c == nil || c.client == nil {
		return routing.ErrUnavailable
	}
	// The wire carries only the record; check locally that it actually
	// belongs under key before asking the server to store it.
	rec, err := record.Decode(raw)
	if err != nil {
		return fmt.Errorf("%w: %v", routing.ErrRejected, err)
	}
	owner, err := rec.Owner()
	if err != nil {
		return fmt.Errorf("%w: %v", routing.ErrRejected, err)
	}
	if !bytes.Equal(owner.RoutingKey(), key) {
		return fmt.Errorf("%w: record does not belong under this key", routing.ErrRejected)
	}

	ctx, cancel := c.scope(ctx)
	defer cancel()

	if _, err := c.client.Put(ctx, wrapperspb.Bytes(raw)); err != nil {
		return mapRPC(err)
	}
	return nil
}

func (c *Client) Get(ctx context.Context, key []byte) ([]byte, error) {
	if c == nil || c.client == nil {
		return nil, routing.ErrUnavailable
	}
	ctx, cancel := c.scope(ctx)
	defer cancel()

	reply, err := c.client.Get(ctx, wrapperspb.Bytes(key))
	if err != nil {
		return nil, mapRPC(err)
	}
	raw := reply.GetValue()
	// Trust nothing from the wire: the reply must be a record that belongs
	// under the requested key.
	rec, err := record.Decode(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: undecodable reply: %v", routing.ErrRejected, err)
	}
	owner, err := rec.Owner()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", routing.ErrRejected, err)
	}
	if !bytes.Equal(owner.RoutingKey(), key) {
		return nil, fmt.Errorf("%w: reply does not belong under this key", routing.ErrRejected)
	}
	return raw, nil
}

func (c *Client) scope(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.Timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, c.Timeout)
}
