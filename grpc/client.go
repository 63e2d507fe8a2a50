package subnetgrpc

import (
	"context"
	"fmt"

	"google.golang.org/grpc"

	"github.com/blockberries/subnet/types"
)

// Client is a remote subnet node over gRPC using cramberry
// serialization.
type Client struct {
	cc *grpc.ClientConn
}

// Dial connects to a remote subnet node.
func Dial(ctx context.Context, addr string, opts ...grpc.DialOption) (*Client, error) {
	opts = append(opts, grpc.WithDefaultCallOptions(
		grpc.ForceCodec(CramberryCodec{}),
	))
	cc, err := grpc.DialContext(ctx, addr, opts...)
	if err != nil {
		return nil, fmt.Errorf("subnet client: dial %s: %w", addr, err)
	}
	return &Client{cc: cc}, nil
}

func (c *Client) Close() error {
	return c.cc.Close()
}

// SubmitTx broadcasts a prepared, signed submission through the node.
func (c *Client) SubmitTx(ctx context.Context, sub types.TxSubmission) error {
	req := &SubmitTxRequest{Submission: sub}
	resp := new(SubmitTxResponse)
	return c.cc.Invoke(ctx, fullMethod("SubmitTx"), req, resp)
}

// Simulate previews a submission's outcome. A non-empty reason means
// the transaction would be dropped.
func (c *Client) Simulate(ctx context.Context, sub types.TxSubmission) (*types.TxRecord, string, error) {
	req := &SimulateRequest{Submission: sub}
	resp := new(SimulateResponse)
	if err := c.cc.Invoke(ctx, fullMethod("Simulate"), req, resp); err != nil {
		return nil, "", err
	}
	return resp.Record, resp.DropReason, nil
}

// Get reads a view key at the chosen horizon.
func (c *Client) Get(ctx context.Context, key string, h types.Horizon) ([]byte, bool, error) {
	req := &GetRequest{Key: key, Horizon: h}
	resp := new(GetResponse)
	if err := c.cc.Invoke(ctx, fullMethod("Get"), req, resp); err != nil {
		return nil, false, err
	}
	return resp.Value, resp.Found, nil
}

// Ops fetches the registered contract dispatch types and schemas.
func (c *Client) Ops(ctx context.Context) ([]OpDescriptor, error) {
	resp := new(OpsResponse)
	if err := c.cc.Invoke(ctx, fullMethod("Ops"), &OpsRequest{}, resp); err != nil {
		return nil, err
	}
	return resp.Ops, nil
}
