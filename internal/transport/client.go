package transport

import (
	"context"

	"google.golang.org/grpc"

	"github.com/bill-habermaas/grpc-registry/proto"
)

// Client is a thin wrapper around a *grpc.ClientConn that calls the six
// registry methods with the JSON codec selected on every invocation, the
// way a generated *_grpc.pb.go client would, minus the codegen.
type Client struct {
	cc *grpc.ClientConn
}

// NewClient wraps an already-dialed connection. Dialing itself (address,
// transport credentials, retry policy) is left to the caller, following
// dexidp/dex's api client pattern of accepting a *grpc.ClientConn rather
// than owning the dial.
func NewClient(cc *grpc.ClientConn) *Client {
	return &Client{cc: cc}
}

func callOpts() []grpc.CallOption {
	return []grpc.CallOption{grpc.CallContentSubtype(CodecName)}
}

func (c *Client) Authorize(ctx context.Context, req *proto.AuthorizeRequest) (*proto.AuthorizeResponse, error) {
	out := new(proto.AuthorizeResponse)
	if err := c.cc.Invoke(ctx, fullMethod("Authorize"), req, out, callOpts()...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Register(ctx context.Context, req *proto.RegisterRequest) (*proto.RegisterResponse, error) {
	out := new(proto.RegisterResponse)
	if err := c.cc.Invoke(ctx, fullMethod("Register"), req, out, callOpts()...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Deregister(ctx context.Context, req *proto.DeRegisterRequest) (*proto.DeRegisterResponse, error) {
	out := new(proto.DeRegisterResponse)
	if err := c.cc.Invoke(ctx, fullMethod("Deregister"), req, out, callOpts()...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Find(ctx context.Context, req *proto.FindProviderRequest) (*proto.FindProviderResponse, error) {
	out := new(proto.FindProviderResponse)
	if err := c.cc.Invoke(ctx, fullMethod("Find"), req, out, callOpts()...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) KeepAlive(ctx context.Context, req *proto.KeepaliveReport) (*proto.KeepAliveResponse, error) {
	out := new(proto.KeepAliveResponse)
	if err := c.cc.Invoke(ctx, fullMethod("KeepAlive"), req, out, callOpts()...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Report(ctx context.Context, req *proto.ProviderReportRequest) (*proto.ProviderReportResponse, error) {
	out := new(proto.ProviderReportResponse)
	if err := c.cc.Invoke(ctx, fullMethod("Report"), req, out, callOpts()...); err != nil {
		return nil, err
	}
	return out, nil
}
