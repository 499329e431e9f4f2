package grpcserver

import (
	"context"

	"google.golang.org/grpc"
)

// Client calls ManifestService over any connection using the JSON codec.
type Client struct {
	cc grpc.ClientConnInterface
}

func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

func (c *Client) Assemble(ctx context.Context, req *AssembleRequest) (*AssembleResponse, error) {
	out := new(AssembleResponse)
	if err := c.invoke(ctx, "Assemble", req, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Import(ctx context.Context, req *ImportRequest) (*ImportResponse, error) {
	out := new(ImportResponse)
	if err := c.invoke(ctx, "Import", req, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) GetManifest(ctx context.Context, req *GetManifestRequest) (*GetManifestResponse, error) {
	out := new(GetManifestResponse)
	if err := c.invoke(ctx, "GetManifest", req, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) invoke(ctx context.Context, method string, in, out any) error {
	return c.cc.Invoke(ctx, fullMethod(method), in, out, grpc.CallContentSubtype(CodecName))
}
