package client

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/kerosiinikone/pixelbubble/config"
	"github.com/kerosiinikone/pixelbubble/pipeline"
	gen "github.com/kerosiinikone/pixelbubble/workers"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
)

// Client talks to a running image service.
type Client struct {
	conn      *grpc.ClientConn
	svc       gen.ImageServiceClient
	chunkSize int
	callOpts  []grpc.CallOption
}

// Dial connects to the service at cfg's address.
func Dial(cfg *config.Config, opts ...grpc.DialOption) (*Client, error) {
	opts = append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	}, opts...)

	conn, err := grpc.Dial(cfg.Address(), opts...)
	if err != nil {
		return nil, fmt.Errorf("dialing %s: %w", cfg.Address(), err)
	}
	c := New(conn, cfg.Transport.ChunkSize, cfg.Transport.Compression)
	c.conn = conn
	return c, nil
}

// New wraps an existing connection. compression is "" or workers.Zstd.
func New(cc grpc.ClientConnInterface, chunkSize int, compression string) *Client {
	c := &Client{
		svc:       gen.NewImageServiceClient(cc),
		chunkSize: chunkSize,
	}
	if compression != "" {
		c.callOpts = append(c.callOpts, grpc.UseCompressor(compression))
	}
	return c
}

// Close closes the connection opened by Dial.
func (c *Client) Close() error {
	if c.conn == nil {
		return nil
	}
	return c.conn.Close()
}

// Open starts a session stream whose first render uses p.
func (c *Client) Open(ctx context.Context, p pipeline.RenderParameters) (*Stream, error) {
	ctx = metadata.AppendToOutgoingContext(ctx,
		gen.MetadataBlockSize, strconv.Itoa(p.BlockSize),
		gen.MetadataMode, string(p.Mode),
	)
	stream, err := c.svc.TransferImageBytes(ctx, c.callOpts...)
	if err != nil {
		return nil, fmt.Errorf("opening stream: %w", err)
	}
	return &Stream{stream: stream, chunkSize: c.chunkSize}, nil
}

// Stylize uploads r and waits for its result. progress, when not nil, sees
// every byte as it is sent.
func (c *Client) Stylize(ctx context.Context, r io.Reader, p pipeline.RenderParameters, progress io.Writer) (*Result, error) {
	s, err := c.Open(ctx, p)
	if err != nil {
		return nil, err
	}
	if progress != nil {
		r = io.TeeReader(r, progress)
	}
	if err := s.Upload(ctx, r); err != nil {
		return nil, err
	}
	res, err := s.Recv()
	if err != nil {
		return nil, err
	}
	if err := s.Close(); err != nil {
		return nil, err
	}
	return res, nil
}
