package stylize

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"strconv"

	c "github.com/kerosiinikone/pixelbubble/config"
	"github.com/kerosiinikone/pixelbubble/pipeline"
	u "github.com/kerosiinikone/pixelbubble/workers"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

// apiService is the gRPC face of the pipeline. Each stream gets its own
// pipeline.Session, so parameter changes re-render that stream's upload only.
type apiService struct {
	cfg    *c.Config
	logger *log.Logger

	u.UnimplementedImageServiceServer
}

// NewServer returns a grpc.Server with the image service registered.
func NewServer(cfg *c.Config, logger *log.Logger, opts ...grpc.ServerOption) *grpc.Server {
	if logger == nil {
		logger = log.Default()
	}
	s := grpc.NewServer(opts...)
	u.RegisterImageServiceServer(s, &apiService{
		cfg:    cfg,
		logger: logger,
	})
	return s
}

// Serve listens on the configured address until ctx is done, then stops
// gracefully.
func Serve(ctx context.Context, cfg *c.Config, logger *log.Logger) error {
	lis, err := net.Listen("tcp", cfg.Address())
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}
	if logger == nil {
		logger = log.Default()
	}
	s := NewServer(cfg, logger)

	go func() {
		<-ctx.Done()
		s.GracefulStop()
	}()

	logger.Printf("image service listening on %s", lis.Addr())
	if err := s.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
		return fmt.Errorf("failed to serve: %w", err)
	}
	return nil
}

func (svc *apiService) TransferImageBytes(srv u.ImageService_TransferImageBytesServer) error {
	params, err := svc.streamParams(srv.Context())
	if err != nil {
		return status.Error(codes.InvalidArgument, err.Error())
	}
	session := pipeline.NewSession(svc.cfg.DecodeOptions(), params, svc.logger)
	w := newWorker(srv, session, svc.cfg.Transport.ChunkSize, svc.logger)
	return w.run()
}

// streamParams starts from the configured defaults and applies the stream's
// metadata overrides.
func (svc *apiService) streamParams(ctx context.Context) (pipeline.RenderParameters, error) {
	params, err := svc.cfg.Params()
	if err != nil {
		return params, err
	}
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return params, nil
	}
	if v := md.Get(u.MetadataBlockSize); len(v) > 0 {
		n, err := strconv.Atoi(v[0])
		if err != nil {
			return params, fmt.Errorf("%s: %w", u.MetadataBlockSize, err)
		}
		params.BlockSize = n
	}
	if v := md.Get(u.MetadataMode); len(v) > 0 {
		m, err := pipeline.ParseMode(v[0])
		if err != nil {
			return params, err
		}
		params.Mode = m
	}
	return params, params.Validate()
}
