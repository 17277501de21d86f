package workers

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/anypb"
)

// ImageService carries one interactive session per stream. Every message is a
// google.protobuf.Any around a well-known type, see messages.go.
const (
	ImageServiceName                               = "pixelbubble.ImageService"
	ImageService_TransferImageBytes_FullMethodName = "/pixelbubble.ImageService/TransferImageBytes"
)

var errUnimplemented = status.Error(codes.Unimplemented, "method TransferImageBytes not implemented")

// ImageServiceServer is the server API for ImageService.
type ImageServiceServer interface {
	TransferImageBytes(ImageService_TransferImageBytesServer) error
}

// UnimplementedImageServiceServer can be embedded for forward compatibility.
type UnimplementedImageServiceServer struct{}

func (UnimplementedImageServiceServer) TransferImageBytes(ImageService_TransferImageBytesServer) error {
	return errUnimplemented
}

type ImageService_TransferImageBytesServer interface {
	Send(*anypb.Any) error
	Recv() (*anypb.Any, error)
	grpc.ServerStream
}

type imageServiceTransferImageBytesServer struct {
	grpc.ServerStream
}

func (x *imageServiceTransferImageBytesServer) Send(m *anypb.Any) error {
	return x.ServerStream.SendMsg(m)
}

func (x *imageServiceTransferImageBytesServer) Recv() (*anypb.Any, error) {
	m := new(anypb.Any)
	if err := x.ServerStream.RecvMsg(m); err != nil {
		return nil, err
	}
	return m, nil
}

func _ImageService_TransferImageBytes_Handler(srv interface{}, stream grpc.ServerStream) error {
	return srv.(ImageServiceServer).TransferImageBytes(&imageServiceTransferImageBytesServer{stream})
}

// ImageService_ServiceDesc is the grpc.ServiceDesc for ImageService.
var ImageService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: ImageServiceName,
	HandlerType: (*ImageServiceServer)(nil),
	Methods:     []grpc.MethodDesc{},
	Streams: []grpc.StreamDesc{
		{
			StreamName:    "TransferImageBytes",
			Handler:       _ImageService_TransferImageBytes_Handler,
			ServerStreams: true,
			ClientStreams: true,
		},
	},
	Metadata: "pixelbubble/image_service",
}

func RegisterImageServiceServer(s grpc.ServiceRegistrar, srv ImageServiceServer) {
	s.RegisterService(&ImageService_ServiceDesc, srv)
}

// ImageServiceClient is the client API for ImageService.
type ImageServiceClient interface {
	TransferImageBytes(ctx context.Context, opts ...grpc.CallOption) (ImageService_TransferImageBytesClient, error)
}

type imageServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewImageServiceClient(cc grpc.ClientConnInterface) ImageServiceClient {
	return &imageServiceClient{cc}
}

func (c *imageServiceClient) TransferImageBytes(ctx context.Context, opts ...grpc.CallOption) (ImageService_TransferImageBytesClient, error) {
	stream, err := c.cc.NewStream(ctx, &ImageService_ServiceDesc.Streams[0], ImageService_TransferImageBytes_FullMethodName, opts...)
	if err != nil {
		return nil, err
	}
	return &imageServiceTransferImageBytesClient{stream}, nil
}

type ImageService_TransferImageBytesClient interface {
	Send(*anypb.Any) error
	Recv() (*anypb.Any, error)
	grpc.ClientStream
}

type imageServiceTransferImageBytesClient struct {
	grpc.ClientStream
}

func (x *imageServiceTransferImageBytesClient) Send(m *anypb.Any) error {
	return x.ClientStream.SendMsg(m)
}

func (x *imageServiceTransferImageBytesClient) Recv() (*anypb.Any, error) {
	m := new(anypb.Any)
	if err := x.ClientStream.RecvMsg(m); err != nil {
		return nil, err
	}
	return m, nil
}
