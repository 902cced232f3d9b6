package faceauthpb

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// Well-known types stand in for generated messages. Proto definition:
// faceauth.proto.

const (
	serviceName    = "faceauth.v1.FaceAuth"
	enrollMethod   = "/faceauth.v1.FaceAuth/Enroll"
	verifyMethod   = "/faceauth.v1.FaceAuth/Verify"
	clearAllMethod = "/faceauth.v1.FaceAuth/ClearAll"
	listAllMethod  = "/faceauth.v1.FaceAuth/ListAll"
)

// FaceAuthServer is the server API for the FaceAuth service.
type FaceAuthServer interface {
	Enroll(context.Context, *structpb.Struct) (*wrapperspb.StringValue, error)
	Verify(context.Context, *structpb.Struct) (*wrapperspb.StringValue, error)
	ClearAll(context.Context, *emptypb.Empty) (*wrapperspb.StringValue, error)
	ListAll(context.Context, *emptypb.Empty) (*wrapperspb.StringValue, error)
}

// UnimplementedFaceAuthServer can be embedded for forward compatibility.
type UnimplementedFaceAuthServer struct{}

func (UnimplementedFaceAuthServer) Enroll(context.Context, *structpb.Struct) (*wrapperspb.StringValue, error) {
	return nil, status.Error(codes.Unimplemented, "method Enroll not implemented")
}
func (UnimplementedFaceAuthServer) Verify(context.Context, *structpb.Struct) (*wrapperspb.StringValue, error) {
	return nil, status.Error(codes.Unimplemented, "method Verify not implemented")
}
func (UnimplementedFaceAuthServer) ClearAll(context.Context, *emptypb.Empty) (*wrapperspb.StringValue, error) {
	return nil, status.Error(codes.Unimplemented, "method ClearAll not implemented")
}
func (UnimplementedFaceAuthServer) ListAll(context.Context, *emptypb.Empty) (*wrapperspb.StringValue, error) {
	return nil, status.Error(codes.Unimplemented, "method ListAll not implemented")
}

// RegisterFaceAuthServer registers srv on s.
func RegisterFaceAuthServer(s grpc.ServiceRegistrar, srv FaceAuthServer) {
	s.RegisterService(&FaceAuth_ServiceDesc, srv)
}

// FaceAuthClient is the client API for the FaceAuth service.
type FaceAuthClient interface {
	Enroll(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*wrapperspb.StringValue, error)
	Verify(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*wrapperspb.StringValue, error)
	ClearAll(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*wrapperspb.StringValue, error)
	ListAll(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*wrapperspb.StringValue, error)
}

type faceAuthClient struct{ cc grpc.ClientConnInterface }

func NewFaceAuthClient(cc grpc.ClientConnInterface) FaceAuthClient {
	return &faceAuthClient{cc: cc}
}

func (c *faceAuthClient) invoke(ctx context.Context, method string, in interface{}, opts []grpc.CallOption) (*wrapperspb.StringValue, error) {
	out := new(wrapperspb.StringValue)
	if err := c.cc.Invoke(ctx, method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *faceAuthClient) Enroll(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*wrapperspb.StringValue, error) {
	return c.invoke(ctx, enrollMethod, in, opts)
}

func (c *faceAuthClient) Verify(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*wrapperspb.StringValue, error) {
	return c.invoke(ctx, verifyMethod, in, opts)
}

func (c *faceAuthClient) ClearAll(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*wrapperspb.StringValue, error) {
	return c.invoke(ctx, clearAllMethod, in, opts)
}

func (c *faceAuthClient) ListAll(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*wrapperspb.StringValue, error) {
	return c.invoke(ctx, listAllMethod, in, opts)
}

func _FaceAuth_Enroll_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(FaceAuthServer).Enroll(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: enrollMethod}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(FaceAuthServer).Enroll(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

func _FaceAuth_Verify_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(FaceAuthServer).Verify(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: verifyMethod}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(FaceAuthServer).Verify(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

func _FaceAuth_ClearAll_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(FaceAuthServer).ClearAll(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: clearAllMethod}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(FaceAuthServer).ClearAll(ctx, req.(*emptypb.Empty))
	}
	return interceptor(ctx, in, info, handler)
}

func _FaceAuth_ListAll_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(FaceAuthServer).ListAll(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: listAllMethod}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(FaceAuthServer).ListAll(ctx, req.(*emptypb.Empty))
	}
	return interceptor(ctx, in, info, handler)
}

// FaceAuth_ServiceDesc is the grpc.ServiceDesc for the FaceAuth service.
var FaceAuth_ServiceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*FaceAuthServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Enroll", Handler: _FaceAuth_Enroll_Handler},
		{MethodName: "Verify", Handler: _FaceAuth_Verify_Handler},
		{MethodName: "ClearAll", Handler: _FaceAuth_ClearAll_Handler},
		{MethodName: "ListAll", Handler: _FaceAuth_ListAll_Handler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "faceauth.proto",
}
