package interpreterpb

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// The service is described with protobuf well-known types so no protoc step
// is needed. Proto definition: interpreter.proto.

const callMethod = "/faceauth.interpreter.v1.Interpreter/Call"

// InterpreterServer is the server API for the Interpreter service.
type InterpreterServer interface {
	Call(context.Context, *structpb.Struct) (*wrapperspb.StringValue, error)
}

// UnimplementedInterpreterServer can be embedded for forward compatibility.
type UnimplementedInterpreterServer struct{}

func (UnimplementedInterpreterServer) Call(context.Context, *structpb.Struct) (*wrapperspb.StringValue, error) {
	return nil, status.Error(codes.Unimplemented, "method Call not implemented")
}

// RegisterInterpreterServer registers srv on s.
func RegisterInterpreterServer(s grpc.ServiceRegistrar, srv InterpreterServer) {
	s.RegisterService(&Interpreter_ServiceDesc, srv)
}

// InterpreterClient is the client API for the Interpreter service.
type InterpreterClient interface {
	Call(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*wrapperspb.StringValue, error)
}

type interpreterClient struct{ cc grpc.ClientConnInterface }

func NewInterpreterClient(cc grpc.ClientConnInterface) InterpreterClient {
	return &interpreterClient{cc: cc}
}

func (c *interpreterClient) Call(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*wrapperspb.StringValue, error) {
	out := new(wrapperspb.StringValue)
	if err := c.cc.Invoke(ctx, callMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func _Interpreter_Call_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(InterpreterServer).Call(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: callMethod}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(InterpreterServer).Call(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

// Interpreter_ServiceDesc is the grpc.ServiceDesc for the Interpreter service.
var Interpreter_ServiceDesc = grpc.ServiceDesc{
	ServiceName: "faceauth.interpreter.v1.Interpreter",
	HandlerType: (*InterpreterServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Call", Handler: _Interpreter_Call_Handler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "interpreter.proto",
}
