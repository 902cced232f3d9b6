package grpcserver

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/example/faceauth/internal/auth"
	"github.com/example/faceauth/internal/bridge"
	"github.com/example/faceauth/internal/faceauthpb"
	"github.com/example/faceauth/internal/usecase"
)

// Server serves the FaceAuth gRPC API through the call use case.
type Server struct {
	faceauthpb.UnimplementedFaceAuthServer

	uc     *usecase.CallUseCase
	logger *zap.Logger
}

func NewServer(uc *usecase.CallUseCase, logger *zap.Logger) *Server {
	return &Server{uc: uc, logger: logger.Named("grpc_faceauth")}
}

// New builds a grpc.Server with authentication and the FaceAuth service.
func New(uc *usecase.CallUseCase, verifier *auth.Verifier, logger *zap.Logger, opts ...grpc.ServerOption) *grpc.Server {
	opts = append(opts, grpc.ChainUnaryInterceptor(auth.UnaryServerInterceptor(verifier)))
	srv := grpc.NewServer(opts...)
	faceauthpb.RegisterFaceAuthServer(srv, NewServer(uc, logger))
	return srv
}

func (s *Server) Enroll(ctx context.Context, req *structpb.Struct) (*wrapperspb.StringValue, error) {
	args, err := stringFields(req, "user_id", "name", "image_b64")
	if err != nil {
		return nil, err
	}
	return s.invoke(ctx, "enroll", args)
}

func (s *Server) Verify(ctx context.Context, req *structpb.Struct) (*wrapperspb.StringValue, error) {
	args, err := stringFields(req, "image_b64")
	if err != nil {
		return nil, err
	}
	return s.invoke(ctx, "verify", args)
}

func (s *Server) ClearAll(ctx context.Context, _ *emptypb.Empty) (*wrapperspb.StringValue, error) {
	return s.invoke(ctx, "clearAll", nil)
}

func (s *Server) ListAll(ctx context.Context, _ *emptypb.Empty) (*wrapperspb.StringValue, error) {
	return s.invoke(ctx, "listAll", nil)
}

func (s *Server) invoke(ctx context.Context, method string, args []string) (*wrapperspb.StringValue, error) {
	caller, _ := auth.Caller(ctx)

	requestID, outcome, err := s.uc.Invoke(ctx, caller, "FaceAuth", method, args)
	if err != nil {
		s.logger.Error("dispatch failed", zap.String("method", method), zap.Error(err))
		switch {
		case errors.Is(err, bridge.ErrUnknownModule), errors.Is(err, bridge.ErrUnknownMethod):
			return nil, status.Error(codes.Unimplemented, err.Error())
		case errors.Is(err, bridge.ErrArity):
			return nil, status.Error(codes.InvalidArgument, err.Error())
		default:
			return nil, status.Error(codes.Internal, err.Error())
		}
	}

	if err := grpc.SetHeader(ctx, metadata.Pairs(faceauthpb.RequestIDHeader, requestID)); err != nil {
		s.logger.Debug("failed to set request id header", zap.Error(err))
	}
	if !outcome.Success {
		return nil, faceauthpb.RejectionStatus(outcome.Code, outcome.Message, requestID)
	}
	return wrapperspb.String(outcome.Result), nil
}

func stringFields(req *structpb.Struct, names ...string) ([]string, error) {
	fields := req.GetFields()
	values := make([]string, len(names))
	for i, name := range names {
		s, ok := fields[name].GetKind().(*structpb.Value_StringValue)
		if !ok {
			return nil, status.Errorf(codes.InvalidArgument, "%s must be a string", name)
		}
		values[i] = s.StringValue
	}
	return values, nil
}
