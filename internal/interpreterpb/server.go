package interpreterpb

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/example/faceauth/internal/interpreter"
)

// Server exposes a Runtime over gRPC.
type Server struct {
	UnimplementedInterpreterServer

	Runtime interpreter.Runtime
	Logger  *zap.Logger
}

func (s *Server) Call(ctx context.Context, req *structpb.Struct) (*wrapperspb.StringValue, error) {
	module, function, args, err := ParseCallRequest(req)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	value, err := s.Runtime.Call(ctx, module, function, args...)
	if err != nil {
		s.Logger.Debug("interpreter call failed",
			zap.String("module", module),
			zap.String("function", function),
			zap.Error(err))
		return nil, toStatus(err)
	}
	return wrapperspb.String(value.String()), nil
}

func toStatus(err error) error {
	var scriptErr *interpreter.ScriptError
	switch {
	case errors.As(err, &scriptErr):
		st := status.New(codes.Aborted, scriptErr.Message)
		withDetails, detailErr := st.WithDetails(&errdetails.ErrorInfo{
			Reason: scriptErr.Type,
			Domain: ErrorDomain,
		})
		if detailErr != nil {
			return st.Err()
		}
		return withDetails.Err()
	case errors.Is(err, interpreter.ErrRuntimeClosed):
		return status.Error(codes.Unavailable, err.Error())
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	default:
		return status.Error(codes.Internal, err.Error())
	}
}

// ScriptErrorFromStatus recovers the exception carried by an Aborted status.
func ScriptErrorFromStatus(err error) (*interpreter.ScriptError, bool) {
	st, ok := status.FromError(err)
	if !ok || st.Code() != codes.Aborted {
		return nil, false
	}
	scriptErr := &interpreter.ScriptError{Message: st.Message()}
	for _, detail := range st.Details() {
		if info, ok := detail.(*errdetails.ErrorInfo); ok && info.GetDomain() == ErrorDomain {
			scriptErr.Type = info.GetReason()
		}
	}
	return scriptErr, true
}
