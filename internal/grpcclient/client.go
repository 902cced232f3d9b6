package grpcclient

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"

	"github.com/example/faceauth/internal/interpreter"
	"github.com/example/faceauth/internal/interpreterpb"
	"github.com/example/faceauth/internal/logging"
)

// DialInterpreter returns a Runtime backed by a remote interpreterd.
func DialInterpreter(ctx context.Context, addr string, logger *zap.Logger, opts ...grpc.DialOption) (interpreter.Runtime, error) {
	dialCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	opts = append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithBlock(),
	}, opts...)

	conn, err := grpc.DialContext(dialCtx, addr, opts...)
	if err != nil {
		wrapped := logging.NewOperationError("grpcclient.dial_interpreter", "", err)
		logger.Error("failed to dial interpreter", zap.Error(wrapped), zap.String("addr", addr))
		return nil, wrapped
	}
	return NewRemoteRuntime(conn, logger), nil
}

// RemoteRuntime forwards calls to the Interpreter gRPC service.
type RemoteRuntime struct {
	conn   *grpc.ClientConn
	client interpreterpb.InterpreterClient
	logger *zap.Logger
}

// NewRemoteRuntime wraps an established connection. Close closes conn.
func NewRemoteRuntime(conn *grpc.ClientConn, logger *zap.Logger) *RemoteRuntime {
	return &RemoteRuntime{
		conn:   conn,
		client: interpreterpb.NewInterpreterClient(conn),
		logger: logger.Named("remote_interpreter"),
	}
}

func (r *RemoteRuntime) Call(ctx context.Context, module, function string, args ...string) (interpreter.Value, error) {
	req, err := interpreterpb.NewCallRequest(module, function, args)
	if err != nil {
		return interpreter.Value{}, logging.NewOperationError("grpcclient.encode_call", "", err)
	}

	resp, err := r.client.Call(ctx, req)
	if err != nil {
		if scriptErr, ok := interpreterpb.ScriptErrorFromStatus(err); ok {
			return interpreter.Value{}, scriptErr
		}
		if status.Code(err) == codes.Unavailable {
			err = errors.Join(interpreter.ErrRuntimeClosed, err)
		}
		wrapped := logging.NewOperationError("grpcclient.call", "", err)
		r.logger.Error("interpreter call failed", zap.Error(wrapped),
			zap.String("module", module), zap.String("function", function))
		return interpreter.Value{}, wrapped
	}
	return interpreter.NewValue(resp.GetValue()), nil
}

func (r *RemoteRuntime) Close() error {
	return r.conn.Close()
}
