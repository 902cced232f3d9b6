package grpcclient

import (
	"context"
	"errors"
	"net"
	"testing"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/test/bufconn"

	"github.com/example/faceauth/internal/interpreter"
	"github.com/example/faceauth/internal/interpreterpb"
)

type recordingRuntime struct {
	module   string
	function string
	args     []string
	err      error
	closed   bool
}

func (r *recordingRuntime) Call(ctx context.Context, module, function string, args ...string) (interpreter.Value, error) {
	r.module, r.function, r.args = module, function, args
	if r.err != nil {
		return interpreter.Value{}, r.err
	}
	return interpreter.NewValue(`{"status": "ok", "id": "u-1"}`), nil
}

func (r *recordingRuntime) Close() error {
	r.closed = true
	return nil
}

func dialBufconn(t *testing.T, rt interpreter.Runtime) interpreter.Runtime {
	t.Helper()

	lis := bufconn.Listen(1024 * 1024)
	srv := grpc.NewServer()
	interpreterpb.RegisterInterpreterServer(srv, &interpreterpb.Server{Runtime: rt, Logger: zap.NewNop()})
	go func() {
		_ = srv.Serve(lis)
	}()
	t.Cleanup(srv.Stop)

	dialer := func(ctx context.Context, s string) (net.Conn, error) { return lis.Dial() }
	remote, err := DialInterpreter(context.Background(), "bufnet", zap.NewNop(), grpc.WithContextDialer(dialer))
	if err != nil {
		t.Fatalf("DialInterpreter: %v", err)
	}
	t.Cleanup(func() { _ = remote.Close() })
	return remote
}

func TestRemoteRuntimeRoundTrip(t *testing.T) {
	backend := &recordingRuntime{}
	remote := dialBufconn(t, backend)

	value, err := remote.Call(context.Background(), "face_module", "enroll", "u-1", "Ada", "aGk=")
	if err != nil {
		t.Fatalf("Call: %v", err)
	}
	if value.String() != `{"status": "ok", "id": "u-1"}` {
		t.Fatalf("unexpected value %q", value.String())
	}
	if backend.module != "face_module" || backend.function != "enroll" {
		t.Fatalf("unexpected target %s.%s", backend.module, backend.function)
	}
	want := []string{"u-1", "Ada", "aGk="}
	if len(backend.args) != len(want) {
		t.Fatalf("expected args %v, got %v", want, backend.args)
	}
	for i := range want {
		if backend.args[i] != want[i] {
			t.Fatalf("expected args %v, got %v", want, backend.args)
		}
	}
}

func TestRemoteRuntimeNoArguments(t *testing.T) {
	backend := &recordingRuntime{}
	remote := dialBufconn(t, backend)

	if _, err := remote.Call(context.Background(), "face_module", "list_all"); err != nil {
		t.Fatalf("Call: %v", err)
	}
	if len(backend.args) != 0 {
		t.Fatalf("expected no args, got %v", backend.args)
	}
}

func TestRemoteRuntimePropagatesScriptError(t *testing.T) {
	backend := &recordingRuntime{err: &interpreter.ScriptError{Type: "ValueError", Message: "no face found"}}
	remote := dialBufconn(t, backend)

	_, err := remote.Call(context.Background(), "face_module", "verify", "aGk=")
	var scriptErr *interpreter.ScriptError
	if !errors.As(err, &scriptErr) {
		t.Fatalf("expected ScriptError, got %T (%v)", err, err)
	}
	if scriptErr.Type != "ValueError" || scriptErr.Message != "no face found" {
		t.Fatalf("unexpected script error %+v", scriptErr)
	}
}

func TestRemoteRuntimeMapsClosedRuntime(t *testing.T) {
	backend := &recordingRuntime{err: interpreter.ErrRuntimeClosed}
	remote := dialBufconn(t, backend)

	_, err := remote.Call(context.Background(), "face_module", "list_all")
	if !errors.Is(err, interpreter.ErrRuntimeClosed) {
		t.Fatalf("expected ErrRuntimeClosed, got %v", err)
	}
}
