package bridge

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/example/faceauth/internal/interpreter"
)

// Failure codes, one per operation.
const (
	CodeEnroll = "ENROLL_ERROR"
	CodeVerify = "VERIFY_ERROR"
	CodeClear  = "CLEAR_ERROR"
	CodeList   = "LIST_ERROR"
)

// DefaultModule is the interpreter module implementing face recognition.
const DefaultModule = "face_module"

// FaceAuth forwards the four face-recognition operations to the face module.
// It holds no state of its own.
type FaceAuth struct {
	rt     interpreter.Runtime
	module string
	logger *zap.Logger
}

// NewFaceAuth starts the shared interpreter through guard if it is not
// running yet. An empty module means DefaultModule.
func NewFaceAuth(guard *interpreter.Lazy, module string, logger *zap.Logger) (*FaceAuth, error) {
	rt, err := guard.Start()
	if err != nil {
		return nil, err
	}
	if module == "" {
		module = DefaultModule
	}
	return &FaceAuth{rt: rt, module: module, logger: logger.Named("faceauth")}, nil
}

// Name is the name the module is registered under.
func (f *FaceAuth) Name() string { return "FaceAuth" }

// Enroll calls enroll(userID, name, imageB64).
func (f *FaceAuth) Enroll(ctx context.Context, userID, name, imageB64 string, p Promise) {
	f.call(ctx, p, CodeEnroll, "enroll", userID, name, imageB64)
}

// Verify calls verify(imageB64).
func (f *FaceAuth) Verify(ctx context.Context, imageB64 string, p Promise) {
	f.call(ctx, p, CodeVerify, "verify", imageB64)
}

// ClearAll calls clear_all().
func (f *FaceAuth) ClearAll(ctx context.Context, p Promise) {
	f.call(ctx, p, CodeClear, "clear_all")
}

// ListAll calls list_all().
func (f *FaceAuth) ListAll(ctx context.Context, p Promise) {
	f.call(ctx, p, CodeList, "list_all")
}

func (f *FaceAuth) call(ctx context.Context, p Promise, code, function string, args ...string) {
	start := time.Now()
	value, err := f.rt.Call(ctx, f.module, function, args...)
	latency := time.Since(start)

	if err != nil {
		f.logger.Warn("bridge call rejected",
			zap.String("function", function),
			zap.String("code", code),
			zap.Duration("latency", latency),
			zap.Error(err))
		p.Reject(code, err.Error())
		return
	}

	f.logger.Debug("bridge call resolved",
		zap.String("function", function),
		zap.Duration("latency", latency))
	p.Resolve(value.String())
}
