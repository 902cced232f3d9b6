package usecase

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/example/faceauth/internal/bridge"
	"github.com/example/faceauth/internal/logging"
	"github.com/example/faceauth/internal/repository"
	"github.com/example/faceauth/internal/retry"
)

var (
	// ErrCallInProgress is returned by GetResult while a call is still running.
	ErrCallInProgress = errors.New("usecase: call in progress")
	// ErrCallNotFound is returned when no record of a call exists for the caller.
	ErrCallNotFound = errors.New("usecase: call not found")
)

// CallRepository defines the persistence operations needed by the use case.
type CallRepository interface {
	SaveLog(ctx context.Context, log *repository.CallLog) error
	FindByRequestIDAndCaller(ctx context.Context, requestID, caller string) (*repository.CallLog, error)
	FindDuplicatesByHash(ctx context.Context, caller, hash, excludeRequestID string) ([]*repository.CallLog, error)
	AggregateMetrics(ctx context.Context) (*repository.MetricsAggregation, error)
}

// Dispatcher routes a call to a bridge module. *bridge.Registry implements it.
type Dispatcher interface {
	Invoke(ctx context.Context, module, method string, args []string, p bridge.Promise) error
}

// Catalog is implemented by dispatchers that can list what they expose.
type Catalog interface {
	Describe() map[string][]string
}

// Outcome is how a bridge call settled.
type Outcome struct {
	Module  string
	Method  string
	Success bool
	// Result is the exact string the module resolved with.
	Result string
	// Code and Message are set when the call was rejected.
	Code    string
	Message string
	Latency time.Duration
}

// CallUseCase runs bridge calls and keeps their audit trail.
type CallUseCase struct {
	dispatcher Dispatcher
	repo       CallRepository
	cache      Cache
	logger     *zap.Logger
	retry      retry.Policy
	now        func() time.Time
}

type cachedCall struct {
	RequestID string    `json:"request_id"`
	Caller    string    `json:"caller"`
	Pending   bool      `json:"pending,omitempty"`
	Module    string    `json:"module"`
	Method    string    `json:"method"`
	Success   bool      `json:"success"`
	Result    string    `json:"result"`
	Code      string    `json:"code,omitempty"`
	Message   string    `json:"message,omitempty"`
	ArgCount  int       `json:"arg_count"`
	ArgsSHA1  string    `json:"args_sha1"`
	LatencyMs float64   `json:"latency_ms"`
	CreatedAt time.Time `json:"created_at"`
}

// DuplicateReport lists earlier calls with the same arguments as Request.
type DuplicateReport struct {
	Request    *repository.CallLog
	Duplicates []*repository.CallLog
}

// NewCallUseCase constructs a new use case instance. repo may be nil when
// auditing is disabled.
func NewCallUseCase(dispatcher Dispatcher, repo CallRepository, cache Cache, logger *zap.Logger) *CallUseCase {
	if repo == nil {
		repo = NopRepository{}
	}
	if cache == nil {
		cache = NopCache{}
	}
	return &CallUseCase{
		dispatcher: dispatcher,
		repo:       repo,
		cache:      cache,
		logger:     logger.Named("call_usecase"),
		retry:      retry.Default,
		now:        time.Now,
	}
}

// Modules lists the callable modules and their methods, or nil when the
// dispatcher cannot describe itself.
func (uc *CallUseCase) Modules() map[string][]string {
	catalog, ok := uc.dispatcher.(Catalog)
	if !ok {
		return nil
	}
	return catalog.Describe()
}

func cacheKey(requestID string) string {
	return fmt.Sprintf("call:%s", requestID)
}

// ArgsDigest is the sha1 of the NUL-joined arguments.
func ArgsDigest(args []string) string {
	sum := sha1.Sum([]byte(strings.Join(args, "\x00")))
	return hex.EncodeToString(sum[:])
}

// Invoke dispatches module.method(args...) and waits for it to settle.
// A rejected call is a normal Outcome; the returned error is reserved for
// dispatch failures. Audit and cache problems are logged, never returned.
func (uc *CallUseCase) Invoke(ctx context.Context, caller, module, method string, args []string) (string, *Outcome, error) {
	requestID := uuid.NewString()
	opLogger := logging.WithOperation(uc.logger, "usecase.invoke", requestID).
		With(zap.String("module", module), zap.String("method", method))

	key := cacheKey(requestID)
	marker, _ := json.Marshal(cachedCall{RequestID: requestID, Caller: caller, Module: module, Method: method, Pending: true})
	if err := retry.Do(ctx, uc.retry, uc.logger, "cache.set.processing", requestID, func() error {
		return uc.cache.Set(ctx, key, string(marker), time.Minute)
	}); err != nil {
		opLogger.Warn("failed to set processing flag", zap.Error(err))
	}

	deferred := bridge.NewDeferred()
	start := uc.now()
	if err := uc.dispatcher.Invoke(ctx, module, method, args, deferred); err != nil {
		if delErr := uc.cache.Delete(context.WithoutCancel(ctx), key); delErr != nil {
			opLogger.Warn("failed to clear processing flag", zap.Error(delErr))
		}
		return "", nil, logging.NewOperationError("usecase.dispatch", requestID, err)
	}
	value, err := deferred.Await(ctx)
	latency := uc.now().Sub(start)

	outcome := &Outcome{Module: module, Method: method, Latency: latency}
	var rejection *bridge.Rejection
	switch {
	case err == nil:
		outcome.Success = true
		outcome.Result = value
	case errors.As(err, &rejection):
		outcome.Code = rejection.Code
		outcome.Message = rejection.Message
	default:
		return "", nil, logging.NewOperationError("usecase.await", requestID, err)
	}

	record := &repository.CallLog{
		RequestID: requestID,
		Caller:    caller,
		Module:    module,
		Method:    method,
		Code:      outcome.Code,
		Success:   outcome.Success,
		Result:    outcome.Result,
		Message:   outcome.Message,
		ArgCount:  len(args),
		ArgsSHA1:  ArgsDigest(args),
		LatencyMs: float64(latency) / float64(time.Millisecond),
		CreatedAt: start.UTC(),
	}
	// The callee has already run; its record must survive a caller that went away.
	uc.record(context.WithoutCancel(ctx), opLogger, record)

	return requestID, outcome, nil
}

func (uc *CallUseCase) record(ctx context.Context, opLogger *zap.Logger, log *repository.CallLog) {
	cached := cachedCall{
		RequestID: log.RequestID,
		Caller:    log.Caller,
		Module:    log.Module,
		Method:    log.Method,
		Success:   log.Success,
		Result:    log.Result,
		Code:      log.Code,
		Message:   log.Message,
		ArgCount:  log.ArgCount,
		ArgsSHA1:  log.ArgsSHA1,
		LatencyMs: log.LatencyMs,
		CreatedAt: log.CreatedAt,
	}

	if err := uc.repo.SaveLog(ctx, log); err != nil && !errors.Is(err, ErrAuditDisabled) {
		opLogger.Error("failed to persist call log", zap.Error(err))
	}

	serialized, err := json.Marshal(cached)
	if err != nil {
		opLogger.Error("failed to serialize call result", zap.Error(err))
		return
	}
	if err := retry.Do(ctx, uc.retry, uc.logger, "cache.set.result", log.RequestID, func() error {
		return uc.cache.Set(ctx, cacheKey(log.RequestID), string(serialized), 5*time.Minute)
	}); err != nil {
		opLogger.Warn("failed to cache call result", zap.Error(err))
	}
}

// GetResult retrieves a call made by caller from the cache, or from
// persistence when the cache misses.
func (uc *CallUseCase) GetResult(ctx context.Context, caller, requestID string) (*repository.CallLog, error) {
	opLogger := logging.WithOperation(uc.logger, "usecase.get_result", requestID)

	var (
		cached string
		miss   bool
	)
	err := retry.Do(ctx, uc.retry, uc.logger, "cache.get.result", requestID, func() error {
		value, err := uc.cache.Get(ctx, cacheKey(requestID))
		if errors.Is(err, redis.Nil) {
			miss = true
			return nil
		}
		if err != nil {
			return err
		}
		cached = value
		return nil
	})
	switch {
	case err != nil:
		opLogger.Warn("failed to read cache", zap.Error(err))
	case miss:
	default:
		var payload cachedCall
		if err := json.Unmarshal([]byte(cached), &payload); err != nil {
			opLogger.Warn("failed to decode cached result", zap.Error(err))
			break
		}
		if payload.Caller != caller {
			break
		}
		if payload.Pending {
			return nil, ErrCallInProgress
		}
		return &repository.CallLog{
			RequestID: payload.RequestID,
			Caller:    payload.Caller,
			Module:    payload.Module,
			Method:    payload.Method,
			Code:      payload.Code,
			Success:   payload.Success,
			Result:    payload.Result,
			Message:   payload.Message,
			ArgCount:  payload.ArgCount,
			ArgsSHA1:  payload.ArgsSHA1,
			LatencyMs: payload.LatencyMs,
			CreatedAt: payload.CreatedAt,
		}, nil
	}

	log, err := uc.repo.FindByRequestIDAndCaller(ctx, requestID, caller)
	if err != nil {
		return nil, notFound(err)
	}
	return log, nil
}

// GetDuplicateReport finds earlier calls by caller with identical arguments.
func (uc *CallUseCase) GetDuplicateReport(ctx context.Context, caller, requestID string) (*DuplicateReport, error) {
	log, err := uc.repo.FindByRequestIDAndCaller(ctx, requestID, caller)
	if err != nil {
		return nil, notFound(err)
	}

	duplicates, err := uc.repo.FindDuplicatesByHash(ctx, caller, log.ArgsSHA1, log.RequestID)
	if err != nil {
		return nil, err
	}

	return &DuplicateReport{
		Request:    log,
		Duplicates: duplicates,
	}, nil
}

func notFound(err error) error {
	if errors.Is(err, ErrAuditDisabled) || isRecordNotFound(err) {
		return fmt.Errorf("%w: %v", ErrCallNotFound, err)
	}
	return err
}
