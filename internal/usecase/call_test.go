package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/example/faceauth/internal/bridge"
	"github.com/example/faceauth/internal/logging"
	"github.com/example/faceauth/internal/repository"
	"github.com/example/faceauth/internal/retry"
)

type stubRepository struct {
	savedLogs  []*repository.CallLog
	saveErr    error
	saveCtxErr error
	findLog    *repository.CallLog
	findErr    error
	findCalls  int
	duplicates []*repository.CallLog
	dupHash    string
	metrics    *repository.MetricsAggregation
}

func (s *stubRepository) SaveLog(ctx context.Context, log *repository.CallLog) error {
	s.savedLogs = append(s.savedLogs, log)
	s.saveCtxErr = ctx.Err()
	return s.saveErr
}

func (s *stubRepository) FindByRequestIDAndCaller(ctx context.Context, requestID, caller string) (*repository.CallLog, error) {
	s.findCalls++
	if s.findErr != nil {
		return nil, s.findErr
	}
	if s.findLog != nil {
		return s.findLog, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubRepository) FindDuplicatesByHash(ctx context.Context, caller, hash, excludeRequestID string) ([]*repository.CallLog, error) {
	s.dupHash = hash
	return s.duplicates, nil
}

func (s *stubRepository) AggregateMetrics(ctx context.Context) (*repository.MetricsAggregation, error) {
	return s.metrics, nil
}

type stubCache struct {
	setErrs   []error
	getErrs   []error
	getValues []string
	setKeys   []string
	setValues []interface{}
	getKeys   []string
	delKeys   []string
}

func (s *stubCache) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	s.setKeys = append(s.setKeys, key)
	s.setValues = append(s.setValues, value)
	if len(s.setErrs) == 0 {
		return nil
	}
	err := s.setErrs[0]
	s.setErrs = s.setErrs[1:]
	return err
}

func (s *stubCache) Get(ctx context.Context, key string) (string, error) {
	s.getKeys = append(s.getKeys, key)
	var value string
	if len(s.getValues) > 0 {
		value = s.getValues[0]
		s.getValues = s.getValues[1:]
	}
	var err error
	if len(s.getErrs) > 0 {
		err = s.getErrs[0]
		s.getErrs = s.getErrs[1:]
	}
	return value, err
}

func (s *stubCache) Delete(ctx context.Context, key string) error {
	s.delKeys = append(s.delKeys, key)
	return nil
}

type stubDispatcher struct {
	module, method string
	args           []string
	resolve        string
	reject         *bridge.Rejection
	err            error
	before         func()
}

func (s *stubDispatcher) Invoke(ctx context.Context, module, method string, args []string, p bridge.Promise) error {
	s.module, s.method, s.args = module, method, args
	if s.before != nil {
		s.before()
	}
	if s.err != nil {
		return s.err
	}
	if s.reject != nil {
		p.Reject(s.reject.Code, s.reject.Message)
		return nil
	}
	p.Resolve(s.resolve)
	return nil
}

type transientRedisError struct{}

func (transientRedisError) Error() string   { return "redis transient" }
func (transientRedisError) Timeout() bool   { return true }
func (transientRedisError) Temporary() bool { return true }

func newTestUseCase(d Dispatcher, repo CallRepository, cache Cache) *CallUseCase {
	uc := NewCallUseCase(d, repo, cache, zap.NewNop())
	uc.retry = retry.Policy{Attempts: 3, InitialBackoff: time.Millisecond, MaxBackoff: 2 * time.Millisecond}
	return uc
}

func TestInvokeResolvesAndRecords(t *testing.T) {
	cache := &stubCache{}
	repo := &stubRepository{}
	d := &stubDispatcher{resolve: `{"status": "ok", "id": "u-1"}`}
	uc := newTestUseCase(d, repo, cache)

	args := []string{"u-1", "Ada", "aW1hZ2U="}
	requestID, outcome, err := uc.Invoke(context.Background(), "caller-1", "FaceAuth", "enroll", args)
	if err != nil {
		t.Fatalf("expected success, got error: %v", err)
	}
	if requestID == "" {
		t.Fatal("expected request id")
	}
	if !outcome.Success || outcome.Result != `{"status": "ok", "id": "u-1"}` {
		t.Fatalf("unexpected outcome %+v", outcome)
	}
	if d.module != "FaceAuth" || d.method != "enroll" || len(d.args) != 3 {
		t.Fatalf("unexpected dispatch %s.%s%v", d.module, d.method, d.args)
	}

	if len(repo.savedLogs) != 1 {
		t.Fatalf("expected log to be saved, got %d entries", len(repo.savedLogs))
	}
	saved := repo.savedLogs[0]
	if saved.Caller != "caller-1" || saved.ArgCount != 3 || saved.ArgsSHA1 != ArgsDigest(args) {
		t.Fatalf("unexpected log %+v", saved)
	}
	if saved.Result != outcome.Result || !saved.Success || saved.Code != "" {
		t.Fatalf("log does not mirror outcome: %+v", saved)
	}

	if len(cache.setKeys) != 2 || cache.setKeys[0] != cache.setKeys[1] || cache.setKeys[0] != "call:"+requestID {
		t.Fatalf("unexpected cache writes %v", cache.setKeys)
	}
	var marker cachedCall
	if err := json.Unmarshal([]byte(cache.setValues[0].(string)), &marker); err != nil {
		t.Fatalf("decode processing marker: %v", err)
	}
	if !marker.Pending || marker.Caller != "caller-1" || marker.RequestID != requestID {
		t.Fatalf("unexpected processing marker %+v", marker)
	}
	serialized, _ := cache.setValues[1].(string)
	if !json.Valid([]byte(serialized)) {
		t.Fatalf("expected serialized result, got %v", cache.setValues[1])
	}
	if strings.Contains(serialized, "aW1hZ2U=") {
		t.Fatal("call arguments must not be cached")
	}
}

func TestInvokeRecordsRejection(t *testing.T) {
	repo := &stubRepository{}
	d := &stubDispatcher{reject: &bridge.Rejection{Code: bridge.CodeVerify, Message: "ValueError: no face"}}
	uc := newTestUseCase(d, repo, &stubCache{})

	_, outcome, err := uc.Invoke(context.Background(), "caller-1", "FaceAuth", "verify", []string{"aGk="})
	if err != nil {
		t.Fatalf("rejection must not be an error, got %v", err)
	}
	if outcome.Success || outcome.Code != bridge.CodeVerify || outcome.Message != "ValueError: no face" {
		t.Fatalf("unexpected outcome %+v", outcome)
	}
	if repo.savedLogs[0].Success || repo.savedLogs[0].Code != bridge.CodeVerify {
		t.Fatalf("unexpected log %+v", repo.savedLogs[0])
	}
}

func TestInvokeReturnsDispatchError(t *testing.T) {
	repo := &stubRepository{}
	d := &stubDispatcher{err: bridge.ErrUnknownMethod}
	uc := newTestUseCase(d, repo, &stubCache{})

	_, _, err := uc.Invoke(context.Background(), "caller-1", "FaceAuth", "delete", nil)
	if !errors.Is(err, bridge.ErrUnknownMethod) {
		t.Fatalf("expected ErrUnknownMethod, got %v", err)
	}
	var opErr *logging.OperationError
	if !errors.As(err, &opErr) || opErr.Operation != "usecase.dispatch" {
		t.Fatalf("expected usecase.dispatch OperationError, got %v", err)
	}
	if len(repo.savedLogs) != 0 {
		t.Fatalf("dispatch errors are not audited, got %d logs", len(repo.savedLogs))
	}
}

func TestInvokeClearsProcessingFlagOnDispatchError(t *testing.T) {
	cache := &stubCache{}
	uc := newTestUseCase(&stubDispatcher{err: bridge.ErrArity}, &stubRepository{}, cache)

	if _, _, err := uc.Invoke(context.Background(), "caller-1", "FaceAuth", "verify", nil); !errors.Is(err, bridge.ErrArity) {
		t.Fatalf("expected ErrArity, got %v", err)
	}
	if len(cache.setKeys) != 1 || len(cache.delKeys) != 1 || cache.delKeys[0] != cache.setKeys[0] {
		t.Fatalf("expected processing flag to be cleared, set=%v deleted=%v", cache.setKeys, cache.delKeys)
	}
}

func TestInvokeRecordsAfterCallerCancels(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	repo := &stubRepository{}
	d := &stubDispatcher{resolve: `{"status": "cleared"}`, before: cancel}
	uc := newTestUseCase(d, repo, &stubCache{})

	_, outcome, err := uc.Invoke(ctx, "caller-1", "FaceAuth", "clearAll", nil)
	if err != nil {
		t.Fatalf("expected settled outcome, got %v", err)
	}
	if outcome.Result != `{"status": "cleared"}` {
		t.Fatalf("unexpected result %q", outcome.Result)
	}
	if len(repo.savedLogs) != 1 {
		t.Fatalf("expected the call to be audited, got %d logs", len(repo.savedLogs))
	}
	if repo.saveCtxErr != nil {
		t.Fatalf("audit ran with a cancelled context: %v", repo.saveCtxErr)
	}
}

func TestInvokeRetriesRedisSet(t *testing.T) {
	cache := &stubCache{setErrs: []error{transientRedisError{}}}
	uc := newTestUseCase(&stubDispatcher{resolve: "[]"}, &stubRepository{}, cache)

	_, outcome, err := uc.Invoke(context.Background(), "caller-1", "FaceAuth", "listAll", nil)
	if err != nil {
		t.Fatalf("expected success, got error: %v", err)
	}
	if outcome.Result != "[]" {
		t.Fatalf("unexpected result %q", outcome.Result)
	}
	if len(cache.setKeys) != 3 {
		t.Fatalf("expected 3 cache set calls (retry + result), got %d", len(cache.setKeys))
	}
}

func TestInvokeSurvivesAuditFailures(t *testing.T) {
	cache := &stubCache{setErrs: []error{errors.New("down"), errors.New("down")}}
	repo := &stubRepository{saveErr: errors.New("db down")}
	uc := newTestUseCase(&stubDispatcher{resolve: `{"status": "ok"}`}, repo, cache)

	_, outcome, err := uc.Invoke(context.Background(), "caller-1", "FaceAuth", "clearAll", nil)
	if err != nil {
		t.Fatalf("audit failures must not fail the call, got %v", err)
	}
	if outcome.Result != `{"status": "ok"}` {
		t.Fatalf("unexpected result %q", outcome.Result)
	}
}

func TestGetResultFromCache(t *testing.T) {
	payload, _ := json.Marshal(cachedCall{RequestID: "req", Caller: "caller-1", Method: "listAll", Success: true, Result: "[]"})
	cache := &stubCache{getValues: []string{string(payload)}}
	repo := &stubRepository{}
	uc := newTestUseCase(&stubDispatcher{}, repo, cache)

	log, err := uc.GetResult(context.Background(), "caller-1", "req")
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if log.Result != "[]" || log.Method != "listAll" {
		t.Fatalf("unexpected log %+v", log)
	}
	if repo.findCalls != 0 {
		t.Fatalf("expected cache hit, repository queried %d times", repo.findCalls)
	}
}

func TestGetResultIgnoresCacheOfOtherCaller(t *testing.T) {
	payload, _ := json.Marshal(cachedCall{RequestID: "req", Caller: "someone-else", Result: "[]"})
	cache := &stubCache{getValues: []string{string(payload)}}
	repo := &stubRepository{}
	uc := newTestUseCase(&stubDispatcher{}, repo, cache)

	_, err := uc.GetResult(context.Background(), "caller-1", "req")
	if !errors.Is(err, ErrCallNotFound) {
		t.Fatalf("expected ErrCallNotFound, got %v", err)
	}
	if repo.findCalls != 1 {
		t.Fatalf("expected repository fallback, got %d calls", repo.findCalls)
	}
}

func TestGetResultFallsBackToRepositoryWhenCacheMiss(t *testing.T) {
	cache := &stubCache{getErrs: []error{redis.Nil}}
	expected := &repository.CallLog{RequestID: "req", Caller: "caller-1", Result: "from-db"}
	repo := &stubRepository{findLog: expected}
	uc := newTestUseCase(&stubDispatcher{}, repo, cache)

	log, err := uc.GetResult(context.Background(), "caller-1", "req")
	if err != nil {
		t.Fatalf("expected success, got error: %v", err)
	}
	if log != expected {
		t.Fatalf("expected %+v, got %+v", expected, log)
	}
	if len(cache.getKeys) != 1 {
		t.Fatalf("cache miss must not be retried, got %d lookups", len(cache.getKeys))
	}
}

func TestGetResultInProgress(t *testing.T) {
	marker, _ := json.Marshal(cachedCall{RequestID: "req", Caller: "caller-1", Pending: true})
	cache := &stubCache{getValues: []string{string(marker)}}
	uc := newTestUseCase(&stubDispatcher{}, &stubRepository{}, cache)

	if _, err := uc.GetResult(context.Background(), "caller-1", "req"); !errors.Is(err, ErrCallInProgress) {
		t.Fatalf("expected ErrCallInProgress, got %v", err)
	}
}

func TestGetResultHidesInProgressCallOfOtherCaller(t *testing.T) {
	marker, _ := json.Marshal(cachedCall{RequestID: "req", Caller: "someone-else", Pending: true})
	cache := &stubCache{getValues: []string{string(marker)}}
	uc := newTestUseCase(&stubDispatcher{}, &stubRepository{}, cache)

	if _, err := uc.GetResult(context.Background(), "caller-1", "req"); !errors.Is(err, ErrCallNotFound) {
		t.Fatalf("expected ErrCallNotFound, got %v", err)
	}
}

func TestGetResultWithoutAudit(t *testing.T) {
	uc := newTestUseCase(&stubDispatcher{}, nil, nil)

	if _, err := uc.GetResult(context.Background(), "caller-1", "req"); !errors.Is(err, ErrCallNotFound) {
		t.Fatalf("expected ErrCallNotFound, got %v", err)
	}
	if _, err := uc.GetMetricsSummary(context.Background()); !errors.Is(err, ErrAuditDisabled) {
		t.Fatalf("expected ErrAuditDisabled, got %v", err)
	}
}

func TestGetDuplicateReport(t *testing.T) {
	original := &repository.CallLog{RequestID: "req", Caller: "caller-1", ArgsSHA1: "abc"}
	dup := &repository.CallLog{RequestID: "older", Caller: "caller-1", ArgsSHA1: "abc"}
	repo := &stubRepository{findLog: original, duplicates: []*repository.CallLog{dup}}
	uc := newTestUseCase(&stubDispatcher{}, repo, &stubCache{})

	report, err := uc.GetDuplicateReport(context.Background(), "caller-1", "req")
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if report.Request != original || len(report.Duplicates) != 1 || repo.dupHash != "abc" {
		t.Fatalf("unexpected report %+v", report)
	}
}

func TestGetMetricsSummary(t *testing.T) {
	repo := &stubRepository{metrics: &repository.MetricsAggregation{
		TotalCount:       4,
		SuccessCount:     3,
		AverageLatencyMs: 12.5,
		ByMethod: []repository.MethodCount{
			{Module: "FaceAuth", Method: "enroll", Count: 1},
			{Module: "FaceAuth", Method: "verify", Count: 3},
		},
	}}
	uc := newTestUseCase(&stubDispatcher{}, repo, &stubCache{})

	summary, err := uc.GetMetricsSummary(context.Background())
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if summary.SuccessRate != 0.75 || summary.TotalCalls != 4 || len(summary.Methods) != 2 {
		t.Fatalf("unexpected summary %+v", summary)
	}
	if summary.Methods[1].Method != "verify" || summary.Methods[1].Calls != 3 {
		t.Fatalf("unexpected method metrics %+v", summary.Methods)
	}
}

func TestArgsDigestSeparatesArguments(t *testing.T) {
	if ArgsDigest([]string{"ab", "c"}) == ArgsDigest([]string{"a", "bc"}) {
		t.Fatal("digest must depend on argument boundaries")
	}
}
