package repository

import (
	"context"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/example/faceauth/internal/retry"
)

// MaxStoredResult bounds the callee result kept per call.
const MaxStoredResult = 2048

// CallLog is the audit record of one bridge call. Call arguments are never
// stored, only their count and digest.
type CallLog struct {
	ID        uint      `gorm:"primaryKey"`
	RequestID string    `gorm:"column:request_id;uniqueIndex;size:64"`
	Caller    string    `gorm:"column:caller;size:128;index"`
	Module    string    `gorm:"column:module;size:64"`
	Method    string    `gorm:"column:method;size:64"`
	Code      string    `gorm:"column:code;size:32"`
	Success   bool      `gorm:"column:success"`
	Result    string    `gorm:"column:result;type:text"`
	Message   string    `gorm:"column:message;type:text"`
	ArgCount  int       `gorm:"column:arg_count"`
	ArgsSHA1  string    `gorm:"column:args_sha1;size:40;index"`
	LatencyMs float64   `gorm:"column:latency_ms"`
	CreatedAt time.Time `gorm:"column:created_at"`
}

func (CallLog) TableName() string {
	return "call_logs"
}

// MethodCount is the number of calls recorded for one module method.
type MethodCount struct {
	Module string
	Method string
	Count  int64
}

// MetricsAggregation is the raw aggregate over all call logs.
type MetricsAggregation struct {
	TotalCount       int64
	SuccessCount     int64
	AverageLatencyMs float64
	ByMethod         []MethodCount
}

// CallRepository persists call logs with gorm.
type CallRepository struct {
	db             *gorm.DB
	logger         *zap.Logger
	retryAttempts  int
	initialBackoff time.Duration
	maxBackoff     time.Duration
}

func NewCallRepository(db *gorm.DB, logger *zap.Logger) *CallRepository {
	return &CallRepository{
		db:             db,
		logger:         logger.Named("call_repository"),
		retryAttempts:  retry.Default.Attempts,
		initialBackoff: retry.Default.InitialBackoff,
		maxBackoff:     retry.Default.MaxBackoff,
	}
}

// AutoMigrate ensures the schema is available.
func (r *CallRepository) AutoMigrate(ctx context.Context) error {
	return r.executeWithRetry(ctx, "repository.auto_migrate", "", func() error {
		return r.db.WithContext(ctx).AutoMigrate(&CallLog{})
	})
}

// SaveLog persists a call log. Results longer than MaxStoredResult are cut.
func (r *CallRepository) SaveLog(ctx context.Context, log *CallLog) error {
	log.Result = truncateUTF8(log.Result, MaxStoredResult)
	return r.executeWithRetry(ctx, "repository.save_log", log.RequestID, func() error {
		return r.db.WithContext(ctx).Create(log).Error
	})
}

// truncateUTF8 cuts s to at most n bytes without splitting a rune.
func truncateUTF8(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

// FindByRequestIDAndCaller retrieves the log of a call made by caller.
func (r *CallRepository) FindByRequestIDAndCaller(ctx context.Context, requestID, caller string) (*CallLog, error) {
	var log CallLog
	err := r.executeWithRetry(ctx, "repository.find_call", requestID, func() error {
		return r.db.WithContext(ctx).First(&log, "request_id = ? AND caller = ?", requestID, caller).Error
	})
	if err != nil {
		return nil, err
	}
	return &log, nil
}

// FindDuplicatesByHash lists other calls by caller with identical arguments,
// newest first.
func (r *CallRepository) FindDuplicatesByHash(ctx context.Context, caller, hash, excludeRequestID string) ([]*CallLog, error) {
	var logs []*CallLog
	err := r.executeWithRetry(ctx, "repository.find_duplicates", excludeRequestID, func() error {
		return r.db.WithContext(ctx).
			Where("caller = ? AND args_sha1 = ? AND request_id <> ?", caller, hash, excludeRequestID).
			Order("created_at DESC").
			Find(&logs).Error
	})
	if err != nil {
		return nil, err
	}
	return logs, nil
}

// AggregateMetrics summarises all recorded calls.
func (r *CallRepository) AggregateMetrics(ctx context.Context) (*MetricsAggregation, error) {
	var totals struct {
		TotalCount       int64
		SuccessCount     int64
		AverageLatencyMs float64
	}
	var byMethod []MethodCount

	err := r.executeWithRetry(ctx, "repository.aggregate_metrics", "", func() error {
		db := r.db.WithContext(ctx).Model(&CallLog{})
		if err := db.Select(
			"COUNT(*) AS total_count, " +
				"COALESCE(SUM(CASE WHEN success THEN 1 ELSE 0 END), 0) AS success_count, " +
				"COALESCE(AVG(latency_ms), 0) AS average_latency_ms",
		).Scan(&totals).Error; err != nil {
			return err
		}
		byMethod = byMethod[:0]
		return r.db.WithContext(ctx).Model(&CallLog{}).
			Select("module, method, COUNT(*) AS count").
			Group("module, method").
			Order("module, method").
			Scan(&byMethod).Error
	})
	if err != nil {
		return nil, err
	}

	return &MetricsAggregation{
		TotalCount:       totals.TotalCount,
		SuccessCount:     totals.SuccessCount,
		AverageLatencyMs: totals.AverageLatencyMs,
		ByMethod:         byMethod,
	}, nil
}

func (r *CallRepository) executeWithRetry(ctx context.Context, operation, requestID string, fn func() error) error {
	policy := retry.Policy{
		Attempts:       r.retryAttempts,
		InitialBackoff: r.initialBackoff,
		MaxBackoff:     r.maxBackoff,
	}
	return retry.Do(ctx, policy, r.logger, operation, requestID, fn)
}
