package usecase

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/example/faceauth/internal/repository"
)

// ErrAuditDisabled is returned by NopRepository lookups.
var ErrAuditDisabled = errors.New("usecase: call audit disabled")

// NopRepository stands in when no database is configured.
type NopRepository struct{}

func (NopRepository) SaveLog(context.Context, *repository.CallLog) error { return ErrAuditDisabled }

func (NopRepository) FindByRequestIDAndCaller(context.Context, string, string) (*repository.CallLog, error) {
	return nil, ErrAuditDisabled
}

func (NopRepository) FindDuplicatesByHash(context.Context, string, string, string) ([]*repository.CallLog, error) {
	return nil, ErrAuditDisabled
}

func (NopRepository) AggregateMetrics(context.Context) (*repository.MetricsAggregation, error) {
	return nil, ErrAuditDisabled
}

func isRecordNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
