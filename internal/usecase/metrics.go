package usecase

import "context"

// MethodMetrics is the call count of a single module method.
type MethodMetrics struct {
	Module string `json:"module"`
	Method string `json:"method"`
	Calls  int64  `json:"calls"`
}

// MetricsSummary represents aggregated bridge call insights.
type MetricsSummary struct {
	TotalCalls       int64           `json:"total_calls"`
	ResolvedCalls    int64           `json:"resolved_calls"`
	SuccessRate      float64         `json:"success_rate"`
	AverageLatencyMs float64         `json:"average_latency_ms"`
	Methods          []MethodMetrics `json:"methods"`
}

// GetMetricsSummary aggregates call metrics from persisted logs.
func (uc *CallUseCase) GetMetricsSummary(ctx context.Context) (*MetricsSummary, error) {
	aggregation, err := uc.repo.AggregateMetrics(ctx)
	if err != nil {
		return nil, err
	}

	summary := &MetricsSummary{
		TotalCalls:       aggregation.TotalCount,
		ResolvedCalls:    aggregation.SuccessCount,
		AverageLatencyMs: aggregation.AverageLatencyMs,
		Methods:          make([]MethodMetrics, 0, len(aggregation.ByMethod)),
	}
	if aggregation.TotalCount > 0 {
		summary.SuccessRate = float64(aggregation.SuccessCount) / float64(aggregation.TotalCount)
	}
	for _, m := range aggregation.ByMethod {
		summary.Methods = append(summary.Methods, MethodMetrics{Module: m.Module, Method: m.Method, Calls: m.Count})
	}

	return summary, nil
}
