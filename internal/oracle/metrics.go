package oracle

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/Hidde-Heijnen/know-your-rights/internal/types"
)

// MetricsRecorder receives oracle-call outcomes. It is grounded on the
// teacher's lazily-initialized OTel instruments in
// internal/compact/haiku.go (aiMetrics: input/output tokens, request
// duration), generalised to also count oracle response entries that
// reconciliation could not consume, since that is this engine's
// equivalent failure signal.
type MetricsRecorder interface {
	RecordOracleFailure(ctx context.Context, kind types.OracleFailureKind)
	RecordReconciliationMismatch(ctx context.Context, unconsumedCount int)
	RecordChunkLatency(ctx context.Context, depth int, ms float64)
}

type noopMetrics struct{}

func (noopMetrics) RecordOracleFailure(context.Context, types.OracleFailureKind) {}
func (noopMetrics) RecordReconciliationMismatch(context.Context, int)            {}
func (noopMetrics) RecordChunkLatency(context.Context, int, float64)             {}

// OTelMetrics implements MetricsRecorder against an OpenTelemetry meter,
// mirroring aiMetrics in internal/compact/haiku.go.
type OTelMetrics struct {
	failures     metric.Int64Counter
	mismatches   metric.Int64Counter
	chunkLatency metric.Float64Histogram
}

// NewOTelMetrics creates the oracle-call instruments on the given meter.
func NewOTelMetrics(meter metric.Meter) *OTelMetrics {
	m := &OTelMetrics{}
	m.failures, _ = meter.Int64Counter("ghte.oracle.failures",
		metric.WithDescription("Oracle calls that degraded to fallback decisions"),
		metric.WithUnit("{call}"),
	)
	m.mismatches, _ = meter.Int64Counter("ghte.oracle.reconciliation_mismatches",
		metric.WithDescription("Oracle response entries that could not be consumed by any requested id"),
		metric.WithUnit("{entry}"),
	)
	m.chunkLatency, _ = meter.Float64Histogram("ghte.oracle.chunk.duration",
		metric.WithDescription("Oracle chunk call duration"),
		metric.WithUnit("ms"),
	)
	return m
}

func (m *OTelMetrics) RecordOracleFailure(ctx context.Context, kind types.OracleFailureKind) {
	if m.failures == nil {
		return
	}
	m.failures.Add(ctx, 1, metric.WithAttributes(attribute.String("kind", string(kind))))
}

func (m *OTelMetrics) RecordReconciliationMismatch(ctx context.Context, unconsumedCount int) {
	if m.mismatches == nil || unconsumedCount == 0 {
		return
	}
	m.mismatches.Add(ctx, int64(unconsumedCount))
}

func (m *OTelMetrics) RecordChunkLatency(ctx context.Context, depth int, ms float64) {
	if m.chunkLatency == nil {
		return
	}
	m.chunkLatency.Record(ctx, ms, metric.WithAttributes(attribute.Int("depth", depth)))
}
