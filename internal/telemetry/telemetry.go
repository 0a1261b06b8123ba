// Package telemetry wires the process-wide OpenTelemetry providers used
// by the oracle client and the HTTP adapter, the way
// internal/compact/haiku.go calls telemetry.Meter(...) and
// telemetry.Tracer(...) in the teacher (whose own telemetry package was
// not present in the retrieval pack, so this is a fresh implementation
// against the same go.opentelemetry.io/otel/sdk dependency).
package telemetry

import (
	"context"
	"io"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

var (
	once           sync.Once
	meterProvider  metric.MeterProvider = otel.GetMeterProvider()
	tracerProvider trace.TracerProvider = otel.GetTracerProvider()
)

// Init installs stdout-exporting metric and trace providers, writing
// spans and metric snapshots to w. Init is safe to call more than once;
// only the first call takes effect, matching the teacher's
// sync.Once-guarded aiMetricsOnce.Do(initAIMetrics) idiom in
// internal/compact/haiku.go.
func Init(w io.Writer) (shutdown func(context.Context) error, err error) {
	var shutdownFns []func(context.Context) error
	var initErr error

	once.Do(func() {
		metricExporter, mErr := stdoutmetric.New(stdoutmetric.WithWriter(w))
		if mErr != nil {
			initErr = mErr
			return
		}
		mp := sdkmetric.NewMeterProvider(
			sdkmetric.WithReader(sdkmetric.NewPeriodicReader(metricExporter)),
		)
		meterProvider = mp
		otel.SetMeterProvider(mp)
		shutdownFns = append(shutdownFns, mp.Shutdown)

		traceExporter, tErr := stdouttrace.New(stdouttrace.WithWriter(w))
		if tErr != nil {
			initErr = tErr
			return
		}
		tp := sdktrace.NewTracerProvider(
			sdktrace.WithBatcher(traceExporter),
		)
		tracerProvider = tp
		otel.SetTracerProvider(tp)
		shutdownFns = append(shutdownFns, tp.Shutdown)
	})

	return func(ctx context.Context) error {
		var firstErr error
		for _, fn := range shutdownFns {
			if err := fn(ctx); err != nil && firstErr == nil {
				firstErr = err
			}
		}
		return firstErr
	}, initErr
}

// Meter returns a named meter off the process-wide provider.
func Meter(name string) metric.Meter {
	return meterProvider.Meter(name)
}

// Tracer returns a named tracer off the process-wide provider.
func Tracer(name string) trace.Tracer {
	return tracerProvider.Tracer(name)
}
