package cmd

import (
	"context"
	"os"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"

	sim "github.com/bioos/bioos-sim/sim"
)

const tracerName = "github.com/bioos/bioos-sim"

// initTelemetry installs a stdout span exporter writing to path. An empty
// path leaves the global no-op tracer in place. The returned func flushes
// and closes the exporter.
func initTelemetry(path string) (func(), error) {
	if path == "" {
		return func() {}, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	exporter, err := stdouttrace.New(stdouttrace.WithWriter(f))
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	provider := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	otel.SetTracerProvider(provider)
	return func() {
		if err := provider.Shutdown(context.Background()); err != nil {
			logrus.Warnf("flushing spans: %v", err)
		}
		_ = f.Close()
	}, nil
}

// startSpan opens a span describing the kernel configuration of a run.
func startSpan(ctx context.Context, name string, cfg sim.KernelConfig, seed int64) (context.Context, trace.Span) {
	if ctx == nil {
		ctx = context.Background()
	}
	policy := cfg.Policy
	if policy == "" {
		policy = "priority"
	}
	return otel.Tracer(tracerName).Start(ctx, name, trace.WithAttributes(
		attribute.String("bioos.policy", policy),
		attribute.Int64("bioos.quantum", cfg.Quantum),
		attribute.Int64("bioos.seed", seed),
		attribute.Int64("bioos.max_ticks", maxTicks),
	))
}

// recordOutcome annotates span with the final state of a run.
func recordOutcome(span trace.Span, snap sim.Snapshot, timedOut bool) {
	span.SetAttributes(
		attribute.Int64("bioos.ticks", snap.Tick),
		attribute.Int("bioos.processes", len(snap.Processes)),
		attribute.Int("bioos.live", snap.LiveCount()),
		attribute.Bool("bioos.timed_out", timedOut),
	)
	for _, r := range snap.Resources {
		span.SetAttributes(attribute.Float64("bioos.utilization."+string(r.Kind), r.Utilization))
	}
}
