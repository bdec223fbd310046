// Package obstelemetry wraps a Stage with opentelemetry tracing and
// metrics, the way the teacher's vertex.go wraps a handler with
// span()/metrics()/recover() layers. The check pipeline itself is
// single-threaded and CPU-bound (spec §5); this layer carries the
// ambient observability stack regardless, recording one span and one
// set of counters per item per stage.
package obstelemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

var (
	meter  = otel.GetMeterProvider().Meter("pkgqa")
	tracer = otel.GetTracerProvider().Tracer("pkgqa")
)

// Hooks instruments a single named stage (a sink or a transform) of
// the pipeline.
type Hooks struct {
	id       string
	kind     string
	incoming metric.Int64Counter
	outgoing metric.Int64Counter
	errors   metric.Int64Counter
	duration metric.Int64Histogram
}

// New builds Hooks for a stage identified by id/kind (e.g. a check's
// fully qualified name and "sink", or a transform's name and
// "transform"). Instrument creation errors are ignored: telemetry must
// never be the reason a check run fails.
func New(id, kind string) *Hooks {
	h := &Hooks{id: id, kind: kind}
	h.incoming, _ = meter.Int64Counter("pkgqa.items.incoming")
	h.outgoing, _ = meter.Int64Counter("pkgqa.items.outgoing")
	h.errors, _ = meter.Int64Counter("pkgqa.items.errors")
	h.duration, _ = meter.Int64Histogram("pkgqa.items.duration_ms")
	return h
}

func (h *Hooks) attrs() []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String("stage_id", h.id),
		attribute.String("stage_kind", h.kind),
	}
}

// Observe runs fn, wrapped in a span named by the stage id and
// recording incoming/outgoing/error counters and duration. A non-nil
// error from fn is counted as an error and returned unchanged.
func (h *Hooks) Observe(ctx context.Context, fn func(context.Context) error) error {
	start := time.Now()
	ctx, span := tracer.Start(ctx, h.id, trace.WithAttributes(h.attrs()...))
	defer span.End()

	h.incoming.Add(ctx, 1, metric.WithAttributes(h.attrs()...))

	err := fn(ctx)

	elapsed := time.Since(start)
	h.duration.Record(ctx, elapsed.Milliseconds(), metric.WithAttributes(h.attrs()...))

	if err != nil {
		h.errors.Add(ctx, 1, metric.WithAttributes(h.attrs()...))
		span.RecordError(err)
	} else {
		h.outgoing.Add(ctx, 1, metric.WithAttributes(h.attrs()...))
	}

	return err
}
