package observability

import (
	"log/slog"

	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// Observability is what the app hands to every module.
type Observability struct {
	Logger  *slog.Logger
	Metrics *Metrics
	Tracer  trace.Tracer
}

// NewObservability builds the shared bundle. A nil tracer becomes a noop tracer.
func NewObservability(logger *slog.Logger, metrics *Metrics, tracer trace.Tracer) Observability {
	if logger == nil {
		logger = slog.Default()
	}
	if tracer == nil {
		tracer = noop.NewTracerProvider().Tracer("mozilla-ignite")
	}
	return Observability{Logger: logger, Metrics: metrics, Tracer: tracer}
}

// OperationMetrics returns the metrics as the service-facing interface, or
// noop metrics when none were configured.
func (o Observability) OperationMetrics() OperationMetrics {
	if o.Metrics == nil {
		return NoopMetrics{}
	}
	return o.Metrics
}
