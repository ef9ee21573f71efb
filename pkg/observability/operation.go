package observability

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/mozilla/mozilla-ignite/pkg/observability/attr"
	"github.com/mozilla/mozilla-ignite/pkg/results"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Instrumentation bundles what every application service logs, traces and
// counts with.
type Instrumentation struct {
	Logger  *slog.Logger
	Metrics OperationMetrics
	Tracer  trace.Tracer
	Service string
}

// NewInstrumentation fills nil collaborators with safe defaults.
func NewInstrumentation(service string, logger *slog.Logger, metrics OperationMetrics, tracer trace.Tracer) Instrumentation {
	if logger == nil {
		logger = slog.Default()
	}
	if metrics == nil {
		metrics = NoopMetrics{}
	}
	return Instrumentation{Logger: logger, Metrics: metrics, Tracer: tracer, Service: service}
}

// OperationFunc is the generic signature for service operation functions.
type OperationFunc[S any, F any] func(ctx context.Context) (results.OperationResult[S, F], error)

// WithTelemetry wraps a service operation with tracing, metrics and panic recovery.
func WithTelemetry[S any, F any](
	in Instrumentation,
	ctx context.Context,
	operationName string,
	identifier string,
	op OperationFunc[S, F],
) (result results.OperationResult[S, F], err error) {
	var span trace.Span
	if in.Tracer != nil {
		ctx, span = in.Tracer.Start(ctx, operationName, trace.WithAttributes(
			attribute.String("operation", operationName),
			attribute.String("identifier", identifier),
		))
	} else {
		span = trace.SpanFromContext(ctx)
	}
	defer span.End()

	in.Metrics.RecordOperationAttempt(ctx, operationName, in.Service)

	startTime := time.Now()
	defer func() {
		in.Metrics.RecordOperationDuration(ctx, operationName, in.Service, time.Since(startTime))
	}()

	in.Logger.InfoContext(ctx, "Operation triggered", attr.ExtractCorrelationID(ctx), attr.String("operation", operationName))

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic in %s: %v", operationName, r)
			in.Logger.ErrorContext(ctx, "Critical panic recovered",
				attr.ExtractCorrelationID(ctx),
				attr.String("identifier", identifier),
				attr.Error(err),
			)
			in.Metrics.RecordOperationFailure(ctx, operationName, in.Service)
			span.RecordError(err)
			result = results.OperationResult[S, F]{}
		}
	}()

	result, err = op(ctx)

	if err != nil {
		wrappedErr := fmt.Errorf("%s: %w", operationName, err)
		in.Logger.ErrorContext(ctx, "Operation failed with error",
			attr.ExtractCorrelationID(ctx),
			attr.String("operation", operationName),
			attr.String("identifier", identifier),
			attr.Error(wrappedErr),
		)
		in.Metrics.RecordOperationFailure(ctx, operationName, in.Service)
		span.RecordError(wrappedErr)
		return result, wrappedErr
	}

	if result.IsFailure() {
		in.Logger.WarnContext(ctx, "Operation returned failure result",
			attr.ExtractCorrelationID(ctx),
			attr.String("operation", operationName),
			attr.String("identifier", identifier),
			attr.Any("failure_payload", *result.Failure),
		)
	}

	if result.IsSuccess() {
		in.Logger.InfoContext(ctx, "Operation completed successfully",
			attr.ExtractCorrelationID(ctx),
			attr.String("operation", operationName),
			attr.String("identifier", identifier),
		)
	}

	in.Metrics.RecordOperationSuccess(ctx, operationName, in.Service)
	return result, nil
}
