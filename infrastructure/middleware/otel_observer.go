package middleware

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/procurelane/evalengine/internal/ports"
)

var _ ports.EvaluationObserver = (*OTelObserver)(nil)

// OTelObserver implements the EvaluationObserver interface using
// OpenTelemetry tracing. It opens one span per pipeline stage, tagged with
// the stage name and the subject (submission or evaluation id), and records
// the stage outcome on the span status.
type OTelObserver struct {
	tracer trace.Tracer
}

// NewOTelObserver creates an OpenTelemetry observer using the named tracer
// from the global tracer provider.
func NewOTelObserver(tracerName string) *OTelObserver {
	return &OTelObserver{tracer: otel.Tracer(tracerName)}
}

// StageStarted implements the EvaluationObserver interface. The returned
// finish function must be called exactly once with the stage outcome.
func (o *OTelObserver) StageStarted(ctx context.Context, stage, subject string) (context.Context, func(err error)) {
	spanCtx, span := o.tracer.Start(ctx, "evalengine."+stage, trace.WithAttributes(
		attribute.String("evalengine.stage", stage),
		attribute.String("evalengine.subject", subject),
	))

	return spanCtx, func(err error) {
		defer span.End()
		if err != nil {
			span.SetStatus(codes.Error, err.Error())
			return
		}
		span.SetStatus(codes.Ok, "")
	}
}
