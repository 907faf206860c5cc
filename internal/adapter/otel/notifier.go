package otel

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/neomorfeo/kidvo/internal/domain"
)

// TracingNotifier wraps a domain.Notifier with a span and a dispatch
// counter per template.
type TracingNotifier struct {
	next       domain.Notifier
	tracer     trace.Tracer
	dispatched metric.Int64Counter
}

var _ domain.Notifier = (*TracingNotifier)(nil)

// NewTracingNotifier creates a tracing decorator around the given notifier.
func NewTracingNotifier(next domain.Notifier) (*TracingNotifier, error) {
	counter, err := otel.Meter(tracerName).Int64Counter("kidvo.notifications.dispatched",
		metric.WithDescription("Notifications handed off for delivery"),
	)
	if err != nil {
		return nil, err
	}
	return &TracingNotifier{
		next:       next,
		tracer:     otel.Tracer(tracerName),
		dispatched: counter,
	}, nil
}

func (n *TracingNotifier) Dispatch(ctx context.Context, msg domain.Notification) {
	attrs := []attribute.KeyValue{attribute.String("notification.template", string(msg.Template))}
	ctx, span := n.tracer.Start(ctx, "Notifier.Dispatch", trace.WithAttributes(attrs...))
	defer span.End()

	n.next.Dispatch(ctx, msg)
	n.dispatched.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// TracingTransport wraps a domain.MailTransport with OpenTelemetry tracing.
type TracingTransport struct {
	next   domain.MailTransport
	tracer trace.Tracer
}

var _ domain.MailTransport = (*TracingTransport)(nil)

func NewTracingTransport(next domain.MailTransport) *TracingTransport {
	return &TracingTransport{next: next, tracer: otel.Tracer(tracerName)}
}

func (t *TracingTransport) Send(ctx context.Context, msg domain.Notification) error {
	ctx, span := t.tracer.Start(ctx, "MailTransport.Send",
		trace.WithAttributes(attribute.String("notification.template", string(msg.Template))),
	)
	defer span.End()

	err := t.next.Send(ctx, msg)
	fail(span, err)
	return err
}
