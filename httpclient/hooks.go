package httpclient

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/answerline/svckit/logger"
)

// RequestInfo describes one request attempt as seen by hooks.
type RequestInfo struct {
	// RequestID is the tracing identifier shared by all attempts of a call.
	RequestID string
	// Service is the logical destination name.
	Service string
	// Method is the HTTP method.
	Method string
	// URL is the fully resolved request URL.
	URL string
	// Attempt is 1-based and increments across retries.
	Attempt int
	// Start is when the attempt began.
	Start time.Time
}

// Hook is invoked by the client around each request attempt. The context
// returned from OnRequestStart is passed to the attempt and back into
// OnRequestEnd, so hooks can attach state such as spans.
type Hook interface {
	OnRequestStart(ctx context.Context, info *RequestInfo) context.Context
	OnRequestEnd(ctx context.Context, info *RequestInfo, resp *Response, err error)
}

// LoggingHook logs every attempt individually. The client already logs
// each logical call; this hook is for debugging retry behavior, where
// per-attempt visibility matters.
type LoggingHook struct {
	log *logger.Logger
}

// NewLoggingHook creates a hook writing through the given logger.
func NewLoggingHook(log *logger.Logger) *LoggingHook {
	if log == nil {
		log = logger.Nop()
	}
	return &LoggingHook{log: log.WithComponent("httpclient.attempt")}
}

func (h *LoggingHook) OnRequestStart(ctx context.Context, info *RequestInfo) context.Context {
	h.log.Debug("attempt start", logger.Fields(
		logger.FieldMethod, info.Method,
		logger.FieldURL, info.URL,
		logger.FieldRequestID, info.RequestID,
		logger.FieldAttempt, info.Attempt,
	))
	return ctx
}

func (h *LoggingHook) OnRequestEnd(ctx context.Context, info *RequestInfo, resp *Response, err error) {
	fields := logger.Fields(
		logger.FieldMethod, info.Method,
		logger.FieldURL, info.URL,
		logger.FieldRequestID, info.RequestID,
		logger.FieldAttempt, info.Attempt,
		logger.FieldDuration, time.Since(info.Start).Milliseconds(),
	)
	if err != nil {
		fields[logger.FieldError] = err.Error()
		h.log.Debug("attempt failed", fields)
		return
	}
	fields[logger.FieldStatus] = resp.StatusCode
	h.log.Debug("attempt complete", fields)
}

// TracingHook records an OpenTelemetry span per request attempt.
type TracingHook struct {
	tracer trace.Tracer
}

// NewTracingHook creates a hook using the global tracer provider.
func NewTracingHook() *TracingHook {
	return &TracingHook{
		tracer: otel.Tracer("github.com/answerline/svckit/httpclient"),
	}
}

// OnRequestStart starts a client span for the attempt.
func (h *TracingHook) OnRequestStart(ctx context.Context, info *RequestInfo) context.Context {
	ctx, _ = h.tracer.Start(ctx, "http.request",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.method", info.Method),
			attribute.String("http.url", info.URL),
			attribute.String("peer.service", info.Service),
			attribute.String("request.id", info.RequestID),
			attribute.Int("request.attempt", info.Attempt),
		),
	)
	return ctx
}

// OnRequestEnd finishes the attempt's span with status and duration.
func (h *TracingHook) OnRequestEnd(ctx context.Context, info *RequestInfo, resp *Response, err error) {
	span := trace.SpanFromContext(ctx)
	defer span.End()

	span.SetAttributes(attribute.Int64("duration_ms", time.Since(info.Start).Milliseconds()))
	if resp != nil {
		span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
}
