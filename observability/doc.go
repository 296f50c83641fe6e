// Package observability wires OpenTelemetry tracing for services built
// on this kit.
//
//	tp, err := observability.InitTracer(ctx, observability.DefaultTracerConfig("gateway"), log)
//	defer tp.Shutdown(ctx)
//
//	ctx, span := observability.StartSpan(ctx, "call.route")
//	defer span.End()
//
// Init installs a global tracer provider exporting OTLP over HTTP; the
// httpclient tracing hook and any service spans then flow through it
// without further plumbing.
package observability
