// Package observability wires OpenTelemetry tracing and metrics.
//
// When telemetry is disabled nothing is installed and the otel globals stay
// no-op, so StartSpan and the Metrics recorders are always safe to call.
//
//	tel := observability.NewTelemetry(cfg.Observability, cfg.Name, version.Get().Version, cfg.Environment)
//	registry.Register(tel)
//
//	ctx, span := observability.StartSpan(ctx, observability.SpanStage)
//	defer span.End()
package observability
