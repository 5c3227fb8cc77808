// Package observability provides OpenTelemetry tracing and metrics integration
// for pipeline and serving-endpoint observability.
//
// Tracing:
//
//	tp, err := observability.InitTracer(ctx, &cfg)
//	defer tp.Shutdown(ctx)
//
//	ctx, span := observability.StartSpan(ctx, observability.SpanPipelineProcess)
//	defer span.End()
//
// Metrics:
//
//	mp, err := observability.InitMeter(ctx, &mcfg)
//	defer mp.Shutdown(ctx)
//
//	metrics, err := observability.NewMetrics(observability.Meter("eliza"))
//	metrics.RecordPack(ctx, "eliza", "ok")
//
// Health Checks:
//
//	health := observability.NewServiceHealth("eliza", "1.0.0")
//	health.AddComponent(checker.CheckHealth(ctx))
package observability
