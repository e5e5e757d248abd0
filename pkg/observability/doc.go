// Package observability provides logging, Prometheus metrics and
// OpenTelemetry tracing for plugin loaders.
//
// # Logging
//
//	log, err := observability.NewLogger("debug", os.Stderr)
//	l, err := loader.New[Greeter](loader.WithBase("myapp.plugins"), loader.WithLogger(log))
//
// # Prometheus Metrics
//
//	registry := prometheus.NewRegistry()
//	metrics := observability.NewLoaderMetrics(registry)
//	l, err := loader.New[Greeter](loader.WithBase("myapp.plugins"), loader.WithMetrics(metrics))
//
// Exposed series:
//
//	plugload_lookups_total{loader,result}
//	plugload_load_duration_seconds{loader}
//	plugload_units_skipped_total{loader,reason}
//
// # OpenTelemetry
//
// Loaders open one span per uncached resolution using Tracer. Without an SDK
// the global provider is a no-op.
//
//	tp := sdktrace.NewTracerProvider(sdktrace.WithBatcher(exporter))
//	l, err := loader.New[Greeter](loader.WithBase("myapp.plugins"), loader.WithTracer(observability.Tracer(tp)))
//
// # Health and Shutdown
//
// Long-running processes expose readiness through named checks and stop
// their HTTP server when the context ends:
//
//	checker := observability.NewHealthChecker(version)
//	checker.Register("plugins", true, func(ctx context.Context) error { return preloadErr })
//	mux := http.NewServeMux()
//	observability.RegisterHealthRoutes(mux, checker)
//	observability.RegisterMetricsEndpoint(mux, registry)
//
//	sm := observability.NewShutdownManager(log, server, 10*time.Second)
//	err := sm.WaitForShutdown(ctx)
//
// # Related Packages
//
//   - pkg/loader: the consumer of everything here
//   - pkg/config: log level configuration
package observability
