package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/smallbiznis/tenancy/internal/observability/logger"
	"github.com/smallbiznis/tenancy/internal/observability/metrics"
	"github.com/smallbiznis/tenancy/internal/observability/tracing"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/fx"
)

// Module provides the logger, the tracer and meter providers, the domain
// instruments and the HTTP collectors. The tracer provider is forced so
// otelgorm and the gin middleware always find a global provider.
var Module = fx.Module("observability",
	fx.Provide(
		LoadConfig,
		Config.Logger,
		Config.Tracing,
		Config.Metrics,
		logger.New,
		tracing.NewProvider,
		metrics.NewProvider,
		metrics.New,
		metrics.NewHTTPMetrics,
		func() prometheus.Registerer { return prometheus.DefaultRegisterer },
	),
	fx.Invoke(func(*sdktrace.TracerProvider) {}),
)
