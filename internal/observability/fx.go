package observability

import (
	"github.com/smallbiznis/rentalops/internal/observability/logger"
	"github.com/smallbiznis/rentalops/internal/observability/metrics"
	"github.com/smallbiznis/rentalops/internal/observability/tracing"
	"go.opentelemetry.io/otel/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Module provides the logger, the SQL logger config, the OTel providers and the
// domain counters used by booking, billing and inventory.
var Module = fx.Module("observability",
	fx.Provide(
		LoadConfig,
		Config.LoggerConfig,
		Config.SQLLoggerConfig,
		Config.TracingConfig,
		Config.MetricsConfig,
		logger.New,
		tracing.NewProvider,
		metrics.NewProvider,
		metrics.New,
		metrics.NewHTTPMetrics,
	),
	fx.Invoke(announce),
)

// announce forces both providers to be built before the first request and
// records the effective settings once.
func announce(cfg Config, _ *sdktrace.TracerProvider, _ metric.MeterProvider, log *zap.Logger) {
	log.Info("observability ready",
		zap.String("service", cfg.ServiceName),
		zap.String("environment", cfg.Environment),
		zap.String("sql_log_level", cfg.SQLLogLevel),
		zap.Duration("sql_slow_threshold", cfg.SQLSlowThreshold),
		zap.Bool("otel_enabled", cfg.OtelEnabled),
	)
}
