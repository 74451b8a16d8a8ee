package metrics

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Config configures the metrics provider.
type Config struct {
	Enabled          bool
	ExporterEndpoint string
	ExporterProtocol string
	ServiceName      string
	Environment      string
}

// Metrics exposes application-level instruments.
type Metrics struct {
	documentsCreated      metric.Int64Counter
	inventoriesTerminated metric.Int64Counter
	inventoryRejections   metric.Int64Counter
	lineResyncs           metric.Int64Counter
}

// NewProvider configures and registers the meter provider.
func NewProvider(lc fx.Lifecycle, cfg Config, log *zap.Logger) (metric.MeterProvider, error) {
	if !cfg.Enabled {
		provider := noop.NewMeterProvider()
		otel.SetMeterProvider(provider)
		return provider, nil
	}

	exporter, err := newExporter(cfg.ExporterProtocol, cfg.ExporterEndpoint)
	if err != nil {
		return nil, err
	}

	reader := sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(10*time.Second))
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	otel.SetMeterProvider(provider)

	if lc != nil {
		lc.Append(fx.Hook{
			OnStop: func(ctx context.Context) error {
				if log != nil {
					log.Info("shutting down meter provider")
				}
				return provider.Shutdown(ctx)
			},
		})
	}

	if log != nil {
		log.Info("metrics initialized",
			zap.String("endpoint", cfg.ExporterEndpoint),
			zap.String("protocol", cfg.ExporterProtocol),
		)
	}

	return provider, nil
}

// New configures the domain metrics instruments.
func New(cfg Config, provider metric.MeterProvider) (*Metrics, error) {
	name := strings.TrimSpace(cfg.ServiceName)
	if name == "" {
		name = "rentalops"
	}
	meter := provider.Meter(name)

	documentsCreated, err := meter.Int64Counter("rentalops_documents_created_total")
	if err != nil {
		return nil, err
	}
	inventoriesTerminated, err := meter.Int64Counter("rentalops_inventories_terminated_total")
	if err != nil {
		return nil, err
	}
	inventoryRejections, err := meter.Int64Counter("rentalops_inventory_rejections_total")
	if err != nil {
		return nil, err
	}
	lineResyncs, err := meter.Int64Counter("rentalops_booking_line_resyncs_total")
	if err != nil {
		return nil, err
	}

	return &Metrics{
		documentsCreated:      documentsCreated,
		inventoriesTerminated: inventoriesTerminated,
		inventoryRejections:   inventoryRejections,
		lineResyncs:           lineResyncs,
	}, nil
}

// RecordDocumentCreated increments billing document counts.
func (m *Metrics) RecordDocumentCreated(ctx context.Context, kind string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(attribute.String("document_kind", strings.TrimSpace(kind)))
	m.documentsCreated.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordInventoryTerminated increments finalized inventory counts.
func (m *Metrics) RecordInventoryTerminated(ctx context.Context, parkID string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(attribute.String("park_id", strings.TrimSpace(parkID)))
	m.inventoriesTerminated.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordInventoryRejected increments rejected inventory submissions.
func (m *Metrics) RecordInventoryRejected(ctx context.Context, operation, reason string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(
		attribute.String("operation", strings.TrimSpace(operation)),
		attribute.String("reason", strings.TrimSpace(reason)),
	)
	m.inventoryRejections.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordLineResync increments booking line resynchronizations.
func (m *Metrics) RecordLineResync(ctx context.Context, fields int) {
	if m == nil {
		return
	}
	m.lineResyncs.Add(ctx, int64(fields))
}

func newExporter(protocol, endpoint string) (sdkmetric.Exporter, error) {
	protocol = strings.ToLower(strings.TrimSpace(protocol))
	switch protocol {
	case "http", "http/protobuf":
		opts := []otlpmetrichttp.Option{}
		if endpoint != "" {
			opts = append(opts, otlpmetrichttp.WithEndpoint(endpoint))
		}
		return otlpmetrichttp.New(context.Background(), opts...)
	case "grpc", "grpc/protobuf", "":
		opts := []otlpmetricgrpc.Option{otlpmetricgrpc.WithInsecure()}
		if endpoint != "" {
			opts = append(opts, otlpmetricgrpc.WithEndpoint(endpoint))
		}
		return otlpmetricgrpc.New(context.Background(), opts...)
	default:
		return nil, fmt.Errorf("unsupported OTLP protocol %q", protocol)
	}
}

var allowedLabelKeys = map[attribute.Key]struct{}{
	"document_kind": {},
	"park_id":       {},
	"operation":     {},
	"endpoint":      {},
	"status_code":   {},
	"reason":        {},
}

// FilterAttributes strips disallowed labels to keep metrics low-cardinality.
func FilterAttributes(attrs ...attribute.KeyValue) []attribute.KeyValue {
	filtered := make([]attribute.KeyValue, 0, len(attrs))
	for _, attr := range attrs {
		if _, ok := allowedLabelKeys[attr.Key]; !ok {
			continue
		}
		filtered = append(filtered, attr)
	}
	return filtered
}
