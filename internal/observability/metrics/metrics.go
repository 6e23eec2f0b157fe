// Package metrics exposes the authorization counters through OpenTelemetry
// and the HTTP request collectors through Prometheus.
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

const exportInterval = 10 * time.Second

type Config struct {
	Enabled          bool
	ExporterEndpoint string
	ExporterProtocol string
	ServiceName      string
	Environment      string
}

type counter int

const (
	authzDecisions counter = iota
	tenantSwitches
	uniquenessRejections
	integrityRefusals
	numCounters
)

var counterDefs = [numCounters]struct {
	name string
	desc string
}{
	authzDecisions:       {"tenancy_authz_decisions_total", "Permission checks by outcome and decision source."},
	tenantSwitches:       {"tenancy_tenant_switches_total", "Active-tenant changes by result."},
	uniquenessRejections: {"tenancy_uniqueness_rejections_total", "Writes refused for a composite-key collision."},
	integrityRefusals:    {"tenancy_referential_refusals_total", "Deletes refused while references remain."},
}

// Metrics holds the domain counters. A nil *Metrics records nothing.
type Metrics struct {
	counters [numCounters]metric.Int64Counter
}

// NewProvider installs the global meter provider. Disabled metrics get a noop
// provider so instruments can always be created.
func NewProvider(lc fx.Lifecycle, cfg Config, log *zap.Logger) (metric.MeterProvider, error) {
	if !cfg.Enabled {
		provider := noop.NewMeterProvider()
		otel.SetMeterProvider(provider)
		return provider, nil
	}

	exporter, err := dialExporter(cfg)
	if err != nil {
		return nil, err
	}
	provider := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(exportInterval))),
	)
	otel.SetMeterProvider(provider)

	if lc != nil {
		lc.Append(fx.StopHook(provider.Shutdown))
	}
	log.Info("metrics export enabled",
		zap.String("endpoint", cfg.ExporterEndpoint),
		zap.String("protocol", cfg.ExporterProtocol),
	)
	return provider, nil
}

func New(cfg Config, provider metric.MeterProvider) (*Metrics, error) {
	scope := strings.TrimSpace(cfg.ServiceName)
	if scope == "" {
		scope = "tenancy"
	}
	meter := provider.Meter(scope)

	m := &Metrics{}
	for i, def := range counterDefs {
		c, err := meter.Int64Counter(def.name, metric.WithDescription(def.desc))
		if err != nil {
			return nil, fmt.Errorf("create %s: %w", def.name, err)
		}
		m.counters[i] = c
	}
	return m, nil
}

func (m *Metrics) add(ctx context.Context, c counter, attrs ...attribute.KeyValue) {
	if m == nil {
		return
	}
	m.counters[c].Add(ctx, 1, metric.WithAttributes(FilterAttributes(attrs...)...))
}

// RecordAuthzDecision counts a permission check. source is "cache" or "store".
func (m *Metrics) RecordAuthzDecision(ctx context.Context, outcome, source string) {
	m.add(ctx, authzDecisions, attribute.String("outcome", outcome), attribute.String("source", source))
}

func (m *Metrics) RecordTenantSwitch(ctx context.Context, result string) {
	m.add(ctx, tenantSwitches, attribute.String("result", result))
}

func (m *Metrics) RecordUniquenessRejection(ctx context.Context, entity string) {
	m.add(ctx, uniquenessRejections, attribute.String("entity", entity))
}

func (m *Metrics) RecordIntegrityRefusal(ctx context.Context, entity string) {
	m.add(ctx, integrityRefusals, attribute.String("entity", entity))
}

func dialExporter(cfg Config) (sdkmetric.Exporter, error) {
	ctx := context.Background()
	switch strings.ToLower(strings.TrimSpace(cfg.ExporterProtocol)) {
	case "", "grpc", "grpc/protobuf":
		opts := []otlpmetricgrpc.Option{otlpmetricgrpc.WithInsecure()}
		if cfg.ExporterEndpoint != "" {
			opts = append(opts, otlpmetricgrpc.WithEndpoint(cfg.ExporterEndpoint))
		}
		return otlpmetricgrpc.New(ctx, opts...)
	case "http", "http/protobuf":
		opts := []otlpmetrichttp.Option{otlpmetrichttp.WithInsecure()}
		if cfg.ExporterEndpoint != "" {
			opts = append(opts, otlpmetrichttp.WithEndpoint(cfg.ExporterEndpoint))
		}
		return otlpmetrichttp.New(ctx, opts...)
	default:
		return nil, fmt.Errorf("unsupported OTLP protocol %q", cfg.ExporterProtocol)
	}
}

var labelAllowList = map[attribute.Key]bool{
	"outcome": true,
	"source":  true,
	"result":  true,
	"entity":  true,
}

// FilterAttributes keeps only allow-listed labels so user and tenant ids never
// become metric dimensions.
func FilterAttributes(attrs ...attribute.KeyValue) []attribute.KeyValue {
	kept := attrs[:0:0]
	for _, attr := range attrs {
		if labelAllowList[attr.Key] {
			kept = append(kept, attr)
		}
	}
	return kept
}
