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
	catalogSyncs        metric.Int64Counter
	catalogSearches     metric.Int64Counter
	discountLookups     metric.Int64Counter
	discountClamps      metric.Int64Counter
	pricingCalcs        metric.Int64Counter
	pricingDegraded     metric.Int64Counter
	quotationsAssembled metric.Int64Counter
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
		name = "partdesk"
	}
	meter := provider.Meter(name)

	catalogSyncs, err := meter.Int64Counter("partdesk_catalog_syncs_total")
	if err != nil {
		return nil, err
	}
	catalogSearches, err := meter.Int64Counter("partdesk_catalog_searches_total")
	if err != nil {
		return nil, err
	}
	discountLookups, err := meter.Int64Counter("partdesk_discount_lookups_total")
	if err != nil {
		return nil, err
	}
	discountClamps, err := meter.Int64Counter("partdesk_discount_clamps_total")
	if err != nil {
		return nil, err
	}
	pricingCalcs, err := meter.Int64Counter("partdesk_pricing_calculations_total")
	if err != nil {
		return nil, err
	}
	pricingDegraded, err := meter.Int64Counter("partdesk_pricing_degraded_total")
	if err != nil {
		return nil, err
	}
	quotationsAssembled, err := meter.Int64Counter("partdesk_quotations_assembled_total")
	if err != nil {
		return nil, err
	}

	return &Metrics{
		catalogSyncs:        catalogSyncs,
		catalogSearches:     catalogSearches,
		discountLookups:     discountLookups,
		discountClamps:      discountClamps,
		pricingCalcs:        pricingCalcs,
		pricingDegraded:     pricingDegraded,
		quotationsAssembled: quotationsAssembled,
	}, nil
}

// RecordCatalogSync increments catalog sync counts by trigger and outcome.
func (m *Metrics) RecordCatalogSync(ctx context.Context, trigger, status string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(
		attribute.String("trigger", strings.TrimSpace(trigger)),
		attribute.String("status", strings.TrimSpace(status)),
	)
	m.catalogSyncs.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordCatalogSearch increments search counts by resolution tier.
func (m *Metrics) RecordCatalogSearch(ctx context.Context, tier string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(attribute.String("tier", strings.TrimSpace(tier)))
	m.catalogSearches.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordDiscountLookup increments discount resolution counts.
func (m *Metrics) RecordDiscountLookup(ctx context.Context, discountType string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(attribute.String("discount_type", strings.TrimSpace(discountType)))
	m.discountLookups.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordDiscountClamp counts discounts reduced to the configured ceiling.
func (m *Metrics) RecordDiscountClamp(ctx context.Context) {
	if m == nil {
		return
	}
	m.discountClamps.Add(ctx, 1)
}

// RecordPricingCalculation increments order pricing counts.
func (m *Metrics) RecordPricingCalculation(ctx context.Context, status string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(attribute.String("status", strings.TrimSpace(status)))
	m.pricingCalcs.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordPricingDegraded counts orders priced without discount data.
func (m *Metrics) RecordPricingDegraded(ctx context.Context, reason string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(attribute.String("reason", strings.TrimSpace(reason)))
	m.pricingDegraded.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordQuotationAssembled increments assembled quotation counts.
func (m *Metrics) RecordQuotationAssembled(ctx context.Context, status string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(attribute.String("status", strings.TrimSpace(status)))
	m.quotationsAssembled.Add(ctx, 1, metric.WithAttributes(attrs...))
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
	"trigger":       {},
	"status":        {},
	"tier":          {},
	"discount_type": {},
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
