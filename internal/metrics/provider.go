package metrics

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
)

// ProviderConfig selects where instruments are exported.
type ProviderConfig struct {
	Exporter string // none | otlp
	Endpoint string // host:port of an OTLP/gRPC collector
	Insecure bool
	Interval time.Duration
}

// NewProvider builds an SDK meter provider. With Exporter "none" the
// instruments aggregate in-process and nothing leaves the service.
func NewProvider(ctx context.Context, cfg ProviderConfig, serviceName string) (*sdkmetric.MeterProvider, error) {
	opts := []sdkmetric.Option{
		sdkmetric.WithResource(resource.NewSchemaless(attribute.String("service.name", serviceName))),
	}

	switch cfg.Exporter {
	case "", "none":
	case "otlp":
		var expOpts []otlpmetricgrpc.Option
		if cfg.Endpoint != "" {
			expOpts = append(expOpts, otlpmetricgrpc.WithEndpoint(cfg.Endpoint))
		}
		if cfg.Insecure {
			expOpts = append(expOpts, otlpmetricgrpc.WithInsecure())
		}
		exp, err := otlpmetricgrpc.New(ctx, expOpts...)
		if err != nil {
			return nil, fmt.Errorf("otlp metric exporter: %w", err)
		}
		var readerOpts []sdkmetric.PeriodicReaderOption
		if cfg.Interval > 0 {
			readerOpts = append(readerOpts, sdkmetric.WithInterval(cfg.Interval))
		}
		opts = append(opts, sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exp, readerOpts...)))
	default:
		return nil, fmt.Errorf("unknown metrics exporter %q", cfg.Exporter)
	}
	return sdkmetric.NewMeterProvider(opts...), nil
}
