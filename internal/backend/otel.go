package backend

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	otelmetric "go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"

	internalerrors "github.com/Schera-ole/obsmetrics/internal/errors"
)

const meterName = "obsmetrics"

// OTELBackend pushes gauges to an OTLP collector through observable instruments.
type OTELBackend struct {
	meterProvider *sdkmetric.MeterProvider
	meter         otelmetric.Meter
}

// NewOTELBackend creates an OTLP/HTTP exporter pushing every interval.
func NewOTELBackend(ctx context.Context, endpoint string, interval time.Duration, resourceAttrs map[string]string) (*OTELBackend, error) {
	exporter, err := otlpmetrichttp.New(ctx,
		otlpmetrichttp.WithEndpoint(endpoint),
		otlpmetrichttp.WithInsecure(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create OTLP exporter: %w", err)
	}

	reader := sdkmetric.NewPeriodicReader(
		exporter,
		sdkmetric.WithInterval(interval),
	)
	return newOTELBackend(ctx, reader, resourceAttrs)
}

func newOTELBackend(ctx context.Context, reader sdkmetric.Reader, resourceAttrs map[string]string) (*OTELBackend, error) {
	attrs := make([]attribute.KeyValue, 0, len(resourceAttrs))
	for k, v := range resourceAttrs {
		attrs = append(attrs, attribute.String(k, v))
	}
	res, err := resource.New(ctx, resource.WithAttributes(attrs...))
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	meterProvider := sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(reader),
	)

	return &OTELBackend{
		meterProvider: meterProvider,
		meter:         meterProvider.Meter(meterName),
	}, nil
}

// Register creates an Int64ObservableGauge and a callback observing value.
// Unregistering removes the callback, so the gauge stops being reported.
// Names the SDK rejects as instrument names yield ErrInvalidMetricName.
func (b *OTELBackend) Register(desc Descriptor, value ValueFunc) (Registration, error) {
	gauge, err := b.meter.Int64ObservableGauge(
		desc.Name,
		otelmetric.WithDescription(desc.Help),
	)
	if errors.Is(err, sdkmetric.ErrInstrumentName) {
		return nil, fmt.Errorf("%w: %w", internalerrors.ErrInvalidMetricName, err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create gauge %q: %w", desc.Name, err)
	}

	attrs := make([]attribute.KeyValue, 0, len(desc.Labels))
	for k, v := range desc.Labels {
		attrs = append(attrs, attribute.String(k, v))
	}
	set := attribute.NewSet(attrs...)

	registration, err := b.meter.RegisterCallback(
		func(_ context.Context, observer otelmetric.Observer) error {
			observer.ObserveInt64(gauge, value(), otelmetric.WithAttributeSet(set))
			return nil
		},
		gauge,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to register callback for %q: %w", desc.Name, err)
	}
	return registration, nil
}

// Shutdown flushes pending data and stops the meter provider.
func (b *OTELBackend) Shutdown(ctx context.Context) error {
	return b.meterProvider.Shutdown(ctx)
}
