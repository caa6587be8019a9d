package backend

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/prometheus/common/model"

	internalerrors "github.com/Schera-ole/obsmetrics/internal/errors"
)

// PrometheusBackend exposes gauges on a dedicated Prometheus registry.
type PrometheusBackend struct {
	registry *prometheus.Registry
}

type prometheusRegistration struct {
	registry  *prometheus.Registry
	collector prometheus.Collector
	name      string
}

// NewPrometheusBackend creates a backend with its own registry. Go runtime and
// process collectors are registered when withRuntime is set.
func NewPrometheusBackend(withRuntime bool) *PrometheusBackend {
	registry := prometheus.NewRegistry()
	if withRuntime {
		registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}
	return &PrometheusBackend{registry: registry}
}

// Register creates a GaugeFunc reading value on every scrape. Names must follow
// the legacy Prometheus grammar so they scrape unescaped in every exposition format.
func (b *PrometheusBackend) Register(desc Descriptor, value ValueFunc) (Registration, error) {
	if !model.LegacyValidation.IsValidMetricName(desc.Name) {
		return nil, fmt.Errorf("%w: %q must match [a-zA-Z_:][a-zA-Z0-9_:]*", internalerrors.ErrInvalidMetricName, desc.Name)
	}

	gauge := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name:        desc.Name,
		Help:        desc.Help,
		ConstLabels: prometheus.Labels(desc.Labels),
	}, func() float64 {
		return float64(value())
	})

	if err := b.registry.Register(gauge); err != nil {
		var already prometheus.AlreadyRegisteredError
		if errors.As(err, &already) {
			return nil, fmt.Errorf("gauge %q already registered: %w", desc.Name, err)
		}
		return nil, fmt.Errorf("register gauge %q: %w", desc.Name, err)
	}

	return &prometheusRegistration{registry: b.registry, collector: gauge, name: desc.Name}, nil
}

// Registry returns the underlying Prometheus registry.
func (b *PrometheusBackend) Registry() *prometheus.Registry {
	return b.registry
}

// Handler returns the scrape handler, instrumented with promhttp handler metrics.
func (b *PrometheusBackend) Handler() http.Handler {
	return promhttp.InstrumentMetricHandler(b.registry, promhttp.HandlerFor(
		b.registry,
		promhttp.HandlerOpts{
			EnableOpenMetrics: true,
		},
	))
}

func (r *prometheusRegistration) Unregister() error {
	if !r.registry.Unregister(r.collector) {
		return fmt.Errorf("gauge %q was not registered", r.name)
	}
	return nil
}
