package observability

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

// compile-time interface check
var _ MetricFactory = (*OTelFactory)(nil)

// OTelFactory creates metrics on an OpenTelemetry meter. Instruments are
// created once per name and reused.
type OTelFactory struct {
	meter metric.Meter

	mu         sync.Mutex
	counters   map[string]*otelCounter
	histograms map[string]*otelHistogram
}

// NewOTelFactory returns a factory over meter. A nil meter records nothing.
func NewOTelFactory(meter metric.Meter) *OTelFactory {
	if meter == nil {
		meter = noop.NewMeterProvider().Meter("vesting")
	}
	return &OTelFactory{
		meter:      meter,
		counters:   make(map[string]*otelCounter),
		histograms: make(map[string]*otelHistogram),
	}
}

// NewOTelFactoryFromProvider returns a factory over provider's "vesting" meter.
func NewOTelFactoryFromProvider(provider metric.MeterProvider) *OTelFactory {
	if provider == nil {
		return NewOTelFactory(nil)
	}
	return NewOTelFactory(provider.Meter("vesting"))
}

// Counter implements MetricFactory. Instrument creation errors fall back to
// a no-op counter.
func (f *OTelFactory) Counter(name string) Counter {
	f.mu.Lock()
	defer f.mu.Unlock()

	if c, ok := f.counters[name]; ok {
		return c
	}
	inst, err := f.meter.Float64Counter(name)
	if err != nil {
		inst, _ = noop.NewMeterProvider().Meter("vesting").Float64Counter(name) //nolint:errcheck // noop never fails
	}
	c := &otelCounter{inst: inst}
	f.counters[name] = c
	return c
}

// Histogram implements MetricFactory.
func (f *OTelFactory) Histogram(name string) Histogram {
	f.mu.Lock()
	defer f.mu.Unlock()

	if h, ok := f.histograms[name]; ok {
		return h
	}
	inst, err := f.meter.Float64Histogram(name)
	if err != nil {
		inst, _ = noop.NewMeterProvider().Meter("vesting").Float64Histogram(name) //nolint:errcheck // noop never fails
	}
	h := &otelHistogram{inst: inst}
	f.histograms[name] = h
	return h
}

type otelCounter struct {
	inst metric.Float64Counter
}

func (c *otelCounter) Inc() { c.Add(1) }

func (c *otelCounter) Add(v float64) {
	c.inst.Add(context.Background(), v)
}

type otelHistogram struct {
	inst metric.Float64Histogram
}

func (h *otelHistogram) Observe(v float64) {
	h.inst.Record(context.Background(), v)
}
