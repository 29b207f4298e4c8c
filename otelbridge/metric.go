package otelbridge

import (
	"context"
	"sync"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/jonwraymond/tracewire/event"
	"github.com/jonwraymond/tracewire/recorder"
)

// MetricExporter translates OTel metric datapoints into metric records.
// It implements sdkmetric.Exporter and is normally wrapped in a periodic
// reader.
type MetricExporter struct {
	core *recorder.Core

	mu    sync.Mutex
	sites map[string]*event.Callsite
}

var _ sdkmetric.Exporter = (*MetricExporter)(nil)

// NewMetricExporter creates an exporter feeding the core.
func NewMetricExporter(core *recorder.Core) *MetricExporter {
	return &MetricExporter{core: core, sites: make(map[string]*event.Callsite)}
}

// Temporality always selects cumulative aggregation, matching the
// pipeline's health counters.
func (e *MetricExporter) Temporality(sdkmetric.InstrumentKind) metricdata.Temporality {
	return metricdata.CumulativeTemporality
}

// Aggregation defers to the SDK's default selector.
func (e *MetricExporter) Aggregation(kind sdkmetric.InstrumentKind) sdkmetric.Aggregation {
	return sdkmetric.DefaultAggregationSelector(kind)
}

// Export emits one metric record per datapoint. Histograms are reduced to
// their sum; unsupported aggregations are skipped.
func (e *MetricExporter) Export(ctx context.Context, rm *metricdata.ResourceMetrics) error {
	for _, scope := range rm.ScopeMetrics {
		for _, m := range scope.Metrics {
			site := e.site(m.Name, m.Unit)
			switch data := m.Data.(type) {
			case metricdata.Sum[int64]:
				for _, dp := range data.DataPoints {
					e.core.RecordMetricAt(site, float64(dp.Value), dp.Time)
				}
			case metricdata.Sum[float64]:
				for _, dp := range data.DataPoints {
					e.core.RecordMetricAt(site, dp.Value, dp.Time)
				}
			case metricdata.Gauge[int64]:
				for _, dp := range data.DataPoints {
					e.core.RecordMetricAt(site, float64(dp.Value), dp.Time)
				}
			case metricdata.Gauge[float64]:
				for _, dp := range data.DataPoints {
					e.core.RecordMetricAt(site, dp.Value, dp.Time)
				}
			case metricdata.Histogram[int64]:
				for _, dp := range data.DataPoints {
					e.core.RecordMetricAt(site, float64(dp.Sum), dp.Time)
				}
			case metricdata.Histogram[float64]:
				for _, dp := range data.DataPoints {
					e.core.RecordMetricAt(site, dp.Sum, dp.Time)
				}
			}
		}
	}
	return nil
}

// ForceFlush flushes the core's streams.
func (e *MetricExporter) ForceFlush(ctx context.Context) error {
	e.core.FlushAll(ctx)
	return ctx.Err()
}

// Shutdown flushes the core's streams.
func (e *MetricExporter) Shutdown(ctx context.Context) error {
	e.core.FlushAll(ctx)
	return ctx.Err()
}

func (e *MetricExporter) site(name, unit string) *event.Callsite {
	e.mu.Lock()
	defer e.mu.Unlock()
	key := name + "/" + unit
	if site, ok := e.sites[key]; ok {
		return site
	}
	site := event.NewCallsite(event.KindMetric, name, "otel", 0, event.LevelInfo, unit)
	e.sites[key] = site
	return site
}
