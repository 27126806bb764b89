package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics is a per-run set of collectors on a private registry. A one-shot
// CLI has nothing to scrape, so the registry is written out with
// WriteTextfile for node_exporter's textfile collector.
type Metrics struct {
	registry *prometheus.Registry

	FetchesTotal *prometheus.CounterVec
	FetchLatency *prometheus.HistogramVec

	RowsExtracted *prometheus.CounterVec
	NoDataDays    *prometheus.CounterVec

	AlertsTotal    *prometheus.CounterVec
	PeakHourlyMM   *prometheus.GaugeVec
	LastRunSuccess *prometheus.GaugeVec
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		FetchesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "alertalluvia_fetches_total",
				Help: "Station history page fetches",
			},
			[]string{"station", "status"},
		),
		FetchLatency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "alertalluvia_fetch_latency_seconds",
				Help:    "Station history page fetch latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"station"},
		),
		RowsExtracted: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "alertalluvia_rows_extracted_total",
				Help: "History table rows extracted",
			},
			[]string{"station"},
		),
		NoDataDays: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "alertalluvia_no_data_days_total",
				Help: "Days whose page had no history table",
			},
			[]string{"station"},
		),
		AlertsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "alertalluvia_alerts_total",
				Help: "Rendered rows at or above an alert threshold",
			},
			[]string{"station", "kind"},
		),
		PeakHourlyMM: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "alertalluvia_peak_hourly_accumulation_mm",
				Help: "Highest trailing one-hour accumulation in the last 24 hours",
			},
			[]string{"station"},
		),
		LastRunSuccess: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "alertalluvia_last_run_success",
				Help: "1 if the last run completed, 0 otherwise",
			},
			[]string{"station"},
		),
	}
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// WriteTextfile atomically writes the registry in the text exposition format.
func (m *Metrics) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.registry)
}
