package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the AQI
// client and exporter.
type Metrics struct {
	// Open-data fetch metrics.
	FetchRequests *prometheus.CounterVec   // labels: resource, outcome={success,unreachable,invalid}
	FetchDuration *prometheus.HistogramVec // labels: resource
	FetchCache    *prometheus.CounterVec   // labels: result={hit,miss}
	BreakerState  prometheus.Gauge

	// Exporter metrics.
	PollerRunning     prometheus.Gauge
	PollCycles        *prometheus.CounterVec // labels: outcome={success,empty,error}
	PollDuration      prometheus.Histogram
	StationErrors     *prometheus.CounterVec // labels: reason={no_data,fetch}
	ReadingsPublished prometheus.Counter
	PublishErrors     prometheus.Counter

	// Readings.
	StationAQI        *prometheus.GaugeVec // labels: station
	PollutantSubIndex *prometheus.GaugeVec // labels: station, pollutant
}

// NewMetrics creates and registers all metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(m.collectors()...)
	return m
}

// NewMetricsForTesting creates Metrics without registering them to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		FetchRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "montreal_aqi",
			Name:      "fetch_requests_total",
			Help:      "Open-data API requests by resource and outcome.",
		}, []string{"resource", "outcome"}),
		FetchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "montreal_aqi",
			Name:      "fetch_duration_seconds",
			Help:      "Open-data API request duration in seconds.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"resource"}),
		FetchCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "montreal_aqi",
			Name:      "fetch_cache_total",
			Help:      "Record cache lookups by result.",
		}, []string{"result"}),
		BreakerState: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "montreal_aqi",
			Name:      "circuit_breaker_state",
			Help:      "Open-data circuit breaker state: 0 closed, 1 half-open, 2 open.",
		}),
		PollerRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "montreal_aqi",
			Name:      "poller_running",
			Help:      "1 when the poller is active, 0 when shut down.",
		}),
		PollCycles: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "montreal_aqi",
			Name:      "poll_cycles_total",
			Help:      "Completed poll cycles by outcome.",
		}, []string{"outcome"}),
		PollDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "montreal_aqi",
			Name:      "poll_duration_seconds",
			Help:      "Duration of a complete poll cycle.",
			Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60},
		}),
		StationErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "montreal_aqi",
			Name:      "station_errors_total",
			Help:      "Stations skipped during a poll cycle by reason.",
		}, []string{"reason"}),
		ReadingsPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "montreal_aqi",
			Name:      "readings_published_total",
			Help:      "Station readings written to the sink topic.",
		}),
		PublishErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "montreal_aqi",
			Name:      "publish_errors_total",
			Help:      "Failed sink topic writes.",
		}),
		StationAQI: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "montreal_aqi",
			Name:      "station_aqi",
			Help:      "Latest overall AQI per station.",
		}, []string{"station"}),
		PollutantSubIndex: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "montreal_aqi",
			Name:      "pollutant_sub_index",
			Help:      "Latest pollutant sub-index per station.",
		}, []string{"station", "pollutant"}),
	}
}

func (m *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.FetchRequests,
		m.FetchDuration,
		m.FetchCache,
		m.BreakerState,
		m.PollerRunning,
		m.PollCycles,
		m.PollDuration,
		m.StationErrors,
		m.ReadingsPublished,
		m.PublishErrors,
		m.StationAQI,
		m.PollutantSubIndex,
	}
}
