package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds Prometheus counters and gauges for the composition pipeline.
type Metrics struct {
	registry            *prometheus.Registry
	requestsTotal       prometheus.Counter
	errorsTotal         prometheus.Counter
	cyclesTotal         prometheus.Counter
	commitFailuresTotal *prometheus.CounterVec
	layersPostedTotal   prometheus.Counter
	layersSkippedTotal  *prometheus.CounterVec
	eventsPostedTotal   *prometheus.CounterVec
	vsyncResetsTotal    prometheus.Counter
	videoPlaying        prometheus.Gauge
	videoExtendedMode   prometheus.Gauge
	blankDevice         prometheus.Gauge
}

// New creates and registers Prometheus metrics for the compositor.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		requestsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "hwc_http_requests_total",
			Help: "Total number of HTTP requests received",
		}),
		errorsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "hwc_http_errors_total",
			Help: "Total number of HTTP responses with error status (4xx or 5xx)",
		}),
		cyclesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "hwc_composition_cycles_total",
			Help: "Total number of composition cycles run",
		}),
		commitFailuresTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "hwc_commit_failures_total",
			Help: "Total number of failed commits by reason",
		}, []string{"reason"}),
		layersPostedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "hwc_layers_posted_total",
			Help: "Total number of hardware layers handed to the display device",
		}),
		layersSkippedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "hwc_layers_skipped_total",
			Help: "Total number of layers dropped from a commit by reason",
		}, []string{"reason"}),
		eventsPostedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "hwc_events_posted_total",
			Help: "Total number of display events posted by kind",
		}, []string{"kind"}),
		vsyncResetsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "hwc_vsync_resets_total",
			Help: "Total number of vsync source resets",
		}),
		videoPlaying: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "hwc_video_playing",
			Help: "1 while video playback is reported, else 0",
		}),
		videoExtendedMode: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "hwc_video_extended_mode",
			Help: "1 while video extended mode is in effect, else 0",
		}),
		blankDevice: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "hwc_blank_device",
			Help: "1 while secondary displays are blanked, else 0",
		}),
	}

	registry.MustRegister(
		m.requestsTotal,
		m.errorsTotal,
		m.cyclesTotal,
		m.commitFailuresTotal,
		m.layersPostedTotal,
		m.layersSkippedTotal,
		m.eventsPostedTotal,
		m.vsyncResetsTotal,
		m.videoPlaying,
		m.videoExtendedMode,
		m.blankDevice,
	)

	return m
}

// IncRequests increments the total request counter.
func (m *Metrics) IncRequests() {
	m.requestsTotal.Inc()
}

// IncErrors increments the HTTP errors counter.
func (m *Metrics) IncErrors() {
	m.errorsTotal.Inc()
}

// IncCycles increments the composition cycle counter.
func (m *Metrics) IncCycles() {
	m.cyclesTotal.Inc()
}

// IncCommitFailures increments the commit failure counter for reason.
func (m *Metrics) IncCommitFailures(reason string) {
	m.commitFailuresTotal.WithLabelValues(reason).Inc()
}

// AddLayersPosted adds n to the posted layer counter.
func (m *Metrics) AddLayersPosted(n int) {
	m.layersPostedTotal.Add(float64(n))
}

// IncLayersSkipped increments the skipped layer counter for reason.
func (m *Metrics) IncLayersSkipped(reason string) {
	m.layersSkippedTotal.WithLabelValues(reason).Inc()
}

// IncEventsPosted increments the posted event counter for kind.
func (m *Metrics) IncEventsPosted(kind string) {
	m.eventsPostedTotal.WithLabelValues(kind).Inc()
}

// IncVsyncResets increments the vsync reset counter.
func (m *Metrics) IncVsyncResets() {
	m.vsyncResetsTotal.Inc()
}

// SetAnalyzerState publishes the analyzer's advisory flags as gauges.
func (m *Metrics) SetAnalyzerState(videoPlaying, extendedMode, blank bool) {
	m.videoPlaying.Set(boolToFloat(videoPlaying))
	m.videoExtendedMode.Set(boolToFloat(extendedMode))
	m.blankDevice.Set(boolToFloat(blank))
}

// Registry exposes the underlying registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler returns an http.Handler that serves Prometheus metrics.
// updateGauges is called before each scrape to refresh gauge values.
func (m *Metrics) Handler(updateGauges func()) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if updateGauges != nil {
			updateGauges()
		}
		promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}).ServeHTTP(w, r)
	})
}

func boolToFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
