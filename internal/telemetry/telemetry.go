// Package telemetry exposes coaching session metrics to Prometheus.
//
// Metrics live on a private registry so the process never exports the
// default Go collectors unless asked to. Every method is safe on a nil
// *Metrics, which lets packages take telemetry as an optional dependency.
package telemetry

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/teslashibe/go-coach/pkg/feedback"
)

const namespace = "coach"

// Metrics holds the session collectors.
type Metrics struct {
	registry *prometheus.Registry

	framesProcessed *prometheus.CounterVec
	framesSkipped   *prometheus.CounterVec
	frameLatency    prometheus.Histogram
	events          *prometheus.CounterVec
	utterances      *prometheus.CounterVec
	unresolved      *prometheus.CounterVec
	renderTicks     prometheus.Counter
	drillChanges    *prometheus.CounterVec
	running         prometheus.Gauge
	direct          prometheus.Gauge
}

// Option configures Metrics.
type Option func(*options)

type options struct {
	registry *prometheus.Registry
	runtime  bool
}

// WithRegistry registers the collectors on r instead of a fresh registry.
func WithRegistry(r *prometheus.Registry) Option {
	return func(o *options) { o.registry = r }
}

// WithRuntimeCollectors adds the Go runtime and process collectors.
func WithRuntimeCollectors() Option {
	return func(o *options) { o.runtime = true }
}

// New creates the collectors.
func New(opts ...Option) *Metrics {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.registry == nil {
		o.registry = prometheus.NewRegistry()
	}
	if o.runtime {
		o.registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}

	auto := promauto.With(o.registry)
	return &Metrics{
		registry: o.registry,
		framesProcessed: auto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "frames_processed_total",
			Help:      "Landmark frames retargeted and evaluated, by retargeting mode.",
		}, []string{"mode"}),
		framesSkipped: auto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "frames_skipped_total",
			Help:      "Landmark frames dropped before evaluation, by reason.",
		}, []string{"reason"}),
		frameLatency: auto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "frame_duration_seconds",
			Help:      "Time spent handling one landmark frame.",
			Buckets:   []float64{0.0001, 0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05},
		}),
		events: auto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "feedback_events_total",
			Help:      "Text feedback events posted, by severity.",
		}, []string{"severity"}),
		utterances: auto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "speech_requests_total",
			Help:      "Speech requests, by outcome.",
		}, []string{"outcome"}),
		unresolved: auto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bones_unresolved_total",
			Help:      "Canonical joints the avatar could not resolve.",
		}, []string{"joint"}),
		renderTicks: auto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "render_ticks_total",
			Help:      "Render ticks driven.",
		}),
		drillChanges: auto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "drill_changes_total",
			Help:      "Drill selections, by drill id (empty for deselect).",
		}, []string{"drill"}),
		running: auto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "session_running",
			Help:      "1 while a coaching session is running.",
		}),
		direct: auto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "avatar_direct_mode",
			Help:      "1 when the avatar is driven through its root only.",
		}),
	}
}

// Registry returns the registry holding the collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// FrameProcessed records a handled frame.
func (m *Metrics) FrameProcessed(mode string, d time.Duration) {
	if m == nil {
		return
	}
	m.framesProcessed.WithLabelValues(mode).Inc()
	m.frameLatency.Observe(d.Seconds())
}

// FrameSkipped records a dropped frame.
func (m *Metrics) FrameSkipped(reason string) {
	if m == nil {
		return
	}
	m.framesSkipped.WithLabelValues(reason).Inc()
}

// EventPosted implements feedback.Observer.
func (m *Metrics) EventPosted(s feedback.Severity) {
	if m == nil {
		return
	}
	m.events.WithLabelValues(string(s)).Inc()
}

// SpeechOutcome implements feedback.Observer.
func (m *Metrics) SpeechOutcome(o feedback.Outcome) {
	if m == nil {
		return
	}
	m.utterances.WithLabelValues(o.String()).Inc()
}

// BoneUnresolved records a joint the resolver gave up on.
func (m *Metrics) BoneUnresolved(joint string) {
	if m == nil {
		return
	}
	m.unresolved.WithLabelValues(joint).Inc()
}

// RenderTick records one render tick.
func (m *Metrics) RenderTick() {
	if m == nil {
		return
	}
	m.renderTicks.Inc()
}

// DrillChanged records a drill transition.
func (m *Metrics) DrillChanged(id string) {
	if m == nil {
		return
	}
	m.drillChanges.WithLabelValues(id).Inc()
}

// SessionRunning sets the running gauge.
func (m *Metrics) SessionRunning(running bool) {
	if m == nil {
		return
	}
	m.running.Set(boolValue(running))
}

// AvatarDirect sets the direct-mesh gauge.
func (m *Metrics) AvatarDirect(direct bool) {
	if m == nil {
		return
	}
	m.direct.Set(boolValue(direct))
}

func boolValue(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

var _ feedback.Observer = (*Metrics)(nil)
