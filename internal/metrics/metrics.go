package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/obiente/translate/whisperbridge/internal/registry"
)

const namespace = "whisperbridge"

// Transcription modes used as the "mode" label.
const (
	ModeSingle  = "single"
	ModeSliding = "sliding"
	ModeStream  = "stream"
)

// Metrics holds the bridge's Prometheus instruments. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	InstancesCreated   prometheus.Counter
	InstancesDestroyed prometheus.Counter
	LoadFailures       prometheus.Counter
	Transcriptions     *prometheus.CounterVec
	Windows            prometheus.Counter
	InferenceDuration  *prometheus.HistogramVec
}

// New creates the instruments and registers them on reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		InstancesCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "instances_created_total",
			Help:      "Model instances successfully created.",
		}),
		InstancesDestroyed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "instances_destroyed_total",
			Help:      "Model instances destroyed.",
		}),
		LoadFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "load_failures_total",
			Help:      "Model loads rejected by the engine or the filesystem.",
		}),
		Transcriptions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transcriptions_total",
			Help:      "Transcription calls by mode and outcome.",
		}, []string{"mode", "outcome"}),
		Windows: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "windows_total",
			Help:      "Sliding windows sent to the engine.",
		}),
		InferenceDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "inference_duration_seconds",
			Help:      "Duration of single engine inference calls.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 12), // 10ms → ~20s
		}, []string{"mode"}),
	}
	if reg != nil {
		reg.MustRegister(
			m.InstancesCreated,
			m.InstancesDestroyed,
			m.LoadFailures,
			m.Transcriptions,
			m.Windows,
			m.InferenceDuration,
		)
	}
	return m
}

// RegistryHooks returns hooks that count registry lifecycle events.
func (m *Metrics) RegistryHooks() registry.Hooks {
	if m == nil {
		return registry.Hooks{}
	}
	return registry.Hooks{
		OnCreate:      func(int) { m.InstancesCreated.Inc() },
		OnDestroy:     func(int) { m.InstancesDestroyed.Inc() },
		OnLoadFailure: func(string, error) { m.LoadFailures.Inc() },
	}
}

// Transcription counts one finished call.
func (m *Metrics) Transcription(mode, outcome string) {
	if m == nil {
		return
	}
	m.Transcriptions.WithLabelValues(mode, outcome).Inc()
}

// Inference records one engine call; sliding calls also count a window.
func (m *Metrics) Inference(mode string, took time.Duration) {
	if m == nil {
		return
	}
	m.InferenceDuration.WithLabelValues(mode).Observe(took.Seconds())
	if mode == ModeSliding {
		m.Windows.Inc()
	}
}
