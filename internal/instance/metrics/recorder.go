package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "claudia"

// Continue reasons.
const (
	ReasonStagnation = "stagnation"
	ReasonUsageLimit = "usage_limit"
)

// Recorder records supervisor events.
type Recorder struct {
	registry *prometheus.Registry

	continues         *prometheus.CounterVec
	permissionAccepts prometheus.Counter
	usageLimitWaits   prometheus.Counter
	sessionState      *prometheus.GaugeVec
	tasks             *prometheus.GaugeVec

	state string
}

// NewRecorder creates a recorder with its own registry.
func NewRecorder() *Recorder {
	r := &Recorder{
		continues: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "continues_total",
				Help:      "Continue commands sent to the child.",
			},
			[]string{"reason"},
		),
		permissionAccepts: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "permission_accepts_total",
				Help:      "Bypass-permission prompts accepted on the child's behalf.",
			},
		),
		usageLimitWaits: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "usage_limit_waits_total",
				Help:      "Usage-limit waits started.",
			},
		),
		sessionState: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "session_state",
				Help:      "Current supervisor state (1 for the active state).",
			},
			[]string{"state"},
		),
		tasks: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "tasks",
				Help:      "Checkbox items in the task document, by status.",
			},
			[]string{"status"},
		),
	}

	r.registry = prometheus.NewRegistry()
	r.registry.MustRegister(r.continues, r.permissionAccepts, r.usageLimitWaits, r.sessionState, r.tasks)
	return r
}

// IncContinues counts a Continue command sent for reason.
func (r *Recorder) IncContinues(reason string) {
	if r == nil {
		return
	}
	r.continues.WithLabelValues(reason).Inc()
}

// IncPermissionAccepts counts an accepted permission prompt.
func (r *Recorder) IncPermissionAccepts() {
	if r == nil {
		return
	}
	r.permissionAccepts.Inc()
}

// IncUsageLimitWaits counts the start of a usage-limit wait.
func (r *Recorder) IncUsageLimitWaits() {
	if r == nil {
		return
	}
	r.usageLimitWaits.Inc()
}

// SetState marks state as the current supervisor state.
func (r *Recorder) SetState(state string) {
	if r == nil {
		return
	}
	if r.state != "" && r.state != state {
		r.sessionState.WithLabelValues(r.state).Set(0)
	}
	r.sessionState.WithLabelValues(state).Set(1)
	r.state = state
}

// SetTasks records the task document's checkbox counts.
func (r *Recorder) SetTasks(checked, unchecked int) {
	if r == nil {
		return
	}
	r.tasks.WithLabelValues("checked").Set(float64(checked))
	r.tasks.WithLabelValues("unchecked").Set(float64(unchecked))
}

// Registry returns the registry holding the recorder's metrics.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// Handler returns an HTTP handler serving the recorder's metrics.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}
