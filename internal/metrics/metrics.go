package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"swarmlink-sim/internal/swarm"
)

// Metrics holds the simulator's Prometheus collectors.
type Metrics struct {
	Ticks          prometheus.Counter
	TickDuration   prometheus.Histogram
	PathActive     prometheus.Gauge
	PathHops       prometheus.Gauge
	DronesByStatus *prometheus.GaugeVec
	GraphEdges     *prometheus.GaugeVec
	Attacks        *prometheus.CounterVec
	Briefings      *prometheus.CounterVec
}

// New registers all collectors on reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Ticks: f.NewCounter(prometheus.CounterOpts{
			Name: "swarm_ticks_total",
			Help: "Simulation ticks executed.",
		}),
		TickDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "swarm_tick_duration_seconds",
			Help:    "Wall time spent computing one tick.",
			Buckets: prometheus.ExponentialBuckets(0.00001, 4, 8),
		}),
		PathActive: f.NewGauge(prometheus.GaugeOpts{
			Name: "swarm_trusted_path_active",
			Help: "1 when a trusted path links the start and end drones.",
		}),
		PathHops: f.NewGauge(prometheus.GaugeOpts{
			Name: "swarm_trusted_path_hops",
			Help: "Hop count of the current trusted path, 0 when none.",
		}),
		DronesByStatus: f.NewGaugeVec(prometheus.GaugeOpts{
			Name: "swarm_drones",
			Help: "Drones by status.",
		}, []string{"status"}),
		GraphEdges: f.NewGaugeVec(prometheus.GaugeOpts{
			Name: "swarm_graph_edges",
			Help: "Undirected edges in the proximity graphs.",
		}, []string{"graph"}),
		Attacks: f.NewCounterVec(prometheus.CounterOpts{
			Name: "swarm_attack_actions_total",
			Help: "Attack control requests by action and outcome.",
		}, []string{"action", "applied"}),
		Briefings: f.NewCounterVec(prometheus.CounterOpts{
			Name: "swarm_briefings_total",
			Help: "Settled briefing requests by outcome.",
		}, []string{"outcome"}),
	}
}

// ObserveTick records the result of one tick. A nil receiver is a no-op.
func (m *Metrics) ObserveTick(c swarm.Counts, pathHops int, pathActive bool, fullEdges, trustedEdges int, took time.Duration) {
	if m == nil {
		return
	}
	m.Ticks.Inc()
	m.TickDuration.Observe(took.Seconds())
	if pathActive {
		m.PathActive.Set(1)
	} else {
		m.PathActive.Set(0)
	}
	m.PathHops.Set(float64(pathHops))
	m.DronesByStatus.WithLabelValues(swarm.Healthy.String()).Set(float64(c.Healthy))
	m.DronesByStatus.WithLabelValues(swarm.Jammed.String()).Set(float64(c.Jammed))
	m.DronesByStatus.WithLabelValues(swarm.Hijacked.String()).Set(float64(c.Hijacked))
	m.GraphEdges.WithLabelValues("full").Set(float64(fullEdges))
	m.GraphEdges.WithLabelValues("trusted").Set(float64(trustedEdges))
}

// ObserveAttack counts one attack control request.
func (m *Metrics) ObserveAttack(action string, applied bool) {
	if m == nil {
		return
	}
	label := "false"
	if applied {
		label = "true"
	}
	m.Attacks.WithLabelValues(action, label).Inc()
}

// ObserveBriefing counts one settled briefing request.
func (m *Metrics) ObserveBriefing(ok bool) {
	if m == nil {
		return
	}
	outcome := "failed"
	if ok {
		outcome = "ok"
	}
	m.Briefings.WithLabelValues(outcome).Inc()
}
