package infra

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/eliteGoblin/synapsis/internal/domain"
)

// MetricsRecorder counts match events in prometheus collectors on a
// private registry. It is safe to share between concurrent matches.
type MetricsRecorder struct {
	registry *prometheus.Registry

	ConnectionsCreatedTotal  *prometheus.CounterVec
	ConnectionsRejectedTotal *prometheus.CounterVec
	ConnectionsSeveredTotal  *prometheus.CounterVec
	WavesTotal               prometheus.Counter
	InfectionsTotal          prometheus.Counter
	VirusMovesTotal          prometheus.Counter
	VirusEvolutionsTotal     prometheus.Counter
	VirusesDestroyedTotal    *prometheus.CounterVec
	MatchesTotal             *prometheus.CounterVec
	Stars                    prometheus.Histogram
	MatchSeconds             prometheus.Histogram
}

// NewMetricsRecorder registers every collector on a fresh registry.
func NewMetricsRecorder() *MetricsRecorder {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &MetricsRecorder{
		registry: reg,
		ConnectionsCreatedTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "synapsis_connections_created_total",
				Help: "Connections created, by kind",
			},
			[]string{"kind"},
		),
		ConnectionsRejectedTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "synapsis_connections_rejected_total",
				Help: "Connection attempts refused, by outcome",
			},
			[]string{"outcome"},
		),
		ConnectionsSeveredTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "synapsis_connections_severed_total",
				Help: "Connections removed, by cause",
			},
			[]string{"cause"},
		),
		WavesTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "synapsis_silence_waves_total",
				Help: "Completed silence waves",
			},
		),
		InfectionsTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "synapsis_infections_total",
				Help: "Nodes infected by virus spread",
			},
		),
		VirusMovesTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "synapsis_virus_moves_total",
				Help: "Virus relocations",
			},
		),
		VirusEvolutionsTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "synapsis_virus_evolutions_total",
				Help: "Virus evolution steps",
			},
		),
		VirusesDestroyedTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "synapsis_viruses_destroyed_total",
				Help: "Virus nodes cleared, by method",
			},
			[]string{"method"},
		),
		MatchesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "synapsis_matches_total",
				Help: "Finished matches, by state and reason",
			},
			[]string{"state", "reason"},
		),
		Stars: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "synapsis_match_stars",
				Help:    "Stars awarded per won match",
				Buckets: []float64{1, 2, 3, 4, 5},
			},
		),
		MatchSeconds: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "synapsis_match_duration_seconds",
				Help:    "Simulated time until a match finished",
				Buckets: prometheus.LinearBuckets(10, 10, 12),
			},
		),
	}
}

// Registry returns the prometheus registry holding the collectors.
func (m *MetricsRecorder) Registry() *prometheus.Registry {
	return m.registry
}

func (m *MetricsRecorder) ConnectionCreated(kind domain.ConnectionKind) {
	m.ConnectionsCreatedTotal.WithLabelValues(string(kind)).Inc()
}

func (m *MetricsRecorder) ConnectionRejected(outcome domain.Outcome) {
	m.ConnectionsRejectedTotal.WithLabelValues(outcome.String()).Inc()
}

func (m *MetricsRecorder) ConnectionsSevered(cause domain.SeverCause, n int) {
	if n <= 0 {
		return
	}
	m.ConnectionsSeveredTotal.WithLabelValues(string(cause)).Add(float64(n))
}

func (m *MetricsRecorder) WaveCompleted() { m.WavesTotal.Inc() }
func (m *MetricsRecorder) NodeInfected() { m.InfectionsTotal.Inc() }
func (m *MetricsRecorder) VirusMoved() { m.VirusMovesTotal.Inc() }
func (m *MetricsRecorder) VirusEvolved() { m.VirusEvolutionsTotal.Inc() }

func (m *MetricsRecorder) VirusDestroyed(method domain.DestroyMethod) {
	m.VirusesDestroyedTotal.WithLabelValues(string(method)).Inc()
}

// MatchFinished records the outcome and, for wins, the star rating.
func (m *MetricsRecorder) MatchFinished(r domain.MatchResult) {
	reason := string(r.Reason)
	if reason == "" {
		reason = "none"
	}
	m.MatchesTotal.WithLabelValues(string(r.State), reason).Inc()
	m.MatchSeconds.Observe(r.Elapsed.Seconds())
	if r.State == domain.StateWon {
		m.Stars.Observe(float64(r.Stars))
	}
}

// Ensure MetricsRecorder implements domain.Recorder.
var _ domain.Recorder = (*MetricsRecorder)(nil)
