package monitoring

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for a run.
type Metrics struct {
	SearchesTotal    prometheus.Counter
	OutcomesTotal    *prometheus.CounterVec
	ChallengesTotal  prometheus.Counter
	ChallengesSolved prometheus.Counter
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		SearchesTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "serpclick_searches_total",
			Help: "The total number of keyword searches attempted",
		}),
		OutcomesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "serpclick_outcomes_total",
			Help: "Keyword outcomes by status",
		}, []string{"status"}), // e.g. 'found', 'not_found', 'captcha_skipped'
		ChallengesTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "serpclick_challenges_total",
			Help: "The total number of challenge pages encountered",
		}),
		ChallengesSolved: factory.NewCounter(prometheus.CounterOpts{
			Name: "serpclick_challenges_solved_total",
			Help: "Challenges that cleared before the keyword was skipped",
		}),
	}
}

func (m *Metrics) IncSearches() {
	m.SearchesTotal.Inc()
}

func (m *Metrics) IncOutcome(status string) {
	m.OutcomesTotal.WithLabelValues(status).Inc()
}

func (m *Metrics) IncChallenge() {
	m.ChallengesTotal.Inc()
}

func (m *Metrics) IncChallengeSolved() {
	m.ChallengesSolved.Inc()
}
