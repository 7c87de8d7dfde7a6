package metrics

import "github.com/prometheus/client_golang/prometheus"

// ExpiryMetrics counts expiry detection outcomes.
type ExpiryMetrics struct {
	outcomes *prometheus.CounterVec
	runs     prometheus.Counter
}

// NewExpiryMetrics registers the expiry detection counters on the provided registerer.
func NewExpiryMetrics(reg prometheus.Registerer) *ExpiryMetrics {
	if reg == nil {
		return &ExpiryMetrics{}
	}
	outcomes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "carins_expiry_policies_total",
		Help: "Expired policies seen by the expiry detector, by outcome.",
	}, []string{"outcome"})
	runs := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "carins_expiry_runs_total",
		Help: "Completed expiry detection runs.",
	})
	reg.MustRegister(outcomes, runs)
	return &ExpiryMetrics{outcomes: outcomes, runs: runs}
}

// ObserveRun adds one run's per-policy outcomes.
func (e *ExpiryMetrics) ObserveRun(created, alreadyLogged, failed int) {
	if e == nil || e.outcomes == nil {
		return
	}
	e.runs.Inc()
	e.outcomes.WithLabelValues("created").Add(float64(created))
	e.outcomes.WithLabelValues("already_logged").Add(float64(alreadyLogged))
	e.outcomes.WithLabelValues("failed").Add(float64(failed))
}
