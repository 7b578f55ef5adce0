package observability

import "github.com/prometheus/client_golang/prometheus"

// AuthCounters tracks authentication outcomes. A nil receiver is a no-op so
// services can run without metrics in tests.
type AuthCounters struct {
	logins          *prometheus.CounterVec
	reconciliations *prometheus.CounterVec
}

// NewAuthCounters registers authentication counters on reg.
func NewAuthCounters(reg prometheus.Registerer) *AuthCounters {
	logins := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "logify_logins_total",
		Help: "Credential validations by outcome.",
	}, []string{"outcome"})
	reconciliations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "logify_reconciliations_total",
		Help: "OAuth identity reconciliations by provider and branch taken.",
	}, []string{"provider", "branch"})
	reg.MustRegister(logins, reconciliations)
	return &AuthCounters{logins: logins, reconciliations: reconciliations}
}

// Login records one credential validation outcome.
func (c *AuthCounters) Login(outcome string) {
	if c == nil {
		return
	}
	c.logins.WithLabelValues(outcome).Inc()
}

// Reconcile records which branch a reconciliation took.
func (c *AuthCounters) Reconcile(provider, branch string) {
	if c == nil {
		return
	}
	c.reconciliations.WithLabelValues(provider, branch).Inc()
}
