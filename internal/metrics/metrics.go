// Package metrics exposes Prometheus collectors for the catalog.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/homelibrarian/homelibrarian/internal/domain"
	"github.com/homelibrarian/homelibrarian/internal/errors"
)

const namespace = "homelib"

// Load outcomes.
const (
	LoadOK          = "ok"
	LoadEmpty       = "empty"
	LoadMigrated    = "migrated"
	LoadQuarantined = "quarantined"
	LoadFailed      = "failed"
)

// Metrics holds the catalog's collectors on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	actions         *prometheus.CounterVec
	loads           *prometheus.CounterVec
	persistFailures prometheus.Counter
	lookups         *prometheus.CounterVec
	backups         *prometheus.CounterVec
	books           prometheus.Gauge
	loans           *prometheus.GaugeVec
}

// New creates and registers the collectors. Go runtime and process collectors
// are included when withRuntime is set.
func New(withRuntime bool) *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		actions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "actions_total",
			Help:      "Actions dispatched to the catalog, by action and outcome code.",
		}, []string{"action", "outcome"}),
		loads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "state_loads_total",
			Help:      "Catalog document loads by outcome.",
		}, []string{"outcome"}),
		persistFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "persist_failures_total",
			Help:      "Catalog writes that failed and were kept in memory only.",
		}),
		lookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "lookups_total",
			Help:      "Metadata lookups by source and outcome.",
		}, []string{"source", "outcome"}),
		backups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "backups_total",
			Help:      "Backups written by target and outcome.",
		}, []string{"target", "outcome"}),
		books: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "books",
			Help:      "Books in the catalog.",
		}),
		loans: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "loans",
			Help:      "Loans that are currently out, by status.",
		}, []string{"status"}),
	}

	m.registry.MustRegister(m.actions, m.loads, m.persistFailures, m.lookups, m.backups, m.books, m.loans)
	if withRuntime {
		m.registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}
	return m
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// ObserveAction counts a dispatched action. A nil err counts as "ok";
// otherwise the error code is the outcome.
func (m *Metrics) ObserveAction(action string, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = string(errors.CodeOf(err))
	}
	m.actions.WithLabelValues(action, outcome).Inc()
}

// ObserveLoad counts a document load.
func (m *Metrics) ObserveLoad(outcome string) {
	if m == nil {
		return
	}
	m.loads.WithLabelValues(outcome).Inc()
}

// ObservePersistFailure counts a failed write.
func (m *Metrics) ObservePersistFailure() {
	if m == nil {
		return
	}
	m.persistFailures.Inc()
}

// ObserveLookup counts a metadata lookup.
func (m *Metrics) ObserveLookup(source string, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = string(errors.CodeOf(err))
	}
	m.lookups.WithLabelValues(source, outcome).Inc()
}

// ObserveBackup counts a backup attempt.
func (m *Metrics) ObserveBackup(target string, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "failed"
	}
	m.backups.WithLabelValues(target, outcome).Inc()
}

// SetCatalog refreshes the catalog gauges from stats.
func (m *Metrics) SetCatalog(st domain.Stats) {
	if m == nil {
		return
	}
	m.books.Set(float64(st.Books))
	m.loans.WithLabelValues(string(domain.LoanActive)).Set(float64(st.ActiveLoans))
	m.loans.WithLabelValues(string(domain.LoanOverdue)).Set(float64(st.OverdueLoans))
}
