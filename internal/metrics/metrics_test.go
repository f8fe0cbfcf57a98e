package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/homelibrarian/homelibrarian/internal/domain"
	"github.com/homelibrarian/homelibrarian/internal/errors"
)

func TestObserveAction(t *testing.T) {
	m := New(false)

	m.ObserveAction("loan.create", nil)
	m.ObserveAction("loan.create", nil)
	m.ObserveAction("loan.create", errors.Conflict("already on loan"))
	m.ObserveAction("book.add", errors.New("boom"))

	assert.Equal(t, 2.0, testutil.ToFloat64(m.actions.WithLabelValues("loan.create", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.actions.WithLabelValues("loan.create", "CONFLICT")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.actions.WithLabelValues("book.add", "INTERNAL")))
}

func TestSetCatalog(t *testing.T) {
	m := New(false)

	m.SetCatalog(domain.Stats{Books: 12, ActiveLoans: 3, OverdueLoans: 1})

	assert.Equal(t, 12.0, testutil.ToFloat64(m.books))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.loans.WithLabelValues("active")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.loans.WithLabelValues("overdue")))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics

	assert.NotPanics(t, func() {
		m.ObserveAction("book.add", nil)
		m.ObserveLoad(LoadOK)
		m.ObservePersistFailure()
		m.ObserveLookup("openlibrary", nil)
		m.ObserveBackup("local", nil)
		m.SetCatalog(domain.Stats{})
	})
}

func TestHandler(t *testing.T) {
	m := New(false)
	m.ObserveLoad(LoadQuarantined)
	m.ObservePersistFailure()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `homelib_state_loads_total{outcome="quarantined"} 1`)
	assert.Contains(t, body, "homelib_persist_failures_total 1")
}
