package metrics_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/estokealo/estokealo/internal/metrics"
)

func TestInstrument_LabelsByRoutePattern(t *testing.T) {
	m := metrics.New("test")
	r := chi.NewRouter()
	r.Use(m.Instrument)
	r.Get("/company/roles/{role_id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	for _, id := range []string{"1", "2", "3"} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/company/roles/"+id, nil))
		require.Equal(t, http.StatusNoContent, rec.Code)
	}

	expected := `
# HELP estokealo_http_requests_total Total number of HTTP requests.
# TYPE estokealo_http_requests_total counter
estokealo_http_requests_total{method="GET",route="/company/roles/{role_id}",status="204"} 3
`
	assert.NoError(t, testutil.GatherAndCompare(m.Registry(), strings.NewReader(expected), "estokealo_http_requests_total"))
}

func TestObserve_CountsAuthEvents(t *testing.T) {
	m := metrics.New("test")

	m.Observe("login", "success")
	m.Observe("login", "success")
	m.Observe("login", "FORBIDDEN")

	expected := `
# HELP estokealo_auth_events_total Authentication flow operations by outcome.
# TYPE estokealo_auth_events_total counter
estokealo_auth_events_total{operation="login",outcome="FORBIDDEN"} 1
estokealo_auth_events_total{operation="login",outcome="success"} 2
`
	assert.NoError(t, testutil.GatherAndCompare(m.Registry(), strings.NewReader(expected), "estokealo_auth_events_total"))
}

func TestHandler_ServesExposition(t *testing.T) {
	m := metrics.New("1.2.3")
	rec := httptest.NewRecorder()

	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `estokealo_build_info{version="1.2.3"} 1`)
}
