package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestObserveRequest(t *testing.T) {
	m := New()
	m.ObserveRequest(http.MethodGet, "/api/brands", http.StatusOK, 10*time.Millisecond)
	m.ObserveRequest(http.MethodGet, "/api/brands", http.StatusOK, 20*time.Millisecond)
	m.ObserveRequest(http.MethodGet, "", http.StatusNotFound, time.Millisecond)

	require.Equal(t, 2.0, testutil.ToFloat64(m.httpRequests.WithLabelValues("GET", "/api/brands", "200")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.httpRequests.WithLabelValues("GET", "unmatched", "404")))
}

func TestRequestStartedTracksInFlight(t *testing.T) {
	m := New()
	done := m.RequestStarted()
	require.Equal(t, 1.0, testutil.ToFloat64(m.httpInFlight))
	done()
	require.Equal(t, 0.0, testutil.ToFloat64(m.httpInFlight))
}

func TestObserveAuthorization(t *testing.T) {
	m := New()
	m.ObserveAuthorization("view_brands", true)
	m.ObserveAuthorization("delete_users", false)
	m.ObserveAuthorization("delete_users", false)

	require.Equal(t, 1.0, testutil.ToFloat64(m.authzDecisions.WithLabelValues("view_brands", "allowed")))
	require.Equal(t, 2.0, testutil.ToFloat64(m.authzDecisions.WithLabelValues("delete_users", "denied")))
}

func TestHandlerExposesRegistry(t *testing.T) {
	m := New()
	m.ObserveAuthorization("view_orders", true)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `erp_authorization_decisions_total{permission="view_orders",result="allowed"} 1`)
}
