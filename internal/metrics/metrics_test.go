package metrics

import (
	"net/http"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Counters(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	m, err := New(reg)
	require.NoError(t, err)

	m.GuardDecision("denied")
	m.GuardDecision("denied")
	m.GuardDecision("authenticated")
	m.Login(LoginSuccess)
	m.HTTPRequest(http.MethodGet, http.StatusFound, 15*time.Millisecond)

	require.Equal(t, 2.0, testutil.ToFloat64(m.guardDecisions.WithLabelValues("denied")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.guardDecisions.WithLabelValues("authenticated")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.logins.WithLabelValues(LoginSuccess)))
	require.Equal(t, 1.0, testutil.ToFloat64(m.httpRequests.WithLabelValues("GET", "302")))
	require.Equal(t, 1, testutil.CollectAndCount(m.httpDuration))
}

func TestMetrics_DoubleRegistrationFails(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	MustNew(reg)

	_, err := New(reg)
	require.Error(t, err)
	require.Panics(t, func() { MustNew(reg) })
}

func TestMetrics_NilReceiverIsNoop(t *testing.T) {
	t.Parallel()

	var m *Metrics
	require.NotPanics(t, func() {
		m.GuardDecision("denied")
		m.Login(LoginError)
		m.HTTPRequest(http.MethodPost, http.StatusOK, time.Millisecond)
	})
}
