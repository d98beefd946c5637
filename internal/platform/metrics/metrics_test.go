package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scrape(t *testing.T, m *Metrics) string {
	t.Helper()
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	return rec.Body.String()
}

func TestMetrics_Counters(t *testing.T) {
	t.Parallel()

	m := New()
	m.Poll("ok")
	m.Poll("ok")
	m.Poll("error")
	m.Advance("stale_timeout")
	m.CacheLookup(true)
	m.CacheLookup(false)
	m.CacheLookup(false)
	m.Fetch(20*time.Millisecond, errors.New("x"))

	body := scrape(t, m)
	assert.Contains(t, body, `courtsync_polls_total{result="ok"} 2`)
	assert.Contains(t, body, `courtsync_polls_total{result="error"} 1`)
	assert.Contains(t, body, `courtsync_advances_total{reason="stale_timeout"} 1`)
	assert.Contains(t, body, `courtsync_cache_requests_total{result="miss"} 2`)
	assert.Contains(t, body, `courtsync_fetch_duration_seconds_count{result="error"} 1`)
}

func TestMetrics_HandlerExposesNamespace(t *testing.T) {
	t.Parallel()

	m := New()
	m.SmartSwitch()

	assert.True(t, strings.Contains(scrape(t, m), "courtsync_smart_switches_total 1"))
}

func TestMetrics_NilIsNoop(t *testing.T) {
	t.Parallel()

	var m *Metrics
	assert.NotPanics(t, func() {
		m.Poll("ok")
		m.Advance("final")
		m.SmartSwitch()
		m.Reassignment()
		m.WatchdogRestart()
		m.Fetch(time.Second, nil)
		m.CacheLookup(true)
	})
}
