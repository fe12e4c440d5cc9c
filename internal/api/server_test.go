package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/user/serpclick/internal/monitoring"
	"github.com/user/serpclick/internal/run"
)

func newTestServer(t *testing.T) (*httptest.Server, *run.Tracker) {
	t.Helper()
	tracker := run.NewTracker(2)
	reg := prometheus.NewRegistry()
	monitoring.NewMetrics(reg).IncSearches()

	srv := NewServer("", tracker, reg, zap.NewNop())
	ts := httptest.NewServer(srv.setupRouter(reg))
	t.Cleanup(ts.Close)
	return ts, tracker
}

func TestHealthEndpoint(t *testing.T) {
	ts, _ := newTestServer(t)

	resp, err := http.Get(ts.URL + "/api/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
}

func TestStatusEndpoint(t *testing.T) {
	ts, tracker := newTestServer(t)
	tracker.Record(run.Outcome{Keyword: "hand drip", Status: run.StatusFound, Position: 3, Clicked: true})

	resp, err := http.Get(ts.URL + "/api/status")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var progress run.Progress
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&progress))
	assert.Equal(t, 2, progress.Total)
	assert.Equal(t, 1, progress.Processed)
	require.Len(t, progress.Outcomes, 1)
	assert.Equal(t, "hand drip", progress.Outcomes[0].Keyword)
}

func TestMetricsEndpoint(t *testing.T) {
	ts, _ := newTestServer(t)

	resp, err := http.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
