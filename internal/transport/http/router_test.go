package httptransport

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vatcheck/internal/verification/metrics"
	"vatcheck/internal/verification/ports"
	"vatcheck/internal/verification/progress"
)

func TestRouter(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	m.IncrementVerdict("MATCH")

	tracker := progress.NewTracker()
	tracker.BatchCompleted(context.Background(), ports.ProgressEvent{RunID: "run-1", BatchIndex: 0, TotalBatches: 2})

	srv := httptest.NewServer(NewRouter(NewHandler(reg, tracker)))
	t.Cleanup(srv.Close)

	t.Run("healthz", func(t *testing.T) {
		resp, err := http.Get(srv.URL + "/healthz")
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
	})

	t.Run("metrics", func(t *testing.T) {
		resp, err := http.Get(srv.URL + "/metrics")
		require.NoError(t, err)
		defer resp.Body.Close()

		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Contains(t, string(body), `vatcheck_verdicts_total{verdict="MATCH"} 1`)
	})

	t.Run("status", func(t *testing.T) {
		resp, err := http.Get(srv.URL + "/status")
		require.NoError(t, err)
		defer resp.Body.Close()

		var snap progress.Snapshot
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&snap))
		assert.Equal(t, "run-1", snap.RunID)
		assert.Equal(t, 50, snap.Percent)
	})

	t.Run("wrong method", func(t *testing.T) {
		resp, err := http.Post(srv.URL+"/healthz", "application/json", nil)
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
	})
}

func TestStatusWithoutSource(t *testing.T) {
	w := httptest.NewRecorder()
	NewRouter(NewHandler(prometheus.NewRegistry(), nil)).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/status", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"started":false,"completed_batches":0,"total_batches":0,"percent":0,"eta_seconds":0,"failed_batches":0}`, w.Body.String())
}
