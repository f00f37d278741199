package diag

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/baxromumarov/greenpatch"
	"github.com/baxromumarov/greenpatch/metrics"
	"github.com/baxromumarov/greenpatch/primitive"
	"github.com/baxromumarov/greenpatch/providers"
	"github.com/baxromumarov/greenpatch/tpool"
)

func setup(t *testing.T) (*providers.Runtime, *tpool.Pool, *prometheus.Registry) {
	t.Helper()
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	rt, err := providers.Setup(context.Background(), []greenpatch.Option{greenpatch.WithMetrics(m)})
	require.NoError(t, err)

	pool, err := tpool.FromEnvironment(rt.Env, tpool.WithMetrics(m))
	require.NoError(t, err)
	t.Cleanup(pool.Killall)
	return rt, pool, reg
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func TestPrimitivesReportsActivation(t *testing.T) {
	rt, pool, reg := setup(t)
	_, err := rt.Env.Activate(greenpatch.Patch("socket", true))
	require.NoError(t, err)

	w := get(t, NewRouter(Sources{Env: rt.Env, Tracker: rt.Tracker, Pool: pool, Gatherer: reg}), "/primitives")
	require.Equal(t, http.StatusOK, w.Code)

	var rows []PrimitiveStatus
	require.NoError(t, json.NewDecoder(w.Body).Decode(&rows))
	require.Len(t, rows, len(primitive.Names()))

	byName := make(map[string]PrimitiveStatus, len(rows))
	for _, r := range rows {
		byName[r.Name] = r
	}
	assert.True(t, byName["socket"].Active)
	assert.False(t, byName["os"].Active)
	assert.True(t, byName["psycopg"].Installed)
	assert.False(t, byName["MySQLdb"].Installed)
}

func TestThreadsListsGreenThreads(t *testing.T) {
	rt, _, _ := setup(t)
	_, err := rt.Env.Activate(greenpatch.Patch("thread", true))
	require.NoError(t, err)

	threads := greenpatch.MustLookup[primitive.Threads](rt.Env, primitive.Thread)
	release := make(chan struct{})
	th := threads.Start("diag-worker", func(context.Context) { <-release })
	defer func() {
		close(release)
		th.Join(time.Second)
	}()

	w := get(t, NewRouter(Sources{Tracker: rt.Tracker}), "/threads")
	require.Equal(t, http.StatusOK, w.Code)

	var resp ThreadsResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.True(t, resp.Tracking)
	assert.Equal(t, 1, resp.Active)
	require.Len(t, resp.Threads, 1)
	assert.Equal(t, "diag-worker", resp.Threads[0].Name)
	assert.True(t, resp.Threads[0].Alive)
}

func TestOffloadStats(t *testing.T) {
	_, pool, _ := setup(t)

	_, err := pool.Execute(context.Background(), func() (any, error) { return 1, nil })
	require.NoError(t, err)

	w := get(t, NewRouter(Sources{Pool: pool}), "/offload")
	require.Equal(t, http.StatusOK, w.Code)

	var stats tpool.Stats
	require.NoError(t, json.NewDecoder(w.Body).Decode(&stats))
	assert.Equal(t, int64(1), stats.Submitted)
	assert.Equal(t, int64(1), stats.Completed)
}

func TestOffloadWithoutPool(t *testing.T) {
	w := get(t, NewRouter(Sources{}), "/offload")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	rt, _, reg := setup(t)
	_, err := rt.Env.Activate(greenpatch.Patch("os", true))
	require.NoError(t, err)

	w := get(t, NewRouter(Sources{Gatherer: reg}), "/metrics")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `greenpatch_activations_total{primitive="os"} 1`)
}

func TestRootRedirects(t *testing.T) {
	w := get(t, NewRouter(Sources{}), "/")
	assert.Equal(t, http.StatusTemporaryRedirect, w.Code)
	assert.Equal(t, "/primitives", w.Header().Get("Location"))
}
