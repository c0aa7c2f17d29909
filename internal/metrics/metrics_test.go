package metrics

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorder_Observe(t *testing.T) {
	registry := prometheus.NewRegistry()
	r := NewRecorderWithRegistry(registry)

	r.Observe("ok", 6, 2*time.Millisecond)
	r.Observe("parse_error", 0, time.Millisecond)

	assert.Equal(t, float64(1), testutil.ToFloat64(r.invocations.WithLabelValues("ok")))
	assert.Equal(t, float64(1), testutil.ToFloat64(r.invocations.WithLabelValues("parse_error")))
	assert.Equal(t, float64(6), testutil.ToFloat64(r.sum))

	count, err := testutil.GatherAndCount(r.Gatherer(), "countstep_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	assert.Same(t, registry, r.Gatherer())
}

func TestRecorder_GathererExposesAllFamilies(t *testing.T) {
	r := NewRecorder()
	r.Observe("ok", 2, time.Millisecond)

	families, err := r.Gatherer().Gather()
	require.NoError(t, err)

	names := make([]string, 0, len(families))
	for _, mf := range families {
		names = append(names, mf.GetName())
	}
	assert.ElementsMatch(t, []string{
		"countstep_invocations_total",
		"countstep_sum",
		"countstep_duration_seconds",
	}, names)
}

func TestRecorder_FailureKeepsSum(t *testing.T) {
	r := NewRecorder()
	r.Observe("ok", 3, time.Millisecond)
	r.Observe("type_mismatch", 0, time.Millisecond)

	assert.Equal(t, float64(3), testutil.ToFloat64(r.sum))
}

func TestRecorder_WriteTextfile(t *testing.T) {
	r := NewRecorder()
	r.Observe("ok", 1, time.Millisecond)

	path := filepath.Join(t.TempDir(), "countstep.prom")
	require.NoError(t, r.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `countstep_invocations_total{outcome="ok"} 1`)
	assert.Contains(t, string(data), "countstep_sum 1")
}

func TestRecorder_WriteTextfileEmptyPath(t *testing.T) {
	assert.NoError(t, NewRecorder().WriteTextfile(""))
}

func TestRecorder_WriteTextfileBadDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", "countstep.prom")
	assert.Error(t, NewRecorder().WriteTextfile(path))
}
