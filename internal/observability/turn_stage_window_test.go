package observability

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTurnStageWindowSnapshot(t *testing.T) {
	w := newTurnStageWindow(8)
	w.Observe(StageInvoking, 500)
	w.Observe(StageInvoking, 700)
	w.Observe(StageInvoking, 900)
	w.ObserveIndicator("inference_unavailable")
	w.ObserveIndicator("inference_unavailable")

	snap := w.Snapshot()
	assert.Equal(t, 8, snap.WindowSize)
	require.Len(t, snap.Stages, 1)

	s := snap.Stages[0]
	assert.Equal(t, StageInvoking, s.Stage)
	assert.Equal(t, 3, s.Samples)
	assert.Equal(t, 900.0, s.LastMS)
	assert.Equal(t, 700.0, s.P50MS)
	assert.Greater(t, s.P95MS, 700.0)
	assert.LessOrEqual(t, s.P95MS, 900.0)
	assert.Equal(t, 6000.0, s.TargetP95MS)

	require.Len(t, snap.Indicators, 1)
	assert.Equal(t, TurnIndicator{Name: "inference_unavailable", Count: 2}, snap.Indicators[0])
}

func TestTurnStageWindowWrapsAndResets(t *testing.T) {
	w := newTurnStageWindow(2)
	w.Observe(StageWarming, 1)
	w.Observe(StageWarming, 2)
	w.Observe(StageWarming, 30)
	w.Observe("", 5)
	w.Observe(StageAssembling, -1)

	snap := w.Snapshot()
	require.Len(t, snap.Stages, 1)
	assert.Equal(t, 2, snap.Stages[0].Samples)
	assert.Equal(t, 16.0, snap.Stages[0].AvgMS)

	w.Reset()
	assert.Empty(t, w.Snapshot().Stages)
}

func TestMetricsObserveTurnAndBuild(t *testing.T) {
	m := NewMetrics("obs_test_metrics")
	m.ObserveTurn("success")
	m.ObserveTurn("success")
	m.ObserveTurn("canceled")
	m.ObserveContextBuild(20*time.Millisecond, nil)
	m.ObserveContextBuild(time.Millisecond, errors.New("down"))
	m.ObserveStage(StageTurnTotal, 40*time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.TurnsTotal.WithLabelValues("success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.TurnsTotal.WithLabelValues("canceled")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ContextBuilds.WithLabelValues("error")))

	snap := m.SnapshotTurnStages()
	require.Len(t, snap.Stages, 1)
	assert.Equal(t, StageTurnTotal, snap.Stages[0].Stage)
	assert.Equal(t, 40.0, snap.Stages[0].LastMS)
}
