package metrics

import (
	"testing"
	"time"

	"DIP-EASY/internal/models"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrometheusRecorderCounts(t *testing.T) {
	reg := prom.NewRegistry()
	rec := NewPrometheusRecorder(reg)

	rec.IncStageOutcome(StageRender, models.OutcomeDegraded)
	rec.IncStageOutcome(StageRender, models.OutcomeDegraded)
	rec.IncStageOutcome(StageMerge, models.OutcomeOK)
	rec.IncTransition("validate", "success")
	rec.ObserveStageDuration(StageConvert, 150*time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(rec.stageOutcome.WithLabelValues(StageRender, "degraded")))
	assert.Equal(t, 1.0, testutil.ToFloat64(rec.stageOutcome.WithLabelValues(StageMerge, "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(rec.transitions.WithLabelValues("validate", "success")))

	families, err := reg.Gather()
	require.NoError(t, err)
	assert.Len(t, families, 3)
}

func TestNoopRecorder(t *testing.T) {
	var r Recorder = NoopRecorder{}
	r.IncStageOutcome(StageMerge, models.OutcomeFailed)
	r.ObserveStageDuration(StageMerge, time.Second)
	r.IncTransition("fail", "error")
}
