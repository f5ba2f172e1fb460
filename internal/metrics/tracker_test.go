package metrics_test

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"labassist/internal/metrics"
)

func TestTracker_Summary(t *testing.T) {
	tr := metrics.NewTracker(nil)
	tr.Record("latency", 1.0)
	tr.Record("latency", 2.0)
	tr.Record("latency", 4.5)
	tr.ObserveDuration(metrics.AnswerTime, 1500*time.Millisecond)
	tr.Inc(metrics.AnswerErrors)
	tr.Inc(metrics.AnswerErrors)

	summary := tr.Summary()
	latency := summary["latency"]
	assert.Equal(t, int64(3), latency.Count)
	assert.InDelta(t, 2.5, latency.Average, 1e-9)
	assert.Equal(t, 1.0, latency.Min)
	assert.Equal(t, 4.5, latency.Max)

	assert.InDelta(t, 1.5, summary[metrics.AnswerTime].Average, 1e-9)
	assert.Equal(t, int64(2), summary[metrics.AnswerErrors].Count)
	assert.Equal(t, []string{"latency", metrics.AnswerErrors, metrics.AnswerTime}, tr.Names())
}

func TestTracker_SummaryIsACopy(t *testing.T) {
	tr := metrics.NewTracker(nil)
	tr.Record("x", 1)

	s := tr.Summary()
	tr.Record("x", 3)

	assert.Equal(t, int64(1), s["x"].Count)
	assert.Equal(t, int64(2), tr.Summary()["x"].Count)
}

func TestTracker_NilDiscards(t *testing.T) {
	var tr *metrics.Tracker
	tr.Record("x", 1)
	tr.Inc("y")
	assert.Empty(t, tr.Summary())
	assert.Empty(t, tr.Names())
}

func TestTracker_Concurrent(t *testing.T) {
	tr := metrics.NewTracker(nil)
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			tr.Record("v", float64(i))
		}(i)
	}
	wg.Wait()

	v := tr.Summary()["v"]
	assert.Equal(t, int64(50), v.Count)
	assert.Equal(t, 0.0, v.Min)
	assert.Equal(t, 49.0, v.Max)
	assert.InDelta(t, 24.5, v.Average, 1e-9)
}

func TestTracker_LogsEachValue(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	tr := metrics.NewTracker(zap.New(core))

	tr.Record(metrics.ExtractionTime, 0.25, zap.String("stage", "extraction"))

	entries := logs.FilterMessage("metric recorded").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, metrics.ExtractionTime, fields["metric"])
	assert.Equal(t, 0.25, fields["value"])
	assert.Equal(t, "extraction", fields["stage"])
}
