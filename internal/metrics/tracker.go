// Package metrics aggregates pipeline timings and error counts in process.
package metrics

import (
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Metric names recorded by the orchestrator. Timings are in seconds.
const (
	ExtractionTime     = "extraction_time"
	InterpretationTime = "interpretation_time"
	AnalysisTotalTime  = "analysis_total_time"
	AnalysisErrors     = "analysis_errors"
	AnswerTime         = "question_answer_time"
	AnswerErrors       = "question_errors"
)

// Stat summarizes every value recorded under one name.
type Stat struct {
	Count   int64   `json:"count"`
	Average float64 `json:"average"`
	Min     float64 `json:"min"`
	Max     float64 `json:"max"`
	sum     float64
}

// Tracker keeps a running count/sum/min/max per metric name. A nil *Tracker
// discards everything.
type Tracker struct {
	mu     sync.Mutex
	stats  map[string]*Stat
	logger *zap.Logger
}

// NewTracker creates an empty Tracker.
func NewTracker(logger *zap.Logger) *Tracker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Tracker{stats: make(map[string]*Stat), logger: logger}
}

// Record adds value under name.
func (t *Tracker) Record(name string, value float64, fields ...zap.Field) {
	if t == nil {
		return
	}
	t.mu.Lock()
	s, ok := t.stats[name]
	if !ok {
		s = &Stat{Min: value, Max: value}
		t.stats[name] = s
	}
	s.Count++
	s.sum += value
	s.Average = s.sum / float64(s.Count)
	s.Min = min(s.Min, value)
	s.Max = max(s.Max, value)
	t.mu.Unlock()

	t.logger.Debug("metric recorded", append(fields, zap.String("metric", name), zap.Float64("value", value))...)
}

// ObserveDuration records d in seconds.
func (t *Tracker) ObserveDuration(name string, d time.Duration, fields ...zap.Field) {
	t.Record(name, d.Seconds(), fields...)
}

// Inc records a single occurrence, for error counters.
func (t *Tracker) Inc(name string, fields ...zap.Field) {
	t.Record(name, 1, fields...)
}

// Summary returns a copy of the aggregates keyed by metric name.
func (t *Tracker) Summary() map[string]Stat {
	out := make(map[string]Stat)
	if t == nil {
		return out
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	for name, s := range t.stats {
		out[name] = *s
	}
	return out
}

// Names returns the recorded metric names in sorted order.
func (t *Tracker) Names() []string {
	summary := t.Summary()
	names := make([]string, 0, len(summary))
	for name := range summary {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
