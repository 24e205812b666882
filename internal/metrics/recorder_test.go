package metrics

import (
	"sync"
	"time"
)

// testRecorder counts calls; it doubles as a compile-time check of the interface.
type testRecorder struct {
	mu             sync.Mutex
	stageDurations map[string]int
	stageResults   map[string]map[ResultLabel]int
	buildDurations int
	buildOutcomes  map[BuildOutcomeLabel]int
	pages          int
	gistHits       int
	gistMisses     int
	gistRetries    int
}

var (
	_ Recorder = (*testRecorder)(nil)
	_ Recorder = NoopRecorder{}
	_ Recorder = (*PrometheusRecorder)(nil)
)

func newTestRecorder() *testRecorder {
	return &testRecorder{
		stageDurations: map[string]int{},
		stageResults:   map[string]map[ResultLabel]int{},
		buildOutcomes:  map[BuildOutcomeLabel]int{},
	}
}

func (t *testRecorder) ObserveStageDuration(stage string, _ time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stageDurations[stage]++
}

func (t *testRecorder) ObserveBuildDuration(_ time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.buildDurations++
}

func (t *testRecorder) IncStageResult(stage string, result ResultLabel) {
	t.mu.Lock()
	defer t.mu.Unlock()
	m, ok := t.stageResults[stage]
	if !ok {
		m = map[ResultLabel]int{}
		t.stageResults[stage] = m
	}
	m[result]++
}

func (t *testRecorder) IncBuildOutcome(outcome BuildOutcomeLabel) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.buildOutcomes[outcome]++
}

func (t *testRecorder) AddPagesWritten(n int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.pages += n
}

func (t *testRecorder) IncGistCache(hit bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if hit {
		t.gistHits++
	} else {
		t.gistMisses++
	}
}

func (t *testRecorder) IncGistFetchRetry() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.gistRetries++
}
