package metrics

import (
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

const namespace = "blogbuilder"

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	stageDuration *prom.HistogramVec
	buildDuration prom.Histogram
	stageResults  *prom.CounterVec
	buildOutcome  *prom.CounterVec
	pagesWritten  prom.Counter
	gistCache     *prom.CounterVec
	gistRetries   prom.Counter
}

// NewPrometheusRecorder constructs and registers Prometheus metrics on reg.
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{
		stageDuration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      "Duration of individual build stages",
			Buckets:   prom.DefBuckets,
		}, []string{"stage"}),
		buildDuration: prom.NewHistogram(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "build_duration_seconds",
			Help:      "Total build duration",
			Buckets:   prom.DefBuckets,
		}),
		stageResults: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "stage_results_total",
			Help:      "Stage result counts by outcome",
		}, []string{"stage", "result"}),
		buildOutcome: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "build_outcomes_total",
			Help:      "Build outcomes by final status",
		}, []string{"outcome"}),
		pagesWritten: prom.NewCounter(prom.CounterOpts{
			Namespace: namespace,
			Name:      "pages_written_total",
			Help:      "Pages written to the destination directory",
		}),
		gistCache: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "gist_cache_lookups_total",
			Help:      "Gist cache lookups by result",
		}, []string{"result"}),
		gistRetries: prom.NewCounter(prom.CounterOpts{
			Namespace: namespace,
			Name:      "gist_fetch_retries_total",
			Help:      "Gist fetches retried after a transient failure",
		}),
	}
	reg.MustRegister(pr.stageDuration, pr.buildDuration, pr.stageResults, pr.buildOutcome, pr.pagesWritten, pr.gistCache, pr.gistRetries)
	return pr
}

func (p *PrometheusRecorder) ObserveStageDuration(stage string, d time.Duration) {
	if p == nil {
		return
	}
	p.stageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

func (p *PrometheusRecorder) ObserveBuildDuration(d time.Duration) {
	if p == nil {
		return
	}
	p.buildDuration.Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncStageResult(stage string, result ResultLabel) {
	if p == nil {
		return
	}
	p.stageResults.WithLabelValues(stage, string(result)).Inc()
}

func (p *PrometheusRecorder) IncBuildOutcome(outcome BuildOutcomeLabel) {
	if p == nil {
		return
	}
	p.buildOutcome.WithLabelValues(string(outcome)).Inc()
}

func (p *PrometheusRecorder) AddPagesWritten(n int) {
	if p == nil || n <= 0 {
		return
	}
	p.pagesWritten.Add(float64(n))
}

func (p *PrometheusRecorder) IncGistCache(hit bool) {
	if p == nil {
		return
	}
	res := "miss"
	if hit {
		res = "hit"
	}
	p.gistCache.WithLabelValues(res).Inc()
}

func (p *PrometheusRecorder) IncGistFetchRetry() {
	if p == nil {
		return
	}
	p.gistRetries.Inc()
}
