// Package metrics provides build, stage and gist metrics for blogbuilder.
//
// Components receive a Recorder through dependency injection and default to
// NoopRecorder, so metrics never need nil checks at call sites:
//
//	builder := pipeline.NewBuilder(cfg, pipeline.WithRecorder(metrics.NoopRecorder{}))
//
// The serve command swaps in a PrometheusRecorder and exposes it on /metrics:
//
//	reg := prometheus.NewRegistry()
//	recorder := metrics.NewPrometheusRecorder(reg)
//	mux.Handle("/metrics", metrics.HTTPHandler(reg))
package metrics
