// Package metrics provides build and dev-server observability for tars.
//
// Components receive a Recorder and default to NoopRecorder, so metrics cost
// nothing unless a real implementation is injected:
//
//	reg := prometheus.NewRegistry()
//	rec := metrics.NewPrometheusRecorder(reg)
//	b := build.New(cfg, build.Options{Recorder: rec})
//	mux.Handle("/metrics", metrics.HTTPHandler(reg))
//
// The dev server wires a PrometheusRecorder and exposes it at /metrics; the
// one-shot build command uses NoopRecorder.
package metrics
