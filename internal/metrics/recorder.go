package metrics

import "time"

// ResultLabel enumerates stage result categories for counters.
type ResultLabel string

const (
	ResultSuccess  ResultLabel = "success"
	ResultFatal    ResultLabel = "fatal"
	ResultCanceled ResultLabel = "canceled"
)

// BuildOutcomeLabel is the final status of one build.
type BuildOutcomeLabel string

const (
	BuildSuccess  BuildOutcomeLabel = "success"
	BuildFailed   BuildOutcomeLabel = "failed"
	BuildCanceled BuildOutcomeLabel = "canceled"
)

// Recorder defines observability hooks for builds, plugin runs and live
// reload. Implementations may forward to Prometheus or anything else.
type Recorder interface {
	ObserveStageDuration(stage string, d time.Duration)
	IncStageResult(stage string, result ResultLabel)
	ObserveBuildDuration(d time.Duration)
	IncBuildOutcome(outcome BuildOutcomeLabel)
	ObservePluginDuration(plugin, hook string, d time.Duration, success bool)
	AddPagesRendered(n int)
	IncReloadBroadcast(delivered, dropped int)
	SetReloadClients(n int)
}

// NoopRecorder is a Recorder that does nothing (default when metrics not configured).
type NoopRecorder struct{}

func (NoopRecorder) ObserveStageDuration(string, time.Duration)                {}
func (NoopRecorder) IncStageResult(string, ResultLabel)                        {}
func (NoopRecorder) ObserveBuildDuration(time.Duration)                        {}
func (NoopRecorder) IncBuildOutcome(BuildOutcomeLabel)                         {}
func (NoopRecorder) ObservePluginDuration(string, string, time.Duration, bool) {}
func (NoopRecorder) AddPagesRendered(int)                                      {}
func (NoopRecorder) IncReloadBroadcast(int, int)                               {}
func (NoopRecorder) SetReloadClients(int)                                      {}

// OrNoop returns r, or a NoopRecorder when r is nil.
func OrNoop(r Recorder) Recorder {
	if r == nil {
		return NoopRecorder{}
	}
	return r
}
