package build

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/OldUser101/tars/internal/metrics"
)

// Report summarizes one build session.
type Report struct {
	ID    string
	Start time.Time
	End   time.Time
	// State is the last state the session reached: StateBuilt or StateFailed.
	State State
	// FailedStage is set when the build aborted.
	FailedStage StageName
	Outcome     metrics.BuildOutcomeLabel

	StageDurations map[StageName]time.Duration

	PagesRendered int
	DraftsSkipped int
	StaticFiles   int
	// PluginsRun lists the plugins that completed, in execution order.
	PluginsRun []string
}

func newReport(id string) *Report {
	return &Report{
		ID:             id,
		Start:          time.Now(),
		State:          StateIdle,
		StageDurations: make(map[StageName]time.Duration),
	}
}

// Duration is the wall time of the build.
func (r *Report) Duration() time.Duration {
	if r.End.IsZero() {
		return time.Since(r.Start)
	}
	return r.End.Sub(r.Start)
}

func (r *Report) finish(state State, err error) {
	r.End = time.Now()
	r.State = state
	if err == nil {
		r.Outcome = metrics.BuildSuccess
		return
	}
	r.Outcome = metrics.BuildFailed
	var se *StageError
	if errors.As(err, &se) {
		r.FailedStage = se.Stage
		if se.Kind == StageErrorCanceled {
			r.Outcome = metrics.BuildCanceled
		}
	}
}

// Summary renders a one-line description of the build result.
func (r *Report) Summary() string {
	var b strings.Builder
	if r.Outcome == metrics.BuildSuccess {
		fmt.Fprintf(&b, "Built %d %s", r.PagesRendered, plural(r.PagesRendered, "page", "pages"))
	} else {
		fmt.Fprintf(&b, "Build %s in stage %s", r.Outcome, r.FailedStage)
	}
	var extras []string
	if r.DraftsSkipped > 0 {
		extras = append(extras, fmt.Sprintf("%d %s skipped", r.DraftsSkipped, plural(r.DraftsSkipped, "draft", "drafts")))
	}
	if r.StaticFiles > 0 {
		extras = append(extras, fmt.Sprintf("%d static %s", r.StaticFiles, plural(r.StaticFiles, "file", "files")))
	}
	if n := len(r.PluginsRun); n > 0 {
		extras = append(extras, fmt.Sprintf("%d %s", n, plural(n, "plugin", "plugins")))
	}
	if len(extras) > 0 {
		fmt.Fprintf(&b, " (%s)", strings.Join(extras, ", "))
	}
	fmt.Fprintf(&b, " in %s", r.Duration().Round(time.Millisecond))
	return b.String()
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
