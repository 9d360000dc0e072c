package build

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	ferrors "github.com/OldUser101/tars/internal/foundation/errors"
	"github.com/OldUser101/tars/internal/logfields"
	"github.com/OldUser101/tars/internal/metrics"
)

// StageName is a typed identifier for a build stage.
type StageName string

const (
	StagePrepareSandbox StageName = "prepare_sandbox"
	StageClean          StageName = "clean"
	StageStageOutput    StageName = "stage_output"
	StagePreHooks       StageName = "pre_hooks"
	StageLoadTemplates  StageName = "load_templates"
	StageLoadPages      StageName = "load_pages"
	StageRenderPages    StageName = "render_pages"
	StagePostHooks      StageName = "post_hooks"
	StagePublish        StageName = "publish"
)

// StageErrorKind classifies how a stage failed.
type StageErrorKind string

const (
	StageErrorFatal    StageErrorKind = "fatal"
	StageErrorCanceled StageErrorKind = "canceled"
)

// StageError reports the stage a build aborted in. Err is the cause.
type StageError struct {
	Kind  StageErrorKind
	Stage StageName
	Err   error
}

func (e *StageError) Error() string { return fmt.Sprintf("%s stage %s: %v", e.Kind, e.Stage, e.Err) }
func (e *StageError) Unwrap() error { return e.Err }

// stageFunc executes one stage against the session.
type stageFunc func(ctx context.Context, s *session) error

// stageDef pairs a stage with the state a session reaches once it succeeds.
type stageDef struct {
	Name StageName
	Fn   stageFunc
	Done State
}

// runStages executes stages in order and stops at the first failure. The
// context is checked before every stage.
func runStages(ctx context.Context, s *session, stages []stageDef) error {
	rec := s.recorder
	for _, st := range stages {
		if err := ctx.Err(); err != nil {
			rec.IncStageResult(string(st.Name), metrics.ResultCanceled)
			return &StageError{Kind: StageErrorCanceled, Stage: st.Name, Err: err}
		}

		slog.Debug("Stage started", logfields.BuildID(s.id), logfields.Stage(string(st.Name)))
		t0 := time.Now()
		err := st.Fn(ctx, s)
		dur := time.Since(t0)

		s.report.StageDurations[st.Name] = dur
		rec.ObserveStageDuration(string(st.Name), dur)

		if err != nil {
			kind := StageErrorFatal
			result := metrics.ResultFatal
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				kind = StageErrorCanceled
				result = metrics.ResultCanceled
			} else if !ferrors.IsClassified(err) {
				err = ferrors.BuildError("build stage failed").WithCause(err).
					WithContext("stage", string(st.Name)).Build()
			}
			rec.IncStageResult(string(st.Name), result)
			return &StageError{Kind: kind, Stage: st.Name, Err: err}
		}

		rec.IncStageResult(string(st.Name), metrics.ResultSuccess)
		s.state = st.Done
		slog.Debug("Stage finished",
			logfields.BuildID(s.id),
			logfields.Stage(string(st.Name)),
			logfields.Since(t0))
	}
	return nil
}
