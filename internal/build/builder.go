package build

import (
	"context"
	"io"
	"log/slog"
	"os"

	"github.com/OldUser101/tars/internal/config"
	ferrors "github.com/OldUser101/tars/internal/foundation/errors"
	"github.com/OldUser101/tars/internal/logfields"
	"github.com/OldUser101/tars/internal/markdown"
	"github.com/OldUser101/tars/internal/metrics"
)

// Options tune a Builder.
type Options struct {
	// NoVerify disables plugin digest checks. It is combined with the
	// configuration's build.no_verify.
	NoVerify bool
	// PageSuffix is appended verbatim to every generated page.
	PageSuffix string
	// SandboxBase is the directory sandboxes are created in. Empty means the
	// system temp directory.
	SandboxBase string
	// PluginStdout and PluginStderr receive plugin output. Nil means the
	// process's own streams.
	PluginStdout io.Writer
	PluginStderr io.Writer
	Recorder     metrics.Recorder
	// IDGenerator returns the ID of each new session. Nil uses random UUIDs.
	IDGenerator func() string
}

// Builder builds one site. It keeps no state between builds; every Build
// starts a new session from the files on disk. A Builder must not run
// two builds at once.
type Builder struct {
	cfg       *config.Config
	opts      Options
	converter *markdown.Converter
	recorder  metrics.Recorder
}

// New returns a Builder for cfg.
func New(cfg *config.Config, opts Options) *Builder {
	if opts.PluginStdout == nil {
		opts.PluginStdout = os.Stdout
	}
	if opts.PluginStderr == nil {
		opts.PluginStderr = os.Stderr
	}
	return &Builder{
		cfg:       cfg,
		opts:      opts,
		converter: markdown.New(markdown.WithUnsafeHTML()),
		recorder:  metrics.OrNoop(opts.Recorder),
	}
}

// Config returns the configuration the builder was created with.
func (b *Builder) Config() *config.Config {
	return b.cfg
}

// SkipVerify reports whether plugin digests are ignored.
func (b *Builder) SkipVerify() bool {
	return b.opts.NoVerify || b.cfg.Build.NoVerify
}

// Build runs one full build session. The report is returned even when the
// build fails.
func (b *Builder) Build(ctx context.Context) (*Report, error) {
	s := newSession(b)
	defer s.close()

	slog.Info("Build started", logfields.BuildID(s.id), logfields.Output(b.cfg.Build.OutputDir))
	err := runStages(ctx, s, s.stages())
	if err != nil {
		s.state = StateFailed
	} else {
		s.state = StateBuilt
	}
	s.report.finish(s.state, err)

	b.recorder.ObserveBuildDuration(s.report.Duration())
	b.recorder.IncBuildOutcome(s.report.Outcome)
	if err != nil {
		slog.Warn("Build failed",
			logfields.BuildID(s.id),
			logfields.Stage(string(s.report.FailedStage)),
			logfields.Error(err))
		return s.report, err
	}
	b.recorder.AddPagesRendered(s.report.PagesRendered)
	slog.Info("Build finished",
		logfields.BuildID(s.id),
		slog.Int("pages", s.report.PagesRendered),
		slog.Int("drafts_skipped", s.report.DraftsSkipped),
		logfields.DurationMS(float64(s.report.Duration().Microseconds())/1000))
	return s.report, nil
}

// Rebuild runs a fresh Build. Pages and templates of earlier sessions are
// never reused.
func (b *Builder) Rebuild(ctx context.Context) (*Report, error) {
	return b.Build(ctx)
}

// Clean removes the output directory and any leftovers of an interrupted
// publish.
func (b *Builder) Clean() error {
	out := b.cfg.Build.OutputDir
	for _, dir := range []string{out, stagingPath(out), backupPath(out)} {
		if err := os.RemoveAll(dir); err != nil {
			return ferrors.FileSystemError("failed to remove output").WithCause(err).
				WithContext("path", dir).Build()
		}
	}
	slog.Info("Removed output directory", logfields.Output(out))
	return nil
}
