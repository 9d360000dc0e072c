package build

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/OldUser101/tars/internal/config"
	ferrors "github.com/OldUser101/tars/internal/foundation/errors"
	"github.com/OldUser101/tars/internal/logfields"
	"github.com/OldUser101/tars/internal/metrics"
	"github.com/OldUser101/tars/internal/page"
	"github.com/OldUser101/tars/internal/plugin"
	"github.com/OldUser101/tars/internal/templates"
	"github.com/OldUser101/tars/internal/workspace"
)

// session is the state of a single build. It is created by Build and
// dropped when Build returns.
type session struct {
	id       string
	cfg      *config.Config
	opts     Options
	builder  *Builder
	recorder metrics.Recorder
	report   *Report
	state    State

	sandbox *workspace.Manager
	// Sandbox paths. Each input tree keeps its base name inside the sandbox.
	root        string
	contentDir  string
	templateDir string
	staticDir   string
	outputDir   string

	runner    *plugin.Runner
	templates *templates.Registry
	pages     []*page.Page
}

func newSession(b *Builder) *session {
	id := ""
	if b.opts.IDGenerator != nil {
		id = b.opts.IDGenerator()
	}
	if id == "" {
		id = uuid.NewString()
	}
	runner := plugin.NewRunner(b.cfg.Build.PluginDir, b.SkipVerify(), b.recorder)
	runner.Stdout = b.opts.PluginStdout
	runner.Stderr = b.opts.PluginStderr
	return &session{
		id:       id,
		cfg:      b.cfg,
		opts:     b.opts,
		builder:  b,
		recorder: b.recorder,
		report:   newReport(id),
		state:    StateIdle,
		sandbox:  workspace.NewManager(b.opts.SandboxBase, id),
		runner:   runner,
	}
}

func (s *session) stages() []stageDef {
	return []stageDef{
		{StagePrepareSandbox, stagePrepareSandbox, StateSandboxPrepared},
		{StageClean, stageClean, StateCleaned},
		{StageStageOutput, stageStageOutput, StateOutputStaged},
		{StagePreHooks, hookStage(config.HookPre), StatePreHooksRun},
		{StageLoadTemplates, stageLoadTemplates, StateTemplatesLoaded},
		{StageLoadPages, stageLoadPages, StatePagesLoaded},
		{StageRenderPages, stageRenderPages, StatePagesRendered},
		{StagePostHooks, hookStage(config.HookPost), StatePostHooksRun},
		{StagePublish, stagePublish, StatePublished},
	}
}

// close removes the sandbox and any half-written publish staging tree.
func (s *session) close() {
	if err := s.sandbox.Cleanup(); err != nil {
		slog.Warn("Failed to remove sandbox", logfields.BuildID(s.id), logfields.Error(err))
	}
	if s.state != StateBuilt {
		abortPublish(s.cfg.Build.OutputDir)
	}
}

func stagePrepareSandbox(_ context.Context, s *session) error {
	root, err := s.sandbox.Create()
	if err != nil {
		return ferrors.FileSystemError("failed to create sandbox").WithCause(err).Build()
	}
	b := s.cfg.Build
	s.root = root
	s.contentDir = filepath.Join(root, filepath.Base(b.ContentDir))
	s.templateDir = filepath.Join(root, filepath.Base(b.TemplateDir))
	s.staticDir = filepath.Join(root, filepath.Base(b.StaticDir))
	s.outputDir = filepath.Join(root, filepath.Base(b.OutputDir))

	for _, tree := range []struct{ src, dst string }{
		{b.ContentDir, s.contentDir},
		{b.TemplateDir, s.templateDir},
		{b.StaticDir, s.staticDir},
	} {
		if err := copyTreeIfPresent(tree.src, tree.dst); err != nil {
			return err
		}
	}

	if s.cfg.Path != "" {
		dst := filepath.Join(root, filepath.Base(s.cfg.Path))
		if err := workspace.CopyFile(s.cfg.Path, dst); err != nil {
			return ferrors.FileSystemError("failed to copy configuration into sandbox").WithCause(err).
				WithContext("path", s.cfg.Path).Build()
		}
	}
	slog.Debug("Sandbox prepared", logfields.BuildID(s.id), logfields.Sandbox(root))
	return nil
}

func copyTreeIfPresent(src, dst string) error {
	st, err := os.Stat(src)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		slog.Debug("Input directory absent, skipping", logfields.Path(src))
		return nil
	case err != nil:
		return ferrors.FileSystemError("failed to stat input directory").WithCause(err).
			WithContext("path", src).Build()
	case !st.IsDir():
		return ferrors.FileSystemError("input path is not a directory").WithContext("path", src).Build()
	}
	if err := workspace.CopyTree(src, dst); err != nil {
		return ferrors.FileSystemError("failed to copy into sandbox").WithCause(err).
			WithContext("path", src).Build()
	}
	return nil
}

// stageClean removes leftovers of an interrupted publish. The current
// output stays in place until publish replaces it.
func stageClean(_ context.Context, s *session) error {
	out := s.cfg.Build.OutputDir
	for _, dir := range []string{stagingPath(out), backupPath(out)} {
		if err := os.RemoveAll(dir); err != nil {
			return ferrors.FileSystemError("failed to remove stale publish directory").WithCause(err).
				WithContext("path", dir).Build()
		}
	}
	return nil
}

// stageStageOutput creates the staging output and copies static assets into
// it under the static prefix.
func stageStageOutput(_ context.Context, s *session) error {
	if err := os.MkdirAll(s.outputDir, 0o750); err != nil {
		return ferrors.FileSystemError("failed to create staging output").WithCause(err).
			WithContext("path", s.outputDir).Build()
	}
	if _, err := os.Stat(s.staticDir); errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	dst := filepath.Join(s.outputDir, filepath.FromSlash(s.cfg.Build.StaticPrefix))
	if err := workspace.CopyTree(s.staticDir, dst); err != nil {
		return ferrors.FileSystemError("failed to copy static assets").WithCause(err).
			WithContext("path", s.staticDir).Build()
	}
	n, err := countFiles(s.staticDir)
	if err != nil {
		return ferrors.FileSystemError("failed to count static assets").WithCause(err).
			WithContext("path", s.staticDir).Build()
	}
	s.report.StaticFiles = n
	slog.Debug("Copied static assets", logfields.BuildID(s.id), slog.Int("files", n))
	return nil
}

func countFiles(root string) (int, error) {
	n := 0
	err := filepath.WalkDir(root, func(_ string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			n++
		}
		return nil
	})
	return n, err
}

// hookStage runs every plugin bound to hook in manifest order. The first
// failure stops the hook.
func hookStage(hook config.Hook) stageFunc {
	return func(ctx context.Context, s *session) error {
		env := []string{plugin.EnvOutput + "=" + filepath.Base(s.outputDir)}
		for _, p := range s.cfg.PluginsFor(hook) {
			stage := s.runner.Stage(p, env...)
			if err := stage.Run(ctx, s.root); err != nil {
				return err
			}
			s.report.PluginsRun = append(s.report.PluginsRun, stage.Name())
		}
		return nil
	}
}

func stageLoadTemplates(_ context.Context, s *session) error {
	reg, err := templates.Load(s.templateDir, s.cfg.Site, s.cfg.Extra)
	if err != nil {
		return err
	}
	s.templates = reg
	slog.Debug("Templates loaded", logfields.BuildID(s.id), slog.Int("count", len(reg.Names())))
	return nil
}

func stageLoadPages(ctx context.Context, s *session) error {
	loader := page.NewLoader(s.builder.converter, s.cfg.Site.DefaultTemplate)
	pages, err := loader.Load(ctx, s.contentDir, s.outputDir)
	if err != nil {
		return err
	}
	s.pages = pages
	return nil
}

func stagePublish(_ context.Context, s *session) error {
	return publish(s.outputDir, s.cfg.Build.OutputDir)
}
