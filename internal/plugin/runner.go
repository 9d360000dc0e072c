package plugin

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"time"

	"github.com/OldUser101/tars/internal/config"
	ferrors "github.com/OldUser101/tars/internal/foundation/errors"
	"github.com/OldUser101/tars/internal/logfields"
	"github.com/OldUser101/tars/internal/metrics"
)

// Environment variables set for every plugin process.
const (
	EnvHook   = "TARS_HOOK"
	EnvOutput = "TARS_OUTPUT"
)

// ErrNoExitCode is wrapped when a plugin process ends without an exit code,
// which happens when it is terminated by a signal.
var ErrNoExitCode = errors.New("process terminated by signal")

// Runner executes manifest plugins.
type Runner struct {
	// PluginDir is the directory plugin names are resolved in.
	PluginDir string
	// SkipVerify disables digest verification.
	SkipVerify bool
	// Stdout and Stderr receive the plugin's output streams. Nil discards.
	Stdout io.Writer
	Stderr io.Writer
	// Env is appended to the inherited environment of every plugin.
	Env []string

	recorder metrics.Recorder
}

// NewRunner returns a Runner that forwards plugin output to the process's
// own stdout and stderr.
func NewRunner(pluginDir string, skipVerify bool, recorder metrics.Recorder) *Runner {
	return &Runner{
		PluginDir:  pluginDir,
		SkipVerify: skipVerify,
		Stdout:     os.Stdout,
		Stderr:     os.Stderr,
		recorder:   metrics.OrNoop(recorder),
	}
}

// Run resolves p, then executes it with sandboxDir as its working directory
// and its extra manifest keys as key=value arguments. The process is killed
// when ctx is canceled.
func (r *Runner) Run(ctx context.Context, p config.Plugin, sandboxDir string) error {
	start := time.Now()
	err := r.run(ctx, p, sandboxDir)
	metrics.OrNoop(r.recorder).ObservePluginDuration(p.Name, string(p.Hook), time.Since(start), err == nil)
	return err
}

func (r *Runner) run(ctx context.Context, p config.Plugin, sandboxDir string) error {
	path, err := Resolve(p, r.PluginDir, r.SkipVerify)
	if err != nil {
		return err
	}

	args := p.Argv()
	cmd := exec.CommandContext(ctx, path, args...)
	cmd.Dir = sandboxDir
	cmd.Env = append(os.Environ(), EnvHook+"="+string(p.Hook))
	cmd.Env = append(cmd.Env, r.Env...)
	cmd.Stdout = r.Stdout
	cmd.Stderr = r.Stderr

	slog.Info("Running plugin", logfields.Plugin(p.Name), logfields.Hook(string(p.Hook)), logfields.Sandbox(sandboxDir))
	slog.Debug("Plugin arguments", logfields.Plugin(p.Name), slog.Any("args", args))

	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return executionError(p, err)
	}
	return nil
}

func executionError(p config.Plugin, err error) error {
	var exitErr *exec.ExitError
	if !errors.As(err, &exitErr) {
		return ferrors.PluginExecutionError(fmt.Sprintf("plugin %s could not be started", p.Name)).WithCause(err).
			WithContext("plugin", p.Name).WithContext("hook", string(p.Hook)).Build()
	}
	code := exitErr.ExitCode()
	if code < 0 {
		return ferrors.PluginExecutionError(fmt.Sprintf("plugin %s failed", p.Name)).
			WithCause(fmt.Errorf("%w: %s", ErrNoExitCode, exitErr.String())).
			WithContext("plugin", p.Name).WithContext("hook", string(p.Hook)).WithContext("signal", exitErr.String()).Build()
	}
	return ferrors.PluginExecutionError(fmt.Sprintf("plugin %s failed with exit code %d", p.Name, code)).WithCause(err).
		WithContext("plugin", p.Name).WithContext("hook", string(p.Hook)).WithContext("exit_code", code).Build()
}

// ExitCode extracts the exit code recorded on a plugin execution error.
func ExitCode(err error) (int, bool) {
	ce, ok := ferrors.AsClassified(err)
	if !ok || ce.Category() != ferrors.CategoryPluginExecution {
		return 0, false
	}
	v, ok := ce.Context().Get("exit_code")
	if !ok {
		return 0, false
	}
	code, ok := v.(int)
	return code, ok
}

// Stage binds p to the runner as a build stage.
func (r *Runner) Stage(p config.Plugin, env ...string) Stage {
	return &pluginStage{runner: r, plugin: p, env: env}
}

type pluginStage struct {
	runner *Runner
	plugin config.Plugin
	env    []string
}

func (s *pluginStage) Name() string { return s.plugin.Name }

func (s *pluginStage) Run(ctx context.Context, sandboxDir string) error {
	r := *s.runner
	r.Env = append(append([]string{}, s.runner.Env...), s.env...)
	return r.Run(ctx, s.plugin, sandboxDir)
}
