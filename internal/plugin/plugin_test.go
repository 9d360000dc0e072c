package plugin

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/OldUser101/tars/internal/config"
	ferrors "github.com/OldUser101/tars/internal/foundation/errors"
)

func requireShell(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell script plugins are not supported on windows")
	}
}

// writePlugin writes an executable shell script and returns its digest.
func writePlugin(t *testing.T, dir, name, script string) string {
	t.Helper()
	body := "#!/bin/sh\n" + script + "\n"
	require.NoError(t, os.MkdirAll(dir, 0o750))
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o755)) //nolint:gosec // test plugin must be executable
	sum := sha256.Sum256([]byte(body))
	return hex.EncodeToString(sum[:])
}

func TestHash(t *testing.T) {
	dir := t.TempDir()
	want := writePlugin(t, dir, "gen", "exit 0")

	got, err := Hash("gen", dir)
	require.NoError(t, err)
	require.Equal(t, want, got)

	_, err = Hash("missing", dir)
	require.True(t, ferrors.HasCategory(err, ferrors.CategoryPluginNotFound))
}

func TestResolve(t *testing.T) {
	dir := t.TempDir()
	sum := writePlugin(t, dir, "gen", "exit 0")

	t.Run("matching hash", func(t *testing.T) {
		path, err := Resolve(config.Plugin{Name: "gen", Hash: sum}, dir, false)
		require.NoError(t, err)
		require.Equal(t, "gen", filepath.Base(path))
	})

	t.Run("hash compare ignores case", func(t *testing.T) {
		_, err := Resolve(config.Plugin{Name: "gen", Hash: strings.ToUpper(sum)}, dir, false)
		require.NoError(t, err)
	})

	t.Run("mismatch", func(t *testing.T) {
		_, err := Resolve(config.Plugin{Name: "gen", Hash: strings.Repeat("0", 64)}, dir, false)
		require.True(t, ferrors.HasCategory(err, ferrors.CategoryIntegrity))
		ce, _ := ferrors.AsClassified(err)
		name, _ := ce.Context().GetString("plugin")
		require.Equal(t, "gen", name)
		actual, _ := ce.Context().GetString("actual")
		require.Equal(t, sum, actual)
	})

	t.Run("mismatch ignored without verification", func(t *testing.T) {
		_, err := Resolve(config.Plugin{Name: "gen", Hash: "bad"}, dir, true)
		require.NoError(t, err)
	})

	t.Run("missing", func(t *testing.T) {
		_, err := Resolve(config.Plugin{Name: "nope"}, dir, true)
		require.True(t, ferrors.HasCategory(err, ferrors.CategoryPluginNotFound))
	})

	t.Run("directory", func(t *testing.T) {
		require.NoError(t, os.Mkdir(filepath.Join(dir, "sub"), 0o750))
		_, err := Resolve(config.Plugin{Name: "sub"}, dir, true)
		require.True(t, ferrors.HasCategory(err, ferrors.CategoryPluginNotFound))
	})
}

func TestResolve_SymlinkEscape(t *testing.T) {
	requireShell(t)
	outside := t.TempDir()
	writePlugin(t, outside, "evil", "exit 0")
	dir := t.TempDir()
	require.NoError(t, os.Symlink(filepath.Join(outside, "evil"), filepath.Join(dir, "gen")))

	_, err := Resolve(config.Plugin{Name: "gen"}, dir, true)
	require.True(t, ferrors.HasCategory(err, ferrors.CategoryPluginNotFound))
}

func TestResolve_SymlinkInside(t *testing.T) {
	requireShell(t)
	dir := t.TempDir()
	writePlugin(t, dir, "real", "exit 0")
	require.NoError(t, os.Symlink("real", filepath.Join(dir, "gen")))

	path, err := Resolve(config.Plugin{Name: "gen"}, dir, true)
	require.NoError(t, err)
	require.Equal(t, "real", filepath.Base(path))
}

func TestRunner_Run(t *testing.T) {
	requireShell(t)
	pluginDir := t.TempDir()
	sandbox := t.TempDir()
	sum := writePlugin(t, pluginDir, "gen", `printf '%s\n' "$@" > args.txt
printf '%s %s' "$TARS_HOOK" "$TARS_OUTPUT" > env.txt
echo done`)

	var stdout bytes.Buffer
	r := NewRunner(pluginDir, false, nil)
	r.Stdout = &stdout
	r.Env = []string{EnvOutput + "=build"}

	p := config.Plugin{
		Hook: config.HookPre,
		Name: "gen",
		Hash: sum,
		Args: []config.Arg{{Key: "zeta", Value: "1"}, {Key: "alpha", Value: "two words"}},
	}
	require.NoError(t, r.Run(t.Context(), p, sandbox))

	args, err := os.ReadFile(filepath.Join(sandbox, "args.txt"))
	require.NoError(t, err)
	require.Equal(t, "zeta=1\nalpha=two words\n", string(args))

	env, err := os.ReadFile(filepath.Join(sandbox, "env.txt"))
	require.NoError(t, err)
	require.Equal(t, "pre build", string(env))
	require.Equal(t, "done\n", stdout.String())
}

func TestRunner_Run_ExitCode(t *testing.T) {
	requireShell(t)
	pluginDir := t.TempDir()
	writePlugin(t, pluginDir, "fail", "exit 3")

	r := NewRunner(pluginDir, true, nil)
	err := r.Run(t.Context(), config.Plugin{Hook: config.HookPost, Name: "fail"}, t.TempDir())
	require.True(t, ferrors.HasCategory(err, ferrors.CategoryPluginExecution))
	code, ok := ExitCode(err)
	require.True(t, ok)
	require.Equal(t, 3, code)
}

func TestRunner_Run_Signal(t *testing.T) {
	requireShell(t)
	pluginDir := t.TempDir()
	writePlugin(t, pluginDir, "die", "kill -9 $$")

	r := NewRunner(pluginDir, true, nil)
	err := r.Run(t.Context(), config.Plugin{Hook: config.HookPre, Name: "die"}, t.TempDir())
	require.ErrorIs(t, err, ErrNoExitCode)
	require.True(t, ferrors.HasCategory(err, ferrors.CategoryPluginExecution))
	_, ok := ExitCode(err)
	require.False(t, ok)
}

func TestRunner_Run_Canceled(t *testing.T) {
	requireShell(t)
	pluginDir := t.TempDir()
	writePlugin(t, pluginDir, "slow", "sleep 10")

	ctx, cancel := context.WithTimeout(t.Context(), 100*time.Millisecond)
	defer cancel()
	r := NewRunner(pluginDir, true, nil)
	err := r.Run(ctx, config.Plugin{Hook: config.HookPre, Name: "slow"}, t.TempDir())
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestRunner_Stage(t *testing.T) {
	requireShell(t)
	pluginDir := t.TempDir()
	sandbox := t.TempDir()
	writePlugin(t, pluginDir, "gen", `printf '%s' "$TARS_OUTPUT" > out.txt`)

	r := NewRunner(pluginDir, true, nil)
	stage := r.Stage(config.Plugin{Hook: config.HookPre, Name: "gen"}, EnvOutput+"=public")
	require.Equal(t, "gen", stage.Name())
	require.NoError(t, stage.Run(t.Context(), sandbox))

	out, err := os.ReadFile(filepath.Join(sandbox, "out.txt"))
	require.NoError(t, err)
	require.Equal(t, "public", string(out))
	require.Empty(t, r.Env)
}
