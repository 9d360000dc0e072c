package commands

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/alecthomas/kong"
	"github.com/stretchr/testify/require"

	ferrors "github.com/OldUser101/tars/internal/foundation/errors"
)

// run parses args like the tars binary and executes the selected command.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var cli CLI
	parser, err := kong.New(&cli,
		kong.Name("tars"),
		kong.Vars{"version": "test"},
		kong.BindTo(t.Context(), (*context.Context)(nil)),
		kong.Exit(func(int) { t.Fatal("unexpected exit") }),
	)
	require.NoError(t, err)
	kctx, err := parser.Parse(args)
	require.NoError(t, err)

	var out bytes.Buffer
	err = kctx.Run(&Global{Out: &out})
	return out.String(), err
}

func writeFile(t *testing.T, path, body string, mode os.FileMode) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
	require.NoError(t, os.WriteFile(path, []byte(body), mode))
}

func TestInit(t *testing.T) {
	dir := t.TempDir()
	out, err := run(t, "init", "--path", dir)
	require.NoError(t, err)
	require.Contains(t, out, dir)

	for _, name := range []string{"content", "static", "template"} {
		st, err := os.Stat(filepath.Join(dir, name))
		require.NoError(t, err)
		require.True(t, st.IsDir())
	}
	require.FileExists(t, filepath.Join(dir, "tars.yaml"))

	_, err = run(t, "init", "-p", dir)
	require.Error(t, err)
	require.True(t, ferrors.HasCategory(err, ferrors.CategoryValidation))

	_, err = run(t, "init", "-p", dir, "--force")
	require.NoError(t, err)
}

func TestBuildAndClean(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	_, err := run(t, "init")
	require.NoError(t, err)
	writeFile(t, filepath.Join(dir, "content", "index.md"), "---\ntitle: Home\n---\n# Hello\n", 0o600)
	writeFile(t, filepath.Join(dir, "template", "default.html"), "<title>{{.Page.Meta.Title}}</title>{{.Page.Content}}", 0o600)

	out, err := run(t, "build")
	require.NoError(t, err)
	require.Contains(t, out, "Built 1 page")

	data, err := os.ReadFile(filepath.Join(dir, "build", "index.html"))
	require.NoError(t, err)
	require.Contains(t, string(data), "<title>Home</title>")
	require.Contains(t, string(data), `<h1 id="hello">Hello</h1>`)

	out, err = run(t, "clean")
	require.NoError(t, err)
	require.Contains(t, out, "Removed")
	require.NoDirExists(t, filepath.Join(dir, "build"))
}

func TestBuild_MissingConfig(t *testing.T) {
	t.Chdir(t.TempDir())
	_, err := run(t, "build")
	require.Error(t, err)
	require.True(t, ferrors.HasCategory(err, ferrors.CategoryConfig))
}

func TestPluginCommands(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("shell plugins")
	}
	dir := t.TempDir()
	t.Chdir(dir)

	script := "#!/bin/sh\nexit 0\n"
	writeFile(t, filepath.Join(dir, "plugin", "ok"), script, 0o700)
	writeFile(t, filepath.Join(dir, "plugin", "bad"), script, 0o700)
	sum := sha256.Sum256([]byte(script))
	good := hex.EncodeToString(sum[:])

	writeFile(t, filepath.Join(dir, "tars.yaml"), `plugin:
  - hook: pre
    name: ok
    hash: `+good+`
  - hook: post
    name: bad
    hash: 00
`, 0o600)

	out, err := run(t, "plugin", "list")
	require.NoError(t, err)
	require.Equal(t, "Name: ok, Hook: pre\nName: bad, Hook: post\n", out)

	out, err = run(t, "plugin", "hash", "ok")
	require.NoError(t, err)
	require.Equal(t, good+"\n", out)

	out, err = run(t, "plugin", "verify")
	require.Error(t, err)
	require.True(t, ferrors.HasCategory(err, ferrors.CategoryIntegrity))
	require.Equal(t, "Verification success for ok\nVerification failed for bad\n", out)

	_, err = run(t, "plugin", "hash", "missing")
	require.True(t, ferrors.HasCategory(err, ferrors.CategoryPluginNotFound))
}
