// Package plugin resolves, verifies and runs hook plugins: native
// executables that live in the site's plugin directory and run as
// subprocesses inside a build sandbox.
package plugin

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/OldUser101/tars/internal/config"
	ferrors "github.com/OldUser101/tars/internal/foundation/errors"
)

// Stage is an external build step. It receives the sandbox directory as its
// working directory and reports failure through the returned error.
type Stage interface {
	Name() string
	Run(ctx context.Context, sandboxDir string) error
}

// Hash returns the lowercase hex SHA-256 digest of pluginDir/name.
func Hash(name, pluginDir string) (string, error) {
	path := filepath.Join(pluginDir, name)
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", notFound(name, path, err)
		}
		return "", ferrors.FileSystemError("failed to open plugin").WithCause(err).
			WithContext("plugin", name).WithContext("path", path).Build()
	}
	defer func() { _ = f.Close() }()
	return digest(name, path, f)
}

func digest(name, path string, r io.Reader) (string, error) {
	h := sha256.New()
	if _, err := io.Copy(h, r); err != nil {
		return "", ferrors.FileSystemError("failed to read plugin").WithCause(err).
			WithContext("plugin", name).WithContext("path", path).Build()
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// Resolve canonicalizes the executable for p inside pluginDir. The result
// must be a regular file inside the canonical plugin directory; otherwise the
// plugin is not found. Unless skipVerify is set its digest must match p.Hash.
func Resolve(p config.Plugin, pluginDir string, skipVerify bool) (string, error) {
	dir, err := filepath.EvalSymlinks(pluginDir)
	if err != nil {
		return "", notFound(p.Name, pluginDir, err)
	}
	dir, err = filepath.Abs(dir)
	if err != nil {
		return "", notFound(p.Name, pluginDir, err)
	}

	path, err := filepath.EvalSymlinks(filepath.Join(dir, p.Name))
	if err != nil {
		return "", notFound(p.Name, filepath.Join(pluginDir, p.Name), err)
	}
	if !inside(dir, path) {
		return "", notFound(p.Name, path, fmt.Errorf("resolves outside plugin directory %s", dir))
	}
	st, err := os.Stat(path)
	if err != nil {
		return "", notFound(p.Name, path, err)
	}
	if !st.Mode().IsRegular() {
		return "", notFound(p.Name, path, errors.New("not a regular file"))
	}

	if skipVerify {
		return path, nil
	}
	actual, err := Hash(filepath.Base(path), filepath.Dir(path))
	if err != nil {
		return "", err
	}
	if !strings.EqualFold(actual, p.Hash) {
		return "", ferrors.IntegrityError(fmt.Sprintf("plugin %s hash mismatch", p.Name)).
			WithContext("plugin", p.Name).
			WithContext("expected", p.Hash).
			WithContext("actual", actual).
			Build()
	}
	return path, nil
}

func notFound(name, path string, cause error) error {
	return ferrors.PluginNotFoundError(fmt.Sprintf("plugin %s not found", name)).WithCause(cause).
		WithContext("plugin", name).WithContext("path", path).Build()
}

// inside reports whether path lies strictly beneath dir.
func inside(dir, path string) bool {
	rel, err := filepath.Rel(dir, path)
	if err != nil || rel == "." || rel == ".." {
		return false
	}
	return !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
