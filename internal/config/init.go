package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	ferrors "github.com/OldUser101/tars/internal/foundation/errors"
)

const starterHeader = `# tars site configuration.
# Plugins are declared as a list under "plugin", for example:
#
# plugin:
#   - hook: pre
#     name: gen
#     hash: <output of "tars plugin hash gen">
#     mode: fast
`

// Init creates the project skeleton in dir: the content, static and template
// directories plus a starter configuration file. A non-empty dir is refused
// unless force is set. It returns the path of the written configuration.
func Init(dir string, force bool) (string, error) {
	st, err := os.Stat(dir)
	if err != nil || !st.IsDir() {
		return "", ferrors.ValidationError(fmt.Sprintf("directory '%s' does not exist", dir)).
			WithContext("path", dir).Build()
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", ferrors.FileSystemError("failed to read directory").WithCause(err).
			WithContext("path", dir).Build()
	}
	if len(entries) > 0 && !force {
		return "", ferrors.ValidationError(fmt.Sprintf("directory '%s' not empty (use --force to initialize anyway)", dir)).
			WithContext("path", dir).Build()
	}

	cfg := Default()
	for _, sub := range []string{cfg.Build.ContentDir, cfg.Build.StaticDir, cfg.Build.TemplateDir} {
		if err := os.MkdirAll(filepath.Join(dir, sub), 0o755); err != nil {
			return "", ferrors.FileSystemError("failed to create directory").WithCause(err).
				WithContext("path", filepath.Join(dir, sub)).Build()
		}
	}

	var buf bytes.Buffer
	buf.WriteString(starterHeader)
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(cfg); err != nil {
		return "", ferrors.InternalError("failed to encode starter configuration").WithCause(err).Build()
	}
	if err := enc.Close(); err != nil {
		return "", ferrors.InternalError("failed to encode starter configuration").WithCause(err).Build()
	}

	cfgPath := filepath.Join(dir, DefaultFile)
	if err := os.WriteFile(cfgPath, buf.Bytes(), 0o644); err != nil {
		return "", ferrors.FileSystemError("failed to write configuration file").WithCause(err).
			WithContext("path", cfgPath).Build()
	}
	return cfgPath, nil
}
