package workspace

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/OldUser101/tars/internal/logfields"
)

// Manager owns one sandbox directory.
type Manager struct {
	baseDir string
	id      string
	dir     string
}

// NewManager creates a manager whose sandbox will live under baseDir, or the
// system temp directory when baseDir is empty. id names the sandbox; a new
// UUID is used when id is empty.
func NewManager(baseDir, id string) *Manager {
	if baseDir == "" {
		baseDir = os.TempDir()
	}
	if id == "" {
		id = uuid.NewString()
	}
	return &Manager{baseDir: baseDir, id: id}
}

// Create makes the sandbox directory. Calling Create twice is an error.
func (m *Manager) Create() (string, error) {
	if m.dir != "" {
		return "", fmt.Errorf("sandbox already created at %s", m.dir)
	}
	dir := filepath.Join(m.baseDir, "tars-"+m.id)
	if err := os.Mkdir(dir, 0o700); err != nil {
		return "", fmt.Errorf("failed to create sandbox directory: %w", err)
	}
	m.dir = dir
	slog.Debug("Created sandbox", logfields.BuildID(m.id), logfields.Sandbox(dir))
	return dir, nil
}

// Cleanup removes the sandbox and everything in it. It is a no-op when
// nothing was created.
func (m *Manager) Cleanup() error {
	if m.dir == "" {
		return nil
	}
	if err := os.RemoveAll(m.dir); err != nil {
		return fmt.Errorf("failed to remove sandbox: %w", err)
	}
	slog.Debug("Removed sandbox", logfields.BuildID(m.id), logfields.Sandbox(m.dir))
	m.dir = ""
	return nil
}
