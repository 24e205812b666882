package workspace

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"git.home.luguber.info/inful/blogbuilder/internal/logfields"
)

// Manager handles one timestamped scratch directory.
type Manager struct {
	baseDir string
	dir     string
	prefix  string
}

// NewManager creates a manager for ephemeral timestamped directories under baseDir.
func NewManager(baseDir, prefix string) *Manager {
	if baseDir == "" {
		baseDir = os.TempDir()
	}
	if prefix == "" {
		prefix = "blogbuilder"
	}
	return &Manager{baseDir: baseDir, prefix: prefix}
}

// Create creates the workspace directory.
func (m *Manager) Create() error {
	if err := os.MkdirAll(m.baseDir, 0o750); err != nil {
		return fmt.Errorf("failed to create workspace base: %w", err)
	}
	pattern := fmt.Sprintf("%s-%s-*", m.prefix, time.Now().Format("20060102-150405"))
	dir, err := os.MkdirTemp(m.baseDir, pattern)
	if err != nil {
		return fmt.Errorf("failed to create workspace directory: %w", err)
	}
	m.dir = dir
	slog.Debug("Created workspace", logfields.Path(dir))
	return nil
}

// Path returns the workspace directory ("" before Create and after Cleanup).
func (m *Manager) Path() string {
	return m.dir
}

// Cleanup removes the workspace. Calling it twice is harmless.
func (m *Manager) Cleanup() error {
	if m.dir == "" {
		return nil
	}
	if err := os.RemoveAll(m.dir); err != nil {
		return fmt.Errorf("failed to cleanup workspace: %w", err)
	}
	slog.Debug("Cleaned up workspace", logfields.Path(m.dir))
	m.dir = ""
	return nil
}
