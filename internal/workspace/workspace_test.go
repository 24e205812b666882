package workspace

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestManager_EphemeralMode(t *testing.T) {
	mgr := NewManager(t.TempDir(), "publish")

	if err := mgr.Create(); err != nil {
		t.Fatalf("Create() failed: %v", err)
	}
	wsPath := mgr.Path()
	if wsPath == "" {
		t.Fatal("Path() returned empty string")
	}
	if !strings.HasPrefix(filepath.Base(wsPath), "publish-") {
		t.Errorf("Expected prefixed timestamped directory, got: %s", wsPath)
	}
	if _, err := os.Stat(wsPath); err != nil {
		t.Fatalf("Workspace directory does not exist: %v", err)
	}

	if err := mgr.Cleanup(); err != nil {
		t.Fatalf("Cleanup() failed: %v", err)
	}
	if _, err := os.Stat(wsPath); !os.IsNotExist(err) {
		t.Errorf("Workspace directory still exists after cleanup: %s", wsPath)
	}
	if mgr.Path() != "" {
		t.Errorf("Path() should be empty after cleanup")
	}
}

func TestManager_TwoEphemeralWorkspacesDoNotCollide(t *testing.T) {
	base := t.TempDir()
	a, b := NewManager(base, ""), NewManager(base, "")
	if err := a.Create(); err != nil {
		t.Fatal(err)
	}
	if err := b.Create(); err != nil {
		t.Fatal(err)
	}
	if a.Path() == b.Path() {
		t.Fatalf("expected distinct workspaces, both at %s", a.Path())
	}
}

func TestManager_CleanupTwice(t *testing.T) {
	mgr := NewManager(t.TempDir(), "")
	if err := mgr.Cleanup(); err != nil {
		t.Fatalf("Cleanup() before Create failed: %v", err)
	}
	if err := mgr.Create(); err != nil {
		t.Fatal(err)
	}
	if err := mgr.Cleanup(); err != nil {
		t.Fatalf("Cleanup() failed: %v", err)
	}
	if err := mgr.Cleanup(); err != nil {
		t.Fatalf("second Cleanup() failed: %v", err)
	}
}

func TestManager_DefaultsToTempDir(t *testing.T) {
	mgr := NewManager("", "")
	if err := mgr.Create(); err != nil {
		t.Fatal(err)
	}
	defer func() { _ = mgr.Cleanup() }()
	if !strings.HasPrefix(mgr.Path(), os.TempDir()) {
		t.Errorf("expected workspace under %s, got %s", os.TempDir(), mgr.Path())
	}
	if !strings.HasPrefix(filepath.Base(mgr.Path()), "blogbuilder-") {
		t.Errorf("expected default prefix, got %s", mgr.Path())
	}
}
