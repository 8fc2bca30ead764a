package security

import (
	"os"
	"path/filepath"
	"testing"
)

func TestValidatePathWithinDirectory(t *testing.T) {
	safeDir := t.TempDir()
	inside := filepath.Join(safeDir, "map.json")
	if err := os.WriteFile(inside, []byte("{}"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	if err := ValidatePathWithinDirectory(inside, safeDir); err != nil {
		t.Errorf("file inside safe dir rejected: %v", err)
	}

	// A file that does not exist yet is still valid if it stays inside.
	if err := ValidatePathWithinDirectory(filepath.Join(safeDir, "new.json"), safeDir); err != nil {
		t.Errorf("new file inside safe dir rejected: %v", err)
	}

	outside := t.TempDir()
	if err := ValidatePathWithinDirectory(filepath.Join(outside, "map.json"), safeDir); err == nil {
		t.Error("file outside safe dir accepted")
	}

	if err := ValidatePathWithinDirectory(filepath.Join(safeDir, "..", "escape.json"), safeDir); err == nil {
		t.Error("dot-dot traversal accepted")
	}
}

func TestValidatePathWithinDirectorySymlinkEscape(t *testing.T) {
	safeDir := t.TempDir()
	target := t.TempDir()

	link := filepath.Join(safeDir, "sneaky")
	if err := os.Symlink(target, link); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}

	if err := ValidatePathWithinDirectory(filepath.Join(link, "map.json"), safeDir); err == nil {
		t.Error("symlinked escape accepted")
	}
}

func TestValidatePathWithinAllowedDirs(t *testing.T) {
	dirA := t.TempDir()
	dirB := t.TempDir()

	if err := ValidatePathWithinAllowedDirs(filepath.Join(dirB, "f.json"), []string{dirA, dirB}); err != nil {
		t.Errorf("path in second allowed dir rejected: %v", err)
	}
	if err := ValidatePathWithinAllowedDirs(filepath.Join(t.TempDir(), "f.json"), []string{dirA, dirB}); err == nil {
		t.Error("path outside all allowed dirs accepted")
	}
	if err := ValidatePathWithinAllowedDirs("f.json", nil); err == nil {
		t.Error("empty allowed dirs accepted")
	}
}

func TestValidateInputPath(t *testing.T) {
	cwd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Getwd: %v", err)
	}
	if err := ValidateInputPath(filepath.Join(cwd, "map.json")); err != nil {
		t.Errorf("path in cwd rejected: %v", err)
	}
	if err := ValidateInputPath(filepath.Join(os.TempDir(), "map.json")); err != nil {
		t.Errorf("path in temp dir rejected: %v", err)
	}
}
