package preflight

import (
	"os"
	"path/filepath"
	"testing"
)

func TestCheckDirectoryAccess(t *testing.T) {
	dir := t.TempDir()
	result := CheckDirectoryAccess("Staging directory", dir)
	if !result.Passed {
		t.Fatalf("writable temp dir should pass: %+v", result)
	}

	missing := CheckDirectoryAccess("Staging directory", filepath.Join(dir, "nope"))
	if missing.Passed {
		t.Fatalf("missing dir should fail: %+v", missing)
	}

	file := filepath.Join(dir, "file")
	if err := os.WriteFile(file, []byte("x"), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}
	notDir := CheckDirectoryAccess("Staging directory", file)
	if notDir.Passed {
		t.Fatalf("plain file should fail: %+v", notDir)
	}
}

func TestCheckDiskSpace(t *testing.T) {
	dir := t.TempDir()
	ok := CheckDiskSpace("Disk", dir, 1)
	if !ok.Passed {
		t.Fatalf("one byte of headroom should pass: %+v", ok)
	}

	huge := CheckDiskSpace("Disk", dir, 1<<62)
	if huge.Passed {
		t.Fatalf("absurd requirement should fail: %+v", huge)
	}
}
