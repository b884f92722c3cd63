package services

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"
)

func TestStageAndRelease(t *testing.T) {
	staging, err := NewStaging(t.TempDir())
	if err != nil {
		t.Fatalf("NewStaging: %v", err)
	}

	path, release, err := staging.Stage([]byte("staged content"))
	if err != nil {
		t.Fatalf("Stage: %v", err)
	}

	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("staged file unreadable: %v", err)
	}
	if string(got) != "staged content" {
		t.Fatalf("staged content = %q", got)
	}

	release()
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("staged file still present after release: %v", err)
	}

	// Calling release again must be a no-op.
	release()
}

func TestStageUniquePaths(t *testing.T) {
	staging, err := NewStaging(t.TempDir())
	if err != nil {
		t.Fatalf("NewStaging: %v", err)
	}

	p1, r1, err := staging.Stage([]byte("one"))
	if err != nil {
		t.Fatalf("Stage: %v", err)
	}
	defer r1()
	p2, r2, err := staging.Stage([]byte("two"))
	if err != nil {
		t.Fatalf("Stage: %v", err)
	}
	defer r2()

	if p1 == p2 {
		t.Fatalf("concurrent stagings share a path: %s", p1)
	}
}

func TestSweepRemovesOnlyOldFiles(t *testing.T) {
	dir := t.TempDir()
	staging, err := NewStaging(dir)
	if err != nil {
		t.Fatalf("NewStaging: %v", err)
	}

	oldPath := filepath.Join(dir, "orphan")
	if err := os.WriteFile(oldPath, []byte("x"), 0o600); err != nil {
		t.Fatalf("write orphan: %v", err)
	}
	past := time.Now().Add(-2 * time.Hour)
	if err := os.Chtimes(oldPath, past, past); err != nil {
		t.Fatalf("chtimes: %v", err)
	}

	freshPath, release, err := staging.Stage([]byte("fresh"))
	if err != nil {
		t.Fatalf("Stage: %v", err)
	}
	defer release()

	if err := staging.Sweep(time.Hour); err != nil {
		t.Fatalf("Sweep: %v", err)
	}

	if _, err := os.Stat(oldPath); !os.IsNotExist(err) {
		t.Fatalf("orphan survived sweep: %v", err)
	}
	if _, err := os.Stat(freshPath); err != nil {
		t.Fatalf("fresh file removed by sweep: %v", err)
	}
}

// Legacy .doc extraction must not leave staged files behind, whether the
// conversion succeeds or fails.
func TestLegacyDocLeavesNoStagedFiles(t *testing.T) {
	if _, err := exec.LookPath("antiword"); err != nil {
		t.Skip("antiword not installed")
	}

	dir := t.TempDir()
	staging, err := NewStaging(dir)
	if err != nil {
		t.Fatalf("NewStaging: %v", err)
	}
	e := NewExtractor(staging)

	// Garbage bytes: antiword rejects them, the error path still cleans up.
	_, _ = e.ExtractText(context.Background(), []byte("not a doc file"), FormatDocLegacy)

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read staging dir: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("staging dir not empty after extraction: %d file(s)", len(entries))
	}
}
