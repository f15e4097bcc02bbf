package workspace

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"mangarecap/internal/logging"
)

func TestAcquireCreatesLayout(t *testing.T) {
	parent := t.TempDir()
	ws, err := Acquire(parent, logging.NewNop())
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	if !strings.HasPrefix(filepath.Base(ws.Root), DirPrefix) {
		t.Fatalf("unexpected root %q", ws.Root)
	}
	if !strings.HasSuffix(ws.Root, ws.RunID) {
		t.Fatalf("root %q should end with run id %q", ws.Root, ws.RunID)
	}
	for _, dir := range []string{ws.Pages, ws.Panels, ws.Audio, ws.Clips} {
		info, err := os.Stat(dir)
		if err != nil || !info.IsDir() {
			t.Fatalf("expected directory %s: %v", dir, err)
		}
	}

	if err := ws.Cleanup(); err != nil {
		t.Fatalf("Cleanup: %v", err)
	}
	if _, err := os.Stat(ws.Root); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected root removed, stat err=%v", err)
	}
	if err := ws.Cleanup(); err != nil {
		t.Fatalf("second Cleanup: %v", err)
	}
}

func TestAcquireUniquePerRun(t *testing.T) {
	parent := t.TempDir()
	a, err := Acquire(parent, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer a.Cleanup()
	b, err := Acquire(parent, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer b.Cleanup()
	if a.Root == b.Root {
		t.Fatalf("expected distinct roots, both %q", a.Root)
	}
}

func TestCleanStaleOnlyTouchesOldRunDirs(t *testing.T) {
	parent := t.TempDir()
	old := filepath.Join(parent, DirPrefix+"old")
	recent := filepath.Join(parent, DirPrefix+"recent")
	foreign := filepath.Join(parent, "keep-me")
	for _, dir := range []string{old, recent, foreign} {
		if err := os.Mkdir(dir, 0o755); err != nil {
			t.Fatal(err)
		}
	}
	past := time.Now().Add(-48 * time.Hour)
	for _, dir := range []string{old, foreign} {
		if err := os.Chtimes(dir, past, past); err != nil {
			t.Fatal(err)
		}
	}

	result := CleanStale(context.Background(), parent, 24*time.Hour, logging.NewNop())
	if len(result.Errors) != 0 {
		t.Fatalf("unexpected errors: %v", result.Errors)
	}
	if len(result.Removed) != 1 || result.Removed[0] != old {
		t.Fatalf("expected only %s removed, got %v", old, result.Removed)
	}
	for _, dir := range []string{recent, foreign} {
		if _, err := os.Stat(dir); err != nil {
			t.Fatalf("%s should remain: %v", dir, err)
		}
	}
}

func TestCleanStaleMissingParent(t *testing.T) {
	result := CleanStale(context.Background(), filepath.Join(t.TempDir(), "absent"), time.Hour, nil)
	if len(result.Removed) != 0 || len(result.Errors) != 0 {
		t.Fatalf("expected empty result, got %+v", result)
	}
}

func TestLockOutputIsExclusive(t *testing.T) {
	output := filepath.Join(t.TempDir(), "recap.mp4")
	first, err := LockOutput(output)
	if err != nil {
		t.Fatalf("first lock: %v", err)
	}
	if _, err := LockOutput(output); !errors.Is(err, ErrOutputBusy) {
		t.Fatalf("expected ErrOutputBusy, got %v", err)
	}
	if err := first.Release(); err != nil {
		t.Fatalf("Release: %v", err)
	}
	if _, err := os.Stat(output + ".lock"); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected lock file removed, stat err=%v", err)
	}
	again, err := LockOutput(output)
	if err != nil {
		t.Fatalf("relock: %v", err)
	}
	_ = again.Release()
}

func TestPartialPath(t *testing.T) {
	tests := map[string]string{
		"/out/recap.mp4": "/out/recap.partial.mp4",
		"/out/recap":     "/out/recap.partial.mp4",
		"video.mkv":      "video.partial.mkv",
	}
	for input, want := range tests {
		if got := PartialPath(input); got != want {
			t.Errorf("PartialPath(%q) = %q, want %q", input, got, want)
		}
	}
}
