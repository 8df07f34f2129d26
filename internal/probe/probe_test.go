package probe

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
)

func writeFile(t *testing.T, path string, size int) {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir error: %v", err)
	}

	if err := os.WriteFile(path, []byte(strings.Repeat("x", size)), 0o644); err != nil {
		t.Fatalf("write error: %v", err)
	}
}

func TestMeasureSumsNestedFiles(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "Cargo.toml"), 10)
	writeFile(t, filepath.Join(root, "src", "lib.rs"), 100)
	writeFile(t, filepath.Join(root, "src", "a", "b", "c.rs"), 7)

	if err := os.MkdirAll(filepath.Join(root, "empty"), 0o755); err != nil {
		t.Fatalf("mkdir error: %v", err)
	}

	got, err := Measure(context.Background(), root)
	if err != nil {
		t.Fatalf("measure error: %v", err)
	}

	if got != 117 {
		t.Fatalf("expected 117 bytes, got %d", got)
	}
}

func TestMeasureMissingRoot(t *testing.T) {
	got, err := Measure(context.Background(), filepath.Join(t.TempDir(), "gone"))
	if err != nil {
		t.Fatalf("missing root must not fail: %v", err)
	}

	if got != 0 {
		t.Fatalf("expected 0 bytes, got %d", got)
	}
}

func TestMeasureRegularFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "serde-1.0.0.crate")
	writeFile(t, path, 42)

	got, err := Measure(context.Background(), path)
	if err != nil {
		t.Fatalf("measure error: %v", err)
	}

	if got != 42 {
		t.Fatalf("expected 42 bytes, got %d", got)
	}
}

func TestMeasureEmptyDirectory(t *testing.T) {
	got, err := Prober{Workers: 2}.Measure(context.Background(), t.TempDir())
	if err != nil {
		t.Fatalf("measure error: %v", err)
	}

	if got != 0 {
		t.Fatalf("expected 0 bytes, got %d", got)
	}
}

func TestMeasureSkipsSymlinks(t *testing.T) {
	root := t.TempDir()
	target := filepath.Join(t.TempDir(), "big")
	writeFile(t, target, 1000)
	writeFile(t, filepath.Join(root, "small"), 5)

	if err := os.Symlink(target, filepath.Join(root, "link")); err != nil {
		t.Skipf("symlinks unsupported: %v", err)
	}

	got, err := Measure(context.Background(), root)
	if err != nil {
		t.Fatalf("measure error: %v", err)
	}

	if got != 5 {
		t.Fatalf("expected 5 bytes, got %d", got)
	}
}

func TestMeasurePermissionDenied(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("permission checks do not apply to root")
	}

	root := t.TempDir()
	blocked := filepath.Join(root, "blocked")
	writeFile(t, filepath.Join(blocked, "file"), 3)

	if err := os.Chmod(blocked, 0o000); err != nil {
		t.Fatalf("chmod error: %v", err)
	}
	t.Cleanup(func() { _ = os.Chmod(blocked, 0o755) })

	_, err := Measure(context.Background(), root)
	if err == nil {
		t.Fatal("expected an error for an unreadable directory")
	}

	var probeErr *Error
	if !errors.As(err, &probeErr) {
		t.Fatalf("expected *Error, got %T: %v", err, err)
	}

	if probeErr.Path != blocked {
		t.Fatalf("expected error for %q, got %q", blocked, probeErr.Path)
	}

	if !errors.Is(err, os.ErrPermission) {
		t.Fatalf("expected permission error, got %v", err)
	}
}

func TestMeasureCanceled(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a"), 1)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := Measure(ctx, root); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

// fakeEntry is a regular file whose metadata lookup returns infoErr.
type fakeEntry struct {
	name    string
	infoErr error
}

func (f fakeEntry) Name() string               { return f.name }
func (f fakeEntry) IsDir() bool                { return false }
func (f fakeEntry) Type() fs.FileMode          { return 0 }
func (f fakeEntry) Info() (fs.FileInfo, error) { return nil, f.infoErr }

func TestVisitSkipsVanishedDirectory(t *testing.T) {
	w := &walker{ctx: context.Background()}

	err := w.visit("/cache/gone", nil, &fs.PathError{Op: "open", Path: "/cache/gone", Err: fs.ErrNotExist})
	if err != nil {
		t.Fatalf("vanished directory must be skipped, got %v", err)
	}
}

func TestVisitSkipsVanishedFile(t *testing.T) {
	w := &walker{ctx: context.Background()}

	err := w.visit("/cache/gone.rs", fakeEntry{name: "gone.rs", infoErr: fs.ErrNotExist}, nil)
	if err != nil {
		t.Fatalf("vanished file must be skipped, got %v", err)
	}

	if w.total.Load() != 0 {
		t.Fatalf("vanished file must not contribute, got %d", w.total.Load())
	}
}

func TestVisitPropagatesReadDirErrors(t *testing.T) {
	w := &walker{ctx: context.Background()}

	err := w.visit("/cache/locked", nil, &fs.PathError{Op: "open", Path: "/cache/locked", Err: fs.ErrPermission})

	var probeErr *Error
	if !errors.As(err, &probeErr) || probeErr.Path != "/cache/locked" {
		t.Fatalf("expected *Error for /cache/locked, got %v", err)
	}

	if !errors.Is(err, fs.ErrPermission) {
		t.Fatalf("expected permission error, got %v", err)
	}
}

func TestVisitPropagatesInfoErrors(t *testing.T) {
	w := &walker{ctx: context.Background()}

	err := w.visit("/cache/lib.rs", fakeEntry{name: "lib.rs", infoErr: fs.ErrPermission}, nil)

	var probeErr *Error
	if !errors.As(err, &probeErr) || probeErr.Path != "/cache/lib.rs" {
		t.Fatalf("expected *Error for /cache/lib.rs, got %v", err)
	}
}

func TestMeasureCanceledRegularFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "serde-1.0.0.crate")
	writeFile(t, path, 42)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := Measure(ctx, path); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestMeasureConcurrentDeletion(t *testing.T) {
	for iteration := range 20 {
		root := t.TempDir()

		var dirs []string

		for i := range 50 {
			dir := filepath.Join(root, fmt.Sprintf("d%d", i))
			writeFile(t, filepath.Join(dir, "a", "file"), 10)
			writeFile(t, filepath.Join(dir, "b", "file"), 10)
			dirs = append(dirs, dir)
		}

		var wg sync.WaitGroup

		wg.Add(1)

		go func() {
			defer wg.Done()

			for _, dir := range dirs {
				_ = os.RemoveAll(dir)
			}
		}()

		got, err := Measure(context.Background(), root)

		wg.Wait()

		if err != nil {
			t.Fatalf("iteration %d: concurrent deletion must not fail: %v", iteration, err)
		}

		if got > 1000 {
			t.Fatalf("iteration %d: measured %d bytes, more than ever existed", iteration, got)
		}
	}
}
