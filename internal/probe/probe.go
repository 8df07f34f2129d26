package probe

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sync/atomic"

	"github.com/charlievieth/fastwalk"
)

// Error reports a metadata failure for a path that still exists.
type Error struct {
	// Path is the offending filesystem path.
	Path string
	// Err is the underlying I/O error.
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("reading metadata of %q: %v", e.Path, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Prober measures paths. The zero value is ready to use.
type Prober struct {
	// Workers is the number of fastwalk workers per measurement (0 = fastwalk default).
	Workers int
}

// Measure returns the total size of the regular files below root using a zero Prober.
func Measure(ctx context.Context, root string) (uint64, error) {
	return Prober{}.Measure(ctx, root)
}

// Measure returns the total size in bytes of all regular files below root.
//
// A root that does not exist measures 0. If root is a regular file, its own
// size is returned. Symlinks are not followed.
func (p Prober) Measure(ctx context.Context, root string) (uint64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	info, err := os.Lstat(root)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return 0, nil
		}

		return 0, &Error{Path: root, Err: err}
	}

	switch {
	case info.Mode().IsRegular():
		return uint64(info.Size()), nil //nolint:gosec // Sizes are never negative
	case !info.IsDir():
		return 0, nil
	}

	w := &walker{ctx: ctx}

	conf := &fastwalk.Config{
		Follow:     false,
		NumWorkers: p.Workers,
	}

	walkErr := fastwalk.Walk(conf, root, w.visit)
	if walkErr != nil {
		var probeErr *Error
		if errors.As(walkErr, &probeErr) {
			return 0, probeErr
		}

		// The root itself disappeared after the initial stat.
		if errors.Is(walkErr, fs.ErrNotExist) {
			return w.total.Load(), nil
		}

		if ctxErr := ctx.Err(); ctxErr != nil {
			return 0, ctxErr
		}

		return 0, &Error{Path: root, Err: walkErr}
	}

	return w.total.Load(), nil
}

// walker sums regular file sizes. fastwalk invokes visit from several goroutines.
type walker struct {
	ctx   context.Context //nolint:containedctx // Scoped to a single walk
	total atomic.Uint64
}

// visit is the fastwalk callback. Entries that no longer exist are skipped.
//
//nolint:varnamelen // d is standard for DirEntry
func (w *walker) visit(path string, d fs.DirEntry, err error) error {
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}

		return &Error{Path: path, Err: err}
	}

	select {
	case <-w.ctx.Done():
		return w.ctx.Err()
	default:
	}

	if !d.Type().IsRegular() {
		return nil
	}

	fileInfo, err := d.Info()
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}

		return &Error{Path: path, Err: err}
	}

	w.total.Add(uint64(fileInfo.Size())) //nolint:gosec // Sizes are never negative

	return nil
}
