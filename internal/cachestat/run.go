package cachestat

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"runtime"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/idelchi/cachestat/internal/probe"
)

// DefaultProgressInterval is the default interval for progress updates.
const DefaultProgressInterval = 200 * time.Millisecond

// Source provides the entries of one cache root.
type Source interface {
	// Name returns the category name.
	Name() string
	// Root returns the directory holding the entries.
	Root() string
	// Entries lists the entry paths in listing order.
	Entries() ([]string, error)
}

// startProgressReporter invokes hook on each tick until the returned stop
// function is called or ctx is done. stop waits for the reporter to exit.
func startProgressReporter(ctx context.Context, t *tally, hook ProgressFunc, interval time.Duration) func() {
	if hook == nil {
		return func() {}
	}

	if interval <= 0 {
		interval = DefaultProgressInterval
	}

	ctx, cancel := context.WithCancel(ctx)
	ticker := time.NewTicker(interval)
	done := make(chan struct{})

	go func() {
		defer close(done)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				hook(t.snapshot())
			case <-ctx.Done():
				return
			}
		}
	}()

	return func() {
		cancel()
		<-done
	}
}

func discardLogger() logrus.FieldLogger {
	log := logrus.New()
	log.SetOutput(io.Discard)

	return log
}

// Measure probes every path concurrently and returns the entries in the
// order of paths. Entries whose path vanished measure 0.
func Measure(ctx context.Context, paths []string, opt Options, hook ProgressFunc) ([]Entry, error) {
	log := opt.Logger
	if log == nil {
		log = discardLogger()
	}

	jobs := opt.Jobs
	if jobs <= 0 {
		jobs = runtime.NumCPU()
	}

	t := &tally{total: len(paths)}

	stop := startProgressReporter(ctx, t, hook, opt.ProgressInterval)
	defer stop()

	prober := probe.Prober{Workers: opt.Workers}
	sizes := make([]uint64, len(paths))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(jobs)

	for i, path := range paths {
		g.Go(func() error {
			size, err := prober.Measure(gctx, path)
			if err != nil {
				return fmt.Errorf("measuring entry: %w", err)
			}

			sizes[i] = size
			t.add(size)

			log.WithFields(logrus.Fields{"path": path, "size": size}).Debug("measured entry")

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	stop()

	if hook != nil {
		hook(t.snapshot())
	}

	entries := make([]Entry, len(paths))
	for i, path := range paths {
		entries[i] = NewEntry(path, sizes[i])
	}

	return entries, nil
}

// Run analyzes the cache root of src and returns its report.
//
// Entries are measured in parallel, then folded sequentially in listing
// order according to opt.Mode and ranked by total size, keeping opt.TopN
// summaries. A root that does not exist yields a report with Exists unset
// and no error.
func Run(ctx context.Context, src Source, opt Options, hook ProgressFunc) (*Report, error) {
	log := opt.Logger
	if log == nil {
		log = discardLogger()
	}

	log = log.WithFields(logrus.Fields{"category": src.Name(), "root": src.Root()})

	report := &Report{
		Category:  src.Name(),
		Root:      src.Root(),
		Mode:      opt.Mode,
		TopN:      opt.TopN,
		Summaries: []Summary{},
	}

	if report.Mode == "" {
		report.Mode = ModeAdjacent
	}

	if statInfo, err := os.Stat(src.Root()); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			log.Debug("cache root does not exist")

			return report, nil
		}

		return nil, fmt.Errorf("accessing path %q: %w", src.Root(), err)
	} else if !statInfo.IsDir() {
		return nil, fmt.Errorf("path %q is not a directory", src.Root())
	}

	report.Exists = true

	start := time.Now()

	paths, err := src.Entries()
	if err != nil {
		return nil, fmt.Errorf("listing entries of %q: %w", src.Root(), err)
	}

	log.WithField("entries", len(paths)).Debug("listed cache root")

	opt.Logger = log

	entries, err := Measure(ctx, paths, opt, hook)
	if err != nil {
		return nil, err
	}

	// The root total also covers files outside any entry (index metadata, strays).
	rootSize, err := probe.Prober{Workers: opt.Workers}.Measure(ctx, src.Root())
	if err != nil {
		return nil, fmt.Errorf("measuring root: %w", err)
	}

	report.TotalBytes = rootSize

	report.EntryCount = len(entries)
	report.Summaries = Rank(report.Mode.Aggregate(entries), opt.TopN)
	report.Elapsed = time.Since(start)

	log.WithFields(logrus.Fields{
		"total_bytes": report.TotalBytes,
		"summaries":   len(report.Summaries),
		"elapsed":     report.Elapsed,
	}).Debug("analyzed cache root")

	return report, nil
}
