package cachestat

import (
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// Report holds the statistics of one cache root.
type Report struct {
	// Category is the name of the cache category (e.g. "sources").
	Category string `json:"category" yaml:"category"`
	// Root is the directory holding the category's entries.
	Root string `json:"root" yaml:"root"`
	// Exists is false if the root was absent; all other fields are then empty.
	Exists bool `json:"exists" yaml:"exists"`
	// EntryCount is the number of entries measured.
	EntryCount int `json:"entry_count" yaml:"entry_count"`
	// TotalBytes is the size of all regular files below Root, entries or not.
	TotalBytes uint64 `json:"total_bytes" yaml:"total_bytes"`
	// Summaries contains the TopN largest summaries, biggest first.
	Summaries []Summary `json:"summaries" yaml:"summaries"`
	// Mode is the aggregation mode used.
	Mode Mode `json:"mode" yaml:"mode"`
	// TopN is the number of summaries requested.
	TopN int `json:"top_n" yaml:"top_n"`
	// Elapsed is the total time taken for analysis.
	Elapsed time.Duration `json:"elapsed" yaml:"elapsed"`
}

// Options configures the analysis of a cache root.
type Options struct {
	// TopN is the number of summaries to keep (0 keeps none).
	TopN int
	// Mode selects the aggregation mode.
	Mode Mode
	// Jobs is the number of entries measured concurrently (<= 0 means NumCPU).
	Jobs int
	// Workers is the number of walk workers per entry (0 = fastwalk default).
	Workers int
	// ProgressInterval controls progress callback cadence.
	ProgressInterval time.Duration
	// Logger receives debug output. Nil discards it.
	Logger logrus.FieldLogger
}

// ProgressFunc receives the number of measured entries, the total number of
// entries and the bytes measured so far.
type ProgressFunc func(done, total int, bytes uint64)

// tally tracks measurement progress shared between probing goroutines and the
// progress reporter.
type tally struct {
	mu    sync.Mutex
	total int
	done  int
	bytes uint64
}

func (t *tally) add(size uint64) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.done++
	t.bytes += size
}

func (t *tally) snapshot() (int, int, uint64) {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.done, t.total, t.bytes
}
