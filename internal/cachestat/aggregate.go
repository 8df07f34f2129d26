package cachestat

import (
	"fmt"
	"strings"
)

// Summary aggregates all entries merged under one identity.
type Summary struct {
	// Identity is the package name.
	Identity string `json:"identity" yaml:"identity"`
	// Count is the number of merged entries.
	Count uint32 `json:"count" yaml:"count"`
	// TotalBytes is the sum of the merged entry sizes.
	TotalBytes uint64 `json:"total_bytes" yaml:"total_bytes"`
}

// Average returns the truncated mean entry size.
func (s Summary) Average() uint64 {
	if s.Count == 0 {
		return 0
	}

	return s.TotalBytes / uint64(s.Count)
}

func (s *Summary) add(size uint64) {
	s.Count++
	s.TotalBytes += size
}

// Mode selects how entries are grouped into summaries.
type Mode string

const (
	// ModeAdjacent merges only runs of consecutive entries sharing an identity.
	ModeAdjacent Mode = "adjacent"
	// ModeGrouped merges every entry sharing an identity regardless of position.
	ModeGrouped Mode = "grouped"
)

// Modes lists the supported aggregation modes.
//
//nolint:gochecknoglobals // Config constant
var Modes = []Mode{ModeAdjacent, ModeGrouped}

// ParseMode converts s into a Mode. The empty string maps to ModeAdjacent.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case "", ModeAdjacent:
		return ModeAdjacent, nil
	case ModeGrouped:
		return ModeGrouped, nil
	default:
		return "", fmt.Errorf("unknown aggregation mode %q: must be one of %v", s, Modes)
	}
}

// Aggregate folds entries according to the mode.
func (m Mode) Aggregate(entries []Entry) []Summary {
	if m == ModeGrouped {
		return GroupBy(entries)
	}

	return Aggregate(entries)
}

// Aggregate merges runs of consecutive entries with equal identity.
//
// Entries sharing an identity but separated by a different identity end up
// in separate summaries: callers that want one summary per identity must
// pass entries ordered by identity, or use GroupBy.
func Aggregate(entries []Entry) []Summary {
	summaries := make([]Summary, 0)

	var running *Summary

	for _, entry := range entries {
		if running != nil && running.Identity == entry.Identity {
			running.add(entry.Size)

			continue
		}

		if running != nil {
			summaries = append(summaries, *running)
		}

		running = &Summary{Identity: entry.Identity}
		running.add(entry.Size)
	}

	if running != nil {
		summaries = append(summaries, *running)
	}

	return summaries
}

// GroupBy merges all entries with equal identity.
// Summaries are returned in order of first appearance.
func GroupBy(entries []Entry) []Summary {
	summaries := make([]Summary, 0)
	index := make(map[string]int)

	for _, entry := range entries {
		idx, ok := index[entry.Identity]
		if !ok {
			idx = len(summaries)
			index[entry.Identity] = idx

			summaries = append(summaries, Summary{Identity: entry.Identity})
		}

		summaries[idx].add(entry.Size)
	}

	return summaries
}
