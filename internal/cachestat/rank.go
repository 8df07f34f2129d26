package cachestat

import "sort"

// Rank returns the limit largest summaries, biggest first.
// The order of summaries with equal totals is unspecified.
func Rank(summaries []Summary, limit int) []Summary {
	if limit <= 0 || len(summaries) == 0 {
		return []Summary{}
	}

	ranked := make([]Summary, len(summaries))
	copy(ranked, summaries)

	// Sort by size (largest first) and trim to limit
	sort.Slice(ranked, func(i, j int) bool {
		return ranked[i].TotalBytes > ranked[j].TotalBytes
	})

	if len(ranked) > limit {
		ranked = ranked[:limit]
	}

	return ranked
}
