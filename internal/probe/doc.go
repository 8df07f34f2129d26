// Package probe measures the on-disk footprint of a path.
//
// Directory subtrees are walked with fastwalk, so file sizes are read in
// parallel and summed. Entries that vanish while the walk is in progress are
// skipped; any other metadata failure aborts the measurement with an *Error.
package probe
