package cachestat

import (
	"path/filepath"
	"strings"
)

// Entry is one measured item of a cache root.
type Entry struct {
	// Path is the location of the entry on disk.
	Path string `json:"path" yaml:"path"`
	// Identity is the package name the entry belongs to.
	Identity string `json:"identity" yaml:"identity"`
	// Size is the size in bytes, 0 if the entry vanished before it was measured.
	Size uint64 `json:"size" yaml:"size"`
}

// NewEntry creates an Entry for path, deriving its identity from the base name.
func NewEntry(path string, size uint64) Entry {
	return Entry{
		Path:     path,
		Identity: Identity(filepath.Base(path)),
		Size:     size,
	}
}

// Identity strips the last "-" delimited segment (the version) from name.
//
// "serde-json-1.0.1" yields "serde-json". A name without any "-" yields "".
func Identity(name string) string {
	idx := strings.LastIndex(name, "-")
	if idx < 0 {
		return ""
	}

	return name[:idx]
}
