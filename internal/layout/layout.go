// Package layout locates the category roots of a package cache home and
// lists their entries.
package layout

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
)

// Category names.
const (
	Sources   = "sources"
	Archives  = "archives"
	Checkouts = "checkouts"
	Repos     = "repos"
)

// Names lists all category names in report order.
//
//nolint:gochecknoglobals // Config constant
var Names = []string{Sources, Archives, Checkouts, Repos}

// kind restricts which children of a root count as entries.
type kind int

const (
	dirs kind = iota
	files
)

// Category is one cache root.
type Category struct {
	name string
	root string
	// indexed roots hold one directory per registry index, entries live below those.
	indexed bool
	kind    kind
}

// Name returns the category name.
func (c Category) Name() string { return c.name }

// Root returns the category root directory.
func (c Category) Root() string { return c.root }

// Layout holds the categories of a cache home.
type Layout struct {
	// Home is the cache home directory.
	Home string
	// Categories are the category roots in report order.
	Categories []Category
}

// DefaultHome returns $CARGO_HOME, falling back to ~/.cargo.
func DefaultHome() (string, error) {
	if home := os.Getenv("CARGO_HOME"); home != "" {
		return home, nil
	}

	userHome, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolving home directory: %w", err)
	}

	return filepath.Join(userHome, ".cargo"), nil
}

// Resolve returns the layout of the cache home.
func Resolve(home string) Layout {
	home = filepath.Clean(home)

	return Layout{
		Home: home,
		Categories: []Category{
			{name: Sources, root: filepath.Join(home, "registry", "src"), indexed: true, kind: dirs},
			{name: Archives, root: filepath.Join(home, "registry", "cache"), indexed: true, kind: files},
			{name: Checkouts, root: filepath.Join(home, "git", "checkouts"), kind: dirs},
			{name: Repos, root: filepath.Join(home, "git", "db"), kind: dirs},
		},
	}
}

// Select returns the categories whose names are in names, in layout order.
// An empty names selects all categories.
func (l Layout) Select(names []string) []Category {
	if len(names) == 0 {
		return l.Categories
	}

	selected := make([]Category, 0, len(names))

	for _, c := range l.Categories {
		if slices.Contains(names, c.name) {
			selected = append(selected, c)
		}
	}

	return selected
}

// Entries lists the entry paths of the category.
//
// Children are returned in name order; for indexed categories, each index
// directory is listed in turn, indexes themselves in name order. A root or
// index directory that does not exist contributes no entries.
func (c Category) Entries() ([]string, error) {
	if !c.indexed {
		return c.list(c.root)
	}

	indexes, err := readDir(c.root)
	if err != nil {
		return nil, err
	}

	var paths []string

	for _, index := range indexes {
		if !index.IsDir() {
			continue
		}

		entries, err := c.list(filepath.Join(c.root, index.Name()))
		if err != nil {
			return nil, err
		}

		paths = append(paths, entries...)
	}

	return paths, nil
}

func (c Category) list(dir string) ([]string, error) {
	children, err := readDir(dir)
	if err != nil {
		return nil, err
	}

	paths := make([]string, 0, len(children))

	for _, child := range children {
		switch c.kind {
		case dirs:
			if !child.IsDir() {
				continue
			}
		case files:
			if !child.Type().IsRegular() {
				continue
			}
		}

		paths = append(paths, filepath.Join(dir, child.Name()))
	}

	return paths, nil
}

// readDir is os.ReadDir with a missing directory treated as empty.
func readDir(dir string) ([]fs.DirEntry, error) {
	children, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}

		return nil, fmt.Errorf("reading directory %q: %w", dir, err)
	}

	return children, nil
}
