package storage

import (
	"io/fs"
	"os"
	"path/filepath"
)

// WalkFunc is called for every directory and file Walk visits. Returning
// an error stops the walk and Walk returns it.
type WalkFunc func(path string, d fs.DirEntry) error

// SkipFunc receives entries below the root that could not be read.
type SkipFunc func(path string, err error)

// Walk visits root and everything beneath it in lexical order. Unlike
// filepath.WalkDir it follows symlinks, the root included, and reports
// paths under root as given rather than their resolved targets. A
// directory reached a second time through a link is not descended again.
//
// Failure to read root is returned. Anything unreadable below it is
// passed to skip (which may be nil) and the walk continues.
func Walk(root string, fn WalkFunc, skip SkipFunc) error {
	info, err := os.Stat(root)
	if err != nil {
		return err
	}
	w := &walker{fn: fn, skip: skip, visited: make(map[string]struct{})}
	if !info.IsDir() {
		return fn(root, fs.FileInfoToDirEntry(info))
	}
	entries, err := w.enter(root)
	if err != nil {
		return err
	}
	if entries == nil {
		return nil
	}
	if err := fn(root, fs.FileInfoToDirEntry(info)); err != nil {
		return err
	}
	return w.walk(root, entries)
}

type walker struct {
	fn      WalkFunc
	skip    SkipFunc
	visited map[string]struct{}
}

// enter reads dir, returning nil entries when its target was already walked.
func (w *walker) enter(dir string) ([]fs.DirEntry, error) {
	resolved, err := filepath.EvalSymlinks(dir)
	if err != nil {
		return nil, err
	}
	if _, ok := w.visited[resolved]; ok {
		return nil, nil
	}
	w.visited[resolved] = struct{}{}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	if entries == nil {
		entries = []fs.DirEntry{}
	}
	return entries, nil
}

func (w *walker) walk(dir string, entries []fs.DirEntry) error {
	for _, d := range entries {
		p := filepath.Join(dir, d.Name())
		if d.Type()&fs.ModeSymlink != 0 {
			info, err := os.Stat(p)
			if err != nil {
				w.skipped(p, err)
				continue
			}
			d = fs.FileInfoToDirEntry(info)
		}
		if !d.IsDir() {
			if err := w.fn(p, d); err != nil {
				return err
			}
			continue
		}
		children, err := w.enter(p)
		if err != nil {
			w.skipped(p, err)
			continue
		}
		if children == nil {
			continue
		}
		if err := w.fn(p, d); err != nil {
			return err
		}
		if err := w.walk(p, children); err != nil {
			return err
		}
	}
	return nil
}

func (w *walker) skipped(path string, err error) {
	if w.skip != nil {
		w.skip(path, err)
	}
}
