// Package filesearch expands command-line path arguments into the list of
// source files to scan, honouring .gitignore files and exclude globs.
package filesearch

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/rs/zerolog/log"
)

// MaxFileSize is the default cap for files picked up by directory walks.
const MaxFileSize = 1 << 20 // 1 MB

// Options configures how directories are expanded.
type Options struct {
	Include     func(path string) bool // files found in directories must pass; nil accepts all
	Exclude     []string               // doublestar globs, relative to the walked directory
	MaxFileSize int64                  // 0 means MaxFileSize
}

// Collect expands paths into files, in argument order and without
// duplicates. Plain files are always kept, whatever their extension. Paths
// that cannot be stat'ed are kept too so the loader can report them.
// Directories are walked recursively.
func Collect(ctx context.Context, paths []string, opts Options) ([]string, error) {
	if opts.MaxFileSize <= 0 {
		opts.MaxFileSize = MaxFileSize
	}
	for _, g := range opts.Exclude {
		if !doublestar.ValidatePattern(g) {
			return nil, errors.New("invalid exclude pattern: " + g)
		}
	}

	var (
		files []string
		seen  = make(map[string]bool)
	)
	add := func(p string) {
		key := filepath.Clean(p)
		if seen[key] {
			return
		}
		seen[key] = true
		files = append(files, p)
	}

	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil || !info.IsDir() {
			add(p)
			continue
		}
		found, err := walkDir(ctx, p, opts)
		if err != nil {
			return nil, err
		}
		for _, f := range found {
			add(f)
		}
	}
	return files, nil
}

func walkDir(ctx context.Context, root string, opts Options) ([]string, error) {
	matcher, err := NewGitignoreMatcher(filepath.Join(root, ".gitignore"))
	if err != nil {
		// Non-fatal: just won't filter gitignored files
		log.Debug().Err(err).Str("dir", root).Msg("reading .gitignore")
		matcher, _ = NewGitignoreMatcher("")
	}

	var files []string
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			log.Debug().Err(walkErr).Str("path", path).Msg("walk")
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if path == root {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return nil
		}

		if d.IsDir() {
			if d.Name() == ".git" || matcher.Matches(rel, true) || excluded(opts.Exclude, rel) {
				return filepath.SkipDir
			}
			return nil
		}
		if matcher.Matches(rel, false) || excluded(opts.Exclude, rel) {
			return nil
		}
		if opts.Include != nil && !opts.Include(path) {
			return nil
		}
		info, err := d.Info()
		if err != nil || info.Size() > opts.MaxFileSize {
			return nil
		}
		files = append(files, path)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}

func excluded(globs []string, rel string) bool {
	rel = filepath.ToSlash(rel)
	for _, g := range globs {
		if ok, _ := doublestar.Match(g, rel); ok {
			return true
		}
	}
	return false
}
