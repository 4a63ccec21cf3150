package cli

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"

	"github.com/xonecas/cffind/internal/filesearch"
	"github.com/xonecas/cffind/internal/index"
)

const watchDebounce = 250 * time.Millisecond

type watchOptions struct {
	sources  []string // command-line paths
	search   filesearch.Options
	index    *index.Index
	debounce time.Duration
	onChange func()
}

// watch re-indexes the corpus whenever files under sources change and calls
// onChange after each batch. It returns nil when ctx is cancelled.
func watch(ctx context.Context, o watchOptions) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	for _, root := range watchRoots(o.sources) {
		if err := addWatchRecursive(watcher, root); err != nil {
			return err
		}
	}

	if o.debounce <= 0 {
		o.debounce = watchDebounce
	}
	timer := time.NewTimer(time.Hour)
	if !timer.Stop() {
		<-timer.C
	}
	pending := map[string]bool{}

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			path := filepath.Clean(event.Name)
			if event.Op&fsnotify.Create != 0 {
				if info, err := os.Stat(path); err == nil && info.IsDir() {
					_ = addWatchRecursive(watcher, path)
				}
			}
			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			if len(pending) > 0 && !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
			pending[path] = true
			timer.Reset(o.debounce)
		case <-timer.C:
			if len(pending) == 0 {
				continue
			}
			if reindex(ctx, o, pending) {
				o.onChange()
			}
			pending = map[string]bool{}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			return err
		}
	}
}

// reindex brings the index in line with the files sources expand to now,
// re-reading the changed ones. It reports whether anything was touched.
func reindex(ctx context.Context, o watchOptions, changed map[string]bool) bool {
	files, err := filesearch.Collect(ctx, o.sources, o.search)
	if err != nil {
		log.Warn().Err(err).Msg("rescanning sources")
		return false
	}

	current := make(map[string]bool, len(files))
	for _, f := range files {
		current[filepath.Clean(f)] = true
	}

	touched := false
	indexed := map[string]bool{}
	for _, f := range o.index.Files() {
		key := filepath.Clean(f)
		indexed[key] = true
		switch {
		case !current[key]:
			o.index.Remove(f)
			touched = true
		case changed[key]:
			if err := o.index.UpdateFile(ctx, f); err != nil {
				log.Warn().Err(err).Str("file", f).Msg("Error loading file")
			}
			touched = true
		}
	}
	for _, f := range files {
		if indexed[filepath.Clean(f)] {
			continue
		}
		if err := o.index.UpdateFile(ctx, f); err != nil {
			log.Debug().Err(err).Str("file", f).Msg("skipping new file")
			continue
		}
		touched = true
	}
	log.Debug().Int("count", len(changed)).Bool("reindexed", touched).Msg("files changed")
	return touched
}

// watchRoots returns the directories to watch: each directory argument, and
// the parent of each file argument.
func watchRoots(sources []string) []string {
	var roots []string
	seen := map[string]bool{}
	for _, s := range sources {
		root := filepath.Clean(s)
		if info, err := os.Stat(root); err != nil || !info.IsDir() {
			root = filepath.Dir(root)
		}
		if !seen[root] {
			seen[root] = true
			roots = append(roots, root)
		}
	}
	return roots
}

func addWatchRecursive(watcher *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if d.Name() == ".git" && path != root {
			return filepath.SkipDir
		}
		return watcher.Add(path)
	})
}
