// Package index loads a corpus of C files into memory and keeps the
// candidates extracted from each one.
package index

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/xonecas/cffind/internal/signature"
	"github.com/xonecas/cffind/internal/store"
	"github.com/xonecas/cffind/internal/treesitter"
)

// ErrNothingLoaded is returned by Load when none of the paths could be read.
var ErrNothingLoaded = errors.New("no source files could be loaded")

// Options configures an Index.
type Options struct {
	Jobs  int          // parallel loaders; 0 means runtime.NumCPU()
	Cache *store.Cache // optional; nil disables caching
}

// Stats describes one Load call.
type Stats struct {
	Files      int // files loaded
	Cached     int // of which served from the cache
	Candidates int
}

// Index holds every loaded file's buffer and candidates. Buffers live as long
// as the index, so candidates returned from it stay valid.
type Index struct {
	mu    sync.RWMutex
	files map[string]*file
	order []string // load order of paths in files
	opts  Options
}

type file struct {
	buf        *signature.Buffer
	candidates []signature.Candidate
	cached     bool
}

// New creates an empty index.
func New(opts Options) *Index {
	if opts.Jobs <= 0 {
		opts.Jobs = runtime.NumCPU()
	}
	return &Index{
		files: make(map[string]*file),
		opts:  opts,
	}
}

// Load reads and parses paths concurrently. A file that cannot be read or
// parsed is logged and skipped; only context cancellation aborts the load.
// Candidates keep the order of paths regardless of which loader finished
// first.
func (idx *Index) Load(ctx context.Context, paths []string) (Stats, error) {
	results := make([]*file, len(paths))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(idx.opts.Jobs)
	for i, path := range paths {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			f, err := idx.loadFile(gctx, path)
			if err != nil {
				if ctxErr := gctx.Err(); ctxErr != nil {
					return ctxErr
				}
				log.Warn().Err(err).Str("file", path).Msg("Error loading file")
				return nil
			}
			results[i] = f
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Stats{}, err
	}

	var st Stats
	idx.mu.Lock()
	for i, f := range results {
		if f == nil {
			continue
		}
		idx.put(paths[i], f)
		st.Files++
		st.Candidates += len(f.candidates)
		if f.cached {
			st.Cached++
		}
	}
	idx.mu.Unlock()

	if st.Files == 0 {
		return st, ErrNothingLoaded
	}
	return st, nil
}

// UpdateFile re-reads a single file. If it can no longer be loaded it is
// dropped from the index and the error is returned.
func (idx *Index) UpdateFile(ctx context.Context, path string) error {
	f, err := idx.loadFile(ctx, path)

	idx.mu.Lock()
	defer idx.mu.Unlock()

	if err != nil {
		idx.remove(path)
		return err
	}
	idx.put(path, f)
	return nil
}

// Remove drops a file from the index.
func (idx *Index) Remove(path string) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.remove(path)
}

// Files returns the indexed paths in load order.
func (idx *Index) Files() []string {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return append([]string(nil), idx.order...)
}

// Candidates returns every candidate, file by file in load order.
func (idx *Index) Candidates() []signature.Candidate {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	var out []signature.Candidate
	for _, p := range idx.order {
		out = append(out, idx.files[p].candidates...)
	}
	return out
}

// Snapshot returns a copy of the per-file candidate lists.
func (idx *Index) Snapshot() map[string][]signature.Candidate {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	out := make(map[string][]signature.Candidate, len(idx.files))
	for k, f := range idx.files {
		out[k] = f.candidates
	}
	return out
}

// put must be called with idx.mu held.
func (idx *Index) put(path string, f *file) {
	if _, ok := idx.files[path]; !ok {
		idx.order = append(idx.order, path)
	}
	idx.files[path] = f
}

// remove must be called with idx.mu held.
func (idx *Index) remove(path string) {
	if _, ok := idx.files[path]; !ok {
		return
	}
	delete(idx.files, path)
	for i, p := range idx.order {
		if p == path {
			idx.order = append(idx.order[:i], idx.order[i+1:]...)
			break
		}
	}
}

func (idx *Index) loadFile(ctx context.Context, path string) (*file, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	key := path
	if abs, err := filepath.Abs(path); err == nil {
		key = abs
	}
	sum := store.Sum(src)

	if e, ok := idx.opts.Cache.Get(key, sum); ok {
		buf := signature.NewBuffer(path, src)
		cands, err := restore(buf, e)
		if err == nil {
			return &file{buf: buf, candidates: cands, cached: true}, nil
		}
		log.Debug().Err(err).Str("file", path).Msg("ignoring unusable cache entry")
	}

	buf := signature.NewBuffer(path, src)
	cands, err := treesitter.Extract(ctx, buf)
	if err != nil {
		return nil, err
	}
	idx.opts.Cache.Put(key, sum, snapshot(buf, len(src), cands))
	return &file{buf: buf, candidates: cands}, nil
}

// snapshot records what Extract appended past srcLen and where every span is.
func snapshot(buf *signature.Buffer, srcLen int, cands []signature.Candidate) store.Entry {
	e := store.Entry{
		Tail:    append([]byte(nil), buf.Bytes()[srcLen:]...),
		Records: make([]store.Record, len(cands)),
	}
	for i, c := range cands {
		r := store.Record{
			Line:       c.Line,
			Definition: offset(c.Definition),
			Return:     offset(c.Return),
		}
		for _, p := range c.Params {
			r.Params = append(r.Params, offset(p))
		}
		e.Records[i] = r
	}
	return e
}

// restore rebuilds candidates from a cache entry, validating every span
// against buf.
func restore(buf *signature.Buffer, e store.Entry) ([]signature.Candidate, error) {
	buf.Append(string(e.Tail))

	span := func(o store.Offset) (signature.Span, error) {
		return buf.Span(o.Off, o.Len)
	}
	cands := make([]signature.Candidate, len(e.Records))
	for i, r := range e.Records {
		c := signature.Candidate{File: buf.Name(), Line: r.Line}
		var err error
		if c.Definition, err = span(r.Definition); err != nil {
			return nil, fmt.Errorf("record %d definition: %w", i, err)
		}
		if c.Return, err = span(r.Return); err != nil {
			return nil, fmt.Errorf("record %d return: %w", i, err)
		}
		for _, p := range r.Params {
			sp, err := span(p)
			if err != nil {
				return nil, fmt.Errorf("record %d param: %w", i, err)
			}
			c.Params = append(c.Params, sp)
		}
		cands[i] = c
	}
	return cands, nil
}

func offset(s signature.Span) store.Offset {
	return store.Offset{Off: s.Offset(), Len: s.Len()}
}
