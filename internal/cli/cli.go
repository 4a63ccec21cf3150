// Package cli implements the cffind command line.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/xonecas/cffind/internal/config"
	"github.com/xonecas/cffind/internal/engine"
	"github.com/xonecas/cffind/internal/filesearch"
	"github.com/xonecas/cffind/internal/index"
	"github.com/xonecas/cffind/internal/query"
	"github.com/xonecas/cffind/internal/rank"
	"github.com/xonecas/cffind/internal/report"
	"github.com/xonecas/cffind/internal/score"
	"github.com/xonecas/cffind/internal/signature"
	"github.com/xonecas/cffind/internal/store"
	"github.com/xonecas/cffind/internal/treesitter"
)

var (
	ErrNoSources = errors.New("no source files provided")
	ErrNoQuery   = errors.New("no query provided")
)

// usageError marks errors that should be followed by the usage text.
type usageError struct{ err error }

func (e *usageError) Error() string { return e.err.Error() }
func (e *usageError) Unwrap() error { return e.err }

type options struct {
	all        bool
	limit      int
	metric     string
	distance   bool
	color      string
	cache      bool
	exclude    []string
	jobs       int
	watch      bool
	configPath string
	verbose    bool
}

// Run executes cffind with args and returns the process exit code.
func Run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	log.Logger = zerolog.New(zerolog.ConsoleWriter{
		Out:          stderr,
		NoColor:      !isTerminal(stderr),
		PartsExclude: []string{zerolog.TimestampFieldName},
	})
	zerolog.SetGlobalLevel(zerolog.WarnLevel)

	cmd := NewCommand(stdout, stderr)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(ctx)
	if err == nil {
		return 0
	}
	fmt.Fprintf(stderr, "Error: %v\n", err)
	var ue *usageError
	if errors.As(err, &ue) {
		fmt.Fprint(stderr, cmd.UsageString())
	}
	return 1
}

// NewCommand builds the root command.
func NewCommand(stdout, stderr io.Writer) *cobra.Command {
	o := &options{}
	cmd := &cobra.Command{
		Use:   "cffind [flags] <QUERY> <FILE|DIR...>",
		Short: "Find C functions by approximate type signature",
		Long: `cffind ranks the C functions declared or defined in the given files by how
closely their signature matches QUERY.

A query is a return type optionally followed by parameter types, e.g.
"int(char*,*)". A lone * accepts any type in its slot. Directories are
searched recursively for .c and .h files, honouring .gitignore.`,
		Example: `  cffind 'int(char*,*)' src/
  cffind --all --distance 'void(*)' include/api.h`,
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.run(cmd, args)
		},
	}
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return &usageError{err}
	})

	f := cmd.Flags()
	f.BoolVar(&o.all, "all", false, "print all results instead of the top --limit")
	f.IntVarP(&o.limit, "limit", "n", rank.DefaultLimit, "number of results to print")
	f.StringVar(&o.metric, "metric", score.DefaultMetric, "distance metric: "+strings.Join(score.MetricNames(), ", "))
	f.BoolVar(&o.distance, "distance", false, "append the distance to each result")
	f.StringVar(&o.color, "color", config.ColorAuto, "colour output: auto, always, never")
	f.BoolVar(&o.cache, "cache", false, "cache extracted signatures on disk")
	f.StringArrayVar(&o.exclude, "exclude", nil, "glob of paths to skip in directories (repeatable)")
	f.IntVarP(&o.jobs, "jobs", "j", 0, "parallel file loaders (0 = one per CPU)")
	f.BoolVar(&o.watch, "watch", false, "re-run the query when files change")
	f.StringVar(&o.configPath, "config", "", "path to a TOML config file")
	f.BoolVarP(&o.verbose, "verbose", "v", false, "debug logging")
	return cmd
}

// apply overrides cfg with every flag set on the command line.
func (o *options) apply(flags *pflag.FlagSet, cfg *config.Config) {
	if flags.Changed("limit") {
		cfg.Limit = o.limit
	}
	if flags.Changed("metric") {
		cfg.Metric = o.metric
	}
	if flags.Changed("distance") {
		cfg.UI.ShowDistance = o.distance
	}
	if flags.Changed("color") {
		cfg.UI.Color = o.color
	}
	if flags.Changed("cache") {
		cfg.Cache.Enabled = o.cache
	}
	if flags.Changed("jobs") {
		cfg.Jobs = o.jobs
	}
	cfg.Exclude = append(cfg.Exclude, o.exclude...)
	if o.verbose {
		cfg.Log.Level = zerolog.DebugLevel.String()
	}
}

func (o *options) run(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg, err := config.Load(o.configPath)
	if err != nil {
		return err
	}
	o.apply(cmd.Flags(), cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}
	zerolog.SetGlobalLevel(cfg.LogLevel())

	if len(args) < 2 {
		return &usageError{ErrNoSources}
	}
	pattern, sources := args[0], args[1:]
	if strings.TrimSpace(pattern) == "" {
		return &usageError{ErrNoQuery}
	}

	q, err := query.Compile(pattern)
	if err != nil {
		return fmt.Errorf("invalid query %q: %w", pattern, err)
	}
	metric, err := score.LookupMetric(cfg.Metric)
	if err != nil {
		return err
	}

	search := filesearch.Options{
		Include: func(path string) bool { return treesitter.Supported(path, cfg.Extensions) },
		Exclude: cfg.Exclude,
	}
	files, err := filesearch.Collect(ctx, sources, search)
	if err != nil {
		return err
	}

	cache := openCache(cfg.Cache)
	defer cache.Close()

	idx := index.New(index.Options{Jobs: cfg.Jobs, Cache: cache})
	st, err := idx.Load(ctx, files)
	if err != nil {
		return err
	}
	log.Debug().
		Int("files", st.Files).
		Int("cached", st.Cached).
		Int("count", st.Candidates).
		Msg("corpus loaded")

	limit := cfg.Limit
	if o.all {
		limit = rank.All
	}
	s := &searcher{
		query:  q,
		scorer: score.Scorer{Metric: metric},
		limit:  limit,
		index:  idx,
		printer: report.New(cmd.OutOrStdout(), report.Options{
			Color:        useColor(cfg.UI.Color, cmd.OutOrStdout()),
			Theme:        cfg.UI.SyntaxTheme,
			ShowDistance: cfg.UI.ShowDistance,
		}),
	}
	if err := s.print(); err != nil {
		return err
	}

	if !o.watch {
		return nil
	}
	return watch(ctx, watchOptions{
		sources: sources,
		search:  search,
		index:   idx,
		onChange: func() {
			fmt.Fprintln(cmd.OutOrStdout())
			if err := s.print(); err != nil {
				log.Warn().Err(err).Msg("printing results")
			}
		},
	})
}

// searcher re-runs one compiled query over the current index.
type searcher struct {
	query   signature.Signature
	scorer  score.Scorer
	limit   int
	index   *index.Index
	printer *report.Printer
}

func (s *searcher) print() error {
	return s.printer.Print(engine.Run(s.query, s.index.Candidates(), s.scorer, s.limit))
}

// openCache returns nil, which behaves as an empty cache, when caching is off
// or the database cannot be opened.
func openCache(cfg config.CacheConfig) *store.Cache {
	if !cfg.Enabled {
		return nil
	}
	path, err := cfg.PathOrDefault()
	if err != nil {
		log.Warn().Err(err).Msg("cache disabled")
		return nil
	}
	cache, err := store.Open(path, cfg.TTL())
	if err != nil {
		log.Warn().Err(err).Str("file", path).Msg("cache disabled")
		return nil
	}
	return cache
}

func useColor(mode string, w io.Writer) bool {
	switch mode {
	case config.ColorAlways:
		return true
	case config.ColorNever:
		return false
	}
	return isTerminal(w)
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
