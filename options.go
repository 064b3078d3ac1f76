package lassort

import (
	"log/slog"
	"math/rand"

	"github.com/hupe1980/lassort/internal/fs"
)

// DefaultWorkDir is the working directory used for scratch segments when
// none is configured.
const DefaultWorkDir = "lassort-tmp"

type options struct {
	fsys         fs.FileSystem
	cellSize     float64
	thinFraction float64
	workDir      string
	logger       *Logger
	rnd          *rand.Rand
}

// Option configures a Sorter.
type Option func(*options)

// WithCellSize sets an explicit cell edge length. When unset (or 0), the
// sorter estimates one from the source's bounding box and point count so
// each cell holds roughly TargetCellPopulation points.
func WithCellSize(size float64) Option {
	return func(o *options) {
		o.cellSize = size
	}
}

// WithThinFraction configures probabilistic down-sampling: each input point
// is dropped with the given probability before bucketing. 0 disables
// thinning entirely (no randomness is consumed).
func WithThinFraction(fraction float64) Option {
	return func(o *options) {
		o.thinFraction = fraction
	}
}

// WithWorkDir sets the directory for scratch segments. The directory is
// created if missing and removed again on completion only if the sorter
// created it.
func WithWorkDir(dir string) Option {
	return func(o *options) {
		if dir != "" {
			o.workDir = dir
		}
	}
}

// WithLogger configures structured logging for progress and summaries.
// Pass nil to disable logging.
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		if logger == nil {
			logger = NoopLogger()
		}
		o.logger = logger
	}
}

// WithLogLevel creates a text logger with the specified level and sets it.
// Convenience wrapper for WithLogger(NewTextLogger(level)).
func WithLogLevel(level slog.Level) Option {
	return func(o *options) {
		o.logger = NewTextLogger(level)
	}
}

// WithRand injects the random source used for thinning draws. Tests use a
// seeded source for reproducible down-sampling; the production default is
// seeded from the wall clock.
func WithRand(rnd *rand.Rand) Option {
	return func(o *options) {
		o.rnd = rnd
	}
}

// WithFS injects the file system implementation. Used by tests for fault
// injection; the default is the local file system.
func WithFS(fsys fs.FileSystem) Option {
	return func(o *options) {
		o.fsys = fsys
	}
}

func applyOptions(optFns []Option) options {
	o := options{
		fsys:    fs.Default,
		workDir: DefaultWorkDir,
		logger:  NoopLogger(),
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	return o
}
