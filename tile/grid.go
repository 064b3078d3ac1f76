package tile

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/hupe1980/lassort/internal/fs"
	"github.com/hupe1980/lassort/lpc"
)

// flushInterval is the default number of source points consumed between
// full bucket flushes. It bounds resident memory to one batch spread across
// the touched cells, and doubles as the progress-report granularity.
const flushInterval = 1_000_000

// Options contains configuration for a Grid.
type Options struct {
	// Rand is the random source used for thinning draws. Injectable so
	// tests can seed it; the default is seeded from the wall clock.
	Rand *rand.Rand

	// Logger receives progress and teardown diagnostics.
	Logger *slog.Logger

	// FlushInterval overrides the number of source points consumed between
	// full bucket flushes. Zero keeps the default of one million.
	FlushInterval uint64
}

// Grid routes points to per-cell buckets and drives the two-phase pipeline.
// It owns the working directory (removing it on Close only if it created it)
// and every bucket beneath it.
type Grid struct {
	fsys     fs.FileSystem
	dir      string
	created  []string // directories this grid made, leaf first
	cellSize float64
	header   lpc.Header
	buckets  map[Key]*Bucket
	accepted uint64
	interval uint64
	rnd      *rand.Rand
	logger   *slog.Logger
}

// New creates a Grid over the given working directory, creating the
// directory if it does not exist yet. If fsys is nil the local file system
// is used.
func New(fsys fs.FileSystem, dir string, cellSize float64, header lpc.Header, optFns ...func(o *Options)) (*Grid, error) {
	if fsys == nil {
		fsys = fs.Default
	}
	if cellSize <= 0 {
		return nil, fmt.Errorf("cell size must be positive, got %g", cellSize)
	}

	opts := Options{}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Rand == nil {
		opts.Rand = rand.New(rand.NewSource(time.Now().UnixNano())) //nolint:gosec // Thinning draws need no crypto strength
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if opts.FlushInterval == 0 {
		opts.FlushInterval = flushInterval
	}

	created, err := missingAncestors(fsys, dir)
	if err != nil {
		return nil, err
	}
	if len(created) > 0 {
		if err := fsys.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("failed to create working directory: %w", err)
		}
	}

	return &Grid{
		fsys:     fsys,
		dir:      dir,
		created:  created,
		cellSize: cellSize,
		header:   header,
		buckets:  make(map[Key]*Bucket),
		interval: opts.FlushInterval,
		rnd:      opts.Rand,
		logger:   opts.Logger,
	}, nil
}

// missingAncestors returns the directories MkdirAll(dir) would have to
// create, deepest first, so Close can remove exactly those afterwards.
func missingAncestors(fsys fs.FileSystem, dir string) ([]string, error) {
	var missing []string
	for p := dir; ; {
		if _, err := fsys.Stat(p); err == nil {
			break
		} else if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to stat working directory: %w", err)
		}
		missing = append(missing, p)
		parent := filepath.Dir(p)
		if parent == p {
			break
		}
		p = parent
	}
	return missing, nil
}

// Add routes one point to the bucket of its cell, creating the bucket on
// first contact, and counts it as accepted.
func (g *Grid) Add(p lpc.Point) {
	key := KeyAt(p.X, p.Y, p.Z, g.cellSize)
	b, ok := g.buckets[key]
	if !ok {
		b = newBucket(g.fsys, g.dir, g.header)
		g.buckets[key] = b
	}
	b.Add(p)
	g.accepted++
}

// Accepted returns the number of points routed to buckets so far
// (post-thinning).
func (g *Grid) Accepted() uint64 {
	return g.accepted
}

// Read consumes the whole input, routing each kept point to its bucket.
//
// When thinFraction > 0, each point is kept with probability
// 1-thinFraction; with thinFraction == 0 no random draw is consumed, so
// runs without thinning are fully deterministic.
//
// At every flush-interval boundary (points consumed, kept or dropped), all
// buckets are flushed and progress is reported against the source's declared
// total. A final flush persists any partial remainder. The context is only
// checked at flush boundaries.
func (g *Grid) Read(ctx context.Context, r *lpc.Reader, thinFraction float64) error {
	if thinFraction < 0 || thinFraction >= 1 {
		return fmt.Errorf("thin fraction must be in [0,1), got %g", thinFraction)
	}

	total := r.Header().PointCount

	var consumed uint64
	for {
		p, err := r.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}
		consumed++

		if thinFraction == 0 || g.rnd.Float64() >= thinFraction {
			g.Add(p)
		}

		if consumed%g.interval == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := g.FlushAll(); err != nil {
				return err
			}
			g.logProgress("bucketing", consumed, total)
		}
	}

	return g.FlushAll()
}

// FlushAll flushes the pending buffer of every bucket.
func (g *Grid) FlushAll() error {
	for _, b := range g.buckets {
		if err := b.Flush(); err != nil {
			return err
		}
	}
	return nil
}

// Write merges all buckets into w in ascending key order. Each bucket's
// segments are removed as soon as the bucket has been streamed, so peak
// scratch-disk usage shrinks as the merge progresses.
func (g *Grid) Write(ctx context.Context, w *lpc.Writer) error {
	keys := make([]Key, 0, len(g.buckets))
	for k := range g.buckets {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, Key.Compare)

	var written, mark uint64
	for _, k := range keys {
		if err := ctx.Err(); err != nil {
			return err
		}

		b := g.buckets[k]
		if err := b.WriteTo(w); err != nil {
			return fmt.Errorf("failed to merge cell %s: %w", k, err)
		}
		if err := b.Remove(); err != nil {
			return fmt.Errorf("failed to remove cell %s: %w", k, err)
		}

		written += b.Count()
		if written/g.interval > mark/g.interval {
			mark = written
			g.logProgress("merging", written, g.accepted)
		}
	}
	return nil
}

// Stats summarizes the grid's buckets. Informational only.
type Stats struct {
	Buckets     int
	AvgPoints   float64
	AvgFileSize int64
	TotalSize   int64
}

// Stats returns aggregate bucket statistics.
func (g *Grid) Stats() Stats {
	s := Stats{Buckets: len(g.buckets)}
	if s.Buckets == 0 {
		return s
	}
	for _, b := range g.buckets {
		s.TotalSize += b.FileSize()
	}
	s.AvgPoints = float64(g.accepted) / float64(s.Buckets)
	s.AvgFileSize = s.TotalSize / int64(s.Buckets)
	return s
}

// Close tears the grid down: removal of every bucket's segments and pending
// buffers, and removal of exactly the directories this grid created (leaf
// first, so a nested fresh working directory leaves no empty parents
// behind). Pre-existing directories are never touched. Safe to call after a
// completed Write, where all buckets are already empty.
func (g *Grid) Close() error {
	var firstErr error

	for _, b := range g.buckets {
		if err := b.Remove(); err != nil && firstErr == nil {
			firstErr = err
		}
	}

	for _, dir := range g.created {
		if err := g.fsys.Remove(dir); err != nil && !errors.Is(err, os.ErrNotExist) && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (g *Grid) logProgress(phase string, done, total uint64) {
	if total == 0 {
		g.logger.Info(phase, "points", done)
		return
	}
	g.logger.Info(phase,
		"points", done,
		"percent", fmt.Sprintf("%.1f", 100*float64(done)/float64(total)),
	)
}
