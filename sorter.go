package lassort

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/hupe1980/lassort/lpc"
	"github.com/hupe1980/lassort/tile"
)

// TargetCellPopulation is the point count the cell-size estimator aims for
// per cell. The estimate assumes uniform spatial density; it is a heuristic,
// not a bound, and degrades with clustered data.
const TargetCellPopulation = 2_000_000

// Sorter rewrites one point-cloud file into spatial (cell raster) order.
// It is single-use: construct one per input file and call Run once.
//
// The run has two strictly sequential phases. The read pass routes every
// point into per-cell disk-backed buckets; only then is the output created,
// because its header carries the final (post-thinning) point count. The
// write pass merges the buckets in ascending cell order.
type Sorter struct {
	inputPath  string
	outputPath string
	opts       options
}

// New creates a Sorter for the given input file. If outputPath is empty it
// defaults to DefaultOutputPath(inputPath).
func New(inputPath, outputPath string, optFns ...Option) *Sorter {
	if outputPath == "" {
		outputPath = DefaultOutputPath(inputPath)
	}
	return &Sorter{
		inputPath:  inputPath,
		outputPath: outputPath,
		opts:       applyOptions(optFns),
	}
}

// DefaultOutputPath derives an output name from the input: "cloud.lpc"
// becomes "cloud-sorted.lpc", keeping any compression suffix chain
// ("cloud.lpc.zst" becomes "cloud-sorted.lpc.zst").
func DefaultOutputPath(inputPath string) string {
	dir, name := filepath.Split(inputPath)
	if i := strings.Index(name, "."); i >= 0 {
		name = name[:i] + "-sorted" + name[i:]
	} else {
		name += "-sorted"
	}
	return dir + name
}

// Summary reports informational statistics about a completed run.
type Summary struct {
	Input       string
	Output      string
	CellSize    float64
	Accepted    uint64
	Buckets     int
	AvgPoints   float64
	AvgFileSize int64
}

func (s Summary) String() string {
	return fmt.Sprintf("%s points in %s cells (avg %s points, %s scratch per cell), cell size %g",
		humanize.Comma(int64(s.Accepted)),
		humanize.Comma(int64(s.Buckets)),
		humanize.Comma(int64(math.Round(s.AvgPoints))),
		humanize.Bytes(uint64(s.AvgFileSize)),
		s.CellSize,
	)
}

// Run executes the sort. Any I/O or format error aborts the run; scratch
// segments and the working directory are released on every path, and a
// partially written output file is removed rather than left looking valid.
func (s *Sorter) Run(ctx context.Context) (Summary, error) {
	if s.opts.thinFraction < 0 || s.opts.thinFraction >= 1 {
		return Summary{}, fmt.Errorf("%w: %g", ErrInvalidThinFraction, s.opts.thinFraction)
	}

	logger := s.opts.logger.WithFile(s.inputPath)

	r, err := lpc.Open(s.opts.fsys, s.inputPath)
	if err != nil {
		return Summary{}, err
	}
	defer r.Close()

	header := r.Header()

	cellSize := s.opts.cellSize
	if cellSize <= 0 {
		cellSize, err = estimateCellSize(header.Bounds, header.PointCount, s.opts.thinFraction)
		if err != nil {
			return Summary{}, err
		}
		logger.Debug("estimated cell size",
			"cell_size", cellSize,
			"declared_points", header.PointCount,
		)
	}

	logger = logger.WithCellSize(cellSize)

	rnd := s.opts.rnd
	if rnd == nil {
		rnd = rand.New(rand.NewSource(time.Now().UnixNano())) //nolint:gosec // Thinning draws need no crypto strength
	}

	grid, err := tile.New(s.opts.fsys, s.opts.workDir, cellSize, header, func(o *tile.Options) {
		o.Rand = rnd
		o.Logger = logger.Logger
	})
	if err != nil {
		return Summary{}, err
	}
	// Teardown runs on success and on every failure path: leftover segments
	// are deleted and the working directory is removed if the grid made it.
	defer grid.Close()

	if err := grid.Read(ctx, r, s.opts.thinFraction); err != nil {
		return Summary{}, fmt.Errorf("failed to bucket %s: %w", s.inputPath, err)
	}

	// Output compression follows the output path, not the input.
	outHeader := header
	outHeader.PointCount = grid.Accepted()
	outHeader.Compression = lpc.CompressionForPath(s.outputPath)

	stats := grid.Stats()

	w, err := lpc.Create(s.opts.fsys, s.outputPath, outHeader)
	if err != nil {
		return Summary{}, err
	}

	if err := grid.Write(ctx, w); err != nil {
		_ = w.Close()
		s.discardOutput()
		return Summary{}, fmt.Errorf("failed to merge into %s: %w", s.outputPath, err)
	}
	if err := w.Close(); err != nil {
		s.discardOutput()
		return Summary{}, err
	}

	summary := Summary{
		Input:       s.inputPath,
		Output:      s.outputPath,
		CellSize:    cellSize,
		Accepted:    grid.Accepted(),
		Buckets:     stats.Buckets,
		AvgPoints:   stats.AvgPoints,
		AvgFileSize: stats.AvgFileSize,
	}
	logger.LogSummary(ctx, summary)
	return summary, nil
}

// discardOutput removes a partially written output file so a failed run
// cannot leave a valid-looking result behind.
func (s *Sorter) discardOutput() {
	_ = s.opts.fsys.Remove(s.outputPath)
}

// estimateCellSize derives a cell edge length so that, assuming uniform
// density, each cell receives about TargetCellPopulation points after
// thinning: cbrt(volume / expected cells).
func estimateCellSize(bounds lpc.Bounds, declared uint64, thinFraction float64) (float64, error) {
	volume := bounds.Volume()
	expected := float64(declared) * (1 - thinFraction)
	if volume <= 0 || expected <= 0 {
		return 0, &ErrCellSizeEstimate{Volume: volume, ExpectedPoints: expected}
	}
	cells := expected / TargetCellPopulation
	return math.Cbrt(volume / cells), nil
}
