package tile

import (
	"context"
	"io"
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/lassort/lpc"
	"github.com/hupe1980/lassort/testutil"
)

func writeCloud(t *testing.T, path string, header lpc.Header, pts []lpc.Point) {
	t.Helper()

	w, err := lpc.Create(nil, path, header)
	require.NoError(t, err)
	for _, p := range pts {
		require.NoError(t, w.Write(p))
	}
	require.NoError(t, w.Close())
}

func openCloud(t *testing.T, path string) *lpc.Reader {
	t.Helper()

	r, err := lpc.Open(nil, path)
	require.NoError(t, err)
	t.Cleanup(func() { r.Close() })
	return r
}

func seededGrid(t *testing.T, dir string, cellSize float64, seed int64) *Grid {
	t.Helper()

	g, err := New(nil, dir, cellSize, lpc.Header{}, func(o *Options) {
		o.Rand = rand.New(rand.NewSource(seed))
	})
	require.NoError(t, err)
	return g
}

func TestGridCountSumInvariant(t *testing.T) {
	tmp := t.TempDir()

	pts := testutil.NewRNG(7).UniformCloud(500, 10)
	in := filepath.Join(tmp, "in.lpc")
	writeCloud(t, in, lpc.Header{}, pts)

	g := seededGrid(t, filepath.Join(tmp, "work"), 2.5, 1)
	defer g.Close()

	require.NoError(t, g.Read(context.Background(), openCloud(t, in), 0))

	var sum uint64
	for _, b := range g.buckets {
		sum += b.Count()
	}
	assert.Equal(t, g.Accepted(), sum)
	assert.Equal(t, uint64(len(pts)), g.Accepted())
}

func TestGridEightCellScenario(t *testing.T) {
	tmp := t.TempDir()

	const n = 8000
	pts := testutil.NewRNG(11).UniformCloud(n, 1)
	in := filepath.Join(tmp, "in.lpc")
	writeCloud(t, in, lpc.Header{}, pts)

	g := seededGrid(t, filepath.Join(tmp, "work"), 0.5, 1)
	defer g.Close()

	require.NoError(t, g.Read(context.Background(), openCloud(t, in), 0))

	// Unit cube with cell size 0.5 splits into exactly 8 octants.
	require.Len(t, g.buckets, 8)
	for k, b := range g.buckets {
		assert.InDelta(t, n/8, b.Count(), n/8*0.25, "cell %s", k)
	}

	stats := g.Stats()
	assert.Equal(t, 8, stats.Buckets)
	assert.InDelta(t, n/8, stats.AvgPoints, 0.001)
}

func TestGridThinningStatistics(t *testing.T) {
	tmp := t.TempDir()

	const (
		n    = 100_000
		thin = 0.3
	)
	pts := make([]lpc.Point, n)
	for i := range pts {
		pts[i] = lpc.Point{X: float64(i % 100), Y: float64(i / 100)}
	}
	in := filepath.Join(tmp, "in.lpc")
	writeCloud(t, in, lpc.Header{}, pts)

	g := seededGrid(t, filepath.Join(tmp, "work"), 1000, 42)
	defer g.Close()

	require.NoError(t, g.Read(context.Background(), openCloud(t, in), thin))

	// Accepted fraction converges to 1-thin. With n=1e5 the standard
	// deviation of the fraction is ~0.0014, so 0.01 is a >6 sigma bound.
	got := float64(g.Accepted()) / float64(n)
	assert.InDelta(t, 1-thin, got, 0.01)
}

func TestGridThinningDisabledConsumesNoRandomness(t *testing.T) {
	tmp := t.TempDir()

	in := filepath.Join(tmp, "in.lpc")
	writeCloud(t, in, lpc.Header{}, cellPoints(100))

	g := seededGrid(t, filepath.Join(tmp, "work"), 1000, 42)
	defer g.Close()

	require.NoError(t, g.Read(context.Background(), openCloud(t, in), 0))
	assert.Equal(t, uint64(100), g.Accepted())

	// The grid's source must be untouched after a run without thinning.
	want := rand.New(rand.NewSource(42)).Float64()
	assert.Equal(t, want, g.rnd.Float64())
}

func TestGridReadFlushesAtBatchBoundary(t *testing.T) {
	tmp := t.TempDir()

	in := filepath.Join(tmp, "in.lpc")
	writeCloud(t, in, lpc.Header{}, cellPoints(25))

	g, err := New(nil, filepath.Join(tmp, "work"), 1000, lpc.Header{}, func(o *Options) {
		o.FlushInterval = 10
	})
	require.NoError(t, err)
	defer g.Close()

	require.NoError(t, g.Read(context.Background(), openCloud(t, in), 0))
	assert.Equal(t, uint64(25), g.Accepted())

	// 25 points with a batch size of 10: two boundary flushes plus the
	// final partial one, and nothing left buffered in memory.
	require.Len(t, g.buckets, 1)
	for _, b := range g.buckets {
		assert.Empty(t, b.pending)
		assert.Len(t, b.segments, 3)
	}
}

func TestGridReadCancelsAtBatchBoundary(t *testing.T) {
	tmp := t.TempDir()

	in := filepath.Join(tmp, "in.lpc")
	writeCloud(t, in, lpc.Header{}, cellPoints(25))

	g, err := New(nil, filepath.Join(tmp, "work"), 1000, lpc.Header{}, func(o *Options) {
		o.FlushInterval = 10
	})
	require.NoError(t, err)
	defer g.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err = g.Read(ctx, openCloud(t, in), 0)
	assert.ErrorIs(t, err, context.Canceled)
	// The read stops at the first batch boundary, not mid-batch.
	assert.Equal(t, uint64(10), g.Accepted())
}

func TestGridReadRejectsInvalidThinFraction(t *testing.T) {
	tmp := t.TempDir()

	in := filepath.Join(tmp, "in.lpc")
	writeCloud(t, in, lpc.Header{}, nil)

	g := seededGrid(t, filepath.Join(tmp, "work"), 1, 1)
	defer g.Close()

	assert.Error(t, g.Read(context.Background(), openCloud(t, in), -0.1))
	assert.Error(t, g.Read(context.Background(), openCloud(t, in), 1))
}

func TestGridWriteAscendingKeyOrder(t *testing.T) {
	tmp := t.TempDir()

	// Cells deliberately added out of order, including negatives.
	pts := []lpc.Point{
		{X: 5.5, Y: 0.5, Z: 0.5},
		{X: -2.5, Y: 0.5, Z: 0.5},
		{X: 0.5, Y: 3.5, Z: 0.5},
		{X: 5.7, Y: 0.1, Z: 0.9}, // same cell as the first point
		{X: 0.5, Y: 0.5, Z: 0.5},
	}
	in := filepath.Join(tmp, "in.lpc")
	writeCloud(t, in, lpc.Header{}, pts)

	g := seededGrid(t, filepath.Join(tmp, "work"), 1, 1)
	defer g.Close()
	require.NoError(t, g.Read(context.Background(), openCloud(t, in), 0))

	out := filepath.Join(tmp, "out.lpc")
	w, err := lpc.Create(nil, out, lpc.Header{})
	require.NoError(t, err)
	require.NoError(t, g.Write(context.Background(), w))
	require.NoError(t, w.Close())

	r := openCloud(t, out)
	var keys []Key
	var got []lpc.Point
	for {
		p, err := r.Next()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		got = append(got, p)
		keys = append(keys, KeyAt(p.X, p.Y, p.Z, 1))
	}

	require.Len(t, got, len(pts))
	for i := 1; i < len(keys); i++ {
		assert.LessOrEqual(t, keys[i-1].Compare(keys[i]), 0, "output not in cell order at %d", i)
	}
	// Within the shared cell, insertion order survives the merge.
	assert.Equal(t, pts[0], got[len(got)-2])
	assert.Equal(t, pts[3], got[len(got)-1])
}

func TestGridWriteReclaimsSegments(t *testing.T) {
	tmp := t.TempDir()

	in := filepath.Join(tmp, "in.lpc")
	writeCloud(t, in, lpc.Header{}, cellPoints(50))

	work := filepath.Join(tmp, "work")
	g := seededGrid(t, work, 10, 1)
	require.NoError(t, g.Read(context.Background(), openCloud(t, in), 0))

	out := filepath.Join(tmp, "out.lpc")
	w, err := lpc.Create(nil, out, lpc.Header{})
	require.NoError(t, err)
	require.NoError(t, g.Write(context.Background(), w))
	require.NoError(t, w.Close())

	entries, err := os.ReadDir(work)
	require.NoError(t, err)
	assert.Empty(t, entries, "segments must be removed as cells are merged")

	// Close removes the directory it created.
	require.NoError(t, g.Close())
	assert.NoDirExists(t, work)
}

func TestGridClosePreservesForeignDir(t *testing.T) {
	tmp := t.TempDir()

	// The working directory already exists, so the grid must not delete it.
	work := filepath.Join(tmp, "pre-existing")
	require.NoError(t, os.MkdirAll(work, 0o755))

	g := seededGrid(t, work, 1, 1)
	g.Add(lpc.Point{X: 0.5})
	require.NoError(t, g.FlushAll())

	require.NoError(t, g.Close())
	assert.DirExists(t, work)

	entries, err := os.ReadDir(work)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestGridCloseRemovesNestedCreatedDirs(t *testing.T) {
	tmp := t.TempDir()

	// Every level below tmp is fresh; Close must remove the whole chain,
	// not just the leaf.
	work := filepath.Join(tmp, "a", "b", "c")
	g := seededGrid(t, work, 1, 1)
	g.Add(lpc.Point{X: 0.5})
	require.NoError(t, g.FlushAll())

	require.NoError(t, g.Close())
	assert.NoDirExists(t, filepath.Join(tmp, "a"))
	assert.DirExists(t, tmp)
}

func TestGridEmptyInput(t *testing.T) {
	tmp := t.TempDir()

	in := filepath.Join(tmp, "in.lpc")
	writeCloud(t, in, lpc.Header{}, nil)

	work := filepath.Join(tmp, "work")
	g := seededGrid(t, work, 1, 1)

	require.NoError(t, g.Read(context.Background(), openCloud(t, in), 0))
	assert.Zero(t, g.Accepted())
	assert.Empty(t, g.buckets)
	assert.Zero(t, g.Stats().Buckets)

	require.NoError(t, g.Close())
	assert.NoDirExists(t, work)
}

func TestGridDeterministicWithoutThinning(t *testing.T) {
	tmp := t.TempDir()

	pts := testutil.NewRNG(3).GaussianCloud(300, 5)
	in := filepath.Join(tmp, "in.lpc")
	writeCloud(t, in, lpc.Header{}, pts)

	run := func(tag string) []lpc.Point {
		g := seededGrid(t, filepath.Join(tmp, "work-"+tag), 2, 99)
		defer g.Close()
		require.NoError(t, g.Read(context.Background(), openCloud(t, in), 0))

		out := filepath.Join(tmp, "out-"+tag+".lpc")
		w, err := lpc.Create(nil, out, lpc.Header{})
		require.NoError(t, err)
		require.NoError(t, g.Write(context.Background(), w))
		require.NoError(t, w.Close())

		r := openCloud(t, out)
		var got []lpc.Point
		for {
			p, err := r.Next()
			if err == io.EOF {
				return got
			}
			require.NoError(t, err)
			got = append(got, p)
		}
	}

	assert.Equal(t, run("a"), run("b"))
}

func TestGridStatsAverages(t *testing.T) {
	tmp := t.TempDir()

	g := seededGrid(t, filepath.Join(tmp, "work"), 1, 1)
	defer g.Close()

	// Two cells, three points.
	g.Add(lpc.Point{X: 0.5})
	g.Add(lpc.Point{X: 0.6})
	g.Add(lpc.Point{X: 5.5})
	require.NoError(t, g.FlushAll())

	stats := g.Stats()
	assert.Equal(t, 2, stats.Buckets)
	assert.InDelta(t, 1.5, stats.AvgPoints, 1e-9)

	wantTotal := int64(2*lpc.HeaderSize + 3*lpc.PointSize)
	assert.Equal(t, wantTotal, stats.TotalSize)
	assert.Equal(t, wantTotal/2, stats.AvgFileSize)
}
