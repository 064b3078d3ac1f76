package testutil

import (
	"math/rand"
	"sync"

	"github.com/hupe1980/lassort/lpc"
)

// RNG struct encapsulates the random number generator and seed.
// It is thread-safe.
type RNG struct {
	rand *rand.Rand
	seed int64
	mu   sync.Mutex
}

// NewRNG creates a new RNG instance with the specified seed.
func NewRNG(seed int64) *RNG {
	return &RNG{
		rand: rand.New(rand.NewSource(seed)), //nolint:gosec // Test data only
		seed: seed,
	}
}

// Reset resets the RNG to its initial seed.
func (r *RNG) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rand.Seed(r.seed)
}

// Seed returns the initial seed.
func (r *RNG) Seed() int64 {
	return r.seed
}

// Rand exposes the underlying source, for injecting into components that
// take a *rand.Rand. Callers own the synchronization from then on.
func (r *RNG) Rand() *rand.Rand {
	return r.rand
}

// UniformCloud generates points uniformly distributed in the axis-aligned
// box [0,scale)^3, with varying per-point attributes.
func (r *RNG) UniformCloud(num int, scale float64) []lpc.Point {
	r.mu.Lock()
	defer r.mu.Unlock()

	pts := make([]lpc.Point, num)
	for i := range pts {
		pts[i] = lpc.Point{
			X:              r.rand.Float64() * scale,
			Y:              r.rand.Float64() * scale,
			Z:              r.rand.Float64() * scale,
			Intensity:      uint16(r.rand.Intn(1 << 16)),
			ReturnNumber:   uint8(r.rand.Intn(4)),
			Classification: uint8(r.rand.Intn(8)),
		}
	}
	return pts
}

// GaussianCloud generates points from a zero-centered normal distribution
// with the given standard deviation per axis. Negative coordinates are a
// feature here: they exercise the cell-boundary behavior around zero.
func (r *RNG) GaussianCloud(num int, sigma float64) []lpc.Point {
	r.mu.Lock()
	defer r.mu.Unlock()

	pts := make([]lpc.Point, num)
	for i := range pts {
		pts[i] = lpc.Point{
			X: r.rand.NormFloat64() * sigma,
			Y: r.rand.NormFloat64() * sigma,
			Z: r.rand.NormFloat64() * sigma,
		}
	}
	return pts
}

// ClusteredCloud generates points packed around random centroids inside
// [0,scale)^3. Useful for testing behavior on non-uniform density, where
// the cell-size estimator's uniformity assumption is at its worst.
func (r *RNG) ClusteredCloud(num, clusters int, scale, spread float64) []lpc.Point {
	r.mu.Lock()
	defer r.mu.Unlock()

	centroids := make([][3]float64, clusters)
	for i := range centroids {
		centroids[i] = [3]float64{
			r.rand.Float64() * scale,
			r.rand.Float64() * scale,
			r.rand.Float64() * scale,
		}
	}

	pts := make([]lpc.Point, num)
	for i := range pts {
		c := centroids[i%clusters]
		pts[i] = lpc.Point{
			X: c[0] + r.rand.NormFloat64()*spread,
			Y: c[1] + r.rand.NormFloat64()*spread,
			Z: c[2] + r.rand.NormFloat64()*spread,
		}
	}
	return pts
}

// BoundsOf computes the tight axis-aligned bounding box of a point slice,
// the way a capture pipeline would record it in the source header.
func BoundsOf(pts []lpc.Point) lpc.Bounds {
	if len(pts) == 0 {
		return lpc.Bounds{}
	}
	b := lpc.Bounds{
		MinX: pts[0].X, MinY: pts[0].Y, MinZ: pts[0].Z,
		MaxX: pts[0].X, MaxY: pts[0].Y, MaxZ: pts[0].Z,
	}
	for _, p := range pts[1:] {
		b.Extend(p.X, p.Y, p.Z)
	}
	return b
}
