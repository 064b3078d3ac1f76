package testutil

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/hupe1980/lassort/lpc"
)

func TestUniformCloud(t *testing.T) {
	rng := NewRNG(4711)

	pts := rng.UniformCloud(1000, 100.0)

	assert.Equal(t, 1000, len(pts))
	for _, p := range pts {
		assert.GreaterOrEqual(t, p.X, 0.0)
		assert.Less(t, p.X, 100.0)
		assert.GreaterOrEqual(t, p.Y, 0.0)
		assert.Less(t, p.Y, 100.0)
		assert.GreaterOrEqual(t, p.Z, 0.0)
		assert.Less(t, p.Z, 100.0)
	}
}

func TestGaussianCloud(t *testing.T) {
	rng := NewRNG(4711)

	pts := rng.GaussianCloud(10000, 10.0)

	assert.Equal(t, 10000, len(pts))

	var sumX float64
	for _, p := range pts {
		sumX += p.X
	}
	assert.InDelta(t, 0.0, sumX/float64(len(pts)), 0.5)
}

func TestClusteredCloud(t *testing.T) {
	rng := NewRNG(4711)

	pts := rng.ClusteredCloud(1000, 5, 100.0, 0.5)

	assert.Equal(t, 1000, len(pts))

	b := BoundsOf(pts)
	assert.Less(t, b.MaxX-b.MinX, 110.0)
}

func TestReset(t *testing.T) {
	rng := NewRNG(4711)
	p1 := rng.UniformCloud(10, 1.0)

	rng.Reset()
	p2 := rng.UniformCloud(10, 1.0)

	assert.Equal(t, p1, p2)
}

func TestBoundsOf(t *testing.T) {
	rng := NewRNG(4711)
	pts := rng.GaussianCloud(1000, 10.0)

	b := BoundsOf(pts)

	for _, p := range pts {
		assert.GreaterOrEqual(t, p.X, b.MinX)
		assert.LessOrEqual(t, p.X, b.MaxX)
		assert.GreaterOrEqual(t, p.Y, b.MinY)
		assert.LessOrEqual(t, p.Y, b.MaxY)
		assert.GreaterOrEqual(t, p.Z, b.MinZ)
		assert.LessOrEqual(t, p.Z, b.MaxZ)
	}

	assert.Equal(t, lpc.Bounds{}, BoundsOf(nil))
}
