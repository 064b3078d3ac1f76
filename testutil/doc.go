// Package testutil provides testing utilities for lassort.
//
// This package is intended for use in tests and benchmarks only.
// It provides helpers for generating reproducible random point clouds
// with different spatial distributions.
//
// # Point Cloud Generation
//
//	rng := testutil.NewRNG(seed)
//	pts := rng.UniformCloud(10_000, 100.0)    // uniform in [0, 100)^3
//	pts = rng.GaussianCloud(10_000, 25.0)     // normal around the origin
//	pts = rng.ClusteredCloud(10_000, 8, 100.0, 2.0)
//
// # Bounds
//
//	bounds := testutil.BoundsOf(pts)
package testutil
