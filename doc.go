// Package lassort spatially re-sorts massive LIDAR point clouds with bounded
// memory.
//
// Lassort repartitions point-cloud files that exceed available memory into
// raster (ascending grid-cell) order using disk-backed bucketing followed by
// an external merge pass, optionally down-sampling the data on the way.
// Output in spatial order feeds downstream tiling, rendering and indexing
// tools that want coherent access patterns.
//
// # Quick Start
//
//	ctx := context.Background()
//
//	// Sort with an explicit 25m cell, writing cloud-sorted.lpc
//	summary, err := lassort.New("cloud.lpc", "",
//	    lassort.WithCellSize(25),
//	).Run(ctx)
//
//	// Auto-estimated cell size, 30% thinning, zstd-compressed output
//	summary, err = lassort.New("cloud.lpc", "small.lpc.zst",
//	    lassort.WithThinFraction(0.3),
//	).Run(ctx)
//
// # How It Works
//
// A run has two strictly sequential phases:
//
//  1. READ — every input point is routed to the bucket of its grid cell.
//     Buckets buffer in memory and spill to append-only scratch segments
//     every million input points, so resident memory stays bounded no
//     matter how large the input is.
//  2. WRITE — buckets are merged into the output in ascending cell order,
//     and each bucket's scratch files are deleted as soon as it has been
//     streamed. The output header carries the exact post-thinning point
//     count, which is only known once the read phase finishes.
//
// The trade is deliberate: extra disk I/O (two full passes, many scratch
// segments) buys O(batch) memory usage.
//
// # Key Features
//
//   - Bounded memory for arbitrarily large inputs
//   - Deterministic output for a fixed input and cell size
//   - Probabilistic thinning with an injectable, seedable random source
//   - Scratch files cleaned up on success and on failure
//   - Optional zstd or lz4 output compression, chosen by file suffix
package lassort
