// Package tile implements the disk-backed spatial bucketing engine.
//
// Points are routed to cells of an axis-aligned cubic grid ([Key]), buffered
// per cell ([Bucket]) and spilled to append-only scratch segments so resident
// memory stays bounded regardless of input size. A [Grid] drives the two
// phases: a streaming read pass that routes and periodically flushes, and a
// merge pass that replays the cells in ascending key order into the output.
package tile

import "fmt"

// Key identifies one cubic grid cell. Keys are ordered lexicographically on
// (I, J, K), which makes the merge pass emit cells in raster order.
type Key struct {
	I, J, K int64
}

// KeyAt maps a position to the cell containing it.
//
// The division truncates toward zero rather than flooring, so for negative
// coordinates the cells adjacent to a zero plane are half-open in the
// opposite direction. Kept as-is: existing tilings depend on the cell
// assignment being stable across versions.
func KeyAt(x, y, z, cellSize float64) Key {
	return Key{
		I: int64(x / cellSize),
		J: int64(y / cellSize),
		K: int64(z / cellSize),
	}
}

// Compare returns -1, 0 or 1 ordering keys lexicographically on (I, J, K).
func (k Key) Compare(o Key) int {
	if c := cmpInt64(k.I, o.I); c != 0 {
		return c
	}
	if c := cmpInt64(k.J, o.J); c != 0 {
		return c
	}
	return cmpInt64(k.K, o.K)
}

// Less reports whether k orders before o.
func (k Key) Less(o Key) bool {
	return k.Compare(o) < 0
}

func (k Key) String() string {
	return fmt.Sprintf("(%d,%d,%d)", k.I, k.J, k.K)
}

func cmpInt64(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
