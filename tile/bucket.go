package tile

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/hupe1980/lassort/internal/fs"
	"github.com/hupe1980/lassort/lpc"
)

// Bucket accumulates the points of one grid cell. Points are buffered in
// memory until Flush spills them to an immutable scratch segment in the
// owning grid's working directory. The bucket owns its segment files and
// removes them after the merge pass (or on teardown).
type Bucket struct {
	fsys     fs.FileSystem
	dir      string
	header   lpc.Header
	pending  []lpc.Point
	segments []string
	count    uint64
	size     int64
}

func newBucket(fsys fs.FileSystem, dir string, header lpc.Header) *Bucket {
	return &Bucket{
		fsys:   fsys,
		dir:    dir,
		header: header,
	}
}

// Add buffers one point. The bucket's count reflects every point ever added,
// independent of flush timing.
func (b *Bucket) Add(p lpc.Point) {
	b.pending = append(b.pending, p)
	b.count++
}

// Count returns the number of points added to this bucket across all
// segments and the pending buffer.
func (b *Bucket) Count() uint64 {
	return b.count
}

// FileSize returns the summed on-disk size of all segments. Diagnostic only.
func (b *Bucket) FileSize() int64 {
	return b.size
}

// Flush spills the pending buffer to a new scratch segment. A flush with an
// empty buffer is a no-op, so calling it repeatedly is safe.
//
// Scratch segments are never compressed; compression is a final-output
// concern and would only burn CPU on files that live for one run.
func (b *Bucket) Flush() error {
	if len(b.pending) == 0 {
		return nil
	}

	header := b.header
	header.Compression = lpc.CompressionNone
	header.PointCount = uint64(len(b.pending))

	path := filepath.Join(b.dir, fmt.Sprintf("seg-%s.lpc", uuid.NewString()))

	w, err := lpc.Create(b.fsys, path, header)
	if err != nil {
		return fmt.Errorf("failed to create segment: %w", err)
	}
	// Track the segment before writing so a failed flush is still cleaned
	// up by Remove.
	b.segments = append(b.segments, path)

	for _, p := range b.pending {
		if err := w.Write(p); err != nil {
			_ = w.Close()
			return fmt.Errorf("failed to write segment %s: %w", path, err)
		}
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to close segment %s: %w", path, err)
	}

	info, err := b.fsys.Stat(path)
	if err != nil {
		return fmt.Errorf("failed to stat segment %s: %w", path, err)
	}
	b.size += info.Size()

	b.pending = b.pending[:0]
	return nil
}

// WriteTo replays every segment, in creation order, into w. Within a cell
// this is the original insertion order; the contents are never re-sorted.
func (b *Bucket) WriteTo(w *lpc.Writer) error {
	if err := b.Flush(); err != nil {
		return err
	}

	for _, seg := range b.segments {
		if err := b.replaySegment(seg, w); err != nil {
			return err
		}
	}
	return nil
}

func (b *Bucket) replaySegment(path string, w *lpc.Writer) error {
	r, err := lpc.Open(b.fsys, path)
	if err != nil {
		return fmt.Errorf("failed to open segment: %w", err)
	}
	defer r.Close()

	for {
		p, err := r.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to replay segment %s: %w", path, err)
		}
		if err := w.Write(p); err != nil {
			return err
		}
	}
}

// Remove deletes all segment files. Safe to call repeatedly.
func (b *Bucket) Remove() error {
	var firstErr error
	for _, seg := range b.segments {
		if err := b.fsys.Remove(seg); err != nil && !errors.Is(err, os.ErrNotExist) && firstErr == nil {
			firstErr = err
		}
	}
	b.segments = nil
	b.pending = nil
	return firstErr
}
