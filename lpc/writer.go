package lpc

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"

	"github.com/hupe1980/lassort/internal/fs"
)

// Writer streams points into an LPC file.
//
// The header is written immediately on Create; Close flushes the point
// stream and rewrites the header's point-record count in place with the
// number of points actually written.
type Writer struct {
	file   fs.File
	bw     *bufio.Writer
	zw     *zstd.Encoder
	lw     *lz4.Writer
	dst    io.Writer
	header Header
	count  uint64
	closed bool
}

// Create creates (or truncates) an LPC file and writes its header. The
// compression recorded in the header decides how the point stream is
// encoded. If fsys is nil the local file system is used.
func Create(fsys fs.FileSystem, path string, header Header) (*Writer, error) {
	if fsys == nil {
		fsys = fs.Default
	}

	file, err := fsys.OpenFile(path, os.O_CREATE|os.O_RDWR|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", path, err)
	}

	hdr := header.marshal()
	if _, err := file.Write(hdr[:]); err != nil {
		_ = file.Close()
		return nil, fmt.Errorf("failed to write LPC header: %w", err)
	}

	w := &Writer{file: file, header: header}
	w.bw = bufio.NewWriterSize(file, readBufferSize)

	switch header.Compression {
	case CompressionNone:
		w.dst = w.bw
	case CompressionLZ4:
		w.lw = lz4.NewWriter(w.bw)
		w.dst = w.lw
	case CompressionZSTD:
		zw, err := zstd.NewWriter(w.bw)
		if err != nil {
			_ = file.Close()
			return nil, fmt.Errorf("failed to create zstd writer: %w", err)
		}
		w.zw = zw
		w.dst = zw
	default:
		_ = file.Close()
		return nil, &ErrUnsupportedCompression{Compression: header.Compression}
	}

	return w, nil
}

// Header returns the header the writer was created with.
func (w *Writer) Header() Header {
	return w.header
}

// Write appends one point to the stream.
func (w *Writer) Write(p Point) error {
	buf := p.marshal()
	if _, err := w.dst.Write(buf[:]); err != nil {
		return fmt.Errorf("failed to write point record %d: %w", w.count, err)
	}
	w.count++
	return nil
}

// Count returns the number of points written so far.
func (w *Writer) Count() uint64 {
	return w.count
}

// Close flushes the point stream, rewrites the header's point-record count
// with the number of points actually written, and closes the file.
func (w *Writer) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true

	if w.zw != nil {
		if err := w.zw.Close(); err != nil {
			_ = w.file.Close()
			return fmt.Errorf("failed to flush zstd stream: %w", err)
		}
	}
	if w.lw != nil {
		if err := w.lw.Close(); err != nil {
			_ = w.file.Close()
			return fmt.Errorf("failed to flush lz4 stream: %w", err)
		}
	}
	if err := w.bw.Flush(); err != nil {
		_ = w.file.Close()
		return fmt.Errorf("failed to flush point stream: %w", err)
	}

	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], w.count)
	if _, err := w.file.WriteAt(buf[:], pointCountOffset); err != nil {
		_ = w.file.Close()
		return fmt.Errorf("failed to rewrite point count: %w", err)
	}

	if err := w.file.Sync(); err != nil {
		_ = w.file.Close()
		return fmt.Errorf("failed to sync: %w", err)
	}
	return w.file.Close()
}
