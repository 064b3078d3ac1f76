package lpc

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"

	"github.com/hupe1980/lassort/internal/fs"
)

const readBufferSize = 1 << 20

// Reader streams points sequentially from an LPC file.
type Reader struct {
	file   fs.File
	src    io.Reader
	zr     *zstd.Decoder
	header Header
	read   uint64
}

// Open opens an LPC file for sequential reading. If fsys is nil the local
// file system is used.
func Open(fsys fs.FileSystem, path string) (*Reader, error) {
	if fsys == nil {
		fsys = fs.Default
	}

	file, err := fsys.OpenFile(path, os.O_RDONLY, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}

	header, err := readHeader(file)
	if err != nil {
		_ = file.Close()
		return nil, err
	}

	r := &Reader{file: file, header: header}

	buffered := bufio.NewReaderSize(file, readBufferSize)
	switch header.Compression {
	case CompressionNone:
		r.src = buffered
	case CompressionLZ4:
		r.src = lz4.NewReader(buffered)
	case CompressionZSTD:
		zr, err := zstd.NewReader(buffered)
		if err != nil {
			_ = file.Close()
			return nil, fmt.Errorf("failed to create zstd reader: %w", err)
		}
		r.zr = zr
		r.src = zr
	}

	return r, nil
}

// Header returns the file header as read at open time.
func (r *Reader) Header() Header {
	return r.header
}

// Next returns the next point, or io.EOF after the last one.
func (r *Reader) Next() (Point, error) {
	var buf [PointSize]byte
	if _, err := io.ReadFull(r.src, buf[:]); err != nil {
		if errors.Is(err, io.EOF) {
			return Point{}, io.EOF
		}
		return Point{}, fmt.Errorf("failed to read point record %d: %w", r.read, err)
	}
	r.read++
	return unmarshalPoint(buf[:]), nil
}

// Close releases the underlying file.
func (r *Reader) Close() error {
	if r.zr != nil {
		r.zr.Close()
		r.zr = nil
	}
	if r.file == nil {
		return nil
	}
	err := r.file.Close()
	r.file = nil
	return err
}
