// Package lpc implements the LPC (LIDAR point cloud) container format.
//
// A file is a fixed-size little-endian header followed by a stream of
// fixed-size point records. The header is always stored uncompressed, even
// when the point stream is compressed, so the point-record count can be
// rewritten in place after the stream has been written.
//
// Compression of the point stream is selected per file (none, lz4 or zstd)
// and recorded in the header, so readers are self-describing.
package lpc

import (
	"errors"
	"fmt"
	"strings"
)

// CompressionType defines the compression algorithm used for the point stream.
type CompressionType uint8

const (
	// CompressionNone indicates an uncompressed point stream.
	CompressionNone CompressionType = 0
	// CompressionLZ4 indicates an lz4-framed point stream (fast).
	CompressionLZ4 CompressionType = 1
	// CompressionZSTD indicates a zstd-framed point stream (better ratio).
	CompressionZSTD CompressionType = 2
)

func (c CompressionType) String() string {
	switch c {
	case CompressionNone:
		return "none"
	case CompressionLZ4:
		return "lz4"
	case CompressionZSTD:
		return "zstd"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(c))
	}
}

// CompressionForPath derives the point-stream compression from a file path:
// ".zst" selects zstd, ".lz4" selects lz4, anything else is uncompressed.
func CompressionForPath(path string) CompressionType {
	switch {
	case strings.HasSuffix(path, ".zst"):
		return CompressionZSTD
	case strings.HasSuffix(path, ".lz4"):
		return CompressionLZ4
	default:
		return CompressionNone
	}
}

// ErrBadMagic is returned when a file does not start with the LPC magic.
var ErrBadMagic = errors.New("invalid LPC header magic")

// ErrUnsupportedVersion indicates a header version this build cannot decode.
type ErrUnsupportedVersion struct {
	Version uint16
}

func (e *ErrUnsupportedVersion) Error() string {
	return fmt.Sprintf("unsupported LPC header version: %d", e.Version)
}

// ErrUnsupportedCompression indicates an unknown compression flag.
type ErrUnsupportedCompression struct {
	Compression CompressionType
}

func (e *ErrUnsupportedCompression) Error() string {
	return fmt.Sprintf("unsupported LPC compression: %d", uint8(e.Compression))
}
