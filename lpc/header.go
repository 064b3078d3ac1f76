package lpc

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
)

var lpcMagic = [4]byte{'L', 'P', 'C', '1'}

const (
	headerVersion = uint16(1)

	// HeaderSize is the fixed on-disk header length in bytes.
	HeaderSize = 64

	// pointCountOffset is the byte offset of the point-record count within
	// the header, used for the in-place rewrite on Writer.Close.
	pointCountOffset = 8
)

// Bounds is the axis-aligned bounding box of all points in a file.
type Bounds struct {
	MinX, MinY, MinZ float64
	MaxX, MaxY, MaxZ float64
}

// Volume returns the volume of the box. Degenerate boxes yield zero or
// negative values; callers decide how to treat those.
func (b Bounds) Volume() float64 {
	return (b.MaxX - b.MinX) * (b.MaxY - b.MinY) * (b.MaxZ - b.MinZ)
}

// Extend grows the box to include the given position.
func (b *Bounds) Extend(x, y, z float64) {
	b.MinX = math.Min(b.MinX, x)
	b.MinY = math.Min(b.MinY, y)
	b.MinZ = math.Min(b.MinZ, z)
	b.MaxX = math.Max(b.MaxX, x)
	b.MaxY = math.Max(b.MaxY, y)
	b.MaxZ = math.Max(b.MaxZ, z)
}

// Header describes an LPC file.
type Header struct {
	Version     uint16
	Compression CompressionType
	PointCount  uint64
	Bounds      Bounds
}

// marshal encodes the header into its fixed 64-byte on-disk form.
//
// Layout (little endian):
//
//	[0:4]   magic "LPC1"
//	[4:6]   version u16
//	[6]     compression u8
//	[7]     reserved
//	[8:16]  point count u64
//	[16:64] bounds min x/y/z, max x/y/z f64
func (h Header) marshal() [HeaderSize]byte {
	var buf [HeaderSize]byte
	copy(buf[0:4], lpcMagic[:])
	binary.LittleEndian.PutUint16(buf[4:6], headerVersion)
	buf[6] = uint8(h.Compression)
	binary.LittleEndian.PutUint64(buf[pointCountOffset:16], h.PointCount)
	binary.LittleEndian.PutUint64(buf[16:24], math.Float64bits(h.Bounds.MinX))
	binary.LittleEndian.PutUint64(buf[24:32], math.Float64bits(h.Bounds.MinY))
	binary.LittleEndian.PutUint64(buf[32:40], math.Float64bits(h.Bounds.MinZ))
	binary.LittleEndian.PutUint64(buf[40:48], math.Float64bits(h.Bounds.MaxX))
	binary.LittleEndian.PutUint64(buf[48:56], math.Float64bits(h.Bounds.MaxY))
	binary.LittleEndian.PutUint64(buf[56:64], math.Float64bits(h.Bounds.MaxZ))
	return buf
}

// readHeader decodes a header from r.
func readHeader(r io.Reader) (Header, error) {
	var buf [HeaderSize]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return Header{}, fmt.Errorf("failed to read LPC header: %w", err)
	}

	if [4]byte(buf[0:4]) != lpcMagic {
		return Header{}, ErrBadMagic
	}

	version := binary.LittleEndian.Uint16(buf[4:6])
	if version != headerVersion {
		return Header{}, &ErrUnsupportedVersion{Version: version}
	}

	compression := CompressionType(buf[6])
	switch compression {
	case CompressionNone, CompressionLZ4, CompressionZSTD:
	default:
		return Header{}, &ErrUnsupportedCompression{Compression: compression}
	}

	return Header{
		Version:     version,
		Compression: compression,
		PointCount:  binary.LittleEndian.Uint64(buf[pointCountOffset:16]),
		Bounds: Bounds{
			MinX: math.Float64frombits(binary.LittleEndian.Uint64(buf[16:24])),
			MinY: math.Float64frombits(binary.LittleEndian.Uint64(buf[24:32])),
			MinZ: math.Float64frombits(binary.LittleEndian.Uint64(buf[32:40])),
			MaxX: math.Float64frombits(binary.LittleEndian.Uint64(buf[40:48])),
			MaxY: math.Float64frombits(binary.LittleEndian.Uint64(buf[48:56])),
			MaxZ: math.Float64frombits(binary.LittleEndian.Uint64(buf[56:64])),
		},
	}, nil
}
