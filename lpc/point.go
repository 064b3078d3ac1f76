package lpc

import (
	"encoding/binary"
	"math"
)

// PointSize is the fixed on-disk point-record length in bytes.
const PointSize = 28

// Point is a single LIDAR return. The sorter only interprets the position;
// the remaining attributes are carried through untouched.
type Point struct {
	X, Y, Z        float64
	Intensity      uint16
	ReturnNumber   uint8
	Classification uint8
}

func (p Point) marshal() [PointSize]byte {
	var buf [PointSize]byte
	binary.LittleEndian.PutUint64(buf[0:8], math.Float64bits(p.X))
	binary.LittleEndian.PutUint64(buf[8:16], math.Float64bits(p.Y))
	binary.LittleEndian.PutUint64(buf[16:24], math.Float64bits(p.Z))
	binary.LittleEndian.PutUint16(buf[24:26], p.Intensity)
	buf[26] = p.ReturnNumber
	buf[27] = p.Classification
	return buf
}

func unmarshalPoint(buf []byte) Point {
	return Point{
		X:              math.Float64frombits(binary.LittleEndian.Uint64(buf[0:8])),
		Y:              math.Float64frombits(binary.LittleEndian.Uint64(buf[8:16])),
		Z:              math.Float64frombits(binary.LittleEndian.Uint64(buf[16:24])),
		Intensity:      binary.LittleEndian.Uint16(buf[24:26]),
		ReturnNumber:   buf[26],
		Classification: buf[27],
	}
}
