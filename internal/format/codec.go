package format

import (
	"encoding/binary"
	"math"
)

// AppendUint64s appends vs in little-endian order.
func AppendUint64s[T ~uint64](dst []byte, vs []T) []byte {
	for _, v := range vs {
		dst = binary.LittleEndian.AppendUint64(dst, uint64(v))
	}
	return dst
}

// AppendUint32s appends vs in little-endian order.
func AppendUint32s[T ~uint32](dst []byte, vs []T) []byte {
	for _, v := range vs {
		dst = binary.LittleEndian.AppendUint32(dst, uint32(v))
	}
	return dst
}

// AppendFloat32s appends vs as little-endian IEEE 754 bits.
func AppendFloat32s(dst []byte, vs []float32) []byte {
	for _, v := range vs {
		dst = binary.LittleEndian.AppendUint32(dst, math.Float32bits(v))
	}
	return dst
}

// DecodeUint64s decodes len(b)/8 values into dst, reusing its capacity.
func DecodeUint64s[T ~uint64](dst []T, b []byte) []T {
	n := len(b) / 8
	dst = grow(dst, n)
	for i := range n {
		dst[i] = T(binary.LittleEndian.Uint64(b[i*8:]))
	}
	return dst
}

// DecodeUint32s decodes len(b)/4 values into dst, reusing its capacity.
func DecodeUint32s[T ~uint32](dst []T, b []byte) []T {
	n := len(b) / 4
	dst = grow(dst, n)
	for i := range n {
		dst[i] = T(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return dst
}

// DecodeFloat32s decodes len(b)/4 values into dst, reusing its capacity.
func DecodeFloat32s(dst []float32, b []byte) []float32 {
	n := len(b) / 4
	dst = grow(dst, n)
	for i := range n {
		dst[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return dst
}

func grow[T any](s []T, n int) []T {
	if cap(s) < n {
		return make([]T, n)
	}
	return s[:n]
}
