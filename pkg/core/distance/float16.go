// Half-precision storage helpers. Large point clouds can be held in memory
// as float16 bit patterns (one uint16 per coordinate) and decoded to
// float64 rows only when a computation needs them.
package distance

import "github.com/x448/float16"

// EncodeRowF16 converts a float64 coordinate row to float16 bit patterns.
// Values outside the float16 range saturate to +/-Inf per IEEE 754-2008.
func EncodeRowF16(row []float64) []uint16 {
	out := make([]uint16, len(row))
	for i, v := range row {
		out[i] = float16.Fromfloat32(float32(v)).Bits()
	}
	return out
}

// DecodeRowF16 converts float16 bit patterns back to a float64 row,
// reusing dst when it has enough capacity.
func DecodeRowF16(bits []uint16, dst []float64) []float64 {
	if cap(dst) < len(bits) {
		dst = make([]float64, len(bits))
	}
	dst = dst[:len(bits)]
	for i, b := range bits {
		dst[i] = float64(float16.Frombits(b).Float32())
	}
	return dst
}
