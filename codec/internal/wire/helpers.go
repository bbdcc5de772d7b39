package wire

import (
	"math"
	"reflect"
)

const (
	// CountSize is the width of a sequence count prefix.
	CountSize = 4
	// TagSize is the width of a discriminant or presence flag.
	TagSize = 1
)

const (
	MaxSequenceCount = 1 << 27 // 128M max elements in one sequence
	MaxAlloc         = 1 << 30 // 1 GB max single allocation
)

func SafeMulU64(a, b uint64) (uint64, bool) {
	if b != 0 && a > math.MaxUint64/b {
		return 0, false
	}
	return a * b, true
}

func SafeAddU64(a, b uint64) (uint64, bool) {
	if a > math.MaxUint64-b {
		return 0, false
	}
	return a + b, true
}

// TypeName returns "nil" for nil values, avoiding reflect.TypeOf(nil) panic.
func TypeName(value any) string {
	if value == nil {
		return "nil"
	}
	return reflect.TypeOf(value).String()
}

// LoadUint reads a little-endian unsigned integer of 1 to 8 bytes,
// zero-extended to 64 bits. Callers guarantee len(b) >= width.
func LoadUint(b []byte, width int) uint64 {
	var v uint64
	for i := width - 1; i >= 0; i-- {
		v = v<<8 | uint64(b[i])
	}
	return v
}
