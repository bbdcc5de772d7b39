package wirebind

// Allocator authorizes decode-side memory. Every allocation the decoder
// makes on behalf of untrusted input is cleared through Alloc first; a
// non-nil error aborts the decode with OutOfMemory. A nil Allocator
// admits everything.
type Allocator interface {
	Alloc(size uint64) error
}

// Uint128 is a little-endian 128-bit unsigned integer: Lo holds bits
// 0-63, Hi holds bits 64-127. The in-memory layout matches the wire
// layout on little-endian targets.
type Uint128 struct {
	Lo uint64
	Hi uint64
}

// Int128 is a little-endian 128-bit two's-complement integer. The sign
// lives in the top bit of Hi.
type Int128 struct {
	Lo uint64
	Hi uint64
}

// IsZero reports whether the value is zero.
func (u Uint128) IsZero() bool { return u.Lo == 0 && u.Hi == 0 }

// Sign returns -1 for negative values, 0 for zero, and 1 for positive
// values.
func (i Int128) Sign() int {
	if i.Hi>>63 != 0 {
		return -1
	}
	if i.Lo == 0 && i.Hi == 0 {
		return 0
	}
	return 1
}
