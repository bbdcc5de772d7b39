package wire

import (
	"math"
	"testing"
)

func TestSafeMulU64(t *testing.T) {
	tests := []struct {
		a, b   uint64
		result uint64
		ok     bool
	}{
		{0, 0, 0, true},
		{1, 0, 0, true},
		{0, 1, 0, true},
		{1, 1, 1, true},
		{100, 100, 10000, true},
		{1 << 32, 1 << 32, 0, false}, // overflow
		{math.MaxUint64, 2, 0, false},
		{math.MaxUint64, 1, math.MaxUint64, true},
		{1 << 40, 1 << 24, 0, false}, // overflow
		{1 << 20, 1 << 20, 1 << 40, true},
	}

	for _, tc := range tests {
		result, ok := SafeMulU64(tc.a, tc.b)
		if ok != tc.ok {
			t.Errorf("SafeMulU64(%d, %d): got ok=%v, want %v", tc.a, tc.b, ok, tc.ok)
		}
		if ok && result != tc.result {
			t.Errorf("SafeMulU64(%d, %d): got %d, want %d", tc.a, tc.b, result, tc.result)
		}
	}
}

func TestSafeAddU64(t *testing.T) {
	tests := []struct {
		a, b   uint64
		result uint64
		ok     bool
	}{
		{0, 0, 0, true},
		{1, 2, 3, true},
		{math.MaxUint64, 0, math.MaxUint64, true},
		{math.MaxUint64, 1, 0, false},
		{math.MaxUint64 - 1, 1, math.MaxUint64, true},
	}

	for _, tc := range tests {
		result, ok := SafeAddU64(tc.a, tc.b)
		if ok != tc.ok {
			t.Errorf("SafeAddU64(%d, %d): got ok=%v, want %v", tc.a, tc.b, ok, tc.ok)
		}
		if ok && result != tc.result {
			t.Errorf("SafeAddU64(%d, %d): got %d, want %d", tc.a, tc.b, result, tc.result)
		}
	}
}

func TestMaxAlloc(t *testing.T) {
	if MaxAlloc < MaxSequenceCount {
		t.Errorf("MaxAlloc (%d) should be >= MaxSequenceCount (%d)", MaxAlloc, MaxSequenceCount)
	}
}

func TestTypeName(t *testing.T) {
	tests := []struct {
		name   string
		value  any
		expect string
	}{
		{"nil", nil, "nil"},
		{"int", 42, "int"},
		{"string", "hello", "string"},
		{"bool", true, "bool"},
		{"slice", []uint16{1, 2}, "[]uint16"},
		{"nil_interface", (interface{})(nil), "nil"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			result := TypeName(tc.value)
			if result != tc.expect {
				t.Errorf("TypeName(%v) = %q, want %q", tc.value, result, tc.expect)
			}
		})
	}
}

func TestLoadUint(t *testing.T) {
	tests := []struct {
		name  string
		b     []byte
		width int
		want  uint64
	}{
		{"one byte", []byte{0x7f}, 1, 0x7f},
		{"two bytes LE", []byte{0x34, 0x12}, 2, 0x1234},
		{"three bytes LE", []byte{0x01, 0x02, 0x03}, 3, 0x030201},
		{"eight bytes", []byte{1, 2, 3, 4, 5, 6, 7, 8}, 8, 0x0807060504030201},
		{"ignores trailing", []byte{0xff, 0xee, 0xdd}, 1, 0xff},
		{"full width", []byte{0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff}, 8, math.MaxUint64},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := LoadUint(tc.b, tc.width); got != tc.want {
				t.Errorf("LoadUint(% x, %d) = %#x, want %#x", tc.b, tc.width, got, tc.want)
			}
		})
	}
}
