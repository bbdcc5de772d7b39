package codec

import (
	"reflect"

	"github.com/wirebind/wirebind/shape"
)

// Plan is a shape bound to a concrete Go type, with everything the
// encode and decode walks need precomputed: field offsets, scalar
// widths, discriminant tables, bulk-copy eligibility and minimum wire
// sizes. Plans are immutable after compilation and safe for concurrent
// use.
type Plan struct {
	Shape  *shape.Shape
	GoType reflect.Type

	// Elem is the element plan for arrays, sequences, refs and
	// optionals.
	Elem *Plan

	// Fields holds record fields in shape declaration order, which is
	// the wire order.
	Fields []PlanField

	// Cases holds union payloads in declaration order, indexed by the
	// wire discriminant.
	Cases []PlanCase

	// Enum discriminant tables: encIndex maps underlying value to wire
	// index, decValue maps wire index to underlying value.
	encIndex map[uint64]uint8
	decValue []uint64

	GoSize uintptr

	// Size is the wire width in bytes of a scalar node.
	Size int

	// MinSize is the smallest number of wire bytes any value of this
	// plan can occupy. Used to reject claimed sequence counts that
	// cannot fit the remaining input before anything is allocated.
	// Recursive back references contribute zero, so the bound is
	// conservative but never rejects valid input.
	MinSize int

	// Len is the element count of a fixed array node.
	Len int

	Sentinel    uint64
	HasSentinel bool

	Kind shape.Kind

	// signed is set for integer nodes bound to a signed Go kind; enum
	// loads sign-extend through it.
	signed bool

	// f16conv is set for Float(16) bound to float32: values convert
	// through IEEE 754 half precision instead of copying raw bits.
	f16conv bool

	// bulk is set on array and sequence nodes whose elements are
	// fixed-width scalars with identical Go and wire layout, enabling
	// single memcopy transfers on little-endian targets.
	bulk bool

	// fused is set on an optional node wrapping a ref: the Go binding
	// collapses both to a single pointer, and the walk hands the ref
	// the pointer's address instead of its target.
	fused bool
}

// PlanField is one record field: the shape-declared name, the Go
// struct offset it binds to, and the compiled field plan.
type PlanField struct {
	Type     *Plan
	Name     string
	GoName   string
	GoOffset uintptr
}

// PlanCase is one union case: its payload plan and the Go struct offset
// of the pointer field carrying it.
type PlanCase struct {
	Type     *Plan
	Name     string
	GoOffset uintptr
}
