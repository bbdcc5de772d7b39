package shape

import (
	"fmt"
	"strings"
)

// Shape is an immutable structural description of a data type. Shapes
// are definitional: they are built once, before any encode or decode
// call, and drive the codec's recursive dispatch.
//
// Shapes form a graph, not a tree: a record may reach itself through an
// optional reference. Build such cycles with Deferred and Resolve.
type Shape struct {
	Elem        *Shape
	Fields      []Field
	Variants    []Variant
	Name        string
	resolved    *Shape
	Sentinel    uint64
	Len         uint32
	Bits        uint16
	HasSentinel bool
	Kind        Kind
}

// Field is one named record member. Wire order is declaration order.
type Field struct {
	Shape *Shape
	Name  string
}

// Variant is one case of an enum or union. Enum variants carry an
// underlying integer value; union variants carry a payload shape.
// The wire discriminant is always the declaration-order index, never
// the underlying value.
type Variant struct {
	Payload  *Shape
	Name     string
	Value    uint64
	implicit bool
}

// Uint describes an unsigned integer of the given bit width. Any
// positive multiple of 8 is permitted, including widths no machine
// register holds (24, 128, 256, ...).
func Uint(bits int) *Shape {
	return &Shape{Kind: KindUint, Bits: uint16(bits)}
}

// Int describes a signed two's-complement integer of the given bit width.
func Int(bits int) *Shape {
	return &Shape{Kind: KindInt, Bits: uint16(bits)}
}

// Float describes an IEEE-754 binary float. Only widths 16, 32 and 64
// validate.
func Float(bits int) *Shape {
	return &Shape{Kind: KindFloat, Bits: uint16(bits)}
}

// Bool describes a single-byte boolean. Decoding rejects any byte other
// than 0 or 1.
func Bool() *Shape {
	return &Shape{Kind: KindBool}
}

// Unit describes the zero-byte unit type.
func Unit() *Shape {
	return &Shape{Kind: KindUnit}
}

// String describes a UTF-8 string: a u32 little-endian byte count
// followed by the bytes. Wire-identical to Sequence(Uint(8)) holding
// the encoded text; decoding validates UTF-8.
func String() *Shape {
	return &Shape{Kind: KindString}
}

// Array describes a fixed-length array. The length is part of the shape
// and never stored on the wire.
func Array(elem *Shape, length int) *Shape {
	return &Shape{Kind: KindArray, Elem: elem, Len: uint32(length)}
}

// ArrayWithSentinel describes a fixed-length array whose elements may
// never equal the sentinel. The sentinel is given as the raw little-
// endian bit pattern of an element (so -1 for an i16 element is 0xFFFF)
// and is only valid for integer elements of at most 64 bits. Decoding
// fails with invalid input if any stored element equals it.
func ArrayWithSentinel(elem *Shape, length int, sentinel uint64) *Shape {
	return &Shape{
		Kind:        KindArray,
		Elem:        elem,
		Len:         uint32(length),
		Sentinel:    sentinel,
		HasSentinel: true,
	}
}

// Sequence describes a dynamically sized sequence: a u32 little-endian
// element count followed by the elements. Decoded sequences are always
// freshly owned, never aliasing the input buffer.
func Sequence(elem *Shape) *Shape {
	return &Shape{Kind: KindSequence, Elem: elem}
}

// Ref describes a single-owner reference. It adds nothing to the wire;
// only the referent is encoded. Decoding allocates exactly one instance,
// exclusively owned by the result.
func Ref(elem *Shape) *Shape {
	return &Shape{Kind: KindRef, Elem: elem}
}

// Record describes a struct with named fields encoded back-to-back in
// declaration order, with no padding or framing.
func Record(name string, fields ...Field) *Shape {
	return &Shape{Kind: KindRecord, Name: name, Fields: fields}
}

// NamedField pairs a field name with its shape.
func NamedField(name string, s *Shape) Field {
	return Field{Name: name, Shape: s}
}

// Enum describes a closed sum type without payloads. The wire byte is
// the declaration-order index of the active variant. Implicit underlying
// values are assigned here: each continues from the previous variant's
// value plus one, and the first variant gets 0.
func Enum(name string, variants ...Variant) *Shape {
	next := uint64(0)
	for i := range variants {
		if variants[i].implicit {
			variants[i].Value = next
			variants[i].implicit = false
		}
		next = variants[i].Value + 1
	}
	return &Shape{Kind: KindEnum, Name: name, Variants: variants}
}

// Case declares an enum variant with an implicit underlying value
// (previous + 1; the first variant gets 0). The underlying value never
// appears on the wire.
func Case(name string) Variant {
	return Variant{Name: name, implicit: true}
}

// CaseValue declares an enum variant with an explicit underlying value.
func CaseValue(name string, value uint64) Variant {
	return Variant{Name: name, Value: value}
}

// Union describes a tagged union: a one-byte declaration-order index
// followed by the active case's payload encoding.
func Union(name string, cases ...Variant) *Shape {
	return &Shape{Kind: KindUnion, Name: name, Variants: cases}
}

// PayloadCase declares a union case. Use Unit() for payload-free cases.
func PayloadCase(name string, payload *Shape) Variant {
	return Variant{Name: name, Payload: payload}
}

// Optional describes an optional value: a one-byte presence flag,
// followed by the payload encoding iff present. The flag is processed
// under the boolean rules, so bytes other than 0 and 1 are rejected.
func Optional(elem *Shape) *Shape {
	return &Shape{Kind: KindOptional, Elem: elem}
}

// Deferred returns a placeholder shape for building cycles:
//
//	hole := shape.Deferred()
//	rec := shape.Record("hole",
//		shape.NamedField("age", shape.Uint(32)),
//		shape.NamedField("inner", shape.Optional(shape.Ref(hole))),
//	)
//	hole.Resolve(rec)
//
// A deferred shape left unresolved fails validation.
func Deferred() *Shape {
	return &Shape{Kind: KindDeferred}
}

// Resolve replaces the deferred placeholder with the target's content.
// After Resolve the placeholder is structurally identical to the target
// and the deferred indirection is gone. Resolving to nil or to the
// placeholder itself leaves it unresolved.
func (s *Shape) Resolve(target *Shape) {
	if target == nil || target == s {
		return
	}
	*s = *target
}

// String returns a short human-readable description, used in error
// messages and the inspector. Nesting is elided past a few levels so
// recursive shapes print finitely.
func (s *Shape) String() string {
	return s.describe(3)
}

func (s *Shape) describe(depth int) string {
	if s == nil {
		return "<nil>"
	}
	switch s.Kind {
	case KindUint:
		return fmt.Sprintf("u%d", s.Bits)
	case KindInt:
		return fmt.Sprintf("i%d", s.Bits)
	case KindFloat:
		return fmt.Sprintf("f%d", s.Bits)
	case KindBool, KindUnit, KindString, KindDeferred:
		return s.Kind.String()
	case KindArray:
		if s.HasSentinel {
			return fmt.Sprintf("array[%d:%d]%s", s.Len, s.Sentinel, s.Elem.describeChild(depth))
		}
		return fmt.Sprintf("array[%d]%s", s.Len, s.Elem.describeChild(depth))
	case KindSequence:
		return "seq<" + s.Elem.describeChild(depth) + ">"
	case KindRef:
		return "ref<" + s.Elem.describeChild(depth) + ">"
	case KindOptional:
		return "optional<" + s.Elem.describeChild(depth) + ">"
	case KindRecord:
		if s.Name != "" {
			return "record " + s.Name
		}
		names := make([]string, len(s.Fields))
		for i, f := range s.Fields {
			names[i] = f.Name
		}
		return "record{" + strings.Join(names, ", ") + "}"
	case KindEnum:
		if s.Name != "" {
			return "enum " + s.Name
		}
		return fmt.Sprintf("enum(%d)", len(s.Variants))
	case KindUnion:
		if s.Name != "" {
			return "union " + s.Name
		}
		return fmt.Sprintf("union(%d)", len(s.Variants))
	default:
		return "unknown"
	}
}

func (s *Shape) describeChild(depth int) string {
	if s == nil {
		return "<nil>"
	}
	if depth <= 0 {
		if s.Name != "" {
			return s.Name
		}
		return s.Kind.String()
	}
	return s.describe(depth - 1)
}
