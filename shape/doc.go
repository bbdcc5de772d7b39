// Package shape defines the closed taxonomy of data shapes driving the
// wirebind codec.
//
// Every supported data type reduces to exactly one shape at definition
// time; no shape is chosen at runtime. Shapes are structural
// descriptions only — they carry no Go type information. Binding a
// shape to a concrete Go type happens in the codec package.
//
// # Taxonomy
//
//   - Uint/Int: little-endian integers of any multiple-of-8 width,
//     including widths such as 128 or 256 bits
//   - Float: IEEE-754 binary16/32/64
//   - Bool: one byte, 0 or 1
//   - Unit: zero bytes
//   - String: u32 byte count + UTF-8 bytes
//   - Array: fixed length, no prefix, optional forbidden sentinel
//   - Sequence: u32 element count + elements
//   - Ref: single-owner reference, wire-transparent
//   - Record: named fields in declaration order, no padding
//   - Enum: one-byte declaration-order index, no payloads
//   - Union: one-byte declaration-order index + payload
//   - Optional: one-byte presence flag + payload iff present
//
// Enum and union discriminants are positional: the byte on the wire is
// the index into the declared variant list, never the variant's
// underlying value.
//
// # Recursive shapes
//
// Self-referential shapes are built with a Deferred placeholder:
//
//	hole := shape.Deferred()
//	rec := shape.Record("hole",
//		shape.NamedField("age", shape.Uint(32)),
//		shape.NamedField("id", shape.Array(shape.Int(16), 2)),
//		shape.NamedField("inner", shape.Optional(shape.Ref(hole))),
//	)
//	hole.Resolve(rec)
//
// Validate follows cycles at most once per node and Fingerprint encodes
// revisits as backreferences, so recursive shapes are first-class.
package shape
