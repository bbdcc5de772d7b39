// Package codec moves Go values through the wirebind binary format.
//
// The package binds shape descriptors to concrete Go types once, then
// drives all encoding and decoding off the compiled plan:
//
//	┌──────────────────────────────────────────────────────────┐
//	│ Go Value ←→ [Plan: shape × reflect.Type] ←→ Wire Bytes   │
//	└──────────────────────────────────────────────────────────┘
//
// # Key Types
//
//	Compiler  - Binds shapes to Go types, caches plans
//	Plan      - Immutable compiled binding with offsets and tables
//
// # Flow
//
//  1. Compile(shape, goType) → *Plan
//  2. Serialize(plan, value, buf, maxDepth) → bytes written
//  3. Deserialize(plan, input, alloc, maxDepth) → owned value
//     or DeserializeStream(...) → (value, consumed)
//     or DeserializeInto(..., out, ...) → into caller memory
//
// # Compilation
//
// The Compiler pre-computes everything the walks need so the hot paths
// never touch reflection metadata:
//
//   - Go struct field offsets in shape declaration order
//   - Scalar wire widths and bulk-copy eligibility
//   - Enum discriminant tables (underlying value ↔ wire index)
//   - Minimum wire sizes for sequence-count prechecks
//
// Plans are cached in a process-wide sync.Map keyed by shape node and
// Go type; recursive shapes compile through an in-progress memo so
// cycles close back on the same plan.
//
// # Walk Mechanics
//
// Both directions are single-pass, depth-first, non-backtracking
// dispatches over unsafe.Pointer-addressed memory. Arrays and sequences
// of fixed-width scalars whose Go layout equals the wire layout move as
// one copy; everything else recurses per element. Encoding performs no
// allocations. Decoding allocates owned storage for every sequence,
// string, reference and payload, cleared through the caller's
// Allocator, and never aliases the input buffer.
//
// # Recursion Depth
//
// maxDepth is a remaining allowance threaded through the walk, checked
// before any work at each level and decremented per descent (fields,
// elements, referents, payloads). It is the sole defense against
// adversarially nested input: a crafted chain of optionals fails with
// ErrMaxDepth, not a stack overflow. An optional costs two levels
// because its presence flag is processed as a boolean one level down.
//
// # Error Handling
//
// Failures surface immediately as structured *errors.Error values with
// the path to the offending node:
//
//	[encode] buffer_too_small at data.[2]: need 4 bytes, 1 remaining
//	[decode] invalid_input at inner.[some].age: at byte 9: boolean byte 0x02
//
// On any error the output buffer prefix (encode) or partially decoded
// value (decode) is unspecified and must be discarded.
package codec
