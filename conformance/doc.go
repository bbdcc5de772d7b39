// Package conformance pins the wire format against independent
// implementations.
//
// The corpus is a fixed list of (value, shape, exact bytes, minimum
// depth) cases. The Go codec must reproduce every case's bytes and
// recover every case's value, and must do both within the case's
// stated recursion allowance but not one level less.
//
// # Cross-Implementation Checking
//
// Cases with a reference id are shared with guest binaries compiled
// from other codec implementations. The Runner loads such a guest
// under wazero and drives its exported interface:
//
//	alloc(size) -> ptr
//	roundtrip_test_case(id, in_ptr, in_len, out_ptr_cell, out_len_cell)
//
// The host writes its encoding of the identified case into guest
// memory; the guest decodes it, asserts the value equals its own copy
// (a mismatch traps), re-encodes the copy and reports the result's
// pointer and length through the two cells. Byte equality of the
// reported encoding closes the loop in both directions.
//
// The guest test activates when WIREBIND_CONFORMANCE_WASM names a
// guest binary; it skips otherwise, so the corpus checks never depend
// on having one built.
package conformance
