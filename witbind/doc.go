// Package witbind derives wirebind shapes from resolved WIT types, so
// component-model data crosses the guest boundary in the deterministic
// wire format without hand-written shape definitions.
//
// # Mapping
//
//	bool                 → shape.Bool
//	u8..u64 / s8..s64    → shape.Uint / shape.Int of the same width
//	f32 / f64            → shape.Float
//	char                 → shape.Uint(32), the raw code point
//	string               → shape.String
//	record               → shape.Record
//	tuple<A, B, ...>     → shape.Record with fields f0, f1, ...
//	list<T>              → shape.Sequence
//	option<T>            → shape.Optional
//	enum                 → shape.Enum, implicit values in case order
//	variant              → shape.Union, payload-free cases carry Unit
//	result<OK, Err>      → shape.Union with cases ok and err
//	flags                → shape.Uint wide enough for one bit per flag
//
// Resource handles (own, borrow) do not derive: a handle is a runtime
// identity, not data, and has no meaning outside the instance that
// issued it.
//
// Kebab-case WIT names are normalized to snake_case so derived records,
// enums and unions bind to Go structs under the codec's field-matching
// rules without wire tags. A named TypeDef stamps its name on the
// record, enum or union it defines, so the name participates in the
// shape fingerprint; aliases keep the target's own name.
//
// # Identity
//
// A Deriver memoizes per *wit.TypeDef. Shared and recursive WIT types
// derive to shared and recursive shape nodes, which keeps the codec's
// plan cache keyed on one shape instead of structural copies and lets
// self-referential types compile through the codec's cycle memo.
package witbind
