// Package wirebind provides a deterministic binary codec for Go values.
//
// The library encodes and decodes Go values against explicit shape
// descriptors: a value and its shape always produce the same bytes, and
// the bytes alone are enough to reconstruct the value given the shape.
// There is no self-description on the wire, no field names, no type
// tags beyond the one-byte discriminants of enums, unions and
// optionals. The encoding is little-endian throughout.
//
// # Architecture Overview
//
// The library is organized into several packages with distinct
// responsibilities:
//
//	wirebind/            Root package with the Allocator contract and 128-bit integers
//	├── shape/           Shape taxonomy, constructors, validation, fingerprints
//	├── codec/           Compiled plans, encoder, decoder, stream decode
//	├── arena/           Budgeted allocation authorities for decoding
//	├── errors/          Structured error types for debugging
//	├── witbind/         Shape derivation from WIT type definitions
//	├── shapefile/       YAML shape-definition loader
//	├── conformance/     Reference corpus and cross-implementation runner
//	└── cmd/inspect/     Interactive corpus and shape inspector
//
// # Quick Start
//
// Describe a type, compile a plan, and move values through it:
//
//	type Person struct {
//	    Name   string
//	    Age    uint32
//	    Scores []float64
//	}
//
//	s := shape.Record("person",
//	    shape.NamedField("name", shape.String()),
//	    shape.NamedField("age", shape.Uint(32)),
//	    shape.NamedField("scores", shape.Sequence(shape.Float(64))),
//	)
//
//	plan, err := codec.Compile(s, reflect.TypeOf(Person{}))
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	buf := make([]byte, 256)
//	n, err := codec.Serialize(plan, Person{Name: "ada", Age: 36}, buf, 32)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	back, err := codec.Deserialize(plan, buf[:n], nil, 32)
//	fmt.Println(back.(Person).Name) // "ada"
//
// # Shape System
//
// The taxonomy is closed:
//
//   - Integers: any positive multiple-of-8 width, including 128 and 256 bits
//   - Floats: 16, 32 and 64 bits (IEEE 754 bit patterns)
//   - bool, unit, string
//   - Fixed arrays (optionally sentinel-checked), sequences, optionals
//   - Records, fieldless enums, tagged unions, single-owner references
//
// Recursive shapes are built with Deferred placeholders and Resolve.
//
// # Failure Model
//
// Encoding fails only for a short buffer or exhausted recursion depth.
// Decoding fails for truncated input, trailing input, malformed input
// (bad booleans, unknown discriminants, sentinel collisions, invalid
// UTF-8), exhausted recursion depth, or a denied allocation. All
// failures are *errors.Error values carrying the phase, the failure
// kind and the path to the offending node.
//
// # Resource Bounds
//
// Decoding never trusts input sizes: every claimed sequence count is
// checked against the remaining input before memory is allocated, and
// allocations are cleared through an Allocator so callers can budget
// decode memory with the arena package. Recursion depth is bounded by
// an explicit caller-supplied limit on both paths.
//
// # Thread Safety
//
// Plans are immutable after compilation and safe for concurrent use.
// The plan cache is a process-wide sync.Map, so repeated Compile calls
// for the same shape and Go type return the same plan. Arenas are
// single-owner; use one per decode scope.
package wirebind
