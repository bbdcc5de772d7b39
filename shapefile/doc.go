// Package shapefile loads shape definitions from YAML documents, so
// wire contracts can live in operator-editable files instead of Go
// source.
//
// # Document Form
//
// A document maps definition names to shape expressions:
//
//	shapes:
//	  profile:
//	    record:
//	      fields:
//	        - name: name
//	          shape: string
//	        - name: age
//	          shape: u128
//	        - name: prob
//	          shape: f64
//	        - name: data
//	          shape:
//	            sequence: i32
//	  hole:
//	    record:
//	      fields:
//	        - name: age
//	          shape: u32
//	        - name: id
//	          shape:
//	            array: {len: 2, elem: i16}
//	        - name: inner
//	          shape:
//	            optional:
//	              ref: hole
//
// Scalar forms are bool, unit, string and the width forms u8..u2048,
// i8..i2048, f16/f32/f64. Any other scalar is a reference to another
// definition in the same document; references may be mutually and
// self-recursive. Container forms are array (len, elem, optional
// sentinel), sequence, ref, optional, record, enum and union. Enum
// variants and union cases accept a bare name as shorthand for a
// value-less variant or unit-payload case. Negative sentinel literals
// are masked to the element width, so -1 on an i16 element means the
// pattern 0xFFFF.
//
// Every definition is validated before Load returns; errors carry the
// definition name as the leading path segment. A definition that is
// only another definition's name is rejected: aliases have no identity
// of their own.
package shapefile
