// Package wire provides internal utilities for the codec's byte-level
// operations.
//
// This package contains the resource caps applied to untrusted input,
// overflow-checked size arithmetic, and the little-endian load used for
// sentinel scanning. It is internal to the codec.
package wire
