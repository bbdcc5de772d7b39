// Package errors provides structured error types for the wirebind codec.
//
// Errors are categorized by Phase (where the error occurred) and Kind (error category).
// The Error type includes rich context: field path, Go type and shape names, and cause chain.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseDecode, errors.KindInvalidInput).
//		Path("hole", "inner").
//		Detail("discriminant %d out of range", idx).
//		Build()
//
// Or use convenience constructors for common patterns:
//
//	err := errors.InputTooSmall(path, off, 4, 2)
//	err := errors.TypeMismatch(errors.PhaseCompile, path, "string", "u32")
//
// The serialize and deserialize failure conditions map one-to-one onto
// kinds, and kind-only sentinels support phase-independent matching:
//
//	if errors.Is(err, wberrors.ErrInputTooSmall) { ... }
//
// All errors implement the standard error interface and support errors.Is/As.
package errors
