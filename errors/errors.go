package errors

import (
	"fmt"
	"strings"
)

// Phase indicates where in processing the error occurred
type Phase string

const (
	PhaseValidate Phase = "validate" // shape definition validation
	PhaseCompile  Phase = "compile"  // shape to Go type binding
	PhaseEncode   Phase = "encode"   // value to wire bytes
	PhaseDecode   Phase = "decode"   // wire bytes to value
)

// Kind categorizes the error
type Kind string

const (
	KindBufferTooSmall Kind = "buffer_too_small"
	KindMaxDepth       Kind = "max_recursion_depth"
	KindInputTooSmall  Kind = "input_too_small"
	KindInvalidInput   Kind = "invalid_input"
	KindRemainingBytes Kind = "remaining_bytes"
	KindOutOfMemory    Kind = "out_of_memory"
	KindTypeMismatch   Kind = "type_mismatch"
	KindNilPointer     Kind = "nil_pointer"
	KindInvalidValue   Kind = "invalid_value"
	KindFieldMissing   Kind = "field_missing"
	KindInvalidShape   Kind = "invalid_shape"
	KindOverflow       Kind = "overflow"
	KindUnsupported    Kind = "unsupported"
)

// Sentinel targets for errors.Is. Kind-only, so they match the kind in
// any phase.
var (
	ErrBufferTooSmall = &Error{Kind: KindBufferTooSmall}
	ErrMaxDepth       = &Error{Kind: KindMaxDepth}
	ErrInputTooSmall  = &Error{Kind: KindInputTooSmall}
	ErrInvalidInput   = &Error{Kind: KindInvalidInput}
	ErrRemainingBytes = &Error{Kind: KindRemainingBytes}
	ErrOutOfMemory    = &Error{Kind: KindOutOfMemory}
)

// Error is the structured error type used throughout the codec
type Error struct {
	Value  any
	Cause  error
	Phase  Phase
	Kind   Kind
	GoType string
	Shape  string
	Detail string
	Path   []string
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if len(e.Path) > 0 {
		b.WriteString(" at ")
		b.WriteString(strings.Join(e.Path, "."))
	}

	if e.GoType != "" || e.Shape != "" {
		b.WriteString(": ")
		if e.GoType != "" && e.Shape != "" {
			b.WriteString("Go type ")
			b.WriteString(e.GoType)
			b.WriteString(", shape ")
			b.WriteString(e.Shape)
		} else if e.GoType != "" {
			b.WriteString("Go type ")
			b.WriteString(e.GoType)
		} else {
			b.WriteString("shape ")
			b.WriteString(e.Shape)
		}
	}

	if e.Detail != "" {
		if e.GoType != "" || e.Shape != "" {
			b.WriteString(" - ")
		} else {
			b.WriteString(": ")
		}
		b.WriteString(e.Detail)
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error. A target with an empty
// Phase matches its kind in any phase, which is what the package-level
// sentinels rely on.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Phase != "" && e.Phase != t.Phase {
		return false
	}
	return t.Kind == "" || e.Kind == t.Kind
}

// Builder provides structured error construction
type Builder struct {
	err Error
}

// New creates a new error builder
func New(phase Phase, kind Kind) *Builder {
	return &Builder{
		err: Error{
			Phase: phase,
			Kind:  kind,
		},
	}
}

// Path sets the field path
func (b *Builder) Path(path ...string) *Builder {
	b.err.Path = path
	return b
}

// GoType sets the Go type name
func (b *Builder) GoType(t string) *Builder {
	b.err.GoType = t
	return b
}

// Shape sets the shape description
func (b *Builder) Shape(s string) *Builder {
	b.err.Shape = s
	return b
}

// Value sets the offending value
func (b *Builder) Value(v any) *Builder {
	b.err.Value = v
	return b
}

// Cause sets the underlying error
func (b *Builder) Cause(err error) *Builder {
	b.err.Cause = err
	return b
}

// Detail sets the human-readable detail message
func (b *Builder) Detail(msg string, args ...any) *Builder {
	if len(args) > 0 {
		b.err.Detail = fmt.Sprintf(msg, args...)
	} else {
		b.err.Detail = msg
	}
	return b
}

// Build returns the constructed error
func (b *Builder) Build() *Error {
	return &b.err
}

// Convenience constructors for common error patterns

// BufferTooSmall reports an output buffer with insufficient remaining
// capacity. Earlier writes are not rolled back; the caller discards the
// buffer on any error.
func BufferTooSmall(path []string, need, have int) *Error {
	return &Error{
		Phase:  PhaseEncode,
		Kind:   KindBufferTooSmall,
		Path:   path,
		Detail: fmt.Sprintf("need %d bytes, %d remaining", need, have),
	}
}

// MaxDepth reports that the recursion allowance ran out before the walk
// completed.
func MaxDepth(phase Phase, path []string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindMaxDepth,
		Path:   path,
		Detail: "max recursion depth reached",
	}
}

// InputTooSmall reports fewer input bytes than the current shape requires.
func InputTooSmall(path []string, offset, need, have int) *Error {
	return &Error{
		Phase:  PhaseDecode,
		Kind:   KindInputTooSmall,
		Path:   path,
		Detail: fmt.Sprintf("at byte %d: need %d bytes, %d remaining", offset, need, have),
	}
}

// RemainingBytes reports input longer than the decoded value's encoding.
func RemainingBytes(consumed, total int) *Error {
	return &Error{
		Phase:  PhaseDecode,
		Kind:   KindRemainingBytes,
		Detail: fmt.Sprintf("%d trailing bytes after offset %d", total-consumed, consumed),
		Value:  consumed,
	}
}

// OutOfMemory reports a denied allocation request.
func OutOfMemory(path []string, size uint64, cause error) *Error {
	return &Error{
		Phase:  PhaseDecode,
		Kind:   KindOutOfMemory,
		Path:   path,
		Detail: fmt.Sprintf("allocation of %d bytes denied", size),
		Cause:  cause,
	}
}

// InvalidDiscriminant reports a stored variant index at or beyond the
// declared variant count.
func InvalidDiscriminant(path []string, offset int, disc, count uint32) *Error {
	return &Error{
		Phase:  PhaseDecode,
		Kind:   KindInvalidInput,
		Path:   path,
		Detail: fmt.Sprintf("at byte %d: discriminant %d out of range (%d variants)", offset, disc, count),
		Value:  disc,
	}
}

// InvalidBool reports a boolean byte outside {0, 1}.
func InvalidBool(path []string, offset int, b byte) *Error {
	return &Error{
		Phase:  PhaseDecode,
		Kind:   KindInvalidInput,
		Path:   path,
		Detail: fmt.Sprintf("at byte %d: boolean byte 0x%02x", offset, b),
		Value:  b,
	}
}

// SentinelCollision reports a decoded array element equal to the array's
// declared sentinel.
func SentinelCollision(path []string, index int, sentinel uint64) *Error {
	return &Error{
		Phase:  PhaseDecode,
		Kind:   KindInvalidInput,
		Path:   path,
		Detail: fmt.Sprintf("element %d equals sentinel %d", index, sentinel),
		Value:  sentinel,
	}
}

// InvalidUTF8 reports non-UTF-8 string bytes.
func InvalidUTF8(phase Phase, path []string, data []byte) *Error {
	preview := data
	if len(preview) > 32 {
		preview = preview[:32]
	}
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidInput,
		Path:   path,
		Detail: fmt.Sprintf("invalid UTF-8 sequence: %x", preview),
	}
}

// TypeMismatch reports a Go type that cannot carry the shape.
func TypeMismatch(phase Phase, path []string, goType, shape string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindTypeMismatch,
		Path:   path,
		GoType: goType,
		Shape:  shape,
	}
}

// NilPointer reports a nil reference where the wire contract requires a
// referent.
func NilPointer(phase Phase, path []string, goType string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindNilPointer,
		Path:   path,
		GoType: goType,
		Detail: "nil pointer",
	}
}

// UnknownVariant reports an enum value outside the declared variant list,
// or a union value with no active case.
func UnknownVariant(phase Phase, path []string, detail string, value any) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidValue,
		Path:   path,
		Detail: detail,
		Value:  value,
	}
}

// FieldMissing reports a shape field with no matching Go struct field.
func FieldMissing(phase Phase, path []string, fieldName string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindFieldMissing,
		Path:   path,
		Detail: fmt.Sprintf("required field %q not found", fieldName),
	}
}

// InvalidShape reports a malformed shape definition.
func InvalidShape(path []string, detail string) *Error {
	return &Error{
		Phase:  PhaseValidate,
		Kind:   KindInvalidShape,
		Path:   path,
		Detail: detail,
	}
}

// Overflow reports an arithmetic or width overflow.
func Overflow(phase Phase, path []string, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindOverflow,
		Path:   path,
		Detail: detail,
	}
}

// Unsupported creates an unsupported operation error
func Unsupported(phase Phase, what string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindUnsupported,
		Detail: what,
	}
}

// Wrap wraps an existing error with additional context
func Wrap(phase Phase, kind Kind, cause error, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   kind,
		Detail: detail,
		Cause:  cause,
	}
}

// PrependPath pushes a leading path segment onto a structured error as a
// recursive walk unwinds. Walks report errors with no path and let each
// level add its own segment on the way out, so the happy path never
// builds path slices. Non-structured errors pass through unchanged.
func PrependPath(err error, segment string) error {
	e, ok := err.(*Error)
	if !ok {
		return err
	}
	e.Path = append([]string{segment}, e.Path...)
	return e
}
