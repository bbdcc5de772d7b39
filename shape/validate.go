package shape

import (
	"fmt"

	"github.com/wirebind/wirebind/errors"
)

// MaxBits bounds integer widths. Wider integers have no defined Go
// binding and no practical wire format.
const MaxBits = 2048

// MaxVariants bounds enum and union variant counts so the one-byte
// discriminant always suffices.
const MaxVariants = 255

// Validate checks the closed-taxonomy invariants over the whole shape
// graph. Cycles are followed at most once per node, so recursive shapes
// validate in finite time.
func Validate(s *Shape) error {
	return validate(s, nil, make(map[*Shape]bool))
}

func validate(s *Shape, path []string, seen map[*Shape]bool) error {
	if s == nil {
		return errors.InvalidShape(path, "nil shape")
	}
	if seen[s] {
		return nil
	}
	seen[s] = true

	switch s.Kind {
	case KindUint, KindInt:
		if s.Bits == 0 || s.Bits%8 != 0 || s.Bits > MaxBits {
			return errors.InvalidShape(path, fmt.Sprintf("integer width %d: want a positive multiple of 8 up to %d", s.Bits, MaxBits))
		}

	case KindFloat:
		if s.Bits != 16 && s.Bits != 32 && s.Bits != 64 {
			return errors.InvalidShape(path, fmt.Sprintf("float width %d: only 16, 32 and 64 are defined", s.Bits))
		}

	case KindBool, KindUnit, KindString:

	case KindArray:
		if s.HasSentinel {
			if s.Elem == nil || !s.Elem.Kind.IsInteger() {
				return errors.InvalidShape(path, "sentinel requires an integer element")
			}
			if s.Elem.Bits > 64 {
				return errors.InvalidShape(path, fmt.Sprintf("sentinel on %d-bit element: at most 64 bits supported", s.Elem.Bits))
			}
			if s.Elem.Bits < 64 && s.Sentinel>>s.Elem.Bits != 0 {
				return errors.InvalidShape(path, fmt.Sprintf("sentinel %#x does not fit a %d-bit element", s.Sentinel, s.Elem.Bits))
			}
		}
		return validate(s.Elem, childPath(path, "[elem]"), seen)

	case KindSequence:
		return validate(s.Elem, childPath(path, "[elem]"), seen)

	case KindRef:
		return validate(s.Elem, childPath(path, "[ref]"), seen)

	case KindOptional:
		return validate(s.Elem, childPath(path, "[some]"), seen)

	case KindRecord:
		names := make(map[string]bool, len(s.Fields))
		for _, f := range s.Fields {
			if f.Name == "" {
				return errors.InvalidShape(path, "record field with empty name")
			}
			if names[f.Name] {
				return errors.InvalidShape(path, fmt.Sprintf("duplicate field %q", f.Name))
			}
			names[f.Name] = true
			if err := validate(f.Shape, childPath(path, f.Name), seen); err != nil {
				return err
			}
		}

	case KindEnum:
		if len(s.Variants) == 0 || len(s.Variants) > MaxVariants {
			return errors.InvalidShape(path, fmt.Sprintf("enum with %d variants: want 1 to %d", len(s.Variants), MaxVariants))
		}
		names := make(map[string]bool, len(s.Variants))
		values := make(map[uint64]bool, len(s.Variants))
		for _, v := range s.Variants {
			if v.Name == "" {
				return errors.InvalidShape(path, "enum variant with empty name")
			}
			if names[v.Name] {
				return errors.InvalidShape(path, fmt.Sprintf("duplicate variant %q", v.Name))
			}
			names[v.Name] = true
			if values[v.Value] {
				return errors.InvalidShape(path, fmt.Sprintf("duplicate underlying value %d", v.Value))
			}
			values[v.Value] = true
			if v.Payload != nil {
				return errors.InvalidShape(path, fmt.Sprintf("enum variant %q carries a payload", v.Name))
			}
		}

	case KindUnion:
		if len(s.Variants) == 0 || len(s.Variants) > MaxVariants {
			return errors.InvalidShape(path, fmt.Sprintf("union with %d cases: want 1 to %d", len(s.Variants), MaxVariants))
		}
		names := make(map[string]bool, len(s.Variants))
		for _, v := range s.Variants {
			if v.Name == "" {
				return errors.InvalidShape(path, "union case with empty name")
			}
			if names[v.Name] {
				return errors.InvalidShape(path, fmt.Sprintf("duplicate case %q", v.Name))
			}
			names[v.Name] = true
			if v.Payload == nil {
				return errors.InvalidShape(path, fmt.Sprintf("union case %q has no payload shape (use Unit for none)", v.Name))
			}
			if err := validate(v.Payload, childPath(path, v.Name), seen); err != nil {
				return err
			}
		}

	case KindDeferred:
		return errors.InvalidShape(path, "unresolved deferred shape")

	default:
		return errors.InvalidShape(path, fmt.Sprintf("unknown kind %d", s.Kind))
	}
	return nil
}

func childPath(path []string, elem string) []string {
	return append(append([]string{}, path...), elem)
}
