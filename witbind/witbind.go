package witbind

import (
	"strconv"
	"strings"
	"sync"

	"go.bytecodealliance.org/wit"

	"github.com/wirebind/wirebind/errors"
	"github.com/wirebind/wirebind/shape"
)

// Deriver maps resolved WIT types onto codec shapes. It memoizes per
// *wit.TypeDef, so deriving over a shared WIT graph yields pointer-
// identical shape nodes and the codec's plan cache sees one shape, not
// many structural copies. A Deriver is safe for concurrent use.
type Deriver struct {
	mu   sync.Mutex
	memo map[*wit.TypeDef]*shape.Shape
}

// NewDeriver returns a Deriver with an empty memo.
func NewDeriver() *Deriver {
	return &Deriver{memo: make(map[*wit.TypeDef]*shape.Shape)}
}

// Derive maps a WIT type onto a shape using a fresh Deriver.
func Derive(t wit.Type) (*shape.Shape, error) {
	return NewDeriver().Derive(t)
}

// Derive maps a WIT type onto the shape with the equivalent wire
// behavior and validates the result. Kebab-case WIT names are
// normalized to snake_case so derived records and unions bind to Go
// structs under the codec's field-matching rules.
func (d *Deriver) Derive(t wit.Type) (*shape.Shape, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	s, err := d.derive(t, nil)
	if err != nil {
		return nil, err
	}
	if err := shape.Validate(s); err != nil {
		return nil, err
	}
	return s, nil
}

func (d *Deriver) derive(t wit.Type, path []string) (*shape.Shape, error) {
	switch t := t.(type) {
	case wit.Bool:
		return shape.Bool(), nil
	case wit.U8:
		return shape.Uint(8), nil
	case wit.S8:
		return shape.Int(8), nil
	case wit.U16:
		return shape.Uint(16), nil
	case wit.S16:
		return shape.Int(16), nil
	case wit.U32:
		return shape.Uint(32), nil
	case wit.S32:
		return shape.Int(32), nil
	case wit.U64:
		return shape.Uint(64), nil
	case wit.S64:
		return shape.Int(64), nil
	case wit.F32:
		return shape.Float(32), nil
	case wit.F64:
		return shape.Float(64), nil
	case wit.Char:
		// A char travels as its raw code point. Scalar-range checks
		// stay with the caller.
		return shape.Uint(32), nil
	case wit.String:
		return shape.String(), nil
	case *wit.TypeDef:
		return d.deriveTypeDef(t, path)
	default:
		return nil, errors.New(errors.PhaseCompile, errors.KindUnsupported).
			Path(path...).
			Detail("unsupported WIT type: %T", t).
			Build()
	}
}

func (d *Deriver) deriveTypeDef(td *wit.TypeDef, path []string) (*shape.Shape, error) {
	if s, ok := d.memo[td]; ok {
		return s, nil
	}

	// The placeholder goes into the memo before the kind is walked, so
	// self-references land on it; Resolve closes the cycle afterwards.
	placeholder := shape.Deferred()
	d.memo[td] = placeholder

	s, err := d.deriveKind(td.Kind, path)
	if err != nil {
		delete(d.memo, td)
		return nil, err
	}

	// A named WIT type stamps its name on the shape it owns. Aliases
	// resolve to their target's shape and must not rename it.
	if td.Name != nil {
		switch td.Kind.(type) {
		case *wit.Record, *wit.Tuple, *wit.Enum, *wit.Variant, *wit.Result:
			s.Name = witName(*td.Name)
		}
	}

	placeholder.Resolve(s)
	return placeholder, nil
}

func (d *Deriver) deriveKind(kind wit.TypeDefKind, path []string) (*shape.Shape, error) {
	switch kind := kind.(type) {
	case *wit.Record:
		return d.deriveRecord(kind, path)
	case *wit.List:
		elem, err := d.derive(kind.Type, childPath(path, "[elem]"))
		if err != nil {
			return nil, err
		}
		return shape.Sequence(elem), nil
	case *wit.Tuple:
		return d.deriveTuple(kind, path)
	case *wit.Enum:
		return deriveEnum(kind), nil
	case *wit.Flags:
		return deriveFlags(kind, path)
	case *wit.Option:
		elem, err := d.derive(kind.Type, childPath(path, "[some]"))
		if err != nil {
			return nil, err
		}
		return shape.Optional(elem), nil
	case *wit.Result:
		return d.deriveResult(kind, path)
	case *wit.Variant:
		return d.deriveVariant(kind, path)
	case *wit.Own, *wit.Borrow:
		return nil, errors.New(errors.PhaseCompile, errors.KindUnsupported).
			Path(path...).
			Detail("resource handles are runtime identities, not data").
			Build()
	case wit.Type:
		// Type alias; derive the target.
		return d.derive(kind, path)
	default:
		return nil, errors.New(errors.PhaseCompile, errors.KindUnsupported).
			Path(path...).
			Detail("unsupported TypeDef kind: %T", kind).
			Build()
	}
}

func (d *Deriver) deriveRecord(r *wit.Record, path []string) (*shape.Shape, error) {
	fields := make([]shape.Field, 0, len(r.Fields))
	for _, f := range r.Fields {
		fs, err := d.derive(f.Type, childPath(path, f.Name))
		if err != nil {
			return nil, err
		}
		fields = append(fields, shape.NamedField(witName(f.Name), fs))
	}
	return shape.Record("", fields...), nil
}

// deriveTuple builds a record with positional f0, f1, ... field names,
// since WIT tuples carry none. The names keep the result bindable to
// ordinary Go struct fields (F0, F1, ...).
func (d *Deriver) deriveTuple(t *wit.Tuple, path []string) (*shape.Shape, error) {
	fields := make([]shape.Field, 0, len(t.Types))
	for i, elem := range t.Types {
		name := "f" + strconv.Itoa(i)
		fs, err := d.derive(elem, childPath(path, name))
		if err != nil {
			return nil, err
		}
		fields = append(fields, shape.NamedField(name, fs))
	}
	return shape.Record("", fields...), nil
}

func deriveEnum(e *wit.Enum) *shape.Shape {
	variants := make([]shape.Variant, 0, len(e.Cases))
	for _, c := range e.Cases {
		variants = append(variants, shape.Case(witName(c.Name)))
	}
	return shape.Enum("", variants...)
}

// deriveFlags packs a flags set into the smallest unsigned integer
// holding one bit per flag, flag i at bit i. Sets past 64 flags have
// no integer carrier.
func deriveFlags(f *wit.Flags, path []string) (*shape.Shape, error) {
	n := len(f.Flags)
	switch {
	case n == 0:
		return nil, errors.New(errors.PhaseCompile, errors.KindInvalidShape).
			Path(path...).
			Detail("flags with no entries").
			Build()
	case n <= 8:
		return shape.Uint(8), nil
	case n <= 16:
		return shape.Uint(16), nil
	case n <= 32:
		return shape.Uint(32), nil
	case n <= 64:
		return shape.Uint(64), nil
	default:
		return nil, errors.New(errors.PhaseCompile, errors.KindUnsupported).
			Path(path...).
			Detail("%d flags exceed a 64-bit carrier", n).
			Build()
	}
}

func (d *Deriver) deriveResult(r *wit.Result, path []string) (*shape.Shape, error) {
	okShape := shape.Unit()
	if r.OK != nil {
		var err error
		okShape, err = d.derive(r.OK, childPath(path, "[ok]"))
		if err != nil {
			return nil, err
		}
	}
	errShape := shape.Unit()
	if r.Err != nil {
		var err error
		errShape, err = d.derive(r.Err, childPath(path, "[err]"))
		if err != nil {
			return nil, err
		}
	}
	return shape.Union("",
		shape.PayloadCase("ok", okShape),
		shape.PayloadCase("err", errShape),
	), nil
}

func (d *Deriver) deriveVariant(v *wit.Variant, path []string) (*shape.Shape, error) {
	cases := make([]shape.Variant, 0, len(v.Cases))
	for _, c := range v.Cases {
		payload := shape.Unit()
		if c.Type != nil {
			var err error
			payload, err = d.derive(c.Type, childPath(path, c.Name))
			if err != nil {
				return nil, err
			}
		}
		cases = append(cases, shape.PayloadCase(witName(c.Name), payload))
	}
	return shape.Union("", cases...), nil
}

// witName normalizes a kebab-case WIT identifier to the snake_case
// form the codec's field matcher expects.
func witName(name string) string {
	return strings.ReplaceAll(name, "-", "_")
}

func childPath(path []string, elem string) []string {
	return append(append([]string{}, path...), elem)
}
