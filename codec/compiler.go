package codec

import (
	"math"
	"reflect"
	"strconv"
	"strings"
	"sync"
	"unicode"

	"github.com/wirebind/wirebind"
	"github.com/wirebind/wirebind/codec/internal/wire"
	"github.com/wirebind/wirebind/errors"
	"github.com/wirebind/wirebind/shape"
)

// Compiler binds shapes to Go types and caches the resulting plans.
// The zero value is not usable; construct with NewCompiler. Safe for
// concurrent use.
type Compiler struct {
	cache sync.Map // planKey -> *Plan
}

// planKey identifies a compilation by shape node identity and Go type.
type planKey struct {
	s *shape.Shape
	t reflect.Type
}

func NewCompiler() *Compiler {
	return &Compiler{}
}

var defaultCompiler = NewCompiler()

// Compile binds a shape to a Go type using the package-level compiler,
// so repeated calls for the same pair return the same plan.
func Compile(s *shape.Shape, goType reflect.Type) (*Plan, error) {
	return defaultCompiler.Compile(s, goType)
}

func (c *Compiler) Compile(s *shape.Shape, goType reflect.Type) (*Plan, error) {
	if goType == nil {
		return nil, errors.New(errors.PhaseCompile, errors.KindNilPointer).
			Detail("Go type cannot be nil").
			Build()
	}
	if err := shape.Validate(s); err != nil {
		return nil, err
	}

	// Dereference pointer types, except where the shape itself binds
	// the pointer.
	if goType.Kind() == reflect.Pointer && s.Kind != shape.KindOptional && s.Kind != shape.KindRef {
		goType = goType.Elem()
	}

	key := planKey{s: s, t: goType}
	if cached, ok := c.cache.Load(key); ok {
		return cached.(*Plan), nil
	}

	p, err := c.compile(s, goType, nil, make(map[planKey]*Plan))
	if err != nil {
		return nil, err
	}

	c.cache.Store(key, p)
	return p, nil
}

// compile builds the plan graph. The memo carries in-progress nodes so
// recursive shapes close back on the same plan instead of recursing
// forever.
func (c *Compiler) compile(s *shape.Shape, goType reflect.Type, path []string, memo map[planKey]*Plan) (*Plan, error) {
	key := planKey{s: s, t: goType}
	if p, ok := memo[key]; ok {
		return p, nil
	}

	p := &Plan{
		Shape:  s,
		GoType: goType,
		GoSize: goType.Size(),
		Kind:   s.Kind,
	}
	memo[key] = p

	switch s.Kind {
	case shape.KindUint, shape.KindInt:
		return p, c.compileInteger(s, goType, p, path)
	case shape.KindFloat:
		return p, c.compileFloat(s, goType, p, path)
	case shape.KindBool:
		if goType.Kind() != reflect.Bool {
			return nil, errors.TypeMismatch(errors.PhaseCompile, path, goType.String(), "bool")
		}
		p.Size = 1
		p.MinSize = 1
		return p, nil
	case shape.KindUnit:
		if goType.Kind() != reflect.Struct || goType.NumField() != 0 {
			return nil, errors.TypeMismatch(errors.PhaseCompile, path, goType.String(), "struct{}")
		}
		return p, nil
	case shape.KindString:
		if goType.Kind() != reflect.String {
			return nil, errors.TypeMismatch(errors.PhaseCompile, path, goType.String(), "string")
		}
		p.MinSize = wire.CountSize
		return p, nil
	case shape.KindArray:
		return p, c.compileArray(s, goType, p, path, memo)
	case shape.KindSequence:
		return p, c.compileSequence(s, goType, p, path, memo)
	case shape.KindRef:
		return p, c.compileRef(s, goType, p, path, memo)
	case shape.KindOptional:
		return p, c.compileOptional(s, goType, p, path, memo)
	case shape.KindRecord:
		return p, c.compileRecord(s, goType, p, path, memo)
	case shape.KindEnum:
		return p, c.compileEnum(s, goType, p, path)
	case shape.KindUnion:
		return p, c.compileUnion(s, goType, p, path, memo)
	default:
		return nil, errors.New(errors.PhaseCompile, errors.KindUnsupported).
			Path(path...).
			Detail("unsupported shape kind: %s", s.Kind).
			Build()
	}
}

var (
	uint128Type = reflect.TypeOf(wirebind.Uint128{})
	int128Type  = reflect.TypeOf(wirebind.Int128{})
)

func (c *Compiler) compileInteger(s *shape.Shape, goType reflect.Type, p *Plan, path []string) error {
	size := int(s.Bits) / 8
	p.Size = size
	p.MinSize = size
	p.signed = s.Kind == shape.KindInt

	var valid bool
	var expected string

	switch s.Bits {
	case 8:
		if p.signed {
			valid, expected = goType.Kind() == reflect.Int8, "int8"
		} else {
			valid, expected = goType.Kind() == reflect.Uint8, "uint8"
		}
	case 16:
		if p.signed {
			valid, expected = goType.Kind() == reflect.Int16, "int16"
		} else {
			valid, expected = goType.Kind() == reflect.Uint16, "uint16"
		}
	case 32:
		if p.signed {
			valid, expected = goType.Kind() == reflect.Int32, "int32"
		} else {
			valid, expected = goType.Kind() == reflect.Uint32, "uint32"
		}
	case 64:
		if p.signed {
			valid, expected = goType.Kind() == reflect.Int64, "int64"
		} else {
			valid, expected = goType.Kind() == reflect.Uint64, "uint64"
		}
	case 128:
		named := uint128Type
		if p.signed {
			named = int128Type
		}
		valid, expected = goType == named || isByteArray(goType, size), named.String()+" or [16]uint8"
	default:
		// Wider and odd widths carry raw little-endian payload bytes.
		valid, expected = isByteArray(goType, size), "["+strconv.Itoa(size)+"]uint8"
	}

	if !valid {
		return errors.TypeMismatch(errors.PhaseCompile, path, goType.String(), expected)
	}
	return nil
}

func isByteArray(t reflect.Type, n int) bool {
	return t.Kind() == reflect.Array && t.Len() == n && t.Elem().Kind() == reflect.Uint8
}

func (c *Compiler) compileFloat(s *shape.Shape, goType reflect.Type, p *Plan, path []string) error {
	p.Size = int(s.Bits) / 8
	p.MinSize = p.Size

	switch s.Bits {
	case 16:
		// Half precision binds either the raw bit pattern or a float32
		// converted through IEEE 754 half.
		switch goType.Kind() {
		case reflect.Uint16:
		case reflect.Float32:
			p.f16conv = true
		default:
			return errors.TypeMismatch(errors.PhaseCompile, path, goType.String(), "uint16 or float32")
		}
	case 32:
		if goType.Kind() != reflect.Float32 {
			return errors.TypeMismatch(errors.PhaseCompile, path, goType.String(), "float32")
		}
	case 64:
		if goType.Kind() != reflect.Float64 {
			return errors.TypeMismatch(errors.PhaseCompile, path, goType.String(), "float64")
		}
	}
	return nil
}

func (c *Compiler) compileArray(s *shape.Shape, goType reflect.Type, p *Plan, path []string, memo map[planKey]*Plan) error {
	if goType.Kind() != reflect.Array {
		return errors.TypeMismatch(errors.PhaseCompile, path, goType.String(), "array")
	}
	if goType.Len() != int(s.Len) {
		return errors.New(errors.PhaseCompile, errors.KindTypeMismatch).
			Path(path...).
			GoType(goType.String()).
			Detail("array length %d does not match declared length %d", goType.Len(), s.Len).
			Build()
	}

	elemPath := append(append([]string{}, path...), "[elem]")
	elem, err := c.compile(s.Elem, goType.Elem(), elemPath, memo)
	if err != nil {
		return err
	}

	p.Elem = elem
	p.Len = int(s.Len)
	p.Sentinel = s.Sentinel
	p.HasSentinel = s.HasSentinel
	p.bulk = elem.bulkElem()
	p.MinSize = clampSize(uint64(p.Len), uint64(elem.MinSize))
	return nil
}

func (c *Compiler) compileSequence(s *shape.Shape, goType reflect.Type, p *Plan, path []string, memo map[planKey]*Plan) error {
	if goType.Kind() != reflect.Slice {
		return errors.TypeMismatch(errors.PhaseCompile, path, goType.String(), "slice")
	}

	elemPath := append(append([]string{}, path...), "[elem]")
	elem, err := c.compile(s.Elem, goType.Elem(), elemPath, memo)
	if err != nil {
		return err
	}

	p.Elem = elem
	p.bulk = elem.bulkElem()
	p.MinSize = wire.CountSize
	return nil
}

func (c *Compiler) compileRef(s *shape.Shape, goType reflect.Type, p *Plan, path []string, memo map[planKey]*Plan) error {
	if goType.Kind() != reflect.Pointer {
		return errors.TypeMismatch(errors.PhaseCompile, path, goType.String(), "pointer")
	}

	refPath := append(append([]string{}, path...), "[ref]")
	elem, err := c.compile(s.Elem, goType.Elem(), refPath, memo)
	if err != nil {
		return err
	}

	p.Elem = elem
	p.MinSize = elem.MinSize
	return nil
}

func (c *Compiler) compileOptional(s *shape.Shape, goType reflect.Type, p *Plan, path []string, memo map[planKey]*Plan) error {
	if goType.Kind() != reflect.Pointer {
		return errors.TypeMismatch(errors.PhaseCompile, path, goType.String(), "pointer")
	}

	somePath := append(append([]string{}, path...), "[some]")

	// An optional of a ref collapses to one pointer level in Go: the
	// ref binds the same pointer, and the walk hands it the pointer's
	// address.
	if s.Elem.Kind == shape.KindRef {
		elem, err := c.compile(s.Elem, goType, somePath, memo)
		if err != nil {
			return err
		}
		p.Elem = elem
		p.fused = true
		p.MinSize = wire.TagSize
		return nil
	}

	elem, err := c.compile(s.Elem, goType.Elem(), somePath, memo)
	if err != nil {
		return err
	}
	p.Elem = elem
	p.MinSize = wire.TagSize
	return nil
}

func (c *Compiler) compileRecord(s *shape.Shape, goType reflect.Type, p *Plan, path []string, memo map[planKey]*Plan) error {
	if goType.Kind() != reflect.Struct {
		return errors.TypeMismatch(errors.PhaseCompile, path, goType.String(), "struct")
	}

	fields := make([]PlanField, 0, len(s.Fields))
	minSize := 0

	for _, sf := range s.Fields {
		goField, found := c.findGoField(goType, sf.Name)
		if !found {
			return errors.FieldMissing(errors.PhaseCompile, path, sf.Name)
		}

		fieldPath := append(append([]string{}, path...), sf.Name)
		fieldPlan, err := c.compile(sf.Shape, goField.Type, fieldPath, memo)
		if err != nil {
			return err
		}

		fields = append(fields, PlanField{
			Type:     fieldPlan,
			Name:     sf.Name,
			GoName:   goField.Name,
			GoOffset: goField.Offset,
		})
		minSize = addSize(minSize, fieldPlan.MinSize)
	}

	p.Fields = fields
	p.MinSize = minSize
	return nil
}

func (c *Compiler) compileEnum(s *shape.Shape, goType reflect.Type, p *Plan, path []string) error {
	switch goType.Kind() {
	case reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
	case reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		p.signed = true
	default:
		return errors.TypeMismatch(errors.PhaseCompile, path, goType.String(), "fixed-width integer")
	}

	p.encIndex = make(map[uint64]uint8, len(s.Variants))
	p.decValue = make([]uint64, len(s.Variants))
	for i, v := range s.Variants {
		if !valueFits(v.Value, p.GoSize, p.signed) {
			return errors.New(errors.PhaseCompile, errors.KindTypeMismatch).
				Path(path...).
				GoType(goType.String()).
				Detail("variant %q underlying value %d does not fit", v.Name, v.Value).
				Build()
		}
		p.encIndex[v.Value] = uint8(i)
		p.decValue[i] = v.Value
	}

	p.Size = wire.TagSize
	p.MinSize = wire.TagSize
	return nil
}

// valueFits reports whether an underlying value survives a round trip
// through a Go integer of the given byte size.
func valueFits(v uint64, size uintptr, signed bool) bool {
	if size >= 8 {
		return true
	}
	w := uint(size) * 8
	if signed {
		sv := int64(v)
		return sv<<(64-w)>>(64-w) == sv
	}
	return v>>w == 0
}

func (c *Compiler) compileUnion(s *shape.Shape, goType reflect.Type, p *Plan, path []string, memo map[planKey]*Plan) error {
	if goType.Kind() != reflect.Struct {
		return errors.TypeMismatch(errors.PhaseCompile, path, goType.String(), "struct")
	}

	cases := make([]PlanCase, 0, len(s.Variants))
	minPayload := math.MaxInt32

	for _, v := range s.Variants {
		goField, found := c.findGoField(goType, v.Name)
		if !found {
			return errors.FieldMissing(errors.PhaseCompile, path, v.Name)
		}
		if goField.Type.Kind() != reflect.Pointer {
			return errors.New(errors.PhaseCompile, errors.KindTypeMismatch).
				Path(path...).
				GoType(goField.Type.String()).
				Detail("union case %q needs a pointer field", v.Name).
				Build()
		}

		casePath := append(append([]string{}, path...), v.Name)
		payload, err := c.compile(v.Payload, goField.Type.Elem(), casePath, memo)
		if err != nil {
			return err
		}

		cases = append(cases, PlanCase{
			Type:     payload,
			Name:     v.Name,
			GoOffset: goField.Offset,
		})
		if payload.MinSize < minPayload {
			minPayload = payload.MinSize
		}
	}

	p.Cases = cases
	p.MinSize = addSize(wire.TagSize, minPayload)
	return nil
}

// findGoField matches by: 1) wire:"name" tag, 2) case-insensitive,
// 3) snake_case of the Go name.
func (c *Compiler) findGoField(goType reflect.Type, name string) (reflect.StructField, bool) {
	for i := 0; i < goType.NumField(); i++ {
		field := goType.Field(i)
		if !field.IsExported() {
			continue
		}

		if tag := field.Tag.Get("wire"); tag != "" {
			if tag == name || tag == "-" {
				if tag == "-" {
					continue
				}
				return field, true
			}
		}

		if strings.EqualFold(field.Name, name) {
			return field, true
		}

		if toSnakeCase(field.Name) == name {
			return field, true
		}
	}
	return reflect.StructField{}, false
}

func toSnakeCase(s string) string {
	var result strings.Builder
	for i, r := range s {
		if unicode.IsUpper(r) {
			if i > 0 {
				result.WriteByte('_')
			}
			result.WriteRune(unicode.ToLower(r))
		} else {
			result.WriteRune(r)
		}
	}
	return result.String()
}

// bulkElem reports whether values of this plan can move as one memcopy
// when laid out back to back: fixed-width scalars whose Go memory
// already matches the wire bytes. Booleans stay per-element so decode
// validation is never skipped.
func (p *Plan) bulkElem() bool {
	switch p.Kind {
	case shape.KindUint, shape.KindInt, shape.KindFloat:
		return !p.f16conv && p.GoSize == uintptr(p.Size)
	default:
		return false
	}
}

// clampSize multiplies count by size, saturating at MaxInt32 so minimum
// size prechecks stay in safe integer range.
func clampSize(count, size uint64) int {
	m, ok := wire.SafeMulU64(count, size)
	if !ok || m > math.MaxInt32 {
		return math.MaxInt32
	}
	return int(m)
}

// addSize adds sizes with the same saturation.
func addSize(a, b int) int {
	if a > math.MaxInt32-b {
		return math.MaxInt32
	}
	return a + b
}
