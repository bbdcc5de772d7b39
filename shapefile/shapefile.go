package shapefile

import (
	"fmt"
	"os"
	"sort"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/wirebind/wirebind/errors"
	"github.com/wirebind/wirebind/shape"
)

// File is the parsed form of a shape document. Embedders that carry
// shape definitions inside a larger configuration can unmarshal into
// this struct directly and call Build.
type File struct {
	Shapes map[string]*Node `yaml:"shapes"`
}

// Node is one shape expression: either a scalar form (bool, unit,
// string, u32, i16, f64, or the name of another definition) or a
// mapping with exactly one container form.
type Node struct {
	array  *arrayNode
	seq    *Node
	ref    *Node
	opt    *Node
	record *recordNode
	enum   *enumNode
	union  *unionNode
	scalar string
	line   int
}

type nodeSpec struct {
	Array    *arrayNode  `yaml:"array"`
	Sequence *Node       `yaml:"sequence"`
	Ref      *Node       `yaml:"ref"`
	Optional *Node       `yaml:"optional"`
	Record   *recordNode `yaml:"record"`
	Enum     *enumNode   `yaml:"enum"`
	Union    *unionNode  `yaml:"union"`
}

var nodeForms = map[string]bool{
	"array": true, "sequence": true, "ref": true, "optional": true,
	"record": true, "enum": true, "union": true,
}

// UnmarshalYAML accepts the scalar and mapping forms of a shape
// expression.
func (n *Node) UnmarshalYAML(value *yaml.Node) error {
	n.line = value.Line

	switch value.Kind {
	case yaml.ScalarNode:
		if value.Value == "" {
			return fmt.Errorf("line %d: empty shape", value.Line)
		}
		n.scalar = value.Value
		return nil
	case yaml.MappingNode:
	default:
		return fmt.Errorf("line %d: shape must be a scalar or a mapping", value.Line)
	}

	for i := 0; i < len(value.Content); i += 2 {
		if key := value.Content[i].Value; !nodeForms[key] {
			return fmt.Errorf("line %d: unknown shape form %q", value.Content[i].Line, key)
		}
	}

	var spec nodeSpec
	if err := value.Decode(&spec); err != nil {
		return err
	}

	set := 0
	for _, ok := range []bool{
		spec.Array != nil, spec.Sequence != nil, spec.Ref != nil, spec.Optional != nil,
		spec.Record != nil, spec.Enum != nil, spec.Union != nil,
	} {
		if ok {
			set++
		}
	}
	if set != 1 {
		return fmt.Errorf("line %d: want exactly one shape form, got %d", value.Line, set)
	}

	n.array = spec.Array
	n.seq = spec.Sequence
	n.ref = spec.Ref
	n.opt = spec.Optional
	n.record = spec.Record
	n.enum = spec.Enum
	n.union = spec.Union
	return nil
}

type arrayNode struct {
	Elem     *Node         `yaml:"elem"`
	Sentinel *sentinelNode `yaml:"sentinel"`
	Len      uint32        `yaml:"len"`
}

type recordNode struct {
	Name   string      `yaml:"name"`
	Fields []fieldNode `yaml:"fields"`
}

type fieldNode struct {
	Name  string `yaml:"name"`
	Shape *Node  `yaml:"shape"`
}

type enumNode struct {
	Name     string        `yaml:"name"`
	Variants []variantNode `yaml:"variants"`
}

type variantNode struct {
	Value *uint64 `yaml:"value"`
	Name  string  `yaml:"name"`
}

// UnmarshalYAML accepts a bare variant name or the {name, value}
// mapping form.
func (v *variantNode) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.ScalarNode {
		v.Name = value.Value
		return nil
	}
	type plain variantNode
	var p plain
	if err := value.Decode(&p); err != nil {
		return err
	}
	*v = variantNode(p)
	return nil
}

type unionNode struct {
	Name  string     `yaml:"name"`
	Cases []caseNode `yaml:"cases"`
}

type caseNode struct {
	Shape *Node  `yaml:"shape"`
	Name  string `yaml:"name"`
}

// UnmarshalYAML accepts a bare case name, which carries a unit payload,
// or the {name, shape} mapping form.
func (c *caseNode) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.ScalarNode {
		c.Name = value.Value
		return nil
	}
	type plain caseNode
	var p plain
	if err := value.Decode(&p); err != nil {
		return err
	}
	*c = caseNode(p)
	return nil
}

// sentinelNode keeps the sign of the literal so negative sentinels can
// be masked to the element width at build time: an i16 sentinel written
// as -1 means the bit pattern 0xFFFF, not all 64 bits set.
type sentinelNode struct {
	raw uint64
	neg bool
}

func (s *sentinelNode) UnmarshalYAML(value *yaml.Node) error {
	var u uint64
	if err := value.Decode(&u); err == nil {
		s.raw = u
		return nil
	}
	var i int64
	if err := value.Decode(&i); err != nil {
		return fmt.Errorf("line %d: sentinel must be an integer", value.Line)
	}
	s.raw = uint64(i)
	s.neg = i < 0
	return nil
}

func (s *sentinelNode) pattern(elem *shape.Shape) uint64 {
	v := s.raw
	if s.neg && elem != nil && elem.Bits > 0 && elem.Bits < 64 {
		v &= uint64(1)<<elem.Bits - 1
	}
	return v
}

// Load parses a YAML shape document and builds every definition in it.
func Load(data []byte) (map[string]*shape.Shape, error) {
	var file File
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, errors.Wrap(errors.PhaseValidate, errors.KindInvalidInput, err, "parsing shape document")
	}
	if len(file.Shapes) == 0 {
		return nil, errors.InvalidShape(nil, "document defines no shapes")
	}
	return file.Build()
}

// LoadFile reads and builds a shape document from disk.
func LoadFile(path string) (map[string]*shape.Shape, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(errors.PhaseValidate, errors.KindInvalidInput, err, "reading shape document")
	}
	return Load(data)
}

// Build resolves and validates every definition. Definitions may refer
// to each other by name in any order, including cyclically; each name
// gets a placeholder up front and interior references land on it, so
// mutual recursion closes the same way Deferred/Resolve cycles do.
// A definition that is nothing but another definition's name does not
// build: aliases have no independent identity to resolve.
func (f *File) Build() (map[string]*shape.Shape, error) {
	names := make([]string, 0, len(f.Shapes))
	for name := range f.Shapes {
		names = append(names, name)
	}
	sort.Strings(names)

	b := &builder{defs: make(map[string]*shape.Shape, len(f.Shapes))}
	for _, name := range names {
		if name == "" {
			return nil, errors.InvalidShape(nil, "definition with empty name")
		}
		if _, ok := scalarShape(name); ok {
			return nil, errors.InvalidShape(nil, fmt.Sprintf("definition %q shadows a builtin scalar form", name))
		}
		b.defs[name] = shape.Deferred()
	}

	for _, name := range names {
		n := f.Shapes[name]
		if n == nil {
			return nil, errors.InvalidShape([]string{name}, "definition has no shape")
		}
		if n.scalar != "" {
			if _, ok := scalarShape(n.scalar); !ok {
				return nil, errors.InvalidShape([]string{name},
					fmt.Sprintf("line %d: bare alias to %q; define a structural shape", n.line, n.scalar))
			}
		}

		s, err := b.build(n, nil)
		if err != nil {
			return nil, errors.PrependPath(err, name)
		}
		if s.Name == "" {
			switch s.Kind {
			case shape.KindRecord, shape.KindEnum, shape.KindUnion:
				s.Name = name
			}
		}
		b.defs[name].Resolve(s)
	}

	for _, name := range names {
		if err := shape.Validate(b.defs[name]); err != nil {
			return nil, errors.PrependPath(err, name)
		}
	}
	return b.defs, nil
}

type builder struct {
	defs map[string]*shape.Shape
}

func (b *builder) build(n *Node, path []string) (*shape.Shape, error) {
	if n == nil {
		return nil, errors.InvalidShape(path, "missing shape")
	}

	switch {
	case n.scalar != "":
		if s, ok := scalarShape(n.scalar); ok {
			return s, nil
		}
		if s, ok := b.defs[n.scalar]; ok {
			return s, nil
		}
		return nil, errors.InvalidShape(path, fmt.Sprintf("line %d: unknown shape %q", n.line, n.scalar))

	case n.array != nil:
		elem, err := b.build(n.array.Elem, childPath(path, "[elem]"))
		if err != nil {
			return nil, err
		}
		if n.array.Sentinel == nil {
			return shape.Array(elem, int(n.array.Len)), nil
		}
		return shape.ArrayWithSentinel(elem, int(n.array.Len), n.array.Sentinel.pattern(elem)), nil

	case n.seq != nil:
		elem, err := b.build(n.seq, childPath(path, "[elem]"))
		if err != nil {
			return nil, err
		}
		return shape.Sequence(elem), nil

	case n.ref != nil:
		elem, err := b.build(n.ref, childPath(path, "[ref]"))
		if err != nil {
			return nil, err
		}
		return shape.Ref(elem), nil

	case n.opt != nil:
		elem, err := b.build(n.opt, childPath(path, "[some]"))
		if err != nil {
			return nil, err
		}
		return shape.Optional(elem), nil

	case n.record != nil:
		fields := make([]shape.Field, 0, len(n.record.Fields))
		for _, f := range n.record.Fields {
			if f.Shape == nil {
				return nil, errors.InvalidShape(childPath(path, f.Name),
					fmt.Sprintf("line %d: field %q has no shape", n.line, f.Name))
			}
			fs, err := b.build(f.Shape, childPath(path, f.Name))
			if err != nil {
				return nil, err
			}
			fields = append(fields, shape.NamedField(f.Name, fs))
		}
		return shape.Record(n.record.Name, fields...), nil

	case n.enum != nil:
		variants := make([]shape.Variant, 0, len(n.enum.Variants))
		for _, v := range n.enum.Variants {
			if v.Value != nil {
				variants = append(variants, shape.CaseValue(v.Name, *v.Value))
			} else {
				variants = append(variants, shape.Case(v.Name))
			}
		}
		return shape.Enum(n.enum.Name, variants...), nil

	case n.union != nil:
		cases := make([]shape.Variant, 0, len(n.union.Cases))
		for _, c := range n.union.Cases {
			payload := shape.Unit()
			if c.Shape != nil {
				var err error
				payload, err = b.build(c.Shape, childPath(path, c.Name))
				if err != nil {
					return nil, err
				}
			}
			cases = append(cases, shape.PayloadCase(c.Name, payload))
		}
		return shape.Union(n.union.Name, cases...), nil

	default:
		return nil, errors.InvalidShape(path, "empty shape node")
	}
}

// scalarShape parses the builtin scalar forms: bool, unit, string, and
// the u/i/f width forms.
func scalarShape(s string) (*shape.Shape, bool) {
	switch s {
	case "bool":
		return shape.Bool(), true
	case "unit":
		return shape.Unit(), true
	case "string":
		return shape.String(), true
	}
	if len(s) < 2 || !digits(s[1:]) {
		return nil, false
	}
	bits, err := strconv.Atoi(s[1:])
	if err != nil || bits > 0xFFFF {
		return nil, false
	}
	switch s[0] {
	case 'u':
		return shape.Uint(bits), true
	case 'i':
		return shape.Int(bits), true
	case 'f':
		return shape.Float(bits), true
	}
	return nil, false
}

func digits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

func childPath(path []string, elem string) []string {
	return append(append([]string{}, path...), elem)
}
