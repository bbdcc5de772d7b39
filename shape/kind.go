package shape

// Kind identifies a shape's structural category.
type Kind uint8

const (
	KindUint Kind = iota
	KindInt
	KindFloat
	KindBool
	KindUnit
	KindString
	KindArray
	KindSequence
	KindRef
	KindRecord
	KindEnum
	KindUnion
	KindOptional
	KindDeferred
)

var kindNames = [...]string{
	KindUint:     "uint",
	KindInt:      "int",
	KindFloat:    "float",
	KindBool:     "bool",
	KindUnit:     "unit",
	KindString:   "string",
	KindArray:    "array",
	KindSequence: "sequence",
	KindRef:      "ref",
	KindRecord:   "record",
	KindEnum:     "enum",
	KindUnion:    "union",
	KindOptional: "optional",
	KindDeferred: "deferred",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// IsScalar reports whether the kind has a fixed wire width with no
// substructure (integers, floats, bool, unit).
func (k Kind) IsScalar() bool {
	return k <= KindUnit
}

// IsInteger reports whether the kind is a primitive integer. Sentinels
// are only valid on integer-element arrays.
func (k Kind) IsInteger() bool {
	return k == KindUint || k == KindInt
}
