package conformance

import (
	"github.com/wirebind/wirebind"
	"github.com/wirebind/wirebind/shape"
)

// Profile is the flat reference record: a string, a u128, an f64 and
// an i32 sequence.
type Profile struct {
	Name string
	Data []int32
	Age  wirebind.Uint128
	Prob float64
}

// Hole is the self-referential reference record. Each link costs three
// recursion levels: the optional, its presence flag, and the referent.
type Hole struct {
	Inner *Hole
	ID    [2]int16
	Age   uint32
}

// Step is the three-variant fieldless reference enum.
type Step uint8

// Step variants, in discriminant order.
const (
	StepOne Step = iota
	StepTwo
	StepThree
)

// Exists is the reference union: a payload-free case and a case
// carrying a unit and a bool.
type Exists struct {
	No  *struct{}
	Yes *ExistsYes
}

// ExistsYes is the payload of the yes case.
type ExistsYes struct {
	Void struct{}
	Flag bool
}

// ProfileShape returns the record shape Profile binds to.
func ProfileShape() *shape.Shape {
	return shape.Record("profile",
		shape.NamedField("name", shape.String()),
		shape.NamedField("age", shape.Uint(128)),
		shape.NamedField("prob", shape.Float(64)),
		shape.NamedField("data", shape.Sequence(shape.Int(32))),
	)
}

// HoleShape returns the recursive record shape Hole binds to.
func HoleShape() *shape.Shape {
	hole := shape.Deferred()
	rec := shape.Record("hole",
		shape.NamedField("age", shape.Uint(32)),
		shape.NamedField("id", shape.Array(shape.Int(16), 2)),
		shape.NamedField("inner", shape.Optional(shape.Ref(hole))),
	)
	hole.Resolve(rec)
	return hole
}

// StepShape returns the enum shape Step binds to.
func StepShape() *shape.Shape {
	return shape.Enum("step",
		shape.Case("one"),
		shape.Case("two"),
		shape.Case("three"),
	)
}

// ExistsShape returns the union shape Exists binds to.
func ExistsShape() *shape.Shape {
	return shape.Union("exists",
		shape.PayloadCase("no", shape.Unit()),
		shape.PayloadCase("yes", shape.Record("",
			shape.NamedField("void", shape.Unit()),
			shape.NamedField("flag", shape.Bool()),
		)),
	)
}

// Case is one corpus entry: a value, its shape, the exact bytes it
// encodes to, and the minimum recursion allowance that round-trips it.
type Case struct {
	Value any
	Name  string
	Wire  []byte
	Shape *shape.Shape
	RefID int
	Depth uint8
}

// Corpus returns the conformance cases. Entries with RefID >= 0 are
// understood by reference guests and identify the same value on both
// sides; the rest exercise the Go codec only.
func Corpus() []Case {
	return []Case{
		{
			Name:  "profile",
			RefID: 0,
			Depth: 3,
			Shape: ProfileShape(),
			Value: Profile{
				Name: "ccccc",
				Age:  wirebind.Uint128{Lo: 541212312321534534},
				Prob: 0.69,
				Data: []int32{31, 69},
			},
			Wire: []byte{
				0x05, 0x00, 0x00, 0x00,
				'c', 'c', 'c', 'c', 'c',
				0x46, 0x2A, 0xFE, 0x07, 0xBB, 0xC5, 0x82, 0x07, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
				0x14, 0xAE, 0x47, 0xE1, 0x7A, 0x14, 0xE6, 0x3F,
				0x02, 0x00, 0x00, 0x00,
				0x1F, 0x00, 0x00, 0x00,
				0x45, 0x00, 0x00, 0x00,
			},
		},
		{
			Name:  "profile empty collections",
			RefID: 1,
			Depth: 2,
			Shape: ProfileShape(),
			Value: Profile{
				Name: "",
				Age:  wirebind.Uint128{Lo: 699},
				Prob: 0.01,
				Data: []int32{},
			},
			Wire: []byte{
				0x00, 0x00, 0x00, 0x00,
				0xBB, 0x02, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
				0x7B, 0x14, 0xAE, 0x47, 0xE1, 0x7A, 0x84, 0x3F,
				0x00, 0x00, 0x00, 0x00,
			},
		},
		{
			Name:  "hole leaf",
			RefID: 2,
			Depth: 3,
			Shape: HoleShape(),
			Value: Hole{Age: 69, ID: [2]int16{3, 9}},
			Wire:  []byte{0x45, 0x00, 0x00, 0x00, 0x03, 0x00, 0x09, 0x00, 0x00},
		},
		{
			Name:  "hole one link",
			RefID: 3,
			Depth: 6,
			Shape: HoleShape(),
			Value: Hole{
				Age: 1131,
				ID:  [2]int16{3, 10},
				Inner: &Hole{
					Age: 1333,
					ID:  [2]int16{6, 9},
				},
			},
			Wire: []byte{
				0x6B, 0x04, 0x00, 0x00, 0x03, 0x00, 0x0A, 0x00, 0x01,
				0x35, 0x05, 0x00, 0x00, 0x06, 0x00, 0x09, 0x00, 0x00,
			},
		},
		{
			Name:  "step second",
			RefID: 4,
			Depth: 1,
			Shape: StepShape(),
			Value: StepTwo,
			Wire:  []byte{0x01},
		},
		{
			Name:  "exists no",
			RefID: 5,
			Depth: 2,
			Shape: ExistsShape(),
			Value: Exists{No: &struct{}{}},
			Wire:  []byte{0x00},
		},
		{
			Name:  "exists yes",
			RefID: 6,
			Depth: 3,
			Shape: ExistsShape(),
			Value: Exists{Yes: &ExistsYes{Flag: true}},
			Wire:  []byte{0x01, 0x01},
		},
		{
			Name:  "step third",
			RefID: -1,
			Depth: 1,
			Shape: StepShape(),
			Value: StepThree,
			Wire:  []byte{0x02},
		},
		{
			Name:  "exists yes false",
			RefID: -1,
			Depth: 3,
			Shape: ExistsShape(),
			Value: Exists{Yes: &ExistsYes{Flag: false}},
			Wire:  []byte{0x01, 0x00},
		},
		{
			Name:  "profile saturated age",
			RefID: -1,
			Depth: 3,
			Shape: ProfileShape(),
			Value: Profile{
				Name: "m",
				Age:  wirebind.Uint128{Lo: ^uint64(0), Hi: ^uint64(0)},
				Prob: 1.0,
				Data: []int32{-1},
			},
			Wire: []byte{
				0x01, 0x00, 0x00, 0x00, 'm',
				0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF,
				0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0xF0, 0x3F,
				0x01, 0x00, 0x00, 0x00,
				0xFF, 0xFF, 0xFF, 0xFF,
			},
		},
		{
			Name:  "hole two links",
			RefID: -1,
			Depth: 9,
			Shape: HoleShape(),
			Value: Hole{
				Age: 1,
				ID:  [2]int16{1, 2},
				Inner: &Hole{
					Age: 2,
					ID:  [2]int16{3, 4},
					Inner: &Hole{
						Age: 3,
						ID:  [2]int16{5, 6},
					},
				},
			},
			Wire: []byte{
				0x01, 0x00, 0x00, 0x00, 0x01, 0x00, 0x02, 0x00, 0x01,
				0x02, 0x00, 0x00, 0x00, 0x03, 0x00, 0x04, 0x00, 0x01,
				0x03, 0x00, 0x00, 0x00, 0x05, 0x00, 0x06, 0x00, 0x00,
			},
		},
	}
}

// ByID returns the corpus case carrying the given reference id.
func ByID(id int) (Case, bool) {
	for _, c := range Corpus() {
		if c.RefID == id {
			return c, true
		}
	}
	return Case{}, false
}
