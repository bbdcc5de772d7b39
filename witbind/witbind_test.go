package witbind

import (
	"bytes"
	stderrors "errors"
	"reflect"
	"strconv"
	"testing"

	"go.bytecodealliance.org/wit"

	"github.com/wirebind/wirebind/codec"
	"github.com/wirebind/wirebind/errors"
	"github.com/wirebind/wirebind/shape"
)

func isKind(err error, kind errors.Kind) bool {
	var werr *errors.Error
	return stderrors.As(err, &werr) && werr.Kind == kind
}

func TestDerivePrimitives(t *testing.T) {
	tests := []struct {
		witType wit.Type
		name    string
		kind    shape.Kind
		bits    uint16
	}{
		{wit.Bool{}, "bool", shape.KindBool, 0},
		{wit.U8{}, "u8", shape.KindUint, 8},
		{wit.S8{}, "s8", shape.KindInt, 8},
		{wit.U16{}, "u16", shape.KindUint, 16},
		{wit.S16{}, "s16", shape.KindInt, 16},
		{wit.U32{}, "u32", shape.KindUint, 32},
		{wit.S32{}, "s32", shape.KindInt, 32},
		{wit.U64{}, "u64", shape.KindUint, 64},
		{wit.S64{}, "s64", shape.KindInt, 64},
		{wit.F32{}, "f32", shape.KindFloat, 32},
		{wit.F64{}, "f64", shape.KindFloat, 64},
		{wit.Char{}, "char", shape.KindUint, 32},
		{wit.String{}, "string", shape.KindString, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := Derive(tt.witType)
			if err != nil {
				t.Fatalf("Derive(%T) error: %v", tt.witType, err)
			}
			if s.Kind != tt.kind {
				t.Errorf("Derive(%T) kind = %v, want %v", tt.witType, s.Kind, tt.kind)
			}
			if s.Bits != tt.bits {
				t.Errorf("Derive(%T) bits = %d, want %d", tt.witType, s.Bits, tt.bits)
			}
		})
	}
}

func TestDeriveRecord(t *testing.T) {
	td := &wit.TypeDef{Kind: &wit.Record{Fields: []wit.Field{
		{Name: "name", Type: wit.String{}},
		{Name: "max-age", Type: wit.U64{}},
	}}}

	s, err := Derive(td)
	if err != nil {
		t.Fatalf("Derive(record) error: %v", err)
	}
	if s.Kind != shape.KindRecord {
		t.Fatalf("kind = %v, want %v", s.Kind, shape.KindRecord)
	}
	if len(s.Fields) != 2 {
		t.Fatalf("field count = %d, want 2", len(s.Fields))
	}
	if s.Fields[0].Name != "name" || s.Fields[0].Shape.Kind != shape.KindString {
		t.Errorf("field 0 = %q %s, want name string", s.Fields[0].Name, s.Fields[0].Shape)
	}
	if s.Fields[1].Name != "max_age" {
		t.Errorf("field 1 name = %q, want max_age", s.Fields[1].Name)
	}
	if s.Fields[1].Shape.Kind != shape.KindUint || s.Fields[1].Shape.Bits != 64 {
		t.Errorf("field 1 shape = %s, want u64", s.Fields[1].Shape)
	}
}

func TestDeriveList(t *testing.T) {
	s, err := Derive(&wit.TypeDef{Kind: &wit.List{Type: wit.U16{}}})
	if err != nil {
		t.Fatalf("Derive(list<u16>) error: %v", err)
	}
	if s.Kind != shape.KindSequence {
		t.Fatalf("kind = %v, want %v", s.Kind, shape.KindSequence)
	}
	if s.Elem.Kind != shape.KindUint || s.Elem.Bits != 16 {
		t.Errorf("element = %s, want u16", s.Elem)
	}
}

func TestDeriveOption(t *testing.T) {
	s, err := Derive(&wit.TypeDef{Kind: &wit.Option{Type: wit.String{}}})
	if err != nil {
		t.Fatalf("Derive(option<string>) error: %v", err)
	}
	if s.Kind != shape.KindOptional {
		t.Fatalf("kind = %v, want %v", s.Kind, shape.KindOptional)
	}
	if s.Elem.Kind != shape.KindString {
		t.Errorf("element = %s, want string", s.Elem)
	}
}

func TestDeriveTuple(t *testing.T) {
	td := &wit.TypeDef{
		Kind: &wit.Tuple{Types: []wit.Type{wit.U32{}, wit.String{}}},
	}

	s, err := Derive(td)
	if err != nil {
		t.Fatalf("Derive(tuple) error: %v", err)
	}
	if s.Kind != shape.KindRecord {
		t.Fatalf("kind = %v, want %v", s.Kind, shape.KindRecord)
	}
	if len(s.Fields) != 2 {
		t.Fatalf("field count = %d, want 2", len(s.Fields))
	}
	if s.Fields[0].Name != "f0" || s.Fields[0].Shape.Kind != shape.KindUint {
		t.Errorf("field 0 = %q %s, want f0 u32", s.Fields[0].Name, s.Fields[0].Shape)
	}
	if s.Fields[1].Name != "f1" || s.Fields[1].Shape.Kind != shape.KindString {
		t.Errorf("field 1 = %q %s, want f1 string", s.Fields[1].Name, s.Fields[1].Shape)
	}
}

func TestDeriveEnum(t *testing.T) {
	td := &wit.TypeDef{Kind: &wit.Enum{Cases: []wit.EnumCase{
		{Name: "active"}, {Name: "on-hold"}, {Name: "closed"},
	}}}

	s, err := Derive(td)
	if err != nil {
		t.Fatalf("Derive(enum) error: %v", err)
	}
	if s.Kind != shape.KindEnum {
		t.Fatalf("kind = %v, want %v", s.Kind, shape.KindEnum)
	}

	wantNames := []string{"active", "on_hold", "closed"}
	if len(s.Variants) != len(wantNames) {
		t.Fatalf("variant count = %d, want %d", len(s.Variants), len(wantNames))
	}
	for i, want := range wantNames {
		if s.Variants[i].Name != want {
			t.Errorf("variant %d name = %q, want %q", i, s.Variants[i].Name, want)
		}
		if s.Variants[i].Value != uint64(i) {
			t.Errorf("variant %d value = %d, want %d", i, s.Variants[i].Value, i)
		}
	}
}

func TestDeriveEnumEmpty(t *testing.T) {
	_, err := Derive(&wit.TypeDef{Kind: &wit.Enum{}})
	if !isKind(err, errors.KindInvalidShape) {
		t.Fatalf("Derive(empty enum) = %v, want %s", err, errors.KindInvalidShape)
	}
}

func TestDeriveVariant(t *testing.T) {
	td := &wit.TypeDef{Kind: &wit.Variant{Cases: []wit.Case{
		{Name: "not-found"},
		{Name: "payload", Type: wit.U32{}},
	}}}

	s, err := Derive(td)
	if err != nil {
		t.Fatalf("Derive(variant) error: %v", err)
	}
	if s.Kind != shape.KindUnion {
		t.Fatalf("kind = %v, want %v", s.Kind, shape.KindUnion)
	}
	if len(s.Variants) != 2 {
		t.Fatalf("case count = %d, want 2", len(s.Variants))
	}
	if s.Variants[0].Name != "not_found" || s.Variants[0].Payload.Kind != shape.KindUnit {
		t.Errorf("case 0 = %q %s, want not_found unit", s.Variants[0].Name, s.Variants[0].Payload)
	}
	if s.Variants[1].Name != "payload" || s.Variants[1].Payload.Kind != shape.KindUint {
		t.Errorf("case 1 = %q %s, want payload u32", s.Variants[1].Name, s.Variants[1].Payload)
	}
}

func TestDeriveResult(t *testing.T) {
	tests := []struct {
		result  *wit.Result
		name    string
		okKind  shape.Kind
		errKind shape.Kind
	}{
		{&wit.Result{OK: wit.U32{}, Err: wit.String{}}, "both payloads", shape.KindUint, shape.KindString},
		{&wit.Result{}, "bare", shape.KindUnit, shape.KindUnit},
		{&wit.Result{Err: wit.String{}}, "err only", shape.KindUnit, shape.KindString},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := Derive(&wit.TypeDef{Kind: tt.result})
			if err != nil {
				t.Fatalf("Derive(result) error: %v", err)
			}
			if s.Kind != shape.KindUnion || len(s.Variants) != 2 {
				t.Fatalf("Derive(result) = %s, want a two-case union", s)
			}
			if s.Variants[0].Name != "ok" || s.Variants[0].Payload.Kind != tt.okKind {
				t.Errorf("ok case payload = %s, want kind %v", s.Variants[0].Payload, tt.okKind)
			}
			if s.Variants[1].Name != "err" || s.Variants[1].Payload.Kind != tt.errKind {
				t.Errorf("err case payload = %s, want kind %v", s.Variants[1].Payload, tt.errKind)
			}
		})
	}
}

func flagsOf(n int) *wit.TypeDef {
	ff := make([]wit.Flag, n)
	for i := range ff {
		ff[i] = wit.Flag{Name: "f" + strconv.Itoa(i)}
	}
	return &wit.TypeDef{Kind: &wit.Flags{Flags: ff}}
}

func TestDeriveFlags(t *testing.T) {
	tests := []struct {
		n    int
		bits uint16
	}{
		{1, 8}, {8, 8}, {9, 16}, {16, 16}, {17, 32}, {32, 32}, {33, 64}, {64, 64},
	}

	for _, tt := range tests {
		s, err := Derive(flagsOf(tt.n))
		if err != nil {
			t.Fatalf("Derive(flags[%d]) error: %v", tt.n, err)
		}
		if s.Kind != shape.KindUint || s.Bits != tt.bits {
			t.Errorf("Derive(flags[%d]) = %s, want u%d", tt.n, s, tt.bits)
		}
	}

	if _, err := Derive(flagsOf(65)); !isKind(err, errors.KindUnsupported) {
		t.Errorf("Derive(flags[65]) = %v, want %s", err, errors.KindUnsupported)
	}
	if _, err := Derive(flagsOf(0)); !isKind(err, errors.KindInvalidShape) {
		t.Errorf("Derive(flags[0]) = %v, want %s", err, errors.KindInvalidShape)
	}
}

func TestDeriveAlias(t *testing.T) {
	alias := &wit.TypeDef{Kind: &wit.TypeDef{Kind: wit.U32{}}}

	s, err := Derive(alias)
	if err != nil {
		t.Fatalf("Derive(alias) error: %v", err)
	}
	if s.Kind != shape.KindUint || s.Bits != 32 {
		t.Errorf("Derive(alias of u32) = %s, want u32", s)
	}
}

func TestDeriveNamedTypeDef(t *testing.T) {
	name := "http-status"
	td := &wit.TypeDef{Name: &name, Kind: &wit.Enum{Cases: []wit.EnumCase{
		{Name: "ok"}, {Name: "not-found"},
	}}}

	s, err := Derive(td)
	if err != nil {
		t.Fatalf("Derive(named enum) error: %v", err)
	}
	if s.Name != "http_status" {
		t.Errorf("name = %q, want http_status", s.Name)
	}

	aliasName := "status-alias"
	alias := &wit.TypeDef{Name: &aliasName, Kind: td}
	s, err = Derive(alias)
	if err != nil {
		t.Fatalf("Derive(alias of named enum) error: %v", err)
	}
	if s.Name != "http_status" {
		t.Errorf("alias renamed its target: name = %q, want http_status", s.Name)
	}
}

func TestDeriveResourceHandles(t *testing.T) {
	for _, kind := range []wit.TypeDefKind{&wit.Own{}, &wit.Borrow{}} {
		_, err := Derive(&wit.TypeDef{Kind: kind})
		if !isKind(err, errors.KindUnsupported) {
			t.Errorf("Derive(%T) = %v, want %s", kind, err, errors.KindUnsupported)
		}
	}
}

func TestDeriveErrorPath(t *testing.T) {
	td := &wit.TypeDef{Kind: &wit.Record{Fields: []wit.Field{
		{Name: "id", Type: wit.U64{}},
		{Name: "handle", Type: &wit.TypeDef{Kind: &wit.Own{}}},
	}}}

	_, err := Derive(td)
	var werr *errors.Error
	if !stderrors.As(err, &werr) {
		t.Fatalf("Derive error = %v, want *errors.Error", err)
	}
	if want := []string{"handle"}; !reflect.DeepEqual(werr.Path, want) {
		t.Errorf("error path = %v, want %v", werr.Path, want)
	}
}

func TestDeriveSharedTypeDef(t *testing.T) {
	point := &wit.TypeDef{Kind: &wit.Record{Fields: []wit.Field{
		{Name: "x", Type: wit.U32{}},
		{Name: "y", Type: wit.U32{}},
	}}}
	pair := &wit.TypeDef{Kind: &wit.Record{Fields: []wit.Field{
		{Name: "from", Type: point},
		{Name: "to", Type: point},
	}}}

	d := NewDeriver()
	s, err := d.Derive(pair)
	if err != nil {
		t.Fatalf("Derive(pair) error: %v", err)
	}
	if s.Fields[0].Shape != s.Fields[1].Shape {
		t.Error("shared TypeDef derived to distinct shape nodes")
	}

	again, err := d.Derive(point)
	if err != nil {
		t.Fatalf("Derive(point) error: %v", err)
	}
	if again != s.Fields[0].Shape {
		t.Error("second derivation did not reuse the memoized shape")
	}
}

func TestDeriveRecursive(t *testing.T) {
	node := &wit.TypeDef{}
	node.Kind = &wit.Record{Fields: []wit.Field{
		{Name: "value", Type: wit.U32{}},
		{Name: "next", Type: &wit.TypeDef{Kind: &wit.Option{Type: node}}},
	}}

	s, err := Derive(node)
	if err != nil {
		t.Fatalf("Derive(recursive record) error: %v", err)
	}
	if s.Kind != shape.KindRecord {
		t.Fatalf("kind = %v, want %v", s.Kind, shape.KindRecord)
	}

	next := s.Fields[1].Shape
	if next.Kind != shape.KindOptional {
		t.Fatalf("next field = %s, want an optional", next)
	}
	if next.Elem != s {
		t.Error("recursive reference does not close back on the root shape")
	}
}

type linkNode struct {
	Next  *linkNode
	Value uint32
}

func TestDeriveCompileRoundTrip(t *testing.T) {
	node := &wit.TypeDef{}
	node.Kind = &wit.Record{Fields: []wit.Field{
		{Name: "value", Type: wit.U32{}},
		{Name: "next", Type: &wit.TypeDef{Kind: &wit.Option{Type: node}}},
	}}

	s, err := Derive(node)
	if err != nil {
		t.Fatalf("Derive error: %v", err)
	}
	plan, err := codec.Compile(s, reflect.TypeOf(linkNode{}))
	if err != nil {
		t.Fatalf("Compile error: %v", err)
	}

	value := linkNode{Value: 1, Next: &linkNode{Value: 2}}
	buf := make([]byte, 64)
	n, err := codec.Serialize(plan, value, buf, 16)
	if err != nil {
		t.Fatalf("Serialize error: %v", err)
	}
	want := []byte{0x01, 0x00, 0x00, 0x00, 0x01, 0x02, 0x00, 0x00, 0x00, 0x00}
	if !bytes.Equal(buf[:n], want) {
		t.Fatalf("wire = % x, want % x", buf[:n], want)
	}

	decoded, err := codec.Deserialize(plan, buf[:n], nil, 16)
	if err != nil {
		t.Fatalf("Deserialize error: %v", err)
	}
	if !reflect.DeepEqual(decoded, value) {
		t.Errorf("round trip = %+v, want %+v", decoded, value)
	}
}

type apiUser struct {
	Name   string
	Tags   []string
	Coord  *pairU32
	ID     uint64
	Status userStatus
}

type userStatus uint8

type pairU32 struct {
	F0 uint32
	F1 uint32
}

func TestDeriveCompileUser(t *testing.T) {
	status := &wit.TypeDef{Kind: &wit.Enum{Cases: []wit.EnumCase{
		{Name: "active"}, {Name: "disabled"},
	}}}
	coord := &wit.TypeDef{
		Kind: &wit.Tuple{Types: []wit.Type{wit.U32{}, wit.U32{}}},
	}
	user := &wit.TypeDef{Kind: &wit.Record{Fields: []wit.Field{
		{Name: "id", Type: wit.U64{}},
		{Name: "name", Type: wit.String{}},
		{Name: "tags", Type: &wit.TypeDef{Kind: &wit.List{Type: wit.String{}}}},
		{Name: "status", Type: status},
		{Name: "coord", Type: &wit.TypeDef{Kind: &wit.Option{Type: coord}}},
	}}}

	s, err := Derive(user)
	if err != nil {
		t.Fatalf("Derive error: %v", err)
	}
	plan, err := codec.Compile(s, reflect.TypeOf(apiUser{}))
	if err != nil {
		t.Fatalf("Compile error: %v", err)
	}

	value := apiUser{
		ID:     7,
		Name:   "ada",
		Tags:   []string{"x", "yz"},
		Status: 1,
		Coord:  &pairU32{F0: 3, F1: 4},
	}
	buf := make([]byte, 128)
	n, err := codec.Serialize(plan, value, buf, 16)
	if err != nil {
		t.Fatalf("Serialize error: %v", err)
	}
	// id, name, tags, status discriminant, coord flag and payload.
	want := []byte{
		0x07, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
		0x03, 0x00, 0x00, 0x00, 'a', 'd', 'a',
		0x02, 0x00, 0x00, 0x00,
		0x01, 0x00, 0x00, 0x00, 'x',
		0x02, 0x00, 0x00, 0x00, 'y', 'z',
		0x01,
		0x01,
		0x03, 0x00, 0x00, 0x00, 0x04, 0x00, 0x00, 0x00,
	}
	if !bytes.Equal(buf[:n], want) {
		t.Fatalf("wire = % x, want % x", buf[:n], want)
	}

	decoded, err := codec.Deserialize(plan, buf[:n], nil, 16)
	if err != nil {
		t.Fatalf("Deserialize error: %v", err)
	}
	if !reflect.DeepEqual(decoded, value) {
		t.Errorf("round trip = %+v, want %+v", decoded, value)
	}
}
