package shape

import "testing"

func TestKindString(t *testing.T) {
	tests := []struct {
		kind Kind
		want string
	}{
		{KindUint, "uint"},
		{KindInt, "int"},
		{KindFloat, "float"},
		{KindBool, "bool"},
		{KindUnit, "unit"},
		{KindString, "string"},
		{KindArray, "array"},
		{KindSequence, "sequence"},
		{KindRef, "ref"},
		{KindRecord, "record"},
		{KindEnum, "enum"},
		{KindUnion, "union"},
		{KindOptional, "optional"},
		{KindDeferred, "deferred"},
		{Kind(200), "unknown"},
	}

	for _, tt := range tests {
		if got := tt.kind.String(); got != tt.want {
			t.Errorf("Kind(%d).String() = %q, want %q", tt.kind, got, tt.want)
		}
	}
}

func TestKindIsScalar(t *testing.T) {
	scalar := []Kind{KindUint, KindInt, KindFloat, KindBool, KindUnit}
	for _, k := range scalar {
		if !k.IsScalar() {
			t.Errorf("%v.IsScalar() = false, want true", k)
		}
	}

	composite := []Kind{KindString, KindArray, KindSequence, KindRef, KindRecord, KindEnum, KindUnion, KindOptional}
	for _, k := range composite {
		if k.IsScalar() {
			t.Errorf("%v.IsScalar() = true, want false", k)
		}
	}
}

func TestKindIsInteger(t *testing.T) {
	if !KindUint.IsInteger() || !KindInt.IsInteger() {
		t.Error("uint and int kinds must be integers")
	}
	for _, k := range []Kind{KindFloat, KindBool, KindUnit, KindString, KindArray} {
		if k.IsInteger() {
			t.Errorf("%v.IsInteger() = true, want false", k)
		}
	}
}
