package codec

import (
	"reflect"
	"testing"

	"github.com/wirebind/wirebind"
	"github.com/wirebind/wirebind/arena"
	"github.com/wirebind/wirebind/shape"
)

func BenchmarkSerialize_Scalar(b *testing.B) {
	p := mustCompile(b, shape.Uint(64), reflect.TypeOf(uint64(0)))
	buf := make([]byte, 16)
	v := uint64(541212312321534534)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = Serialize(p, v, buf, testDepth)
	}
}

func BenchmarkSerialize_Record(b *testing.B) {
	p := mustCompile(b, profileShape(), reflect.TypeOf(profile{}))
	v := profile{Name: "ccccc", Age: wirebind.Uint128{Lo: 699}, Prob: 0.69, Data: []int32{31, 69}}
	buf := make([]byte, 128)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = Serialize(p, v, buf, testDepth)
	}
}

func BenchmarkSerialize_BulkSequence(b *testing.B) {
	p := mustCompile(b, shape.Sequence(shape.Uint(64)), reflect.TypeOf([]uint64{}))
	v := make([]uint64, 1024)
	for i := range v {
		v[i] = uint64(i)
	}
	buf := make([]byte, 4+8*len(v))

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = Serialize(p, v, buf, testDepth)
	}
}

func BenchmarkSerialize_Recursive(b *testing.B) {
	p := mustCompile(b, holeShape(), reflect.TypeOf(hole{}))
	chain := &hole{Age: 8}
	for i := 7; i >= 0; i-- {
		chain = &hole{Age: uint32(i), Inner: chain}
	}
	buf := make([]byte, 128)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = Serialize(p, chain, buf, testDepth)
	}
}

func BenchmarkDeserialize_Record(b *testing.B) {
	p := mustCompile(b, profileShape(), reflect.TypeOf(profile{}))
	v := profile{Name: "ccccc", Age: wirebind.Uint128{Lo: 699}, Prob: 0.69, Data: []int32{31, 69}}
	data := mustSerialize(b, p, v, testDepth)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = Deserialize(p, data, nil, testDepth)
	}
}

func BenchmarkDeserialize_Record_Arena(b *testing.B) {
	p := mustCompile(b, profileShape(), reflect.TypeOf(profile{}))
	v := profile{Name: "ccccc", Age: wirebind.Uint128{Lo: 699}, Prob: 0.69, Data: []int32{31, 69}}
	data := mustSerialize(b, p, v, testDepth)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		a := arena.New(1 << 20)
		_, _ = Deserialize(p, data, a, testDepth)
	}
}

func BenchmarkDeserialize_BulkSequence(b *testing.B) {
	p := mustCompile(b, shape.Sequence(shape.Uint(64)), reflect.TypeOf([]uint64{}))
	v := make([]uint64, 1024)
	data := mustSerialize(b, p, v, testDepth)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = Deserialize(p, data, nil, testDepth)
	}
}

func BenchmarkDeserialize_SequencePerElement(b *testing.B) {
	p := mustCompile(b, shape.Sequence(shape.Bool()), reflect.TypeOf([]bool{}))
	v := make([]bool, 1024)
	for i := range v {
		v[i] = i%2 == 0
	}
	data := mustSerialize(b, p, v, testDepth)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = Deserialize(p, data, nil, testDepth)
	}
}

func BenchmarkCompile_Record(b *testing.B) {
	goType := reflect.TypeOf(profile{})

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		// A fresh shape graph and compiler defeat the plan cache, so
		// this measures a cold compile.
		c := NewCompiler()
		_, _ = c.Compile(profileShape(), goType)
	}
}
