package codec

import (
	"bytes"
	"encoding/binary"
	stderrors "errors"
	"math"
	"reflect"
	"strconv"
	"testing"

	"github.com/wirebind/wirebind/codec/internal/wire"
	"github.com/wirebind/wirebind/errors"
	"github.com/wirebind/wirebind/shape"
)

// TestDeepOptionalChain builds a shape nested beyond the largest
// possible allowance and checks both directions refuse it, decode
// without reading past the nesting and encode without overflowing the
// goroutine stack.
func TestDeepOptionalChain(t *testing.T) {
	const levels = 300 // deeper than any uint8 allowance

	s := shape.Uint(32)
	goType := reflect.TypeOf(uint32(0))
	for i := 0; i < levels; i++ {
		s = shape.Optional(s)
		goType = reflect.PointerTo(goType)
	}
	p := mustCompile(t, s, goType)

	input := append(bytes.Repeat([]byte{0x01}, levels), 0x07, 0x00, 0x00, 0x00)
	if _, err := Deserialize(p, input, nil, math.MaxUint8); !stderrors.Is(err, errors.ErrMaxDepth) {
		t.Errorf("Deserialize: err = %v, want ErrMaxDepth", err)
	}

	value := reflect.ValueOf(uint32(7))
	for i := 0; i < levels; i++ {
		next := reflect.New(value.Type())
		next.Elem().Set(value)
		value = next
	}
	if _, err := Serialize(p, value.Interface(), make([]byte, len(input)), math.MaxUint8); !stderrors.Is(err, errors.ErrMaxDepth) {
		t.Errorf("Serialize: err = %v, want ErrMaxDepth", err)
	}
}

// TestDeepRecursiveChain drives a recursive record past the allowance
// with a single compiled plan.
func TestDeepRecursiveChain(t *testing.T) {
	const links = 100 // needs 3 levels per link plus 3 for the leaf

	p := mustCompile(t, holeShape(), reflect.TypeOf(hole{}))

	var input []byte
	link := make([]byte, 8)
	for i := 0; i <= links; i++ {
		binary.LittleEndian.PutUint32(link, uint32(i))
		input = append(input, link...)
		if i < links {
			input = append(input, 0x01)
		} else {
			input = append(input, 0x00)
		}
	}
	if _, err := Deserialize(p, input, nil, math.MaxUint8); !stderrors.Is(err, errors.ErrMaxDepth) {
		t.Errorf("Deserialize: err = %v, want ErrMaxDepth", err)
	}

	chain := &hole{Age: links}
	for i := links - 1; i >= 0; i-- {
		chain = &hole{Age: uint32(i), Inner: chain}
	}
	if _, err := Serialize(p, chain, make([]byte, len(input)), math.MaxUint8); !stderrors.Is(err, errors.ErrMaxDepth) {
		t.Errorf("Serialize: err = %v, want ErrMaxDepth", err)
	}

	// The same plan still handles a chain within the allowance.
	short := &hole{Age: 1, Inner: &hole{Age: 2}}
	data := mustSerialize(t, p, short, math.MaxUint8)
	got, err := Deserialize(p, data, nil, math.MaxUint8)
	if err != nil {
		t.Fatalf("Deserialize short chain: %v", err)
	}
	if !reflect.DeepEqual(got, *short) {
		t.Errorf("short chain mismatch: %#v", got)
	}
}

// TestSequenceCountBomb claims the largest admissible count against a
// tiny input: the size precheck must reject it before any allocation.
func TestSequenceCountBomb(t *testing.T) {
	p := mustCompile(t, shape.Sequence(shape.Uint(64)), reflect.TypeOf([]uint64{}))

	input := make([]byte, 4+16)
	binary.LittleEndian.PutUint32(input, uint32(wire.MaxSequenceCount))

	rec := &recordingAllocator{}
	if _, err := Deserialize(p, input, rec, testDepth); !stderrors.Is(err, errors.ErrInputTooSmall) {
		t.Fatalf("err = %v, want ErrInputTooSmall", err)
	}
	if len(rec.sizes) != 1 {
		t.Errorf("allocator saw %d requests (%v), want only the root", len(rec.sizes), rec.sizes)
	}
}

// wideUnion carries sixteen empty cases, so its Go size is many times
// its one-byte minimum encoding. Sequences of it can pass the input
// size precheck while overflowing the allocation cap.
type wideUnion struct {
	C0, C1, C2, C3, C4, C5, C6, C7, C8, C9, C10, C11, C12, C13, C14, C15 *struct{}
}

func wideUnionShape() *shape.Shape {
	cases := make([]shape.Variant, 16)
	for i := range cases {
		cases[i] = shape.PayloadCase("c"+strconv.Itoa(i), shape.Unit())
	}
	return shape.Union("wide", cases...)
}

func TestSequenceAllocationCap(t *testing.T) {
	elemSize := reflect.TypeOf(wideUnion{}).Size()
	count := uint64(wire.MaxAlloc)/uint64(elemSize) + 1
	if count > wire.MaxSequenceCount {
		t.Fatalf("count %d over the sequence cap; element size %d too small for this check", count, elemSize)
	}

	// One byte per element satisfies the minimum size precheck.
	input := make([]byte, 4+int(count))
	binary.LittleEndian.PutUint32(input, uint32(count))

	p := mustCompile(t, shape.Sequence(wideUnionShape()), reflect.TypeOf([]wideUnion{}))
	rec := &recordingAllocator{}
	if _, err := Deserialize(p, input, rec, testDepth); !stderrors.Is(err, errors.ErrInvalidInput) {
		t.Fatalf("err = %v, want ErrInvalidInput", err)
	}
	if len(rec.sizes) != 1 {
		t.Errorf("allocator saw %d requests (%v), want only the root", len(rec.sizes), rec.sizes)
	}
}

func TestStringLengthCap(t *testing.T) {
	p := mustCompile(t, shape.String(), reflect.TypeOf(""))

	// Claimed length one past the allocation cap.
	input := []byte{0x01, 0x00, 0x00, 0x40}
	if _, err := Deserialize(p, input, nil, testDepth); !stderrors.Is(err, errors.ErrInvalidInput) {
		t.Errorf("err = %v, want ErrInvalidInput", err)
	}
}
