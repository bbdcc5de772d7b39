package codec

import (
	"encoding/binary"
	"reflect"
	"runtime"
	"strconv"
	"unicode/utf8"
	"unsafe"

	"github.com/x448/float16"

	"github.com/wirebind/wirebind/codec/internal/wire"
	"github.com/wirebind/wirebind/errors"
	"github.com/wirebind/wirebind/shape"
)

// sliceHeader mirrors the runtime slice layout so encoding reads slice
// metadata without reflect allocations.
type sliceHeader struct {
	Data unsafe.Pointer
	Len  int
	Cap  int
}

// Serialize encodes value into buf byte-for-byte deterministically and
// returns the number of bytes written. The value must be the plan's Go
// type, or a pointer to it. Encoding performs no allocations and stops
// at the first failure without rolling back earlier writes: on error
// the buffer prefix is unspecified.
//
// maxDepth is the remaining recursion allowance. Each nesting level
// consumes one unit; a value deeper than the allowance fails with
// ErrMaxDepth. A buffer with insufficient remaining capacity fails with
// ErrBufferTooSmall.
func Serialize(p *Plan, value any, buf []byte, maxDepth uint8) (int, error) {
	if p == nil {
		return 0, errors.New(errors.PhaseEncode, errors.KindNilPointer).
			Detail("plan cannot be nil").
			Build()
	}

	rt := reflect.TypeOf(value)
	if rt == nil {
		return 0, errors.TypeMismatch(errors.PhaseEncode, nil, "nil", p.GoType.String())
	}

	// The interface data word is the value's address for most types,
	// but for pointer-shaped values it is the pointer itself, so those
	// walk from the address of a local copy.
	word := (*[2]unsafe.Pointer)(unsafe.Pointer(&value))[1]
	var ptr unsafe.Pointer
	switch {
	case rt == p.GoType:
		if rt.Kind() == reflect.Pointer {
			ptr = unsafe.Pointer(&word)
		} else {
			ptr = word
		}
	case rt.Kind() == reflect.Pointer && rt.Elem() == p.GoType:
		if word == nil {
			return 0, errors.NilPointer(errors.PhaseEncode, nil, rt.String())
		}
		ptr = word
	default:
		return 0, errors.TypeMismatch(errors.PhaseEncode, nil, rt.String(), p.GoType.String())
	}

	n, err := encodeValue(p, buf, 0, ptr, maxDepth)
	runtime.KeepAlive(value)
	return n, err
}

func encodeValue(p *Plan, buf []byte, off int, ptr unsafe.Pointer, depth uint8) (int, error) {
	if depth == 0 {
		return off, errors.MaxDepth(errors.PhaseEncode, nil)
	}

	switch p.Kind {
	case shape.KindBool:
		if len(buf)-off < 1 {
			return off, errors.BufferTooSmall(nil, 1, len(buf)-off)
		}
		if *(*bool)(ptr) {
			buf[off] = 1
		} else {
			buf[off] = 0
		}
		return off + 1, nil

	case shape.KindUint, shape.KindInt:
		return encodeScalar(p, buf, off, ptr)

	case shape.KindFloat:
		if p.f16conv {
			if len(buf)-off < 2 {
				return off, errors.BufferTooSmall(nil, 2, len(buf)-off)
			}
			binary.LittleEndian.PutUint16(buf[off:], float16.Fromfloat32(*(*float32)(ptr)).Bits())
			return off + 2, nil
		}
		return encodeScalar(p, buf, off, ptr)

	case shape.KindUnit:
		return off, nil

	case shape.KindString:
		return encodeString(buf, off, ptr, depth)

	case shape.KindArray:
		return encodeArray(p, buf, off, ptr, depth)

	case shape.KindSequence:
		return encodeSequence(p, buf, off, ptr, depth)

	case shape.KindRef:
		goPtr := *(*unsafe.Pointer)(ptr)
		if goPtr == nil {
			return off, errors.NilPointer(errors.PhaseEncode, nil, p.GoType.String())
		}
		return encodeValue(p.Elem, buf, off, goPtr, depth-1)

	case shape.KindRecord:
		return encodeRecord(p, buf, off, ptr, depth)

	case shape.KindEnum:
		return encodeEnum(p, buf, off, ptr)

	case shape.KindUnion:
		return encodeUnion(p, buf, off, ptr, depth)

	case shape.KindOptional:
		return encodeOptional(p, buf, off, ptr, depth)

	default:
		return off, errors.Unsupported(errors.PhaseEncode, "shape kind: "+p.Kind.String())
	}
}

func encodeScalar(p *Plan, buf []byte, off int, ptr unsafe.Pointer) (int, error) {
	if len(buf)-off < p.Size {
		return off, errors.BufferTooSmall(nil, p.Size, len(buf)-off)
	}

	switch p.Size {
	case 1:
		buf[off] = *(*byte)(ptr)
	case 2:
		binary.LittleEndian.PutUint16(buf[off:], *(*uint16)(ptr))
	case 4:
		binary.LittleEndian.PutUint32(buf[off:], *(*uint32)(ptr))
	case 8:
		binary.LittleEndian.PutUint64(buf[off:], *(*uint64)(ptr))
	case 16:
		if p.GoType.Kind() == reflect.Struct {
			// Uint128/Int128: Lo then Hi.
			binary.LittleEndian.PutUint64(buf[off:], *(*uint64)(ptr))
			binary.LittleEndian.PutUint64(buf[off+8:], *(*uint64)(unsafe.Add(ptr, 8)))
		} else {
			copy(buf[off:off+16], unsafe.Slice((*byte)(ptr), 16))
		}
	default:
		// Byte-array bindings already hold the wire layout.
		copy(buf[off:off+p.Size], unsafe.Slice((*byte)(ptr), p.Size))
	}
	return off + p.Size, nil
}

func encodeString(buf []byte, off int, ptr unsafe.Pointer, depth uint8) (int, error) {
	s := *(*string)(ptr)
	if !utf8.ValidString(s) {
		return off, errors.InvalidUTF8(errors.PhaseEncode, nil, []byte(s))
	}
	if len(s) > wire.MaxAlloc {
		return off, errors.Overflow(errors.PhaseEncode, nil,
			"string length "+strconv.Itoa(len(s))+" exceeds maximum "+strconv.Itoa(wire.MaxAlloc))
	}

	need := wire.CountSize + len(s)
	if len(buf)-off < need {
		return off, errors.BufferTooSmall(nil, need, len(buf)-off)
	}

	binary.LittleEndian.PutUint32(buf[off:], uint32(len(s)))
	off += wire.CountSize

	if len(s) > 0 {
		// Bytes sit one level below the count.
		if depth == 1 {
			return off, errors.MaxDepth(errors.PhaseEncode, nil)
		}
		off += copy(buf[off:], s)
	}
	return off, nil
}

func encodeArray(p *Plan, buf []byte, off int, ptr unsafe.Pointer, depth uint8) (int, error) {
	elem := p.Elem

	if p.bulk {
		total := p.Len * elem.Size
		if len(buf)-off < total {
			return off, errors.BufferTooSmall(nil, total, len(buf)-off)
		}
		if p.Len > 0 {
			if depth == 1 {
				return off, errors.MaxDepth(errors.PhaseEncode, nil)
			}
			copy(buf[off:off+total], unsafe.Slice((*byte)(ptr), total))
		}
		return off + total, nil
	}

	for i := 0; i < p.Len; i++ {
		elemPtr := unsafe.Add(ptr, uintptr(i)*elem.GoSize)
		next, err := encodeValue(elem, buf, off, elemPtr, depth-1)
		if err != nil {
			return next, errors.PrependPath(err, "["+strconv.Itoa(i)+"]")
		}
		off = next
	}
	return off, nil
}

func encodeSequence(p *Plan, buf []byte, off int, ptr unsafe.Pointer, depth uint8) (int, error) {
	hdr := (*sliceHeader)(ptr)
	length := hdr.Len
	elem := p.Elem

	if length > wire.MaxSequenceCount {
		return off, errors.Overflow(errors.PhaseEncode, nil,
			"sequence length "+strconv.Itoa(length)+" exceeds maximum "+strconv.Itoa(wire.MaxSequenceCount))
	}

	if len(buf)-off < wire.CountSize {
		return off, errors.BufferTooSmall(nil, wire.CountSize, len(buf)-off)
	}
	binary.LittleEndian.PutUint32(buf[off:], uint32(length))
	off += wire.CountSize

	if length == 0 {
		return off, nil
	}
	if depth == 1 {
		return off, errors.MaxDepth(errors.PhaseEncode, nil)
	}

	if p.bulk {
		total := length * elem.Size
		if len(buf)-off < total {
			return off, errors.BufferTooSmall(nil, total, len(buf)-off)
		}
		copy(buf[off:off+total], unsafe.Slice((*byte)(hdr.Data), total))
		return off + total, nil
	}

	for i := 0; i < length; i++ {
		elemPtr := unsafe.Add(hdr.Data, uintptr(i)*elem.GoSize)
		next, err := encodeValue(elem, buf, off, elemPtr, depth-1)
		if err != nil {
			return next, errors.PrependPath(err, "["+strconv.Itoa(i)+"]")
		}
		off = next
	}
	return off, nil
}

func encodeRecord(p *Plan, buf []byte, off int, ptr unsafe.Pointer, depth uint8) (int, error) {
	for i := range p.Fields {
		f := &p.Fields[i]
		fieldPtr := unsafe.Add(ptr, f.GoOffset)
		next, err := encodeValue(f.Type, buf, off, fieldPtr, depth-1)
		if err != nil {
			return next, errors.PrependPath(err, f.Name)
		}
		off = next
	}
	return off, nil
}

func encodeEnum(p *Plan, buf []byte, off int, ptr unsafe.Pointer) (int, error) {
	v := loadEnum(ptr, p.GoSize, p.signed)
	idx, ok := p.encIndex[v]
	if !ok {
		return off, errors.UnknownVariant(errors.PhaseEncode, nil,
			"no variant with underlying value "+strconv.FormatUint(v, 10), v)
	}

	if len(buf)-off < wire.TagSize {
		return off, errors.BufferTooSmall(nil, wire.TagSize, len(buf)-off)
	}
	// The wire carries the declaration-order index, never the
	// underlying value.
	buf[off] = idx
	return off + 1, nil
}

func encodeUnion(p *Plan, buf []byte, off int, ptr unsafe.Pointer, depth uint8) (int, error) {
	for i := range p.Cases {
		c := &p.Cases[i]
		caseField := (*unsafe.Pointer)(unsafe.Add(ptr, c.GoOffset))
		if *caseField == nil {
			continue
		}

		if len(buf)-off < wire.TagSize {
			return off, errors.BufferTooSmall(nil, wire.TagSize, len(buf)-off)
		}
		buf[off] = uint8(i)

		next, err := encodeValue(c.Type, buf, off+1, *caseField, depth-1)
		if err != nil {
			return next, errors.PrependPath(err, c.Name)
		}
		return next, nil
	}
	return off, errors.UnknownVariant(errors.PhaseEncode, nil, "union has no active case", nil)
}

func encodeOptional(p *Plan, buf []byte, off int, ptr unsafe.Pointer, depth uint8) (int, error) {
	// The presence flag is a boolean one level down, so an optional
	// needs two levels of allowance even when absent.
	if depth == 1 {
		return off, errors.MaxDepth(errors.PhaseEncode, nil)
	}
	if len(buf)-off < wire.TagSize {
		return off, errors.BufferTooSmall(nil, wire.TagSize, len(buf)-off)
	}

	goPtr := *(*unsafe.Pointer)(ptr)
	if goPtr == nil {
		buf[off] = 0
		return off + 1, nil
	}
	buf[off] = 1

	target := goPtr
	if p.fused {
		// The ref reads the pointer itself.
		target = ptr
	}
	next, err := encodeValue(p.Elem, buf, off+1, target, depth-1)
	if err != nil {
		return next, errors.PrependPath(err, "[some]")
	}
	return next, nil
}

func loadEnum(ptr unsafe.Pointer, size uintptr, signed bool) uint64 {
	if signed {
		switch size {
		case 1:
			return uint64(int64(*(*int8)(ptr)))
		case 2:
			return uint64(int64(*(*int16)(ptr)))
		case 4:
			return uint64(int64(*(*int32)(ptr)))
		default:
			return uint64(*(*int64)(ptr))
		}
	}
	switch size {
	case 1:
		return uint64(*(*uint8)(ptr))
	case 2:
		return uint64(*(*uint16)(ptr))
	case 4:
		return uint64(*(*uint32)(ptr))
	default:
		return *(*uint64)(ptr)
	}
}
