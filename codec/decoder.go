package codec

import (
	"encoding/binary"
	"reflect"
	"runtime"
	"strconv"
	"unicode/utf8"
	"unsafe"

	"github.com/x448/float16"

	"github.com/wirebind/wirebind"
	"github.com/wirebind/wirebind/codec/internal/wire"
	"github.com/wirebind/wirebind/errors"
	"github.com/wirebind/wirebind/shape"
)

// Allocator authorizes decode-side allocations. See wirebind.Allocator.
type Allocator = wirebind.Allocator

// Deserialize decodes input into a freshly allocated value of the
// plan's Go type and returns it. The result owns all of its storage:
// nothing in it aliases input. The value must span the whole input;
// trailing bytes fail with ErrRemainingBytes. Use DeserializeStream to
// decode a leading value and resume afterwards.
//
// Every allocation made on behalf of the input, the result itself
// included, is cleared through alloc first; a nil alloc admits
// everything. On error the engine does not release allocations already
// cleared, so callers enforcing budgets should decode inside a scoped
// authority (see the arena package) and release it in one step.
func Deserialize(p *Plan, input []byte, alloc Allocator, maxDepth uint8) (any, error) {
	v, n, err := DeserializeStream(p, input, alloc, maxDepth)
	if err != nil {
		return nil, err
	}
	if n != len(input) {
		return nil, errors.RemainingBytes(n, len(input))
	}
	return v, nil
}

// DeserializeInto decodes input into out, which must be a non-nil
// pointer to the plan's Go type. The whole input must be consumed, as
// with Deserialize. Existing pointers in out are overwritten, never
// freed or reused.
func DeserializeInto(p *Plan, input []byte, out any, alloc Allocator, maxDepth uint8) error {
	if p == nil {
		return errors.New(errors.PhaseDecode, errors.KindNilPointer).
			Detail("plan cannot be nil").
			Build()
	}

	rv := reflect.ValueOf(out)
	if rv.Kind() != reflect.Pointer || rv.Type().Elem() != p.GoType {
		return errors.TypeMismatch(errors.PhaseDecode, nil, wire.TypeName(out), "*"+p.GoType.String())
	}
	if rv.IsNil() {
		return errors.NilPointer(errors.PhaseDecode, nil, rv.Type().String())
	}

	n, err := decodeValue(p, input, 0, unsafe.Pointer(rv.Pointer()), alloc, maxDepth)
	runtime.KeepAlive(out)
	if err != nil {
		return err
	}
	if n != len(input) {
		return errors.RemainingBytes(n, len(input))
	}
	return nil
}

// decodeValue reads the wire bytes for one plan node into the Go memory
// at ptr and returns the next input offset. ptr must address zeroed or
// otherwise valid memory of the plan's Go type.
func decodeValue(p *Plan, input []byte, off int, ptr unsafe.Pointer, alloc Allocator, depth uint8) (int, error) {
	if depth == 0 {
		return off, errors.MaxDepth(errors.PhaseDecode, nil)
	}

	switch p.Kind {
	case shape.KindBool:
		if len(input)-off < 1 {
			return off, errors.InputTooSmall(nil, off, 1, len(input)-off)
		}
		b := input[off]
		if b > 1 {
			return off, errors.InvalidBool(nil, off, b)
		}
		*(*bool)(ptr) = b == 1
		return off + 1, nil

	case shape.KindUint, shape.KindInt:
		return decodeScalar(p, input, off, ptr)

	case shape.KindFloat:
		if p.f16conv {
			if len(input)-off < 2 {
				return off, errors.InputTooSmall(nil, off, 2, len(input)-off)
			}
			*(*float32)(ptr) = float16.Frombits(binary.LittleEndian.Uint16(input[off:])).Float32()
			return off + 2, nil
		}
		return decodeScalar(p, input, off, ptr)

	case shape.KindUnit:
		return off, nil

	case shape.KindString:
		return decodeString(input, off, ptr, alloc, depth)

	case shape.KindArray:
		return decodeArray(p, input, off, ptr, alloc, depth)

	case shape.KindSequence:
		return decodeSequence(p, input, off, ptr, alloc, depth)

	case shape.KindRef:
		if err := clearAlloc(alloc, uint64(p.Elem.GoSize)); err != nil {
			return off, err
		}
		referent := reflect.New(p.Elem.GoType)
		refPtr := unsafe.Pointer(referent.Pointer())
		next, err := decodeValue(p.Elem, input, off, refPtr, alloc, depth-1)
		if err != nil {
			return next, err
		}
		*(*unsafe.Pointer)(ptr) = refPtr
		return next, nil

	case shape.KindRecord:
		return decodeRecord(p, input, off, ptr, alloc, depth)

	case shape.KindEnum:
		return decodeEnum(p, input, off, ptr)

	case shape.KindUnion:
		return decodeUnion(p, input, off, ptr, alloc, depth)

	case shape.KindOptional:
		return decodeOptional(p, input, off, ptr, alloc, depth)

	default:
		return off, errors.Unsupported(errors.PhaseDecode, "shape kind: "+p.Kind.String())
	}
}

func decodeScalar(p *Plan, input []byte, off int, ptr unsafe.Pointer) (int, error) {
	if len(input)-off < p.Size {
		return off, errors.InputTooSmall(nil, off, p.Size, len(input)-off)
	}

	switch p.Size {
	case 1:
		*(*byte)(ptr) = input[off]
	case 2:
		*(*uint16)(ptr) = binary.LittleEndian.Uint16(input[off:])
	case 4:
		*(*uint32)(ptr) = binary.LittleEndian.Uint32(input[off:])
	case 8:
		*(*uint64)(ptr) = binary.LittleEndian.Uint64(input[off:])
	case 16:
		if p.GoType.Kind() == reflect.Struct {
			// Uint128/Int128: Lo then Hi.
			*(*uint64)(ptr) = binary.LittleEndian.Uint64(input[off:])
			*(*uint64)(unsafe.Add(ptr, 8)) = binary.LittleEndian.Uint64(input[off+8:])
		} else {
			copy(unsafe.Slice((*byte)(ptr), 16), input[off:off+16])
		}
	default:
		// Byte-array bindings hold the wire layout directly.
		copy(unsafe.Slice((*byte)(ptr), p.Size), input[off:off+p.Size])
	}
	return off + p.Size, nil
}

func decodeString(input []byte, off int, ptr unsafe.Pointer, alloc Allocator, depth uint8) (int, error) {
	if len(input)-off < wire.CountSize {
		return off, errors.InputTooSmall(nil, off, wire.CountSize, len(input)-off)
	}
	n := int(binary.LittleEndian.Uint32(input[off:]))
	off += wire.CountSize

	if n == 0 {
		*(*string)(ptr) = ""
		return off, nil
	}
	if n > wire.MaxAlloc {
		return off, errors.New(errors.PhaseDecode, errors.KindInvalidInput).
			Detail("string length %d exceeds maximum %d", n, wire.MaxAlloc).
			Build()
	}
	if len(input)-off < n {
		return off, errors.InputTooSmall(nil, off, n, len(input)-off)
	}

	// Bytes sit one level below the count.
	if depth == 1 {
		return off, errors.MaxDepth(errors.PhaseDecode, nil)
	}

	data := input[off : off+n]
	if !utf8.Valid(data) {
		return off, errors.InvalidUTF8(errors.PhaseDecode, nil, data)
	}
	if err := clearAlloc(alloc, uint64(n)); err != nil {
		return off, err
	}
	// The conversion copies, so the result never aliases input.
	*(*string)(ptr) = string(data)
	return off + n, nil
}

func decodeArray(p *Plan, input []byte, off int, ptr unsafe.Pointer, alloc Allocator, depth uint8) (int, error) {
	elem := p.Elem

	if p.bulk {
		total := p.Len * elem.Size
		if len(input)-off < total {
			return off, errors.InputTooSmall(nil, off, total, len(input)-off)
		}
		if p.Len > 0 {
			if depth == 1 {
				return off, errors.MaxDepth(errors.PhaseDecode, nil)
			}
			if p.HasSentinel {
				if i := scanSentinel(input[off:off+total], elem.Size, p.Sentinel); i >= 0 {
					return off, errors.SentinelCollision(nil, i, p.Sentinel)
				}
			}
			copy(unsafe.Slice((*byte)(ptr), total), input[off:off+total])
		}
		return off + total, nil
	}

	for i := 0; i < p.Len; i++ {
		elemPtr := unsafe.Add(ptr, uintptr(i)*elem.GoSize)
		next, err := decodeValue(elem, input, off, elemPtr, alloc, depth-1)
		if err != nil {
			return next, errors.PrependPath(err, "["+strconv.Itoa(i)+"]")
		}
		off = next
	}
	return off, nil
}

// scanSentinel returns the index of the first size-byte element whose
// raw little-endian bits equal the sentinel, or -1. Sentinels validate
// only on fixed-width integer elements, so the element width is the
// wire width.
func scanSentinel(data []byte, size int, sentinel uint64) int {
	for i := 0; i*size < len(data); i++ {
		if wire.LoadUint(data[i*size:], size) == sentinel {
			return i
		}
	}
	return -1
}

func decodeSequence(p *Plan, input []byte, off int, ptr unsafe.Pointer, alloc Allocator, depth uint8) (int, error) {
	if len(input)-off < wire.CountSize {
		return off, errors.InputTooSmall(nil, off, wire.CountSize, len(input)-off)
	}
	count := int(binary.LittleEndian.Uint32(input[off:]))
	off += wire.CountSize
	elem := p.Elem

	if count > wire.MaxSequenceCount {
		return off, errors.New(errors.PhaseDecode, errors.KindInvalidInput).
			Detail("sequence count %d exceeds maximum %d", count, wire.MaxSequenceCount).
			Build()
	}

	// Reject counts the remaining input cannot possibly hold before
	// anything is allocated.
	if minBytes := clampSize(uint64(count), uint64(elem.MinSize)); len(input)-off < minBytes {
		return off, errors.InputTooSmall(nil, off, minBytes, len(input)-off)
	}

	goBytes, ok := wire.SafeMulU64(uint64(count), uint64(elem.GoSize))
	if !ok || goBytes > wire.MaxAlloc {
		return off, errors.New(errors.PhaseDecode, errors.KindInvalidInput).
			Detail("sequence of %d elements exceeds allocation maximum %d", count, wire.MaxAlloc).
			Build()
	}
	if err := clearAlloc(alloc, goBytes); err != nil {
		return off, err
	}

	slice := reflect.MakeSlice(p.GoType, count, count)
	if count == 0 {
		reflect.NewAt(p.GoType, ptr).Elem().Set(slice)
		return off, nil
	}
	if depth == 1 {
		return off, errors.MaxDepth(errors.PhaseDecode, nil)
	}

	base := unsafe.Pointer(slice.Index(0).UnsafeAddr())
	if p.bulk {
		total := count * elem.Size
		if len(input)-off < total {
			return off, errors.InputTooSmall(nil, off, total, len(input)-off)
		}
		copy(unsafe.Slice((*byte)(base), total), input[off:off+total])
		off += total
	} else {
		for i := 0; i < count; i++ {
			elemPtr := unsafe.Add(base, uintptr(i)*elem.GoSize)
			next, err := decodeValue(elem, input, off, elemPtr, alloc, depth-1)
			if err != nil {
				return next, errors.PrependPath(err, "["+strconv.Itoa(i)+"]")
			}
			off = next
		}
	}

	reflect.NewAt(p.GoType, ptr).Elem().Set(slice)
	return off, nil
}

func decodeRecord(p *Plan, input []byte, off int, ptr unsafe.Pointer, alloc Allocator, depth uint8) (int, error) {
	for i := range p.Fields {
		f := &p.Fields[i]
		fieldPtr := unsafe.Add(ptr, f.GoOffset)
		next, err := decodeValue(f.Type, input, off, fieldPtr, alloc, depth-1)
		if err != nil {
			return next, errors.PrependPath(err, f.Name)
		}
		off = next
	}
	return off, nil
}

func decodeEnum(p *Plan, input []byte, off int, ptr unsafe.Pointer) (int, error) {
	if len(input)-off < wire.TagSize {
		return off, errors.InputTooSmall(nil, off, wire.TagSize, len(input)-off)
	}
	idx := input[off]
	if int(idx) >= len(p.decValue) {
		return off, errors.InvalidDiscriminant(nil, off, uint32(idx), uint32(len(p.decValue)))
	}
	// The wire index maps back to the declared underlying value.
	storeEnum(ptr, p.GoSize, p.decValue[idx])
	return off + 1, nil
}

func decodeUnion(p *Plan, input []byte, off int, ptr unsafe.Pointer, alloc Allocator, depth uint8) (int, error) {
	if len(input)-off < wire.TagSize {
		return off, errors.InputTooSmall(nil, off, wire.TagSize, len(input)-off)
	}
	idx := input[off]
	if int(idx) >= len(p.Cases) {
		return off, errors.InvalidDiscriminant(nil, off, uint32(idx), uint32(len(p.Cases)))
	}
	off++

	// Deactivate every case first so decoding into reused memory never
	// leaves two cases set.
	for i := range p.Cases {
		*(*unsafe.Pointer)(unsafe.Add(ptr, p.Cases[i].GoOffset)) = nil
	}

	c := &p.Cases[idx]
	if err := clearAlloc(alloc, uint64(c.Type.GoSize)); err != nil {
		return off, err
	}
	payload := reflect.New(c.Type.GoType)
	payloadPtr := unsafe.Pointer(payload.Pointer())
	next, err := decodeValue(c.Type, input, off, payloadPtr, alloc, depth-1)
	if err != nil {
		return next, errors.PrependPath(err, c.Name)
	}
	*(*unsafe.Pointer)(unsafe.Add(ptr, c.GoOffset)) = payloadPtr
	return next, nil
}

func decodeOptional(p *Plan, input []byte, off int, ptr unsafe.Pointer, alloc Allocator, depth uint8) (int, error) {
	// The presence flag is a boolean one level down, so an optional
	// needs two levels of allowance even when absent.
	if depth == 1 {
		return off, errors.MaxDepth(errors.PhaseDecode, nil)
	}
	if len(input)-off < wire.TagSize {
		return off, errors.InputTooSmall(nil, off, wire.TagSize, len(input)-off)
	}
	flag := input[off]
	if flag > 1 {
		return off, errors.InvalidBool(nil, off, flag)
	}
	off++

	if flag == 0 {
		*(*unsafe.Pointer)(ptr) = nil
		return off, nil
	}

	if p.fused {
		// The ref allocates the referent and owns the pointer slot.
		next, err := decodeValue(p.Elem, input, off, ptr, alloc, depth-1)
		if err != nil {
			return next, errors.PrependPath(err, "[some]")
		}
		return next, nil
	}

	if err := clearAlloc(alloc, uint64(p.Elem.GoSize)); err != nil {
		return off, err
	}
	payload := reflect.New(p.Elem.GoType)
	payloadPtr := unsafe.Pointer(payload.Pointer())
	next, err := decodeValue(p.Elem, input, off, payloadPtr, alloc, depth-1)
	if err != nil {
		return next, errors.PrependPath(err, "[some]")
	}
	*(*unsafe.Pointer)(ptr) = payloadPtr
	return next, nil
}

func storeEnum(ptr unsafe.Pointer, size uintptr, v uint64) {
	switch size {
	case 1:
		*(*uint8)(ptr) = uint8(v)
	case 2:
		*(*uint16)(ptr) = uint16(v)
	case 4:
		*(*uint32)(ptr) = uint32(v)
	default:
		*(*uint64)(ptr) = v
	}
}

// clearAlloc asks the allocation authority to admit size bytes. A nil
// authority admits everything.
func clearAlloc(alloc Allocator, size uint64) error {
	if alloc == nil {
		return nil
	}
	if err := alloc.Alloc(size); err != nil {
		return errors.OutOfMemory(nil, size, err)
	}
	return nil
}
