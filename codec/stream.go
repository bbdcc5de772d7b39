package codec

import (
	"reflect"
	"unsafe"

	"github.com/wirebind/wirebind/errors"
)

// DeserializeStream decodes one value from the front of input and
// returns it together with the number of bytes consumed. Unlike
// Deserialize it does not require the value to span the whole input:
// callers parse a stream of concatenated values by re-slicing at the
// returned offset and decoding again.
//
// On failure the consumed count is the offset reached before the error
// and carries no meaning beyond diagnostics; the input is not
// positioned for retry.
func DeserializeStream(p *Plan, input []byte, alloc Allocator, maxDepth uint8) (any, int, error) {
	if p == nil {
		return nil, 0, errors.New(errors.PhaseDecode, errors.KindNilPointer).
			Detail("plan cannot be nil").
			Build()
	}

	if err := clearAlloc(alloc, uint64(p.GoSize)); err != nil {
		return nil, 0, err
	}
	result := reflect.New(p.GoType)
	n, err := decodeValue(p, input, 0, unsafe.Pointer(result.Pointer()), alloc, maxDepth)
	if err != nil {
		return nil, n, err
	}
	return result.Elem().Interface(), n, nil
}
