package shape

import (
	"encoding/binary"

	"github.com/zeebo/blake3"
)

// Digest is a 32-byte BLAKE3 shape fingerprint. Two shapes carry the
// same digest exactly when their canonical descriptions match, so the
// digest serves as a cross-process shape identity: embedders exchange
// digests to check that both sides agree on a wire contract before
// exchanging encoded values.
type Digest [32]byte

// Fingerprints are domain-separated with a fixed BLAKE3 key. The bytes
// are the ASCII encoding of the domain name, zero-padded to 32 bytes,
// so the key stays readable in hex dumps. Changing it invalidates every
// published digest.
var shapeDomainKey = [32]byte{
	'w', 'i', 'r', 'e', 'b', 'i', 'n', 'd', '.', 's', 'h', 'a', 'p', 'e', '.', 'v',
	'1', 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
}

// Node markers outside the Kind range.
const (
	markerBackref = 0xFF
	markerNil     = 0xFE
)

// Fingerprint computes the keyed BLAKE3 digest of the shape's canonical
// description. The walk is cycle-aware: a node that is its own ancestor
// writes a backreference to that ancestor's depth instead of recursing,
// so recursive shapes digest in finite time. Only structure and names
// participate; how the graph was built (shared nodes versus duplicated
// subtrees) does not.
func Fingerprint(s *Shape) Digest {
	hasher, err := blake3.NewKeyed(shapeDomainKey[:])
	if err != nil {
		// NewKeyed only fails for wrong key length, which the fixed
		// array rules out.
		panic("shape: BLAKE3 keyed hash initialization failed: " + err.Error())
	}
	w := &digestWriter{hasher: hasher, onStack: make(map[*Shape]uint32)}
	w.walk(s, 0)
	var d Digest
	copy(d[:], hasher.Sum(nil))
	return d
}

type digestWriter struct {
	hasher  *blake3.Hasher
	onStack map[*Shape]uint32
	buf     [8]byte
}

func (w *digestWriter) walk(s *Shape, depth uint32) {
	if s == nil {
		w.writeByte(markerNil)
		return
	}
	if d, ok := w.onStack[s]; ok {
		w.writeByte(markerBackref)
		w.writeU32(d)
		return
	}
	w.onStack[s] = depth
	defer delete(w.onStack, s)

	w.writeByte(byte(s.Kind))
	switch s.Kind {
	case KindUint, KindInt, KindFloat:
		w.writeU16(s.Bits)

	case KindBool, KindUnit, KindString, KindDeferred:

	case KindArray:
		w.writeU32(s.Len)
		if s.HasSentinel {
			w.writeByte(1)
			w.writeU64(s.Sentinel)
		} else {
			w.writeByte(0)
		}
		w.walk(s.Elem, depth+1)

	case KindSequence, KindRef, KindOptional:
		w.walk(s.Elem, depth+1)

	case KindRecord:
		w.writeName(s.Name)
		w.writeU32(uint32(len(s.Fields)))
		for _, f := range s.Fields {
			w.writeName(f.Name)
			w.walk(f.Shape, depth+1)
		}

	case KindEnum:
		w.writeName(s.Name)
		w.writeU32(uint32(len(s.Variants)))
		for _, v := range s.Variants {
			w.writeName(v.Name)
			w.writeU64(v.Value)
		}

	case KindUnion:
		w.writeName(s.Name)
		w.writeU32(uint32(len(s.Variants)))
		for _, v := range s.Variants {
			w.writeName(v.Name)
			w.walk(v.Payload, depth+1)
		}
	}
}

func (w *digestWriter) writeByte(b byte) {
	w.buf[0] = b
	w.hasher.Write(w.buf[:1])
}

func (w *digestWriter) writeU16(v uint16) {
	binary.LittleEndian.PutUint16(w.buf[:2], v)
	w.hasher.Write(w.buf[:2])
}

func (w *digestWriter) writeU32(v uint32) {
	binary.LittleEndian.PutUint32(w.buf[:4], v)
	w.hasher.Write(w.buf[:4])
}

func (w *digestWriter) writeU64(v uint64) {
	binary.LittleEndian.PutUint64(w.buf[:8], v)
	w.hasher.Write(w.buf[:8])
}

func (w *digestWriter) writeName(name string) {
	w.writeU32(uint32(len(name)))
	w.hasher.Write([]byte(name))
}
