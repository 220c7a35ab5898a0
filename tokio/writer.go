package tokio

import (
	"encoding/binary"
	"math"
)

// NewWriter returns a Writer with the given soft limit.
// A limit of 0 means the Writer never reports Full.
func NewWriter(limit int) *Writer {
	return &Writer{limit: limit}
}

// Writer appends tokens to an in-memory buffer.
//
// Token writes never fail; the buffer grows as needed. Instead the Writer carries a soft
// limit: once the buffered bytes reach it, Full returns true and staged converters are
// expected to suspend at the next token boundary so the caller can flush. A single token
// may therefore overshoot the limit, but never by more than one token's encoding.
//
// Writer tracks the nesting depth of structural tokens; bindings use Depth to detect
// converters that corrupt structural balance.
type Writer struct {
	buf   []byte
	limit int
	depth int
}

// Bytes returns the buffered encoding. It is valid until the next write.
func (w *Writer) Bytes() []byte { return w.buf }

// Len returns the number of buffered bytes.
func (w *Writer) Len() int { return len(w.buf) }

// Full reports whether the buffer has reached the soft limit.
func (w *Writer) Full() bool { return w.limit > 0 && len(w.buf) >= w.limit }

// Depth returns the current structural nesting depth.
func (w *Writer) Depth() int { return w.depth }

// Reset discards the buffered bytes, retaining structural depth.
func (w *Writer) Reset() { w.buf = w.buf[:0] }

// Null writes the null token.
func (w *Writer) Null() { w.buf = append(w.buf, byte(Null)) }

// Bool writes a boolean token.
func (w *Writer) Bool(b bool) {
	if b {
		w.buf = append(w.buf, byte(True))
		return
	}
	w.buf = append(w.buf, byte(False))
}

// Int writes a signed integer token.
func (w *Writer) Int(i int64) {
	w.buf = append(w.buf, byte(Int))
	w.buf = binary.AppendUvarint(w.buf, zigzag(i))
}

// Uint writes an unsigned integer token.
func (w *Writer) Uint(u uint64) {
	w.buf = append(w.buf, byte(Uint))
	w.buf = binary.AppendUvarint(w.buf, u)
}

// Float writes a float token.
func (w *Writer) Float(f float64) {
	w.buf = append(w.buf, byte(Float))
	w.buf = binary.LittleEndian.AppendUint64(w.buf, math.Float64bits(f))
}

// String writes a string token.
func (w *Writer) String(s string) {
	w.buf = append(w.buf, byte(String))
	w.buf = binary.AppendUvarint(w.buf, uint64(len(s)))
	w.buf = append(w.buf, s...)
}

// Name writes a pre-escaped member name, as produced by AppendName.
func (w *Writer) Name(escaped []byte) { w.buf = append(w.buf, escaped...) }

// NameString escapes and writes a member name. Bindings pre-escape their name once with
// AppendName and use Name; NameString exists for names only known at encode time.
func (w *Writer) NameString(s string) { w.buf = AppendName(w.buf, s) }

// OpenObject writes the object open token.
func (w *Writer) OpenObject() {
	w.buf = append(w.buf, byte(ObjOpen))
	w.depth++
}

// CloseObject writes the object close token.
// It panics if no object or array is open; that is a bug in the calling converter.
func (w *Writer) CloseObject() {
	w.close(ObjClose)
}

// OpenArray writes the array open token.
func (w *Writer) OpenArray() {
	w.buf = append(w.buf, byte(ArrOpen))
	w.depth++
}

// CloseArray writes the array close token.
// It panics if no object or array is open; that is a bug in the calling converter.
func (w *Writer) CloseArray() {
	w.close(ArrClose)
}

func (w *Writer) close(k Kind) {
	if w.depth == 0 {
		panic(NewError(ErrUnbalanced, "close token written at depth 0", 1))
	}
	w.buf = append(w.buf, byte(k))
	w.depth--
}

// AppendName appends the wire encoding of a member name to dst, returning the extended
// buffer. Bindings call it once at construction time so per-call name emission is a
// single copy.
func AppendName(dst []byte, name string) []byte {
	dst = append(dst, byte(Name))
	dst = binary.AppendUvarint(dst, uint64(len(name)))
	return append(dst, name...)
}

// zigzag maps signed integers to unsigned so small magnitudes encode small.
func zigzag(i int64) uint64 {
	return uint64(i<<1) ^ uint64(i>>63)
}

// unzigzag is the inverse of zigzag.
func unzigzag(u uint64) int64 {
	return int64(u>>1) ^ -int64(u&1)
}
