package tokio

import (
	"encoding/binary"
	"fmt"
	"math"
)

// Reader decodes tokens from an incrementally fed buffer.
//
// Next and Peek only ever consume whole tokens; when the buffered bytes end mid-token
// they report ok == false and consume nothing, so the caller can Feed more input and
// retry. This is what makes decode progress independent of where the input happens to be
// split: a token is parsed identically whether it arrived in one Feed or ten.
type Reader struct {
	buf []byte
	off int
}

// Feed appends input to the Reader.
// It invalidates Str slices of previously returned tokens.
func (r *Reader) Feed(p []byte) {
	if r.off == len(r.buf) {
		r.buf = r.buf[:0]
		r.off = 0
	} else if r.off > 0 && len(r.buf)+len(p) > cap(r.buf) {
		// slide down before growing
		n := copy(r.buf, r.buf[r.off:])
		r.buf = r.buf[:n]
		r.off = 0
	}
	r.buf = append(r.buf, p...)
}

// Len returns the number of unconsumed bytes.
func (r *Reader) Len() int { return len(r.buf) - r.off }

// Peek classifies the next token without consuming anything.
// ok is false if the buffer is empty.
func (r *Reader) Peek() (Kind, bool, error) {
	if r.off >= len(r.buf) {
		return 0, false, nil
	}
	k := Kind(r.buf[r.off])
	if k >= kindMax {
		return 0, false, NewIOError(ErrMalformed, fmt.Sprintf("invalid token kind 0x%02x", r.buf[r.off]))
	}
	return k, true, nil
}

// Next consumes and returns the next token.
// ok is false if the buffered bytes end mid-token; nothing is consumed in that case.
func (r *Reader) Next() (tok Token, ok bool, err error) {
	k, ok, err := r.Peek()
	if !ok || err != nil {
		return Token{}, ok, err
	}

	tok.Kind = k
	rest := r.buf[r.off+1:]

	switch k {
	case Null, False, True, ObjOpen, ObjClose, ArrOpen, ArrClose:
		r.off++
		return tok, true, nil

	case Int:
		u, n := binary.Uvarint(rest)
		if n <= 0 {
			return Token{}, false, r.varintErr(n)
		}
		tok.Int = unzigzag(u)
		r.off += 1 + n
		return tok, true, nil

	case Uint:
		u, n := binary.Uvarint(rest)
		if n <= 0 {
			return Token{}, false, r.varintErr(n)
		}
		tok.Uint = u
		r.off += 1 + n
		return tok, true, nil

	case Float:
		if len(rest) < 8 {
			return Token{}, false, nil
		}
		tok.Float = math.Float64frombits(binary.LittleEndian.Uint64(rest))
		r.off += 1 + 8
		return tok, true, nil

	case String, Name:
		l, n := binary.Uvarint(rest)
		if n <= 0 {
			return Token{}, false, r.varintErr(n)
		}
		if l > TooBig {
			return Token{}, false, NewIOError(ErrMalformed, fmt.Sprintf("%v byte %v is too big", l, k))
		}
		if uint64(len(rest)-n) < l {
			return Token{}, false, nil
		}
		tok.Str = rest[n : uint64(n)+l]
		r.off += 1 + n + int(l)
		return tok, true, nil
	}

	return Token{}, false, NewIOError(ErrMalformed, fmt.Sprintf("invalid token kind 0x%02x", byte(k)))
}

// varintErr distinguishes a varint that is merely incomplete from one that overflows.
func (r *Reader) varintErr(n int) error {
	if n == 0 {
		return nil
	}
	return NewIOError(ErrMalformed, "varint overflows 64 bits")
}
