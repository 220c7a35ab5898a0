// Package tokio implements the token stream read and written by bindings and converters,
// as well as error types.
//
// The stream is a flat sequence of self-delimiting binary tokens; see Kind for the wire
// format of each. Reader and Writer are deliberately buffer-bounded: a Reader only ever
// consumes whole tokens, reporting "not yet" when the buffered bytes end mid-token, and a
// Writer reports when it has grown past its soft limit so callers can flush and resume.
// Incremental encoding and decoding is built entirely on those two behaviours.
package tokio

import (
	"errors"
	"fmt"
	"io"
)

// TooBig is a byte count used for sanity checking length prefixes before allocation.
// ErrMalformed is returned if a decoded length exceeds this.
//
// By default it is 32MB on 32bit machines, and 128MB on 64bit machines.
// Feel free to change it.
var TooBig = uint64(1 << (25 + ((^uint(0) >> 32) & 2)))

// Write writes to w from buff, handling short writes from bad io.Writer implementations.
// It returns any error from Write().
func Write(buff []byte, w io.Writer) error {
	n, err := w.Write(buff)
	if n == len(buff) {
		return err
	}

	end := n
	for end < len(buff) && err == nil && n > 0 {
		n, err = w.Write(buff[end:])
		end += n
	}

	if end != len(buff) {
		switch {
		case end > len(buff):
			return NewIOError(
				errors.New("bad io.Writer implementation"),
				fmt.Sprintf("%T reported %v bytes written, but was only given %v bytes", w, end, len(buff)),
			)
		case err == nil:
			return NewIOError(
				io.ErrShortWrite,
				fmt.Sprintf("want %v bytes but only wrote %v bytes", len(buff), end),
			)
		default:
			return NewIOError(
				err,
				fmt.Sprintf("want %v bytes but wrote %v bytes", len(buff), end),
			)
		}
	}
	return nil
}
