package tokenc

import (
	"errors"
	"fmt"
	"io"
	"reflect"
	"sync"

	"github.com/stewi1014/tokenc/binding"
	"github.com/stewi1014/tokenc/tokio"
)

// readSize is the chunk size fed to the token reader per read.
const readSize = 512

// NewDecoder returns a new Decoder reading from r with default Options.
func NewDecoder(r io.Reader) *Decoder {
	return NewDecoderOptions(r, Options{})
}

// NewDecoderOptions returns a new Decoder reading from r.
func NewDecoderOptions(r io.Reader, opts Options) *Decoder {
	return &Decoder{
		r:     r,
		in:    new(tokio.Reader),
		chunk: make([]byte, readSize),
		opts:  opts,
	}
}

// Decoder decodes values from a token stream.
// It is safe for concurrent use.
type Decoder struct {
	mutex sync.Mutex
	r     io.Reader
	in    *tokio.Reader
	chunk []byte
	opts  Options
}

// Decode decodes one value from the stream into the value v points to.
// v must be a non-nil pointer. Input is read in chunks: whenever the buffered tokens run
// out mid-value the operation suspends, more input is read, and decoding resumes from
// its continuation frame. A stream that ends mid-value is an IOError wrapping
// io.ErrUnexpectedEOF.
func (d *Decoder) Decode(v interface{}) error {
	if v == nil {
		return tokio.NewError(tokio.ErrNilPointer, "cannot decode into nil interface", 0)
	}

	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Ptr {
		return tokio.NewError(tokio.ErrBadType, fmt.Sprintf("decoded values must be passed by reference (pointer), got %v", rv.Type()), 0)
	}
	if rv.IsNil() {
		return tokio.NewError(tokio.ErrNilPointer, "cannot decode into nil pointer", 0)
	}

	b := bindingFor(rv.Type().Elem(), d.opts)
	ptr := rv.UnsafePointer()

	d.mutex.Lock()
	defer d.mutex.Unlock()

	var f binding.Frame
	for {
		done, err := b.DecodeField(ptr, &f, d.in)
		if err != nil {
			return err
		}
		if done {
			return nil
		}

		n, err := d.r.Read(d.chunk)
		if n > 0 {
			d.in.Feed(d.chunk[:n])
			continue
		}
		switch {
		case err == nil:
			return tokio.NewIOError(io.ErrNoProgress, fmt.Sprintf("%T returned no data and no error", d.r))
		case errors.Is(err, io.EOF):
			return tokio.NewIOError(io.ErrUnexpectedEOF, "stream ended mid-value")
		default:
			return tokio.NewIOError(err, "")
		}
	}
}
