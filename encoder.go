package tokenc

import (
	"io"
	"reflect"
	"sync"

	"github.com/stewi1014/tokenc/binding"
	"github.com/stewi1014/tokenc/tokio"
)

// flushSize is the soft limit of the encode buffer; encoding suspends and flushes at the
// first token boundary past it.
const flushSize = 512

// NewEncoder returns a new Encoder writing to w with default Options.
func NewEncoder(w io.Writer) *Encoder {
	return NewEncoderOptions(w, Options{})
}

// NewEncoderOptions returns a new Encoder writing to w.
func NewEncoderOptions(w io.Writer, opts Options) *Encoder {
	return &Encoder{
		w:    w,
		buf:  tokio.NewWriter(flushSize),
		opts: opts,
	}
}

// Encoder encodes values to a token stream.
// It is safe for concurrent use.
type Encoder struct {
	mutex sync.Mutex
	w     io.Writer
	buf   *tokio.Writer
	opts  Options
}

// Encode encodes the value v points to.
// v must be a non-nil pointer. The value is encoded through a bounded buffer: when the
// buffer fills mid-value the operation suspends, the buffer is flushed to the underlying
// writer, and encoding resumes from its continuation frame.
func (e *Encoder) Encode(v interface{}) error {
	if v == nil {
		return tokio.NewError(tokio.ErrNilPointer, "cannot encode nil interface", 0)
	}

	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Ptr {
		return tokio.NewError(tokio.ErrBadType, "values must be passed by reference", 0)
	}
	if rv.IsNil() {
		return tokio.NewError(tokio.ErrNilPointer, "cannot encode nil pointer", 0)
	}

	b := bindingFor(rv.Type().Elem(), e.opts)
	ptr := rv.UnsafePointer()

	e.mutex.Lock()
	defer e.mutex.Unlock()

	var f binding.Frame
	for {
		done, err := b.EncodeField(ptr, &f, e.buf)
		if err != nil {
			e.buf.Reset()
			return err
		}
		if werr := tokio.Write(e.buf.Bytes(), e.w); werr != nil {
			e.buf.Reset()
			return werr
		}
		e.buf.Reset()
		if done {
			return nil
		}
	}
}
