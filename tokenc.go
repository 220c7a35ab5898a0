// Package tokenc encodes Go values as a stream of self-delimiting binary tokens, built
// for incremental processing: both encoding and decoding can suspend mid-value when a
// buffer runs out and resume exactly where they left off once more capacity arrives.
//
// The heavy lifting happens once per type, not per value. At first use a type's fields
// are bound to converters (see tokenc/binding and tokenc/convert); the resulting
// bindings are immutable, hold no per-call state, and are shared by every subsequent
// operation on that type. Per-call state lives in continuation frames owned by the
// Encoder or Decoder driving the operation.
//
// Values are always passed by reference:
//
//	e := tokenc.NewEncoder(w)
//	err := e.Encode(&point)
//
// Struct fields are configured with the `tokenc` struct tag; see convert.StructTag.
//
// tokenc/tokio exposes the token reader and writer for custom drivers, as well as
// compressed block framing for wrapping the stream:
//
//	e := tokenc.NewEncoder(tokio.NewBlockWriter(w))
package tokenc

import (
	"bytes"
	"reflect"
	"sync"

	"github.com/stewi1014/tokenc/binding"
	"github.com/stewi1014/tokenc/convert"
)

// Options configures how types are bound to converters.
// It must be identical for the encoding and decoding side of a stream.
type Options = convert.Options

var (
	bindingsMu sync.Mutex
	bindings   = make(map[bindingID]*binding.Binding)
)

// bindingID is a comparable key for a whole-value binding of a particular type and
// configuration.
type bindingID struct {
	ty   reflect.Type
	opts Options
}

// bindingFor returns the process-wide whole-value Binding for ty, constructing it and
// its converter tree on first use. Construction panics if ty has no token
// representation; the returned binding is immutable and shared.
func bindingFor(ty reflect.Type, opts Options) *binding.Binding {
	bindingsMu.Lock()
	defer bindingsMu.Unlock()

	id := bindingID{ty: ty, opts: opts}
	if b, ok := bindings[id]; ok {
		return b
	}

	b := binding.NewWholeValue(convert.NewCachingSource(opts).NewConverter(ty))
	bindings[id] = b
	return b
}

// Marshal encodes v, which must be a non-nil pointer, into a byte slice.
func Marshal(v interface{}) ([]byte, error) {
	var buf bytes.Buffer
	if err := NewEncoder(&buf).Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Unmarshal decodes data into v, which must be a non-nil pointer.
func Unmarshal(data []byte, v interface{}) error {
	return NewDecoder(bytes.NewReader(data)).Decode(v)
}
