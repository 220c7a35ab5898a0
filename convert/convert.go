// Package convert provides Converters for specific types, and the struct converter that
// drives a type's Bindings.
//
// Converters are created once per type through a Source and are immutable afterwards;
// all resumable per-call state lives in the binding.Frame passed to them. Compound
// converters (pointers, slices, maps, structs) are built from element converters
// obtained from the same Source, so recursive types resolve naturally.
package convert

import (
	"fmt"
	"reflect"
	"unsafe"

	"github.com/stewi1014/tokenc/binding"
	"github.com/stewi1014/tokenc/tokio"
)

// StructTag is the struct tag read by the struct converter.
//
//	Name string `tokenc:"name,omitnull"`
//
// The first element renames the field on the wire; "-" excludes it. Options:
//
//	omitnull  drop the field when encoding a null value
//	skipnull  leave the field untouched when decoding a null token
//	getonly   field is encoded but never decoded
//	setonly   field is decoded but never encoded
//	bag       field is the overflow bag for unmatched members; must be map[string]interface{}
//
// Unexported fields are excluded unless tagged or Options.IncludeUnexported is set.
const StructTag = "tokenc"

// Options configures converter construction. It must be identical for the encoding and
// decoding side of a stream.
type Options struct {
	// IncludeUnexported includes unexported struct fields.
	IncludeUnexported bool

	// Null is the default null policy for fields that don't set one in their tag.
	Null binding.NullPolicy
}

// New returns a new Converter for ty, using src for element converters.
// It panics if ty has no token representation.
func New(ty reflect.Type, src Source, opts Options) binding.Converter {
	switch ty.Kind() {
	case reflect.Bool:
		return NewBool(ty)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return NewInt(ty)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return NewUint(ty)
	case reflect.Float32, reflect.Float64:
		return NewFloat(ty)
	case reflect.String:
		return NewString(ty)
	case reflect.Ptr:
		return NewPtr(ty, src)
	case reflect.Slice:
		return NewSlice(ty, src)
	case reflect.Map:
		return NewMap(ty, src)
	case reflect.Struct:
		return NewStruct(ty, src, opts)
	case reflect.Interface:
		if ty.NumMethod() == 0 {
			return NewAny(src)
		}
		panic(tokio.NewError(tokio.ErrBadType, fmt.Sprintf("%v requires type resolution, which tokenc does not do", ty), 0))
	default:
		panic(tokio.NewError(tokio.ErrBadType, fmt.Sprintf("no converter for %v", ty), 0))
	}
}

// elem is a converter with its calling convention resolved once, so compound converters
// don't re-inspect it per call.
type elem struct {
	direct binding.Direct
	staged binding.Staged
}

func makeElem(c binding.Converter) elem {
	switch c := c.(type) {
	case binding.Direct:
		return elem{direct: c}
	case binding.Staged:
		return elem{staged: c}
	default:
		panic(tokio.NewError(tokio.ErrBadType, fmt.Sprintf("converter %T implements neither Direct nor Staged", c), 1))
	}
}

func (e elem) encode(p unsafe.Pointer, f *binding.Frame, w *tokio.Writer) (bool, error) {
	if e.direct != nil {
		if err := e.direct.EncodeToken(p, w); err != nil {
			return false, err
		}
		return true, nil
	}
	return e.staged.Encode(p, f, w)
}

func (e elem) decode(p unsafe.Pointer, f *binding.Frame, r *tokio.Reader) (bool, error) {
	if e.direct != nil {
		tok, ok, err := r.Next()
		if err != nil || !ok {
			return false, err
		}
		if err := e.direct.DecodeToken(p, tok); err != nil {
			return false, err
		}
		return true, nil
	}
	return e.staged.Decode(p, f, r)
}

// checkPtr panics if ptr is nil.
func checkPtr(ptr unsafe.Pointer) {
	if ptr == nil {
		panic(tokio.NewError(tokio.ErrNilPointer, "value pointers must not be nil", 1))
	}
}
