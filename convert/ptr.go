package convert

import (
	"fmt"
	"reflect"
	"unsafe"

	"github.com/stewi1014/tokenc/binding"
	"github.com/stewi1014/tokenc/tokio"
)

// NewPtr returns a new pointer Converter.
func NewPtr(ty reflect.Type, src Source) *Ptr {
	if ty.Kind() != reflect.Ptr {
		panic(tokio.NewError(tokio.ErrBadType, fmt.Sprintf("%v is not a pointer", ty), 0))
	}
	return &Ptr{
		ty:   ty,
		et:   ty.Elem(),
		elem: makeElem(src.NewConverter(ty.Elem())),
	}
}

// Ptr is a Converter for pointers. It gives the null token meaning itself: nil encodes
// as null, and null decodes as nil, without the binding layer's involvement.
//
// Pointer reference structure is not retained; two pointers to the same value decode as
// two values.
type Ptr struct {
	ty   reflect.Type
	et   reflect.Type
	elem elem
}

// Type implements Converter.
func (c *Ptr) Type() reflect.Type { return c.ty }

// HandlesNull implements Converter.
func (c *Ptr) HandlesNull() bool { return true }

// Encode implements Staged.
func (c *Ptr) Encode(ptr unsafe.Pointer, f *binding.Frame, w *tokio.Writer) (bool, error) {
	checkPtr(ptr)
	v := *(*unsafe.Pointer)(ptr)
	if v == nil {
		w.Null()
		return true, nil
	}
	return c.elem.encode(v, f.Child(), w)
}

// Decode implements Staged.
// The pointee is decoded into a fresh allocation; the pointer is only stored once the
// value is complete, so a suspended decode never exposes a half-built pointee.
func (c *Ptr) Decode(ptr unsafe.Pointer, f *binding.Frame, r *tokio.Reader) (bool, error) {
	checkPtr(ptr)
	if f.Step == 0 {
		k, ok, err := r.Peek()
		if err != nil || !ok {
			return false, err
		}
		if k == tokio.Null {
			r.Next()
			*(*unsafe.Pointer)(ptr) = nil
			return true, nil
		}
		f.Tmp = reflect.New(c.et)
		f.Step = 1
	}

	done, err := c.elem.decode(f.Tmp.UnsafePointer(), f.Child(), r)
	if err != nil || !done {
		return done, err
	}
	*(*unsafe.Pointer)(ptr) = f.Tmp.UnsafePointer()
	return true, nil
}
