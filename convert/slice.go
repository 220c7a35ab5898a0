package convert

import (
	"fmt"
	"reflect"
	"unsafe"

	"github.com/stewi1014/tokenc/binding"
	"github.com/stewi1014/tokenc/tokio"
)

// NewSlice returns a new slice Converter.
func NewSlice(ty reflect.Type, src Source) *Slice {
	if ty.Kind() != reflect.Slice {
		panic(tokio.NewError(tokio.ErrBadType, fmt.Sprintf("%v is not a slice", ty), 0))
	}
	return &Slice{
		ty:   ty,
		et:   ty.Elem(),
		elem: makeElem(src.NewConverter(ty.Elem())),
	}
}

// Slice is a Converter for slices. nil slices travel as the null token; empty slices as
// an empty array, so nil-ness round-trips.
type Slice struct {
	ty   reflect.Type
	et   reflect.Type
	elem elem
}

// phases for Frame.Step
const (
	sliceFresh    = 0 // nothing emitted or consumed
	sliceBetween  = 1 // open token done, between elements
	sliceInFlight = 2 // element started; don't re-check Full, don't re-append
)

// Type implements Converter.
func (c *Slice) Type() reflect.Type { return c.ty }

// HandlesNull implements Converter.
func (c *Slice) HandlesNull() bool { return true }

// Encode implements Staged.
func (c *Slice) Encode(ptr unsafe.Pointer, f *binding.Frame, w *tokio.Writer) (bool, error) {
	checkPtr(ptr)
	sl := reflect.NewAt(c.ty, ptr).Elem()

	if f.Step == sliceFresh {
		if sl.IsNil() {
			w.Null()
			return true, nil
		}
		w.OpenArray()
		f.Step = sliceBetween
	}

	for f.Index < sl.Len() {
		if f.Step == sliceBetween {
			if w.Full() {
				return false, nil
			}
			f.Step = sliceInFlight
		}

		done, err := c.elem.encode(unsafe.Pointer(sl.Index(f.Index).UnsafeAddr()), f.Child(), w)
		if err != nil || !done {
			return done, err
		}
		f.Child().Reset()
		f.Step = sliceBetween
		f.Index++
	}

	w.CloseArray()
	return true, nil
}

// Decode implements Staged.
// The slice is built in scratch and only assigned once complete.
func (c *Slice) Decode(ptr unsafe.Pointer, f *binding.Frame, r *tokio.Reader) (bool, error) {
	checkPtr(ptr)

	if f.Step == sliceFresh {
		k, ok, err := r.Peek()
		if err != nil || !ok {
			return false, err
		}
		switch k {
		case tokio.Null:
			r.Next()
			reflect.NewAt(c.ty, ptr).Elem().Set(reflect.Zero(c.ty))
			return true, nil
		case tokio.ArrOpen:
			r.Next()
			f.Tmp = reflect.MakeSlice(c.ty, 0, 0)
			f.Step = sliceBetween
		default:
			return false, tokio.NewError(tokio.ErrMalformed, fmt.Sprintf("expected array for %v, got %v", c.ty, k), 0)
		}
	}

	for {
		if f.Step == sliceBetween {
			k, ok, err := r.Peek()
			if err != nil || !ok {
				return false, err
			}
			if k == tokio.ArrClose {
				r.Next()
				reflect.NewAt(c.ty, ptr).Elem().Set(f.Tmp)
				return true, nil
			}
			// Append the element's zero value and decode in place; slice elements are
			// addressable, so no separate scratch is needed.
			f.Tmp = reflect.Append(f.Tmp, reflect.Zero(c.et))
			f.Step = sliceInFlight
		}

		dst := unsafe.Pointer(f.Tmp.Index(f.Tmp.Len() - 1).UnsafeAddr())
		done, err := c.elem.decode(dst, f.Child(), r)
		if err != nil || !done {
			return done, err
		}
		f.Child().Reset()
		f.Step = sliceBetween
	}
}
