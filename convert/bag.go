package convert

import (
	"reflect"
	"unsafe"

	"github.com/stewi1014/tokenc/binding"
	"github.com/stewi1014/tokenc/tokio"
)

// NewBag returns the Converter for an overflow bag field: a string-keyed map that
// collects members unmatched by any other binding.
func NewBag(ty reflect.Type, src Source) *Bag {
	return &Bag{m: NewMap(ty, src)}
}

// Bag encodes and decodes overflow bag contents. Unlike Map it writes no delimiters and
// no name of its own; its entries land directly in the enclosing object, and it decodes
// one member at a time, the pending member's name supplied on the frame by the struct
// converter.
type Bag struct {
	m *Map
}

// Type implements Converter.
func (c *Bag) Type() reflect.Type { return c.m.ty }

// HandlesNull implements Converter.
func (c *Bag) HandlesNull() bool { return true }

// Encode implements Staged.
func (c *Bag) Encode(ptr unsafe.Pointer, f *binding.Frame, w *tokio.Writer) (bool, error) {
	checkPtr(ptr)
	m := reflect.NewAt(c.m.ty, ptr).Elem()

	if f.Step == mapFresh {
		if m.IsNil() {
			return true, nil
		}
		f.Tmp = reflect.ValueOf(&mapState{keys: sortedKeys(m), m: m})
		f.Step = mapBetween
	}
	return c.m.encodeEntries(f, w)
}

// Decode implements Staged.
// It decodes a single member value and stores it under the name in f.Name, allocating
// the bag on first use.
func (c *Bag) Decode(ptr unsafe.Pointer, f *binding.Frame, r *tokio.Reader) (bool, error) {
	checkPtr(ptr)

	if f.Step == mapFresh {
		m := reflect.NewAt(c.m.ty, ptr).Elem()
		if m.IsNil() {
			m.Set(reflect.MakeMap(c.m.ty))
		}
		f.Tmp = reflect.ValueOf(&mapState{m: m, val: reflect.New(c.m.et)})
		f.Step = mapInFlight
	}

	st := f.Tmp.Interface().(*mapState)
	done, err := c.m.elem.decode(st.val.UnsafePointer(), f.Child(), r)
	if err != nil || !done {
		return done, err
	}
	st.m.SetMapIndex(reflect.ValueOf(string(f.Name)).Convert(c.m.kt), st.val.Elem())
	return true, nil
}
