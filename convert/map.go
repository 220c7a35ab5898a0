package convert

import (
	"fmt"
	"reflect"
	"sort"
	"unsafe"

	"github.com/stewi1014/tokenc/binding"
	"github.com/stewi1014/tokenc/tokio"
)

// NewMap returns a new map Converter.
// Only string-keyed maps have a token representation; keys become member names.
func NewMap(ty reflect.Type, src Source) *Map {
	if ty.Kind() != reflect.Map {
		panic(tokio.NewError(tokio.ErrBadType, fmt.Sprintf("%v is not a map", ty), 0))
	}
	if ty.Key().Kind() != reflect.String {
		panic(tokio.NewError(tokio.ErrBadType, fmt.Sprintf("%v keys cannot be member names", ty), 0))
	}
	return &Map{
		ty:   ty,
		kt:   ty.Key(),
		et:   ty.Elem(),
		elem: makeElem(src.NewConverter(ty.Elem())),
	}
}

// Map is a Converter for string-keyed maps, encoded as an object. Entries are encoded in
// sorted key order so output is deterministic. nil maps travel as the null token.
type Map struct {
	ty   reflect.Type
	kt   reflect.Type
	et   reflect.Type
	elem elem
}

// mapState is the resumable position within a map's entries, kept in Frame.Tmp.
// keys is snapshotted up front; val is the current entry's addressable value.
type mapState struct {
	keys []string
	m    reflect.Value
	val  reflect.Value
}

const (
	mapFresh    = 0
	mapBetween  = 1 // delimiters handled, between entries
	mapInFlight = 2 // entry name done, value in flight
)

// Type implements Converter.
func (c *Map) Type() reflect.Type { return c.ty }

// HandlesNull implements Converter.
func (c *Map) HandlesNull() bool { return true }

// Encode implements Staged.
func (c *Map) Encode(ptr unsafe.Pointer, f *binding.Frame, w *tokio.Writer) (bool, error) {
	checkPtr(ptr)
	m := reflect.NewAt(c.ty, ptr).Elem()

	if f.Step == mapFresh {
		if m.IsNil() {
			w.Null()
			return true, nil
		}
		f.Tmp = reflect.ValueOf(&mapState{keys: sortedKeys(m), m: m})
		w.OpenObject()
		f.Step = mapBetween
	}

	done, err := c.encodeEntries(f, w)
	if err != nil || !done {
		return done, err
	}
	w.CloseObject()
	return true, nil
}

// encodeEntries writes the remaining entries of the map snapshotted in f.Tmp. It is
// shared with the overflow bag, which writes the same entry stream without delimiters.
func (c *Map) encodeEntries(f *binding.Frame, w *tokio.Writer) (bool, error) {
	st := f.Tmp.Interface().(*mapState)

	for f.Index < len(st.keys) {
		if f.Step == mapBetween {
			if w.Full() {
				return false, nil
			}
			k := st.keys[f.Index]
			w.NameString(k)
			// Map values aren't addressable; copy the entry out once per entry.
			st.val = reflect.New(c.et)
			st.val.Elem().Set(st.m.MapIndex(reflect.ValueOf(k).Convert(c.kt)))
			f.Step = mapInFlight
		}

		done, err := c.elem.encode(st.val.UnsafePointer(), f.Child(), w)
		if err != nil || !done {
			return done, err
		}
		f.Child().Reset()
		f.Step = mapBetween
		f.Index++
	}
	return true, nil
}

// Decode implements Staged.
// The map is built in scratch and only assigned once complete.
func (c *Map) Decode(ptr unsafe.Pointer, f *binding.Frame, r *tokio.Reader) (bool, error) {
	checkPtr(ptr)

	if f.Step == mapFresh {
		k, ok, err := r.Peek()
		if err != nil || !ok {
			return false, err
		}
		switch k {
		case tokio.Null:
			r.Next()
			reflect.NewAt(c.ty, ptr).Elem().Set(reflect.Zero(c.ty))
			return true, nil
		case tokio.ObjOpen:
			r.Next()
			f.Tmp = reflect.ValueOf(&mapState{m: reflect.MakeMap(c.ty)})
			f.Step = mapBetween
		default:
			return false, tokio.NewError(tokio.ErrMalformed, fmt.Sprintf("expected object for %v, got %v", c.ty, k), 0)
		}
	}

	st := f.Tmp.Interface().(*mapState)
	for {
		if f.Step == mapBetween {
			k, ok, err := r.Peek()
			if err != nil || !ok {
				return false, err
			}
			if k == tokio.ObjClose {
				r.Next()
				reflect.NewAt(c.ty, ptr).Elem().Set(st.m)
				return true, nil
			}
			if k != tokio.Name {
				return false, tokio.NewError(tokio.ErrMalformed, fmt.Sprintf("expected member name, got %v", k), 0)
			}
			tok, ok, err := r.Next()
			if err != nil || !ok {
				return false, err
			}
			f.Name = append(f.Name[:0], tok.Str...)
			st.val = reflect.New(c.et)
			f.Step = mapInFlight
		}

		done, err := c.elem.decode(st.val.UnsafePointer(), f.Child(), r)
		if err != nil || !done {
			return done, err
		}
		st.m.SetMapIndex(reflect.ValueOf(string(f.Name)).Convert(c.kt), st.val.Elem())
		f.Child().Reset()
		f.Step = mapBetween
	}
}

// sortedKeys snapshots a map's keys in sorted order.
func sortedKeys(m reflect.Value) []string {
	keys := make([]string, 0, m.Len())
	iter := m.MapRange()
	for iter.Next() {
		keys = append(keys, iter.Key().String())
	}
	sort.Strings(keys)
	return keys
}
