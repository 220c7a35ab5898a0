package convert

import (
	"fmt"
	"reflect"
	"unsafe"

	"github.com/stewi1014/tokenc/binding"
	"github.com/stewi1014/tokenc/tokio"
)

var (
	anyType      = reflect.TypeOf((*interface{})(nil)).Elem()
	anyMapType   = reflect.TypeOf(map[string]interface{}(nil))
	anySliceType = reflect.TypeOf([]interface{}(nil))
)

// NewAny returns the Converter for interface{} values.
func NewAny(src Source) *Any {
	a := &Any{}
	// These recurse back into NewAny through the source's placeholder.
	a.maps = makeElem(src.NewConverter(anyMapType))
	a.slices = makeElem(src.NewConverter(anySliceType))
	return a
}

// Any is a Converter for interface{}. It dispatches on the dynamic type when encoding;
// decoding produces nil, bool, int64, uint64, float64, string, map[string]interface{}
// and []interface{}, mirroring what the token stream can distinguish.
//
// There is no type resolution: a dynamic type outside that set is a type error.
type Any struct {
	maps   elem
	slices elem
}

const (
	anyFresh   = 0
	anyInMap   = 1
	anyInSlice = 2
)

// Type implements Converter.
func (c *Any) Type() reflect.Type { return anyType }

// HandlesNull implements Converter.
func (c *Any) HandlesNull() bool { return true }

// Encode implements Staged.
func (c *Any) Encode(ptr unsafe.Pointer, f *binding.Frame, w *tokio.Writer) (bool, error) {
	checkPtr(ptr)

	if f.Step == anyFresh {
		switch v := (*(*interface{})(ptr)).(type) {
		case nil:
			w.Null()
			return true, nil
		case bool:
			w.Bool(v)
			return true, nil
		case string:
			w.String(v)
			return true, nil
		case int:
			w.Int(int64(v))
			return true, nil
		case int8:
			w.Int(int64(v))
			return true, nil
		case int16:
			w.Int(int64(v))
			return true, nil
		case int32:
			w.Int(int64(v))
			return true, nil
		case int64:
			w.Int(v)
			return true, nil
		case uint:
			w.Uint(uint64(v))
			return true, nil
		case uint8:
			w.Uint(uint64(v))
			return true, nil
		case uint16:
			w.Uint(uint64(v))
			return true, nil
		case uint32:
			w.Uint(uint64(v))
			return true, nil
		case uint64:
			w.Uint(v)
			return true, nil
		case float32:
			w.Float(float64(v))
			return true, nil
		case float64:
			w.Float(v)
			return true, nil
		case map[string]interface{}:
			m := v
			f.Tmp = reflect.ValueOf(&m)
			f.Step = anyInMap
		case []interface{}:
			s := v
			f.Tmp = reflect.ValueOf(&s)
			f.Step = anyInSlice
		default:
			return false, tokio.NewError(tokio.ErrBadType, fmt.Sprintf("cannot encode %T as an untyped value", v), 0)
		}
	}

	if f.Step == anyInMap {
		return c.maps.encode(f.Tmp.UnsafePointer(), f.Child(), w)
	}
	return c.slices.encode(f.Tmp.UnsafePointer(), f.Child(), w)
}

// Decode implements Staged.
func (c *Any) Decode(ptr unsafe.Pointer, f *binding.Frame, r *tokio.Reader) (bool, error) {
	checkPtr(ptr)

	if f.Step == anyFresh {
		k, ok, err := r.Peek()
		if err != nil || !ok {
			return false, err
		}

		switch k {
		case tokio.ObjOpen:
			f.Tmp = reflect.New(anyMapType)
			f.Step = anyInMap
		case tokio.ArrOpen:
			f.Tmp = reflect.New(anySliceType)
			f.Step = anyInSlice
		case tokio.Name, tokio.ObjClose, tokio.ArrClose:
			return false, tokio.NewError(tokio.ErrMalformed, fmt.Sprintf("unexpected %v token for a value", k), 0)
		default:
			tok, ok, err := r.Next()
			if err != nil || !ok {
				return false, err
			}
			*(*interface{})(ptr) = scalar(tok)
			return true, nil
		}
	}

	var done bool
	var err error
	if f.Step == anyInMap {
		done, err = c.maps.decode(f.Tmp.UnsafePointer(), f.Child(), r)
	} else {
		done, err = c.slices.decode(f.Tmp.UnsafePointer(), f.Child(), r)
	}
	if err != nil || !done {
		return done, err
	}
	*(*interface{})(ptr) = f.Tmp.Elem().Interface()
	return true, nil
}

// scalar maps a scalar token to its untyped Go value.
func scalar(tok tokio.Token) interface{} {
	switch tok.Kind {
	case tokio.Null:
		return nil
	case tokio.False, tokio.True:
		return tok.Bool()
	case tokio.Int:
		return tok.Int
	case tokio.Uint:
		return tok.Uint
	case tokio.Float:
		return tok.Float
	default: // tokio.String
		return string(tok.Str)
	}
}
