package binding

import (
	"fmt"
	"reflect"
	"unsafe"

	"github.com/stewi1014/tokenc/tokio"
)

// ReadValue decodes one value exactly as DecodeField would, but returns it instead of
// assigning it to a field. It exists for callers that operate generically across
// bindings of different types and want the raw value without forcing an assignment.
// done is false if the attempt suspended; retry with the same frame.
//
// A null token decodes to the field type's zero value, matching DecodeField.
func (b *Binding) ReadValue(f *Frame, r *tokio.Reader) (v interface{}, done bool, err error) {
	switch act, err := b.classify(f, r); {
	case err != nil:
		return nil, false, err
	case act == nullSuspend:
		return nil, false, nil
	case act == nullAssignDefault, act == nullSkipAssign:
		r.Next()
		return reflect.Zero(b.ty).Interface(), true, nil
	}

	if !f.Tmp.IsValid() {
		if b.deref {
			f.Tmp = reflect.New(b.elem)
		} else {
			f.Tmp = reflect.New(b.ty)
		}
	}

	done, err = b.decodeInto(f.Tmp.UnsafePointer(), f, r)
	if err != nil || !done {
		return nil, done, err
	}
	if b.deref {
		// Tmp is the *E pointee allocation, which is the field's type itself.
		return f.Tmp.Interface(), true, nil
	}
	return f.Tmp.Elem().Interface(), true, nil
}

// WriteValue assigns an untyped value to the field of the instance at ptr, applying the
// same null suppression as DecodeField. The value's dynamic type must be exactly the
// field's type; anything else is a type error, reported rather than coerced.
//
// It panics if the binding has no setter.
func (b *Binding) WriteValue(ptr unsafe.Pointer, v interface{}) error {
	checkPtr(ptr)
	if !b.hasSetter {
		panic(tokio.NewError(tokio.ErrNoCapability, fmt.Sprintf("field %q has no setter", b.fieldName), 0))
	}

	p := b.addr(ptr)
	if v == nil {
		if !b.omitNullRead {
			b.zero(p)
		}
		return nil
	}

	rv := reflect.ValueOf(v)
	if rv.Type() != b.ty {
		return tokio.NewError(tokio.ErrBadType, fmt.Sprintf("cannot assign %v to field %q of type %v", rv.Type(), b.fieldName, b.ty), 0)
	}

	if b.omitNullRead && b.isNil != nil {
		null := func() bool {
			switch rv.Kind() {
			case reflect.Chan, reflect.Func, reflect.Interface, reflect.Map, reflect.Ptr, reflect.Slice, reflect.UnsafePointer:
				return rv.IsNil()
			}
			return false
		}()
		if null {
			return nil
		}
	}

	reflect.NewAt(b.ty, p).Elem().Set(rv)
	return nil
}
