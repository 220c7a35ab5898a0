package convert

import (
	"fmt"
	"math"
	"reflect"
	"unsafe"

	"github.com/stewi1014/tokenc/tokio"
)

// NewInt returns a new signed integer Converter.
func NewInt(ty reflect.Type) *Int {
	switch ty.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return &Int{ty: ty, kind: ty.Kind()}
	default:
		panic(tokio.NewError(tokio.ErrBadType, fmt.Sprintf("%v is not of signed integer kind", ty), 0))
	}
}

// Int is a Converter for signed integers of any width.
type Int struct {
	ty   reflect.Type
	kind reflect.Kind
}

// Type implements Converter.
func (c *Int) Type() reflect.Type { return c.ty }

// HandlesNull implements Converter.
func (c *Int) HandlesNull() bool { return false }

// EncodeToken implements Direct.
func (c *Int) EncodeToken(ptr unsafe.Pointer, w *tokio.Writer) error {
	checkPtr(ptr)
	switch c.kind {
	case reflect.Int:
		w.Int(int64(*(*int)(ptr)))
	case reflect.Int8:
		w.Int(int64(*(*int8)(ptr)))
	case reflect.Int16:
		w.Int(int64(*(*int16)(ptr)))
	case reflect.Int32:
		w.Int(int64(*(*int32)(ptr)))
	case reflect.Int64:
		w.Int(*(*int64)(ptr))
	}
	return nil
}

// DecodeToken implements Direct.
// Values that overflow the decoded width are malformed, not truncated.
func (c *Int) DecodeToken(ptr unsafe.Pointer, tok tokio.Token) error {
	checkPtr(ptr)
	if tok.Kind != tokio.Int {
		return tokio.NewError(tokio.ErrMalformed, fmt.Sprintf("expected int token, got %v", tok.Kind), 0)
	}

	v := tok.Int
	switch c.kind {
	case reflect.Int:
		if v < math.MinInt || v > math.MaxInt {
			return c.overflow(v)
		}
		*(*int)(ptr) = int(v)
	case reflect.Int8:
		if v < math.MinInt8 || v > math.MaxInt8 {
			return c.overflow(v)
		}
		*(*int8)(ptr) = int8(v)
	case reflect.Int16:
		if v < math.MinInt16 || v > math.MaxInt16 {
			return c.overflow(v)
		}
		*(*int16)(ptr) = int16(v)
	case reflect.Int32:
		if v < math.MinInt32 || v > math.MaxInt32 {
			return c.overflow(v)
		}
		*(*int32)(ptr) = int32(v)
	case reflect.Int64:
		*(*int64)(ptr) = v
	}
	return nil
}

func (c *Int) overflow(v int64) error {
	return tokio.NewError(tokio.ErrMalformed, fmt.Sprintf("%v overflows %v", v, c.ty), 1)
}

// NewUint returns a new unsigned integer Converter.
func NewUint(ty reflect.Type) *Uint {
	switch ty.Kind() {
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return &Uint{ty: ty, kind: ty.Kind()}
	default:
		panic(tokio.NewError(tokio.ErrBadType, fmt.Sprintf("%v is not of unsigned integer kind", ty), 0))
	}
}

// Uint is a Converter for unsigned integers of any width.
type Uint struct {
	ty   reflect.Type
	kind reflect.Kind
}

// Type implements Converter.
func (c *Uint) Type() reflect.Type { return c.ty }

// HandlesNull implements Converter.
func (c *Uint) HandlesNull() bool { return false }

// EncodeToken implements Direct.
func (c *Uint) EncodeToken(ptr unsafe.Pointer, w *tokio.Writer) error {
	checkPtr(ptr)
	switch c.kind {
	case reflect.Uint:
		w.Uint(uint64(*(*uint)(ptr)))
	case reflect.Uint8:
		w.Uint(uint64(*(*uint8)(ptr)))
	case reflect.Uint16:
		w.Uint(uint64(*(*uint16)(ptr)))
	case reflect.Uint32:
		w.Uint(uint64(*(*uint32)(ptr)))
	case reflect.Uint64:
		w.Uint(*(*uint64)(ptr))
	case reflect.Uintptr:
		w.Uint(uint64(*(*uintptr)(ptr)))
	}
	return nil
}

// DecodeToken implements Direct.
// Values that overflow the decoded width are malformed, not truncated.
func (c *Uint) DecodeToken(ptr unsafe.Pointer, tok tokio.Token) error {
	checkPtr(ptr)
	if tok.Kind != tokio.Uint {
		return tokio.NewError(tokio.ErrMalformed, fmt.Sprintf("expected uint token, got %v", tok.Kind), 0)
	}

	v := tok.Uint
	switch c.kind {
	case reflect.Uint:
		if v > math.MaxUint {
			return c.overflow(v)
		}
		*(*uint)(ptr) = uint(v)
	case reflect.Uint8:
		if v > math.MaxUint8 {
			return c.overflow(v)
		}
		*(*uint8)(ptr) = uint8(v)
	case reflect.Uint16:
		if v > math.MaxUint16 {
			return c.overflow(v)
		}
		*(*uint16)(ptr) = uint16(v)
	case reflect.Uint32:
		if v > math.MaxUint32 {
			return c.overflow(v)
		}
		*(*uint32)(ptr) = uint32(v)
	case reflect.Uint64:
		*(*uint64)(ptr) = v
	case reflect.Uintptr:
		*(*uintptr)(ptr) = uintptr(v)
	}
	return nil
}

func (c *Uint) overflow(v uint64) error {
	return tokio.NewError(tokio.ErrMalformed, fmt.Sprintf("%v overflows %v", v, c.ty), 1)
}
