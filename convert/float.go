package convert

import (
	"fmt"
	"reflect"
	"unsafe"

	"github.com/stewi1014/tokenc/tokio"
)

// NewFloat returns a new float Converter.
func NewFloat(ty reflect.Type) *Float {
	switch ty.Kind() {
	case reflect.Float32, reflect.Float64:
		return &Float{ty: ty, wide: ty.Kind() == reflect.Float64}
	default:
		panic(tokio.NewError(tokio.ErrBadType, fmt.Sprintf("%v is not of float kind", ty), 0))
	}
}

// Float is a Converter for float32 and float64.
// float32 values travel as float64; narrowing on decode keeps the original value exactly
// because it was widened from a float32 to begin with.
type Float struct {
	ty   reflect.Type
	wide bool
}

// Type implements Converter.
func (c *Float) Type() reflect.Type { return c.ty }

// HandlesNull implements Converter.
func (c *Float) HandlesNull() bool { return false }

// EncodeToken implements Direct.
func (c *Float) EncodeToken(ptr unsafe.Pointer, w *tokio.Writer) error {
	checkPtr(ptr)
	if c.wide {
		w.Float(*(*float64)(ptr))
	} else {
		w.Float(float64(*(*float32)(ptr)))
	}
	return nil
}

// DecodeToken implements Direct.
func (c *Float) DecodeToken(ptr unsafe.Pointer, tok tokio.Token) error {
	checkPtr(ptr)
	if tok.Kind != tokio.Float {
		return tokio.NewError(tokio.ErrMalformed, fmt.Sprintf("expected float token, got %v", tok.Kind), 0)
	}
	if c.wide {
		*(*float64)(ptr) = tok.Float
	} else {
		*(*float32)(ptr) = float32(tok.Float)
	}
	return nil
}
