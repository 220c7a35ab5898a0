package convert

import (
	"fmt"
	"reflect"
	"unsafe"

	"github.com/stewi1014/tokenc/tokio"
)

// NewBool returns a new bool Converter.
func NewBool(ty reflect.Type) *Bool {
	if ty.Kind() != reflect.Bool {
		panic(tokio.NewError(tokio.ErrBadType, fmt.Sprintf("%v is not of bool kind", ty), 0))
	}
	return &Bool{ty: ty}
}

// Bool is a Converter for bools.
type Bool struct {
	ty reflect.Type
}

// Type implements Converter.
func (c *Bool) Type() reflect.Type { return c.ty }

// HandlesNull implements Converter.
func (c *Bool) HandlesNull() bool { return false }

// EncodeToken implements Direct.
func (c *Bool) EncodeToken(ptr unsafe.Pointer, w *tokio.Writer) error {
	checkPtr(ptr)
	w.Bool(*(*bool)(ptr))
	return nil
}

// DecodeToken implements Direct.
func (c *Bool) DecodeToken(ptr unsafe.Pointer, tok tokio.Token) error {
	checkPtr(ptr)
	if tok.Kind != tokio.True && tok.Kind != tokio.False {
		return tokio.NewError(tokio.ErrMalformed, fmt.Sprintf("expected boolean token, got %v", tok.Kind), 0)
	}
	*(*bool)(ptr) = tok.Bool()
	return nil
}
