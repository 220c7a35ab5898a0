package convert

import (
	"fmt"
	"reflect"
	"unsafe"

	"github.com/stewi1014/tokenc/tokio"
)

// NewString returns a new string Converter.
func NewString(ty reflect.Type) *String {
	if ty.Kind() != reflect.String {
		panic(tokio.NewError(tokio.ErrBadType, fmt.Sprintf("%v is not of string kind", ty), 0))
	}
	return &String{ty: ty}
}

// String is a Converter for strings.
type String struct {
	ty reflect.Type
}

// Type implements Converter.
func (c *String) Type() reflect.Type { return c.ty }

// HandlesNull implements Converter.
func (c *String) HandlesNull() bool { return false }

// EncodeToken implements Direct.
func (c *String) EncodeToken(ptr unsafe.Pointer, w *tokio.Writer) error {
	checkPtr(ptr)
	w.String(*(*string)(ptr))
	return nil
}

// DecodeToken implements Direct.
func (c *String) DecodeToken(ptr unsafe.Pointer, tok tokio.Token) error {
	checkPtr(ptr)
	if tok.Kind != tokio.String {
		return tokio.NewError(tokio.ErrMalformed, fmt.Sprintf("expected string token, got %v", tok.Kind), 0)
	}
	// tok.Str aliases the reader's buffer; the conversion copies.
	*(*string)(ptr) = string(tok.Str)
	return nil
}
