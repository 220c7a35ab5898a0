// Package binding maps structural fields to converters and drives those converters
// against the token stream.
//
// A Binding pairs one field's accessors with its converter and resolved policy flags.
// Bindings are built once per field of a type, at registration time, and are immutable
// and freely shared afterwards; every expensive decision (accessor resolution, null
// policy, converter calling convention) is made during construction so per-call work is
// a handful of branches. All per-call mutable state lives in the Frame the caller owns,
// which is what lets an encode or decode suspend on an exhausted buffer and resume later
// without losing or repeating work.
package binding

import (
	"fmt"
	"reflect"
	"unsafe"

	"github.com/stewi1014/tokenc/tokio"
)

// Field describes one structural field to bind: its wire name, type, offset within the
// declaring struct, capabilities and null policy. It is the construction-time input;
// bindings never consult it after New returns.
type Field struct {
	// Name is the field's external name. Must be non-empty.
	Name string

	// Type is the field's type.
	Type reflect.Type

	// Offset is the field's offset within the declaring struct.
	Offset uintptr

	// NoGet disables the encode entry points; the field is write-only.
	NoGet bool

	// NoSet disables the decode entry points; the field is read-only.
	NoSet bool

	// Null is the field's null policy, resolved against the default passed to New.
	Null NullPolicy
}

// Binding binds one field of a struct to a Converter.
//
// The zero Binding is not usable; use New, NewWholeValue or NewBag.
type Binding struct {
	fieldName string
	name      []byte // pre-escaped wire name; nil for whole-value and bag bindings
	ty        reflect.Type
	offset    uintptr

	conv   Converter
	direct Direct // exactly one of direct, staged is non-nil
	staged Staged

	hasGetter bool
	hasSetter bool
	whole     bool
	bag       bool

	omitNullWrite bool
	omitNullRead  bool
	handlesNull   bool

	// deref is set when the field is *E bound to a converter for E. The binding owns
	// the pointer: it emits the null token for nil, and allocates the pointee on decode.
	deref bool
	elem  reflect.Type

	// isNil is non-nil only for types with a null representation.
	isNil func(unsafe.Pointer) bool
}

// New returns a Binding for a struct field.
// def is the global default null policy; NullDefault means NullKeep.
// It panics if the field has no name, or if the converter's type does not match the
// field's type or its pointee.
func New(field Field, conv Converter, def NullPolicy) *Binding {
	if field.Name == "" {
		panic(tokio.NewError(tokio.ErrBadType, "field binding requires a name", 0))
	}

	b := &Binding{
		fieldName: field.Name,
		name:      tokio.AppendName(nil, field.Name),
		ty:        field.Type,
		offset:    field.Offset,
		hasGetter: !field.NoGet,
		hasSetter: !field.NoSet,
	}
	b.omitNullWrite, b.omitNullRead = field.Null.resolve(def)
	b.bindConverter(conv)
	b.bindAccess()
	return b
}

// NewWholeValue returns a Binding that represents the entire value being serialized
// rather than one field of it. It has no name, both capabilities are forced on, and its
// accessors are the identity: the "field" address is the instance address itself.
func NewWholeValue(conv Converter) *Binding {
	b := &Binding{
		fieldName: conv.Type().String(),
		ty:        conv.Type(),
		hasGetter: true,
		hasSetter: true,
		whole:     true,
	}
	b.bindConverter(conv)
	b.bindAccess()
	return b
}

// NewBag returns a Binding for the overflow bag: the destination for members unmatched
// by any other binding. It has no name of its own; its contents carry their names inside
// the converter. Encoding a nil bag emits nothing.
func NewBag(field Field, conv Converter) *Binding {
	b := &Binding{
		fieldName: field.Name,
		ty:        field.Type,
		offset:    field.Offset,
		hasGetter: !field.NoGet,
		hasSetter: !field.NoSet,
		bag:       true,
	}
	b.bindConverter(conv)
	b.bindAccess()
	if b.isNil == nil {
		panic(tokio.NewError(tokio.ErrBadType, fmt.Sprintf("%v cannot be an overflow bag", field.Type), 0))
	}
	return b
}

func (b *Binding) bindConverter(conv Converter) {
	if conv == nil {
		panic(tokio.NewError(tokio.ErrNilPointer, "nil converter", 1))
	}

	ct := conv.Type()
	switch {
	case ct == b.ty:
	case b.ty.Kind() == reflect.Ptr && ct == b.ty.Elem():
		b.deref = true
		b.elem = ct
	default:
		panic(tokio.NewError(tokio.ErrBadType, fmt.Sprintf("converter for %v cannot serve field %q of type %v", ct, b.fieldName, b.ty), 1))
	}

	b.conv = conv
	b.handlesNull = conv.HandlesNull() && !b.deref
	switch c := conv.(type) {
	case Direct:
		b.direct = c
	case Staged:
		b.staged = c
	default:
		panic(tokio.NewError(tokio.ErrBadType, fmt.Sprintf("converter %T implements neither Direct nor Staged", conv), 1))
	}
}

// bindAccess resolves the null test for the field's type. Types without a null
// representation leave isNil nil; the null branches are then never taken.
func (b *Binding) bindAccess() {
	switch b.ty.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Chan, reflect.Func, reflect.UnsafePointer, reflect.Slice:
		// The first word of all of these is a pointer; nil iff it is nil.
		b.isNil = func(p unsafe.Pointer) bool { return *(*unsafe.Pointer)(p) == nil }
	case reflect.Interface:
		b.isNil = func(p unsafe.Pointer) bool { return (*[2]unsafe.Pointer)(p)[0] == nil }
	}
}

// Name returns the field's external name. It is empty for whole-value and bag bindings.
func (b *Binding) Name() string {
	if b.name == nil {
		return ""
	}
	return b.fieldName
}

// Type returns the bound field's type.
func (b *Binding) Type() reflect.Type { return b.ty }

// HasGetter reports whether the encode entry points may be invoked.
func (b *Binding) HasGetter() bool { return b.hasGetter }

// HasSetter reports whether the decode entry points may be invoked.
func (b *Binding) HasSetter() bool { return b.hasSetter }

// IsWholeValue reports whether the binding represents the entire value.
func (b *Binding) IsWholeValue() bool { return b.whole }

// IsBag reports whether the binding is the overflow bag.
func (b *Binding) IsBag() bool { return b.bag }

// addr is the bound getter and setter: instance address to field address, resolved once
// at construction to an offset addition.
func (b *Binding) addr(instance unsafe.Pointer) unsafe.Pointer {
	return unsafe.Add(instance, b.offset)
}

// zero sets the field at p to the type's zero value; the decode of a null token.
func (b *Binding) zero(p unsafe.Pointer) {
	reflect.NewAt(b.ty, p).Elem().Set(reflect.Zero(b.ty))
}

func checkPtr(ptr unsafe.Pointer) {
	if ptr == nil {
		panic(tokio.NewError(tokio.ErrNilPointer, "instance pointers must not be nil", 1))
	}
}

// EncodeField fetches the field's value from the instance at ptr and encodes it,
// emitting the field name first. done is false if the attempt suspended on a full
// writer; call again with the same frame after flushing, and the name is not re-emitted.
//
// It panics if the binding has no getter.
func (b *Binding) EncodeField(ptr unsafe.Pointer, f *Frame, w *tokio.Writer) (done bool, err error) {
	checkPtr(ptr)
	if !b.hasGetter {
		panic(tokio.NewError(tokio.ErrNoCapability, fmt.Sprintf("field %q has no getter", b.fieldName), 0))
	}

	p := b.addr(ptr)
	if b.isNil != nil && b.isNil(p) {
		return b.encodeNull(p, f, w)
	}

	b.writeName(f, w)
	if b.deref {
		p = *(*unsafe.Pointer)(p)
	}
	return b.encodeValue(p, f, w)
}

// encodeNull handles a fetched null. The bag and null-omitting fields emit nothing;
// converters without native null get the null token written for them; converters with
// native null are delegated to, and must leave structural depth balanced.
func (b *Binding) encodeNull(p unsafe.Pointer, f *Frame, w *tokio.Writer) (bool, error) {
	if b.bag || b.omitNullWrite {
		return true, nil
	}

	if !b.handlesNull {
		b.writeName(f, w)
		w.Null()
		return true, nil
	}

	b.writeName(f, w)
	if f.State < StateValue {
		f.Depth = w.Depth()
	}
	done, err := b.encodeValue(p, f, w)
	if err != nil || !done {
		return done, err
	}
	if w.Depth() != f.Depth {
		return false, tokio.NewError(tokio.ErrUnbalanced, fmt.Sprintf("converter %T corrupted structural balance encoding null %q", b.conv, b.fieldName), 0)
	}
	return true, nil
}

// writeName emits the pre-escaped field name, exactly once per logical field no matter
// how many times the attempt suspends and resumes. Whole-value and bag bindings have no
// name and emit nothing.
func (b *Binding) writeName(f *Frame, w *tokio.Writer) {
	if b.name == nil || f.State >= StateNamed {
		return
	}
	w.Name(b.name)
	f.State = StateNamed
}

func (b *Binding) encodeValue(p unsafe.Pointer, f *Frame, w *tokio.Writer) (bool, error) {
	if b.direct != nil {
		if err := b.direct.EncodeToken(p, w); err != nil {
			return false, err
		}
		return true, nil
	}

	f.State = StateValue
	done, err := b.staged.Encode(p, f.Child(), w)
	if !done && err == nil {
		f.Continuation = true
	}
	return done, err
}

// DecodeField decodes one value from r and assigns it to the field of the instance at
// ptr, unless suppressed by null policy. done is false if the attempt suspended on
// exhausted input; call again with the same frame once more input is available, and
// decoding resumes inside the converter rather than restarting.
//
// It panics if the binding has no setter.
func (b *Binding) DecodeField(ptr unsafe.Pointer, f *Frame, r *tokio.Reader) (done bool, err error) {
	checkPtr(ptr)
	if !b.hasSetter {
		panic(tokio.NewError(tokio.ErrNoCapability, fmt.Sprintf("field %q has no setter", b.fieldName), 0))
	}

	p := b.addr(ptr)
	switch act, err := b.classify(f, r); {
	case err != nil:
		return false, err
	case act == nullSuspend:
		return false, nil
	case act == nullAssignDefault:
		r.Next()
		b.zero(p)
		return true, nil
	case act == nullSkipAssign:
		r.Next()
		return true, nil
	}

	// Not null, or the converter gives null meaning itself.
	dst := p
	switch {
	case b.deref:
		// Decode the pointee into an allocation that survives suspension; only store
		// the pointer once the value is complete.
		if !f.Tmp.IsValid() {
			f.Tmp = reflect.New(b.elem)
		}
		dst = f.Tmp.UnsafePointer()
	case b.omitNullRead && b.handlesNull && b.isNil != nil:
		// The converter may produce null, and policy says a null result must not touch
		// the field. Decode through scratch and assign only non-null results.
		if !f.Tmp.IsValid() {
			f.Tmp = reflect.New(b.ty)
		}
		dst = f.Tmp.UnsafePointer()
	}

	done, err = b.decodeInto(dst, f, r)
	if err != nil || !done {
		return done, err
	}

	switch {
	case b.deref:
		*(*unsafe.Pointer)(p) = f.Tmp.UnsafePointer()
	case dst != p:
		if !b.isNil(dst) {
			reflect.NewAt(b.ty, p).Elem().Set(f.Tmp.Elem())
		}
	}
	return true, nil
}

type nullAction uint8

const (
	nullDecode nullAction = iota // not null, or converter handles null; delegate
	nullAssignDefault            // null token; binding assigns the zero value
	nullSkipAssign               // null token; policy suppresses assignment
	nullSuspend                  // no whole token buffered yet
)

// classify is the single decision table for null handling on the read path:
// token-is-null × converter-handles-null × is-continuation × policy. Both the direct and
// staged paths route through it, so they cannot diverge. A null token is only ever
// classified on a first attempt; once a converter has been entered the token has been
// consumed and a resume goes straight back to it.
func (b *Binding) classify(f *Frame, r *tokio.Reader) (nullAction, error) {
	if f.Continuation || b.handlesNull {
		return nullDecode, nil
	}
	k, ok, err := r.Peek()
	if err != nil {
		return 0, err
	}
	if !ok {
		return nullSuspend, nil
	}
	if k != tokio.Null {
		return nullDecode, nil
	}
	if b.omitNullRead {
		return nullSkipAssign, nil
	}
	return nullAssignDefault, nil
}

func (b *Binding) decodeInto(dst unsafe.Pointer, f *Frame, r *tokio.Reader) (bool, error) {
	if b.direct != nil {
		tok, ok, err := r.Next()
		if err != nil || !ok {
			// Nothing consumed; the next attempt classifies the same token again.
			return false, err
		}
		if err := b.direct.DecodeToken(dst, tok); err != nil {
			return false, err
		}
		return true, nil
	}

	f.State = StateValue
	if b.bag && len(f.Name) > 0 {
		// The driver stashed the unmatched member's name on our frame; the bag
		// converter reads it from its own.
		vf := f.Child()
		vf.Name = append(vf.Name[:0], f.Name...)
	}
	done, err := b.staged.Decode(dst, f.Child(), r)
	if !done && err == nil {
		f.Continuation = true
	}
	return done, err
}
