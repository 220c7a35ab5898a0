package convert

import (
	"fmt"
	"reflect"
	"strings"
	"unsafe"

	"go.uber.org/zap"

	"github.com/stewi1014/tokenc/binding"
	"github.com/stewi1014/tokenc/tokio"
)

// NewStruct returns a new struct Converter, building one Binding per field.
// The bindings are immutable and shared by every value of the type from then on.
func NewStruct(ty reflect.Type, src Source, opts Options) *Struct {
	if ty.Kind() != reflect.Struct {
		panic(tokio.NewError(tokio.ErrBadType, fmt.Sprintf("%v is not a struct", ty), 0))
	}

	c := &Struct{
		ty:     ty,
		byName: make(map[string]int),
		bag:    -1,
	}

	for i := 0; i < ty.NumField(); i++ {
		sf := ty.Field(i)
		tag, tagged := sf.Tag.Lookup(StructTag)

		if !tagged && !sf.IsExported() && !opts.IncludeUnexported {
			continue
		}

		field := binding.Field{
			Name:   sf.Name,
			Type:   sf.Type,
			Offset: sf.Offset,
			Null:   opts.Null,
		}
		isBag := false

		if tagged {
			parts := strings.Split(tag, ",")
			if parts[0] == "-" && len(parts) == 1 {
				continue
			}
			if parts[0] != "" {
				field.Name = parts[0]
			}
			for _, opt := range parts[1:] {
				switch opt {
				case "omitnull":
					if field.Null == binding.NullOmitRead {
						field.Null = binding.NullOmit
					} else {
						field.Null = binding.NullOmitWrite
					}
				case "skipnull":
					if field.Null == binding.NullOmitWrite {
						field.Null = binding.NullOmit
					} else {
						field.Null = binding.NullOmitRead
					}
				case "getonly":
					field.NoSet = true
				case "setonly":
					field.NoGet = true
				case "bag":
					isBag = true
				case "":
				default:
					Logger().Warn("unknown option in struct tag",
						zap.String("option", opt),
						zap.String("field", sf.Name),
						zap.Stringer("type", ty))
				}
			}
		}

		if isBag {
			if c.bag >= 0 {
				panic(tokio.NewError(tokio.ErrBadType, fmt.Sprintf("%v has more than one overflow bag", ty), 0))
			}
			c.bag = len(c.fields)
			c.fields = append(c.fields, binding.NewBag(field, NewBag(sf.Type, src)))
			continue
		}

		if _, ok := c.byName[field.Name]; ok {
			panic(tokio.NewError(tokio.ErrBadType, fmt.Sprintf("duplicate member name %q in %v", field.Name, ty), 0))
		}

		c.byName[field.Name] = len(c.fields)
		c.fields = append(c.fields, binding.New(field, fieldConverter(sf.Type, src), opts.Null))
	}

	return c
}

// fieldConverter picks the converter a field binds to. Pointers to single-token types
// bind the pointee's converter directly; the binding then owns the null token and the
// pointee allocation, saving a converter hop on the hot path.
func fieldConverter(ty reflect.Type, src Source) binding.Converter {
	if ty.Kind() == reflect.Ptr {
		switch ty.Elem().Kind() {
		case reflect.Bool,
			reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
			reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
			reflect.Float32, reflect.Float64,
			reflect.String:
			return src.NewConverter(ty.Elem())
		}
	}
	return src.NewConverter(ty)
}

// Struct is a Converter for structs; the traversal driver. It owns a continuation frame
// per field through the frame's child chain, visits each binding in declaration order on
// encode, and routes members by name on decode, sending unmatched members to the
// overflow bag if the struct has one and skipping them otherwise.
type Struct struct {
	ty     reflect.Type
	fields []*binding.Binding
	byName map[string]int
	bag    int
}

// decode progress markers for Frame.Index: 0 is "no member pending", positive is
// fields[Index-1] mid-decode, and:
const (
	skipPending = -1
	bagPending  = -2
)

// Type implements Converter.
func (c *Struct) Type() reflect.Type { return c.ty }

// HandlesNull implements Converter.
// Struct values have no null representation of their own; pointer fields wrap them.
func (c *Struct) HandlesNull() bool { return false }

// Fields returns the struct's bindings in encode order.
func (c *Struct) Fields() []*binding.Binding { return c.fields }

// Encode implements Staged.
func (c *Struct) Encode(ptr unsafe.Pointer, f *binding.Frame, w *tokio.Writer) (bool, error) {
	checkPtr(ptr)

	if f.Step == 0 {
		w.OpenObject()
		f.Step = 1
	}

	for f.Index < len(c.fields) {
		b := c.fields[f.Index]
		if !b.HasGetter() {
			f.Index++
			continue
		}

		if f.Step == 1 {
			if w.Full() {
				return false, nil
			}
			f.Step = 2
		}

		done, err := b.EncodeField(ptr, f.Child(), w)
		if err != nil || !done {
			return done, err
		}
		f.Child().Reset()
		f.Step = 1
		f.Index++
	}

	w.CloseObject()
	return true, nil
}

// Decode implements Staged.
func (c *Struct) Decode(ptr unsafe.Pointer, f *binding.Frame, r *tokio.Reader) (bool, error) {
	checkPtr(ptr)

	if f.Step == 0 {
		k, ok, err := r.Peek()
		if err != nil || !ok {
			return false, err
		}
		if k != tokio.ObjOpen {
			return false, tokio.NewError(tokio.ErrMalformed, fmt.Sprintf("expected object for %v, got %v", c.ty, k), 0)
		}
		r.Next()
		f.Step = 1
	}

	for {
		// Finish whatever member was in flight when we last suspended.
		switch {
		case f.Index > 0:
			done, err := c.fields[f.Index-1].DecodeField(ptr, f.Child(), r)
			if err != nil || !done {
				return done, err
			}
		case f.Index == bagPending:
			done, err := c.fields[c.bag].DecodeField(ptr, f.Child(), r)
			if err != nil || !done {
				return done, err
			}
		case f.Index == skipPending:
			done, err := skipValue(f.Child(), r)
			if err != nil || !done {
				return done, err
			}
		}
		if f.Index != 0 {
			f.Child().Reset()
			f.Index = 0
		}

		k, ok, err := r.Peek()
		if err != nil || !ok {
			return false, err
		}
		if k == tokio.ObjClose {
			r.Next()
			return true, nil
		}
		if k != tokio.Name {
			return false, tokio.NewError(tokio.ErrMalformed, fmt.Sprintf("expected member name in %v, got %v", c.ty, k), 0)
		}

		tok, ok, err := r.Next()
		if err != nil || !ok {
			return false, err
		}

		if i, known := c.byName[string(tok.Str)]; known && c.fields[i].HasSetter() {
			f.Index = i + 1
		} else if !known && c.bag >= 0 && c.fields[c.bag].HasSetter() {
			f.Index = bagPending
			cf := f.Child()
			cf.Name = append(cf.Name[:0], tok.Str...)
		} else {
			// Known but read-only members are skipped too.
			f.Index = skipPending
		}
	}
}
