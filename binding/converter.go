package binding

import (
	"reflect"
	"unsafe"

	"github.com/stewi1014/tokenc/tokio"
)

// Converter encodes and decodes values of a single type.
//
// Converters hold no per-call state; everything needed to resume a suspended operation
// lives in the Frame passed to them. A converter is therefore safe to share between any
// number of concurrent operations once constructed.
//
// Every Converter must additionally implement Direct or Staged. Which one it implements
// is inspected once, when a Binding is constructed; it is not a per-call decision.
type Converter interface {
	// Type returns the type the converter encodes.
	Type() reflect.Type

	// HandlesNull reports whether the converter gives the null token meaning itself.
	// When false, the binding owns null entirely: it substitutes the null token for
	// absent values on encode, and the type's zero value for null tokens on decode,
	// without entering the converter.
	HandlesNull() bool
}

// Direct is the calling convention for converters whose values are a single token.
// Both methods always complete; the binding takes care of fetching a whole token before
// dispatching a decode, so a Direct converter can never observe a short buffer, and
// token writes cannot fail.
type Direct interface {
	Converter

	// EncodeToken writes the value at ptr as one token.
	// It panics if ptr is nil.
	EncodeToken(ptr unsafe.Pointer, w *tokio.Writer) error

	// DecodeToken reads the value from tok into ptr.
	// It panics if ptr is nil.
	DecodeToken(ptr unsafe.Pointer, tok tokio.Token) error
}

// Staged is the calling convention for converters that may need multiple calls to
// complete, suspending whenever the reader runs out of whole tokens or the writer
// reports Full.
//
// A return of (false, nil) means suspended: the caller must retry the same call with the
// same frame once more capacity is available, and the converter resumes exactly where it
// left off. Resumable position is kept entirely in the frame; no call-stack state
// survives between attempts.
type Staged interface {
	Converter

	// Encode writes the value at ptr.
	// It panics if ptr is nil.
	Encode(ptr unsafe.Pointer, f *Frame, w *tokio.Writer) (done bool, err error)

	// Decode reads a value into ptr.
	// It panics if ptr is nil.
	Decode(ptr unsafe.Pointer, f *Frame, r *tokio.Reader) (done bool, err error)
}
