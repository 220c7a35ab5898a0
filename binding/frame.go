package binding

import "reflect"

// State tracks how far a binding has progressed through one field's encode or decode.
// Its only job is to make name emission and consumption exactly-once across any number
// of suspend/resume cycles.
type State uint8

const (
	// StateStart is a fresh attempt; nothing emitted or consumed.
	StateStart State = iota

	// StateNamed means the member name has been written this attempt (encode), or the
	// driver has handed off the member's value (decode). It is never re-emitted.
	StateNamed

	// StateValue means the converter has been entered for the value.
	StateValue
)

// Frame is the per-field progress record for one in-flight encode or decode.
//
// Frames are owned by the caller driving a binding, typically a struct converter or a
// top-level Encoder/Decoder. A frame is exclusively owned by one traversal; bindings and
// converters mutate it freely during an attempt, and it must be kept unchanged between a
// suspended attempt and its resumption. A completed frame is Reset for reuse.
//
// Bindings use State and Continuation. Converters keep their own resumable position in
// Step, Index, Depth, Name and Tmp, and drive nested values through Child.
type Frame struct {
	// State is the binding's name-emission progress.
	State State

	// Continuation is true when this attempt resumes a previously suspended one.
	// A null token is only classified on the first attempt, never on a resume.
	Continuation bool

	// Step is a converter-internal phase counter, e.g. "open token written".
	Step uint8

	// Index is a converter-internal element or field position.
	Index int

	// Depth counts unmatched structural tokens while skipping unmapped values.
	Depth int

	// Name is the pending member name for converters that decode named members, such as
	// the overflow bag. It does not alias reader memory; it is copied in.
	Name []byte

	// Tmp is scratch storage that must survive suspension: a partially decoded value, a
	// snapshot of map keys, a pointee allocation.
	Tmp reflect.Value

	child *Frame
}

// Child returns the frame for the value nested under this one, allocating it on first
// use. The allocation is retained across Reset so deep structures settle into steady
// state with no per-call allocation.
func (f *Frame) Child() *Frame {
	if f.child == nil {
		f.child = &Frame{}
	}
	return f.child
}

// Reset clears the frame and any children for reuse, retaining allocations.
func (f *Frame) Reset() {
	f.State = StateStart
	f.Continuation = false
	f.Step = 0
	f.Index = 0
	f.Depth = 0
	f.Name = f.Name[:0]
	f.Tmp = reflect.Value{}
	if f.child != nil {
		f.child.Reset()
	}
}
