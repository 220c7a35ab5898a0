package tokio

import (
	"errors"
	"runtime"
)

// Error handling in tokenc distinguishes stream errors from binding and converter errors,
// reusing a small set of common error kinds with extra information wrapped as applicable.
// Panics are only used when there is a clear misuse of the library; programmer error.
// Errors are grouped into two wrappers; IOError and Error.
// IOError indicates a bad or truncated stream, and the caller should stop using it.
// Error indicates a caller should stop using a Binding or Converter, or use it in a different way.
//
// Errors can be checked with
//
//	var encErr Error
//	var ioErr IOError
//	if errors.As(err, &encErr) {
//		// handle binding/converter error
//	} else if errors.As(err, &ioErr) {
//		// handle stream error
//	}
//
// These errors will be wrapped by IOError or Error.
var (
	// ErrMalformed is returned when the read data is impossible to decode.
	ErrMalformed = errors.New("malformed")

	// ErrBadType is returned when a type, where possible to detect, is wrong, unresolvable or inappropriate.
	// Due to the usage of unsafe.Pointer, it is not usually possible to detect incorrect types.
	// If this error is seen, it should be taken seriously; encoding of incorrect types has undefined behaviour.
	ErrBadType = errors.New("bad type")

	// ErrNilPointer is returned if a pointer that should not be nil is nil.
	ErrNilPointer = errors.New("nil pointer")

	// ErrNoCapability is the cause of panics raised when an entry point is invoked on a
	// binding that was not constructed with the matching accessor.
	ErrNoCapability = errors.New("capability not enabled")

	// ErrUnbalanced is returned when a converter reports completion while leaving the
	// writer's structural nesting unbalanced. The output is corrupt and must be discarded.
	ErrUnbalanced = errors.New("unbalanced structural tokens")
)

// NewIOError returns an IOError wrapping err with the given message.
// err is typically the error returned from the io.Reader/io.Writer, or another error describing why the stream isn't operating correctly.
// If message is empty, it is filled with the calling function's name.
func NewIOError(err error, message string) error {
	if err == nil {
		err = errors.New("unknown error")
	}
	if message == "" {
		message = "in " + GetCaller(1)
	}

	return IOError{
		Err:     err,
		Message: message,
	}
}

// IOError is returned when io errors occur, or when read data is truncated mid-token.
type IOError struct {
	Err     error
	Message string
}

// Error implements error
func (e IOError) Error() string {
	if e.Message != "" {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Err.Error()
}

// Unwrap implements errors's Unwrap()
func (e IOError) Unwrap() error {
	return e.Err
}

// NewError returns an Error wrapping err with message and the name of the calling
// function, skipping skip functions. i.e. 0 writes the calling function, 1 the function
// calling that etc...
func NewError(err error, message string, skip int) error {
	return Error{
		Err:     err,
		Message: message,
		Caller:  GetCaller(skip + 1),
	}
}

// Error is returned when an internal error is encountered while encoding or decoding.
type Error struct {
	Err     error
	Message string
	Caller  string
}

// Error implements error
func (e Error) Error() (str string) {
	if e.Caller != "" {
		str = e.Caller + ": "
	}

	str += e.Err.Error()

	if e.Message != "" {
		str += " (" + e.Message + ")"
	}

	return str
}

// Unwrap implements errors's Unwrap()
func (e Error) Unwrap() error {
	return e.Err
}

// GetCaller returns the name of the calling function, skipping skip functions.
// i.e. 0 writes the calling function, 1 the function calling that etc...
func GetCaller(skip int) string {
	pcs := make([]uintptr, 1)
	n := runtime.Callers(2+skip, pcs)
	if n != 1 {
		return "Unknown Function"
	}

	frames := runtime.CallersFrames(pcs)
	frame, _ := frames.Next()
	return frame.Function
}
