package convert

import (
	"reflect"
	"unsafe"

	"github.com/stewi1014/tokenc/binding"
	"github.com/stewi1014/tokenc/tokio"
)

// Source is a generator of Converters. Compound converters take Source as an argument
// upon creation and use it to create converters for their element types.
// The Source is responsible for resolving recursive types.
type Source interface {
	// NewConverter returns a Converter for ty.
	NewConverter(ty reflect.Type) binding.Converter
}

// NewCachingSource returns a Source that builds converters with New and caches them by
// type, resolving recursive types with a placeholder that is filled in once the real
// converter finishes construction.
//
// A CachingSource is not safe for concurrent use during construction; guard calls to
// NewConverter with a mutex if types are registered from multiple goroutines. The
// converters it returns hold no per-call state and are freely shareable once built.
func NewCachingSource(opts Options) *CachingSource {
	return &CachingSource{
		opts:     opts,
		cache:    make(map[reflect.Type]binding.Converter),
		building: make(map[reflect.Type]*lazyConverter),
	}
}

// CachingSource provides a cache of Converters.
type CachingSource struct {
	opts     Options
	cache    map[reflect.Type]binding.Converter
	building map[reflect.Type]*lazyConverter
}

// NewConverter implements Source.
func (s *CachingSource) NewConverter(ty reflect.Type) binding.Converter {
	if c, ok := s.cache[ty]; ok {
		return c
	}
	if l, ok := s.building[ty]; ok {
		// ty references itself through a pointer, slice or map; hand out the
		// placeholder and fill it in when the outer construction completes.
		return l
	}

	l := &lazyConverter{ty: ty}
	s.building[ty] = l
	defer delete(s.building, ty)

	c := New(ty, s, s.opts)
	l.conv = c
	s.cache[ty] = c
	return c
}

// lazyConverter breaks construction cycles for recursive types. Its inner converter is
// set before any encode or decode can run; recursion in Go only happens through
// compound types, so delegation is always to a Staged converter.
type lazyConverter struct {
	ty   reflect.Type
	conv binding.Converter
}

// Type implements Converter.
func (l *lazyConverter) Type() reflect.Type { return l.ty }

// HandlesNull implements Converter.
func (l *lazyConverter) HandlesNull() bool { return l.conv.HandlesNull() }

// Encode implements Staged.
func (l *lazyConverter) Encode(p unsafe.Pointer, f *binding.Frame, w *tokio.Writer) (bool, error) {
	return l.conv.(binding.Staged).Encode(p, f, w)
}

// Decode implements Staged.
func (l *lazyConverter) Decode(p unsafe.Pointer, f *binding.Frame, r *tokio.Reader) (bool, error) {
	return l.conv.(binding.Staged).Decode(p, f, r)
}
