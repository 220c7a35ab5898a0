package convert_test

import (
	"errors"
	"fmt"
	"reflect"
	"testing"
	"unsafe"

	"github.com/maxatome/go-testdeep/td"
	"github.com/stewi1014/tokenc/binding"
	"github.com/stewi1014/tokenc/convert"
	"github.com/stewi1014/tokenc/tokio"
)

// encodeValue encodes the value at ptr through a whole-value binding, collecting flushed
// output. limit is the writer's soft limit; 1 forces a suspension at every token
// boundary a converter checks.
func encodeValue(t *testing.T, conv binding.Converter, ptr unsafe.Pointer, limit int) []byte {
	t.Helper()
	b := binding.NewWholeValue(conv)
	w := tokio.NewWriter(limit)

	var f binding.Frame
	var out []byte
	for attempts := 0; ; attempts++ {
		if attempts > 1<<20 {
			t.Fatal("encode makes no progress")
		}
		done, err := b.EncodeField(ptr, &f, w)
		if err != nil {
			t.Fatal(err)
		}
		out = append(out, w.Bytes()...)
		w.Reset()
		if done {
			return out
		}
	}
}

// decodeValue decodes data into the value at ptr, feeding stride bytes per suspension.
// stride 1 exercises resumption at every possible split point.
func decodeValue(t *testing.T, conv binding.Converter, ptr unsafe.Pointer, data []byte, stride int) {
	t.Helper()
	b := binding.NewWholeValue(conv)
	r := new(tokio.Reader)

	var f binding.Frame
	off := 0
	for attempts := 0; ; attempts++ {
		if attempts > 1<<20 {
			t.Fatal("decode makes no progress")
		}
		done, err := b.DecodeField(ptr, &f, r)
		if err != nil {
			t.Fatal(err)
		}
		if done {
			if r.Len() != 0 || off != len(data) {
				t.Fatalf("%v buffered and %v unfed bytes after decode", r.Len(), len(data)-off)
			}
			return
		}
		if off == len(data) {
			t.Fatal("input exhausted mid-value")
		}
		n := stride
		if off+n > len(data) {
			n = len(data) - off
		}
		r.Feed(data[off : off+n])
		off += n
	}
}

type TestStruct1 struct {
	Exported1 uint
	Exported2 string
}

type TestStruct2 struct {
	Name     string
	Phone    *string
	Siblings int
	Spouse   bool
	Money    float64
	Tags     []string
	Attrs    map[string]int
	Next     *TestStruct2
}

type TestStruct3 struct {
	Values map[string]interface{}
	List   []interface{}
}

func strptr(s string) *string { return &s }

var structTestCases = []struct {
	desc   string
	encode interface{}
	want   interface{}
}{
	{
		desc: "TestStruct1",
		encode: &TestStruct1{
			Exported1: 6,
			Exported2: "Hello world!",
		},
		want: &TestStruct1{
			Exported1: 6,
			Exported2: "Hello world!",
		},
	},
	{
		desc: "TestStruct2",
		encode: &TestStruct2{
			Name:     "John",
			Phone:    strptr("7738234"),
			Siblings: 2,
			Spouse:   true,
			Money:    -1 * (2 * 1000),
			Tags:     []string{"a", "b", ""},
			Attrs:    map[string]int{"x": 1, "y": -2},
			Next: &TestStruct2{
				Name: "Jane",
				Tags: []string{},
			},
		},
		want: &TestStruct2{
			Name:     "John",
			Phone:    strptr("7738234"),
			Siblings: 2,
			Spouse:   true,
			Money:    -1 * (2 * 1000),
			Tags:     []string{"a", "b", ""},
			Attrs:    map[string]int{"x": 1, "y": -2},
			Next: &TestStruct2{
				Name: "Jane",
				Tags: []string{},
			},
		},
	},
	{
		desc:   "nil members",
		encode: &TestStruct2{},
		want:   &TestStruct2{},
	},
	{
		desc: "untyped members",
		encode: &TestStruct3{
			Values: map[string]interface{}{
				"bool":   true,
				"int":    int64(-42),
				"uint":   uint64(42),
				"float":  1.5,
				"string": "hi",
				"null":   nil,
				"nested": map[string]interface{}{"deep": int64(1)},
			},
			List: []interface{}{int64(1), "two", []interface{}{false}},
		},
		want: &TestStruct3{
			Values: map[string]interface{}{
				"bool":   true,
				"int":    int64(-42),
				"uint":   uint64(42),
				"float":  1.5,
				"string": "hi",
				"null":   nil,
				"nested": map[string]interface{}{"deep": int64(1)},
			},
			List: []interface{}{int64(1), "two", []interface{}{false}},
		},
	},
}

// TestStructRoundTrip runs every case four ways: one-shot, suspending on every written
// token, resuming on every byte, and both at once. All four must produce the same value.
func TestStructRoundTrip(t *testing.T) {
	configs := []struct {
		desc   string
		limit  int
		stride func(data []byte) int
	}{
		{desc: "one-shot", limit: 0, stride: func(data []byte) int { return len(data) }},
		{desc: "suspending writer", limit: 1, stride: func(data []byte) int { return len(data) }},
		{desc: "byte-fed reader", limit: 0, stride: func([]byte) int { return 1 }},
		{desc: "both", limit: 1, stride: func([]byte) int { return 1 }},
	}

	for _, tC := range structTestCases {
		for _, cfg := range configs {
			t.Run(tC.desc+"/"+cfg.desc, func(t *testing.T) {
				ty := reflect.TypeOf(tC.encode).Elem()
				conv := convert.NewCachingSource(convert.Options{}).NewConverter(ty)

				data := encodeValue(t, conv, reflect.ValueOf(tC.encode).UnsafePointer(), cfg.limit)

				got := reflect.New(ty)
				decodeValue(t, conv, got.UnsafePointer(), data, cfg.stride(data))

				td.Cmp(t, got.Interface(), tC.want)
			})
		}
	}
}

func TestRecursiveType(t *testing.T) {
	list := &TestStruct2{
		Name: "one",
		Next: &TestStruct2{
			Name: "two",
			Next: &TestStruct2{
				Name: "three",
			},
		},
	}

	conv := convert.NewCachingSource(convert.Options{}).NewConverter(reflect.TypeOf(TestStruct2{}))
	data := encodeValue(t, conv, unsafe.Pointer(list), 0)

	var got TestStruct2
	decodeValue(t, conv, unsafe.Pointer(&got), data, 1)

	td.Cmp(t, &got, list)
}

type tagged struct {
	Renamed  int `tokenc:"n"`
	Excluded int `tokenc:"-"`
	GetOnly  int `tokenc:",getonly"`
	SetOnly  int `tokenc:",setonly"`
	ignored  int
}

func TestStructTags(t *testing.T) {
	conv := convert.NewCachingSource(convert.Options{}).NewConverter(reflect.TypeOf(tagged{}))

	in := tagged{Renamed: 1, Excluded: 2, GetOnly: 3, SetOnly: 4, ignored: 5}
	data := encodeValue(t, conv, unsafe.Pointer(&in), 0)

	// Only renamed and getonly members are on the wire.
	names := memberNames(t, data)
	td.Cmp(t, names, []string{"n", "GetOnly"})

	var got tagged
	decodeValue(t, conv, unsafe.Pointer(&got), data, 1)

	// getonly arrives but has no setter; it is skipped like an unknown member.
	if got != (tagged{Renamed: 1}) {
		t.Errorf("got %+v, wanted %+v", got, tagged{Renamed: 1})
	}
}

// memberNames returns the top-level member names of an encoded object, in order.
func memberNames(t *testing.T, data []byte) []string {
	t.Helper()
	r := new(tokio.Reader)
	r.Feed(data)

	var names []string
	depth := 0
	for {
		tok, ok, err := r.Next()
		if err != nil {
			t.Fatal(err)
		}
		if !ok {
			return names
		}
		switch tok.Kind {
		case tokio.ObjOpen, tokio.ArrOpen:
			depth++
		case tokio.ObjClose, tokio.ArrClose:
			depth--
		case tokio.Name:
			if depth == 1 {
				names = append(names, string(tok.Str))
			}
		}
	}
}

func TestUnexportedFields(t *testing.T) {
	type pair struct {
		a int
		B int
	}

	t.Run("excluded by default", func(t *testing.T) {
		conv := convert.NewCachingSource(convert.Options{}).NewConverter(reflect.TypeOf(pair{}))

		in := pair{a: 1, B: 2}
		data := encodeValue(t, conv, unsafe.Pointer(&in), 0)

		var got pair
		decodeValue(t, conv, unsafe.Pointer(&got), data, len(data))
		if got != (pair{B: 2}) {
			t.Errorf("got %+v, wanted %+v", got, pair{B: 2})
		}
	})

	t.Run("included on request", func(t *testing.T) {
		conv := convert.NewCachingSource(convert.Options{IncludeUnexported: true}).NewConverter(reflect.TypeOf(pair{}))

		in := pair{a: 1, B: 2}
		data := encodeValue(t, conv, unsafe.Pointer(&in), 0)

		var got pair
		decodeValue(t, conv, unsafe.Pointer(&got), data, len(data))
		if got != (pair{a: 1, B: 2}) {
			t.Errorf("got %+v, wanted %+v", got, pair{a: 1, B: 2})
		}
	})
}

func TestOmitNull(t *testing.T) {
	type point struct {
		X   int     `tokenc:"x"`
		Y   int     `tokenc:"y"`
		Tag *string `tokenc:"tag,omitnull"`
	}

	conv := convert.NewCachingSource(convert.Options{}).NewConverter(reflect.TypeOf(point{}))

	t.Run("null dropped", func(t *testing.T) {
		in := point{X: 1, Y: 2}
		data := encodeValue(t, conv, unsafe.Pointer(&in), 0)
		td.Cmp(t, memberNames(t, data), []string{"x", "y"})

		var got point
		decodeValue(t, conv, unsafe.Pointer(&got), data, 1)
		td.Cmp(t, got, in)
	})

	t.Run("value kept", func(t *testing.T) {
		in := point{X: 1, Y: 2, Tag: strptr("origin")}
		data := encodeValue(t, conv, unsafe.Pointer(&in), 0)
		td.Cmp(t, memberNames(t, data), []string{"x", "y", "tag"})

		var got point
		decodeValue(t, conv, unsafe.Pointer(&got), data, 1)
		td.Cmp(t, got, in)
	})
}

func TestSkipNull(t *testing.T) {
	type counter struct {
		N int `tokenc:"n,skipnull"`
	}

	conv := convert.NewCachingSource(convert.Options{}).NewConverter(reflect.TypeOf(counter{}))

	w := tokio.NewWriter(0)
	w.OpenObject()
	w.NameString("n")
	w.Null()
	w.CloseObject()

	got := counter{N: 7}
	decodeValue(t, conv, unsafe.Pointer(&got), w.Bytes(), 1)
	td.Cmp(t, got, counter{N: 7})
}

func TestUnknownMembers(t *testing.T) {
	type wide struct {
		X     int
		Extra map[string][]int
		Y     int
	}
	type narrow struct {
		X int
		Y int
	}

	src := convert.NewCachingSource(convert.Options{})

	in := wide{X: 1, Extra: map[string][]int{"a": {1, 2}, "b": nil}, Y: 2}
	data := encodeValue(t, src.NewConverter(reflect.TypeOf(wide{})), unsafe.Pointer(&in), 0)

	var got narrow
	decodeValue(t, src.NewConverter(reflect.TypeOf(narrow{})), unsafe.Pointer(&got), data, 1)
	td.Cmp(t, got, narrow{X: 1, Y: 2})
}

func TestOverflowBag(t *testing.T) {
	type full struct {
		X   int    `tokenc:"x"`
		Y   int    `tokenc:"y"`
		Tag string `tokenc:"tag"`
	}
	type sparse struct {
		X    int                    `tokenc:"x"`
		Rest map[string]interface{} `tokenc:",bag"`
	}

	src := convert.NewCachingSource(convert.Options{})
	fullConv := src.NewConverter(reflect.TypeOf(full{}))
	sparseConv := src.NewConverter(reflect.TypeOf(sparse{}))

	in := full{X: 1, Y: 2, Tag: "origin"}
	data := encodeValue(t, fullConv, unsafe.Pointer(&in), 0)

	t.Run("collects unmatched members", func(t *testing.T) {
		var got sparse
		decodeValue(t, sparseConv, unsafe.Pointer(&got), data, 1)
		td.Cmp(t, got, sparse{
			X: 1,
			Rest: map[string]interface{}{
				"y":   int64(2),
				"tag": "origin",
			},
		})
	})

	t.Run("re-encodes them in place", func(t *testing.T) {
		bagged := sparse{
			X: 1,
			Rest: map[string]interface{}{
				"y":   int64(2),
				"tag": "origin",
			},
		}
		data := encodeValue(t, sparseConv, unsafe.Pointer(&bagged), 1)

		var got full
		decodeValue(t, fullConv, unsafe.Pointer(&got), data, 1)
		td.Cmp(t, got, in)
	})

	t.Run("nil bag encodes nothing", func(t *testing.T) {
		empty := sparse{X: 5}
		data := encodeValue(t, sparseConv, unsafe.Pointer(&empty), 0)
		td.Cmp(t, memberNames(t, data), []string{"x"})
	})
}

func TestMalformedInput(t *testing.T) {
	src := convert.NewCachingSource(convert.Options{})

	testCases := []struct {
		desc  string
		ty    reflect.Type
		write func(w *tokio.Writer)
	}{
		{
			desc:  "array for struct",
			ty:    reflect.TypeOf(TestStruct1{}),
			write: func(w *tokio.Writer) { w.OpenArray() },
		},
		{
			desc:  "string for int",
			ty:    reflect.TypeOf(int(0)),
			write: func(w *tokio.Writer) { w.String("nope") },
		},
		{
			desc:  "int overflow",
			ty:    reflect.TypeOf(int8(0)),
			write: func(w *tokio.Writer) { w.Int(1 << 20) },
		},
		{
			desc: "value for member name",
			ty:   reflect.TypeOf(TestStruct1{}),
			write: func(w *tokio.Writer) {
				w.OpenObject()
				w.Int(1)
			},
		},
	}

	for _, tC := range testCases {
		t.Run(tC.desc, func(t *testing.T) {
			w := tokio.NewWriter(0)
			tC.write(w)

			r := new(tokio.Reader)
			r.Feed(w.Bytes())

			b := binding.NewWholeValue(src.NewConverter(tC.ty))
			got := reflect.New(tC.ty)

			var f binding.Frame
			_, err := b.DecodeField(got.UnsafePointer(), &f, r)
			if !errors.Is(err, tokio.ErrMalformed) {
				t.Errorf("wanted %v, got %v", tokio.ErrMalformed, err)
			}
		})
	}
}

func TestConstructionPanics(t *testing.T) {
	expectPanic := func(t *testing.T, want error, run func()) {
		t.Helper()
		defer func() {
			err, ok := recover().(error)
			if !ok || !errors.Is(err, want) {
				t.Errorf("wanted panic with %v, got %v", want, err)
			}
		}()
		run()
	}

	src := convert.NewCachingSource(convert.Options{})

	t.Run("chan", func(t *testing.T) {
		expectPanic(t, tokio.ErrBadType, func() {
			src.NewConverter(reflect.TypeOf(make(chan int)))
		})
	})

	t.Run("non-string map keys", func(t *testing.T) {
		expectPanic(t, tokio.ErrBadType, func() {
			src.NewConverter(reflect.TypeOf(map[int]int(nil)))
		})
	})

	t.Run("non-empty interface", func(t *testing.T) {
		expectPanic(t, tokio.ErrBadType, func() {
			src.NewConverter(reflect.TypeOf((*fmt.Stringer)(nil)).Elem())
		})
	})

	t.Run("two bags", func(t *testing.T) {
		type doubled struct {
			A map[string]interface{} `tokenc:",bag"`
			B map[string]interface{} `tokenc:",bag"`
		}
		expectPanic(t, tokio.ErrBadType, func() {
			src.NewConverter(reflect.TypeOf(doubled{}))
		})
	})

	t.Run("duplicate names", func(t *testing.T) {
		type clash struct {
			A int `tokenc:"n"`
			B int `tokenc:"n"`
		}
		expectPanic(t, tokio.ErrBadType, func() {
			src.NewConverter(reflect.TypeOf(clash{}))
		})
	})
}
