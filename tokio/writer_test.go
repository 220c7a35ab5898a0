package tokio_test

import (
	"bytes"
	"errors"
	"testing"

	"github.com/maxatome/go-testdeep/td"
	"github.com/stewi1014/tokenc/tokio"
)

func TestWriterDepth(t *testing.T) {
	w := tokio.NewWriter(0)

	w.OpenObject()
	w.OpenArray()
	td.Cmp(t, w.Depth(), 2)

	// Reset drops bytes, not structural position.
	w.Reset()
	td.Cmp(t, w.Depth(), 2)
	td.Cmp(t, w.Len(), 0)

	w.CloseArray()
	w.CloseObject()
	td.Cmp(t, w.Depth(), 0)
}

func TestWriterFull(t *testing.T) {
	w := tokio.NewWriter(4)
	if w.Full() {
		t.Error("empty writer reports full")
	}

	w.Int(1)
	if w.Full() {
		t.Error("writer below limit reports full")
	}

	w.String("hello world")
	if !w.Full() {
		t.Error("writer past limit does not report full")
	}

	w.Reset()
	if w.Full() {
		t.Error("reset writer reports full")
	}

	unlimited := tokio.NewWriter(0)
	unlimited.String("hello world")
	if unlimited.Full() {
		t.Error("unlimited writer reports full")
	}
}

func TestCloseAtDepthZero(t *testing.T) {
	defer func() {
		err, ok := recover().(error)
		if !ok || !errors.Is(err, tokio.ErrUnbalanced) {
			t.Errorf("wanted %v, got %v", tokio.ErrUnbalanced, err)
		}
	}()

	w := tokio.NewWriter(0)
	w.CloseObject()
}

func TestAppendName(t *testing.T) {
	w := tokio.NewWriter(0)
	w.NameString("tag")

	if !bytes.Equal(tokio.AppendName(nil, "tag"), w.Bytes()) {
		t.Errorf("AppendName got %v, NameString wrote %v", tokio.AppendName(nil, "tag"), w.Bytes())
	}
}
