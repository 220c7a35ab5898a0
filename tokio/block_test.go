package tokio_test

import (
	"bytes"
	"errors"
	"io"
	"math/rand"
	"testing"

	"github.com/maxatome/go-testdeep/td"
	"github.com/stewi1014/tokenc/tokio"
)

func TestBlock(t *testing.T) {
	buff := new(bytes.Buffer)

	writer := tokio.NewBlockWriter(buff)
	reader := tokio.NewBlockReader(buff)

	maxlen := 100000

	rng := rand.New(rand.NewSource(256))
	send := make([]byte, maxlen)
	receive := make([]byte, maxlen)

	for i := 0; i < 10; i++ {
		l := rng.Intn(maxlen-1) + 1
		send = send[:l]
		for j := 0; j < l; j++ {
			send[j] = byte(rng.Uint32())
		}

		if err := tokio.Write(send, writer); err != nil {
			t.Error(err)
		}

		n, err := reader.Read(receive)
		if err != nil && !errors.Is(err, io.EOF) {
			t.Error(err)
		}

		if !td.Cmp(t, receive[:n], send) {
			t.Errorf("Got: %v\n Wanted: %v", receive[:n], send)
		}

		if buff.Len() != 0 {
			t.Errorf("data remaining in buffer %v", buff.Bytes())
		}
	}
}

func TestBlockEOF(t *testing.T) {
	reader := tokio.NewBlockReader(new(bytes.Buffer))

	if _, err := reader.Read(make([]byte, 16)); !errors.Is(err, io.EOF) {
		t.Errorf("wanted %v, got %v", io.EOF, err)
	}
}

func TestBlockCorrupt(t *testing.T) {
	buff := new(bytes.Buffer)
	buff.Write([]byte{4, 0xff, 0xff, 0xff, 0xff})

	reader := tokio.NewBlockReader(buff)
	if _, err := reader.Read(make([]byte, 16)); !errors.Is(err, tokio.ErrMalformed) {
		t.Errorf("wanted %v, got %v", tokio.ErrMalformed, err)
	}
}

func BenchmarkBlockWrite(b *testing.B) {
	l := 32

	writer := tokio.NewBlockWriter(io.Discard)
	send := make([]byte, l)

	rng := rand.New(rand.NewSource(256))
	for j := 0; j < l; j++ {
		send[j] = byte(rng.Uint32())
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if err := tokio.Write(send, writer); err != nil {
			b.Fatal(err)
		}
	}
}
