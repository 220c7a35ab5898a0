package tokio

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/klauspost/compress/s2"
)

// NewBlockWriter returns a new BlockWriter writing to w.
func NewBlockWriter(w io.Writer) *BlockWriter {
	return &BlockWriter{w: w}
}

// BlockWriter frames and compresses payloads. Each call to Write produces one
// self-contained block: a varint length followed by the s2-compressed payload.
// Blocks written by any number of BlockWriters can be concatenated on the same stream and
// read back with BlockReader.
type BlockWriter struct {
	w    io.Writer
	comp []byte
	head [binary.MaxVarintLen64]byte
}

// Write implements io.Writer.
// The payload is compressed and written as a single block.
func (b *BlockWriter) Write(buff []byte) (int, error) {
	if len(buff) == 0 {
		return 0, nil
	}

	b.comp = s2.Encode(b.comp[:0], buff)

	n := binary.PutUvarint(b.head[:], uint64(len(b.comp)))
	if err := Write(b.head[:n], b.w); err != nil {
		return 0, err
	}
	if err := Write(b.comp, b.w); err != nil {
		return 0, err
	}
	return len(buff), nil
}

// NewBlockReader returns a new BlockReader reading blocks written by BlockWriter from r.
func NewBlockReader(r io.Reader) *BlockReader {
	return &BlockReader{r: bufio.NewReader(r)}
}

// BlockReader decompresses a stream of blocks written by BlockWriter.
type BlockReader struct {
	r    *bufio.Reader
	comp []byte
	out  []byte
	off  int
}

// Read implements io.Reader.
// It returns the decompressed contents of one block at a time.
func (b *BlockReader) Read(buff []byte) (int, error) {
	if b.off == len(b.out) {
		if err := b.next(); err != nil {
			return 0, err
		}
	}

	n := copy(buff, b.out[b.off:])
	b.off += n
	return n, nil
}

func (b *BlockReader) next() error {
	l, err := binary.ReadUvarint(b.r)
	if err != nil {
		if err == io.EOF {
			return io.EOF
		}
		return NewIOError(err, "reading block header")
	}
	if l > TooBig {
		return NewIOError(ErrMalformed, fmt.Sprintf("%v byte block is too big", l))
	}

	if uint64(cap(b.comp)) < l {
		b.comp = make([]byte, l)
	}
	b.comp = b.comp[:l]
	if _, err := io.ReadFull(b.r, b.comp); err != nil {
		return NewIOError(err, "reading block body")
	}

	b.out, err = s2.Decode(b.out[:cap(b.out)], b.comp)
	if err != nil {
		return NewIOError(ErrMalformed, "corrupt block: "+err.Error())
	}
	b.off = 0
	return nil
}
