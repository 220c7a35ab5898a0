// tokenc - token stream inspection tool
//
// Usage:
//
//	tokenc [--block] [file]
//
// Prints the tokens of a tokenc stream, one per line, indented by structural depth.
// With --block the stream is unwrapped from compressed block framing first.
// If no file is given, reads from stdin.
package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/pflag"

	"github.com/stewi1014/tokenc/tokio"
)

func main() {
	block := pflag.Bool("block", false, "unwrap compressed block framing")
	pflag.Parse()

	var input io.Reader = os.Stdin
	if args := pflag.Args(); len(args) > 0 && args[0] != "-" {
		f, err := os.Open(args[0])
		if err != nil {
			fatal("open file: %v", err)
		}
		defer f.Close()
		input = f
	}

	if *block {
		input = tokio.NewBlockReader(input)
	}

	if err := dump(input, os.Stdout); err != nil {
		fatal("%v", err)
	}
}

func dump(in io.Reader, out io.Writer) error {
	r := new(tokio.Reader)
	chunk := make([]byte, 4096)
	depth := 0
	eof := false

	for {
		tok, ok, err := r.Next()
		if err != nil {
			return err
		}
		if !ok {
			if eof {
				if r.Len() > 0 {
					return fmt.Errorf("%v trailing bytes at end of stream", r.Len())
				}
				return nil
			}
			n, err := in.Read(chunk)
			if n > 0 {
				r.Feed(chunk[:n])
			}
			if err == io.EOF {
				eof = true
			} else if err != nil {
				return err
			}
			continue
		}

		switch tok.Kind {
		case tokio.ObjClose, tokio.ArrClose:
			depth--
			if depth < 0 {
				return fmt.Errorf("unbalanced %v token", tok.Kind)
			}
		}

		fmt.Fprintf(out, "%s%s", strings.Repeat("  ", depth), tok.Kind)
		switch tok.Kind {
		case tokio.Int:
			fmt.Fprintf(out, " %v", tok.Int)
		case tokio.Uint:
			fmt.Fprintf(out, " %v", tok.Uint)
		case tokio.Float:
			fmt.Fprintf(out, " %v", tok.Float)
		case tokio.String, tokio.Name:
			fmt.Fprintf(out, " %q", tok.Str)
		}
		fmt.Fprintln(out)

		switch tok.Kind {
		case tokio.ObjOpen, tokio.ArrOpen:
			depth++
		}
	}
}

func fatal(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "tokenc: "+format+"\n", args...)
	os.Exit(1)
}
