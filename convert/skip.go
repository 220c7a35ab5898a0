package convert

import (
	"fmt"

	"github.com/stewi1014/tokenc/binding"
	"github.com/stewi1014/tokenc/tokio"
)

// skipValue consumes one value from r without decoding it, counting structural depth in
// f.Depth. Like everything else it suspends when the buffered tokens run out and resumes
// from the frame.
func skipValue(f *binding.Frame, r *tokio.Reader) (bool, error) {
	for {
		tok, ok, err := r.Next()
		if err != nil || !ok {
			return false, err
		}

		switch tok.Kind {
		case tokio.ObjOpen, tokio.ArrOpen:
			f.Depth++
			continue
		case tokio.ObjClose, tokio.ArrClose:
			f.Depth--
			if f.Depth < 0 {
				return false, tokio.NewError(tokio.ErrMalformed, fmt.Sprintf("unexpected %v token", tok.Kind), 0)
			}
		case tokio.Name:
			continue
		}

		if f.Depth == 0 {
			return true, nil
		}
	}
}
