package internal

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// ErrUnknownEncoding is returned for encoding names the WHATWG index does not know.
var ErrUnknownEncoding = errors.New("unknown encoding")

// LookupEncoding resolves a label such as "utf-8", "latin1" or "shift_jis".
// An empty name means UTF-8.
func LookupEncoding(name string) (encoding.Encoding, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return unicode.UTF8, nil
	}
	enc, err := htmlindex.Get(name)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownEncoding, name)
	}
	return enc, nil
}

// DecodeReader wraps r so that it yields UTF-8. Invalid byte sequences become
// U+FFFD; the policy is fixed per source when the reader is built.
func DecodeReader(r io.Reader, enc encoding.Encoding) io.Reader {
	if enc == nil {
		enc = unicode.UTF8
	}
	return transform.NewReader(r, enc.NewDecoder())
}

// decodeChunk converts as much of src as forms complete characters and
// reports how many source bytes it consumed. dec keeps its state between
// calls, so a chunk boundary may fall inside a character. Used by follow
// mode, which decodes appended bytes before splitting them into lines.
func decodeChunk(dec *encoding.Decoder, src []byte) ([]byte, int, error) {
	dst := make([]byte, 3*len(src)+utf8.UTFMax)
	var out []byte
	used := 0
	for {
		nDst, nSrc, err := dec.Transform(dst, src[used:], false)
		out = append(out, dst[:nDst]...)
		used += nSrc
		switch {
		case err == nil, errors.Is(err, transform.ErrShortSrc):
			return out, used, nil
		case errors.Is(err, transform.ErrShortDst):
			if nDst == 0 && nSrc == 0 {
				dst = make([]byte, 2*len(dst))
			}
		default:
			return out, used, err
		}
	}
}
