package filters

import (
	"bufio"
	"io"
)

// asciiHexReader decodes ASCIIHexDecode (ISO 32000-1 7.4.2): pairs of hex
// digits, whitespace ignored, terminated by '>'. A trailing lone digit is
// completed with an implicit '0'.
type asciiHexReader struct {
	src  *bufio.Reader
	done bool
}

func newASCIIHexReader(src io.Reader) io.Reader {
	return &asciiHexReader{src: bufio.NewReader(src)}
}

func (r *asciiHexReader) Read(p []byte) (int, error) {
	n := 0
	for n < len(p) {
		if r.done {
			if n == 0 {
				return 0, io.EOF
			}
			return n, nil
		}
		hi, ok := r.nextHexDigit()
		if !ok {
			r.done = true
			if n == 0 {
				return 0, io.EOF
			}
			return n, nil
		}
		lo, ok := r.nextHexDigit()
		if !ok {
			r.done = true
			lo = 0
		}
		p[n] = hi<<4 | lo
		n++
	}
	return n, nil
}

// nextHexDigit returns the next hex digit, skipping whitespace; ok is false
// at '>' or EOF.
func (r *asciiHexReader) nextHexDigit() (byte, bool) {
	for {
		b, err := r.src.ReadByte()
		if err != nil || b == '>' {
			return 0, false
		}
		switch {
		case b >= '0' && b <= '9':
			return b - '0', true
		case b >= 'a' && b <= 'f':
			return b - 'a' + 10, true
		case b >= 'A' && b <= 'F':
			return b - 'A' + 10, true
		default:
			continue // whitespace, or anything stray: skip
		}
	}
}
