package filters

import (
	"bufio"
	"io"
)

// ascii85Reader decodes the PDF flavor of ASCII85 (ISO 32000-1 7.4.3): five
// ASCII bytes in [!..u] encode four binary bytes, 'z' alone encodes four
// zero bytes, and the stream ends at the two-byte marker "~>".
type ascii85Reader struct {
	src  *bufio.Reader
	pend []byte // decoded bytes not yet returned to the caller
	done bool
}

func newASCII85Reader(src io.Reader) io.Reader {
	return &ascii85Reader{src: bufio.NewReader(src)}
}

func (r *ascii85Reader) Read(p []byte) (int, error) {
	for len(r.pend) == 0 {
		if r.done {
			return 0, io.EOF
		}
		if err := r.fillGroup(); err != nil {
			return 0, err
		}
	}
	n := copy(p, r.pend)
	r.pend = r.pend[n:]
	return n, nil
}

func (r *ascii85Reader) fillGroup() error {
	var group [5]byte
	n := 0
	for n < 5 {
		b, err := r.src.ReadByte()
		if err != nil {
			if n == 0 && err != io.EOF {
				return err
			}
			// the input ended before the "~>" terminator
			return io.ErrUnexpectedEOF
		}
		switch {
		case b == '~':
			// expect trailing '>'
			if nxt, _ := r.src.ReadByte(); nxt != '>' {
				return io.ErrUnexpectedEOF
			}
			r.done = true
			if n == 0 {
				return io.EOF
			}
			r.pend = decodeGroup(group[:n], n)
			return nil
		case b == 'z' && n == 0:
			r.pend = []byte{0, 0, 0, 0}
			return nil
		case b == ' ' || b == '\t' || b == '\r' || b == '\n' || b == '\f' || b == 0:
			continue // whitespace is ignored anywhere in the stream
		case b < '!' || b > 'u':
			continue // tolerate stray bytes rather than failing the whole stream
		default:
			group[n] = b
			n++
		}
	}
	r.pend = decodeGroup(group[:], 5)
	return nil
}

// decodeGroup converts n (1..5) base-85 digits into 4 (or n-1, for the final
// short group) output bytes, padding missing input digits with 'u' (84) per
// the spec.
func decodeGroup(group []byte, n int) []byte {
	var padded [5]byte
	copy(padded[:], group)
	for i := n; i < 5; i++ {
		padded[i] = 'u'
	}
	var v uint32
	for _, b := range padded {
		v = v*85 + uint32(b-'!')
	}
	var out [4]byte
	out[0] = byte(v >> 24)
	out[1] = byte(v >> 16)
	out[2] = byte(v >> 8)
	out[3] = byte(v)
	if n == 5 {
		return out[:]
	}
	return out[:n-1]
}
