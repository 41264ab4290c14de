package filters

import (
	"bufio"
	"bytes"
	"errors"
	"io"
)

const eodRunLength = 0x80

// runLengthDecoder implements RunLengthDecode (ISO 32000-1 7.4.5): a length
// byte 0-127 is followed by that many+1 literal bytes; a length byte
// 129-255 is followed by one byte to be repeated 257-length times; 128 is
// the end-of-data marker. Ported from
// reader/parser/filters/runLengthDecode.go's decode loop, which already
// writes to an arbitrary io.ByteWriter.
func runLengthDecoder(src io.Reader) (io.Reader, error) {
	br := bufio.NewReader(src)
	var out bytes.Buffer
	for {
		b, err := br.ReadByte()
		if err != nil {
			return nil, unexpectedEOF(err)
		}
		if b == eodRunLength {
			return &out, nil
		}
		if b < 0x80 {
			n := int(b) + 1
			if _, err := io.CopyN(&out, br, int64(n)); err != nil {
				return nil, unexpectedEOF(err)
			}
			continue
		}
		n := 257 - int(b)
		c, err := br.ReadByte()
		if err != nil {
			return nil, unexpectedEOF(err)
		}
		for i := 0; i < n; i++ {
			out.WriteByte(c)
		}
	}
}

func unexpectedEOF(err error) error {
	if errors.Is(err, io.EOF) {
		return errors.New("runlength: missing end-of-data marker")
	}
	return err
}
