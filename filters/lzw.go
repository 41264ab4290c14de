package filters

import (
	"io"

	"github.com/hhrutter/lzw"
)

// lzwDecoder wraps the hhrutter/lzw implementation, which (unlike the
// standard library's compress/lzw) understands the PDF/TIFF variable-width
// early-change convention used by LZWDecode, per spec §4.3. Grounded on
// reader/parser/filters/lzwDecode.go.
func lzwDecoder(earlyChange bool, src io.Reader) io.Reader {
	return lzw.NewReader(src, earlyChange)
}
