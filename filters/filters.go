// Package filters decodes the stream filters defined by ISO 32000-1 7.4:
// ASCII85Decode, ASCIIHexDecode, LZWDecode, FlateDecode, RunLengthDecode,
// CCITTFaxDecode, DCTDecode, JPXDecode, JBIG2Decode and Crypt. Filters are
// applied in declared order (C3): the output of one is the input of the
// next, exactly as a PDF stream's /Filter array lists them.
package filters

import (
	"bytes"
	"fmt"
	"io"

	"github.com/pdfcpu/pdfcpu/pkg/log"
)

// Name is a filter's long PDF name ("FlateDecode"). Inline images may spell
// the same filter with its short alias ("Fl"); NormalizeName maps both onto
// this canonical form, per spec §4.3.
type Name string

const (
	ASCII85Decode   Name = "ASCII85Decode"
	ASCIIHexDecode  Name = "ASCIIHexDecode"
	LZWDecode       Name = "LZWDecode"
	FlateDecode     Name = "FlateDecode"
	RunLengthDecode Name = "RunLengthDecode"
	CCITTFaxDecode  Name = "CCITTFaxDecode"
	DCTDecode       Name = "DCTDecode"
	JPXDecode       Name = "JPXDecode"
	JBIG2Decode     Name = "JBIG2Decode"
	Crypt           Name = "Crypt"
)

// shortAliases maps the abbreviated names legal only inside inline images
// (BI/ID/EI, ISO 32000-1 8.9.7) onto their canonical long form.
var shortAliases = map[Name]Name{
	"AHx": ASCIIHexDecode,
	"A85": ASCII85Decode,
	"LZW": LZWDecode,
	"Fl":  FlateDecode,
	"RL":  RunLengthDecode,
	"CCF": CCITTFaxDecode,
	"DCT": DCTDecode,
	"JPX": JPXDecode,
	"JBIG2": JBIG2Decode,
}

// NormalizeName resolves a short inline-image alias to its canonical name;
// names that are already canonical (or unknown) are returned unchanged.
func NormalizeName(n Name) Name {
	if long, ok := shortAliases[n]; ok {
		return long
	}
	return n
}

// Params is one filter's /DecodeParms dictionary, pre-flattened to the
// handful of integer/boolean/name entries the filters below consume.
// Boolean entries are stored as 0/1, matching the teacher's model.StreamDict
// convention.
type Params map[string]int

// Filter is one element of a stream's filter pipeline.
type Filter struct {
	Name  Name
	Parms Params
}

// Filters is an ordered filter pipeline, applied left to right on decode
// (ISO 32000-1 7.4: "the first filter ... is applied first").
type Filters []Filter

// DecodeReader chains every filter's decoder, returning a reader that
// yields the fully decoded stream bytes. Referenced but never implemented
// in the teacher tree (model.Filters.DecodeReader, called from
// reader/file/streams.go, reader/file/xreftable.go, parser/content_inline_image.go);
// this is the implementation those call sites assumed.
func (fs Filters) DecodeReader(src io.Reader) (io.Reader, error) {
	r := src
	for _, f := range fs {
		var err error
		r, err = decodeOne(f, r)
		if err != nil {
			return nil, fmt.Errorf("filter %s: %w", f.Name, err)
		}
	}
	return r, nil
}

// Decode is the non-streaming convenience form used by callers that already
// hold the encoded bytes in memory (most call sites: a stream's payload has
// already been fully read off disk by the time filters run).
func (fs Filters) Decode(encoded []byte) ([]byte, error) {
	r, err := fs.DecodeReader(bytes.NewReader(encoded))
	if err != nil {
		return nil, err
	}
	return io.ReadAll(r)
}

// DecodeLenient is Decode with the strict/lenient policy of spec §7's
// BrokenEncodedStream kind: in strict mode a decode failure propagates; in
// lenient mode (the default) it is logged and substituted with empty
// bytes, so a broken filter on one stream does not abort the whole
// document.
func (fs Filters) DecodeLenient(encoded []byte, strict bool) ([]byte, error) {
	decoded, err := fs.Decode(encoded)
	if err == nil {
		return decoded, nil
	}
	if strict {
		return nil, err
	}
	log.Parse.Printf("filters: decode failed, substituting empty bytes: %v", err)
	return nil, nil
}

func decodeOne(f Filter, src io.Reader) (io.Reader, error) {
	switch NormalizeName(f.Name) {
	case ASCII85Decode:
		return newASCII85Reader(src), nil
	case ASCIIHexDecode:
		return newASCIIHexReader(src), nil
	case LZWDecode:
		earlyChange := true
		if v, ok := f.Parms["EarlyChange"]; ok && v == 0 {
			earlyChange = false
		}
		return processFlateParams(f.Parms).decodePostProcess(lzwDecoder(earlyChange, src))
	case FlateDecode:
		return flateDecoder(processFlateParams(f.Parms), src)
	case RunLengthDecode:
		return runLengthDecoder(src)
	case CCITTFaxDecode, DCTDecode, JPXDecode, JBIG2Decode:
		// Pixel decoding is out of scope (spec §1 Non-goals); the encoded
		// image bytes are the content an Image XObject/renderer consumes
		// directly, so these filters are byte-identity passthroughs.
		log.Parse.Printf("filters: %s is passed through undecoded (image-pixel decoding out of scope)", f.Name)
		return src, nil
	case Crypt:
		// Decryption happens upstream of the filter pipeline (security
		// package); by the time Filters.Decode runs, a Crypt filter entry
		// is a no-op marker.
		return src, nil
	default:
		return nil, fmt.Errorf("unsupported filter %q", f.Name)
	}
}
