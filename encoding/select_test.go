package encoding

import (
	"testing"

	"github.com/maxpmaxp/pdfreader/model"
)

// buildBFRangeToUnicodeStream returns a ToUnicode CMap stream mapping the
// single byte 0x41 to "Z", uncompressed so no filter decoding is needed.
func buildBFRangeToUnicodeStream() model.ObjStream {
	content := "1 begincodespacerange\n<00> <ff>\nendcodespacerange\n" +
		"1 beginbfchar\n<41> <005A>\nendbfchar\nendcmap\n"
	return model.ObjStream{
		Args:    model.ObjDict{},
		Content: []byte(content),
	}
}

func TestRegistryPrefersToUnicode(t *testing.T) {
	reg := NewRegistry()
	fontDict := model.ObjDict{
		"BaseFont":  model.ObjName("Arial"),
		"Encoding":  model.ObjName("WinAnsiEncoding"),
		"ToUnicode": buildBFRangeToUnicodeStream(),
	}
	d := reg.DecoderFor(nil, fontDict)
	if _, ok := d.(*CMapDecoder); !ok {
		t.Fatalf("DecoderFor with a ToUnicode stream = %T, want *CMapDecoder", d)
	}
	if got := d.Decode("\x41"); got != "Z" {
		t.Fatalf("Decode with ToUnicode present = %q, want %q", got, "Z")
	}
}

func TestRegistryFallsBackToEncodingNameWithoutToUnicode(t *testing.T) {
	reg := NewRegistry()
	fontDict := model.ObjDict{
		"BaseFont": model.ObjName("Arial"),
		"Encoding": model.ObjName("WinAnsiEncoding"),
	}
	d := reg.DecoderFor(nil, fontDict)
	ed, ok := d.(*EncodingDecoder)
	if !ok {
		t.Fatalf("DecoderFor with only /Encoding name = %T, want *EncodingDecoder", d)
	}
	if ed.Base != WinAnsi {
		t.Fatal("EncodingDecoder.Base should be the WinAnsi table")
	}
}

func TestRegistryEncodingDictWithDifferences(t *testing.T) {
	reg := NewRegistry()
	fontDict := model.ObjDict{
		"BaseFont": model.ObjName("Arial"),
		"Encoding": model.ObjDict{
			"BaseEncoding": model.ObjName("WinAnsiEncoding"),
			"Differences": model.ObjArray{model.ObjInt(65), model.ObjName("exclam")},
		},
	}
	d := reg.DecoderFor(nil, fontDict)
	if got := d.Decode("\x41"); got != "!" {
		t.Fatalf("Decode with Differences[65]=/exclam = %q, want %q", got, "!")
	}
}

func TestRegistryStandard14FallsBackToIdentityCMap(t *testing.T) {
	reg := NewRegistry()
	fontDict := model.ObjDict{
		"BaseFont": model.ObjName("Helvetica"),
	}
	d := reg.DecoderFor(nil, fontDict)
	if _, ok := d.(*CMapDecoder); !ok {
		t.Fatalf("DecoderFor for a standard-14 font with no Encoding = %T, want *CMapDecoder (Identity-H)", d)
	}
}

func TestRegistryNonStandardFontWithNoEncodingUsesDefaultDecoder(t *testing.T) {
	reg := NewRegistry()
	fontDict := model.ObjDict{
		"BaseFont": model.ObjName("SomeEmbeddedFont"),
	}
	d := reg.DecoderFor(nil, fontDict)
	if _, ok := d.(DefaultDecoder); !ok {
		t.Fatalf("DecoderFor for a non-standard font with no Encoding/ToUnicode = %T, want DefaultDecoder", d)
	}
}

func TestRegistrySymbolFontFallsBackToStandardTable(t *testing.T) {
	reg := NewRegistry()
	fontDict := model.ObjDict{
		"BaseFont": model.ObjName("Symbol"),
	}
	d := reg.DecoderFor(nil, fontDict)
	ed, ok := d.(*EncodingDecoder)
	if !ok {
		t.Fatalf("DecoderFor for Symbol with no Encoding = %T, want *EncodingDecoder", d)
	}
	if ed.Base != Standard || !ed.ZapfLike {
		t.Fatal("Symbol fallback decoder should use the Standard table with ZapfLike set")
	}
}

func TestRegistryCachesByIndirectReference(t *testing.T) {
	reg := NewRegistry()
	fontDict := model.ObjDict{"BaseFont": model.ObjName("Helvetica")}
	ref := model.ObjIndirectRef{ObjectNumber: 9, GenerationNumber: 0}

	r := stubResolver{dict: fontDict}
	first := reg.DecoderFor(r, ref)
	second := reg.DecoderFor(r, ref)
	if first != second {
		t.Fatal("DecoderFor should cache and return the same Decoder for the same indirect reference")
	}
}

// stubResolver resolves any indirect reference to a fixed dictionary, enough
// to exercise Registry's reference-keyed cache without a real Document.
type stubResolver struct {
	dict model.ObjDict
}

func (s stubResolver) Resolve(model.Object) model.Object {
	return s.dict
}
