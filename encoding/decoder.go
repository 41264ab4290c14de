package encoding

import (
	"github.com/maxpmaxp/pdfreader/cmap"
	"github.com/maxpmaxp/pdfreader/model"
)

// Decoder turns a PDF string's raw bytes (as found in Tj/TJ operands) into
// Unicode text, per spec §4.5.
type Decoder interface {
	Decode(raw string) string
}

// standard14Names lists the fourteen PostScript fonts a viewer must be able
// to render without an embedded font program, per ISO 32000-1 9.6.2.2.
var standard14Names = map[string]bool{
	"Courier": true, "Courier-Bold": true, "Courier-Oblique": true, "Courier-BoldOblique": true,
	"Helvetica": true, "Helvetica-Bold": true, "Helvetica-Oblique": true, "Helvetica-BoldOblique": true,
	"Times-Roman": true, "Times-Bold": true, "Times-Italic": true, "Times-BoldItalic": true,
	"Symbol": true, "ZapfDingbats": true,
}

// IsStandard14 reports whether name is one of the 14 standard PostScript
// font names.
func IsStandard14(name string) bool { return standard14Names[name] }

// EncodingDecoder decodes single-byte codes via a base Table, overlaid with
// a per-font Differences map (spec §4.5).
type EncodingDecoder struct {
	Base        *Table
	Differences map[byte]string // code -> glyph name, from a Differences array
	ZapfLike    bool            // the font is Symbol/ZapfDingbats-flavored for glyph-name resolution
}

func (d *EncodingDecoder) Decode(raw string) string {
	out := make([]rune, 0, len(raw))
	for i := 0; i < len(raw); i++ {
		b := raw[i]
		if name, ok := d.Differences[b]; ok {
			if r := ResolveGlyphName(name, d.ZapfLike); r != "" {
				out = append(out, []rune(r)...)
				continue
			}
		}
		if r := d.Base.Runes[b]; r != 0 {
			out = append(out, r)
			continue
		}
		out = append(out, rune(b)) // latin-1 fallback, per spec §4.5's "Default decoder"
	}
	return string(out)
}

// NewDifferences builds a code->name overlay from a PDF Differences array:
// a flat list of (code-or-name)* where an integer starts a new run and each
// following name applies to consecutive codes starting there, per ISO
// 32000-1 9.6.6.2.
func NewDifferences(r model.Resolver, arr model.ObjArray) map[byte]string {
	out := map[byte]string{}
	code := 0
	for _, e := range arr {
		switch v := model.Deref(r, e).(type) {
		case model.ObjInt:
			code = int(v)
		case model.ObjFloat:
			code = int(v)
		case model.ObjName:
			out[byte(code)] = string(v)
			code++
		}
	}
	return out
}

// BaseTableByName resolves one of the four standard encoding names to its
// Table, defaulting to Standard when name is empty or unrecognized (spec
// §9's Open Question on the implicit-base fallback).
func BaseTableByName(name model.Name) *Table {
	switch name {
	case "WinAnsiEncoding":
		return WinAnsi
	case "MacRomanEncoding":
		return MacRoman
	case "MacExpertEncoding":
		return Standard // MacExpert is a specialist small-caps encoding out of this module's scope; Standard is the closest safe fallback.
	case "StandardEncoding":
		return Standard
	default:
		return Standard
	}
}

// CMapDecoder decodes multi-byte codes through a cmap.CMap's bf ranges,
// falling back to a single-byte decoder for the leading byte when no bf
// range matches, per spec §4.5's decode_hexstring algorithm.
type CMapDecoder struct {
	CM       *cmap.CMap
	Fallback Decoder // used when a prefix has no bf mapping; may be nil
}

func (d *CMapDecoder) Decode(raw string) string {
	data := []byte(raw)
	var out []rune
	for len(data) > 0 {
		n, ok := d.CM.MatchLength(data)
		if !ok {
			n = 1 // no codespace declared for this prefix: consume one byte
		}
		if n > len(data) {
			n = len(data)
		}
		code := data[:n]
		if text, ok := d.CM.LookupBF(code); ok {
			out = append(out, []rune(text)...)
			data = data[n:]
			continue
		}
		// fall back to the first byte through the encoding decoder and
		// re-queue the remainder, per spec §4.5.
		if d.Fallback != nil {
			out = append(out, []rune(d.Fallback.Decode(string(data[:1])))...)
		} else {
			out = append(out, rune(data[0]))
		}
		data = data[1:]
	}
	return string(out)
}

// DefaultDecoder is the latin-1 fallback for fonts with no Encoding, no
// ToUnicode, and a non-standard-14 BaseFont, per spec §4.5's last row.
type DefaultDecoder struct{}

func (DefaultDecoder) Decode(raw string) string {
	out := make([]rune, len(raw))
	for i := 0; i < len(raw); i++ {
		out[i] = rune(raw[i])
	}
	return string(out)
}
