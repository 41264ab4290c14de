package encoding

import "strconv"

// glyphNameToRune is a working subset of the Adobe Glyph List (AGL) --
// the common Latin, punctuation and typographic names a PDF's Differences
// array or bfrange glyph-name destination is likely to use. Names outside
// this set fall through to the algorithmic uniXXXX/uXXXXX forms, per spec
// §4.5.
var glyphNameToRune = map[string]rune{
	"space": 0x0020, "exclam": 0x0021, "quotedbl": 0x0022, "numbersign": 0x0023,
	"dollar": 0x0024, "percent": 0x0025, "ampersand": 0x0026, "quotesingle": 0x0027,
	"parenleft": 0x0028, "parenright": 0x0029, "asterisk": 0x002A, "plus": 0x002B,
	"comma": 0x002C, "hyphen": 0x002D, "period": 0x002E, "slash": 0x002F,
	"zero": 0x0030, "one": 0x0031, "two": 0x0032, "three": 0x0033, "four": 0x0034,
	"five": 0x0035, "six": 0x0036, "seven": 0x0037, "eight": 0x0038, "nine": 0x0039,
	"colon": 0x003A, "semicolon": 0x003B, "less": 0x003C, "equal": 0x003D,
	"greater": 0x003E, "question": 0x003F, "at": 0x0040,
	"bracketleft": 0x005B, "backslash": 0x005C, "bracketright": 0x005D,
	"asciicircum": 0x005E, "underscore": 0x005F, "grave": 0x0060,
	"braceleft": 0x007B, "bar": 0x007C, "braceright": 0x007D, "asciitilde": 0x007E,
	"quoteleft": 0x2018, "quoteright": 0x2019, "quotedblleft": 0x201C,
	"quotedblright": 0x201D, "quotesinglbase": 0x201A, "quotedblbase": 0x201E,
	"endash": 0x2013, "emdash": 0x2014, "bullet": 0x2022, "ellipsis": 0x2026,
	"dagger": 0x2020, "daggerdbl": 0x2021, "perthousand": 0x2030,
	"guilsinglleft": 0x2039, "guilsinglright": 0x203A,
	"fi": 0xFB01, "fl": 0xFB02, "florin": 0x0192,
	"Euro": 0x20AC, "trademark": 0x2122, "degree": 0x00B0,
	"copyright": 0x00A9, "registered": 0x00AE, "section": 0x00A7,
	"paragraph": 0x00B6, "periodcentered": 0x00B7, "minus": 0x2212,
	"divide": 0x00F7, "multiply": 0x00D7, "plusminus": 0x00B1,
	"onesuperior": 0x00B9, "twosuperior": 0x00B2, "threesuperior": 0x00B3,
	"onequarter": 0x00BC, "onehalf": 0x00BD, "threequarters": 0x00BE,
	"AE": 0x00C6, "ae": 0x00E6, "OE": 0x0152, "oe": 0x0153,
	"Oslash": 0x00D8, "oslash": 0x00F8, "germandbls": 0x00DF,
	"dotlessi": 0x0131, "Lslash": 0x0141, "lslash": 0x0142,
	"Aacute": 0x00C1, "aacute": 0x00E1, "Agrave": 0x00C0, "agrave": 0x00E0,
	"Acircumflex": 0x00C2, "acircumflex": 0x00E2, "Adieresis": 0x00C4, "adieresis": 0x00E4,
	"Atilde": 0x00C3, "atilde": 0x00E3, "Aring": 0x00C5, "aring": 0x00E5,
	"Ccedilla": 0x00C7, "ccedilla": 0x00E7,
	"Eacute": 0x00C9, "eacute": 0x00E9, "Egrave": 0x00C8, "egrave": 0x00E8,
	"Ecircumflex": 0x00CA, "ecircumflex": 0x00EA, "Edieresis": 0x00CB, "edieresis": 0x00EB,
	"Iacute": 0x00CD, "iacute": 0x00ED, "Igrave": 0x00CC, "igrave": 0x00EC,
	"Icircumflex": 0x00CE, "icircumflex": 0x00EE, "Idieresis": 0x00CF, "idieresis": 0x00EF,
	"Ntilde": 0x00D1, "ntilde": 0x00F1,
	"Oacute": 0x00D3, "oacute": 0x00F3, "Ograve": 0x00D2, "ograve": 0x00F2,
	"Ocircumflex": 0x00D4, "ocircumflex": 0x00F4, "Odieresis": 0x00D6, "odieresis": 0x00F6,
	"Otilde": 0x00D5, "otilde": 0x00F5,
	"Uacute": 0x00DA, "uacute": 0x00FA, "Ugrave": 0x00D9, "ugrave": 0x00F9,
	"Ucircumflex": 0x00DB, "ucircumflex": 0x00FB, "Udieresis": 0x00DC, "udieresis": 0x00FC,
	"Yacute": 0x00DD, "yacute": 0x00FD, "ydieresis": 0x00FF,
}

// runeToGlyphName is the inverse of glyphNameToRune, used to populate
// Table.Names for the standard encodings.
var runeToGlyphName = invertAGL()

func invertAGL() map[rune]string {
	out := make(map[rune]string, len(glyphNameToRune))
	for name, r := range glyphNameToRune {
		if _, exists := out[r]; !exists {
			out[r] = name
		}
	}
	// the ASCII letters' canonical names are the letters themselves, not
	// worth a map entry each; they are added here because fillNamesFromAGL
	// looks up every rune a table assigns, ASCII included.
	for c := rune('A'); c <= 'Z'; c++ {
		out[c] = string(c)
	}
	for c := rune('a'); c <= 'z'; c++ {
		out[c] = string(c)
	}
	return out
}

// ResolveGlyphName implements spec §4.5's glyph-name resolution: composite
// names (a_b.variant) are split on '_' and evaluated component by
// component, each looked up as (font-specific GL if isZapfDingbats) then
// AGL, then uniXXXX, then uXXXXX; unresolved components contribute nothing.
func ResolveGlyphName(name string, isZapfDingbats bool) string {
	// a trailing .variant suffix (e.g. "A.sc") never affects the mapping.
	if dot := indexByte(name, '.'); dot >= 0 {
		name = name[:dot]
	}
	var out []rune
	for _, component := range splitByte(name, '_') {
		if r, ok := resolveComponent(component, isZapfDingbats); ok {
			out = append(out, r)
		}
	}
	return string(out)
}

func resolveComponent(name string, isZapfDingbats bool) (rune, bool) {
	if isZapfDingbats {
		for code, r := range ZapfDingbatsTable.Runes {
			if r != 0 && ZapfDingbatsTable.Names[code] == name {
				return r, true
			}
		}
	}
	if r, ok := glyphNameToRune[name]; ok {
		return r, true
	}
	if len(name) >= 7 && name[:3] == "uni" {
		if r, ok := parseHexRune(name[3:], 4); ok {
			return r, true
		}
	}
	if len(name) >= 5 && name[0] == 'u' {
		if r, ok := parseHexRune(name[1:], 0); ok {
			return r, true
		}
	}
	return 0, false
}

// parseHexRune parses a run of hex digits into a rune. If minLen > 0 it
// consumes complete groups of minLen digits (uniXXXX[XXXX...], one or more
// UTF-16 code units -- the caller only needs the first unit since names.go
// concatenates components already); otherwise it parses the whole string
// (uXXXXX, 4-6 hex digits).
func parseHexRune(hex string, minLen int) (rune, bool) {
	if minLen > 0 {
		if len(hex) < minLen || len(hex)%minLen != 0 {
			return 0, false
		}
		v, err := strconv.ParseInt(hex[:minLen], 16, 32)
		if err != nil {
			return 0, false
		}
		return rune(v), true
	}
	if len(hex) < 4 || len(hex) > 6 {
		return 0, false
	}
	v, err := strconv.ParseInt(hex, 16, 32)
	if err != nil {
		return 0, false
	}
	return rune(v), true
}

func indexByte(s string, b byte) int {
	for i := 0; i < len(s); i++ {
		if s[i] == b {
			return i
		}
	}
	return -1
}

func splitByte(s string, sep byte) []string {
	var out []string
	start := 0
	for i := 0; i < len(s); i++ {
		if s[i] == sep {
			out = append(out, s[start:i])
			start = i + 1
		}
	}
	out = append(out, s[start:])
	return out
}
