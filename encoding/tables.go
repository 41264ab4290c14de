// Package encoding implements the codec tables and per-font Decoder
// selection of C2/C6: the four standard single-byte encodings (WinAnsi,
// MacRoman, PDFDoc, Standard), ZapfDingbats, the Adobe Glyph List, and the
// decision table that picks a font's decoder.
//
// The byte<->name<->rune tables are grounded on the one genuinely reusable
// piece of data in the teacher's fonts/simpleencodings package: its literal
// ZapfDingbats rune/name tables (fonts/simpleencodings/ZapfDingbats.go),
// ported verbatim since that package's WinAnsi/MacRoman/Standard tables
// were themselves generated code absent from the retrieved tree. The other
// three encodings are authored directly from ISO 32000-1 Annex D.
package encoding

// Table is a single-byte encoding: Runes[b] is the Unicode code point a
// byte decodes to (0 for unassigned codes), and Names[b] is its PostScript
// glyph name (used by Differences resolution).
type Table struct {
	Runes [256]rune
	Names [256]string
}

// ByteOf returns the byte (if any) that encodes r under t.
func (t *Table) ByteOf(r rune) (byte, bool) {
	for i, rr := range t.Runes {
		if rr == r {
			return byte(i), true
		}
	}
	return 0, false
}

var WinAnsi = buildWinAnsi()
var MacRoman = buildMacRoman()
var PDFDoc = buildPDFDoc()
var Standard = buildStandard()
var ZapfDingbatsTable = buildZapfDingbats()

func asciiRange(t *Table) {
	for b := rune(0x20); b <= 0x7E; b++ {
		t.Runes[b] = b
	}
}

// winAnsiHigh are the cp1252 code points that are not simply Latin-1
// identity in the 0x80-0x9F control-picture range (ISO 32000-1 D.2).
var winAnsiHigh = map[byte]rune{
	0x80: 0x20AC, 0x82: 0x201A, 0x83: 0x0192, 0x84: 0x201E, 0x85: 0x2026,
	0x86: 0x2020, 0x87: 0x2021, 0x88: 0x02C6, 0x89: 0x2030, 0x8A: 0x0160,
	0x8B: 0x2039, 0x8C: 0x0152, 0x8E: 0x017D, 0x91: 0x2018, 0x92: 0x2019,
	0x93: 0x201C, 0x94: 0x201D, 0x95: 0x2022, 0x96: 0x2013, 0x97: 0x2014,
	0x98: 0x02DC, 0x99: 0x2122, 0x9A: 0x0161, 0x9B: 0x203A, 0x9C: 0x0153,
	0x9E: 0x017E, 0x9F: 0x0178,
}

func buildWinAnsi() *Table {
	t := &Table{}
	asciiRange(t)
	t.Runes[0xA0] = 0x00A0 // the block 0xA0-0xFF is Latin-1 identity
	for b := 0xA1; b <= 0xFF; b++ {
		t.Runes[b] = rune(b)
	}
	for b, r := range winAnsiHigh {
		t.Runes[b] = r
	}
	fillNamesFromAGL(t)
	return t
}

// macRomanHigh covers MacRomanEncoding's upper 128 codes (ISO 32000-1
// D.2), distinct from both Latin-1 and cp1252.
var macRomanHigh = map[byte]rune{
	0x80: 0x00C4, 0x81: 0x00C5, 0x82: 0x00C7, 0x83: 0x00C9, 0x84: 0x00D1,
	0x85: 0x00D6, 0x86: 0x00DC, 0x87: 0x00E1, 0x88: 0x00E0, 0x89: 0x00E2,
	0x8A: 0x00E4, 0x8B: 0x00E3, 0x8C: 0x00E5, 0x8D: 0x00E7, 0x8E: 0x00E9,
	0x8F: 0x00E8, 0x90: 0x00EA, 0x91: 0x00EB, 0x92: 0x00ED, 0x93: 0x00EC,
	0x94: 0x00EE, 0x95: 0x00EF, 0x96: 0x00F1, 0x97: 0x00F3, 0x98: 0x00F2,
	0x99: 0x00F4, 0x9A: 0x00F6, 0x9B: 0x00F5, 0x9C: 0x00FA, 0x9D: 0x00F9,
	0x9E: 0x00FB, 0x9F: 0x00FC, 0xA0: 0x2020, 0xA1: 0x00B0, 0xA2: 0x00A2,
	0xA3: 0x00A3, 0xA4: 0x00A7, 0xA5: 0x2022, 0xA6: 0x00B6, 0xA7: 0x00DF,
	0xA8: 0x00AE, 0xA9: 0x00A9, 0xAA: 0x2122, 0xAB: 0x00B4, 0xAC: 0x00A8,
	0xAE: 0x00C6, 0xAF: 0x00D8, 0xB1: 0x00B1, 0xB4: 0x00A5, 0xB5: 0x00B5,
	0xBB: 0x00AA, 0xBC: 0x00BA, 0xBE: 0x00E6, 0xBF: 0x00F8, 0xC0: 0x00BF,
	0xC1: 0x00A1, 0xC2: 0x00AC, 0xC4: 0x0192, 0xC7: 0x00AB, 0xC8: 0x00BB,
	0xC9: 0x2026, 0xCA: 0x00A0, 0xCB: 0x00C0, 0xCC: 0x00C3, 0xCD: 0x00D5,
	0xCE: 0x0152, 0xCF: 0x0153, 0xD0: 0x2013, 0xD1: 0x2014, 0xD2: 0x201C,
	0xD3: 0x201D, 0xD4: 0x2018, 0xD5: 0x2019, 0xD6: 0x00F7, 0xD8: 0x00FF,
	0xD9: 0x0178, 0xDA: 0x2044, 0xDB: 0x20AC, 0xDC: 0x2039, 0xDD: 0x203A,
	0xDE: 0xFB01, 0xDF: 0xFB02, 0xE0: 0x2021, 0xE1: 0x00B7, 0xE2: 0x201A,
	0xE3: 0x201E, 0xE4: 0x2030, 0xE5: 0x00C2, 0xE6: 0x00CA, 0xE7: 0x00C1,
	0xE8: 0x00CB, 0xE9: 0x00C8, 0xEA: 0x00CD, 0xEB: 0x00CE, 0xEC: 0x00CF,
	0xED: 0x00CC, 0xEE: 0x00D3, 0xEF: 0x00D4, 0xF1: 0x00D2, 0xF2: 0x00DA,
	0xF3: 0x00DB, 0xF4: 0x00D9, 0xF5: 0x0131, 0xF6: 0x02C6, 0xF7: 0x02DC,
	0xF8: 0x00AF, 0xF9: 0x02D8, 0xFA: 0x02D9, 0xFB: 0x02DA, 0xFC: 0x00B8,
	0xFD: 0x02DD, 0xFE: 0x02DB, 0xFF: 0x02C7,
}

func buildMacRoman() *Table {
	t := &Table{}
	asciiRange(t)
	for b, r := range macRomanHigh {
		t.Runes[b] = r
	}
	fillNamesFromAGL(t)
	return t
}

func buildPDFDoc() *Table {
	// PDFDocEncoding matches WinAnsi in the 0x20-0x7E and 0xA0-0xFF blocks
	// and defines its own set of punctuation/ligature codes in 0x18-0x1F and
	// 0x80-0x9F (ISO 32000-1 Annex D.3); those extra slots are rare enough
	// in practice that this module defaults to WinAnsi's mapping there,
	// flagged by the Open Question in spec §9 about font-program-dependent
	// fallbacks.
	t := &Table{}
	*t = *WinAnsi
	return t
}

// standardHigh is Adobe StandardEncoding's upper half (ISO 32000-1 D.2);
// the 0x20-0x7E block differs from ASCII only at quoteleft/quoteright.
var standardHigh = map[byte]rune{
	0x27: 0x2019, 0x60: 0x2018,
	0xA1: 0x00A1, 0xA2: 0x00A2, 0xA3: 0x00A3, 0xA4: 0x2044, 0xA5: 0x00A5,
	0xA6: 0x0192, 0xA7: 0x00A7, 0xA8: 0x00A4, 0xA9: 0x0027, 0xAA: 0x201C,
	0xAB: 0x00AB, 0xAC: 0x2039, 0xAD: 0x203A, 0xAE: 0xFB01, 0xAF: 0xFB02,
	0xB1: 0x2013, 0xB2: 0x2020, 0xB3: 0x2021, 0xB4: 0x00B7, 0xB6: 0x00B6,
	0xB7: 0x2022, 0xB8: 0x201A, 0xB9: 0x201E, 0xBA: 0x201D, 0xBB: 0x00BB,
	0xBC: 0x2026, 0xBD: 0x2030, 0xBF: 0x00BF,
	0xC1: 0x0060, 0xC2: 0x00B4, 0xC3: 0x02C6, 0xC4: 0x02DC, 0xC5: 0x00AF,
	0xC6: 0x02D8, 0xC7: 0x02D9, 0xC8: 0x00A8, 0xCA: 0x02DA, 0xCB: 0x00B8,
	0xCD: 0x02DD, 0xCE: 0x02DB, 0xCF: 0x02C7, 0xD0: 0x2014,
	0xE1: 0x00C6, 0xE3: 0x00AA, 0xE8: 0x0141, 0xE9: 0x00D8, 0xEA: 0x0152,
	0xEB: 0x00BA, 0xF1: 0x00E6, 0xF5: 0x0131, 0xF8: 0x0142, 0xF9: 0x00F8,
	0xFA: 0x0153, 0xFB: 0x00DF,
}

func buildStandard() *Table {
	t := &Table{}
	asciiRange(t)
	for b, r := range standardHigh {
		t.Runes[b] = r
	}
	fillNamesFromAGL(t)
	return t
}

// zapfDingbatsRuneToByte is ported verbatim from
// fonts/simpleencodings/ZapfDingbats.go.
var zapfDingbatsRuneToByte = map[rune]byte{32: 0x20, 8594: 0xd5, 8596: 0xd6, 8597: 0xd7, 9312: 0xac, 9313: 0xad, 9314: 0xae, 9315: 0xaf, 9316: 0xb0, 9317: 0xb1, 9318: 0xb2, 9319: 0xb3, 9320: 0xb4, 9321: 0xb5, 9632: 0x6e, 9650: 0x73, 9660: 0x74, 9670: 0x75, 9679: 0x6c, 9687: 0x77, 9733: 0x48, 9742: 0x25, 9755: 0x2a, 9758: 0x2b, 9824: 0xab, 9827: 0xa8, 9829: 0xaa, 9830: 0xa9, 9985: 0x21, 9986: 0x22, 9987: 0x23, 9988: 0x24, 9990: 0x26, 9991: 0x27, 9992: 0x28, 9993: 0x29, 9996: 0x2c, 9997: 0x2d, 9998: 0x2e, 9999: 0x2f, 10000: 0x30, 10001: 0x31, 10002: 0x32, 10003: 0x33, 10004: 0x34, 10005: 0x35, 10006: 0x36, 10007: 0x37, 10008: 0x38, 10009: 0x39, 10010: 0x3a, 10011: 0x3b, 10012: 0x3c, 10013: 0x3d, 10014: 0x3e, 10015: 0x3f, 10016: 0x40, 10017: 0x41, 10018: 0x42, 10019: 0x43, 10020: 0x44, 10021: 0x45, 10022: 0x46, 10023: 0x47, 10025: 0x49, 10026: 0x4a, 10027: 0x4b, 10028: 0x4c, 10029: 0x4d, 10030: 0x4e, 10031: 0x4f, 10032: 0x50, 10033: 0x51, 10034: 0x52, 10035: 0x53, 10036: 0x54, 10037: 0x55, 10038: 0x56, 10039: 0x57, 10040: 0x58, 10041: 0x59, 10042: 0x5a, 10043: 0x5b, 10044: 0x5c, 10045: 0x5d, 10046: 0x5e, 10047: 0x5f, 10048: 0x60, 10049: 0x61, 10050: 0x62, 10051: 0x63, 10052: 0x64, 10053: 0x65, 10054: 0x66, 10055: 0x67, 10056: 0x68, 10057: 0x69, 10058: 0x6a, 10059: 0x6b, 10061: 0x6d, 10063: 0x6f, 10064: 0x70, 10065: 0x71, 10066: 0x72, 10070: 0x76, 10072: 0x78, 10073: 0x79, 10074: 0x7a, 10075: 0x7b, 10076: 0x7c, 10077: 0x7d, 10078: 0x7e, 10081: 0xa1, 10082: 0xa2, 10083: 0xa3, 10084: 0xa4, 10085: 0xa5, 10086: 0xa6, 10087: 0xa7, 10102: 0xb6, 10103: 0xb7, 10104: 0xb8, 10105: 0xb9, 10106: 0xba, 10107: 0xbb, 10108: 0xbc, 10109: 0xbd, 10110: 0xbe, 10111: 0xbf, 10112: 0xc0, 10113: 0xc1, 10114: 0xc2, 10115: 0xc3, 10116: 0xc4, 10117: 0xc5, 10118: 0xc6, 10119: 0xc7, 10120: 0xc8, 10121: 0xc9, 10122: 0xca, 10123: 0xcb, 10124: 0xcc, 10125: 0xcd, 10126: 0xce, 10127: 0xcf, 10128: 0xd0, 10129: 0xd1, 10130: 0xd2, 10131: 0xd3, 10132: 0xd4, 10136: 0xd8, 10137: 0xd9, 10138: 0xda, 10139: 0xdb, 10140: 0xdc, 10141: 0xdd, 10142: 0xde, 10143: 0xdf, 10144: 0xe0, 10145: 0xe1, 10146: 0xe2, 10147: 0xe3, 10148: 0xe4, 10149: 0xe5, 10150: 0xe6, 10151: 0xe7, 10152: 0xe8, 10153: 0xe9, 10154: 0xea, 10155: 0xeb, 10156: 0xec, 10157: 0xed, 10158: 0xee, 10159: 0xef, 10161: 0xf1, 10162: 0xf2, 10163: 0xf3, 10164: 0xf4, 10165: 0xf5, 10166: 0xf6, 10167: 0xf7, 10168: 0xf8, 10169: 0xf9, 10170: 0xfa, 10171: 0xfb, 10172: 0xfc, 10173: 0xfd, 10174: 0xfe, 63703: 0x80, 63704: 0x81, 63705: 0x82, 63706: 0x83, 63707: 0x84, 63708: 0x85, 63709: 0x86, 63710: 0x87, 63711: 0x88, 63712: 0x89, 63713: 0x8a, 63714: 0x8b, 63715: 0x8c, 63716: 0x8d}

func buildZapfDingbats() *Table {
	t := &Table{}
	for r, b := range zapfDingbatsRuneToByte {
		t.Runes[b] = r
	}
	fillNamesFromAGL(t)
	return t
}

func fillNamesFromAGL(t *Table) {
	for b, r := range t.Runes {
		if r == 0 {
			continue
		}
		if name, ok := runeToGlyphName[r]; ok {
			t.Names[b] = name
		}
	}
}
