// Package cmap implements the CMap parser (C5): the minimal PostScript
// subset used by ToUnicode streams and predefined CMaps. It is a
// token-level skip-scan, not a PostScript interpreter, per spec §4.4 --
// each section is located by scanning for its opening keyword and parsed
// independently, so declarations out of the usual order are tolerated.
//
// Grounded on reader/cmaps/cmap.go's codespace-matching logic (matchCode,
// inCodespace), the one part of that teacher file not stubbed out; the
// section parsers themselves are new, since the teacher's bfrange/cidrange
// parsing built a writer-oriented model.CMap this module does not share.
package cmap

import (
	"bytes"
	"errors"

	"github.com/maxpmaxp/pdfreader/buffer"
	"github.com/maxpmaxp/pdfreader/pdftokenizer"
)

// ErrResourceUnavailable flags a recognized predefined CMap name this
// module has no packaged resource for.
var ErrResourceUnavailable = errors.New("cmap resource unavailable")

// CodespaceRange is one valid byte-length/value range a code may occupy.
type CodespaceRange struct {
	Low, High []byte // same length
}

func (c CodespaceRange) matches(code []byte) bool {
	if len(code) != len(c.Low) {
		return false
	}
	for i := range code {
		if code[i] < c.Low[i] || code[i] > c.High[i] {
			return false
		}
	}
	return true
}

// CIDRange maps a contiguous run of codes to a contiguous run of CIDs
// starting at Start.
type CIDRange struct {
	Low, High []byte
	Start     int
}

// BFRange maps a contiguous run of codes to Unicode text. Dst holds one
// string per code when built from an array destination; a single-entry Dst
// is incremented on its last UTF-16 code unit across the range, per spec
// §4.4's bfrange semantics.
type BFRange struct {
	Low, High []byte
	Dst       []string // len 1 (increment low 16 bits across the range) or len(High-Low)+1 (array form)
}

// CMap is the parsed result: range collections supporting lookup by
// hex-string key, per spec §4.4's "Output" paragraph.
type CMap struct {
	Name        string
	Codespaces  []CodespaceRange
	CIDRanges   []CIDRange
	NotdefCID   []CIDRange
	BFRanges    []BFRange
	UseCMapName string // /UseCMap, if declared; resolved by the encoding package
}

// Parse reads the PostScript CMap subset of spec §4.4 from data.
func Parse(data []byte) (*CMap, error) {
	cm := &CMap{}
	toks, err := tokenize(data)
	if err != nil {
		return nil, err
	}

	for i := 0; i < len(toks); i++ {
		t := toks[i]
		if t.Kind != pdftokenizer.Other {
			continue
		}
		switch t.Value {
		case "def":
			// /CMapName /X def -- X is the token immediately before "def",
			// preceded by the name being defined.
			if i >= 2 && toks[i-2].Kind == pdftokenizer.Name && toks[i-2].Value == "CMapName" {
				cm.Name = toks[i-1].Value
			}
		case "usecmap":
			if i >= 1 && toks[i-1].Kind == pdftokenizer.Name {
				cm.UseCMapName = toks[i-1].Value
			}
		case "begincodespacerange":
			i = parseCodespaceRange(toks, i+1, cm)
		case "begincidrange":
			i = parseCIDRange(toks, i+1, cm, false)
		case "beginnotdefrange":
			i = parseCIDRange(toks, i+1, cm, true)
		case "begincidchar":
			i = parseCIDChar(toks, i+1, cm, false)
		case "beginnotdefchar":
			i = parseCIDChar(toks, i+1, cm, true)
		case "beginbfrange":
			i = parseBFRange(toks, i+1, cm)
		case "beginbfchar":
			i = parseBFChar(toks, i+1, cm)
		}
	}
	return cm, nil
}

func tokenize(data []byte) ([]pdftokenizer.Token, error) {
	buf, err := buffer.New(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	tk := pdftokenizer.New(buf)
	var out []pdftokenizer.Token
	for {
		t, err := tk.NextToken()
		if err != nil {
			return out, nil // best-effort: keep whatever tokenized cleanly
		}
		if t.Kind == pdftokenizer.EOF {
			return out, nil
		}
		out = append(out, t)
	}
}

func isEndKeyword(t pdftokenizer.Token, suffix string) bool {
	return t.Kind == pdftokenizer.Other && len(t.Value) >= len("end") &&
		t.Value == "end"+suffix
}

func parseCodespaceRange(toks []pdftokenizer.Token, i int, cm *CMap) int {
	for ; i < len(toks); i++ {
		if isEndKeyword(toks[i], "codespacerange") {
			return i
		}
		if i+1 >= len(toks) || toks[i].Kind != pdftokenizer.StringHex || toks[i+1].Kind != pdftokenizer.StringHex {
			continue
		}
		cm.Codespaces = append(cm.Codespaces, CodespaceRange{
			Low:  []byte(toks[i].Value),
			High: []byte(toks[i+1].Value),
		})
		i++
	}
	return i
}

func parseCIDRange(toks []pdftokenizer.Token, i int, cm *CMap, notdef bool) int {
	suffix := "cidrange"
	if notdef {
		suffix = "notdefrange"
	}
	for ; i < len(toks); i++ {
		if isEndKeyword(toks[i], suffix) {
			return i
		}
		if i+2 >= len(toks) || toks[i].Kind != pdftokenizer.StringHex || toks[i+1].Kind != pdftokenizer.StringHex {
			continue
		}
		var start int
		switch toks[i+2].Kind {
		case pdftokenizer.Integer:
			n, _ := toks[i+2].Int()
			start = n
		case pdftokenizer.StringHex:
			start = hexToInt(toks[i+2].Value)
		default:
			continue
		}
		r := CIDRange{Low: []byte(toks[i].Value), High: []byte(toks[i+1].Value), Start: start}
		if notdef {
			cm.NotdefCID = append(cm.NotdefCID, r)
		} else {
			cm.CIDRanges = append(cm.CIDRanges, r)
		}
		i += 2
	}
	return i
}

func parseCIDChar(toks []pdftokenizer.Token, i int, cm *CMap, notdef bool) int {
	suffix := "cidchar"
	if notdef {
		suffix = "notdefchar"
	}
	for ; i < len(toks); i++ {
		if isEndKeyword(toks[i], suffix) {
			return i
		}
		if i+1 >= len(toks) || toks[i].Kind != pdftokenizer.StringHex {
			continue
		}
		var cid int
		switch toks[i+1].Kind {
		case pdftokenizer.Integer:
			n, _ := toks[i+1].Int()
			cid = n
		case pdftokenizer.StringHex:
			cid = hexToInt(toks[i+1].Value)
		default:
			continue
		}
		r := CIDRange{Low: []byte(toks[i].Value), High: []byte(toks[i].Value), Start: cid}
		if notdef {
			cm.NotdefCID = append(cm.NotdefCID, r)
		} else {
			cm.CIDRanges = append(cm.CIDRanges, r)
		}
		i++
	}
	return i
}

func parseBFRange(toks []pdftokenizer.Token, i int, cm *CMap) int {
	for ; i < len(toks); i++ {
		if isEndKeyword(toks[i], "bfrange") {
			return i
		}
		if i+2 >= len(toks) || toks[i].Kind != pdftokenizer.StringHex || toks[i+1].Kind != pdftokenizer.StringHex {
			continue
		}
		low, high := []byte(toks[i].Value), []byte(toks[i+1].Value)

		switch toks[i+2].Kind {
		case pdftokenizer.StringHex:
			cm.BFRanges = append(cm.BFRanges, BFRange{Low: low, High: high, Dst: []string{hexToUTF16String(toks[i+2].Value)}})
			i += 2
		case pdftokenizer.StartArray:
			j := i + 3
			var dst []string
			for j < len(toks) && toks[j].Kind != pdftokenizer.EndArray {
				if toks[j].Kind == pdftokenizer.StringHex {
					dst = append(dst, hexToUTF16String(toks[j].Value))
				}
				j++
			}
			cm.BFRanges = append(cm.BFRanges, BFRange{Low: low, High: high, Dst: dst})
			i = j
		default:
			i += 2
		}
	}
	return i
}

func parseBFChar(toks []pdftokenizer.Token, i int, cm *CMap) int {
	for ; i < len(toks); i++ {
		if isEndKeyword(toks[i], "bfchar") {
			return i
		}
		if i+1 >= len(toks) || toks[i].Kind != pdftokenizer.StringHex {
			continue
		}
		var dst string
		switch toks[i+1].Kind {
		case pdftokenizer.StringHex:
			dst = hexToUTF16String(toks[i+1].Value)
		case pdftokenizer.Name:
			dst = "/" + toks[i+1].Value // glyph name; resolved by the encoding package
		default:
			i++
			continue
		}
		cm.BFRanges = append(cm.BFRanges, BFRange{Low: []byte(toks[i].Value), High: []byte(toks[i].Value), Dst: []string{dst}})
		i++
	}
	return i
}

func hexToInt(s string) int {
	v := 0
	for i := 0; i < len(s); i++ {
		v = v<<8 | int(s[i])
	}
	return v
}

// hexToUTF16String decodes the raw bytes of a hex-string token (already
// byte-decoded by the tokenizer) as big-endian UTF-16 code units, per spec
// §4.4's "1-4 UTF-16 code units, combined into the resulting string".
func hexToUTF16String(raw string) string {
	b := []byte(raw)
	var units []uint16
	for i := 0; i+1 < len(b); i += 2 {
		units = append(units, uint16(b[i])<<8|uint16(b[i+1]))
	}
	return utf16ToString(units)
}

func utf16ToString(units []uint16) string {
	var out []rune
	for i := 0; i < len(units); i++ {
		u := units[i]
		if u >= 0xD800 && u <= 0xDBFF && i+1 < len(units) {
			lo := units[i+1]
			if lo >= 0xDC00 && lo <= 0xDFFF {
				r := rune((u-0xD800)<<10|(lo-0xDC00)) + 0x10000
				out = append(out, r)
				i++
				continue
			}
		}
		out = append(out, rune(u))
	}
	return string(out)
}

// InCodespace reports whether code matches one of cm's declared codespace
// ranges, per reader/cmaps/cmap.go's inCodespace.
func (cm *CMap) InCodespace(code []byte) bool {
	for _, r := range cm.Codespaces {
		if r.matches(code) {
			return true
		}
	}
	return false
}

// MatchLength returns the length (1-4) of the shortest prefix of data that
// matches a declared codespace range, and ok=false if none does -- the
// building block for the encoding package's CMapDecoder progressive-length
// scan.
func (cm *CMap) MatchLength(data []byte) (int, bool) {
	for n := 1; n <= 4 && n <= len(data); n++ {
		if cm.InCodespace(data[:n]) {
			return n, true
		}
	}
	return 0, false
}

// LookupBF returns the Unicode text bf-mapped to code, per spec §4.4's bf
// range/char collections.
func (cm *CMap) LookupBF(code []byte) (string, bool) {
	for _, r := range cm.BFRanges {
		if !inRange(code, r.Low, r.High) {
			continue
		}
		offset := bytesDiff(code, r.Low)
		if len(r.Dst) == 1 {
			return incrementLastUnit(r.Dst[0], offset), true
		}
		if offset < len(r.Dst) {
			return r.Dst[offset], true
		}
		return "", false
	}
	return "", false
}

// LookupCID returns the CID mapped to code by a cidrange/cidchar entry.
func (cm *CMap) LookupCID(code []byte) (int, bool) {
	for _, r := range cm.CIDRanges {
		if inRange(code, r.Low, r.High) {
			return r.Start + bytesDiff(code, r.Low), true
		}
	}
	return 0, false
}

func inRange(code, low, high []byte) bool {
	if len(code) != len(low) || len(code) != len(high) {
		return false
	}
	return bytes.Compare(code, low) >= 0 && bytes.Compare(code, high) <= 0
}

func bytesDiff(code, low []byte) int {
	c, l := 0, 0
	for i := range code {
		c = c<<8 | int(code[i])
		l = l<<8 | int(low[i])
	}
	return c - l
}

// incrementLastUnit adds offset to the last UTF-16 code unit of s, per spec
// §4.4's single-destination bfrange semantics.
func incrementLastUnit(s string, offset int) string {
	if offset == 0 || s == "" {
		return s
	}
	units := []rune(s)
	units[len(units)-1] += rune(offset)
	return string(units)
}

