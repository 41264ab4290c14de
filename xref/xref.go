// Package xref implements the cross-reference layer (C7): classical xref
// tables, xref streams, and the incremental-update chain that links them
// via /Prev. It knows nothing about object caching or brute-force recovery
// (that is the document package's job, C8/C9) -- xref only turns a starting
// byte offset into an ordered list of Sections, each carrying one Table of
// entries and the Trailer dictionary that introduced it.
package xref

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/maxpmaxp/pdfreader/buffer"
	"github.com/maxpmaxp/pdfreader/model"
	"github.com/maxpmaxp/pdfreader/parser"
	"github.com/maxpmaxp/pdfreader/pdftokenizer"
)

// EntryKind tags the XRefEntry sum type of spec §3.
type EntryKind uint8

const (
	Free EntryKind = iota
	InUse
	Compressed
)

// Entry is one object's location, as described by spec §3's XRefEntry.
type Entry struct {
	Kind       EntryKind
	Number     int
	Generation int

	Offset int64 // InUse only

	ContainerNumber  int // Compressed only: the ObjStm's object number
	IndexInContainer int // Compressed only: slot within the ObjStm
}

// Table is one xref section's entries, keyed by object number. At most one
// entry per number within a single Table, per spec §3's invariant.
type Table map[int]Entry

// Trailer is the parameters dictionary accompanying one xref section, plus
// the resolved /Prev and hybrid-reference /XRefStm offsets (spec §3).
type Trailer struct {
	Dict    model.ObjDict
	Prev    *int64
	XRefStm *int64
}

// Section pairs a Table with the Trailer that introduced it.
type Section struct {
	Table   Table
	Trailer Trailer
}

// Chain is the full list of xref sections, newest first. Resolving an
// object number walks the chain in this order so that the newest
// incremental update wins, per spec §4.6 ("later additions win").
type Chain []Section

// Lookup returns the first entry for num found walking newest to oldest.
func (c Chain) Lookup(num int) (Entry, bool) {
	for _, sec := range c {
		if e, ok := sec.Table[num]; ok {
			return e, true
		}
	}
	return Entry{}, false
}

// Trailer returns the first (newest) section's trailer dictionary, which
// carries the top-level Root/Encrypt/Info/ID per spec §4.7 ("the first
// trailer wins for top-level metadata").
func (c Chain) Trailer() model.ObjDict {
	if len(c) == 0 {
		return nil
	}
	return c[0].Trailer.Dict
}

// FindHeader scans the first 1024 bytes of rs for a PDF header, returning
// its byte offset (not necessarily 0, per spec §4.7) and the declared
// version string ("1.4", ...).
func FindHeader(rs io.ReadSeeker) (offset int64, version string, err error) {
	size, err := rs.Seek(0, io.SeekEnd)
	if err != nil {
		return 0, "", err
	}
	n := int64(1024)
	if n > size {
		n = size
	}
	buf := make([]byte, n)
	if _, err := rs.Seek(0, io.SeekStart); err != nil {
		return 0, "", err
	}
	if _, err := io.ReadFull(rs, buf); err != nil && err != io.ErrUnexpectedEOF {
		return 0, "", err
	}

	idx := bytes.Index(buf, []byte("%PDF-"))
	markerLen := len("%PDF-")
	if idx < 0 {
		idx = bytes.Index(buf, []byte("%IPS-Adobe-"))
		if idx < 0 {
			return 0, "", errors.New("xref: no PDF header found in first 1024 bytes")
		}
		rest := buf[idx:]
		pdfIdx := bytes.Index(rest, []byte("PDF-"))
		if pdfIdx < 0 {
			return 0, "", errors.New("xref: malformed Adobe PostScript/PDF header")
		}
		return int64(idx), scanVersion(rest[pdfIdx+len("PDF-"):]), nil
	}
	return int64(idx), scanVersion(buf[idx+markerLen:]), nil
}

func scanVersion(rest []byte) string {
	i := 0
	for i < len(rest) && (isDigitByte(rest[i]) || rest[i] == '.') {
		i++
	}
	return string(rest[:i])
}

func isDigitByte(b byte) bool { return b >= '0' && b <= '9' }

// FindStartXRef scans the last 1024 bytes of rs backward for the final
// `startxref` keyword and returns the byte offset that follows it, per spec
// §4.7's trailer-discovery procedure.
func FindStartXRef(rs io.ReadSeeker) (int64, error) {
	size, err := rs.Seek(0, io.SeekEnd)
	if err != nil {
		return 0, err
	}
	n := int64(1024)
	if n > size {
		n = size
	}
	buf := make([]byte, n)
	if _, err := rs.Seek(size-n, io.SeekStart); err != nil {
		return 0, err
	}
	if _, err := io.ReadFull(rs, buf); err != nil && err != io.ErrUnexpectedEOF {
		return 0, err
	}

	marker := []byte("startxref")
	idx := bytes.LastIndex(buf, marker)
	if idx < 0 {
		return 0, errors.New("xref: \"startxref\" not found in trailing 1024 bytes")
	}
	rest := buf[idx+len(marker):]
	i := 0
	for i < len(rest) && isWhitespaceByte(rest[i]) {
		i++
	}
	j := i
	for j < len(rest) && isDigitByte(rest[j]) {
		j++
	}
	if i == j {
		return 0, errors.New("xref: malformed startxref offset")
	}
	return strconv.ParseInt(string(rest[i:j]), 10, 64)
}

func isWhitespaceByte(b byte) bool {
	switch b {
	case 0, 9, 10, 12, 13, 32:
		return true
	default:
		return false
	}
}

// BuildChain follows the xref/Prev chain starting at startOffset, returning
// sections newest first. A visited-offsets guard stops an infinite /Prev
// loop, per the same loop-prevention discipline spec §4.7 mandates for
// brute-force object resolution.
func BuildChain(buf *buffer.Buffer, startOffset int64) (Chain, error) {
	var chain Chain
	visited := map[int64]bool{}
	offset := startOffset

	for {
		if visited[offset] {
			break
		}
		visited[offset] = true

		sec, err := parseSection(buf, offset)
		if err != nil {
			return chain, err
		}
		chain = append(chain, sec)

		if sec.Trailer.XRefStm != nil && !visited[*sec.Trailer.XRefStm] {
			visited[*sec.Trailer.XRefStm] = true
			hybrid, err := parseSection(buf, *sec.Trailer.XRefStm)
			if err == nil {
				chain = append(chain, hybrid)
			}
		}

		if sec.Trailer.Prev == nil {
			break
		}
		offset = *sec.Trailer.Prev
	}
	return chain, nil
}

func parseSection(buf *buffer.Buffer, offset int64) (Section, error) {
	if err := buf.Reset(offset); err != nil {
		return Section{}, err
	}
	tok := pdftokenizer.New(buf)
	peek, err := tok.PeekToken()
	if err != nil {
		return Section{}, err
	}
	if peek.Kind == pdftokenizer.Other && peek.Value == "xref" {
		return parseClassicalSection(tok)
	}
	return parseStreamSection(tok)
}

func parseClassicalSection(tok *pdftokenizer.Tokenizer) (Section, error) {
	if _, err := tok.NextToken(); err != nil { // consume "xref"
		return Section{}, err
	}

	table := Table{}
	for {
		peek, err := tok.PeekToken()
		if err != nil {
			return Section{}, err
		}
		if peek.Kind == pdftokenizer.Other && peek.Value == "trailer" {
			_, _ = tok.NextToken()
			break
		}
		if peek.Kind != pdftokenizer.Integer {
			return Section{}, fmt.Errorf("xref: expected subsection header at offset %d, got %s", peek.Offset, peek.Kind)
		}
		firstTok, err := tok.NextToken()
		if err != nil {
			return Section{}, err
		}
		first, err := firstTok.Int()
		if err != nil {
			return Section{}, err
		}
		countTok, err := tok.NextToken()
		if err != nil {
			return Section{}, err
		}
		count, err := countTok.Int()
		if err != nil {
			return Section{}, err
		}

		for i := 0; i < count; i++ {
			offTok, err := tok.NextToken()
			if err != nil {
				return Section{}, err
			}
			offset, err := offTok.Int()
			if err != nil {
				return Section{}, err
			}
			genTok, err := tok.NextToken()
			if err != nil {
				return Section{}, err
			}
			gen, err := genTok.Int()
			if err != nil {
				return Section{}, err
			}
			typeTok, err := tok.NextToken()
			if err != nil {
				return Section{}, err
			}

			num := first + i
			switch typeTok.Value {
			case "n":
				table[num] = Entry{Kind: InUse, Number: num, Generation: gen, Offset: int64(offset)}
			case "f":
				table[num] = Entry{Kind: Free, Number: num, Generation: gen}
			default:
				return Section{}, fmt.Errorf("xref: bad entry type %q at offset %d", typeTok.Value, typeTok.Offset)
			}
		}
	}

	p := parser.NewFromTokenizer(tok)
	obj, err := p.ParseObject()
	if err != nil {
		return Section{}, fmt.Errorf("xref: parsing trailer: %w", err)
	}
	dict, ok := obj.(model.ObjDict)
	if !ok {
		return Section{}, errors.New("xref: trailer is not a dictionary")
	}
	return Section{Table: table, Trailer: trailerFromDict(dict)}, nil
}

// directLengthOnly resolves a stream /Length only when it is a literal
// integer; an indirect /Length on an xref stream is vanishingly rare (the
// xref stream is usually the first thing in the file, before any object
// that could define its own Length elsewhere) and the ParseIndirectObject
// scanForEndstream fallback handles it when this returns false.
func directLengthOnly(o model.Object) (int, bool) {
	i, ok := o.(model.ObjInt)
	return int(i), ok
}

func parseStreamSection(tok *pdftokenizer.Tokenizer) (Section, error) {
	p := parser.NewFromTokenizer(tok)
	_, _, obj, err := p.ParseIndirectObject(directLengthOnly)
	if err != nil {
		return Section{}, fmt.Errorf("xref: parsing xref stream: %w", err)
	}
	stream, ok := obj.(model.ObjStream)
	if !ok {
		return Section{}, errors.New("xref: expected a cross-reference stream object")
	}

	fs, err := parser.DecodeStreamFilters(nil, stream.Args)
	if err != nil {
		return Section{}, fmt.Errorf("xref: decoding stream filters: %w", err)
	}
	decoded, err := fs.Decode(stream.Content)
	if err != nil {
		return Section{}, fmt.Errorf("xref: decoding xref stream content: %w", err)
	}

	table, err := parseXRefStreamRows(stream.Args, decoded)
	if err != nil {
		return Section{}, err
	}
	return Section{Table: table, Trailer: trailerFromDict(stream.Args)}, nil
}

// parseXRefStreamRows decodes the W/Index-governed row format of spec §4.6.
func parseXRefStreamRows(dict model.ObjDict, data []byte) (Table, error) {
	wArr, ok := dict["W"].(model.ObjArray)
	if !ok || len(wArr) != 3 {
		return nil, errors.New("xref: xref stream missing a valid /W array")
	}
	var w [3]int
	for i, v := range wArr {
		n, ok := v.(model.ObjInt)
		if !ok {
			return nil, errors.New("xref: /W entry is not an integer")
		}
		w[i] = int(n)
	}
	rowSize := w[0] + w[1] + w[2]
	if rowSize <= 0 {
		return nil, errors.New("xref: degenerate /W row size")
	}

	var index []int
	if idxArr, ok := dict["Index"].(model.ObjArray); ok {
		for _, v := range idxArr {
			n, ok := v.(model.ObjInt)
			if !ok {
				return nil, errors.New("xref: /Index entry is not an integer")
			}
			index = append(index, int(n))
		}
	} else {
		size, _ := dict["Size"].(model.ObjInt)
		index = []int{0, int(size)}
	}

	table := Table{}
	pos := 0
	for i := 0; i+1 < len(index); i += 2 {
		first, count := index[i], index[i+1]
		for j := 0; j < count; j++ {
			if pos+rowSize > len(data) {
				return table, nil // truncated stream: keep what was decoded
			}
			row := data[pos : pos+rowSize]
			pos += rowSize
			num := first + j

			typ := int64(1) // default type when W[0]==0 is InUse, per ISO 32000-1 Table 17
			if w[0] > 0 {
				typ = beInt(row[:w[0]])
			}
			f2 := beInt(row[w[0] : w[0]+w[1]])
			f3 := beInt(row[w[0]+w[1] : w[0]+w[1]+w[2]])

			switch typ {
			case 0:
				table[num] = Entry{Kind: Free, Number: num, Generation: int(f3)}
			case 1:
				table[num] = Entry{Kind: InUse, Number: num, Offset: f2, Generation: int(f3)}
			case 2:
				table[num] = Entry{Kind: Compressed, Number: num, ContainerNumber: int(f2), IndexInContainer: int(f3)}
			}
		}
	}
	return table, nil
}

func beInt(b []byte) int64 {
	var v int64
	for _, c := range b {
		v = v<<8 | int64(c)
	}
	return v
}

func trailerFromDict(d model.ObjDict) Trailer {
	t := Trailer{Dict: d}
	if v, ok := d["Prev"].(model.ObjInt); ok {
		off := int64(v)
		t.Prev = &off
	}
	if v, ok := d["XRefStm"].(model.ObjInt); ok {
		off := int64(v)
		t.XRefStm = &off
	}
	return t
}
