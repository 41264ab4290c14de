// Package parser implements the object grammar layer (C4): it turns a
// pdftokenizer.Token stream into model.Object trees -- the eight native PDF
// object kinds plus indirect references, arrays and dictionaries. It does
// not itself resolve indirect references or decode streams (that is the
// xref/document layer's job); ParseObject returns an unresolved
// ObjIndirectRef wherever the grammar allows one.
//
// Adapted from reader/parser/parser.go, generalized to read pdftokenizer
// tokens sourced from a buffer.Buffer (this module's own C1) instead of the
// unfetchable github.com/benoitkugler/pstokenizer module, and to build
// model.Object values without the writer-side Write method the teacher's
// sum type carried.
package parser

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/maxpmaxp/pdfreader/buffer"
	"github.com/maxpmaxp/pdfreader/filters"
	"github.com/maxpmaxp/pdfreader/model"
	"github.com/maxpmaxp/pdfreader/pdftokenizer"
)

var (
	errArrayNotTerminated      = errors.New("parse: unterminated array")
	errDictionaryCorrupt       = errors.New("parse: corrupted dictionary")
	errDictionaryDuplicateKey  = errors.New("parse: duplicate key")
	errDictionaryNotTerminated = errors.New("parse: unterminated dictionary")
	errInputExhausted          = errors.New("parse: unexpected end of input")
)

// Parser turns tokens into model.Object values. It has no notion of
// indirect-object headers ("12 0 obj ... endobj") or of a document as a
// whole; those live in the xref/document packages, which use Parser as a
// building block.
type Parser struct {
	tokens *pdftokenizer.Tokenizer

	// ContentStreamMode relaxes the grammar for use inside a content
	// stream: bare keywords become Command objects instead of syntax
	// errors, and indirect references are never recognized (a content
	// stream's "12 0" is two separate integer operands, never a
	// reference), per spec §4.11.
	ContentStreamMode bool
}

// New builds a Parser reading from buf.
func New(buf *buffer.Buffer) *Parser {
	return &Parser{tokens: pdftokenizer.New(buf)}
}

// NewFromTokenizer reuses an already-positioned tokenizer, letting callers
// interleave raw token access (e.g. to read a "stream" keyword) with object
// parsing on the same cursor.
func NewFromTokenizer(tk *pdftokenizer.Tokenizer) *Parser {
	return &Parser{tokens: tk}
}

// ParseObjectBytes tokenizes and parses data as a single, standalone object.
func ParseObjectBytes(data []byte) (model.Object, error) {
	buf, err := buffer.New(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	return New(buf).ParseObject()
}

// ParseObject reads one value, recursively descending into arrays and
// dictionaries, per the grammar in spec §4.2.
func (p *Parser) ParseObject() (model.Object, error) {
	tk, err := p.tokens.NextToken()
	if err != nil {
		return nil, err
	}

	switch tk.Kind {
	case pdftokenizer.EOF:
		return nil, errInputExhausted
	case pdftokenizer.Name:
		return model.ObjName(tk.Value), nil
	case pdftokenizer.String:
		return model.ObjStringLiteral(tk.Value), nil
	case pdftokenizer.StringHex:
		return model.ObjHexLiteral(tk.Value), nil
	case pdftokenizer.StartArray:
		return p.parseArray()
	case pdftokenizer.StartDic:
		return p.parseDict()
	case pdftokenizer.Float:
		f, err := tk.Float()
		if err != nil {
			return nil, err
		}
		return model.ObjFloat(f), nil
	case pdftokenizer.Comment:
		return model.ObjComment(tk.Value), nil
	case pdftokenizer.Other:
		return p.parseKeyword(tk.Value)
	case pdftokenizer.Integer:
		return p.parseIntegerOrIndirectRef(tk)
	default:
		return nil, fmt.Errorf("parse: unexpected token %s at offset %d", tk.Kind, tk.Offset)
	}
}

func (p *Parser) parseArray() (model.ObjArray, error) {
	a := model.ObjArray{}
	for {
		tk, err := p.tokens.PeekToken()
		if err != nil {
			return nil, err
		}
		switch tk.Kind {
		case pdftokenizer.EndArray:
			_, _ = p.tokens.NextToken()
			return a, nil
		case pdftokenizer.EOF:
			return nil, errArrayNotTerminated
		default:
			obj, err := p.ParseObject()
			if err != nil {
				return nil, err
			}
			a = append(a, obj)
		}
	}
}

func (p *Parser) parseDict() (model.ObjDict, error) {
	d := model.ObjDict{}
	for {
		tk, err := p.tokens.PeekToken()
		if err != nil {
			return nil, err
		}
		switch tk.Kind {
		case pdftokenizer.EndDic:
			_, _ = p.tokens.NextToken()
			return d, nil
		case pdftokenizer.EOF:
			return nil, errDictionaryNotTerminated
		case pdftokenizer.Name:
			key := model.Name(tk.Value)
			_, _ = p.tokens.NextToken() // consume the key

			obj, err := p.ParseObject()
			if err != nil {
				return nil, err
			}
			// "Specifying the null object as the value of a dictionary
			// entry ... shall be equivalent to omitting the entry
			// entirely." (ISO 32000-1 7.3.7)
			if _, isNull := obj.(model.ObjNull); isNull {
				continue
			}
			if _, has := d[key]; has {
				return nil, errDictionaryDuplicateKey
			}
			d[key] = obj
		default:
			return nil, errDictionaryCorrupt
		}
	}
}

func (p *Parser) parseKeyword(value string) (model.Object, error) {
	switch value {
	case "null":
		return model.ObjNull{}, nil
	case "true":
		return model.ObjBool(true), nil
	case "false":
		return model.ObjBool(false), nil
	default:
		if p.ContentStreamMode {
			return model.ObjCommand(value), nil
		}
		return nil, fmt.Errorf("parse: unexpected keyword %q outside a content stream", value)
	}
}

// parseIntegerOrIndirectRef disambiguates a bare integer from the start of
// an `N G R` indirect reference. Since pdftokenizer only looks one token
// ahead, a second token's worth of lookahead is done by hand, saving and
// restoring tokenizer state (which also rewinds the underlying buffer) if
// the speculative parse fails, per spec §4.2's backtracking note.
func (p *Parser) parseIntegerOrIndirectRef(first pdftokenizer.Token) (model.Object, error) {
	i, err := first.Int()
	if err != nil {
		return nil, err
	}
	if p.ContentStreamMode {
		return model.ObjInt(i), nil
	}

	save := p.tokens.SaveState()

	second, err := p.tokens.NextToken()
	if err != nil || second.Kind != pdftokenizer.Integer {
		p.tokens.RestoreState(save)
		return model.ObjInt(i), nil
	}
	gen, err := second.Int()
	if err != nil {
		p.tokens.RestoreState(save)
		return model.ObjInt(i), nil
	}

	third, err := p.tokens.NextToken()
	if err != nil || third.Kind != pdftokenizer.Other || third.Value != "R" {
		p.tokens.RestoreState(save)
		return model.ObjInt(i), nil
	}

	return model.ObjIndirectRef{ObjectNumber: int(i), GenerationNumber: gen}, nil
}

// ParseIndirectObjectHeader reads the "N G obj" header at the tokenizer's
// current position and returns the object number and generation. The
// tokenizer is left positioned right after "obj"; the object's value is not
// parsed.
func (p *Parser) ParseIndirectObjectHeader() (number, generation int, err error) {
	tok, err := p.tokens.NextToken()
	if err != nil {
		return 0, 0, err
	}
	n, err := tok.Int()
	if tok.Kind != pdftokenizer.Integer || err != nil {
		return 0, 0, errors.New("parse: expected an object number")
	}

	tok, err = p.tokens.NextToken()
	if err != nil {
		return 0, 0, err
	}
	g, err := tok.Int()
	if tok.Kind != pdftokenizer.Integer || err != nil {
		return 0, 0, errors.New("parse: expected a generation number")
	}

	tok, err = p.tokens.NextToken()
	if err != nil {
		return 0, 0, err
	}
	if tok.Kind != pdftokenizer.Other || tok.Value != "obj" {
		return 0, 0, fmt.Errorf("parse: expected \"obj\", got %q", tok.Value)
	}

	return n, g, nil
}

// ParseIndirectObject reads a full "N G obj ... endobj" (or "... stream
// ... endstream endobj") definition starting at the tokenizer's current
// position. lengthOf resolves a stream's /Length entry to a byte count,
// following exactly one indirect reference if needed; it may be nil if the
// caller knows the object graph contains no streams (e.g. inside an object
// stream, where ISO 32000-1 7.5.7 forbids nested streams).
func (p *Parser) ParseIndirectObject(lengthOf func(model.Object) (int, bool)) (number, generation int, obj model.Object, err error) {
	number, generation, err = p.ParseIndirectObjectHeader()
	if err != nil {
		return 0, 0, nil, err
	}

	obj, err = p.ParseObject()
	if err != nil {
		return 0, 0, nil, err
	}

	dict, isDict := obj.(model.ObjDict)
	next, err := p.tokens.PeekToken()
	if err == nil && isDict && next.Kind == pdftokenizer.Other && next.Value == "stream" {
		_, _ = p.tokens.NextToken() // consume "stream"
		content, err := p.readStreamContent(dict, lengthOf)
		if err != nil {
			return 0, 0, nil, err
		}
		obj = model.ObjStream{Args: dict, Content: content}
	}

	return number, generation, obj, nil
}

// readStreamContent implements the Length-recovery heuristic of spec §4.2 /
// §9 Open Question 1, ported from reader/file/streams.go: trust /Length
// when it is a plausible byte count; otherwise scan forward for the literal
// "endstream" keyword.
func (p *Parser) readStreamContent(dict model.ObjDict, lengthOf func(model.Object) (int, bool)) ([]byte, error) {
	buf := p.tokens.Buffer()

	// The stream keyword is followed by CRLF or LF (never a bare CR) before
	// the data begins (ISO 32000-1 7.3.8.1).
	if b, ok := buf.Next(); ok && b == '\r' {
		if b2, ok := buf.Next(); !ok || b2 != '\n' {
			buf.Prev()
		}
	} else if ok && b != '\n' {
		buf.Prev()
	}
	contentStart := buf.Offset()

	length, haveLength := 0, false
	if lengthOf != nil {
		length, haveLength = lengthOf(dict["Length"])
	}

	if haveLength && int64(length) >= 0 && contentStart+int64(length) <= buf.Len() {
		content := buf.Read(length)
		if p.consumeEndstreamKeyword() {
			return content, nil
		}
		// the declared Length didn't land on "endstream": fall through to
		// the blind scan below, restoring position first.
		buf.Reset(contentStart)
	}

	return p.scanForEndstream(buf, contentStart)
}

// consumeEndstreamKeyword skips optional whitespace and the "endstream"
// keyword, reporting whether it was found at the current position.
func (p *Parser) consumeEndstreamKeyword() bool {
	save := p.tokens.SaveState()
	tok, err := p.tokens.NextToken()
	if err != nil || tok.Kind != pdftokenizer.Other || tok.Value != "endstream" {
		p.tokens.RestoreState(save)
		return false
	}
	return true
}

// scanForEndstream is the last-resort heuristic: read forward byte by byte
// until the literal sequence "endstream" is found, trimming the trailing
// EOL that precedes it.
func (p *Parser) scanForEndstream(buf *buffer.Buffer, contentStart int64) ([]byte, error) {
	buf.Reset(contentStart)
	const marker = "endstream"
	var window bytes.Buffer
	var content []byte
	for {
		b, ok := buf.Next()
		if !ok {
			return nil, fmt.Errorf("parse: missing \"endstream\" keyword (%w)", io.ErrUnexpectedEOF)
		}
		content = append(content, b)
		window.WriteByte(b)
		if window.Len() > len(marker) {
			window.Next(1)
		}
		if window.String() == marker {
			content = content[:len(content)-len(marker)]
			content = bytes.TrimRight(content, "\r\n")
			return content, nil
		}
	}
}

// IntLengthResolver builds a lengthOf function for ParseIndirectObject out
// of a Resolver, following one indirect reference for a stream's /Length
// entry, per spec §4.7's "brute-force cursor" note (Length itself may be an
// object defined later in the file; resolving it must not disturb the
// stream-reading cursor, which ParseIndirectObject guarantees by resolving
// Length before touching the buffer for content).
func IntLengthResolver(r model.Resolver) func(model.Object) (int, bool) {
	return func(o model.Object) (int, bool) {
		return model.DerefInt(r, o)
	}
}

// DecodeStreamFilters reads a stream dictionary's /Filter (+/DecodeParms)
// entries into a filters.Filters pipeline, resolving indirect references
// along the way.
func DecodeStreamFilters(r model.Resolver, dict model.ObjDict) (filters.Filters, error) {
	filterObj := model.Deref(r, dict["Filter"])
	var names []model.Name
	switch f := filterObj.(type) {
	case model.ObjNull:
	case model.ObjName:
		names = []model.Name{model.Name(f)}
	case model.ObjArray:
		for _, e := range f {
			n, ok := model.DerefName(r, e)
			if !ok {
				return nil, fmt.Errorf("parse: invalid entry in /Filter array")
			}
			names = append(names, n)
		}
	default:
		return nil, fmt.Errorf("parse: invalid /Filter entry %T", filterObj)
	}

	parmsObj := model.Deref(r, dict["DecodeParms"])
	parmsFor := func(i int) filters.Params {
		switch p := parmsObj.(type) {
		case model.ObjDict:
			if i == 0 {
				return intParams(r, p)
			}
		case model.ObjArray:
			if i < len(p) {
				if d, ok := model.DerefDict(r, p[i]); ok {
					return intParams(r, d)
				}
			}
		}
		return nil
	}

	out := make(filters.Filters, len(names))
	for i, n := range names {
		out[i] = filters.Filter{Name: filters.Name(n), Parms: parmsFor(i)}
	}
	return out, nil
}

func intParams(r model.Resolver, d model.ObjDict) filters.Params {
	out := make(filters.Params, len(d))
	for k, v := range d {
		switch val := model.Deref(r, v).(type) {
		case model.ObjInt:
			out[string(k)] = int(val)
		case model.ObjBool:
			if val {
				out[string(k)] = 1
			}
		case model.ObjName:
			// Encoding names (e.g. ColorTransform) are not used by any
			// filter this module decodes; ignored rather than erroring.
		}
	}
	return out
}
