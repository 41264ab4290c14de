// Package contentstream implements the content-stream tokenizer of spec
// §4.11 (C12): it replays a page's (concatenated) content bytes as a
// sequence of Operator and InlineImage records, built on top of the object
// grammar parser run in its content-stream grammar mode.
//
// Adapted from reader/contentstream, which built the same kind of record
// stream on the teacher's own object model; rebuilt here against this
// module's parser/pdftokenizer/buffer stack and the whitespace-bounded-EI
// scan this spec calls for, rather than the teacher's filter-length-driven
// inline image sizing.
package contentstream

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/maxpmaxp/pdfreader/buffer"
	"github.com/maxpmaxp/pdfreader/model"
	"github.com/maxpmaxp/pdfreader/parser"
	"github.com/maxpmaxp/pdfreader/pdftokenizer"
	"github.com/pdfcpu/pdfcpu/pkg/log"
)

// Record is either an Operator or an InlineImage.
type Record interface {
	isRecord()
}

// Operator is one content-stream command and the operands accumulated
// since the previous one.
type Operator struct {
	Name     string
	Operands model.ObjArray
}

func (Operator) isRecord() {}

// operatorAliases renames operators that are not valid Go/host-language
// identifiers, per spec §4.13.
var operatorAliases = map[string]string{
	"'":  "apostrophe",
	"\"": "quotation",
	"T*": "Tstar",
}

// InlineImage is a BI/ID/EI sequence: the dictionary built from its
// name/value pairs (short-name keys preserved, e.g. /W, /CS, /F -- readable
// through model.NewImageXObject's long/short lookup) and its raw,
// still filter-encoded payload.
type InlineImage struct {
	Dict model.ObjDict
	Data []byte
}

func (InlineImage) isRecord() {}

var (
	errUnterminatedInlineDict = errors.New("contentstream: unterminated inline image dictionary")
	errUnterminatedInlineData = errors.New("contentstream: inline image data runs past end of stream")
)

// Parser replays one content stream's bytes as a Record sequence.
type Parser struct {
	tok *pdftokenizer.Tokenizer
	obj *parser.Parser
}

// New builds a Parser over content, the concatenated bytes of a page's (or
// Form's) Contents stream(s), already filter-decoded.
func New(content []byte) (*Parser, error) {
	buf, err := buffer.New(bytes.NewReader(content))
	if err != nil {
		return nil, err
	}
	tok := pdftokenizer.New(buf)
	obj := parser.NewFromTokenizer(tok)
	obj.ContentStreamMode = true
	return &Parser{tok: tok, obj: obj}, nil
}

// Next returns the next Record, or a nil Record and an error for which IsEOF
// reports true at the end of the stream.
// Stray operands immediately before EOF (with no following operator) are
// logged and dropped, per spec §4.11.
func (cp *Parser) Next() (Record, error) {
	var operands model.ObjArray
	for {
		pk, err := cp.tok.PeekToken()
		if err != nil {
			return nil, err
		}

		switch {
		case pk.Kind == pdftokenizer.EOF:
			if len(operands) > 0 {
				log.Parse.Printf("contentstream: %d stray operand(s) at end of stream, dropped", len(operands))
			}
			return nil, errEndOfContentStream

		case pk.Kind == pdftokenizer.Other && pk.Value == "BI":
			if len(operands) > 0 {
				log.Parse.Printf("contentstream: %d stray operand(s) before inline image, dropped", len(operands))
			}
			_, _ = cp.tok.NextToken()
			img, err := cp.parseInlineImage()
			if err != nil {
				return nil, err
			}
			return img, nil

		case pk.Kind == pdftokenizer.Other && !isLiteralKeyword(pk.Value):
			_, _ = cp.tok.NextToken()
			name := pk.Value
			if alias, ok := operatorAliases[name]; ok {
				name = alias
			}
			return Operator{Name: name, Operands: operands}, nil

		default:
			obj, err := cp.obj.ParseObject()
			if err != nil {
				return nil, err
			}
			operands = append(operands, obj)
		}
	}
}

// errEndOfContentStream is returned by Next once the stream is exhausted.
var errEndOfContentStream = errors.New("contentstream: end of content stream")

// IsEOF reports whether err is the sentinel Next returns at end of stream.
func IsEOF(err error) bool { return errors.Is(err, errEndOfContentStream) }

func isLiteralKeyword(v string) bool {
	return v == "null" || v == "true" || v == "false"
}

// parseInlineImage reads the dictionary body between BI (already consumed)
// and ID, then scans the raw payload, per spec §4.11: "Between BI and ID,
// parse name/value pairs like a dictionary body (no <<)."
func (cp *Parser) parseInlineImage() (InlineImage, error) {
	dict := model.ObjDict{}
	for {
		pk, err := cp.tok.PeekToken()
		if err != nil {
			return InlineImage{}, err
		}
		switch {
		case pk.Kind == pdftokenizer.Other && pk.Value == "ID":
			_, _ = cp.tok.NextToken()
			data, err := cp.scanInlineImageData()
			if err != nil {
				return InlineImage{}, err
			}
			return InlineImage{Dict: dict, Data: data}, nil

		case pk.Kind == pdftokenizer.EOF:
			return InlineImage{}, errUnterminatedInlineDict

		case pk.Kind == pdftokenizer.Name:
			_, _ = cp.tok.NextToken()
			key := model.Name(pk.Value)
			val, err := cp.obj.ParseObject()
			if err != nil {
				return InlineImage{}, err
			}
			if _, isNull := val.(model.ObjNull); !isNull {
				dict[key] = val
			}

		default:
			return InlineImage{}, fmt.Errorf("contentstream: unexpected token %s in inline image dictionary", pk.Kind)
		}
	}
}

func isContentWhitespace(b byte) bool {
	switch b {
	case 0, 9, 10, 12, 13, 32:
		return true
	default:
		return false
	}
}

// scanInlineImageData implements spec §4.11's payload delimiting: it starts
// one whitespace byte after ID and ends at the first EI bounded by
// whitespace on at least one side. The separator byte immediately before a
// matched EI is not part of the payload.
func (cp *Parser) scanInlineImageData() ([]byte, error) {
	buf := cp.tok.Buffer()
	if c, ok := buf.Current(); ok && isContentWhitespace(c) {
		buf.Next()
	}

	var data []byte
	for {
		c, ok := buf.Next()
		if !ok {
			if len(data) > 0 {
				log.Parse.Printf("contentstream: inline image payload truncated at end of stream")
				return data, nil
			}
			return nil, errUnterminatedInlineData
		}
		if c != 'E' {
			data = append(data, c)
			continue
		}

		mark := buf.GetState()
		c2, ok2 := buf.Next()
		if ok2 && c2 == 'I' {
			prevWS := len(data) == 0 || isContentWhitespace(data[len(data)-1])
			afterByte, afterOK := buf.Current()
			nextWS := !afterOK || isContentWhitespace(afterByte)
			if prevWS || nextWS {
				if len(data) > 0 && isContentWhitespace(data[len(data)-1]) {
					data = data[:len(data)-1]
				}
				return data, nil
			}
		}
		buf.SetState(mark)
		data = append(data, c)
	}
}
