// Package pdftokenizer implements the lowest level of processing of PDF
// files: splitting a byte stream into the lexical tokens PDF syntax is
// built from, without yet knowing what a dictionary or an array is.
package pdftokenizer

// ported from the Java PDFTK library, adapted to read through a
// buffer.Buffer instead of a flat byte slice so the tokenizer can scan
// arbitrarily large, seekable input without buffering it fully in memory.

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/maxpmaxp/pdfreader/buffer"
)

type Kind uint8

const (
	EOF Kind = iota
	Float
	Integer
	String
	StringHex
	Name
	Comment
	StartArray
	EndArray
	StartDic
	EndDic
	StartProc // only valid in PostScript files
	EndProc   // idem
	Other     // includes commands in content streams
)

func (k Kind) String() string {
	switch k {
	case EOF:
		return "EOF"
	case Float:
		return "Float"
	case Integer:
		return "Integer"
	case String:
		return "String"
	case StringHex:
		return "StringHex"
	case Name:
		return "Name"
	case Comment:
		return "Comment"
	case StartArray:
		return "StartArray"
	case EndArray:
		return "EndArray"
	case StartDic:
		return "StartDic"
	case EndDic:
		return "EndDic"
	case StartProc:
		return "StartProc"
	case EndProc:
		return "EndProc"
	case Other:
		return "Other"
	default:
		return "<invalid token>"
	}
}

func isWhitespace(ch byte) bool {
	switch ch {
	case 0, 9, 10, 12, 13, 32:
		return true
	default:
		return false
	}
}

// isDelimiter reports white space + the PDF delimiter characters.
func isDelimiter(ch byte) bool {
	switch ch {
	case 40, 41, 60, 62, 91, 93, 123, 125, 47, 37:
		return true
	default:
		return isWhitespace(ch)
	}
}

func isDigit(ch byte) bool { return ch >= '0' && ch <= '9' }

// Token is one lexical unit. Value must be interpreted according to Kind,
// which is left to the parser package.
type Token struct {
	Kind  Kind
	Value string
	// Offset is the byte offset of the first character of the token,
	// carried for parse-error diagnostics (spec §4.2).
	Offset int64
}

func (t Token) Int() (int, error) {
	f, err := t.Float()
	return int(f), err
}

func (t Token) Float() (float64, error) {
	return strconv.ParseFloat(t.Value, 64)
}

// Tokenizer turns a buffer.Buffer into a Token stream with one token of
// lookahead, matching the shape the object parser needs to decide between
// a bare number and the start of an `N G R` indirect reference.
type Tokenizer struct {
	buf *buffer.Buffer

	hasAhead   bool
	aheadToken Token
	aheadError error
}

// New builds a Tokenizer. Unlike a naive one-token-lookahead design, the
// first token is not scanned until PeekToken/NextToken is actually called:
// scanning eagerly would force a byte past tokens whose raw bytes the
// caller still needs untouched, as happens right after the "stream"
// keyword, where the parser must read the declared /Length worth of binary
// data rather than have the tokenizer interpret it as the next token.
func New(buf *buffer.Buffer) *Tokenizer {
	return &Tokenizer{buf: buf}
}

// Buffer exposes the underlying buffer so callers can capture/restore
// cursor state around speculative multi-token lookahead (e.g. the object
// parser's `N G R` vs. bare-integer decision).
func (pr *Tokenizer) Buffer() *buffer.Buffer { return pr.buf }

// State is a restorable snapshot of the tokenizer, covering both the
// underlying buffer cursor and the one-token lookahead cache. Saving and
// restoring this (rather than just the buffer's State) is what lets the
// object parser look more than one token ahead -- e.g. to decide whether
// "12 0" starts an indirect reference -- without losing its place on
// failure.
type State struct {
	buf        buffer.State
	hasAhead   bool
	aheadToken Token
	aheadError error
}

func (pr *Tokenizer) SaveState() State {
	return State{buf: pr.buf.GetState(), hasAhead: pr.hasAhead, aheadToken: pr.aheadToken, aheadError: pr.aheadError}
}

func (pr *Tokenizer) RestoreState(s State) {
	pr.buf.SetState(s.buf)
	pr.hasAhead, pr.aheadToken, pr.aheadError = s.hasAhead, s.aheadToken, s.aheadError
}

// PeekToken reads a token but does not advance the position. The scan
// happens now, on demand, and is cached until the next NextToken.
func (pr *Tokenizer) PeekToken() (Token, error) {
	if !pr.hasAhead {
		pr.aheadToken, pr.aheadError = pr.nextToken()
		pr.hasAhead = true
	}
	return pr.aheadToken, pr.aheadError
}

// NextToken reads a token and advances (consuming the token). At end of
// input, no error is returned, but an EOF-kind token is.
func (pr *Tokenizer) NextToken() (Token, error) {
	tk, err := pr.PeekToken()
	pr.hasAhead = false
	return tk, err
}

func fromHexChar(c byte) (byte, bool) {
	switch {
	case '0' <= c && c <= '9':
		return c - '0', true
	case 'a' <= c && c <= 'f':
		return c - 'a' + 10, true
	case 'A' <= c && c <= 'F':
		return c - 'A' + 10, true
	}
	return c, false
}

func (pr *Tokenizer) read() (byte, bool) { return pr.buf.Next() }

func (pr *Tokenizer) unread() { pr.buf.Prev() }

func (pr *Tokenizer) nextToken() (Token, error) {
	ch, ok := pr.read()
	for ok && isWhitespace(ch) {
		ch, ok = pr.read()
	}
	if !ok {
		return Token{Kind: EOF, Offset: pr.buf.Offset()}, nil
	}
	start := pr.buf.Offset() - 1

	var outBuf []byte
	switch ch {
	case '[':
		return Token{Kind: StartArray, Offset: start}, nil
	case ']':
		return Token{Kind: EndArray, Offset: start}, nil
	case '{':
		return Token{Kind: StartProc, Offset: start}, nil
	case '}':
		return Token{Kind: EndProc, Offset: start}, nil
	case '/':
		for {
			ch, ok = pr.read()
			if !ok || isDelimiter(ch) {
				break
			}
			if ch == '#' {
				h1, _ := pr.read()
				h2, _ := pr.read()
				decoded := make([]byte, 1)
				if _, err := hex.Decode(decoded, []byte{h1, h2}); err != nil {
					return Token{}, fmt.Errorf("corrupted name object at offset %d", start)
				}
				outBuf = append(outBuf, decoded[0])
				continue
			}
			outBuf = append(outBuf, ch)
		}
		if ok { // delimiter matters to the caller, push it back
			pr.unread()
		}
		return Token{Kind: Name, Value: string(outBuf), Offset: start}, nil
	case '>':
		ch, ok = pr.read()
		if ch != '>' {
			return Token{}, fmt.Errorf("'>' not expected at offset %d", start)
		}
		return Token{Kind: EndDic, Offset: start}, nil
	case '<':
		v1, ok1 := pr.read()
		if v1 == '<' {
			return Token{Kind: StartDic, Offset: start}, nil
		}
		var (
			v2  byte
			ok2 bool
		)
		for {
			for ok1 && isWhitespace(v1) {
				v1, ok1 = pr.read()
			}
			if v1 == '>' {
				break
			}
			v1, ok1 = fromHexChar(v1)
			if !ok1 {
				return Token{}, fmt.Errorf("invalid hex char %d at offset %d", v1, start)
			}
			v2, ok2 = pr.read()
			for ok2 && isWhitespace(v2) {
				v2, ok2 = pr.read()
			}
			if v2 == '>' {
				ch = v1 << 4
				outBuf = append(outBuf, ch)
				break
			}
			v2, ok2 = fromHexChar(v2)
			if !ok2 {
				return Token{}, fmt.Errorf("invalid hex char %d at offset %d", v2, start)
			}
			ch = (v1 << 4) + v2
			outBuf = append(outBuf, ch)
			v1, ok1 = pr.read()
		}
		return Token{Kind: StringHex, Value: string(outBuf), Offset: start}, nil
	case '%':
		ch, ok = pr.read()
		for ok && ch != '\r' && ch != '\n' {
			ch, ok = pr.read()
		}
		return Token{Kind: Comment, Offset: start}, nil
	case '(':
		nesting := 0
		for {
			ch, ok = pr.read()
			if !ok {
				break
			}
			if ch == '(' {
				nesting++
			} else if ch == ')' {
				nesting--
			} else if ch == '\\' {
				lineBreak := false
				ch, ok = pr.read()
				switch ch {
				case 'n':
					ch = '\n'
				case 'r':
					ch = '\r'
				case 't':
					ch = '\t'
				case 'b':
					ch = '\b'
				case 'f':
					ch = '\f'
				case '(', ')', '\\':
				case '\r':
					lineBreak = true
					ch, ok = pr.read()
					if ch != '\n' {
						pr.unread()
					}
				case '\n':
					lineBreak = true
				default:
					if ch < '0' || ch > '7' {
						break
					}
					octal := ch - '0'
					ch, ok = pr.read()
					if ch < '0' || ch > '7' {
						pr.unread()
						ch = octal
						break
					}
					octal = (octal << 3) + ch - '0'
					ch, ok = pr.read()
					if ch < '0' || ch > '7' {
						pr.unread()
						ch = octal
						break
					}
					octal = (octal << 3) + ch - '0'
					ch = octal & 0xff
				}
				if lineBreak {
					continue
				}
				if !ok {
					break
				}
			} else if ch == '\r' {
				ch, ok = pr.read()
				if !ok {
					break
				}
				if ch != '\n' {
					pr.unread()
					ch = '\n'
				}
			}
			if nesting == -1 {
				break
			}
			outBuf = append(outBuf, ch)
		}
		if !ok {
			return Token{}, errors.New("error reading string: unexpected EOF")
		}
		return Token{Kind: String, Value: string(outBuf), Offset: start}, nil
	default:
		pr.unread() // put back the test char for readNumber/Other scanning
		if token, ok := pr.readNumber(); ok {
			token.Offset = start
			return token, nil
		}
		ch, ok = pr.read() // re-consume: readNumber restored the cursor
		outBuf = append(outBuf, ch)
		ch, ok = pr.read()
		for !isDelimiter(ch) {
			outBuf = append(outBuf, ch)
			ch, ok = pr.read()
		}
		if ok {
			pr.unread()
		}
		return Token{Kind: Other, Value: string(outBuf), Offset: start}, nil
	}
}

// readNumber accepts PS syntax (radix and exponents) per spec §4.2.
// Returns false, restoring the cursor, if the run of bytes is not a number.
func (pr *Tokenizer) readNumber() (Token, bool) {
	marked := pr.buf.GetState()

	sb, radix := &strings.Builder{}, &strings.Builder{}
	c, ok := pr.read()
	hasDigit := false
	if c == '+' || c == '-' {
		sb.WriteByte(c)
		c, _ = pr.read()
	}

	for isDigit(c) {
		sb.WriteByte(c)
		c, ok = pr.read()
		hasDigit = true
	}

	if c == '.' {
		sb.WriteByte(c)
		c, _ = pr.read()
	} else if c == '#' {
		// PostScript radix number: base#number
		radix = sb
		sb = &strings.Builder{}
		c, _ = pr.read()
	} else if sb.Len() == 0 || !hasDigit {
		pr.buf.SetState(marked)
		return Token{}, false
	} else if c == 'E' || c == 'e' {
		sb.WriteByte(c)
		c, ok = pr.read()
		if c == '-' {
			sb.WriteByte(c)
			c, ok = pr.read()
		}
	} else {
		if ok {
			pr.unread()
		}
		return Token{Value: sb.String(), Kind: Integer}, true
	}

	if isDigit(c) {
		sb.WriteByte(c)
		c, ok = pr.read()
	} else {
		pr.buf.SetState(marked)
		return Token{}, false
	}

	for isDigit(c) {
		sb.WriteByte(c)
		c, ok = pr.read()
	}

	if ok {
		pr.unread()
	}
	if radix := radix.String(); radix != "" {
		intRadix, _ := strconv.Atoi(radix)
		valInt, _ := strconv.ParseInt(sb.String(), intRadix, 0)
		return Token{Value: strconv.Itoa(int(valInt)), Kind: Integer}, true
	}
	return Token{Value: sb.String(), Kind: Float}, true
}
