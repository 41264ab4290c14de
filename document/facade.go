package document

import (
	"strconv"
	"time"

	"github.com/maxpmaxp/pdfreader/model"
	"golang.org/x/text/encoding/unicode"
)

// Catalog resolves the trailer's /Root, per spec §4.9.
func (doc *Document) Catalog() model.Catalog {
	root, _ := model.DerefDict(doc, doc.chain.Trailer()["Root"])
	return model.Catalog{Dict: root}
}

// Pages returns the flattened, left-to-right page list, per spec §4.9's
// walk of the page tree.
func (doc *Document) Pages() []model.Page {
	return doc.Catalog().Pages(doc).Pages(doc)
}

// Navigate returns the zero-indexed page n, or ErrPageDoesNotExist past
// either end of the list: the zero-indexed counterpart of spec §4.13's
// 1-based navigate(n).
func (doc *Document) Navigate(n int) (model.Page, error) {
	pages := doc.Pages()
	if n < 0 || n >= len(pages) {
		return model.Page{}, ErrPageDoesNotExist
	}
	return pages[n], nil
}

// Metadata is the subset of the document information dictionary spec §4.9
// surfaces as typed fields, with CreationDate/ModDate parsed from the PDF
// date string format.
type Metadata struct {
	Dict         model.ObjDict
	Title        string
	Author       string
	Subject      string
	Keywords     string
	Creator      string
	Producer     string
	CreationDate *time.Time
	ModDate      *time.Time
}

func (doc *Document) Metadata() Metadata {
	info, _ := model.DerefDict(doc, doc.chain.Trailer()["Info"])
	m := Metadata{Dict: info}
	if info == nil {
		return m
	}
	textField := func(key model.Name) string {
		s, _ := model.IsString(model.Deref(doc, info[key]))
		return DecodeTextString(s)
	}
	m.Title = textField("Title")
	m.Author = textField("Author")
	m.Subject = textField("Subject")
	m.Keywords = textField("Keywords")
	m.Creator = textField("Creator")
	m.Producer = textField("Producer")
	if s, ok := model.IsString(model.Deref(doc, info["CreationDate"])); ok {
		if t, err := ParsePDFDate(s); err == nil {
			m.CreationDate = &t
		}
	}
	if s, ok := model.IsString(model.Deref(doc, info["ModDate"])); ok {
		if t, err := ParsePDFDate(s); err == nil {
			m.ModDate = &t
		}
	}
	return m
}

// DecodeTextString decodes a PDF "text string" (ISO 32000-1 7.9.2.2): UTF-16BE
// with a leading 0xFE 0xFF byte-order mark, or PDFDocEncoding otherwise. Only
// the UTF-16BE case needs real decoding; PDFDocEncoding is treated as Latin-1
// for the ASCII-range bytes Info dictionaries overwhelmingly use in practice.
func DecodeTextString(raw string) string {
	b := []byte(raw)
	if len(b) >= 2 && b[0] == 0xFE && b[1] == 0xFF {
		decoded, err := unicode.UTF16(unicode.BigEndian, unicode.ExpectBOM).NewDecoder().Bytes(b)
		if err == nil {
			return string(decoded)
		}
	}
	runes := make([]rune, len(b))
	for i, c := range b {
		runes[i] = rune(c)
	}
	return string(runes)
}

// ParsePDFDate parses ISO 32000-1 7.9.4's date string:
// D:YYYYMMDDHHmmSSOHH'mm', with every field past YYYY optional and O one of
// '+', '-' or 'Z'.
func ParsePDFDate(s string) (time.Time, error) {
	if len(s) >= 2 && s[:2] == "D:" {
		s = s[2:]
	}
	if len(s) < 4 {
		return time.Time{}, errInvalidDate
	}

	digits := func(s string, i, n int) (int, bool) {
		if i+n > len(s) {
			return 0, false
		}
		for j := i; j < i+n; j++ {
			if s[j] < '0' || s[j] > '9' {
				return 0, false
			}
		}
		v, err := strconv.Atoi(s[i : i+n])
		return v, err == nil
	}

	year, ok := digits(s, 0, 4)
	if !ok {
		return time.Time{}, errInvalidDate
	}
	month, day, hour, min, sec := 1, 1, 0, 0, 0
	pos := 4
	if v, ok := digits(s, pos, 2); ok {
		month, pos = v, pos+2
	}
	if v, ok := digits(s, pos, 2); ok {
		day, pos = v, pos+2
	}
	if v, ok := digits(s, pos, 2); ok {
		hour, pos = v, pos+2
	}
	if v, ok := digits(s, pos, 2); ok {
		min, pos = v, pos+2
	}
	if v, ok := digits(s, pos, 2); ok {
		sec, pos = v, pos+2
	}

	loc := time.UTC
	if pos < len(s) {
		switch s[pos] {
		case 'Z':
			loc = time.UTC
		case '+', '-':
			sign := 1
			if s[pos] == '-' {
				sign = -1
			}
			pos++
			offHour, _ := digits(s, pos, 2)
			pos += 2
			offMin := 0
			if pos < len(s) && s[pos] == '\'' {
				pos++
				offMin, _ = digits(s, pos, 2)
			}
			loc = time.FixedZone("", sign*(offHour*3600+offMin*60))
		}
	}

	return time.Date(year, time.Month(month), day, hour, min, sec, 0, loc), nil
}

var errInvalidDate = dateError("document: malformed PDF date string")

type dateError string

func (e dateError) Error() string { return string(e) }
