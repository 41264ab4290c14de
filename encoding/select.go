package encoding

import (
	"github.com/maxpmaxp/pdfreader/cmap"
	"github.com/maxpmaxp/pdfreader/model"
	"github.com/maxpmaxp/pdfreader/parser"
	"github.com/pdfcpu/pdfcpu/pkg/log"
)

// Registry builds and caches per-font Decoders for one document, per spec
// §9's "Global codec registry" note: rather than a process-wide registry,
// each document owns one, so two documents opened concurrently never share
// mutable decoder state.
type Registry struct {
	cache map[model.Reference]Decoder
}

func NewRegistry() *Registry {
	return &Registry{cache: map[model.Reference]Decoder{}}
}

// DecoderFor returns the Decoder for the font resource fontObj (the raw,
// possibly-indirect value found under Resources.Font), building it via the
// decision table of spec §4.5 on first use and caching it by reference
// identity thereafter.
func (reg *Registry) DecoderFor(r model.Resolver, fontObj model.Object) Decoder {
	if ref, ok := fontObj.(model.ObjIndirectRef); ok {
		key := ref.AsRef()
		if d, ok := reg.cache[key]; ok {
			return d
		}
		d := reg.build(r, model.Deref(r, fontObj))
		reg.cache[key] = d
		return d
	}
	return reg.build(r, model.Deref(r, fontObj))
}

func (reg *Registry) build(r model.Resolver, fontValue model.Object) Decoder {
	dict, ok := fontValue.(model.ObjDict)
	if !ok {
		return DefaultDecoder{}
	}

	baseFont, _ := model.DerefName(r, dict["BaseFont"])
	zapfLike := baseFont == "ZapfDingbats" || baseFont == "Symbol"
	fallback := fallbackDecoder(r, dict, zapfLike)

	if toUnicode, ok := model.DerefStream(r, dict["ToUnicode"]); ok {
		if cm, err := decodeCMapStream(r, toUnicode); err == nil {
			return &CMapDecoder{CM: cm, Fallback: fallback}
		}
	}

	encObj := model.Deref(r, dict["Encoding"])
	switch enc := encObj.(type) {
	case model.ObjName:
		name := string(enc)
		if cmap.IsPredefinedName(name) {
			if cm, err := cmap.LoadPredefined(name); err == nil {
				return &CMapDecoder{CM: cm, Fallback: fallback}
			}
			log.Parse.Printf("encoding: predefined CMap %q unavailable, falling back", name)
		}
		return &EncodingDecoder{Base: BaseTableByName(model.Name(enc)), ZapfLike: zapfLike}

	case model.ObjDict:
		base := model.Name("")
		if b, ok := model.DerefName(r, enc["BaseEncoding"]); ok {
			base = b
		}
		diffs, _ := model.DerefArray(r, enc["Differences"])
		return &EncodingDecoder{
			Base:        BaseTableByName(base),
			Differences: NewDifferences(r, diffs),
			ZapfLike:    zapfLike,
		}
	}

	if zapfLike {
		// Spec §9 open question: the source routes an unencoded Symbol/
		// ZapfDingbats font through a 2-byte Identity-H CMap, which is
		// almost certainly wrong for a single-byte font program.
		// ZapfDingbats falls back to its builtin single-byte table
		// instead; Symbol, which has no builtin table here, falls back
		// to StandardEncoding.
		base := Standard
		if baseFont == "ZapfDingbats" {
			base = ZapfDingbatsTable
		}
		return &EncodingDecoder{Base: base, ZapfLike: true}
	}

	if IsStandard14(string(baseFont)) {
		if cm, err := cmap.LoadPredefined("Identity-H"); err == nil {
			return &CMapDecoder{CM: cm, Fallback: fallback}
		}
	}

	log.Parse.Printf("encoding: no usable Encoding/ToUnicode for font %q, using latin-1 default", baseFont)
	return DefaultDecoder{}
}

// fallbackDecoder is the single-byte decoder a CMapDecoder falls back to
// when a byte prefix has no bf mapping, per spec §4.5's decode_hexstring.
func fallbackDecoder(r model.Resolver, dict model.ObjDict, zapfLike bool) Decoder {
	if enc, ok := model.DerefName(r, dict["Encoding"]); ok && !cmap.IsPredefinedName(string(enc)) {
		return &EncodingDecoder{Base: BaseTableByName(enc), ZapfLike: zapfLike}
	}
	return &EncodingDecoder{Base: Standard, ZapfLike: zapfLike}
}

func decodeCMapStream(r model.Resolver, s model.ObjStream) (*cmap.CMap, error) {
	fs, err := parser.DecodeStreamFilters(r, s.Args)
	if err != nil {
		return nil, err
	}
	decoded, err := fs.Decode(s.Content)
	if err != nil {
		return nil, err
	}
	return cmap.Parse(decoded)
}
