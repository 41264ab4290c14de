// Package document implements the document parser, object registry, and
// PDFDocument facade (C8/C9/C11): it ties the xref chain, the object
// grammar parser, the filter pipeline and the security handler together
// into on-demand object resolution with brute-force recovery.
package document

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/maxpmaxp/pdfreader/buffer"
	"github.com/maxpmaxp/pdfreader/model"
	"github.com/maxpmaxp/pdfreader/parser"
	"github.com/maxpmaxp/pdfreader/pdftokenizer"
	"github.com/maxpmaxp/pdfreader/security"
	"github.com/maxpmaxp/pdfreader/xref"
)

// ErrReferenceLoop is raised when DeepObject exceeds MaxReferenceDepth, per
// spec §7's ReferenceLoop kind.
var ErrReferenceLoop = errors.New("document: reference chain exceeds maximum depth")

// ErrPageDoesNotExist is raised by Navigate past either end of the page
// list.
var ErrPageDoesNotExist = errors.New("document: page does not exist")

// DefaultMaxReferenceDepth bounds DeepObject, per spec §4.9/§9.
const DefaultMaxReferenceDepth = 100

// Registry is the (number, generation) -> value object cache of C9. On
// insertion it does not itself unpack object streams. Document unpacks a
// container each time one of its not-yet-cached Compressed entries is
// looked up, and registers only the object that was asked for; the other
// objects of that container are not registered.
type Registry struct {
	cache map[model.Reference]model.Object
}

func newRegistry() *Registry {
	return &Registry{cache: map[model.Reference]model.Object{}}
}

func (reg *Registry) get(ref model.Reference) (model.Object, bool) {
	v, ok := reg.cache[ref]
	return v, ok
}

func (reg *Registry) set(ref model.Reference, obj model.Object) {
	reg.cache[ref] = obj
}

// objStmEntry is one object unpacked from an object stream.
type objStmEntry struct {
	Number int
	Object model.Object
}

// Document is one open PDF file: the xref chain, object registry, and
// (if the file is encrypted) the authenticated security handler. It
// implements model.Resolver so the model package's typed views can
// dereference through it directly.
type Document struct {
	rs    io.ReadSeeker
	chain xref.Chain
	reg   *Registry
	sec   *security.Handler

	bodyStart int64 // header offset; brute-force scanning starts here

	inProgress map[model.Reference]bool // brute-force/Length-resolution loop guard
	bruteIndex map[int]int64            // object number -> last "N G obj" offset seen; built lazily

	MaxReferenceDepth  int
	StrictStreams      bool
	StrictBeginEndText bool
}

// Options configures Open, following the shape of the teacher's
// reader.Options{CustomObjectResolver, UserPassword}: the zero value is a
// valid, fully lenient default configuration.
type Options struct {
	// UserPassword authenticates an encrypted document's Encrypt
	// dictionary, per spec §4.10.
	UserPassword string

	// StrictStreams makes a BrokenEncodedStream (spec §7) fatal instead of
	// logging and substituting empty bytes.
	StrictStreams bool

	// StrictBeginEndText makes an unmatched BT/ET pair abort rendering
	// instead of being tolerated, per spec §9's lenient/strict knobs.
	StrictBeginEndText bool

	// MaxReferenceDepth bounds DeepObject; zero means DefaultMaxReferenceDepth.
	MaxReferenceDepth int
}

// Open parses the header and trailer chain of rs and, if the file is
// encrypted, authenticates password against its Encrypt dictionary, per
// spec §4.9/§4.10. A wrong password returns security.ErrWrongPassword.
func Open(rs io.ReadSeeker, password string) (*Document, error) {
	return OpenWithOptions(rs, Options{UserPassword: password})
}

// OpenWithOptions is Open with full control over the lenient/strict knobs
// of spec §9's Options, per spec §2's Ambient Stack configuration design.
func OpenWithOptions(rs io.ReadSeeker, opts Options) (*Document, error) {
	headerOffset, _, err := xref.FindHeader(rs)
	if err != nil {
		return nil, fmt.Errorf("document: %w", err)
	}
	startOffset, err := xref.FindStartXRef(rs)
	if err != nil {
		return nil, fmt.Errorf("document: %w", err)
	}

	buf, err := buffer.New(rs)
	if err != nil {
		return nil, err
	}
	chain, err := xref.BuildChain(buf, startOffset)
	if err != nil || len(chain) == 0 {
		return nil, fmt.Errorf("document: building xref chain: %w", err)
	}

	maxDepth := opts.MaxReferenceDepth
	if maxDepth == 0 {
		maxDepth = DefaultMaxReferenceDepth
	}

	doc := &Document{
		rs:                 rs,
		chain:              chain,
		reg:                newRegistry(),
		bodyStart:          headerOffset,
		inProgress:         map[model.Reference]bool{},
		MaxReferenceDepth:  maxDepth,
		StrictStreams:      opts.StrictStreams,
		StrictBeginEndText: opts.StrictBeginEndText,
	}

	trailer := chain.Trailer()
	if encObj, has := trailer["Encrypt"]; has {
		encDict, ok := doc.resolveEncryptDict(encObj)
		if !ok {
			return nil, errors.New("document: /Encrypt is not a dictionary")
		}
		id0 := firstID(trailer)
		sec, err := security.New(doc, encDict, id0, opts.UserPassword)
		if err != nil {
			return nil, err
		}
		doc.sec = sec
	}

	return doc, nil
}

// resolveEncryptDict locates the trailer's /Encrypt dictionary, per spec
// §4.7's special-cased resolution order (supplements the distilled spec,
// grounded on original_source/pdfreader/document.py's
// `locate_encrypt_by_ref`): the registry, then the xref-described offset,
// then a backward scan from the trailer for the object's "N G obj" header,
// then ordinary resolution. Some encrypted files place this indirect
// object immediately before the xref stream, reachable only by scanning
// for it directly since decryption (which needs this very dictionary)
// isn't set up yet to make sense of the normal resolution path.
func (doc *Document) resolveEncryptDict(encObj model.Object) (model.ObjDict, bool) {
	ref, ok := encObj.(model.ObjIndirectRef)
	if !ok {
		return model.DerefDict(doc, encObj)
	}
	r := ref.AsRef()

	if v, ok := doc.reg.get(r); ok {
		d, ok := v.(model.ObjDict)
		return d, ok
	}
	if e, ok := doc.chain.Lookup(r.Number); ok && e.Kind == xref.InUse {
		if obj, err := doc.parseAt(e.Offset, r); err == nil {
			if d, ok := obj.(model.ObjDict); ok {
				doc.reg.set(r, obj)
				return d, true
			}
		}
	}
	if obj, err := doc.scanBackwardsFromTrailer(r); err == nil {
		if d, ok := obj.(model.ObjDict); ok {
			doc.reg.set(r, obj)
			return d, true
		}
	}
	return model.DerefDict(doc, ref)
}

// scanBackwardsFromTrailer finds the last "N G obj" header matching ref in
// the file body, reading backward from the end, per resolveEncryptDict.
func (doc *Document) scanBackwardsFromTrailer(ref model.Reference) (model.Object, error) {
	if _, err := doc.rs.Seek(doc.bodyStart, io.SeekStart); err != nil {
		return nil, err
	}
	data, err := io.ReadAll(doc.rs)
	if err != nil {
		return nil, err
	}
	needle := []byte(fmt.Sprintf("%d %d obj", ref.Number, ref.Generation))
	idx := bytes.LastIndex(data, needle)
	if idx < 0 {
		return nil, fmt.Errorf("document: object %s not found scanning backward from trailer", ref)
	}
	return doc.parseAt(doc.bodyStart+int64(idx), ref)
}

func firstID(trailer model.ObjDict) []byte {
	arr, ok := trailer["ID"].(model.ObjArray)
	if !ok || len(arr) == 0 {
		return nil
	}
	s, _ := model.IsString(arr[0])
	return []byte(s)
}

// Resolve implements model.Resolver.
func (doc *Document) Resolve(o model.Object) model.Object {
	ref, ok := o.(model.ObjIndirectRef)
	if !ok {
		return o
	}
	v, err := doc.get(ref.AsRef())
	if err != nil {
		return model.ObjNull{}
	}
	return v
}

// Object resolves one hop, per spec §6's `document.object(ref)`.
func (doc *Document) Object(ref model.Reference) (model.Object, error) {
	return doc.get(ref)
}

// DeepObject follows a chain of indirect references up to
// MaxReferenceDepth hops, per spec §4.9/§6.
func (doc *Document) DeepObject(ref model.Reference) (model.Object, error) {
	return doc.deepObject(ref, 0)
}

func (doc *Document) deepObject(ref model.Reference, depth int) (model.Object, error) {
	if depth > doc.MaxReferenceDepth {
		return nil, ErrReferenceLoop
	}
	obj, err := doc.get(ref)
	if err != nil {
		return nil, err
	}
	if next, ok := obj.(model.ObjIndirectRef); ok {
		return doc.deepObject(next.AsRef(), depth+1)
	}
	return obj, nil
}

// Build resolves obj, then recurses into Arrays and Dictionaries
// materializing nested indirect references along the way, per spec §4.9's
// general graph-walk entry point (supplements the distilled spec's
// single-hop Object/DeepObject pair, grounded on
// original_source/pdfreader/document.py's `build`). With lazy true, a
// Dictionary's own values are left unresolved once the Dictionary itself
// has been reached (matching the original's default); with lazy false
// every nested reference is resolved eagerly. A reference revisited while
// its own subtree is still being built resolves to Null, breaking cycles.
func (doc *Document) Build(obj model.Object, lazy bool) model.Object {
	return doc.build(obj, lazy, map[model.Reference]bool{})
}

func (doc *Document) build(obj model.Object, lazy bool, visited map[model.Reference]bool) model.Object {
	if ref, ok := obj.(model.ObjIndirectRef); ok {
		r := ref.AsRef()
		if visited[r] {
			return model.ObjNull{}
		}
		visited[r] = true
		defer delete(visited, r)

		resolved, err := doc.get(r)
		if err != nil {
			return model.ObjNull{}
		}
		obj = resolved
	}

	switch v := obj.(type) {
	case model.ObjArray:
		out := make(model.ObjArray, len(v))
		for i, e := range v {
			out[i] = doc.build(e, lazy, visited)
		}
		return out
	case model.ObjDict:
		if lazy {
			return v
		}
		out := make(model.ObjDict, len(v))
		for k, e := range v {
			out[k] = doc.build(e, lazy, visited)
		}
		return out
	default:
		return obj
	}
}

// get implements spec §4.7's resolution order: (1) registry cache, (2) the
// InUse xref entry, (3) the Compressed entry via its container, (4)
// brute-force scanning. A reference found nowhere resolves to Null, cached
// to stop retry loops.
func (doc *Document) get(ref model.Reference) (model.Object, error) {
	if v, ok := doc.reg.get(ref); ok {
		return v, nil
	}
	if doc.inProgress[ref] {
		return model.ObjNull{}, nil
	}

	if e, ok := doc.chain.Lookup(ref.Number); ok {
		switch e.Kind {
		case xref.Free:
			doc.reg.set(ref, model.ObjNull{})
			return model.ObjNull{}, nil

		case xref.InUse:
			doc.inProgress[ref] = true
			obj, err := doc.parseAt(e.Offset, ref)
			delete(doc.inProgress, ref)
			if err == nil {
				doc.reg.set(ref, obj)
				return obj, nil
			}

		case xref.Compressed:
			obj, err := doc.getCompressed(e.ContainerNumber, e.IndexInContainer)
			if err == nil {
				doc.reg.set(ref, obj)
				return obj, nil
			}
		}
	}

	obj, err := doc.bruteForce(ref)
	if err == nil {
		doc.reg.set(ref, obj)
		return obj, nil
	}
	doc.reg.set(ref, model.ObjNull{})
	return model.ObjNull{}, nil
}

// parseAt parses the "N G obj ... endobj" definition at offset using a
// buffer private to this call. A fresh buffer.Buffer is deliberately
// allocated here rather than reused across calls: resolving a stream's
// indirect /Length re-enters get() (via parser.IntLengthResolver), which
// would otherwise move a shared cursor out from under the outer parse, per
// spec §4.7's note that Length resolution must not disturb the stream
// cursor.
func (doc *Document) parseAt(offset int64, ref model.Reference) (model.Object, error) {
	buf, err := buffer.New(doc.rs)
	if err != nil {
		return nil, err
	}
	if err := buf.Reset(offset); err != nil {
		return nil, err
	}

	p := parser.New(buf)
	num, gen, obj, err := p.ParseIndirectObject(parser.IntLengthResolver(doc))
	if err != nil {
		return nil, err
	}
	_ = num // xref offsets occasionally point one object off in malformed files; trust the parsed value either way
	_ = gen

	if doc.sec == nil {
		return obj, nil
	}
	if s, ok := obj.(model.ObjStream); ok {
		content, err := doc.sec.DecryptStream(ref.Number, ref.Generation, s.Args, s.Content)
		if err != nil {
			return nil, err
		}
		s.Args = doc.sec.DecryptObject(ref.Number, ref.Generation, s.Args).(model.ObjDict)
		s.Content = content
		s.Args["Length"] = model.ObjInt(len(content))
		return s, nil
	}
	return doc.sec.DecryptObject(ref.Number, ref.Generation, obj), nil
}

func (doc *Document) getCompressed(containerNumber, index int) (model.Object, error) {
	entries, err := doc.objStm(containerNumber)
	if err != nil {
		return nil, err
	}
	if index < 0 || index >= len(entries) {
		return nil, fmt.Errorf("document: object stream %d has no slot %d", containerNumber, index)
	}
	return entries[index].Object, nil
}

// objStm unpacks object stream containerNumber, per spec §4.7: N pairs of
// (object-number, relative-offset) followed by the objects themselves at
// First+relative-offset. All contained objects have generation 0.
func (doc *Document) objStm(containerNumber int) ([]objStmEntry, error) {
	containerObj, err := doc.get(model.Reference{Number: containerNumber})
	if err != nil {
		return nil, err
	}
	s, ok := containerObj.(model.ObjStream)
	if !ok {
		return nil, fmt.Errorf("document: object %d is not a stream", containerNumber)
	}

	fs, err := parser.DecodeStreamFilters(doc, s.Args)
	if err != nil {
		return nil, err
	}
	decoded, err := fs.DecodeLenient(s.Content, doc.StrictStreams)
	if err != nil {
		return nil, err
	}

	n, _ := model.DerefInt(doc, s.Args["N"])
	first, _ := model.DerefInt(doc, s.Args["First"])
	if n <= 0 || first < 0 || first > len(decoded) {
		return nil, fmt.Errorf("document: object stream %d has invalid /N or /First", containerNumber)
	}

	header, err := buffer.New(bytes.NewReader(decoded[:first]))
	if err != nil {
		return nil, err
	}
	hp := parser.New(header)

	type pair struct{ num, offset int }
	pairs := make([]pair, 0, n)
	for i := 0; i < n; i++ {
		numObj, err := hp.ParseObject()
		if err != nil {
			break
		}
		offObj, err := hp.ParseObject()
		if err != nil {
			break
		}
		num, _ := model.DerefInt(nil, numObj)
		off, _ := model.DerefInt(nil, offObj)
		pairs = append(pairs, pair{num, off})
	}

	entries := make([]objStmEntry, len(pairs))
	for i, pr := range pairs {
		start := first + pr.offset
		end := len(decoded)
		if i+1 < len(pairs) {
			end = first + pairs[i+1].offset
		}
		if start < 0 || start > len(decoded) || end < start || end > len(decoded) {
			entries[i] = objStmEntry{Number: pr.num, Object: model.ObjNull{}}
			continue
		}
		obj, err := parser.ParseObjectBytes(decoded[start:end])
		if err != nil {
			obj = model.ObjNull{}
		}
		entries[i] = objStmEntry{Number: pr.num, Object: obj}
	}
	return entries, nil
}

// bruteForce locates (num, gen) by scanning the body for its "N G obj"
// header, per spec §4.7's last-resort resolution step. A stack of
// in-progress lookups prevents looping back into a reference currently
// being resolved (spec §4.7's loop prevention).
func (doc *Document) bruteForce(ref model.Reference) (model.Object, error) {
	if doc.inProgress[ref] {
		return nil, fmt.Errorf("document: reference loop resolving %s", ref)
	}
	if err := doc.ensureBruteForceIndex(); err != nil {
		return nil, err
	}
	offset, ok := doc.bruteIndex[ref.Number]
	if !ok {
		return nil, fmt.Errorf("document: object %s not found anywhere in file", ref)
	}

	doc.inProgress[ref] = true
	defer delete(doc.inProgress, ref)
	return doc.parseAt(offset, ref)
}

// ensureBruteForceIndex does one linear scan of the body, recording the
// last "N G obj" header seen for each object number (later definitions win,
// matching incremental-update semantics even without a working xref).
func (doc *Document) ensureBruteForceIndex() error {
	if doc.bruteIndex != nil {
		return nil
	}
	doc.bruteIndex = map[int]int64{}

	buf, err := buffer.New(doc.rs)
	if err != nil {
		return err
	}
	if err := buf.Reset(doc.bodyStart); err != nil {
		return nil
	}
	tok := pdftokenizer.New(buf)

	var window [2]pdftokenizer.Token
	seen := 0
	for {
		t, err := tok.NextToken()
		if err != nil {
			break
		}
		if t.Kind == pdftokenizer.EOF {
			break
		}
		if t.Kind == pdftokenizer.Other && t.Value == "obj" && seen >= 2 &&
			window[0].Kind == pdftokenizer.Integer && window[1].Kind == pdftokenizer.Integer {
			if n, err := window[0].Int(); err == nil {
				doc.bruteIndex[n] = window[0].Offset
			}
		}
		window[0] = window[1]
		window[1] = t
		seen++
	}
	return nil
}

// Encrypted reports whether the document carries an authenticated
// encryption handler.
func (doc *Document) Encrypted() bool { return doc.sec != nil }
