// Package viewer implements the content-stream interpreter (C14): it
// replays contentstream.Record values against a graphics.Stack, decoding
// text through the active font's encoding.Decoder and recording strings,
// images and nested Form canvases onto a Canvas.
package viewer

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/maxpmaxp/pdfreader/contentstream"
	"github.com/maxpmaxp/pdfreader/document"
	"github.com/maxpmaxp/pdfreader/encoding"
	"github.com/maxpmaxp/pdfreader/graphics"
	"github.com/maxpmaxp/pdfreader/model"
	"github.com/maxpmaxp/pdfreader/parser"
)

// errUnmatchedET is raised in StrictBeginEndText mode by an ET operator
// with no open BT, per spec §9's strict_bt_et knob.
var errUnmatchedET = errors.New("viewer: unmatched ET with no open BT")

// The names contentstream.Parser gives the `'`, `"` and `T*` operators
// (spec §4.13); the dispatch below matches these renamed names, never the
// raw operator text.
const (
	opApostrophe = "apostrophe"
	opQuotation  = "quotation"
	opTstar      = "Tstar"
)

// Viewer drives page rendering for one open Document: it owns the
// page-canvas cache (idempotent rendering, spec §4.13's "navigate(n)") and
// the Form-XObject memoization cache (spec §4.13's "Do ... memoized
// rendering").
type Viewer struct {
	Doc   *document.Document
	Hooks Hooks

	fonts        *encoding.Registry
	pageCanvases map[int]*Canvas
	formCache    map[model.Reference]*Canvas
	current      int // 1-based page number last reached by Navigate/Next/Prev; 0 before the first call
}

// New builds a Viewer over doc, with its own font-decoder Registry, per
// spec §9's one-registry-per-document design.
func New(doc *document.Document) *Viewer {
	return &Viewer{
		Doc:          doc,
		fonts:        encoding.NewRegistry(),
		pageCanvases: map[int]*Canvas{},
		formCache:    map[model.Reference]*Canvas{},
	}
}

// RenderPage renders (or returns the cached, cloned rendering of) the
// zero-indexed page n, per spec §6's `page.render()`.
func (v *Viewer) RenderPage(n int) (*Canvas, error) {
	if c, ok := v.pageCanvases[n]; ok {
		return c.Clone(), nil
	}
	page, err := v.Doc.Navigate(n)
	if err != nil {
		return nil, err
	}

	resources := graphics.MergedResources(v.Doc, page)
	content, err := concatContentStreams(v.Doc, page, v.Doc.StrictStreams)
	if err != nil {
		return nil, err
	}

	canvas, err := v.run(content, resources, graphics.DefaultState())
	if err != nil {
		return nil, err
	}
	v.pageCanvases[n] = canvas
	return canvas.Clone(), nil
}

// concatContentStreams decodes and concatenates a page's Contents
// stream(s), separated by a whitespace byte so that a token at the end of
// one stream never fuses with the start of the next, per ISO 32000-1
// 7.8.2's note that a multi-stream Contents array must be treated as if
// the streams were concatenated with an intervening white-space separator.
func concatContentStreams(r model.Resolver, page model.Page, strict bool) ([]byte, error) {
	var out []byte
	for _, s := range page.ContentStreams(r) {
		fs, err := parser.DecodeStreamFilters(r, s.Args)
		if err != nil {
			if strict {
				return nil, err
			}
			continue
		}
		decoded, err := fs.DecodeLenient(s.Content, strict)
		if err != nil {
			return nil, err
		}
		if len(out) > 0 {
			out = append(out, '\n')
		}
		out = append(out, decoded...)
	}
	return out, nil
}

// renderCtx is the mutable state threaded through one run of the
// interpreter (one content stream: a page, or one Form XObject).
type renderCtx struct {
	stack     *graphics.Stack
	resources model.ObjDict
	canvas    *Canvas
	fontCache map[model.Name]encoding.Decoder
	inText    bool
	strictBT  bool
	aborted   error
}

func (v *Viewer) run(content []byte, resources model.ObjDict, initial graphics.State) (*Canvas, error) {
	cp, err := contentstream.New(content)
	if err != nil {
		return nil, err
	}
	ctx := &renderCtx{
		stack:     graphics.NewStack(initial),
		resources: resources,
		canvas:    NewCanvas(),
		fontCache: map[model.Name]encoding.Decoder{},
		strictBT:  v.Doc.StrictBeginEndText,
	}

	for {
		rec, err := cp.Next()
		if err != nil {
			if contentstream.IsEOF(err) {
				break
			}
			return nil, err
		}
		v.dispatch(ctx, rec)
		if ctx.aborted != nil {
			return nil, ctx.aborted
		}
	}
	return ctx.canvas, nil
}

// dispatch implements spec §4.13's before_handler / before_op / on_op /
// after_op / after_handler protocol for one record.
func (v *Viewer) dispatch(ctx *renderCtx, rec contentstream.Record) {
	if v.Hooks.BeforeHandler != nil {
		v.Hooks.BeforeHandler(rec)
	}

	switch r := rec.(type) {
	case contentstream.Operator:
		op := r
		if v.Hooks.BeforeOperator != nil {
			v.Hooks.BeforeOperator(&op)
		}
		handled := false
		if v.Hooks.OnOperator != nil {
			handled = v.Hooks.OnOperator(&op)
		}
		if !handled {
			v.execOperator(ctx, &op)
		}
		ctx.canvas.TextContent += serializeOperator(op)
		if v.Hooks.AfterOperator != nil {
			v.Hooks.AfterOperator(&op)
		}

	case contentstream.InlineImage:
		if v.Hooks.BeforeInlineImage != nil {
			v.Hooks.BeforeInlineImage(r)
		}
		handled := false
		if v.Hooks.OnInlineImage != nil {
			handled = v.Hooks.OnInlineImage(r)
		}
		if !handled {
			v.handleInlineImage(ctx, r)
		}
		if v.Hooks.AfterInlineImage != nil {
			v.Hooks.AfterInlineImage(r)
		}
	}

	if v.Hooks.AfterHandler != nil {
		v.Hooks.AfterHandler(rec)
	}
}

func (v *Viewer) handleInlineImage(ctx *renderCtx, img contentstream.InlineImage) {
	stream := model.ObjStream{Args: img.Dict, Content: img.Data}
	ctx.canvas.InlineImages = append(ctx.canvas.InlineImages, InlineImage{
		Image: model.NewImageXObject(v.Doc, stream),
		Data:  img.Data,
	})
}

// execOperator implements the graphics/text/XObject operators of spec
// §4.12/§4.13. Operators outside this set are recorded (via
// serializeOperator, in dispatch) but otherwise have no effect, matching
// "Unknown operators pass through with their operands intact" (spec §4.11).
func (v *Viewer) execOperator(ctx *renderCtx, op *contentstream.Operator) {
	top := ctx.stack.Top
	switch op.Name {
	case "q":
		ctx.stack.Push()
	case "Q":
		ctx.stack.Pop()
	case "cm":
		if m, ok := matrixOperand(op.Operands); ok {
			top().CTM = m
		}
	case "w":
		if n, ok := numAt(op.Operands, 0); ok {
			top().LineWidth = n
		}
	case "J":
		if n, ok := intAt(op.Operands, 0); ok {
			top().LineCap = n
		}
	case "j":
		if n, ok := intAt(op.Operands, 0); ok {
			top().LineJoin = n
		}
	case "M":
		if n, ok := numAt(op.Operands, 0); ok {
			top().MiterLimit = n
		}
	case "d":
		if arr, ok := op.Operands[0].(model.ObjArray); len(op.Operands) == 2 && ok {
			top().DashArray = model.DerefNumberArray(v.Doc, arr)
			if ph, ok := numAt(op.Operands, 1); ok {
				top().DashPhase = ph
			}
		}
	case "ri":
		if n, ok := nameAt(op.Operands, 0); ok {
			top().RenderIntent = n
		}
	case "i":
		if n, ok := numAt(op.Operands, 0); ok {
			top().Flatness = n
		}
	case "gs":
		v.applyExtGState(ctx, op)

	case "BT":
		ctx.inText = true // a nested BT silently closes the previous one (spec §4.13): no state to unwind, just stays true
	case "ET":
		if !ctx.inText && ctx.strictBT {
			ctx.aborted = errUnmatchedET
			return
		}
		ctx.inText = false
	case "Tf":
		if len(op.Operands) == 2 {
			if n, ok := op.Operands[0].(model.ObjName); ok {
				top().Text.FontName = model.Name(n)
			}
			if sz, ok := numAt(op.Operands, 1); ok {
				top().Text.FontSize = sz
			}
		}
	case "Tc":
		if n, ok := numAt(op.Operands, 0); ok {
			top().Text.Tc = n
		}
	case "Tw":
		if n, ok := numAt(op.Operands, 0); ok {
			top().Text.Tw = n
		}
	case "Tz":
		if n, ok := numAt(op.Operands, 0); ok {
			top().Text.Tz = n
		}
	case "TL":
		if n, ok := numAt(op.Operands, 0); ok {
			top().Text.TL = n
		}
	case "Ts":
		if n, ok := numAt(op.Operands, 0); ok {
			top().Text.Ts = n
		}
	case "Tr":
		if n, ok := intAt(op.Operands, 0); ok {
			top().Text.Tr = n
		}
	case "Tj":
		v.showText(ctx, op, len(op.Operands)-1)
	case opApostrophe:
		v.showText(ctx, op, len(op.Operands)-1)
	case opQuotation:
		// `aw ac string "`: sets word/char spacing, then shows the string
		// like Tj, per ISO 32000-1 9.4.3.
		if len(op.Operands) == 3 {
			if aw, ok := numAt(op.Operands, 0); ok {
				top().Text.Tw = aw
			}
			if ac, ok := numAt(op.Operands, 1); ok {
				top().Text.Tc = ac
			}
		}
		v.showText(ctx, op, len(op.Operands)-1)
	case "TJ":
		v.showArray(ctx, op)
	case opTstar:
		// newline bookkeeping only; no line-matrix is tracked (spec §4.13).

	case "Do":
		v.handleDo(ctx, op)
	}
}

func (v *Viewer) applyExtGState(ctx *renderCtx, op *contentstream.Operator) {
	name, ok := nameAt(op.Operands, 0)
	if !ok {
		return
	}
	extg, ok := ctx.resources["ExtGState"].(model.ObjDict)
	if !ok {
		return
	}
	gsDict, ok := model.DerefDict(v.Doc, extg[name])
	if !ok {
		return
	}
	graphics.MergeExtGState(v.Doc, ctx.stack.Top(), gsDict)
}

// showText decodes the string operand at index i through the current
// font's Decoder, appends it to canvas.Strings, and rewrites that operand
// to a literal-string form carrying the decoded text, per spec §4.13.
func (v *Viewer) showText(ctx *renderCtx, op *contentstream.Operator, i int) {
	if i < 0 || i >= len(op.Operands) {
		return
	}
	s, ok := model.IsString(op.Operands[i])
	if !ok {
		return
	}
	decoded := v.fontDecoder(ctx).Decode(s)
	ctx.canvas.Strings = append(ctx.canvas.Strings, decoded)
	op.Operands[i] = model.ObjStringLiteral(decoded)
}

func (v *Viewer) showArray(ctx *renderCtx, op *contentstream.Operator) {
	if len(op.Operands) == 0 {
		return
	}
	arr, ok := op.Operands[0].(model.ObjArray)
	if !ok {
		return
	}
	d := v.fontDecoder(ctx)
	var sb strings.Builder
	out := make(model.ObjArray, len(arr))
	for i, e := range arr {
		if s, ok := model.IsString(e); ok {
			decoded := d.Decode(s)
			sb.WriteString(decoded)
			out[i] = model.ObjStringLiteral(decoded)
		} else {
			out[i] = e
		}
	}
	if sb.Len() > 0 {
		ctx.canvas.Strings = append(ctx.canvas.Strings, sb.String())
	}
	op.Operands[0] = out
}

// fontDecoder returns the Decoder for the current Text State's font,
// building it once per distinct font name and reusing it thereafter, per
// spec §4.13's "Per-object decoder cache".
func (v *Viewer) fontDecoder(ctx *renderCtx) encoding.Decoder {
	name := ctx.stack.Top().Text.FontName
	if d, ok := ctx.fontCache[name]; ok {
		return d
	}
	var d encoding.Decoder = encoding.DefaultDecoder{}
	if fonts, ok := ctx.resources["Font"].(model.ObjDict); ok {
		if fontObj, ok := fonts[name]; ok {
			d = v.fonts.DecoderFor(v.Doc, fontObj)
		}
	}
	ctx.fontCache[name] = d
	return d
}

// handleDo implements spec §4.13's Do dispatch: Image XObjects are
// recorded by name; Form XObjects are rendered recursively with an
// implicit q/Q (the sub-render starts from a copy of the current state)
// and memoized by the XObject's object reference, so a Form invoked twice
// on one page is interpreted once.
func (v *Viewer) handleDo(ctx *renderCtx, op *contentstream.Operator) {
	name, ok := nameAt(op.Operands, 0)
	if !ok {
		return
	}
	xobjects, ok := ctx.resources["XObject"].(model.ObjDict)
	if !ok {
		return
	}
	raw, ok := xobjects[name]
	if !ok {
		return
	}
	s, ok := model.DerefStream(v.Doc, raw)
	if !ok {
		return
	}

	switch model.XObjectKindOf(v.Doc, s) {
	case model.XObjectImage:
		ctx.canvas.Images[name] = model.NewImageXObject(v.Doc, s)

	case model.XObjectForm:
		ref, memoizable := raw.(model.ObjIndirectRef)
		if memoizable {
			if cached, ok := v.formCache[ref.AsRef()]; ok {
				ctx.canvas.Forms[name] = cached.Clone()
				return
			}
		}
		sub, err := v.renderForm(s, ctx.stack.Top().Clone(), ctx.resources)
		if err != nil {
			if v.Doc.StrictStreams {
				ctx.aborted = err
			}
			return
		}
		if memoizable {
			v.formCache[ref.AsRef()] = sub
		}
		ctx.canvas.Forms[name] = sub.Clone()
	}
}

func (v *Viewer) renderForm(s model.ObjStream, initial graphics.State, pageResources model.ObjDict) (*Canvas, error) {
	form := model.NewFormXObject(v.Doc, s)
	fs, err := parser.DecodeStreamFilters(v.Doc, s.Args)
	if err != nil {
		return nil, err
	}
	decoded, err := fs.DecodeLenient(s.Content, v.Doc.StrictStreams)
	if err != nil {
		return nil, err
	}
	merged := graphics.MergeFormResources(form.Resources, pageResources)
	return v.run(decoded, merged, initial)
}

func numAt(ops model.ObjArray, i int) (model.Fl, bool) {
	if i < 0 || i >= len(ops) {
		return 0, false
	}
	return model.IsNumber(ops[i])
}

func intAt(ops model.ObjArray, i int) (int, bool) {
	f, ok := numAt(ops, i)
	return int(f), ok
}

func nameAt(ops model.ObjArray, i int) (model.Name, bool) {
	if i < 0 || i >= len(ops) {
		return "", false
	}
	n, ok := ops[i].(model.ObjName)
	return model.Name(n), ok
}

func matrixOperand(ops model.ObjArray) (model.Matrix, bool) {
	if len(ops) != 6 {
		return model.Matrix{}, false
	}
	var m model.Matrix
	for i := 0; i < 6; i++ {
		f, ok := model.IsNumber(ops[i])
		if !ok {
			return model.Matrix{}, false
		}
		m[i] = f
	}
	return m, true
}

// serializeOperator renders one operator back to source-like text, with
// string operands already substituted with decoded text by showText/
// showArray, per spec §6's `canvas.text_content`.
func serializeOperator(op contentstream.Operator) string {
	var sb strings.Builder
	for _, o := range op.Operands {
		sb.WriteString(serializeOperand(o))
		sb.WriteByte(' ')
	}
	sb.WriteString(op.Name)
	sb.WriteByte('\n')
	return sb.String()
}

func serializeOperand(o model.Object) string {
	switch v := o.(type) {
	case model.ObjInt:
		return strconv.FormatInt(int64(v), 10)
	case model.ObjFloat:
		return strconv.FormatFloat(float64(v), 'f', -1, 64)
	case model.ObjName:
		return "/" + string(v)
	case model.ObjBool:
		if v {
			return "true"
		}
		return "false"
	case model.ObjNull:
		return "null"
	case model.ObjStringLiteral:
		return "(" + string(v) + ")"
	case model.ObjHexLiteral:
		return "(" + string(v) + ")"
	case model.ObjArray:
		parts := make([]string, len(v))
		for i, e := range v {
			parts[i] = serializeOperand(e)
		}
		return "[" + strings.Join(parts, " ") + "]"
	default:
		return fmt.Sprintf("%v", v)
	}
}
