// Package graphics implements the graphics-state stack and the resource
// inheritance/merge rule of spec §4.12 (C13).
package graphics

import "github.com/maxpmaxp/pdfreader/model"

// TextState is the Tf/Tc/Tw/Tz/TL/Tr/Ts sub-block of the graphics state.
type TextState struct {
	FontName model.Name
	FontSize model.Fl
	Tc       model.Fl // character spacing
	Tw       model.Fl // word spacing
	Tz       model.Fl // horizontal scaling, percent; PDF default 100
	TL       model.Fl // leading
	Tr       int      // rendering mode
	Ts       model.Fl // rise
}

// DefaultTextState is the state at the start of every content stream.
func DefaultTextState() TextState {
	return TextState{Tz: 100}
}

// State is one level of the q/Q graphics-state stack.
type State struct {
	CTM model.Matrix

	LineWidth  model.Fl
	LineCap    int
	LineJoin   int
	MiterLimit model.Fl
	DashArray  []model.Fl
	DashPhase  model.Fl
	RenderIntent model.Name
	Flatness   model.Fl

	Text TextState

	ExtGState model.ObjDict // last merged gs dictionary, kept for inspection
}

// Clone deep-copies a State, per spec §4.12's `q` semantics.
func (s State) Clone() State {
	out := s
	out.DashArray = append([]model.Fl(nil), s.DashArray...)
	if s.ExtGState != nil {
		out.ExtGState = s.ExtGState.Clone().(model.ObjDict)
	}
	return out
}

// DefaultState is the state a content stream (or Form) begins with.
func DefaultState() State {
	return State{
		CTM:        model.Identity,
		LineWidth:  1,
		MiterLimit: 10,
		Text:       DefaultTextState(),
	}
}

// Stack is the q/Q graphics-state stack, per spec §4.12.
type Stack struct {
	frames []State
}

// NewStack starts a stack with one frame set to initial.
func NewStack(initial State) *Stack {
	return &Stack{frames: []State{initial}}
}

// Top returns the current state. A freshly constructed Stack always has
// one frame, so this never operates on an empty stack.
func (s *Stack) Top() *State {
	return &s.frames[len(s.frames)-1]
}

// Push implements `q`: duplicate the top frame.
func (s *Stack) Push() {
	s.frames = append(s.frames, s.Top().Clone())
}

// Pop implements `Q`. Underflow is not fatal: it pops nothing and logs
// nothing, so the stack never drops below its initial frame.
func (s *Stack) Pop() {
	if len(s.frames) > 1 {
		s.frames = s.frames[:len(s.frames)-1]
	}
}

// MergeExtGState applies gs's non-None/non-missing fields onto state, per
// spec §4.12's `gs` operator. Only the fields this package tracks are
// consulted; unrecognized keys are preserved verbatim in ExtGState for
// callers that need them.
func MergeExtGState(r model.Resolver, state *State, gs model.ObjDict) {
	if lw, ok := model.IsNumber(model.Deref(r, gs["LW"])); ok {
		state.LineWidth = lw
	}
	if lc, ok := model.DerefInt(r, gs["LC"]); ok {
		state.LineCap = lc
	}
	if lj, ok := model.DerefInt(r, gs["LJ"]); ok {
		state.LineJoin = lj
	}
	if ml, ok := model.IsNumber(model.Deref(r, gs["ML"])); ok {
		state.MiterLimit = ml
	}
	if ri, ok := model.DerefName(r, gs["RI"]); ok {
		state.RenderIntent = ri
	}
	if d, ok := model.Deref(r, gs["D"]).(model.ObjArray); ok && len(d) == 2 {
		if arr, ok := d[0].(model.ObjArray); ok {
			state.DashArray = model.DerefNumberArray(r, arr)
		}
		if phase, ok := model.IsNumber(model.Deref(r, d[1])); ok {
			state.DashPhase = phase
		}
	}
	if fontArr, ok := model.Deref(r, gs["Font"]).(model.ObjArray); ok && len(fontArr) == 2 {
		if size, ok := model.IsNumber(model.Deref(r, fontArr[1])); ok {
			state.Text.FontSize = size
		}
	}
	if state.ExtGState == nil {
		state.ExtGState = model.ObjDict{}
	}
	for k, v := range gs {
		state.ExtGState[k] = v
	}
}

// resourceCategories are the dictionary-valued resource entries merged
// key-by-key across the page ancestry, per spec §4.12.
var resourceCategories = []model.Name{"Font", "ExtGState", "ColorSpace", "Pattern", "Shading", "XObject", "Properties"}

// MergedResources implements spec §4.12's resource resolution: walk from the
// page to the root merging Resources dicts, child wins per entry. Page
// already exposes the nearest non-empty Resources dict wholesale;
// MergedResources instead merges every ancestor's contribution one
// category at a time, so a child that declares only /Font still inherits
// an ancestor's /XObject entries rather than losing them outright.
func MergedResources(r model.Resolver, page model.Page) model.ObjDict {
	dicts := make([]model.ObjDict, 0, len(page.Ancestors)+1)
	if d, ok := model.Deref(r, page.Dict["Resources"]).(model.ObjDict); ok {
		dicts = append(dicts, d)
	}
	for _, anc := range page.Ancestors {
		if d, ok := model.Deref(r, anc["Resources"]).(model.ObjDict); ok {
			dicts = append(dicts, d)
		}
	}

	merged := model.ObjDict{}
	for _, cat := range resourceCategories {
		catDict := model.ObjDict{}
		for i := len(dicts) - 1; i >= 0; i-- {
			sub, ok := model.Deref(r, dicts[i][cat]).(model.ObjDict)
			if !ok {
				continue
			}
			for k, v := range sub {
				catDict[k] = v
			}
		}
		if len(catDict) > 0 {
			merged[cat] = catDict
		}
	}

	procSet := map[model.Name]bool{}
	for i := len(dicts) - 1; i >= 0; i-- {
		if arr, ok := model.Deref(r, dicts[i]["ProcSet"]).(model.ObjArray); ok {
			for _, e := range arr {
				if n, ok := model.Deref(r, e).(model.ObjName); ok {
					procSet[model.Name(n)] = true
				}
			}
		}
	}
	if len(procSet) > 0 {
		names := make(model.ObjArray, 0, len(procSet))
		for n := range procSet {
			names = append(names, model.ObjName(n))
		}
		merged["ProcSet"] = names
	}

	return merged
}

// MergeFormResources merges a Form XObject's own Resources (if any) over
// the invoking page's merged resources, per spec §4.13's Do/Form handling:
// the Form's declarations take precedence, falling back to the page's for
// anything the Form omits.
func MergeFormResources(formResources, pageResources model.ObjDict) model.ObjDict {
	merged := model.ObjDict{}
	for _, cat := range resourceCategories {
		catDict := model.ObjDict{}
		if sub, ok := pageResources[cat].(model.ObjDict); ok {
			for k, v := range sub {
				catDict[k] = v
			}
		}
		if sub, ok := formResources[cat].(model.ObjDict); ok {
			for k, v := range sub {
				catDict[k] = v
			}
		}
		if len(catDict) > 0 {
			merged[cat] = catDict
		}
	}
	if arr, ok := formResources["ProcSet"]; ok {
		merged["ProcSet"] = arr
	} else if arr, ok := pageResources["ProcSet"]; ok {
		merged["ProcSet"] = arr
	}
	return merged
}
