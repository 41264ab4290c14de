package model

// Catalog is the document Catalog dictionary (the Root of the trailer).
type Catalog struct {
	Dict ObjDict
}

func (c Catalog) Pages(r Resolver) PageTree {
	d, _ := DerefDict(r, c.Dict["Pages"])
	return PageTree{Dict: d}
}

// PageTree is one node of the page tree (an intermediate /Type /Pages node,
// or the subtree rooted at one). Leaves are read out as Page values by
// Pages().
type PageTree struct {
	Dict ObjDict
}

// Page is one leaf (/Type /Page) of the page tree, together with the chain
// of ancestor dictionaries needed to resolve inherited attributes
// (Resources, MediaBox, Rotate).
type Page struct {
	Dict      ObjDict
	Ancestors []ObjDict // nearest ancestor first
}

// Pages walks the page tree in pre-order (document order) and returns every
// leaf Page, per spec §4.9 / §6 (`document.pages()`).
func (t PageTree) Pages(r Resolver) []Page {
	var out []Page
	walkPageTree(r, t.Dict, nil, &out, map[Object]bool{})
	return out
}

func walkPageTree(r Resolver, node ObjDict, ancestors []ObjDict, out *[]Page, visited map[Object]bool) {
	if node == nil {
		return
	}
	kids, _ := DerefArray(r, node["Kids"])
	if kids == nil {
		// No Kids: treat as a leaf page even if /Type is missing or wrong,
		// matching real-world files that omit /Type on page dictionaries.
		*out = append(*out, Page{Dict: node, Ancestors: ancestors})
		return
	}
	nextAncestors := append(append([]ObjDict(nil), node), ancestors...)
	for _, kidRef := range kids {
		if visited[kidRef] {
			continue
		}
		visited[kidRef] = true
		kid, ok := DerefDict(r, kidRef)
		if !ok {
			continue
		}
		if kidKids, isNode := DerefArray(r, kid["Kids"]); isNode && kidKids != nil {
			walkPageTree(r, kid, nextAncestors, out, visited)
		} else {
			*out = append(*out, Page{Dict: kid, Ancestors: nextAncestors})
		}
	}
}

// Inherited looks for key on the node itself, then on Ancestors (nearest
// first), implementing the Resources/MediaBox/Rotate/CropBox inheritance
// rule in spec §3 ("Resources"): child wins, missing entries fall through
// to the parent chain.
func (p Page) Inherited(r Resolver, key Name) Object {
	if v, ok := p.Dict[key]; ok {
		return Deref(r, v)
	}
	for _, anc := range p.Ancestors {
		if v, ok := anc[key]; ok {
			return Deref(r, v)
		}
	}
	return nil
}

func (p Page) MediaBox(r Resolver) (Rectangle, bool) {
	arr, ok := p.Inherited(r, "MediaBox").(ObjArray)
	if !ok || len(arr) != 4 {
		return Rectangle{}, false
	}
	nums := DerefNumberArray(r, arr)
	if len(nums) != 4 {
		return Rectangle{}, false
	}
	return Rectangle{Llx: nums[0], Lly: nums[1], Urx: nums[2], Ury: nums[3]}, true
}

func (p Page) Rotation(r Resolver) Rotation {
	deg, ok := DerefInt(r, p.Inherited(r, "Rotate"))
	if !ok {
		return Zero
	}
	rot := NewRotation(deg)
	if rot == Unset {
		return Zero
	}
	return rot
}

// Resources returns the page's resource dictionary, inherited from the
// nearest ancestor that declares one when the page itself has none.
func (p Page) Resources(r Resolver) ObjDict {
	d, _ := p.Inherited(r, "Resources").(ObjDict)
	return d
}

// ContentStreams returns the page's content stream(s), still
// filter-encoded and not concatenated -- a single Stream or an Array of
// Streams are both legal per ISO 32000-1 7.8.2.
func (p Page) ContentStreams(r Resolver) []ObjStream {
	v := Deref(r, p.Dict["Contents"])
	switch t := v.(type) {
	case ObjStream:
		return []ObjStream{t}
	case ObjArray:
		var out []ObjStream
		for _, e := range t {
			if s, ok := DerefStream(r, e); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

func (p Page) Annotations(r Resolver) ObjArray {
	a, _ := DerefArray(r, p.Dict["Annots"])
	return a
}
