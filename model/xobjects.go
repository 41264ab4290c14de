package model

// XObjectKind distinguishes the two XObject subtypes the interpreter cares
// about; PS XObjects (obsolete) are not modeled.
type XObjectKind uint8

const (
	XObjectUnknown XObjectKind = iota
	XObjectImage
	XObjectForm
)

// XObjectKindOf inspects a stream's /Subtype to classify it, per spec
// §4.13 (`Do name` dispatch on Resources.XObject).
func XObjectKindOf(r Resolver, s ObjStream) XObjectKind {
	switch Name(subtypeOf(r, s.Args)) {
	case "Image":
		return XObjectImage
	case "Form":
		return XObjectForm
	default:
		return XObjectUnknown
	}
}

func subtypeOf(r Resolver, d ObjDict) Name {
	n, _ := DerefName(r, d["Subtype"])
	return n
}

// FormXObject is a reusable content stream invoked via Do.
type FormXObject struct {
	BBox      Rectangle
	Matrix    Matrix
	Resources ObjDict // may be nil: inherits the invoking page's resources
	Content   []byte  // filter-encoded
}

func NewFormXObject(r Resolver, s ObjStream) FormXObject {
	out := FormXObject{Matrix: Identity, Content: s.Content}
	if bbox, ok := s.Args["BBox"].(ObjArray); ok {
		nums := DerefNumberArray(r, bbox)
		if len(nums) == 4 {
			out.BBox = Rectangle{Llx: nums[0], Lly: nums[1], Urx: nums[2], Ury: nums[3]}
		}
	}
	if m, ok := s.Args["Matrix"].(ObjArray); ok {
		nums := DerefNumberArray(r, m)
		if len(nums) == 6 {
			copy(out.Matrix[:], nums)
		}
	}
	out.Resources, _ = DerefDict(r, s.Args["Resources"])
	return out
}

// ImageXObject is an image's metadata, as declared by its stream dictionary
// or by an inline-image dictionary (the two share the same field set, with
// the BI/ID/EI short-name aliases resolved by NewImageXObject).
type ImageXObject struct {
	Width, Height     int
	BitsPerComponent  int
	ColorSpace        Object // Name, Array, or nil (ImageMask images have none)
	ImageMask         bool
	Decode            []Fl
	Interpolate       bool
	Intent            Name
	Filters           []Name
	DecodeParms       []ObjDict
	Content           []byte // filter-encoded
}

func NewImageXObject(r Resolver, s ObjStream) ImageXObject {
	d := s.Args
	get := func(long, short Name) Object {
		if v, ok := d[long]; ok {
			return Deref(r, v)
		}
		return Deref(r, d[short])
	}
	img := ImageXObject{Content: s.Content}
	img.Width, _ = DerefInt(r, get("Width", "W"))
	img.Height, _ = DerefInt(r, get("Height", "H"))
	img.BitsPerComponent, _ = DerefInt(r, get("BitsPerComponent", "BPC"))
	img.ColorSpace = get("ColorSpace", "CS")
	if b, ok := get("ImageMask", "IM").(ObjBool); ok {
		img.ImageMask = bool(b)
	}
	img.Decode = DerefNumberArray(r, get("Decode", "D"))
	if b, ok := get("Interpolate", "I").(ObjBool); ok {
		img.Interpolate = bool(b)
	}
	img.Intent, _ = DerefName(r, d["Intent"])
	img.Filters, img.DecodeParms = filtersOf(r, get("Filter", "F"), get("DecodeParms", "DP"))
	return img
}

func filtersOf(r Resolver, filter, parms Object) ([]Name, []ObjDict) {
	var names []Name
	switch f := filter.(type) {
	case ObjName:
		names = []Name{Name(f)}
	case ObjArray:
		for _, e := range f {
			if n, ok := DerefName(r, e); ok {
				names = append(names, n)
			}
		}
	}
	var parmDicts []ObjDict
	switch p := parms.(type) {
	case ObjDict:
		parmDicts = []ObjDict{p}
	case ObjArray:
		for _, e := range p {
			d, _ := DerefDict(r, e)
			parmDicts = append(parmDicts, d)
		}
	}
	return names, parmDicts
}
