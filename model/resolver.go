package model

// Resolver turns an indirect reference into the value it points to,
// following exactly one hop. Implemented by document.Document (C9);
// the model package depends only on this narrow interface so that typed
// view structs can dereference fields without importing xref.
type Resolver interface {
	Resolve(Object) Object
}

// Deref follows o through r once if it is an indirect reference, otherwise
// returns o unchanged; a nil o yields ObjNull{}. Most accessors on the typed views use this instead
// of a raw type assertion.
func Deref(r Resolver, o Object) Object {
	if o == nil {
		return ObjNull{}
	}
	if r == nil {
		return o
	}
	return r.Resolve(o)
}

func DerefDict(r Resolver, o Object) (ObjDict, bool) {
	d, ok := Deref(r, o).(ObjDict)
	return d, ok
}

func DerefArray(r Resolver, o Object) (ObjArray, bool) {
	a, ok := Deref(r, o).(ObjArray)
	return a, ok
}

func DerefStream(r Resolver, o Object) (ObjStream, bool) {
	s, ok := Deref(r, o).(ObjStream)
	return s, ok
}

func DerefName(r Resolver, o Object) (Name, bool) {
	n, ok := Deref(r, o).(ObjName)
	return Name(n), ok
}

func DerefInt(r Resolver, o Object) (int, bool) {
	switch v := Deref(r, o).(type) {
	case ObjInt:
		return int(v), true
	case ObjFloat:
		return int(v), true
	default:
		return 0, false
	}
}

func DerefNumber(r Resolver, o Object) (Fl, bool) {
	return IsNumber(Deref(r, o))
}

func DerefNumberArray(r Resolver, o Object) []Fl {
	a, ok := DerefArray(r, o)
	if !ok {
		return nil
	}
	out := make([]Fl, 0, len(a))
	for _, e := range a {
		if f, ok := DerefNumber(r, e); ok {
			out = append(out, f)
		}
	}
	return out
}

func DictGet(r Resolver, d ObjDict, keys ...Name) Object {
	for _, k := range keys {
		if v, ok := d[k]; ok {
			return Deref(r, v)
		}
	}
	return nil
}
