package model

import "testing"

func TestXObjectKindOfImageAndForm(t *testing.T) {
	img := ObjStream{Args: ObjDict{"Subtype": ObjName("Image")}}
	if XObjectKindOf(nil, img) != XObjectImage {
		t.Fatal("XObjectKindOf with /Subtype /Image should be XObjectImage")
	}
	form := ObjStream{Args: ObjDict{"Subtype": ObjName("Form")}}
	if XObjectKindOf(nil, form) != XObjectForm {
		t.Fatal("XObjectKindOf with /Subtype /Form should be XObjectForm")
	}
	other := ObjStream{Args: ObjDict{"Subtype": ObjName("PS")}}
	if XObjectKindOf(nil, other) != XObjectUnknown {
		t.Fatal("XObjectKindOf with an unrecognized /Subtype should be XObjectUnknown")
	}
}

func TestNewFormXObjectDefaultsAndFields(t *testing.T) {
	s := ObjStream{
		Args: ObjDict{
			"BBox":      ObjArray{ObjInt(0), ObjInt(0), ObjInt(100), ObjInt(200)},
			"Matrix":    ObjArray{ObjInt(1), ObjInt(0), ObjInt(0), ObjInt(1), ObjInt(5), ObjInt(5)},
			"Resources": ObjDict{"Font": ObjDict{}},
		},
		Content: []byte("q Q"),
	}
	form := NewFormXObject(nil, s)
	if form.BBox != (Rectangle{Llx: 0, Lly: 0, Urx: 100, Ury: 200}) {
		t.Fatalf("BBox = %+v, want [0 0 100 200]", form.BBox)
	}
	if form.Matrix != (Matrix{1, 0, 0, 1, 5, 5}) {
		t.Fatalf("Matrix = %v, want [1 0 0 1 5 5]", form.Matrix)
	}
	if form.Resources == nil {
		t.Fatal("Resources should be populated from /Resources")
	}
	if string(form.Content) != "q Q" {
		t.Fatalf("Content = %q, want %q", form.Content, "q Q")
	}
}

func TestNewFormXObjectMissingBBoxAndMatrixDefaults(t *testing.T) {
	s := ObjStream{Args: ObjDict{}, Content: nil}
	form := NewFormXObject(nil, s)
	if form.Matrix != Identity {
		t.Fatalf("Matrix with no /Matrix entry = %v, want Identity", form.Matrix)
	}
	if form.BBox != (Rectangle{}) {
		t.Fatalf("BBox with no /BBox entry = %+v, want the zero Rectangle", form.BBox)
	}
}

func TestNewImageXObjectResolvesShortNameAliases(t *testing.T) {
	s := ObjStream{
		Args: ObjDict{
			"W":   ObjInt(64),
			"H":   ObjInt(32),
			"BPC": ObjInt(8),
			"CS":  ObjName("DeviceGray"),
			"F":   ObjName("FlateDecode"),
		},
		Content: []byte{0x01, 0x02},
	}
	img := NewImageXObject(nil, s)
	if img.Width != 64 || img.Height != 32 || img.BitsPerComponent != 8 {
		t.Fatalf("NewImageXObject dims = %dx%d@%d, want 64x32@8", img.Width, img.Height, img.BitsPerComponent)
	}
	if cs, ok := img.ColorSpace.(ObjName); !ok || cs != "DeviceGray" {
		t.Fatalf("ColorSpace = %#v, want /DeviceGray", img.ColorSpace)
	}
	if len(img.Filters) != 1 || img.Filters[0] != "FlateDecode" {
		t.Fatalf("Filters = %v, want [FlateDecode]", img.Filters)
	}
}

func TestNewImageXObjectLongNamesPreferredOverShort(t *testing.T) {
	s := ObjStream{
		Args: ObjDict{
			"Width": ObjInt(10),
			"W":     ObjInt(999), // should be ignored since the long name is present
		},
	}
	img := NewImageXObject(nil, s)
	if img.Width != 10 {
		t.Fatalf("Width = %d, want 10 (long /Width key takes precedence)", img.Width)
	}
}
