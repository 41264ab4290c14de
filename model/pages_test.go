package model

import "testing"

func TestPageTreePreOrderWalk(t *testing.T) {
	// /Kids entries are indirect references in real files; the tree walk's
	// visited-set keys off those (comparable) values, not raw dictionaries.
	refLeaf1 := ObjIndirectRef{ObjectNumber: 1}
	refLeaf2 := ObjIndirectRef{ObjectNumber: 2}
	refBranch := ObjIndirectRef{ObjectNumber: 3}
	resolver := fakeResolver{
		1: ObjDict{"Type": ObjName("Page"), "Id": ObjInt(1)},
		2: ObjDict{"Type": ObjName("Page"), "Id": ObjInt(2)},
		3: ObjDict{"Type": ObjName("Pages"), "Kids": ObjArray{refLeaf1, refLeaf2}},
	}
	root := ObjDict{"Type": ObjName("Pages"), "Kids": ObjArray{refBranch}}

	pages := PageTree{Dict: root}.Pages(resolver)
	if len(pages) != 2 {
		t.Fatalf("Pages() returned %d leaves, want 2", len(pages))
	}
	if pages[0].Dict["Id"].(ObjInt) != 1 || pages[1].Dict["Id"].(ObjInt) != 2 {
		t.Fatal("Pages() did not preserve document order")
	}
	if len(pages[0].Ancestors) != 2 {
		t.Fatalf("leaf Ancestors has %d entries, want 2 (branch, root)", len(pages[0].Ancestors))
	}
}

func TestPageTreeLeafWithoutKidsIsAPage(t *testing.T) {
	leaf := ObjDict{"Id": ObjInt(9)} // no /Type, no /Kids: real-world files do this
	pages := PageTree{Dict: leaf}.Pages(nil)
	if len(pages) != 1 || pages[0].Dict["Id"].(ObjInt) != 9 {
		t.Fatalf("Pages() on a Kids-less node = %#v, want a single leaf", pages)
	}
}

func TestPageTreeCyclePrevention(t *testing.T) {
	// /Kids entries are indirect references in real files; the cycle guard
	// keys off those (comparable) reference values, not the dictionaries
	// themselves. Object numbers 1 and 2 point at each other.
	refA := ObjIndirectRef{ObjectNumber: 1}
	refB := ObjIndirectRef{ObjectNumber: 2}
	resolver := fakeResolver{
		1: ObjDict{"Type": ObjName("Pages"), "Kids": ObjArray{refB}},
		2: ObjDict{"Type": ObjName("Pages"), "Kids": ObjArray{refA}},
	}

	a, _ := DerefDict(resolver, refA)
	pages := PageTree{Dict: a}.Pages(resolver)
	if len(pages) != 0 {
		t.Fatalf("Pages() on a cyclic tree returned %d leaves, want 0 without hanging", len(pages))
	}
}

func TestPageInheritedPrefersOwnEntry(t *testing.T) {
	ancestor := ObjDict{"Resources": ObjDict{"Font": ObjName("ancestor-font")}}
	p := Page{Dict: ObjDict{"Resources": ObjDict{"Font": ObjName("own-font")}}, Ancestors: []ObjDict{ancestor}}

	res := p.Resources(nil)
	if res["Font"].(ObjName) != "own-font" {
		t.Fatalf("Resources() = %#v, want the page's own Resources to win", res)
	}
}

func TestPageInheritedFallsThroughToAncestor(t *testing.T) {
	ancestor := ObjDict{"Resources": ObjDict{"Font": ObjName("ancestor-font")}}
	p := Page{Dict: ObjDict{}, Ancestors: []ObjDict{ancestor}}

	res := p.Resources(nil)
	if res["Font"].(ObjName) != "ancestor-font" {
		t.Fatalf("Resources() = %#v, want the inherited ancestor Resources", res)
	}
}

func TestPageMediaBoxAndRotation(t *testing.T) {
	p := Page{Dict: ObjDict{
		"MediaBox": ObjArray{ObjInt(0), ObjInt(0), ObjInt(612), ObjInt(792)},
		"Rotate":   ObjInt(90),
	}}
	box, ok := p.MediaBox(nil)
	if !ok || box.Width() != 612 || box.Height() != 792 {
		t.Fatalf("MediaBox() = %+v, %v, want 612x792", box, ok)
	}
	if p.Rotation(nil).Degrees() != 90 {
		t.Fatalf("Rotation().Degrees() = %d, want 90", p.Rotation(nil).Degrees())
	}
}

func TestPageRotationDefaultsToZeroWhenAbsent(t *testing.T) {
	p := Page{Dict: ObjDict{}}
	if p.Rotation(nil) != Zero {
		t.Fatal("Rotation() with no /Rotate entry anywhere should default to Zero")
	}
}

func TestPageContentStreamsSingleAndArray(t *testing.T) {
	single := Page{Dict: ObjDict{"Contents": ObjStream{Content: []byte("single")}}}
	if cs := single.ContentStreams(nil); len(cs) != 1 || string(cs[0].Content) != "single" {
		t.Fatalf("ContentStreams() for a single stream = %#v", cs)
	}

	multi := Page{Dict: ObjDict{"Contents": ObjArray{
		ObjStream{Content: []byte("a")},
		ObjStream{Content: []byte("b")},
	}}}
	cs := multi.ContentStreams(nil)
	if len(cs) != 2 || string(cs[0].Content) != "a" || string(cs[1].Content) != "b" {
		t.Fatalf("ContentStreams() for an array = %#v, want [\"a\" \"b\"]", cs)
	}
}
