package document

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/maxpmaxp/pdfreader/model"
	"github.com/maxpmaxp/pdfreader/xref"
)

// newBareDocument builds a Document directly (white-box) over body with the
// given chain, skipping xref.BuildChain/header discovery so the xref
// shape under test (a Compressed entry, a deliberately absent entry, ...)
// can be hand-crafted exactly.
func newBareDocument(body []byte, chain xref.Chain) *Document {
	return &Document{
		rs:                bytes.NewReader(body),
		chain:             chain,
		reg:               newRegistry(),
		inProgress:        map[model.Reference]bool{},
		MaxReferenceDepth: DefaultMaxReferenceDepth,
	}
}

func TestObjectStreamUnpacking(t *testing.T) {
	var buf bytes.Buffer
	buf.WriteString("%PDF-1.7\n")
	containerOffset := int64(buf.Len())
	pairs := "5 0\n"
	payload := "<< /Foo 42 >>"
	decoded := pairs + payload
	fmt.Fprintf(&buf, "10 0 obj\n<< /Type /ObjStm /N 1 /First %d /Length %d >>\nstream\n%s\nendstream\nendobj\n",
		len(pairs), len(decoded), decoded)

	chain := xref.Chain{{
		Table: xref.Table{
			10: {Kind: xref.InUse, Number: 10, Offset: containerOffset},
			5:  {Kind: xref.Compressed, Number: 5, ContainerNumber: 10, IndexInContainer: 0},
		},
	}}
	doc := newBareDocument(buf.Bytes(), chain)

	obj, err := doc.get(model.Reference{Number: 5})
	if err != nil {
		t.Fatalf("get(5): %v", err)
	}
	d, ok := obj.(model.ObjDict)
	if !ok {
		t.Fatalf("get(5) = %#v, want an ObjDict unpacked from the object stream", obj)
	}
	if n, ok := d["Foo"].(model.ObjInt); !ok || n != 42 {
		t.Fatalf("unpacked dict /Foo = %#v, want ObjInt(42)", d["Foo"])
	}

	// A second lookup must hit the registry cache, not re-unpack the
	// container.
	again, err := doc.get(model.Reference{Number: 5})
	if err != nil {
		t.Fatalf("get(5) second call: %v", err)
	}
	if _, ok := again.(model.ObjDict); !ok {
		t.Fatalf("cached get(5) = %#v, want the same ObjDict", again)
	}
}

func TestIndirectStreamLengthResolvesRegardlessOfDefinitionOrder(t *testing.T) {
	var buf bytes.Buffer
	buf.WriteString("%PDF-1.7\n")
	streamOffset := int64(buf.Len())
	buf.WriteString("7 0 obj\n<< /Length 99 0 R >>\nstream\nhello\nendstream\nendobj\n")
	lengthOffset := int64(buf.Len())
	buf.WriteString("99 0 obj\n5\nendobj\n")

	chain := xref.Chain{{Table: xref.Table{
		7:  {Kind: xref.InUse, Number: 7, Offset: streamOffset},
		99: {Kind: xref.InUse, Number: 99, Offset: lengthOffset},
	}}}
	doc := newBareDocument(buf.Bytes(), chain)

	obj, err := doc.get(model.Reference{Number: 7})
	if err != nil {
		t.Fatalf("get(7): %v", err)
	}
	s, ok := obj.(model.ObjStream)
	if !ok {
		t.Fatalf("get(7) = %#v, want an ObjStream", obj)
	}
	if string(s.Content) != "hello" {
		t.Fatalf("stream content = %q, want %q (length resolved via indirect object 99)", s.Content, "hello")
	}

	// The same stream with object 99 defined before it.
	buf.Reset()
	buf.WriteString("%PDF-1.7\n")
	lengthOffset = int64(buf.Len())
	buf.WriteString("99 0 obj\n5\nendobj\n")
	streamOffset = int64(buf.Len())
	buf.WriteString("7 0 obj\n<< /Length 99 0 R >>\nstream\nhello\nendstream\nendobj\n")

	chain = xref.Chain{{Table: xref.Table{
		7:  {Kind: xref.InUse, Number: 7, Offset: streamOffset},
		99: {Kind: xref.InUse, Number: 99, Offset: lengthOffset},
	}}}
	doc = newBareDocument(buf.Bytes(), chain)

	obj, err = doc.get(model.Reference{Number: 7})
	if err != nil {
		t.Fatalf("get(7) with object 99 defined first: %v", err)
	}
	s, ok = obj.(model.ObjStream)
	if !ok {
		t.Fatalf("get(7) with object 99 defined first = %#v, want an ObjStream", obj)
	}
	if string(s.Content) != "hello" {
		t.Fatalf("stream content with object 99 defined first = %q, want %q", s.Content, "hello")
	}
}

func TestBruteForceRecoversObjectMissingFromXref(t *testing.T) {
	body := []byte("%PDF-1.7\n7 0 obj\n<< /Kind /Recovered >>\nendobj\n")
	doc := newBareDocument(body, xref.Chain{{Table: xref.Table{}}})

	obj, err := doc.get(model.Reference{Number: 7})
	if err != nil {
		t.Fatalf("get(7) via brute force: %v", err)
	}
	d, ok := obj.(model.ObjDict)
	if !ok || d["Kind"].(model.ObjName) != "Recovered" {
		t.Fatalf("brute-forced object = %#v, want {Kind: /Recovered}", obj)
	}
}

func TestBruteForceDetectsReferenceLoop(t *testing.T) {
	doc := newBareDocument([]byte("%PDF-1.7\n"), xref.Chain{{Table: xref.Table{}}})
	ref := model.Reference{Number: 1}
	doc.inProgress[ref] = true

	if _, err := doc.bruteForce(ref); err == nil {
		t.Fatal("bruteForce should refuse to re-enter a reference already being resolved")
	}
}

func TestMissingObjectResolvesToNullAndIsCached(t *testing.T) {
	doc := newBareDocument([]byte("%PDF-1.7\n"), xref.Chain{{Table: xref.Table{}}})
	ref := model.Reference{Number: 99}

	obj, err := doc.get(ref)
	if err != nil {
		t.Fatalf("get on a nowhere-defined object should not error, got: %v", err)
	}
	if _, ok := obj.(model.ObjNull); !ok {
		t.Fatalf("get on a nowhere-defined object = %#v, want ObjNull", obj)
	}
	if _, cached := doc.reg.get(ref); !cached {
		t.Fatal("a Null resolution should be cached so repeated lookups don't rescan")
	}
}

func TestDeepObjectStopsAtMaxReferenceDepth(t *testing.T) {
	var buf bytes.Buffer
	buf.WriteString("%PDF-1.7\n")
	offset1 := int64(buf.Len())
	buf.WriteString("1 0 obj\n2 0 R\nendobj\n")
	offset2 := int64(buf.Len())
	buf.WriteString("2 0 obj\n1 0 R\nendobj\n")

	chain := xref.Chain{{Table: xref.Table{
		1: {Kind: xref.InUse, Number: 1, Offset: offset1},
		2: {Kind: xref.InUse, Number: 2, Offset: offset2},
	}}}
	doc := newBareDocument(buf.Bytes(), chain)
	doc.MaxReferenceDepth = 5

	if _, err := doc.DeepObject(model.Reference{Number: 1}); err != ErrReferenceLoop {
		t.Fatalf("DeepObject on a 1<->2 reference cycle: err = %v, want ErrReferenceLoop", err)
	}
}

func TestBuildLazyLeavesNestedDictUnresolved(t *testing.T) {
	var buf bytes.Buffer
	buf.WriteString("%PDF-1.7\n")
	offset := int64(buf.Len())
	buf.WriteString("3 0 obj\n<< /Value 7 >>\nendobj\n")

	chain := xref.Chain{{Table: xref.Table{3: {Kind: xref.InUse, Number: 3, Offset: offset}}}}
	doc := newBareDocument(buf.Bytes(), chain)

	inner := model.ObjDict{"Nested": model.ObjIndirectRef{ObjectNumber: 3}}
	outer := model.ObjArray{inner}

	lazy := doc.Build(outer, true).(model.ObjArray)
	gotDict := lazy[0].(model.ObjDict)
	if _, stillIndirect := gotDict["Nested"].(model.ObjIndirectRef); !stillIndirect {
		t.Fatalf("Build(lazy=true) resolved a nested Dictionary value; want it left as an indirect reference, got %#v", gotDict["Nested"])
	}

	eager := doc.Build(outer, false).(model.ObjArray)
	gotEagerDict := eager[0].(model.ObjDict)
	resolved, ok := gotEagerDict["Nested"].(model.ObjDict)
	if !ok || resolved["Value"].(model.ObjInt) != 7 {
		t.Fatalf("Build(lazy=false) = %#v, want /Nested resolved to {Value: 7}", gotEagerDict["Nested"])
	}
}

func TestBuildBreaksReferenceCycles(t *testing.T) {
	var buf bytes.Buffer
	buf.WriteString("%PDF-1.7\n")
	offset1 := int64(buf.Len())
	buf.WriteString("1 0 obj\n[2 0 R]\nendobj\n")
	offset2 := int64(buf.Len())
	buf.WriteString("2 0 obj\n[1 0 R]\nendobj\n")

	chain := xref.Chain{{Table: xref.Table{
		1: {Kind: xref.InUse, Number: 1, Offset: offset1},
		2: {Kind: xref.InUse, Number: 2, Offset: offset2},
	}}}
	doc := newBareDocument(buf.Bytes(), chain)

	got := doc.Build(model.ObjIndirectRef{ObjectNumber: 1}, false)
	arr, ok := got.(model.ObjArray)
	if !ok || len(arr) != 1 {
		t.Fatalf("Build on a 1<->2 cycle = %#v, want a one-element array", got)
	}
	inner, ok := arr[0].(model.ObjArray)
	if !ok || len(inner) != 1 {
		t.Fatalf("Build on a 1<->2 cycle's first level = %#v, want a one-element array", arr[0])
	}
	if _, isNull := inner[0].(model.ObjNull); !isNull {
		t.Fatalf("Build should break the cycle with Null, got %#v", inner[0])
	}
}

func TestResolveEncryptDictFindsObjectMissingFromXrefByScanningBackward(t *testing.T) {
	var buf bytes.Buffer
	buf.WriteString("%PDF-1.7\n")
	buf.WriteString("9 0 obj\n<< /Filter /Standard /V 1 /R 2 >>\nendobj\n")
	// a later, unrelated object so the scan has to walk past it
	buf.WriteString("1 0 obj\n<< /Type /Catalog >>\nendobj\n")

	doc := newBareDocument(buf.Bytes(), xref.Chain{{Table: xref.Table{}}})

	d, ok := doc.resolveEncryptDict(model.ObjIndirectRef{ObjectNumber: 9})
	if !ok {
		t.Fatal("resolveEncryptDict should locate object 9 by scanning backward from the trailer")
	}
	if d["Filter"].(model.ObjName) != "Standard" {
		t.Fatalf("resolved /Encrypt dict = %#v, want /Filter /Standard", d)
	}
}

func TestResolveEncryptDictPrefersRegistryOverScanning(t *testing.T) {
	doc := newBareDocument([]byte("%PDF-1.7\n"), xref.Chain{{Table: xref.Table{}}})
	ref := model.Reference{Number: 9}
	cached := model.ObjDict{"Filter": model.ObjName("Standard"), "V": model.ObjInt(4)}
	doc.reg.set(ref, cached)

	d, ok := doc.resolveEncryptDict(model.ObjIndirectRef{ObjectNumber: 9})
	if !ok || d["V"].(model.ObjInt) != 4 {
		t.Fatalf("resolveEncryptDict = %#v, %v, want the cached registry entry", d, ok)
	}
}
