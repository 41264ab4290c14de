package document

import (
	"bytes"
	"fmt"
	"testing"
)

// buildMinimalPDF assembles a syntactically valid, empty-page-tree PDF with
// offsets computed from the bytes actually written, mirroring
// viewer_test.go's buildPDF fixture builder.
func buildMinimalPDF(t *testing.T) []byte {
	t.Helper()
	bodies := []string{
		"<< /Type /Catalog /Pages 2 0 R >>",
		"<< /Type /Pages /Kids [] /Count 0 >>",
	}

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.7\n")
	offsets := make([]int64, len(bodies)+1)
	for i, body := range bodies {
		offsets[i+1] = int64(buf.Len())
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, body)
	}

	xrefOffset := int64(buf.Len())
	fmt.Fprintf(&buf, "xref\n0 %d\n0000000000 65535 f \n", len(bodies)+1)
	for i := 1; i <= len(bodies); i++ {
		fmt.Fprintf(&buf, "%010d %05d n \n", offsets[i], 0)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF", len(bodies)+1, xrefOffset)
	return buf.Bytes()
}

func TestOpenWithOptionsDefaultsMaxReferenceDepth(t *testing.T) {
	doc, err := OpenWithOptions(bytes.NewReader(buildMinimalPDF(t)), Options{})
	if err != nil {
		t.Fatalf("OpenWithOptions: %v", err)
	}
	if doc.MaxReferenceDepth != DefaultMaxReferenceDepth {
		t.Fatalf("MaxReferenceDepth = %d, want the default %d", doc.MaxReferenceDepth, DefaultMaxReferenceDepth)
	}
	if doc.StrictStreams || doc.StrictBeginEndText {
		t.Fatal("zero-value Options should be fully lenient")
	}
}

func TestOpenWithOptionsAppliesExplicitDepthAndStrictness(t *testing.T) {
	doc, err := OpenWithOptions(bytes.NewReader(buildMinimalPDF(t)), Options{
		MaxReferenceDepth:  3,
		StrictStreams:      true,
		StrictBeginEndText: true,
	})
	if err != nil {
		t.Fatalf("OpenWithOptions: %v", err)
	}
	if doc.MaxReferenceDepth != 3 {
		t.Fatalf("MaxReferenceDepth = %d, want 3", doc.MaxReferenceDepth)
	}
	if !doc.StrictStreams || !doc.StrictBeginEndText {
		t.Fatal("explicit Options should carry through to the Document")
	}
}

func TestOpenDefaultsToLenientOptions(t *testing.T) {
	doc, err := Open(bytes.NewReader(buildMinimalPDF(t)), "")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if doc.StrictStreams || doc.StrictBeginEndText {
		t.Fatal("Open should produce a fully lenient Document, matching the zero-value Options")
	}
}
