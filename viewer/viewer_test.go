package viewer

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/maxpmaxp/pdfreader/contentstream"
	"github.com/maxpmaxp/pdfreader/document"
)

// buildPDF assembles a minimal, syntactically valid PDF from a list of
// object bodies (1-indexed: bodies[0] becomes "1 0 obj"), a classical xref
// table, and a trailer pointing at object 1 as /Root. Offsets are computed
// from the bytes actually written rather than hand-counted, so the fixture
// stays correct as bodies change.
func buildPDF(t *testing.T, bodies []string) []byte {
	t.Helper()
	var buf bytes.Buffer
	buf.WriteString("%PDF-1.7\n")

	offsets := make([]int64, len(bodies)+1) // 1-indexed; offsets[0] unused
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

func streamObj(dictWithoutLength string, content string) string {
	return fmt.Sprintf("<< %s /Length %d >>\nstream\n%s\nendstream", dictWithoutLength, len(content), content)
}

func TestEndToEndSinglePageTextExtraction(t *testing.T) {
	content := "BT /F1 12 Tf (Hello) Tj ET\n"
	bodies := []string{
		"<< /Type /Catalog /Pages 2 0 R >>",
		"<< /Type /Pages /Kids [3 0 R] /Count 1 >>",
		"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] " +
			"/Resources << /Font << /F1 5 0 R >> >> /Contents 4 0 R >>",
		streamObj("", content),
		"<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding >>",
	}
	data := buildPDF(t, bodies)

	doc, err := document.Open(bytes.NewReader(data), "")
	if err != nil {
		t.Fatalf("document.Open: %v", err)
	}

	v := New(doc)
	canvas, err := v.RenderPage(0)
	if err != nil {
		t.Fatalf("RenderPage: %v", err)
	}
	if len(canvas.Strings) != 1 || canvas.Strings[0] != "Hello" {
		t.Fatalf("canvas.Strings = %#v, want [\"Hello\"]", canvas.Strings)
	}
}

func TestNavigatePastEndReturnsError(t *testing.T) {
	content := "BT /F1 12 Tf (Hello) Tj ET\n"
	bodies := []string{
		"<< /Type /Catalog /Pages 2 0 R >>",
		"<< /Type /Pages /Kids [3 0 R] /Count 1 >>",
		"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] " +
			"/Resources << /Font << /F1 5 0 R >> >> /Contents 4 0 R >>",
		streamObj("", content),
		"<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding >>",
	}
	data := buildPDF(t, bodies)

	doc, err := document.Open(bytes.NewReader(data), "")
	if err != nil {
		t.Fatalf("document.Open: %v", err)
	}
	if _, err := doc.Navigate(1); err != document.ErrPageDoesNotExist {
		t.Fatalf("Navigate(1) on a one-page doc: err = %v, want ErrPageDoesNotExist", err)
	}
}

func TestFormXObjectRenderedOnce(t *testing.T) {
	pageContent := "/Fm1 Do /Fm1 Do\n"
	formContent := "BT /F1 12 Tf (X) Tj ET\n"
	bodies := []string{
		"<< /Type /Catalog /Pages 2 0 R >>",
		"<< /Type /Pages /Kids [3 0 R] /Count 1 >>",
		"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] " +
			"/Resources << /Font << /F1 5 0 R >> /XObject << /Fm1 6 0 R >> >> /Contents 4 0 R >>",
		streamObj("", pageContent),
		"<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding >>",
		streamObj("/Type /XObject /Subtype /Form /BBox [0 0 10 10] "+
			"/Resources << /Font << /F1 5 0 R >> >>", formContent),
	}
	data := buildPDF(t, bodies)

	doc, err := document.Open(bytes.NewReader(data), "")
	if err != nil {
		t.Fatalf("document.Open: %v", err)
	}

	v := New(doc)
	tjCount := 0
	v.Hooks.BeforeOperator = func(op *contentstream.Operator) {
		if op.Name == "Tj" {
			tjCount++
		}
	}

	canvas, err := v.RenderPage(0)
	if err != nil {
		t.Fatalf("RenderPage: %v", err)
	}
	if tjCount != 1 {
		t.Fatalf("Tj dispatched %d times across two Do invocations of the same Form, want 1 (memoized)", tjCount)
	}
	if len(canvas.Forms) != 1 {
		t.Fatalf("canvas.Forms has %d entries, want 1", len(canvas.Forms))
	}
}

func TestToUnicodeBFCharDecodesMultiUnitDestination(t *testing.T) {
	// spec §8 scenario 5, read with a 2-byte codespace so the content
	// stream's <0102> is one code rather than two: a ToUnicode CMap
	// mapping code 0102 directly to the two-UTF-16-unit string "Hi".
	cmapProgram := "/CIDInit /ProcSet findresource begin\n" +
		"1 begincodespacerange\n<0000> <ffff>\nendcodespacerange\n" +
		"1 beginbfchar\n<0102> <00480069>\nendbfchar\n" +
		"endcmap\n"
	content := "BT /F1 12 Tf <0102> Tj ET\n"
	bodies := []string{
		"<< /Type /Catalog /Pages 2 0 R >>",
		"<< /Type /Pages /Kids [3 0 R] /Count 1 >>",
		"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] " +
			"/Resources << /Font << /F1 5 0 R >> >> /Contents 4 0 R >>",
		streamObj("", content),
		"<< /Type /Font /Subtype /Type0 /BaseFont /Custom /ToUnicode 6 0 R >>",
		streamObj("", cmapProgram),
	}
	data := buildPDF(t, bodies)

	doc, err := document.Open(bytes.NewReader(data), "")
	if err != nil {
		t.Fatalf("document.Open: %v", err)
	}

	canvas, err := New(doc).RenderPage(0)
	if err != nil {
		t.Fatalf("RenderPage: %v", err)
	}
	if len(canvas.Strings) != 1 || canvas.Strings[0] != "Hi" {
		t.Fatalf("canvas.Strings = %#v, want [\"Hi\"]", canvas.Strings)
	}
}

func TestStrictBeginEndTextAbortsOnUnmatchedET(t *testing.T) {
	content := "ET\n" // no preceding BT
	bodies := []string{
		"<< /Type /Catalog /Pages 2 0 R >>",
		"<< /Type /Pages /Kids [3 0 R] /Count 1 >>",
		"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Contents 4 0 R >>",
		streamObj("", content),
	}
	data := buildPDF(t, bodies)

	lenientDoc, err := document.Open(bytes.NewReader(data), "")
	if err != nil {
		t.Fatalf("document.Open: %v", err)
	}
	if _, err := New(lenientDoc).RenderPage(0); err != nil {
		t.Fatalf("lenient RenderPage should tolerate an unmatched ET, got: %v", err)
	}

	strictDoc, err := document.OpenWithOptions(bytes.NewReader(data), document.Options{StrictBeginEndText: true})
	if err != nil {
		t.Fatalf("document.OpenWithOptions: %v", err)
	}
	if _, err := New(strictDoc).RenderPage(0); err == nil {
		t.Fatal("RenderPage with StrictBeginEndText should abort on an unmatched ET")
	}
}
