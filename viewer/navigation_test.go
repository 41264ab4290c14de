package viewer

import (
	"bytes"
	"testing"

	"github.com/maxpmaxp/pdfreader/document"
)

func twoPageBodies() []string {
	content1 := "BT /F1 12 Tf (Page One) Tj ET\n"
	content2 := "BT /F1 12 Tf (Page Two) Tj ET\n"
	return []string{
		"<< /Type /Catalog /Pages 2 0 R >>",
		"<< /Type /Pages /Kids [3 0 R 4 0 R] /Count 2 >>",
		"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] " +
			"/Resources << /Font << /F1 6 0 R >> >> /Contents 5 0 R " +
			"/Annots [7 0 R] >>",
		"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] " +
			"/Resources << /Font << /F1 6 0 R >> >> /Contents 8 0 R >>",
		streamObj("", content1),
		"<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding >>",
		"<< /Type /Annot /Subtype /Link /Rect [0 0 10 10] >>",
		streamObj("", content2),
	}
}

func openTwoPageDoc(t *testing.T) *document.Document {
	t.Helper()
	data := buildPDF(t, twoPageBodies())
	doc, err := document.Open(bytes.NewReader(data), "")
	if err != nil {
		t.Fatalf("document.Open: %v", err)
	}
	return doc
}

func TestViewerNavigateNextPrev(t *testing.T) {
	v := New(openTwoPageDoc(t))

	c1, err := v.Navigate(1)
	if err != nil {
		t.Fatalf("Navigate(1): %v", err)
	}
	if c1.TextContent == "" {
		t.Fatal("Navigate(1) produced an empty canvas")
	}

	c2, err := v.Next()
	if err != nil {
		t.Fatalf("Next(): %v", err)
	}
	if len(c2.Strings) == 0 || c2.Strings[0] != "Page Two" {
		t.Fatalf("Next() canvas Strings = %v, want [\"Page Two\"]", c2.Strings)
	}

	if _, err := v.Next(); err != document.ErrPageDoesNotExist {
		t.Fatalf("Next() past the last page: err = %v, want ErrPageDoesNotExist", err)
	}

	back, err := v.Prev()
	if err != nil {
		t.Fatalf("Prev(): %v", err)
	}
	if len(back.Strings) == 0 || back.Strings[0] != "Page One" {
		t.Fatalf("Prev() canvas Strings = %v, want [\"Page One\"]", back.Strings)
	}
}

func TestViewerNextBeforeNavigateFails(t *testing.T) {
	v := New(openTwoPageDoc(t))
	if _, err := v.Next(); err != document.ErrPageDoesNotExist {
		t.Fatalf("Next() before any Navigate: err = %v, want ErrPageDoesNotExist", err)
	}
}

func TestViewerAnnotationsForCurrentPage(t *testing.T) {
	v := New(openTwoPageDoc(t))
	if _, err := v.Navigate(1); err != nil {
		t.Fatalf("Navigate(1): %v", err)
	}
	annots, err := v.Annotations()
	if err != nil {
		t.Fatalf("Annotations(): %v", err)
	}
	if len(annots) != 1 {
		t.Fatalf("Annotations() = %v, want one entry from page 1's /Annots", annots)
	}

	if _, err := v.Next(); err != nil {
		t.Fatalf("Next(): %v", err)
	}
	annots, err = v.Annotations()
	if err != nil {
		t.Fatalf("Annotations() on page 2: %v", err)
	}
	if len(annots) != 0 {
		t.Fatalf("Annotations() on page 2 = %v, want none (no /Annots entry)", annots)
	}
}

func TestCanvasIteratorWalksAllPages(t *testing.T) {
	v := New(openTwoPageDoc(t))
	it := v.CanvasIterator()

	var seen []string
	for {
		c, ok := it.Next()
		if !ok {
			break
		}
		if len(c.Strings) > 0 {
			seen = append(seen, c.Strings[0])
		}
	}
	if len(seen) != 2 || seen[0] != "Page One" || seen[1] != "Page Two" {
		t.Fatalf("CanvasIterator walked %v, want [Page One, Page Two]", seen)
	}
	if _, ok := it.Next(); ok {
		t.Fatal("CanvasIterator.Next() after exhaustion should keep returning false")
	}
}

func TestPagesIteratorWalksAllPages(t *testing.T) {
	v := New(openTwoPageDoc(t))
	it := v.PagesIterator()

	count := 0
	for {
		_, ok := it.Next()
		if !ok {
			break
		}
		count++
	}
	if count != 2 {
		t.Fatalf("PagesIterator visited %d pages, want 2", count)
	}
}
