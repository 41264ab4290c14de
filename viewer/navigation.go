package viewer

import (
	"github.com/maxpmaxp/pdfreader/document"
	"github.com/maxpmaxp/pdfreader/model"
)

// Navigate renders (or returns the cached rendering of) the n-th page, where
// the first page is 1, per spec §4.13/§6's `navigate(n)`.
func (v *Viewer) Navigate(n int) (*Canvas, error) {
	c, err := v.RenderPage(n - 1)
	if err != nil {
		return nil, err
	}
	v.current = n
	return c, nil
}

// Next renders the page after the current one, per spec §4.13's `next()`.
// It is an error to call Next before any call to Navigate.
func (v *Viewer) Next() (*Canvas, error) {
	if v.current == 0 {
		return nil, document.ErrPageDoesNotExist
	}
	return v.Navigate(v.current + 1)
}

// Prev renders the page before the current one, per spec §4.13's `prev()`.
func (v *Viewer) Prev() (*Canvas, error) {
	if v.current == 0 {
		return nil, document.ErrPageDoesNotExist
	}
	return v.Navigate(v.current - 1)
}

// Annotations returns the current page's /Annots array, per spec §4.13's
// `annotations`. Before the first Navigate it returns ErrPageDoesNotExist.
func (v *Viewer) Annotations() (model.ObjArray, error) {
	if v.current == 0 {
		return nil, document.ErrPageDoesNotExist
	}
	page, err := v.Doc.Navigate(v.current - 1)
	if err != nil {
		return nil, err
	}
	return page.Annotations(v.Doc), nil
}

// CanvasIterator walks every page's rendering in document order, the Go
// equivalent of original_source/pdfreader/viewer/pdfviewer.go's
// CanvasIterator: each step navigates the underlying viewer to the page
// after its current one, until PageDoesNotExist.
type CanvasIterator struct {
	v    *Viewer
	done bool
}

// CanvasIterator returns an iterator starting at page 1, per spec §4.13.
func (v *Viewer) CanvasIterator() *CanvasIterator {
	return &CanvasIterator{v: v}
}

// Next returns the next canvas in document order, and false once the page
// list is exhausted.
func (it *CanvasIterator) Next() (*Canvas, bool) {
	if it.done {
		return nil, false
	}
	n := it.v.current + 1
	c, err := it.v.Navigate(n)
	if err != nil {
		it.done = true
		return nil, false
	}
	return c, true
}

// PagesIterator walks model.Page values in document order, the Go
// equivalent of original_source/pdfreader/viewer/pdfviewer.go's
// PagesIterator.
type PagesIterator struct {
	v    *Viewer
	done bool
}

// PagesIterator returns an iterator starting at page 1, per spec §4.13.
func (v *Viewer) PagesIterator() *PagesIterator {
	return &PagesIterator{v: v}
}

// Next returns the next page in document order, and false once the page
// list is exhausted.
func (it *PagesIterator) Next() (model.Page, bool) {
	if it.done {
		return model.Page{}, false
	}
	n := it.v.current + 1
	page, err := it.v.Doc.Navigate(n - 1)
	if err != nil {
		it.done = true
		return model.Page{}, false
	}
	it.v.current = n
	return page, true
}
