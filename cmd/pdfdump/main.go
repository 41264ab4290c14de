// pdfdump reads a PDF file and prints its page count, metadata, and a
// per-page summary of extracted strings and resources. It exists to
// exercise the library from a terminal; it is not part of the library's
// public surface.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/maxpmaxp/pdfreader/document"
	"github.com/maxpmaxp/pdfreader/viewer"
)

func check(err error) {
	if err != nil {
		fmt.Println("fatal error:", err)
		os.Exit(1)
	}
}

func main() {
	password := flag.String("password", "", "user password for an encrypted document")
	strict := flag.Bool("strict", false, "abort on broken streams or unmatched BT/ET instead of tolerating them")
	flag.Parse()
	input := flag.Arg(0)
	if input == "" {
		fmt.Println("usage: pdfdump [-password p] [-strict] file.pdf")
		os.Exit(2)
	}

	f, err := os.Open(input)
	check(err)
	defer f.Close()

	doc, err := document.OpenWithOptions(f, document.Options{
		UserPassword:       *password,
		StrictStreams:      *strict,
		StrictBeginEndText: *strict,
	})
	check(err)

	meta := doc.Metadata()
	fmt.Printf("%s\n", input)
	fmt.Printf("  encrypted: %v\n", doc.Encrypted())
	fmt.Printf("  title: %q  author: %q  producer: %q\n", meta.Title, meta.Author, meta.Producer)

	pages := doc.Pages()
	fmt.Printf("  pages: %d\n", len(pages))

	v := viewer.New(doc)
	it := v.PagesIterator()
	for i := 0; ; i++ {
		page, ok := it.Next()
		if !ok {
			break
		}
		canvas, err := v.RenderPage(i)
		if err != nil {
			fmt.Printf("  page %d: render error: %v\n", i+1, err)
			continue
		}
		annots := page.Annotations(doc)
		fmt.Printf("  page %d: %d strings, %d images, %d forms, %d annotations\n",
			i+1, len(canvas.Strings), len(canvas.Images), len(canvas.Forms), len(annots))
	}
}
