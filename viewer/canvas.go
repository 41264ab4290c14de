package viewer

import "github.com/maxpmaxp/pdfreader/model"

// InlineImage pairs one BI/ID/EI image's decoded metadata with its raw,
// still filter-encoded payload, per spec §6's `canvas.inline_images`.
type InlineImage struct {
	Image model.ImageXObject
	Data  []byte
}

// Canvas is one page's (or Form's) rendering sink, per spec §6.
type Canvas struct {
	Strings      []string
	TextContent  string
	InlineImages []InlineImage
	Images       map[model.Name]model.ImageXObject
	Forms        map[model.Name]*Canvas
}

// NewCanvas returns an empty, ready-to-populate Canvas.
func NewCanvas() *Canvas {
	return &Canvas{
		Images: map[model.Name]model.ImageXObject{},
		Forms:  map[model.Name]*Canvas{},
	}
}

// Clone deep-copies a Canvas, per spec §4.13's "canvases are cached per
// page number and cloned on access".
func (c *Canvas) Clone() *Canvas {
	if c == nil {
		return nil
	}
	out := &Canvas{
		Strings:      append([]string(nil), c.Strings...),
		TextContent:  c.TextContent,
		InlineImages: append([]InlineImage(nil), c.InlineImages...),
		Images:       make(map[model.Name]model.ImageXObject, len(c.Images)),
		Forms:        make(map[model.Name]*Canvas, len(c.Forms)),
	}
	for k, v := range c.Images {
		out.Images[k] = v
	}
	for k, f := range c.Forms {
		out.Forms[k] = f.Clone()
	}
	return out
}
