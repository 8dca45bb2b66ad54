// Package render turns raw note text into a Document: styled lines, embedded
// image placements and an index from rendered line to image file.
package render

import (
	"fmt"
	"image"
	"strings"

	"github.com/starford/zettel/internal/imagestore"
	"github.com/starford/zettel/internal/markup"
)

// DefaultMaxImageSide caps the longest side of preview thumbnails.
const DefaultMaxImageSide = 300

// LineKind describes what a rendered line displays.
type LineKind string

const (
	LineText        LineKind = "text"
	LineHeading1    LineKind = "h1"
	LineHeading2    LineKind = "h2"
	LineHeading3    LineKind = "h3"
	LineHidden      LineKind = "hidden"
	LineImage       LineKind = "image"
	LinePlaceholder LineKind = "placeholder"
)

// Placement is an image embedded in the rendered output.
type Placement struct {
	Name   string      `json:"name"`
	Path   string      `json:"path"`
	Width  int         `json:"width"`
	Height int         `json:"height"`
	Thumb  image.Image `json:"-"`
}

// Line is one rendered line.
type Line struct {
	Kind  LineKind      `json:"kind"`
	Spans []markup.Span `json:"spans,omitempty"`
	Image *Placement    `json:"image,omitempty"`
}

// Text returns the visible text of the line. Hidden lines render as "".
func (l Line) Text() string {
	if l.Kind == LineHidden {
		return ""
	}
	return markup.PlainText(l.Spans)
}

// Document is the output of a single render call.
type Document struct {
	Lines      []Line         `json:"lines"`
	ImagePaths map[int]string `json:"image_paths"`
	raw        string
}

// Raw returns the source text the document was rendered from.
func (d *Document) Raw() string {
	return d.raw
}

// ImageAt returns the image path registered for a rendered line index.
func (d *Document) ImageAt(line int) (string, bool) {
	p, ok := d.ImagePaths[line]
	return p, ok
}

// Renderer renders note text against an image store.
type Renderer struct {
	images  *imagestore.Store
	maxSide int
}

// New creates a renderer. maxSide <= 0 selects DefaultMaxImageSide.
func New(images *imagestore.Store, maxSide int) *Renderer {
	if maxSide <= 0 {
		maxSide = DefaultMaxImageSide
	}
	return &Renderer{images: images, maxSide: maxSide}
}

// Render classifies every source line and builds a fresh Document.
func (r *Renderer) Render(raw string) *Document {
	doc := &Document{ImagePaths: make(map[int]string), raw: raw}

	for _, src := range markup.Parse(raw) {
		switch src.Kind {
		case markup.KindHeading:
			doc.Lines = append(doc.Lines, Line{
				Kind:  headingKind(src.Level),
				Spans: []markup.Span{{Style: markup.Plain, Text: src.Text}},
			})
		case markup.KindImage:
			r.renderImage(doc, src.Image)
		default:
			doc.Lines = append(doc.Lines, Line{Kind: LineText, Spans: src.Spans})
		}
	}
	return doc
}

func (r *Renderer) renderImage(doc *Document, name string) {
	if r.images == nil || !r.images.Exists(name) {
		doc.Lines = append(doc.Lines, placeholder(fmt.Sprintf("[Missing image: %s]", name)))
		return
	}
	path, err := r.images.Resolve(name)
	if err != nil {
		doc.Lines = append(doc.Lines, placeholder(fmt.Sprintf("[Missing image: %s]", name)))
		return
	}
	thumb, err := r.images.Thumbnail(name, r.maxSide)
	if err != nil {
		doc.Lines = append(doc.Lines, placeholder(fmt.Sprintf("[Image error: %s]", err)))
		return
	}

	// The raw token stays in the document, hidden, so copying the rendered
	// text still yields the reference.
	doc.Lines = append(doc.Lines, Line{
		Kind:  LineHidden,
		Spans: []markup.Span{{Style: markup.Plain, Text: markup.ImageToken(name)}},
	})
	b := thumb.Bounds()
	doc.ImagePaths[len(doc.Lines)] = path
	doc.Lines = append(doc.Lines, Line{
		Kind: LineImage,
		Image: &Placement{
			Name:   name,
			Path:   path,
			Width:  b.Dx(),
			Height: b.Dy(),
			Thumb:  thumb,
		},
	})
}

func placeholder(text string) Line {
	return Line{Kind: LinePlaceholder, Spans: []markup.Span{{Style: markup.Plain, Text: text}}}
}

func headingKind(level int) LineKind {
	switch level {
	case 1:
		return LineHeading1
	case 2:
		return LineHeading2
	default:
		return LineHeading3
	}
}

// PlainText returns the visible text of the document, one rendered line per row.
func (d *Document) PlainText() string {
	var b strings.Builder
	for i, l := range d.Lines {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(l.Text())
	}
	return b.String()
}
