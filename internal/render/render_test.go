package render

import (
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/starford/zettel/internal/imagestore"
	"github.com/starford/zettel/internal/markup"
)

func testRenderer(t *testing.T) (*Renderer, *imagestore.Store) {
	t.Helper()
	images, err := imagestore.Open(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	return New(images, 0), images
}

func addImage(t *testing.T, images *imagestore.Store, name string, w, h int) {
	t.Helper()
	f, err := os.Create(filepath.Join(images.Dir(), name))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := png.Encode(f, image.NewRGBA(image.Rect(0, 0, w, h))); err != nil {
		t.Fatal(err)
	}
}

func TestRender_Bold(t *testing.T) {
	r, _ := testRenderer(t)
	doc := r.Render("**bold**")
	if len(doc.Lines) != 1 {
		t.Fatalf("lines = %d", len(doc.Lines))
	}
	spans := doc.Lines[0].Spans
	if len(spans) != 1 || spans[0].Style != markup.Bold || spans[0].Text != "bold" {
		t.Errorf("spans = %+v", spans)
	}
	if strings.Contains(doc.PlainText(), "*") {
		t.Errorf("asterisks leaked: %q", doc.PlainText())
	}
}

func TestRender_Headings(t *testing.T) {
	r, _ := testRenderer(t)
	doc := r.Render("# A\n## B\n### C\n#### D")
	want := []LineKind{LineHeading1, LineHeading2, LineHeading3, LineText}
	for i, k := range want {
		if doc.Lines[i].Kind != k {
			t.Errorf("line %d kind = %s, want %s", i, doc.Lines[i].Kind, k)
		}
	}
	if doc.Lines[0].Text() != "A" {
		t.Errorf("heading text = %q", doc.Lines[0].Text())
	}
}

func TestRender_MissingImage(t *testing.T) {
	r, _ := testRenderer(t)
	doc := r.Render("![missing.png]")
	if len(doc.Lines) != 1 || doc.Lines[0].Kind != LinePlaceholder {
		t.Fatalf("lines = %+v", doc.Lines)
	}
	if doc.Lines[0].Text() != "[Missing image: missing.png]" {
		t.Errorf("text = %q", doc.Lines[0].Text())
	}
	if len(doc.ImagePaths) != 0 {
		t.Errorf("image paths = %v", doc.ImagePaths)
	}
}

func TestRender_ImageRegistersLine(t *testing.T) {
	r, images := testRenderer(t)
	addImage(t, images, "pic.png", 900, 300)

	doc := r.Render("intro\n![pic.png]\noutro")
	if len(doc.Lines) != 4 {
		t.Fatalf("lines = %d, want 4", len(doc.Lines))
	}
	if doc.Lines[1].Kind != LineHidden || doc.Lines[1].Spans[0].Text != "![pic.png]" {
		t.Errorf("hidden line = %+v", doc.Lines[1])
	}
	img := doc.Lines[2].Image
	if doc.Lines[2].Kind != LineImage || img == nil {
		t.Fatalf("image line = %+v", doc.Lines[2])
	}
	if img.Width != 300 || img.Height != 100 {
		t.Errorf("thumb = %dx%d, want 300x100", img.Width, img.Height)
	}
	path, ok := doc.ImageAt(2)
	if !ok || path != filepath.Join(images.Dir(), "pic.png") {
		t.Errorf("ImageAt(2) = %q, %v", path, ok)
	}
	if _, ok := doc.ImageAt(1); ok {
		t.Error("hidden line should not be registered")
	}
	if doc.Lines[3].Text() != "outro" {
		t.Errorf("trailing line = %q", doc.Lines[3].Text())
	}
}

func TestRender_ImageDecodeError(t *testing.T) {
	r, images := testRenderer(t)
	if err := os.WriteFile(filepath.Join(images.Dir(), "bad.png"), []byte("garbage"), 0o644); err != nil {
		t.Fatal(err)
	}
	doc := r.Render("![bad.png]\nafter")
	if len(doc.Lines) != 2 {
		t.Fatalf("lines = %d", len(doc.Lines))
	}
	if !strings.HasPrefix(doc.Lines[0].Text(), "[Image error: ") {
		t.Errorf("text = %q", doc.Lines[0].Text())
	}
	if doc.Lines[1].Text() != "after" {
		t.Error("rendering should continue after a decode error")
	}
}

func TestRender_FreshIndexPerCall(t *testing.T) {
	r, images := testRenderer(t)
	addImage(t, images, "a.png", 10, 10)

	first := r.Render("![a.png]")
	second := r.Render("text only")
	if len(first.ImagePaths) != 1 || len(second.ImagePaths) != 0 {
		t.Errorf("first = %v, second = %v", first.ImagePaths, second.ImagePaths)
	}
}

func TestRender_KeepsRaw(t *testing.T) {
	r, _ := testRenderer(t)
	raw := "**a** _b_\n# c"
	if got := r.Render(raw).Raw(); got != raw {
		t.Errorf("Raw() = %q", got)
	}
}

func TestRender_NilImageStore(t *testing.T) {
	doc := New(nil, 0).Render("![x.png]")
	if doc.Lines[0].Text() != "[Missing image: x.png]" {
		t.Errorf("text = %q", doc.Lines[0].Text())
	}
}
