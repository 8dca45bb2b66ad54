package tui

import (
	"fmt"
	"image"
	"image/color"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/disintegration/imaging"

	"github.com/starford/zettel/internal/markup"
	"github.com/starford/zettel/internal/render"
)

// maxImageCells caps the width of an inline image in terminal cells.
const maxImageCells = 48

// previewRow is one terminal row of the preview pane. line is the index of
// the rendered document line it belongs to.
type previewRow struct {
	text string
	line int
}

// layoutDocument turns a rendered document into terminal rows. Hidden lines
// take no rows; images take several rows that all point at the image line.
func layoutDocument(doc *render.Document, width int) []previewRow {
	if doc == nil {
		return nil
	}
	var rows []previewRow
	for i, l := range doc.Lines {
		switch l.Kind {
		case render.LineHidden:
			continue
		case render.LineHeading1:
			rows = append(rows, previewRow{h1Style.Render(l.Text()), i})
		case render.LineHeading2:
			rows = append(rows, previewRow{h2Style.Render(l.Text()), i})
		case render.LineHeading3:
			rows = append(rows, previewRow{h3Style.Render(l.Text()), i})
		case render.LinePlaceholder:
			rows = append(rows, previewRow{placeholderStyle.Render(l.Text()), i})
		case render.LineImage:
			for _, r := range imageRows(l.Image, width) {
				rows = append(rows, previewRow{r, i})
			}
		default:
			rows = append(rows, previewRow{styleSpans(l.Spans), i})
		}
	}
	return rows
}

func styleSpans(spans []markup.Span) string {
	var b strings.Builder
	for _, s := range spans {
		switch s.Style {
		case markup.Bold:
			b.WriteString(boldStyle.Render(s.Text))
		case markup.Italic:
			b.WriteString(italicStyle.Render(s.Text))
		case markup.Underline:
			b.WriteString(underlineStyle.Render(s.Text))
		default:
			b.WriteString(s.Text)
		}
	}
	return b.String()
}

// imageRows draws the thumbnail with half blocks, two pixels per cell,
// followed by a caption.
func imageRows(p *render.Placement, width int) []string {
	if p == nil {
		return nil
	}
	caption := placeholderStyle.Render(fmt.Sprintf("[%s %dx%d, enter to open]", p.Name, p.Width, p.Height))
	if p.Thumb == nil {
		return []string{caption}
	}
	cols := min(maxImageCells, width-4)
	if cols < 4 {
		return []string{caption}
	}
	return append(halfBlocks(p.Thumb, cols), caption)
}

func halfBlocks(img image.Image, cols int) []string {
	small := imaging.Fit(img, cols, cols, imaging.Box)
	b := small.Bounds()
	var out []string
	for y := b.Min.Y; y < b.Max.Y; y += 2 {
		var row strings.Builder
		for x := b.Min.X; x < b.Max.X; x++ {
			style := lipgloss.NewStyle().Foreground(hexColor(small.At(x, y)))
			if y+1 < b.Max.Y {
				style = style.Background(hexColor(small.At(x, y+1)))
			}
			row.WriteString(style.Render("▀"))
		}
		out = append(out, row.String())
	}
	return out
}

func hexColor(c color.Color) lipgloss.Color {
	r, g, b, _ := c.RGBA()
	return lipgloss.Color(fmt.Sprintf("#%02x%02x%02x", r>>8, g>>8, b>>8))
}
