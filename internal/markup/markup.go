// Package markup implements the note body grammar: per-line classification into
// headings, image references and formatted text, and the inline span scanner.
//
// The grammar has no escaping. Spans never cross lines and never nest.
package markup

import "strings"

// Kind classifies a source line.
type Kind int

const (
	KindText Kind = iota
	KindHeading
	KindImage
)

// Style is the inline style of a span.
type Style int

const (
	Plain Style = iota
	Bold
	Italic
	Underline
)

func (s Style) String() string {
	switch s {
	case Bold:
		return "bold"
	case Italic:
		return "italic"
	case Underline:
		return "underline"
	default:
		return "plain"
	}
}

// MarshalText lets documents serialize styles by name.
func (s Style) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Span is a run of text with a single style.
type Span struct {
	Style Style  `json:"style"`
	Text  string `json:"text"`
}

// Line is one classified source line.
type Line struct {
	Kind  Kind
	Level int    // heading level 1-3 for KindHeading
	Text  string // heading text for KindHeading
	Image string // file name for KindImage
	Spans []Span // inline spans for KindText
}

// Delimiters for the inline styles.
const (
	BoldDelim      = "**"
	ItalicDelim    = "*"
	UnderlineDelim = "_"
)

// headingMarkers is ordered so the longest marker wins.
var headingMarkers = []struct {
	prefix string
	level  int
}{
	{"### ", 3},
	{"## ", 2},
	{"# ", 1},
}

// HeadingMarker returns the line prefix for a heading level, e.g. "## " for 2.
func HeadingMarker(level int) string {
	if level < 1 {
		level = 1
	}
	if level > 3 {
		level = 3
	}
	return strings.Repeat("#", level) + " "
}

// ImageToken returns the reference token for an image file name.
func ImageToken(name string) string {
	return "![" + name + "]"
}

// Parse splits text into lines and classifies each one.
func Parse(text string) []Line {
	if text == "" {
		return nil
	}
	raw := strings.Split(strings.TrimSuffix(text, "\n"), "\n")
	out := make([]Line, 0, len(raw))
	for _, l := range raw {
		out = append(out, ParseLine(strings.TrimSuffix(l, "\r")))
	}
	return out
}

// ParseLine classifies a single line (without its newline).
func ParseLine(line string) Line {
	trimmed := strings.TrimSpace(line)
	for _, h := range headingMarkers {
		if strings.HasPrefix(trimmed, h.prefix) {
			return Line{Kind: KindHeading, Level: h.level, Text: trimmed[len(h.prefix):]}
		}
	}
	if name, ok := imageName(trimmed); ok {
		return Line{Kind: KindImage, Image: name}
	}
	return Line{Kind: KindText, Spans: ScanSpans(line)}
}

// imageName extracts the file name from a trimmed "![name]" line.
func imageName(trimmed string) (string, bool) {
	if len(trimmed) < 3 || !strings.HasPrefix(trimmed, "![") || !strings.HasSuffix(trimmed, "]") {
		return "", false
	}
	return trimmed[2 : len(trimmed)-1], true
}

// ImageRefs returns the image file names referenced by body, in order, without duplicates.
func ImageRefs(body string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, l := range Parse(body) {
		if l.Kind != KindImage || l.Image == "" {
			continue
		}
		if _, ok := seen[l.Image]; ok {
			continue
		}
		seen[l.Image] = struct{}{}
		out = append(out, l.Image)
	}
	return out
}

// ScanSpans scans a line left to right. At each position it tries, in order,
// a bold pair, an italic pair and an underline pair; anything else is literal.
//
// A single '*' opens italic only when the preceding byte is not '*', and the
// match is rejected when the byte before the closing '*' is '*'. An unmatched
// "**" falls through as a literal '*'.
func ScanSpans(line string) []Span {
	var spans []Span
	var plain strings.Builder

	flush := func() {
		if plain.Len() > 0 {
			spans = append(spans, Span{Style: Plain, Text: plain.String()})
			plain.Reset()
		}
	}
	// An empty styled run drops its delimiters and leaves the plain run open.
	emit := func(style Style, text string) {
		if text == "" {
			return
		}
		flush()
		spans = append(spans, Span{Style: style, Text: text})
	}

	i := 0
	for i < len(line) {
		switch {
		case strings.HasPrefix(line[i:], BoldDelim):
			if end := strings.Index(line[i+2:], BoldDelim); end >= 0 {
				emit(Bold, line[i+2:i+2+end])
				i += 2 + end + 2
				continue
			}
		case line[i] == '*' && (i == 0 || line[i-1] != '*'):
			if end := strings.IndexByte(line[i+1:], '*'); end >= 0 {
				closing := i + 1 + end
				if line[closing-1] != '*' {
					emit(Italic, line[i+1:closing])
					i = closing + 1
					continue
				}
			}
		case line[i] == '_':
			if end := strings.IndexByte(line[i+1:], '_'); end >= 0 {
				emit(Underline, line[i+1:i+1+end])
				i += 1 + end + 1
				continue
			}
		}
		plain.WriteByte(line[i])
		i++
	}
	flush()
	return spans
}

// PlainText joins the text of spans, dropping styles.
func PlainText(spans []Span) string {
	var b strings.Builder
	for _, s := range spans {
		b.WriteString(s.Text)
	}
	return b.String()
}
