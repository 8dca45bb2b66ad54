package workspace

import "github.com/starford/zettel/internal/markup"

// Command is a format command applied to the edit buffer.
type Command int

const (
	Bold Command = iota
	Italic
	Underline
	Heading
)

func (c Command) String() string {
	switch c {
	case Bold:
		return "bold"
	case Italic:
		return "italic"
	case Underline:
		return "underline"
	case Heading:
		return "heading"
	default:
		return "unknown"
	}
}

// Buffer is the raw text being edited. Offsets are byte offsets into Text.
// A selection exists when SelStart != SelEnd.
type Buffer struct {
	Text     string
	Caret    int
	SelStart int
	SelEnd   int
}

// HasSelection reports whether a non-empty range is selected.
func (b Buffer) HasSelection() bool {
	return b.SelStart != b.SelEnd
}

// Selection returns the selected range in ascending order, clamped to Text.
func (b Buffer) Selection() (int, int) {
	lo, hi := clamp(b.SelStart, len(b.Text)), clamp(b.SelEnd, len(b.Text))
	if lo > hi {
		lo, hi = hi, lo
	}
	return lo, hi
}

// Insert places s at the caret and moves the caret past it. Any selection is
// dropped.
func (b Buffer) Insert(s string) Buffer {
	at := clamp(b.Caret, len(b.Text))
	return Buffer{
		Text:  b.Text[:at] + s + b.Text[at:],
		Caret: at + len(s),
	}
}

// Apply runs cmd against b. Bold, Italic and Underline wrap the selection
// and do nothing without one. Heading inserts a newline and level markers at
// the caret.
func Apply(cmd Command, level int, b Buffer) Buffer {
	switch cmd {
	case Bold:
		return wrap(b, markup.BoldDelim)
	case Italic:
		return wrap(b, markup.ItalicDelim)
	case Underline:
		return wrap(b, markup.UnderlineDelim)
	case Heading:
		return b.Insert("\n" + markup.HeadingMarker(level))
	default:
		return b
	}
}

func wrap(b Buffer, delim string) Buffer {
	if !b.HasSelection() {
		return b
	}
	lo, hi := b.Selection()
	text := b.Text[:lo] + delim + b.Text[lo:hi] + delim + b.Text[hi:]
	return Buffer{Text: text, Caret: hi + 2*len(delim)}
}

func clamp(n, max int) int {
	if n < 0 {
		return 0
	}
	if n > max {
		return max
	}
	return n
}
