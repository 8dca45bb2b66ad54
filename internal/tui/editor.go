package tui

import (
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/bubbles/textarea"

	"github.com/starford/zettel/internal/workspace"
)

// caretOffset returns the byte offset of the textarea cursor in its value.
func caretOffset(ta *textarea.Model) int {
	lines := strings.Split(ta.Value(), "\n")
	row := ta.Line()
	if row >= len(lines) {
		row = len(lines) - 1
	}
	off := 0
	for i := 0; i < row; i++ {
		off += len(lines[i]) + 1
	}
	info := ta.LineInfo()
	col := info.StartColumn + info.ColumnOffset
	return off + runeBytes(lines[row], col)
}

// runeBytes returns the byte length of the first n runes of s.
func runeBytes(s string, n int) int {
	i := 0
	for n > 0 && i < len(s) {
		_, size := utf8.DecodeRuneInString(s[i:])
		i += size
		n--
	}
	return i
}

// rowCol converts a byte offset in text to a line index and rune column.
func rowCol(text string, offset int) (int, int) {
	if offset > len(text) {
		offset = len(text)
	}
	before := text[:offset]
	row := strings.Count(before, "\n")
	lineStart := strings.LastIndexByte(before, '\n') + 1
	return row, utf8.RuneCountInString(before[lineStart:])
}

// loadBuffer replaces the textarea contents with b and places the cursor at
// b.Caret.
func loadBuffer(ta *textarea.Model, b workspace.Buffer) {
	ta.SetValue(b.Text)
	row, col := rowCol(b.Text, b.Caret)
	for guard := ta.LineCount() * 4; ta.Line() > row && guard > 0; guard-- {
		ta.CursorUp()
	}
	ta.SetCursor(col)
}

// bufferFrom captures the textarea as a workspace buffer. mark is the byte
// offset of the selection anchor, or -1.
func bufferFrom(ta *textarea.Model, mark int) workspace.Buffer {
	b := workspace.Buffer{Text: ta.Value(), Caret: caretOffset(ta)}
	if mark >= 0 && mark <= len(b.Text) {
		b.SelStart, b.SelEnd = mark, b.Caret
	}
	return b
}
