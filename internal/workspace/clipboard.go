package workspace

import "github.com/atotto/clipboard"

// Clipboard reads the text contents of the system clipboard.
type Clipboard interface {
	ReadAll() (string, error)
}

// SystemClipboard reads the desktop clipboard.
type SystemClipboard struct{}

// ReadAll returns the clipboard text.
func (SystemClipboard) ReadAll() (string, error) {
	return clipboard.ReadAll()
}
