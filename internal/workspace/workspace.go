// Package workspace holds the editing session of the note app: the current
// note, the edit buffer, the rendered preview, search highlights and focus.
// Every user action is a method; the terminal UI only translates keys.
package workspace

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/starford/zettel/internal/apperr"
	"github.com/starford/zettel/internal/imagestore"
	"github.com/starford/zettel/internal/index"
	"github.com/starford/zettel/internal/markup"
	"github.com/starford/zettel/internal/noteservice"
	"github.com/starford/zettel/internal/render"
)

// ErrNoClipboardImage is returned by PasteImage when the clipboard holds
// neither an image data URI nor a path to an image file.
var ErrNoClipboardImage = errors.New("clipboard does not contain an image")

// Option configures a Workspace.
type Option func(*Workspace)

// WithClipboard replaces the system clipboard.
func WithClipboard(c Clipboard) Option {
	return func(w *Workspace) { w.clip = c }
}

// WithOpener replaces the system image viewer.
func WithOpener(o imagestore.Opener) Option {
	return func(w *Workspace) { w.opener = o }
}

// WithRenderPolicy sets when saves re-render the body.
func WithRenderPolicy(p RenderPolicy) Option {
	return func(w *Workspace) { w.policy = p }
}

// WithLogger sets the workspace logger.
func WithLogger(l *slog.Logger) Option {
	return func(w *Workspace) { w.logger = l }
}

// Workspace is the state behind one editor window.
type Workspace struct {
	notes  *noteservice.Service
	clip   Clipboard
	opener imagestore.Opener
	policy RenderPolicy
	logger *slog.Logger

	current    string
	mode       Mode
	focus      Focus
	buf        Buffer
	doc        *render.Document
	query      string
	highlights map[string]bool
	status     string
}

// New creates a workspace over notes. The notes must already be loaded.
func New(notes *noteservice.Service, opts ...Option) *Workspace {
	w := &Workspace{
		notes:      notes,
		clip:       SystemClipboard{},
		opener:     imagestore.SystemOpener{},
		policy:     RenderAlways,
		logger:     slog.New(slog.NewJSONHandler(io.Discard, nil)),
		highlights: make(map[string]bool),
	}
	for _, o := range opts {
		o(w)
	}
	return w
}

// Notes returns the note store the workspace edits.
func (w *Workspace) Notes() *noteservice.Service { return w.notes }

// Titles returns all titles in display order.
func (w *Workspace) Titles() []string { return w.notes.Titles() }

// Current returns the selected note, or "" when none is.
func (w *Workspace) Current() string { return w.current }

// Mode returns the body mode.
func (w *Workspace) Mode() Mode { return w.mode }

// Focus returns the focused pane.
func (w *Workspace) Focus() Focus { return w.focus }

// Buffer returns the edit buffer.
func (w *Workspace) Buffer() Buffer { return w.buf }

// Query returns the active search query.
func (w *Workspace) Query() string { return w.query }

// Status returns the status line message.
func (w *Workspace) Status() string { return w.status }

// Document returns the last rendered preview, or nil.
func (w *Workspace) Document() *render.Document { return w.doc }

// Highlighted reports whether title matched the last search.
func (w *Workspace) Highlighted(title string) bool { return w.highlights[title] }

// SetBuffer replaces the edit buffer, as typed by the user.
func (w *Workspace) SetBuffer(b Buffer) { w.buf = b }

// SetFocus moves focus to f.
func (w *Workspace) SetFocus(f Focus) { w.focus = f }

// CycleFocus advances focus around the ring list, title, body.
func (w *Workspace) CycleFocus() Focus {
	w.focus = w.focus.Next()
	return w.focus
}

// Select makes title the current note and loads its saved body.
func (w *Workspace) Select(title string) error {
	body, err := w.notes.Get(title)
	if err != nil {
		return err
	}
	w.current = title
	w.buf = Buffer{Text: body}
	if w.mode == ModePreview {
		w.doc = w.notes.Render(body)
	}
	return nil
}

// NewNote creates title and selects it. A blank title is a cancel; an
// existing title is selected instead of duplicated.
func (w *Workspace) NewNote(title string) error {
	t := strings.TrimSpace(title)
	if t == "" {
		return nil
	}
	created, err := w.notes.Create(t)
	switch {
	case errors.Is(err, apperr.ErrAlreadyExists):
		return w.Select(created)
	case err != nil:
		return err
	}
	w.logger.Info("workspace: note created", slog.String("title", created))
	w.current = created
	w.buf = Buffer{}
	if w.mode == ModePreview {
		w.doc = w.notes.Render("")
	}
	return nil
}

// RenameCurrent applies the title field after it loses focus. Blank or
// unchanged titles do nothing. Without a current note the buffer is saved
// under the new title. A rename onto an existing title is rejected.
func (w *Workspace) RenameCurrent(title string) error {
	t := strings.TrimSpace(title)
	if t == "" || t == w.current {
		return nil
	}
	if w.current == "" || !w.notes.Has(w.current) {
		if w.notes.Has(t) {
			return fmt.Errorf("workspace: rename to %q: %w", t, apperr.ErrAlreadyExists)
		}
		if _, err := w.notes.Put(t, w.buf.Text); err != nil {
			return err
		}
		w.current = t
		return nil
	}
	renamed, err := w.notes.Rename(w.current, t)
	if err != nil {
		return err
	}
	w.logger.Info("workspace: note renamed", slog.String("from", w.current), slog.String("to", renamed))
	w.current = renamed
	w.status = fmt.Sprintf("Renamed to '%s'.", renamed)
	return nil
}

// Delete removes title. When it is the current note the editor is cleared.
// An empty title does nothing.
func (w *Workspace) Delete(title string) error {
	if title == "" {
		return nil
	}
	if err := w.notes.Delete(title); err != nil {
		return err
	}
	w.logger.Info("workspace: note deleted", slog.String("title", title))
	delete(w.highlights, title)
	if title == w.current {
		w.current = ""
		w.buf = Buffer{}
		w.doc = nil
	}
	return nil
}

// Save stores the trimmed buffer as the body of title, which becomes the
// current note. A blank title does nothing.
func (w *Workspace) Save(title string) error {
	t := strings.TrimSpace(title)
	if t == "" {
		return nil
	}
	body, err := w.notes.Put(t, w.buf.Text)
	if err != nil {
		return err
	}
	w.current = t
	w.buf = Buffer{Text: body, Caret: clamp(w.buf.Caret, len(body))}
	w.status = fmt.Sprintf("Note '%s' saved.", t)
	w.rerender()
	if w.query != "" {
		w.refreshHighlights()
	}
	return nil
}

// rerender refreshes the preview after a save according to the render policy.
func (w *Workspace) rerender() {
	switch {
	case w.policy == RenderAlways:
		w.doc = w.notes.Render(w.buf.Text)
		w.mode = ModePreview
	case w.mode == ModePreview:
		w.doc = w.notes.Render(w.buf.Text)
	}
}

// Toggle switches between Edit and Preview. Entering Preview renders the
// buffer as it is, saved or not. Leaving Preview restores the saved body of
// the current note, or keeps the buffer when there is none.
func (w *Workspace) Toggle() Mode {
	if w.mode == ModeEdit {
		w.doc = w.notes.Render(w.buf.Text)
		w.mode = ModePreview
		return w.mode
	}
	if body, err := w.notes.Get(w.current); err == nil {
		w.buf = Buffer{Text: body}
	}
	w.mode = ModeEdit
	return w.mode
}

// Format applies cmd to the buffer. It only acts in Edit mode.
func (w *Workspace) Format(cmd Command, level int) {
	if w.mode != ModeEdit {
		return
	}
	w.buf = Apply(cmd, level, w.buf)
}

// InsertImage copies the image file at src into the archive, inserts its
// reference line at the caret and refreshes the rendered document. The mode
// is kept: the buffer is unsaved, and leaving Preview would discard it.
func (w *Workspace) InsertImage(src string) (string, error) {
	if strings.TrimSpace(src) == "" {
		return "", nil
	}
	name, err := w.notes.ImportImage(src)
	if err != nil {
		return "", err
	}
	w.insertReference(name)
	w.doc = w.notes.Render(w.buf.Text)
	return name, nil
}

// PasteImage saves the clipboard image as a new PNG and inserts its
// reference line at the caret. The clipboard may hold a data URI or the
// path of an image file.
func (w *Workspace) PasteImage() (string, error) {
	text, err := w.clip.ReadAll()
	if err != nil {
		return "", fmt.Errorf("workspace: read clipboard: %w", err)
	}
	data, err := clipboardImage(text)
	if err != nil {
		return "", err
	}
	img, err := imagestore.Decode(bytes.NewReader(data))
	if err != nil {
		return "", err
	}
	name, err := w.notes.Images().SavePNG(img)
	if err != nil {
		return "", err
	}
	w.insertReference(name)
	w.logger.Info("workspace: image pasted", slog.String("image", name))
	return name, nil
}

func clipboardImage(text string) ([]byte, error) {
	text = strings.TrimSpace(text)
	if strings.HasPrefix(text, "data:image/") {
		data, _, err := imagestore.DecodeDataURI(text)
		return data, err
	}
	path := strings.TrimPrefix(text, "file://")
	if path == "" || strings.ContainsRune(path, '\n') || !imagestore.IsImageFile(path) {
		return nil, ErrNoClipboardImage
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("workspace: read clipboard image: %w", err)
	}
	return data, nil
}

func (w *Workspace) insertReference(name string) {
	w.buf = w.buf.Insert("\n" + markup.ImageToken(name) + "\n")
}

// Search highlights every title whose title or saved body contains query,
// ignoring case. A blank query clears the highlights.
func (w *Workspace) Search(query string) error {
	w.query = strings.TrimSpace(query)
	return w.refreshHighlights()
}

func (w *Workspace) refreshHighlights() error {
	w.highlights = make(map[string]bool)
	if w.query == "" {
		return nil
	}
	hits, err := w.notes.Search(w.query)
	if err != nil {
		return err
	}
	for _, t := range hits {
		w.highlights[t] = true
	}
	return nil
}

// SwitchArchive moves to the archive at dir and clears the editor. A blank
// dir does nothing.
func (w *Workspace) SwitchArchive(dir string) error {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		return nil
	}
	if err := w.notes.SwitchArchive(dir); err != nil {
		return err
	}
	w.current = ""
	w.buf = Buffer{}
	w.doc = nil
	w.query = ""
	w.highlights = make(map[string]bool)
	w.status = fmt.Sprintf("Archive: %s", w.notes.Archive())
	return nil
}

// OpenImageAt opens the image rendered at preview line, if any. Lines
// without an image do nothing.
func (w *Workspace) OpenImageAt(line int) error {
	if w.mode != ModePreview || w.doc == nil {
		return nil
	}
	path, ok := w.doc.ImageAt(line)
	if !ok {
		return nil
	}
	if _, err := os.Stat(path); err != nil {
		return nil
	}
	if err := w.opener.Open(path); err != nil {
		return fmt.Errorf("could not open image: %w", err)
	}
	name := filepath.Base(path)
	w.status = fmt.Sprintf("Opened %s.", name)
	refs, err := w.notes.ImageReferrers(name)
	if err != nil {
		w.logger.Warn("workspace: image referrers failed", slog.String("image", name), slog.String("error", err.Error()))
		return nil
	}
	if len(refs) > 0 {
		w.status = fmt.Sprintf("Opened %s (used by %s).", name, strings.Join(refs, ", "))
	}
	return nil
}

// ExternalChange applies a file change seen by the index watcher. It reports
// whether the note list changed.
func (w *Workspace) ExternalChange(kind, title string) bool {
	if !w.notes.Refresh(kind, title) {
		return false
	}
	if kind == index.EventDeleted && title == w.current {
		w.current = ""
		w.status = fmt.Sprintf("Note '%s' was removed on disk.", title)
	}
	if w.query != "" {
		if err := w.refreshHighlights(); err != nil {
			w.logger.Warn("workspace: search refresh failed", slog.String("error", err.Error()))
		}
	}
	return true
}

// ClearStatus drops the status line message.
func (w *Workspace) ClearStatus() { w.status = "" }
