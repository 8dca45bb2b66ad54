// Package tui is the terminal front end: a note list, a title field and a
// body that switches between a raw editor and a rendered preview.
package tui

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/charmbracelet/bubbles/filepicker"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/starford/zettel/internal/apperr"
	"github.com/starford/zettel/internal/workspace"
)

const listWidth = 28

type modalKind int

const (
	modalNone modalKind = iota
	modalNewNote
	modalArchive
	modalConfirmDelete
	modalPicker
	modalError
)

// NoteChangedMsg reports a note file changed outside the app.
type NoteChangedMsg struct {
	Kind  string
	Title string
}

// Model is the bubbletea model of the note editor.
type Model struct {
	ws     *workspace.Workspace
	keys   keyMap
	help   help.Model
	logger *slog.Logger

	titles []string
	cursor int

	search    textinput.Model
	searching bool
	title     textinput.Model
	body      textarea.Model
	mark      int

	preview viewport.Model
	rows    []previewRow
	row     int

	modal     modalKind
	prompt    textinput.Model
	pending   string
	errTitle  string
	errText   string
	picker    filepicker.Model
	pickerDir string
	quitting  bool
	width     int
	height    int
}

// Option configures a Model.
type Option func(*Model)

// WithLogger sets the UI logger. The UI owns the terminal, so it must not
// log to stdout.
func WithLogger(l *slog.Logger) Option {
	return func(m *Model) { m.logger = l }
}

// WithPickerDir sets the starting directory of the image picker.
func WithPickerDir(dir string) Option {
	return func(m *Model) { m.pickerDir = dir }
}

// New builds the model over a loaded workspace.
func New(ws *workspace.Workspace, opts ...Option) Model {
	search := textinput.New()
	search.Prompt = "/ "
	search.Placeholder = "search"

	title := textinput.New()
	title.Prompt = "Title: "
	title.Placeholder = "untitled"

	body := textarea.New()
	body.ShowLineNumbers = false
	body.CharLimit = 0
	body.MaxHeight = 0
	body.Placeholder = "Write here. **bold** *italic* _underline_ # heading ![image.png]"

	prompt := textinput.New()
	prompt.CharLimit = 0

	m := Model{
		ws:      ws,
		keys:    newKeyMap(),
		help:    help.New(),
		logger:  slog.New(slog.NewJSONHandler(io.Discard, nil)),
		search:  search,
		title:   title,
		body:    body,
		mark:    -1,
		preview: viewport.New(0, 0),
		prompt:  prompt,
		width:   100,
		height:  30,
	}
	if home, err := os.UserHomeDir(); err == nil {
		m.pickerDir = home
	}
	for _, o := range opts {
		o(&m)
	}
	m.refreshList()
	m.applyFocus()
	m.resize()
	return m
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return textarea.Blink
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.resize()
		if m.modal == modalPicker {
			var cmd tea.Cmd
			m.picker, cmd = m.picker.Update(msg)
			return m, cmd
		}
		return m, nil

	case NoteChangedMsg:
		if m.ws.ExternalChange(msg.Kind, msg.Title) {
			m.logger.Debug("tui: external change", slog.String("kind", msg.Kind), slog.String("title", msg.Title))
			m.refreshList()
			if m.ws.Current() == "" && m.title.Value() == msg.Title {
				m.title.SetValue("")
			}
		}
		return m, nil
	}

	if m.modal != modalNone {
		return m.updateModal(msg)
	}

	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m.updateFocused(msg)
	}

	switch {
	case key.Matches(keyMsg, m.keys.quit):
		m.quitting = true
		return m, tea.Quit

	case key.Matches(keyMsg, m.keys.newNote):
		return m.openPrompt(modalNewNote, "New note title:", "")

	case key.Matches(keyMsg, m.keys.archive):
		return m.openPrompt(modalArchive, "Archive folder:", m.ws.Notes().Archive())

	case key.Matches(keyMsg, m.keys.delete):
		sel := m.selected()
		if sel == "" {
			return m, nil
		}
		m.pending = sel
		m.modal = modalConfirmDelete
		return m, nil

	case key.Matches(keyMsg, m.keys.save):
		m.captureBody()
		// An edited title still in its field is a rename, not a new note.
		if m.ws.Focus() == workspace.FocusTitle {
			m.commitTitle()
			if m.modal == modalError {
				return m, nil
			}
		}
		if err := m.ws.Save(m.title.Value()); err != nil {
			return m.showError("Save", err), nil
		}
		m.afterNoteChange()
		return m, nil

	case key.Matches(keyMsg, m.keys.toggle):
		m.captureBody()
		m.ws.Toggle()
		m.syncBody()
		return m, nil

	case key.Matches(keyMsg, m.keys.search):
		m.setFocus(workspace.FocusList)
		m.searching = true
		m.applyFocus()
		return m, textinput.Blink

	case key.Matches(keyMsg, m.keys.focus):
		m.setFocus(m.ws.Focus().Next())
		m.applyFocus()
		return m, nil
	}

	if m.ws.Focus() == workspace.FocusBody && m.ws.Mode() == workspace.ModeEdit {
		if handled, next, cmd := m.handleEditKeys(keyMsg); handled {
			return next, cmd
		}
	}
	return m.updateFocused(msg)
}

// handleEditKeys runs the format and image commands of the body editor.
func (m Model) handleEditKeys(msg tea.KeyMsg) (bool, tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.mark):
		m.mark = caretOffset(&m.body)
		return true, m, nil
	case key.Matches(msg, m.keys.bold):
		return true, m.format(workspace.Bold, 0), nil
	case key.Matches(msg, m.keys.italic):
		return true, m.format(workspace.Italic, 0), nil
	case key.Matches(msg, m.keys.underline):
		return true, m.format(workspace.Underline, 0), nil
	case key.Matches(msg, m.keys.heading1):
		return true, m.format(workspace.Heading, 1), nil
	case key.Matches(msg, m.keys.heading2):
		return true, m.format(workspace.Heading, 2), nil
	case key.Matches(msg, m.keys.heading3):
		return true, m.format(workspace.Heading, 3), nil
	case key.Matches(msg, m.keys.image):
		m.picker = newPicker(m.pickerDir, m.height)
		m.modal = modalPicker
		return true, m, m.picker.Init()
	case key.Matches(msg, m.keys.paste):
		m.captureBody()
		if _, err := m.ws.PasteImage(); err != nil {
			if errors.Is(err, workspace.ErrNoClipboardImage) {
				// Plain text stays with the editor's own paste.
				var cmd tea.Cmd
				m.body, cmd = m.body.Update(msg)
				return true, m, cmd
			}
			return true, m.showError("Paste Error", err), nil
		}
		m.syncBody()
		return true, m, nil
	}
	return false, m, nil
}

func (m Model) format(cmd workspace.Command, level int) Model {
	m.ws.SetBuffer(bufferFrom(&m.body, m.mark))
	m.ws.Format(cmd, level)
	m.mark = -1
	loadBuffer(&m.body, m.ws.Buffer())
	return m
}

// updateFocused routes msg to the focused pane.
func (m Model) updateFocused(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.ws.Focus() {
	case workspace.FocusTitle:
		m.title, cmd = m.title.Update(msg)
		return m, cmd

	case workspace.FocusBody:
		if m.ws.Mode() == workspace.ModePreview {
			return m.updatePreview(msg)
		}
		m.body, cmd = m.body.Update(msg)
		return m, cmd

	default:
		if m.searching {
			return m.updateSearch(msg)
		}
		return m.updateList(msg)
	}
}

func (m Model) updateList(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch {
	case key.Matches(keyMsg, m.keys.up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(keyMsg, m.keys.down):
		if m.cursor < len(m.titles)-1 {
			m.cursor++
		}
	case key.Matches(keyMsg, m.keys.open):
		sel := m.selected()
		if sel == "" {
			return m, nil
		}
		if err := m.ws.Select(sel); err != nil {
			return m.showError("Open", err), nil
		}
		m.title.SetValue(sel)
		m.mark = -1
		m.syncBody()
	}
	return m, nil
}

func (m Model) updateSearch(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		if key.Matches(keyMsg, m.keys.cancel) || key.Matches(keyMsg, m.keys.open) {
			m.searching = false
			m.applyFocus()
			return m, nil
		}
	}
	var cmd tea.Cmd
	before := m.search.Value()
	m.search, cmd = m.search.Update(msg)
	if m.search.Value() != before {
		if err := m.ws.Search(m.search.Value()); err != nil {
			m.logger.Warn("tui: search failed", slog.String("error", err.Error()))
		}
	}
	return m, cmd
}

func (m Model) updatePreview(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		var cmd tea.Cmd
		m.preview, cmd = m.preview.Update(msg)
		return m, cmd
	}
	switch {
	case key.Matches(keyMsg, m.keys.up):
		if m.row > 0 {
			m.row--
		}
	case key.Matches(keyMsg, m.keys.down):
		if m.row < len(m.rows)-1 {
			m.row++
		}
	case key.Matches(keyMsg, m.keys.open):
		if m.row < len(m.rows) {
			if err := m.ws.OpenImageAt(m.rows[m.row].line); err != nil {
				return m.showError("Error", err), nil
			}
		}
	default:
		var cmd tea.Cmd
		m.preview, cmd = m.preview.Update(msg)
		return m, cmd
	}
	m.drawPreview()
	return m, nil
}

func (m Model) updateModal(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, isKey := msg.(tea.KeyMsg)

	switch m.modal {
	case modalError:
		if isKey {
			m.modal = modalNone
		}
		return m, nil

	case modalConfirmDelete:
		if !isKey {
			return m, nil
		}
		switch {
		case key.Matches(keyMsg, m.keys.confirm):
			m.modal = modalNone
			if err := m.ws.Delete(m.pending); err != nil {
				return m.showError("Delete", err), nil
			}
			if m.ws.Current() == "" {
				m.title.SetValue("")
			}
			m.pending = ""
			m.refreshList()
			m.syncBody()
		case key.Matches(keyMsg, m.keys.deny):
			m.modal = modalNone
			m.pending = ""
		}
		return m, nil

	case modalPicker:
		if isKey && key.Matches(keyMsg, m.keys.cancel) {
			m.modal = modalNone
			return m, nil
		}
		var cmd tea.Cmd
		m.picker, cmd = m.picker.Update(msg)
		if ok, path := m.picker.DidSelectFile(msg); ok {
			m.modal = modalNone
			m.captureBody()
			if _, err := m.ws.InsertImage(path); err != nil {
				return m.showError("Insert Image", err), nil
			}
			m.syncBody()
			return m, nil
		}
		return m, cmd

	case modalNewNote, modalArchive:
		if isKey {
			switch {
			case key.Matches(keyMsg, m.keys.cancel):
				m.modal = modalNone
				return m, nil
			case keyMsg.Type == tea.KeyEnter:
				return m.submitPrompt()
			}
		}
		var cmd tea.Cmd
		m.prompt, cmd = m.prompt.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) openPrompt(kind modalKind, label, value string) (tea.Model, tea.Cmd) {
	m.modal = kind
	m.prompt.Prompt = label + " "
	m.prompt.SetValue(value)
	m.prompt.CursorEnd()
	return m, m.prompt.Focus()
}

func (m Model) submitPrompt() (tea.Model, tea.Cmd) {
	kind := m.modal
	value := m.prompt.Value()
	m.modal = modalNone
	m.prompt.Blur()

	switch kind {
	case modalNewNote:
		if err := m.ws.NewNote(value); err != nil {
			return m.showError("New Note", err), nil
		}
		if m.ws.Current() == "" {
			return m, nil
		}
		m.afterNoteChange()
		m.setFocus(workspace.FocusBody)
		m.applyFocus()
	case modalArchive:
		if err := m.ws.SwitchArchive(value); err != nil {
			return m.showError("Switch Archive", err), nil
		}
		m.title.SetValue("")
		m.search.SetValue("")
		m.refreshList()
		m.syncBody()
	}
	return m, nil
}

func (m Model) showError(title string, err error) Model {
	m.logger.Warn("tui: "+title, slog.String("error", err.Error()))
	m.modal = modalError
	m.errTitle = title
	switch {
	case errors.Is(err, apperr.ErrAlreadyExists):
		m.errText = fmt.Sprintf("A note with that title already exists.\n\n%v", err)
	case errors.Is(err, apperr.ErrInvalidTitle):
		m.errText = "Titles cannot be empty or contain path separators."
	default:
		m.errText = err.Error()
	}
	return m
}

// setFocus moves focus. Leaving the title field applies a rename.
func (m *Model) setFocus(f workspace.Focus) {
	if m.ws.Focus() == workspace.FocusTitle && f != workspace.FocusTitle {
		m.commitTitle()
	}
	if f != workspace.FocusList {
		m.searching = false
	}
	m.ws.SetFocus(f)
}

func (m *Model) commitTitle() {
	if err := m.ws.RenameCurrent(m.title.Value()); err != nil {
		*m = m.showError("Rename", err)
		m.title.SetValue(m.ws.Current())
		return
	}
	if t := m.ws.Current(); t != "" {
		m.title.SetValue(t)
	}
	m.refreshList()
}

func (m *Model) applyFocus() {
	m.title.Blur()
	m.body.Blur()
	m.search.Blur()
	switch m.ws.Focus() {
	case workspace.FocusTitle:
		m.title.Focus()
	case workspace.FocusBody:
		if m.ws.Mode() == workspace.ModeEdit {
			m.body.Focus()
		}
	default:
		if m.searching {
			m.search.Focus()
		}
	}
}

// captureBody copies the editor contents into the workspace buffer.
func (m *Model) captureBody() {
	if m.ws.Mode() == workspace.ModeEdit {
		m.ws.SetBuffer(bufferFrom(&m.body, -1))
	}
}

// syncBody redraws the body from the workspace buffer or preview.
func (m *Model) syncBody() {
	loadBuffer(&m.body, m.ws.Buffer())
	m.mark = -1
	if m.ws.Mode() == workspace.ModePreview {
		m.rows = layoutDocument(m.ws.Document(), m.preview.Width)
		m.row = 0
		m.preview.GotoTop()
		m.drawPreview()
	}
	m.applyFocus()
}

// afterNoteChange refreshes everything that shows the current note.
func (m *Model) afterNoteChange() {
	m.title.SetValue(m.ws.Current())
	m.refreshList()
	m.syncBody()
}

func (m *Model) refreshList() {
	m.titles = m.ws.Titles()
	if cur := m.ws.Current(); cur != "" {
		for i, t := range m.titles {
			if t == cur {
				m.cursor = i
				return
			}
		}
	}
	if m.cursor >= len(m.titles) {
		m.cursor = len(m.titles) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

func (m Model) selected() string {
	if m.cursor < 0 || m.cursor >= len(m.titles) {
		return ""
	}
	return m.titles[m.cursor]
}

func (m *Model) resize() {
	right := max(m.width-listWidth-6, 20)
	bodyHeight := max(m.height-8, 3)
	m.title.Width = right - len(m.title.Prompt) - 1
	m.search.Width = listWidth - 4
	m.body.SetWidth(right)
	m.body.SetHeight(bodyHeight)
	m.preview.Width = right
	m.preview.Height = bodyHeight
	m.help.Width = m.width
	if m.ws.Mode() == workspace.ModePreview {
		m.rows = layoutDocument(m.ws.Document(), right)
		m.drawPreview()
	}
}

func newPicker(dir string, height int) filepicker.Model {
	fp := filepicker.New()
	fp.AllowedTypes = []string{".png", ".jpg", ".jpeg", ".gif", ".bmp"}
	fp.DirAllowed = false
	fp.FileAllowed = true
	fp.ShowHidden = false
	fp.AutoHeight = false
	fp.Height = max(height-10, 5)
	if dir != "" {
		fp.CurrentDirectory = dir
	}
	return fp
}
