// Package noteservice is the note store of an archive: an in-memory title to
// body mapping kept write-through with <archive>/<title>.md and mirrored into
// the search index.
package noteservice

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/maruel/natural"

	"github.com/starford/zettel/internal/apperr"
	"github.com/starford/zettel/internal/checksum"
	"github.com/starford/zettel/internal/imagestore"
	"github.com/starford/zettel/internal/index"
	"github.com/starford/zettel/internal/markup"
	"github.com/starford/zettel/internal/models"
	"github.com/starford/zettel/internal/render"
	"github.com/starford/zettel/internal/storage"
)

// SwitchHook runs after the service has moved to a new archive.
type SwitchHook func(store storage.Provider)

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the service logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// WithMaxImageSide sets the thumbnail cap used by Render.
func WithMaxImageSide(n int) Option {
	return func(s *Service) { s.maxSide = n }
}

// WithSwitchHook registers fn to run after every SwitchArchive.
func WithSwitchHook(fn SwitchHook) Option {
	return func(s *Service) { s.hooks = append(s.hooks, fn) }
}

// Service coordinates the archive files, the image directory and the index.
type Service struct {
	mu       sync.RWMutex
	store    storage.Provider
	images   *imagestore.Store
	renderer *render.Renderer
	notes    map[string]string
	titles   []string

	db      index.NoteIndex
	maxSide int
	hooks   []SwitchHook
	logger  *slog.Logger
}

// New opens the archive at dir, creating it and its image directory when
// missing. db may be nil, in which case Search scans the in-memory notes.
// Notes are not loaded until LoadAll.
func New(dir string, db index.NoteIndex, opts ...Option) (*Service, error) {
	s := &Service{
		db:     db,
		notes:  make(map[string]string),
		logger: slog.New(slog.NewJSONHandler(io.Discard, nil)),
	}
	for _, o := range opts {
		o(s)
	}
	store, images, err := openArchive(dir)
	if err != nil {
		return nil, err
	}
	s.store = store
	s.images = images
	s.renderer = render.New(images, s.maxSide)
	return s, nil
}

func openArchive(dir string) (*storage.FS, *imagestore.Store, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, nil, fmt.Errorf("noteservice: archive path is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, nil, fmt.Errorf("noteservice: create archive: %w", err)
	}
	store, err := storage.NewFS(dir)
	if err != nil {
		return nil, nil, err
	}
	images, err := imagestore.Open(store.Root())
	if err != nil {
		return nil, nil, err
	}
	return store, images, nil
}

// ValidateTitle trims title and rejects values that cannot be a file stem.
func ValidateTitle(title string) (string, error) {
	t := strings.TrimSpace(title)
	if t == "" || t == "." || t == ".." {
		return "", apperr.ErrInvalidTitle
	}
	if strings.ContainsAny(t, `/\`) || strings.ContainsRune(t, 0) {
		return "", apperr.ErrInvalidTitle
	}
	return t, nil
}

// Archive returns the absolute path of the current archive.
func (s *Service) Archive() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.store.Root()
}

// Store returns the file provider of the current archive.
func (s *Service) Store() storage.Provider {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.store
}

// Images returns the image store of the current archive.
func (s *Service) Images() *imagestore.Store {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.images
}

// LoadAll replaces the mapping with every note file at the top level of the
// archive and brings the index in line with the files.
func (s *Service) LoadAll() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadLocked()
}

func (s *Service) loadLocked() error {
	metas, err := s.store.List()
	if err != nil {
		return fmt.Errorf("noteservice: load: %w", err)
	}
	notes := make(map[string]string, len(metas))
	for _, m := range metas {
		data, err := s.store.Read(m.Path)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return fmt.Errorf("noteservice: load %s: %w", m.Title, err)
		}
		notes[m.Title] = string(data)
	}
	s.notes = notes
	s.resort()

	if s.db != nil {
		if err := index.Sync(s.db, s.store, s.logger); err != nil {
			s.logger.Warn("noteservice: index sync failed", slog.String("error", err.Error()))
		}
	}
	s.logger.Info("noteservice: archive loaded",
		slog.String("archive", s.store.Root()),
		slog.Int("notes", len(s.titles)),
	)
	return nil
}

func (s *Service) resort() {
	titles := make([]string, 0, len(s.notes))
	for t := range s.notes {
		titles = append(titles, t)
	}
	slices.SortFunc(titles, compareTitles)
	s.titles = titles
}

func compareTitles(a, b string) int {
	switch {
	case natural.Less(a, b):
		return -1
	case natural.Less(b, a):
		return 1
	default:
		return 0
	}
}

// Titles returns all titles in natural sort order.
func (s *Service) Titles() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.titles)
}

// Has reports whether title is in the mapping.
func (s *Service) Has(title string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.notes[title]
	return ok
}

// Get returns the saved body of title.
func (s *Service) Get(title string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	body, ok := s.notes[title]
	if !ok {
		return "", fmt.Errorf("noteservice: get %q: %w", title, apperr.ErrNotFound)
	}
	return body, nil
}

// Put trims body and writes it as the note title, creating the note when it
// does not exist yet. It returns the stored body.
func (s *Service) Put(title, body string) (string, error) {
	t, err := ValidateTitle(title)
	if err != nil {
		return "", err
	}
	body = strings.TrimSpace(body)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.writeLocked(t, body); err != nil {
		return "", err
	}
	return body, nil
}

// Create adds an empty note and its file. An existing title is reported
// with apperr.ErrAlreadyExists and left untouched.
func (s *Service) Create(title string) (string, error) {
	t, err := ValidateTitle(title)
	if err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.notes[t]; ok {
		return t, fmt.Errorf("noteservice: create %q: %w", t, apperr.ErrAlreadyExists)
	}
	if err := s.writeLocked(t, ""); err != nil {
		return "", err
	}
	return t, nil
}

func (s *Service) writeLocked(title, body string) error {
	data := []byte(body)
	if err := s.store.Write(models.FileName(title), data); err != nil {
		return fmt.Errorf("noteservice: write %q: %w", title, err)
	}
	_, existed := s.notes[title]
	s.notes[title] = body
	if !existed {
		s.resort()
	}
	s.indexLocked(title, data)
	return nil
}

func (s *Service) indexLocked(title string, data []byte) {
	if s.db == nil {
		return
	}
	if err := index.IndexFile(s.db, title, data); err != nil {
		s.logger.Warn("noteservice: index failed", slog.String("title", title), slog.String("error", err.Error()))
	}
}

func (s *Service) unindexLocked(title string) {
	if s.db == nil {
		return
	}
	if err := s.db.DeleteNote(title); err != nil {
		s.logger.Warn("noteservice: unindex failed", slog.String("title", title), slog.String("error", err.Error()))
	}
}

// Rename moves oldTitle to newTitle. Renaming onto an existing title is
// rejected and changes nothing. The new title is returned trimmed.
func (s *Service) Rename(oldTitle, newTitle string) (string, error) {
	t, err := ValidateTitle(newTitle)
	if err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	body, ok := s.notes[oldTitle]
	if !ok {
		return "", fmt.Errorf("noteservice: rename %q: %w", oldTitle, apperr.ErrNotFound)
	}
	if t == oldTitle {
		return t, nil
	}
	if _, taken := s.notes[t]; taken {
		return "", fmt.Errorf("noteservice: rename %q to %q: %w", oldTitle, t, apperr.ErrAlreadyExists)
	}

	if err := s.store.Write(models.FileName(t), []byte(body)); err != nil {
		return "", fmt.Errorf("noteservice: rename %q: %w", oldTitle, err)
	}
	if err := s.store.Delete(models.FileName(oldTitle)); err != nil && !errors.Is(err, os.ErrNotExist) {
		s.logger.Warn("noteservice: remove old file failed", slog.String("title", oldTitle), slog.String("error", err.Error()))
	}
	delete(s.notes, oldTitle)
	s.notes[t] = body
	s.resort()
	s.unindexLocked(oldTitle)
	s.indexLocked(t, []byte(body))
	return t, nil
}

// Delete removes title from the mapping, the archive and the index. A
// missing file is ignored.
func (s *Service) Delete(title string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.notes[title]; !ok {
		return fmt.Errorf("noteservice: delete %q: %w", title, apperr.ErrNotFound)
	}
	delete(s.notes, title)
	s.resort()
	s.unindexLocked(title)

	if err := s.store.Delete(models.FileName(title)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("noteservice: delete %q: %w", title, err)
	}
	return nil
}

// SwitchArchive points the service at dir, creating it and its image
// directory, and reloads all notes from it.
func (s *Service) SwitchArchive(dir string) error {
	store, images, err := openArchive(dir)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.store = store
	s.images = images
	s.renderer = render.New(images, s.maxSide)
	s.notes = make(map[string]string)
	s.titles = nil
	err = s.loadLocked()
	hooks := slices.Clone(s.hooks)
	s.mu.Unlock()
	if err != nil {
		return err
	}
	for _, h := range hooks {
		h(store)
	}
	return nil
}

// Refresh applies an external change to one note file, as reported by the
// index watcher. kind is one of the index.Event* constants. It reports
// whether the mapping changed.
func (s *Service) Refresh(kind, title string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if kind == index.EventDeleted {
		if _, ok := s.notes[title]; !ok {
			return false
		}
		if _, err := s.store.Read(models.FileName(title)); err == nil {
			// Stale delete for a file that has since been written again.
			return false
		}
		delete(s.notes, title)
		s.resort()
		return true
	}

	data, err := s.store.Read(models.FileName(title))
	if err != nil {
		return false
	}
	body := string(data)
	old, existed := s.notes[title]
	if existed && old == body {
		return false
	}
	s.notes[title] = body
	if !existed {
		s.resort()
	}
	return true
}

// Search returns, in display order, the titles whose title or saved body
// contains query case-insensitively. A blank query matches nothing.
func (s *Service) Search(query string) ([]string, error) {
	q := strings.TrimSpace(query)
	if q == "" {
		return nil, nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.db == nil {
		return s.scanLocked(q), nil
	}
	hits, err := s.db.Search(q)
	if err != nil {
		return nil, fmt.Errorf("noteservice: search: %w", err)
	}
	found := make(map[string]bool, len(hits))
	for _, h := range hits {
		found[h] = true
	}
	var out []string
	for _, t := range s.titles {
		if found[t] {
			out = append(out, t)
		}
	}
	return out, nil
}

func (s *Service) scanLocked(q string) []string {
	folded := index.Fold(q)
	var out []string
	for _, t := range s.titles {
		if strings.Contains(index.Fold(t), folded) || strings.Contains(index.Fold(s.notes[t]), folded) {
			out = append(out, t)
		}
	}
	return out
}

// Render renders raw against the current archive's image directory.
func (s *Service) Render(raw string) *render.Document {
	s.mu.RLock()
	r := s.renderer
	s.mu.RUnlock()
	return r.Render(raw)
}

// ImportImage copies the file at src into the image directory and returns
// the reference name.
func (s *Service) ImportImage(src string) (string, error) {
	return s.Images().Import(src)
}

// ImageReferrers lists the notes whose body references the named image.
func (s *Service) ImageReferrers(name string) ([]string, error) {
	if s.db != nil {
		return s.db.ImageReferrers(name)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []string
	for _, t := range s.titles {
		if slices.Contains(markup.ImageRefs(s.notes[t]), name) {
			out = append(out, t)
		}
	}
	return out, nil
}

// Metadata describes one note for list surfaces.
func (s *Service) Metadata(title string) (models.NoteMetadata, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	body, ok := s.notes[title]
	if !ok {
		return models.NoteMetadata{}, fmt.Errorf("noteservice: metadata %q: %w", title, apperr.ErrNotFound)
	}
	meta := models.NoteMetadata{
		Title:    title,
		Path:     models.FileName(title),
		Checksum: checksum.Sum([]byte(body)),
	}
	if info, err := os.Stat(filepath.Join(s.store.Root(), meta.Path)); err == nil {
		meta.UpdatedAt = info.ModTime()
	}
	return meta, nil
}
