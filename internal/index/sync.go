package index

import (
	"log/slog"
	"strings"
	"time"

	"github.com/starford/zettel/internal/checksum"
	"github.com/starford/zettel/internal/markup"
	"github.com/starford/zettel/internal/models"
	"github.com/starford/zettel/internal/storage"
)

// Sync walks the archive and brings the index up to date:
//   - new/changed files are upserted
//   - files removed from disk are deleted from the index
func Sync(db NoteIndex, store storage.Provider, logger *slog.Logger) error {
	metas, err := store.List()
	if err != nil {
		return err
	}

	checksums, err := db.AllChecksums()
	if err != nil {
		return err
	}

	disk := make(map[string]struct{}, len(metas))
	for _, m := range metas {
		disk[m.Title] = struct{}{}

		if checksums[m.Title] == m.Checksum {
			continue
		}

		data, err := store.Read(m.Path)
		if err != nil {
			logger.Warn("sync: read failed", slog.String("title", m.Title), slog.String("error", err.Error()))
			continue
		}
		if err := IndexFile(db, m.Title, data); err != nil {
			logger.Warn("sync: index failed", slog.String("title", m.Title), slog.String("error", err.Error()))
		} else {
			logger.Debug("sync: indexed", slog.String("title", m.Title))
		}
	}

	for title := range checksums {
		if _, ok := disk[title]; !ok {
			if err := db.DeleteNote(title); err != nil {
				logger.Warn("sync: delete failed", slog.String("title", title), slog.String("error", err.Error()))
			} else {
				logger.Debug("sync: removed stale", slog.String("title", title))
			}
		}
	}

	return nil
}

// IndexFile upserts the saved content of one note file.
func IndexFile(db NoteIndex, title string, data []byte) error {
	body := string(data)
	return db.UpsertNote(NoteRow{
		Title:     title,
		Checksum:  checksum.Sum(data),
		UpdatedAt: time.Now(),
	}, body, markup.ImageRefs(body))
}

// titleOf maps an archive-relative file name to a note title.
func titleOf(name string) (string, bool) {
	title, ok := strings.CutSuffix(name, models.NoteExt)
	if !ok || title == "" {
		return "", false
	}
	return title, true
}
