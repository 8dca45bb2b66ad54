package index

import (
	"fmt"
	"strings"
	"time"
)

// NoteRow represents a row in the notes table.
type NoteRow struct {
	Title     string
	Checksum  string
	UpdatedAt time.Time
}

// Fold lowercases text for case-insensitive matching.
func Fold(s string) string {
	return strings.ToLower(s)
}

// UpsertNote inserts or replaces a note and its image references within a transaction.
func (db *DB) UpsertNote(n NoteRow, body string, images []string) error {
	if n.UpdatedAt.IsZero() {
		n.UpdatedAt = time.Now()
	}
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	_, err = tx.Exec(`
		INSERT INTO notes (title, checksum, body, folded_title, folded_body, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(title) DO UPDATE SET
			checksum     = excluded.checksum,
			body         = excluded.body,
			folded_title = excluded.folded_title,
			folded_body  = excluded.folded_body,
			updated_at   = excluded.updated_at
	`, n.Title, n.Checksum, body, Fold(n.Title), Fold(body), n.UpdatedAt)
	if err != nil {
		return fmt.Errorf("index: upsert note: %w", err)
	}

	if _, err := tx.Exec(`DELETE FROM image_refs WHERE source = ?`, n.Title); err != nil {
		return fmt.Errorf("index: clear image refs: %w", err)
	}
	if len(images) > 0 {
		stmt, err := tx.Prepare(`INSERT OR IGNORE INTO image_refs (source, image) VALUES (?, ?)`)
		if err != nil {
			return fmt.Errorf("index: prepare image ref insert: %w", err)
		}
		defer stmt.Close()
		for _, img := range images {
			if _, err := stmt.Exec(n.Title, img); err != nil {
				return fmt.Errorf("index: insert image ref: %w", err)
			}
		}
	}

	return tx.Commit()
}

// DeleteNote removes a note and its image references.
func (db *DB) DeleteNote(title string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	_, _ = tx.Exec(`DELETE FROM image_refs WHERE source = ?`, title)
	_, _ = tx.Exec(`DELETE FROM notes WHERE title = ?`, title)

	return tx.Commit()
}

// GetChecksum returns the stored checksum for a note, or empty string if not found.
func (db *DB) GetChecksum(title string) (string, error) {
	var cs string
	err := db.conn.QueryRow(`SELECT checksum FROM notes WHERE title = ?`, title).Scan(&cs)
	if err != nil {
		return "", nil // not found is fine
	}
	return cs, nil
}

// AllChecksums returns title → checksum for every indexed note.
func (db *DB) AllChecksums() (map[string]string, error) {
	rows, err := db.conn.Query(`SELECT title, checksum FROM notes`)
	if err != nil {
		return nil, fmt.Errorf("index: all checksums: %w", err)
	}
	defer rows.Close()
	out := make(map[string]string)
	for rows.Next() {
		var title, cs string
		if err := rows.Scan(&title, &cs); err != nil {
			return nil, err
		}
		out[title] = cs
	}
	return out, rows.Err()
}

// Search returns the titles whose title or body contains query, ignoring case.
// An empty query matches nothing.
func (db *DB) Search(query string) ([]string, error) {
	q := Fold(query)
	if q == "" {
		return nil, nil
	}
	rows, err := db.conn.Query(`
		SELECT title
		FROM notes
		WHERE instr(folded_title, ?) > 0 OR instr(folded_body, ?) > 0
		ORDER BY title
	`, q, q)
	if err != nil {
		return nil, fmt.Errorf("index: search: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var title string
		if err := rows.Scan(&title); err != nil {
			return nil, err
		}
		out = append(out, title)
	}
	return out, rows.Err()
}

// ImageReferrers returns the titles of notes that reference the image file.
func (db *DB) ImageReferrers(image string) ([]string, error) {
	rows, err := db.conn.Query(`SELECT source FROM image_refs WHERE image = ? ORDER BY source`, image)
	if err != nil {
		return nil, fmt.Errorf("index: image referrers: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
