// Package models defines the domain types for zettel.
package models

import "time"

// NoteExt is the file extension of note files in an archive.
const NoteExt = ".md"

// Note is a titled note. Title doubles as the filename stem.
type Note struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

// NoteMetadata is a lightweight representation returned by list operations.
type NoteMetadata struct {
	Title     string    `json:"title"`
	Path      string    `json:"path"`
	Checksum  string    `json:"checksum"`
	UpdatedAt time.Time `json:"updated_at"`
}

// FileName returns the archive-relative file name for a note title.
func FileName(title string) string {
	return title + NoteExt
}
