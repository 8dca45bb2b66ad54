// Package storage defines the archive file-system abstraction for note files.
package storage

import "github.com/starford/zettel/internal/models"

// Provider is the interface for note file operations. Paths are archive-relative.
type Provider interface {
	// Root returns the absolute archive directory.
	Root() string
	// List returns metadata for every note file directly inside the archive.
	List() ([]models.NoteMetadata, error)
	// Read returns the raw bytes of the file at path.
	Read(path string) ([]byte, error)
	// Write atomically writes content to path.
	Write(path string, content []byte) error
	// Delete removes the file at path.
	Delete(path string) error
	// Move renames oldPath to newPath.
	Move(oldPath, newPath string) error
}
