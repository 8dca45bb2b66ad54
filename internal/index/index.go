package index

// NoteIndex defines the interface for note indexing operations.
// Consumers depend on this interface rather than the concrete *DB type.
type NoteIndex interface {
	UpsertNote(n NoteRow, body string, images []string) error
	DeleteNote(title string) error
	GetChecksum(title string) (string, error)
	AllChecksums() (map[string]string, error)
	Search(query string) ([]string, error)
	ImageReferrers(image string) ([]string, error)
	Close() error
}

// Verify *DB satisfies NoteIndex at compile time.
var _ NoteIndex = (*DB)(nil)
