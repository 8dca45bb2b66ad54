// Package testutil provides shared test helpers for setting up archives, note
// services and index databases.
package testutil

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/starford/zettel/internal/index"
	"github.com/starford/zettel/internal/noteservice"
)

// TestDB creates a temporary SQLite index that is automatically cleaned up.
func TestDB(t *testing.T) *index.DB {
	t.Helper()
	db, err := index.Open(filepath.Join(t.TempDir(), "zettel-test.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// TestArchive creates a temporary archive directory holding the given notes,
// keyed by title.
func TestArchive(t *testing.T, notes map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for title, body := range notes {
		if err := os.WriteFile(filepath.Join(dir, title+".md"), []byte(body), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

// TestService opens dir with a fresh index and loads every note.
func TestService(t *testing.T, dir string) *noteservice.Service {
	t.Helper()
	svc, err := noteservice.New(dir, TestDB(t))
	if err != nil {
		t.Fatal(err)
	}
	if err := svc.LoadAll(); err != nil {
		t.Fatal(err)
	}
	return svc
}

// WritePNG writes a solid w x h PNG to path.
func WritePNG(t *testing.T, path string, w, h int) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: 200, G: 80, B: 40, A: 255})
		}
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatal(err)
	}
}
