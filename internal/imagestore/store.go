// Package imagestore manages the image directory of an archive: copies of
// inserted image files, pasted clipboard images, and preview thumbnails.
package imagestore

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
)

// DirName is the image subdirectory created under every archive.
const DirName = "images"

// Store is rooted at <archive>/images.
type Store struct {
	dir string
}

// Open ensures <archive>/images exists and returns a Store for it.
func Open(archiveRoot string) (*Store, error) {
	abs, err := filepath.Abs(filepath.Join(archiveRoot, DirName))
	if err != nil {
		return nil, fmt.Errorf("imagestore: resolve dir: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("imagestore: create dir: %w", err)
	}
	return &Store{dir: abs}, nil
}

// Dir returns the absolute image directory.
func (s *Store) Dir() string {
	return s.dir
}

// Resolve validates that name is a plain file name and returns its absolute
// path inside the image directory. The file need not exist.
func (s *Store) Resolve(name string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("imagestore: filename is required")
	}
	cleaned := filepath.Clean(name)
	if cleaned != filepath.Base(cleaned) || cleaned == "." || cleaned == ".." {
		return "", fmt.Errorf("imagestore: invalid filename: %s", name)
	}
	abs := filepath.Join(s.dir, cleaned)
	if !strings.HasPrefix(abs, s.dir+string(os.PathSeparator)) {
		return "", fmt.Errorf("imagestore: path escapes image directory")
	}
	return abs, nil
}

// Exists reports whether name is present in the image directory.
func (s *Store) Exists(name string) bool {
	abs, err := s.Resolve(name)
	if err != nil {
		return false
	}
	info, err := os.Stat(abs)
	return err == nil && !info.IsDir()
}

// Import copies the file at src byte-for-byte into the image directory under
// its base name. An existing file with the same name is kept untouched.
func (s *Store) Import(src string) (string, error) {
	name := filepath.Base(src)
	dst, err := s.Resolve(name)
	if err != nil {
		return "", err
	}
	if s.Exists(name) {
		return name, nil
	}

	in, err := os.Open(src)
	if err != nil {
		return "", fmt.Errorf("imagestore: open source: %w", err)
	}
	defer in.Close()

	if err := s.writeFrom(dst, in); err != nil {
		return "", err
	}
	return name, nil
}

// Add stores a fetched source under its name unless a file with that name
// already exists, and returns the name.
func (s *Store) Add(src *Source) (string, error) {
	if s.Exists(src.Name) {
		return src.Name, nil
	}
	if err := s.Put(src.Name, bytes.NewReader(src.Data)); err != nil {
		return "", err
	}
	return src.Name, nil
}

// Put stores data under name. Used by uploads; existing files are rejected.
func (s *Store) Put(name string, r io.Reader) error {
	dst, err := s.Resolve(name)
	if err != nil {
		return err
	}
	if s.Exists(name) {
		return fmt.Errorf("imagestore: %s: %w", name, os.ErrExist)
	}
	return s.writeFrom(dst, r)
}

// SavePNG encodes img as PNG under a random 8-hex-digit name and returns the name.
func (s *Store) SavePNG(img image.Image) (string, error) {
	name := RandomName()
	dst, err := s.Resolve(name)
	if err != nil {
		return "", err
	}
	if err := imaging.Save(img, dst); err != nil {
		return "", fmt.Errorf("imagestore: save png: %w", err)
	}
	return name, nil
}

// RandomName returns "<8 hex>.png".
func RandomName() string {
	id := strings.ReplaceAll(uuid.NewString(), "-", "")
	return id[:8] + ".png"
}

// Thumbnail decodes the named image and scales it so its longest side is at
// most maxSide, preserving aspect ratio. Smaller images are returned as is.
func (s *Store) Thumbnail(name string, maxSide int) (image.Image, error) {
	abs, err := s.Resolve(name)
	if err != nil {
		return nil, err
	}
	img, err := imaging.Open(abs, imaging.AutoOrientation(true))
	if err != nil {
		return nil, err
	}
	b := img.Bounds()
	if maxSide > 0 && (b.Dx() > maxSide || b.Dy() > maxSide) {
		img = imaging.Fit(img, maxSide, maxSide, imaging.Lanczos)
	}
	return img, nil
}

// Decode reads an image from r, honouring EXIF orientation.
func Decode(r io.Reader) (image.Image, error) {
	img, err := imaging.Decode(r, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("imagestore: decode: %w", err)
	}
	return img, nil
}

func (s *Store) writeFrom(dst string, r io.Reader) error {
	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return fmt.Errorf("imagestore: %s: %w", filepath.Base(dst), err)
		}
		return fmt.Errorf("imagestore: create: %w", err)
	}
	if _, err := io.Copy(out, r); err != nil {
		_ = out.Close()
		_ = os.Remove(dst)
		return fmt.Errorf("imagestore: copy: %w", err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("imagestore: close: %w", err)
	}
	return nil
}
