package imagestore

import (
	"encoding/base64"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

// MaxSize caps imported and uploaded image data.
const MaxSize = 10 << 20 // 10 MB

var (
	allowedExtensions = map[string]bool{
		".png": true, ".jpg": true, ".jpeg": true, ".gif": true, ".bmp": true,
	}

	mimeToExt = map[string]string{
		"image/png":  ".png",
		"image/jpeg": ".jpg",
		"image/gif":  ".gif",
		"image/bmp":  ".bmp",
	}

	safeFilenameRe = regexp.MustCompile(`[^a-zA-Z0-9._-]`)
)

// Source is image data fetched from a data URI, URL or local file.
type Source struct {
	Data []byte
	Name string // suggested file name, already sanitized
}

// IsImageFile reports whether name has a supported image extension.
func IsImageFile(name string) bool {
	return allowedExtensions[strings.ToLower(filepath.Ext(name))]
}

// Fetch loads image data from src: a "data:" URI, an http(s) URL or a local
// file path. The content is checked against its extension.
func Fetch(src string) (*Source, error) {
	src = strings.TrimSpace(src)
	var (
		data []byte
		ext  string
		name string
		err  error
	)
	switch {
	case strings.HasPrefix(src, "data:"):
		data, ext, err = DecodeDataURI(src)
	case strings.HasPrefix(src, "http://"), strings.HasPrefix(src, "https://"):
		data, ext, err = fetchHTTP(src)
		name = nameFromURL(src)
	default:
		data, err = readFile(src)
		name = filepath.Base(src)
		ext = strings.ToLower(filepath.Ext(name))
	}
	if err != nil {
		return nil, err
	}
	if name == "" {
		if ext == "" {
			ext = ".png"
		}
		name = uuid.New().String() + ext
	}
	name = SanitizeName(name)
	ext = strings.ToLower(filepath.Ext(name))
	if !allowedExtensions[ext] {
		return nil, fmt.Errorf("imagestore: unsupported file extension: %s (allowed: png, jpg, jpeg, gif, bmp)", ext)
	}
	if err := ValidateContent(data, ext); err != nil {
		return nil, err
	}
	return &Source{Data: data, Name: name}, nil
}

func readFile(p string) ([]byte, error) {
	if p == "" {
		return nil, fmt.Errorf("imagestore: source is required")
	}
	info, err := os.Stat(p)
	if err != nil {
		return nil, fmt.Errorf("imagestore: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("imagestore: %s is a directory", p)
	}
	if info.Size() > MaxSize {
		return nil, fmt.Errorf("imagestore: file too large: %d bytes (max %d)", info.Size(), MaxSize)
	}
	return os.ReadFile(p)
}

// DecodeDataURI parses a data:[<mediatype>][;base64],<data> URI and returns
// the payload with the file extension for its media type.
func DecodeDataURI(uri string) ([]byte, string, error) {
	rest := strings.TrimPrefix(uri, "data:")
	commaIdx := strings.Index(rest, ",")
	if commaIdx < 0 {
		return nil, "", fmt.Errorf("imagestore: invalid data URI: missing comma separator")
	}

	meta := rest[:commaIdx]
	encoded := rest[commaIdx+1:]

	if !strings.Contains(meta, ";base64") {
		return nil, "", fmt.Errorf("imagestore: only base64 data URIs are supported")
	}

	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		data, err = base64.RawStdEncoding.DecodeString(encoded)
		if err != nil {
			return nil, "", fmt.Errorf("imagestore: invalid base64 data: %w", err)
		}
	}
	if len(data) > MaxSize {
		return nil, "", fmt.Errorf("imagestore: file too large: %d bytes (max %d)", len(data), MaxSize)
	}

	mime := strings.Split(strings.TrimSuffix(meta, ";base64"), ";")[0]
	ext := mimeToExt[mime]
	if ext == "" {
		return nil, "", fmt.Errorf("imagestore: unsupported MIME type in data URI: %s", mime)
	}
	return data, ext, nil
}

// fetchHTTP downloads an image with loopback and metadata hosts blocked.
func fetchHTTP(rawURL string) ([]byte, string, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return nil, "", fmt.Errorf("imagestore: invalid URL: %w", err)
	}
	if err := checkBlockedHost(parsed.Hostname()); err != nil {
		return nil, "", err
	}

	client := &http.Client{
		Timeout: 30 * time.Second,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= 5 {
				return fmt.Errorf("too many redirects (max 5)")
			}
			return checkBlockedHost(req.URL.Hostname())
		},
	}

	resp, err := client.Get(rawURL) //nolint:noctx
	if err != nil {
		return nil, "", fmt.Errorf("imagestore: download failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("imagestore: download failed: HTTP %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, MaxSize+1))
	if err != nil {
		return nil, "", fmt.Errorf("imagestore: read body failed: %w", err)
	}
	if len(data) > MaxSize {
		return nil, "", fmt.Errorf("imagestore: file too large: exceeds %d bytes", MaxSize)
	}

	ct := resp.Header.Get("Content-Type")
	return data, mimeToExt[strings.Split(ct, ";")[0]], nil
}

// checkBlockedHost rejects loopback and cloud metadata addresses.
func checkBlockedHost(host string) error {
	if host == "metadata.google.internal" {
		return fmt.Errorf("imagestore: blocked host: %s", host)
	}

	ip := net.ParseIP(host)
	if ip == nil {
		ips, lookupErr := net.LookupIP(host)
		if lookupErr != nil || len(ips) == 0 {
			return nil //nolint:nilerr // let http.Client handle DNS failures
		}
		ip = ips[0]
	}

	if ip.IsLoopback() {
		return fmt.Errorf("imagestore: blocked host: loopback address %s", host)
	}
	if ip.Equal(net.ParseIP("169.254.169.254")) {
		return fmt.Errorf("imagestore: blocked host: cloud metadata address %s", host)
	}
	return nil
}

func nameFromURL(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	base := path.Base(parsed.Path)
	if base == "" || base == "." || base == "/" || !strings.Contains(base, ".") {
		return ""
	}
	return base
}

// SanitizeName strips path separators and unsafe characters from a file name.
func SanitizeName(name string) string {
	name = filepath.Base(name)
	name = safeFilenameRe.ReplaceAllString(name, "_")
	if name == "" || name == "." || name == ".." {
		name = uuid.New().String()
	}
	return name
}

// ValidateContent verifies data is the image type its extension claims.
func ValidateContent(data []byte, ext string) error {
	detected := http.DetectContentType(data)
	got := mimeToExt[strings.Split(detected, ";")[0]]

	switch strings.ToLower(ext) {
	case ".jpg", ".jpeg":
		if got != ".jpg" {
			return fmt.Errorf("imagestore: content does not match extension %s (detected: %s)", ext, detected)
		}
	default:
		if got != strings.ToLower(ext) {
			return fmt.Errorf("imagestore: content does not match extension %s (detected: %s)", ext, detected)
		}
	}
	return nil
}
