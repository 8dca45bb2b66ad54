package imagestore

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func pngBytes(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 4, 4))); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestDecodeDataURI(t *testing.T) {
	raw := pngBytes(t)
	uri := "data:image/png;base64," + base64.StdEncoding.EncodeToString(raw)

	data, ext, err := DecodeDataURI(uri)
	if err != nil {
		t.Fatalf("DecodeDataURI: %v", err)
	}
	if ext != ".png" || !bytes.Equal(data, raw) {
		t.Errorf("ext = %q, %d bytes", ext, len(data))
	}

	for _, bad := range []string{
		"data:image/png;base64",
		"data:image/png,plain",
		"data:text/plain;base64,aGk=",
		"data:image/png;base64,!!!",
	} {
		if _, _, err := DecodeDataURI(bad); err == nil {
			t.Errorf("DecodeDataURI(%q) should fail", bad)
		}
	}
}

func TestFetch_DataURI(t *testing.T) {
	uri := "data:image/png;base64," + base64.StdEncoding.EncodeToString(pngBytes(t))
	src, err := Fetch(uri)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if !strings.HasSuffix(src.Name, ".png") {
		t.Errorf("name = %q", src.Name)
	}
}

func TestFetch_LocalFile(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "my pic.png")
	if err := os.WriteFile(p, pngBytes(t), 0o644); err != nil {
		t.Fatal(err)
	}
	src, err := Fetch(p)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if src.Name != "my_pic.png" {
		t.Errorf("name = %q", src.Name)
	}

	fake := filepath.Join(dir, "fake.png")
	_ = os.WriteFile(fake, []byte("not an image"), 0o644)
	if _, err := Fetch(fake); err == nil {
		t.Error("content mismatch should fail")
	}
	if _, err := Fetch(filepath.Join(dir, "missing.png")); err == nil {
		t.Error("missing file should fail")
	}
	if _, err := Fetch(dir); err == nil {
		t.Error("directory should fail")
	}
}

func TestFetch_BlocksLoopback(t *testing.T) {
	if _, err := Fetch("http://127.0.0.1/x.png"); err == nil || !strings.Contains(err.Error(), "blocked host") {
		t.Errorf("err = %v", err)
	}
}

func TestStoreAdd_KeepsExisting(t *testing.T) {
	s, _ := testStore(t)
	src := &Source{Data: pngBytes(t), Name: "a.png"}
	if name, err := s.Add(src); err != nil || name != "a.png" {
		t.Fatalf("Add = %q, %v", name, err)
	}
	if name, err := s.Add(&Source{Data: []byte("other"), Name: "a.png"}); err != nil || name != "a.png" {
		t.Fatalf("second Add = %q, %v", name, err)
	}
	data, _ := os.ReadFile(filepath.Join(s.Dir(), "a.png"))
	if !bytes.Equal(data, src.Data) {
		t.Error("existing image was overwritten")
	}
}

func TestSanitizeName(t *testing.T) {
	cases := map[string]string{
		"../../etc/passwd.png": "passwd.png",
		"a b(c).jpg":           "a_b_c_.jpg",
		"ok-name_1.gif":        "ok-name_1.gif",
	}
	for in, want := range cases {
		if got := SanitizeName(in); got != want {
			t.Errorf("SanitizeName(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestIsImageFile(t *testing.T) {
	if !IsImageFile("X.PNG") || !IsImageFile("a.jpeg") || IsImageFile("a.txt") {
		t.Error("unexpected IsImageFile result")
	}
}
