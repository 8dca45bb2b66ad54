package internal

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/starford/zettel/internal/testutil"
)

func testConfig(t *testing.T, notes map[string]string) *Config {
	t.Helper()
	cfg := NewDefaultConfig()
	cfg.Archive.Path = testutil.TestArchive(t, notes)
	cfg.Index.Path = filepath.Join(t.TempDir(), "index.db")
	return cfg
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func TestEntrypoints_RequireConfig(t *testing.T) {
	ctx := context.Background()
	for name, fn := range map[string]func(context.Context, ...Option) error{
		"run":   Run,
		"serve": Serve,
		"mcp":   ServeMCP,
	} {
		if err := fn(ctx); err == nil || !strings.Contains(err.Error(), "config is required") {
			t.Errorf("%s without config: %v", name, err)
		}
	}
}

func TestOpenRuntime(t *testing.T) {
	cfg := testConfig(t, map[string]string{"b": "two", "a": "one"})
	var logs bytes.Buffer
	rt, err := openRuntime(cfg, newLogger(&logs, slog.LevelInfo))
	if err != nil {
		t.Fatal(err)
	}
	defer rt.close()

	if got := rt.notes.Titles(); len(got) != 2 || got[0] != "a" {
		t.Errorf("titles = %v", got)
	}
	if cs, _ := rt.db.GetChecksum("b"); cs == "" {
		t.Error("archive not indexed")
	}
	if !strings.Contains(logs.String(), `"msg":"Archive loaded"`) {
		t.Errorf("logs = %s", logs.String())
	}
}

func TestOpenRuntime_CreatesArchive(t *testing.T) {
	cfg := testConfig(t, nil)
	cfg.Archive.Path = filepath.Join(t.TempDir(), "fresh")
	cfg.Index.Path = ":memory:"
	rt, err := openRuntime(cfg, quietLogger())
	if err != nil {
		t.Fatal(err)
	}
	defer rt.close()
	if _, err := os.Stat(filepath.Join(cfg.Archive.Path, "images")); err != nil {
		t.Errorf("image directory not created: %v", err)
	}
}

func TestHTTPHandler(t *testing.T) {
	cfg := testConfig(t, map[string]string{"hello": "world"})
	cfg.Auth = AuthConfig{Mode: AuthModeToken, Token: "tok"}
	rt, err := openRuntime(cfg, quietLogger())
	if err != nil {
		t.Fatal(err)
	}
	defer rt.close()
	testutil.WritePNG(t, filepath.Join(rt.notes.Images().Dir(), "pic.png"), 2, 2)

	h := newHTTPHandler(cfg, rt, nil)

	cases := []struct {
		path  string
		token string
		want  int
	}{
		{"/health/live", "", http.StatusOK},
		{"/health/ready", "", http.StatusOK},
		{"/api/notes/hello", "", http.StatusUnauthorized},
		{"/api/notes/hello", "tok", http.StatusOK},
		{"/images/pic.png", "", http.StatusOK},
		{"/images/none.png", "", http.StatusNotFound},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodGet, tc.path, nil)
		if tc.token != "" {
			req.Header.Set("Authorization", "Bearer "+tc.token)
		}
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)
		if w.Code != tc.want {
			t.Errorf("GET %s = %d, want %d", tc.path, w.Code, tc.want)
		}
	}
}

func TestWatchArchive_FollowsSwitch(t *testing.T) {
	cfg := testConfig(t, nil)
	rt, err := openRuntime(cfg, quietLogger())
	if err != nil {
		t.Fatal(err)
	}
	defer rt.close()

	ctx, cancel := context.WithCancel(context.Background())
	var mu sync.Mutex
	seen := map[string]bool{}
	done := make(chan error, 1)
	go func() {
		done <- watchArchive(ctx, rt.notes, rt.db, rt.switched, quietLogger(), func(kind, title string) {
			mu.Lock()
			seen[title] = true
			mu.Unlock()
		})
	}()
	has := func(title string) bool {
		mu.Lock()
		defer mu.Unlock()
		return seen[title]
	}
	waitFor := func(title string) {
		t.Helper()
		deadline := time.Now().Add(5 * time.Second)
		for time.Now().Before(deadline) {
			if has(title) {
				return
			}
			time.Sleep(50 * time.Millisecond)
		}
		t.Errorf("no watcher event for %q", title)
	}

	time.Sleep(100 * time.Millisecond)
	_ = os.WriteFile(filepath.Join(cfg.Archive.Path, "first.md"), []byte("1"), 0o644)
	waitFor("first")

	next := t.TempDir()
	if err := rt.notes.SwitchArchive(next); err != nil {
		t.Fatal(err)
	}
	time.Sleep(200 * time.Millisecond)
	_ = os.WriteFile(filepath.Join(next, "second.md"), []byte("2"), 0o644)
	waitFor("second")

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("watchArchive = %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("watcher did not stop")
	}
}

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestServe_StopsOnCancel(t *testing.T) {
	cfg := testConfig(t, map[string]string{"n": "x"})
	cfg.App.HTTP.Port = 0 // any free port

	var logs syncBuffer
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- Serve(ctx, WithConfig(cfg), WithLogOutput(&logs))
	}()

	time.Sleep(200 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Serve = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not stop")
	}
	out := logs.String()
	for _, want := range []string{"Starting HTTP server", "Server stopped successfully"} {
		if !strings.Contains(out, want) {
			t.Errorf("logs missing %q:\n%s", want, out)
		}
	}
}
