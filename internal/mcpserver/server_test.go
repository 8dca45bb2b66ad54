package mcpserver

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/starford/zettel/internal/noteservice"
	"github.com/starford/zettel/internal/testutil"
)

func testServer(t *testing.T, notes map[string]string) (*Server, *noteservice.Service) {
	t.Helper()
	svc := testutil.TestService(t, testutil.TestArchive(t, notes))
	return New(svc, nil), svc
}

func callTool(t *testing.T, srv *Server, name string, args map[string]any) *mcp.CallToolResult {
	t.Helper()
	ctx := context.Background()
	req := mcp.CallToolRequest{}
	req.Method = "tools/call"
	req.Params.Name = name
	req.Params.Arguments = args

	// mcp-go has no direct "call tool" test helper, so the handlers are
	// called directly.
	var result *mcp.CallToolResult
	var err error

	switch name {
	case "list_notes":
		result, err = srv.listNotes(ctx, req)
	case "read_note":
		result, err = srv.readNote(ctx, req)
	case "save_note":
		result, err = srv.saveNote(ctx, req)
	case "search_notes":
		result, err = srv.searchNotes(ctx, req)
	case "render_note":
		result, err = srv.renderNote(ctx, req)
	case "import_image":
		result, err = srv.importImage(ctx, req)
	case "find_image_referrers":
		result, err = srv.findImageReferrers(ctx, req)
	case "get_note_grammar":
		result, err = srv.getNoteGrammar(ctx, req)
	default:
		t.Fatalf("unknown tool: %s", name)
	}

	if err != nil {
		t.Fatalf("tool %s error: %v", name, err)
	}
	return result
}

func resultText(r *mcp.CallToolResult) string {
	if len(r.Content) > 0 {
		if tc, ok := r.Content[0].(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

func TestSaveAndReadNote(t *testing.T) {
	srv, svc := testServer(t, nil)

	r := callTool(t, srv, "save_note", map[string]any{
		"title": " test ",
		"body":  "# Test\nHello\n\n",
	})
	if text := resultText(r); text != "saved: test" {
		t.Errorf("save result = %q", text)
	}
	if _, err := os.Stat(filepath.Join(svc.Archive(), "test.md")); err != nil {
		t.Errorf("file not written: %v", err)
	}

	r = callTool(t, srv, "read_note", map[string]any{"title": "test"})
	if text := resultText(r); text != "# Test\nHello" {
		t.Errorf("read result = %q", text)
	}
}

func TestSaveNote_CreateOnly(t *testing.T) {
	srv, svc := testServer(t, map[string]string{"taken": "original"})

	r := callTool(t, srv, "save_note", map[string]any{"title": "taken", "body": "new", "create_only": true})
	if !r.IsError {
		t.Fatal("expected error for existing note")
	}
	if body, _ := svc.Get("taken"); body != "original" {
		t.Errorf("body = %q, want untouched", body)
	}

	r = callTool(t, srv, "save_note", map[string]any{"title": "taken", "body": "new"})
	if r.IsError {
		t.Fatalf("overwrite failed: %s", resultText(r))
	}
	if body, _ := svc.Get("taken"); body != "new" {
		t.Errorf("body = %q", body)
	}
}

func TestSaveNote_InvalidTitle(t *testing.T) {
	srv, _ := testServer(t, nil)
	r := callTool(t, srv, "save_note", map[string]any{"title": "a/b", "body": "x"})
	if !r.IsError {
		t.Error("expected error for title with slash")
	}
}

func TestListNotes(t *testing.T) {
	srv, _ := testServer(t, map[string]string{"b10": "x", "b2": "apple", "a": ""})

	r := callTool(t, srv, "list_notes", map[string]any{})
	if text := resultText(r); text != "a\nb2\nb10" {
		t.Errorf("list = %q", text)
	}

	r = callTool(t, srv, "list_notes", map[string]any{"query": "APPLE"})
	if text := resultText(r); text != "b2" {
		t.Errorf("filtered list = %q", text)
	}
}

func TestReadNoteMissing(t *testing.T) {
	srv, _ := testServer(t, nil)
	r := callTool(t, srv, "read_note", map[string]any{"title": "nope"})
	if !r.IsError {
		t.Error("expected error for missing note")
	}
}

func TestSearchNotes(t *testing.T) {
	srv, _ := testServer(t, map[string]string{"one": "Needle here", "two": "hay"})
	r := callTool(t, srv, "search_notes", map[string]any{"query": "needle"})
	var titles []string
	if err := json.Unmarshal([]byte(resultText(r)), &titles); err != nil {
		t.Fatal(err)
	}
	if len(titles) != 1 || titles[0] != "one" {
		t.Errorf("titles = %v", titles)
	}

	r = callTool(t, srv, "search_notes", map[string]any{"query": "zzz"})
	if resultText(r) != "[]" {
		t.Errorf("no hits = %q", resultText(r))
	}
}

func TestRenderNote(t *testing.T) {
	srv, svc := testServer(t, map[string]string{"doc": "# Head\n**bold** _u_\n![pic.png]\n![gone.png]"})
	testutil.WritePNG(t, filepath.Join(svc.Images().Dir(), "pic.png"), 600, 300)

	r := callTool(t, srv, "render_note", map[string]any{"title": "doc"})
	want := "[h1] Head\nbold u\n[image: pic.png 300x150]\n[Missing image: gone.png]"
	if text := resultText(r); text != want {
		t.Errorf("render = %q, want %q", text, want)
	}
}

func TestFindImageReferrers(t *testing.T) {
	srv, _ := testServer(t, map[string]string{
		"trip":  "day one\n![beach.png]",
		"album": "![beach.png]\n![dog.png]",
		"plain": "no pictures",
	})

	r := callTool(t, srv, "find_image_referrers", map[string]any{"filename": "beach.png"})
	if r.IsError {
		t.Fatalf("find failed: %s", resultText(r))
	}
	var titles []string
	if err := json.Unmarshal([]byte(resultText(r)), &titles); err != nil {
		t.Fatal(err)
	}
	if strings.Join(titles, ",") != "album,trip" {
		t.Errorf("titles = %v", titles)
	}

	r = callTool(t, srv, "find_image_referrers", map[string]any{"filename": "unused.png"})
	if r.IsError || resultText(r) != "[]" {
		t.Errorf("unused = %q", resultText(r))
	}

	r = callTool(t, srv, "find_image_referrers", map[string]any{"filename": "../x.png"})
	if !r.IsError {
		t.Error("path outside the image directory should be rejected")
	}
}

func pngDataURI(t *testing.T) string {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 2, 2))); err != nil {
		t.Fatal(err)
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes())
}

func TestImportImage(t *testing.T) {
	srv, svc := testServer(t, nil)

	r := callTool(t, srv, "import_image", map[string]any{"source": pngDataURI(t), "filename": "my shot.png"})
	if r.IsError {
		t.Fatalf("import failed: %s", resultText(r))
	}
	var res importResult
	if err := json.Unmarshal([]byte(resultText(r)), &res); err != nil {
		t.Fatal(err)
	}
	if res.Name != "my_shot.png" || res.Token != "![my_shot.png]" {
		t.Errorf("result = %+v", res)
	}
	if !svc.Images().Exists("my_shot.png") {
		t.Error("image not stored")
	}
}

func TestImportImage_Rejected(t *testing.T) {
	srv, _ := testServer(t, nil)

	r := callTool(t, srv, "import_image", map[string]any{"source": pngDataURI(t), "filename": "shot.gif"})
	if !r.IsError {
		t.Error("expected error for content that does not match the filename")
	}
	r = callTool(t, srv, "import_image", map[string]any{"source": "/does/not/exist.png"})
	if !r.IsError {
		t.Error("expected error for missing file")
	}
}

func TestGetNoteGrammar(t *testing.T) {
	srv, _ := testServer(t, nil)
	r := callTool(t, srv, "get_note_grammar", nil)
	text := resultText(r)
	for _, want := range []string{"**bold**", "![name.png]", "import_image"} {
		if !strings.Contains(text, want) {
			t.Errorf("grammar missing %q", want)
		}
	}

	contents, err := srv.readNoteGrammarResource(context.Background(), mcp.ReadResourceRequest{})
	if err != nil || len(contents) != 1 {
		t.Fatalf("resource = %v, %v", contents, err)
	}
	if tc, ok := contents[0].(mcp.TextResourceContents); !ok || tc.URI != grammarURI {
		t.Errorf("resource contents = %+v", contents[0])
	}
}
