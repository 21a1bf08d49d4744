package filesvc

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/unkn0wn-root/httpfile/internal/errdef"
	"github.com/unkn0wn-root/httpfile/internal/restfile"
)

func TestIsRequestFile(t *testing.T) {
	cases := map[string]bool{
		"api.http":      true,
		"API.HTTP":      true,
		"requests.rest": true,
		"notes.txt":     false,
		"script.js":     false,
	}
	for path, want := range cases {
		if got := IsRequestFile(path); got != want {
			t.Fatalf("IsRequestFile(%q) = %v, want %v", path, got, want)
		}
	}
}

func TestListRequestFilesSkipsHiddenDirs(t *testing.T) {
	root := t.TempDir()
	mustWrite(t, filepath.Join(root, "a.http"), "GET https://example.com\n")
	mustWrite(t, filepath.Join(root, "sub", "b.rest"), "GET https://example.com\n")
	mustWrite(t, filepath.Join(root, ".git", "c.http"), "GET https://example.com\n")
	mustWrite(t, filepath.Join(root, "notes.md"), "ignore me\n")

	entries, err := ListRequestFiles(root, true)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %+v", entries)
	}
	if entries[0].Name != "a.http" || entries[1].Name != filepath.Join("sub", "b.rest") {
		t.Fatalf("unexpected order %+v", entries)
	}
}

func TestListRequestFilesFlat(t *testing.T) {
	root := t.TempDir()
	mustWrite(t, filepath.Join(root, "a.http"), "GET https://example.com\n")
	mustWrite(t, filepath.Join(root, "sub", "b.http"), "GET https://example.com\n")

	entries, err := ListRequestFiles(root, false)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(entries) != 1 || entries[0].Name != "a.http" {
		t.Fatalf("flat listing must skip subdirectories, got %+v", entries)
	}
}

func TestLoadFile(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "a.http")
	mustWrite(t, path, "GET https://example.com\n")

	doc, err := LoadFile(path, nil)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if doc.Path != path {
		t.Fatalf("expected document path %q, got %q", path, doc.Path)
	}
	if len(doc.Requests) != 1 {
		t.Fatalf("expected 1 request, got %+v", doc)
	}
}

func TestLoadFileMissing(t *testing.T) {
	doc, err := LoadFile(filepath.Join(t.TempDir(), "missing.http"), nil)
	if err == nil {
		t.Fatalf("expected error for missing file")
	}
	if errdef.CodeOf(err) != errdef.CodeFilesystem {
		t.Fatalf("expected filesystem code, got %q", errdef.CodeOf(err))
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected wrapped not-exist cause, got %v", err)
	}
	if len(doc.Failures) != 1 || doc.Failures[0].Diags[0].Kind != restfile.DiagCouldNotReadRequestFile {
		t.Fatalf("expected read failure record, got %+v", doc)
	}
}

func mustWrite(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
}
