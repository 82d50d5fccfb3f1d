package upload

import (
	"bytes"
	"errors"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func fileHeader(t *testing.T, filename, content string) *multipart.FileHeader {
	t.Helper()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	fw, err := w.CreateFormFile("image", filename)
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := io.WriteString(fw, content); err != nil {
		t.Fatalf("write form file: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}

	form, err := multipart.NewReader(&buf, w.Boundary()).ReadForm(1 << 20)
	if err != nil {
		t.Fatalf("read form: %v", err)
	}
	return form.File["image"][0]
}

func TestSaveAndOpen(t *testing.T) {
	st, err := New(t.TempDir(), 1<<20)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}

	rel, err := st.Save("artworks", fileHeader(t, "sketch.PNG", "fake image bytes"))
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if !strings.HasPrefix(rel, "artworks/") || !strings.HasSuffix(rel, ".png") {
		t.Fatalf("rel path = %q", rel)
	}
	if filepath.Base(rel) == "sketch.png" {
		t.Fatal("original filename must not be reused")
	}

	f, err := st.Open(rel)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()
	data, _ := io.ReadAll(f)
	if string(data) != "fake image bytes" {
		t.Fatalf("content = %q", data)
	}
}

func TestSaveRejectsBadType(t *testing.T) {
	st, err := New(t.TempDir(), 1<<20)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	if _, err := st.Save("artworks", fileHeader(t, "malware.exe", "nope")); !errors.Is(err, ErrBadType) {
		t.Fatalf("save exe = %v, want ErrBadType", err)
	}
	if _, err := st.Save("artworks", fileHeader(t, "noext", "nope")); !errors.Is(err, ErrBadType) {
		t.Fatalf("save without extension = %v, want ErrBadType", err)
	}
}

func TestSaveEnforcesMaxBytes(t *testing.T) {
	st, err := New(t.TempDir(), 4)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	if _, err := st.Save("artworks", fileHeader(t, "big.png", "more than four bytes")); err == nil {
		t.Fatal("oversized upload accepted")
	}
}

func TestOpenRejectsTraversal(t *testing.T) {
	dir := t.TempDir()
	st, err := New(dir, 1<<20)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}

	secret := filepath.Join(filepath.Dir(dir), "secret.txt")
	_ = os.WriteFile(secret, []byte("hidden"), 0o600)

	if _, err := st.Open("../secret.txt"); err == nil {
		t.Fatal("traversal allowed")
	}
	if _, err := st.Open("/etc/hostname"); err == nil {
		t.Fatal("absolute path allowed")
	}
}

func TestRemove(t *testing.T) {
	st, err := New(t.TempDir(), 1<<20)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}

	rel, err := st.Save("artworks", fileHeader(t, "a.jpg", "x"))
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := st.Remove(rel); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if _, err := st.Open(rel); err == nil {
		t.Fatal("file still present after remove")
	}
	// removing again is not an error
	if err := st.Remove(rel); err != nil {
		t.Fatalf("second remove: %v", err)
	}
	if err := st.Remove(""); err != nil {
		t.Fatalf("empty remove: %v", err)
	}
}
