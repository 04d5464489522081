package fileutil_test

import (
	"os"
	"path/filepath"
	"testing"

	"reelpress/internal/fileutil"
)

func TestWriteViaTemp(t *testing.T) {
	dir := t.TempDir()
	final := filepath.Join(dir, "nested", "frame.j2c")
	tmp := final + ".tmp"

	if err := fileutil.WriteViaTemp([]byte("payload"), tmp, final); err != nil {
		t.Fatalf("WriteViaTemp failed: %v", err)
	}
	data, err := os.ReadFile(final)
	if err != nil {
		t.Fatalf("read final: %v", err)
	}
	if string(data) != "payload" {
		t.Fatalf("unexpected content %q", data)
	}
	if _, err := os.Stat(tmp); !os.IsNotExist(err) {
		t.Fatal("temp file should be gone after rename")
	}
}

func TestCopyFile(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.bin")
	dst := filepath.Join(dir, "out", "dst.bin")
	if err := os.WriteFile(src, []byte("abc"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := fileutil.CopyFile(src, dst); err != nil {
		t.Fatalf("CopyFile failed: %v", err)
	}
	data, err := os.ReadFile(dst)
	if err != nil || string(data) != "abc" {
		t.Fatalf("unexpected copy result %q, %v", data, err)
	}
}

func TestTreeSize(t *testing.T) {
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "sub"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "a"), make([]byte, 100), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "sub", "b"), make([]byte, 50), 0o644); err != nil {
		t.Fatal(err)
	}

	size, err := fileutil.TreeSize(dir)
	if err != nil {
		t.Fatalf("TreeSize failed: %v", err)
	}
	if size != 150 {
		t.Fatalf("TreeSize = %d, want 150", size)
	}
}
