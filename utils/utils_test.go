package utils

import (
	"os"
	"path/filepath"
	"testing"
)

func writeTestFile(t *testing.T, path string, content []byte) {
	t.Helper()
	if err := os.WriteFile(path, content, 0644); err != nil {
		t.Fatalf("write test file %s: %v", path, err)
	}
}

func TestIsSupportedImageExtension(t *testing.T) {
	supported := []string{".jpg", ".JPG", ".jpeg", ".png", ".tif", ".tiff", ".webp", ".bmp"}
	for _, ext := range supported {
		if !IsSupportedImageExtension(ext) {
			t.Fatalf("expected %s to be supported", ext)
		}
	}
	unsupported := []string{".txt", ".gif", ".raw", ".cr2", ""}
	for _, ext := range unsupported {
		if IsSupportedImageExtension(ext) {
			t.Fatalf("expected %s to be rejected", ext)
		}
	}
}

func TestListImageFilesFiltersByExtension(t *testing.T) {
	dir := t.TempDir()
	writeTestFile(t, filepath.Join(dir, "frame01.jpg"), []byte("x"))
	writeTestFile(t, filepath.Join(dir, "frame02.PNG"), []byte("x"))
	writeTestFile(t, filepath.Join(dir, "notes.txt"), []byte("x"))
	writeTestFile(t, filepath.Join(dir, "scan.tiff"), []byte("x"))
	if err := os.Mkdir(filepath.Join(dir, "subdir.jpg"), 0755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	files, err := ListImageFiles(dir)
	if err != nil {
		t.Fatalf("list image files: %v", err)
	}
	if len(files) != 3 {
		t.Fatalf("expected 3 image files, got %d: %v", len(files), files)
	}
	for _, f := range files {
		base := filepath.Base(f)
		if base == "notes.txt" || base == "subdir.jpg" {
			t.Fatalf("unexpected entry in result: %s", base)
		}
	}
}

func TestListImageFilesMissingDir(t *testing.T) {
	if _, err := ListImageFiles(filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Fatalf("expected error for missing directory")
	}
}

func TestCopyFilePreservesSource(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.jpg")
	dst := filepath.Join(dir, "dst.jpg")
	writeTestFile(t, src, []byte("image bytes"))

	if err := CopyFile(src, dst); err != nil {
		t.Fatalf("copy file: %v", err)
	}

	got, err := os.ReadFile(dst)
	if err != nil {
		t.Fatalf("read copy: %v", err)
	}
	if string(got) != "image bytes" {
		t.Fatalf("unexpected copy content: %q", got)
	}
	if _, err := os.Stat(src); err != nil {
		t.Fatalf("source should survive copy: %v", err)
	}

	// No stray temp files left behind.
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected only src and dst, got %d entries", len(entries))
	}
}

func TestCopyFileMissingSource(t *testing.T) {
	dir := t.TempDir()
	if err := CopyFile(filepath.Join(dir, "missing.jpg"), filepath.Join(dir, "dst.jpg")); err == nil {
		t.Fatalf("expected error for missing source")
	}
}

func TestMoveFileRemovesSource(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.jpg")
	dst := filepath.Join(dir, "dst.jpg")
	writeTestFile(t, src, []byte("image bytes"))

	if err := MoveFile(src, dst); err != nil {
		t.Fatalf("move file: %v", err)
	}
	if _, err := os.Stat(src); !os.IsNotExist(err) {
		t.Fatalf("source should be gone after move, stat err=%v", err)
	}
	got, err := os.ReadFile(dst)
	if err != nil {
		t.Fatalf("read moved file: %v", err)
	}
	if string(got) != "image bytes" {
		t.Fatalf("unexpected moved content: %q", got)
	}
}

func TestEnsureDirectoryExists(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "a", "b", "c")
	if err := EnsureDirectoryExists(dir); err != nil {
		t.Fatalf("ensure new directory: %v", err)
	}
	if err := EnsureDirectoryExists(dir); err != nil {
		t.Fatalf("ensure existing directory: %v", err)
	}

	file := filepath.Join(t.TempDir(), "file")
	writeTestFile(t, file, []byte("x"))
	if err := EnsureDirectoryExists(file); err == nil {
		t.Fatalf("expected error when path is a file")
	}
}

func TestSanitizeFilename(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Summer in Lisbon", "Summer_in_Lisbon"},
		{`a/b\c:d*e?f"g<h>i|j`, "a_b_c_d_e_f_g_h_i_j"},
		{"clean-name_01", "clean-name_01"},
		{"", ""},
	}
	for _, c := range cases {
		got := SanitizeFilename(c.in)
		if got != c.want {
			t.Fatalf("SanitizeFilename(%q) = %q, want %q", c.in, got, c.want)
		}
		if len(got) != len(c.in) {
			t.Fatalf("SanitizeFilename(%q) changed length: %d -> %d", c.in, len(c.in), len(got))
		}
	}
}

func TestParseShootDate(t *testing.T) {
	got, err := ParseShootDate("2024-06-15")
	if err != nil {
		t.Fatalf("parse valid date: %v", err)
	}
	if got != "2024-06-15" {
		t.Fatalf("unexpected canonical date: %q", got)
	}

	got, err = ParseShootDate("  2024-06-15  ")
	if err != nil {
		t.Fatalf("parse padded date: %v", err)
	}
	if got != "2024-06-15" {
		t.Fatalf("unexpected canonical date from padded input: %q", got)
	}

	for _, bad := range []string{"", "15/06/2024", "2024-13-01", "2024-06-32", "yesterday"} {
		if _, err := ParseShootDate(bad); err == nil {
			t.Fatalf("expected error for %q", bad)
		}
	}
}
