// Package utils holds the filesystem and validation helpers shared by the
// import and sync pipelines.
package utils

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Extensions accepted by the import scanner, lowercase.
var supportedImageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".tif":  true,
	".tiff": true,
	".webp": true,
	".bmp":  true,
}

func IsSupportedImageExtension(ext string) bool {
	return supportedImageExtensions[strings.ToLower(ext)]
}

// ListImageFiles returns the supported image files directly inside dir, in
// raw directory-enumeration order. File.ReadDir does not sort (unlike
// os.ReadDir); callers that need alphabetic order must sort the result
// themselves.
func ListImageFiles(dir string) ([]string, error) {
	f, err := os.Open(dir)
	if err != nil {
		return nil, fmt.Errorf("read source directory %s: %w", dir, err)
	}
	defer f.Close()

	entries, err := f.ReadDir(-1)
	if err != nil {
		return nil, fmt.Errorf("read source directory %s: %w", dir, err)
	}

	files := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if !IsSupportedImageExtension(filepath.Ext(entry.Name())) {
			continue
		}
		files = append(files, filepath.Join(dir, entry.Name()))
	}
	return files, nil
}

func EnsureDirectoryExists(dir string) error {
	info, err := os.Stat(dir)
	if os.IsNotExist(err) {
		return os.MkdirAll(dir, 0755)
	}
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("path %s exists but is not a directory", dir)
	}
	return nil
}

// CopyFile writes src's bytes to dst through a temp file in dst's directory,
// renaming into place only after a successful sync. dst never holds a
// partial copy.
func CopyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("open source %s: %w", src, err)
	}
	defer in.Close()

	tmpFile, err := os.CreateTemp(filepath.Dir(dst), ".copy_*")
	if err != nil {
		return fmt.Errorf("create temp file for %s: %w", dst, err)
	}
	tmpPath := tmpFile.Name()
	keepTemp := false
	tmpClosed := false
	defer func() {
		if !tmpClosed {
			_ = tmpFile.Close()
		}
		if !keepTemp {
			_ = os.Remove(tmpPath)
		}
	}()

	if _, err := io.Copy(tmpFile, in); err != nil {
		return fmt.Errorf("copy %s to %s: %w", src, dst, err)
	}
	if err := tmpFile.Sync(); err != nil {
		return fmt.Errorf("sync copy %s: %w", dst, err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("close copy %s: %w", dst, err)
	}
	tmpClosed = true
	keepTemp = true

	if err := os.Rename(tmpPath, dst); err != nil {
		keepTemp = false
		return fmt.Errorf("move copy into place %s: %w", dst, err)
	}
	return nil
}

// MoveFile renames src to dst, falling back to copy-then-delete when the
// rename fails (cross-device moves). The source is removed only after the
// copy has been fully written and renamed into place.
func MoveFile(src, dst string) error {
	if err := os.Rename(src, dst); err == nil {
		return nil
	}
	if err := CopyFile(src, dst); err != nil {
		return err
	}
	if err := os.Remove(src); err != nil {
		return fmt.Errorf("remove source after copy %s: %w", src, err)
	}
	return nil
}

// SanitizeFilename maps characters that are unsafe in directory or file
// names to underscores. The output has the same length as the input.
func SanitizeFilename(name string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', '/', '\\', ':', '*', '?', '"', '<', '>', '|':
			return '_'
		default:
			return r
		}
	}, name)
}

// ParseShootDate validates a shoot date and returns it in canonical
// YYYY-MM-DD form.
func ParseShootDate(dateStr string) (string, error) {
	parsed, err := time.Parse("2006-01-02", strings.TrimSpace(dateStr))
	if err != nil {
		return "", fmt.Errorf("invalid date format, use YYYY-MM-DD: %q", dateStr)
	}
	return parsed.Format("2006-01-02"), nil
}
