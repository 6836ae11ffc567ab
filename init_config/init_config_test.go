package init_config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestInitConstantConfigMissingFileUsesDefaults(t *testing.T) {
	c := InitConstantConfigFromToml(filepath.Join(t.TempDir(), "missing.toml"))

	if c.LibraryRoot != "./library" {
		t.Fatalf("unexpected default library root: %q", c.LibraryRoot)
	}
	if c.DatabasePath != "./film_vault.db" {
		t.Fatalf("unexpected default database path: %q", c.DatabasePath)
	}
	if c.ExiftoolBin != "exiftool" {
		t.Fatalf("unexpected default exiftool bin: %q", c.ExiftoolBin)
	}
	if c.TCPPort != 8391 {
		t.Fatalf("unexpected default tcp port: %d", c.TCPPort)
	}
}

func TestInitConstantConfigFromToml(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
LibraryRoot = "/mnt/photos"
TCPPort = 9000
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	c := InitConstantConfigFromToml(path)
	if c.LibraryRoot != "/mnt/photos" {
		t.Fatalf("unexpected library root: %q", c.LibraryRoot)
	}
	if c.TCPPort != 9000 {
		t.Fatalf("unexpected tcp port: %d", c.TCPPort)
	}

	// Unset keys fall back to their defaults.
	if c.DatabasePath != "./film_vault.db" {
		t.Fatalf("unexpected database path: %q", c.DatabasePath)
	}
	if c.LogPath != "./log.txt" {
		t.Fatalf("unexpected log path: %q", c.LogPath)
	}
	if c.ExiftoolBin != "exiftool" {
		t.Fatalf("unexpected exiftool bin: %q", c.ExiftoolBin)
	}
}

func TestInitConstantConfigBadToml(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("not [valid toml"), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	c := InitConstantConfigFromToml(path)
	if c.LibraryRoot != "./library" || c.TCPPort != 8391 {
		t.Fatalf("expected defaults on decode failure, got %+v", c)
	}
}
