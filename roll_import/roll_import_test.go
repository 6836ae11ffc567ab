package roll_import

import (
	"database/sql"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"filmvault/exif_sync"
	"filmvault/photo_store"
)

func createImportTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := photo_store.OpenDatabase(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open sqlite db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := photo_store.EnsureSchema(db); err != nil {
		t.Fatalf("ensure schema: %v", err)
	}
	return db
}

func writeJPEGFixture(t *testing.T, path string) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 32, 24))
	for y := 0; y < 24; y++ {
		for x := 0; x < 32; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 8), G: uint8(y * 10), B: 64, A: 255})
		}
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create fixture %s: %v", path, err)
	}
	defer f.Close()
	if err := jpeg.Encode(f, img, &jpeg.Options{Quality: 85}); err != nil {
		t.Fatalf("encode fixture %s: %v", path, err)
	}
}

func newImportConfig(t *testing.T, db *sql.DB, sourceDir string) ImportConfig {
	t.Helper()
	return ImportConfig{
		DB:          db,
		SourceDir:   sourceDir,
		LibraryRoot: t.TempDir(),
		Roll: photo_store.NewRoll{
			Name:      "test roll",
			FilmStock: "Portra 400",
			ShootDate: "2024-06-15",
		},
	}
}

func TestRollDirName(t *testing.T) {
	if got := RollDirName(1); got != "00000001" {
		t.Fatalf("RollDirName(1) = %q", got)
	}
	if got := RollDirName(0x2A); got != "0000002A" {
		t.Fatalf("RollDirName(42) = %q", got)
	}
}

func TestAllocateFilename(t *testing.T) {
	got := AllocateFilename(42, 1, "/src/Scan 01.JPG")
	if got != "ROLL_0000002A_001.jpg" {
		t.Fatalf("unexpected filename: %q", got)
	}
	got = AllocateFilename(1, 37, "/src/frame.tiff")
	if got != "ROLL_00000001_037.tiff" {
		t.Fatalf("unexpected filename: %q", got)
	}
}

func TestAllocateRollDirRejectsExisting(t *testing.T) {
	root := t.TempDir()

	dir, err := AllocateRollDir(root, 7, "2024-06-15")
	if err != nil {
		t.Fatalf("allocate roll dir: %v", err)
	}
	want := filepath.Join(root, "2024", "00000007")
	if dir != want {
		t.Fatalf("unexpected roll dir: %q", dir)
	}
	if _, err := os.Stat(dir); err != nil {
		t.Fatalf("roll dir not created: %v", err)
	}

	if _, err := AllocateRollDir(root, 7, "2024-06-15"); err == nil {
		t.Fatalf("expected error for pre-existing roll directory")
	}
}

func TestImportRollEndToEnd(t *testing.T) {
	db := createImportTestDB(t)
	sourceDir := t.TempDir()
	for i := 1; i <= 3; i++ {
		writeJPEGFixture(t, filepath.Join(sourceDir, fmt.Sprintf("scan%02d.jpg", i)))
	}

	config := newImportConfig(t, db, sourceDir)
	var events []ImportProgress
	config.ProgressCallback = func(p ImportProgress) { events = append(events, p) }

	result, err := ImportRoll(config)
	if err != nil {
		t.Fatalf("import roll: %v", err)
	}
	if result.Total != 3 || result.Imported != 3 || result.Failed != 0 {
		t.Fatalf("unexpected result: %s", result.Summary())
	}

	photos, err := photo_store.PhotosByRoll(db, result.RollID)
	if err != nil {
		t.Fatalf("photos by roll: %v", err)
	}
	if len(photos) != 3 {
		t.Fatalf("expected 3 photo rows, got %d", len(photos))
	}
	for i, p := range photos {
		want := fmt.Sprintf("ROLL_%08X_%03d.jpg", result.RollID, i+1)
		if p.Filename != want {
			t.Fatalf("photo %d filename = %q, want %q", i, p.Filename, want)
		}
		for _, path := range []string{p.FilePath, p.ThumbnailPath, p.PreviewPath} {
			if _, err := os.Stat(path); err != nil {
				t.Fatalf("expected artifact at %s: %v", path, err)
			}
		}
	}

	roll, err := photo_store.GetRoll(db, result.RollID)
	if err != nil {
		t.Fatalf("get roll: %v", err)
	}
	if roll.Path != result.RollPath {
		t.Fatalf("roll path not backfilled: %q vs %q", roll.Path, result.RollPath)
	}

	// Copy mode leaves the sources in place.
	entries, err := os.ReadDir(sourceDir)
	if err != nil {
		t.Fatalf("read source dir: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("expected sources preserved, got %d entries", len(entries))
	}

	if len(events) != 4 {
		t.Fatalf("expected 4 progress events, got %d", len(events))
	}
	first := events[0]
	if first.CurrentFile == "" || first.Current != 1 || first.RollID != result.RollID {
		t.Fatalf("first event should announce file 1 of the roll before processing: %+v", first)
	}
	final := events[len(events)-1]
	if final.CurrentFile != "" || final.Current != 3 || final.Total != 3 {
		t.Fatalf("unexpected final event: %+v", final)
	}
	if final.RollID != result.RollID || final.RollPath != result.RollPath {
		t.Fatalf("final event should identify the roll: %+v", final)
	}
}

func TestImportRollSkipsCorruptFile(t *testing.T) {
	db := createImportTestDB(t)
	sourceDir := t.TempDir()
	writeJPEGFixture(t, filepath.Join(sourceDir, "good1.jpg"))
	if err := os.WriteFile(filepath.Join(sourceDir, "good1a.jpg"), []byte("not an image"), 0644); err != nil {
		t.Fatalf("write corrupt file: %v", err)
	}
	writeJPEGFixture(t, filepath.Join(sourceDir, "good2.jpg"))

	result, err := ImportRoll(newImportConfig(t, db, sourceDir))
	if err != nil {
		t.Fatalf("import roll: %v", err)
	}
	if result.Total != 3 || result.Imported != 2 || result.Failed != 1 {
		t.Fatalf("unexpected result: %s", result.Summary())
	}
	if len(result.FailedFiles) != 1 || filepath.Base(result.FailedFiles[0]) != "good1a.jpg" {
		t.Fatalf("unexpected failed files: %v", result.FailedFiles)
	}
	if result.ErrorsByCategory[ErrorCategoryDecode] != 1 {
		t.Fatalf("expected one decode error, got %v", result.ErrorsByCategory)
	}

	photos, err := photo_store.PhotosByRoll(db, result.RollID)
	if err != nil {
		t.Fatalf("photos by roll: %v", err)
	}
	if len(photos) != 2 {
		t.Fatalf("expected 2 photo rows, got %d", len(photos))
	}
}

func TestImportRollRollsBackWhenEmpty(t *testing.T) {
	db := createImportTestDB(t)
	sourceDir := t.TempDir()
	if err := os.WriteFile(filepath.Join(sourceDir, "notes.txt"), []byte("x"), 0644); err != nil {
		t.Fatalf("write non-image file: %v", err)
	}

	config := newImportConfig(t, db, sourceDir)
	result, err := ImportRoll(config)
	if err == nil {
		t.Fatalf("expected error for empty source")
	}

	rolls, listErr := photo_store.ListRolls(db)
	if listErr != nil {
		t.Fatalf("list rolls: %v", listErr)
	}
	if len(rolls) != 0 {
		t.Fatalf("expected roll row rolled back, found %d rolls", len(rolls))
	}
	if result.RollPath != "" {
		if _, statErr := os.Stat(result.RollPath); !os.IsNotExist(statErr) {
			t.Fatalf("expected roll directory removed, stat err=%v", statErr)
		}
	}
}

func TestImportRollFailsWhenNothingImports(t *testing.T) {
	db := createImportTestDB(t)
	sourceDir := t.TempDir()
	if err := os.WriteFile(filepath.Join(sourceDir, "bad1.jpg"), []byte("x"), 0644); err != nil {
		t.Fatalf("write corrupt file: %v", err)
	}
	if err := os.WriteFile(filepath.Join(sourceDir, "bad2.jpg"), []byte("y"), 0644); err != nil {
		t.Fatalf("write corrupt file: %v", err)
	}

	result, err := ImportRoll(newImportConfig(t, db, sourceDir))
	if err == nil {
		t.Fatalf("expected error when every file fails")
	}
	if result.Total != 2 || result.Imported != 0 || result.Failed != 2 {
		t.Fatalf("unexpected result: %s", result.Summary())
	}
}

func TestImportRollMissingSourceDir(t *testing.T) {
	db := createImportTestDB(t)
	config := newImportConfig(t, db, filepath.Join(t.TempDir(), "missing"))
	if _, err := ImportRoll(config); err == nil {
		t.Fatalf("expected error for missing source directory")
	}
}

func TestImportRollRejectsBadDate(t *testing.T) {
	db := createImportTestDB(t)
	sourceDir := t.TempDir()
	writeJPEGFixture(t, filepath.Join(sourceDir, "scan.jpg"))

	config := newImportConfig(t, db, sourceDir)
	config.Roll.ShootDate = "15/06/2024"
	if _, err := ImportRoll(config); err == nil {
		t.Fatalf("expected error for invalid shoot date")
	}
}

type recordingMetadataWriter struct {
	mu    sync.Mutex
	paths []string
	roll  photo_store.Roll
}

func (r *recordingMetadataWriter) WriteRollFields(filePath string, roll photo_store.Roll) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.paths = append(r.paths, filePath)
	r.roll = roll
	return nil
}

func (r *recordingMetadataWriter) WritePhotoFields(filePath string, data exif_sync.ExifData) error {
	return nil
}

func (r *recordingMetadataWriter) Clear(filePath string) error { return nil }

func TestImportRollWritesMetadata(t *testing.T) {
	db := createImportTestDB(t)
	sourceDir := t.TempDir()
	writeJPEGFixture(t, filepath.Join(sourceDir, "scan1.jpg"))
	writeJPEGFixture(t, filepath.Join(sourceDir, "scan2.jpg"))

	writer := &recordingMetadataWriter{}
	config := newImportConfig(t, db, sourceDir)
	config.Exif = writer

	result, err := ImportRoll(config)
	if err != nil {
		t.Fatalf("import roll: %v", err)
	}
	if len(writer.paths) != 2 {
		t.Fatalf("expected metadata written to 2 originals, got %d", len(writer.paths))
	}
	for _, p := range writer.paths {
		if filepath.Dir(p) != filepath.Join(result.RollPath, "originals") {
			t.Fatalf("metadata target outside originals dir: %s", p)
		}
	}
	if writer.roll.FilmStock != "Portra 400" {
		t.Fatalf("expected roll fields passed through, got %+v", writer.roll)
	}

	// Auto-write runs the roll-wide sync, so the store markers must agree
	// with the files.
	photos, err := photo_store.PhotosByRoll(db, result.RollID)
	if err != nil {
		t.Fatalf("photos by roll: %v", err)
	}
	for _, p := range photos {
		if !p.ExifSynced || p.ExifDataHash == "" {
			t.Fatalf("photo %d not marked synced after auto-write: %+v", p.ID, p)
		}
		if p.ExifUserComment != "Shot on Portra 400" {
			t.Fatalf("photo %d comment = %q", p.ID, p.ExifUserComment)
		}
	}
}

func TestCategorizeError(t *testing.T) {
	if got := categorizeError(fmt.Errorf("database is locked")); got != ErrorCategoryDB {
		t.Fatalf("expected db category, got %s", got)
	}
	if got := categorizeError(&os.PathError{Op: "open", Path: "/x", Err: os.ErrNotExist}); got != ErrorCategoryIO {
		t.Fatalf("expected io category, got %s", got)
	}
	if got := categorizeError(fmt.Errorf("something odd")); got != ErrorCategoryUnknown {
		t.Fatalf("expected unknown category, got %s", got)
	}
}
