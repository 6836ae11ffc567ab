package roll_import

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"filmvault/exif_sync"
	"filmvault/image_processing"
	"filmvault/photo_store"
	"filmvault/utils"
)

// ImportRoll runs the full pipeline for one roll. The roll record is
// created before its directory so the directory can be named after the
// roll id; the path is back-filled once the directory exists. Individual
// file failures are recorded and skipped, they never abort the roll.
func ImportRoll(config ImportConfig) (ImportResult, error) {
	config, err := normalizeImportConfig(config)
	if err != nil {
		return ImportResult{}, err
	}

	result := ImportResult{
		ErrorsByCategory: make(map[string]int),
		FailedFiles:      make([]string, 0),
	}

	files, err := utils.ListImageFiles(config.SourceDir)
	if err != nil {
		return result, err
	}

	rollID, err := photo_store.CreateRoll(config.DB, config.Roll)
	if err != nil {
		return result, err
	}
	result.RollID = rollID

	rollDir, err := AllocateRollDir(config.LibraryRoot, rollID, config.Roll.ShootDate)
	if err != nil {
		rollbackRoll(config, rollID, "")
		return result, err
	}
	result.RollPath = rollDir

	if err := photo_store.SetRollPath(config.DB, rollID, rollDir); err != nil {
		rollbackRoll(config, rollID, rollDir)
		return result, err
	}

	if len(files) == 0 {
		rollbackRoll(config, rollID, rollDir)
		return result, fmt.Errorf("no supported images in %s", config.SourceDir)
	}
	result.Total = len(files)

	records := make([]photo_store.NewPhoto, 0, len(files))
	for i, srcPath := range files {
		reportProgress(config, ImportProgress{
			RollID:      rollID,
			CurrentFile: filepath.Base(srcPath),
			Current:     i + 1,
			Total:       result.Total,
			Imported:    result.Imported,
			Failed:      result.Failed,
		})

		newFilename := AllocateFilename(rollID, i+1, srcPath)
		paths, err := image_processing.ProcessImageWithCopy(srcPath, rollDir, newFilename, config.Move)
		result.Processed++
		if err != nil {
			category := categorizeError(err)
			result.Failed++
			result.FailedFiles = append(result.FailedFiles, srcPath)
			result.ErrorsByCategory[category]++
			config.Logger.Printf("import roll=%d file=%s status=error category=%s error=%v", rollID, srcPath, category, err)
			continue
		}

		result.Imported++
		records = append(records, photo_store.NewPhoto{
			RollID:        rollID,
			Filename:      newFilename,
			FilePath:      paths.OriginalPath,
			ThumbnailPath: paths.ThumbnailPath,
			PreviewPath:   paths.PreviewPath,
		})
		config.Logger.Printf("import roll=%d file=%s status=success target=%s", rollID, filepath.Base(srcPath), newFilename)
	}

	if len(records) > 0 {
		if _, err := photo_store.InsertPhotos(config.DB, config.Logger, records); err != nil {
			return result, err
		}
	}

	if config.Exif != nil && result.Imported > 0 {
		writeRollMetadata(config, rollID)
	}

	reportProgress(config, ImportProgress{
		RollID:   rollID,
		Current:  result.Processed,
		Total:    result.Total,
		Imported: result.Imported,
		Failed:   result.Failed,
		RollPath: rollDir,
	})

	if result.Imported == 0 {
		return result, fmt.Errorf("all %d files failed to import", result.Total)
	}
	return result, nil
}

// writeRollMetadata runs the roll-wide metadata sync over the photos that
// were just persisted, so the files carry the roll fields and the store's
// sync markers agree. Failures are logged, the import already succeeded.
func writeRollMetadata(config ImportConfig, rollID int64) {
	result, err := exif_sync.SyncRoll(config.DB, config.Exif, rollID, exif_sync.SyncOptions{
		Logger: config.Logger,
	})
	if err != nil {
		config.Logger.Printf("import roll=%d status=exif_skip error=%v", rollID, err)
		return
	}
	config.Logger.Printf("import roll=%d status=exif_done %s", rollID, result.Summary())
}

// rollbackRoll undoes the partially created roll: the record and, when it
// was already created, the directory.
func rollbackRoll(config ImportConfig, rollID int64, rollDir string) {
	if err := photo_store.DeleteRoll(config.DB, rollID); err != nil {
		config.Logger.Printf("import roll=%d status=rollback_error error=%v", rollID, err)
	}
	if rollDir != "" {
		if err := os.RemoveAll(rollDir); err != nil {
			config.Logger.Printf("import roll=%d status=rollback_error dir=%s error=%v", rollID, rollDir, err)
		}
	}
}

func normalizeImportConfig(config ImportConfig) (ImportConfig, error) {
	if config.DB == nil {
		return config, fmt.Errorf("database is nil")
	}

	config.SourceDir = strings.TrimSpace(config.SourceDir)
	if config.SourceDir == "" {
		return config, fmt.Errorf("source directory path is empty")
	}
	info, err := os.Stat(config.SourceDir)
	if err != nil {
		return config, fmt.Errorf("source directory not found: %w", err)
	}
	if !info.IsDir() {
		return config, fmt.Errorf("path is not a directory: %s", config.SourceDir)
	}

	config.LibraryRoot = strings.TrimSpace(config.LibraryRoot)
	if config.LibraryRoot == "" {
		return config, fmt.Errorf("library root path is empty")
	}
	if err := utils.EnsureDirectoryExists(config.LibraryRoot); err != nil {
		return config, err
	}

	if strings.TrimSpace(config.Roll.Name) == "" {
		return config, fmt.Errorf("roll name is empty")
	}
	shootDate, err := utils.ParseShootDate(config.Roll.ShootDate)
	if err != nil {
		return config, err
	}
	config.Roll.ShootDate = shootDate

	if config.Logger == nil {
		config.Logger = log.Default()
	}
	return config, nil
}

func reportProgress(config ImportConfig, progress ImportProgress) {
	if config.ProgressCallback != nil {
		config.ProgressCallback(progress)
	}
	if config.ProgressChan != nil {
		select {
		case config.ProgressChan <- progress:
		default:
		}
	}
}
