// Package roll_import runs the import pipeline that turns a directory of
// scanned frames into a library roll: roll record, roll directory, renamed
// originals, thumbnails and previews, and photo records.
package roll_import

import (
	"database/sql"
	"fmt"
	"log"

	"filmvault/exif_sync"
	"filmvault/photo_store"
)

// MetadataWriter is the metadata tool surface the import pipeline hands to
// the roll-wide sync after persisting. Satisfied by exif_sync.Tool.
type MetadataWriter interface {
	WriteRollFields(filePath string, roll photo_store.Roll) error
	WritePhotoFields(filePath string, data exif_sync.ExifData) error
	Clear(filePath string) error
}

type ImportConfig struct {
	DB               *sql.DB
	SourceDir        string
	LibraryRoot      string
	Roll             photo_store.NewRoll
	Move             bool
	Exif             MetadataWriter
	ProgressChan     chan<- ImportProgress
	ProgressCallback func(ImportProgress)
	Logger           *log.Logger
}

// ImportProgress is emitted before each file is processed, so a consumer
// always sees what the pipeline is about to work on. Current is the
// 1-based index of that file. The terminal event has no CurrentFile and
// carries the roll path.
type ImportProgress struct {
	RollID      int64
	CurrentFile string
	Current     int
	Total       int
	Imported    int
	Failed      int
	RollPath    string
}

type ImportResult struct {
	RollID           int64
	RollPath         string
	Total            int
	Processed        int
	Imported         int
	Failed           int
	FailedFiles      []string
	ErrorsByCategory map[string]int
}

func (r ImportResult) Summary() string {
	return fmt.Sprintf(
		"roll=%d processed=%d/%d imported=%d failed=%d",
		r.RollID,
		r.Processed,
		r.Total,
		r.Imported,
		r.Failed,
	)
}
