package exif_sync

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"
	"log"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"filmvault/photo_store"
)

// syncWorkerLimit bounds concurrent exiftool invocations. Each one is a
// full subprocess, so fanning out wider mostly thrashes.
const syncWorkerLimit = 4

// metadataTool is the subset of Tool that batch sync drives; tests swap in
// a fake so they never need an exiftool binary.
type metadataTool interface {
	WriteRollFields(filePath string, roll photo_store.Roll) error
	WritePhotoFields(filePath string, data ExifData) error
	Clear(filePath string) error
}

type FailedFile struct {
	Path string
	Err  error
}

type BatchResult struct {
	SuccessCount int
	FailedCount  int
	FailedFiles  []FailedFile
}

func (r BatchResult) Summary() string {
	return fmt.Sprintf("success=%d failed=%d", r.SuccessCount, r.FailedCount)
}

// SyncProgress reports batch advancement and the trailing-window
// throughput.
type SyncProgress struct {
	Completed    int
	Failed       int
	Total        int
	WindowEvents int
	Timestamp    time.Time
}

type SyncOptions struct {
	Progress chan<- SyncProgress
	Logger   *log.Logger
}

func (o SyncOptions) logger() *log.Logger {
	if o.Logger == nil {
		return log.Default()
	}
	return o.Logger
}

// fieldsHash fingerprints the metadata written to a file so later runs can
// tell whether the file is already current.
func fieldsHash(data ExifData) string {
	parts := []string{
		data.Make, data.Model, data.LensModel, data.DateTimeOriginal,
		data.UserComment, data.Description,
	}
	sum := sha256.Sum256([]byte(strings.Join(parts, "\x1f")))
	return hex.EncodeToString(sum[:])
}

// SyncRoll writes the roll's metadata into every photo file of the roll.
// Field derivation happens once; tool invocations fan out under the worker
// bound, and one photo failing never cancels the others.
func SyncRoll(db *sql.DB, tool metadataTool, rollID int64, opts SyncOptions) (BatchResult, error) {
	roll, err := photo_store.GetRoll(db, rollID)
	if err != nil {
		return BatchResult{}, err
	}
	photos, err := photo_store.PhotosByRoll(db, rollID)
	if err != nil {
		return BatchResult{}, err
	}
	if len(photos) == 0 {
		return BatchResult{}, nil
	}

	logger := opts.logger()
	hash := fieldsHash(RollFields(roll))
	comment := BuildComment(roll.FilmStock, roll.City, roll.Country, roll.Notes)
	window := NewSlidingWindow(defaultSlidingWindowSize, defaultSlidingWindowRange)

	type outcome struct {
		photo photo_store.Photo
		err   error
	}

	sem := make(chan struct{}, syncWorkerLimit)
	outcomes := make(chan outcome, len(photos))
	var wg sync.WaitGroup
	for _, photo := range photos {
		wg.Add(1)
		go func(p photo_store.Photo) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			outcomes <- outcome{photo: p, err: tool.WriteRollFields(p.FilePath, roll)}
		}(photo)
	}
	go func() {
		wg.Wait()
		close(outcomes)
	}()

	result := BatchResult{}
	for oc := range outcomes {
		if oc.err != nil {
			result.FailedCount++
			result.FailedFiles = append(result.FailedFiles, FailedFile{Path: oc.photo.FilePath, Err: oc.err})
			logger.Printf("sync roll=%d file=%s status=error error=%v", rollID, filepath.Base(oc.photo.FilePath), oc.err)
		} else {
			result.SuccessCount++
			window.Add(time.Now())
			if err := photo_store.MarkPhotoSynced(db, oc.photo.ID, hash, comment, roll.Name); err != nil {
				logger.Printf("sync roll=%d photo=%d status=mark_error error=%v", rollID, oc.photo.ID, err)
			}
			if oc.photo.ThumbnailPath != "" {
				if err := WriteEmbeddedComment(oc.photo.ThumbnailPath, comment); err != nil {
					logger.Printf("sync roll=%d photo=%d status=thumb_tag_error error=%v", rollID, oc.photo.ID, err)
				}
			}
		}
		reportSyncProgress(opts, SyncProgress{
			Completed:    result.SuccessCount,
			Failed:       result.FailedCount,
			Total:        len(photos),
			WindowEvents: window.Count(),
			Timestamp:    time.Now(),
		})
	}

	sort.Slice(result.FailedFiles, func(i, j int) bool {
		return result.FailedFiles[i].Path < result.FailedFiles[j].Path
	})
	return result, nil
}

// SyncPhoto writes metadata for one photo. The photo's own city/country
// pair overrides the roll's only when both are present; overrideComment,
// when set, replaces the derived comment.
func SyncPhoto(db *sql.DB, tool metadataTool, photoID int64, overrideComment string) error {
	photo, err := photo_store.GetPhoto(db, photoID)
	if err != nil {
		return err
	}
	roll, err := photo_store.GetRoll(db, photo.RollID)
	if err != nil {
		return err
	}

	city, country := roll.City, roll.Country
	if photo.City != "" && photo.Country != "" {
		city, country = photo.City, photo.Country
	}
	lat, lon := roll.Lat, roll.Lon
	if photo.Lat.Valid && photo.Lon.Valid {
		lat, lon = photo.Lat, photo.Lon
	}

	data := RollFields(roll)
	data.Lat, data.Lon = lat, lon
	data.UserComment = BuildComment(roll.FilmStock, city, country, roll.Notes)
	if strings.TrimSpace(overrideComment) != "" {
		data.UserComment = overrideComment
	}
	if photo.Rating > 0 {
		data.Rating = photo.Rating
	}

	if err := tool.WritePhotoFields(photo.FilePath, data); err != nil {
		return err
	}
	return photo_store.MarkPhotoSynced(db, photoID, fieldsHash(data), data.UserComment, data.Description)
}

// ClearRoll strips metadata from every photo file of the roll, same bound
// and aggregation as SyncRoll.
func ClearRoll(db *sql.DB, tool metadataTool, rollID int64, opts SyncOptions) (BatchResult, error) {
	photos, err := photo_store.PhotosByRoll(db, rollID)
	if err != nil {
		return BatchResult{}, err
	}
	if len(photos) == 0 {
		return BatchResult{}, nil
	}

	logger := opts.logger()

	type outcome struct {
		photo photo_store.Photo
		err   error
	}

	sem := make(chan struct{}, syncWorkerLimit)
	outcomes := make(chan outcome, len(photos))
	var wg sync.WaitGroup
	for _, photo := range photos {
		wg.Add(1)
		go func(p photo_store.Photo) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			outcomes <- outcome{photo: p, err: tool.Clear(p.FilePath)}
		}(photo)
	}
	go func() {
		wg.Wait()
		close(outcomes)
	}()

	result := BatchResult{}
	for oc := range outcomes {
		if oc.err != nil {
			result.FailedCount++
			result.FailedFiles = append(result.FailedFiles, FailedFile{Path: oc.photo.FilePath, Err: oc.err})
			logger.Printf("clear roll=%d file=%s status=error error=%v", rollID, filepath.Base(oc.photo.FilePath), oc.err)
			continue
		}
		result.SuccessCount++
		if err := photo_store.MarkPhotoUnsynced(db, oc.photo.ID); err != nil {
			logger.Printf("clear roll=%d photo=%d status=mark_error error=%v", rollID, oc.photo.ID, err)
		}
	}

	sort.Slice(result.FailedFiles, func(i, j int) bool {
		return result.FailedFiles[i].Path < result.FailedFiles[j].Path
	})
	return result, nil
}

// ClearPhoto strips metadata from one photo file.
func ClearPhoto(db *sql.DB, tool metadataTool, photoID int64) error {
	photo, err := photo_store.GetPhoto(db, photoID)
	if err != nil {
		return err
	}
	if err := tool.Clear(photo.FilePath); err != nil {
		return err
	}
	return photo_store.MarkPhotoUnsynced(db, photoID)
}

func reportSyncProgress(opts SyncOptions, progress SyncProgress) {
	if opts.Progress == nil {
		return
	}
	select {
	case opts.Progress <- progress:
	default:
	}
}
