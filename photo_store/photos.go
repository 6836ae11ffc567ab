package photo_store

import (
	"database/sql"
	"fmt"
	"log"
)

const photoColumns = `id, roll_id, filename, file_path, thumbnail_path,
	preview_path, rating, is_cover, is_favorite, lat, lon, city, country,
	exif_synced, exif_written_at, exif_data_hash, exif_user_comment,
	exif_description, created_at`

func scanPhoto(row interface{ Scan(...interface{}) error }) (Photo, error) {
	var p Photo
	err := row.Scan(&p.ID, &p.RollID, &p.Filename, &p.FilePath,
		&p.ThumbnailPath, &p.PreviewPath, &p.Rating, &p.IsCover, &p.IsFavorite,
		&p.Lat, &p.Lon, &p.City, &p.Country,
		&p.ExifSynced, &p.ExifWrittenAt, &p.ExifDataHash,
		&p.ExifUserComment, &p.ExifDescription, &p.CreatedAt)
	return p, err
}

func insertPhoto(db sqlExecutor, p NewPhoto) (int64, error) {
	res, err := db.Exec(`
		INSERT INTO photos (roll_id, filename, file_path, thumbnail_path, preview_path)
		VALUES (?, ?, ?, ?, ?)`,
		p.RollID, p.Filename, p.FilePath, p.ThumbnailPath, p.PreviewPath)
	if err != nil {
		return 0, fmt.Errorf("failed to insert photo %s: %w", p.Filename, err)
	}
	return res.LastInsertId()
}

// InsertPhotos persists a batch in a single transaction. If the transaction
// fails the records are retried one by one so a single bad row does not
// lose the batch; failures are logged and skipped.
func InsertPhotos(db *sql.DB, logger *log.Logger, photos []NewPhoto) ([]int64, error) {
	if len(photos) == 0 {
		return nil, nil
	}

	tx, err := db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}

	ids := make([]int64, 0, len(photos))
	txOK := true
	for _, p := range photos {
		id, err := insertPhoto(tx, p)
		if err != nil {
			txOK = false
			break
		}
		ids = append(ids, id)
	}

	if txOK {
		if err := tx.Commit(); err == nil {
			return ids, nil
		} else if logger != nil {
			logger.Printf("event=photo_batch_commit_failed count=%d error=%v", len(photos), err)
		}
	}
	tx.Rollback()

	// Fallback: individual inserts, skipping the rows that fail.
	ids = ids[:0]
	failed := 0
	for _, p := range photos {
		id, err := insertPhoto(db, p)
		if err != nil {
			failed++
			if logger != nil {
				logger.Printf("event=photo_insert_failed filename=%s error=%v", p.Filename, err)
			}
			continue
		}
		ids = append(ids, id)
	}
	if failed == len(photos) {
		return nil, fmt.Errorf("all %d photo inserts failed", failed)
	}
	return ids, nil
}

func GetPhoto(db sqlExecutor, photoID int64) (Photo, error) {
	p, err := scanPhoto(db.QueryRow(
		`SELECT `+photoColumns+` FROM photos WHERE id = ?`, photoID))
	if err == sql.ErrNoRows {
		return Photo{}, fmt.Errorf("photo %d not found", photoID)
	}
	if err != nil {
		return Photo{}, fmt.Errorf("failed to query photo %d: %w", photoID, err)
	}
	return p, nil
}

// PhotosByRoll returns the roll's photos ordered by filename, which matches
// the sequence numbers assigned at import.
func PhotosByRoll(db *sql.DB, rollID int64) ([]Photo, error) {
	return queryPhotos(db,
		`SELECT `+photoColumns+` FROM photos WHERE roll_id = ? ORDER BY filename ASC`,
		rollID)
}

func FavoritesByRoll(db *sql.DB, rollID int64) ([]Photo, error) {
	return queryPhotos(db,
		`SELECT `+photoColumns+` FROM photos WHERE roll_id = ? AND is_favorite = 1 ORDER BY filename ASC`,
		rollID)
}

func queryPhotos(db *sql.DB, query string, args ...interface{}) ([]Photo, error) {
	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query photos: %w", err)
	}
	defer rows.Close()

	var photos []Photo
	for rows.Next() {
		p, err := scanPhoto(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan photo: %w", err)
		}
		photos = append(photos, p)
	}
	return photos, rows.Err()
}

func DeletePhoto(db sqlExecutor, photoID int64) error {
	res, err := db.Exec(`DELETE FROM photos WHERE id = ?`, photoID)
	if err != nil {
		return fmt.Errorf("failed to delete photo %d: %w", photoID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("photo %d not found", photoID)
	}
	return nil
}

// DeletePhotos removes a set of photos in one transaction and reports how
// many rows went away.
func DeletePhotos(db *sql.DB, photoIDs []int64) (int64, error) {
	if len(photoIDs) == 0 {
		return 0, nil
	}

	tx, err := db.Begin()
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var deleted int64
	for _, id := range photoIDs {
		res, err := tx.Exec(`DELETE FROM photos WHERE id = ?`, id)
		if err != nil {
			return 0, fmt.Errorf("failed to delete photo %d: %w", id, err)
		}
		n, _ := res.RowsAffected()
		deleted += n
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit photo deletes: %w", err)
	}
	return deleted, nil
}

// SetCover marks one photo as the roll cover. The clear and the set run in
// one transaction so at most one cover exists per roll at any time.
func SetCover(db *sql.DB, rollID, photoID int64) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(
		`UPDATE photos SET is_cover = 0 WHERE roll_id = ?`, rollID); err != nil {
		return fmt.Errorf("failed to clear cover for roll %d: %w", rollID, err)
	}
	res, err := tx.Exec(
		`UPDATE photos SET is_cover = 1 WHERE id = ? AND roll_id = ?`,
		photoID, rollID)
	if err != nil {
		return fmt.Errorf("failed to set cover photo %d: %w", photoID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("photo %d not found in roll %d", photoID, rollID)
	}
	return tx.Commit()
}

func UpdateRating(db sqlExecutor, photoID int64, rating int) error {
	if rating < 0 || rating > 5 {
		return fmt.Errorf("rating %d out of range 0-5", rating)
	}
	res, err := db.Exec(
		`UPDATE photos SET rating = ? WHERE id = ?`, rating, photoID)
	if err != nil {
		return fmt.Errorf("failed to update rating for photo %d: %w", photoID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("photo %d not found", photoID)
	}
	return nil
}

func SetFavorite(db sqlExecutor, photoID int64, favorite bool) error {
	res, err := db.Exec(
		`UPDATE photos SET is_favorite = ? WHERE id = ?`, favorite, photoID)
	if err != nil {
		return fmt.Errorf("failed to update favorite for photo %d: %w", photoID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("photo %d not found", photoID)
	}
	return nil
}

// ToggleFavorite flips the flag and returns the new state.
func ToggleFavorite(db sqlExecutor, photoID int64) (bool, error) {
	res, err := db.Exec(
		`UPDATE photos SET is_favorite = NOT is_favorite WHERE id = ?`, photoID)
	if err != nil {
		return false, fmt.Errorf("failed to toggle favorite for photo %d: %w", photoID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return false, fmt.Errorf("photo %d not found", photoID)
	}
	var favorite bool
	err = db.QueryRow(
		`SELECT is_favorite FROM photos WHERE id = ?`, photoID).Scan(&favorite)
	if err != nil {
		return false, fmt.Errorf("failed to read favorite for photo %d: %w", photoID, err)
	}
	return favorite, nil
}

// UpdatePhotoLocation sets a per-photo location override. City and country
// travel as a pair; coordinates are optional.
func UpdatePhotoLocation(db sqlExecutor, photoID int64, city, country string, lat, lon sql.NullFloat64) error {
	res, err := db.Exec(`
		UPDATE photos SET city = ?, country = ?, lat = ?, lon = ? WHERE id = ?`,
		city, country, lat, lon, photoID)
	if err != nil {
		return fmt.Errorf("failed to update location for photo %d: %w", photoID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("photo %d not found", photoID)
	}
	return nil
}

// ApplyRollLocationToPhotos copies the roll's location onto every photo of
// the roll that has no override of its own.
func ApplyRollLocationToPhotos(db sqlExecutor, rollID int64) (int64, error) {
	res, err := db.Exec(`
		UPDATE photos SET
			city = (SELECT city FROM rolls WHERE id = photos.roll_id),
			country = (SELECT country FROM rolls WHERE id = photos.roll_id),
			lat = (SELECT lat FROM rolls WHERE id = photos.roll_id),
			lon = (SELECT lon FROM rolls WHERE id = photos.roll_id)
		WHERE roll_id = ? AND city = '' AND country = ''`, rollID)
	if err != nil {
		return 0, fmt.Errorf("failed to apply roll %d location: %w", rollID, err)
	}
	return res.RowsAffected()
}

// MarkPhotoSynced records a successful metadata write: the timestamp, the
// hash of the written field set, and what was written.
func MarkPhotoSynced(db sqlExecutor, photoID int64, dataHash, userComment, description string) error {
	res, err := db.Exec(`
		UPDATE photos SET exif_synced = 1,
			exif_written_at = CURRENT_TIMESTAMP,
			exif_data_hash = ?,
			exif_user_comment = ?,
			exif_description = ?
		WHERE id = ?`,
		dataHash, userComment, description, photoID)
	if err != nil {
		return fmt.Errorf("failed to mark photo %d synced: %w", photoID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("photo %d not found", photoID)
	}
	return nil
}

// MarkPhotoUnsynced clears the sync markers, used after Clear.
func MarkPhotoUnsynced(db sqlExecutor, photoID int64) error {
	res, err := db.Exec(`
		UPDATE photos SET exif_synced = 0, exif_written_at = '',
			exif_data_hash = '', exif_user_comment = '', exif_description = ''
		WHERE id = ?`, photoID)
	if err != nil {
		return fmt.Errorf("failed to mark photo %d unsynced: %w", photoID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("photo %d not found", photoID)
	}
	return nil
}
