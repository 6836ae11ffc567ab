package photo_store

import (
	"database/sql"
	"fmt"
)

// CreateRoll inserts the roll record and returns its id. Path may be empty:
// the import pipeline names the roll directory after the id and back-fills
// the path with SetRollPath.
func CreateRoll(db sqlExecutor, r NewRoll) (int64, error) {
	res, err := db.Exec(`
		INSERT INTO rolls (name, path, film_stock, camera, lens, shoot_date,
			lab_info, notes, city, country, lat, lon)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.Name, r.Path, r.FilmStock, r.Camera, r.Lens, r.ShootDate,
		r.LabInfo, r.Notes, r.City, r.Country, r.Lat, r.Lon)
	if err != nil {
		return 0, fmt.Errorf("failed to insert roll: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read roll id: %w", err)
	}
	return id, nil
}

func SetRollPath(db sqlExecutor, rollID int64, path string) error {
	res, err := db.Exec(`
		UPDATE rolls SET path = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		path, rollID)
	if err != nil {
		return fmt.Errorf("failed to set roll path: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("roll %d not found", rollID)
	}
	return nil
}

const rollColumns = `id, name, path, film_stock, camera, lens, shoot_date,
	lab_info, notes, city, country, lat, lon, created_at, updated_at`

func scanRoll(row interface{ Scan(...interface{}) error }) (Roll, error) {
	var r Roll
	err := row.Scan(&r.ID, &r.Name, &r.Path, &r.FilmStock, &r.Camera, &r.Lens,
		&r.ShootDate, &r.LabInfo, &r.Notes, &r.City, &r.Country,
		&r.Lat, &r.Lon, &r.CreatedAt, &r.UpdatedAt)
	return r, err
}

func GetRoll(db sqlExecutor, rollID int64) (Roll, error) {
	r, err := scanRoll(db.QueryRow(
		`SELECT `+rollColumns+` FROM rolls WHERE id = ?`, rollID))
	if err == sql.ErrNoRows {
		return Roll{}, fmt.Errorf("roll %d not found", rollID)
	}
	if err != nil {
		return Roll{}, fmt.Errorf("failed to query roll %d: %w", rollID, err)
	}
	return r, nil
}

// ListRolls returns all rolls, newest shoot date first.
func ListRolls(db *sql.DB) ([]Roll, error) {
	rows, err := db.Query(
		`SELECT ` + rollColumns + ` FROM rolls ORDER BY shoot_date DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query rolls: %w", err)
	}
	defer rows.Close()

	var rolls []Roll
	for rows.Next() {
		r, err := scanRoll(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan roll: %w", err)
		}
		rolls = append(rolls, r)
	}
	return rolls, rows.Err()
}

// UpdateRoll rewrites the editable metadata fields of a roll.
func UpdateRoll(db sqlExecutor, rollID int64, r NewRoll) error {
	res, err := db.Exec(`
		UPDATE rolls SET name = ?, film_stock = ?, camera = ?, lens = ?,
			shoot_date = ?, lab_info = ?, notes = ?, city = ?, country = ?,
			lat = ?, lon = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`,
		r.Name, r.FilmStock, r.Camera, r.Lens, r.ShootDate,
		r.LabInfo, r.Notes, r.City, r.Country, r.Lat, r.Lon, rollID)
	if err != nil {
		return fmt.Errorf("failed to update roll %d: %w", rollID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("roll %d not found", rollID)
	}
	return nil
}

func UpdateRollLocation(db sqlExecutor, rollID int64, city, country string, lat, lon sql.NullFloat64) error {
	res, err := db.Exec(`
		UPDATE rolls SET city = ?, country = ?, lat = ?, lon = ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`,
		city, country, lat, lon, rollID)
	if err != nil {
		return fmt.Errorf("failed to update roll %d location: %w", rollID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("roll %d not found", rollID)
	}
	return nil
}

// DeleteRoll removes the roll record. Photo rows go with it via the
// foreign key cascade; callers remove files on disk separately.
func DeleteRoll(db sqlExecutor, rollID int64) error {
	res, err := db.Exec(`DELETE FROM rolls WHERE id = ?`, rollID)
	if err != nil {
		return fmt.Errorf("failed to delete roll %d: %w", rollID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("roll %d not found", rollID)
	}
	return nil
}
