package photo_store

import (
	"database/sql"
	"fmt"
)

const settingLibraryRoot = "library_root"

func GetSetting(db sqlExecutor, key string) (string, error) {
	var value string
	err := db.QueryRow(
		`SELECT value FROM settings WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to query setting %s: %w", key, err)
	}
	return value, nil
}

func SetSetting(db sqlExecutor, key, value string) error {
	_, err := db.Exec(`
		INSERT INTO settings (key, value, updated_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value,
			updated_at = CURRENT_TIMESTAMP`,
		key, value)
	if err != nil {
		return fmt.Errorf("failed to set setting %s: %w", key, err)
	}
	return nil
}

// LibraryRoot returns the stored library root, or fallback when none is set.
func LibraryRoot(db sqlExecutor, fallback string) (string, error) {
	root, err := GetSetting(db, settingLibraryRoot)
	if err != nil {
		return "", err
	}
	if root == "" {
		return fallback, nil
	}
	return root, nil
}

func SetLibraryRoot(db sqlExecutor, root string) error {
	return SetSetting(db, settingLibraryRoot, root)
}
