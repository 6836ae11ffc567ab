package roll_import

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// RollDirName formats a roll id as the 8-digit uppercase hex directory
// name used inside the year directory.
func RollDirName(rollID int64) string {
	return fmt.Sprintf("%08X", rollID)
}

// AllocateRollDir creates <root>/<year>/<roll dir> for the roll and returns
// its path. The year comes from the roll's shoot date. A pre-existing roll
// directory means ids were reused or the library was tampered with, so it
// is an error rather than something to silently merge into.
func AllocateRollDir(root string, rollID int64, shootDate string) (string, error) {
	parsed, err := time.Parse("2006-01-02", shootDate)
	if err != nil {
		return "", fmt.Errorf("invalid shoot date %q: %w", shootDate, err)
	}

	yearDir := filepath.Join(root, fmt.Sprintf("%04d", parsed.Year()))
	if err := os.MkdirAll(yearDir, 0755); err != nil {
		return "", fmt.Errorf("create year directory %s: %w", yearDir, err)
	}

	rollDir := filepath.Join(yearDir, RollDirName(rollID))
	if _, err := os.Stat(rollDir); err == nil {
		return "", fmt.Errorf("roll directory already exists: %s", rollDir)
	} else if !os.IsNotExist(err) {
		return "", fmt.Errorf("stat roll directory %s: %w", rollDir, err)
	}
	if err := os.Mkdir(rollDir, 0755); err != nil {
		return "", fmt.Errorf("create roll directory %s: %w", rollDir, err)
	}
	return rollDir, nil
}

// AllocateFilename builds the library filename for the seq-th frame of a
// roll, keeping the source extension in lower case.
func AllocateFilename(rollID int64, seq int, srcPath string) string {
	ext := strings.ToLower(filepath.Ext(srcPath))
	return fmt.Sprintf("ROLL_%08X_%03d%s", rollID, seq, ext)
}
