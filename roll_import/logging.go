package roll_import

import (
	"database/sql"
	"errors"
	"os"
	"strings"

	"filmvault/image_processing"
)

const (
	ErrorCategoryIO      = "io"
	ErrorCategoryDecode  = "decode"
	ErrorCategoryDB      = "db"
	ErrorCategoryUnknown = "unknown"
)

func categorizeError(err error) string {
	if err == nil {
		return ErrorCategoryUnknown
	}

	if image_processing.IsDecodeError(err) {
		return ErrorCategoryDecode
	}
	if errors.Is(err, sql.ErrNoRows) {
		return ErrorCategoryDB
	}

	var pathErr *os.PathError
	if errors.As(err, &pathErr) {
		return ErrorCategoryIO
	}

	errMsg := strings.ToLower(err.Error())
	if strings.Contains(errMsg, "decode") || strings.Contains(errMsg, "dimension") {
		return ErrorCategoryDecode
	}
	if strings.Contains(errMsg, "sqlite") || strings.Contains(errMsg, "database") || strings.Contains(errMsg, "constraint") || strings.Contains(errMsg, "transaction") {
		return ErrorCategoryDB
	}
	if strings.Contains(errMsg, "no such file") || strings.Contains(errMsg, "permission") || strings.Contains(errMsg, "input/output") {
		return ErrorCategoryIO
	}

	return ErrorCategoryUnknown
}
