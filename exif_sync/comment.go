// Package exif_sync writes library metadata into photo files through
// exiftool and reads it back, keeping the store's sync markers current.
package exif_sync

import (
	"strings"
)

const commentSeparator = " | "

const filmStockPrefix = "Shot on "

// BuildComment assembles the user comment from the roll metadata. Fragments
// are dropped when empty; city and country appear only when both are set.
func BuildComment(filmStock, city, country, freeText string) string {
	fragments := make([]string, 0, 3)

	filmStock = strings.TrimSpace(filmStock)
	if filmStock != "" {
		fragments = append(fragments, filmStockPrefix+filmStock)
	}

	city = strings.TrimSpace(city)
	country = strings.TrimSpace(country)
	if city != "" && country != "" {
		fragments = append(fragments, city+", "+country)
	}

	freeText = strings.TrimSpace(freeText)
	if freeText != "" {
		fragments = append(fragments, freeText)
	}

	return strings.Join(fragments, commentSeparator)
}

// ParseCameraString splits a camera description into make and model at the
// first whitespace run. A single token is all make; extra whitespace in the
// model collapses to single spaces.
func ParseCameraString(camera string) (string, string) {
	tokens := strings.Fields(camera)
	if len(tokens) == 0 {
		return "", ""
	}
	if len(tokens) == 1 {
		return tokens[0], ""
	}
	return tokens[0], strings.Join(tokens[1:], " ")
}

// FormatShootDateForEXIF turns a YYYY-MM-DD shoot date into the EXIF
// datetime form, pinned to noon since film frames carry no time of day.
func FormatShootDateForEXIF(shootDate string) string {
	shootDate = strings.TrimSpace(shootDate)
	if shootDate == "" {
		return ""
	}
	return strings.ReplaceAll(shootDate, "-", ":") + " 12:00:00"
}

// FilmStockFromComment recovers the film stock from a comment written by
// BuildComment, or "" when the comment has no film fragment.
func FilmStockFromComment(comment string) string {
	for _, fragment := range strings.Split(comment, commentSeparator) {
		if strings.HasPrefix(fragment, filmStockPrefix) {
			return strings.TrimSpace(strings.TrimPrefix(fragment, filmStockPrefix))
		}
	}
	return ""
}
