package exif_sync

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"filmvault/photo_store"
)

// ExifData is the field set this system reads and writes. Zero values mean
// the field is absent.
type ExifData struct {
	Make             string
	Model            string
	LensModel        string
	DateTimeOriginal string
	FilmStock        string
	ISO              int
	Aperture         string
	ShutterSpeed     string
	FocalLength      string
	Lat              sql.NullFloat64
	Lon              sql.NullFloat64
	Alt              sql.NullFloat64
	Rating           int
	UserComment      string
	Description      string
}

// Tool shells out to exiftool. The binary name is configurable so tests and
// non-PATH installs can point elsewhere.
type Tool struct {
	Bin string
}

func NewTool(bin string) *Tool {
	if strings.TrimSpace(bin) == "" {
		bin = "exiftool"
	}
	return &Tool{Bin: bin}
}

// Available probes the binary with -ver.
func (t *Tool) Available() error {
	out, err := exec.Command(t.Bin, "-ver").Output()
	if err != nil {
		return fmt.Errorf("exiftool not available (%s): %w", t.Bin, err)
	}
	if strings.TrimSpace(string(out)) == "" {
		return fmt.Errorf("exiftool not available (%s): empty version", t.Bin)
	}
	return nil
}

func (t *Tool) run(args []string) error {
	cmd := exec.Command(t.Bin, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg != "" {
			return fmt.Errorf("exiftool failed: %s: %w", msg, err)
		}
		return fmt.Errorf("exiftool failed: %w", err)
	}
	return nil
}

func checkFileExists(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("file not found: %s: %w", path, err)
	}
	if info.IsDir() {
		return fmt.Errorf("path is a directory: %s", path)
	}
	return nil
}

// appendField adds a -Tag=value argument only when value is non-empty, so
// blank metadata never clobbers existing tags.
func appendField(args []string, tag, value string) []string {
	if strings.TrimSpace(value) == "" {
		return args
	}
	return append(args, "-"+tag+"="+value)
}

func appendGPS(args []string, lat, lon, alt sql.NullFloat64) []string {
	if lat.Valid && lon.Valid {
		latRef, lonRef := "N", "E"
		if lat.Float64 < 0 {
			latRef = "S"
		}
		if lon.Float64 < 0 {
			lonRef = "W"
		}
		args = append(args,
			fmt.Sprintf("-GPSLatitude=%f", lat.Float64),
			"-GPSLatitudeRef="+latRef,
			fmt.Sprintf("-GPSLongitude=%f", lon.Float64),
			"-GPSLongitudeRef="+lonRef,
		)
	}
	if alt.Valid {
		args = append(args, fmt.Sprintf("-GPSAltitude=%f", alt.Float64))
	}
	return args
}

// RollFields derives the writable field set from a roll record.
func RollFields(roll photo_store.Roll) ExifData {
	cameraMake, cameraModel := ParseCameraString(roll.Camera)
	return ExifData{
		Make:             cameraMake,
		Model:            cameraModel,
		LensModel:        roll.Lens,
		DateTimeOriginal: FormatShootDateForEXIF(roll.ShootDate),
		FilmStock:        roll.FilmStock,
		Lat:              roll.Lat,
		Lon:              roll.Lon,
		UserComment:      BuildComment(roll.FilmStock, roll.City, roll.Country, roll.Notes),
		Description:      roll.Name,
	}
}

// WriteRollFields writes the roll's derived metadata into one file.
// MakerNotes are stripped first: scanners leave digital-camera maker notes
// behind that contradict the film metadata.
func (t *Tool) WriteRollFields(filePath string, roll photo_store.Roll) error {
	return t.writeFields(filePath, RollFields(roll), roll.City, roll.Country)
}

// WritePhotoFields writes a photo-level field set, same discipline as
// WriteRollFields.
func (t *Tool) WritePhotoFields(filePath string, data ExifData) error {
	return t.writeFields(filePath, data, "", "")
}

func (t *Tool) writeFields(filePath string, data ExifData, city, country string) error {
	if err := checkFileExists(filePath); err != nil {
		return err
	}

	args := []string{"-overwrite_original", "-MakerNotes:All="}
	args = appendField(args, "Make", data.Make)
	args = appendField(args, "Model", data.Model)
	args = appendField(args, "LensModel", data.LensModel)
	args = appendField(args, "DateTimeOriginal", data.DateTimeOriginal)
	args = appendField(args, "CreateDate", data.DateTimeOriginal)
	if data.ISO > 0 {
		args = append(args, "-ISO="+strconv.Itoa(data.ISO))
	}
	args = appendField(args, "FNumber", strings.TrimPrefix(data.Aperture, "f/"))
	args = appendField(args, "ExposureTime", data.ShutterSpeed)
	args = appendField(args, "FocalLength", data.FocalLength)
	args = appendGPS(args, data.Lat, data.Lon, data.Alt)
	if data.Rating > 0 {
		args = append(args, "-Rating="+strconv.Itoa(data.Rating))
	}
	args = appendField(args, "UserComment", data.UserComment)
	args = appendField(args, "ImageDescription", data.Description)
	args = appendField(args, "City", city)
	args = appendField(args, "Country", country)
	args = append(args, filePath)

	return t.run(args)
}

// Clear strips all metadata from the file.
func (t *Tool) Clear(filePath string) error {
	if err := checkFileExists(filePath); err != nil {
		return err
	}
	return t.run([]string{"-overwrite_original", "-all=", filePath})
}

// Read extracts the tracked field set from one file.
func (t *Tool) Read(filePath string) (ExifData, error) {
	if err := checkFileExists(filePath); err != nil {
		return ExifData{}, err
	}

	cmd := exec.Command(t.Bin, "-j", "-coordFormat", "%f", filePath)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg != "" {
			return ExifData{}, fmt.Errorf("exiftool read failed: %s: %w", msg, err)
		}
		return ExifData{}, fmt.Errorf("exiftool read failed: %w", err)
	}

	var entries []map[string]interface{}
	if err := json.Unmarshal(out, &entries); err != nil {
		return ExifData{}, fmt.Errorf("parse exiftool output: %w", err)
	}
	if len(entries) == 0 {
		return ExifData{}, fmt.Errorf("exiftool returned no entries for %s", filePath)
	}
	return parseExifEntry(entries[0]), nil
}

func parseExifEntry(entry map[string]interface{}) ExifData {
	data := ExifData{
		Make:             entryString(entry, "Make"),
		Model:            entryString(entry, "Model"),
		LensModel:        entryString(entry, "LensModel"),
		DateTimeOriginal: entryString(entry, "DateTimeOriginal"),
		ShutterSpeed:     entryString(entry, "ExposureTime"),
		FocalLength:      entryString(entry, "FocalLength"),
		UserComment:      entryString(entry, "UserComment"),
		Description:      entryString(entry, "ImageDescription"),
	}
	if data.LensModel == "" {
		data.LensModel = entryString(entry, "Lens")
	}
	if data.DateTimeOriginal == "" {
		data.DateTimeOriginal = entryString(entry, "CreateDate")
	}
	data.FilmStock = FilmStockFromComment(data.UserComment)

	data.ISO = entryInt(entry, "ISO")
	data.Rating = entryInt(entry, "Rating")

	if f, ok := entryFloat(entry, "FNumber"); ok {
		data.Aperture = fmt.Sprintf("f/%.1f", f)
	}
	if f, ok := entryFloat(entry, "GPSLatitude"); ok {
		data.Lat = sql.NullFloat64{Float64: f, Valid: true}
	}
	if f, ok := entryFloat(entry, "GPSLongitude"); ok {
		data.Lon = sql.NullFloat64{Float64: f, Valid: true}
	}
	if f, ok := entryFloat(entry, "GPSAltitude"); ok {
		data.Alt = sql.NullFloat64{Float64: f, Valid: true}
	}
	return data
}

func entryString(entry map[string]interface{}, key string) string {
	switch v := entry[key].(type) {
	case string:
		return strings.TrimSpace(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return ""
	}
}

func entryInt(entry map[string]interface{}, key string) int {
	switch v := entry[key].(type) {
	case float64:
		return int(v)
	case string:
		n, _ := strconv.Atoi(strings.TrimSpace(v))
		return n
	default:
		return 0
	}
}

func entryFloat(entry map[string]interface{}, key string) (float64, bool) {
	switch v := entry[key].(type) {
	case float64:
		return v, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}
