package exif_sync

import (
	"database/sql"
	"fmt"
	"os"

	exif "github.com/dsoprea/go-exif/v3"
	exifcommon "github.com/dsoprea/go-exif/v3/common"
	exifundefined "github.com/dsoprea/go-exif/v3/undefined"
	pis "github.com/dsoprea/go-png-image-structure/v2"

	"filmvault/photo_store"
)

// ReadEmbeddedComment extracts the user comment embedded in an image file
// without spawning a subprocess. Falls back to ImageDescription when no
// UserComment tag is present.
func ReadEmbeddedComment(filePath string) (string, error) {
	rawExif, err := exif.SearchFileAndExtractExif(filePath)
	if err != nil {
		return "", fmt.Errorf("extract exif from %s: %w", filePath, err)
	}

	im, err := exifcommon.NewIfdMappingWithStandard()
	if err != nil {
		return "", err
	}
	ti := exif.NewTagIndex()
	_, index, err := exif.Collect(im, ti, rawExif)
	if err != nil {
		return "", fmt.Errorf("collect exif from %s: %w", filePath, err)
	}

	for _, tagName := range []string{"UserComment", "ImageDescription"} {
		results, err := index.RootIfd.FindTagWithName(tagName)
		if err != nil || len(results) == 0 {
			continue
		}
		valueRaw, err := results[0].Value()
		if err != nil {
			continue
		}
		switch v := valueRaw.(type) {
		case string:
			return v, nil
		case exifundefined.Tag9286UserComment:
			return string(v.EncodingBytes), nil
		}
	}
	return "", fmt.Errorf("no comment tag in %s", filePath)
}

// WriteEmbeddedComment stamps a PNG artifact with an ImageDescription tag,
// so derived files stay attributable to their roll even when copied out of
// the library.
func WriteEmbeddedComment(pngPath, comment string) error {
	im, err := exifcommon.NewIfdMappingWithStandard()
	if err != nil {
		return err
	}
	ti := exif.NewTagIndex()
	ib := exif.NewIfdBuilder(im, ti, exifcommon.IfdStandardIfdIdentity, exifcommon.TestDefaultByteOrder)
	if err := ib.AddStandardWithName("ImageDescription", comment); err != nil {
		return fmt.Errorf("build exif for %s: %w", pngPath, err)
	}

	intfc, err := pis.NewPngMediaParser().ParseFile(pngPath)
	if err != nil {
		return fmt.Errorf("parse png %s: %w", pngPath, err)
	}
	cs := intfc.(*pis.ChunkSlice)
	if err := cs.SetExif(ib); err != nil {
		return fmt.Errorf("set exif on %s: %w", pngPath, err)
	}

	f, err := os.OpenFile(pngPath, os.O_RDWR|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf("open png %s: %w", pngPath, err)
	}
	defer f.Close()
	if err := cs.WriteTo(f); err != nil {
		return fmt.Errorf("write png %s: %w", pngPath, err)
	}
	return nil
}

// VerifyPhotoComment compares the comment embedded in the photo's file
// against the comment recorded at the last sync.
func VerifyPhotoComment(db *sql.DB, photoID int64) (bool, error) {
	photo, err := photo_store.GetPhoto(db, photoID)
	if err != nil {
		return false, err
	}
	if !photo.ExifSynced {
		return false, nil
	}
	embedded, err := ReadEmbeddedComment(photo.FilePath)
	if err != nil {
		return false, err
	}
	return embedded == photo.ExifUserComment, nil
}
