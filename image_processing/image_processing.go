// Package image_processing generates the derived assets for imported
// photos: a fixed-width thumbnail and a screen-size preview.
package image_processing

import (
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	"github.com/nfnt/resize"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

const (
	ThumbnailWidth     = 300
	PreviewWidth       = 1920
	previewJPEGQuality = 90
)

// ProcessedPaths holds the on-disk results for one imported photo.
type ProcessedPaths struct {
	OriginalPath  string
	ThumbnailPath string
	PreviewPath   string
}

type decodeError struct{ err error }

func (e *decodeError) Error() string { return e.err.Error() }
func (e *decodeError) Unwrap() error { return e.err }

// IsDecodeError reports whether the failure came from decoding the source
// image rather than from filesystem I/O.
func IsDecodeError(err error) bool {
	var de *decodeError
	return errors.As(err, &de)
}

func decodeImageFile(srcPath string) (image.Image, error) {
	f, err := os.Open(srcPath)
	if err != nil {
		return nil, fmt.Errorf("open source image %s: %w", srcPath, err)
	}
	defer f.Close()

	srcImage, _, err := image.Decode(f)
	if err != nil {
		return nil, &decodeError{fmt.Errorf("decode source image %s: %w", srcPath, err)}
	}
	bounds := srcImage.Bounds()
	if bounds.Dx() == 0 || bounds.Dy() == 0 {
		return nil, &decodeError{fmt.Errorf("source image %s has zero dimension", srcPath)}
	}
	return srcImage, nil
}

func encodePNGAtomic(destPath string, img image.Image) error {
	tmpFile, err := os.CreateTemp(filepath.Dir(destPath), ".thumb_*.png")
	if err != nil {
		return fmt.Errorf("create temp file for %s: %w", destPath, err)
	}
	tmpPath := tmpFile.Name()
	keepTemp := false
	tmpFileClosed := false
	defer func() {
		if !tmpFileClosed {
			_ = tmpFile.Close()
		}
		if !keepTemp {
			_ = os.Remove(tmpPath)
		}
	}()

	if err := png.Encode(tmpFile, img); err != nil {
		return fmt.Errorf("encode png %s: %w", destPath, err)
	}
	if err := tmpFile.Sync(); err != nil {
		return fmt.Errorf("sync png %s: %w", destPath, err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("close png %s: %w", destPath, err)
	}
	tmpFileClosed = true
	keepTemp = true

	if err := os.Rename(tmpPath, destPath); err != nil {
		keepTemp = false
		return fmt.Errorf("move png into place %s: %w", destPath, err)
	}
	return nil
}

func encodeJPEGAtomic(destPath string, img image.Image, quality int) error {
	tmpFile, err := os.CreateTemp(filepath.Dir(destPath), ".preview_*.jpg")
	if err != nil {
		return fmt.Errorf("create temp file for %s: %w", destPath, err)
	}
	tmpPath := tmpFile.Name()
	keepTemp := false
	tmpFileClosed := false
	defer func() {
		if !tmpFileClosed {
			_ = tmpFile.Close()
		}
		if !keepTemp {
			_ = os.Remove(tmpPath)
		}
	}()

	if err := jpeg.Encode(tmpFile, img, &jpeg.Options{Quality: quality}); err != nil {
		return fmt.Errorf("encode jpeg %s: %w", destPath, err)
	}
	if err := tmpFile.Sync(); err != nil {
		return fmt.Errorf("sync jpeg %s: %w", destPath, err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("close jpeg %s: %w", destPath, err)
	}
	tmpFileClosed = true
	keepTemp = true

	if err := os.Rename(tmpPath, destPath); err != nil {
		keepTemp = false
		return fmt.Errorf("move jpeg into place %s: %w", destPath, err)
	}
	return nil
}

// GenerateThumbnail writes a lossless PNG thumbnail scaled to exactly
// ThumbnailWidth, preserving aspect ratio. The width is fixed so grid
// layouts never see a ragged column; narrow sources are scaled up.
func GenerateThumbnail(srcPath, destPath string) error {
	srcImage, err := decodeImageFile(srcPath)
	if err != nil {
		return err
	}

	out := resize.Resize(ThumbnailWidth, 0, srcImage, resize.Lanczos3)
	return encodePNGAtomic(destPath, out)
}

// GeneratePreview writes a screen-size derivative next to destStem. Wide
// images are downscaled to PreviewWidth and re-encoded as JPEG; images
// already at or below PreviewWidth are byte-copied with their original
// extension. The path actually written is returned.
func GeneratePreview(srcPath, destStem string) (string, error) {
	srcImage, err := decodeImageFile(srcPath)
	if err != nil {
		return "", err
	}

	if srcImage.Bounds().Dx() <= PreviewWidth {
		destPath := destStem + strings.ToLower(filepath.Ext(srcPath))
		if err := copyFileBytes(srcPath, destPath); err != nil {
			return "", err
		}
		return destPath, nil
	}

	destPath := destStem + ".jpg"
	scaled := resize.Resize(PreviewWidth, 0, srcImage, resize.Lanczos3)
	if err := encodeJPEGAtomic(destPath, scaled, previewJPEGQuality); err != nil {
		return "", err
	}
	return destPath, nil
}

func copyFileBytes(srcPath, destPath string) error {
	data, err := os.ReadFile(srcPath)
	if err != nil {
		return fmt.Errorf("read source image %s: %w", srcPath, err)
	}

	tmpFile, err := os.CreateTemp(filepath.Dir(destPath), ".preview_copy_*")
	if err != nil {
		return fmt.Errorf("create temp file for %s: %w", destPath, err)
	}
	tmpPath := tmpFile.Name()
	keepTemp := false
	tmpFileClosed := false
	defer func() {
		if !tmpFileClosed {
			_ = tmpFile.Close()
		}
		if !keepTemp {
			_ = os.Remove(tmpPath)
		}
	}()

	if _, err := tmpFile.Write(data); err != nil {
		return fmt.Errorf("write preview copy %s: %w", destPath, err)
	}
	if err := tmpFile.Sync(); err != nil {
		return fmt.Errorf("sync preview copy %s: %w", destPath, err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("close preview copy %s: %w", destPath, err)
	}
	tmpFileClosed = true
	keepTemp = true

	if err := os.Rename(tmpPath, destPath); err != nil {
		keepTemp = false
		return fmt.Errorf("move preview copy into place %s: %w", destPath, err)
	}
	return nil
}
