package image_processing

import (
	"fmt"
	"path/filepath"
	"strings"

	"filmvault/utils"
)

const (
	OriginalsSubdir  = "originals"
	ThumbnailsSubdir = "thumbnails"
	PreviewsSubdir   = "previews"
)

// ProcessImageWithCopy places the source file into the roll directory under
// its new filename and derives the thumbnail and preview from the placed
// copy, so the artifacts always match the bytes the library keeps. When
// move is true the source file is removed after the transfer.
func ProcessImageWithCopy(srcPath, rollDir, newFilename string, move bool) (ProcessedPaths, error) {
	paths := ProcessedPaths{}

	for _, sub := range []string{OriginalsSubdir, ThumbnailsSubdir, PreviewsSubdir} {
		if err := utils.EnsureDirectoryExists(filepath.Join(rollDir, sub)); err != nil {
			return paths, err
		}
	}

	originalPath := filepath.Join(rollDir, OriginalsSubdir, newFilename)
	if move {
		if err := utils.MoveFile(srcPath, originalPath); err != nil {
			return paths, fmt.Errorf("move original %s: %w", srcPath, err)
		}
	} else {
		if err := utils.CopyFile(srcPath, originalPath); err != nil {
			return paths, fmt.Errorf("copy original %s: %w", srcPath, err)
		}
	}
	paths.OriginalPath = originalPath

	stem := strings.TrimSuffix(newFilename, filepath.Ext(newFilename))

	thumbnailPath := filepath.Join(rollDir, ThumbnailsSubdir, stem+".png")
	if err := GenerateThumbnail(originalPath, thumbnailPath); err != nil {
		return paths, err
	}
	paths.ThumbnailPath = thumbnailPath

	previewPath, err := GeneratePreview(originalPath, filepath.Join(rollDir, PreviewsSubdir, stem))
	if err != nil {
		return paths, err
	}
	paths.PreviewPath = previewPath

	return paths, nil
}
