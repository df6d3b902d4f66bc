package gallery

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/karrick/godirwalk"
)

var imageExts = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".webp": true,
}

// IsImagePath reports whether path looks like an image the pipeline accepts.
func IsImagePath(path string) bool {
	return imageExts[strings.ToLower(filepath.Ext(path))]
}

// ScanDir walks root and returns a fresh record for every image file found,
// skipping dotfiles and dot-directories.
func ScanDir(root string) ([]*ImageRecord, error) {
	var records []*ImageRecord

	err := godirwalk.Walk(root, &godirwalk.Options{
		Callback: func(path string, de *godirwalk.Dirent) error {
			if strings.HasPrefix(filepath.Base(path), ".") {
				return godirwalk.SkipThis
			}
			if de.IsDir() || !IsImagePath(path) {
				return nil
			}
			records = append(records, NewRecord(path))
			return nil
		},
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", root, err)
	}

	return records, nil
}

// NewRecord creates an unanalyzed record for an image file on disk.
func NewRecord(path string) *ImageRecord {
	return &ImageRecord{
		ID:       uuid.NewString(),
		FileName: filepath.Base(path),
		Path:     path,
	}
}
