package domain

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ImageMetadata describes the decoded properties of an uploaded image.
type ImageMetadata struct {
	Width  int     `json:"width"`
	Height int     `json:"height"`
	Mode   string  `json:"mode"`
	Format string  `json:"format"`
	SizeMB float64 `json:"size_mb"`
}

// UploadedFile is the registry record for a stored slide image. Records are
// created once per successful upload and never mutated.
type UploadedFile struct {
	ID           string        `json:"-"`
	OriginalName string        `json:"original_name"`
	SavedPath    string        `json:"saved_path"`
	FileSize     int64         `json:"file_size"`
	UploadTime   time.Time     `json:"upload_time"`
	UploadedBy   string        `json:"uploaded_by"`
	Metadata     ImageMetadata `json:"metadata"`
	HasThumbnail bool          `json:"has_thumbnail"`
}

// NewFileID builds a file identifier from a random UUID and the stem of the
// original file name, e.g. 3f2a...9c_slide1.
func NewFileID(originalName string) string {
	hex := strings.ReplaceAll(uuid.NewString(), "-", "")
	return hex + "_" + FileStem(originalName)
}

// FileStem returns the base name of name without its extension.
func FileStem(name string) string {
	base := filepath.Base(name)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// Validate checks the required fields of the record.
func (f *UploadedFile) Validate() error {
	if f.ID == "" {
		return fmt.Errorf("%w: file id cannot be empty", ErrValidation)
	}
	if f.SavedPath == "" {
		return fmt.Errorf("%w: saved path cannot be empty", ErrValidation)
	}
	if f.UploadedBy == "" {
		return fmt.Errorf("%w: uploader cannot be empty", ErrValidation)
	}
	return nil
}
