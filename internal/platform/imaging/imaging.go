// Package imaging validates slide file names, reads image metadata and
// renders JPEG thumbnails.
package imaging

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/jpeg" // register JPEG decoder
	_ "image/png"  // register PNG decoder
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/phrazzld/renal-ai-api/internal/domain"
	_ "golang.org/x/image/tiff" // register TIFF decoder, also used for .svs
)

// ThumbnailSize is the bounding box, in pixels, of generated thumbnails.
const ThumbnailSize = 256

// thumbnailQuality is the JPEG quality used for thumbnails.
const thumbnailQuality = 85

// ErrUnreadableImage is returned when a file cannot be decoded as an image.
var ErrUnreadableImage = errors.New("unreadable image")

// SupportedExtensions lists the accepted upload extensions, lowercase.
var SupportedExtensions = []string{".svs", ".tiff", ".tif", ".png", ".jpg", ".jpeg"}

// IsSupported reports whether name has an accepted extension. The check is
// case-insensitive.
func IsSupported(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, e := range SupportedExtensions {
		if ext == e {
			return true
		}
	}
	return false
}

// ExtractMetadata decodes the image header at path and reports its
// dimensions, color mode, format and on-disk size.
func ExtractMetadata(path string) (domain.ImageMetadata, error) {
	f, err := os.Open(path)
	if err != nil {
		return domain.ImageMetadata{}, fmt.Errorf("open image: %w", err)
	}
	defer func() { _ = f.Close() }()

	info, err := f.Stat()
	if err != nil {
		return domain.ImageMetadata{}, fmt.Errorf("stat image: %w", err)
	}

	cfg, format, err := image.DecodeConfig(f)
	if err != nil {
		return domain.ImageMetadata{}, fmt.Errorf("%w: %w", ErrUnreadableImage, err)
	}

	return domain.ImageMetadata{
		Width:  cfg.Width,
		Height: cfg.Height,
		Mode:   colorMode(cfg.ColorModel),
		Format: strings.ToUpper(format),
		SizeMB: sizeMB(info.Size()),
	}, nil
}

// GenerateThumbnail writes a JPEG of src fitted into size x size to dest.
// Images smaller than the box are not enlarged. It reports whether a
// thumbnail was written; failures are not fatal to callers.
func GenerateThumbnail(src, dest string, size int) bool {
	img, err := imaging.Open(src)
	if err != nil {
		return false
	}

	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return false
	}

	thumb := imaging.Fit(img, size, size, imaging.Lanczos)
	if err := imaging.Save(thumb, dest, imaging.JPEGQuality(thumbnailQuality)); err != nil {
		_ = os.Remove(dest)
		return false
	}
	return true
}

// colorMode names a color model using the vocabulary clients already know
// from Pillow.
func colorMode(m color.Model) string {
	if _, ok := m.(color.Palette); ok {
		return "P"
	}

	switch m {
	case color.RGBAModel, color.RGBA64Model, color.YCbCrModel:
		return "RGB"
	case color.NRGBAModel, color.NRGBA64Model, color.NYCbCrAModel:
		return "RGBA"
	case color.GrayModel:
		return "L"
	case color.Gray16Model:
		return "I;16"
	case color.CMYKModel:
		return "CMYK"
	}
	return "RGB"
}

func sizeMB(bytes int64) float64 {
	return math.Round(float64(bytes)/1024/1024*100) / 100
}
