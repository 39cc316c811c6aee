package utils

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// SupportedImageExtensions lists supported file extensions for loading.
var SupportedImageExtensions = []string{".jpg", ".jpeg", ".png", ".bmp", ".tif", ".tiff", ".webp"}

// IsSupportedImage reports whether the path has a supported image extension.
func IsSupportedImage(path string) bool {
	return slices.Contains(SupportedImageExtensions, strings.ToLower(filepath.Ext(path)))
}

// ImageMetadata captures lightweight file and pixel information.
type ImageMetadata struct {
	Path        string  `json:"path" yaml:"path"`
	Format      string  `json:"format" yaml:"format"`
	SizeBytes   int64   `json:"size_bytes" yaml:"size_bytes"`
	Width       int     `json:"width" yaml:"width"`
	Height      int     `json:"height" yaml:"height"`
	AspectRatio float64 `json:"aspect_ratio" yaml:"aspect_ratio"`
}

// LoadImage opens and decodes an image file, returning the image and metadata.
// JPEG captures are rotated according to their EXIF orientation, so width and
// height are those of the page as photographed.
func LoadImage(path string) (image.Image, ImageMetadata, error) {
	if path == "" {
		err := &ImageProcessingError{Operation: "load", Err: errors.New("empty path")}
		return nil, ImageMetadata{}, err
	}
	if !IsSupportedImage(path) {
		err := &ImageProcessingError{Operation: "load", Err: fmt.Errorf("unsupported format: %s", filepath.Ext(path))}
		return nil, ImageMetadata{}, err
	}

	data, err := os.ReadFile(path) //nolint:gosec // G304: Reading user-provided image file path is expected
	if err != nil {
		return nil, ImageMetadata{}, &ImageProcessingError{Operation: "load", Err: err}
	}

	img, meta, err := DecodeImage(bytes.NewReader(data))
	if err != nil {
		return nil, ImageMetadata{}, err
	}
	meta.Path = path
	meta.SizeBytes = int64(len(data))
	return img, meta, nil
}

// DecodeImage decodes an image from r with DefaultImageConstraints, applying EXIF
// orientation.
func DecodeImage(r io.ReadSeeker) (image.Image, ImageMetadata, error) {
	return DecodeImageWithConstraints(r, DefaultImageConstraints())
}

// DecodeImageWithConstraints decodes an image from r, applying EXIF orientation.
// The pixel count declared in the image header is checked against
// constraints.MaxPixels before any pixel data is decoded.
func DecodeImageWithConstraints(r io.ReadSeeker, constraints ImageConstraints) (image.Image, ImageMetadata, error) {
	cfg, format, err := image.DecodeConfig(r)
	if err != nil {
		return nil, ImageMetadata{}, &ImageProcessingError{Operation: "decode", Err: err}
	}
	if constraints.MaxPixels > 0 && int64(cfg.Width)*int64(cfg.Height) > int64(constraints.MaxPixels) {
		return nil, ImageMetadata{}, &ImageProcessingError{
			Operation: "decode",
			Err: fmt.Errorf("image too large: %dx%d exceeds %d pixels",
				cfg.Width, cfg.Height, constraints.MaxPixels),
		}
	}
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return nil, ImageMetadata{}, &ImageProcessingError{Operation: "decode", Err: err}
	}

	img, err := imaging.Decode(r, imaging.AutoOrientation(true))
	if err != nil {
		return nil, ImageMetadata{}, &ImageProcessingError{Operation: "decode", Err: err}
	}

	b := img.Bounds()
	meta := ImageMetadata{
		Format: format,
		Width:  b.Dx(),
		Height: b.Dy(),
	}
	if b.Dy() > 0 {
		meta.AspectRatio = float64(b.Dx()) / float64(b.Dy())
	}
	return img, meta, nil
}

// ValidateImageConstraints checks dimensions against the provided constraints.
func ValidateImageConstraints(img image.Image, constraints ImageConstraints) error {
	if img == nil {
		return &ImageProcessingError{Operation: "validate", Err: errors.New("input image is nil")}
	}
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w < constraints.MinWidth || h < constraints.MinHeight {
		return &ImageProcessingError{
			Operation: "validate",
			Err: fmt.Errorf(
				"image too small: %dx%d < %dx%d",
				w, h, constraints.MinWidth, constraints.MinHeight,
			),
		}
	}
	if constraints.MaxPixels > 0 && w*h > constraints.MaxPixels {
		return &ImageProcessingError{
			Operation: "validate",
			Err:       fmt.Errorf("image too large: %dx%d exceeds %d pixels", w, h, constraints.MaxPixels),
		}
	}
	return nil
}
