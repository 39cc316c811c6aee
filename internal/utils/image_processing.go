package utils

import (
	"fmt"
	"image"

	"github.com/disintegration/imaging"
)

// ImageProcessingError represents errors that can occur during image processing.
type ImageProcessingError struct {
	Operation string
	Err       error
}

func (e *ImageProcessingError) Error() string {
	return fmt.Sprintf("image processing error in %s: %v", e.Operation, e.Err)
}

func (e *ImageProcessingError) Unwrap() error {
	return e.Err
}

// ImageConstraints bounds the captures accepted for analysis.
type ImageConstraints struct {
	MinWidth  int
	MinHeight int
	// MaxPixels bounds width*height. Decoding refuses images whose header claims
	// more (0 = unlimited).
	MaxPixels int
}

// DefaultImageConstraints returns the constraints applied to captures.
func DefaultImageConstraints() ImageConstraints {
	return ImageConstraints{
		MinWidth:  32,
		MinHeight: 32,
		MaxPixels: 100_000_000,
	}
}

// Rotate turns img clockwise by a multiple of 90 degrees. Other angles return img.
func Rotate(img image.Image, degrees int) image.Image {
	switch ((degrees % 360) + 360) % 360 {
	case 90:
		return imaging.Rotate270(img)
	case 180:
		return imaging.Rotate180(img)
	case 270:
		return imaging.Rotate90(img)
	}
	return img
}
