package testutil

import (
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

var (
	// Paper is the page background of synthetic captures.
	Paper = color.NRGBA{R: 246, G: 244, B: 238, A: 255}
	// Ink is the ruling and handwriting colour of synthetic captures.
	Ink = color.NRGBA{R: 18, G: 18, B: 24, A: 255}
)

// CaptureConfig describes a synthetic photograph of a ruled ledger page.
type CaptureConfig struct {
	Width  int
	Height int
	// Cell is the ruling pitch in pixels; lines are LineWidth thick.
	Cell      int
	LineWidth int
	// Table is the ruled area. An empty rectangle rules the whole frame.
	Table image.Rectangle
	// Labels are written into the first cells of the top row.
	Labels []string
}

// DefaultCaptureConfig returns a page whose ruling runs off every edge of the frame,
// which is how a well-framed close-up of a ledger looks.
func DefaultCaptureConfig() CaptureConfig {
	return CaptureConfig{
		Width:     480,
		Height:    360,
		Cell:      40,
		LineWidth: 2,
		Labels:    []string{"No", "Name", "Jan", "Feb", "Mar"},
	}
}

// LedgerCapture renders a synthetic capture.
func LedgerCapture(cfg CaptureConfig) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, cfg.Width, cfg.Height))
	draw.Draw(img, img.Bounds(), &image.Uniform{Paper}, image.Point{}, draw.Src)

	area := cfg.Table
	if area.Empty() {
		area = img.Bounds()
	}
	ink := &image.Uniform{Ink}
	for x := area.Min.X; x < area.Max.X; x += cfg.Cell {
		draw.Draw(img, image.Rect(x, area.Min.Y, x+cfg.LineWidth, area.Max.Y).Intersect(area), ink, image.Point{}, draw.Src)
	}
	for y := area.Min.Y; y < area.Max.Y; y += cfg.Cell {
		draw.Draw(img, image.Rect(area.Min.X, y, area.Max.X, y+cfg.LineWidth).Intersect(area), ink, image.Point{}, draw.Src)
	}

	drawer := &font.Drawer{Dst: img, Src: ink, Face: basicfont.Face7x13}
	for i, label := range cfg.Labels {
		x := area.Min.X + i*cfg.Cell + cfg.LineWidth + 3
		if x >= area.Max.X {
			break
		}
		drawer.Dot = fixed.P(x, area.Min.Y+cfg.Cell/2+5)
		drawer.DrawString(label)
	}
	return img
}

// GoodCapture is a capture every gate rule accepts.
func GoodCapture() *image.NRGBA {
	return LedgerCapture(DefaultCaptureConfig())
}

// BlurredCapture applies a gaussian blur of sigma to a good capture.
func BlurredCapture(sigma float64) *image.NRGBA {
	return imaging.Blur(GoodCapture(), sigma)
}

// CroppedTableCapture rules only the centre of the frame, leaving a clean border: the
// table has been framed with nothing reaching the edges.
func CroppedTableCapture() *image.NRGBA {
	cfg := DefaultCaptureConfig()
	cfg.Cell = 12
	cfg.Table = image.Rect(cfg.Width/4, cfg.Height/4, cfg.Width*3/4, cfg.Height*3/4)
	cfg.Labels = nil
	return LedgerCapture(cfg)
}

// ShadowedCapture darkens the left part of a good capture as a hand or phone would.
func ShadowedCapture(fraction float64) *image.NRGBA {
	img := GoodCapture()
	b := img.Bounds()
	edge := b.Min.X + int(float64(b.Dx())*fraction)
	shade := color.NRGBA{R: 22, G: 22, B: 26, A: 255}
	draw.Draw(img, image.Rect(b.Min.X, b.Min.Y, edge, b.Max.Y), &image.Uniform{shade}, image.Point{}, draw.Src)
	return img
}

// SkewedCapture is a good capture squeezed to a steep-angle aspect ratio.
func SkewedCapture() *image.NRGBA {
	cfg := DefaultCaptureConfig()
	cfg.Width, cfg.Height = 800, 200
	return LedgerCapture(cfg)
}

// SaveImage encodes img as PNG at path.
func SaveImage(t *testing.T, img image.Image, path string) {
	t.Helper()

	require.NoError(t, EnsureDir(filepath.Dir(path)), "Failed to create directory for %s", path)

	file, err := os.Create(path) //nolint:gosec // G304: Test file creation with controlled path
	require.NoError(t, err, "Failed to create file %s", path)
	defer func() {
		require.NoError(t, file.Close())
	}()

	require.NoError(t, png.Encode(file, img), "Failed to encode PNG image")
}
