// Package quality implements the capture-quality gate: pixel metrics computed from
// a decoded photograph and the threshold policy that decides whether a capture is
// good enough to send on for table extraction.
package quality

import (
	"image"
	"image/draw"
	"runtime"
	"sync"

	"github.com/disintegration/imaging"

	"github.com/MeKo-Tech/ledgerscan/internal/mempool"
)

// Luminance weights (ITU-R BT.601).
const (
	lumaR = 0.299
	lumaG = 0.587
	lumaB = 0.114
)

// PixelBuffer is a decoded image in interleaved 8-bit samples, RGBA or RGB.
// The analyzer only reads it.
type PixelBuffer struct {
	Width    int
	Height   int
	Channels int // 4 for RGBA, 3 for RGB
	Pix      []uint8
}

// pixelCount returns the number of complete pixels actually present in Pix,
// bounded by Width*Height.
func (b PixelBuffer) pixelCount() int {
	if b.Width <= 0 || b.Height <= 0 {
		return 0
	}
	ch := b.channels()
	n := b.Width * b.Height
	if avail := len(b.Pix) / ch; avail < n {
		n = avail
	}
	return n
}

func (b PixelBuffer) channels() int {
	if b.Channels == 3 {
		return 3
	}
	return 4
}

// FromImage copies img into an RGBA PixelBuffer. Images whose longest side exceeds
// maxDimension are downsized first; maxDimension <= 0 keeps the original size.
func FromImage(img image.Image, maxDimension int) PixelBuffer {
	if img == nil {
		return PixelBuffer{}
	}
	b := img.Bounds()
	if b.Empty() {
		return PixelBuffer{}
	}
	if maxDimension > 0 && (b.Dx() > maxDimension || b.Dy() > maxDimension) {
		img = imaging.Fit(img, maxDimension, maxDimension, imaging.Box)
	}
	nrgba := imaging.Clone(img)
	nb := nrgba.Bounds()
	return PixelBuffer{
		Width:    nb.Dx(),
		Height:   nb.Dy(),
		Channels: 4,
		Pix:      nrgba.Pix,
	}
}

// Metrics are the scalar quality measurements derived from one capture.
type Metrics struct {
	LuminanceMean     float64 `json:"luminance_mean" yaml:"luminance_mean"`
	LuminanceVariance float64 `json:"luminance_variance" yaml:"luminance_variance"`
	DarkPixelRatio    float64 `json:"dark_pixel_ratio" yaml:"dark_pixel_ratio"`
	BorderDarkRatio   float64 `json:"border_dark_ratio" yaml:"border_dark_ratio"`
	InnerDarkRatio    float64 `json:"inner_dark_ratio" yaml:"inner_dark_ratio"`
	AspectRatio       float64 `json:"aspect_ratio" yaml:"aspect_ratio"`
}

// IsZero reports whether m is the zero value, which is what an empty buffer yields.
func (m Metrics) IsZero() bool {
	return m == Metrics{}
}

// AnalyzerOptions tune sampling. Thresholds are luminance values in [0,255].
type AnalyzerOptions struct {
	// SampleStride visits every n-th pixel by linear index. 1 samples densely.
	SampleStride int
	// Workers bounds the goroutines used for the fold (0 = runtime.NumCPU()).
	Workers int
	// DarkThreshold marks a pixel as dark for DarkPixelRatio.
	DarkThreshold float64
	// InkThreshold marks a pixel as ink for the border/inner ratios.
	InkThreshold float64
	// BorderFraction is the border band width relative to min(width, height).
	BorderFraction float64
	// MaxDimension downsizes images in AnalyzeImage (0 = never).
	MaxDimension int
}

// DefaultAnalyzerOptions returns the sampling used by the capture screen.
func DefaultAnalyzerOptions() AnalyzerOptions {
	return AnalyzerOptions{
		SampleStride:   4,
		Workers:        0,
		DarkThreshold:  40,
		InkThreshold:   90,
		BorderFraction: 0.06,
		MaxDimension:   0,
	}
}

// Analyzer computes Metrics. The zero value is not usable; use NewAnalyzer.
type Analyzer struct {
	opts AnalyzerOptions
}

// NewAnalyzer returns an analyzer, replacing non-positive options with defaults.
func NewAnalyzer(opts AnalyzerOptions) *Analyzer {
	def := DefaultAnalyzerOptions()
	if opts.SampleStride <= 0 {
		opts.SampleStride = def.SampleStride
	}
	if opts.Workers <= 0 {
		opts.Workers = runtime.NumCPU()
	}
	if opts.DarkThreshold <= 0 {
		opts.DarkThreshold = def.DarkThreshold
	}
	if opts.InkThreshold <= 0 {
		opts.InkThreshold = def.InkThreshold
	}
	if opts.BorderFraction <= 0 {
		opts.BorderFraction = def.BorderFraction
	}
	return &Analyzer{opts: opts}
}

// Options returns the effective options.
func (a *Analyzer) Options() AnalyzerOptions {
	return a.opts
}

// Analyze computes metrics with the default options.
func Analyze(buf PixelBuffer) Metrics {
	return NewAnalyzer(DefaultAnalyzerOptions()).Analyze(buf)
}

// AnalyzeImage converts img into a pooled RGBA buffer and analyzes it.
func (a *Analyzer) AnalyzeImage(img image.Image) Metrics {
	if img == nil || img.Bounds().Empty() {
		return a.Analyze(PixelBuffer{})
	}
	if m := a.opts.MaxDimension; m > 0 && (img.Bounds().Dx() > m || img.Bounds().Dy() > m) {
		img = imaging.Fit(img, m, m, imaging.Box)
	}

	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	pix := mempool.GetBytes(w * h * 4)
	defer mempool.PutBytes(pix)

	dst := &image.NRGBA{Pix: pix, Stride: 4 * w, Rect: image.Rect(0, 0, w, h)}
	draw.Draw(dst, dst.Rect, img, b.Min, draw.Src)

	return a.Analyze(PixelBuffer{Width: w, Height: h, Channels: 4, Pix: pix})
}

// Analyze computes metrics for buf. An empty buffer yields zero Metrics.
func (a *Analyzer) Analyze(buf PixelBuffer) Metrics {
	n := buf.pixelCount()
	if n == 0 {
		return Metrics{}
	}

	stride := a.opts.SampleStride
	samples := (n + stride - 1) / stride
	band := a.opts.BorderFraction * float64(min(buf.Width, buf.Height))

	workers := a.opts.Workers
	// Small images are not worth the goroutines.
	const minSamplesPerWorker = 16384
	if maxW := samples / minSamplesPerWorker; maxW < workers {
		workers = max(1, maxW)
	}

	var acc accumulator
	if workers == 1 {
		acc = a.fold(buf, band, 0, samples)
	} else {
		acc = a.foldParallel(buf, band, samples, workers)
	}
	return acc.metrics(buf.Width, buf.Height)
}

// foldParallel splits [0, samples) into contiguous chunks and merges the partial
// accumulators in chunk order so the result does not depend on scheduling.
func (a *Analyzer) foldParallel(buf PixelBuffer, band float64, samples, workers int) accumulator {
	parts := make([]accumulator, workers)
	chunk := (samples + workers - 1) / workers

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		lo := w * chunk
		hi := min(lo+chunk, samples)
		if lo >= hi {
			continue
		}
		wg.Add(1)
		go func(w, lo, hi int) {
			defer wg.Done()
			parts[w] = a.fold(buf, band, lo, hi)
		}(w, lo, hi)
	}
	wg.Wait()

	var total accumulator
	for _, p := range parts {
		total = total.merge(p)
	}
	return total
}

// fold accumulates sample indices [lo, hi).
func (a *Analyzer) fold(buf PixelBuffer, band float64, lo, hi int) accumulator {
	var acc accumulator
	ch := buf.channels()
	stride := a.opts.SampleStride
	w, h := float64(buf.Width), float64(buf.Height)

	for k := lo; k < hi; k++ {
		p := k * stride
		off := p * ch
		l := lumaR*float64(buf.Pix[off]) + lumaG*float64(buf.Pix[off+1]) + lumaB*float64(buf.Pix[off+2])

		x := float64(p % buf.Width)
		y := float64(p / buf.Width)
		border := x < band || y < band || x >= w-band || y >= h-band

		acc.add(l, border, a.opts.DarkThreshold, a.opts.InkThreshold)
	}
	return acc
}

// accumulator is the fold state. merge is associative, with the zero value as identity.
type accumulator struct {
	n         int
	sum       float64
	sumSq     float64
	dark      int
	borderN   int
	borderInk int
	innerN    int
	innerInk  int
}

func (a *accumulator) add(l float64, border bool, darkT, inkT float64) {
	a.n++
	a.sum += l
	a.sumSq += l * l
	if l < darkT {
		a.dark++
	}
	ink := l < inkT
	if border {
		a.borderN++
		if ink {
			a.borderInk++
		}
		return
	}
	a.innerN++
	if ink {
		a.innerInk++
	}
}

func (a accumulator) merge(b accumulator) accumulator {
	return accumulator{
		n:         a.n + b.n,
		sum:       a.sum + b.sum,
		sumSq:     a.sumSq + b.sumSq,
		dark:      a.dark + b.dark,
		borderN:   a.borderN + b.borderN,
		borderInk: a.borderInk + b.borderInk,
		innerN:    a.innerN + b.innerN,
		innerInk:  a.innerInk + b.innerInk,
	}
}

func (a accumulator) metrics(width, height int) Metrics {
	if a.n == 0 {
		return Metrics{}
	}
	n := float64(a.n)
	mean := a.sum / n
	variance := a.sumSq/n - mean*mean
	if variance < 0 {
		variance = 0
	}
	return Metrics{
		LuminanceMean:     mean,
		LuminanceVariance: variance,
		DarkPixelRatio:    float64(a.dark) / n,
		BorderDarkRatio:   ratio(a.borderInk, a.borderN),
		InnerDarkRatio:    ratio(a.innerInk, a.innerN),
		AspectRatio:       float64(width) / float64(height),
	}
}

func ratio(num, den int) float64 {
	if den == 0 {
		return 0
	}
	return float64(num) / float64(den)
}
