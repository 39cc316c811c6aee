// Package pdf pulls the scanned page images out of PDF files so they can be run
// through the capture gate like photographs.
package pdf

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"

	"github.com/MeKo-Tech/ledgerscan/internal/utils"
)

// PageImage is one image embedded in a PDF page.
type PageImage struct {
	Page  int
	Index int
	Name  string
	Image image.Image
}

// ExtractImages extracts all images from a PDF file grouped by page number.
func ExtractImages(filename string, pageRange string) (map[int][]image.Image, error) {
	pages, err := ExtractPageImages(filename, pageRange, nil)
	if err != nil {
		return nil, err
	}
	result := make(map[int][]image.Image)
	for _, p := range pages {
		result[p.Page] = append(result[p.Page], p.Image)
	}
	return result, nil
}

// ExtractPageImages extracts the images of the selected pages with pdfcpu, ordered
// by page and then by file name. Images in formats that cannot be decoded are
// skipped.
func ExtractPageImages(filename, pageRange string, creds *Credentials) ([]PageImage, error) {
	pageNumbers, err := parsePageRange(pageRange)
	if err != nil {
		return nil, fmt.Errorf("invalid page range %q: %w", pageRange, err)
	}

	tempDir, err := os.MkdirTemp("", "ledgerscan-pdf-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp directory: %w", err)
	}
	defer func() { _ = os.RemoveAll(tempDir) }()

	var selected []string
	for _, n := range pageNumbers {
		selected = append(selected, strconv.Itoa(n))
	}

	if err := api.ExtractImagesFile(filename, tempDir, selected, creds.configuration()); err != nil {
		return nil, fmt.Errorf("failed to extract images from PDF: %w", err)
	}

	base := strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
	return collectExtractedImages(tempDir, base)
}

// collectExtractedImages reads the files pdfcpu wrote to dir. pdfcpu names them
// <base>_<page>_<name>.<ext> with a zero-padded page number.
func collectExtractedImages(dir, base string) ([]PageImage, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to process extracted images: %w", err)
	}

	var out []PageImage
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		page, err := parsePageFromFilename(base, e.Name())
		if err != nil {
			continue
		}
		img, err := loadImageFile(filepath.Join(dir, e.Name()))
		if err != nil {
			slog.Debug("Skipping undecodable PDF image", "file", e.Name(), "error", err)
			continue
		}
		out = append(out, PageImage{Page: page, Name: e.Name(), Image: img})
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Page != out[j].Page {
			return out[i].Page < out[j].Page
		}
		return out[i].Name < out[j].Name
	})
	for i := range out {
		if i > 0 && out[i].Page == out[i-1].Page {
			out[i].Index = out[i-1].Index + 1
		}
	}
	return out, nil
}

// loadImageFile decodes an extracted image.
func loadImageFile(path string) (image.Image, error) {
	data, err := os.ReadFile(path) //nolint:gosec // G304: path is inside our temp directory
	if err != nil {
		return nil, err
	}
	img, _, err := utils.DecodeImage(bytes.NewReader(data))
	return img, err
}

// parsePageFromFilename extracts the page number from an extracted file name.
func parsePageFromFilename(base, filename string) (int, error) {
	rest, ok := strings.CutPrefix(filename, base+"_")
	if !ok {
		return 0, errors.New("not a page image")
	}
	num, _, ok := strings.Cut(rest, "_")
	if !ok {
		return 0, errors.New("invalid filename format")
	}
	pageNum, err := strconv.Atoi(num)
	if err != nil || pageNum < 1 {
		return 0, errors.New("invalid page number")
	}
	return pageNum, nil
}

// parsePageRange parses a page range string like "1-5" or "1,3,5".
func parsePageRange(pageRange string) ([]int, error) {
	if strings.TrimSpace(pageRange) == "" {
		return nil, nil // all pages
	}

	var pages []int
	seen := make(map[int]bool)
	for _, part := range strings.Split(pageRange, ",") {
		tokenPages, err := parseRangeToken(strings.TrimSpace(part))
		if err != nil {
			return nil, err
		}
		for _, p := range tokenPages {
			if !seen[p] {
				seen[p] = true
				pages = append(pages, p)
			}
		}
	}
	return pages, nil
}

// parseRangeToken parses either a single page token (e.g., "3") or a range token (e.g., "1-5").
func parseRangeToken(part string) ([]int, error) {
	if startStr, endStr, isRange := strings.Cut(part, "-"); isRange {
		start, err := strconv.Atoi(strings.TrimSpace(startStr))
		if err != nil {
			return nil, fmt.Errorf("invalid start page: %s", startStr)
		}
		end, err := strconv.Atoi(strings.TrimSpace(endStr))
		if err != nil {
			return nil, fmt.Errorf("invalid end page: %s", endStr)
		}
		if start < 1 {
			return nil, fmt.Errorf("page numbers start at 1: %d", start)
		}
		if start > end {
			return nil, fmt.Errorf("start page %d greater than end page %d", start, end)
		}
		out := make([]int, 0, end-start+1)
		for i := start; i <= end; i++ {
			out = append(out, i)
		}
		return out, nil
	}
	page, err := strconv.Atoi(part)
	if err != nil {
		return nil, fmt.Errorf("invalid page number: %s", part)
	}
	if page < 1 {
		return nil, fmt.Errorf("page numbers start at 1: %d", page)
	}
	return []int{page}, nil
}
