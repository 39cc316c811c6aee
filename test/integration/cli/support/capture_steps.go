package support

import (
	"fmt"
	"image"
	"os"
	"strings"

	"github.com/cucumber/godog"
	"github.com/disintegration/imaging"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"

	"github.com/MeKo-Tech/ledgerscan/internal/testutil"
)

// captures maps the capture kinds used in feature files to their generators.
var captures = map[string]func() image.Image{
	"good":     func() image.Image { return testutil.GoodCapture() },
	"blurred":  func() image.Image { return testutil.BlurredCapture(32) },
	"shadowed": func() image.Image { return testutil.ShadowedCapture(0.4) },
	"cropped":  func() image.Image { return testutil.CroppedTableCapture() },
	"skewed":   func() image.Image { return testutil.SkewedCapture() },
}

func (testCtx *TestContext) aLedgerCapture(kind, name string) error {
	gen, ok := captures[kind]
	if !ok {
		return fmt.Errorf("unknown capture kind %q", kind)
	}
	path := testCtx.register(name)
	if err := testutil.EnsureDir(testCtx.TempDir); err != nil {
		return err
	}
	if err := imaging.Save(gen(), path); err != nil {
		return fmt.Errorf("failed to save capture %s: %w", name, err)
	}
	return nil
}

func (testCtx *TestContext) aTextFile(name string) error {
	return os.WriteFile(testCtx.register(name), []byte("not an image"), 0o600)
}

// aPDFWithPages builds a PDF with one page per named capture, in order.
func (testCtx *TestContext) aPDFWithPages(name, pages string) error {
	var images []string
	for _, page := range strings.Split(pages, ",") {
		page = strings.TrimSpace(page)
		p, ok := testCtx.Files[page]
		if !ok {
			return fmt.Errorf("unknown capture %q", page)
		}
		images = append(images, p)
	}

	if err := api.ImportImagesFile(images, testCtx.register(name), pdfcpu.DefaultImportConfig(), nil); err != nil {
		return fmt.Errorf("failed to build PDF %s: %w", name, err)
	}
	return nil
}

// RegisterCaptureSteps registers the steps that create captures and PDFs.
func (testCtx *TestContext) RegisterCaptureSteps(sc *godog.ScenarioContext) {
	sc.Step(`^an? (good|blurred|shadowed|cropped|skewed) ledger capture "([^"]*)"$`, testCtx.aLedgerCapture)
	sc.Step(`^a text file "([^"]*)"$`, testCtx.aTextFile)
	sc.Step(`^a PDF "([^"]*)" with pages "([^"]*)"$`, testCtx.aPDFWithPages)
}
