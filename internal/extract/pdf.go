package extract

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"

	"docanswer/internal/common"
)

// extractPDF is a two-phase fallback: the text layer first, then OCR when
// the yield is below the meaningful-text threshold. The larger usable
// yield wins.
func (e *Extractor) extractPDF(ctx context.Context, path string) (Result, error) {
	primary, pages, warns := e.pdfText(ctx, path)
	if len(primary) >= e.cfg.MinTextChars {
		return Result{Text: primary, Method: MethodPDFText, Pages: pages, Warnings: warns}, nil
	}

	e.logger.Info("pdf text layer below threshold",
		"path", path, "chars", len(primary), "threshold", e.cfg.MinTextChars,
		"ocr_available", e.ocrOK)

	if !e.ocrOK {
		return Result{}, common.NewAppError("OCR_UNAVAILABLE",
			fmt.Sprintf("text layer yielded %d chars (< %d) and ocr binaries are missing",
				len(primary), e.cfg.MinTextChars),
			common.ErrOCRUnavailable)
	}

	secondary, ocrPages, ocrWarns, err := e.pdfOCR(ctx, path)
	warns = append(warns, ocrWarns...)
	if err != nil {
		warns = append(warns, err.Error())
	}

	if len(secondary) > len(primary) {
		return Result{Text: secondary, Method: MethodPDFOCR, Pages: ocrPages, Warnings: warns}, nil
	}
	if strings.TrimSpace(primary) != "" {
		return Result{Text: primary, Method: MethodPDFText, Pages: pages, Warnings: warns}, nil
	}
	return Result{}, common.NewAppError("PDF_EMPTY",
		"neither text layer nor ocr produced text", common.ErrExtraction)
}

// pdfText extracts the text layer page by page. A corrupt page is
// skipped, not fatal; only the aggregate yield matters.
func (e *Extractor) pdfText(ctx context.Context, path string) (text string, pages int, warnings []string) {
	pages, err := api.PageCountFile(path)
	if err != nil || pages <= 0 {
		// page count unavailable; fall back to a whole-document pass
		out, errb, rerr := e.runner.Run(ctx, e.cfg.Pdftotext,
			"-layout", "-enc", "UTF-8", "-eol", "unix", path, "-")
		if rerr != nil {
			return "", 0, []string{string(errb)}
		}
		raw := string(out)
		return strings.TrimSpace(raw), 1 + strings.Count(raw, "\f"), nil
	}

	if e.cfg.MaxPages > 0 && pages > e.cfg.MaxPages {
		pages = e.cfg.MaxPages
	}

	var b strings.Builder
	for p := 1; p <= pages; p++ {
		n := strconv.Itoa(p)
		out, errb, err := e.runner.Run(ctx, e.cfg.Pdftotext,
			"-f", n, "-l", n, "-layout", "-enc", "UTF-8", "-eol", "unix", path, "-")
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("page %d: %s", p, string(errb)))
			continue
		}
		txt := strings.TrimSpace(string(out))
		if txt == "" {
			continue
		}
		if b.Len() > 0 {
			b.WriteString("\n")
		}
		b.WriteString(txt)
	}
	return b.String(), pages, warnings
}

// pdfOCR rasterizes each page to PNG and runs recognition per page.
// Per-page recognition failures are skipped.
func (e *Extractor) pdfOCR(ctx context.Context, path string) (text string, pages int, warnings []string, err error) {
	tmpDir, err := os.MkdirTemp("", "da-ocr-*")
	if err != nil {
		return "", 0, nil, err
	}
	defer func() {
		if rmErr := os.RemoveAll(tmpDir); rmErr != nil {
			e.logger.Warn("failed to remove ocr temp dir", "dir", tmpDir, "error", rmErr)
		}
	}()

	prefix := filepath.Join(tmpDir, "page")
	// pdftoppm -r <dpi> -png <in.pdf> <tmp/page>
	_, errb, err := e.runner.Run(ctx, e.cfg.Pdftoppm,
		"-r", strconv.Itoa(e.cfg.DPI), "-png", path, prefix)
	if err != nil {
		return "", 0, []string{string(errb)}, err
	}

	// collect generated pngs (prefix-1.png, prefix-2.png, ...)
	matches, _ := filepath.Glob(prefix + "-*.png")
	sort.Strings(matches)
	if e.cfg.MaxPages > 0 && len(matches) > e.cfg.MaxPages {
		matches = matches[:e.cfg.MaxPages]
	}
	if len(matches) == 0 {
		return "", 0, []string{"pdftoppm produced no images"}, fmt.Errorf("no pages rendered")
	}

	var b strings.Builder
	for _, img := range matches {
		out, errb, err := e.runner.Run(ctx, e.cfg.Tesseract,
			img, "stdout", "-l", e.cfg.TesseractLang)
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("%s: %s", filepath.Base(img), string(errb)))
			continue
		}
		txt := strings.TrimSpace(string(out))
		if txt == "" {
			continue
		}
		if b.Len() > 0 {
			b.WriteString("\n\f\n") // keep a clear page break marker
		}
		b.WriteString(txt)
	}
	return b.String(), len(matches), warnings, nil
}
