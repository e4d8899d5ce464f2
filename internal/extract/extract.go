// Package extract converts office documents into plain text, falling back
// to OCR for PDFs without a usable text layer.
package extract

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"docanswer/constants"
	"docanswer/internal/common"
)

// Extraction methods reported in Result.Method.
const (
	MethodPDFText = "pdf-text"
	MethodPDFOCR  = "pdf-ocr"
	MethodDOCX    = "docx"
	MethodXLSX    = "xlsx"
	MethodTXT     = "txt"
)

type Config struct {
	Pdftotext string // binary name or absolute path; if empty -> "pdftotext"
	Pdftoppm  string // binary name or absolute path; if empty -> "pdftoppm"
	Tesseract string // binary name or absolute path; if empty -> "tesseract"

	TesseractLang string // default "vie+eng"
	DPI           int    // rasterization DPI for scanned PDFs, default 300
	MaxPages      int    // 0 = no limit

	// MinTextChars is the meaningful-text threshold: PDFs whose text
	// layer yields fewer characters are treated as scanned.
	MinTextChars int
}

// Result is the outcome of a successful extraction.
type Result struct {
	Text     string
	Format   string // constants.PDF | DOCX | XLSX | TXT
	Method   string // MethodPDFText | MethodPDFOCR | MethodDOCX | MethodXLSX | MethodTXT
	Pages    int
	Encoding string // for TXT: the encoding that decoded cleanly
	Warnings []string
	Duration time.Duration
}

// TextExtractor is the extraction stage contract: file -> text.
type TextExtractor interface {
	Extract(ctx context.Context, path string) (Result, error)
}

type Extractor struct {
	cfg    Config
	runner Runner
	ocrOK  bool
	logger *slog.Logger
}

func NewExtractor(cfg Config, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	return newExtractor(cfg, execRunner{log: logger}, logger)
}

// NewExtractorWithRunner is used by tests to stub external commands.
func NewExtractorWithRunner(cfg Config, r Runner, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	return newExtractor(cfg, r, logger)
}

func newExtractor(cfg Config, r Runner, logger *slog.Logger) *Extractor {
	if cfg.Pdftotext == "" {
		cfg.Pdftotext = "pdftotext"
	}
	if cfg.Pdftoppm == "" {
		cfg.Pdftoppm = "pdftoppm"
	}
	if cfg.Tesseract == "" {
		cfg.Tesseract = "tesseract"
	}
	if cfg.TesseractLang == "" {
		cfg.TesseractLang = "vie+eng"
	}
	if cfg.DPI <= 0 {
		cfg.DPI = 300
	}
	if cfg.MinTextChars <= 0 {
		cfg.MinTextChars = 200
	}
	e := &Extractor{cfg: cfg, runner: r, logger: logger}
	e.ocrOK = e.probeOCR()
	if !e.ocrOK {
		logger.Warn("ocr capability missing; scanned PDFs will fail",
			"tesseract", cfg.Tesseract, "pdftoppm", cfg.Pdftoppm)
	}
	return e
}

// probeOCR checks once whether the rasterization and recognition binaries
// are runnable. Their absence is a defined degraded state, not an error.
func (e *Extractor) probeOCR() bool {
	ctx := context.Background()
	if _, _, err := e.runner.Run(ctx, e.cfg.Tesseract, "--version"); err != nil {
		return false
	}
	if _, _, err := e.runner.Run(ctx, e.cfg.Pdftoppm, "-v"); err != nil {
		return false
	}
	return true
}

// OCRAvailable reports whether the secondary PDF phase can run.
func (e *Extractor) OCRAvailable() bool { return e.ocrOK }

// Extract picks a strategy based on file extension. A zero-length result
// is always an error, never a valid extraction.
func (e *Extractor) Extract(ctx context.Context, path string) (Result, error) {
	start := time.Now()
	format := constants.MapExtToFormat(filepath.Ext(path))
	e.logger.Debug("starting extraction", "path", path, "format", format)

	var res Result
	var err error
	switch format {
	case constants.PDF:
		res, err = e.extractPDF(ctx, path)
	case constants.DOCX:
		res, err = e.extractDOCX(path)
	case constants.XLSX:
		// legacy BIFF workbooks need their own reader
		if constants.NormalizeExt(filepath.Ext(path)) == "xls" {
			res, err = e.extractXLS(path)
		} else {
			res, err = e.extractXLSX(path)
		}
	case constants.TXT:
		res, err = e.extractTXT(path)
	default:
		return Result{}, common.NewAppError("UNSUPPORTED_FORMAT",
			fmt.Sprintf("extension %q is not supported", filepath.Ext(path)),
			common.ErrUnsupportedFormat)
	}
	if err != nil {
		return res, err
	}
	res.Format = format
	res.Duration = time.Since(start)
	e.logger.Info("extraction ok",
		"path", path, "format", format, "method", res.Method,
		"chars", len(res.Text), "pages", res.Pages,
		"duration_ms", res.Duration.Milliseconds())
	return res, nil
}
