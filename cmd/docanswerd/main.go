package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"docanswer/internal/common"
	"docanswer/internal/export"
	"docanswer/internal/extract"
	"docanswer/internal/observability"
	"docanswer/internal/pipeline"
	"docanswer/internal/server"
	"docanswer/internal/usagelog"
)

func main() {
	// Logger
	logger, _ := zap.NewProduction()
	defer logger.Sync()
	log := logger.Sugar()

	// Env
	_ = godotenv.Load()
	cfg := common.LoadConfig()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	// Internals log through slog
	slogger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	// Context with signal
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	// Extraction
	extractor := extract.NewExtractor(extract.Config{
		Pdftotext:     cfg.Extract.Pdftotext,
		Pdftoppm:      cfg.Extract.Pdftoppm,
		Tesseract:     cfg.Extract.Tesseract,
		TesseractLang: cfg.Extract.TesseractLang,
		DPI:           cfg.Extract.DPI,
		MaxPages:      cfg.Extract.MaxPages,
		MinTextChars:  cfg.Extract.MinTextChars,
	}, slogger)
	if !extractor.OCRAvailable() {
		log.Warn("OCR tools not found, scanned PDFs will be rejected")
	}

	// Completion backend
	completer, err := pipeline.NewCompleter(cfg.LLM, slogger)
	if err != nil {
		log.Fatalf("completion provider: %v", err)
	}
	log.Infow("completion backend ready", "provider", completer.Provider(), "model", completer.Model())

	// Metrics
	metrics := observability.New(nil)

	// Pipeline
	pipe := pipeline.New(extractor, completer, cfg.LLM.MaxDocumentChars, cfg.LLM.MaxTokens, slogger).
		WithMetrics(metrics)

	// Usage log
	opts := []server.Option{server.WithMetrics(metrics)}
	if cfg.Usage.DBPath != "" {
		store, err := usagelog.Open(cfg.Usage.DBPath)
		if err != nil {
			log.Fatalf("usage db: %v", err)
		}
		defer store.Close()
		pipe.WithUsageRecorder(store)
		opts = append(opts, server.WithExporter(export.NewService(store, slogger)))
	}

	if err := os.MkdirAll(cfg.Server.UploadDir, 0o755); err != nil {
		log.Fatalf("upload dir: %v", err)
	}

	srv := &http.Server{
		Addr:              cfg.Server.HTTPAddr,
		Handler:           server.New(pipe, cfg.Server.UploadDir, cfg.Server.MaxUploadBytes, slogger, opts...).Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Infof("HTTP serving on %s", cfg.Server.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("http serve: %v", err)
		}
	}()

	<-ctx.Done()
	log.Info("shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Errorf("shutdown: %v", err)
	}
	fmt.Println("stopped.")
}
