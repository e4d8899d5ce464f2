package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"

	"docanswer/internal/common"
	"docanswer/internal/export"
	"docanswer/internal/extract"
	"docanswer/internal/pipeline"
	"docanswer/internal/usagelog"
)

// printError prints an error message to stderr, falling back to stdout if stderr fails
func printError(format string, args ...interface{}) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		fmt.Printf(format, args...)
	}
}

func main() {
	// Parse CLI flags
	var (
		file     = flag.String("file", "", "document to question (required unless -report)")
		question = flag.String("question", "", "question to answer (required unless -report)")
		qtype    = flag.String("type", "", "question type override (skips classification)")
		provider = flag.String("provider", "", "completion provider override (openai or anthropic)")
		asJSON   = flag.Bool("json", false, "print the full result as JSON")
		usageDB  = flag.String("usage-db", "", "SQLite usage log path (optional)")
		report   = flag.String("report", "", "write an XLSX usage report to this path and exit")
	)
	flag.Parse()

	// Setup logger
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	}))
	slog.SetDefault(logger)

	_ = godotenv.Load()
	cfg := common.LoadConfig()
	if *provider != "" {
		cfg.LLM.Provider = *provider
	}

	ctx := context.Background()

	if *report != "" {
		if *usageDB != "" {
			cfg.Usage.DBPath = *usageDB
		}
		if err := writeReport(ctx, cfg.Usage.DBPath, *report, logger); err != nil {
			printError("Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("usage report written to %s\n", *report)
		return
	}

	if *file == "" || *question == "" {
		printError("Error: -file and -question are required\n")
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		printError("Error: %v\n", err)
		os.Exit(1)
	}

	extractor := extract.NewExtractor(extract.Config{
		Pdftotext:     cfg.Extract.Pdftotext,
		Pdftoppm:      cfg.Extract.Pdftoppm,
		Tesseract:     cfg.Extract.Tesseract,
		TesseractLang: cfg.Extract.TesseractLang,
		DPI:           cfg.Extract.DPI,
		MaxPages:      cfg.Extract.MaxPages,
		MinTextChars:  cfg.Extract.MinTextChars,
	}, logger)

	completer, err := pipeline.NewCompleter(cfg.LLM, logger)
	if err != nil {
		printError("Error: %v\n", err)
		os.Exit(1)
	}

	pipe := pipeline.New(extractor, completer, cfg.LLM.MaxDocumentChars, cfg.LLM.MaxTokens, logger)
	if *usageDB != "" {
		store, err := usagelog.Open(*usageDB)
		if err != nil {
			printError("Error: usage db: %v\n", err)
			os.Exit(1)
		}
		defer store.Close()
		pipe.WithUsageRecorder(store)
	}

	res, err := pipe.Run(ctx, pipeline.Request{
		Path:           *file,
		DocumentName:   *file,
		Question:       *question,
		IntentOverride: *qtype,
	})
	if err != nil {
		printError("Error: %v\n", err)
		os.Exit(1)
	}

	if *asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(res); err != nil {
			printError("Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	fmt.Println(res.Answer)
	fmt.Println()
	fmt.Printf("intent: %s  provider: %s  model: %s\n", res.Intent, res.Provider, res.Model)
	fmt.Printf("tokens: %d in / %d out / %d total  cost: %.6f %s\n",
		res.Usage.InputTokens, res.Usage.OutputTokens, res.Usage.TotalTokens,
		res.Cost.TotalCost, res.Cost.Currency)
}

func writeReport(ctx context.Context, dbPath, outPath string, logger *slog.Logger) error {
	store, err := usagelog.Open(dbPath)
	if err != nil {
		return fmt.Errorf("usage db: %w", err)
	}
	defer store.Close()

	data, err := export.NewService(store, logger).UsageReportXLSX(ctx)
	if err != nil {
		return err
	}
	return os.WriteFile(outPath, data, 0o644)
}
