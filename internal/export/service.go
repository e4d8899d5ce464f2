// Package export renders the usage log as an XLSX report.
package export

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/xuri/excelize/v2"

	"docanswer/internal/usagelog"
)

const sheetName = "Usage"

var header = []string{
	"Date", "Document", "Intent", "Provider", "Model",
	"Input Tokens", "Output Tokens", "Total Tokens", "Cost (USD)",
}

// EventLister is the slice of the usage store the exporter needs.
type EventLister interface {
	List(ctx context.Context) ([]usagelog.Event, error)
}

type Service struct {
	store  EventLister
	logger *slog.Logger
}

func NewService(store EventLister, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: store, logger: logger}
}

// UsageReportXLSX builds a workbook with one row per request and a
// totals row at the bottom.
func (s *Service) UsageReportXLSX(ctx context.Context) ([]byte, error) {
	events, err := s.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("load usage events: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	idx, err := f.NewSheet(sheetName)
	if err != nil {
		return nil, fmt.Errorf("create sheet: %w", err)
	}
	f.SetActiveSheet(idx)
	f.DeleteSheet("Sheet1")

	for col, title := range header {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		if err := f.SetCellValue(sheetName, cell, title); err != nil {
			return nil, fmt.Errorf("write header: %w", err)
		}
	}

	var totalIn, totalOut, totalTokens int
	var totalCost float64
	for i, ev := range events {
		row := i + 2
		values := []any{
			ev.CreatedAt.Format("2006-01-02 15:04:05"),
			ev.Document,
			ev.Intent,
			ev.Provider,
			ev.Model,
			ev.InputTokens,
			ev.OutputTokens,
			ev.TotalTokens,
			ev.TotalCost,
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row)
			if err := f.SetCellValue(sheetName, cell, v); err != nil {
				return nil, fmt.Errorf("write row %d: %w", row, err)
			}
		}
		totalIn += ev.InputTokens
		totalOut += ev.OutputTokens
		totalTokens += ev.TotalTokens
		totalCost += ev.TotalCost
	}

	totalRow := len(events) + 2
	totals := []any{"TOTAL", "", "", "", "", totalIn, totalOut, totalTokens, totalCost}
	for col, v := range totals {
		cell, _ := excelize.CoordinatesToCellName(col+1, totalRow)
		if err := f.SetCellValue(sheetName, cell, v); err != nil {
			return nil, fmt.Errorf("write totals: %w", err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("serialize workbook: %w", err)
	}
	s.logger.Debug("export.usage_report.ok", "events", len(events), "bytes", buf.Len())
	return buf.Bytes(), nil
}
