package extract

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"docanswer/internal/common"
)

// extractXLSX renders each non-empty sheet as a sheet-delimiter marker
// followed by tab-joined rows, in workbook order. Empty sheets are
// skipped.
func (e *Extractor) extractXLSX(path string) (Result, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return Result{}, common.NewAppError("XLSX_OPEN",
			"cannot open workbook", common.ErrExtraction)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil {
			e.logger.Warn("workbook close error", "path", path, "error", cerr)
		}
	}()

	var b strings.Builder
	var warnings []string
	sheets := f.GetSheetList()
	for _, sheet := range sheets {
		rows, err := f.GetRows(sheet)
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("sheet %q: %v", sheet, err))
			continue
		}
		var sb strings.Builder
		for _, row := range rows {
			if strings.TrimSpace(strings.Join(row, "")) == "" {
				continue
			}
			sb.WriteString(strings.Join(row, "\t"))
			sb.WriteByte('\n')
		}
		if sb.Len() == 0 {
			continue
		}
		fmt.Fprintf(&b, "=== Sheet: %s ===\n", sheet)
		b.WriteString(sb.String())
	}

	text := strings.TrimSpace(b.String())
	if text == "" {
		return Result{}, common.NewAppError("XLSX_EMPTY",
			"no sheet produced output", common.ErrExtraction)
	}
	return Result{Text: text, Method: MethodXLSX, Pages: len(sheets), Warnings: warnings}, nil
}
