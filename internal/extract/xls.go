package extract

import (
	"fmt"
	"strings"

	"github.com/shakinm/xlsReader/xls"

	"docanswer/internal/common"
)

// extractXLS handles legacy BIFF workbooks, emitting the same
// sheet-marker layout as the OOXML path.
func (e *Extractor) extractXLS(path string) (Result, error) {
	wb, err := xls.OpenFile(path)
	if err != nil {
		return Result{}, common.NewAppError("XLS_OPEN",
			"cannot open workbook", common.ErrExtraction)
	}

	var b strings.Builder
	var warnings []string
	numSheets := wb.GetNumberSheets()
	for i := 0; i < numSheets; i++ {
		sheet, err := wb.GetSheet(i)
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("sheet %d: %v", i, err))
			continue
		}
		var sb strings.Builder
		for r := 0; r < sheet.GetNumberRows(); r++ {
			row, err := sheet.GetRow(r)
			if err != nil {
				warnings = append(warnings, fmt.Sprintf("sheet %q row %d: %v", sheet.GetName(), r, err))
				continue
			}
			cells := make([]string, 0, len(row.GetCols()))
			for _, c := range row.GetCols() {
				cells = append(cells, c.GetString())
			}
			if strings.TrimSpace(strings.Join(cells, "")) == "" {
				continue
			}
			sb.WriteString(strings.Join(cells, "\t"))
			sb.WriteByte('\n')
		}
		if sb.Len() == 0 {
			continue
		}
		fmt.Fprintf(&b, "=== Sheet: %s ===\n", sheet.GetName())
		b.WriteString(sb.String())
	}

	text := strings.TrimSpace(b.String())
	if text == "" {
		return Result{}, common.NewAppError("XLS_EMPTY",
			"no sheet produced output", common.ErrExtraction)
	}
	return Result{Text: text, Method: MethodXLSX, Pages: numSheets, Warnings: warnings}, nil
}
